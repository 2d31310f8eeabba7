package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/migrations"
)

// execer is the minimal interface satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// sqlBackend is the database/sql implementation of Backend.
// Queries are written with "?" placeholders and rebound for Postgres.
type sqlBackend struct {
	db      *sql.DB
	dialect goose.Dialect
}

// NewSQLBackend constructs a Backend over an already-migrated database.
// dialect must be goose.DialectSQLite3 or goose.DialectPostgres.
func NewSQLBackend(db *sql.DB, dialect goose.Dialect) Backend {
	return &sqlBackend{db: db, dialect: dialect}
}

// OpenDB opens a database for the given URL and verifies it is reachable.
// postgres:// and postgresql:// URLs use the pgx driver; anything else is
// treated as a SQLite file path (":memory:" included).
func OpenDB(ctx context.Context, url string) (*sql.DB, goose.Dialect, error) {
	driver, dsn, dialect := "sqlite", sqliteDSN(url), goose.DialectSQLite3
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		driver, dsn, dialect = "pgx", url, goose.DialectPostgres
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("repo.OpenDB: open: %w", err)
	}
	if dialect == goose.DialectSQLite3 {
		// One connection: a ":memory:" database lives per connection, and
		// SQLite serializes writers anyway.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("repo.OpenDB: ping: %w", err)
	}
	return db, dialect, nil
}

// Migrate applies every pending migration embedded in migrations.FS.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	provider, err := goose.NewProvider(dialect, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("repo.Migrate: create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("repo.Migrate: up: %w", err)
	}
	return nil
}

// sqliteDSN adds the pragmas every SQLite connection needs.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)"
}

// Query returns matching rows. The LIKE filter is pushed down for ASCII
// search text only, because SQLite's lower() folds ASCII alone; the result is
// always re-checked with domain.MatchesSearch.
func (b *sqlBackend) Query(ctx context.Context, search string) ([]domain.Recipe, error) {
	q := `SELECT id, title, ingredients, instructions, is_favorite FROM recipes`
	var args []any
	if search != "" && isASCII(search) {
		q += ` WHERE lower(title) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(search))+"%")
	}

	rows, err := b.db.QueryContext(ctx, b.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("repo.sqlBackend.Query: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.sqlBackend.Query: scan: %w", err)
		}
		if domain.MatchesSearch(r.Title, search) {
			out = append(out, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.sqlBackend.Query: rows: %w", err)
	}
	return out, nil
}

// Exists reports whether id is persisted.
func (b *sqlBackend) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx, b.rebind(`SELECT 1 FROM recipes WHERE id = ?`), id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repo.sqlBackend.Exists: %w", err)
	}
	return true, nil
}

// Apply writes cs inside one transaction and rolls back on the first error.
func (b *sqlBackend) Apply(ctx context.Context, cs Changeset) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("repo.sqlBackend.Apply: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range cs.Inserts {
		if err = b.insert(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, r := range cs.Updates {
		if err = b.update(ctx, tx, r); err != nil {
			return err
		}
	}
	for _, id := range cs.Deletes {
		if err = b.delete(ctx, tx, id); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("repo.sqlBackend.Apply: commit: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (b *sqlBackend) Close() error {
	return b.db.Close()
}

func (b *sqlBackend) insert(ctx context.Context, ex execer, r domain.Recipe) error {
	const q = `
		INSERT INTO recipes (id, title, ingredients, instructions, is_favorite)
		VALUES (?, ?, ?, ?, ?)`

	ingredients, err := encodeIngredients(r.Ingredients)
	if err != nil {
		return fmt.Errorf("repo.sqlBackend.insert: %w", err)
	}
	_, err = ex.ExecContext(ctx, b.rebind(q), r.ID.String(), r.Title, ingredients, r.Instructions, r.IsFavorite)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("repo.sqlBackend.insert: %w: duplicate id %s", domain.ErrStore, r.ID)
		}
		return fmt.Errorf("repo.sqlBackend.insert: %w", err)
	}
	return nil
}

func (b *sqlBackend) update(ctx context.Context, ex execer, r domain.Recipe) error {
	const q = `
		UPDATE recipes
		SET title        = ?,
		    ingredients  = ?,
		    instructions = ?,
		    is_favorite  = ?
		WHERE id = ?`

	ingredients, err := encodeIngredients(r.Ingredients)
	if err != nil {
		return fmt.Errorf("repo.sqlBackend.update: %w", err)
	}
	res, err := ex.ExecContext(ctx, b.rebind(q), r.Title, ingredients, r.Instructions, r.IsFavorite, r.ID.String())
	if err != nil {
		return fmt.Errorf("repo.sqlBackend.update: %w", err)
	}
	return requireAffected(res, "repo.sqlBackend.update")
}

func (b *sqlBackend) delete(ctx context.Context, ex execer, id uuid.UUID) error {
	res, err := ex.ExecContext(ctx, b.rebind(`DELETE FROM recipes WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("repo.sqlBackend.delete: %w", err)
	}
	return requireAffected(res, "repo.sqlBackend.delete")
}

// rebind rewrites "?" placeholders as $1, $2, ... for Postgres.
// None of the queries contain a literal "?".
func (b *sqlBackend) rebind(q string) string {
	if b.dialect != goose.DialectPostgres {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecipe maps a single database row into a domain.Recipe.
func scanRecipe(s scanner) (domain.Recipe, error) {
	var (
		r           domain.Recipe
		id          string
		ingredients string
	)
	if err := s.Scan(&id, &r.Title, &ingredients, &r.Instructions, &r.IsFavorite); err != nil {
		return domain.Recipe{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	r.ID = parsed

	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return domain.Recipe{}, fmt.Errorf("decode ingredients of %s: %w", id, err)
	}
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	return r, nil
}

// encodeIngredients serializes the ordered list as a JSON array.
// A nil slice is stored as "[]" so the column never holds "null".
func encodeIngredients(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode ingredients: %w", err)
	}
	return string(b), nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

// isUniqueViolation recognizes primary-key collisions from both drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isASCII(s string) bool {
	for _, c := range s {
		if c > unicode.MaxASCII {
			return false
		}
	}
	return true
}
