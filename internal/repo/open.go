package repo

import (
	"context"
	"fmt"
	"net/url"
)

// MemoryURL selects the in-memory backend in Open.
const MemoryURL = "memory"

// Open builds a ready-to-use Store for a DATABASE_URL value.
// "memory" gives an ephemeral store; any other value is opened with OpenDB
// and migrated to the latest schema before use.
// The caller owns the Store and must Close it.
func Open(ctx context.Context, url string) (*Store, error) {
	if url == MemoryURL {
		return NewMemoryStore(), nil
	}

	db, dialect, err := OpenDB(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("repo.Open: %w", err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.Open: %w", err)
	}
	return NewStore(NewSQLBackend(db, dialect)), nil
}

// RedactURL returns rawURL with any password masked, for logging.
// Values that are not URLs (file paths, "memory") are returned unchanged.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.User == nil {
		return rawURL
	}
	return u.Redacted()
}
