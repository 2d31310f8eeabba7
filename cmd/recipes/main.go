// Package main provides the recipes CLI, a terminal front end to the same
// catalog the API server exposes. Every command opens the store, works on a
// freshly loaded catalog and closes the store again.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkordes/betterrecipe/internal/config"
	"github.com/pkordes/betterrecipe/internal/domain"
	"github.com/pkordes/betterrecipe/internal/repo"
	"github.com/pkordes/betterrecipe/internal/service"
)

// app carries the global flags and output streams shared by every command.
type app struct {
	out     io.Writer
	errOut  io.Writer
	dbURL   string
	asJSON  bool
	verbose bool
	log     *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "recipes",
		Short: "Browse and edit the BetterRecipe catalog",
		Long: `recipes works directly on the recipe store used by the API server.

Examples:
  recipes list --search pie --sort alphabetical
  recipes add "Pasta" -i Tomato -i Basil --instructions "Boil, then toss."
  recipes edit <id> --title "Pasta al pomodoro" --add-ingredient Garlic
  recipes favorite <id>
  recipes delete 2 --sort favorites          # index as shown by list with the same flags`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.dbURL, "db", "", "Recipe store: SQLite path, postgres:// URL or \"memory\" (default $DATABASE_URL or recipes.db)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.addCmd(),
		a.editCmd(),
		a.favoriteCmd(),
		a.deleteCmd(),
	)
	return root
}

// setup resolves configuration once flags are parsed.
func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.dbURL == "" {
		a.dbURL = cfg.DatabaseURL
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	return nil
}

// withCatalog opens the store, loads a catalog with the given search text and
// sort mode, and runs fn against it. The store is closed afterwards.
func (a *app) withCatalog(ctx context.Context, search, sort string, fn func(*service.Catalog) error) error {
	mode, err := domain.ParseSortMode(sort)
	if err != nil {
		return err
	}

	store, err := repo.Open(ctx, a.dbURL)
	if err != nil {
		return err
	}
	defer store.Close()
	a.log.Debug("store opened", "database", repo.RedactURL(a.dbURL))

	catalog := service.NewCatalog(store)
	if err := catalog.SetSearchText(ctx, search); err != nil {
		return err
	}
	catalog.SetSortMode(mode)
	return fn(catalog)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		stop()
		os.Exit(1)
	}
}
