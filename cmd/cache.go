package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/antonioabatte/spotizip/internal/repositories"
	"github.com/antonioabatte/spotizip/internal/shared"
	"github.com/urfave/cli/v3"
)

// openSearches opens the configured database and returns the search
// repository. The caller closes the database.
func (r *Runner) openSearches(configPath string) (*sql.DB, *repositories.SearchRepository, error) {
	config := r.loadConfig(configPath)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, repositories.NewSearchRepository(db), nil
}

// CacheStats reports how many search results are cached.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, searches, err := r.openSearches(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	count, err := searches.Count()
	if err != nil {
		return fmt.Errorf("failed to count cached searches: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]int{"cached_searches": count}, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Search Cache")
	r.writePlain("Cached searches: %d\n", count)
	return nil
}

// CacheClear drops every cached search result.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, searches, err := r.openSearches(cmd.String("config"))
	if err != nil {
		return err
	}
	defer db.Close()

	cleared, err := searches.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear search cache: %w", err)
	}

	r.logger.Info("search cache cleared", "entries", cleared)
	r.writePlain("✓ Cleared %d cached searches\n", cleared)
	return nil
}
