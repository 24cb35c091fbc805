package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
	"github.com/ersonp/kinship/internal/infrastructure/relationaldb/sqlite"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - the store stays internal.
type Deps struct {
	Config   *config.Config
	BasePath string
	Family   *handlers.Family
}

// withFamily loads config, opens the selected family graph, then calls the
// provided function. It handles cleanup automatically.
func withFamily(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}
	return withFamilyAt(ctx, cwd, globalFamily, fn)
}

func withFamilyAt(ctx context.Context, basePath, family string, fn func(*Deps) error) error {
	cfg, err := config.Load(basePath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	families, err := config.LoadFamilies(basePath)
	if err != nil {
		return fmt.Errorf("loading families: %w", err)
	}
	if _, err := families.Get(family); err != nil {
		return err
	}

	store, err := openStore(cfg.SQLitePath(basePath, family))
	if err != nil {
		return fmt.Errorf("opening family store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring sqlite schema: %w", err)
	}

	return fn(&Deps{
		Config:   cfg,
		BasePath: basePath,
		Family:   handlers.NewFamily(family, store, limitsFor(cfg)),
	})
}

// openStore is the handlers.StoreOpener backed by SQLite.
func openStore(path string) (ports.FamilyStore, error) {
	repo, err := sqlite.NewRepository(config.SQLiteConfig{Path: path})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func limitsFor(cfg *config.Config) handlers.Limits {
	return handlers.Limits{
		MaxNameLength: cfg.Server.MaxNameLength,
		MaxGeneration: cfg.Server.MaxGeneration,
	}
}
