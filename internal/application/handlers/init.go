package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

// StoreOpener opens the family store at a database path.
type StoreOpener func(path string) (ports.FamilyStore, error)

// InitHandler handles workspace initialization and the family registry.
type InitHandler struct {
	open StoreOpener
}

// NewInitHandler creates a new init handler.
func NewInitHandler(open StoreOpener) *InitHandler {
	return &InitHandler{open: open}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath   string
	Family       string
	DatabasePath string
}

// Handle writes the default config and creates the first family graph.
func (h *InitHandler) Handle(ctx context.Context, basePath, family string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("kin already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	if family == "" {
		family = config.DefaultFamily
	}
	dbPath, err := h.HandleCreateFamily(ctx, basePath, family, "")
	if err != nil {
		return nil, err
	}

	return &InitResult{
		ConfigPath:   config.ConfigFilePath(basePath),
		Family:       family,
		DatabasePath: dbPath,
	}, nil
}

// HandleCreateFamily registers a family graph and creates its database.
func (h *InitHandler) HandleCreateFamily(ctx context.Context, basePath, name, description string) (string, error) {
	cfg, err := config.Load(basePath)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}

	families, err := config.LoadFamilies(basePath)
	if err != nil {
		return "", fmt.Errorf("loading families: %w", err)
	}
	if families.Exists(name) {
		return "", fmt.Errorf("family %q already exists", name)
	}

	dbPath := cfg.SQLitePath(basePath, name)
	if err := os.MkdirAll(config.FamilyDir(basePath, name), 0755); err != nil {
		return "", fmt.Errorf("creating family directory: %w", err)
	}

	store, err := h.open(dbPath)
	if err != nil {
		return "", fmt.Errorf("opening family store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return "", fmt.Errorf("creating schema: %w", err)
	}

	families.Add(name, config.FamilyEntry{Description: description})
	if err := families.Save(basePath); err != nil {
		return "", err
	}
	return dbPath, nil
}

// HandleDeleteFamily unregisters a family graph and removes its directory.
func (h *InitHandler) HandleDeleteFamily(basePath, name string) error {
	families, err := config.LoadFamilies(basePath)
	if err != nil {
		return fmt.Errorf("loading families: %w", err)
	}
	if !families.Exists(name) {
		return fmt.Errorf("family %q not found", name)
	}

	if err := os.RemoveAll(config.FamilyDir(basePath, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing family directory: %w", err)
	}

	families.Remove(name)
	return families.Save(basePath)
}
