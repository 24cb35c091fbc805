package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/parsers"
)

// ArchiveHandler handles export, import and comparison of family snapshots.
type ArchiveHandler struct {
	service *services.ArchiveService
}

// NewArchiveHandler creates a new archive handler.
func NewArchiveHandler(service *services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool // Validate without touching the family graph
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Members       int
	Relationships int
	DryRun        bool
	Rebuild       *services.RebuildResult
}

// HandleExport returns the members and base relationships of the family.
func (h *ArchiveHandler) HandleExport(ctx context.Context) (*entities.Snapshot, error) {
	return h.service.Export(ctx)
}

// HandleImport loads a snapshot directory and rebuilds the family from it.
func (h *ArchiveHandler) HandleImport(ctx context.Context, dir string, opts ImportOptions) (*ImportResult, error) {
	snap, err := parsers.LoadSnapshot(dir)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Members:       len(snap.Members),
		Relationships: len(snap.Relationships),
		DryRun:        opts.DryRun,
	}

	if opts.DryRun {
		if err := services.ValidateSnapshot(snap); err != nil {
			return nil, fmt.Errorf("validating snapshot: %w", err)
		}
		return result, nil
	}

	rebuild, err := h.service.Rebuild(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("rebuilding family: %w", err)
	}
	result.Rebuild = rebuild
	return result, nil
}

// HandleDiff compares two snapshot directories.
func (h *ArchiveHandler) HandleDiff(oldDir, newDir string) (*entities.SnapshotDiff, error) {
	before, err := parsers.LoadSnapshot(oldDir)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", oldDir, err)
	}
	after, err := parsers.LoadSnapshot(newDir)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", newDir, err)
	}
	return services.Diff(before, after), nil
}
