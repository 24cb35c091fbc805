package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
)

// RelationshipHandler handles relationship assertions and queries.
type RelationshipHandler struct {
	propagation   *services.PropagationService
	relationships *services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler.
func NewRelationshipHandler(propagation *services.PropagationService, relationships *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{
		propagation:   propagation,
		relationships: relationships,
	}
}

// HandleAssert records that to is the code of from and derives the implied edges.
func (h *RelationshipHandler) HandleAssert(ctx context.Context, fromID, toID int64, code entities.RelationCode) (*services.AssertResult, error) {
	result, err := h.propagation.AssertRelationship(ctx, fromID, toID, code)
	if err != nil {
		metrics.RelationshipsAsserted.WithLabelValues(assertOutcome(err)).Inc()
		return nil, err
	}

	metrics.RelationshipsAsserted.WithLabelValues("accepted").Inc()
	metrics.DerivedEdges.Add(float64(result.Derived))
	metrics.DuplicatesRemoved.Add(float64(result.DuplicatesRemoved))
	return result, nil
}

// HandleList returns relationships matching filter.
func (h *RelationshipHandler) HandleList(ctx context.Context, filter services.RelationshipFilter) ([]services.RelationshipView, error) {
	return h.relationships.List(ctx, filter)
}

// HandleCodes returns the relation taxonomy.
func (h *RelationshipHandler) HandleCodes() []entities.RelationCodeInfo {
	return entities.RelationCodeCatalog()
}

// HandleDedupe removes duplicate relationship rows.
func (h *RelationshipHandler) HandleDedupe(ctx context.Context) (int64, error) {
	removed, err := h.propagation.Dedupe(ctx)
	if err != nil {
		return 0, err
	}
	metrics.DuplicatesRemoved.Add(float64(removed))
	return removed, nil
}

// HandleHistory lists audit entries, newest first.
func (h *RelationshipHandler) HandleHistory(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	return h.relationships.History(ctx, action, limit)
}

func assertOutcome(err error) string {
	switch {
	case errors.Is(err, entities.ErrRejected),
		errors.Is(err, entities.ErrSelfRelationship),
		errors.Is(err, entities.ErrInvalidRelationCode),
		errors.Is(err, entities.ErrMemberNotFound):
		return "rejected"
	default:
		return "error"
	}
}
