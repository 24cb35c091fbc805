package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
)

// KinshipHandler handles kinship resolution and network queries.
type KinshipHandler struct {
	kinship *services.KinshipService
	network *services.NetworkService
}

// NewKinshipHandler creates a new KinshipHandler.
func NewKinshipHandler(kinship *services.KinshipService, network *services.NetworkService) *KinshipHandler {
	return &KinshipHandler{
		kinship: kinship,
		network: network,
	}
}

// HandleKinship describes how b is related to a. On a store failure the
// result is still returned alongside the error.
func (h *KinshipHandler) HandleKinship(ctx context.Context, a, b int64) (*entities.KinshipResult, error) {
	result, err := h.kinship.FindKinship(ctx, a, b)
	switch {
	case err != nil:
		metrics.KinshipQueries.WithLabelValues("error").Inc()
	case result.Description == entities.KinshipMemberMissing:
		metrics.KinshipQueries.WithLabelValues("not_found").Inc()
	case result.Related:
		metrics.KinshipQueries.WithLabelValues("related").Inc()
		metrics.KinshipPathLength.Observe(float64(result.PathLength()))
	default:
		metrics.KinshipQueries.WithLabelValues("unrelated").Inc()
	}
	return result, err
}

// HandleNetwork builds the kinship network around center. A zero
// generations value selects the default radius.
func (h *KinshipHandler) HandleNetwork(ctx context.Context, center int64, generations int) (*entities.Network, error) {
	if generations == 0 {
		generations = entities.DefaultNetworkGenerations
	}

	network, err := h.network.BuildNetwork(ctx, center, generations)
	if err != nil {
		metrics.NetworkBuilds.WithLabelValues(networkOutcome(err)).Inc()
		return nil, err
	}

	metrics.NetworkBuilds.WithLabelValues("ok").Inc()
	metrics.NetworkNodes.Observe(float64(len(network.Nodes)))
	return network, nil
}

func networkOutcome(err error) string {
	switch {
	case errors.Is(err, entities.ErrMemberNotFound):
		return "not_found"
	case errors.Is(err, entities.ErrInvalidGenerations):
		return "invalid"
	default:
		return "error"
	}
}
