package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// Kinship describes how ?member2ID= is related to ?member1ID=.
func (h *Handler) Kinship(c *gin.Context) {
	a, ok := positiveID(c, "member1ID", c.Query("member1ID"))
	if !ok {
		return
	}
	b, ok := positiveID(c, "member2ID", c.Query("member2ID"))
	if !ok {
		return
	}

	result, err := h.family.Kinship.HandleKinship(c.Request.Context(), a, b)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// KinshipNetwork returns the network around ?memberID= spanning
// ?generations= blood hops (default 2).
func (h *Handler) KinshipNetwork(c *gin.Context) {
	center, ok := positiveID(c, "memberID", c.Query("memberID"))
	if !ok {
		return
	}

	generations := entities.DefaultNetworkGenerations
	if raw := c.Query("generations"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < entities.MinNetworkGenerations || n > entities.MaxNetworkGenerations {
			badRequest(c, "generations must be between %d and %d", entities.MinNetworkGenerations, entities.MaxNetworkGenerations)
			return
		}
		generations = n
	}

	network, err := h.family.Kinship.HandleNetwork(c.Request.Context(), center, generations)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, network)
}
