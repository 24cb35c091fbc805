// Package handler implements the JSON endpoints of the kinship HTTP API.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/infrastructure/logging"
)

// Handler serves one family graph.
type Handler struct {
	family *handlers.Family
}

// New creates a Handler for family.
func New(family *handlers.Family) *Handler {
	return &Handler{family: family}
}

// Health reports liveness along with graph counts.
func (h *Handler) Health(c *gin.Context) {
	stats, err := h.family.Members.HandleStats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"family":        h.family.Name,
		"members":       stats.Members,
		"relationships": stats.Relationships,
	})
}

// RelationCodes lists the taxonomy.
func (h *Handler) RelationCodes(c *gin.Context) {
	c.JSON(http.StatusOK, h.family.Relationships.HandleCodes())
}

func badRequest(c *gin.Context, format string, args ...any) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf(format, args...)})
}

// fail maps domain errors to status codes. Anything unrecognized is logged
// and reported as a bare 500.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entities.ErrMemberNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entities.ErrRejected):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrSelfRelationship),
		errors.Is(err, entities.ErrInvalidRelationCode),
		errors.Is(err, entities.ErrInvalidGenerations),
		errors.Is(err, entities.ErrInvalidMember):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(),
			"error", err,
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal Server Error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// positiveID parses a required positive id from a path or query value.
func positiveID(c *gin.Context, name, raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		badRequest(c, "%s cannot be empty", name)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "Invalid %s format", name)
		return 0, false
	}
	if id <= 0 {
		badRequest(c, "%s must be positive", name)
		return 0, false
	}
	return id, true
}

// query returns the value of the first of names present in the query string.
func query(c *gin.Context, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := c.GetQuery(name); ok {
			return v, true
		}
	}
	return "", false
}

func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
