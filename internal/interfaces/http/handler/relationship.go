package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
)

type assertRequest struct {
	Member1ID    *int64 `json:"member1ID"`
	Member2ID    *int64 `json:"member2ID"`
	RelationType *int   `json:"relationType"`
}

// ListRelationships filters by ?memberId=, ?relationId= or ?relationType=;
// with none of them it returns every edge.
func (h *Handler) ListRelationships(c *gin.Context) {
	var filter services.RelationshipFilter

	if raw, ok := query(c, "relationId", "relationID"); ok {
		id, ok := positiveID(c, "relationID", raw)
		if !ok {
			return
		}
		filter.RelationshipID = id
	} else if raw, ok := query(c, "memberId", "memberID"); ok {
		id, ok := positiveID(c, "memberID", raw)
		if !ok {
			return
		}
		filter.MemberID = id
		filter.Outgoing = c.Query("direction") != "involving"
	} else if raw, ok := query(c, "relationType"); ok {
		code, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "Invalid relationType format")
			return
		}
		if !entities.RelationCode(code).Valid() {
			badRequest(c, "relationType must be between %d and %d", entities.MinRelationCode, entities.MaxRelationCode)
			return
		}
		filter.Type = entities.RelationCode(code)
	}

	views, err := h.family.Relationships.HandleList(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}

	if filter.RelationshipID != 0 {
		if len(views) == 0 {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Relationship not found"})
			return
		}
		c.JSON(http.StatusOK, views[0])
		return
	}
	if views == nil {
		views = []services.RelationshipView{}
	}
	c.JSON(http.StatusOK, views)
}

// CreateRelationship asserts that member2 is the relationType of member1.
func (h *Handler) CreateRelationship(c *gin.Context) {
	var req assertRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Member1ID == nil || req.Member2ID == nil || req.RelationType == nil {
		badRequest(c, "Missing required fields: member1ID, member2ID, and relationType are required")
		return
	}
	if *req.Member1ID <= 0 {
		badRequest(c, "member1ID must be positive")
		return
	}
	if *req.Member2ID <= 0 {
		badRequest(c, "member2ID must be positive")
		return
	}
	code := entities.RelationCode(*req.RelationType)
	if !code.Valid() {
		badRequest(c, "relationType must be between %d and %d", entities.MinRelationCode, entities.MaxRelationCode)
		return
	}
	if *req.Member1ID == *req.Member2ID {
		badRequest(c, "member1ID and member2ID cannot be the same")
		return
	}

	result, err := h.family.Relationships.HandleAssert(c.Request.Context(), *req.Member1ID, *req.Member2ID, code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Relationship added successfully",
		"result":  result,
	})
}
