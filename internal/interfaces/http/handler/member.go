package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ersonp/kinship/internal/application/handlers"
	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
)

type createMemberRequest struct {
	Name       string           `json:"name"`
	Generation *int             `json:"generation"`
	Gender     *entities.Gender `json:"gender"`
	Remark     string           `json:"remark"`
}

// ListMembers returns every member, or with ?name= the first member whose
// name contains the value.
func (h *Handler) ListMembers(c *gin.Context) {
	ctx := c.Request.Context()

	if name, ok := c.GetQuery("name"); ok {
		if !validName(c, name) {
			return
		}
		m, err := h.family.Members.HandleResolve(ctx, name)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
		return
	}

	members, err := h.family.Members.HandleList(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}
	if members == nil {
		members = []entities.Member{}
	}
	c.JSON(http.StatusOK, members)
}

// SearchMembers lists members whose name contains ?name=, up to ?limit=.
func (h *Handler) SearchMembers(c *gin.Context) {
	name := c.Query("name")
	if !validName(c, name) {
		return
	}

	limit := services.DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	members, err := h.family.Members.HandleSearch(c.Request.Context(), name, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	if members == nil {
		members = []entities.Member{}
	}
	c.JSON(http.StatusOK, members)
}

// GetMember returns one member.
func (h *Handler) GetMember(c *gin.Context) {
	id, ok := positiveID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	m, err := h.family.Members.HandleGet(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// CreateMember stores a new member.
func (h *Handler) CreateMember(c *gin.Context) {
	var req createMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	if !validName(c, req.Name) {
		return
	}
	if req.Generation == nil || req.Gender == nil {
		badRequest(c, "Missing required fields: name, generation and gender are required")
		return
	}

	m, err := h.family.Members.HandleCreate(c.Request.Context(), handlers.MemberInput{
		Name:       req.Name,
		Generation: *req.Generation,
		Gender:     *req.Gender,
		Remark:     req.Remark,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// UpdateMember changes the name, gender or remark of a member.
func (h *Handler) UpdateMember(c *gin.Context) {
	id, ok := positiveID(c, "id", c.Param("id"))
	if !ok {
		return
	}

	var update entities.MemberUpdate
	if !bindJSON(c, &update) {
		return
	}
	if update.Name != nil && !validName(c, *update.Name) {
		return
	}
	if update.Gender != nil && !update.Gender.Valid() {
		badRequest(c, "gender must be 0 (male) or 1 (female)")
		return
	}

	m, err := h.family.Members.HandleUpdate(c.Request.Context(), id, update)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// DeleteMember removes a member and every relationship involving it.
func (h *Handler) DeleteMember(c *gin.Context) {
	id, ok := positiveID(c, "id", c.Param("id"))
	if !ok {
		return
	}
	removed, err := h.family.Members.HandleDelete(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":              "Member deleted successfully",
		"relationshipsRemoved": removed,
	})
}

func validName(c *gin.Context, name string) bool {
	if strings.TrimSpace(name) == "" {
		badRequest(c, "Name cannot be empty")
		return false
	}
	if containsControlChars(name) {
		badRequest(c, "Name is invalid")
		return false
	}
	return true
}

// bindJSON decodes the request body, reporting oversize and malformed bodies.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return false
		}
		badRequest(c, "Invalid JSON format")
		return false
	}
	return true
}
