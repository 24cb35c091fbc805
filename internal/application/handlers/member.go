package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/services"
)

// MemberHandler handles member operations.
type MemberHandler struct {
	service *services.MemberService
	limits  Limits
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(service *services.MemberService, limits Limits) *MemberHandler {
	return &MemberHandler{
		service: service,
		limits:  limits,
	}
}

// MemberInput holds the fields of a new member.
type MemberInput struct {
	Name       string          `json:"name"`
	Generation int             `json:"generation"`
	Gender     entities.Gender `json:"gender"`
	Remark     string          `json:"remark,omitempty"`
}

// HandleCreate validates input against the configured limits and stores a member.
func (h *MemberHandler) HandleCreate(ctx context.Context, in MemberInput) (*entities.Member, error) {
	if err := h.checkName(in.Name); err != nil {
		return nil, err
	}
	if h.limits.MaxGeneration > 0 && in.Generation > h.limits.MaxGeneration {
		return nil, fmt.Errorf("%w: generation must be at most %d", entities.ErrInvalidMember, h.limits.MaxGeneration)
	}

	return h.service.Create(ctx, &entities.Member{
		Name:       in.Name,
		Generation: in.Generation,
		Gender:     in.Gender,
		Remark:     in.Remark,
	})
}

// HandleUpdate applies the set fields of update.
func (h *MemberHandler) HandleUpdate(ctx context.Context, id int64, update entities.MemberUpdate) (*entities.Member, error) {
	if update.Name != nil {
		if err := h.checkName(*update.Name); err != nil {
			return nil, err
		}
	}
	return h.service.Update(ctx, id, update)
}

// HandleDelete removes a member and returns how many relationships went with it.
func (h *MemberHandler) HandleDelete(ctx context.Context, id int64) (int, error) {
	return h.service.Delete(ctx, id)
}

// HandleGet returns one member.
func (h *MemberHandler) HandleGet(ctx context.Context, id int64) (*entities.Member, error) {
	return h.service.Get(ctx, id)
}

// HandleResolve finds a member by id or by name substring.
func (h *MemberHandler) HandleResolve(ctx context.Context, ref string) (*entities.Member, error) {
	return h.service.Resolve(ctx, ref)
}

// HandleList returns every member.
func (h *MemberHandler) HandleList(ctx context.Context) ([]entities.Member, error) {
	return h.service.List(ctx)
}

// HandleSearch lists members whose name contains query.
func (h *MemberHandler) HandleSearch(ctx context.Context, query string, limit int) ([]entities.Member, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search name is required", entities.ErrInvalidMember)
	}
	return h.service.Search(ctx, query, limit)
}

// Stats reports the member and relationship counts.
type Stats struct {
	Members       int `json:"members"`
	Relationships int `json:"relationships"`
}

// HandleStats counts members and relationships.
func (h *MemberHandler) HandleStats(ctx context.Context) (*Stats, error) {
	members, rels, err := h.service.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Members: members, Relationships: rels}, nil
}

func (h *MemberHandler) checkName(name string) error {
	if h.limits.MaxNameLength > 0 && utf8.RuneCountInString(strings.TrimSpace(name)) > h.limits.MaxNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", entities.ErrInvalidMember, h.limits.MaxNameLength)
	}
	return nil
}
