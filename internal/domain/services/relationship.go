package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// RelationshipView is a stored edge with both members resolved, read as
// "To is the Description of From".
type RelationshipView struct {
	entities.Relationship
	FromName    string `json:"fromName"`
	ToName      string `json:"toName"`
	Description string `json:"description"`
}

// RelationshipFilter selects edges. At most one field is honoured, in the
// order RelationshipID, MemberID, Type; an empty filter lists every edge.
type RelationshipFilter struct {
	RelationshipID int64
	MemberID       int64
	Type           entities.RelationCode
	// Outgoing restricts a member filter to edges whose from end is the member.
	Outgoing bool
}

// RelationshipService reads stored relationships.
type RelationshipService struct {
	store ports.FamilyStore
	lock  *sync.RWMutex
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(store ports.FamilyStore, lock *sync.RWMutex) *RelationshipService {
	return &RelationshipService{
		store: store,
		lock:  lock,
	}
}

// List returns the edges matching the filter in id order.
func (s *RelationshipService) List(ctx context.Context, filter RelationshipFilter) ([]RelationshipView, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	var views []RelationshipView
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		rels, err := findRelationships(ctx, tx, filter)
		if err != nil {
			return err
		}
		views, err = describe(ctx, tx, rels)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func findRelationships(ctx context.Context, tx ports.FamilyStore, filter RelationshipFilter) ([]entities.Relationship, error) {
	switch {
	case filter.RelationshipID != 0:
		rel, err := tx.FindRelationshipByID(ctx, filter.RelationshipID)
		if err != nil {
			return nil, fmt.Errorf("finding relationship: %w", err)
		}
		if rel == nil {
			return nil, nil
		}
		return []entities.Relationship{*rel}, nil
	case filter.MemberID != 0:
		member, err := tx.FindMemberByID(ctx, filter.MemberID)
		if err != nil {
			return nil, fmt.Errorf("finding member: %w", err)
		}
		if member == nil {
			return nil, fmt.Errorf("%w: %d", entities.ErrMemberNotFound, filter.MemberID)
		}
		if filter.Outgoing {
			return tx.FindRelationshipsFrom(ctx, filter.MemberID)
		}
		return tx.FindRelationshipsInvolving(ctx, filter.MemberID)
	case filter.Type != 0:
		if !filter.Type.Valid() {
			return nil, fmt.Errorf("%w: %d", entities.ErrInvalidRelationCode, int(filter.Type))
		}
		return tx.FindRelationshipsByType(ctx, filter.Type)
	}
	return tx.ListRelationships(ctx)
}

func describe(ctx context.Context, tx ports.FamilyStore, rels []entities.Relationship) ([]RelationshipView, error) {
	names := make(map[int64]string)
	name := func(id int64) (string, error) {
		if n, ok := names[id]; ok {
			return n, nil
		}
		m, err := tx.FindMemberByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("finding member: %w", err)
		}
		if m != nil {
			names[id] = m.Name
		}
		return names[id], nil
	}

	views := make([]RelationshipView, 0, len(rels))
	for _, rel := range rels {
		from, err := name(rel.FromID)
		if err != nil {
			return nil, err
		}
		to, err := name(rel.ToID)
		if err != nil {
			return nil, err
		}
		views = append(views, RelationshipView{
			Relationship: rel,
			FromName:     from,
			ToName:       to,
			Description:  rel.Type.Description(),
		})
	}
	return views, nil
}

// History returns the newest audit entries, optionally filtered by action.
func (s *RelationshipService) History(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.store.FindAuditLog(ctx, action, limit)
}
