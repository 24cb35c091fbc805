package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// DefaultSearchLimit caps member searches when no limit is given.
const DefaultSearchLimit = 20

// MemberService manages family members.
type MemberService struct {
	store ports.FamilyStore
	lock  *sync.RWMutex
}

// NewMemberService creates a new MemberService.
func NewMemberService(store ports.FamilyStore, lock *sync.RWMutex) *MemberService {
	return &MemberService{
		store: store,
		lock:  lock,
	}
}

// Create validates and stores a new member.
func (s *MemberService) Create(ctx context.Context, member *entities.Member) (*entities.Member, error) {
	member.Name = strings.TrimSpace(member.Name)
	if err := member.Validate(); err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		if err := tx.SaveMember(ctx, member); err != nil {
			return fmt.Errorf("saving member: %w", err)
		}
		return tx.LogAction(ctx, entities.ActionMemberCreate, member.ID, map[string]any{
			"name":       member.Name,
			"generation": member.Generation,
			"gender":     member.Gender.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Get returns a member by id or entities.ErrMemberNotFound.
func (s *MemberService) Get(ctx context.Context, id int64) (*entities.Member, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	member, err := s.store.FindMemberByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrMemberNotFound, id)
	}
	return member, nil
}

// Resolve looks a member up by numeric id or, failing that, by name.
func (s *MemberService) Resolve(ctx context.Context, ref string) (*entities.Member, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.Get(ctx, id)
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	member, err := s.store.FindMemberByName(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("finding member: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %q", entities.ErrMemberNotFound, ref)
	}
	return member, nil
}

// List returns every member ordered by id.
func (s *MemberService) List(ctx context.Context) ([]entities.Member, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.store.ListMembers(ctx)
}

// Search finds members whose name contains query.
func (s *MemberService) Search(ctx context.Context, query string, limit int) ([]entities.Member, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.store.SearchMembers(ctx, strings.TrimSpace(query), limit)
}

// Update applies a partial update. Generation cannot change once edges
// may depend on it.
func (s *MemberService) Update(ctx context.Context, id int64, update entities.MemberUpdate) (*entities.Member, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var member *entities.Member
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		member, err = tx.FindMemberByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding member: %w", err)
		}
		if member == nil {
			return fmt.Errorf("%w: %d", entities.ErrMemberNotFound, id)
		}

		update.Apply(member)
		member.Name = strings.TrimSpace(member.Name)
		if err := member.Validate(); err != nil {
			return err
		}
		if err := tx.UpdateMember(ctx, member); err != nil {
			return fmt.Errorf("updating member: %w", err)
		}
		return tx.LogAction(ctx, entities.ActionMemberUpdate, id, map[string]any{
			"name":   member.Name,
			"gender": member.Gender.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Delete removes a member with every relationship touching it and
// returns how many relationships went with it.
func (s *MemberService) Delete(ctx context.Context, id int64) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var removed int
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		member, err := tx.FindMemberByID(ctx, id)
		if err != nil {
			return fmt.Errorf("finding member: %w", err)
		}
		if member == nil {
			return fmt.Errorf("%w: %d", entities.ErrMemberNotFound, id)
		}
		rels, err := tx.FindRelationshipsInvolving(ctx, id)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}
		removed = len(rels)
		if err := tx.DeleteMember(ctx, id); err != nil {
			return fmt.Errorf("deleting member: %w", err)
		}
		return tx.LogAction(ctx, entities.ActionMemberDelete, id, map[string]any{
			"name":                  member.Name,
			"relationships_removed": removed,
		})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Stats returns the member and relationship counts.
func (s *MemberService) Stats(ctx context.Context) (members, relationships int, err error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if members, err = s.store.CountMembers(ctx); err != nil {
		return 0, 0, fmt.Errorf("counting members: %w", err)
	}
	if relationships, err = s.store.CountRelationships(ctx); err != nil {
		return 0, 0, fmt.Errorf("counting relationships: %w", err)
	}
	return members, relationships, nil
}
