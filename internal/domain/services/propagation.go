package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/logging"
)

// AssertResult reports the outcome of one accepted assertion.
type AssertResult struct {
	Relationship      entities.Relationship `json:"relationship"`
	Created           bool                  `json:"created"`
	Derived           int                   `json:"derived"`
	DuplicatesRemoved int64                 `json:"duplicatesRemoved"`
}

// PropagationService records relationships and derives every edge they
// imply. Assertions on one family graph are serialized by the shared lock
// and each one commits or rolls back as a whole.
type PropagationService struct {
	store ports.FamilyStore
	lock  *sync.RWMutex
}

// NewPropagationService creates a new PropagationService.
func NewPropagationService(store ports.FamilyStore, lock *sync.RWMutex) *PropagationService {
	return &PropagationService{
		store: store,
		lock:  lock,
	}
}

// AssertRelationship records that to is the code of from, derives the
// implied edges and removes duplicate rows. Rejected input leaves the graph
// untouched and returns an error wrapping entities.ErrRejected,
// entities.ErrSelfRelationship, entities.ErrInvalidRelationCode or
// entities.ErrMemberNotFound.
func (s *PropagationService) AssertRelationship(ctx context.Context, fromID, toID int64, code entities.RelationCode) (*AssertResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.assertLocked(ctx, fromID, toID, code)
}

func (s *PropagationService) assertLocked(ctx context.Context, fromID, toID int64, code entities.RelationCode) (*AssertResult, error) {
	logger := logging.FromContext(ctx)

	var result *AssertResult
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		result, err = assertInTx(ctx, tx, fromID, toID, code)
		return err
	})
	if err != nil {
		if isRejection(err) {
			logger.Info("relationship rejected", "from", fromID, "to", toID, "code", int(code), "reason", err.Error())
			if logErr := s.store.LogAction(ctx, entities.ActionRelationshipReject, fromID, map[string]any{
				"to":     toID,
				"code":   int(code),
				"reason": err.Error(),
			}); logErr != nil {
				logger.Warn("recording rejection failed", "error", logErr)
			}
		}
		return nil, err
	}

	logger.Debug("relationship asserted",
		"from", fromID, "to", toID, "code", int(code),
		"derived", result.Derived, "duplicates_removed", result.DuplicatesRemoved)
	return result, nil
}

// isRejection reports whether err came from input validation rather than
// the store.
func isRejection(err error) bool {
	return errors.Is(err, entities.ErrRejected) ||
		errors.Is(err, entities.ErrSelfRelationship) ||
		errors.Is(err, entities.ErrInvalidRelationCode) ||
		errors.Is(err, entities.ErrMemberNotFound)
}

func assertInTx(ctx context.Context, tx ports.FamilyStore, fromID, toID int64, code entities.RelationCode) (*AssertResult, error) {
	d := newDeriver(tx)

	from, err := d.member(ctx, fromID)
	if err != nil {
		return nil, err
	}
	if from == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrMemberNotFound, fromID)
	}
	to, err := d.member(ctx, toID)
	if err != nil {
		return nil, err
	}
	if to == nil {
		return nil, fmt.Errorf("%w: %d", entities.ErrMemberNotFound, toID)
	}

	if fromID == toID {
		return nil, fmt.Errorf("%w: member %d", entities.ErrSelfRelationship, fromID)
	}
	if !code.Valid() {
		return nil, fmt.Errorf("%w: %d", entities.ErrInvalidRelationCode, int(code))
	}
	r, ok := rules[code]
	if !ok {
		return nil, rejectf("%s is derived and cannot be asserted directly", code)
	}
	if err := r.validate(code, from, to); err != nil {
		return nil, err
	}

	rel := &entities.Relationship{FromID: fromID, ToID: toID, Type: code}
	created, err := tx.InsertRelationship(ctx, rel)
	if err != nil {
		return nil, fmt.Errorf("inserting relationship: %w", err)
	}

	if err := r.derive(ctx, d, from, to, code); err != nil {
		return nil, fmt.Errorf("deriving relationships: %w", err)
	}

	removed, err := tx.DeleteDuplicateRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("removing duplicates: %w", err)
	}

	if err := tx.LogAction(ctx, entities.ActionRelationshipAssert, fromID, map[string]any{
		"to":      toID,
		"code":    int(code),
		"derived": d.written,
	}); err != nil {
		return nil, fmt.Errorf("logging action: %w", err)
	}

	return &AssertResult{
		Relationship:      *rel,
		Created:           created,
		Derived:           d.written,
		DuplicatesRemoved: removed,
	}, nil
}

// Dedupe removes duplicate (from, to, type) rows and returns how many
// were deleted. Running it again returns zero.
func (s *PropagationService) Dedupe(ctx context.Context) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var removed int64
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		if removed, err = tx.DeleteDuplicateRelationships(ctx); err != nil {
			return fmt.Errorf("removing duplicates: %w", err)
		}
		if removed == 0 {
			return nil
		}
		return tx.LogAction(ctx, entities.ActionRelationshipDedupe, 0, map[string]any{"removed": removed})
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
