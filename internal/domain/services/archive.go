package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/infrastructure/logging"
)

// RebuildResult reports a snapshot replay.
type RebuildResult struct {
	Members   int      `json:"members"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
	// DuplicatesRemoved counts rows removed by the final deduplication pass.
	DuplicatesRemoved int64 `json:"duplicatesRemoved"`
}

// ArchiveService exports, compares and restores family snapshots.
type ArchiveService struct {
	store       ports.FamilyStore
	lock        *sync.RWMutex
	propagation *PropagationService
}

// NewArchiveService creates a new ArchiveService. propagation must share
// the same store and lock.
func NewArchiveService(store ports.FamilyStore, lock *sync.RWMutex, propagation *PropagationService) *ArchiveService {
	return &ArchiveService{
		store:       store,
		lock:        lock,
		propagation: propagation,
	}
}

// Export returns every member and the base relationships (marriage and
// parent-to-child edges) ordered by type, from id and to id.
func (s *ArchiveService) Export(ctx context.Context) (*entities.Snapshot, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	snap := &entities.Snapshot{}
	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		if snap.Members, err = tx.ListMembers(ctx); err != nil {
			return fmt.Errorf("listing members: %w", err)
		}
		rels, err := tx.ListRelationships(ctx)
		if err != nil {
			return fmt.Errorf("listing relationships: %w", err)
		}
		snap.Relationships = baseRelationships(rels)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if snap.Members == nil {
		snap.Members = []entities.Member{}
	}
	return snap, nil
}

func baseRelationships(rels []entities.Relationship) []entities.Relationship {
	seen := make(map[entities.RelationshipKey]bool)
	out := make([]entities.Relationship, 0, len(rels))
	for _, rel := range rels {
		if !entities.IsBaseRelation(rel.Type) || seen[rel.Key()] {
			continue
		}
		seen[rel.Key()] = true
		out = append(out, rel)
	}
	sortRelationships(out)
	return out
}

func sortRelationships(rels []entities.Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.FromID != b.FromID {
			return a.FromID < b.FromID
		}
		return a.ToID < b.ToID
	})
}

// ValidateSnapshot checks a snapshot before it replaces a family graph.
func ValidateSnapshot(snap *entities.Snapshot) error {
	ids := make(map[int64]bool, len(snap.Members))
	var errs []error
	for i := range snap.Members {
		m := &snap.Members[i]
		if m.ID <= 0 {
			errs = append(errs, fmt.Errorf("member %q: id must be positive", m.Name))
			continue
		}
		if ids[m.ID] {
			errs = append(errs, fmt.Errorf("member %d: duplicate id", m.ID))
			continue
		}
		ids[m.ID] = true
		if err := m.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("member %d: %w", m.ID, err))
		}
	}
	for _, rel := range snap.Relationships {
		if !rel.Type.Valid() {
			errs = append(errs, fmt.Errorf("relationship %d -> %d: %w: %d", rel.FromID, rel.ToID, entities.ErrInvalidRelationCode, int(rel.Type)))
			continue
		}
		if !ids[rel.FromID] || !ids[rel.ToID] {
			errs = append(errs, fmt.Errorf("relationship %d -> %d: %w", rel.FromID, rel.ToID, entities.ErrMemberNotFound))
		}
	}
	return errors.Join(errs...)
}

// Rebuild replaces the family graph with the snapshot. Members are
// restored with their ids, then the input edges are replayed through the
// propagation rules so every derived edge is recomputed. A rejected edge
// is counted and skipped. A store failure aborts the replay and leaves the
// edges replayed so far in place.
func (s *ArchiveService) Rebuild(ctx context.Context, snap *entities.Snapshot) (*RebuildResult, error) {
	if err := ValidateSnapshot(snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	logger := logging.FromContext(ctx)
	result := &RebuildResult{Members: len(snap.Members)}

	err := s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		if err := tx.Reset(ctx); err != nil {
			return fmt.Errorf("resetting family: %w", err)
		}
		for i := range snap.Members {
			m := snap.Members[i]
			if err := tx.SaveMember(ctx, &m); err != nil {
				return fmt.Errorf("restoring member %d: %w", m.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rel := range replayOrder(snap) {
		_, err := s.propagation.assertLocked(ctx, rel.FromID, rel.ToID, rel.Type)
		switch {
		case err == nil:
			result.Succeeded++
		case isRejection(err):
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%d -> %d %s: %v", rel.FromID, rel.ToID, rel.Type, err))
		default:
			return nil, fmt.Errorf("replaying %d -> %d %s: %w", rel.FromID, rel.ToID, rel.Type, err)
		}
	}

	err = s.store.WithTx(ctx, func(tx ports.FamilyStore) error {
		var err error
		if result.DuplicatesRemoved, err = tx.DeleteDuplicateRelationships(ctx); err != nil {
			return fmt.Errorf("removing duplicates: %w", err)
		}
		return tx.LogAction(ctx, entities.ActionFamilyRebuild, 0, map[string]any{
			"members":   result.Members,
			"succeeded": result.Succeeded,
			"failed":    result.Failed,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info("family rebuilt",
		"members", result.Members, "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// replayOrder puts marriages first, then parent-to-child edges from the
// oldest generation down, so that a child's second parent and
// grandparents are known when the child is linked. Other input codes
// follow; derived codes are dropped since replay recreates them.
func replayOrder(snap *entities.Snapshot) []entities.Relationship {
	generation := make(map[int64]int, len(snap.Members))
	for _, m := range snap.Members {
		generation[m.ID] = m.Generation
	}
	rank := func(c entities.RelationCode) int {
		switch {
		case c.IsMarriage():
			return 0
		case c.IsChild():
			return 1
		}
		return 2
	}

	out := make([]entities.Relationship, 0, len(snap.Relationships))
	for _, rel := range snap.Relationships {
		if rel.Type.AcceptsInput() {
			out = append(out, rel)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i].Type), rank(out[j].Type)
		if ri != rj {
			return ri < rj
		}
		if ri == 1 {
			return generation[out[i].FromID] < generation[out[j].FromID]
		}
		return false
	})
	return out
}

// Diff compares two snapshots by member id and relationship triple.
func Diff(before, after *entities.Snapshot) *entities.SnapshotDiff {
	diff := &entities.SnapshotDiff{}

	old := make(map[int64]entities.Member, len(before.Members))
	for _, m := range before.Members {
		old[m.ID] = m
	}
	cur := make(map[int64]entities.Member, len(after.Members))
	for _, m := range after.Members {
		cur[m.ID] = m
	}

	for _, m := range after.Members {
		prev, ok := old[m.ID]
		if !ok {
			diff.MembersAdded = append(diff.MembersAdded, m)
			continue
		}
		if changes := memberChanges(prev, m); len(changes) > 0 {
			diff.MembersChanged = append(diff.MembersChanged, entities.MemberChange{ID: m.ID, Name: m.Name, Changes: changes})
		}
	}
	for _, m := range before.Members {
		if _, ok := cur[m.ID]; !ok {
			diff.MembersRemoved = append(diff.MembersRemoved, m)
		}
	}

	oldRels := baseRelationships(before.Relationships)
	newRels := baseRelationships(after.Relationships)
	oldKeys := make(map[entities.RelationshipKey]bool, len(oldRels))
	for _, r := range oldRels {
		oldKeys[r.Key()] = true
	}
	newKeys := make(map[entities.RelationshipKey]bool, len(newRels))
	for _, r := range newRels {
		newKeys[r.Key()] = true
		if !oldKeys[r.Key()] {
			diff.RelationshipsAdded = append(diff.RelationshipsAdded, r)
		}
	}
	for _, r := range oldRels {
		if !newKeys[r.Key()] {
			diff.RelationshipsRemoved = append(diff.RelationshipsRemoved, r)
		}
	}

	sortMembers(diff.MembersAdded)
	sortMembers(diff.MembersRemoved)
	sort.Slice(diff.MembersChanged, func(i, j int) bool { return diff.MembersChanged[i].ID < diff.MembersChanged[j].ID })
	return diff
}

func memberChanges(a, b entities.Member) []entities.FieldChange {
	var changes []entities.FieldChange
	add := func(field, o, n string) {
		if o != n {
			changes = append(changes, entities.FieldChange{Field: field, Old: o, New: n})
		}
	}
	add("name", a.Name, b.Name)
	add("generation", strconv.Itoa(a.Generation), strconv.Itoa(b.Generation))
	add("gender", a.Gender.String(), b.Gender.String())
	add("remark", a.Remark, b.Remark)
	return changes
}

func sortMembers(ms []entities.Member) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
}
