package mocks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/ports"
)

// ErrInjected is returned once FailInsertAfter is reached.
var ErrInjected = errors.New("injected store failure")

// FamilyStore is an in-memory implementation of ports.FamilyStore.
// WithTx snapshots the state and restores it when fn fails.
type FamilyStore struct {
	mu            sync.Mutex
	members       map[int64]entities.Member
	relationships []entities.Relationship
	audit         []entities.AuditEntry
	nextMemberID  int64
	nextRelID     int64

	// Err, when set, is returned by every call.
	Err error
	// FailInsertAfter makes InsertRelationship fail once this many rows
	// have been written. Zero disables it.
	FailInsertAfter int
	inserts         int
}

var _ ports.FamilyStore = (*FamilyStore)(nil)

// NewFamilyStore creates an empty in-memory store.
func NewFamilyStore() *FamilyStore {
	return &FamilyStore{
		members:      make(map[int64]entities.Member),
		nextMemberID: 1,
		nextRelID:    1,
	}
}

type storeState struct {
	members       map[int64]entities.Member
	relationships []entities.Relationship
	audit         []entities.AuditEntry
	nextMemberID  int64
	nextRelID     int64
}

func (m *FamilyStore) snapshot() storeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	members := make(map[int64]entities.Member, len(m.members))
	for id, member := range m.members {
		members[id] = member
	}
	return storeState{
		members:       members,
		relationships: append([]entities.Relationship(nil), m.relationships...),
		audit:         append([]entities.AuditEntry(nil), m.audit...),
		nextMemberID:  m.nextMemberID,
		nextRelID:     m.nextRelID,
	}
}

func (m *FamilyStore) restore(s storeState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = s.members
	m.relationships = s.relationships
	m.audit = s.audit
	m.nextMemberID = s.nextMemberID
	m.nextRelID = s.nextRelID
}

// EnsureSchema is a no-op.
func (m *FamilyStore) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close is a no-op.
func (m *FamilyStore) Close() error {
	return nil
}

// WithTx runs fn and rolls the store back if fn fails.
func (m *FamilyStore) WithTx(_ context.Context, fn func(tx ports.FamilyStore) error) error {
	if m.Err != nil {
		return m.Err
	}
	saved := m.snapshot()
	if err := fn(m); err != nil {
		m.restore(saved)
		return err
	}
	return nil
}

// Reset removes every member and relationship.
func (m *FamilyStore) Reset(_ context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = make(map[int64]entities.Member)
	m.relationships = nil
	m.nextMemberID = 1
	m.nextRelID = 1
	return nil
}

// SaveMember inserts a member.
func (m *FamilyStore) SaveMember(_ context.Context, member *entities.Member) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if member.ID == 0 {
		member.ID = m.nextMemberID
	}
	if member.ID >= m.nextMemberID {
		m.nextMemberID = member.ID + 1
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	m.members[member.ID] = *member
	return nil
}

// UpdateMember overwrites the mutable fields of a member.
func (m *FamilyStore) UpdateMember(_ context.Context, member *entities.Member) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.members[member.ID]
	if !ok {
		return entities.ErrMemberNotFound
	}
	existing.Name = member.Name
	existing.Gender = member.Gender
	existing.Remark = member.Remark
	m.members[member.ID] = existing
	return nil
}

// FindMemberByID finds a member by its ID.
func (m *FamilyStore) FindMemberByID(_ context.Context, id int64) (*entities.Member, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[id]
	if !ok {
		return nil, nil
	}
	return &member, nil
}

// FindMemberByName returns the lowest-id member whose name contains name.
func (m *FamilyStore) FindMemberByName(ctx context.Context, name string) (*entities.Member, error) {
	found, err := m.SearchMembers(ctx, name, 1)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return &found[0], nil
}

// SearchMembers lists members whose name contains query.
func (m *FamilyStore) SearchMembers(ctx context.Context, query string, limit int) ([]entities.Member, error) {
	all, err := m.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	needle := entities.NormalizeName(query)
	var out []entities.Member
	for _, member := range all {
		if strings.Contains(entities.NormalizeName(member.Name), needle) {
			out = append(out, member)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// ListMembers lists every member ordered by ID.
func (m *FamilyStore) ListMembers(_ context.Context) ([]entities.Member, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.Member, 0, len(m.members))
	for _, member := range m.members {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DeleteMember deletes a member and its relationships.
func (m *FamilyStore) DeleteMember(_ context.Context, id int64) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.members[id]; !ok {
		return entities.ErrMemberNotFound
	}
	delete(m.members, id)
	kept := m.relationships[:0]
	for _, rel := range m.relationships {
		if !rel.Involves(id) {
			kept = append(kept, rel)
		}
	}
	m.relationships = kept
	return nil
}

// CountMembers returns the number of members.
func (m *FamilyStore) CountMembers(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members), nil
}

// InsertRelationship stores rel unless the triple exists.
func (m *FamilyStore) InsertRelationship(_ context.Context, rel *entities.Relationship) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.relationships {
		if existing.Key() == rel.Key() {
			rel.ID = existing.ID
			return false, nil
		}
	}
	if m.FailInsertAfter > 0 && m.inserts >= m.FailInsertAfter {
		return false, ErrInjected
	}
	m.inserts++
	rel.ID = m.nextRelID
	m.nextRelID++
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now().UTC()
	}
	m.relationships = append(m.relationships, *rel)
	return true, nil
}

// AppendRawRelationship stores rel without the existence check, so tests
// can seed duplicate rows.
func (m *FamilyStore) AppendRawRelationship(rel entities.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rel.ID = m.nextRelID
	m.nextRelID++
	m.relationships = append(m.relationships, rel)
}

// FindRelationshipByID finds a relationship by its ID.
func (m *FamilyStore) FindRelationshipByID(_ context.Context, id int64) (*entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rel := range m.relationships {
		if rel.ID == id {
			return &rel, nil
		}
	}
	return nil, nil
}

// FindRelationshipsFrom lists edges whose from end is the member.
func (m *FamilyStore) FindRelationshipsFrom(_ context.Context, memberID int64) ([]entities.Relationship, error) {
	return m.filter(func(r entities.Relationship) bool { return r.FromID == memberID })
}

// FindRelationshipsInvolving lists edges touching the member.
func (m *FamilyStore) FindRelationshipsInvolving(_ context.Context, memberID int64) ([]entities.Relationship, error) {
	return m.filter(func(r entities.Relationship) bool { return r.Involves(memberID) })
}

// FindRelationshipsByType lists edges of one relation code.
func (m *FamilyStore) FindRelationshipsByType(_ context.Context, code entities.RelationCode) ([]entities.Relationship, error) {
	return m.filter(func(r entities.Relationship) bool { return r.Type == code })
}

// ListRelationships lists every edge ordered by ID.
func (m *FamilyStore) ListRelationships(_ context.Context) ([]entities.Relationship, error) {
	return m.filter(func(entities.Relationship) bool { return true })
}

// FindCounterpart returns the to end of the first (fromID, ?, code) edge.
func (m *FamilyStore) FindCounterpart(_ context.Context, fromID int64, code entities.RelationCode) (int64, bool, error) {
	rels, err := m.filter(func(r entities.Relationship) bool { return r.FromID == fromID && r.Type == code })
	if err != nil || len(rels) == 0 {
		return 0, false, err
	}
	return rels[0].ToID, true, nil
}

// DeleteDuplicateRelationships keeps the lowest id of every triple.
func (m *FamilyStore) DeleteDuplicateRelationships(_ context.Context) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := make(map[entities.RelationshipKey]bool, len(m.relationships))
	kept := m.relationships[:0]
	var removed int64
	for _, rel := range m.relationships {
		if seen[rel.Key()] {
			removed++
			continue
		}
		seen[rel.Key()] = true
		kept = append(kept, rel)
	}
	m.relationships = kept
	return removed, nil
}

// CountRelationships returns the number of stored edges.
func (m *FamilyStore) CountRelationships(_ context.Context) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.relationships), nil
}

// LogAction appends an audit entry.
func (m *FamilyStore) LogAction(_ context.Context, action string, memberID int64, details map[string]any) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entities.AuditEntry{
		ID:        int64(len(m.audit) + 1),
		Action:    action,
		MemberID:  memberID,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// FindAuditLog lists the newest entries, optionally filtered by action.
func (m *FamilyStore) FindAuditLog(_ context.Context, action string, limit int) ([]entities.AuditEntry, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.AuditEntry
	for i := len(m.audit) - 1; i >= 0; i-- {
		if action != "" && m.audit[i].Action != action {
			continue
		}
		out = append(out, m.audit[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// filter returns matching edges in id order (insertion order).
func (m *FamilyStore) filter(keep func(entities.Relationship) bool) ([]entities.Relationship, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.Relationship
	for _, rel := range m.relationships {
		if keep(rel) {
			out = append(out, rel)
		}
	}
	return out, nil
}
