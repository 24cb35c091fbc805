package ports

import (
	"context"

	"github.com/ersonp/kinship/internal/domain/entities"
)

// FamilyStore persists the members and relationship edges of one family
// graph. Point lookups return nil, nil when the row is absent.
type FamilyStore interface {
	// EnsureSchema creates the database schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close closes the database connection.
	Close() error

	// WithTx runs fn against a store bound to a single transaction.
	// The transaction commits if fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx FamilyStore) error) error

	// Reset removes every member and relationship. The audit log is kept.
	Reset(ctx context.Context) error

	// Member operations

	// SaveMember inserts a member. A zero ID is assigned by the store;
	// a non-zero ID is kept, which lets a snapshot be restored verbatim.
	SaveMember(ctx context.Context, member *entities.Member) error

	// UpdateMember overwrites the name, gender and remark of a member.
	UpdateMember(ctx context.Context, member *entities.Member) error

	// FindMemberByID finds a member by its ID.
	FindMemberByID(ctx context.Context, id int64) (*entities.Member, error)

	// FindMemberByName returns the lowest-id member whose name contains
	// the given substring, case-insensitively.
	FindMemberByName(ctx context.Context, name string) (*entities.Member, error)

	// SearchMembers lists members whose name contains the substring.
	SearchMembers(ctx context.Context, query string, limit int) ([]entities.Member, error)

	// ListMembers lists every member ordered by ID.
	ListMembers(ctx context.Context) ([]entities.Member, error)

	// DeleteMember deletes a member together with every relationship involving it.
	DeleteMember(ctx context.Context, id int64) error

	// CountMembers returns the number of members.
	CountMembers(ctx context.Context) (int, error)

	// Relationship operations

	// InsertRelationship stores the edge unless an identical
	// (from, to, type) triple already exists. It reports whether a row was written.
	InsertRelationship(ctx context.Context, rel *entities.Relationship) (bool, error)

	// FindRelationshipByID finds a relationship by its ID.
	FindRelationshipByID(ctx context.Context, id int64) (*entities.Relationship, error)

	// FindRelationshipsFrom lists edges whose from end is the member.
	FindRelationshipsFrom(ctx context.Context, memberID int64) ([]entities.Relationship, error)

	// FindRelationshipsInvolving lists edges touching the member in either direction.
	FindRelationshipsInvolving(ctx context.Context, memberID int64) ([]entities.Relationship, error)

	// FindRelationshipsByType lists edges of one relation code.
	FindRelationshipsByType(ctx context.Context, code entities.RelationCode) ([]entities.Relationship, error)

	// ListRelationships lists every edge ordered by ID.
	ListRelationships(ctx context.Context) ([]entities.Relationship, error)

	// FindCounterpart returns the to end of the first (from, ?, code) edge,
	// or 0 with ok false when there is none.
	FindCounterpart(ctx context.Context, fromID int64, code entities.RelationCode) (int64, bool, error)

	// DeleteDuplicateRelationships keeps the first-inserted row of every
	// (from, to, type) triple and returns how many rows were removed.
	DeleteDuplicateRelationships(ctx context.Context) (int64, error)

	// CountRelationships returns the number of stored edges.
	CountRelationships(ctx context.Context) (int, error)

	// Audit operations

	// LogAction appends an entry to the audit log.
	LogAction(ctx context.Context, action string, memberID int64, details map[string]any) error

	// FindAuditLog lists the newest entries, optionally filtered by action.
	FindAuditLog(ctx context.Context, action string, limit int) ([]entities.AuditEntry, error)
}
