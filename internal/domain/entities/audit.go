package entities

import "time"

// Audit actions recorded for mutating operations.
const (
	ActionMemberCreate       = "member.create"
	ActionMemberUpdate       = "member.update"
	ActionMemberDelete       = "member.delete"
	ActionRelationshipAssert = "relationship.assert"
	ActionRelationshipReject = "relationship.reject"
	ActionRelationshipDedupe = "relationship.dedupe"
	ActionFamilyRebuild      = "family.rebuild"
)

// AuditEntry represents a logged action in a family graph.
type AuditEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	MemberID  int64          `json:"member_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
