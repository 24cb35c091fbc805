package entities

// Snapshot is the portable form of a family graph: every member plus the
// base relationships from which every derived edge can be replayed.
type Snapshot struct {
	Members       []Member       `json:"members"`
	Relationships []Relationship `json:"relationships"`
}

// IsBaseRelation reports whether c is kept in a snapshot (marriage and
// parent-to-child edges).
func IsBaseRelation(c RelationCode) bool {
	return c.IsMarriage() || c.IsChild()
}

// FieldChange records one differing member field.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// MemberChange lists the field changes of one member present in both snapshots.
type MemberChange struct {
	ID      int64         `json:"id"`
	Name    string        `json:"name"`
	Changes []FieldChange `json:"changes"`
}

// SnapshotDiff compares two snapshots.
type SnapshotDiff struct {
	MembersAdded         []Member       `json:"membersAdded"`
	MembersRemoved       []Member       `json:"membersRemoved"`
	MembersChanged       []MemberChange `json:"membersChanged"`
	RelationshipsAdded   []Relationship `json:"relationshipsAdded"`
	RelationshipsRemoved []Relationship `json:"relationshipsRemoved"`
}

// Empty reports whether the snapshots were identical.
func (d *SnapshotDiff) Empty() bool {
	return len(d.MembersAdded) == 0 && len(d.MembersRemoved) == 0 && len(d.MembersChanged) == 0 &&
		len(d.RelationshipsAdded) == 0 && len(d.RelationshipsRemoved) == 0
}
