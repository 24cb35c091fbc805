package entities

import (
	"fmt"
	"strings"
	"time"
)

// Gender is the binary gender recorded for a member.
type Gender int

const (
	Male   Gender = 0
	Female Gender = 1
)

// Valid reports whether g is one of the two recorded genders.
func (g Gender) Valid() bool {
	return g == Male || g == Female
}

// String returns "male" or "female".
func (g Gender) String() string {
	switch g {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("gender(%d)", int(g))
	}
}

// ParseGender accepts "male"/"female", "m"/"f", "0"/"1" and the Chinese 男/女.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m", "0", "男":
		return Male, nil
	case "female", "f", "1", "女":
		return Female, nil
	default:
		return 0, fmt.Errorf("%w: unknown gender %q", ErrInvalidMember, s)
	}
}

// Member is a person in a family graph.
//
// Generation is supplied by the caller and never recomputed from
// relationships; it is the ground truth for validating new relationships.
type Member struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Generation int       `json:"generation"`
	Gender     Gender    `json:"gender"`
	Remark     string    `json:"remark,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsMale reports whether the member is recorded as male.
func (m *Member) IsMale() bool {
	return m.Gender == Male
}

// Validate checks the fields a member must carry before it is stored.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMember)
	}
	if m.Generation < 0 {
		return fmt.Errorf("%w: generation must be non-negative", ErrInvalidMember)
	}
	if !m.Gender.Valid() {
		return fmt.Errorf("%w: gender must be 0 (male) or 1 (female)", ErrInvalidMember)
	}
	return nil
}

// MemberUpdate carries the mutable fields of a member. Nil fields are left unchanged.
type MemberUpdate struct {
	Name   *string `json:"name,omitempty"`
	Gender *Gender `json:"gender,omitempty"`
	Remark *string `json:"remark,omitempty"`
}

// Apply copies the set fields of u onto m.
func (u MemberUpdate) Apply(m *Member) {
	if u.Name != nil {
		m.Name = strings.TrimSpace(*u.Name)
	}
	if u.Gender != nil {
		m.Gender = *u.Gender
	}
	if u.Remark != nil {
		m.Remark = *u.Remark
	}
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
