package entities

import "errors"

var (
	// ErrMemberNotFound is returned when a referenced member id is absent.
	ErrMemberNotFound = errors.New("member not found")
	// ErrRejected is returned when an asserted relationship fails validation.
	ErrRejected = errors.New("relationship rejected")
	// ErrSelfRelationship is returned when both ends of a relationship are the same member.
	ErrSelfRelationship = errors.New("member cannot be related to itself")
	// ErrInvalidRelationCode is returned for codes outside the taxonomy.
	ErrInvalidRelationCode = errors.New("invalid relation code")
	// ErrInvalidGenerations is returned when a network radius is out of range.
	ErrInvalidGenerations = errors.New("generations out of range")
	// ErrInvalidMember is returned when member fields fail validation.
	ErrInvalidMember = errors.New("invalid member")
)
