// Package handlers contains application use case handlers shared by the
// CLI and the HTTP API.
package handlers

import (
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/domain/services"
)

// Limits bounds user input accepted by the handlers. Zero disables a check.
type Limits struct {
	MaxNameLength int
	MaxGeneration int
}

// Family wires the handlers of one family graph around a single store and
// the lock that serializes its writers.
type Family struct {
	Name          string
	Store         ports.FamilyStore
	Members       *MemberHandler
	Relationships *RelationshipHandler
	Kinship       *KinshipHandler
	Archive       *ArchiveHandler
}

// NewFamily builds the handlers for a family graph stored in store.
func NewFamily(name string, store ports.FamilyStore, limits Limits) *Family {
	lock := services.NewFamilyLock()
	propagation := services.NewPropagationService(store, lock)

	return &Family{
		Name:          name,
		Store:         store,
		Members:       NewMemberHandler(services.NewMemberService(store, lock), limits),
		Relationships: NewRelationshipHandler(propagation, services.NewRelationshipService(store, lock)),
		Kinship:       NewKinshipHandler(services.NewKinshipService(store, lock), services.NewNetworkService(store, lock)),
		Archive:       NewArchiveHandler(services.NewArchiveService(store, lock, propagation)),
	}
}
