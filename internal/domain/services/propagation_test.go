package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/mocks"
)

func TestAssertRelationship_SpouseLinksNewSpouseToInLaws(t *testing.T) {
	f := newTestFamily()
	luo := f.add(t, "Luo Yinrong", entities.Male, 1)
	chengyao := f.add(t, "Luo Chengyao", entities.Female, 2)
	li := f.add(t, "Li Xinshe", entities.Male, 2)
	f.store.AppendRawRelationship(entities.Relationship{FromID: chengyao, ToID: luo, Type: entities.Father})
	f.store.AppendRawRelationship(entities.Relationship{FromID: luo, ToID: chengyao, Type: entities.EldestDaughter})

	res := f.assert(t, chengyao, li, entities.Husband)

	assert.True(t, res.Created)
	assert.NotZero(t, res.Relationship.ID)
	assert.Equal(t, entities.Husband, res.Relationship.Type)
	assert.True(t, f.has(t, li, chengyao, entities.Wife))
	assert.True(t, f.has(t, li, luo, entities.FatherInLaw))
	assert.True(t, f.has(t, luo, li, entities.SonInLaw))
	assert.False(t, f.has(t, luo, chengyao, entities.SonInLaw), "in-law edge must point at the new spouse")
	assert.Equal(t, 3, res.Derived)
}

func TestAssertRelationship_HusbandsParentsBecomeWifesInLaws(t *testing.T) {
	f := seedFamily(t)

	assert.True(t, f.has(t, mother, grandpa, entities.HusbandsFather))
	assert.True(t, f.has(t, mother, grandma, entities.HusbandsMother))
	assert.True(t, f.has(t, grandpa, mother, entities.DaughterInLaw))
	assert.True(t, f.has(t, grandma, mother, entities.DaughterInLaw))
}

func TestAssertRelationship_ChildDerivations(t *testing.T) {
	f := seedFamily(t)

	tests := []struct {
		name     string
		from, to int64
		code     entities.RelationCode
	}{
		{"child names father", son, father, entities.Father},
		{"child names father's wife", son, mother, entities.Mother},
		{"mother gains the child", mother, son, entities.EldestSon},
		{"father gains the daughter asserted by mother", father, daughter, entities.EldestDaughter},
		{"younger sister names older brother", daughter, son, entities.OlderBrother},
		{"older brother names younger sister", son, daughter, entities.YoungerSister},
		{"paternal grandfather", son, grandpa, entities.PaternalGrandfather},
		{"paternal grandmother", daughter, grandma, entities.PaternalGrandmother},
		{"grandson", grandpa, son, entities.PaternalGrandson},
		{"granddaughter", grandma, daughter, entities.PaternalGranddaughter},
		{"uncle is father's younger brother", uncle, father, entities.OlderBrother},
		{"aunt names uncle as older brother", aunt, uncle, entities.OlderBrother},
		{"daughter's son is a maternal grandson", grandpa, maternalCousin, entities.MaternalGrandson},
		{"mother's father", maternalCousin, grandma, entities.MaternalGrandmother},
		{"wife's father linked after the marriage", father, maternalGrandpa, entities.FatherInLaw},
		{"and the reverse son-in-law edge", maternalGrandpa, father, entities.SonInLaw},
		{"mother names her own father", mother, maternalGrandpa, entities.Father},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, f.has(t, tt.from, tt.to, tt.code), "missing %d -> %d %s", tt.from, tt.to, tt.code)
		})
	}

	// Grandchildren asserted before the maternal grandfather was linked
	// are not back-filled.
	assert.False(t, f.has(t, son, maternalGrandpa, entities.MaternalGrandfather))
}

func TestAssertRelationship_EveryDerivedEdgeHasItsReciprocal(t *testing.T) {
	f := seedFamily(t)
	ctx := context.Background()

	rels, err := f.store.ListRelationships(ctx)
	require.NoError(t, err)

	for _, rel := range rels {
		from, err := f.store.FindMemberByID(ctx, rel.FromID)
		require.NoError(t, err)

		if rel.Type.IsParent() {
			found := false
			for code := entities.EldestSon; code <= entities.YoungestDaughter; code++ {
				found = found || f.has(t, rel.ToID, rel.FromID, code)
			}
			assert.True(t, found, "parent edge %d -> %d has no child edge back", rel.FromID, rel.ToID)
			continue
		}

		want, ok := rel.Type.Reciprocal(from.Gender)
		require.True(t, ok)
		assert.True(t, f.has(t, rel.ToID, rel.FromID, want),
			"edge %d -> %d %s has no reciprocal %s", rel.FromID, rel.ToID, rel.Type, want)
	}
}

func TestAssertRelationship_Rejections(t *testing.T) {
	f := seedFamily(t)
	ctx := context.Background()
	before, err := f.store.CountRelationships(ctx)
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to int64
		code     entities.RelationCode
		wantErr  error
	}{
		{"child generation must be parent plus one", grandpa, stranger, entities.EldestSon, entities.ErrRejected},
		{"son must be male", father, daughter, entities.SecondSon, entities.ErrRejected},
		{"husband must be male", son, daughter, entities.Husband, entities.ErrRejected},
		{"spouses share a generation", grandpa, mother, entities.Wife, entities.ErrRejected},
		{"cousin gender follows the code", son, stranger, entities.ElderFemaleCousin, entities.ErrRejected},
		{"cousins share a generation", son, uncle, entities.ElderMaleCousin, entities.ErrRejected},
		{"derived-only code", son, father, entities.Father, entities.ErrRejected},
		{"in-law codes are derived", father, maternalGrandpa, entities.FatherInLaw, entities.ErrRejected},
		{"self relationship", son, son, entities.ElderMaleCousin, entities.ErrSelfRelationship},
		{"unknown code", son, stranger, entities.RelationCode(33), entities.ErrInvalidRelationCode},
		{"unknown member", son, 99, entities.ElderMaleCousin, entities.ErrMemberNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.propagation.AssertRelationship(ctx, tt.from, tt.to, tt.code)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}

	after, err := f.store.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected assertions must not touch the graph")

	rejections, err := f.store.FindAuditLog(ctx, entities.ActionRelationshipReject, 0)
	require.NoError(t, err)
	assert.Len(t, rejections, len(tests))
}

func TestAssertRelationship_RollsBackOnStoreFailure(t *testing.T) {
	f := newTestFamily()
	ctx := context.Background()
	luo := f.add(t, "Luo Yinrong", entities.Male, 1)
	chengyao := f.add(t, "Luo Chengyao", entities.Female, 2)
	li := f.add(t, "Li Xinshe", entities.Male, 2)
	f.store.AppendRawRelationship(entities.Relationship{FromID: chengyao, ToID: luo, Type: entities.Father})

	// The asserted edge and the reciprocal wife edge succeed, the in-law
	// edge that follows fails.
	f.store.FailInsertAfter = 2

	_, err := f.propagation.AssertRelationship(ctx, chengyao, li, entities.Husband)
	require.ErrorIs(t, err, mocks.ErrInjected)

	rels, err := f.store.ListRelationships(ctx)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, entities.Father, rels[0].Type)

	asserted, err := f.store.FindAuditLog(ctx, entities.ActionRelationshipAssert, 0)
	require.NoError(t, err)
	assert.Empty(t, asserted)
}

func TestAssertRelationship_IsIdempotent(t *testing.T) {
	f := seedFamily(t)
	ctx := context.Background()
	before, err := f.store.CountRelationships(ctx)
	require.NoError(t, err)

	res := f.assert(t, uncle, paternalCousin, entities.EldestSon)

	assert.False(t, res.Created)
	assert.Zero(t, res.Derived)
	after, err := f.store.CountRelationships(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAssertRelationship_CousinReciprocal(t *testing.T) {
	f := newTestFamily()
	a := f.add(t, "甲", entities.Male, 2)
	b := f.add(t, "乙", entities.Female, 2)

	res := f.assert(t, a, b, entities.ElderFemaleCousin)

	assert.Equal(t, 1, res.Derived)
	assert.True(t, f.has(t, b, a, entities.YoungerFemaleCousin))
}

func TestAssertRelationship_ConcurrentAssertionsAreSerialized(t *testing.T) {
	f := newTestFamily()
	ctx := context.Background()
	dad := f.add(t, "父", entities.Male, 1)
	mum := f.add(t, "母", entities.Female, 1)
	f.assert(t, dad, mum, entities.Wife)

	kids := make([]int64, 6)
	for i := range kids {
		kids[i] = f.add(t, "子", entities.Male, 2)
	}

	var g errgroup.Group
	for _, kid := range kids {
		g.Go(func() error {
			_, err := f.propagation.AssertRelationship(ctx, dad, kid, entities.SecondSon)
			return err
		})
	}
	require.NoError(t, g.Wait())

	for i, a := range kids {
		for _, b := range kids[i+1:] {
			assert.True(t, f.has(t, b, a, entities.OlderBrother), "%d should name %d as older brother", b, a)
			assert.True(t, f.has(t, a, b, entities.YoungerBrother))
		}
		assert.True(t, f.has(t, a, mum, entities.Mother))
	}
}

func TestDedupe(t *testing.T) {
	f := seedFamily(t)
	ctx := context.Background()
	f.store.AppendRawRelationship(entities.Relationship{FromID: son, ToID: father, Type: entities.Father})
	f.store.AppendRawRelationship(entities.Relationship{FromID: son, ToID: father, Type: entities.Father})
	f.store.AppendRawRelationship(entities.Relationship{FromID: father, ToID: mother, Type: entities.Wife})

	removed, err := f.propagation.Dedupe(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	removed, err = f.propagation.Dedupe(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	entries, err := f.store.FindAuditLog(ctx, entities.ActionRelationshipDedupe, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
