package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
)

func TestRelationshipService_List(t *testing.T) {
	f := seedFamily(t)
	svc := NewRelationshipService(f.store, f.lock)
	ctx := context.Background()

	t.Run("by member in either direction", func(t *testing.T) {
		views, err := svc.List(ctx, RelationshipFilter{MemberID: uncle})
		require.NoError(t, err)
		require.NotEmpty(t, views)
		for _, v := range views {
			assert.True(t, v.Involves(uncle))
			assert.Equal(t, v.Type.Description(), v.Description)
		}
	})

	t.Run("outgoing only", func(t *testing.T) {
		views, err := svc.List(ctx, RelationshipFilter{MemberID: paternalCousin, Outgoing: true})
		require.NoError(t, err)
		require.Len(t, views, 3)
		assert.Equal(t, "罗强", views[0].FromName)
		assert.Equal(t, "罗军", views[0].ToName)
		assert.Equal(t, "父亲", views[0].Description)
	})

	t.Run("by type", func(t *testing.T) {
		views, err := svc.List(ctx, RelationshipFilter{Type: entities.SonInLaw})
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, maternalGrandpa, views[0].FromID)
		assert.Equal(t, father, views[0].ToID)
	})

	t.Run("by id", func(t *testing.T) {
		all, err := svc.List(ctx, RelationshipFilter{})
		require.NoError(t, err)
		count, err := f.store.CountRelationships(ctx)
		require.NoError(t, err)
		require.Len(t, all, count)

		one, err := svc.List(ctx, RelationshipFilter{RelationshipID: all[4].ID})
		require.NoError(t, err)
		require.Len(t, one, 1)
		assert.Equal(t, all[4].Relationship, one[0].Relationship)

		none, err := svc.List(ctx, RelationshipFilter{RelationshipID: 99999})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := svc.List(ctx, RelationshipFilter{MemberID: 404})
		assert.ErrorIs(t, err, entities.ErrMemberNotFound)
	})

	t.Run("invalid type", func(t *testing.T) {
		_, err := svc.List(ctx, RelationshipFilter{Type: 40})
		assert.ErrorIs(t, err, entities.ErrInvalidRelationCode)
	})
}

func TestRelationshipService_History(t *testing.T) {
	f := seedFamily(t)
	svc := NewRelationshipService(f.store, f.lock)

	entries, err := svc.History(context.Background(), entities.ActionRelationshipAssert, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, maternalGrandpa, entries[0].MemberID, "newest first")

	all, err := svc.History(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 12+10)
}
