package handlers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/domain/mocks"
	"github.com/ersonp/kinship/internal/domain/ports"
	"github.com/ersonp/kinship/internal/domain/services"
	"github.com/ersonp/kinship/internal/infrastructure/config"
	"github.com/ersonp/kinship/internal/infrastructure/metrics"
)

// newCouple returns a family holding a married couple and their son.
func newCouple(t *testing.T) (*Family, int64, int64, int64) {
	t.Helper()
	ctx := context.Background()
	f := NewFamily("test", mocks.NewFamilyStore(), Limits{MaxNameLength: 10, MaxGeneration: 100})

	add := func(name string, gender entities.Gender, gen int) int64 {
		m, err := f.Members.HandleCreate(ctx, MemberInput{Name: name, Gender: gender, Generation: gen})
		require.NoError(t, err)
		return m.ID
	}
	husband := add("罗成", entities.Male, 1)
	wife := add("李梅", entities.Female, 1)
	son := add("罗小明", entities.Male, 2)

	_, err := f.Relationships.HandleAssert(ctx, husband, wife, entities.Wife)
	require.NoError(t, err)
	_, err = f.Relationships.HandleAssert(ctx, husband, son, entities.EldestSon)
	require.NoError(t, err)
	return f, husband, wife, son
}

func TestMemberHandler_Limits(t *testing.T) {
	f, _, _, son := newCouple(t)
	ctx := context.Background()

	_, err := f.Members.HandleCreate(ctx, MemberInput{Name: "一二三四五六七八九十十一", Generation: 1})
	assert.ErrorIs(t, err, entities.ErrInvalidMember)

	_, err = f.Members.HandleCreate(ctx, MemberInput{Name: "甲", Generation: 101})
	assert.ErrorIs(t, err, entities.ErrInvalidMember)

	long := "一二三四五六七八九十十一"
	_, err = f.Members.HandleUpdate(ctx, son, entities.MemberUpdate{Name: &long})
	assert.ErrorIs(t, err, entities.ErrInvalidMember)

	_, err = f.Members.HandleSearch(ctx, "  ", 5)
	assert.ErrorIs(t, err, entities.ErrInvalidMember)

	stats, err := f.Members.HandleStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Members)
}

func TestRelationshipHandler_AssertRecordsMetrics(t *testing.T) {
	f, husband, _, son := newCouple(t)
	ctx := context.Background()

	accepted := testutil.ToFloat64(metrics.RelationshipsAsserted.WithLabelValues("accepted"))
	rejected := testutil.ToFloat64(metrics.RelationshipsAsserted.WithLabelValues("rejected"))
	derived := testutil.ToFloat64(metrics.DerivedEdges)

	res, err := f.Relationships.HandleAssert(ctx, son, husband, entities.Wife)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, entities.ErrRejected)
	assert.Equal(t, rejected+1, testutil.ToFloat64(metrics.RelationshipsAsserted.WithLabelValues("rejected")))

	daughter, err := f.Members.HandleCreate(ctx, MemberInput{Name: "罗小红", Gender: entities.Female, Generation: 2})
	require.NoError(t, err)
	res, err = f.Relationships.HandleAssert(ctx, husband, daughter.ID, entities.EldestDaughter)
	require.NoError(t, err)
	assert.Positive(t, res.Derived)
	assert.Equal(t, accepted+1, testutil.ToFloat64(metrics.RelationshipsAsserted.WithLabelValues("accepted")))
	assert.Equal(t, derived+float64(res.Derived), testutil.ToFloat64(metrics.DerivedEdges))
}

func TestRelationshipHandler_Queries(t *testing.T) {
	f, husband, wife, _ := newCouple(t)
	ctx := context.Background()

	views, err := f.Relationships.HandleList(ctx, services.RelationshipFilter{MemberID: wife, Outgoing: true})
	require.NoError(t, err)
	require.NotEmpty(t, views)
	assert.Equal(t, husband, views[0].ToID)
	assert.Equal(t, "丈夫", views[0].Description)

	codes := f.Relationships.HandleCodes()
	assert.Len(t, codes, int(entities.MaxRelationCode))

	removed, err := f.Relationships.HandleDedupe(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	history, err := f.Relationships.HandleHistory(ctx, entities.ActionRelationshipAssert, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestKinshipHandler(t *testing.T) {
	f, husband, wife, son := newCouple(t)
	ctx := context.Background()

	related := testutil.ToFloat64(metrics.KinshipQueries.WithLabelValues("related"))
	notFound := testutil.ToFloat64(metrics.KinshipQueries.WithLabelValues("not_found"))

	res, err := f.Kinship.HandleKinship(ctx, son, wife)
	require.NoError(t, err)
	assert.True(t, res.Related)
	assert.Equal(t, entities.KinshipDirectPrefix+"母亲", res.Description)
	assert.Equal(t, related+1, testutil.ToFloat64(metrics.KinshipQueries.WithLabelValues("related")))

	res, err = f.Kinship.HandleKinship(ctx, son, 404)
	require.NoError(t, err)
	assert.False(t, res.Related)
	assert.Equal(t, notFound+1, testutil.ToFloat64(metrics.KinshipQueries.WithLabelValues("not_found")))

	network, err := f.Kinship.HandleNetwork(ctx, husband, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultNetworkGenerations, network.Generations)
	assert.Len(t, network.Nodes, 3)

	invalid := testutil.ToFloat64(metrics.NetworkBuilds.WithLabelValues("invalid"))
	_, err = f.Kinship.HandleNetwork(ctx, husband, 9)
	assert.ErrorIs(t, err, entities.ErrInvalidGenerations)
	assert.Equal(t, invalid+1, testutil.ToFloat64(metrics.NetworkBuilds.WithLabelValues("invalid")))
}

func writeSnapshot(t *testing.T, dir, members, rels string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "members.csv"), []byte(members), 0644))
	if rels != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "relationships.csv"), []byte(rels), 0644))
	}
}

func TestArchiveHandler_Import(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeSnapshot(t, dir,
		"id,name,generation,gender\n1,罗成,1,男\n2,李梅,1,女\n3,罗小明,2,男\n",
		"from_id,to_id,relation_type\n1,2,2\n1,3,5\n",
	)

	t.Run("dry run leaves the family alone", func(t *testing.T) {
		f := NewFamily("test", mocks.NewFamilyStore(), Limits{})
		res, err := f.Archive.HandleImport(ctx, dir, ImportOptions{DryRun: true})
		require.NoError(t, err)
		assert.True(t, res.DryRun)
		assert.Equal(t, 3, res.Members)
		assert.Equal(t, 2, res.Relationships)
		assert.Nil(t, res.Rebuild)

		stats, err := f.Members.HandleStats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Members)
	})

	t.Run("rebuild replays relationships", func(t *testing.T) {
		f := NewFamily("test", mocks.NewFamilyStore(), Limits{})
		res, err := f.Archive.HandleImport(ctx, dir, ImportOptions{})
		require.NoError(t, err)
		require.NotNil(t, res.Rebuild)
		assert.Equal(t, 2, res.Rebuild.Succeeded)

		kin, err := f.Kinship.HandleKinship(ctx, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, entities.KinshipDirectPrefix+"母亲", kin.Description)

		snap, err := f.Archive.HandleExport(ctx)
		require.NoError(t, err)
		assert.Len(t, snap.Members, 3)
	})

	t.Run("dry run reports dangling ids", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad")
		writeSnapshot(t, bad, "id,name,generation,gender\n1,罗成,1,男\n", "from_id,to_id,relation_type\n1,9,2\n")
		f := NewFamily("test", mocks.NewFamilyStore(), Limits{})
		_, err := f.Archive.HandleImport(ctx, bad, ImportOptions{DryRun: true})
		assert.ErrorIs(t, err, entities.ErrMemberNotFound)
	})
}

func TestArchiveHandler_Diff(t *testing.T) {
	base := t.TempDir()
	oldDir := filepath.Join(base, "old")
	newDir := filepath.Join(base, "new")
	writeSnapshot(t, oldDir, "id,name,generation,gender\n1,罗成,1,男\n2,李梅,1,女\n", "from_id,to_id,relation_type\n1,2,2\n")
	writeSnapshot(t, newDir, "id,name,generation,gender,remark\n1,罗成,1,男,长子\n2,李梅,1,女,\n", "")

	f := NewFamily("test", mocks.NewFamilyStore(), Limits{})
	diff, err := f.Archive.HandleDiff(oldDir, newDir)
	require.NoError(t, err)
	require.Len(t, diff.MembersChanged, 1)
	assert.Equal(t, int64(1), diff.MembersChanged[0].ID)
	assert.Len(t, diff.RelationshipsRemoved, 1)
	assert.Empty(t, diff.MembersAdded)

	_, err = f.Archive.HandleDiff(filepath.Join(base, "missing"), newDir)
	require.Error(t, err)
}

func TestInitHandler(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	var opened []string
	h := NewInitHandler(func(path string) (ports.FamilyStore, error) {
		opened = append(opened, path)
		return mocks.NewFamilyStore(), nil
	})

	res, err := h.Handle(ctx, base, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFamily, res.Family)
	assert.Equal(t, config.SQLitePathForFamily(base, config.DefaultFamily), res.DatabasePath)
	assert.FileExists(t, res.ConfigPath)
	assert.DirExists(t, config.FamilyDir(base, config.DefaultFamily))

	_, err = h.Handle(ctx, base, "")
	require.Error(t, err, "second init must fail")

	_, err = h.HandleCreateFamily(ctx, base, "Luo Family", "罗氏")
	require.NoError(t, err)
	_, err = h.HandleCreateFamily(ctx, base, "Luo Family", "")
	require.Error(t, err)

	families, err := config.LoadFamilies(base)
	require.NoError(t, err)
	assert.Equal(t, []string{"Luo Family", config.DefaultFamily}, families.Names())
	assert.Len(t, opened, 2)

	require.NoError(t, h.HandleDeleteFamily(base, "Luo Family"))
	assert.NoDirExists(t, config.FamilyDir(base, "Luo Family"))
	require.Error(t, h.HandleDeleteFamily(base, "Luo Family"))
}
