package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/kinship/internal/domain/entities"
	"github.com/ersonp/kinship/internal/infrastructure/config"
)

// execute runs the kin command line in the current directory and returns
// what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	require.NoError(t, err, "kin %v", args)
	return out
}

// newWorkspace initializes kin in a temp directory holding a couple and
// their son: 1 Luo Cheng, 2 Li Mei, 3 Luo Ming.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	mustExecute(t, "init")
	mustExecute(t, "member", "add", "Luo Cheng", "--generation", "1", "--gender", "male")
	mustExecute(t, "member", "add", "Li Mei", "-g", "1", "--gender", "女")
	mustExecute(t, "member", "add", "Luo Ming", "-g", "2", "--gender", "m")
	mustExecute(t, "relate", "1", "wife", "2")
	mustExecute(t, "relate", "Luo Cheng", "长子", "Luo Ming")
	return dir
}

func TestInit_Twice(t *testing.T) {
	newWorkspace(t)

	_, err := execute(t, "init")
	assert.ErrorContains(t, err, "already initialized")
}

func TestMemberCommands(t *testing.T) {
	newWorkspace(t)

	out := mustExecute(t, "member", "list", "--format", "json")
	var members []entities.Member
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 3)
	assert.Equal(t, entities.Female, members[1].Gender)

	out = mustExecute(t, "member", "show", "Li")
	assert.Contains(t, out, "Name:       Li Mei")

	out = mustExecute(t, "member", "update", "2", "--remark", "married in")
	assert.Contains(t, out, "Remark:     married in")

	_, err := execute(t, "member", "update", "2")
	assert.ErrorContains(t, err, "nothing to update")

	out = mustExecute(t, "member", "search", "luo")
	assert.Contains(t, out, "Luo Cheng")
	assert.Contains(t, out, "Luo Ming")
	assert.NotContains(t, out, "Li Mei")

	_, err = execute(t, "member", "add", "X", "-g", "1", "--gender", "other")
	assert.ErrorIs(t, err, entities.ErrInvalidMember)
}

func TestRelateAndQuery(t *testing.T) {
	newWorkspace(t)

	out := mustExecute(t, "relate", "1", "wife", "2")
	assert.Contains(t, out, "Already recorded: Li Mei is the 妻子 (wife) of Luo Cheng")

	_, err := execute(t, "relate", "1", "eldest daughter", "3")
	assert.ErrorIs(t, err, entities.ErrRejected)

	out = mustExecute(t, "kinship", "3", "2", "--format", "json")
	var result entities.KinshipResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Related)
	assert.Equal(t, entities.KinshipDirectPrefix+"母亲", result.Description)

	out = mustExecute(t, "kinship", "3", "2")
	assert.Contains(t, out, "Luo Ming -> Li Mei: "+entities.KinshipDirectPrefix+"母亲")

	out = mustExecute(t, "relations", "2")
	assert.Contains(t, out, "-> 丈夫 Luo Cheng (1)")

	out = mustExecute(t, "network", "3", "--format", "json")
	var network entities.Network
	require.NoError(t, json.Unmarshal([]byte(out), &network))
	assert.Len(t, network.Nodes, 3)

	_, err = execute(t, "network", "3", "--generations", "9")
	assert.ErrorIs(t, err, entities.ErrInvalidGenerations)

	out = mustExecute(t, "dedupe")
	assert.Equal(t, "Removed 0 duplicate relationships\n", out)

	out = mustExecute(t, "history", "--action", entities.ActionRelationshipReject)
	assert.Contains(t, out, entities.ActionRelationshipReject)
}

func TestExportImportDiff(t *testing.T) {
	ws := newWorkspace(t)
	before := filepath.Join(ws, "before")
	after := filepath.Join(ws, "after")

	out := mustExecute(t, "export", before)
	assert.Contains(t, out, "Exported 3 members and 4 relationships")

	out = mustExecute(t, "import", before, "--dry-run")
	assert.Contains(t, out, "Dry run: 3 members and 4 relationships are valid")

	out = mustExecute(t, "import", before)
	assert.Contains(t, out, "Replayed 4 relationships: 4 succeeded, 0 failed")

	mustExecute(t, "member", "update", "3", "--name", "Luo Xiaoming")
	mustExecute(t, "export", after, "--format", "csv")

	out = mustExecute(t, "diff", before, after)
	assert.Contains(t, out, `name: "Luo Ming" -> "Luo Xiaoming"`)

	out = mustExecute(t, "diff", before, before)
	assert.Equal(t, "No differences.\n", out)
}

func TestFamiliesCommands(t *testing.T) {
	ws := newWorkspace(t)

	mustExecute(t, "families", "create", "Li Family", "-d", "maternal side")
	families, err := config.LoadFamilies(ws)
	require.NoError(t, err)
	assert.Equal(t, []string{"Li Family", "default"}, families.Names())

	out := mustExecute(t, "families", "list")
	assert.Contains(t, out, "maternal side")

	out = mustExecute(t, "--family", "Li Family", "member", "list")
	assert.Equal(t, "No members found.\n", out)

	_, err = execute(t, "families", "delete", "default")
	assert.ErrorContains(t, err, "use --force")

	mustExecute(t, "families", "delete", "Li Family")
	_, err = execute(t, "-f", "Li Family", "member", "list")
	assert.ErrorContains(t, err, `family "Li Family" not found`)
}

func TestPrintFamilies_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFamilies(&buf, &config.FamiliesConfig{}))
	assert.Contains(t, buf.String(), "No families configured.")
}
