package planner_test

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/importcache"
	"github.com/nsavage/relocore/internal/langs/rust"
	"github.com/nsavage/relocore/internal/planner"
	"github.com/nsavage/relocore/internal/refupdate"
	"github.com/nsavage/relocore/internal/registry"
)

func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	require.NoError(t, b.Register(rust.New()))
	return b.Build()
}

func newPlanner(t *testing.T, fs afero.Fs) *planner.Planner {
	t.Helper()
	reg := buildRegistry(t)
	ref := refupdate.New(fs, reg, importcache.New())
	return planner.New(fs, reg, ref)
}

func TestPlanFileMoveProducesMoveEditAndChecksum(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/b.rs", planner.MoveOptions{}, 1000)
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())

	var moveEdit *editplan.TextEdit
	for i := range plan.Edits {
		if plan.Edits[i].Kind == editplan.Move {
			moveEdit = &plan.Edits[i]
		}
	}
	require.NotNil(t, moveEdit)
	assert.Equal(t, "src/a.rs", moveEdit.MovedFrom)
	assert.Equal(t, "src/b.rs", moveEdit.MovedTo)
	assert.Equal(t, editplan.PriorityDeleteOriginal, moveEdit.Priority)
	assert.Contains(t, plan.Checksums, "src/a.rs")
}

func TestPlanFileMoveIdenticalPathsYieldsEmptyPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/a.rs", planner.MoveOptions{}, 1000)
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
}

func TestPlanFileMoveDestinationExistsWithoutForceFails(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/b.rs", []byte("pub fn other() {}\n"), 0o644))

	pl := newPlanner(t, fs)
	_, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/b.rs", planner.MoveOptions{}, 1000)
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.AlreadyExists))
}

func TestPlanFileMoveDestinationExistsWithForceSucceeds(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/b.rs", []byte("pub fn other() {}\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/b.rs", planner.MoveOptions{Force: true}, 1000)
	require.NoError(t, err)
	assert.False(t, plan.IsEmpty())
}

func TestPlanFileMoveRejectsPathEscapingRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	pl := newPlanner(t, fs)
	_, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "../outside.rs", planner.MoveOptions{}, 1000)
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.InvalidRequest))
}

func TestPlanFileMoveUpdatesMarkdownReference(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/README.md", []byte("See [src/a.rs](src/a.rs) for details.\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/b.rs", planner.MoveOptions{}, 1000)
	require.NoError(t, err)

	var readmeEdit *editplan.TextEdit
	for i := range plan.Edits {
		if plan.Edits[i].FilePath == "README.md" {
			readmeEdit = &plan.Edits[i]
		}
	}
	require.NotNil(t, readmeEdit)
	assert.Contains(t, readmeEdit.NewText, "src/b.rs")
	assert.NotContains(t, readmeEdit.NewText, "(src/a.rs)")
}

// TestPlanDirectoryMoveRenamesPackageAndDependents exercises the full
// spec.md §4.F directory-move algorithm: a workspace member crate moves,
// its own Cargo.toml package name follows the new directory basename,
// the workspace root's member list is updated, and a sibling crate's
// local-path dependency is rewritten to the new relative path.
func TestPlanDirectoryMoveRenamesPackageAndDependents(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/Cargo.toml", []byte(
		"[workspace]\nmembers = [\"crates/foo\", \"crates/bar\"]\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/crates/foo/Cargo.toml", []byte(
		"[package]\nname = \"foo\"\nversion = \"0.1.0\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/crates/foo/src/lib.rs", []byte(
		"pub fn hello() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/crates/bar/Cargo.toml", []byte(
		"[package]\nname = \"bar\"\nversion = \"0.1.0\"\n\n[dependencies]\nfoo = { path = \"../foo\" }\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/crates/bar/src/lib.rs", []byte(
		"use foo::hello;\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanDirectoryMove(context.Background(), "/proj", "crates/foo", "crates/baz", planner.MoveOptions{}, 1000)
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())

	var ownManifest, workspaceRoot, depManifest *editplan.TextEdit
	for i := range plan.Edits {
		e := &plan.Edits[i]
		switch e.FilePath {
		case "crates/baz/Cargo.toml":
			ownManifest = e
		case "Cargo.toml":
			workspaceRoot = e
		case "crates/bar/Cargo.toml":
			depManifest = e
		}
	}

	require.NotNil(t, ownManifest)
	assert.Contains(t, ownManifest.NewText, `name = "baz"`)

	require.NotNil(t, workspaceRoot)
	assert.Contains(t, workspaceRoot.NewText, "crates/baz")
	assert.NotContains(t, workspaceRoot.NewText, "crates/foo")

	require.NotNil(t, depManifest)
	assert.Contains(t, depManifest.NewText, "../baz")
	// The dependency table's key renames alongside the path: go-toml's
	// Tree.String() may render the entry inline (`baz = { ... }`) or as
	// a block table (`[dependencies.baz]`), so check for either form.
	hasKey := func(name string) bool {
		return strings.Contains(depManifest.NewText, name+" = ") ||
			strings.Contains(depManifest.NewText, "."+name+"]")
	}
	assert.True(t, hasKey("baz"), "expected dependency key renamed to baz, got:\n%s", depManifest.NewText)
	assert.False(t, hasKey("foo"), "expected no remaining foo dependency key, got:\n%s", depManifest.NewText)
}

// TestPlanDirectoryMovePlainDirectoryHasNoManifestEdits exercises a
// directory move containing no manifest: every contained file still
// gets its own Move edit, but no package detection or manifest steps
// run.
func TestPlanDirectoryMovePlainDirectoryHasNoManifestEdits(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/assets/logo.png", []byte("binary"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/assets/notes.txt", []byte("notes"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanDirectoryMove(context.Background(), "/proj", "assets", "static/assets", planner.MoveOptions{}, 1000)
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())

	moveCount := 0
	for _, e := range plan.Edits {
		if e.Kind == editplan.Move {
			moveCount++
		}
	}
	assert.Equal(t, 3, moveCount) // the directory itself plus its two files
}

func TestPlanDirectoryMoveIdenticalPathsYieldsEmptyPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/crates/foo/Cargo.toml", []byte(
		"[package]\nname = \"foo\"\n"), 0o644))

	pl := newPlanner(t, fs)
	plan, err := pl.PlanDirectoryMove(context.Background(), "/proj", "crates/foo", "crates/foo", planner.MoveOptions{}, 1000)
	require.NoError(t, err)
	assert.True(t, plan.IsEmpty())
}
