package executor_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/executor"
	"github.com/nsavage/relocore/internal/opqueue"
)

func newPlan(edits ...editplan.TextEdit) *editplan.Plan {
	p := editplan.New(editplan.PlanFileMove, "rust", 0)
	for _, e := range edits {
		_ = p.AddEdit(e)
	}
	return p
}

func TestExecuteDryRunDoesNotTouchDisk(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.rs", []byte("fn a() {}\n"), 0o644))

	ex := executor.New(fs, nil)
	plan := newPlan(editplan.TextEdit{
		FilePath: "a.rs",
		Kind:     editplan.Delete,
		Location: editplan.FullFileLocation("fn a() {}\n"),
	})

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.DryRun)
	assert.Empty(t, result.FileResults)

	exists, err := afero.Exists(fs, "/proj/a.rs")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExecuteFailsOnChecksumMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.rs", []byte("fn a() {}\n"), 0o644))

	ex := executor.New(fs, nil)
	plan := newPlan(editplan.TextEdit{
		FilePath: "a.rs",
		Kind:     editplan.Delete,
		Location: editplan.FullFileLocation("fn a() {}\n"),
	})
	plan.SetChecksum("a.rs", "not-the-real-hash")

	_, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{})
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.PreconditionFailed))
}

func TestExecuteAppliesReplaceAndInsertInSingleFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "pub fn hello() {}\npub fn world() {}\n"
	require.NoError(t, afero.WriteFile(fs, "/proj/lib.rs", []byte(content), 0o644))

	replace := editplan.TextEdit{
		FilePath: "lib.rs",
		Kind:     editplan.Replace,
		Location: editplan.Location{
			Start: editplan.Position{Line: 0, Column: 7},
			End:   editplan.Position{Line: 0, Column: 12},
		},
		OriginalText: "hello",
		NewText:      "greet",
		Priority:     editplan.PriorityImportRewrite,
	}
	insert := editplan.TextEdit{
		FilePath: "lib.rs",
		Kind:     editplan.Insert,
		Location: editplan.PointAt(editplan.Position{Line: 0, Column: 0}),
		NewText:  "// generated\n",
		Priority: editplan.PriorityMisc,
	}

	ex := executor.New(fs, nil)
	plan := newPlan(replace, insert)

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Contains(t, result.AppliedFiles, "lib.rs")

	got, err := afero.ReadFile(fs, "/proj/lib.rs")
	require.NoError(t, err)
	assert.Equal(t, "// generated\npub fn greet() {}\npub fn world() {}\n", string(got))
}

func TestExecuteCreateWritesNewFileWithParentDirs(t *testing.T) {
	fs := afero.NewMemMapFs()

	ex := executor.New(fs, nil)
	plan := newPlan(editplan.TextEdit{
		FilePath: "crates/baz/src/lib.rs",
		Kind:     editplan.Create,
		NewText:  "pub fn hello() {}\n",
		Priority: editplan.PriorityEntryPointCreate,
	})

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)

	got, err := afero.ReadFile(fs, "/proj/crates/baz/src/lib.rs")
	require.NoError(t, err)
	assert.Equal(t, "pub fn hello() {}\n", string(got))
}

func TestExecuteMoveRenamesFileWithParentDirCreation(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	ex := executor.New(fs, nil)
	plan := newPlan(editplan.TextEdit{
		FilePath:  "src/a.rs",
		Kind:      editplan.Move,
		MovedFrom: "src/a.rs",
		MovedTo:   "src/moved/b.rs",
		Priority:  editplan.PriorityDeleteOriginal,
	})

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := afero.Exists(fs, "/proj/src/a.rs")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := afero.ReadFile(fs, "/proj/src/moved/b.rs")
	require.NoError(t, err)
	assert.Equal(t, "pub fn hello() {}\n", string(got))
}

func TestExecuteDeleteRemovesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/stale.rs", []byte("pub fn old() {}\n"), 0o644))

	ex := executor.New(fs, nil)
	plan := newPlan(editplan.TextEdit{
		FilePath: "stale.rs",
		Kind:     editplan.Delete,
		Location: editplan.FullFileLocation("pub fn old() {}\n"),
	})

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := afero.Exists(fs, "/proj/stale.rs")
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestExecuteQueueWritesRoutesThroughOpqueue exercises Options.QueueWrites,
// using a Handler that performs the afero operations itself, confirming the
// executor dispatches OpWrite (for a Replace) and OpDelete (for a Delete)
// through the queue instead of writing directly.
func TestExecuteQueueWritesRoutesThroughOpqueue(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.rs", []byte("pub fn hello() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/stale.rs", []byte("old\n"), 0o644))

	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error {
		switch op.Kind {
		case opqueue.OpWrite:
			return afero.WriteFile(fs, op.Path, op.Payload, 0o644)
		case opqueue.OpDelete:
			return fs.Remove(op.Path)
		case opqueue.OpRename:
			return fs.Rename(op.Path, string(op.Payload))
		default:
			return nil
		}
	}, 4)
	defer q.Close()

	ex := executor.New(fs, q)
	plan := newPlan(
		editplan.TextEdit{
			FilePath: "a.rs",
			Kind:     editplan.Replace,
			Location: editplan.Location{
				Start: editplan.Position{Line: 0, Column: 7},
				End:   editplan.Position{Line: 0, Column: 12},
			},
			OriginalText: "hello",
			NewText:      "greet",
		},
		editplan.TextEdit{
			FilePath: "stale.rs",
			Kind:     editplan.Delete,
			Location: editplan.FullFileLocation("old\n"),
		},
	)

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{QueueWrites: true})
	require.NoError(t, err)
	assert.True(t, result.Success)

	got, err := afero.ReadFile(fs, "/proj/a.rs")
	require.NoError(t, err)
	assert.Equal(t, "pub fn greet() {}\n", string(got))

	exists, err := afero.Exists(fs, "/proj/stale.rs")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, q.WaitUntilIdle(context.Background()))
}

func TestExecuteQueueWritesAppliesMove(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	q := opqueue.New(func(ctx context.Context, op opqueue.Operation) error {
		switch op.Kind {
		case opqueue.OpRename:
			return fs.Rename(op.Path, string(op.Payload))
		default:
			return nil
		}
	}, 4)
	defer q.Close()

	ex := executor.New(fs, q)
	plan := newPlan(editplan.TextEdit{
		FilePath:  "a.rs",
		Kind:      editplan.Move,
		MovedFrom: "a.rs",
		MovedTo:   "renamed/a.rs",
	})

	result, err := ex.Execute(context.Background(), "/proj", plan, executor.Options{QueueWrites: true})
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := afero.Exists(fs, "/proj/a.rs")
	require.NoError(t, err)
	assert.False(t, exists)

	got, err := afero.ReadFile(fs, "/proj/renamed/a.rs")
	require.NoError(t, err)
	assert.Equal(t, "pub fn hello() {}\n", string(got))
}
