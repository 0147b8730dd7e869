package session_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/executor"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/planner"
	"github.com/nsavage/relocore/internal/session"
)

func newTestSession(t *testing.T, fs afero.Fs) *session.Session {
	t.Helper()
	s, err := session.New(fs, session.Options{})
	require.NoError(t, err)
	s.Now = func() int64 { return 1000 }
	t.Cleanup(s.Close)
	return s
}

func TestPlanFileMoveDelegatesToPlanner(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/a.rs", []byte("pub fn hello() {}\n"), 0o644))

	s := newTestSession(t, fs)
	plan, err := s.PlanFileMove(context.Background(), "/proj", "src/a.rs", "src/b.rs", planner.MoveOptions{})
	require.NoError(t, err)
	require.False(t, plan.IsEmpty())

	var moveEdit *editplan.TextEdit
	for i := range plan.Edits {
		if plan.Edits[i].Kind == editplan.Move {
			moveEdit = &plan.Edits[i]
		}
	}
	require.NotNil(t, moveEdit)
	assert.Equal(t, "src/b.rs", moveEdit.MovedTo)
}

func TestPlanRenameSymbolIsUnsupported(t *testing.T) {
	s := newTestSession(t, afero.NewMemMapFs())

	_, err := s.PlanRenameSymbol(context.Background(), "src/a.rs", editplan.Position{}, "newName")
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.UnsupportedOperation))
}

func TestPlanExtractFunctionReportsUnsupportedForUnregisteredExtension(t *testing.T) {
	s := newTestSession(t, afero.NewMemMapFs())

	_, err := s.PlanExtractFunction(context.Background(), "src/a.unknownlang", "source", editplan.Location{}, "extracted")
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.UnsupportedOperation))
}

func TestPlanExtractFunctionReportsUnsupportedWhenPluginLacksProvider(t *testing.T) {
	s := newTestSession(t, afero.NewMemMapFs())

	// The Go plugin is registered but does not implement
	// RefactoringProvider.
	_, err := s.PlanExtractFunction(context.Background(), "main.go", "package main\n", editplan.Location{}, "extracted")
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.UnsupportedOperation))
}

func TestApplyPlanDelegatesToExecutor(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.rs", []byte("fn a() {}\n"), 0o644))

	s := newTestSession(t, fs)
	plan := editplan.New(editplan.PlanFileMove, "rust", s.Now())
	require.NoError(t, plan.AddEdit(editplan.TextEdit{
		FilePath: "a.rs",
		Kind:     editplan.Delete,
		Location: editplan.FullFileLocation("fn a() {}\n"),
	}))

	result, err := s.ApplyPlan(context.Background(), "/proj", plan, executor.Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)

	exists, err := afero.Exists(fs, "/proj/a.rs")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreatePackageWritesScaffoldThroughExecutor(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestSession(t, fs)

	result, err := s.CreatePackage(context.Background(), "/proj", session.CreatePackageRequest{
		Language: "Rust",
		CreatePackageRequest: langplugin.CreatePackageRequest{
			Name:       "widgets",
			TargetPath: "crates/widgets",
			Kind:       langplugin.PackageLibrary,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "crates/widgets/Cargo.toml", result.ManifestPath)

	got, err := afero.ReadFile(fs, "/proj/crates/widgets/src/lib.rs")
	require.NoError(t, err)
	assert.Equal(t, "pub fn placeholder() {}\n", string(got))

	manifest, err := afero.ReadFile(fs, "/proj/crates/widgets/Cargo.toml")
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `name = "widgets"`)
}

func TestCreatePackageReportsInvalidRequestForUnknownLanguage(t *testing.T) {
	s := newTestSession(t, afero.NewMemMapFs())

	_, err := s.CreatePackage(context.Background(), "/proj", session.CreatePackageRequest{
		Language: "cobol",
		CreatePackageRequest: langplugin.CreatePackageRequest{
			Name:       "widgets",
			TargetPath: "widgets",
		},
	})
	require.Error(t, err)
	assert.True(t, corefail.IsKind(err, corefail.InvalidRequest))
}

func TestCreatePackageAddsToWorkspaceWhenRequested(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/Cargo.toml", []byte("[workspace]\nmembers = [\"crates/core\"]\n"), 0o644))

	s := newTestSession(t, fs)
	_, err := s.CreatePackage(context.Background(), "/proj", session.CreatePackageRequest{
		Language: "Rust",
		CreatePackageRequest: langplugin.CreatePackageRequest{
			Name:           "widgets",
			TargetPath:     "crates/widgets",
			WorkspaceRoot:  ".",
			Kind:           langplugin.PackageLibrary,
			AddToWorkspace: true,
		},
	})
	require.NoError(t, err)

	got, err := afero.ReadFile(fs, "/proj/Cargo.toml")
	require.NoError(t, err)
	assert.Contains(t, string(got), "crates/widgets")
}
