package editplan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEditValidatesInsertIsPoint(t *testing.T) {
	p := New(PlanFileMove, "go", 0)
	err := p.AddEdit(TextEdit{
		FilePath: "a.go",
		Kind:     Insert,
		Location: Location{Start: Position{1, 0}, End: Position{1, 5}},
	})
	assert.Error(t, err)
}

func TestFinalizeSortsByPriorityThenReverseLocation(t *testing.T) {
	p := New(PlanDirectoryMove, "rust", 0)
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "a.rs", Kind: Replace, Priority: PriorityImportRewrite, Location: Location{Start: Position{1, 0}, End: Position{1, 3}}}))
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "a.rs", Kind: Replace, Priority: PriorityParentModUpdate, Location: Location{Start: Position{2, 0}, End: Position{2, 3}}}))
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "a.rs", Kind: Replace, Priority: PriorityImportRewrite, Location: Location{Start: Position{5, 0}, End: Position{5, 3}}}))

	require.NoError(t, p.Finalize())

	assert.Equal(t, PriorityParentModUpdate, p.Edits[0].Priority)
	assert.Equal(t, 5, p.Edits[1].Location.Start.Line)
	assert.Equal(t, 1, p.Edits[2].Location.Start.Line)
}

func TestFinalizeRejectsOverlapAtSamePriority(t *testing.T) {
	p := New(PlanFileMove, "go", 0)
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "a.go", Kind: Replace, Priority: 1, Location: Location{Start: Position{1, 0}, End: Position{1, 10}}}))
	require.NoError(t, p.AddEdit(TextEdit{FilePath: "a.go", Kind: Replace, Priority: 1, Location: Location{Start: Position{1, 5}, End: Position{1, 8}}}))

	err := p.Finalize()
	assert.Error(t, err)
}

func TestIsEmptyForNoOpPlan(t *testing.T) {
	p := New(PlanFileMove, "go", 0)
	assert.True(t, p.IsEmpty())
}
