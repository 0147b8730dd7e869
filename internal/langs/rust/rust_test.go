package rust_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/langs/rust"
)

func TestParseImportsCategorizesRelativeVsBare(t *testing.T) {
	p := rust.New()
	src := "use crate::foo::Bar;\nuse serde::Serialize;\n"
	imports, err := p.ParseImports(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, editplan.CategoryRelative, imports[0].Category)
	assert.Equal(t, editplan.CategoryBareModule, imports[1].Category)
}

func TestRemoveAndAddDeclarationRoundTrip(t *testing.T) {
	p := rust.New()
	parent := "mod a;\npub mod b;\nmod c;\n"

	withoutB, wasPublic, err := p.RemoveDeclaration(context.Background(), parent, "b")
	require.NoError(t, err)
	assert.True(t, wasPublic)
	assert.NotContains(t, withoutB, "mod b;")

	restored, err := p.AddDeclaration(context.Background(), withoutB, "b", true)
	require.NoError(t, err)
	assert.Contains(t, restored, "pub mod b;")
}

func TestAnalyzeManifestReadsCargoPackageAndDeps(t *testing.T) {
	p := rust.New()
	src := `[package]
name = "foo"
version = "0.1.0"

[dependencies]
serde = "1.0"
`
	data, err := p.AnalyzeManifest(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "foo", data.PackageName)
	require.Len(t, data.Dependencies, 1)
	assert.Equal(t, "serde", data.Dependencies[0].Name)
}

func TestWorkspaceAddAndRemoveMember(t *testing.T) {
	p := rust.New()
	src := "[workspace]\nmembers = [\"crate1\", \"crate2\"]\n"

	added, err := p.AddMember(context.Background(), src, "crate3")
	require.NoError(t, err)
	members, err := p.ListMembers(context.Background(), added)
	require.NoError(t, err)
	assert.Contains(t, members, "crate3")

	removed, err := p.RemoveMember(context.Background(), added, "crate1")
	require.NoError(t, err)
	members, err = p.ListMembers(context.Background(), removed)
	require.NoError(t, err)
	assert.NotContains(t, members, "crate1")
}

func TestRewriteImportsForMoveSubstitutesUsePath(t *testing.T) {
	p := rust.New()
	src := "use crate::old_mod::Thing;\n"
	out, count, err := p.RewriteImportsForMove(context.Background(), langplugin.RewriteRequest{
		OldPath:       "crate::old_mod",
		NewPath:       "crate::new_mod",
		ImportingFile: "main.rs",
		ImportingSrc:  src,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, out, "crate::new_mod::Thing")
}

func TestRewriteImportsForMovePlainFileMoveRewritesModAndUse(t *testing.T) {
	p := rust.New()
	src := "pub mod utils;\nuse utils::helper;\n"
	out, count, err := p.RewriteImportsForMove(context.Background(), langplugin.RewriteRequest{
		OldPath:       "src/utils.rs",
		NewPath:       "src/helpers.rs",
		ImportingFile: "src/lib.rs",
		ImportingSrc:  src,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Contains(t, out, "pub mod helpers;")
	assert.Contains(t, out, "use helpers::helper;")
	assert.NotContains(t, out, "utils")
}

func TestParseImportsFlagsModDeclarationAsReference(t *testing.T) {
	p := rust.New()
	infos, err := p.ParseImports(context.Background(), "pub mod utils;\n")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "utils", infos[0].ModulePath)
}
