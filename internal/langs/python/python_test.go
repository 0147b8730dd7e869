package python_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/langs/python"
)

func TestParseImportsHandlesFromAndPlainImport(t *testing.T) {
	p := python.New()
	src := "from mypkg.utils import helper\nimport os\n"
	imports, err := p.ParseImports(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "mypkg.utils", imports[0].ModulePath)
	assert.Equal(t, []string{"helper"}, imports[0].NamedImports)
	assert.Equal(t, "os", imports[1].ModulePath)
}

func TestRewriteImportsForMoveSubstitutesModulePath(t *testing.T) {
	p := python.New()
	src := "from mypkg.old_mod import helper\n"
	out, count, err := p.RewriteImportsForMove(context.Background(), langplugin.RewriteRequest{
		OldPath:       "mypkg.old_mod",
		NewPath:       "mypkg.new_mod",
		ImportingFile: "main.py",
		ImportingSrc:  src,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, out, "from mypkg.new_mod import helper")
}

func TestAnalyzeManifestReadsProjectNameAndDeps(t *testing.T) {
	p := python.New()
	src := `[project]
name = "mypkg"
version = "0.1.0"
dependencies = ["requests>=2.0"]
`
	data, err := p.AnalyzeManifest(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "mypkg", data.PackageName)
	require.Len(t, data.Dependencies, 1)
	assert.Equal(t, "requests", data.Dependencies[0].Name)
}

func TestUpdatePackageNameUsesProjectTable(t *testing.T) {
	p := python.New()
	src := "[project]\nname = \"old\"\n"
	out, err := p.UpdatePackageName(context.Background(), src, "new")
	require.NoError(t, err)
	assert.Contains(t, out, `name = "new"`)
}

func TestEditplanCategoryRelativeForDotImport(t *testing.T) {
	p := python.New()
	src := "from . import sibling\n"
	imports, err := p.ParseImports(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, imports, 1)
	assert.Equal(t, editplan.CategoryRelative, imports[0].Category)
}
