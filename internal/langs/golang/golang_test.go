package golang_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/editplan"
	golang "github.com/nsavage/relocore/internal/langs/golang"
	"github.com/nsavage/relocore/internal/langplugin"
)

func TestParseImportsFindsBareAndExternalModules(t *testing.T) {
	p := golang.New()
	src := `package foo

import (
	"fmt"
	"github.com/nsavage/relocore/internal/editplan"
)

func Bar() {}
`
	imports, err := p.ParseImports(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, imports, 2)
	assert.Equal(t, "fmt", imports[0].ModulePath)
	assert.Equal(t, "github.com/nsavage/relocore/internal/editplan", imports[1].ModulePath)
	assert.Equal(t, editplan.CategoryExternal, imports[1].Category)
}

func TestRewriteImportsForMoveSubstitutesImportPath(t *testing.T) {
	p := golang.New()
	src := `package foo

import "github.com/nsavage/relocore/internal/old"

func Bar() { old.Do() }
`
	out, count, err := p.RewriteImportsForMove(context.Background(), langplugin.RewriteRequest{
		OldPath:       "github.com/nsavage/relocore/internal/old",
		NewPath:       "github.com/nsavage/relocore/internal/newpkg",
		ImportingFile: "bar.go",
		ImportingSrc:  src,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, out, `"github.com/nsavage/relocore/internal/newpkg"`)
	assert.NotContains(t, out, `"github.com/nsavage/relocore/internal/old"`)
}

func TestAnalyzeManifestReadsModulePathAndRequires(t *testing.T) {
	p := golang.New()
	src := `module example.com/foo

go 1.24

require github.com/stretchr/testify v1.8.4
`
	data, err := p.AnalyzeManifest(context.Background(), []byte(src))
	require.NoError(t, err)
	assert.Equal(t, "example.com/foo", data.PackageName)
	require.Len(t, data.Dependencies, 1)
	assert.Equal(t, "github.com/stretchr/testify", data.Dependencies[0].Name)
}

func TestUpdatePackageNameRewritesModuleDirective(t *testing.T) {
	p := golang.New()
	src := "module example.com/foo\n\ngo 1.24\n"
	out, err := p.UpdatePackageName(context.Background(), src, "example.com/bar")
	require.NoError(t, err)
	assert.Contains(t, out, "module example.com/bar")
}
