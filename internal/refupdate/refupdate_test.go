package refupdate_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/langs/python"
	"github.com/nsavage/relocore/internal/langs/typescript"
	"github.com/nsavage/relocore/internal/importcache"
	"github.com/nsavage/relocore/internal/refupdate"
	"github.com/nsavage/relocore/internal/registry"
)

func buildRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	b := registry.NewBuilder()
	require.NoError(t, b.Register(typescript.New()))
	require.NoError(t, b.Register(python.New()))
	return b.Build()
}

// TestUpdateFileMovePreservesAliasSpelling mirrors spec.md scenario S1:
// src/lib/utils/helpers.ts moves to src/lib/utils/helpers/date.ts, and
// the importing file's "$lib/..." specifier must gain only the new path
// suffix, not lose its alias spelling.
func TestUpdateFileMovePreservesAliasSpelling(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/lib/utils/helpers.ts", []byte("export function formatDate() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/routes/page.ts", []byte("import { formatDate } from '$lib/utils/helpers';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	aliasCfg := langplugin.AliasConfig{Aliases: map[string]string{
		"$lib":   "src/lib",
		"$lib/*": "src/lib/*",
	}}
	extra, err := typescript.EncodeAliasConfigExtra(aliasCfg)
	require.NoError(t, err)

	plan, err := u.UpdateFileMove(context.Background(), "/proj", refupdate.MoveRequest{
		OldPath: "src/lib/utils/helpers.ts",
		NewPath: "src/lib/utils/helpers/date.ts",
		RenameInfo: &editplan.RenameInfo{
			Extra: map[string]string{langplugin.AliasConfigExtraKey: extra},
		},
	}, nil)
	require.NoError(t, err)

	require.Len(t, plan.Edits, 1)
	edit := plan.Edits[0]
	assert.Equal(t, "src/routes/page.ts", edit.FilePath)
	assert.Contains(t, edit.NewText, "$lib/utils/helpers/date")
	assert.Equal(t, editplan.PriorityImportRewrite, edit.Priority)
}

// TestUpdateFileMovePlainFileMoveResolvesConventionalAlias exercises
// spec.md scenario S1 through the path a plain file move actually takes
// in production: no RenameInfo at all (package detection never runs for
// a single-file move), relying entirely on collectEditsForMove's
// conventional $lib default rather than a manually supplied AliasConfig.
func TestUpdateFileMovePlainFileMoveResolvesConventionalAlias(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/lib/utils/helpers.ts", []byte("export function formatDate() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/routes/page.ts", []byte("import { formatDate } from '$lib/utils/helpers';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	plan, err := u.UpdateFileMove(context.Background(), "/proj", refupdate.MoveRequest{
		OldPath: "src/lib/utils/helpers.ts",
		NewPath: "src/lib/utils/helpers/date.ts",
	}, nil)
	require.NoError(t, err)

	require.Len(t, plan.Edits, 1)
	edit := plan.Edits[0]
	assert.Equal(t, "src/routes/page.ts", edit.FilePath)
	assert.Contains(t, edit.NewText, "$lib/utils/helpers/date")
}

// TestUpdateFileMoveHonorsTsconfigPathOverride confirms a workspace's own
// tsconfig.json "paths" entry takes precedence over the conventional
// defaults, so a project using a non-default alias still resolves.
func TestUpdateFileMoveHonorsTsconfigPathOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/tsconfig.json", []byte(`{
		"compilerOptions": {
			"baseUrl": ".",
			"paths": { "~/*": ["app/*"] }
		}
	}`), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/app/widgets/button.ts", []byte("export function Button() {}\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/app/pages/home.ts", []byte("import { Button } from '~/widgets/button';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	plan, err := u.UpdateFileMove(context.Background(), "/proj", refupdate.MoveRequest{
		OldPath: "app/widgets/button.ts",
		NewPath: "app/widgets/controls/button.ts",
	}, nil)
	require.NoError(t, err)

	require.Len(t, plan.Edits, 1)
	edit := plan.Edits[0]
	assert.Equal(t, "app/pages/home.ts", edit.FilePath)
	assert.Contains(t, edit.NewText, "~/widgets/controls/button")
}

func TestUpdateFileMoveSkipsUnaffectedFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/lib/a.ts", []byte("export const a = 1;\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/lib/b.ts", []byte("import { other } from './unrelated';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	plan, err := u.UpdateFileMove(context.Background(), "/proj", refupdate.MoveRequest{
		OldPath: "src/lib/a.ts",
		NewPath: "src/lib/a2.ts",
	}, nil)
	require.NoError(t, err)
	assert.Empty(t, plan.Edits)
}

func TestUpdateFileMoveRespectsExcludeGlob(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/src/lib/a.ts", []byte("export const a = 1;\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/src/generated/importer.ts", []byte("import { a } from '../lib/a';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	scope := &editplan.RenameScope{ExcludeGlobs: []string{"src/generated/**"}}
	plan, err := u.UpdateFileMove(context.Background(), "/proj", refupdate.MoveRequest{
		OldPath: "src/lib/a.ts",
		NewPath: "src/lib/a2.ts",
	}, scope)
	require.NoError(t, err)
	assert.Empty(t, plan.Edits)
}

func TestFindCyclesReportsMutualImportOnce(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.ts", []byte("import { b } from './b';\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/b.ts", []byte("import { a } from './a';\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	findings, err := u.FindCycles(context.Background(), "/proj", nil)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, refupdate.CircularDependency, findings[0].Kind)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts"}, findings[0].Cycle)
}

func TestFindCyclesReturnsNoneForAcyclicGraph(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/proj/a.ts", []byte("import { b } from './b';\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/proj/b.ts", []byte("export const b = 1;\n"), 0o644))

	reg := buildRegistry(t)
	cache := importcache.New()
	u := refupdate.New(fs, reg, cache)

	findings, err := u.FindCycles(context.Background(), "/proj", nil)
	require.NoError(t, err)
	assert.Empty(t, findings)
}
