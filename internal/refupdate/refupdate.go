// Package refupdate implements the Reference Updater (spec.md §4.E): it
// discovers every file whose imports point at a path that is about to
// move, and asks the owning language plugin to rewrite those imports.
//
// Grounded on spec.md §4.E and the two-pass (single-file rewrite vs.
// whole-directory cascade) shape of
// _examples/original_source/crates/mill-services' import updater
// service; bounded per-candidate-file parsing uses
// golang.org/x/sync/errgroup the way the teacher's go.mod already
// carries it as a direct dependency.
package refupdate

import (
	"context"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/importcache"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/registry"
	"github.com/nsavage/relocore/internal/walker"
)

// maxConcurrentParses bounds how many candidate files are parsed at
// once; parsing (not directory traversal) is the expensive step the
// walker itself defers to this package.
const maxConcurrentParses = 8

// Updater discovers and rewrites references affected by a file or
// directory move.
type Updater struct {
	fs    afero.Fs
	reg   *registry.Registry
	cache *importcache.Cache
	walk  *walker.Walker
}

// New builds an Updater over fs, consulting reg for plugin dispatch and
// cache for the mtime-validated import cache.
func New(fs afero.Fs, reg *registry.Registry, cache *importcache.Cache) *Updater {
	return &Updater{fs: fs, reg: reg, cache: cache, walk: walker.New(fs)}
}

// MoveRequest is one (old_path, new_path) move the updater resolves
// references for. Paths are workspace-root-relative, slash-separated.
type MoveRequest struct {
	OldPath string
	NewPath string
	// RenameInfo is attached by the caller when the move is also a
	// package rename (spec.md §4.F step 2). It does not need to carry
	// alias configuration itself: collectEditsForMove loads and attaches
	// that independently for every move, package rename or not, before
	// a plugin's ImportRenameSupport ever sees it.
	RenameInfo *editplan.RenameInfo
}

// candidate is one file the updater decided to inspect.
type candidate struct {
	relPath string
	ext     string
}

// affectedFile is a candidate confirmed to import oldPath, carrying the
// content the rewrite step reuses instead of re-reading the file.
type affectedFile struct {
	relPath string
	ext     string
	content string
}

// scanWarning records a per-file parse failure discovered while looking
// for affected files.
type scanWarning struct {
	relPath string
	message string
}

// UpdateFileMove resolves reference edits for a single file move
// (spec.md §4.E steps 1-3). It does not include manifest edits; the
// planner composes those separately.
func (u *Updater) UpdateFileMove(ctx context.Context, projectRoot string, req MoveRequest, scope *editplan.RenameScope) (*editplan.Plan, error) {
	plan := editplan.New(editplan.PlanFileMove, "", 0)
	if err := u.collectEditsForMove(ctx, plan, projectRoot, req, scope); err != nil {
		return nil, err
	}
	if err := plan.Finalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// UpdateDirectoryMove resolves reference edits for every file that was
// inside the moved directory, cascading one rewrite pass per contained
// file against the whole workspace, plus one pass for the directory's
// own textual references (spec.md §4.E, "additional passes for
// directory moves").
func (u *Updater) UpdateDirectoryMove(ctx context.Context, projectRoot string, req MoveRequest, scope *editplan.RenameScope) (*editplan.Plan, error) {
	plan := editplan.New(editplan.PlanDirectoryMove, "", 0)

	inner, err := u.walk.Walk(ctx, joinWorkspacePath(projectRoot, req.OldPath), walker.Options{})
	if err != nil {
		return nil, err
	}

	oldPrefix := strings.TrimSuffix(req.OldPath, "/") + "/"
	newPrefix := strings.TrimSuffix(req.NewPath, "/") + "/"

	if err := u.collectEditsForMove(ctx, plan, projectRoot, req, scope); err != nil {
		return nil, err
	}
	for _, relInsideOld := range inner.Files {
		sub := MoveRequest{
			OldPath:    oldPrefix + relInsideOld,
			NewPath:    newPrefix + relInsideOld,
			RenameInfo: req.RenameInfo,
		}
		if err := u.collectEditsForMove(ctx, plan, projectRoot, sub, scope); err != nil {
			return nil, err
		}
	}

	if err := plan.Finalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// collectEditsForMove runs one full enumerate-consult-rewrite pass for
// a single (old, new) pair and appends the resulting edits to plan.
func (u *Updater) collectEditsForMove(ctx context.Context, plan *editplan.Plan, projectRoot string, req MoveRequest, scope *editplan.RenameScope) error {
	candidates, err := u.enumerateCandidates(ctx, projectRoot, req.OldPath, scope)
	if err != nil {
		return err
	}

	// Alias resolution is loaded for every move, not only ones that also
	// detected a package rename: a plain file move still needs $lib/@/-
	// style specifiers resolved, so RenameInfo being nil (spec.md §4.F
	// step 2 never runs for plan_file_move) must not leave aliasCfg empty.
	aliasCfg := u.loadAliasConfig(projectRoot)
	if req.RenameInfo != nil {
		if fromExtra := langplugin.DecodeAliasConfigExtra(req.RenameInfo.Extra); len(fromExtra.Aliases) > 0 {
			aliasCfg = mergeAliasConfig(aliasCfg, fromExtra)
		}
	}
	rewriteReq := req
	if encoded, err := langplugin.EncodeAliasConfigExtra(aliasCfg); err == nil {
		info := editplan.RenameInfo{Extra: map[string]string{langplugin.AliasConfigExtraKey: encoded}}
		if req.RenameInfo != nil {
			info.OldPackageName = req.RenameInfo.OldPackageName
			info.NewPackageName = req.RenameInfo.NewPackageName
			for k, v := range req.RenameInfo.Extra {
				if k != langplugin.AliasConfigExtraKey {
					info.Extra[k] = v
				}
			}
		}
		rewriteReq.RenameInfo = &info
	}

	affected, warnings, err := u.findAffected(ctx, projectRoot, req.OldPath, aliasCfg, candidates)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		plan.AddWarning(w.relPath, corefail.ParseError, w.message)
	}

	scanScope := scope.ScanScope()
	for _, c := range affected {
		if err := u.rewriteOne(ctx, plan, projectRoot, rewriteReq, c, scanScope); err != nil {
			return err
		}
	}
	return nil
}

// enumerateCandidates walks the workspace and keeps files that a
// registered plugin can parse and that the scope admits, excluding
// oldPath itself (spec.md §4.E step 1-2).
func (u *Updater) enumerateCandidates(ctx context.Context, projectRoot, oldPath string, scope *editplan.RenameScope) ([]candidate, error) {
	extSet := make(map[string]bool)
	for _, ext := range u.reg.Extensions() {
		extSet[ext] = true
	}

	result, err := u.walk.Walk(ctx, projectRoot, walker.Options{HonorGitignore: true, Extensions: extSet})
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, rel := range result.Files {
		if rel == oldPath {
			continue
		}
		if !scope.ShouldIncludeFile(rel) {
			continue
		}
		out = append(out, candidate{relPath: rel, ext: extensionOf(rel)})
	}
	return out, nil
}

// findAffected consults the cache and, on miss, asks each candidate's
// plugin to parse its imports, recording any specifier that resolves to
// oldPath (spec.md §4.E step 2). Parsing runs with bounded concurrency;
// a parse failure on one file becomes a returned scanWarning rather than
// failing the whole pass (spec.md §4.E, "Failure").
func (u *Updater) findAffected(ctx context.Context, projectRoot, oldPath string, aliasCfg langplugin.AliasConfig, candidates []candidate) ([]affectedFile, []scanWarning, error) {
	targetModule := modulePathFor(oldPath)
	targetStripped := stripKnownExt(oldPath)

	type slot struct {
		affected *affectedFile
		warning  *scanWarning
	}
	slots := make([]slot, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentParses)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			plugin, ok := u.reg.PluginForExtension(c.ext)
			if !ok {
				return nil
			}
			parser, ok := plugin.ImportParser()
			if !ok {
				return nil
			}

			absPath := joinWorkspacePath(projectRoot, c.relPath)
			content, mtime, err := readFileWithMtime(u.fs, absPath)
			if err != nil {
				slots[i] = slot{warning: &scanWarning{relPath: c.relPath, message: err.Error()}}
				return nil
			}

			imports, hit := u.cache.Get(absPath, mtime)
			if !hit {
				parsed, parseErr := parser.ParseImports(gctx, content)
				if parseErr != nil {
					slots[i] = slot{warning: &scanWarning{relPath: c.relPath, message: parseErr.Error()}}
					return nil
				}
				imports = parsed
				u.cache.Put(absPath, mtime, imports)
			}

			sep := plugin.Metadata().ModuleSeparator
			resolver, hasResolver := plugin.PathAliasResolver()
			for _, imp := range imports {
				if hasResolver {
					resolved, matched, resolveErr := resolver.ResolveAlias(gctx, aliasCfg, imp.Specifier, c.relPath, projectRoot)
					if resolveErr == nil && matched {
						if stripKnownExt(resolved) == targetStripped {
							slots[i] = slot{affected: &affectedFile{relPath: c.relPath, ext: c.ext, content: content}}
							return nil
						}
						continue
					}
				}
				if specifierMatchesTarget(imp, sep, targetModule) {
					slots[i] = slot{affected: &affectedFile{relPath: c.relPath, ext: c.ext, content: content}}
					return nil
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, corefail.Wrap(corefail.Internal, err, "scanning candidates for %s", oldPath)
	}

	var affected []affectedFile
	var warnings []scanWarning
	for _, s := range slots {
		switch {
		case s.affected != nil:
			affected = append(affected, *s.affected)
		case s.warning != nil:
			warnings = append(warnings, *s.warning)
		}
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i].relPath < affected[j].relPath })
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].relPath < warnings[j].relPath })
	return affected, warnings, nil
}

// rewriteOne invokes the owning plugin's ImportRenameSupport for one
// affected file and appends a full-file Replace edit (spec.md §4.E step
// 3). Full-file replacement keeps this package oblivious to how many
// import lines a given plugin touched.
func (u *Updater) rewriteOne(ctx context.Context, plan *editplan.Plan, projectRoot string, req MoveRequest, c affectedFile, scope editplan.ScanScope) error {
	plugin, ok := u.reg.PluginForExtension(c.ext)
	if !ok {
		return nil
	}
	rewriter, ok := plugin.ImportRenameSupport()
	if !ok {
		return nil
	}

	absPath := joinWorkspacePath(projectRoot, c.relPath)
	newContent, changeCount, err := rewriter.RewriteImportsForMove(ctx, langplugin.RewriteRequest{
		OldPath:       req.OldPath,
		NewPath:       req.NewPath,
		ImportingFile: c.relPath,
		ImportingSrc:  c.content,
		ProjectRoot:   projectRoot,
		RenameInfo:    req.RenameInfo,
		Scope:         scope,
	})
	if err != nil {
		plan.AddWarning(c.relPath, corefail.KindOf(err), err.Error())
		return nil
	}
	if changeCount == 0 || newContent == c.content {
		return nil
	}

	u.cache.Invalidate(absPath)
	plan.SetChecksum(c.relPath, editplan.Checksum([]byte(c.content)))

	return plan.AddEdit(editplan.TextEdit{
		FilePath:     c.relPath,
		Kind:         editplan.Replace,
		Location:     wholeFileLocation(c.content),
		OriginalText: c.content,
		NewText:      newContent,
		Priority:     editplan.PriorityImportRewrite,
		Description:  "updated imports for move " + req.OldPath + " -> " + req.NewPath,
	})
}
