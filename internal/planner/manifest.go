package planner

import (
	"context"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/registry"
)

// manifestHandle is a manifest file the planner has located and parsed,
// kept together with the plugin that owns it and the raw bytes the
// checksum table needs.
type manifestHandle struct {
	plugin  langplugin.Plugin
	relPath string
	content string
	data    editplan.ManifestData
}

// detectPackage implements spec.md §4.F step 2: if oldDirRel directly
// contains a manifest file, extract a RenameInfo record from it. Plain
// file moves never reach this (callers only invoke it for directory
// moves), matching the typemill prototype's "no rename_info for simple
// file moves" rule.
func detectPackage(ctx context.Context, fs afero.Fs, reg *registry.Registry, projectRoot, oldDirRel, newDirRel string) (*editplan.RenameInfo, *manifestHandle, error) {
	for _, p := range reg.All() {
		manifestName := p.Metadata().ManifestFilename
		if manifestName == "" {
			continue
		}
		relPath := joinRel(oldDirRel, manifestName)
		absPath := toAbsolutePath(projectRoot, relPath)
		content, err := afero.ReadFile(fs, absPath)
		if err != nil {
			continue
		}
		data, err := p.AnalyzeManifest(ctx, content)
		if err != nil {
			return nil, nil, corefail.Wrap(corefail.ManifestError, err, "analyzing %s", relPath)
		}
		if data.PackageName == "" {
			continue
		}

		newName := deriveNewPackageName(data.PackageName, oldDirRel, newDirRel)
		info := &editplan.RenameInfo{
			OldPackageName: data.PackageName,
			NewPackageName: newName,
		}
		return info, &manifestHandle{plugin: p, relPath: relPath, content: string(content), data: data}, nil
	}
	return nil, nil, nil
}

// deriveNewPackageName follows the directory-basename convention most
// package manifests use: a package whose declared name already matches
// its directory's basename is assumed to want the new directory's
// basename too. A package whose name was chosen independently of its
// directory is left unchanged — there is no second input to this
// operation (plan_directory_move takes only old/new paths) from which
// to infer an intended new name otherwise.
func deriveNewPackageName(oldName, oldDirRel, newDirRel string) string {
	if oldName == path.Base(oldDirRel) {
		return path.Base(newDirRel)
	}
	return oldName
}

// applyOwnManifestRename implements spec.md §4.F step 4a: rewrite the
// moved package's own manifest name field, targeting the manifest at its
// new location since the directory move already relocated it.
func applyOwnManifestRename(ctx context.Context, plan *editplan.Plan, mh *manifestHandle, info *editplan.RenameInfo, newDirRel string) error {
	if info.OldPackageName == info.NewPackageName {
		return nil
	}
	updater, ok := mh.plugin.ManifestUpdater()
	if !ok {
		return nil
	}
	newContent, err := updater.UpdatePackageName(ctx, mh.content, info.NewPackageName)
	if err != nil {
		plan.AddWarning(mh.relPath, corefail.KindOf(err), err.Error())
		return nil
	}
	if newContent == mh.content {
		return nil
	}
	newRelPath := joinRel(newDirRel, path.Base(mh.relPath))
	return plan.AddEdit(editplan.TextEdit{
		FilePath:     newRelPath,
		Kind:         editplan.Replace,
		Location:     editplan.FullFileLocation(mh.content),
		OriginalText: mh.content,
		NewText:      newContent,
		Priority:     editplan.PriorityManifestDepAdd,
		Description:  "renamed package " + info.OldPackageName + " -> " + info.NewPackageName,
	})
}

// updateWorkspaceMemberLists implements spec.md §4.F step 4b: every
// workspace-root manifest between oldDirRel's parent and the project
// root has its member list entry renamed from the old relative member
// path to the new one.
func updateWorkspaceMemberLists(ctx context.Context, fs afero.Fs, reg *registry.Registry, plan *editplan.Plan, projectRoot, oldDirRel, newDirRel string) error {
	for _, ancestorRel := range ancestorDirs(path.Dir(oldDirRel)) {
		for _, p := range reg.All() {
			manifestName := p.Metadata().ManifestFilename
			if manifestName == "" {
				continue
			}
			ws, ok := p.WorkspaceSupport()
			if !ok {
				continue
			}
			relManifest := joinRel(ancestorRel, manifestName)
			absManifest := toAbsolutePath(projectRoot, relManifest)
			content, err := afero.ReadFile(fs, absManifest)
			if err != nil {
				continue
			}
			isRoot, err := ws.IsWorkspaceRoot(ctx, string(content))
			if err != nil || !isRoot {
				continue
			}

			oldMember := relativeTo(ancestorRel, oldDirRel)
			newMember := relativeTo(ancestorRel, newDirRel)

			withoutOld, err := ws.RemoveMember(ctx, string(content), oldMember)
			if err != nil {
				plan.AddWarning(relManifest, corefail.KindOf(err), err.Error())
				continue
			}
			withNew, err := ws.AddMember(ctx, withoutOld, newMember)
			if err != nil {
				plan.AddWarning(relManifest, corefail.KindOf(err), err.Error())
				continue
			}
			if withNew == string(content) {
				continue
			}
			if err := plan.AddEdit(editplan.TextEdit{
				FilePath:     relManifest,
				Kind:         editplan.Replace,
				Location:     editplan.FullFileLocation(string(content)),
				OriginalText: string(content),
				NewText:      withNew,
				Priority:     editplan.PriorityManifestDepAdd,
				Description:  "updated workspace member " + oldMember + " -> " + newMember,
			}); err != nil {
				return err
			}
			plan.SetChecksum(relManifest, editplan.Checksum(content))
		}
	}
	return nil
}

// updateDependentManifestPaths implements spec.md §4.F step 4c: every
// other manifest in the workspace with a local-path dependency pointing
// at oldDirRel has that path rewritten to newDirRel, and, when the move
// also renamed the package itself (renameInfo non-nil), the dependency
// table's key renamed alongside it so no dangling reference to the old
// package name survives (spec.md §8 invariant 5).
func updateDependentManifestPaths(ctx context.Context, fs afero.Fs, reg *registry.Registry, plan *editplan.Plan, projectRoot, skipRelManifest, oldDirRel, newDirRel string, renameInfo *editplan.RenameInfo, manifestFiles []string) error {
	oldAbs := toAbsolutePath(projectRoot, oldDirRel)

	for _, relManifest := range manifestFiles {
		if relManifest == skipRelManifest {
			continue
		}
		p, ok := reg.PluginForManifest(path.Base(relManifest))
		if !ok {
			continue
		}
		updater, ok := p.ManifestUpdater()
		if !ok {
			continue
		}
		absManifest := toAbsolutePath(projectRoot, relManifest)
		content, err := afero.ReadFile(fs, absManifest)
		if err != nil {
			continue
		}
		data, err := p.AnalyzeManifest(ctx, content)
		if err != nil {
			plan.AddWarning(relManifest, corefail.KindOf(err), err.Error())
			continue
		}

		manifestDirRel := path.Dir(relManifest)
		current := string(content)
		changed := false

		for _, dev := range []bool{false, true} {
			deps := data.Dependencies
			if dev {
				deps = data.DevDependencies
			}
			for _, dep := range deps {
				if dep.Source.Kind != editplan.SourceLocalPath {
					continue
				}
				depAbs := toAbsolutePath(projectRoot, joinRel(manifestDirRel, dep.Source.Path))
				if depAbs != oldAbs {
					continue
				}
				newDepPath := relativeTo(manifestDirRel, newDirRel)
				newDepName := dep.Name
				if renameInfo != nil && renameInfo.OldPackageName != "" &&
					dep.Name == renameInfo.OldPackageName &&
					renameInfo.OldPackageName != renameInfo.NewPackageName {
					newDepName = renameInfo.NewPackageName
				}

				rewritten := current
				if newDepName != dep.Name {
					withoutOld, err := updater.RemoveDependency(ctx, rewritten, dep.Name)
					if err != nil {
						plan.AddWarning(relManifest, corefail.KindOf(err), err.Error())
						continue
					}
					rewritten = withoutOld
				}
				rewritten, err = updater.UpdateDependency(ctx, rewritten, editplan.Dependency{
					Name:   newDepName,
					Source: editplan.DependencySource{Kind: editplan.SourceLocalPath, Path: newDepPath},
				}, dev)
				if err != nil {
					plan.AddWarning(relManifest, corefail.KindOf(err), err.Error())
					continue
				}
				if rewritten != current {
					current = rewritten
					changed = true
				}
			}
		}

		if !changed {
			continue
		}
		if err := plan.AddEdit(editplan.TextEdit{
			FilePath:     relManifest,
			Kind:         editplan.Replace,
			Location:     editplan.FullFileLocation(string(content)),
			OriginalText: string(content),
			NewText:      current,
			Priority:     editplan.PriorityManifestDepAdd,
			Description:  "updated local-path dependency for moved package",
		}); err != nil {
			return err
		}
		plan.SetChecksum(relManifest, editplan.Checksum(content))
	}
	return nil
}

// ancestorDirs returns dir and every one of its ancestors up to (and
// including) ".", root-relative, deepest first.
func ancestorDirs(dir string) []string {
	dir = strings.Trim(dir, "/")
	if dir == "" || dir == "." {
		return []string{"."}
	}
	var out []string
	current := dir
	for {
		out = append(out, current)
		if current == "." {
			break
		}
		parent := path.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return out
}

// joinRel joins a workspace-relative directory and a file/member name.
func joinRel(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return strings.TrimSuffix(dir, "/") + "/" + name
}

// relativeTo expresses target (workspace-root-relative) relative to
// base (also workspace-root-relative), both slash-separated. Manual
// segment-wise diffing is used instead of path/filepath.Rel, which
// operates in OS path semantics; workspace-relative paths here are
// always slash-separated regardless of host OS.
func relativeTo(base, target string) string {
	baseSegs := splitClean(base)
	targetSegs := splitClean(target)

	common := 0
	for common < len(baseSegs) && common < len(targetSegs) && baseSegs[common] == targetSegs[common] {
		common++
	}

	var parts []string
	for i := common; i < len(baseSegs); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, targetSegs[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitClean(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}
