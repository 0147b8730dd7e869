// Package planner implements the Move/Rename Planner (spec.md §4.F), the
// primary orchestrator: given an (old_path, new_path) move, it produces
// one EditPlan combining reference edits, manifest edits, and
// documentation/config edits, all language-dispatch routed through the
// plugin registry so the planner itself stays language-neutral.
//
// Grounded on
// _examples/original_source/crates/cb-services/src/services/move_service/planner.rs's
// plan_file_move/plan_directory_move/plan_documentation_and_config_edits
// algorithm shape and
// _examples/original_source/crates/mill-services/src/services/move_service/mod.rs's
// to_absolute_path_checked path-validation algorithm, generalized from
// Cargo-specific package detection to the registry's ManifestUpdater/
// WorkspaceSupport capabilities so every registered language
// participates, not just Rust.
package planner

import (
	"context"
	"path"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/refupdate"
	"github.com/nsavage/relocore/internal/registry"
	"github.com/nsavage/relocore/internal/walker"
)

// Planner composes reference, manifest, and documentation edits for a
// file or directory move into a single EditPlan.
type Planner struct {
	fs   afero.Fs
	reg  *registry.Registry
	ref  *refupdate.Updater
	walk *walker.Walker
}

// New builds a Planner over fs, dispatching language-specific work
// through reg and delegating reference-edit discovery to ref.
func New(fs afero.Fs, reg *registry.Registry, ref *refupdate.Updater) *Planner {
	return &Planner{fs: fs, reg: reg, ref: ref, walk: walker.New(fs)}
}

// MoveOptions controls a single plan_file_move/plan_directory_move call.
type MoveOptions struct {
	Scope *editplan.RenameScope
	// Force allows planning a move onto a destination that already
	// exists.
	Force bool
}

// PlanFileMove implements plan_file_move (spec.md §6): the move edit,
// reference edits and documentation/config edits. It runs no package
// detection and emits no manifest edits; those are scoped to directory
// moves.
func (pl *Planner) PlanFileMove(ctx context.Context, projectRoot, oldPath, newPath string, opts MoveOptions, createdAtUnix int64) (*editplan.Plan, error) {
	oldRel, newRel, empty, err := pl.validateMove(projectRoot, oldPath, newPath, opts)
	if err != nil {
		return nil, err
	}
	if empty {
		return emptyPlan(editplan.PlanFileMove, createdAtUnix), nil
	}

	plan := editplan.New(editplan.PlanFileMove, "", createdAtUnix)

	if err := pl.addMoveEdit(plan, projectRoot, oldRel, newRel); err != nil {
		return nil, err
	}

	if err := pl.mergeReferenceEdits(ctx, plan, projectRoot, refupdate.MoveRequest{OldPath: oldRel, NewPath: newRel}, opts.Scope); err != nil {
		return nil, err
	}

	if err := scanDocsAndConfig(ctx, pl.fs, pl.reg, pl.walk, plan, projectRoot, [][2]string{{oldRel, newRel}}, nil); err != nil {
		return nil, err
	}

	if err := plan.Finalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanDirectoryMove implements plan_directory_move (spec.md §6): the
// full six-step algorithm, including package detection and manifest
// edits when the moved directory is itself a package root.
func (pl *Planner) PlanDirectoryMove(ctx context.Context, projectRoot, oldPath, newPath string, opts MoveOptions, createdAtUnix int64) (*editplan.Plan, error) {
	oldRel, newRel, empty, err := pl.validateMove(projectRoot, oldPath, newPath, opts)
	if err != nil {
		return nil, err
	}
	if empty {
		return emptyPlan(editplan.PlanDirectoryMove, createdAtUnix), nil
	}

	plan := editplan.New(editplan.PlanDirectoryMove, "", createdAtUnix)

	innerFiles, err := pl.walk.Walk(ctx, toAbsolutePath(projectRoot, oldRel), walker.Options{})
	if err != nil {
		return nil, err
	}

	oldPrefix := oldRel + "/"
	newPrefix := newRel + "/"
	movedPairs := [][2]string{{oldRel, newRel}}
	if err := pl.addMoveEdit(plan, projectRoot, oldRel, newRel); err != nil {
		return nil, err
	}
	for _, relInsideOld := range innerFiles.Files {
		childOld := oldPrefix + relInsideOld
		childNew := newPrefix + relInsideOld
		movedPairs = append(movedPairs, [2]string{childOld, childNew})
		if err := pl.addMoveEdit(plan, projectRoot, childOld, childNew); err != nil {
			return nil, err
		}
	}

	// Step 2: package detection.
	renameInfo, mh, err := detectPackage(ctx, pl.fs, pl.reg, projectRoot, oldRel, newRel)
	if err != nil {
		return nil, err
	}

	// Step 3: reference edits, cascading across every file the move
	// touched.
	if err := pl.mergeReferenceEdits(ctx, plan, projectRoot, refupdate.MoveRequest{
		OldPath:    oldRel,
		NewPath:    newRel,
		RenameInfo: renameInfo,
	}, opts.Scope); err != nil {
		return nil, err
	}
	for _, pair := range movedPairs[1:] {
		if err := pl.mergeReferenceEdits(ctx, plan, projectRoot, refupdate.MoveRequest{
			OldPath:    pair[0],
			NewPath:    pair[1],
			RenameInfo: renameInfo,
		}, opts.Scope); err != nil {
			return nil, err
		}
	}

	// Step 4: manifest edits, only when package detection succeeded.
	if renameInfo != nil && mh != nil {
		plan.SetChecksum(mh.relPath, editplan.Checksum([]byte(mh.content)))
		if err := applyOwnManifestRename(ctx, plan, mh, renameInfo, newRel); err != nil {
			return nil, err
		}
		if err := updateWorkspaceMemberLists(ctx, pl.fs, pl.reg, plan, projectRoot, oldRel, newRel); err != nil {
			return nil, err
		}
		allManifests, err := pl.findAllManifests(ctx, projectRoot)
		if err != nil {
			return nil, err
		}
		if err := updateDependentManifestPaths(ctx, pl.fs, pl.reg, plan, projectRoot, mh.relPath, oldRel, newRel, renameInfo, allManifests); err != nil {
			return nil, err
		}
	}

	// Step 5: documentation/config scan.
	if err := scanDocsAndConfig(ctx, pl.fs, pl.reg, pl.walk, plan, projectRoot, movedPairs, renameInfo); err != nil {
		return nil, err
	}

	// Step 6: assembly.
	if err := plan.Finalize(); err != nil {
		return nil, err
	}
	return plan, nil
}

// validateMove runs spec.md §4.F step 1 and the edge cases that short
// -circuit before any edit is produced.
func (pl *Planner) validateMove(projectRoot, oldPath, newPath string, opts MoveOptions) (oldRel, newRel string, empty bool, err error) {
	oldAbs, err := toAbsolutePathChecked(pl.fs, projectRoot, oldPath)
	if err != nil {
		return "", "", false, err
	}
	newAbs, err := toAbsolutePathChecked(pl.fs, projectRoot, newPath)
	if err != nil {
		return "", "", false, err
	}

	if oldAbs == newAbs {
		return "", "", true, nil
	}
	if _, statErr := pl.fs.Stat(oldAbs); statErr != nil {
		return "", "", false, corefail.New(corefail.NotFound, "move source %s does not exist", oldPath)
	}
	if _, statErr := pl.fs.Stat(newAbs); statErr == nil && !opts.Force {
		return "", "", false, corefail.New(corefail.AlreadyExists, "move destination %s already exists", newPath)
	}

	root := path.Clean(projectRoot)
	oldRel = stripRoot(root, oldAbs)
	newRel = stripRoot(root, newAbs)
	return oldRel, newRel, false, nil
}

func stripRoot(root, abs string) string {
	rel := abs[len(root):]
	for len(rel) > 0 && rel[0] == '/' {
		rel = rel[1:]
	}
	return rel
}

// addMoveEdit appends the physical Move edit for a single file and
// records its pre-move content hash for the executor's precondition
// check; planning never guesses extension-based eligibility here
// (spec.md §4.F edge case: a file under no plugin's extension still
// gets its physical move, just no reference updates for it specifically
// as an importer).
func (pl *Planner) addMoveEdit(plan *editplan.Plan, projectRoot, oldRel, newRel string) error {
	if content, err := afero.ReadFile(pl.fs, toAbsolutePath(projectRoot, oldRel)); err == nil {
		plan.SetChecksum(oldRel, editplan.Checksum(content))
	}
	return plan.AddEdit(editplan.TextEdit{
		Kind:        editplan.Move,
		MovedFrom:   oldRel,
		MovedTo:     newRel,
		Priority:    editplan.PriorityDeleteOriginal,
		Description: "moved " + oldRel + " -> " + newRel,
	})
}

// mergeReferenceEdits invokes the Reference Updater for one move request
// and folds its edits, warnings, and checksums into plan.
func (pl *Planner) mergeReferenceEdits(ctx context.Context, plan *editplan.Plan, projectRoot string, req refupdate.MoveRequest, scope *editplan.RenameScope) error {
	sub, err := pl.ref.UpdateFileMove(ctx, projectRoot, req, scope)
	if err != nil {
		return err
	}
	for _, e := range sub.Edits {
		if err := plan.AddEdit(e); err != nil {
			return err
		}
	}
	for _, w := range sub.Warnings {
		plan.AddWarning(w.FilePath, w.Kind, w.Message)
	}
	for path, sum := range sub.Checksums {
		plan.SetChecksum(path, sum)
	}
	return nil
}

// findAllManifests returns every workspace-relative path whose basename
// matches a registered plugin's manifest filename.
func (pl *Planner) findAllManifests(ctx context.Context, projectRoot string) ([]string, error) {
	names := make(map[string]bool)
	for _, p := range pl.reg.All() {
		if m := p.Metadata().ManifestFilename; m != "" {
			names[m] = true
		}
	}
	result, err := pl.walk.Walk(ctx, projectRoot, walker.Options{HonorGitignore: true})
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rel := range result.Files {
		if names[path.Base(rel)] {
			out = append(out, rel)
		}
	}
	return out, nil
}

// emptyPlan builds the plan spec.md §4.F's first edge case returns:
// source and destination resolve to the same path.
func emptyPlan(kind editplan.PlanKind, createdAtUnix int64) *editplan.Plan {
	p := editplan.New(kind, "", createdAtUnix)
	_ = p.Finalize()
	return p
}
