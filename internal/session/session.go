// Package session wires the refactor core's components into one
// dependency holder and exposes spec.md §6's entry-point table as plain
// Go methods: plan_file_move, plan_directory_move, plan_rename_symbol,
// plan_extract_{function,variable,constant}, plan_inline_variable,
// apply_plan, create_package.
//
// Grounded on the teacher's internal/app.App: one struct holding every
// manager (ConfigManager, VersionManager, Versionator, VCS) plus
// delegation methods that forward to them, generalized here from the
// version/config/VCS trio to the registry/cache/queue/updater/planner/
// executor/pluginhost set spec.md §5's concurrency model calls the
// session's owned state.
package session

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/executor"
	"github.com/nsavage/relocore/internal/importcache"
	"github.com/nsavage/relocore/internal/langplugin"
	"github.com/nsavage/relocore/internal/langs/golang"
	"github.com/nsavage/relocore/internal/langs/python"
	"github.com/nsavage/relocore/internal/langs/rust"
	"github.com/nsavage/relocore/internal/langs/typescript"
	"github.com/nsavage/relocore/internal/opqueue"
	"github.com/nsavage/relocore/internal/planner"
	"github.com/nsavage/relocore/internal/pluginhost"
	"github.com/nsavage/relocore/internal/refupdate"
	"github.com/nsavage/relocore/internal/registry"
)

// Session owns every component one workspace's planning and execution
// pipeline needs: the plugin registry (immutable once built), the import
// cache, the operation queue, the reference updater, the planner, the
// executor, and the out-of-process plugin host.
type Session struct {
	fs afero.Fs

	Registry   *registry.Registry
	Cache      *importcache.Cache
	Queue      *opqueue.Queue
	Updater    *refupdate.Updater
	Planner    *planner.Planner
	Executor   *executor.Executor
	PluginHost *pluginhost.Manager

	// Now supplies the plan timestamp spec.md §8 invariant 9 requires to
	// come from the caller rather than the core calling time.Now itself.
	Now func() int64
}

// Options configures session construction.
type Options struct {
	// QueueCapacity bounds the operation queue's backlog; 0 means
	// unbuffered.
	QueueCapacity int
	// QueueHandler performs one opqueue.Operation's filesystem side
	// effect. If nil, the operation queue is not wired to a handler and
	// Options.QueueWrites-based execution is unavailable; callers that
	// only need direct writes may leave this nil.
	QueueHandler opqueue.Handler
}

// New builds a Session with every in-process language plugin registered
// (spec.md §4.A's "self-registration pattern collected into an
// inventory", generalized from versionator's global registry to one
// session-scoped Builder/Registry).
func New(fs afero.Fs, opts Options) (*Session, error) {
	b := registry.NewBuilder()
	for _, p := range []langplugin.Plugin{golang.New(), rust.New(), typescript.New(), python.New()} {
		if err := b.Register(p); err != nil {
			return nil, err
		}
	}
	reg := b.Build()

	cache := importcache.New()
	upd := refupdate.New(fs, reg, cache)
	pl := planner.New(fs, reg, upd)

	var queue *opqueue.Queue
	if opts.QueueHandler != nil {
		queue = opqueue.New(opts.QueueHandler, opts.QueueCapacity)
	}
	ex := executor.New(fs, queue)

	return &Session{
		fs:         fs,
		Registry:   reg,
		Cache:      cache,
		Queue:      queue,
		Updater:    upd,
		Planner:    pl,
		Executor:   ex,
		PluginHost: pluginhost.NewManager(),
		Now:        func() int64 { return time.Now().Unix() },
	}, nil
}

// Close reaps every out-of-process plugin process and stops the
// operation queue, spec.md §4.D's "reaped on session shutdown".
func (s *Session) Close() {
	s.PluginHost.Shutdown()
	if s.Queue != nil {
		s.Queue.Close()
	}
}

// PlanFileMove implements plan_file_move.
func (s *Session) PlanFileMove(ctx context.Context, projectRoot, oldPath, newPath string, opts planner.MoveOptions) (*editplan.Plan, error) {
	return s.Planner.PlanFileMove(ctx, projectRoot, oldPath, newPath, opts, s.Now())
}

// PlanDirectoryMove implements plan_directory_move.
func (s *Session) PlanDirectoryMove(ctx context.Context, projectRoot, oldPath, newPath string, opts planner.MoveOptions) (*editplan.Plan, error) {
	return s.Planner.PlanDirectoryMove(ctx, projectRoot, oldPath, newPath, opts, s.Now())
}

// PlanRenameSymbol implements plan_rename_symbol. spec.md §6 delegates
// symbol rename to a language server when one is available; no
// langplugin capability performs it in-process, so this always reports
// UnsupportedOperation, the signal the LSP-client collaborator is meant
// to take over on (SPEC_FULL.md "Supplemented features" item 5).
func (s *Session) PlanRenameSymbol(ctx context.Context, filePath string, pos editplan.Position, newName string) (*editplan.Plan, error) {
	return nil, corefail.New(corefail.UnsupportedOperation,
		"rename_symbol has no in-process provider; delegate to a language server").WithPath(filePath)
}

// PlanExtractFunction implements plan_extract_function.
func (s *Session) PlanExtractFunction(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error) {
	provider, err := s.refactoringProviderFor(filePath)
	if err != nil {
		return nil, err
	}
	return provider.ExtractFunction(ctx, filePath, source, loc, name)
}

// PlanExtractVariable implements plan_extract_variable.
func (s *Session) PlanExtractVariable(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error) {
	provider, err := s.refactoringProviderFor(filePath)
	if err != nil {
		return nil, err
	}
	return provider.ExtractVariable(ctx, filePath, source, loc, name)
}

// PlanExtractConstant implements plan_extract_constant.
func (s *Session) PlanExtractConstant(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error) {
	provider, err := s.refactoringProviderFor(filePath)
	if err != nil {
		return nil, err
	}
	return provider.ExtractConstant(ctx, filePath, source, loc, name)
}

// PlanInlineVariable implements plan_inline_variable.
func (s *Session) PlanInlineVariable(ctx context.Context, filePath, source string, pos editplan.Position) (*editplan.Plan, error) {
	provider, err := s.refactoringProviderFor(filePath)
	if err != nil {
		return nil, err
	}
	return provider.InlineVariable(ctx, filePath, source, pos)
}

// refactoringProviderFor resolves filePath's extension to a registered
// plugin and reports UnsupportedOperation (spec.md §7) when either the
// extension is unregistered or the plugin does not implement
// RefactoringProvider.
func (s *Session) refactoringProviderFor(filePath string) (langplugin.RefactoringProvider, error) {
	ext := strings.TrimPrefix(path.Ext(filePath), ".")
	plugin, ok := s.Registry.PluginForExtension(ext)
	if !ok {
		return nil, corefail.New(corefail.UnsupportedOperation, "no plugin registered for extension %q", ext).WithPath(filePath)
	}
	provider, ok := plugin.RefactoringProvider()
	if !ok {
		return nil, corefail.New(corefail.UnsupportedOperation, "%s plugin has no refactoring provider", plugin.Metadata().DisplayName).WithPath(filePath)
	}
	return provider, nil
}

// ApplyPlan implements apply_plan.
func (s *Session) ApplyPlan(ctx context.Context, projectRoot string, plan *editplan.Plan, opts executor.Options) (executor.Result, error) {
	return s.Executor.Execute(ctx, projectRoot, plan, opts)
}

// CreatePackageRequest bundles create_package's inputs: the language to
// scaffold for (a registry display name) plus the
// langplugin.CreatePackageRequest every ProjectFactory takes.
type CreatePackageRequest struct {
	Language string
	langplugin.CreatePackageRequest
}

// CreatePackage implements create_package: resolves the named language's
// ProjectFactory, asks it which paths a new package needs and what each
// contains, writes each file through the Executor (so the write goes
// through the same checksum/atomic-write path every other operation
// does), and — when requested — adds the new package to its workspace
// root's member list.
func (s *Session) CreatePackage(ctx context.Context, projectRoot string, req CreatePackageRequest) (langplugin.CreatePackageResult, error) {
	plugin, ok := s.Registry.PluginByName(req.Language)
	if !ok {
		return langplugin.CreatePackageResult{}, corefail.New(corefail.InvalidRequest, "unknown language %q", req.Language)
	}
	factory, ok := plugin.ProjectFactory()
	if !ok {
		return langplugin.CreatePackageResult{}, corefail.New(corefail.UnsupportedOperation, "%s plugin has no project factory", req.Language)
	}

	result, err := factory.CreatePackage(ctx, req.CreatePackageRequest)
	if err != nil {
		return langplugin.CreatePackageResult{}, err
	}

	plan := editplan.New(editplan.PlanFileMove, plugin.Metadata().DisplayName, s.Now())
	for _, p := range result.CreatedPaths {
		if err := plan.AddEdit(editplan.TextEdit{
			FilePath: p,
			Kind:     editplan.Create,
			NewText:  result.Contents[p],
			Priority: editplan.PriorityEntryPointCreate,
		}); err != nil {
			return langplugin.CreatePackageResult{}, err
		}
	}

	if req.AddToWorkspace && req.WorkspaceRoot != "" {
		if err := s.addToWorkspace(ctx, plugin, projectRoot, req.WorkspaceRoot, req.TargetPath, result.ManifestPath); err != nil {
			return langplugin.CreatePackageResult{}, err
		}
	}

	if _, err := s.Executor.Execute(ctx, projectRoot, plan, executor.Options{}); err != nil {
		return langplugin.CreatePackageResult{}, err
	}
	return result, nil
}

// addToWorkspace appends the new package's directory to its workspace
// root manifest's member list, mirroring the planner's own
// applyOwnManifestRename/updateWorkspaceMemberLists path for moves.
func (s *Session) addToWorkspace(ctx context.Context, plugin langplugin.Plugin, projectRoot, workspaceRoot, targetPath, manifestPath string) error {
	ws, ok := plugin.WorkspaceSupport()
	if !ok {
		return corefail.New(corefail.UnsupportedOperation, "%s plugin has no workspace support", plugin.Metadata().DisplayName)
	}
	meta := plugin.Metadata()
	rootManifestPath := path.Join(workspaceRoot, meta.ManifestFilename)
	content, err := afero.ReadFile(s.fs, path.Join(projectRoot, rootManifestPath))
	if err != nil {
		return corefail.Wrap(corefail.NotFound, err, "reading workspace root manifest %s", rootManifestPath)
	}

	member := strings.TrimPrefix(targetPath, workspaceRoot+"/")
	newContent, err := ws.AddMember(ctx, string(content), member)
	if err != nil {
		return err
	}

	plan := editplan.New(editplan.PlanFileMove, meta.DisplayName, s.Now())
	if err := plan.AddEdit(editplan.TextEdit{
		FilePath: rootManifestPath,
		Kind:     editplan.Replace,
		Location: editplan.FullFileLocation(string(content)),
		NewText:  newContent,
		Priority: editplan.PriorityManifestDepAdd,
	}); err != nil {
		return err
	}
	_, err = s.Executor.Execute(ctx, projectRoot, plan, executor.Options{})
	return err
}
