// Package langplugin defines the capability-trait contracts every
// language plugin implements (spec.md §4.B). The registry (see
// internal/registry) queries a plugin for the narrow capabilities it
// opts into rather than forcing one sprawling interface on every
// language at wildly different completeness levels.
package langplugin

import (
	"context"

	"github.com/nsavage/relocore/internal/editplan"
)

// Capability is one of the fixed set of boolean flags a plugin may
// advertise (spec.md §4.A).
type Capability string

const (
	CapImports                 Capability = "imports"
	CapWorkspace               Capability = "workspace"
	CapProjectFactory          Capability = "project_factory"
	CapPathAliasResolver       Capability = "path_alias_resolver"
	CapRefactoringProvider     Capability = "refactoring_provider"
	CapManifestUpdater         Capability = "manifest_updater"
	CapModuleReferenceScanner  Capability = "module_reference_scanner"
	CapModuleDeclarationSupport Capability = "module_declaration_support"
)

// Metadata is the language-identifying, mostly-static part of a plugin.
type Metadata struct {
	DisplayName      string
	Extensions       []string
	ManifestFilename string
	SourceDir        string
	EntryPoint       string
	ModuleSeparator  string
}

// Symbol is a named, located declaration a Parse call can surface.
type Symbol struct {
	Name     string
	Kind     string
	Location editplan.Location
}

// ParsedSource is the tolerant-parse result of Plugin.Parse.
type ParsedSource struct {
	Symbols []Symbol
	// Data carries language-specific detail (e.g. the raw AST or a
	// lightweight summary) that only same-language callers interpret.
	Data interface{}
}

// Plugin is the narrow base every language plugin implements. Optional
// capabilities are exposed through the typed accessors below, each
// returning (impl, false) when unsupported rather than a non-nil
// interface wrapping a nil pointer.
type Plugin interface {
	Metadata() Metadata
	Capabilities() map[Capability]bool

	Parse(ctx context.Context, source string) (ParsedSource, error)
	AnalyzeManifest(ctx context.Context, content []byte) (editplan.ManifestData, error)

	ImportParser() (ImportParser, bool)
	ImportRenameSupport() (ImportRenameSupport, bool)
	ModuleDeclarationSupport() (ModuleDeclarationSupport, bool)
	ManifestUpdater() (ManifestUpdater, bool)
	WorkspaceSupport() (WorkspaceSupport, bool)
	ProjectFactory() (ProjectFactory, bool)
	RefactoringProvider() (RefactoringProvider, bool)
	PathAliasResolver() (PathAliasResolver, bool)
	ModuleReferenceScanner() (ModuleReferenceScanner, bool)
}

// ImportParser scans a source string and returns every import specifier
// as written (spec.md §4.B.3).
type ImportParser interface {
	ParseImports(ctx context.Context, source string) ([]editplan.ImportInfo, error)
}

// RenameInfo is passed to ImportRenameSupport when the move is also a
// package rename (spec.md §4.B.4).
type RenameInfo = editplan.RenameInfo

// ImportRenameSupport rewrites an importing file's imports when a file
// it imports has moved (spec.md §4.B.4, the hardest operation).
type ImportRenameSupport interface {
	RewriteImportsForMove(ctx context.Context, req RewriteRequest) (newContent string, changeCount int, err error)
}

// RewriteRequest bundles the inputs RewriteImportsForMove needs: the
// move itself, the file being rewritten, and workspace context for alias
// resolution.
type RewriteRequest struct {
	OldPath        string
	NewPath        string
	ImportingFile  string
	ImportingSrc   string
	ProjectRoot    string
	RenameInfo     *RenameInfo
	Scope          editplan.ScanScope
}

// ModuleDeclarationSupport manages explicit module declarations such as
// Rust's `mod foo;` (spec.md §4.B.5).
type ModuleDeclarationSupport interface {
	RemoveDeclaration(ctx context.Context, parentSrc, moduleName string) (string, bool, error)
	AddDeclaration(ctx context.Context, parentSrc, moduleName string, public bool) (string, error)
	ListDeclarations(ctx context.Context, parentSrc string) ([]string, error)
}

// ManifestUpdater edits a manifest's content in a format-preserving way
// (spec.md §4.B.6).
type ManifestUpdater interface {
	AddDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error)
	RemoveDependency(ctx context.Context, manifestSrc, name string) (string, error)
	UpdateDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error)
	UpdatePackageName(ctx context.Context, manifestSrc, newName string) (string, error)
	AddWorkspaceMember(ctx context.Context, manifestSrc, member string) (string, error)
}

// WorkspaceSupport identifies and edits a multi-package workspace root
// manifest (spec.md §4.B.7).
type WorkspaceSupport interface {
	IsWorkspaceRoot(ctx context.Context, manifestSrc string) (bool, error)
	ListMembers(ctx context.Context, manifestSrc string) ([]string, error)
	AddMember(ctx context.Context, manifestSrc, member string) (string, error)
	RemoveMember(ctx context.Context, manifestSrc, member string) (string, error)
	UpdateOwnPackageName(ctx context.Context, manifestSrc, newName string) (string, error)
}

// PackageKind distinguishes a library target from a binary target for
// project scaffolding.
type PackageKind string

const (
	PackageLibrary PackageKind = "library"
	PackageBinary  PackageKind = "binary"
)

// Template selects how much scaffolding a created package gets.
type Template string

const (
	TemplateMinimal Template = "minimal"
	TemplateFull    Template = "full"
)

// CreatePackageRequest is the input to ProjectFactory.CreatePackage.
type CreatePackageRequest struct {
	Name            string
	TargetPath      string
	WorkspaceRoot   string
	Kind            PackageKind
	Template        Template
	AddToWorkspace  bool
}

// CreatePackageResult is the output of ProjectFactory.CreatePackage.
type CreatePackageResult struct {
	CreatedPaths []string
	ManifestPath string
	// Contents maps each entry in CreatedPaths to the file content the
	// caller should write there.
	Contents map[string]string
}

// ProjectFactory creates the standard files for a new package on disk
// (spec.md §4.B.8).
type ProjectFactory interface {
	CreatePackage(ctx context.Context, req CreatePackageRequest) (CreatePackageResult, error)
}

// RefactoringProvider implements per-file refactors that do not require
// cross-file analysis (spec.md §4.B.9); optional, and only consulted when
// no LSP-based path is available.
type RefactoringProvider interface {
	ExtractFunction(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error)
	ExtractVariable(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error)
	ExtractConstant(ctx context.Context, filePath, source string, loc editplan.Location, name string) (*editplan.Plan, error)
	InlineVariable(ctx context.Context, filePath, source string, pos editplan.Position) (*editplan.Plan, error)
}

// AliasConfig is the minimal shape a tsconfig.json-like path-alias
// configuration needs to expose.
type AliasConfig struct {
	// Aliases maps an alias prefix (e.g. "$lib", "@/") to the directory
	// it resolves to, relative to ProjectRoot.
	Aliases map[string]string
}

// PathAliasResolver resolves aliased import specifiers and decides
// whether a moved file's new imports should use an alias or a relative
// path (spec.md §4.B.10, §8 invariants 2-3).
type PathAliasResolver interface {
	ResolveAlias(ctx context.Context, cfg AliasConfig, specifier, fromFile, projectRoot string) (absolute string, matched bool, err error)
	PreferAliasForMove(ctx context.Context, cfg AliasConfig, movedFileNewDir, projectRoot string) (aliasPrefix string, useAlias bool)
}

// ModuleReferenceScanner finds every occurrence of a module name in code
// (spec.md §4.B item under Module reference in §3; used by the doc/config
// scan in the planner).
type ModuleReferenceScanner interface {
	ScanReferences(ctx context.Context, source, moduleName string) ([]editplan.ModuleReference, error)
}
