// Package golang is the Go language plugin (spec.md §4.B): import
// parsing via go/parser, go.mod editing via golang.org/x/mod/modfile,
// and package-path-prefix bookkeeping for moves and renames.
//
// Grounded on internal/languages/golang/golang.go's plugin shape
// (struct, Name/Types-style accessors, self-registering init) from the
// teacher, generalized from version-file emission config to the
// capability set in internal/langplugin.
package golang

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
)

// Plugin implements langplugin.Plugin for Go source and go.mod manifests.
type Plugin struct{}

// New builds the Go language plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() langplugin.Metadata {
	return langplugin.Metadata{
		DisplayName:      "Go",
		Extensions:       []string{"go"},
		ManifestFilename: "go.mod",
		ModuleSeparator:  "/",
	}
}

func (p *Plugin) Capabilities() map[langplugin.Capability]bool {
	return map[langplugin.Capability]bool{
		langplugin.CapImports:                true,
		langplugin.CapManifestUpdater:        true,
		langplugin.CapWorkspace:              false,
		langplugin.CapModuleReferenceScanner: true,
	}
}

// Parse tolerant-parses a Go source file and surfaces its top-level
// declarations as Symbols, with the *ast.File kept in ParsedSource.Data
// for callers in this package that need the full tree.
func (p *Plugin) Parse(ctx context.Context, source string) (langplugin.ParsedSource, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return langplugin.ParsedSource{}, corefail.Wrap(corefail.ParseError, err, "parsing go source")
	}

	var symbols []langplugin.Symbol
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			symbols = append(symbols, symbolFor(fset, d.Name.Name, "func", d.Pos(), d.End()))
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.TypeSpec:
					symbols = append(symbols, symbolFor(fset, s.Name.Name, "type", d.Pos(), d.End()))
				case *ast.ValueSpec:
					for _, name := range s.Names {
						symbols = append(symbols, symbolFor(fset, name.Name, declKind(d.Tok), d.Pos(), d.End()))
					}
				}
			}
		}
	}
	return langplugin.ParsedSource{Symbols: symbols, Data: file}, nil
}

func declKind(tok token.Token) string {
	if tok == token.CONST {
		return "const"
	}
	return "var"
}

func symbolFor(fset *token.FileSet, name, kind string, start, end token.Pos) langplugin.Symbol {
	startPos := fset.Position(start)
	endPos := fset.Position(end)
	return langplugin.Symbol{
		Name: name,
		Kind: kind,
		Location: editplan.Location{
			Start: editplan.Position{Line: startPos.Line - 1, Column: startPos.Column - 1},
			End:   editplan.Position{Line: endPos.Line - 1, Column: endPos.Column - 1},
		},
	}
}

// AnalyzeManifest parses go.mod into the language-neutral ManifestData,
// keeping the parsed *modfile.File as RawTree for format-preserving edits.
func (p *Plugin) AnalyzeManifest(ctx context.Context, content []byte) (editplan.ManifestData, error) {
	f, err := modfile.Parse("go.mod", content, nil)
	if err != nil {
		return editplan.ManifestData{}, corefail.Wrap(corefail.ManifestError, err, "parsing go.mod")
	}

	data := editplan.ManifestData{RawTree: f}
	if f.Module != nil {
		data.PackageName = f.Module.Mod.Path
	}
	if f.Go != nil {
		data.PackageVersion = f.Go.Version
	}
	for _, req := range f.Require {
		data.Dependencies = append(data.Dependencies, editplan.Dependency{
			Name: req.Mod.Path,
			Source: editplan.DependencySource{
				Kind:    editplan.SourceVersion,
				Version: req.Mod.Version,
			},
		})
	}
	for _, rep := range f.Replace {
		if rep.New.Path != "" && !strings.Contains(rep.New.Path, "://") && rep.New.Version == "" {
			for i := range data.Dependencies {
				if data.Dependencies[i].Name == rep.Old.Path {
					data.Dependencies[i].Source = editplan.DependencySource{
						Kind: editplan.SourceLocalPath,
						Path: rep.New.Path,
					}
				}
			}
		}
	}
	return data, nil
}

func (p *Plugin) ImportParser() (langplugin.ImportParser, bool)             { return p, true }
func (p *Plugin) ImportRenameSupport() (langplugin.ImportRenameSupport, bool) { return p, true }
func (p *Plugin) ModuleDeclarationSupport() (langplugin.ModuleDeclarationSupport, bool) {
	return nil, false
}
func (p *Plugin) ManifestUpdater() (langplugin.ManifestUpdater, bool) { return p, true }
func (p *Plugin) WorkspaceSupport() (langplugin.WorkspaceSupport, bool) { return nil, false }
func (p *Plugin) ProjectFactory() (langplugin.ProjectFactory, bool)   { return p, true }
func (p *Plugin) RefactoringProvider() (langplugin.RefactoringProvider, bool) {
	return nil, false
}
func (p *Plugin) PathAliasResolver() (langplugin.PathAliasResolver, bool) { return nil, false }
func (p *Plugin) ModuleReferenceScanner() (langplugin.ModuleReferenceScanner, bool) {
	return p, true
}

// ParseImports returns every import specifier in a Go source file as
// written, classified by categorizeImportPath alone. No module-path
// prefix check is made here or in the Reference Updater, so Go imports
// are never classified as CategoryWorkspaceInternal.
func (p *Plugin) ParseImports(ctx context.Context, source string) ([]editplan.ImportInfo, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, corefail.Wrap(corefail.ParseError, err, "parsing go source for imports")
	}

	var infos []editplan.ImportInfo
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			path = strings.Trim(imp.Path.Value, `"`)
		}
		start := fset.Position(imp.Pos())
		end := fset.Position(imp.End())
		info := editplan.ImportInfo{
			Specifier:  imp.Path.Value,
			ModulePath: path,
			Category:   categorizeImportPath(path),
			Location: editplan.Location{
				Start: editplan.Position{Line: start.Line - 1, Column: start.Column - 1},
				End:   editplan.Position{Line: end.Line - 1, Column: end.Column - 1},
			},
		}
		if imp.Name != nil {
			info.NamespaceImport = imp.Name.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func categorizeImportPath(path string) editplan.ImportCategory {
	if !strings.Contains(strings.SplitN(path, "/", 2)[0], ".") {
		return editplan.CategoryBareModule
	}
	return editplan.CategoryExternal
}

// RewriteImportsForMove rewrites the import path of a single moved Go
// package within an importing file's source. Go has no relative imports,
// so every rewrite is a full module-path substitution; RenameInfo
// supplies the old and new package import paths when the move also
// renames the package.
func (p *Plugin) RewriteImportsForMove(ctx context.Context, req langplugin.RewriteRequest) (string, int, error) {
	oldImportPath, newImportPath, err := goImportPaths(req)
	if err != nil {
		return req.ImportingSrc, 0, err
	}
	if oldImportPath == newImportPath {
		return req.ImportingSrc, 0, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, req.ImportingFile, req.ImportingSrc, parser.ParseComments)
	if err != nil {
		return req.ImportingSrc, 0, corefail.Wrap(corefail.ParseError, err, "parsing %s", req.ImportingFile)
	}

	changed := 0
	out := []byte(req.ImportingSrc)
	// Walk import specs in reverse source order so earlier byte offsets
	// stay valid as later ones are rewritten.
	for i := len(file.Imports) - 1; i >= 0; i-- {
		imp := file.Imports[i]
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if path != oldImportPath {
			continue
		}
		startOff := fset.Position(imp.Path.Pos()).Offset
		endOff := fset.Position(imp.Path.End()).Offset
		out = append(out[:startOff], append([]byte(strconv.Quote(newImportPath)), out[endOff:]...)...)
		changed++
	}
	return string(out), changed, nil
}

func goImportPaths(req langplugin.RewriteRequest) (oldPath, newPath string, err error) {
	if req.RenameInfo != nil && req.RenameInfo.OldPackageName != "" {
		return req.RenameInfo.OldPackageName, req.RenameInfo.NewPackageName, nil
	}
	if req.OldPath == "" || req.NewPath == "" {
		return "", "", corefail.New(corefail.InvalidRequest, "go import rewrite requires RenameInfo or explicit old/new import paths")
	}
	return req.OldPath, req.NewPath, nil
}

// ScanReferences finds qualified-path occurrences of a package's last
// path segment used as a selector (pkg.Symbol), the only form Go module
// references take outside import statements.
func (p *Plugin) ScanReferences(ctx context.Context, source, moduleName string) ([]editplan.ModuleReference, error) {
	shortName := moduleName
	if idx := strings.LastIndex(moduleName, "/"); idx >= 0 {
		shortName = moduleName[idx+1:]
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, 0)
	if err != nil {
		return nil, corefail.Wrap(corefail.ParseError, err, "parsing go source for references")
	}

	var refs []editplan.ModuleReference
	ast.Inspect(file, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		ident, ok := sel.X.(*ast.Ident)
		if !ok || ident.Name != shortName {
			return true
		}
		pos := fset.Position(ident.Pos())
		refs = append(refs, editplan.ModuleReference{
			Line:   pos.Line - 1,
			Column: pos.Column - 1,
			Length: len(ident.Name),
			Text:   ident.Name,
			Kind:   editplan.KindQualifiedPath,
		})
		return true
	})
	return refs, nil
}

// AddDependency adds a require directive, formatted the way `go mod
// tidy` would leave it.
func (p *Plugin) AddDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	f, err := modfile.Parse("go.mod", []byte(manifestSrc), nil)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing go.mod")
	}
	if err := f.AddRequire(dep.Name, dep.Source.Version); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "adding require %s", dep.Name)
	}
	f.Cleanup()
	out, err := f.Format()
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "formatting go.mod")
	}
	return string(out), nil
}

// RemoveDependency drops a require directive.
func (p *Plugin) RemoveDependency(ctx context.Context, manifestSrc, name string) (string, error) {
	f, err := modfile.Parse("go.mod", []byte(manifestSrc), nil)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing go.mod")
	}
	if err := f.DropRequire(name); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "dropping require %s", name)
	}
	f.Cleanup()
	out, err := f.Format()
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "formatting go.mod")
	}
	return string(out), nil
}

// UpdateDependency rewrites an existing require directive's version.
func (p *Plugin) UpdateDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	return p.AddDependency(ctx, manifestSrc, dep, dev)
}

// UpdatePackageName rewrites the module directive, used when a directory
// move renames the module's own import path.
func (p *Plugin) UpdatePackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	f, err := modfile.Parse("go.mod", []byte(manifestSrc), nil)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing go.mod")
	}
	if err := f.AddModuleStmt(newName); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "setting module path %s", newName)
	}
	f.Cleanup()
	out, err := f.Format()
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "formatting go.mod")
	}
	return string(out), nil
}

// AddWorkspaceMember is unsupported: go.mod has no per-module workspace
// member list (that is go.work's job, out of scope for this plugin's
// single-module manifest).
func (p *Plugin) AddWorkspaceMember(ctx context.Context, manifestSrc, member string) (string, error) {
	return "", corefail.New(corefail.UnsupportedOperation, "go.mod has no workspace member list")
}

// CreatePackage scaffolds a new directory with a single file declaring
// the package, matching the minimal shape `go mod` tooling expects.
func (p *Plugin) CreatePackage(ctx context.Context, req langplugin.CreatePackageRequest) (langplugin.CreatePackageResult, error) {
	pkgName := req.Name
	if idx := strings.LastIndex(pkgName, "/"); idx >= 0 {
		pkgName = pkgName[idx+1:]
	}
	entryPath := req.TargetPath + "/" + pkgName + ".go"

	var content string
	if req.Kind == langplugin.PackageBinary {
		content = "package main\n\nfunc main() {}\n"
	} else {
		content = "package " + pkgName + "\n"
	}

	return langplugin.CreatePackageResult{
		CreatedPaths: []string{entryPath},
		Contents:     map[string]string{entryPath: content},
	}, nil
}

func (p *Plugin) String() string { return "golang.Plugin" }
