// Package python is the Python language plugin (spec.md §4.B): `from x
// import y` / `import y` parsing and pyproject.toml (PEP 621) manifest
// editing.
//
// Grounded on pkg/plugin/lang/python-setuptools/python_setuptools.go's
// plugin-shape boilerplate from the teacher, generalized from the
// legacy setup.cfg target to pyproject.toml, and on
// original_source/crates/mill-lang-common/src/manifest_common.rs's
// TomlWorkspace fallback chain ([project] name, then
// [tool.poetry]/[tool.pdm]) for the manifest semantics. Uses
// github.com/pelletier/go-toml's Tree, the same library as the Rust
// plugin, since pyproject.toml is itself TOML.
package python

import (
	"context"
	"regexp"
	"strings"

	toml "github.com/pelletier/go-toml"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
)

// Plugin implements langplugin.Plugin for Python source and pyproject.toml.
type Plugin struct{}

// New builds the Python language plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() langplugin.Metadata {
	return langplugin.Metadata{
		DisplayName:      "Python",
		Extensions:       []string{"py"},
		ManifestFilename: "pyproject.toml",
		ModuleSeparator:  ".",
	}
}

func (p *Plugin) Capabilities() map[langplugin.Capability]bool {
	return map[langplugin.Capability]bool{
		langplugin.CapImports:                true,
		langplugin.CapManifestUpdater:        true,
		langplugin.CapWorkspace:              true,
		langplugin.CapModuleReferenceScanner: true,
	}
}

var (
	fromImportRe = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\s+(.+)$`)
	plainImportRe = regexp.MustCompile(`^\s*import\s+([.\w]+(?:\s*,\s*[.\w]+)*)`)
)

// Parse surfaces top-level `def`/`class` declarations as Symbols.
func (p *Plugin) Parse(ctx context.Context, source string) (langplugin.ParsedSource, error) {
	defRe := regexp.MustCompile(`^(def|class)\s+([A-Za-z_][A-Za-z0-9_]*)`)
	var symbols []langplugin.Symbol
	for line, text := range strings.Split(source, "\n") {
		if m := defRe.FindStringSubmatch(text); m != nil {
			col := strings.Index(text, m[2])
			symbols = append(symbols, langplugin.Symbol{
				Name: m[2],
				Kind: m[1],
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: col},
					End:   editplan.Position{Line: line, Column: col + len(m[2])},
				},
			})
		}
	}
	return langplugin.ParsedSource{Symbols: symbols}, nil
}

// AnalyzeManifest parses pyproject.toml's [project] table into ManifestData.
func (p *Plugin) AnalyzeManifest(ctx context.Context, content []byte) (editplan.ManifestData, error) {
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return editplan.ManifestData{}, corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	data := editplan.ManifestData{RawTree: tree}
	if name, ok := tree.Get("project.name").(string); ok {
		data.PackageName = name
	} else if name, ok := tree.Get("tool.poetry.name").(string); ok {
		data.PackageName = name
	}
	if version, ok := tree.Get("project.version").(string); ok {
		data.PackageVersion = version
	}
	if deps, ok := tree.Get("project.dependencies").([]interface{}); ok {
		for _, d := range deps {
			if spec, ok := d.(string); ok {
				data.Dependencies = append(data.Dependencies, parsePEP508(spec))
			}
		}
	}
	return data, nil
}

// parsePEP508 splits a minimal "name>=1.0" / "name" requirement string
// into a Dependency; full PEP 508 grammar (extras, markers) is out of
// scope, matching spec.md's "not a package resolver" framing.
func parsePEP508(spec string) editplan.Dependency {
	for _, sep := range []string{">=", "==", "~=", ">", "<", "!="} {
		if idx := strings.Index(spec, sep); idx >= 0 {
			return editplan.Dependency{
				Name: strings.TrimSpace(spec[:idx]),
				Source: editplan.DependencySource{
					Kind:    editplan.SourceVersion,
					Version: strings.TrimSpace(spec[idx:]),
				},
			}
		}
	}
	return editplan.Dependency{Name: strings.TrimSpace(spec)}
}

func (p *Plugin) ImportParser() (langplugin.ImportParser, bool) { return p, true }
func (p *Plugin) ImportRenameSupport() (langplugin.ImportRenameSupport, bool) {
	return p, true
}
func (p *Plugin) ModuleDeclarationSupport() (langplugin.ModuleDeclarationSupport, bool) {
	return nil, false
}
func (p *Plugin) ManifestUpdater() (langplugin.ManifestUpdater, bool)   { return p, true }
func (p *Plugin) WorkspaceSupport() (langplugin.WorkspaceSupport, bool) { return p, true }
func (p *Plugin) ProjectFactory() (langplugin.ProjectFactory, bool)     { return p, true }
func (p *Plugin) RefactoringProvider() (langplugin.RefactoringProvider, bool) {
	return nil, false
}
func (p *Plugin) PathAliasResolver() (langplugin.PathAliasResolver, bool) { return nil, false }
func (p *Plugin) ModuleReferenceScanner() (langplugin.ModuleReferenceScanner, bool) {
	return p, true
}

// ParseImports finds `import x` and `from x import y` statements.
func (p *Plugin) ParseImports(ctx context.Context, source string) ([]editplan.ImportInfo, error) {
	var infos []editplan.ImportInfo
	for line, text := range strings.Split(source, "\n") {
		if m := fromImportRe.FindStringSubmatch(text); m != nil {
			module := m[1]
			infos = append(infos, editplan.ImportInfo{
				Specifier:    text[strings.Index(text, "from"):],
				ModulePath:   module,
				Category:     categorizeModule(module),
				NamedImports: splitNames(m[2]),
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: 0},
					End:   editplan.Position{Line: line, Column: len(text)},
				},
			})
			continue
		}
		if m := plainImportRe.FindStringSubmatch(text); m != nil {
			module := strings.TrimSpace(strings.Split(m[1], ",")[0])
			infos = append(infos, editplan.ImportInfo{
				Specifier:  text[strings.Index(text, "import"):],
				ModulePath: module,
				Category:   categorizeModule(module),
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: 0},
					End:   editplan.Position{Line: line, Column: len(text)},
				},
			})
		}
	}
	return infos, nil
}

func splitNames(names string) []string {
	parts := strings.Split(names, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func categorizeModule(module string) editplan.ImportCategory {
	if strings.HasPrefix(module, ".") {
		return editplan.CategoryRelative
	}
	return editplan.CategoryBareModule
}

// RewriteImportsForMove rewrites the dotted module path referenced by
// `from <module> import ...` / `import <module>` statements.
func (p *Plugin) RewriteImportsForMove(ctx context.Context, req langplugin.RewriteRequest) (string, int, error) {
	oldModule, newModule, err := pythonModulePaths(req)
	if err != nil {
		return req.ImportingSrc, 0, err
	}
	if oldModule == newModule {
		return req.ImportingSrc, 0, nil
	}

	changed := 0
	lines := strings.Split(req.ImportingSrc, "\n")
	for i, text := range lines {
		if m := fromImportRe.FindStringSubmatchIndex(text); m != nil {
			module := text[m[2]:m[3]]
			if module == oldModule {
				lines[i] = text[:m[2]] + newModule + text[m[3]:]
				changed++
			}
			continue
		}
		if m := plainImportRe.FindStringSubmatchIndex(text); m != nil {
			module := text[m[2]:m[3]]
			if module == oldModule {
				lines[i] = text[:m[2]] + newModule + text[m[3]:]
				changed++
			}
		}
	}
	return strings.Join(lines, "\n"), changed, nil
}

func pythonModulePaths(req langplugin.RewriteRequest) (oldModule, newModule string, err error) {
	if req.RenameInfo != nil && req.RenameInfo.OldPackageName != "" {
		return req.RenameInfo.OldPackageName, req.RenameInfo.NewPackageName, nil
	}
	if req.OldPath == "" || req.NewPath == "" {
		return "", "", corefail.New(corefail.InvalidRequest, "python import rewrite requires RenameInfo or explicit old/new module paths")
	}
	return req.OldPath, req.NewPath, nil
}

// ScanReferences finds dotted-attribute occurrences of a module's last
// segment, e.g. `pkg.func()` referencing module `pkg`.
func (p *Plugin) ScanReferences(ctx context.Context, source, moduleName string) ([]editplan.ModuleReference, error) {
	shortName := moduleName
	if idx := strings.LastIndex(moduleName, "."); idx >= 0 {
		shortName = moduleName[idx+1:]
	}
	attrRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(shortName) + `\.`)

	var refs []editplan.ModuleReference
	for line, text := range strings.Split(source, "\n") {
		for _, loc := range attrRe.FindAllStringIndex(text, -1) {
			refs = append(refs, editplan.ModuleReference{
				Line:   line,
				Column: loc[0],
				Length: len(shortName),
				Text:   shortName,
				Kind:   editplan.KindQualifiedPath,
			})
		}
	}
	return refs, nil
}

// AddDependency appends a PEP 508 requirement string to [project.dependencies].
func (p *Plugin) AddDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	path := []string{"project", "dependencies"}
	if dev {
		path = []string{"project", "optional-dependencies", "dev"}
	}
	deps, _ := tree.GetPath(path).([]interface{})
	spec := dep.Name
	if dep.Source.Version != "" {
		spec = dep.Name + dep.Source.Version
	}
	deps = append(deps, spec)
	tree.SetPath(path, deps)
	return tree.String(), nil
}

// RemoveDependency drops a dependency entry matching name's prefix.
func (p *Plugin) RemoveDependency(ctx context.Context, manifestSrc, name string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	deps, _ := tree.GetPath([]string{"project", "dependencies"}).([]interface{})
	kept := deps[:0]
	for _, d := range deps {
		spec, _ := d.(string)
		if !strings.HasPrefix(spec, name) {
			kept = append(kept, d)
		}
	}
	tree.SetPath([]string{"project", "dependencies"}, kept)
	return tree.String(), nil
}

// UpdateDependency is equivalent to AddDependency plus RemoveDependency.
func (p *Plugin) UpdateDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	without, err := p.RemoveDependency(ctx, manifestSrc, dep.Name)
	if err != nil {
		return "", err
	}
	return p.AddDependency(ctx, without, dep, dev)
}

// UpdatePackageName follows the [project] / [tool.poetry] fallback chain.
func (p *Plugin) UpdatePackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	switch {
	case tree.Get("project") != nil:
		tree.SetPath([]string{"project", "name"}, newName)
	case tree.Get("tool.poetry") != nil:
		tree.SetPath([]string{"tool", "poetry", "name"}, newName)
	}
	return tree.String(), nil
}

// AddWorkspaceMember adds member to the Poetry/PDM workspace member list.
func (p *Plugin) AddWorkspaceMember(ctx context.Context, manifestSrc, member string) (string, error) {
	return p.AddMember(ctx, manifestSrc, member)
}

// IsWorkspaceRoot reports whether pyproject.toml declares a Poetry or
// PDM workspace section.
func (p *Plugin) IsWorkspaceRoot(ctx context.Context, manifestSrc string) (bool, error) {
	return strings.Contains(manifestSrc, "[tool.poetry.workspace]") ||
		strings.Contains(manifestSrc, "[tool.pdm]"), nil
}

// ListMembers returns the Poetry workspace member list.
func (p *Plugin) ListMembers(ctx context.Context, manifestSrc string) ([]string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return nil, corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	return stringArrayAt(tree, []string{"tool", "poetry", "workspace", "members"}), nil
}

func stringArrayAt(tree *toml.Tree, path []string) []string {
	raw := tree.GetPath(path)
	arr, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// AddMember appends member to the Poetry workspace member list.
func (p *Plugin) AddMember(ctx context.Context, manifestSrc, member string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	path := []string{"tool", "poetry", "workspace", "members"}
	members := stringArrayAt(tree, path)
	for _, m := range members {
		if m == member {
			return tree.String(), nil
		}
	}
	members = append(members, member)
	tree.SetPath(path, members)
	return tree.String(), nil
}

// RemoveMember drops member from the Poetry workspace member list.
func (p *Plugin) RemoveMember(ctx context.Context, manifestSrc, member string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing pyproject.toml")
	}
	path := []string{"tool", "poetry", "workspace", "members"}
	members := stringArrayAt(tree, path)
	kept := members[:0]
	for _, m := range members {
		if m != member {
			kept = append(kept, m)
		}
	}
	tree.SetPath(path, kept)
	return tree.String(), nil
}

// UpdateOwnPackageName is UpdatePackageName under the WorkspaceSupport name.
func (p *Plugin) UpdateOwnPackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	return p.UpdatePackageName(ctx, manifestSrc, newName)
}

// CreatePackage scaffolds a new package directory with an __init__.py.
func (p *Plugin) CreatePackage(ctx context.Context, req langplugin.CreatePackageRequest) (langplugin.CreatePackageResult, error) {
	initPath := req.TargetPath + "/__init__.py"
	return langplugin.CreatePackageResult{
		CreatedPaths: []string{initPath},
		Contents:     map[string]string{initPath: ""},
	}, nil
}

func (p *Plugin) String() string { return "python.Plugin" }
