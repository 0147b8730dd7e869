// Package rust is the Rust language plugin (spec.md §4.B): `use`
// import parsing, `mod` declaration bookkeeping, and Cargo.toml manifest
// and workspace editing.
//
// Grounded on internal/languages/cpp and internal/languages/csharp from
// the teacher for the plugin-struct/metadata boilerplate shape, on
// spec.md §4.B's module-declaration algorithm and
// original_source/crates/mill-lang-common/src/manifest_common.rs's
// TomlWorkspace (add/remove/list member, update package name) for the
// Cargo.toml semantics, reimplemented here against
// github.com/pelletier/go-toml's Tree instead of toml_edit — v1's Tree
// re-serializes rather than preserving byte-for-byte formatting, a
// fidelity gap noted in DESIGN.md rather than worked around.
package rust

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"

	burntsushi "github.com/BurntSushi/toml"
	toml "github.com/pelletier/go-toml"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
)

// validateCargoToml decodes a re-serialized Cargo.toml with a second,
// independent TOML implementation. go-toml's Tree.String() is the writer
// used for every edit in this file; running the result back through
// BurntSushi/toml's stricter decoder catches writer bugs (duplicate keys,
// malformed array-of-tables) that a self-round-trip through the same
// library would never surface.
func validateCargoToml(serialized string) error {
	var doc map[string]interface{}
	if _, err := burntsushi.Decode(serialized, &doc); err != nil {
		return corefail.Wrap(corefail.ManifestError, err, "re-serialized Cargo.toml failed validation decode")
	}
	return nil
}

// Plugin implements langplugin.Plugin for Rust source and Cargo.toml.
type Plugin struct{}

// New builds the Rust language plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() langplugin.Metadata {
	return langplugin.Metadata{
		DisplayName:      "Rust",
		Extensions:       []string{"rs"},
		ManifestFilename: "Cargo.toml",
		ModuleSeparator:  "::",
	}
}

func (p *Plugin) Capabilities() map[langplugin.Capability]bool {
	return map[langplugin.Capability]bool{
		langplugin.CapImports:                 true,
		langplugin.CapManifestUpdater:         true,
		langplugin.CapWorkspace:               true,
		langplugin.CapModuleDeclarationSupport: true,
		langplugin.CapModuleReferenceScanner:   true,
	}
}

var (
	useRe     = regexp.MustCompile(`^\s*(pub(?:\([^)]*\))?\s+)?use\s+([A-Za-z0-9_:{}, \*]+?)\s*;`)
	modDeclRe = regexp.MustCompile(`^\s*(pub(?:\([^)]*\))?\s+)?mod\s+([A-Za-z_][A-Za-z0-9_]*)\s*;`)
)

// Parse tolerant-parses Rust source into a flat symbol list derived from
// `fn`/`struct`/`enum`/`trait`/`impl` item headers; Rust has no stdlib
// parser, so this is a line-oriented scan rather than a real AST walk.
func (p *Plugin) Parse(ctx context.Context, source string) (langplugin.ParsedSource, error) {
	var symbols []langplugin.Symbol
	itemRe := regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?(fn|struct|enum|trait|const|static)\s+([A-Za-z_][A-Za-z0-9_]*)`)

	scanner := bufio.NewScanner(strings.NewReader(source))
	line := 0
	for scanner.Scan() {
		text := scanner.Text()
		if m := itemRe.FindStringSubmatch(text); m != nil {
			symbols = append(symbols, langplugin.Symbol{
				Name: m[2],
				Kind: m[1],
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: strings.Index(text, m[2])},
					End:   editplan.Position{Line: line, Column: strings.Index(text, m[2]) + len(m[2])},
				},
			})
		}
		line++
	}
	return langplugin.ParsedSource{Symbols: symbols}, nil
}

// AnalyzeManifest parses Cargo.toml into ManifestData, keeping the
// *toml.Tree as RawTree.
func (p *Plugin) AnalyzeManifest(ctx context.Context, content []byte) (editplan.ManifestData, error) {
	tree, err := toml.LoadBytes(content)
	if err != nil {
		return editplan.ManifestData{}, corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}

	data := editplan.ManifestData{RawTree: tree}
	if name, ok := tree.Get("package.name").(string); ok {
		data.PackageName = name
	}
	if version, ok := tree.Get("package.version").(string); ok {
		data.PackageVersion = version
	}
	data.Dependencies = cargoDeps(tree, "dependencies")
	data.DevDependencies = cargoDeps(tree, "dev-dependencies")
	return data, nil
}

func cargoDeps(tree *toml.Tree, section string) []editplan.Dependency {
	sub, ok := tree.Get(section).(*toml.Tree)
	if !ok {
		return nil
	}
	var deps []editplan.Dependency
	for _, key := range sub.Keys() {
		dep := editplan.Dependency{Name: key}
		switch v := sub.Get(key).(type) {
		case string:
			dep.Source = editplan.DependencySource{Kind: editplan.SourceVersion, Version: v}
		case *toml.Tree:
			if path, ok := v.Get("path").(string); ok {
				dep.Source = editplan.DependencySource{Kind: editplan.SourceLocalPath, Path: path}
			} else if url, ok := v.Get("git").(string); ok {
				rev, _ := v.Get("rev").(string)
				dep.Source = editplan.DependencySource{Kind: editplan.SourceGit, GitURL: url, GitRev: rev}
			} else if version, ok := v.Get("version").(string); ok {
				dep.Source = editplan.DependencySource{Kind: editplan.SourceVersion, Version: version}
			}
		}
		deps = append(deps, dep)
	}
	return deps
}

func (p *Plugin) ImportParser() (langplugin.ImportParser, bool) { return p, true }
func (p *Plugin) ImportRenameSupport() (langplugin.ImportRenameSupport, bool) {
	return p, true
}
func (p *Plugin) ModuleDeclarationSupport() (langplugin.ModuleDeclarationSupport, bool) {
	return p, true
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

// ParseImports finds `use` statements, one ImportInfo per statement
// (brace-grouped imports like `use a::{b, c};` are not expanded into
// separate entries, matching how the reference updater treats a `use`
// line as a single rewritable unit), plus one ImportInfo per sibling
// `mod`/`pub mod` declaration, since a declaration is itself a
// reference to the file it names and a move must be able to flag a
// parent file that declares a module but never `use`s anything from it.
func (p *Plugin) ParseImports(ctx context.Context, source string) ([]editplan.ImportInfo, error) {
	var infos []editplan.ImportInfo
	scanner := bufio.NewScanner(strings.NewReader(source))
	line := 0
	for scanner.Scan() {
		text := scanner.Text()
		if m := useRe.FindStringSubmatch(text); m != nil {
			path := strings.TrimSpace(m[2])
			infos = append(infos, editplan.ImportInfo{
				Specifier:  path,
				ModulePath: useModulePath(path),
				Category:   categorizeUsePath(path),
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: 0},
					End:   editplan.Position{Line: line, Column: len(text)},
				},
			})
		}
		if m := modDeclRe.FindStringSubmatch(text); m != nil {
			infos = append(infos, editplan.ImportInfo{
				Specifier:  m[2],
				ModulePath: m[2],
				Category:   editplan.CategoryRelative,
				Location: editplan.Location{
					Start: editplan.Position{Line: line, Column: 0},
					End:   editplan.Position{Line: line, Column: len(text)},
				},
			})
		}
		line++
	}
	return infos, nil
}

// useModulePath drops a `use` path's final segment, which names the
// item being imported (a function, type, or constant) rather than a
// module, so what is left is what a moved source file's own path
// should be matched against. A single-segment use (`use utils;`) names
// a module directly and is left as-is.
func useModulePath(path string) string {
	segs := strings.Split(path, "::")
	if len(segs) < 2 {
		return path
	}
	return strings.Join(segs[:len(segs)-1], "::")
}

func categorizeUsePath(path string) editplan.ImportCategory {
	if strings.HasPrefix(path, "crate::") || strings.HasPrefix(path, "self::") || strings.HasPrefix(path, "super::") {
		return editplan.CategoryRelative
	}
	return editplan.CategoryBareModule
}

// RewriteImportsForMove rewrites `use` paths and `mod`/`pub mod`
// declarations that reference the moved module, substituting the old
// module name for the new one.
func (p *Plugin) RewriteImportsForMove(ctx context.Context, req langplugin.RewriteRequest) (string, int, error) {
	oldName, newName, err := rustModulePaths(req)
	if err != nil {
		return req.ImportingSrc, 0, err
	}
	if oldName == newName {
		return req.ImportingSrc, 0, nil
	}

	changed := 0
	lines := strings.Split(req.ImportingSrc, "\n")
	for i, text := range lines {
		if m := useRe.FindStringSubmatch(text); m != nil {
			path := strings.TrimSpace(m[2])
			if rewritten, ok := replaceModuleSegments(path, oldName, newName); ok {
				lines[i] = strings.Replace(text, path, rewritten, 1)
				changed++
			}
			continue
		}
		if m := modDeclRe.FindStringSubmatch(text); m != nil &&
			!strings.Contains(oldName, "::") && !strings.Contains(newName, "::") &&
			m[2] == oldName {
			lines[i] = strings.Replace(text, "mod "+oldName+";", "mod "+newName+";", 1)
			changed++
		}
	}
	return strings.Join(lines, "\n"), changed, nil
}

// replaceModuleSegments finds oldName's `::`-separated segments as a
// contiguous run within path's own segments and splices in newName's,
// reporting whether a replacement happened.
func replaceModuleSegments(path, oldName, newName string) (string, bool) {
	segs := strings.Split(path, "::")
	oldSegs := strings.Split(oldName, "::")
	newSegs := strings.Split(newName, "::")
	for i := 0; i+len(oldSegs) <= len(segs); i++ {
		match := true
		for j, want := range oldSegs {
			if segs[i+j] != want {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		out := make([]string, 0, len(segs)-len(oldSegs)+len(newSegs))
		out = append(out, segs[:i]...)
		out = append(out, newSegs...)
		out = append(out, segs[i+len(oldSegs):]...)
		return strings.Join(out, "::"), true
	}
	return path, false
}

// rustModulePaths resolves the old/new module identifiers a rewrite
// should match: a crate/module rename supplies these directly via
// RenameInfo, while a plain file move only has file paths, so those are
// converted to the module name a sibling `mod`/`use` declaration would
// reference.
func rustModulePaths(req langplugin.RewriteRequest) (oldPath, newPath string, err error) {
	if req.RenameInfo != nil && req.RenameInfo.OldPackageName != "" {
		return req.RenameInfo.OldPackageName, req.RenameInfo.NewPackageName, nil
	}
	if req.OldPath == "" || req.NewPath == "" {
		return "", "", corefail.New(corefail.InvalidRequest, "rust import rewrite requires RenameInfo or explicit old/new module paths")
	}
	return moduleNameForPath(req.OldPath), moduleNameForPath(req.NewPath), nil
}

// moduleNameForPath derives the bare module identifier a sibling file's
// `mod`/`use` declarations reference for filePath: the filename without
// its .rs extension, or the parent directory's name for Rust's three
// special entry-point filenames, which act as that directory's own
// module rather than a leaf module of their own. A path with no .rs
// extension (e.g. an already-resolved module path like "crate::foo")
// passes through unchanged.
func moduleNameForPath(filePath string) string {
	if !strings.HasSuffix(filePath, ".rs") {
		return filePath
	}
	base := filePath
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		base = base[idx+1:]
	}
	name := strings.TrimSuffix(base, ".rs")
	switch name {
	case "mod", "lib", "main":
		dir := strings.TrimSuffix(filePath, "/"+base)
		if idx := strings.LastIndex(dir, "/"); idx >= 0 {
			return dir[idx+1:]
		}
		return dir
	default:
		return name
	}
}

// RemoveDeclaration strips a `mod foo;` (or `pub mod foo;`) line from a
// parent file, reporting whether the declaration was public.
func (p *Plugin) RemoveDeclaration(ctx context.Context, parentSrc, moduleName string) (string, bool, error) {
	lines := strings.Split(parentSrc, "\n")
	wasPublic := false
	out := lines[:0]
	found := false
	for _, line := range lines {
		if m := modDeclRe.FindStringSubmatch(line); m != nil && m[2] == moduleName {
			wasPublic = m[1] != ""
			found = true
			continue
		}
		out = append(out, line)
	}
	if !found {
		return parentSrc, false, nil
	}
	return strings.Join(out, "\n"), wasPublic, nil
}

// AddDeclaration appends a `mod foo;` (or `pub mod foo;`) line, keeping
// module declarations grouped at the point the last one appears, or at
// the top of the file if there are none yet.
func (p *Plugin) AddDeclaration(ctx context.Context, parentSrc, moduleName string, public bool) (string, error) {
	decl := fmt.Sprintf("mod %s;", moduleName)
	if public {
		decl = fmt.Sprintf("pub mod %s;", moduleName)
	}

	lines := strings.Split(parentSrc, "\n")
	lastModLine := -1
	for i, line := range lines {
		if modDeclRe.MatchString(line) {
			lastModLine = i
		}
	}
	if lastModLine == -1 {
		return decl + "\n" + parentSrc, nil
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:lastModLine+1]...)
	out = append(out, decl)
	out = append(out, lines[lastModLine+1:]...)
	return strings.Join(out, "\n"), nil
}

// ListDeclarations returns every `mod` declaration's module name.
func (p *Plugin) ListDeclarations(ctx context.Context, parentSrc string) ([]string, error) {
	var mods []string
	for _, line := range strings.Split(parentSrc, "\n") {
		if m := modDeclRe.FindStringSubmatch(line); m != nil {
			mods = append(mods, m[2])
		}
	}
	return mods, nil
}

// AddDependency inserts or replaces a `[dependencies]` entry.
func (p *Plugin) AddDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}
	section := "dependencies"
	if dev {
		section = "dev-dependencies"
	}
	setCargoDependency(tree, section, dep)
	out := tree.String()
	if err := validateCargoToml(out); err != nil {
		return "", err
	}
	return out, nil
}

func setCargoDependency(tree *toml.Tree, section string, dep editplan.Dependency) {
	switch dep.Source.Kind {
	case editplan.SourceLocalPath:
		sub, _ := toml.TreeFromMap(map[string]interface{}{"path": dep.Source.Path})
		tree.SetPath([]string{section, dep.Name}, sub)
	case editplan.SourceGit:
		m := map[string]interface{}{"git": dep.Source.GitURL}
		if dep.Source.GitRev != "" {
			m["rev"] = dep.Source.GitRev
		}
		sub, _ := toml.TreeFromMap(m)
		tree.SetPath([]string{section, dep.Name}, sub)
	default:
		tree.SetPath([]string{section, dep.Name}, dep.Source.Version)
	}
}

// RemoveDependency deletes a dependency entry from both sections.
func (p *Plugin) RemoveDependency(ctx context.Context, manifestSrc, name string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}
	_ = tree.Delete("dependencies." + name)
	_ = tree.Delete("dev-dependencies." + name)
	out := tree.String()
	if err := validateCargoToml(out); err != nil {
		return "", err
	}
	return out, nil
}

// UpdateDependency is equivalent to AddDependency: Cargo.toml dependency
// entries are replaced wholesale, there is no separate version bump path.
func (p *Plugin) UpdateDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	return p.AddDependency(ctx, manifestSrc, dep, dev)
}

// UpdatePackageName rewrites [package] name, or [project] name / [tool.
// poetry] name if present for non-Cargo TOML manifests sharing this
// updater (pyproject.toml), per manifest_common.rs's fallback chain.
func (p *Plugin) UpdatePackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing TOML manifest")
	}
	switch {
	case tree.Get("package") != nil:
		tree.SetPath([]string{"package", "name"}, newName)
	case tree.Get("project") != nil:
		tree.SetPath([]string{"project", "name"}, newName)
	case tree.Get("tool.poetry") != nil:
		tree.SetPath([]string{"tool", "poetry", "name"}, newName)
	}
	out := tree.String()
	if err := validateCargoToml(out); err != nil {
		return "", err
	}
	return out, nil
}

// AddWorkspaceMember adds member to [workspace.members] if not already present.
func (p *Plugin) AddWorkspaceMember(ctx context.Context, manifestSrc, member string) (string, error) {
	return p.AddMember(ctx, manifestSrc, member)
}

// IsWorkspaceRoot reports whether content declares a [workspace] table
// (Cargo) or [tool.poetry.workspace]/[tool.pdm] (pyproject, shared path).
func (p *Plugin) IsWorkspaceRoot(ctx context.Context, manifestSrc string) (bool, error) {
	return strings.Contains(manifestSrc, "[workspace]") ||
		strings.Contains(manifestSrc, "[tool.poetry.workspace]") ||
		strings.Contains(manifestSrc, "[tool.pdm]"), nil
}

// ListMembers returns the [workspace.members] array.
func (p *Plugin) ListMembers(ctx context.Context, manifestSrc string) ([]string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return nil, corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}
	return stringArrayAt(tree, []string{"workspace", "members"}), nil
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

// AddMember appends member to [workspace.members] if absent.
func (p *Plugin) AddMember(ctx context.Context, manifestSrc, member string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}
	members := stringArrayAt(tree, []string{"workspace", "members"})
	for _, m := range members {
		if m == member {
			return tree.String(), nil
		}
	}
	members = append(members, member)
	tree.SetPath([]string{"workspace", "members"}, members)
	out := tree.String()
	if err := validateCargoToml(out); err != nil {
		return "", err
	}
	return out, nil
}

// RemoveMember drops member from [workspace.members].
func (p *Plugin) RemoveMember(ctx context.Context, manifestSrc, member string) (string, error) {
	tree, err := toml.Load(manifestSrc)
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing Cargo.toml")
	}
	members := stringArrayAt(tree, []string{"workspace", "members"})
	kept := members[:0]
	for _, m := range members {
		if m != member {
			kept = append(kept, m)
		}
	}
	tree.SetPath([]string{"workspace", "members"}, kept)
	out := tree.String()
	if err := validateCargoToml(out); err != nil {
		return "", err
	}
	return out, nil
}

// UpdateOwnPackageName is UpdatePackageName under the WorkspaceSupport name.
func (p *Plugin) UpdateOwnPackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	return p.UpdatePackageName(ctx, manifestSrc, newName)
}

// CreatePackage scaffolds a new crate directory: Cargo.toml plus src/lib.rs.
func (p *Plugin) CreatePackage(ctx context.Context, req langplugin.CreatePackageRequest) (langplugin.CreatePackageResult, error) {
	manifestPath := req.TargetPath + "/Cargo.toml"
	entry := "src/lib.rs"
	entryContent := "pub fn placeholder() {}\n"
	if req.Kind == langplugin.PackageBinary {
		entry = "src/main.rs"
		entryContent = "fn main() {}\n"
	}
	entryPath := req.TargetPath + "/" + entry

	tree, err := toml.TreeFromMap(map[string]interface{}{
		"package": map[string]interface{}{
			"name":    req.Name,
			"version": "0.1.0",
			"edition": "2021",
		},
	})
	if err != nil {
		return langplugin.CreatePackageResult{}, corefail.Wrap(corefail.ManifestError, err, "building Cargo.toml for %s", req.Name)
	}

	return langplugin.CreatePackageResult{
		CreatedPaths: []string{manifestPath, entryPath},
		ManifestPath: manifestPath,
		Contents: map[string]string{
			manifestPath: tree.String(),
			entryPath:    entryContent,
		},
	}, nil
}

// ScanReferences finds plain-path occurrences of moduleName's last `::`
// segment used as a path component, e.g. `foo::bar()` referencing crate
// `foo`.
func (p *Plugin) ScanReferences(ctx context.Context, source, moduleName string) ([]editplan.ModuleReference, error) {
	shortName := moduleName
	if idx := strings.LastIndex(moduleName, "::"); idx >= 0 {
		shortName = moduleName[idx+2:]
	}
	pathRe := regexp.MustCompile(`\b` + regexp.QuoteMeta(shortName) + `::`)

	var refs []editplan.ModuleReference
	for line, text := range strings.Split(source, "\n") {
		locs := pathRe.FindAllStringIndex(text, -1)
		for _, loc := range locs {
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

func (p *Plugin) String() string { return "rust.Plugin" }
