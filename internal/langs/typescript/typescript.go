// Package typescript is the TypeScript/JavaScript language plugin
// (spec.md §4.B): import specifier parsing, `$lib`/`@/`-style path
// alias resolution, and package.json manifest/workspace editing.
//
// Grounded on spec.md's worked example (§8 scenario S1) and
// original_source/tests/e2e/src/test_sveltekit_path_aliases.rs for the
// exact alias-preservation and boundary-crossing semantics, and on
// original_source/crates/mill-lang-common/src/manifest_common.rs's
// JsonWorkspace (npm/yarn/pnpm `workspaces` array) for package.json
// editing, reimplemented against encoding/json (we re-marshal with
// encoding/json's indentation, not preserve byte-for-byte, the same
// fidelity tradeoff as the Rust plugin's Cargo.toml handling).
package typescript

import (
	"context"
	"encoding/json"
	"path"
	"regexp"
	"strings"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
	"github.com/nsavage/relocore/internal/langplugin"
)

// Plugin implements langplugin.Plugin for TypeScript/JavaScript source
// and package.json manifests.
type Plugin struct{}

// New builds the TypeScript language plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) Metadata() langplugin.Metadata {
	return langplugin.Metadata{
		DisplayName:      "TypeScript",
		Extensions:       []string{"ts", "tsx", "js", "jsx"},
		ManifestFilename: "package.json",
		ModuleSeparator:  "/",
	}
}

func (p *Plugin) Capabilities() map[langplugin.Capability]bool {
	return map[langplugin.Capability]bool{
		langplugin.CapImports:            true,
		langplugin.CapManifestUpdater:    true,
		langplugin.CapWorkspace:          true,
		langplugin.CapPathAliasResolver:  true,
	}
}

// importRe matches `import ... from '<spec>'`, `export ... from '<spec>'`
// and bare `import '<spec>'` side-effect imports.
var importRe = regexp.MustCompile(`(?:import|export)\s+(?:type\s+)?(?:[^'"]*?\bfrom\s+)?['"]([^'"]+)['"]`)
var requireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)

// Parse surfaces top-level `export function`/`export const`/`export
// class` declarations as Symbols; TypeScript has no stdlib parser here,
// so this is a line-oriented scan.
func (p *Plugin) Parse(ctx context.Context, source string) (langplugin.ParsedSource, error) {
	exportRe := regexp.MustCompile(`^\s*export\s+(?:default\s+)?(?:async\s+)?(function|class|const|let|var)\s+([A-Za-z_$][A-Za-z0-9_$]*)`)
	var symbols []langplugin.Symbol
	for line, text := range strings.Split(source, "\n") {
		if m := exportRe.FindStringSubmatch(text); m != nil {
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

// AnalyzeManifest parses package.json into ManifestData.
func (p *Plugin) AnalyzeManifest(ctx context.Context, content []byte) (editplan.ManifestData, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(content, &raw); err != nil {
		return editplan.ManifestData{}, corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	data := editplan.ManifestData{RawTree: raw}
	if name, ok := raw["name"].(string); ok {
		data.PackageName = name
	}
	if version, ok := raw["version"].(string); ok {
		data.PackageVersion = version
	}
	data.Dependencies = jsonDeps(raw, "dependencies")
	data.DevDependencies = jsonDeps(raw, "devDependencies")
	return data, nil
}

func jsonDeps(raw map[string]interface{}, key string) []editplan.Dependency {
	section, ok := raw[key].(map[string]interface{})
	if !ok {
		return nil
	}
	var deps []editplan.Dependency
	for name, v := range section {
		version, _ := v.(string)
		deps = append(deps, editplan.Dependency{
			Name:   name,
			Source: editplan.DependencySource{Kind: editplan.SourceVersion, Version: version},
		})
	}
	return deps
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
func (p *Plugin) PathAliasResolver() (langplugin.PathAliasResolver, bool) { return p, true }
func (p *Plugin) ModuleReferenceScanner() (langplugin.ModuleReferenceScanner, bool) {
	return nil, false
}

// ParseImports finds every `import`/`export ... from`/`require(...)`
// specifier, classified by form.
func (p *Plugin) ParseImports(ctx context.Context, source string) ([]editplan.ImportInfo, error) {
	var infos []editplan.ImportInfo
	lines := strings.Split(source, "\n")
	for lineNo, text := range lines {
		if m := importRe.FindStringSubmatchIndex(text); m != nil {
			spec := text[m[2]:m[3]]
			infos = append(infos, editplan.ImportInfo{
				Specifier:  spec,
				ModulePath: spec,
				Category:   categorizeSpecifier(spec),
				Location: editplan.Location{
					Start: editplan.Position{Line: lineNo, Column: m[2]},
					End:   editplan.Position{Line: lineNo, Column: m[3]},
				},
				TypeOnly: strings.Contains(text, "import type") || strings.Contains(text, "export type"),
			})
		}
		if m := requireRe.FindStringSubmatchIndex(text); m != nil {
			spec := text[m[2]:m[3]]
			infos = append(infos, editplan.ImportInfo{
				Specifier:  spec,
				ModulePath: spec,
				Category:   categorizeSpecifier(spec),
				Location: editplan.Location{
					Start: editplan.Position{Line: lineNo, Column: m[2]},
					End:   editplan.Position{Line: lineNo, Column: m[3]},
				},
			})
		}
	}
	return infos, nil
}

func categorizeSpecifier(spec string) editplan.ImportCategory {
	switch {
	case strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../"):
		return editplan.CategoryRelative
	case strings.HasPrefix(spec, "$") || strings.HasPrefix(spec, "@/"):
		return editplan.CategoryAliased
	case strings.HasPrefix(spec, "@") && strings.Count(spec, "/") >= 1 && !strings.HasPrefix(spec, "@/"):
		// scoped npm package, e.g. @scope/pkg
		return editplan.CategoryExternal
	default:
		return editplan.CategoryBareModule
	}
}

// EncodeAliasConfigExtra marshals cfg for RenameInfo.Extra, used by the
// reference updater before calling RewriteImportsForMove. It is a thin
// re-export of langplugin.EncodeAliasConfigExtra so callers that only
// ever touch TypeScript don't need to import langplugin themselves.
func EncodeAliasConfigExtra(cfg langplugin.AliasConfig) (string, error) {
	return langplugin.EncodeAliasConfigExtra(cfg)
}

// ResolveAlias resolves an aliased or relative specifier to a
// project-root-relative absolute path, given fromFile's directory.
func (p *Plugin) ResolveAlias(ctx context.Context, cfg langplugin.AliasConfig, specifier, fromFile, projectRoot string) (string, bool, error) {
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		abs := path.Join(path.Dir(fromFile), specifier)
		return abs, true, nil
	}
	for prefix, dir := range cfg.Aliases {
		if specifier == prefix {
			return dir, true, nil
		}
		aliasPrefix := strings.TrimSuffix(prefix, "*")
		if aliasPrefix != prefix && strings.HasPrefix(specifier, aliasPrefix) {
			rest := strings.TrimPrefix(specifier, aliasPrefix)
			return path.Join(strings.TrimSuffix(dir, "*"), rest), true, nil
		}
		if strings.HasPrefix(specifier, prefix+"/") {
			rest := strings.TrimPrefix(specifier, prefix+"/")
			return path.Join(dir, rest), true, nil
		}
	}
	return "", false, nil
}

// PreferAliasForMove decides whether a file that lands in movedFileNewDir
// should be addressed by alias, returning the longest-matching alias
// prefix whose target directory contains the new location.
func (p *Plugin) PreferAliasForMove(ctx context.Context, cfg langplugin.AliasConfig, movedFileNewDir, projectRoot string) (string, bool) {
	best := ""
	bestLen := -1
	for prefix, dir := range cfg.Aliases {
		cleanDir := strings.TrimSuffix(dir, "/*")
		if movedFileNewDir == cleanDir || strings.HasPrefix(movedFileNewDir, cleanDir+"/") {
			if len(cleanDir) > bestLen {
				best = strings.TrimSuffix(prefix, "/*")
				bestLen = len(cleanDir)
			}
		}
	}
	return best, bestLen >= 0
}

// RewriteImportsForMove recomputes a TypeScript specifier after a file
// move: intra-alias moves preserve the alias spelling, boundary crossings
// convert to or from a relative path, per spec.md §8 invariants 2-3.
func (p *Plugin) RewriteImportsForMove(ctx context.Context, req langplugin.RewriteRequest) (string, int, error) {
	cfg := langplugin.AliasConfig{}
	if req.RenameInfo != nil {
		cfg = langplugin.DecodeAliasConfigExtra(req.RenameInfo.Extra)
	}

	imports, err := p.ParseImports(ctx, req.ImportingSrc)
	if err != nil {
		return req.ImportingSrc, 0, err
	}

	changed := 0
	lines := strings.Split(req.ImportingSrc, "\n")
	for _, imp := range imports {
		resolved, matched, _ := p.ResolveAlias(ctx, cfg, imp.Specifier, req.ImportingFile, req.ProjectRoot)
		if !matched {
			continue
		}
		if stripExt(resolved) != stripExt(req.OldPath) {
			continue
		}
		newSpecifier := newSpecifierFor(cfg, imp.Specifier, req.NewPath, req.ImportingFile)
		if newSpecifier == imp.Specifier {
			continue
		}
		line := lines[imp.Location.Start.Line]
		lines[imp.Location.Start.Line] = line[:imp.Location.Start.Column] + newSpecifier + line[imp.Location.End.Column:]
		changed++
	}
	return strings.Join(lines, "\n"), changed, nil
}

func stripExt(p string) string {
	return strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(p, ".tsx"), ".ts"), ".js")
}

// newSpecifierFor computes the new import specifier for a moved target,
// preferring an alias when the new path stays within (or enters) an
// aliased directory, falling back to a relative path otherwise.
func newSpecifierFor(cfg langplugin.AliasConfig, oldSpecifier, newPath, importingFile string) string {
	newDir := path.Dir(newPath)
	if strings.HasPrefix(oldSpecifier, "./") || strings.HasPrefix(oldSpecifier, "../") {
		for prefix, dir := range cfg.Aliases {
			cleanDir := strings.TrimSuffix(dir, "/*")
			if strings.HasPrefix(newDir, cleanDir) {
				rel := strings.TrimPrefix(stripExt(newPath), cleanDir)
				return strings.TrimSuffix(prefix, "/*") + rel
			}
		}
		rel, err := relativeSpecifier(importingFile, newPath)
		if err == nil {
			return rel
		}
		return oldSpecifier
	}

	for prefix, dir := range cfg.Aliases {
		cleanDir := strings.TrimSuffix(dir, "/*")
		if strings.HasPrefix(newDir, cleanDir) {
			rel := strings.TrimPrefix(stripExt(newPath), cleanDir)
			return strings.TrimSuffix(prefix, "/*") + rel
		}
	}
	rel, err := relativeSpecifier(importingFile, newPath)
	if err == nil {
		return rel
	}
	return oldSpecifier
}

func relativeSpecifier(fromFile, toPath string) (string, error) {
	fromDir := path.Dir(fromFile)
	rel, err := pathRel(fromDir, stripExt(toPath))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel, nil
}

func pathRel(base, target string) (string, error) {
	baseParts := strings.Split(strings.Trim(base, "/"), "/")
	targetParts := strings.Split(strings.Trim(target, "/"), "/")

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}
	ups := len(baseParts) - common
	var out []string
	for i := 0; i < ups; i++ {
		out = append(out, "..")
	}
	out = append(out, targetParts[common:]...)
	if len(out) == 0 {
		return ".", nil
	}
	return strings.Join(out, "/"), nil
}

// AddDependency inserts a package.json dependency entry.
func (p *Plugin) AddDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	key := "dependencies"
	if dev {
		key = "devDependencies"
	}
	section, _ := raw[key].(map[string]interface{})
	if section == nil {
		section = make(map[string]interface{})
	}
	section[dep.Name] = dep.Source.Version
	raw[key] = section
	return marshalIndent(raw)
}

// RemoveDependency deletes a dependency entry from both sections.
func (p *Plugin) RemoveDependency(ctx context.Context, manifestSrc, name string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	for _, key := range []string{"dependencies", "devDependencies"} {
		if section, ok := raw[key].(map[string]interface{}); ok {
			delete(section, name)
		}
	}
	return marshalIndent(raw)
}

// UpdateDependency is equivalent to AddDependency for package.json.
func (p *Plugin) UpdateDependency(ctx context.Context, manifestSrc string, dep editplan.Dependency, dev bool) (string, error) {
	return p.AddDependency(ctx, manifestSrc, dep, dev)
}

// UpdatePackageName rewrites the top-level "name" field.
func (p *Plugin) UpdatePackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	raw["name"] = newName
	return marshalIndent(raw)
}

// AddWorkspaceMember adds member to npm/yarn/pnpm "workspaces".
func (p *Plugin) AddWorkspaceMember(ctx context.Context, manifestSrc, member string) (string, error) {
	return p.AddMember(ctx, manifestSrc, member)
}

// IsWorkspaceRoot reports whether package.json declares "workspaces".
func (p *Plugin) IsWorkspaceRoot(ctx context.Context, manifestSrc string) (bool, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return false, corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	_, ok := raw["workspaces"]
	return ok, nil
}

// ListMembers returns the "workspaces" array (or its "packages" field
// when workspaces is an object, the pnpm-style shape).
func (p *Plugin) ListMembers(ctx context.Context, manifestSrc string) ([]string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return nil, corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	return workspaceMembers(raw), nil
}

func workspaceMembers(raw map[string]interface{}) []string {
	ws, ok := raw["workspaces"]
	if !ok {
		return nil
	}
	switch v := ws.(type) {
	case []interface{}:
		return toStrings(v)
	case map[string]interface{}:
		if packages, ok := v["packages"].([]interface{}); ok {
			return toStrings(packages)
		}
	}
	return nil
}

func toStrings(v []interface{}) []string {
	out := make([]string, 0, len(v))
	for _, e := range v {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// AddMember appends member to "workspaces" if absent.
func (p *Plugin) AddMember(ctx context.Context, manifestSrc, member string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	members := workspaceMembers(raw)
	for _, m := range members {
		if m == member {
			return marshalIndent(raw)
		}
	}
	members = append(members, member)
	setWorkspaceMembers(raw, members)
	return marshalIndent(raw)
}

// RemoveMember drops member from "workspaces".
func (p *Plugin) RemoveMember(ctx context.Context, manifestSrc, member string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(manifestSrc), &raw); err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "parsing package.json")
	}
	members := workspaceMembers(raw)
	kept := members[:0]
	for _, m := range members {
		if m != member {
			kept = append(kept, m)
		}
	}
	setWorkspaceMembers(raw, kept)
	return marshalIndent(raw)
}

func setWorkspaceMembers(raw map[string]interface{}, members []string) {
	out := make([]interface{}, len(members))
	for i, m := range members {
		out[i] = m
	}
	if existing, ok := raw["workspaces"].(map[string]interface{}); ok {
		existing["packages"] = out
		return
	}
	raw["workspaces"] = out
}

// UpdateOwnPackageName is UpdatePackageName under the WorkspaceSupport name.
func (p *Plugin) UpdateOwnPackageName(ctx context.Context, manifestSrc, newName string) (string, error) {
	return p.UpdatePackageName(ctx, manifestSrc, newName)
}

// CreatePackage scaffolds package.json plus an index entry point.
func (p *Plugin) CreatePackage(ctx context.Context, req langplugin.CreatePackageRequest) (langplugin.CreatePackageResult, error) {
	manifestPath := req.TargetPath + "/package.json"
	entry := req.TargetPath + "/index.ts"

	manifest, err := marshalIndent(map[string]interface{}{
		"name":    req.Name,
		"version": "0.1.0",
		"main":    "index.ts",
	})
	if err != nil {
		return langplugin.CreatePackageResult{}, err
	}

	entryContent := "export {};\n"
	if req.Kind == langplugin.PackageBinary {
		entryContent = "#!/usr/bin/env node\n\nexport {};\n"
	}

	return langplugin.CreatePackageResult{
		CreatedPaths: []string{manifestPath, entry},
		ManifestPath: manifestPath,
		Contents: map[string]string{
			manifestPath: manifest,
			entry:        entryContent,
		},
	}, nil
}

func marshalIndent(v interface{}) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", corefail.Wrap(corefail.ManifestError, err, "serializing package.json")
	}
	return string(b) + "\n", nil
}

func (p *Plugin) String() string { return "typescript.Plugin" }
