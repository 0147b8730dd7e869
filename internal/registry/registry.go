// Package registry implements the Language Plugin Registry (spec.md
// §4.A): it maps file extensions and manifest filenames to plugins and
// lets callers iterate plugins by capability.
//
// Grounded on internal/plugin.Registry and pkg/plugin.Registry from the
// teacher (benjaminabbitt/versionator), generalized from a single global
// registry keyed by plugin type into a session-owned, constructor-built
// registry keyed by capability, per spec.md §3's "immutable after
// construction" lifecycle rule.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/langplugin"
)

// Registry maps extensions and manifest filenames to plugins. It is
// built once via Builder and is read-only afterward; no method mutates
// state post-construction, matching spec.md §3's ownership rules.
type Registry struct {
	byExtension map[string]langplugin.Plugin
	byManifest  map[string]langplugin.Plugin
	plugins     []langplugin.Plugin
}

// Builder accumulates plugins before Build freezes them into a Registry.
// Kept separate from Registry itself so "immutable after construction"
// is a type-level guarantee, not just a convention.
type Builder struct {
	mu          sync.Mutex
	byExtension map[string]langplugin.Plugin
	byManifest  map[string]langplugin.Plugin
	plugins     []langplugin.Plugin
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		byExtension: make(map[string]langplugin.Plugin),
		byManifest:  make(map[string]langplugin.Plugin),
	}
}

// Register adds a plugin for each extension and manifest filename it
// declares. Registering two plugins for the same extension is a
// construction-time error (spec.md §4.A failure modes).
func (b *Builder) Register(p langplugin.Plugin) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	meta := p.Metadata()
	for _, ext := range meta.Extensions {
		if existing, ok := b.byExtension[ext]; ok {
			return corefail.New(corefail.InvalidRequest,
				"extension %q already registered to plugin %q, cannot register %q",
				ext, existing.Metadata().DisplayName, meta.DisplayName)
		}
	}
	for _, ext := range meta.Extensions {
		b.byExtension[ext] = p
	}
	if meta.ManifestFilename != "" {
		if existing, ok := b.byManifest[meta.ManifestFilename]; ok {
			return corefail.New(corefail.InvalidRequest,
				"manifest filename %q already registered to plugin %q, cannot register %q",
				meta.ManifestFilename, existing.Metadata().DisplayName, meta.DisplayName)
		}
		b.byManifest[meta.ManifestFilename] = p
	}
	b.plugins = append(b.plugins, p)
	return nil
}

// Build freezes the accumulated plugins into an immutable Registry.
func (b *Builder) Build() *Registry {
	b.mu.Lock()
	defer b.mu.Unlock()

	r := &Registry{
		byExtension: make(map[string]langplugin.Plugin, len(b.byExtension)),
		byManifest:  make(map[string]langplugin.Plugin, len(b.byManifest)),
		plugins:     make([]langplugin.Plugin, len(b.plugins)),
	}
	for k, v := range b.byExtension {
		r.byExtension[k] = v
	}
	for k, v := range b.byManifest {
		r.byManifest[k] = v
	}
	copy(r.plugins, b.plugins)
	return r
}

// PluginForExtension returns the plugin registered for ext, or
// (nil, false) — an unknown extension is absent, not an error (spec.md
// §4.A failure modes).
func (r *Registry) PluginForExtension(ext string) (langplugin.Plugin, bool) {
	p, ok := r.byExtension[ext]
	return p, ok
}

// PluginForManifest returns the plugin registered for a manifest
// filename (e.g. "go.mod", "Cargo.toml").
func (r *Registry) PluginForManifest(filename string) (langplugin.Plugin, bool) {
	p, ok := r.byManifest[filename]
	return p, ok
}

// PluginByName looks a plugin up by its metadata display name.
func (r *Registry) PluginByName(name string) (langplugin.Plugin, bool) {
	for _, p := range r.plugins {
		if p.Metadata().DisplayName == name {
			return p, true
		}
	}
	return nil, false
}

// All returns every registered plugin, sorted by display name for
// deterministic iteration.
func (r *Registry) All() []langplugin.Plugin {
	out := make([]langplugin.Plugin, len(r.plugins))
	copy(out, r.plugins)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata().DisplayName < out[j].Metadata().DisplayName
	})
	return out
}

// WithCapability returns every registered plugin advertising cap.
func (r *Registry) WithCapability(cap langplugin.Capability) []langplugin.Plugin {
	var out []langplugin.Plugin
	for _, p := range r.All() {
		if p.Capabilities()[cap] {
			out = append(out, p)
		}
	}
	return out
}

// Extensions returns every extension the registry can map to a plugin,
// sorted, used by the Project File Walker's language filter.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) String() string {
	return fmt.Sprintf("Registry{%d plugins, %d extensions}", len(r.plugins), len(r.byExtension))
}
