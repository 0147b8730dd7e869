package registry_test

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/langplugin"
	langmock "github.com/nsavage/relocore/internal/langplugin/mock"
	"github.com/nsavage/relocore/internal/registry"
)

func newMockPlugin(ctrl *gomock.Controller, name string, exts []string, manifest string) *langmock.MockPlugin {
	p := langmock.NewMockPlugin(ctrl)
	p.EXPECT().Metadata().Return(langplugin.Metadata{
		DisplayName:      name,
		Extensions:       exts,
		ManifestFilename: manifest,
	}).AnyTimes()
	p.EXPECT().Capabilities().Return(map[langplugin.Capability]bool{
		langplugin.CapImports: true,
	}).AnyTimes()
	return p
}

func TestRegisterAndLookupByExtension(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := registry.NewBuilder()
	goPlugin := newMockPlugin(ctrl, "Go", []string{"go"}, "go.mod")
	require.NoError(t, b.Register(goPlugin))

	r := b.Build()

	p, ok := r.PluginForExtension("go")
	require.True(t, ok)
	assert.Equal(t, "Go", p.Metadata().DisplayName)

	_, ok = r.PluginForExtension("rs")
	assert.False(t, ok, "unknown extension must be absent, not an error")
}

func TestRegisterDuplicateExtensionFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := registry.NewBuilder()
	require.NoError(t, b.Register(newMockPlugin(ctrl, "Go", []string{"go"}, "go.mod")))

	err := b.Register(newMockPlugin(ctrl, "GoToo", []string{"go"}, ""))
	assert.Error(t, err)
}

func TestWithCapabilityFiltersPlugins(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := registry.NewBuilder()
	require.NoError(t, b.Register(newMockPlugin(ctrl, "Go", []string{"go"}, "go.mod")))
	require.NoError(t, b.Register(newMockPlugin(ctrl, "Rust", []string{"rs"}, "Cargo.toml")))

	r := b.Build()
	withImports := r.WithCapability(langplugin.CapImports)
	assert.Len(t, withImports, 2)

	withWorkspace := r.WithCapability(langplugin.CapWorkspace)
	assert.Len(t, withWorkspace, 0)
}

func TestRegistryIsImmutableAfterBuild(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	b := registry.NewBuilder()
	require.NoError(t, b.Register(newMockPlugin(ctrl, "Go", []string{"go"}, "go.mod")))
	r := b.Build()

	// Mutating the builder after Build must not affect the built registry.
	require.NoError(t, b.Register(newMockPlugin(ctrl, "Rust", []string{"rs"}, "Cargo.toml")))

	_, ok := r.PluginForExtension("rs")
	assert.False(t, ok)
}
