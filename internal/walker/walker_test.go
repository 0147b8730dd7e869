package walker_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsavage/relocore/internal/walker"
)

func setupFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/proj/main.go":                  "package main",
		"/proj/internal/lib.go":          "package internal",
		"/proj/node_modules/pkg/idx.js":  "module.exports = {}",
		"/proj/.git/HEAD":                "ref: refs/heads/main",
		"/proj/vendor.ignored/skip.go":   "package skip",
		"/proj/.gitignore":               "vendor.ignored/\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestWalkSkipsFixedDirectories(t *testing.T) {
	fs := setupFS(t)
	w := walker.New(fs)

	result, err := w.Walk(context.Background(), "/proj", walker.Options{})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotContains(t, f, "node_modules")
		assert.NotContains(t, f, ".git/")
	}
}

func TestWalkHonorsGitignore(t *testing.T) {
	fs := setupFS(t)
	w := walker.New(fs)

	result, err := w.Walk(context.Background(), "/proj", walker.Options{HonorGitignore: true})
	require.NoError(t, err)

	for _, f := range result.Files {
		assert.NotContains(t, f, "vendor.ignored")
	}
}

func TestWalkAppliesExtensionFilter(t *testing.T) {
	fs := setupFS(t)
	w := walker.New(fs)

	result, err := w.Walk(context.Background(), "/proj", walker.Options{Extensions: map[string]bool{"go": true}})
	require.NoError(t, err)

	assert.Contains(t, result.Files, "main.go")
	assert.Contains(t, result.Files, "internal/lib.go")
	assert.NotContains(t, result.Files, ".gitignore")
}

func TestWalkResultIsSorted(t *testing.T) {
	fs := setupFS(t)
	w := walker.New(fs)

	result, err := w.Walk(context.Background(), "/proj", walker.Options{Extensions: map[string]bool{"go": true}})
	require.NoError(t, err)

	for i := 1; i < len(result.Files); i++ {
		assert.True(t, result.Files[i-1] < result.Files[i])
	}
}
