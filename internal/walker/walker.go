// Package walker implements the Project File Walker (spec.md §4.C): a
// deterministic, sorted enumeration of source files under a workspace
// root, skipping vendored/build directories and optionally honoring
// .gitignore.
//
// Grounded on arthur-debert/treex's treebuilder/fs.go (the afero.Fs
// FileSystem wrapper) and pattern/ignorefile.go (go-git's gitignore
// matcher) for filesystem and ignore-pattern handling. The language
// filter is a plain extension match; no glob matching is done here.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
)

// skipDirs is the fixed set of directory names the walker never
// descends into, per spec.md §4.C.
var skipDirs = map[string]bool{
	".git":           true,
	"node_modules":   true,
	"target":         true,
	"build":          true,
	"dist":           true,
	".next":          true,
	".nuxt":          true,
	".venv":          true,
	"venv":           true,
	"__pycache__":    true,
	".pytest_cache":  true,
	".tox":           true,
	".build":         true,
}

// Options configures a single walk.
type Options struct {
	// HonorGitignore, when true, additionally excludes paths matched by
	// the root .gitignore. Nested .gitignore files are not read.
	HonorGitignore bool
	// Extensions, when non-empty, keeps only files whose extension
	// (without the leading dot) appears in this set — the "language
	// filter" pass, normally populated from registry.Extensions().
	Extensions map[string]bool
}

// Warning records a per-entry failure that did not abort the walk.
type Warning struct {
	Path    string
	Message string
}

// Result is a completed walk's output.
type Result struct {
	// Files is sorted lexicographically for deterministic plan output.
	Files    []string
	Warnings []Warning
}

// Walker enumerates files under a root using the given filesystem.
type Walker struct {
	fs afero.Fs
}

// New builds a Walker over fs. Pass afero.NewOsFs() for real filesystem
// access; tests use afero.NewMemMapFs().
func New(filesystem afero.Fs) *Walker {
	return &Walker{fs: filesystem}
}

// Walk enumerates every file under root that Options admits, returning
// paths relative to root in sorted order.
func (w *Walker) Walk(ctx context.Context, root string, opts Options) (Result, error) {
	var matchers []gitignorePattern
	if opts.HonorGitignore {
		m, err := loadGitignore(w.fs, root)
		if err != nil {
			return Result{}, err
		}
		matchers = m
	}

	var result Result
	err := afero.Walk(w.fs, root, func(path string, info fs.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			result.Warnings = append(result.Warnings, Warning{Path: path, Message: err.Error()})
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			result.Warnings = append(result.Warnings, Warning{Path: path, Message: relErr.Error()})
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && skipDirs[info.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if matchGitignore(matchers, rel, false) {
			return nil
		}
		if !matchesExtensionFilter(rel, opts.Extensions) {
			return nil
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil && err != ctx.Err() {
		return result, corefail.Wrap(corefail.Internal, err, "walking %s", root)
	}
	if ctx.Err() != nil {
		return result, corefail.New(corefail.Cancelled, "walk of %s cancelled", root)
	}

	sort.Strings(result.Files)
	return result, nil
}

func matchesExtensionFilter(path string, extensions map[string]bool) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return extensions[ext]
}

type gitignorePattern struct {
	matcher gitignore.Matcher
}

func loadGitignore(fs afero.Fs, root string) ([]gitignorePattern, error) {
	path := filepath.Join(root, ".gitignore")
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, corefail.Wrap(corefail.Internal, err, "reading .gitignore")
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	return []gitignorePattern{{matcher: gitignore.NewMatcher(patterns)}}, nil
}

func matchGitignore(matchers []gitignorePattern, relPath string, isDir bool) bool {
	for _, m := range matchers {
		if m.matcher.Match(strings.Split(relPath, "/"), isDir) {
			return true
		}
	}
	return false
}
