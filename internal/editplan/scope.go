package editplan

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ScanScope narrows which syntactic positions the Reference Updater asks
// plugins to consider. It mirrors the typemill prototype's distinction
// between scanning only use/import statements and scanning everything
// (comments and string literals too), selected by RenameScope below.
type ScanScope string

const (
	ScanImportsOnly ScanScope = "imports_only"
	ScanAll         ScanScope = "all"
)

// RenameScope is a request-scoped filter over which files the Reference
// Updater considers and which kinds of textual edits plugins emit
// (spec.md §3).
type RenameScope struct {
	IncludeGlobs          []string
	ExcludeGlobs          []string
	UpdateStringLiterals  bool
	UpdateComments        bool
}

// ScanScope derives the ScanScope a planner should request from a
// RenameScope, matching the typemill prototype's move_service behavior:
// a non-nil scope requests the wider scan only when string literals or
// comments are in play; a nil scope requests the wider scan.
func (s *RenameScope) ScanScope() ScanScope {
	if s == nil {
		return ScanAll
	}
	if s.UpdateStringLiterals || s.UpdateComments {
		return ScanAll
	}
	return ScanImportsOnly
}

// ShouldIncludeFile applies the include/exclude globs to a workspace-
// relative path. Exclude wins over include. Absence of include globs
// means "include everything not excluded."
func (s *RenameScope) ShouldIncludeFile(path string) bool {
	if s == nil {
		return true
	}
	cleanPath := filepath.ToSlash(path)

	for _, pattern := range s.ExcludeGlobs {
		if matchGlob(pattern, cleanPath) {
			return false
		}
	}
	if len(s.IncludeGlobs) == 0 {
		return true
	}
	for _, pattern := range s.IncludeGlobs {
		if matchGlob(pattern, cleanPath) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, path string) bool {
	if matched, err := doublestar.Match(pattern, path); err == nil && matched {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if matched, err := doublestar.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
