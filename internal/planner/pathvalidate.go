package planner

import (
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
)

// toAbsolutePath joins relOrAbs onto projectRoot without touching the
// filesystem. Kept around only for the same reason the typemill
// prototype keeps its unchecked counterpart: convenient in tests, never
// safe to call on an untrusted path.
func toAbsolutePath(projectRoot, relOrAbs string) string {
	if path.IsAbs(relOrAbs) {
		return path.Clean(relOrAbs)
	}
	return path.Clean(strings.TrimSuffix(projectRoot, "/") + "/" + relOrAbs)
}

// toAbsolutePathChecked resolves relOrAbs against projectRoot and
// rejects anything that escapes it (spec.md §4.F step 1, §8 invariant
// 6). For a path that already exists, its existing ancestor is located
// the same way the typemill prototype does: walk upward until a
// directory the filesystem actually has is found, confirm it really is
// a directory, then splice the non-existent remainder back on.
//
// The prototype this mirrors calls `fs::canonicalize` at that point to
// resolve symlinks before the containment check. afero.Fs (MemMapFs in
// every test, OsFs in production) has no portable symlink-resolution
// primitive, so this function's containment check is lexical
// (path.Clean) rather than symlink-aware; a workspace root reached
// through a symlinked ancestor is out of scope here, same as it would
// be for any other afero-backed component in this tree.
func toAbsolutePathChecked(fs afero.Fs, projectRoot, relOrAbs string) (string, error) {
	abs := toAbsolutePath(projectRoot, relOrAbs)
	root := path.Clean(projectRoot)

	existing, remainder, err := nearestExistingAncestor(fs, abs)
	if err != nil {
		return "", err
	}
	if existing != "" {
		info, statErr := fs.Stat(existing)
		if statErr == nil && !info.IsDir() && len(remainder) > 0 {
			return "", corefail.New(corefail.InvalidRequest, "cannot validate path: %s is not a directory", existing)
		}
	}

	if !isWithinRoot(root, abs) {
		return "", corefail.New(corefail.InvalidRequest, "path traversal detected: %s escapes project root %s", relOrAbs, projectRoot)
	}
	return abs, nil
}

// nearestExistingAncestor walks upward from abs until it finds a path
// component the filesystem has, returning that ancestor (possibly abs
// itself) and the path components below it that do not yet exist, in
// root-to-leaf order.
func nearestExistingAncestor(fs afero.Fs, abs string) (existing string, remainder []string, err error) {
	current := abs
	var pending []string
	for {
		if _, statErr := fs.Stat(current); statErr == nil {
			for i, j := 0, len(pending)-1; i < j; i, j = i+1, j-1 {
				pending[i], pending[j] = pending[j], pending[i]
			}
			return current, pending, nil
		}
		parent := path.Dir(current)
		if parent == current {
			// Reached "/" without finding an existing ancestor; "/"
			// itself is assumed to always exist on any real or virtual
			// filesystem this runs against.
			return "/", reversed(pending), nil
		}
		pending = append(pending, path.Base(current))
		current = parent
	}
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// isWithinRoot reports whether abs is root itself or lies under it,
// comparing cleaned slash-separated paths component-wise.
func isWithinRoot(root, abs string) bool {
	if abs == root {
		return true
	}
	return strings.HasPrefix(abs, strings.TrimSuffix(root, "/")+"/")
}
