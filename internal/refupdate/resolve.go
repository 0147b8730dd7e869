package refupdate

import (
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/nsavage/relocore/internal/corefail"
	"github.com/nsavage/relocore/internal/editplan"
)

// modulePathFor converts a workspace-relative file path into the
// dot-joined segment sequence plugins' ModulePath/NamedImports values
// are compared against. Extensions are stripped since no plugin's
// import specifiers carry one.
//
// Mapping a parsed specifier back to the exact file it resolves to is,
// in full generality, a language-specific build-graph problem (Go's
// module path prefix, Rust's crate root, Python's package __init__
// rules each differ). Rather than reproduce each language's resolver,
// this package uses a deliberately looser heuristic grounded in how the
// typemill prototype's import_updater matches candidates: a specifier
// is "affected" when its path segments, read from the right, are a
// suffix of the moved file's own segments. That is precise enough for
// the common case (a specifier names the file it imports, possibly
// qualified by package/module prefix) and is documented here rather
// than silently assumed.
func modulePathFor(relPath string) []string {
	trimmed := strings.TrimSuffix(relPath, path.Ext(relPath))
	var segs []string
	for _, s := range strings.Split(trimmed, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// specifierMatchesTarget reports whether imp's specifier or module path
// names the same file as targetSegments, using sep to split whichever
// of ModulePath/Specifier the plugin populated.
func specifierMatchesTarget(imp editplan.ImportInfo, sep string, targetSegments []string) bool {
	raw := imp.ModulePath
	if raw == "" {
		raw = imp.Specifier
	}
	if raw == "" {
		return false
	}
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "../")
	raw = strings.TrimPrefix(raw, ".")

	var segs []string
	if sep == "" {
		sep = "/"
	}
	for _, s := range strings.Split(raw, sep) {
		if s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 || len(targetSegments) == 0 {
		return false
	}
	return suffixEquals(segs, targetSegments)
}

// suffixEquals reports whether the shorter of a, b is a suffix (read
// right to left) of the other.
func suffixEquals(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return false
	}
	for i := 1; i <= n; i++ {
		if a[len(a)-i] != b[len(b)-i] {
			return false
		}
	}
	return true
}

// extensionOf returns a path's extension without its leading dot.
func extensionOf(relPath string) string {
	return strings.TrimPrefix(path.Ext(relPath), ".")
}

// stripKnownExt drops a path's extension, for comparing a
// PathAliasResolver's resolved path (which never carries one) against
// a workspace-relative file path (which does).
func stripKnownExt(relPath string) string {
	return strings.TrimSuffix(relPath, path.Ext(relPath))
}

// joinWorkspacePath joins a workspace root with a slash-separated
// workspace-relative path, independent of the host OS separator.
func joinWorkspacePath(root, relPath string) string {
	return strings.TrimSuffix(root, "/") + "/" + strings.TrimPrefix(relPath, "/")
}

// readFileWithMtime reads a file's content and last-modified time in
// one pass for the import cache's key.
func readFileWithMtime(fs afero.Fs, absPath string) (string, time.Time, error) {
	info, err := fs.Stat(absPath)
	if err != nil {
		return "", time.Time{}, corefail.Wrap(corefail.NotFound, err, "stat %s", absPath)
	}
	content, err := afero.ReadFile(fs, absPath)
	if err != nil {
		return "", time.Time{}, corefail.Wrap(corefail.Internal, err, "reading %s", absPath)
	}
	return string(content), info.ModTime(), nil
}

// wholeFileLocation builds a Location spanning all of content, for
// full-file Replace edits where the plugin only handed back new text,
// not a line/column span.
func wholeFileLocation(content string) editplan.Location {
	return editplan.FullFileLocation(content)
}
