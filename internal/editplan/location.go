// Package editplan defines the refactor core's shared data model: edit
// locations, text edits, edit plans, import/module reference descriptors,
// manifest data, and rename scopes. See spec.md §3.
package editplan

import "strings"

// Position is a zero-indexed line/column pair. Columns are byte offsets
// internally; conversion to UTF-16 code units happens only at the
// LSP-client boundary, which lives outside this module (spec.md §6,
// DESIGN.md Open Question #1).
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is a half-open range, start inclusive and end exclusive.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// IsPoint reports whether the location is zero-length, as required for
// Insert edits.
func (l Location) IsPoint() bool {
	return l.Start == l.End
}

// PointAt builds a zero-length Location at a single position.
func PointAt(p Position) Location {
	return Location{Start: p, End: p}
}

// FullFileLocation spans all of content, for full-file Replace edits
// produced by callers (the reference updater, the planner's manifest and
// documentation scans) that only have new text, not a line/column span,
// from the plugin they called.
func FullFileLocation(content string) Location {
	lines := strings.Split(content, "\n")
	lastLine := len(lines) - 1
	return Location{
		Start: Position{Line: 0, Column: 0},
		End:   Position{Line: lastLine, Column: len(lines[lastLine])},
	}
}

// Offset converts a line/column Position into a byte offset into
// content, for callers (the executor's in-memory buffer splicer) that
// need to turn a plugin's line/column Location into a [start:end)
// byte-slice range.
func Offset(content string, pos Position) int {
	lines := strings.Split(content, "\n")
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(lines) {
		return len(content)
	}
	offset := 0
	for i := 0; i < pos.Line; i++ {
		offset += len(lines[i]) + 1
	}
	col := pos.Column
	if col < 0 {
		col = 0
	}
	if col > len(lines[pos.Line]) {
		col = len(lines[pos.Line])
	}
	return offset + col
}

// Offsets converts l into a [start, end) byte range into content.
func (l Location) Offsets(content string) (start, end int) {
	return Offset(content, l.Start), Offset(content, l.End)
}
