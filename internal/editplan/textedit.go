package editplan

import "github.com/nsavage/relocore/internal/corefail"

// Kind is the atomic operation a TextEdit performs.
type Kind string

const (
	Insert  Kind = "insert"
	Replace Kind = "replace"
	Delete  Kind = "delete"
	Create  Kind = "create"
	Move    Kind = "move"
)

// Priority tiers applied during plan assembly (spec.md §4.F.6): higher
// values are applied first by the executor.
const (
	PriorityManifestCreate  = 100
	PriorityEntryPointCreate = 90
	PriorityDeleteOriginal  = 80
	PriorityParentModUpdate = 70
	PriorityManifestDepAdd  = 60
	PriorityImportRewrite   = 40
	PriorityMisc            = 0
)

// TextEdit is the atomic unit of change.
type TextEdit struct {
	FilePath     string   `json:"file_path,omitempty"`
	Kind         Kind     `json:"kind"`
	Location     Location `json:"location"`
	OriginalText string   `json:"original_text,omitempty"`
	NewText      string   `json:"new_text,omitempty"`
	Priority     int      `json:"priority"`
	Description  string   `json:"description,omitempty"`

	// MovedFrom/MovedTo are populated only for Kind == Move.
	MovedFrom string `json:"moved_from,omitempty"`
	MovedTo   string `json:"moved_to,omitempty"`
}

// Validate enforces the per-kind invariants from spec.md §3.
func (e TextEdit) Validate() error {
	switch e.Kind {
	case Insert:
		if !e.Location.IsPoint() {
			return corefail.New(corefail.InvalidRequest, "insert edit at %s must have a zero-length location", e.FilePath)
		}
	case Create:
		if e.OriginalText != "" {
			return corefail.New(corefail.InvalidRequest, "create edit for %s must not carry original text", e.FilePath)
		}
	case Delete:
		if e.NewText != "" {
			return corefail.New(corefail.InvalidRequest, "delete edit for %s must not carry new text", e.FilePath)
		}
	case Move:
		if e.MovedFrom == "" || e.MovedTo == "" {
			return corefail.New(corefail.InvalidRequest, "move edit requires both MovedFrom and MovedTo")
		}
	case Replace:
		// OriginalText is checked against live file content at execute
		// time (internal/executor), not here.
	default:
		return corefail.New(corefail.InvalidRequest, "unknown edit kind %q", e.Kind)
	}
	return nil
}
