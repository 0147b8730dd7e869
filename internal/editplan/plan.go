package editplan

import (
	"sort"

	"github.com/nsavage/relocore/internal/corefail"
)

// PlanKind identifies what a plan was produced to accomplish.
type PlanKind string

const (
	PlanFileMove        PlanKind = "file_move"
	PlanDirectoryMove   PlanKind = "directory_move"
	PlanRenameSymbol    PlanKind = "rename_symbol"
	PlanExtractFunction PlanKind = "extract_function"
	PlanExtractVariable PlanKind = "extract_variable"
	PlanExtractConstant PlanKind = "extract_constant"
	PlanInlineVariable  PlanKind = "inline_variable"
)

// ImpactTier is a coarse estimate of how disruptive a plan is, derived
// from the number of affected files.
type ImpactTier string

const (
	ImpactLow    ImpactTier = "low"
	ImpactMedium ImpactTier = "medium"
	ImpactHigh   ImpactTier = "high"
)

// Metadata is the non-edit, non-summary bookkeeping carried by a plan.
type Metadata struct {
	Kind           PlanKind   `json:"kind"`
	Language       string     `json:"language,omitempty"`
	Impact         ImpactTier `json:"impact"`
	CreatedAtUnix  int64      `json:"created_at_unix"`
	SchemaVersion  int        `json:"schema_version"`
}

const currentSchemaVersion = 1

// Summary counts the files a plan touches.
type Summary struct {
	AffectedFiles int      `json:"affected_files"`
	CreatedFiles  []string `json:"created_files,omitempty"`
	DeletedFiles  []string `json:"deleted_files,omitempty"`
}

// Warning records a per-file failure that did not abort planning.
type Warning struct {
	FilePath string       `json:"file_path,omitempty"`
	Kind     corefail.Kind `json:"kind"`
	Message  string       `json:"message"`
}

// Plan is the full, ordered description of a refactor (spec.md §3).
type Plan struct {
	Edits     []TextEdit        `json:"edits"`
	Summary   Summary           `json:"summary"`
	Warnings  []Warning         `json:"warnings,omitempty"`
	Metadata  Metadata          `json:"metadata"`
	Checksums map[string]string `json:"checksums"` // path -> hex sha256
}

// New builds an empty plan of the given kind, with schema version and
// impact pre-populated. createdAtUnix is supplied by the caller so plans
// stay deterministic in tests (spec.md §8 invariant 9): the core itself
// never calls time.Now directly when assembling a plan.
func New(kind PlanKind, language string, createdAtUnix int64) *Plan {
	return &Plan{
		Edits:     nil,
		Checksums: make(map[string]string),
		Metadata: Metadata{
			Kind:          kind,
			Language:      language,
			Impact:        ImpactLow,
			CreatedAtUnix: createdAtUnix,
			SchemaVersion: currentSchemaVersion,
		},
	}
}

// IsEmpty reports whether the plan has no edits at all (spec.md §4.F edge
// case: source and destination identical).
func (p *Plan) IsEmpty() bool {
	return len(p.Edits) == 0 && len(p.Summary.CreatedFiles) == 0 && len(p.Summary.DeletedFiles) == 0
}

// AddEdit validates an edit and appends it. It does not check that the
// edited file appears in Checksums or CreatedFiles.
func (p *Plan) AddEdit(e TextEdit) error {
	if err := e.Validate(); err != nil {
		return err
	}
	p.Edits = append(p.Edits, e)
	return nil
}

// AddWarning records a per-file failure (spec.md §7 propagation policy).
func (p *Plan) AddWarning(path string, kind corefail.Kind, message string) {
	p.Warnings = append(p.Warnings, Warning{FilePath: path, Kind: kind, Message: message})
}

// SetChecksum records the content hash of a file the plan read while
// planning, for precondition checking at execute time.
func (p *Plan) SetChecksum(path, sha256hex string) {
	p.Checksums[path] = sha256hex
}

// Finalize computes Summary.AffectedFiles, sorts edits deterministically,
// and sets the impact tier. Must be called once, after all edits have
// been added, before the plan is returned to a caller (spec.md §8
// invariant 9: deterministic plan output).
func (p *Plan) Finalize() error {
	affected := make(map[string]struct{})
	for _, e := range p.Edits {
		if e.FilePath != "" {
			affected[e.FilePath] = struct{}{}
		}
		if e.Kind == Move {
			affected[e.MovedFrom] = struct{}{}
			affected[e.MovedTo] = struct{}{}
		}
	}
	p.Summary.AffectedFiles = len(affected)

	switch {
	case p.Summary.AffectedFiles <= 1:
		p.Metadata.Impact = ImpactLow
	case p.Summary.AffectedFiles <= 10:
		p.Metadata.Impact = ImpactMedium
	default:
		p.Metadata.Impact = ImpactHigh
	}

	sort.SliceStable(p.Edits, func(i, j int) bool {
		a, b := p.Edits[i], p.Edits[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.Location.Start.Line != b.Location.Start.Line {
			return a.Location.Start.Line > b.Location.Start.Line
		}
		return a.Location.Start.Column > b.Location.Start.Column
	})

	return p.validateNoOverlap()
}

// validateNoOverlap enforces spec.md §3's plan invariant: no two edits
// overlap on the same file unless they share a priority tier and are
// disjoint.
func (p *Plan) validateNoOverlap() error {
	byFile := make(map[string][]TextEdit)
	for _, e := range p.Edits {
		if e.FilePath == "" || e.Kind == Create {
			continue
		}
		byFile[e.FilePath] = append(byFile[e.FilePath], e)
	}
	for path, edits := range byFile {
		for i := 0; i < len(edits); i++ {
			for j := i + 1; j < len(edits); j++ {
				if edits[i].Priority != edits[j].Priority {
					continue
				}
				if locationsOverlap(edits[i].Location, edits[j].Location) {
					return corefail.New(corefail.InvalidRequest,
						"overlapping edits at same priority in %s", path)
				}
			}
		}
	}
	return nil
}

func locationsOverlap(a, b Location) bool {
	aStart, aEnd := linearize(a.Start), linearize(a.End)
	bStart, bEnd := linearize(b.Start), linearize(b.End)
	return aStart < bEnd && bStart < aEnd
}

// linearize produces a comparable key assuming columns never exceed 1<<20
// per line, sufficient for ordering purposes within a single file.
func linearize(p Position) int64 {
	return int64(p.Line)<<20 + int64(p.Column)
}
