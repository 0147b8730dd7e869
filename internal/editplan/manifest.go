package editplan

// DependencySourceKind classifies how a dependency resolves to code.
type DependencySourceKind string

const (
	SourceVersion   DependencySourceKind = "version"
	SourceGit       DependencySourceKind = "git"
	SourceLocalPath DependencySourceKind = "local_path"
	SourceWorkspace DependencySourceKind = "workspace"
)

// DependencySource describes where a single dependency's code comes from.
type DependencySource struct {
	Kind    DependencySourceKind `json:"kind"`
	Version string               `json:"version,omitempty"`
	GitURL  string               `json:"git_url,omitempty"`
	GitRev  string               `json:"git_rev,omitempty"`
	Path    string               `json:"path,omitempty"`
}

// Dependency names one entry in a manifest's dependency list.
type Dependency struct {
	Name   string            `json:"name"`
	Source DependencySource  `json:"source"`
}

// ManifestData is the language-neutral view of a package manifest that
// the planner reasons about; RawTree carries the language-specific parsed
// tree a ManifestUpdater implementation needs for format-preserving edits.
type ManifestData struct {
	PackageName    string       `json:"package_name"`
	PackageVersion string       `json:"package_version,omitempty"`
	Dependencies   []Dependency `json:"dependencies,omitempty"`
	DevDependencies []Dependency `json:"dev_dependencies,omitempty"`
	RawTree        interface{}  `json:"-"`
}

// RenameInfo is produced by package detection (spec.md §4.F step 2) when
// a directory move's source contains a manifest.
type RenameInfo struct {
	OldPackageName string
	NewPackageName string
	// Extra carries language-specific fields dependent manifests need,
	// e.g. a Go module path prefix or a Rust crate's lib target name.
	Extra map[string]string
}
