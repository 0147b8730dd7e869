package editplan

// ImportCategory classifies how an import specifier resolves.
type ImportCategory string

const (
	CategoryRelative          ImportCategory = "relative"
	CategoryAliased           ImportCategory = "aliased"
	CategoryBareModule        ImportCategory = "bare_module"
	CategoryWorkspaceInternal ImportCategory = "workspace_internal"
	CategoryExternal          ImportCategory = "external"
)

// ImportInfo is an import specifier as written in source, plus its
// semantic category and, where a plugin can produce it, structured detail.
type ImportInfo struct {
	Specifier  string         `json:"specifier"`
	Category   ImportCategory `json:"category"`
	Location   Location       `json:"location"`
	ModulePath string         `json:"module_path,omitempty"`

	NamedImports    []string `json:"named_imports,omitempty"`
	DefaultImport   string   `json:"default_import,omitempty"`
	NamespaceImport string   `json:"namespace_import,omitempty"`
	TypeOnly        bool     `json:"type_only,omitempty"`
}

// ReferenceKind classifies a single occurrence of a module name in code.
type ReferenceKind string

const (
	KindDeclaration    ReferenceKind = "declaration"
	KindQualifiedPath  ReferenceKind = "qualified_path"
	KindStringLiteral  ReferenceKind = "string_literal"
)

// ModuleReference is a single occurrence of a module name in code.
type ModuleReference struct {
	Line    int           `json:"line"`
	Column  int           `json:"column"`
	Length  int           `json:"length"`
	Text    string        `json:"text"`
	Kind    ReferenceKind `json:"kind"`
}
