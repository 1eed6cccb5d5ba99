// Package model defines the analysis result data model: symbols, call
// relations, import/export relations, and the merge semantics that combine
// partial results from batched or parallel extraction.
package model

import (
	"fmt"
	"path/filepath"
	"time"
)

// SymbolKind discriminates the Symbol tagged union.
type SymbolKind string

const (
	KindClass         SymbolKind = "class"
	KindInterface     SymbolKind = "interface"
	KindFunction      SymbolKind = "function"
	KindMethod        SymbolKind = "method"
	KindConstructor   SymbolKind = "constructor"
	KindProperty      SymbolKind = "property"
	KindVariable      SymbolKind = "variable"
	KindTypeAlias     SymbolKind = "typeAlias"
	KindEnum          SymbolKind = "enum"
	KindObjectLiteral SymbolKind = "objectLiteral"
)

// Position is a 1-indexed line/column pair.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location identifies a source range within a file.
type Location struct {
	FilePath string   `json:"filePath"`
	Start    Position `json:"start"`
	End      Position `json:"end"`
}

// Member summarizes a property, method, or constructor belonging to a class,
// interface, or object-literal pseudo-class. Members are carried on the owning
// symbol in addition to being emitted as standalone symbols.
type Member struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	TypeExpr   string     `json:"typeExpr,omitempty"`
	Visibility string     `json:"visibility,omitempty"`
	Modifiers  []string   `json:"modifiers,omitempty"`
	Location   Location   `json:"location"`
}

// Symbol is one extracted declaration. It is a tagged union over the ten
// declaration kinds: the Kind field selects which optional fields are
// meaningful (Properties/Methods/Constructors/Extends/Implements for classes
// and interfaces, TypeExpr for variables and properties, ClassName for
// class members).
//
// Visibility is the empty string when the source carries no accessibility
// modifier; it is never defaulted to "public".
type Symbol struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	Location      Location   `json:"location"`
	Visibility    string     `json:"visibility,omitempty"`
	Modifiers     []string   `json:"modifiers,omitempty"`
	IsExported    bool       `json:"isExported,omitempty"`
	Documentation string     `json:"documentation,omitempty"`

	// Class / Interface / ObjectLiteral only.
	Properties   []Member `json:"properties,omitempty"`
	Methods      []Member `json:"methods,omitempty"`
	Constructors []Member `json:"constructors,omitempty"`
	Extends      []string `json:"extends,omitempty"`
	Implements   []string `json:"implements,omitempty"`

	// Method / Constructor / Property only: the declaring class or interface.
	ClassName string `json:"className,omitempty"`

	// Variable / Property only: declared or inferred type text.
	TypeExpr string `json:"typeExpr,omitempty"`
}

// SymbolID derives the deterministic symbol identifier from the declaration
// name, the file basename, and the 1-indexed start position. IDs are unique
// within one file's extraction pass but not across same-named files at the
// same position in different directories.
func SymbolID(name, filePath string, start Position) string {
	return fmt.Sprintf("%s_%s_%d_%d", name, filepath.Base(filePath), start.Line, start.Column)
}

// ParticipantKind classifies a call relation participant.
type ParticipantKind string

const (
	ParticipantMethod      ParticipantKind = "method"
	ParticipantFunction    ParticipantKind = "function"
	ParticipantConstructor ParticipantKind = "constructor"
	ParticipantProperty    ParticipantKind = "property"
)

// CallParticipant is one side of a call relation. ID, ClassName, and FilePath
// are best-effort: an absent or dangling ID is valid and means the reference
// could not be resolved to an extracted symbol.
type CallParticipant struct {
	Name      string          `json:"name"`
	ID        string          `json:"id,omitempty"`
	ClassName string          `json:"className,omitempty"`
	FilePath  string          `json:"filePath,omitempty"`
	Kind      ParticipantKind `json:"kind"`
}

// CallRelation is one caller → callee edge. CrossFile and CrossVariant are
// derived after merging, not during extraction.
type CallRelation struct {
	Caller       CallParticipant `json:"caller"`
	Callee       CallParticipant `json:"callee"`
	CallType     ParticipantKind `json:"callType"`
	Location     Location        `json:"location"`
	CrossFile    bool            `json:"crossFile,omitempty"`
	CrossVariant bool            `json:"crossVariant,omitempty"`
}

// ImportType classifies an import relation.
type ImportType string

const (
	ImportDefault    ImportType = "default"
	ImportNamed      ImportType = "named"
	ImportNamespace  ImportType = "namespace"
	ImportSideEffect ImportType = "sideEffect"
)

// ExportType classifies an export relation. ExportCommonJS covers the legacy
// module-assignment shapes (`module.exports = ...` and `exports.name = ...`)
// found in dynamic-variant files.
type ExportType string

const (
	ExportDefault    ExportType = "default"
	ExportNamed      ExportType = "named"
	ExportNamespace  ExportType = "namespace"
	ExportSideEffect ExportType = "sideEffect"
	ExportCommonJS   ExportType = "commonjs"
)

// ImportRelation records one imported binding (or side-effect import) in a file.
type ImportRelation struct {
	ImporterFile   string     `json:"importerFile"`
	ImportedModule string     `json:"importedModule"`
	Type           ImportType `json:"type"`
	Name           string     `json:"name,omitempty"`
	Location       Location   `json:"location"`
}

// ExportRelation records one exported binding in a file. ExportedModule is
// the source specifier for re-exports (`export ... from "mod"`), empty for
// local exports.
type ExportRelation struct {
	ExporterFile   string     `json:"exporterFile"`
	ExportedModule string     `json:"exportedModule,omitempty"`
	Type           ExportType `json:"type"`
	Name           string     `json:"name,omitempty"`
	Location       Location   `json:"location"`
}

// Metadata carries run-level counters. Totals are recomputed from the final
// merged arrays by Finalize, never accumulated per merge step.
type Metadata struct {
	Timestamp          time.Time `json:"timestamp"`
	TotalFiles         int       `json:"totalFiles"`
	TotalSymbols       int       `json:"totalSymbols"`
	TotalCallRelations int       `json:"totalCallRelations"`
}

// Summary holds the post-merge heuristic metrics. The coupling and
// cyclomatic values are simplistic proxies derived from edge counts, not
// exact graph metrics.
type Summary struct {
	VariantDistribution map[string]float64 `json:"variantDistribution"`
	AvgCallsPerSymbol   float64            `json:"avgCallsPerSymbol"`
	AvgImportsPerFile   float64            `json:"avgImportsPerFile"`
	CouplingProxy       float64            `json:"couplingProxy"`
	CyclomaticProxy     float64            `json:"cyclomaticProxy"`
}

// AnalysisResult is the sole hand-off to consumers. Treat as read-only.
type AnalysisResult struct {
	Symbols         []Symbol         `json:"symbols"`
	CallRelations   []CallRelation   `json:"callRelations"`
	ImportRelations []ImportRelation `json:"importRelations"`
	ExportRelations []ExportRelation `json:"exportRelations"`
	Files           []string         `json:"files"`
	Metadata        Metadata         `json:"metadata"`
	Summary         *Summary         `json:"summary,omitempty"`
}
