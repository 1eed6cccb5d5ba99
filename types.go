package trellis

import "github.com/jward/trellis/internal/model"

// Public type aliases for the internal result model. These are Go type
// aliases (=) — identical to the internal types at compile time. External
// consumers use these names; no conversion is needed.

type AnalysisResult = model.AnalysisResult
type Symbol = model.Symbol
type SymbolKind = model.SymbolKind
type Member = model.Member
type Location = model.Location
type Position = model.Position
type CallRelation = model.CallRelation
type CallParticipant = model.CallParticipant
type ParticipantKind = model.ParticipantKind
type ImportRelation = model.ImportRelation
type ExportRelation = model.ExportRelation
type Metadata = model.Metadata
type Summary = model.Summary
