package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sym(name, path string, line int) Symbol {
	return Symbol{
		ID:   SymbolID(name, path, Position{Line: line, Column: 1}),
		Name: name,
		Kind: KindFunction,
		Location: Location{
			FilePath: path,
			Start:    Position{Line: line, Column: 1},
			End:      Position{Line: line, Column: 10},
		},
	}
}

func TestSymbolID(t *testing.T) {
	id := SymbolID("foo", "/src/app/util.ts", Position{Line: 12, Column: 3})
	assert.Equal(t, "foo_util.ts_12_3", id)
}

func TestSymbolID_UsesBasenameOnly(t *testing.T) {
	a := SymbolID("foo", "/one/x.ts", Position{Line: 1, Column: 1})
	b := SymbolID("foo", "/two/x.ts", Position{Line: 1, Column: 1})
	assert.Equal(t, a, b)
}

func TestMerge_ConcatenatesAndDedupesFiles(t *testing.T) {
	a := AnalysisResult{
		Symbols: []Symbol{sym("a", "a.ts", 1)},
		Files:   []string{"a.ts", "shared.ts"},
	}
	b := AnalysisResult{
		Symbols: []Symbol{sym("b", "b.ts", 1)},
		Files:   []string{"shared.ts", "b.ts"},
	}

	merged := Merge(a, b)
	require.Len(t, merged.Symbols, 2)
	assert.Equal(t, []string{"a.ts", "shared.ts", "b.ts"}, merged.Files)
}

func TestMerge_EmptyIsIdentity(t *testing.T) {
	a := AnalysisResult{
		Symbols: []Symbol{sym("a", "a.ts", 1)},
		Files:   []string{"a.ts"},
	}

	left := Merge(AnalysisResult{}, a)
	right := Merge(a, AnalysisResult{})
	assert.Equal(t, a.Symbols, left.Symbols)
	assert.Equal(t, a.Files, left.Files)
	assert.Equal(t, a.Symbols, right.Symbols)
	assert.Equal(t, a.Files, right.Files)
}

func TestMerge_Associative(t *testing.T) {
	a := AnalysisResult{Symbols: []Symbol{sym("a", "a.ts", 1)}, Files: []string{"a.ts"}}
	b := AnalysisResult{Symbols: []Symbol{sym("b", "b.ts", 1)}, Files: []string{"b.ts"}}
	c := AnalysisResult{Symbols: []Symbol{sym("c", "c.ts", 1)}, Files: []string{"c.ts"}}

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))
	assert.Equal(t, left, right)
}

func TestMergeAll(t *testing.T) {
	parts := []AnalysisResult{
		{Files: []string{"a.ts"}},
		{Files: []string{"b.ts"}},
		{Files: []string{"a.ts", "c.ts"}},
	}
	merged := MergeAll(parts...)
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, merged.Files)
}

func TestFinalize_RecomputesTotalsFromArrays(t *testing.T) {
	r := AnalysisResult{
		Symbols: []Symbol{sym("a", "a.ts", 1), sym("b", "b.ts", 1)},
		CallRelations: []CallRelation{
			{Caller: CallParticipant{Name: "a"}, Callee: CallParticipant{Name: "b"}},
		},
		Files: []string{"a.ts", "b.ts"},
		// Stale values that must be overwritten, never accumulated.
		Metadata: Metadata{TotalFiles: 99, TotalSymbols: 99, TotalCallRelations: 99},
	}

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.Finalize(at)

	assert.Equal(t, 2, r.Metadata.TotalFiles)
	assert.Equal(t, 2, r.Metadata.TotalSymbols)
	assert.Equal(t, 1, r.Metadata.TotalCallRelations)
	assert.Equal(t, at, r.Metadata.Timestamp)
}

func TestEnrich_CrossFileAndCrossVariant(t *testing.T) {
	variantOf := func(path string) string {
		if path == "a.ts" {
			return "checked"
		}
		return "dynamic"
	}

	r := AnalysisResult{
		Symbols: []Symbol{sym("a", "a.ts", 1), sym("b", "b.js", 1)},
		CallRelations: []CallRelation{
			{
				Caller: CallParticipant{Name: "a", FilePath: "a.ts"},
				Callee: CallParticipant{Name: "b", FilePath: "b.js"},
			},
			{
				Caller: CallParticipant{Name: "a", FilePath: "a.ts"},
				Callee: CallParticipant{Name: "helper", FilePath: "a.ts"},
			},
			{
				// Unresolved callee: no file, so no cross-file claim.
				Caller: CallParticipant{Name: "a", FilePath: "a.ts"},
				Callee: CallParticipant{Name: "mystery"},
			},
		},
		Files: []string{"a.ts", "b.js"},
	}
	r.Finalize(time.Now())
	Enrich(&r, variantOf)

	assert.True(t, r.CallRelations[0].CrossFile)
	assert.True(t, r.CallRelations[0].CrossVariant)
	assert.False(t, r.CallRelations[1].CrossFile)
	assert.False(t, r.CallRelations[1].CrossVariant)
	assert.False(t, r.CallRelations[2].CrossFile)

	require.NotNil(t, r.Summary)
	assert.InDelta(t, 50, r.Summary.VariantDistribution["checked"], 1e-9)
	assert.InDelta(t, 50, r.Summary.VariantDistribution["dynamic"], 1e-9)
	assert.InDelta(t, 1.5, r.Summary.AvgCallsPerSymbol, 1e-9)
}

func TestEnrich_EmptyResult(t *testing.T) {
	r := AnalysisResult{}
	r.Finalize(time.Now())
	Enrich(&r, func(string) string { return "checked" })

	require.NotNil(t, r.Summary)
	assert.Zero(t, r.Summary.AvgCallsPerSymbol)
	assert.Zero(t, r.Summary.AvgImportsPerFile)
}

func TestAnalysisResult_JSONRoundTrip(t *testing.T) {
	r := AnalysisResult{
		Symbols: []Symbol{
			{
				ID:         "Widget_app.ts_3_1",
				Name:       "Widget",
				Kind:       KindClass,
				Location:   Location{FilePath: "app.ts", Start: Position{Line: 3, Column: 1}, End: Position{Line: 9, Column: 2}},
				IsExported: true,
				Extends:    []string{"Base"},
				Methods: []Member{
					{Name: "render", Kind: KindMethod, Location: Location{FilePath: "app.ts", Start: Position{Line: 5, Column: 3}}},
				},
			},
		},
		Files:    []string{"app.ts"},
		Metadata: Metadata{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), TotalFiles: 1, TotalSymbols: 1},
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"class"`)
	assert.Contains(t, string(data), `"isExported":true`)

	var back AnalysisResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r.Symbols, back.Symbols)
	assert.Equal(t, r.Metadata, back.Metadata)
}

func TestSymbol_OmitsEmptyUnionFields(t *testing.T) {
	data, err := json.Marshal(Symbol{ID: "x_y.ts_1_1", Name: "x", Kind: KindVariable})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "className")
	assert.NotContains(t, string(data), "visibility")
	assert.NotContains(t, string(data), "properties")
}
