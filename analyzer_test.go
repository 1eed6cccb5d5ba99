package trellis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/model"
)

// writeFixtures materializes the given sources in a temp dir and returns the
// absolute paths in map-key order of the names slice.
func writeFixtures(t *testing.T, names []string, sources map[string]string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(sources[name]), 0o644))
		paths = append(paths, path)
	}
	return paths
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative batch size", Config{BatchSize: -1, IncludeCheckedVariant: true}},
		{"negative worker count", Config{WorkerCount: -2, IncludeCheckedVariant: true}},
		{"negative memory", Config{MaxMemoryUsage: -1, IncludeCheckedVariant: true}},
		{"both variants disabled", Config{}},
		{"bad exclude pattern", Config{ExcludePatterns: []string{"["}, IncludeCheckedVariant: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StateIdle, a.State())
}

func TestAnalyze_TwoFilesCrossFileCall(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "b.ts"}, map[string]string{
		"a.ts": "export function foo() { bar(); }\n",
		"b.ts": "export function bar() {}\n",
	})

	a, err := New(DefaultConfig())
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)
	assert.Equal(t, StateDone, a.State())

	assert.Len(t, result.Symbols, 2)
	require.Len(t, result.CallRelations, 1)
	assert.Empty(t, result.ImportRelations)
	assert.Len(t, result.Files, 2)

	rel := result.CallRelations[0]
	assert.Equal(t, "foo", rel.Caller.Name)
	assert.Equal(t, "bar", rel.Callee.Name)
	assert.True(t, rel.CrossFile)
	assert.False(t, rel.CrossVariant)

	assert.Equal(t, 2, result.Metadata.TotalFiles)
	assert.Equal(t, 2, result.Metadata.TotalSymbols)
	assert.Equal(t, 1, result.Metadata.TotalCallRelations)
	assert.False(t, result.Metadata.Timestamp.IsZero())
	require.NotNil(t, result.Summary)
}

func TestAnalyze_CrossVariantCall(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "b.js"}, map[string]string{
		"a.ts": "export function foo() { bar(); }\n",
		"b.js": "function bar() {}\n",
	})

	a, err := New(DefaultConfig())
	require.NoError(t, err)
	result, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, result.CallRelations, 1)
	assert.True(t, result.CallRelations[0].CrossVariant)
}

func TestAnalyze_Idempotent(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "b.ts"}, map[string]string{
		"a.ts": "export function foo() { bar(); }\n",
		"b.ts": "export function bar() {}\n",
	})

	a, err := New(DefaultConfig())
	require.NoError(t, err)

	first, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, first.Symbols, second.Symbols)
	assert.Equal(t, first.Files, second.Files)
	assert.Equal(t, len(first.CallRelations), len(second.CallRelations))
}

func TestAnalyze_ZeroSymbolFileStillListed(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "empty.ts"}, map[string]string{
		"a.ts":     "export function foo() {}\n",
		"empty.ts": "// nothing declared here\n",
	})

	a, err := New(DefaultConfig())
	require.NoError(t, err)
	result, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)

	assert.Len(t, result.Files, 2)
	assert.Len(t, result.Symbols, 1)
}

func TestAnalyze_FiltersUnsupportedAndDuplicates(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts"}, map[string]string{
		"a.ts": "const x = 1;\n",
	})
	readme := filepath.Join(filepath.Dir(paths[0]), "readme.md")
	require.NoError(t, os.WriteFile(readme, []byte("# hi"), 0o644))

	a, err := New(DefaultConfig())
	require.NoError(t, err)
	result, err := a.Analyze(context.Background(), []string{paths[0], paths[0], readme})
	require.NoError(t, err)

	assert.Len(t, result.Files, 1)
}

func TestAnalyze_VariantGating(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "b.js"}, map[string]string{
		"a.ts": "const x = 1;\n",
		"b.js": "const y = 2;\n",
	})

	cfg := DefaultConfig()
	cfg.IncludeDynamicVariant = false
	a, err := New(cfg)
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, paths[0], result.Files[0])
}

func TestAnalyze_ExcludePatterns(t *testing.T) {
	paths := writeFixtures(t, []string{"a.ts", "a.spec.ts"}, map[string]string{
		"a.ts":      "const x = 1;\n",
		"a.spec.ts": "const y = 2;\n",
	})

	cfg := DefaultConfig()
	cfg.ExcludePatterns = []string{"*.spec.ts"}
	a, err := New(cfg)
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, paths[0], result.Files[0])
}

func TestAnalyze_BatchedAbortsOnError(t *testing.T) {
	paths := writeFixtures(t, []string{"f1.ts", "f3.ts"}, map[string]string{
		"f1.ts": "export function one() {}\n",
		"f3.ts": "export function three() {}\n",
	})
	missing := filepath.Join(filepath.Dir(paths[0]), "f2.ts")
	ordered := []string{paths[0], missing, paths[1]}

	cfg := DefaultConfig()
	cfg.BatchSize = 1
	a, err := New(cfg)
	require.NoError(t, err)

	_, err = a.Analyze(context.Background(), ordered)
	require.Error(t, err)
	assert.Equal(t, StateError, a.State())

	var sliceErr *SliceError
	require.ErrorAs(t, err, &sliceErr)
	assert.Equal(t, 1, sliceErr.Start)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, missing, parseErr.Path)
}

func TestAnalyze_ContinueOnErrorSkipsFile(t *testing.T) {
	paths := writeFixtures(t, []string{"f1.ts", "f3.ts"}, map[string]string{
		"f1.ts": "export function one() {}\n",
		"f3.ts": "export function three() {}\n",
	})
	missing := filepath.Join(filepath.Dir(paths[0]), "f2.ts")
	ordered := []string{paths[0], missing, paths[1]}

	cfg := DefaultConfig()
	cfg.ContinueOnError = true
	a, err := New(cfg)
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), ordered)
	require.NoError(t, err)
	assert.Equal(t, StateDone, a.State())
	assert.Len(t, result.Files, 2)
	assert.Len(t, result.Symbols, 2)
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)

	result, err := a.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, StateDone, a.State())
	assert.Empty(t, result.Files)
	assert.Zero(t, result.Metadata.TotalSymbols)
}

// parallelFixture builds enough files to force multi-chunk parallel
// scheduling: the first file calls a function declared in the last one.
func parallelFixture(t *testing.T) []string {
	t.Helper()
	names := make([]string, 0, 26)
	sources := make(map[string]string, 26)
	for i := 0; i < 26; i++ {
		name := fmt.Sprintf("f%02d.ts", i)
		names = append(names, name)
		switch i {
		case 0:
			sources[name] = "export function first() { last(); }\n"
		case 25:
			sources[name] = "export function last() {}\n"
		default:
			sources[name] = fmt.Sprintf("export function fn%02d() {}\n", i)
		}
	}
	return writeFixtures(t, names, sources)
}

func TestAnalyze_ParallelChunksDoNotResolveAcrossChunks(t *testing.T) {
	paths := parallelFixture(t)

	direct, err := New(DefaultConfig())
	require.NoError(t, err)
	directResult, err := direct.Analyze(context.Background(), paths)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.EnableParallelProcessing = true
	parallel, err := New(cfg)
	require.NoError(t, err)
	parallelResult, err := parallel.Analyze(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, StateDone, parallel.State())
	assert.Len(t, parallelResult.Files, 26)
	assert.Len(t, parallelResult.Symbols, 26)

	findLastCall := func(r *model.AnalysisResult) *model.CallRelation {
		for i := range r.CallRelations {
			if r.CallRelations[i].Callee.Name == "last" {
				return &r.CallRelations[i]
			}
		}
		return nil
	}

	directRel := findLastCall(directResult)
	require.NotNil(t, directRel)
	assert.NotEmpty(t, directRel.Callee.ID, "single-table run resolves the cross-file callee")

	parallelRel := findLastCall(parallelResult)
	require.NotNil(t, parallelRel)
	assert.Empty(t, parallelRel.Callee.ID, "caller and callee sit in different chunks")
}

func TestAnalyze_BatchedMatchesDirect(t *testing.T) {
	names := make([]string, 0, 6)
	sources := make(map[string]string, 6)
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("m%d.ts", i)
		names = append(names, name)
		sources[name] = fmt.Sprintf("export function m%d() {}\n", i)
	}
	paths := writeFixtures(t, names, sources)

	direct, err := New(DefaultConfig())
	require.NoError(t, err)
	directResult, err := direct.Analyze(context.Background(), paths)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.BatchSize = 2
	batched, err := New(cfg)
	require.NoError(t, err)
	batchedResult, err := batched.Analyze(context.Background(), paths)
	require.NoError(t, err)

	assert.Equal(t, directResult.Symbols, batchedResult.Symbols)
	assert.Equal(t, directResult.Files, batchedResult.Files)
}
