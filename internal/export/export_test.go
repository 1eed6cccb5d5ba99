package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/trellis/internal/model"
)

func sampleResult() *model.AnalysisResult {
	return &model.AnalysisResult{
		Symbols: []model.Symbol{
			{
				ID:         "Widget_app.ts_1_1",
				Name:       "Widget",
				Kind:       model.KindClass,
				Location:   model.Location{FilePath: "app.ts", Start: model.Position{Line: 1, Column: 1}, End: model.Position{Line: 5, Column: 2}},
				IsExported: true,
				Methods: []model.Member{
					{Name: "render", Kind: model.KindMethod, Location: model.Location{FilePath: "app.ts", Start: model.Position{Line: 2, Column: 3}}},
				},
			},
			{
				ID:        "render_app.ts_2_3",
				Name:      "render",
				Kind:      model.KindMethod,
				ClassName: "Widget",
				Location:  model.Location{FilePath: "app.ts", Start: model.Position{Line: 2, Column: 3}},
			},
			{
				ID:       "helper_util.js_1_1",
				Name:     "helper",
				Kind:     model.KindFunction,
				Location: model.Location{FilePath: "util.js", Start: model.Position{Line: 1, Column: 1}},
			},
		},
		CallRelations: []model.CallRelation{
			{
				Caller:   model.CallParticipant{Name: "helper", ID: "helper_util.js_1_1", FilePath: "util.js", Kind: model.ParticipantFunction},
				Callee:   model.CallParticipant{Name: "render", ID: "render_app.ts_2_3", ClassName: "Widget", FilePath: "app.ts", Kind: model.ParticipantMethod},
				CallType: model.ParticipantMethod,
				Location: model.Location{FilePath: "util.js", Start: model.Position{Line: 1, Column: 20}},
			},
		},
		ImportRelations: []model.ImportRelation{
			{ImporterFile: "util.js", ImportedModule: "./app", Type: model.ImportNamed, Name: "Widget"},
		},
		ExportRelations: []model.ExportRelation{
			{ExporterFile: "app.ts", Type: model.ExportNamed, Name: "Widget"},
		},
		Files:    []string{"app.ts", "util.js"},
		Metadata: model.Metadata{Timestamp: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), TotalFiles: 2, TotalSymbols: 3, TotalCallRelations: 1},
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	result := sampleResult()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, result))

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, result.Symbols, back.Symbols)
	assert.Equal(t, result.CallRelations, back.CallRelations)
	assert.Equal(t, result.Files, back.Files)
	assert.Equal(t, result.Metadata, back.Metadata)
}

func TestJSON_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.json")
	err := WriteJSONFile(path, sampleResult())
	require.Error(t, err, "parent directory does not exist")

	path = filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, WriteJSONFile(path, sampleResult()))
}

func TestReadJSON_Malformed(t *testing.T) {
	_, err := ReadJSON(bytes.NewBufferString("{not json"))
	require.Error(t, err)
}

func countRows(t *testing.T, s *SQLiteStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestSQLite_WriteResult(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trellis.db")
	s, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteResult(sampleResult()))

	assert.Equal(t, 2, countRows(t, s, "files"))
	assert.Equal(t, 3, countRows(t, s, "symbols"))
	assert.Equal(t, 1, countRows(t, s, "members"))
	assert.Equal(t, 1, countRows(t, s, "call_relations"))
	assert.Equal(t, 1, countRows(t, s, "import_relations"))
	assert.Equal(t, 1, countRows(t, s, "export_relations"))

	var kind, className string
	require.NoError(t, s.DB().QueryRow(
		"SELECT kind, class_name FROM symbols WHERE name = ?", "render").Scan(&kind, &className))
	assert.Equal(t, "method", kind)
	assert.Equal(t, "Widget", className)

	var variant string
	require.NoError(t, s.DB().QueryRow(
		"SELECT variant FROM files WHERE path = ?", "util.js").Scan(&variant))
	assert.Equal(t, "dynamic", variant)
}

func TestSQLite_RewriteReplacesFileData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "trellis.db")
	s, err := OpenSQLite(dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.WriteResult(sampleResult()))
	require.NoError(t, s.WriteResult(sampleResult()))

	assert.Equal(t, 2, countRows(t, s, "files"))
	assert.Equal(t, 3, countRows(t, s, "symbols"))
	assert.Equal(t, 1, countRows(t, s, "call_relations"))
}

func TestSQLite_InvalidPath(t *testing.T) {
	_, err := OpenSQLite("/nonexistent/dir/trellis.db")
	require.Error(t, err)
}
