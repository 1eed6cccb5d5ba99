package export

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

// SQLiteStore persists analysis results to a relational SQLite database with
// one table per relation family plus a members detail table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a SQLite database at dbPath with WAL mode
// enabled and applies the schema.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id          INTEGER PRIMARY KEY,
  path        TEXT NOT NULL UNIQUE,
  variant     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
  id          INTEGER PRIMARY KEY,
  symbol_id   TEXT NOT NULL,
  file_id     INTEGER REFERENCES files(id),
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  visibility  TEXT,
  modifiers   TEXT,
  class_name  TEXT,
  type_expr   TEXT,
  exported    BOOLEAN DEFAULT FALSE,
  doc         TEXT,
  extends     TEXT,
  implements  TEXT,
  start_line  INTEGER,
  start_col   INTEGER,
  end_line    INTEGER,
  end_col     INTEGER
);

CREATE TABLE IF NOT EXISTS members (
  id          INTEGER PRIMARY KEY,
  symbol_id   INTEGER NOT NULL REFERENCES symbols(id),
  name        TEXT NOT NULL,
  kind        TEXT NOT NULL,
  type_expr   TEXT,
  visibility  TEXT,
  modifiers   TEXT,
  start_line  INTEGER,
  start_col   INTEGER
);

CREATE TABLE IF NOT EXISTS call_relations (
  id            INTEGER PRIMARY KEY,
  caller_name   TEXT NOT NULL,
  caller_id     TEXT,
  caller_class  TEXT,
  caller_file   TEXT,
  callee_name   TEXT NOT NULL,
  callee_id     TEXT,
  callee_class  TEXT,
  callee_file   TEXT,
  call_type     TEXT NOT NULL,
  cross_file    BOOLEAN DEFAULT FALSE,
  cross_variant BOOLEAN DEFAULT FALSE,
  line          INTEGER,
  col           INTEGER
);

CREATE TABLE IF NOT EXISTS import_relations (
  id              INTEGER PRIMARY KEY,
  importer_file   TEXT NOT NULL,
  imported_module TEXT NOT NULL,
  type            TEXT NOT NULL,
  name            TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS export_relations (
  id              INTEGER PRIMARY KEY,
  exporter_file   TEXT NOT NULL,
  exported_module TEXT,
  type            TEXT NOT NULL,
  name            TEXT,
  line            INTEGER,
  col             INTEGER
);

CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_members_symbol ON members(symbol_id);
CREATE INDEX IF NOT EXISTS idx_calls_caller ON call_relations(caller_name);
CREATE INDEX IF NOT EXISTS idx_calls_callee ON call_relations(callee_name);
CREATE INDEX IF NOT EXISTS idx_imports_file ON import_relations(importer_file);
CREATE INDEX IF NOT EXISTS idx_exports_file ON export_relations(exporter_file);
`

// WriteResult persists one result in a single transaction. Previously stored
// data for the result's files is replaced, so re-running an analysis over the
// same tree keeps the database consistent.
func (s *SQLiteStore) WriteResult(result *model.AnalysisResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	fileIDs := make(map[string]int64, len(result.Files))
	for _, path := range result.Files {
		if err := deleteFileData(tx, path); err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO files (path, variant) VALUES (?, ?) ON CONFLICT(path) DO UPDATE SET variant = excluded.variant",
			path, lang.VariantName(path)); err != nil {
			return fmt.Errorf("insert file %s: %w", path, err)
		}
		var id int64
		if err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&id); err != nil {
			return fmt.Errorf("resolve file id for %s: %w", path, err)
		}
		fileIDs[path] = id
	}

	for i := range result.Symbols {
		if err := insertSymbol(tx, &result.Symbols[i], fileIDs); err != nil {
			return err
		}
	}
	for i := range result.CallRelations {
		if err := insertCall(tx, &result.CallRelations[i]); err != nil {
			return err
		}
	}
	for i := range result.ImportRelations {
		imp := &result.ImportRelations[i]
		_, err := tx.Exec(
			"INSERT INTO import_relations (importer_file, imported_module, type, name, line, col) VALUES (?, ?, ?, ?, ?, ?)",
			imp.ImporterFile, imp.ImportedModule, string(imp.Type), imp.Name,
			imp.Location.Start.Line, imp.Location.Start.Column)
		if err != nil {
			return fmt.Errorf("insert import: %w", err)
		}
	}
	for i := range result.ExportRelations {
		exp := &result.ExportRelations[i]
		_, err := tx.Exec(
			"INSERT INTO export_relations (exporter_file, exported_module, type, name, line, col) VALUES (?, ?, ?, ?, ?, ?)",
			exp.ExporterFile, exp.ExportedModule, string(exp.Type), exp.Name,
			exp.Location.Start.Line, exp.Location.Start.Column)
		if err != nil {
			return fmt.Errorf("insert export: %w", err)
		}
	}

	return tx.Commit()
}

func insertSymbol(tx *sql.Tx, sym *model.Symbol, fileIDs map[string]int64) error {
	var fileID any
	if id, ok := fileIDs[sym.Location.FilePath]; ok {
		fileID = id
	}
	res, err := tx.Exec(`INSERT INTO symbols
		(symbol_id, file_id, name, kind, visibility, modifiers, class_name, type_expr,
		 exported, doc, extends, implements, start_line, start_col, end_line, end_col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.ID, fileID, sym.Name, string(sym.Kind), sym.Visibility,
		strings.Join(sym.Modifiers, ","), sym.ClassName, sym.TypeExpr,
		sym.IsExported, sym.Documentation,
		strings.Join(sym.Extends, ","), strings.Join(sym.Implements, ","),
		sym.Location.Start.Line, sym.Location.Start.Column,
		sym.Location.End.Line, sym.Location.End.Column)
	if err != nil {
		return fmt.Errorf("insert symbol %s: %w", sym.ID, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("symbol row id: %w", err)
	}

	for _, group := range [][]model.Member{sym.Properties, sym.Methods, sym.Constructors} {
		for _, m := range group {
			_, err := tx.Exec(`INSERT INTO members
				(symbol_id, name, kind, type_expr, visibility, modifiers, start_line, start_col)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				rowID, m.Name, string(m.Kind), m.TypeExpr, m.Visibility,
				strings.Join(m.Modifiers, ","),
				m.Location.Start.Line, m.Location.Start.Column)
			if err != nil {
				return fmt.Errorf("insert member %s.%s: %w", sym.Name, m.Name, err)
			}
		}
	}
	return nil
}

func insertCall(tx *sql.Tx, call *model.CallRelation) error {
	_, err := tx.Exec(`INSERT INTO call_relations
		(caller_name, caller_id, caller_class, caller_file,
		 callee_name, callee_id, callee_class, callee_file,
		 call_type, cross_file, cross_variant, line, col)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.Caller.Name, call.Caller.ID, call.Caller.ClassName, call.Caller.FilePath,
		call.Callee.Name, call.Callee.ID, call.Callee.ClassName, call.Callee.FilePath,
		string(call.CallType), call.CrossFile, call.CrossVariant,
		call.Location.Start.Line, call.Location.Start.Column)
	if err != nil {
		return fmt.Errorf("insert call relation: %w", err)
	}
	return nil
}

// deleteFileData removes previously stored rows for one file, child tables
// first to respect FK constraints.
func deleteFileData(tx *sql.Tx, path string) error {
	var fileID int64
	err := tx.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("query file %s: %w", path, err)
	}

	if _, err := tx.Exec(
		"DELETE FROM members WHERE symbol_id IN (SELECT id FROM symbols WHERE file_id = ?)",
		fileID); err != nil {
		return fmt.Errorf("delete members for %s: %w", path, err)
	}
	if _, err := tx.Exec("DELETE FROM symbols WHERE file_id = ?", fileID); err != nil {
		return fmt.Errorf("delete symbols for %s: %w", path, err)
	}
	for _, q := range []string{
		"DELETE FROM call_relations WHERE caller_file = ? OR callee_file = ?",
		"DELETE FROM import_relations WHERE importer_file = ?",
		"DELETE FROM export_relations WHERE exporter_file = ?",
	} {
		args := []any{path}
		if strings.Count(q, "?") == 2 {
			args = append(args, path)
		}
		if _, err := tx.Exec(q, args...); err != nil {
			return fmt.Errorf("delete relations for %s: %w", path, err)
		}
	}
	return nil
}
