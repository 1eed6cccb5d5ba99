// Package export writes analysis results to durable sinks: pretty-printed
// JSON documents and a relational SQLite database.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jward/trellis/internal/model"
)

// WriteJSON writes the result to w as an indented JSON document.
func WriteJSON(w io.Writer, result *model.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

// WriteJSONFile writes the result to path, creating or truncating it.
func WriteJSONFile(path string, result *model.AnalysisResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadJSON decodes a result previously written by WriteJSON.
func ReadJSON(r io.Reader) (*model.AnalysisResult, error) {
	var result model.AnalysisResult
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return &result, nil
}
