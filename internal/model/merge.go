package model

import "time"

// Merge combines two partial results into one. Symbol and relation arrays are
// concatenated (order within each operand preserved); Files are deduplicated
// keeping first-seen order. Merge is associative and does not touch metadata
// totals — call Finalize once on the fully merged result.
func Merge(a, b AnalysisResult) AnalysisResult {
	out := AnalysisResult{
		Symbols:         append(append([]Symbol{}, a.Symbols...), b.Symbols...),
		CallRelations:   append(append([]CallRelation{}, a.CallRelations...), b.CallRelations...),
		ImportRelations: append(append([]ImportRelation{}, a.ImportRelations...), b.ImportRelations...),
		ExportRelations: append(append([]ExportRelation{}, a.ExportRelations...), b.ExportRelations...),
	}
	seen := make(map[string]bool, len(a.Files)+len(b.Files))
	for _, f := range a.Files {
		if !seen[f] {
			seen[f] = true
			out.Files = append(out.Files, f)
		}
	}
	for _, f := range b.Files {
		if !seen[f] {
			seen[f] = true
			out.Files = append(out.Files, f)
		}
	}
	return out
}

// MergeAll folds Merge over any number of partial results.
func MergeAll(parts ...AnalysisResult) AnalysisResult {
	var out AnalysisResult
	for i, p := range parts {
		if i == 0 {
			out = Merge(AnalysisResult{}, p)
			continue
		}
		out = Merge(out, p)
	}
	return out
}

// Finalize recomputes metadata totals from the merged arrays and stamps the
// result. Recomputing once here avoids the undercount that per-merge-step
// accumulation produces.
func (r *AnalysisResult) Finalize(at time.Time) {
	r.Metadata = Metadata{
		Timestamp:          at,
		TotalFiles:         len(r.Files),
		TotalSymbols:       len(r.Symbols),
		TotalCallRelations: len(r.CallRelations),
	}
}
