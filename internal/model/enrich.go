package model

// Enrich derives the post-merge fields on a finalized result: the CrossFile
// and CrossVariant flags on every call relation, and the Summary metrics.
// variantOf maps a file path to its source variant name ("checked" or
// "dynamic"); it returns "" for paths it cannot classify.
//
// The coupling and cyclomatic values are deliberately simplistic proxies:
// coupling is the share of call relations that cross a file boundary, and
// the cyclomatic proxy is one plus the average number of outgoing calls per
// calling symbol. Neither is an exact graph metric.
func Enrich(r *AnalysisResult, variantOf func(path string) string) {
	crossFile := 0
	for i := range r.CallRelations {
		rel := &r.CallRelations[i]
		callerFile := rel.Caller.FilePath
		calleeFile := rel.Callee.FilePath
		if callerFile != "" && calleeFile != "" && callerFile != calleeFile {
			rel.CrossFile = true
			crossFile++
		}
		if callerFile != "" && calleeFile != "" {
			cv, dv := variantOf(callerFile), variantOf(calleeFile)
			if cv != "" && dv != "" && cv != dv {
				rel.CrossVariant = true
			}
		}
	}

	dist := make(map[string]float64)
	if len(r.Files) > 0 {
		counts := make(map[string]int)
		for _, f := range r.Files {
			if v := variantOf(f); v != "" {
				counts[v]++
			}
		}
		for v, n := range counts {
			dist[v] = 100 * float64(n) / float64(len(r.Files))
		}
	}

	s := &Summary{VariantDistribution: dist}
	if len(r.Symbols) > 0 {
		s.AvgCallsPerSymbol = float64(len(r.CallRelations)) / float64(len(r.Symbols))
	}
	if len(r.Files) > 0 {
		s.AvgImportsPerFile = float64(len(r.ImportRelations)) / float64(len(r.Files))
	}
	if len(r.CallRelations) > 0 {
		s.CouplingProxy = float64(crossFile) / float64(len(r.CallRelations))
	}
	callers := make(map[string]int)
	for _, rel := range r.CallRelations {
		key := rel.Caller.ID
		if key == "" {
			key = rel.Caller.FilePath + "#" + rel.Caller.Name
		}
		callers[key]++
	}
	if len(callers) > 0 {
		s.CyclomaticProxy = 1 + float64(len(r.CallRelations))/float64(len(callers))
	}
	r.Summary = s
}
