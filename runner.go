package trellis

import (
	"context"
	"log/slog"
	"runtime"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jward/trellis/internal/extract"
	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

// runner owns the per-unit extraction state: one tree-sitter parser, one
// symbol table, and the two bounded caches (parsed trees, per-file
// sub-results). Sequential runs share one runner across slices; each parallel
// chunk gets a private runner, so no cache or table ever crosses a goroutine
// boundary.
type runner struct {
	cfg       Config
	logger    *slog.Logger
	parser    *lang.Parser
	table     *extract.SymbolTable
	extractor *extract.Extractor

	trees   *lru.Cache[string, *lang.ParsedFile]
	results *lru.Cache[string, *model.AnalysisResult]

	treeRetain   int
	resultRetain int
}

func newRunner(cfg Config, logger *slog.Logger) *runner {
	// Capacity stays comfortably above the slice size so automatic LRU
	// eviction cannot close a tree the current slice still needs; forced
	// eviction happens only at slice boundaries.
	treeCap := 2 * cfg.sliceSize()
	if treeCap < 128 {
		treeCap = 128
	}
	resultCap := 4 * treeCap

	trees, _ := lru.NewWithEvict(treeCap, func(_ string, pf *lang.ParsedFile) {
		pf.Close()
	})
	results, _ := lru.New[string, *model.AnalysisResult](resultCap)

	table := extract.NewSymbolTable()
	return &runner{
		cfg:          cfg,
		logger:       logger,
		parser:       lang.NewParser(),
		table:        table,
		extractor:    extract.NewExtractor(table, logger),
		trees:        trees,
		results:      results,
		treeRetain:   treeCap / 4,
		resultRetain: resultCap / 4,
	}
}

// close releases every cached parse tree.
func (r *runner) close() {
	r.trees.Purge()
}

// processSlice runs one scheduling unit: parse and extract every file, then
// resolve calls once the unit's symbols are all in the table. Files already
// analyzed in this run are served from the sub-result cache. A file that
// yields zero symbols still lands in Files.
func (r *runner) processSlice(ctx context.Context, paths []string) (model.AnalysisResult, error) {
	var part model.AnalysisResult

	var scans []*extract.FileScan
	for _, path := range paths {
		if cached, ok := r.results.Get(path); ok {
			part = model.Merge(part, *cached)
			continue
		}
		pf, err := r.parseFile(ctx, path)
		if err != nil {
			if r.cfg.ContinueOnError {
				r.logger.Warn("skipping unparsable file", "path", path, "error", err)
				continue
			}
			return model.AnalysisResult{}, &ParseError{Path: path, Err: err}
		}
		scans = append(scans, r.extractor.ExtractSymbols(pf))
	}

	for _, scan := range scans {
		fileResult := model.AnalysisResult{
			Symbols:         scan.Symbols,
			CallRelations:   r.extractor.ResolveCalls(scan),
			ImportRelations: scan.Imports,
			ExportRelations: scan.Exports,
			Files:           []string{scan.File.Path},
		}
		r.results.Add(scan.File.Path, &fileResult)
		part = model.Merge(part, fileResult)
	}
	return part, nil
}

func (r *runner) parseFile(ctx context.Context, path string) (*lang.ParsedFile, error) {
	if pf, ok := r.trees.Get(path); ok {
		return pf, nil
	}
	pf, err := r.parser.Parse(ctx, path)
	if err != nil {
		return nil, err
	}
	r.trees.Add(path, pf)
	return pf, nil
}

// relieveMemoryPressure is the cooperative check run at slice boundaries:
// when the heap crosses 80% of the configured ceiling, both caches are
// trimmed oldest-first down to their retained sizes. Escalates to a warning
// only when eviction did not help.
func (r *runner) relieveMemoryPressure() {
	if r.cfg.MaxMemoryUsage <= 0 {
		return
	}
	threshold := memoryPressureRatio * float64(r.cfg.MaxMemoryUsage)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	if float64(ms.HeapAlloc) < threshold {
		return
	}

	r.logger.Info("memory pressure: evicting caches",
		"heapBytes", ms.HeapAlloc,
		"limitBytes", r.cfg.MaxMemoryUsage)
	for r.trees.Len() > r.treeRetain {
		r.trees.RemoveOldest()
	}
	for r.results.Len() > r.resultRetain {
		r.results.RemoveOldest()
	}
	runtime.GC()

	runtime.ReadMemStats(&ms)
	if float64(ms.HeapAlloc) >= threshold {
		r.logger.Warn("memory pressure persists after cache eviction",
			"heapBytes", ms.HeapAlloc,
			"limitBytes", r.cfg.MaxMemoryUsage)
	}
}
