// Package trellis extracts symbols, call relations, and import/export
// relations from a two-variant scripting codebase: a checked variant with
// static type annotations, interfaces, and enums, and a dynamic variant with
// object-literal pseudo-classes and CommonJS exports.
//
// # Pipeline
//
// A run moves through a small state machine:
//
//	IDLE → SIZING → {DIRECT | BATCHED | PARALLEL} → MERGING → DONE
//
// with ERROR reachable from any active state. SIZING filters the file list
// (supported extensions, enabled variants, exclude patterns) and picks the
// processing mode from the surviving count. Each scheduling unit (the whole
// run in DIRECT mode, a fixed slice in BATCHED mode, a contiguous chunk in
// PARALLEL mode) is processed in two phases: every file in the unit is
// parsed and its symbols extracted into the unit's symbol table, then call
// expressions are resolved against that table. Sub-results merge
// associatively, so totals and derived metrics are computed once, from the
// final arrays.
//
// # Usage
//
// Build an Analyzer from a Config and run it over a file list:
//
//	a, err := trellis.New(trellis.DefaultConfig())
//	if err != nil { ... }
//
//	result, err := a.Analyze(ctx, files)
//	if err != nil { ... }
//	fmt.Println(result.Metadata.TotalSymbols)
//
// File discovery lives in internal/locate (exposed through the trellis CLI),
// and results can be written as JSON or to SQLite via internal/export.
//
// # Modes
//
// DIRECT handles runs of at most Config.BatchSize files in a single unit.
// BATCHED splits larger runs into fixed slices processed sequentially over a
// shared symbol table, with cooperative memory-pressure checks at slice
// boundaries. PARALLEL, when enabled, splits large runs into contiguous
// chunks analyzed concurrently; chunks are isolated, so references across
// chunk boundaries do not resolve. Sequential modes have no such gap.
package trellis
