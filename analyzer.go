package trellis

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gobwas/glob"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

// State is the scheduler's observable phase. A run moves
// IDLE → SIZING → {DIRECT|BATCHED|PARALLEL} → MERGING → DONE, with ERROR
// reachable from any active state.
type State int32

const (
	StateIdle State = iota
	StateSizing
	StateDirect
	StateBatched
	StateParallel
	StateMerging
	StateDone
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSizing:
		return "sizing"
	case StateDirect:
		return "direct"
	case StateBatched:
		return "batched"
	case StateParallel:
		return "parallel"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Analyzer runs single-shot symbol and call-graph analysis over a file list.
// Each Analyze call builds fresh state (symbol table, caches); nothing
// carries over between runs.
type Analyzer struct {
	cfg      Config
	excludes []glob.Glob
	logger   *slog.Logger
	state    atomic.Int32
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New validates cfg and builds an Analyzer. Malformed configuration fails
// here, before any parsing starts, with an error wrapping ErrInvalidConfig.
func New(cfg Config, opts ...Option) (*Analyzer, error) {
	normalized, excludes, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	a := &Analyzer{
		cfg:      normalized,
		excludes: excludes,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// State returns the scheduler's current phase.
func (a *Analyzer) State() State {
	return State(a.state.Load())
}

func (a *Analyzer) setState(s State) {
	a.state.Store(int32(s))
}

// Analyze extracts symbols, call relations, and import/export relations from
// the given files and returns the merged result. The mode is picked from the
// (filtered) file count: parallel chunks when enabled and the run is large
// enough, a single direct pass for small runs, sequential slices otherwise.
//
// On failure with ContinueOnError unset, Analyze returns the error and the
// Analyzer reports StateError; nothing from the failing point onward is
// merged.
func (a *Analyzer) Analyze(ctx context.Context, paths []string) (*model.AnalysisResult, error) {
	a.setState(StateSizing)
	files := a.filterPaths(paths)

	var (
		merged model.AnalysisResult
		err    error
	)
	switch {
	case a.cfg.EnableParallelProcessing && len(files) > parallelFileThreshold:
		a.setState(StateParallel)
		merged, err = a.runParallel(ctx, files)
	case len(files) <= a.cfg.BatchSize:
		a.setState(StateDirect)
		merged, err = a.runSequential(ctx, files, len(files))
	default:
		a.setState(StateBatched)
		merged, err = a.runSequential(ctx, files, a.cfg.sliceSize())
	}
	if err != nil {
		a.setState(StateError)
		return nil, err
	}

	a.setState(StateMerging)
	merged.Finalize(time.Now().UTC())
	model.Enrich(&merged, lang.VariantName)
	a.setState(StateDone)
	return &merged, nil
}

// runSequential drives the DIRECT (one slice) and BATCHED (fixed slices)
// modes over a single shared runner, so the symbol table spans the whole
// run. Memory pressure is checked cooperatively before each slice, never
// mid-file.
func (a *Analyzer) runSequential(ctx context.Context, files []string, sliceSize int) (model.AnalysisResult, error) {
	var merged model.AnalysisResult
	if len(files) == 0 {
		return merged, nil
	}

	r := newRunner(a.cfg, a.logger)
	defer r.close()

	for start := 0; start < len(files); start += sliceSize {
		end := min(start+sliceSize, len(files))
		r.relieveMemoryPressure()

		part, err := r.processSlice(ctx, files[start:end])
		if err != nil {
			sliceErr := &SliceError{Start: start, Files: end - start, Err: err}
			if a.cfg.ContinueOnError {
				a.logger.Warn("slice failed, continuing with partial result",
					"start", start, "files", end-start, "error", err)
				continue
			}
			return model.AnalysisResult{}, sliceErr
		}
		merged = model.Merge(merged, part)
	}
	return merged, nil
}

// filterPaths drops unsupported extensions, disabled variants, and excluded
// patterns, and deduplicates the list while preserving order.
func (a *Analyzer) filterPaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var files []string
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true

		variant, ok := lang.VariantForPath(path)
		if !ok {
			continue
		}
		if variant == lang.VariantChecked && !a.cfg.IncludeCheckedVariant {
			continue
		}
		if variant == lang.VariantDynamic && !a.cfg.IncludeDynamicVariant {
			continue
		}
		if a.excluded(path) {
			continue
		}
		files = append(files, path)
	}
	return files
}

func (a *Analyzer) excluded(path string) bool {
	for _, g := range a.excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}
