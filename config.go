package trellis

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Scheduling constants. BatchSize doubles as the DIRECT/BATCHED threshold;
// slices inside a BATCHED run never exceed defaultSliceSize.
const (
	defaultBatchSize      = 100
	defaultSliceSize      = 50
	defaultMaxMemoryUsage = 1 << 30 // 1 GiB
	parallelFileThreshold = 20
	maxParallelChunks     = 4
	chunkTargetSize       = 25
	memoryPressureRatio   = 0.8
)

// Config controls an Analyzer. The zero value means "use defaults" for every
// numeric field; malformed values are rejected at construction and never
// silently corrected.
type Config struct {
	// ExcludePatterns are glob patterns matched against file paths; matching
	// files are dropped before scheduling.
	ExcludePatterns []string

	// BatchSize is the DIRECT/BATCHED threshold (default 100). Runs with at
	// most BatchSize files take the single-pass path; larger runs are sliced.
	BatchSize int

	// EnableParallelProcessing turns on chunked concurrent extraction for
	// runs with more than 20 files.
	EnableParallelProcessing bool

	// WorkerCount caps concurrently running chunks (default: no cap beyond
	// the chunk count).
	WorkerCount int

	// MaxMemoryUsage is the heap ceiling in bytes (default 1 GiB); cache
	// eviction triggers at 80% of it, checked at slice boundaries only.
	MaxMemoryUsage int64

	// ContinueOnError skips failing files/slices/chunks instead of aborting
	// the whole run.
	ContinueOnError bool

	// IncludeCheckedVariant / IncludeDynamicVariant select which source
	// variants are analyzed. Both default to true; disabling both is a
	// configuration error.
	IncludeCheckedVariant bool
	IncludeDynamicVariant bool
}

// DefaultConfig returns the configuration an unconfigured Analyzer runs with.
func DefaultConfig() Config {
	return Config{
		BatchSize:             defaultBatchSize,
		MaxMemoryUsage:        defaultMaxMemoryUsage,
		IncludeCheckedVariant: true,
		IncludeDynamicVariant: true,
	}
}

// normalize applies defaults for unset fields and compiles exclude patterns.
// Returns ErrInvalidConfig (wrapped) for malformed input.
func (c Config) normalize() (Config, []glob.Glob, error) {
	if c.BatchSize < 0 {
		return c, nil, fmt.Errorf("%w: batch size %d is negative", ErrInvalidConfig, c.BatchSize)
	}
	if c.WorkerCount < 0 {
		return c, nil, fmt.Errorf("%w: worker count %d is negative", ErrInvalidConfig, c.WorkerCount)
	}
	if c.MaxMemoryUsage < 0 {
		return c, nil, fmt.Errorf("%w: max memory usage %d is negative", ErrInvalidConfig, c.MaxMemoryUsage)
	}
	if !c.IncludeCheckedVariant && !c.IncludeDynamicVariant {
		return c, nil, fmt.Errorf("%w: both source variants are disabled", ErrInvalidConfig)
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.MaxMemoryUsage == 0 {
		c.MaxMemoryUsage = defaultMaxMemoryUsage
	}

	excludes := make([]glob.Glob, 0, len(c.ExcludePatterns))
	for _, pattern := range c.ExcludePatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return c, nil, fmt.Errorf("%w: exclude pattern %q: %v", ErrInvalidConfig, pattern, err)
		}
		excludes = append(excludes, g)
	}
	return c, excludes, nil
}

// sliceSize is the BATCHED slice length: the default, or BatchSize when the
// caller configured a smaller one.
func (c Config) sliceSize() int {
	if c.BatchSize < defaultSliceSize {
		return c.BatchSize
	}
	return defaultSliceSize
}
