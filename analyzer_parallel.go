package trellis

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/jward/trellis/internal/model"
)

// runParallel splits the file list into N ≈ min(4, ceil(files/25)) contiguous
// chunks and extracts them concurrently, joining on an all-complete barrier
// before the merge. Every chunk owns a private runner (its own parser,
// symbol table, and caches), so cross-chunk references cannot resolve until
// after the merge. That is a known completeness gap versus the sequential
// modes, traded for throughput.
func (a *Analyzer) runParallel(ctx context.Context, files []string) (model.AnalysisResult, error) {
	n := len(files)
	chunkCount := (n + chunkTargetSize - 1) / chunkTargetSize
	if chunkCount > maxParallelChunks {
		chunkCount = maxParallelChunks
	}
	if chunkCount < 1 {
		chunkCount = 1
	}
	chunkSize := (n + chunkCount - 1) / chunkCount

	parts := make([]model.AnalysisResult, chunkCount)

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.WorkerCount > 0 {
		g.SetLimit(a.cfg.WorkerCount)
	}

	for i := 0; i < chunkCount; i++ {
		i := i
		start := i * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)
		chunk := files[start:end]

		g.Go(func() error {
			r := newRunner(a.cfg, a.logger)
			defer r.close()

			part, err := r.processSlice(gctx, chunk)
			if err != nil {
				if a.cfg.ContinueOnError {
					a.logger.Warn("chunk failed, continuing with partial result",
						"start", start, "files", len(chunk), "error", err)
					return nil
				}
				return fmt.Errorf("chunk %d: %w", i, &SliceError{Start: start, Files: len(chunk), Err: err})
			}
			parts[i] = part
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.AnalysisResult{}, err
	}
	return model.MergeAll(parts...), nil
}
