package trellis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// benchFixture writes n small checked-variant files, each calling into the
// previous one.
func benchFixture(b *testing.B, n int) []string {
	b.Helper()
	dir := b.TempDir()
	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		src := fmt.Sprintf("export function fn%d() { fn%d(); }\n", i, (i+n-1)%n)
		path := filepath.Join(dir, fmt.Sprintf("f%03d.ts", i))
		if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
			b.Fatal(err)
		}
		paths = append(paths, path)
	}
	return paths
}

func BenchmarkAnalyze_Direct(b *testing.B) {
	paths := benchFixture(b, 40)
	a, err := New(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Analyze(context.Background(), paths); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAnalyze_Parallel(b *testing.B) {
	paths := benchFixture(b, 120)
	cfg := DefaultConfig()
	cfg.EnableParallelProcessing = true
	a, err := New(cfg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Analyze(context.Background(), paths); err != nil {
			b.Fatal(err)
		}
	}
}
