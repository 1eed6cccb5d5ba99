// Package locate discovers analyzable source files under a root directory.
package locate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/jward/trellis/internal/lang"
)

// skipDirs lists directories that are never worth descending into.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

// Locator walks a directory tree and collects files with supported
// extensions, honoring the root's .gitignore (when present) and any extra
// exclude patterns.
type Locator struct {
	excludes  []glob.Glob
	gitignore *ignore.GitIgnore
}

// Option configures a Locator.
type Option func(*Locator) error

// WithExcludes adds glob patterns matched against paths relative to the walk
// root. A malformed pattern fails NewLocator.
func WithExcludes(patterns []string) Option {
	return func(l *Locator) error {
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return fmt.Errorf("exclude pattern %q: %w", p, err)
			}
			l.excludes = append(l.excludes, g)
		}
		return nil
	}
}

// NewLocator builds a Locator.
func NewLocator(opts ...Option) (*Locator, error) {
	l := &Locator{}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Locate walks root and returns all supported source files in walk order.
// Hidden directories, well-known dependency/output directories, gitignored
// paths, and excluded patterns are skipped.
func (l *Locator) Locate(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("locate %s: %w", root, err)
	}
	if !info.IsDir() {
		if _, ok := lang.VariantForPath(root); !ok {
			return nil, fmt.Errorf("locate %s: unsupported file type", root)
		}
		return []string{root}, nil
	}

	gi := l.gitignore
	if gi == nil {
		// Best effort: a missing or unreadable .gitignore just means no
		// gitignore filtering.
		gi, _ = ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := lang.VariantForPath(path); !ok {
			return nil
		}
		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if l.excluded(rel) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return paths, nil
}

func (l *Locator) excluded(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range l.excludes {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
