// Package lang is the declaration-parser boundary. It wraps tree-sitter with
// the TypeScript and JavaScript grammars and classifies files into the two
// source variants the analyzer understands: checked (TypeScript, optional
// static annotations) and dynamic (JavaScript, no static types).
package lang

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Variant is a source-file flavor.
type Variant string

const (
	VariantChecked Variant = "checked"
	VariantDynamic Variant = "dynamic"
)

var variantByExt = map[string]Variant{
	".ts":  VariantChecked,
	".tsx": VariantChecked,
	".js":  VariantDynamic,
	".jsx": VariantDynamic,
	".mjs": VariantDynamic,
	".cjs": VariantDynamic,
}

// VariantForPath classifies a file path by extension. ok is false for
// unsupported extensions.
func VariantForPath(path string) (Variant, bool) {
	v, ok := variantByExt[strings.ToLower(filepath.Ext(path))]
	return v, ok
}

// VariantName returns the variant string for a path, or "" when the path is
// not a supported source file. Convenience form used for post-merge
// enrichment.
func VariantName(path string) string {
	v, ok := VariantForPath(path)
	if !ok {
		return ""
	}
	return string(v)
}

// ParsedFile is one file's declaration syntax tree plus the source bytes the
// tree's node contents refer to. Close releases the tree; the ParsedFile must
// not be used afterwards.
type ParsedFile struct {
	Path    string
	Variant Variant
	Source  []byte
	Tree    *sitter.Tree
}

// Root returns the tree's root node.
func (p *ParsedFile) Root() *sitter.Node {
	return p.Tree.RootNode()
}

// Text returns the source text of node.
func (p *ParsedFile) Text(node *sitter.Node) string {
	return node.Content(p.Source)
}

// Close releases the underlying tree-sitter tree.
func (p *ParsedFile) Close() {
	if p.Tree != nil {
		p.Tree.Close()
		p.Tree = nil
	}
}

// Parser parses checked- and dynamic-variant files in one session. A Parser
// is not safe for concurrent use; parallel chunks each own one.
type Parser struct {
	ts *sitter.Parser
	js *sitter.Parser
}

// NewParser builds a Parser with both grammars loaded.
func NewParser() *Parser {
	ts := sitter.NewParser()
	ts.SetLanguage(typescript.GetLanguage())
	js := sitter.NewParser()
	js.SetLanguage(javascript.GetLanguage())
	return &Parser{ts: ts, js: js}
}

// Parse reads and parses one file. Unsupported extensions and unreadable or
// unparsable files return an error; the caller decides whether that skips the
// file or aborts the slice.
func (p *Parser) Parse(ctx context.Context, path string) (*ParsedFile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.ParseBytes(ctx, path, content)
}

// ParseBytes parses source content already in memory.
func (p *Parser) ParseBytes(ctx context.Context, path string, content []byte) (*ParsedFile, error) {
	variant, ok := VariantForPath(path)
	if !ok {
		return nil, fmt.Errorf("parse %s: unsupported extension", path)
	}

	parser := p.ts
	if variant == VariantDynamic {
		parser = p.js
	}
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &ParsedFile{
		Path:    path,
		Variant: variant,
		Source:  content,
		Tree:    tree,
	}, nil
}
