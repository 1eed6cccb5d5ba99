package lang

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantForPath(t *testing.T) {
	tests := []struct {
		path    string
		variant Variant
		ok      bool
	}{
		{"app.ts", VariantChecked, true},
		{"view.tsx", VariantChecked, true},
		{"lib/util.js", VariantDynamic, true},
		{"view.jsx", VariantDynamic, true},
		{"mod.mjs", VariantDynamic, true},
		{"legacy.cjs", VariantDynamic, true},
		{"UPPER.TS", VariantChecked, true},
		{"readme.md", "", false},
		{"noext", "", false},
	}
	for _, tt := range tests {
		v, ok := VariantForPath(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.variant, v, tt.path)
	}
}

func TestVariantName(t *testing.T) {
	assert.Equal(t, "checked", VariantName("a.ts"))
	assert.Equal(t, "dynamic", VariantName("a.js"))
	assert.Equal(t, "", VariantName("a.go"))
}

func TestParseBytes_Checked(t *testing.T) {
	p := NewParser()
	pf, err := p.ParseBytes(context.Background(), "a.ts", []byte("function foo(): number { return 1; }"))
	require.NoError(t, err)
	defer pf.Close()

	assert.Equal(t, VariantChecked, pf.Variant)
	root := pf.Root()
	require.NotNil(t, root)
	assert.Equal(t, "program", root.Type())
	assert.Equal(t, 1, int(root.NamedChildCount()))
	assert.Equal(t, "function_declaration", root.NamedChild(0).Type())
}

func TestParseBytes_Dynamic(t *testing.T) {
	p := NewParser()
	pf, err := p.ParseBytes(context.Background(), "a.js", []byte("const api = { fetch() { return 1; } };"))
	require.NoError(t, err)
	defer pf.Close()

	assert.Equal(t, VariantDynamic, pf.Variant)
	assert.Equal(t, "program", pf.Root().Type())
}

func TestParseBytes_UnsupportedExtension(t *testing.T) {
	p := NewParser()
	_, err := p.ParseBytes(context.Background(), "a.go", []byte("package main"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestParse_MissingFile(t *testing.T) {
	p := NewParser()
	_, err := p.Parse(context.Background(), filepath.Join(t.TempDir(), "missing.ts"))
	require.Error(t, err)
}

func TestParse_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.ts")
	require.NoError(t, os.WriteFile(path, []byte("const x = 1;"), 0o644))

	p := NewParser()
	pf, err := p.Parse(context.Background(), path)
	require.NoError(t, err)
	defer pf.Close()

	assert.Equal(t, path, pf.Path)
	assert.Equal(t, "const x = 1;", pf.Text(pf.Root()))
}

func TestParsedFile_CloseIsIdempotent(t *testing.T) {
	p := NewParser()
	pf, err := p.ParseBytes(context.Background(), "a.ts", []byte("let y = 2;"))
	require.NoError(t, err)

	pf.Close()
	pf.Close()
	assert.Nil(t, pf.Tree)
}
