package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

// builtinTypes is the deny-list of primitive and standard names that are
// never classified as project-defined.
var builtinTypes = map[string]bool{
	"string":    true,
	"number":    true,
	"boolean":   true,
	"Date":      true,
	"Array":     true,
	"Map":       true,
	"Set":       true,
	"Promise":   true,
	"Function":  true,
	"RegExp":    true,
	"Error":     true,
	"void":      true,
	"any":       true,
	"unknown":   true,
	"never":     true,
	"null":      true,
	"undefined": true,
	"object":    true,
	"symbol":    true,
	"bigint":    true,
}

// IsCustomType reports whether a resolved type name refers to a
// project-defined type. Union, intersection, and numeric-literal types are
// not custom, and neither are names carrying array or generic sugar.
func IsCustomType(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	if strings.ContainsAny(name, "|&") {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	if strings.HasSuffix(name, "[]") || strings.Contains(name, "<") {
		return false
	}
	return !builtinTypes[name]
}

// typeResolver produces best-effort type names for expressions. In
// checked-variant files it reads the declared-annotation and initializer
// facts collected during extraction (the parser's semantic capability); in
// dynamic-variant files only constructor-initializer heuristics apply. A
// failed resolution is never fatal: every internal panic is recovered into a
// "no result".
type typeResolver struct {
	table *SymbolTable
}

// resolveExpr returns the type name of a receiver expression, or ok=false.
func (tr *typeResolver) resolveExpr(scan *FileScan, node *sitter.Node, arenaIdx int) (name string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			name, ok = "", false
		}
	}()
	if node == nil {
		return "", false
	}

	switch node.Type() {
	case "this":
		// The declaring class of the enclosing method.
		if c := scan.arena.enclosingCaller(arenaIdx); c != nil && c.className != "" {
			return c.className, true
		}
		return "", false

	case "identifier":
		ident := scan.File.Text(node)
		if t, found := scan.varTypes[ident]; found && t != "" {
			return t, true
		}
		// Fall back to any variable symbol with a recorded type.
		if sym := tr.table.LookupKind(ident, scan.File.Path, model.KindVariable, model.KindProperty); sym != nil && sym.TypeExpr != "" {
			return sym.TypeExpr, true
		}
		return "", false

	case "new_expression":
		if ctor := node.ChildByFieldName("constructor"); ctor != nil {
			return constructorName(scan.File, ctor), true
		}
		return "", false

	case "parenthesized_expression":
		return tr.resolveExpr(scan, node.NamedChild(0), arenaIdx)
	}

	return "", false
}

// declaredTypeText normalizes a type-annotation node to its bare type text.
func declaredTypeText(pf *lang.ParsedFile, annotation *sitter.Node) string {
	if annotation == nil {
		return ""
	}
	text := strings.TrimSpace(pf.Text(annotation))
	text = strings.TrimSpace(strings.TrimPrefix(text, ":"))
	return text
}

// constructorName extracts the class name from a new-expression constructor
// node, unwrapping namespace qualifiers (ns.Class → Class).
func constructorName(pf *lang.ParsedFile, ctor *sitter.Node) string {
	switch ctor.Type() {
	case "identifier":
		return pf.Text(ctor)
	case "member_expression":
		if prop := ctor.ChildByFieldName("property"); prop != nil {
			return pf.Text(prop)
		}
	}
	text := pf.Text(ctor)
	if i := strings.LastIndex(text, "."); i >= 0 {
		return text[i+1:]
	}
	return text
}
