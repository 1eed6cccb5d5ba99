package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

func startOf(node *sitter.Node) model.Position {
	p := node.StartPoint()
	return model.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func locOf(pf *lang.ParsedFile, node *sitter.Node) model.Location {
	s, e := node.StartPoint(), node.EndPoint()
	return model.Location{
		FilePath: pf.Path,
		Start:    model.Position{Line: int(s.Row) + 1, Column: int(s.Column) + 1},
		End:      model.Position{Line: int(e.Row) + 1, Column: int(e.Column) + 1},
	}
}

func fieldText(pf *lang.ParsedFile, node *sitter.Node, field string) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return pf.Text(child)
}

// modifiersOf reads declaration modifiers directly from syntax. An absent
// accessibility modifier yields an empty visibility, never "public".
func modifiersOf(pf *lang.ParsedFile, node *sitter.Node) (mods []string, visibility string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "accessibility_modifier":
			visibility = pf.Text(c)
		case "static", "async", "readonly", "abstract", "override":
			mods = appendUnique(mods, c.Type())
		case "*":
			mods = appendUnique(mods, "generator")
		}
	}
	switch node.Type() {
	case "generator_function_declaration", "generator_function":
		mods = appendUnique(mods, "generator")
	}
	return mods, visibility
}

// heritageOf collects extends/implements names from a class or interface
// declaration. Names are recorded as written and stay unresolved.
func heritageOf(pf *lang.ParsedFile, node *sitter.Node) (extends, implements []string) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_heritage":
			clauses := false
			for j := 0; j < int(child.NamedChildCount()); j++ {
				clause := child.NamedChild(j)
				switch clause.Type() {
				case "extends_clause":
					clauses = true
					extends = append(extends, typeNamesIn(pf, clause)...)
				case "implements_clause":
					clauses = true
					implements = append(implements, typeNamesIn(pf, clause)...)
				}
			}
			// The dynamic-variant grammar nests the superclass expression
			// directly under class_heritage with no clause wrapper.
			if !clauses {
				extends = append(extends, typeNamesIn(pf, child)...)
			}
		case "extends_clause":
			extends = append(extends, typeNamesIn(pf, child)...)
		case "extends_type_clause", "implements_clause":
			names := typeNamesIn(pf, child)
			if child.Type() == "implements_clause" {
				implements = append(implements, names...)
			} else {
				extends = append(extends, names...)
			}
		}
	}
	return extends, implements
}

// typeNamesIn collects identifier-like names directly under a heritage clause.
func typeNamesIn(pf *lang.ParsedFile, clause *sitter.Node) []string {
	var names []string
	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier", "type_identifier":
			names = append(names, pf.Text(c))
		case "generic_type":
			if name := c.ChildByFieldName("name"); name != nil {
				names = append(names, pf.Text(name))
			}
		case "member_expression", "nested_type_identifier":
			names = append(names, pf.Text(c))
		}
	}
	return names
}

// docOf returns the declaration's leading comment, if directly adjacent.
// Export-statement wrappers hoist their comment down to the declaration via
// the walk context.
func docOf(pf *lang.ParsedFile, node *sitter.Node, ctx walkCtx) string {
	if ctx.doc != "" {
		return ctx.doc
	}
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	if int(node.StartPoint().Row)-int(prev.EndPoint().Row) > 1 {
		return ""
	}
	return cleanComment(pf.Text(prev))
}

// cleanComment strips comment markers, keeping the text content.
func cleanComment(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "/*") {
		raw = strings.TrimPrefix(raw, "/**")
		raw = strings.TrimPrefix(raw, "/*")
		raw = strings.TrimSuffix(raw, "*/")
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			line = strings.TrimPrefix(line, "*")
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
		}
		return strings.Join(lines, "\n")
	}
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "//"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
