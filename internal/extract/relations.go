package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

// importStmt records one ImportRelation per imported binding. Four shapes are
// tracked: default, named, namespace, and side-effect-only imports.
func (x *Extractor) importStmt(scan *FileScan, node *sitter.Node) {
	pf := scan.File
	module := stripQuotes(fieldText(pf, node, "source"))
	if module == "" {
		return
	}
	loc := locOf(pf, node)

	add := func(typ model.ImportType, name string) {
		scan.Imports = append(scan.Imports, model.ImportRelation{
			ImporterFile:   pf.Path,
			ImportedModule: module,
			Type:           typ,
			Name:           name,
			Location:       loc,
		})
	}

	var clause *sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if c := node.NamedChild(i); c.Type() == "import_clause" {
			clause = c
			break
		}
	}
	if clause == nil {
		add(model.ImportSideEffect, "")
		return
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		c := clause.NamedChild(i)
		switch c.Type() {
		case "identifier":
			add(model.ImportDefault, pf.Text(c))
		case "namespace_import":
			name := ""
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if id := c.NamedChild(j); id.Type() == "identifier" {
					name = pf.Text(id)
				}
			}
			add(model.ImportNamespace, name)
		case "named_imports":
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "import_specifier" {
					continue
				}
				name := fieldText(pf, spec, "alias")
				if name == "" {
					name = fieldText(pf, spec, "name")
				}
				add(model.ImportNamed, name)
			}
		}
	}
}

// exportStmt records ExportRelations for the ES export shapes and, when the
// statement wraps a declaration, continues the walk into it with the
// exported flag set.
func (x *Extractor) exportStmt(scan *FileScan, node *sitter.Node, idx int, ctx walkCtx) {
	pf := scan.File
	module := stripQuotes(fieldText(pf, node, "source"))
	loc := locOf(pf, node)

	add := func(typ model.ExportType, name string) {
		scan.Exports = append(scan.Exports, model.ExportRelation{
			ExporterFile:   pf.Path,
			ExportedModule: module,
			Type:           typ,
			Name:           name,
			Location:       loc,
		})
	}

	isDefault := false
	sawShape := false
	for i := 0; i < int(node.ChildCount()); i++ {
		c := node.Child(i)
		switch c.Type() {
		case "default":
			isDefault = true
		case "namespace_export":
			sawShape = true
			name := ""
			for j := 0; j < int(c.NamedChildCount()); j++ {
				if id := c.NamedChild(j); id.Type() == "identifier" {
					name = pf.Text(id)
				}
			}
			add(model.ExportNamespace, name)
		case "*":
			sawShape = true
			add(model.ExportNamespace, "")
		case "export_clause":
			sawShape = true
			for j := 0; j < int(c.NamedChildCount()); j++ {
				spec := c.NamedChild(j)
				if spec.Type() != "export_specifier" {
					continue
				}
				name := fieldText(pf, spec, "alias")
				if name == "" {
					name = fieldText(pf, spec, "name")
				}
				add(model.ExportNamed, name)
			}
		}
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		typ := model.ExportNamed
		if isDefault {
			typ = model.ExportDefault
		}
		for _, name := range declarationNames(pf, decl) {
			add(typ, name)
		}
		childCtx := ctx
		childCtx.exported = true
		childCtx.doc = docOf(pf, node, ctx)
		x.walk(scan, decl, idx, childCtx)
		return
	}

	if value := node.ChildByFieldName("value"); value != nil {
		// export default <expression>
		name := ""
		if value.Type() == "identifier" {
			name = pf.Text(value)
		}
		add(model.ExportDefault, name)
		x.walk(scan, value, idx, ctx)
		return
	}

	if isDefault && !sawShape {
		add(model.ExportDefault, "")
	}
}

// declarationNames returns the binding names an exported declaration
// introduces. Function, class, interface, enum, and alias declarations carry
// a name field; variable statements wrap their names in declarators.
func declarationNames(pf *lang.ParsedFile, decl *sitter.Node) []string {
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		var names []string
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			d := decl.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			if nn := d.ChildByFieldName("name"); nn != nil && nn.Type() == "identifier" {
				names = append(names, pf.Text(nn))
			}
		}
		if len(names) > 0 {
			return names
		}
	}
	return []string{fieldText(pf, decl, "name")}
}

// maybeCommonJSExport records the legacy module-assignment export shapes of
// dynamic-variant files: `module.exports = ...` (whole module) and
// `exports.name = ...` / `module.exports.name = ...` (named property).
func (x *Extractor) maybeCommonJSExport(scan *FileScan, node *sitter.Node) {
	if scan.File.Variant != lang.VariantDynamic {
		return
	}
	left := node.ChildByFieldName("left")
	if left == nil || left.Type() != "member_expression" {
		return
	}
	target := scan.File.Text(left)
	loc := locOf(scan.File, node)

	name := ""
	switch {
	case target == "module.exports":
		// whole-module assignment, no name
	case strings.HasPrefix(target, "module.exports."):
		name = strings.TrimPrefix(target, "module.exports.")
	case strings.HasPrefix(target, "exports."):
		name = strings.TrimPrefix(target, "exports.")
	default:
		return
	}
	if strings.Contains(name, ".") {
		return
	}
	scan.Exports = append(scan.Exports, model.ExportRelation{
		ExporterFile: scan.File.Path,
		Type:         model.ExportCommonJS,
		Name:         name,
		Location:     loc,
	})
}
