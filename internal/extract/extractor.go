// Package extract implements the symbol extraction engine: a single pre-order
// walk over each file's declaration tree that emits symbols in source order,
// collects call/construct/property-access expressions for later resolution,
// and records import/export relations.
package extract

import (
	"log/slog"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/trellis/internal/lang"
	"github.com/jward/trellis/internal/model"
)

type exprKind int

const (
	exprCall exprKind = iota
	exprConstruct
	exprMember
)

// pendingExpr is a call, construct, or member-access expression found during
// the walk, kept with its arena index for the later caller lookup.
type pendingExpr struct {
	kind     exprKind
	node     *sitter.Node
	arenaIdx int
}

// FileScan is one file's extraction output plus the working state the call
// resolver needs. The underlying ParsedFile must stay open until ResolveCalls
// has run.
type FileScan struct {
	File    *lang.ParsedFile
	Symbols []model.Symbol
	Imports []model.ImportRelation
	Exports []model.ExportRelation

	arena    *nodeArena
	exprs    []pendingExpr
	varTypes map[string]string
}

// walkCtx carries per-subtree state down the extraction walk.
type walkCtx struct {
	className string // enclosing class/interface/pseudo-class name
	ownerIdx  int    // index into scan.Symbols of the owning class symbol, -1 if none
	exported  bool   // subtree sits under an export statement
	doc       string // doc comment hoisted from an export statement wrapper
}

// Extractor walks parsed files and feeds a shared SymbolTable. One Extractor
// serves one sequential run or one parallel chunk.
type Extractor struct {
	table  *SymbolTable
	types  *typeResolver
	logger *slog.Logger
}

// NewExtractor builds an Extractor around the given table.
func NewExtractor(table *SymbolTable, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		table:  table,
		types:  &typeResolver{table: table},
		logger: logger,
	}
}

// ExtractSymbols performs the file's single pre-order walk: symbols are
// emitted in source order, expressions and relations collected. Extracted
// symbols are published to the symbol table before returning.
func (x *Extractor) ExtractSymbols(pf *lang.ParsedFile) *FileScan {
	scan := &FileScan{
		File:     pf,
		arena:    newArena(),
		varTypes: make(map[string]string),
	}
	x.walk(scan, pf.Root(), -1, walkCtx{ownerIdx: -1})

	for i := range scan.Symbols {
		sym := scan.Symbols[i]
		x.table.Insert(&sym)
	}
	return scan
}

func (x *Extractor) walk(scan *FileScan, node *sitter.Node, parent int, ctx walkCtx) {
	idx := scan.arena.add(parent, x.callerInfoFor(scan, node, ctx))

	switch node.Type() {
	case "class_declaration", "abstract_class_declaration":
		x.classLike(scan, node, idx, ctx, "")
		return

	case "interface_declaration":
		x.interfaceDecl(scan, node, ctx)
		return

	case "type_alias_declaration":
		if name := fieldText(scan.File, node, "name"); name != "" {
			x.emit(scan, model.Symbol{
				Name:          name,
				Kind:          model.KindTypeAlias,
				Location:      locOf(scan.File, node),
				IsExported:    ctx.exported,
				Documentation: docOf(scan.File, node, ctx),
			})
		}
		return

	case "enum_declaration":
		if name := fieldText(scan.File, node, "name"); name != "" {
			mods, _ := modifiersOf(scan.File, node)
			x.emit(scan, model.Symbol{
				Name:          name,
				Kind:          model.KindEnum,
				Location:      locOf(scan.File, node),
				Modifiers:     mods,
				IsExported:    ctx.exported,
				Documentation: docOf(scan.File, node, ctx),
			})
		}
		return

	case "function_declaration", "generator_function_declaration":
		name := fieldText(scan.File, node, "name")
		if name != "" {
			mods, _ := modifiersOf(scan.File, node)
			x.emit(scan, model.Symbol{
				Name:          name,
				Kind:          model.KindFunction,
				Location:      locOf(scan.File, node),
				Modifiers:     mods,
				IsExported:    ctx.exported,
				Documentation: docOf(scan.File, node, ctx),
			})
		}
		// Anonymous function declarations emit nothing; the body is still
		// walked so inner calls attribute to outer named declarations.

	case "method_definition", "abstract_method_signature":
		x.methodDef(scan, node, ctx)

	case "public_field_definition", "field_definition":
		x.fieldDef(scan, node, ctx)

	case "lexical_declaration", "variable_declaration":
		x.variableDecl(scan, node, idx, ctx)
		return

	case "import_statement":
		x.importStmt(scan, node)
		return

	case "export_statement":
		x.exportStmt(scan, node, idx, ctx)
		return

	case "assignment_expression":
		x.maybeCommonJSExport(scan, node)

	case "call_expression":
		scan.exprs = append(scan.exprs, pendingExpr{exprCall, node, idx})

	case "new_expression":
		scan.exprs = append(scan.exprs, pendingExpr{exprConstruct, node, idx})

	case "member_expression":
		if recordableMember(node) {
			scan.exprs = append(scan.exprs, pendingExpr{exprMember, node, idx})
		}
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		x.walk(scan, node.NamedChild(i), idx, ctx)
	}
}

// emit appends a symbol, deriving its deterministic ID, and returns its index.
func (x *Extractor) emit(scan *FileScan, sym model.Symbol) int {
	sym.ID = model.SymbolID(sym.Name, scan.File.Path, sym.Location.Start)
	scan.Symbols = append(scan.Symbols, sym)
	return len(scan.Symbols) - 1
}

// classLike extracts a class declaration or a class expression bound to a
// variable (nameOverride). Anonymous class expressions emit no symbol but the
// body is still walked.
func (x *Extractor) classLike(scan *FileScan, node *sitter.Node, idx int, ctx walkCtx, nameOverride string) {
	pf := scan.File
	name := nameOverride
	if name == "" {
		name = fieldText(pf, node, "name")
	}

	ownerIdx := -1
	if name != "" {
		mods, vis := modifiersOf(pf, node)
		if node.Type() == "abstract_class_declaration" {
			mods = appendUnique(mods, "abstract")
		}
		extends, implements := heritageOf(pf, node)
		ownerIdx = x.emit(scan, model.Symbol{
			Name:          name,
			Kind:          model.KindClass,
			Location:      locOf(pf, node),
			Modifiers:     mods,
			Visibility:    vis,
			IsExported:    ctx.exported,
			Documentation: docOf(pf, node, ctx),
			Extends:       extends,
			Implements:    implements,
		})
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	bodyIdx := scan.arena.add(idx, nil)
	childCtx := walkCtx{className: name, ownerIdx: ownerIdx}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		x.walk(scan, body.NamedChild(i), bodyIdx, childCtx)
	}
}

// methodDef emits a Method (or Constructor) symbol and appends a member entry
// to the owning class symbol.
func (x *Extractor) methodDef(scan *FileScan, node *sitter.Node, ctx walkCtx) {
	pf := scan.File
	name := fieldText(pf, node, "name")
	if name == "" {
		return
	}
	kind := model.KindMethod
	if name == "constructor" {
		kind = model.KindConstructor
	}
	mods, vis := modifiersOf(pf, node)
	loc := locOf(pf, node)

	x.emit(scan, model.Symbol{
		Name:          name,
		Kind:          kind,
		Location:      loc,
		Modifiers:     mods,
		Visibility:    vis,
		ClassName:     ctx.className,
		Documentation: docOf(pf, node, walkCtx{}),
	})

	if ctx.ownerIdx >= 0 {
		owner := &scan.Symbols[ctx.ownerIdx]
		member := model.Member{
			Name:       name,
			Kind:       kind,
			Visibility: vis,
			Modifiers:  mods,
			Location:   loc,
		}
		if kind == model.KindConstructor {
			owner.Constructors = append(owner.Constructors, member)
		} else {
			owner.Methods = append(owner.Methods, member)
		}
	}
}

// fieldDef emits a Property symbol for a class field and appends a member
// entry to the owning class symbol.
func (x *Extractor) fieldDef(scan *FileScan, node *sitter.Node, ctx walkCtx) {
	pf := scan.File
	name := fieldText(pf, node, "name")
	if name == "" {
		name = fieldText(pf, node, "property")
	}
	if name == "" {
		return
	}
	mods, vis := modifiersOf(pf, node)
	typeExpr := declaredTypeText(pf, node.ChildByFieldName("type"))
	if typeExpr == "" {
		if value := node.ChildByFieldName("value"); value != nil && value.Type() == "new_expression" {
			if ctor := value.ChildByFieldName("constructor"); ctor != nil {
				typeExpr = constructorName(pf, ctor)
			}
		}
	}
	loc := locOf(pf, node)

	x.emit(scan, model.Symbol{
		Name:       name,
		Kind:       model.KindProperty,
		Location:   loc,
		Modifiers:  mods,
		Visibility: vis,
		ClassName:  ctx.className,
		TypeExpr:   typeExpr,
	})

	if ctx.ownerIdx >= 0 {
		owner := &scan.Symbols[ctx.ownerIdx]
		owner.Properties = append(owner.Properties, model.Member{
			Name:       name,
			Kind:       model.KindProperty,
			TypeExpr:   typeExpr,
			Visibility: vis,
			Modifiers:  mods,
			Location:   loc,
		})
	}
}

// interfaceDecl extracts an interface and its member signatures. Interface
// bodies contain no executable code, so the subtree is not walked further.
func (x *Extractor) interfaceDecl(scan *FileScan, node *sitter.Node, ctx walkCtx) {
	pf := scan.File
	name := fieldText(pf, node, "name")
	if name == "" {
		return
	}
	extends, _ := heritageOf(pf, node)
	ownerIdx := x.emit(scan, model.Symbol{
		Name:          name,
		Kind:          model.KindInterface,
		Location:      locOf(pf, node),
		IsExported:    ctx.exported,
		Documentation: docOf(pf, node, ctx),
		Extends:       extends,
	})

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	owner := &scan.Symbols[ownerIdx]
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		memberName := fieldText(pf, member, "name")
		loc := locOf(pf, member)
		switch member.Type() {
		case "property_signature":
			mods, _ := modifiersOf(pf, member)
			owner.Properties = append(owner.Properties, model.Member{
				Name:      memberName,
				Kind:      model.KindProperty,
				TypeExpr:  declaredTypeText(pf, member.ChildByFieldName("type")),
				Modifiers: mods,
				Location:  loc,
			})
		case "method_signature":
			owner.Methods = append(owner.Methods, model.Member{
				Name:     memberName,
				Kind:     model.KindMethod,
				Location: loc,
			})
		case "construct_signature":
			owner.Constructors = append(owner.Constructors, model.Member{
				Name:     "new",
				Kind:     model.KindConstructor,
				Location: loc,
			})
		}
	}
}

// variableDecl handles lexical/variable declarations. Each declarator may
// produce a Variable symbol, a Function symbol (dynamic variant,
// function-valued), an ObjectLiteral pseudo-class (dynamic variant), or a
// Class symbol (bound class expression). Declared types feed the resolver's
// per-file view.
func (x *Extractor) variableDecl(scan *FileScan, node *sitter.Node, idx int, ctx walkCtx) {
	pf := scan.File
	for i := 0; i < int(node.NamedChildCount()); i++ {
		decl := node.NamedChild(i)
		if decl.Type() != "variable_declarator" {
			continue
		}
		declIdx := scan.arena.add(idx, nil)
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil || nameNode.Type() != "identifier" {
			// Destructuring patterns are anonymous for our purposes; still
			// walk the initializer for calls.
			x.walkValue(scan, decl, declIdx, ctx)
			continue
		}
		name := pf.Text(nameNode)
		typeExpr := declaredTypeText(pf, decl.ChildByFieldName("type"))
		value := decl.ChildByFieldName("value")
		if typeExpr == "" && value != nil && value.Type() == "new_expression" {
			if ctor := value.ChildByFieldName("constructor"); ctor != nil {
				typeExpr = constructorName(pf, ctor)
			}
		}
		if typeExpr != "" {
			scan.varTypes[name] = typeExpr
		}

		loc := locOf(pf, decl)
		doc := docOf(pf, node, ctx)

		switch {
		case value != nil && isFunctionValue(value) && pf.Variant == lang.VariantDynamic:
			mods, _ := modifiersOf(pf, value)
			x.emit(scan, model.Symbol{
				Name:          name,
				Kind:          model.KindFunction,
				Location:      loc,
				Modifiers:     mods,
				IsExported:    ctx.exported,
				Documentation: doc,
			})
			x.walkValue(scan, decl, declIdx, ctx)

		case value != nil && value.Type() == "object" && pf.Variant == lang.VariantDynamic:
			x.objectLiteral(scan, value, declIdx, name, loc, ctx, doc)

		case value != nil && value.Type() == "class":
			x.classLike(scan, value, declIdx, ctx, name)

		default:
			x.emit(scan, model.Symbol{
				Name:          name,
				Kind:          model.KindVariable,
				Location:      loc,
				IsExported:    ctx.exported,
				TypeExpr:      typeExpr,
				Documentation: doc,
			})
			x.walkValue(scan, decl, declIdx, ctx)
		}
	}
}

// walkValue walks a declarator's initializer subtree for expressions.
func (x *Extractor) walkValue(scan *FileScan, decl *sitter.Node, declIdx int, ctx walkCtx) {
	if value := decl.ChildByFieldName("value"); value != nil {
		x.walk(scan, value, declIdx, ctx)
	}
}

// objectLiteral extracts a dynamic-variant pseudo-class: an object literal
// assigned to a variable. Function-valued properties become Methods, the
// rest Properties.
func (x *Extractor) objectLiteral(scan *FileScan, obj *sitter.Node, parentIdx int, name string, loc model.Location, ctx walkCtx, doc string) {
	pf := scan.File
	ownerIdx := x.emit(scan, model.Symbol{
		Name:          name,
		Kind:          model.KindObjectLiteral,
		Location:      loc,
		IsExported:    ctx.exported,
		Documentation: doc,
	})
	objIdx := scan.arena.add(parentIdx, nil)
	memberCtx := walkCtx{className: name, ownerIdx: ownerIdx}

	for i := 0; i < int(obj.NamedChildCount()); i++ {
		entry := obj.NamedChild(i)
		switch entry.Type() {
		case "pair":
			key := fieldText(pf, entry, "key")
			value := entry.ChildByFieldName("value")
			if key == "" || value == nil {
				continue
			}
			key = strings.Trim(key, `"'`)
			entryIdx := scan.arena.add(objIdx, nil)
			entryLoc := locOf(pf, entry)
			if isFunctionValue(value) {
				x.emit(scan, model.Symbol{
					Name:      key,
					Kind:      model.KindMethod,
					Location:  entryLoc,
					ClassName: name,
				})
				// Re-index after emit: the append above may have grown the
				// symbol slice and moved the owner.
				owner := &scan.Symbols[ownerIdx]
				owner.Methods = append(owner.Methods, model.Member{
					Name: key, Kind: model.KindMethod, Location: entryLoc,
				})
				x.walk(scan, value, entryIdx, memberCtx)
			} else {
				x.emit(scan, model.Symbol{
					Name:      key,
					Kind:      model.KindProperty,
					Location:  entryLoc,
					ClassName: name,
				})
				owner := &scan.Symbols[ownerIdx]
				owner.Properties = append(owner.Properties, model.Member{
					Name: key, Kind: model.KindProperty, Location: entryLoc,
				})
				x.walk(scan, value, entryIdx, memberCtx)
			}
		case "method_definition":
			x.walk(scan, entry, objIdx, memberCtx)
		default:
			x.walk(scan, entry, objIdx, memberCtx)
		}
	}
}

// callerInfoFor classifies function-like nodes for the arena's caller walk.
// Returns nil for nodes that can never own a call.
func (x *Extractor) callerInfoFor(scan *FileScan, node *sitter.Node, ctx walkCtx) *callerInfo {
	pf := scan.File
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		name := fieldText(pf, node, "name")
		return &callerInfo{
			name:      name,
			kind:      model.ParticipantFunction,
			start:     startOf(node),
			anonymous: name == "",
		}

	case "method_definition", "abstract_method_signature":
		name := fieldText(pf, node, "name")
		kind := model.ParticipantMethod
		if name == "constructor" {
			kind = model.ParticipantConstructor
		}
		return &callerInfo{
			name:      name,
			kind:      kind,
			className: ctx.className,
			start:     startOf(node),
			anonymous: name == "",
		}

	case "arrow_function", "function", "function_expression":
		if p := node.Parent(); p != nil {
			switch p.Type() {
			case "variable_declarator":
				if nn := p.ChildByFieldName("name"); nn != nil && nn.Type() == "identifier" {
					return &callerInfo{
						name:  pf.Text(nn),
						kind:  model.ParticipantFunction,
						start: startOf(p),
					}
				}
			case "pair":
				if key := fieldText(pf, p, "key"); key != "" {
					return &callerInfo{
						name:      strings.Trim(key, `"'`),
						kind:      model.ParticipantMethod,
						className: ctx.className,
						start:     startOf(p),
					}
				}
			}
		}
		return &callerInfo{anonymous: true}
	}
	return nil
}

// recordableMember reports whether a member expression is a bare property
// access: not the target of a call, not the object of a longer chain, not an
// assignment target, and not a constructor reference.
func recordableMember(node *sitter.Node) bool {
	p := node.Parent()
	if p == nil {
		return true
	}
	switch p.Type() {
	case "call_expression":
		if fn := p.ChildByFieldName("function"); fn != nil && fn.Equal(node) {
			return false
		}
	case "member_expression":
		if obj := p.ChildByFieldName("object"); obj != nil && obj.Equal(node) {
			return false
		}
	case "assignment_expression":
		if left := p.ChildByFieldName("left"); left != nil && left.Equal(node) {
			return false
		}
	case "new_expression":
		if ctor := p.ChildByFieldName("constructor"); ctor != nil && ctor.Equal(node) {
			return false
		}
	}
	return true
}

func isFunctionValue(node *sitter.Node) bool {
	switch node.Type() {
	case "arrow_function", "function", "function_expression", "generator_function":
		return true
	}
	return false
}
