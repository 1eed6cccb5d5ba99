package extract

import (
	"github.com/jward/trellis/internal/model"
)

// ResolveCalls matches the expressions collected during extraction against
// the symbol table and returns the file's call relations. Resolution is
// best-effort: a callee that cannot be matched still yields a relation with
// whatever identity is known, while an expression with no named enclosing
// declaration yields nothing at all.
//
// ResolveCalls must run while the scan's ParsedFile is still open, and only
// after every file in the current scheduling unit has been extracted — the
// table holds all symbols seen so far, so later-unit symbols stay unresolved
// by design.
func (x *Extractor) ResolveCalls(scan *FileScan) []model.CallRelation {
	var relations []model.CallRelation
	for _, expr := range scan.exprs {
		caller := scan.arena.enclosingCaller(expr.arenaIdx)
		if caller == nil {
			continue // top-level expression: no relation
		}
		callerPart := model.CallParticipant{
			Name:      caller.name,
			ID:        model.SymbolID(caller.name, scan.File.Path, caller.start),
			ClassName: caller.className,
			FilePath:  scan.File.Path,
			Kind:      caller.kind,
		}

		var (
			callee model.CallParticipant
			ok     bool
		)
		switch expr.kind {
		case exprCall:
			callee, ok = x.resolveCallCallee(scan, expr)
		case exprConstruct:
			callee, ok = x.resolveConstructCallee(scan, expr)
		case exprMember:
			callee, ok = x.resolvePropertyCallee(scan, expr)
		}
		if !ok {
			continue
		}

		relations = append(relations, model.CallRelation{
			Caller:   callerPart,
			Callee:   callee,
			CallType: callee.Kind,
			Location: locOf(scan.File, expr.node),
		})
	}
	return relations
}

// resolveCallCallee handles `f(...)` and `obj.method(...)`.
func (x *Extractor) resolveCallCallee(scan *FileScan, expr pendingExpr) (model.CallParticipant, bool) {
	fn := expr.node.ChildByFieldName("function")
	if fn == nil {
		return model.CallParticipant{}, false
	}

	switch fn.Type() {
	case "identifier":
		name := scan.File.Text(fn)
		callee := model.CallParticipant{Name: name, Kind: model.ParticipantFunction}
		if sym := x.table.LookupKind(name, scan.File.Path, model.KindFunction); sym != nil {
			callee.ID = sym.ID
			callee.FilePath = sym.Location.FilePath
		}
		return callee, true

	case "member_expression":
		method := fieldText(scan.File, fn, "property")
		if method == "" {
			return model.CallParticipant{}, false
		}
		callee := model.CallParticipant{Name: method, Kind: model.ParticipantMethod}
		obj := fn.ChildByFieldName("object")
		if className, resolved := x.types.resolveExpr(scan, obj, expr.arenaIdx); resolved {
			// A failed resolution still records the relation, just without a
			// declaring class.
			callee.ClassName = className
			if sym := x.table.LookupMember(method, className); sym != nil {
				callee.ID = sym.ID
				callee.FilePath = sym.Location.FilePath
			}
		}
		return callee, true
	}

	return model.CallParticipant{}, false
}

// resolveConstructCallee handles `new X(...)`.
func (x *Extractor) resolveConstructCallee(scan *FileScan, expr pendingExpr) (model.CallParticipant, bool) {
	ctor := expr.node.ChildByFieldName("constructor")
	if ctor == nil {
		return model.CallParticipant{}, false
	}
	name := constructorName(scan.File, ctor)
	if name == "" {
		return model.CallParticipant{}, false
	}
	callee := model.CallParticipant{
		Name:      name,
		ClassName: name,
		Kind:      model.ParticipantConstructor,
	}
	if sym := x.table.LookupKind(name, scan.File.Path, model.KindClass, model.KindObjectLiteral); sym != nil {
		callee.ID = sym.ID
		callee.FilePath = sym.Location.FilePath
	}
	return callee, true
}

// resolvePropertyCallee handles a bare `obj.prop` access: search the resolved
// class or interface member list first, then fall back to any property or
// variable symbol with that name anywhere in the table.
func (x *Extractor) resolvePropertyCallee(scan *FileScan, expr pendingExpr) (model.CallParticipant, bool) {
	prop := fieldText(scan.File, expr.node, "property")
	if prop == "" {
		return model.CallParticipant{}, false
	}
	callee := model.CallParticipant{Name: prop, Kind: model.ParticipantProperty}

	obj := expr.node.ChildByFieldName("object")
	if className, resolved := x.types.resolveExpr(scan, obj, expr.arenaIdx); resolved && IsCustomType(className) {
		callee.ClassName = className
		if owner := x.table.LookupKind(className, scan.File.Path, model.KindClass, model.KindInterface, model.KindObjectLiteral); owner != nil {
			if member := findMember(owner, prop); member != nil {
				callee.ID = model.SymbolID(member.Name, owner.Location.FilePath, member.Location.Start)
				callee.FilePath = owner.Location.FilePath
				return callee, true
			}
		}
	}

	if sym := x.table.LookupPropertyOrVariable(prop); sym != nil {
		callee.ID = sym.ID
		callee.FilePath = sym.Location.FilePath
	}
	return callee, true
}

func findMember(owner *model.Symbol, name string) *model.Member {
	for i := range owner.Properties {
		if owner.Properties[i].Name == name {
			return &owner.Properties[i]
		}
	}
	for i := range owner.Methods {
		if owner.Methods[i].Name == name {
			return &owner.Methods[i]
		}
	}
	return nil
}
