package extract

import (
	"sync"

	"github.com/jward/trellis/internal/model"
)

// SymbolTable maps declaration names to the symbols seen so far, preserving
// table-insertion order per name. One table exists per analysis run (or per
// parallel chunk); it is never shared across separate Analyze calls.
//
// Lookup tie-break: a match in the querying file wins, otherwise the first
// match in insertion order. This is the deterministic rule chosen for the
// multi-candidate ambiguity — nearest file first, then first-declared.
type SymbolTable struct {
	mu     sync.RWMutex
	byName map[string][]*model.Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string][]*model.Symbol)}
}

// Insert registers a symbol under its name. Symbols must not be mutated after
// insertion.
func (t *SymbolTable) Insert(sym *model.Symbol) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[sym.Name] = append(t.byName[sym.Name], sym)
}

// LookupKind returns the best candidate for name among the given kinds (all
// kinds when none are given): same-file match first, else the first inserted.
// Returns nil when no candidate matches.
func (t *SymbolTable) LookupKind(name, fromFile string, kinds ...model.SymbolKind) *model.Symbol {
	return t.lookup(name, fromFile, kinds)
}

func (t *SymbolTable) lookup(name, fromFile string, kinds []model.SymbolKind) *model.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	candidates := t.byName[name]
	var first *model.Symbol
	for _, sym := range candidates {
		if len(kinds) > 0 && !kindIn(sym.Kind, kinds) {
			continue
		}
		if first == nil {
			first = sym
		}
		if fromFile != "" && sym.Location.FilePath == fromFile {
			return sym
		}
	}
	return first
}

// LookupMember returns a method, constructor, or property symbol declared on
// the named class or interface.
func (t *SymbolTable) LookupMember(name, className string) *model.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, sym := range t.byName[name] {
		if sym.ClassName != className {
			continue
		}
		switch sym.Kind {
		case model.KindMethod, model.KindConstructor, model.KindProperty:
			return sym
		}
	}
	return nil
}

// LookupPropertyOrVariable returns the first property or variable symbol with
// the given name anywhere in the table. This is the fallback for bare
// property accesses whose receiver type could not be resolved.
func (t *SymbolTable) LookupPropertyOrVariable(name string) *model.Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, sym := range t.byName[name] {
		if sym.Kind == model.KindProperty || sym.Kind == model.KindVariable {
			return sym
		}
	}
	return nil
}

func kindIn(k model.SymbolKind, kinds []model.SymbolKind) bool {
	for _, c := range kinds {
		if k == c {
			return true
		}
	}
	return false
}
