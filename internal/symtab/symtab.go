// Package symtab implements the global/scope/local/anonymous label
// namespace: an arena of scopes plus an arena of
// symbols, linked by index rather than pointer, so the graph of scopes
// referencing parents and symbols referencing scopes has no cycles to
// manage.
package symtab

import (
	"fmt"

	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

// SymbolKind tags what a Symbol represents.
type SymbolKind int

const (
	KindLabel SymbolKind = iota
	KindConstant
	KindMacro
	KindEnumMember
	KindScope
	KindProc
)

// AddressSpace distinguishes where a label's value lives.
type AddressSpace int

const (
	SpaceCode AddressSpace = iota
	SpaceRAM
	SpaceZeroPage
)

// Symbol is one entry in the table.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Value      int64
	Space      AddressSpace
	DefinedAt  source.Location
	Exported   bool
	Mutable    bool // true for `set`-defined constants
	ScopeIndex int
}

// scope is one entry in the scope arena.
type scope struct {
	name     string
	parent   int // -1 for the global scope
	symbols  map[string]int
	children []int
}

// anonEntry is one recorded anonymous-label PC, ordered by definition
// order within its enclosing non-local label.
type anonEntry struct {
	sign byte
	tag  string
	pc   int64
	loc  source.Location
}

// Table owns the scope arena, the symbol arena, and the per-non-local-
// label local/anonymous bookkeeping.
type Table struct {
	scopes  []scope
	symbols []Symbol
	cur     int // current scope index

	// localsByLabel maps the fully-qualified name of the enclosing
	// non-local label to its "@name" -> symbol-index table.
	localsByLabel map[string]map[string]int
	curLabel      string

	// anonByLabel maps the enclosing non-local label to the ordered list
	// of anonymous-label definitions seen so far within it.
	anonByLabel map[string][]anonEntry

	bag *diag.Bag
}

// New creates a Table with a single global scope.
func New(bag *diag.Bag) *Table {
	t := &Table{
		scopes:        []scope{{name: "", parent: -1, symbols: map[string]int{}}},
		localsByLabel: map[string]map[string]int{},
		anonByLabel:   map[string][]anonEntry{},
		bag:           bag,
	}
	return t
}

// PushScope enters a new nested scope (from `.scope`/`.proc`/macro
// expansion) and returns its index so the caller can pop back to the
// exact parent later.
func (t *Table) PushScope(name string) int {
	idx := len(t.scopes)
	t.scopes = append(t.scopes, scope{name: name, parent: t.cur, symbols: map[string]int{}})
	t.scopes[t.cur].children = append(t.scopes[t.cur].children, idx)
	t.cur = idx
	return idx
}

// EnterScope re-enters a scope previously created with PushScope, by
// index. Pass 2 uses this to walk the exact scopes pass 1 built instead
// of allocating fresh ones.
func (t *Table) EnterScope(idx int) {
	if idx >= 0 && idx < len(t.scopes) {
		t.cur = idx
	}
}

// PopScope returns to the parent of the current scope.
func (t *Table) PopScope() {
	if p := t.scopes[t.cur].parent; p >= 0 {
		t.cur = p
	}
}

// CurrentScope returns the active scope index.
func (t *Table) CurrentScope() int { return t.cur }

// EnterNonLocalLabel records name as the enclosing label for subsequent
// `@local` and anonymous-label definitions/references, until the next
// non-local label is entered.
func (t *Table) EnterNonLocalLabel(name string) {
	t.curLabel = name
	if _, ok := t.localsByLabel[name]; !ok {
		t.localsByLabel[name] = map[string]int{}
	}
}

// DefineLabel defines a global (non-local) label at the given address.
// Redefinition is always a DuplicateSymbol — labels are never `set`.
func (t *Table) DefineLabel(name string, value int64, space AddressSpace, loc source.Location, exported bool) {
	t.define(Symbol{Name: name, Kind: KindLabel, Value: value, Space: space, DefinedAt: loc, Exported: exported}, false)
}

// DefineLocalLabel defines "@name" scoped to the current enclosing
// non-local label. Before the first non-local label the file-level
// namespace ("") holds them, which is what macro-hygiene-renamed locals
// in top-level expansions land in.
func (t *Table) DefineLocalLabel(name string, value int64, loc source.Location) {
	table := t.localsByLabel[t.curLabel]
	if table == nil {
		table = map[string]int{}
		t.localsByLabel[t.curLabel] = table
	}
	key := t.curLabel + name
	if _, exists := table[key]; exists {
		t.bag.Add(diag.DuplicateSymbol, loc, "local label %q redefined", name)
		return
	}
	sym := Symbol{Name: key, Kind: KindLabel, Value: value, DefinedAt: loc, ScopeIndex: t.cur}
	idx := len(t.symbols)
	t.symbols = append(t.symbols, sym)
	table[key] = idx
}

// LookupLocalLabel resolves "@name" against the current enclosing label.
func (t *Table) LookupLocalLabel(name string, loc source.Location) (Symbol, bool) {
	sym, ok := t.TryLookupLocalLabel(name)
	if !ok {
		t.bag.Add(diag.UndefinedSymbol, loc, "undefined local label %q", name)
		return Symbol{}, false
	}
	return sym, true
}

// TryLookupLocalLabel is LookupLocalLabel without the diagnostics, for
// pass-1 probing where a forward local label may not be defined yet.
func (t *Table) TryLookupLocalLabel(name string) (Symbol, bool) {
	table := t.localsByLabel[t.curLabel]
	idx, ok := table[t.curLabel+name]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[idx], true
}

// DefineAnonLabel records an anonymous-label definition at pc, under the
// current enclosing non-local label. Before the first non-local label the
// chain is keyed to the file-level namespace ("").
func (t *Table) DefineAnonLabel(sign byte, tag string, pc int64, loc source.Location) {
	t.anonByLabel[t.curLabel] = append(t.anonByLabel[t.curLabel], anonEntry{sign: sign, tag: tag, pc: pc, loc: loc})
}

// ResolveAnon resolves the n-th `+`/`-` reference from referencePC: for
// '+', the n-th anonymous definition with pc strictly greater than
// referencePC; for '-', the n-th with pc strictly lesser, walking
// backward from the reference site.
func (t *Table) ResolveAnon(sign byte, count int, tag string, referencePC int64, loc source.Location) (int64, bool) {
	pc, ok := t.TryResolveAnon(sign, count, tag, referencePC)
	if !ok {
		t.bag.Add(diag.ScopeError, loc, "no matching anonymous label for %q", signRun(sign, count))
	}
	return pc, ok
}

// TryResolveAnon is ResolveAnon without the diagnostic, for pass-1
// probing where a forward reference simply hasn't been recorded yet.
func (t *Table) TryResolveAnon(sign byte, count int, tag string, referencePC int64) (int64, bool) {
	entries := t.anonByLabel[t.curLabel]
	if count < 1 {
		count = 1
	}
	if sign == '+' {
		found := 0
		for _, e := range entries {
			if e.tag == tag && e.pc > referencePC {
				found++
				if found == count {
					return e.pc, true
				}
			}
		}
	} else {
		found := 0
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if e.tag == tag && e.pc < referencePC {
				found++
				if found == count {
					return e.pc, true
				}
			}
		}
	}
	return 0, false
}

func signRun(sign byte, count int) string {
	b := make([]byte, count)
	for i := range b {
		b[i] = sign
	}
	return string(b)
}

// DefineConstant defines a one-shot (`=`/`define`/`equ`) or mutable
// (`set`) constant.
func (t *Table) DefineConstant(name string, value int64, loc source.Location, mutable bool) {
	t.define(Symbol{Name: name, Kind: KindConstant, Value: value, DefinedAt: loc, Mutable: mutable, ScopeIndex: t.cur}, mutable)
}

func (t *Table) define(sym Symbol, mutable bool) {
	scopeSyms := t.scopes[t.cur].symbols
	if idx, exists := scopeSyms[sym.Name]; exists {
		existing := t.symbols[idx]
		if existing.Mutable && mutable {
			t.symbols[idx] = sym
			return
		}
		t.bag.Add(diag.DuplicateSymbol, sym.Loc(), "symbol %q already defined at line %d", sym.Name, existing.DefinedAt.Line)
		return
	}
	idx := len(t.symbols)
	t.symbols = append(t.symbols, sym)
	scopeSyms[sym.Name] = idx
}

// Loc exposes the definition location for diagnostic formatting.
func (s Symbol) Loc() source.Location { return s.DefinedAt }

// Lookup resolves name starting at the current scope, walking outward to
// the global scope.
func (t *Table) Lookup(name string) (Symbol, bool) {
	for s := t.cur; s >= 0; s = t.scopes[s].parent {
		if idx, ok := t.scopes[s].symbols[name]; ok {
			return t.symbols[idx], true
		}
		if t.scopes[s].parent < 0 {
			break
		}
	}
	return Symbol{}, false
}

// All returns every defined symbol, for listing/debug-symbol export.
func (t *Table) All() []Symbol {
	return t.symbols
}

func (s Symbol) String() string {
	return fmt.Sprintf("%s=%d", s.Name, s.Value)
}
