package symtab

import (
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

func loc() source.Location { return source.Location{Line: 1, Column: 1} }

func TestDefineAndLookup(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineLabel("start", 0x8000, SpaceCode, loc(), true)
	sym, ok := st.Lookup("start")
	if !ok || sym.Value != 0x8000 || sym.Kind != KindLabel {
		t.Fatalf("start = %+v, ok=%v", sym, ok)
	}
}

func TestDuplicateLabelIsError(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineLabel("x", 1, SpaceCode, loc(), false)
	st.DefineLabel("x", 2, SpaceCode, loc(), false)
	if !bag.HasErrors() {
		t.Fatal("expected DuplicateSymbol")
	}
}

func TestSetAllowsRedefinition(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineConstant("counter", 1, loc(), true)
	st.DefineConstant("counter", 2, loc(), true)
	if bag.HasErrors() {
		t.Fatalf("set redefinition must be legal: %v", bag.Errors())
	}
	sym, _ := st.Lookup("counter")
	if sym.Value != 2 {
		t.Fatalf("counter = %d, want 2", sym.Value)
	}
}

func TestOneShotRedefinitionIsError(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineConstant("k", 1, loc(), false)
	st.DefineConstant("k", 2, loc(), false)
	if !bag.HasErrors() {
		t.Fatal("expected DuplicateSymbol for one-shot redefinition")
	}
}

func TestScopedLookupFallsBackOutward(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineConstant("global", 1, loc(), false)
	st.PushScope("inner")
	st.DefineConstant("local", 2, loc(), false)

	if sym, ok := st.Lookup("global"); !ok || sym.Value != 1 {
		t.Fatal("inner scope cannot see the global constant")
	}
	if sym, ok := st.Lookup("local"); !ok || sym.Value != 2 {
		t.Fatal("inner scope cannot see its own constant")
	}
	st.PopScope()
	if _, ok := st.Lookup("local"); ok {
		t.Fatal("scoped constant leaked into the global scope")
	}
}

func TestLocalLabelsKeyedByEnclosingLabel(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.EnterNonLocalLabel("first")
	st.DefineLocalLabel("@x", 10, loc())
	st.EnterNonLocalLabel("second")
	st.DefineLocalLabel("@x", 20, loc())
	if bag.HasErrors() {
		t.Fatalf("same local name under different labels must be legal: %v", bag.Errors())
	}
	sym, ok := st.LookupLocalLabel("@x", loc())
	if !ok || sym.Value != 20 {
		t.Fatalf("@x under second = %+v", sym)
	}
	st.EnterNonLocalLabel("first")
	sym, ok = st.LookupLocalLabel("@x", loc())
	if !ok || sym.Value != 10 {
		t.Fatalf("@x under first = %+v", sym)
	}
}

func TestAnonymousForwardAndBackward(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.EnterNonLocalLabel("routine")
	st.DefineAnonLabel('+', "", 0x10, loc())
	st.DefineAnonLabel('+', "", 0x20, loc())
	st.DefineAnonLabel('-', "", 0x30, loc())

	if pc, ok := st.TryResolveAnon('+', 1, "", 0x15); !ok || pc != 0x20 {
		t.Fatalf("+ from 0x15 = %#x ok=%v, want 0x20", pc, ok)
	}
	if pc, ok := st.TryResolveAnon('+', 2, "", 0x05); !ok || pc != 0x20 {
		t.Fatalf("++ from 0x05 = %#x ok=%v, want 0x20", pc, ok)
	}
	if pc, ok := st.TryResolveAnon('-', 1, "", 0x25); !ok || pc != 0x20 {
		t.Fatalf("- from 0x25 = %#x ok=%v, want 0x20", pc, ok)
	}
	if pc, ok := st.TryResolveAnon('-', 2, "", 0x35); !ok || pc != 0x20 {
		t.Fatalf("-- from 0x35 = %#x ok=%v, want 0x20", pc, ok)
	}
}

func TestAnonymousTagsResolveIndependently(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.EnterNonLocalLabel("routine")
	st.DefineAnonLabel('+', "", 0x10, loc())
	st.DefineAnonLabel('+', "loop", 0x20, loc())

	if pc, ok := st.TryResolveAnon('+', 1, "loop", 0x00); !ok || pc != 0x20 {
		t.Fatalf("+loop = %#x ok=%v, want 0x20", pc, ok)
	}
	if pc, ok := st.TryResolveAnon('+', 1, "", 0x00); !ok || pc != 0x10 {
		t.Fatalf("bare + = %#x ok=%v, want 0x10", pc, ok)
	}
}

func TestAnonymousUnmatchedReferenceReports(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.EnterNonLocalLabel("routine")
	if _, ok := st.ResolveAnon('+', 1, "", 0x100, loc()); ok {
		t.Fatal("resolved a reference with no targets")
	}
	if !bag.HasErrors() {
		t.Fatal("expected a ScopeError")
	}
}

func TestAnonymousChainResetNotSharedAcrossLabels(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.EnterNonLocalLabel("a")
	st.DefineAnonLabel('+', "", 0x10, loc())
	st.EnterNonLocalLabel("b")
	if _, ok := st.TryResolveAnon('-', 1, "", 0x100); ok {
		t.Fatal("anonymous chain leaked across non-local labels")
	}
}

func TestFileLevelAnonymousChain(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineAnonLabel('+', "", 0x8006, loc())
	if pc, ok := st.TryResolveAnon('+', 1, "", 0x8002); !ok || pc != 0x8006 {
		t.Fatalf("file-level + = %#x ok=%v, want 0x8006", pc, ok)
	}
}

func TestAllReturnsEverySymbol(t *testing.T) {
	bag := &diag.Bag{}
	st := New(bag)
	st.DefineLabel("a", 1, SpaceCode, loc(), false)
	st.DefineConstant("b", 2, loc(), false)
	if n := len(st.All()); n != 2 {
		t.Fatalf("All() = %d symbols, want 2", n)
	}
}
