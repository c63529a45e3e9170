package analyze

import (
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

func loc() source.Location { return source.Location{Line: 1, Column: 1} }

func inst(mnemonic string, mode ast.AddrSyntax, operand *ast.Expr) *ast.Stmt {
	return &ast.Stmt{
		Kind: ast.StInstruction,
		Loc:  loc(),
		Inst: ast.Instruction{Mnemonic: mnemonic, Addr: mode, Operand: operand},
	}
}

func TestZeroPageOptimization(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	a := New(bag, st, "6502", nil)

	small := inst("sta", ast.AddrDirect, ast.Int(loc(), 0x10))
	large := inst("sta", ast.AddrDirect, ast.Int(loc(), 0x1234))

	a.Run([]*ast.Stmt{small, large})

	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	if small.Inst.Width != 1 {
		t.Errorf("sta $10 should collapse to a 1-byte zero-page operand, got width %d", small.Inst.Width)
	}
	if small.Len != 2 {
		t.Errorf("sta $10 should be 2 bytes total, got %d", small.Len)
	}
	if large.Inst.Width != 2 {
		t.Errorf("sta $1234 should take the 2-byte absolute operand, got width %d", large.Inst.Width)
	}
	if large.Len != 3 {
		t.Errorf("sta $1234 should be 3 bytes total, got %d", large.Len)
	}
	if large.PC != 2 {
		t.Errorf("second instruction should start at PC=2, got %d", large.PC)
	}
}

func TestOrgAdvancesPC(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	a := New(bag, st, "6502", nil)

	org := &ast.Stmt{Kind: ast.StDirective, Loc: loc(), Directive: "org", Args: []*ast.Expr{ast.Int(loc(), 0x8000)}}
	label := &ast.Stmt{Kind: ast.StLabel, Loc: loc(), Name: "start"}

	a.Run([]*ast.Stmt{org, label})

	sym, ok := st.Lookup("start")
	if !ok {
		t.Fatal("label 'start' was not defined")
	}
	if sym.Value != 0x8000 {
		t.Errorf("expected start=0x8000, got 0x%x", sym.Value)
	}
}

func TestRepSepInvalidatesUnknownFlagState(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	a := New(bag, st, "65816", nil)

	// A non-literal SEP operand can't be tracked in pass 1.
	sep := inst("sep", ast.AddrImmediate, ast.Sym(loc(), "undefined_const"))
	a.Run([]*ast.Stmt{sep})

	if a.state.FlagsKnown {
		t.Error("flag state should be unknown after a non-constant sep")
	}
}

func TestPlatformSelectorPicksArch(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	a := New(bag, st, "", nil)

	nesDir := &ast.Stmt{Kind: ast.StDirective, Loc: loc(), Directive: "nes"}
	a.Run([]*ast.Stmt{nesDir})

	if a.Descriptor() == nil || a.Descriptor().Name != "6502" {
		t.Fatalf("expected .nes to select the 6502 descriptor, got %v", a.Descriptor())
	}
	if a.Meta.Platform != "nes" {
		t.Errorf("expected platform metadata 'nes', got %q", a.Meta.Platform)
	}
}

func TestHeaderFieldCapture(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	a := New(bag, st, "6502", nil)

	mapper := &ast.Stmt{Kind: ast.StDirective, Loc: loc(), Directive: "ines_mapper", Args: []*ast.Expr{ast.Int(loc(), 4)}}
	title := &ast.Stmt{Kind: ast.StDirective, Loc: loc(), Directive: "snes_title", Args: []*ast.Expr{ast.Str(loc(), "TEST GAME")}}
	a.Run([]*ast.Stmt{mapper, title})

	if a.Meta.Ints["ines_mapper"] != 4 {
		t.Errorf("expected ines_mapper=4, got %d", a.Meta.Ints["ines_mapper"])
	}
	if a.Meta.Strs["snes_title"] != "TEST GAME" {
		t.Errorf("expected snes_title captured, got %q", a.Meta.Strs["snes_title"])
	}
}
