package listing

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/codegen"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

func fixture(t *testing.T) (*codegen.Image, *symtab.Table, *source.Registry) {
	t.Helper()
	reg := source.NewRegistry()
	f := reg.Add("/game.pasm", "lda #$42\nrts\n")

	bag := &diag.Bag{}
	st := symtab.New(bag)
	st.DefineLabel("start", 0x8000, symtab.SpaceCode, source.Location{File: f.ID, Line: 1, Column: 1}, true)

	img := &codegen.Image{Base: 0x8000, Bytes: []byte{0xa9, 0x42, 0x60}}
	img.Entries = []codegen.Entry{
		{
			Stmt:  &ast.Stmt{Kind: ast.StInstruction, Loc: source.Location{File: f.ID, Line: 1, Column: 1}},
			Addr:  0x8000,
			Bytes: []byte{0xa9, 0x42},
		},
		{
			Stmt:  &ast.Stmt{Kind: ast.StInstruction, Loc: source.Location{File: f.ID, Line: 2, Column: 1}},
			Addr:  0x8002,
			Bytes: []byte{0x60},
		},
	}
	return img, st, reg
}

func TestListingContainsAddressBytesAndSource(t *testing.T) {
	img, st, reg := fixture(t)
	var buf bytes.Buffer
	if err := Write(&buf, "demo", "1.0.0", img, st, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "demo v1.0.0") {
		t.Fatalf("header missing project identity:\n%s", out)
	}
	if !strings.Contains(out, "$8000") || !strings.Contains(out, "A9 42") {
		t.Fatalf("listing missing the first instruction line:\n%s", out)
	}
	if !strings.Contains(out, "lda #$42") {
		t.Fatalf("listing missing the source text:\n%s", out)
	}
	if !strings.Contains(out, "start") {
		t.Fatalf("listing missing the symbol table:\n%s", out)
	}
	if !strings.Contains(out, "/game.pasm") {
		t.Fatalf("listing missing the source file list:\n%s", out)
	}
}

func TestLongDataSpansContinuationLines(t *testing.T) {
	reg := source.NewRegistry()
	f := reg.Add("/d.pasm", ".byte 0,1,2,3,4,5,6,7,8,9\n")
	bag := &diag.Bag{}
	st := symtab.New(bag)

	img := &codegen.Image{Base: 0, Bytes: make([]byte, 10)}
	img.Entries = []codegen.Entry{{
		Stmt:  &ast.Stmt{Kind: ast.StData, Loc: source.Location{File: f.ID, Line: 1, Column: 1}},
		Addr:  0,
		Bytes: []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, "", "", img, st, reg); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "$0000") || !strings.Contains(out, "$0008") {
		t.Fatalf("continuation line missing:\n%s", out)
	}
}

func TestMapGroupsBySpace(t *testing.T) {
	bag := &diag.Bag{}
	st := symtab.New(bag)
	loc := source.Location{Line: 1, Column: 1}
	st.DefineLabel("code1", 0x8000, symtab.SpaceCode, loc, true)
	st.DefineLabel("ram1", 0x0300, symtab.SpaceRAM, loc, false)
	st.DefineLabel("zp1", 0x10, symtab.SpaceZeroPage, loc, false)

	var buf bytes.Buffer
	if err := WriteMap(&buf, "demo", st); err != nil {
		t.Fatalf("WriteMap: %v", err)
	}
	out := buf.String()
	zpIdx := strings.Index(out, "; ZEROPAGE")
	ramIdx := strings.Index(out, "; RAM")
	romIdx := strings.Index(out, "; ROM")
	if zpIdx < 0 || ramIdx < 0 || romIdx < 0 {
		t.Fatalf("missing a space group:\n%s", out)
	}
	if !(zpIdx < ramIdx && ramIdx < romIdx) {
		t.Fatalf("groups out of order:\n%s", out)
	}
}
