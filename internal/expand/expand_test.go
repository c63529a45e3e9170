package expand

import (
	"strings"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/parser"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

func expandSource(t *testing.T, text string) ([]*ast.Stmt, *diag.Bag) {
	t.Helper()
	reg := source.NewRegistry()
	f := reg.Add("/test.pasm", text)
	bag := &diag.Bag{}
	p := parser.New(lexer.New(f).Tokenize(), bag)
	stmts := p.ParseProgram()
	ex := New(bag)
	return ex.Expand(stmts), bag
}

func expandClean(t *testing.T, text string) []*ast.Stmt {
	t.Helper()
	stmts, bag := expandSource(t, text)
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	return stmts
}

// noUnexpanded asserts invariant that expansion output contains no macro
// call, conditional, repeat, or enum nodes.
func noUnexpanded(t *testing.T, stmts []*ast.Stmt) {
	t.Helper()
	for _, s := range stmts {
		switch s.Kind {
		case ast.StMacroInvoke, ast.StConditional, ast.StRepeat, ast.StEnum, ast.StMacroDef:
			t.Fatalf("unexpanded node of kind %d survived expansion", s.Kind)
		}
	}
}

func TestMacroExpansionSubstitutesParameters(t *testing.T) {
	stmts := expandClean(t, ".macro load v\nlda #v\n.endmacro\n@load 7")
	noUnexpanded(t, stmts)
	if len(stmts) != 1 {
		t.Fatalf("got %d stmts, want 1", len(stmts))
	}
	op := stmts[0].Inst.Operand
	if op.Kind != ast.ExprInt || op.IntVal != 7 {
		t.Fatalf("operand = %+v, want literal 7", op)
	}
}

func TestMacroDefaultParameter(t *testing.T) {
	stmts := expandClean(t, ".macro load v=9\nlda #v\n.endmacro\n@load")
	if op := stmts[0].Inst.Operand; op.IntVal != 9 {
		t.Fatalf("operand = %d, want default 9", op.IntVal)
	}
}

func TestMacroMissingRequiredArgument(t *testing.T) {
	_, bag := expandSource(t, ".macro load v\nlda #v\n.endmacro\n@load")
	if !bag.HasErrors() {
		t.Fatal("expected a MacroError for the missing argument")
	}
}

func TestMacroArgumentIsReparsedExpression(t *testing.T) {
	stmts := expandClean(t, ".macro load v\nlda #v\n.endmacro\n@load 2+3*4")
	op := stmts[0].Inst.Operand
	if op.Kind != ast.ExprBinary || op.BinOp != ast.BinAdd {
		t.Fatalf("operand = %+v, want the re-parsed 2+(3*4) tree", op)
	}
}

func TestMacroLocalLabelHygiene(t *testing.T) {
	stmts := expandClean(t, `.macro spin
@l:
bne @l
.endmacro
@spin
@spin`)
	var labels []string
	var refs []string
	for _, s := range stmts {
		switch s.Kind {
		case ast.StLocalLabel:
			labels = append(labels, s.Name)
		case ast.StInstruction:
			refs = append(refs, s.Inst.Operand.StrVal)
		}
	}
	if len(labels) != 2 || labels[0] == labels[1] {
		t.Fatalf("labels = %v, want two distinct renamed labels", labels)
	}
	for i := range labels {
		if refs[i] != labels[i] {
			t.Fatalf("ref %d = %q does not match its own label %q", i, refs[i], labels[i])
		}
	}
	for _, l := range labels {
		if !strings.HasPrefix(l, "@l__") {
			t.Fatalf("renamed label %q does not carry the hygiene suffix", l)
		}
	}
}

func TestUnknownMacro(t *testing.T) {
	_, bag := expandSource(t, "@nothere 1")
	if !bag.HasErrors() {
		t.Fatal("expected a MacroError for the unknown macro")
	}
}

func TestRecursionDepthBound(t *testing.T) {
	_, bag := expandSource(t, ".macro forever\n@forever\n.endmacro\n@forever")
	if !bag.HasErrors() {
		t.Fatal("expected a MacroError for exceeding the expansion depth")
	}
}

func TestConditionalTakesTrueBranch(t *testing.T) {
	stmts := expandClean(t, "mode = 2\n.if mode == 2\nsei\n.else\ncli\n.endif")
	var mnemonics []string
	for _, s := range stmts {
		if s.Kind == ast.StInstruction {
			mnemonics = append(mnemonics, s.Inst.Mnemonic)
		}
	}
	if len(mnemonics) != 1 || mnemonics[0] != "sei" {
		t.Fatalf("mnemonics = %v, want [sei]", mnemonics)
	}
}

func TestIfdefSeesPriorAssignments(t *testing.T) {
	stmts := expandClean(t, "flag = 1\n.ifdef flag\nnop\n.endif\n.ifndef other\nsei\n.endif")
	if len(stmts) != 3 { // assignment + nop + sei
		t.Fatalf("got %d stmts, want 3", len(stmts))
	}
}

func TestIfcmpVariants(t *testing.T) {
	stmts := expandClean(t, ".ifeq 1, 1\nnop\n.endif\n.ifgt 2, 1\nsei\n.endif\n.iflt 2, 1\ncli\n.endif")
	var mnemonics []string
	for _, s := range stmts {
		if s.Kind == ast.StInstruction {
			mnemonics = append(mnemonics, s.Inst.Mnemonic)
		}
	}
	if len(mnemonics) != 2 || mnemonics[0] != "nop" || mnemonics[1] != "sei" {
		t.Fatalf("mnemonics = %v, want [nop sei]", mnemonics)
	}
}

func TestRepeatUnrolls(t *testing.T) {
	stmts := expandClean(t, ".rept 3\nnop\n.endr")
	if len(stmts) != 3 {
		t.Fatalf("got %d stmts, want 3", len(stmts))
	}
	noUnexpanded(t, stmts)
}

func TestRepeatRenamesLocalsPerIteration(t *testing.T) {
	stmts := expandClean(t, ".rept 2\n@x:\n.endr")
	if len(stmts) != 2 || stmts[0].Name == stmts[1].Name {
		t.Fatalf("rept iterations share a local label name: %v", []string{stmts[0].Name, stmts[1].Name})
	}
}

func TestEnumNumbersMembers(t *testing.T) {
	stmts := expandClean(t, ".enum $80\nfirst\nsecond\nthird\n.ende")
	if len(stmts) != 3 {
		t.Fatalf("got %d stmts, want 3", len(stmts))
	}
	wants := []int64{0x80, 0x81, 0x82}
	for i, s := range stmts {
		if s.Kind != ast.StAssignment || s.Value.IntVal != wants[i] {
			t.Fatalf("member %d = %+v, want value %#x", i, s, wants[i])
		}
	}
}

func TestPredefineVisibleToIfdef(t *testing.T) {
	reg := source.NewRegistry()
	f := reg.Add("/test.pasm", ".ifdef DEBUG\nnop\n.endif")
	bag := &diag.Bag{}
	p := parser.New(lexer.New(f).Tokenize(), bag)
	stmts := p.ParseProgram()
	ex := New(bag)
	ex.Predefine("DEBUG", 1)
	out := ex.Expand(stmts)
	if len(out) != 1 || out[0].Inst.Mnemonic != "nop" {
		t.Fatalf("predefined symbol invisible to .ifdef: %+v", out)
	}
}

func TestExpansionSiteChain(t *testing.T) {
	stmts := expandClean(t, ".macro one\nnop\n.endmacro\n@one")
	if stmts[0].Expansion == nil {
		t.Fatal("expanded statement lost its expansion-site chain")
	}
}
