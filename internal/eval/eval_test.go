package eval

import (
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

func loc() source.Location { return source.Location{Line: 1, Column: 1} }

func env(mode Mode) (*Env, *diag.Bag) {
	bag := &diag.Bag{}
	return &Env{Symtab: symtab.New(bag), Bag: bag, Mode: mode}, bag
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		e    *ast.Expr
		want int64
	}{
		{"add", ast.Binary(loc(), ast.BinAdd, ast.Int(loc(), 2), ast.Int(loc(), 3)), 5},
		{"sub", ast.Binary(loc(), ast.BinSub, ast.Int(loc(), 2), ast.Int(loc(), 3)), -1},
		{"mul", ast.Binary(loc(), ast.BinMul, ast.Int(loc(), -4), ast.Int(loc(), 3)), -12},
		{"div truncates toward zero", ast.Binary(loc(), ast.BinDiv, ast.Int(loc(), -7), ast.Int(loc(), 2)), -3},
		{"shl", ast.Binary(loc(), ast.BinShl, ast.Int(loc(), 1), ast.Int(loc(), 12)), 4096},
		{"and", ast.Binary(loc(), ast.BinAnd, ast.Int(loc(), 0xf0), ast.Int(loc(), 0x3c)), 0x30},
		{"logical and", ast.Binary(loc(), ast.BinLAnd, ast.Int(loc(), 5), ast.Int(loc(), 0)), 0},
		{"comparison", ast.Binary(loc(), ast.BinLe, ast.Int(loc(), 3), ast.Int(loc(), 3)), 1},
		{"neg", ast.Unary(loc(), ast.UnNeg, ast.Int(loc(), 9)), -9},
		{"bitnot", ast.Unary(loc(), ast.UnBitNot, ast.Int(loc(), 0)), -1},
		{"not", ast.Unary(loc(), ast.UnNot, ast.Int(loc(), 0)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, bag := env(Final)
			res := Eval(tt.e, e)
			if bag.HasErrors() {
				t.Fatalf("errors: %v", bag.Errors())
			}
			if !res.Resolved || res.Value != tt.want {
				t.Fatalf("got %d (resolved=%v), want %d", res.Value, res.Resolved, tt.want)
			}
		})
	}
}

func TestAddressByteExtractors(t *testing.T) {
	addr := ast.Int(loc(), 0x7e1234)
	tests := []struct {
		op   ast.UnaryOp
		want int64
	}{
		{ast.UnLowByte, 0x34},
		{ast.UnHighByte, 0x12},
		{ast.UnBankByte, 0x7e},
	}
	for _, tt := range tests {
		e, _ := env(Final)
		res := Eval(ast.Unary(loc(), tt.op, addr), e)
		if res.Value != tt.want {
			t.Fatalf("extractor %d = %#x, want %#x", tt.op, res.Value, tt.want)
		}
	}
}

func TestDivisionByZero(t *testing.T) {
	e, bag := env(Final)
	res := Eval(ast.Binary(loc(), ast.BinDiv, ast.Int(loc(), 1), ast.Int(loc(), 0)), e)
	if res.Resolved {
		t.Fatal("division by zero must not resolve")
	}
	if !bag.HasErrors() {
		t.Fatal("expected an EvalError")
	}
}

func TestStringInArithmeticIsTypeError(t *testing.T) {
	e, bag := env(Final)
	Eval(ast.Binary(loc(), ast.BinAdd, ast.Str(loc(), "x"), ast.Int(loc(), 1)), e)
	if !bag.HasErrors() {
		t.Fatal("expected a TypeError")
	}
}

func TestPCReference(t *testing.T) {
	e, _ := env(Final)
	e.PC = 0x8010
	res := Eval(ast.PC(loc()), e)
	if res.Value != 0x8010 {
		t.Fatalf("* = %#x, want 0x8010", res.Value)
	}
}

func TestSymbolResolution(t *testing.T) {
	e, bag := env(Final)
	e.Symtab.DefineConstant("width", 32, loc(), false)
	res := Eval(ast.Sym(loc(), "width"), e)
	if res.Value != 32 {
		t.Fatalf("width = %d", res.Value)
	}
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Errors())
	}
}

func TestUndefinedSymbolQuietInConstantOnlyMode(t *testing.T) {
	e, bag := env(ConstantOnly)
	res := Eval(ast.Sym(loc(), "later"), e)
	if res.Resolved {
		t.Fatal("unknown symbol resolved in pass 1")
	}
	if bag.HasErrors() {
		t.Fatal("pass-1 probing must not record diagnostics")
	}
}

func TestUndefinedSymbolReportsInFinalMode(t *testing.T) {
	e, bag := env(Final)
	Eval(ast.Sym(loc(), "nowhere"), e)
	if !bag.HasErrors() {
		t.Fatal("expected an UndefinedSymbol")
	}
}

func TestCharLiteralActsAsInteger(t *testing.T) {
	e, _ := env(Final)
	res := Eval(ast.Binary(loc(), ast.BinAdd, ast.Chr(loc(), 'A'), ast.Int(loc(), 1)), e)
	if res.Value != 'B' {
		t.Fatalf("'A'+1 = %d, want %d", res.Value, 'B')
	}
}

// TestAgainstReferenceEvaluation cross-checks random-ish expression
// trees against a direct Go evaluation of the same shape.
func TestAgainstReferenceEvaluation(t *testing.T) {
	vals := []int64{0, 1, -1, 127, -128, 255, 4096, -4097}
	ops := []struct {
		op ast.BinaryOp
		fn func(a, b int64) int64
	}{
		{ast.BinAdd, func(a, b int64) int64 { return a + b }},
		{ast.BinSub, func(a, b int64) int64 { return a - b }},
		{ast.BinMul, func(a, b int64) int64 { return a * b }},
		{ast.BinAnd, func(a, b int64) int64 { return a & b }},
		{ast.BinOr, func(a, b int64) int64 { return a | b }},
		{ast.BinXor, func(a, b int64) int64 { return a ^ b }},
	}
	for _, a := range vals {
		for _, b := range vals {
			for _, op := range ops {
				e, _ := env(Final)
				res := Eval(ast.Binary(loc(), op.op, ast.Int(loc(), a), ast.Int(loc(), b)), e)
				if want := op.fn(a, b); res.Value != want {
					t.Fatalf("op %d on (%d,%d) = %d, want %d", op.op, a, b, res.Value, want)
				}
			}
		}
	}
}
