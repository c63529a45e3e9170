// Package eval folds expression trees into 64-bit integers. It runs in
// two modes: ConstantOnly (pass 1, where only
// constants and already-known symbols may appear) and Final (pass 2,
// where every symbol is bound and PC references resolve to their
// emission-site address).
package eval

import (
	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// Mode selects how aggressively the evaluator may fail on an unresolved
// reference.
type Mode int

const (
	ConstantOnly Mode = iota
	Final
)

// Env supplies everything the evaluator needs beyond the expression tree
// itself: the symbol table, the PC at the referencing site (for `*` and
// anonymous-label resolution), and where to report problems.
type Env struct {
	Symtab *symtab.Table
	PC     int64
	Bag    *diag.Bag
	Mode   Mode
}

// Result is the outcome of folding an expression: either a resolved
// integer value, or (in ConstantOnly mode) an indication that the
// expression depends on something not yet known.
type Result struct {
	Value    int64
	Resolved bool
	IsString bool
	Str      string
}

// Eval folds e under env. On failure it returns a zero Result with
// Resolved=false and records a diagnostic, except that in ConstantOnly
// mode a reference to a symbol, local label or anonymous label that is
// not defined yet fails quietly.
func Eval(e *ast.Expr, env *Env) Result {
	if e == nil {
		return Result{Resolved: true}
	}
	switch e.Kind {
	case ast.ExprInt, ast.ExprChar:
		return Result{Value: e.IntVal, Resolved: true}
	case ast.ExprString:
		return Result{IsString: true, Str: e.StrVal, Resolved: true}
	case ast.ExprSymbol:
		return evalSymbol(e, env)
	case ast.ExprPC:
		return Result{Value: env.PC, Resolved: true}
	case ast.ExprAnon:
		if env.Mode == ConstantOnly {
			// A forward chain may not be recorded yet in pass 1; stay quiet
			// and let the width fallback pick the safe form.
			pc, ok := env.Symtab.TryResolveAnon(e.AnonSign, e.AnonCount, e.AnonTag, env.PC)
			if !ok {
				return Result{}
			}
			return Result{Value: pc, Resolved: true}
		}
		pc, ok := env.Symtab.ResolveAnon(e.AnonSign, e.AnonCount, e.AnonTag, env.PC, e.Loc)
		if !ok {
			return Result{}
		}
		return Result{Value: pc, Resolved: true}
	case ast.ExprGroup:
		return Eval(e.X, env)
	case ast.ExprUnary:
		return evalUnary(e, env)
	case ast.ExprBinary:
		return evalBinary(e, env)
	}
	env.Bag.Add(diag.InternalError, e.Loc, "unhandled expression kind %d", e.Kind)
	return Result{}
}

func evalSymbol(e *ast.Expr, env *Env) Result {
	if e.StrVal != "" && e.StrVal[0] == '@' {
		if env.Mode == ConstantOnly {
			sym, ok := env.Symtab.TryLookupLocalLabel(e.StrVal)
			if !ok {
				return Result{}
			}
			return Result{Value: sym.Value, Resolved: true}
		}
		sym, ok := env.Symtab.LookupLocalLabel(e.StrVal, e.Loc)
		if !ok {
			return Result{}
		}
		return Result{Value: sym.Value, Resolved: true}
	}
	sym, ok := env.Symtab.Lookup(e.StrVal)
	if !ok {
		if env.Mode == ConstantOnly {
			return Result{}
		}
		env.Bag.Add(diag.UndefinedSymbol, e.Loc, "undefined symbol %q", e.StrVal)
		return Result{}
	}
	return Result{Value: sym.Value, Resolved: true}
}

func evalUnary(e *ast.Expr, env *Env) Result {
	x := Eval(e.X, env)
	if !x.Resolved {
		return Result{}
	}
	if x.IsString {
		env.Bag.Add(diag.TypeError, e.Loc, "string used in arithmetic context")
		return Result{}
	}
	switch e.UnOp {
	case ast.UnNeg:
		return Result{Value: -x.Value, Resolved: true}
	case ast.UnNot:
		return Result{Value: boolInt(x.Value == 0), Resolved: true}
	case ast.UnBitNot:
		return Result{Value: ^x.Value, Resolved: true}
	case ast.UnLowByte:
		return Result{Value: x.Value & 0xff, Resolved: true}
	case ast.UnHighByte:
		return Result{Value: (x.Value >> 8) & 0xff, Resolved: true}
	case ast.UnBankByte:
		return Result{Value: (x.Value >> 16) & 0xff, Resolved: true}
	}
	env.Bag.Add(diag.InternalError, e.Loc, "unhandled unary operator %d", e.UnOp)
	return Result{}
}

func evalBinary(e *ast.Expr, env *Env) Result {
	l := Eval(e.L, env)
	if !l.Resolved {
		return Result{}
	}
	r := Eval(e.R, env)
	if !r.Resolved {
		return Result{}
	}
	if l.IsString || r.IsString {
		env.Bag.Add(diag.TypeError, e.Loc, "string used in arithmetic context")
		return Result{}
	}
	a, b := l.Value, r.Value
	switch e.BinOp {
	case ast.BinAdd:
		return Result{Value: a + b, Resolved: true}
	case ast.BinSub:
		return Result{Value: a - b, Resolved: true}
	case ast.BinMul:
		return Result{Value: a * b, Resolved: true}
	case ast.BinDiv:
		if b == 0 {
			env.Bag.Add(diag.EvalError, e.Loc, "division by zero")
			return Result{}
		}
		return Result{Value: a / b, Resolved: true}
	case ast.BinAnd:
		return Result{Value: a & b, Resolved: true}
	case ast.BinOr:
		return Result{Value: a | b, Resolved: true}
	case ast.BinXor:
		return Result{Value: a ^ b, Resolved: true}
	case ast.BinShl:
		return Result{Value: a << uint(b), Resolved: true}
	case ast.BinShr:
		return Result{Value: a >> uint(b), Resolved: true}
	case ast.BinLAnd:
		return Result{Value: boolInt(a != 0 && b != 0), Resolved: true}
	case ast.BinLOr:
		return Result{Value: boolInt(a != 0 || b != 0), Resolved: true}
	case ast.BinEq:
		return Result{Value: boolInt(a == b), Resolved: true}
	case ast.BinNe:
		return Result{Value: boolInt(a != b), Resolved: true}
	case ast.BinLt:
		return Result{Value: boolInt(a < b), Resolved: true}
	case ast.BinLe:
		return Result{Value: boolInt(a <= b), Resolved: true}
	case ast.BinGt:
		return Result{Value: boolInt(a > b), Resolved: true}
	case ast.BinGe:
		return Result{Value: boolInt(a >= b), Resolved: true}
	}
	env.Bag.Add(diag.InternalError, e.Loc, "unhandled binary operator %d", e.BinOp)
	return Result{}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
