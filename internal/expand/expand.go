// Package expand rewrites a parsed statement tree into a macro-free,
// conditional-free flat sequence. It runs between the
// parser and the semantic analyzer.
package expand

import (
	"fmt"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/eval"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/parser"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// DefaultMaxExpandDepth bounds macro/rept recursion.
const DefaultMaxExpandDepth = 256

// Expander walks a statement list and produces its fully-expanded form.
type Expander struct {
	bag      *diag.Bag
	macros   map[string]*ast.Stmt
	consts   *symtab.Table // tracks constants visible to .if/.ifdef at expansion time
	depth    int
	maxDepth int
	hygiene  int // monotonically increasing suffix for macro-local label renaming
}

// New creates an Expander reporting into bag.
func New(bag *diag.Bag) *Expander {
	return &Expander{
		bag:      bag,
		macros:   map[string]*ast.Stmt{},
		consts:   symtab.New(bag),
		maxDepth: DefaultMaxExpandDepth,
	}
}

// Predefine seeds a constant into the expander's own table before
// expansion runs, so manifest-injected defines participate in
// .if/.ifdef decisions the same way prior `=`/`set` lines do.
func (ex *Expander) Predefine(name string, value int64) {
	ex.consts.DefineConstant(name, value, source.Location{}, false)
}

// Expand returns the flattened, macro-free, conditional-free statement
// sequence for stmts.
func (ex *Expander) Expand(stmts []*ast.Stmt) []*ast.Stmt {
	return ex.expandList(stmts)
}

func (ex *Expander) expandList(stmts []*ast.Stmt) []*ast.Stmt {
	var out []*ast.Stmt
	for _, s := range stmts {
		out = append(out, ex.expandStmt(s)...)
	}
	return out
}

func (ex *Expander) expandStmt(s *ast.Stmt) []*ast.Stmt {
	switch s.Kind {
	case ast.StMacroDef:
		if _, exists := ex.macros[s.MacroName]; exists {
			ex.bag.Add(diag.MacroError, s.Loc, "macro %q already defined", s.MacroName)
			return nil
		}
		ex.macros[s.MacroName] = s
		return nil

	case ast.StMacroInvoke:
		return ex.expandMacroInvoke(s)

	case ast.StConditional:
		return ex.expandConditional(s)

	case ast.StRepeat:
		return ex.expandRepeat(s)

	case ast.StEnum:
		return ex.expandEnum(s)

	case ast.StAssignment:
		ex.trackConstant(s)
		return []*ast.Stmt{s}

	case ast.StScope, ast.StProc:
		clone := *s
		clone.BlockBody = ex.expandList(s.BlockBody)
		return []*ast.Stmt{&clone}

	default:
		return []*ast.Stmt{s}
	}
}

// trackConstant records one-shot/`set` assignments in the expander's own
// constant table so later `.if`/`.ifdef` conditions can see them — only
// constants and prior set/= symbols are visible at expansion time.
func (ex *Expander) trackConstant(s *ast.Stmt) {
	env := &eval.Env{Symtab: ex.consts, Bag: &diag.Bag{}, Mode: eval.ConstantOnly}
	res := eval.Eval(s.Value, env)
	if !res.Resolved {
		return
	}
	ex.consts.DefineConstant(s.Name, res.Value, s.Loc, s.AssignOp == "set")
}

func (ex *Expander) expandMacroInvoke(s *ast.Stmt) []*ast.Stmt {
	macro, ok := ex.macros[s.InvokeName]
	if !ok {
		ex.bag.Add(diag.MacroError, s.Loc, "call to undefined macro %q", s.InvokeName)
		return nil
	}
	if ex.depth >= ex.maxDepth {
		ex.bag.Add(diag.MacroError, s.Loc, "macro expansion depth exceeded (%d)", ex.maxDepth)
		return nil
	}
	if len(s.InvokeArgs) > len(macro.Params) {
		ex.bag.Add(diag.MacroError, s.Loc, "macro %q called with too many arguments", s.InvokeName)
		return nil
	}

	bindings := map[string]*ast.Expr{}
	for i, param := range macro.Params {
		var argExpr *ast.Expr
		if i < len(s.InvokeArgs) && len(s.InvokeArgs[i]) > 0 {
			argExpr = parseArgExpr(s.InvokeArgs[i], ex.bag)
		} else if param.Default != nil {
			argExpr = param.Default
		} else {
			ex.bag.Add(diag.MacroError, s.Loc, "macro %q missing required argument %q", s.InvokeName, param.Name)
			continue
		}
		bindings[param.Name] = argExpr
	}

	ex.hygiene++
	suffix := fmt.Sprintf("__%d", ex.hygiene)
	site := &source.ExpansionSite{Loc: s.Loc, Parent: s.Expansion}

	ex.depth++
	var body []*ast.Stmt
	for _, bs := range macro.Body {
		body = append(body, substituteStmt(bs, bindings, suffix, site))
	}
	expanded := ex.expandList(body)
	ex.depth--
	return expanded
}

// parseArgExpr re-parses one macro-call argument's raw token slice as an
// expression.E ("expressions are re-parsed inside the
// body") — arguments are never handled as strings.
func parseArgExpr(toks []lexer.Token, bag *diag.Bag) *ast.Expr {
	full := append(append([]lexer.Token{}, toks...), lexer.Token{Kind: lexer.EOF})
	p := parser.New(full, bag)
	return p.ParseStandaloneExpr()
}

// substituteStmt clones s, substituting parameter references and
// renaming "@name" local labels for macro hygiene.
func substituteStmt(s *ast.Stmt, bindings map[string]*ast.Expr, suffix string, site *source.ExpansionSite) *ast.Stmt {
	clone := *s
	clone.Expansion = site

	switch s.Kind {
	case ast.StLocalLabel:
		clone.Name = renameLocal(s.Name, suffix)
	case ast.StInstruction:
		clone.Inst.Operand = substituteExpr(s.Inst.Operand, bindings, suffix)
		clone.Inst.Disp = substituteExpr(s.Inst.Disp, bindings, suffix)
	case ast.StAssignment:
		clone.Value = substituteExpr(s.Value, bindings, suffix)
	case ast.StDirective:
		clone.Args = substituteExprList(s.Args, bindings, suffix)
	case ast.StData:
		clone.DataItems = substituteExprList(s.DataItems, bindings, suffix)
	case ast.StIncludeBinary:
		clone.IncbinOffset = substituteExpr(s.IncbinOffset, bindings, suffix)
		clone.IncbinLength = substituteExpr(s.IncbinLength, bindings, suffix)
	case ast.StRepeat:
		clone.RepeatCount = substituteExpr(s.RepeatCount, bindings, suffix)
		clone.RepeatBody = substituteBody(s.RepeatBody, bindings, suffix, site)
	case ast.StEnum:
		clone.EnumStart = substituteExpr(s.EnumStart, bindings, suffix)
	case ast.StScope, ast.StProc:
		clone.BlockBody = substituteBody(s.BlockBody, bindings, suffix, site)
	case ast.StConditional:
		clone.Branches = make([]ast.CondBranch, len(s.Branches))
		for i, b := range s.Branches {
			nb := b
			nb.Cond = substituteExpr(b.Cond, bindings, suffix)
			nb.LHS = substituteExpr(b.LHS, bindings, suffix)
			nb.RHS = substituteExpr(b.RHS, bindings, suffix)
			nb.Body = substituteBody(b.Body, bindings, suffix, site)
			clone.Branches[i] = nb
		}
		clone.Else = substituteBody(s.Else, bindings, suffix, site)
	}
	return &clone
}

func substituteBody(body []*ast.Stmt, bindings map[string]*ast.Expr, suffix string, site *source.ExpansionSite) []*ast.Stmt {
	if body == nil {
		return nil
	}
	out := make([]*ast.Stmt, len(body))
	for i, s := range body {
		out[i] = substituteStmt(s, bindings, suffix, site)
	}
	return out
}

func substituteExprList(list []*ast.Expr, bindings map[string]*ast.Expr, suffix string) []*ast.Expr {
	if list == nil {
		return nil
	}
	out := make([]*ast.Expr, len(list))
	for i, e := range list {
		out[i] = substituteExpr(e, bindings, suffix)
	}
	return out
}

func substituteExpr(e *ast.Expr, bindings map[string]*ast.Expr, suffix string) *ast.Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ExprSymbol:
		if strings.HasPrefix(e.StrVal, "@") {
			clone := *e
			clone.StrVal = renameLocal(e.StrVal, suffix)
			return &clone
		}
		if bound, ok := bindings[e.StrVal]; ok {
			return bound
		}
		return e
	case ast.ExprUnary:
		clone := *e
		clone.X = substituteExpr(e.X, bindings, suffix)
		return &clone
	case ast.ExprBinary:
		clone := *e
		clone.L = substituteExpr(e.L, bindings, suffix)
		clone.R = substituteExpr(e.R, bindings, suffix)
		return &clone
	case ast.ExprGroup:
		clone := *e
		clone.X = substituteExpr(e.X, bindings, suffix)
		return &clone
	default:
		return e
	}
}

func renameLocal(name, suffix string) string {
	return name + suffix
}

func (ex *Expander) expandConditional(s *ast.Stmt) []*ast.Stmt {
	for _, b := range s.Branches {
		if ex.branchTrue(b) {
			return ex.expandList(b.Body)
		}
	}
	if s.HasElse {
		return ex.expandList(s.Else)
	}
	return nil
}

func (ex *Expander) branchTrue(b ast.CondBranch) bool {
	env := &eval.Env{Symtab: ex.consts, Bag: ex.bag, Mode: eval.ConstantOnly}
	switch b.Directive {
	case "ifdef":
		_, ok := ex.consts.Lookup(b.Symbol)
		return ok
	case "ifndef":
		_, ok := ex.consts.Lookup(b.Symbol)
		return !ok
	case "ifeq", "ifne", "ifgt", "iflt", "ifge", "ifle":
		l := eval.Eval(b.LHS, env)
		r := eval.Eval(b.RHS, env)
		if !l.Resolved || !r.Resolved {
			return false
		}
		switch b.Directive {
		case "ifeq":
			return l.Value == r.Value
		case "ifne":
			return l.Value != r.Value
		case "ifgt":
			return l.Value > r.Value
		case "iflt":
			return l.Value < r.Value
		case "ifge":
			return l.Value >= r.Value
		case "ifle":
			return l.Value <= r.Value
		}
	default: // if, elseif
		res := eval.Eval(b.Cond, env)
		return res.Resolved && res.Value != 0
	}
	return false
}

func (ex *Expander) expandRepeat(s *ast.Stmt) []*ast.Stmt {
	env := &eval.Env{Symtab: ex.consts, Bag: ex.bag, Mode: eval.ConstantOnly}
	res := eval.Eval(s.RepeatCount, env)
	if !res.Resolved {
		ex.bag.Add(diag.EvalError, s.Loc, "rept count must be a constant expression")
		return nil
	}
	if ex.depth >= ex.maxDepth {
		ex.bag.Add(diag.MacroError, s.Loc, "rept expansion depth exceeded (%d)", ex.maxDepth)
		return nil
	}
	ex.depth++
	var out []*ast.Stmt
	for i := int64(0); i < res.Value; i++ {
		ex.hygiene++
		suffix := fmt.Sprintf("__%d", ex.hygiene)
		site := &source.ExpansionSite{Loc: s.Loc, Parent: s.Expansion}
		var body []*ast.Stmt
		for _, bs := range s.RepeatBody {
			body = append(body, substituteStmt(bs, nil, suffix, site))
		}
		out = append(out, ex.expandList(body)...)
	}
	ex.depth--
	return out
}

func (ex *Expander) expandEnum(s *ast.Stmt) []*ast.Stmt {
	env := &eval.Env{Symtab: ex.consts, Bag: ex.bag, Mode: eval.ConstantOnly}
	res := eval.Eval(s.EnumStart, env)
	if !res.Resolved {
		ex.bag.Add(diag.EvalError, s.Loc, "enum start must be a constant expression")
		return nil
	}
	val := res.Value
	var out []*ast.Stmt
	for _, member := range s.EnumMembers {
		stmt := &ast.Stmt{
			Kind:     ast.StAssignment,
			Loc:      s.Loc,
			Name:     member,
			AssignOp: "equ",
			Value:    ast.Int(s.Loc, val),
		}
		ex.trackConstant(stmt)
		out = append(out, stmt)
		val++
	}
	return out
}
