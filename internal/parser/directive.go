package parser

import (
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
)

// dataDirectives maps a data-definition directive name to its unit size
// in bytes.D data statements.
var dataDirectives = map[string]int{
	"byte": 1, "db": 1,
	"word": 2, "dw": 2,
	"long": 4, "dl": 4,
	"dword": 4, "dd": 4,
}

func (p *Parser) parseDirective() *ast.Stmt {
	dt := p.advance()
	name := strings.ToLower(dt.Text)

	switch name {
	case "equ", "define", "set":
		// ".equ NAME, value" form (as opposed to "NAME equ value", already
		// handled in parseStatement's identifier branch).
		nameTok := p.cur()
		if nameTok.Kind != lexer.Identifier {
			p.errorf(nameTok.Loc, "expected identifier after .%s", name)
			return nil
		}
		p.advance()
		if p.isPunct(",") {
			p.advance()
		}
		val := p.parseExpr()
		return &ast.Stmt{Kind: ast.StAssignment, Loc: dt.Loc, Name: nameTok.Text, AssignOp: name, Value: val}

	case "macro":
		return p.parseMacroDef(dt)

	case "rept", "repeat":
		count := p.parseExpr()
		body := p.parseBlockBody("endr")
		return &ast.Stmt{Kind: ast.StRepeat, Loc: dt.Loc, RepeatCount: count, RepeatBody: body}

	case "enum":
		start := ast.Int(dt.Loc, 0)
		if !p.atStmtEnd() {
			start = p.parseExpr()
		}
		members := p.parseEnumBody()
		return &ast.Stmt{Kind: ast.StEnum, Loc: dt.Loc, EnumStart: start, EnumMembers: members}

	case "scope", "proc":
		var blockName string
		if p.cur().Kind == lexer.Identifier {
			blockName = p.advance().Text
		}
		kind := ast.StScope
		ender := "endscope"
		if name == "proc" {
			kind = ast.StProc
			ender = "endproc"
		}
		body := p.parseBlockBody(ender)
		return &ast.Stmt{Kind: kind, Loc: dt.Loc, BlockName: blockName, BlockBody: body}

	case "if", "ifdef", "ifndef", "ifeq", "ifne", "ifgt", "iflt", "ifge", "ifle":
		return p.parseConditional(dt, name)

	case "incbin":
		pathTok := p.cur()
		path := pathTok.Text
		if pathTok.Kind == lexer.String {
			p.advance()
		} else {
			p.errorf(pathTok.Loc, "expected string path after .incbin")
		}
		var off, length *ast.Expr
		if p.isPunct(",") {
			p.advance()
			off = p.parseExpr()
			if p.isPunct(",") {
				p.advance()
				length = p.parseExpr()
			}
		}
		return &ast.Stmt{Kind: ast.StIncludeBinary, Loc: dt.Loc, IncbinPath: path, IncbinOffset: off, IncbinLength: length}

	case "include":
		// Already expanded away by the preprocessor; any survivor here is a
		// stray directive the preprocessor didn't recognize as such, kept
		// as a generic directive for the diagnostic it will produce later.
		return p.parseGenericDirective(dt, name)

	case "assert", "error", "warning":
		var args []*ast.Expr
		if !p.atStmtEnd() {
			args = p.parseArgList()
		}
		return &ast.Stmt{Kind: ast.StDirective, Loc: dt.Loc, Directive: name, Args: args}

	default:
		if unit, ok := dataDirectives[name]; ok {
			items := p.parseArgList()
			return &ast.Stmt{Kind: ast.StData, Loc: dt.Loc, DataUnit: unit, DataItems: items}
		}
		return p.parseGenericDirective(dt, name)
	}
}

// parseGenericDirective handles directives whose semantics are purely
// "a name plus an argument list" at the parser level (.org, .align, .pad,
// .fill, .ds, .arch, platform/target selectors and header fields, CPU
// state directives): semantic meaning is assigned later.
func (p *Parser) parseGenericDirective(dt lexer.Token, name string) *ast.Stmt {
	var args []*ast.Expr
	if !p.atStmtEnd() {
		args = p.parseArgList()
	}
	return &ast.Stmt{Kind: ast.StDirective, Loc: dt.Loc, Directive: name, Args: args}
}

// parseArgList parses a comma-separated list of expressions up to the
// end of the statement.
func (p *Parser) parseArgList() []*ast.Expr {
	var args []*ast.Expr
	args = append(args, p.parseExpr())
	for p.isPunct(",") {
		p.advance()
		args = append(args, p.parseExpr())
	}
	return args
}

// parseBlockBody reads statements until a directive named ender is found
// (consuming it), returning the collected body.
func (p *Parser) parseBlockBody(ender string) []*ast.Stmt {
	var body []*ast.Stmt
	for {
		p.skipBlank()
		if p.atEOF() {
			p.errorf(p.cur().Loc, "unterminated block, expected .%s", ender)
			return body
		}
		if p.cur().Kind == lexer.Directive && strings.ToLower(p.cur().Text) == ender {
			p.advance()
			return body
		}
		body = append(body, p.parseLine()...)
		p.syncToNewline()
	}
}

func (p *Parser) parseMacroDef(dt lexer.Token) *ast.Stmt {
	var macroName string
	// A macro name may collide with some architecture's mnemonic set
	// ("wait"), just as a label may.
	if k := p.cur().Kind; k == lexer.Identifier || k == lexer.Mnemonic {
		macroName = p.advance().Text
	} else {
		p.errorf(p.cur().Loc, "expected macro name after .macro")
	}

	var params []ast.MacroParam
	if !p.atStmtEnd() {
		for {
			if p.cur().Kind != lexer.Identifier {
				break
			}
			param := ast.MacroParam{Name: p.advance().Text}
			if p.isPunct("=") {
				p.advance()
				param.Default = p.parseExpr()
			}
			params = append(params, param)
			if p.isPunct(",") {
				p.advance()
				continue
			}
			break
		}
	}

	body := p.parseBlockBody("endmacro")
	return &ast.Stmt{Kind: ast.StMacroDef, Loc: dt.Loc, MacroName: macroName, Params: params, Body: body}
}

// parseEnumBody reads bare member names up to .ende (or the long-form
// .endenum spelling).
func (p *Parser) parseEnumBody() []string {
	var members []string
	for {
		p.skipBlank()
		if p.atEOF() {
			p.errorf(p.cur().Loc, "unterminated .enum, expected .ende")
			return members
		}
		if p.cur().Kind == lexer.Directive {
			if n := strings.ToLower(p.cur().Text); n == "ende" || n == "endenum" {
				p.advance()
				return members
			}
		}
		if p.cur().Kind == lexer.Identifier {
			members = append(members, p.advance().Text)
		} else {
			p.errorf(p.cur().Loc, "expected enum member name")
		}
		p.syncToNewline()
	}
}

// parseConditional parses a full .if/.elseif*/.else/.endif chain.
func (p *Parser) parseConditional(dt lexer.Token, first string) *ast.Stmt {
	var branches []ast.CondBranch
	branches = append(branches, p.parseCondBranch(first))

	var elseBody []*ast.Stmt
	hasElse := false

loop:
	for {
		p.skipBlank()
		if p.atEOF() {
			p.errorf(p.cur().Loc, "unterminated conditional, expected .endif")
			break loop
		}
		if p.cur().Kind != lexer.Directive {
			break loop
		}
		switch strings.ToLower(p.cur().Text) {
		case "elseif", "elif":
			dname := strings.ToLower(p.advance().Text)
			branches = append(branches, p.parseCondBranch(dname))
		case "else":
			p.advance()
			hasElse = true
			elseBody = p.parseBlockBody("endif")
			break loop
		case "endif":
			p.advance()
			break loop
		default:
			break loop
		}
	}

	return &ast.Stmt{Kind: ast.StConditional, Loc: dt.Loc, Branches: branches, Else: elseBody, HasElse: hasElse}
}

// parseCondBranch parses one arm's test expression and reads its body up
// to the next .elseif/.else/.endif at the same nesting level (without
// consuming that terminator — the caller inspects it).
func (p *Parser) parseCondBranch(directive string) ast.CondBranch {
	b := ast.CondBranch{Directive: directive}
	switch directive {
	case "ifdef", "ifndef":
		if p.cur().Kind == lexer.Identifier {
			b.Symbol = p.advance().Text
		} else {
			p.errorf(p.cur().Loc, "expected identifier after .%s", directive)
		}
	case "ifeq", "ifne", "ifgt", "iflt", "ifge", "ifle":
		b.LHS = p.parseExpr()
		if p.isPunct(",") {
			p.advance()
		}
		b.RHS = p.parseExpr()
	default: // if, elseif
		b.Cond = p.parseExpr()
	}

	var body []*ast.Stmt
	for {
		p.skipBlank()
		if p.atEOF() {
			break
		}
		if p.cur().Kind == lexer.Directive {
			switch strings.ToLower(p.cur().Text) {
			case "elseif", "elif", "else", "endif":
				b.Body = body
				return b
			}
		}
		body = append(body, p.parseLine()...)
		p.syncToNewline()
	}
	b.Body = body
	return b
}
