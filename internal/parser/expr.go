package parser

import (
	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
)

// parseExpr parses a full expression starting at the lowest precedence
// level (logical or).
func (p *Parser) parseExpr() *ast.Expr {
	return p.parseLogicalOr()
}

// ParseStandaloneExpr parses a single expression from a token slice
// supplied whole (e.g. one macro-call argument), ignoring any leading
// blank tokens.
func (p *Parser) ParseStandaloneExpr() *ast.Expr {
	p.skipBlank()
	return p.parseExpr()
}

func (p *Parser) parseLogicalOr() *ast.Expr {
	left := p.parseLogicalAnd()
	for p.isPunct("||") {
		loc := p.advance().Loc
		right := p.parseLogicalAnd()
		left = ast.Binary(loc, ast.BinLOr, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() *ast.Expr {
	left := p.parseBitOrXor()
	for p.isPunct("&&") {
		loc := p.advance().Loc
		right := p.parseBitOrXor()
		left = ast.Binary(loc, ast.BinLAnd, left, right)
	}
	return left
}

func (p *Parser) parseBitOrXor() *ast.Expr {
	left := p.parseBitAnd()
	for p.isPunct("|") || p.isPunct("^") {
		op := p.advance()
		bop := ast.BinOr
		if op.Text == "^" {
			bop = ast.BinXor
		}
		right := p.parseBitAnd()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseBitAnd() *ast.Expr {
	left := p.parseEquality()
	for p.isPunct("&") {
		loc := p.advance().Loc
		right := p.parseEquality()
		left = ast.Binary(loc, ast.BinAnd, left, right)
	}
	return left
}

func (p *Parser) parseEquality() *ast.Expr {
	left := p.parseRelational()
	for p.isPunct("==") || p.isPunct("!=") {
		op := p.advance()
		bop := ast.BinEq
		if op.Text == "!=" {
			bop = ast.BinNe
		}
		right := p.parseRelational()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseRelational() *ast.Expr {
	left := p.parseShift()
	for p.isPunct("<") || p.isPunct("<=") || p.isPunct(">") || p.isPunct(">=") {
		op := p.advance()
		var bop ast.BinaryOp
		switch op.Text {
		case "<":
			bop = ast.BinLt
		case "<=":
			bop = ast.BinLe
		case ">":
			bop = ast.BinGt
		case ">=":
			bop = ast.BinGe
		}
		right := p.parseShift()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseShift() *ast.Expr {
	left := p.parseAdditive()
	for p.isPunct("<<") || p.isPunct(">>") {
		op := p.advance()
		bop := ast.BinShl
		if op.Text == ">>" {
			bop = ast.BinShr
		}
		right := p.parseAdditive()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() *ast.Expr {
	left := p.parseMultiplicative()
	for p.isPunct("+") || p.isPunct("-") {
		// Don't swallow an anonymous-label reference masquerading as a
		// leading sign; parseMultiplicative only ever lands here after a
		// complete left operand, so a following "+"/"-" at this point is
		// unambiguously the binary operator.
		op := p.advance()
		bop := ast.BinAdd
		if op.Text == "-" {
			bop = ast.BinSub
		}
		right := p.parseMultiplicative()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Expr {
	left := p.parseUnary()
	for p.isPunct("*") || p.isPunct("/") {
		op := p.advance()
		bop := ast.BinMul
		if op.Text == "/" {
			bop = ast.BinDiv
		}
		right := p.parseUnary()
		left = ast.Binary(op.Loc, bop, left, right)
	}
	return left
}

func (p *Parser) parseUnary() *ast.Expr {
	// An anonymous-label reference ("+", "--", "-skip") looks like a unary
	// sign with nothing after it; claim it before the sign operators do.
	if t := p.cur(); t.Kind == lexer.AnonForward || t.Kind == lexer.AnonBackward ||
		(t.Kind == lexer.Punct && (t.Text == "+" || t.Text == "-")) {
		if sign, count, tag, ok := p.tryAnonLabelRef(); ok {
			return ast.Anon(t.Loc, sign, count, tag)
		}
	}
	if p.isPunct("+") {
		// Unary plus is a no-op but still valid syntax.
		p.advance()
		return p.parseUnary()
	}
	if p.isPunct("-") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnNeg, p.parseUnary())
	}
	if p.isPunct("!") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnNot, p.parseUnary())
	}
	if p.isPunct("~") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnBitNot, p.parseUnary())
	}
	if p.isPunct("<") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnLowByte, p.parseUnary())
	}
	if p.isPunct(">") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnHighByte, p.parseUnary())
	}
	if p.isPunct("^") {
		loc := p.advance().Loc
		return ast.Unary(loc, ast.UnBankByte, p.parseUnary())
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() *ast.Expr {
	t := p.cur()
	if sign, count, tag, ok := p.tryAnonLabelRef(); ok {
		return ast.Anon(t.Loc, sign, count, tag)
	}

	switch t.Kind {
	case lexer.Number:
		p.advance()
		return ast.Int(t.Loc, t.Num)
	case lexer.String:
		p.advance()
		return ast.Str(t.Loc, t.Text)
	case lexer.Character:
		p.advance()
		return ast.Chr(t.Loc, t.Num)
	case lexer.Identifier:
		p.advance()
		return ast.Sym(t.Loc, t.Text)
	case lexer.Mnemonic:
		// Labels may collide with another architecture's mnemonic set; in
		// operand position the word is a symbol reference.
		p.advance()
		return ast.Sym(t.Loc, t.Text)
	case lexer.Punct:
		switch t.Text {
		case "*":
			p.advance()
			return ast.PC(t.Loc)
		case "(":
			p.advance()
			inner := p.parseExpr()
			p.expectPunct(")")
			return ast.Group(t.Loc, inner)
		}
	}
	p.errorf(t.Loc, "expected expression, found %q", t.Text)
	// Return a zero-valued placeholder so callers can keep walking the
	// tree without nil checks; the recorded diagnostic is authoritative.
	return ast.Int(t.Loc, 0)
}
