// Package parser is a recursive-descent parser that consumes a token
// stream and produces a statement AST with typed expression trees. On a
// syntax error it reports the error, drops tokens until
// the next newline, and continues — error recovery at statement
// granularity.
package parser

import (
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

// Parser turns a token slice into a statement AST.
type Parser struct {
	toks []lexer.Token
	pos  int
	bag  *diag.Bag
}

// New creates a Parser over toks, reporting diagnostics into bag.
func New(toks []lexer.Token, bag *diag.Bag) *Parser {
	return &Parser{toks: toks, bag: bag}
}

// ParseProgram parses the entire token stream into a flat statement list.
func (p *Parser) ParseProgram() []*ast.Stmt {
	var stmts []*ast.Stmt
	for !p.atEOF() {
		p.skipBlank()
		if p.atEOF() {
			break
		}
		stmts = append(stmts, p.parseLine()...)
		p.syncToNewline()
	}
	return stmts
}

// parseLine parses one source line's worth of statements: at most one
// non-label statement, preceded by any number of label definitions
// ("reset: sei" defines the label and assembles the instruction).
func (p *Parser) parseLine() []*ast.Stmt {
	var out []*ast.Stmt
	for {
		s := p.parseStatement()
		if s != nil {
			out = append(out, s)
		}
		if s == nil || !isLabelKind(s.Kind) {
			return out
		}
		p.skipInline()
		if p.atStmtEnd() {
			return out
		}
	}
}

func isLabelKind(k ast.StmtKind) bool {
	return k == ast.StLabel || k == ast.StLocalLabel || k == ast.StAnonLabel
}

// --- token cursor helpers -------------------------------------------------

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return lexer.Token{Kind: lexer.EOF}
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) atEOF() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) atStmtEnd() bool {
	k := p.cur().Kind
	return k == lexer.Newline || k == lexer.EOF
}

// skipBlank consumes comments, and newlines between statements.
func (p *Parser) skipBlank() {
	for {
		k := p.cur().Kind
		if k == lexer.Newline || k == lexer.Comment {
			p.advance()
			continue
		}
		break
	}
}

// skipInline consumes only comments (not newlines) within a statement.
func (p *Parser) skipInline() {
	for p.cur().Kind == lexer.Comment {
		p.advance()
	}
}

// syncToNewline discards tokens until the next newline or EOF —
// error recovery at statement granularity.
func (p *Parser) syncToNewline() {
	for !p.atStmtEnd() {
		p.advance()
	}
	if p.cur().Kind == lexer.Newline {
		p.advance()
	}
}

func (p *Parser) errorf(loc source.Location, format string, args ...interface{}) {
	p.bag.Add(diag.ParseError, loc, format, args...)
}

func (p *Parser) isPunct(s string) bool {
	return p.cur().Kind == lexer.Punct && p.cur().Text == s
}

func (p *Parser) expectPunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	p.errorf(p.cur().Loc, "expected %q", s)
	return false
}

// --- statement dispatch ---------------------------------------------------

func (p *Parser) parseStatement() *ast.Stmt {
	t := p.cur()

	if sign, count, tag, ok := p.tryAnonLabelDef(); ok {
		_ = count
		return &ast.Stmt{Kind: ast.StAnonLabel, Loc: t.Loc, AnonSign: sign, Name: tag}
	}

	switch t.Kind {
	case lexer.Identifier:
		if strings.HasPrefix(t.Text, "@") {
			if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
				p.advance()
				p.advance()
				return &ast.Stmt{Kind: ast.StLocalLabel, Loc: t.Loc, Name: t.Text}
			}
			return p.parseMacroInvocation()
		}
		if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
			p.advance()
			p.advance()
			return &ast.Stmt{Kind: ast.StLabel, Loc: t.Loc, Name: t.Text, Exported: true}
		}
		if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == "=" {
			name := p.advance()
			p.advance() // '='
			val := p.parseExpr()
			return &ast.Stmt{Kind: ast.StAssignment, Loc: name.Loc, Name: name.Text, AssignOp: "=", Value: val}
		}
		if p.peekAt(1).Kind == lexer.Directive && isAssignDirective(p.peekAt(1).Text) {
			name := p.advance()
			op := p.advance()
			val := p.parseExpr()
			return &ast.Stmt{Kind: ast.StAssignment, Loc: name.Loc, Name: name.Text, AssignOp: op.Text, Value: val}
		}
		p.errorf(t.Loc, "unexpected identifier %q", t.Text)
		return nil

	case lexer.Mnemonic:
		// A mnemonic-shaped word directly before ':' is a label that
		// happens to collide with some architecture's mnemonic set
		// ("reset:", "loop:").
		if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
			p.advance()
			p.advance()
			return &ast.Stmt{Kind: ast.StLabel, Loc: t.Loc, Name: t.Text, Exported: true}
		}
		return p.parseInstruction()

	case lexer.Directive:
		return p.parseDirective()

	case lexer.EOF, lexer.Newline:
		return nil

	case lexer.Error:
		// The lexer never aborts; its Error tokens surface here as
		// diagnostics at statement granularity.
		p.advance()
		p.bag.Add(diag.LexError, t.Loc, "%s", t.ErrText)
		return nil

	default:
		p.errorf(t.Loc, "unexpected token %q", t.Text)
		return nil
	}
}

func isAssignDirective(s string) bool {
	return s == "equ" || s == "define" || s == "set"
}

// tryAnonLabelDef recognizes a label DEFINITION using the anonymous-label
// forms: a lexer-produced AnonForward/AnonBackward token, or a bare
// Punct "+"/"-" run, immediately followed by ':'. It does not consume
// tokens on failure.
func (p *Parser) tryAnonLabelDef() (sign byte, count int, tag string, ok bool) {
	t := p.cur()
	if t.Kind == lexer.AnonForward || t.Kind == lexer.AnonBackward {
		if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
			sign, count, tag = decodeAnonText(t.Text)
			p.pos += 2
			return sign, count, tag, true
		}
		return 0, 0, "", false
	}
	if t.Kind == lexer.Punct && (t.Text == "+" || t.Text == "-") {
		if p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == ":" {
			p.pos += 2
			return t.Text[0], 1, "", true
		}
	}
	return 0, 0, "", false
}

// tryAnonLabelRef recognizes an anonymous-label REFERENCE in operand
// position: a lexer-produced AnonForward/AnonBackward token is always
// taken, and a bare Punct "+"/"-" only when a statement/argument
// terminator follows it (instead of the ':' of a definition).
func (p *Parser) tryAnonLabelRef() (sign byte, count int, tag string, ok bool) {
	t := p.cur()
	if t.Kind == lexer.AnonForward || t.Kind == lexer.AnonBackward {
		sign, count, tag = decodeAnonText(t.Text)
		p.advance()
		return sign, count, tag, true
	}
	if t.Kind == lexer.Punct && (t.Text == "+" || t.Text == "-") {
		nxt := p.peekAt(1)
		if nxt.Kind == lexer.Newline || nxt.Kind == lexer.EOF || nxt.Kind == lexer.Comment ||
			(nxt.Kind == lexer.Punct && (nxt.Text == "," || nxt.Text == ")")) {
			p.advance()
			return t.Text[0], 1, "", true
		}
	}
	return 0, 0, "", false
}

func decodeAnonText(text string) (sign byte, count int, tag string) {
	if text == "" {
		return 0, 0, ""
	}
	sign = text[0]
	i := 0
	for i < len(text) && text[i] == sign {
		i++
	}
	return sign, i, text[i:]
}
