package parser

import (
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
)

// sixtyFiveFamily is the set of mnemonics belonging to the 6502/65C02/
// 6507/65816/HuC6280 family, whose addressing-mode syntax the
// parser classifies structurally: #e, (e), (e,x), (e),y, [e], [e],y,
// e,x / e,y / e,s, bare accumulator, else absolute.
var sixtyFiveFamily = map[string]bool{
	"adc": true, "and": true, "asl": true, "bcc": true, "bcs": true, "beq": true,
	"bit": true, "bmi": true, "bne": true, "bpl": true, "brk": true, "bvc": true,
	"bvs": true, "clc": true, "cld": true, "cli": true, "clv": true, "cmp": true,
	"cpx": true, "cpy": true, "dec": true, "dex": true, "dey": true, "eor": true,
	"inc": true, "inx": true, "iny": true, "jmp": true, "jsr": true, "lda": true,
	"ldx": true, "ldy": true, "lsr": true, "nop": true, "ora": true, "pha": true,
	"php": true, "pla": true, "plp": true, "rol": true, "ror": true, "rti": true,
	"rts": true, "sbc": true, "sec": true, "sed": true, "sei": true, "sta": true,
	"stx": true, "sty": true, "tax": true, "tay": true, "tsx": true, "txa": true,
	"txs": true, "tya": true, "bra": true, "phx": true, "phy": true, "plx": true,
	"ply": true, "stz": true, "trb": true, "tsb": true, "dea": true, "ina": true,
	"cop": true, "jml": true, "jsl": true, "mvn": true, "mvp": true, "pea": true,
	"pei": true, "per": true, "phb": true, "phd": true, "phk": true, "plb": true,
	"pld": true, "rep": true, "rtl": true, "sep": true, "stp": true, "tcd": true,
	"tcs": true, "tdc": true, "tsc": true, "txy": true, "tyx": true, "wai": true,
	"wdm": true, "xba": true, "xce": true, "brl": true, "bbr": true, "bbs": true,
	"rmb": true, "smb": true, "csh": true, "csl": true, "say": true, "sxy": true,
	"st0": true, "st1": true, "st2": true, "tam": true, "tma": true, "tai": true,
	"tdd": true, "tia": true, "tin": true,
}

// registerNames recognizes register tokens inside bracket/paren operand
// forms for the non-65xx architectures (M68000, Z80, SM83, ARM, V30MZ,
// SPC700). It only needs to be liberal enough to distinguish "this is a
// register" from "this is an address expression" — the architecture
// descriptor rejects anything it doesn't actually support.
var registerNames = buildRegisterNameSet()

func buildRegisterNameSet() map[string]bool {
	names := []string{
		// SM83/Z80
		"a", "b", "c", "d", "e", "h", "l", "f", "af", "bc", "de", "hl", "sp",
		"ix", "iy", "ixh", "ixl", "iyh", "iyl", "i", "r",
		// M68000
		"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7",
		"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
		"pc", "sr", "ccr", "usp",
		// ARM
		"r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
		"lr",
		// V30MZ
		"ax", "bx", "cx", "dx", "si", "di", "bp", "cs", "ds", "es", "ss",
		"al", "ah", "bl", "bh", "cl", "ch", "dl", "dh",
		// SPC700
		"x", "y", "ya", "psw",
		// Z80/SM83/M68000 condition codes, written in the first operand
		// slot of conditional jumps ("jr nz, target"); the descriptor
		// table keys them the same way it keys registers.
		"nz", "z", "po", "pe", "p", "m",
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func isRegisterName(text string) bool {
	return registerNames[strings.ToLower(text)]
}

// isRegisterToken reports whether t names a register. Some register names
// ("b", "bx", "di") are also mnemonics and lex as Mnemonic tokens.
func isRegisterToken(t lexer.Token) bool {
	return (t.Kind == lexer.Identifier || t.Kind == lexer.Mnemonic) && isRegisterName(t.Text)
}

func (p *Parser) parseInstruction() *ast.Stmt {
	mt := p.advance()
	inst := ast.Instruction{Mnemonic: mt.Text, Suffix: mt.Suffix}

	if p.atStmtEnd() || p.cur().Kind == lexer.Comment {
		inst.Addr = ast.AddrNone
		return &ast.Stmt{Kind: ast.StInstruction, Loc: mt.Loc, Inst: inst}
	}

	if sixtyFiveFamily[mt.Text] {
		p.parseSixtyFiveOperand(&inst)
	} else {
		p.parseGenericOperand(&inst)
	}
	return &ast.Stmt{Kind: ast.StInstruction, Loc: mt.Loc, Inst: inst}
}

// parseSixtyFiveOperand classifies the operand syntax of a 65xx-family
// instruction.
func (p *Parser) parseSixtyFiveOperand(inst *ast.Instruction) {
	// Bare accumulator operand: a lone identifier "a" with nothing after it.
	if p.cur().Kind == lexer.Identifier && strings.EqualFold(p.cur().Text, "a") &&
		(p.peekAt(1).Kind == lexer.Newline || p.peekAt(1).Kind == lexer.EOF || p.peekAt(1).Kind == lexer.Comment) {
		p.advance()
		inst.Addr = ast.AddrAccumulator
		return
	}

	if p.isPunct("#") {
		p.advance()
		inst.Addr = ast.AddrImmediate
		inst.Operand = p.parseExpr()
		return
	}

	if p.isPunct("(") {
		p.advance()
		e := p.parseExpr()
		if p.isPunct(",") {
			p.advance()
			reg := p.expectIndexReg()
			p.expectPunct(")")
			inst.Addr = ast.AddrIndexedIndirectX
			inst.Operand = e
			inst.IndexReg = reg
			return
		}
		p.expectPunct(")")
		if p.isPunct(",") {
			p.advance()
			reg := p.expectIndexReg()
			inst.Addr = ast.AddrIndirectIndexedY
			inst.Operand = e
			inst.IndexReg = reg
			return
		}
		inst.Addr = ast.AddrIndirect
		inst.Operand = e
		return
	}

	if p.isPunct("[") {
		p.advance()
		e := p.parseExpr()
		p.expectPunct("]")
		if p.isPunct(",") {
			p.advance()
			reg := p.expectIndexReg()
			inst.Addr = ast.AddrIndirectLongY
			inst.Operand = e
			inst.IndexReg = reg
			return
		}
		inst.Addr = ast.AddrIndirectLong
		inst.Operand = e
		return
	}

	e := p.parseExpr()
	if p.isPunct(",") {
		p.advance()
		reg := p.expectIndexReg()
		inst.Operand = e
		inst.IndexReg = reg
		switch reg {
		case "x":
			inst.Addr = ast.AddrIndexedX
		case "y":
			inst.Addr = ast.AddrIndexedY
		case "s":
			inst.Addr = ast.AddrIndexedS
		default:
			inst.Addr = ast.AddrIndexedX
		}
		return
	}
	inst.Addr = ast.AddrDirect
	inst.Operand = e
}

func (p *Parser) expectIndexReg() string {
	t := p.cur()
	if t.Kind == lexer.Identifier {
		p.advance()
		return strings.ToLower(t.Text)
	}
	p.errorf(t.Loc, "expected index register")
	return ""
}

// parseGenericOperand handles the register/bracket operand forms of
// M68000, Z80, SM83, ARM, V30MZ, and SPC700: register names, [reg+disp],
// [reg++]/[reg--], #immediate, and bare expressions, with final encoding
// choice deferred to the architecture descriptor.
func (p *Parser) parseGenericOperand(inst *ast.Instruction) {
	parseOne := func() (addr ast.AddrSyntax, reg string, disp, operand *ast.Expr) {
		if p.isPunct("#") {
			p.advance()
			return ast.AddrImmediate, "", nil, p.parseExpr()
		}
		if p.isPunct("(") || p.isPunct("[") {
			closer := ")"
			if p.isPunct("[") {
				closer = "]"
			}
			p.advance()
			if isRegisterToken(p.cur()) {
				regName := strings.ToLower(p.advance().Text)
				if p.isPunct("+") && p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == closer {
					p.advance()
					p.expectPunct(closer)
					return ast.AddrRegIndirectInc, regName, nil, nil
				}
				if p.isPunct("-") && p.peekAt(1).Kind == lexer.Punct && p.peekAt(1).Text == closer {
					p.advance()
					p.expectPunct(closer)
					return ast.AddrRegIndirectDec, regName, nil, nil
				}
				if p.isPunct("+") || p.isPunct("-") {
					neg := p.isPunct("-")
					p.advance()
					d := p.parseExpr()
					if neg {
						d = ast.Unary(d.Loc, ast.UnNeg, d)
					}
					p.expectPunct(closer)
					return ast.AddrRegIndirectDisp, regName, d, nil
				}
				p.expectPunct(closer)
				return ast.AddrRegIndirect, regName, nil, nil
			}
			inner := p.parseExpr()
			p.expectPunct(closer)
			return ast.AddrIndirect, "", nil, inner
		}
		if isRegisterToken(p.cur()) {
			regName := strings.ToLower(p.advance().Text)
			return ast.AddrRegister, regName, nil, nil
		}
		return ast.AddrDirect, "", nil, p.parseExpr()
	}

	addr, reg, disp, operand := parseOne()
	inst.Addr, inst.Reg, inst.Disp, inst.Operand = addr, reg, disp, operand

	if !p.isPunct(",") {
		return
	}
	p.advance()
	addr2, reg2, disp2, operand2 := parseOne()

	// Two-operand normalization: Reg stays the first operand's register,
	// Reg2 the second's, and the addressing mode follows whichever
	// operand names memory or a value (immediate, indirect, displaced,
	// absolute). "ld (hl),b" and "ld b,(hl)" keep distinct (Reg,Reg2)
	// pairs, so the encoding table never needs a direction flag.
	inst.Reg2 = reg2
	switch {
	case addr == ast.AddrRegister && addr2 == ast.AddrRegister:
		inst.Addr = ast.AddrRegPair
	case addr == ast.AddrRegister:
		inst.Addr = addr2
		inst.Operand = operand2
		inst.Disp = disp2
	default:
		// First operand already names the memory/value shape; a trailing
		// expression (e.g. "ld (hl), 5" after an immediate marker was
		// omitted) becomes the operand when the first had none.
		if inst.Operand == nil && operand2 != nil {
			inst.Operand = operand2
		}
		if inst.Disp == nil && disp2 != nil {
			inst.Disp = disp2
		}
	}
}

// parseMacroInvocation parses "@name arg, arg, ...": arguments are kept
// as raw token slices — substitution operates on token slices, never on
// re-stringified text.
func (p *Parser) parseMacroInvocation() *ast.Stmt {
	nameTok := p.advance()
	var args [][]lexer.Token

	if !p.atStmtEnd() {
		var cur []lexer.Token
		depth := 0
		for !p.atStmtEnd() {
			t := p.cur()
			if t.Kind == lexer.Comment {
				p.advance()
				continue
			}
			if t.Kind == lexer.Punct {
				switch t.Text {
				case "(", "[":
					depth++
				case ")", "]":
					depth--
				case ",":
					if depth == 0 {
						args = append(args, cur)
						cur = nil
						p.advance()
						continue
					}
				}
			}
			cur = append(cur, t)
			p.advance()
		}
		args = append(args, cur)
	}

	return &ast.Stmt{Kind: ast.StMacroInvoke, Loc: nameTok.Loc, InvokeName: strings.TrimPrefix(nameTok.Text, "@"), InvokeArgs: args}
}
