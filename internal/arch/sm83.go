package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// sm83Reg8 orders the SM83 8-bit register field encoding used throughout
// the unprefixed and CB-prefixed opcode space: B,C,D,E,H,L,(HL),A map to
// the 3-bit field values 0..7. The "(hl)" pseudo-slot is emitted as a
// register-indirect row rather than a register name.
var sm83Reg8 = []string{"b", "c", "d", "e", "h", "l", "(hl)", "a"}

// sm83Reg16 orders the 16-bit register-pair field encoding (rp) used by
// most 16-bit load/arithmetic forms: BC,DE,HL,SP map to 0..3.
var sm83Reg16 = []string{"bc", "de", "hl", "sp"}

type entrySM83 struct {
	value        byte
	prefix       byte // 0 = no prefix, else 0xCB
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	reg          string
	reg2         string
	isBranch     bool
	branchField  int
}

// row8 keys one reg8 slot either as a plain register or, for the "(hl)"
// slot, as hl-indirect in the given operand position (1 = Reg, 2 = Reg2).
func row8(base entrySM83, slot string, position int) entrySM83 {
	name := slot
	if slot == "(hl)" {
		base.mode = ast.AddrRegIndirect
		name = "hl"
	}
	if position == 1 {
		base.reg = name
	} else {
		base.reg2 = name
	}
	return base
}

func buildSM83Table() []entrySM83 {
	var rows []entrySM83

	// LD r,r' — 0b01ddd sss, skipping the (HL),(HL) collision which is HALT.
	for d, dst := range sm83Reg8 {
		for s, src := range sm83Reg8 {
			if dst == "(hl)" && src == "(hl)" {
				continue
			}
			r := entrySM83{value: byte(0x40 | d<<3 | s), mnemonic: "ld", mode: ast.AddrRegPair}
			r = row8(r, dst, 1)
			r = row8(r, src, 2)
			rows = append(rows, r)
		}
	}
	rows = append(rows, entrySM83{value: 0x76, mnemonic: "halt", mode: ast.AddrNone})

	// LD r,n — 0b00ddd110, n. The (HL) slot covers "ld (hl), n".
	for d, dst := range sm83Reg8 {
		r := entrySM83{value: byte(0x06 | d<<3), mnemonic: "ld", mode: ast.AddrImmediate, operandBytes: 1}
		rows = append(rows, row8(r, dst, 1))
	}

	// 8-bit ALU A,r and A,n: add/adc/sub/sbc/and/xor/or/cp, 0b10ooo rrr.
	aluOps := []string{"add", "adc", "sub", "sbc", "and", "xor", "or", "cp"}
	for o, op := range aluOps {
		for s, src := range sm83Reg8 {
			r := entrySM83{value: byte(0x80 | o<<3 | s), mnemonic: op, mode: ast.AddrRegPair, reg: "a"}
			rows = append(rows, row8(r, src, 2))
		}
		rows = append(rows, entrySM83{value: byte(0xc6 | o<<3), mnemonic: op, mode: ast.AddrImmediate, reg: "a", operandBytes: 1})
	}

	// INC r / DEC r — 0b00ddd100 / 0b00ddd101.
	for d, dst := range sm83Reg8 {
		rows = append(rows, row8(entrySM83{value: byte(0x04 | d<<3), mnemonic: "inc", mode: ast.AddrRegister}, dst, 1))
		rows = append(rows, row8(entrySM83{value: byte(0x05 | d<<3), mnemonic: "dec", mode: ast.AddrRegister}, dst, 1))
	}

	// 16-bit LD rp,nn / INC rp / DEC rp / ADD HL,rp.
	for p, rp := range sm83Reg16 {
		rows = append(rows, entrySM83{value: byte(0x01 | p<<4), mnemonic: "ld", mode: ast.AddrImmediate, reg: rp, operandBytes: 2})
		rows = append(rows, entrySM83{value: byte(0x03 | p<<4), mnemonic: "inc", mode: ast.AddrRegister, reg: rp})
		rows = append(rows, entrySM83{value: byte(0x0b | p<<4), mnemonic: "dec", mode: ast.AddrRegister, reg: rp})
		rows = append(rows, entrySM83{value: byte(0x09 | p<<4), mnemonic: "add", mode: ast.AddrRegPair, reg: "hl", reg2: rp})
	}

	// PUSH/POP rr (AF replaces SP in the qq field for these two).
	sm83Reg16qq := []string{"bc", "de", "hl", "af"}
	for q, rr := range sm83Reg16qq {
		rows = append(rows, entrySM83{value: byte(0xc1 | q<<4), mnemonic: "pop", mode: ast.AddrRegister, reg: rr})
		rows = append(rows, entrySM83{value: byte(0xc5 | q<<4), mnemonic: "push", mode: ast.AddrRegister, reg: rr})
	}

	// Memory idioms: (BC)/(DE)/(HL+)/(HL-)/(C) on either side of A, plus
	// the absolute and $FF00-page forms. Reg is the first written
	// operand's register ("ld (bc), a" stores, "ld a, (bc)" loads), so
	// the two directions never share a key.
	rows = append(rows,
		entrySM83{value: 0x02, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "bc", reg2: "a"},
		entrySM83{value: 0x12, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "de", reg2: "a"},
		entrySM83{value: 0x0a, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "a", reg2: "bc"},
		entrySM83{value: 0x1a, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "a", reg2: "de"},
		entrySM83{value: 0x22, mnemonic: "ld", mode: ast.AddrRegIndirectInc, reg: "hl", reg2: "a"},
		entrySM83{value: 0x2a, mnemonic: "ld", mode: ast.AddrRegIndirectInc, reg: "a", reg2: "hl"},
		entrySM83{value: 0x32, mnemonic: "ld", mode: ast.AddrRegIndirectDec, reg: "hl", reg2: "a"},
		entrySM83{value: 0x3a, mnemonic: "ld", mode: ast.AddrRegIndirectDec, reg: "a", reg2: "hl"},
		entrySM83{value: 0xea, mnemonic: "ld", mode: ast.AddrIndirect, reg2: "a", operandBytes: 2},
		entrySM83{value: 0xfa, mnemonic: "ld", mode: ast.AddrIndirect, reg: "a", operandBytes: 2},
		entrySM83{value: 0x08, mnemonic: "ld", mode: ast.AddrIndirect, reg2: "sp", operandBytes: 2},
		entrySM83{value: 0xe0, mnemonic: "ldh", mode: ast.AddrIndirect, reg2: "a", operandBytes: 1},
		entrySM83{value: 0xf0, mnemonic: "ldh", mode: ast.AddrIndirect, reg: "a", operandBytes: 1},
		entrySM83{value: 0xe2, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "c", reg2: "a"},
		entrySM83{value: 0xf2, mnemonic: "ld", mode: ast.AddrRegIndirect, reg: "a", reg2: "c"},
	)

	// Control flow.
	rows = append(rows,
		entrySM83{value: 0xc3, mnemonic: "jp", mode: ast.AddrDirect, operandBytes: 2},
		entrySM83{value: 0xe9, mnemonic: "jp", mode: ast.AddrRegIndirect, reg: "hl"},
		entrySM83{value: 0xcd, mnemonic: "call", mode: ast.AddrDirect, operandBytes: 2},
		entrySM83{value: 0xc9, mnemonic: "ret", mode: ast.AddrNone},
		entrySM83{value: 0xd9, mnemonic: "reti", mode: ast.AddrNone},
		entrySM83{value: 0x18, mnemonic: "jr", mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8},
	)

	// Conditional forms carry the condition name in the first operand
	// slot ("jr nz, target").
	conds := []string{"nz", "z", "nc", "c"}
	for i, cc := range conds {
		rows = append(rows,
			entrySM83{value: byte(0x20 | i<<3), mnemonic: "jr", mode: ast.AddrDirect, reg: cc, operandBytes: 1, isBranch: true, branchField: 8},
			entrySM83{value: byte(0xc2 | i<<3), mnemonic: "jp", mode: ast.AddrDirect, reg: cc, operandBytes: 2},
			entrySM83{value: byte(0xc4 | i<<3), mnemonic: "call", mode: ast.AddrDirect, reg: cc, operandBytes: 2},
			entrySM83{value: byte(0xc0 | i<<3), mnemonic: "ret", mode: ast.AddrRegister, reg: cc},
		)
	}
	// rst's vector number folds into the opcode byte itself; only the $00
	// vector is table-addressable through the generic engine.
	rows = append(rows, entrySM83{value: 0xc7, mnemonic: "rst", mode: ast.AddrImmediate})

	rows = append(rows,
		entrySM83{value: 0x00, mnemonic: "nop", mode: ast.AddrNone},
		entrySM83{value: 0xf3, mnemonic: "di", mode: ast.AddrNone},
		entrySM83{value: 0xfb, mnemonic: "ei", mode: ast.AddrNone},
		entrySM83{value: 0x07, mnemonic: "rlca", mode: ast.AddrNone},
		entrySM83{value: 0x0f, mnemonic: "rrca", mode: ast.AddrNone},
		entrySM83{value: 0x17, mnemonic: "rla", mode: ast.AddrNone},
		entrySM83{value: 0x1f, mnemonic: "rra", mode: ast.AddrNone},
		entrySM83{value: 0x27, mnemonic: "daa", mode: ast.AddrNone},
		entrySM83{value: 0x2f, mnemonic: "cpl", mode: ast.AddrNone},
		entrySM83{value: 0x37, mnemonic: "scf", mode: ast.AddrNone},
		entrySM83{value: 0x3f, mnemonic: "ccf", mode: ast.AddrNone},
		entrySM83{value: 0xe8, mnemonic: "add", mode: ast.AddrImmediate, reg: "sp", operandBytes: 1},
		entrySM83{value: 0xf8, mnemonic: "ld", mode: ast.AddrRegPair, reg: "hl", reg2: "sp", operandBytes: 1},
		entrySM83{value: 0xf9, mnemonic: "ld", mode: ast.AddrRegPair, reg: "sp", reg2: "hl"},
	)

	// CB-prefixed rotate/shift (0b00ooo rrr).
	cbOps := []string{"rlc", "rrc", "rl", "rr", "sla", "sra", "swap", "srl"}
	for o, op := range cbOps {
		for s, slot := range sm83Reg8 {
			r := entrySM83{value: byte(o<<3 | s), prefix: 0xcb, mnemonic: op, mode: ast.AddrRegister}
			rows = append(rows, row8(r, slot, 1))
		}
	}
	// bit/res/set n,r: the bit index folds into the opcode the same way
	// rst's vector does; bit 0's row carries each register's encoding.
	for s, slot := range sm83Reg8 {
		for i, op := range []string{"bit", "res", "set"} {
			r := entrySM83{value: byte(0x40 + i*0x40 + s), prefix: 0xcb, mnemonic: op, mode: ast.AddrDirect}
			rows = append(rows, row8(r, slot, 2))
		}
	}

	return rows
}

func buildSM83OpcodeMap() map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, r := range buildSM83Table() {
		opcode := []byte{r.value}
		if r.prefix != 0 {
			opcode = []byte{r.prefix, r.value}
		}
		m[OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes, Reg: r.reg, Reg2: r.reg2}] = Encoding{
			Opcode:       opcode,
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
		}
	}
	return m
}

func sm83MnemonicSet() map[string]bool {
	set := map[string]bool{}
	for _, r := range buildSM83Table() {
		set[r.mnemonic] = true
	}
	return set
}

// SM83 is the Game Boy CPU descriptor: a Z80-derived core with its own
// reduced instruction set, CB-prefixed bit operations, and the
// (HL+)/(HL-)/($FF00+n) addressing idioms.
var SM83 = &Descriptor{
	Name:         "sm83",
	Endian:       LittleEndian,
	Mnemonics:    sm83MnemonicSet(),
	Opcodes:      buildSM83OpcodeMap(),
	DefaultWidth: fixedWidthByTable,
	ValidWidths:  validWidthsByTable,
}

// fixedWidthByTable and validWidthsByTable serve every non-65xx, non-
// stateful architecture descriptor (SM83, Z80, M68000, V30MZ, SPC700):
// none of them track analyzer-visible flags that affect operand width,
// so the table entry reachable for the statement's mode and registers
// already names the one true width.
func fixedWidthByTable(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int {
	for w := 0; w <= 4; w++ {
		for _, key := range lookupKeys(mnemonic, mode, w, reg, reg2) {
			if _, ok := d.Opcodes[key]; ok {
				return w
			}
		}
		if mode == ast.AddrRegPair {
			for _, key := range lookupKeys(mnemonic, ast.AddrRegister, w, reg, reg2) {
				if _, ok := d.Opcodes[key]; ok {
					return w
				}
			}
		}
	}
	return 0
}

func validWidthsByTable(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int {
	var widths []int
	for w := 0; w <= 4; w++ {
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: w}]; ok {
			widths = append(widths, w)
		}
	}
	if widths == nil {
		return []int{0}
	}
	return widths
}

func init() {
	Register(SM83, "sm83", "gb", "gbc")
}
