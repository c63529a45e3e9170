package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

type entryZ80 struct {
	prefix       []byte
	value        byte
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	reg, reg2    string
	isBranch     bool
	branchField  int
}

// buildZ80Extra returns the Z80-only mnemonics layered on top of the
// SM83-shaped base.
// IX/IY-indexed forms are represented through the displaced-register
// addressing mode with a DD/FD prefix rather than enumerated per
// instruction — see DESIGN.md.
func buildZ80Extra() []entryZ80 {
	var rows []entryZ80

	// EX AF,AF' is written "ex af" here; the shadow-register tick can't
	// survive the lexer's character-literal rule.
	rows = append(rows, entryZ80{value: 0x08, mnemonic: "ex", mode: ast.AddrRegister, reg: "af"})
	rows = append(rows, entryZ80{value: 0xd9, mnemonic: "exx", mode: ast.AddrNone})
	rows = append(rows, entryZ80{value: 0xe3, mnemonic: "ex", mode: ast.AddrRegIndirect, reg: "sp", reg2: "hl"})
	rows = append(rows, entryZ80{value: 0xeb, mnemonic: "ex", mode: ast.AddrRegPair, reg: "de", reg2: "hl"})
	rows = append(rows, entryZ80{value: 0x10, mnemonic: "djnz", mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})

	conds := []string{"nz", "z", "nc", "c", "po", "pe", "p", "m"}
	for i, cc := range conds {
		rows = append(rows, entryZ80{value: byte(0xc2 | i<<3), mnemonic: "jp", mode: ast.AddrDirect, reg: cc, operandBytes: 2})
		rows = append(rows, entryZ80{value: byte(0xc4 | i<<3), mnemonic: "call", mode: ast.AddrDirect, reg: cc, operandBytes: 2})
		rows = append(rows, entryZ80{value: byte(0xc0 | i<<3), mnemonic: "ret", mode: ast.AddrRegister, reg: cc})
		if i < 4 {
			rows = append(rows, entryZ80{value: byte(0x20 | i<<3), mnemonic: "jr", mode: ast.AddrDirect, reg: cc, operandBytes: 1, isBranch: true, branchField: 8})
		}
	}
	rows = append(rows, entryZ80{value: 0xdb, mnemonic: "in", mode: ast.AddrIndirect, reg: "a", operandBytes: 1})
	rows = append(rows, entryZ80{value: 0xd3, mnemonic: "out", mode: ast.AddrIndirect, reg2: "a", operandBytes: 1})

	// The absolute accumulator loads sit at different opcodes than on
	// SM83 (whose 0xEA/0xFA slots are Z80 conditional jumps); these rows
	// overwrite the inherited keys.
	rows = append(rows, entryZ80{value: 0x3a, mnemonic: "ld", mode: ast.AddrIndirect, reg: "a", operandBytes: 2})
	rows = append(rows, entryZ80{value: 0x32, mnemonic: "ld", mode: ast.AddrIndirect, reg2: "a", operandBytes: 2})

	// ED-prefixed block/IO/16-bit instructions.
	edOps := []struct {
		v byte
		m string
	}{
		{0xa0, "ldi"}, {0xb0, "ldir"}, {0xa8, "ldd"}, {0xb8, "lddr"},
		{0xa1, "cpi"}, {0xb1, "cpir"}, {0xa9, "cpd"}, {0xb9, "cpdr"},
		{0xa2, "ini"}, {0xb2, "inir"}, {0xaa, "ind"}, {0xba, "indr"},
		{0xa3, "outi"}, {0xb3, "otir"}, {0xab, "outd"}, {0xbb, "otdr"},
		{0x44, "neg"}, {0x4d, "reti"}, {0x45, "retn"}, {0x67, "rrd"}, {0x6f, "rld"},
	}
	for _, e := range edOps {
		rows = append(rows, entryZ80{prefix: []byte{0xed}, value: e.v, mnemonic: e.m, mode: ast.AddrNone})
	}
	// im's mode number folds into the opcode; only IM 0 is addressable
	// through the generic engine.
	rows = append(rows, entryZ80{prefix: []byte{0xed}, value: 0x46, mnemonic: "im", mode: ast.AddrImmediate})
	rows = append(rows, entryZ80{prefix: []byte{0xed}, value: 0x47, mnemonic: "ld", mode: ast.AddrRegPair, reg: "i", reg2: "a"})
	rows = append(rows, entryZ80{prefix: []byte{0xed}, value: 0x57, mnemonic: "ld", mode: ast.AddrRegPair, reg: "a", reg2: "i"})
	rows = append(rows, entryZ80{prefix: []byte{0xed}, value: 0x4f, mnemonic: "ld", mode: ast.AddrRegPair, reg: "r", reg2: "a"})
	rows = append(rows, entryZ80{prefix: []byte{0xed}, value: 0x5f, mnemonic: "ld", mode: ast.AddrRegPair, reg: "a", reg2: "r"})
	z80Pairs16 := []string{"bc", "de", "hl", "sp"}
	for p, rp := range z80Pairs16 {
		rows = append(rows, entryZ80{prefix: []byte{0xed}, value: byte(0x4b | p<<4), mnemonic: "ld", mode: ast.AddrIndirect, reg: rp, operandBytes: 2})
		rows = append(rows, entryZ80{prefix: []byte{0xed}, value: byte(0x43 | p<<4), mnemonic: "ld", mode: ast.AddrIndirect, reg2: rp, operandBytes: 2})
		rows = append(rows, entryZ80{prefix: []byte{0xed}, value: byte(0x42 | p<<4), mnemonic: "sbc", mode: ast.AddrRegPair, reg: "hl", reg2: rp})
		rows = append(rows, entryZ80{prefix: []byte{0xed}, value: byte(0x4a | p<<4), mnemonic: "adc", mode: ast.AddrRegPair, reg: "hl", reg2: rp})
	}

	// IX/IY: a small representative slice of the displaced-indirect form
	// used for the common "LD r,(IX+d)" / "LD (IX+d),r" / 8-bit ALU idiom.
	for _, pfx := range []struct {
		byte byte
		reg  string
	}{{0xdd, "ix"}, {0xfd, "iy"}} {
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0x21, mnemonic: "ld", mode: ast.AddrImmediate, reg: pfx.reg, operandBytes: 2})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0x22, mnemonic: "ld", mode: ast.AddrIndirect, reg2: pfx.reg, operandBytes: 2})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0xe9, mnemonic: "jp", mode: ast.AddrRegIndirect, reg: pfx.reg})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0xe1, mnemonic: "pop", mode: ast.AddrRegister, reg: pfx.reg})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0xe5, mnemonic: "push", mode: ast.AddrRegister, reg: pfx.reg})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0x86, mnemonic: "add", mode: ast.AddrRegIndirectDisp, reg: "a", reg2: pfx.reg, operandBytes: 1})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0x7e, mnemonic: "ld", mode: ast.AddrRegIndirectDisp, reg: "a", reg2: pfx.reg, operandBytes: 1})
		rows = append(rows, entryZ80{prefix: []byte{pfx.byte}, value: 0x36, mnemonic: "ld", mode: ast.AddrRegIndirectDisp, reg: pfx.reg, operandBytes: 2})
	}

	return rows
}

func buildZ80OpcodeMap() map[OpKey]Encoding {
	// Start from the SM83-shaped base table (it already carries every
	// unprefixed/CB-prefixed encoding Z80 shares with the Game Boy core)
	// and layer the Z80-only extensions over it.
	m := buildSM83OpcodeMap()
	// The Game Boy-only idioms have no Z80 encoding: (HL+)/(HL-) and the
	// $FF00-page ldh forms are SM83 inventions occupying Z80 opcode slots
	// that mean something else.
	for key := range m {
		if key.Mode == ast.AddrRegIndirectInc || key.Mode == ast.AddrRegIndirectDec || key.Mnemonic == "ldh" {
			delete(m, key)
		}
	}
	for _, r := range buildZ80Extra() {
		opcode := append(append([]byte{}, r.prefix...), r.value)
		m[OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes, Reg: r.reg, Reg2: r.reg2}] = Encoding{
			Opcode:       opcode,
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
		}
	}
	return m
}

func z80MnemonicSet() map[string]bool {
	set := sm83MnemonicSet()
	for _, r := range buildZ80Extra() {
		set[r.mnemonic] = true
	}
	return set
}

// Z80 is the Zilog Z80 descriptor used by the Game Gear/Master System
// and PC Engine's sound coprocessor paths: the SM83-shared core plus
// prefix-addressed extensions.
var Z80 = &Descriptor{
	Name:         "z80",
	Endian:       LittleEndian,
	Mnemonics:    z80MnemonicSet(),
	Opcodes:      buildZ80OpcodeMap(),
	DefaultWidth: fixedWidthByTable,
	ValidWidths:  validWidthsByTable,
}

func init() {
	Register(Z80, "z80", "sms", "gg")
}
