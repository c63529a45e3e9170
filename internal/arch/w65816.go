package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// aClassImmediate mnemonics size their #immediate operand from the M
// (accumulator-width) flag.
var aClassImmediate = map[string]bool{
	"lda": true, "adc": true, "and": true, "cmp": true, "eor": true, "ora": true, "sbc": true, "bit": true,
}

// xClassImmediate mnemonics size their #immediate operand from the X
// (index-width) flag.
var xClassImmediate = map[string]bool{"ldx": true, "ldy": true, "cpx": true, "cpy": true}

// opcodes65816Extra are the 65816-only additions beyond the NMOS+65C02
// base set: native-mode stack ops, block moves, long addressing, the
// stack-relative mode, and the 16-bit long branch.
var opcodes65816Extra = []entry6502{
	{0x00, "cop", ast.AddrImmediate, 2},
	{0xfb, "xce", ast.AddrNone, 1}, {0xeb, "xba", ast.AddrNone, 1},
	{0xc2, "rep", ast.AddrImmediate, 2}, {0xe2, "sep", ast.AddrImmediate, 2},
	{0x8b, "phb", ast.AddrNone, 1}, {0xab, "plb", ast.AddrNone, 1},
	{0x0b, "phd", ast.AddrNone, 1}, {0x2b, "pld", ast.AddrNone, 1},
	{0x4b, "phk", ast.AddrNone, 1},
	{0xf4, "pea", ast.AddrDirect, 3}, {0xd4, "pei", ast.AddrIndirect, 2}, {0x62, "per", ast.AddrDirect, 3},
	{0x5b, "tcd", ast.AddrNone, 1}, {0x7b, "tdc", ast.AddrNone, 1}, {0x1b, "tcs", ast.AddrNone, 1}, {0x3b, "tsc", ast.AddrNone, 1},
	{0x9b, "txy", ast.AddrNone, 1}, {0xbb, "tyx", ast.AddrNone, 1},
	{0x82, "brl", ast.AddrDirect, 3},
	{0x54, "mvn", ast.AddrDirect, 3}, {0x44, "mvp", ast.AddrDirect, 3},
	{0xcb, "wai", ast.AddrNone, 1}, {0xdb, "stp", ast.AddrNone, 1},
	{0x42, "wdm", ast.AddrImmediate, 2},
	{0x5c, "jml", ast.AddrDirect, 4}, {0x22, "jsl", ast.AddrDirect, 4},
	{0xdc, "jmp", ast.AddrIndirectLong, 3},

	// Long (24-bit) direct-page indirect, and stack-relative, on the
	// accumulator-class mnemonics.
	{0xa7, "lda", ast.AddrIndirectLong, 2}, {0xb7, "lda", ast.AddrIndirectLongY, 2},
	{0x87, "sta", ast.AddrIndirectLong, 2}, {0x97, "sta", ast.AddrIndirectLongY, 2},
	{0x67, "adc", ast.AddrIndirectLong, 2}, {0x77, "adc", ast.AddrIndirectLongY, 2},
	{0xa3, "lda", ast.AddrIndexedS, 2}, {0x83, "sta", ast.AddrIndexedS, 2}, {0x63, "adc", ast.AddrIndexedS, 2},
}

func build65816OpcodeMap() map[OpKey]Encoding {
	m := buildOpcodeMap(opcodes6502, opcodes65c02Extra, opcodes65816Extra)
	// Immediate-mode A-class/X-class mnemonics get two width-keyed
	// entries instead of the single fixed-width one the base builder
	// produced for them; the opcode byte is identical in both widths.
	for mnemonic := range aClassImmediate {
		if e, ok := m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 0}]; ok {
			delete(m, OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 0})
			m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 1}] = Encoding{Opcode: e.Opcode, OperandBytes: 1}
			m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 2}] = Encoding{Opcode: e.Opcode, OperandBytes: 2}
		}
	}
	for mnemonic := range xClassImmediate {
		if e, ok := m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 0}]; ok {
			delete(m, OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 0})
			m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 1}] = Encoding{Opcode: e.Opcode, OperandBytes: 1}
			m[OpKey{Mnemonic: mnemonic, Mode: ast.AddrImmediate, Width: 2}] = Encoding{Opcode: e.Opcode, OperandBytes: 2}
		}
	}
	// The immediates left keyed at 0 (cop/rep/sep/wdm) take exactly one
	// operand byte in both M/X states; re-key them at 1 so the width the
	// analyzer commits to is the width the generator looks up.
	for key, e := range m {
		if key.Mode == ast.AddrImmediate && key.Width == 0 {
			delete(m, key)
			key.Width = 1
			m[key] = e
		}
	}
	// brl is a 16-bit long branch, not the 8-bit short form the base
	// builder assumed. Its row carries a 2-byte operand, so buildOpcodeMap
	// keyed it at Width 2 (AddrDirect disambiguates DP/absolute encodings
	// by operand byte count).
	if e, ok := m[OpKey{Mnemonic: "brl", Mode: ast.AddrDirect, Width: 2}]; ok {
		e.IsBranch = true
		e.BranchField = 16
		m[OpKey{Mnemonic: "brl", Mode: ast.AddrDirect, Width: 2}] = e
	}
	return m
}

func width65816Default(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int {
	if mode != ast.AddrImmediate {
		return fixedWidth(d, mnemonic, mode, reg, reg2, st)
	}
	if aClassImmediate[mnemonic] {
		if !st.FlagsKnown {
			return 2 // widest safe width while the flag state is unknown
		}
		if st.MFlag8 {
			return 1
		}
		return 2
	}
	if xClassImmediate[mnemonic] {
		if !st.FlagsKnown {
			return 2
		}
		if st.XFlag8 {
			return 1
		}
		return 2
	}
	// rep/sep/cop/wdm immediates are always a single byte regardless of
	// M/X state.
	return 1
}

func width65816Valid(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int {
	if mode != ast.AddrImmediate {
		return allWidths(d, mnemonic, mode)
	}
	if aClassImmediate[mnemonic] || xClassImmediate[mnemonic] {
		return []int{1, 2}
	}
	return []int{1}
}

// Mos65816 is the full 65816 descriptor, superset of 6502/65C02 plus
// native-mode extensions and M/X-flag-sized immediates.
var Mos65816 = &Descriptor{
	Name:      "65816",
	Endian:    LittleEndian,
	Mnemonics: mnemonicSetFrom(opcodes6502, opcodes65c02Extra, opcodes65816Extra),
	Opcodes:   build65816OpcodeMap(),
	ZeroPageRewrite: true,
	DefaultWidth:    width65816Default,
	ValidWidths:     width65816Valid,
}

func init() {
	Register(Mos65816, "65816", "snes")
}
