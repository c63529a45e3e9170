package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// entry6502 is the source-of-truth row shape for the 6502/65C02 opcode
// tables: (opcode byte, mnemonic, addressing mode, total instruction
// length in bytes including the opcode).
type entry6502 struct {
	value    byte
	mnemonic string
	mode     ast.AddrSyntax
	length   int
}

// opcodes6502 is the legal NMOS 6502 instruction set.
var opcodes6502 = []entry6502{
	{0x69, "adc", ast.AddrImmediate, 2}, {0x65, "adc", ast.AddrDirect, 2}, {0x75, "adc", ast.AddrIndexedX, 2},
	{0x6d, "adc", ast.AddrDirect, 3}, {0x7d, "adc", ast.AddrIndexedX, 3}, {0x79, "adc", ast.AddrIndexedY, 3},
	{0x61, "adc", ast.AddrIndexedIndirectX, 2}, {0x71, "adc", ast.AddrIndirectIndexedY, 2},

	{0x29, "and", ast.AddrImmediate, 2}, {0x25, "and", ast.AddrDirect, 2}, {0x35, "and", ast.AddrIndexedX, 2},
	{0x2d, "and", ast.AddrDirect, 3}, {0x3d, "and", ast.AddrIndexedX, 3}, {0x39, "and", ast.AddrIndexedY, 3},
	{0x21, "and", ast.AddrIndexedIndirectX, 2}, {0x31, "and", ast.AddrIndirectIndexedY, 2},

	{0x0a, "asl", ast.AddrAccumulator, 1}, {0x06, "asl", ast.AddrDirect, 2}, {0x16, "asl", ast.AddrIndexedX, 2},
	{0x0e, "asl", ast.AddrDirect, 3}, {0x1e, "asl", ast.AddrIndexedX, 3},

	{0x24, "bit", ast.AddrDirect, 2}, {0x2c, "bit", ast.AddrDirect, 3},

	{0x10, "bpl", ast.AddrDirect, 2}, {0x30, "bmi", ast.AddrDirect, 2}, {0x50, "bvc", ast.AddrDirect, 2},
	{0x70, "bvs", ast.AddrDirect, 2}, {0x90, "bcc", ast.AddrDirect, 2}, {0xb0, "bcs", ast.AddrDirect, 2},
	{0xd0, "bne", ast.AddrDirect, 2}, {0xf0, "beq", ast.AddrDirect, 2},

	{0x00, "brk", ast.AddrNone, 1},

	{0xc9, "cmp", ast.AddrImmediate, 2}, {0xc5, "cmp", ast.AddrDirect, 2}, {0xd5, "cmp", ast.AddrIndexedX, 2},
	{0xcd, "cmp", ast.AddrDirect, 3}, {0xdd, "cmp", ast.AddrIndexedX, 3}, {0xd9, "cmp", ast.AddrIndexedY, 3},
	{0xc1, "cmp", ast.AddrIndexedIndirectX, 2}, {0xd1, "cmp", ast.AddrIndirectIndexedY, 2},

	{0xe0, "cpx", ast.AddrImmediate, 2}, {0xe4, "cpx", ast.AddrDirect, 2}, {0xec, "cpx", ast.AddrDirect, 3},
	{0xc0, "cpy", ast.AddrImmediate, 2}, {0xc4, "cpy", ast.AddrDirect, 2}, {0xcc, "cpy", ast.AddrDirect, 3},

	{0xc6, "dec", ast.AddrDirect, 2}, {0xd6, "dec", ast.AddrIndexedX, 2}, {0xce, "dec", ast.AddrDirect, 3}, {0xde, "dec", ast.AddrIndexedX, 3},
	{0xca, "dex", ast.AddrNone, 1}, {0x88, "dey", ast.AddrNone, 1},

	{0x49, "eor", ast.AddrImmediate, 2}, {0x45, "eor", ast.AddrDirect, 2}, {0x55, "eor", ast.AddrIndexedX, 2},
	{0x4d, "eor", ast.AddrDirect, 3}, {0x5d, "eor", ast.AddrIndexedX, 3}, {0x59, "eor", ast.AddrIndexedY, 3},
	{0x41, "eor", ast.AddrIndexedIndirectX, 2}, {0x51, "eor", ast.AddrIndirectIndexedY, 2},

	{0x18, "clc", ast.AddrNone, 1}, {0xd8, "cld", ast.AddrNone, 1}, {0x58, "cli", ast.AddrNone, 1}, {0xb8, "clv", ast.AddrNone, 1},

	{0xe6, "inc", ast.AddrDirect, 2}, {0xf6, "inc", ast.AddrIndexedX, 2}, {0xee, "inc", ast.AddrDirect, 3}, {0xfe, "inc", ast.AddrIndexedX, 3},
	{0xe8, "inx", ast.AddrNone, 1}, {0xc8, "iny", ast.AddrNone, 1},

	{0x4c, "jmp", ast.AddrDirect, 3}, {0x6c, "jmp", ast.AddrIndirect, 3},
	{0x20, "jsr", ast.AddrDirect, 3},

	{0xa9, "lda", ast.AddrImmediate, 2}, {0xa5, "lda", ast.AddrDirect, 2}, {0xb5, "lda", ast.AddrIndexedX, 2},
	{0xad, "lda", ast.AddrDirect, 3}, {0xbd, "lda", ast.AddrIndexedX, 3}, {0xb9, "lda", ast.AddrIndexedY, 3},
	{0xa1, "lda", ast.AddrIndexedIndirectX, 2}, {0xb1, "lda", ast.AddrIndirectIndexedY, 2},

	{0xa2, "ldx", ast.AddrImmediate, 2}, {0xa6, "ldx", ast.AddrDirect, 2}, {0xb6, "ldx", ast.AddrIndexedY, 2},
	{0xae, "ldx", ast.AddrDirect, 3}, {0xbe, "ldx", ast.AddrIndexedY, 3},

	{0xa0, "ldy", ast.AddrImmediate, 2}, {0xa4, "ldy", ast.AddrDirect, 2}, {0xb4, "ldy", ast.AddrIndexedX, 2},
	{0xac, "ldy", ast.AddrDirect, 3}, {0xbc, "ldy", ast.AddrIndexedX, 3},

	{0x4a, "lsr", ast.AddrAccumulator, 1}, {0x46, "lsr", ast.AddrDirect, 2}, {0x56, "lsr", ast.AddrIndexedX, 2},
	{0x4e, "lsr", ast.AddrDirect, 3}, {0x5e, "lsr", ast.AddrIndexedX, 3},

	{0xea, "nop", ast.AddrNone, 1},

	{0x09, "ora", ast.AddrImmediate, 2}, {0x05, "ora", ast.AddrDirect, 2}, {0x15, "ora", ast.AddrIndexedX, 2},
	{0x0d, "ora", ast.AddrDirect, 3}, {0x1d, "ora", ast.AddrIndexedX, 3}, {0x19, "ora", ast.AddrIndexedY, 3},
	{0x01, "ora", ast.AddrIndexedIndirectX, 2}, {0x11, "ora", ast.AddrIndirectIndexedY, 2},

	{0x48, "pha", ast.AddrNone, 1}, {0x08, "php", ast.AddrNone, 1}, {0x68, "pla", ast.AddrNone, 1}, {0x28, "plp", ast.AddrNone, 1},

	{0x2a, "rol", ast.AddrAccumulator, 1}, {0x26, "rol", ast.AddrDirect, 2}, {0x36, "rol", ast.AddrIndexedX, 2},
	{0x2e, "rol", ast.AddrDirect, 3}, {0x3e, "rol", ast.AddrIndexedX, 3},

	{0x6a, "ror", ast.AddrAccumulator, 1}, {0x66, "ror", ast.AddrDirect, 2}, {0x76, "ror", ast.AddrIndexedX, 2},
	{0x6e, "ror", ast.AddrDirect, 3}, {0x7e, "ror", ast.AddrIndexedX, 3},

	{0x40, "rti", ast.AddrNone, 1}, {0x60, "rts", ast.AddrNone, 1},

	{0xe9, "sbc", ast.AddrImmediate, 2}, {0xe5, "sbc", ast.AddrDirect, 2}, {0xf5, "sbc", ast.AddrIndexedX, 2},
	{0xed, "sbc", ast.AddrDirect, 3}, {0xfd, "sbc", ast.AddrIndexedX, 3}, {0xf9, "sbc", ast.AddrIndexedY, 3},
	{0xe1, "sbc", ast.AddrIndexedIndirectX, 2}, {0xf1, "sbc", ast.AddrIndirectIndexedY, 2},

	{0x38, "sec", ast.AddrNone, 1}, {0xf8, "sed", ast.AddrNone, 1}, {0x78, "sei", ast.AddrNone, 1},

	{0x85, "sta", ast.AddrDirect, 2}, {0x95, "sta", ast.AddrIndexedX, 2}, {0x8d, "sta", ast.AddrDirect, 3},
	{0x9d, "sta", ast.AddrIndexedX, 3}, {0x99, "sta", ast.AddrIndexedY, 3}, {0x81, "sta", ast.AddrIndexedIndirectX, 2},
	{0x91, "sta", ast.AddrIndirectIndexedY, 2},

	{0x86, "stx", ast.AddrDirect, 2}, {0x96, "stx", ast.AddrIndexedY, 2}, {0x8e, "stx", ast.AddrDirect, 3},
	{0x84, "sty", ast.AddrDirect, 2}, {0x94, "sty", ast.AddrIndexedX, 2}, {0x8c, "sty", ast.AddrDirect, 3},

	{0xaa, "tax", ast.AddrNone, 1}, {0xa8, "tay", ast.AddrNone, 1}, {0xba, "tsx", ast.AddrNone, 1},
	{0x8a, "txa", ast.AddrNone, 1}, {0x9a, "txs", ast.AddrNone, 1}, {0x98, "tya", ast.AddrNone, 1},
}

// opcodes65c02Extra are the 65C02 additions over the NMOS base set
// (bra, phx/phy/plx/ply, stz, trb/tsb, and the (zp) indirect mode
// without indexing).
var opcodes65c02Extra = []entry6502{
	{0x80, "bra", ast.AddrDirect, 2},
	{0xda, "phx", ast.AddrNone, 1}, {0x5a, "phy", ast.AddrNone, 1},
	{0xfa, "plx", ast.AddrNone, 1}, {0x7a, "ply", ast.AddrNone, 1},
	{0x64, "stz", ast.AddrDirect, 2}, {0x74, "stz", ast.AddrIndexedX, 2}, {0x9c, "stz", ast.AddrDirect, 3}, {0x9e, "stz", ast.AddrIndexedX, 3},
	{0x14, "trb", ast.AddrDirect, 2}, {0x1c, "trb", ast.AddrDirect, 3},
	{0x04, "tsb", ast.AddrDirect, 2}, {0x0c, "tsb", ast.AddrDirect, 3},
	{0x12, "ora", ast.AddrIndirect, 2}, {0x32, "and", ast.AddrIndirect, 2}, {0x52, "eor", ast.AddrIndirect, 2},
	{0x72, "adc", ast.AddrIndirect, 2}, {0xb2, "lda", ast.AddrIndirect, 2}, {0xd2, "cmp", ast.AddrIndirect, 2},
	{0xf2, "sbc", ast.AddrIndirect, 2}, {0x92, "sta", ast.AddrIndirect, 2},
}

// opWidthKey returns the OpKey.Width to key an entry6502 row under. Modes
// whose encoding has more than one operand byte-width in the table (the
// zero-page/absolute pair on AddrDirect and AddrIndexedX/Y) are keyed by
// their actual operand byte count so the two encodings don't collide;
// every other mode keys at 0 since it has exactly one encoding.
func opWidthKey(mode ast.AddrSyntax, operandBytes int) int {
	switch mode {
	case ast.AddrDirect, ast.AddrIndexedX, ast.AddrIndexedY:
		return operandBytes
	default:
		return 0
	}
}

func buildOpcodeMap(rowSets ...[]entry6502) map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, rows := range rowSets {
		for _, r := range rows {
			operandBytes := r.length - 1
			key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: opWidthKey(r.mode, operandBytes)}
			m[key] = Encoding{
				Opcode:       []byte{r.value},
				OperandBytes: operandBytes,
				IsBranch:     isBranchMnemonic(r.mnemonic),
				BranchField:  8,
			}
		}
	}
	return m
}

// ValidDirectWidths returns the sorted operand byte-widths the opcode
// table actually has encodings for, on AddrDirect/AddrIndexedX/AddrIndexedY
// (the modes the zero-page optimization and generic width fallback choose
// between). Used by the semantic analyzer to decide whether a DP rewrite
// is available at all, and by ValidWidths below.
func ValidDirectWidths(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int {
	var widths []int
	for w := 1; w <= 6; w++ {
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: w}]; ok {
			widths = append(widths, w)
		}
	}
	if widths == nil {
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: 0}]; ok {
			widths = []int{0}
		}
	}
	return widths
}

func isBranchMnemonic(m string) bool {
	switch m {
	case "bpl", "bmi", "bvc", "bvs", "bcc", "bcs", "bne", "beq", "bra":
		return true
	}
	return false
}

func mnemonicSetFrom(rowSets ...[]entry6502) map[string]bool {
	set := map[string]bool{}
	for _, rows := range rowSets {
		for _, r := range rows {
			set[r.mnemonic] = true
		}
	}
	return set
}

// fixedWidth reserves the architecturally widest safe operand width for
// modes that have both a zero-page and an absolute encoding — pass 1
// must commit before the operand is known, so it never picks a width a
// later resolution could invalidate; for every other mode there
// is exactly one encoding, so its width is used directly. The 6502
// family has no flag-dependent operand widths, so st is unused.
func fixedWidth(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int {
	widths := ValidDirectWidths(d, mnemonic, mode)
	if len(widths) == 0 {
		return 0
	}
	max := widths[0]
	for _, w := range widths {
		if w > max {
			max = w
		}
	}
	return max
}

func allWidths(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int {
	widths := ValidDirectWidths(d, mnemonic, mode)
	if widths == nil {
		return []int{0}
	}
	return widths
}

// MOS6502 is the base NMOS 6502 descriptor.
var MOS6502 = &Descriptor{
	Name:      "6502",
	Endian:    LittleEndian,
	Mnemonics: mnemonicSetFrom(opcodes6502),
	Opcodes:   buildOpcodeMap(opcodes6502),
	ZeroPageRewrite: true,
	DefaultWidth:    fixedWidth,
	ValidWidths:     allWidths,
}

// Mos6507 is the 6502 core used by the Atari 2600 (identical ISA,
// smaller address bus — the bus width restriction is enforced by the
// output formatter, not the descriptor).
var Mos6507 = &Descriptor{
	Name:      "6507",
	Endian:    LittleEndian,
	Mnemonics: mnemonicSetFrom(opcodes6502),
	Opcodes:   buildOpcodeMap(opcodes6502),
	ZeroPageRewrite: true,
	DefaultWidth:    fixedWidth,
	ValidWidths:     allWidths,
}

// Mos65C02 extends the NMOS base set with the 65C02 additions.
var Mos65C02 = &Descriptor{
	Name:      "65c02",
	Endian:    LittleEndian,
	Mnemonics: mnemonicSetFrom(opcodes6502, opcodes65c02Extra),
	Opcodes:   buildOpcodeMap(opcodes6502, opcodes65c02Extra),
	ZeroPageRewrite: true,
	DefaultWidth:    fixedWidth,
	ValidWidths:     allWidths,
}

func init() {
	Register(MOS6502, "6502", "nes", "lnx")
	Register(Mos6507, "6507", "a26")
	Register(Mos65C02, "65c02", "65sc02")
}
