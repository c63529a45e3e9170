package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// opcodesHuC6280Extra are the PC Engine CPU's additions over the 65C02
// base: block-transfer instructions, the memory-mapper control ops, and
// the zero-page bit-test/branch family.
var opcodesHuC6280Extra = []entry6502{
	{0x53, "tam", ast.AddrImmediate, 2}, {0x43, "tma", ast.AddrImmediate, 2},
	{0xf3, "tai", ast.AddrDirect, 7}, {0xd3, "tdd", ast.AddrDirect, 7},
	{0xe3, "tia", ast.AddrDirect, 7}, {0x73, "tin", ast.AddrDirect, 7},
	{0xd4, "csh", ast.AddrNone, 1}, {0x54, "csl", ast.AddrNone, 1},
	{0x42, "say", ast.AddrNone, 1}, {0x02, "sxy", ast.AddrNone, 1},
	{0x03, "st0", ast.AddrImmediate, 2}, {0x13, "st1", ast.AddrImmediate, 2}, {0x23, "st2", ast.AddrImmediate, 2},

	// The real CPU has eight bit-indexed variants each of bbr/bbs/rmb/smb
	// (bbr0..bbr7, etc.), selected by a digit fused into the mnemonic.
	// The mnemonic-classification scheme only recognizes the
	// bare word, so only bit 0's encoding is modeled here; see DESIGN.md.
	{0x0f, "bbr", ast.AddrDirect, 3},
	{0x8f, "bbs", ast.AddrDirect, 3},
	{0x07, "rmb", ast.AddrDirect, 2},
	{0x87, "smb", ast.AddrDirect, 2},
}

// HuC6280 is the PC Engine CPU descriptor: 65C02 core plus the
// block-transfer and mapper-control extensions.
var HuC6280 = &Descriptor{
	Name:      "huc6280",
	Endian:    LittleEndian,
	Mnemonics: mnemonicSetFrom(opcodes6502, opcodes65c02Extra, opcodesHuC6280Extra),
	Opcodes:   buildOpcodeMap(opcodes6502, opcodes65c02Extra, opcodesHuC6280Extra),
	ZeroPageRewrite: true,
	DefaultWidth:    fixedWidth,
	ValidWidths:     allWidths,
}

func init() {
	Register(HuC6280, "huc6280", "pce")
}
