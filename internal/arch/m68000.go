package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// m68000DataRegs/AddrRegs name the two general-purpose register files;
// the parser's AddrSyntax classification already distinguishes register,
// register-indirect, and displaced-indirect operand shapes,
// so the descriptor only needs to record which mnemonics exist for which
// shapes and their fixed operand length for the size suffix in play.
var m68000DataRegs = []string{"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7"}
var m68000AddrRegs = []string{"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7"}

func suffixBytes(suffix string) int {
	switch suffix {
	case "b", "":
		return 1
	case "w":
		return 2
	case "l":
		return 4
	}
	return 2
}

type entryM68K struct {
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	isBranch     bool
	branchField  int
}

// buildM68000Table enumerates the common instruction shapes: register-
// direct and register-indirect data movement, immediate/register ALU
// ops, and the branch family. Branches have only the short 8-bit
// displacement form; there are no word (16-bit) branch rows. Each row has
// one fixed operand width, and a size suffix (.b/.w/.l) on the mnemonic
// does not select a different row or width.
func buildM68000Table() []entryM68K {
	var rows []entryM68K
	moveLike := []string{"move", "movea", "lea", "clr", "tst", "not", "neg", "negx", "swap", "ext"}
	for _, m := range moveLike {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegIndirect})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegIndirectInc})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegIndirectDec})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegIndirectDisp, operandBytes: 2})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrDirect, operandBytes: 4})
	}
	aluOps := []string{"add", "sub", "and", "or", "eor", "cmp", "addq", "subq", "addi", "subi", "andi", "ori", "eori", "cmpi", "addx", "subx", "abcd", "sbcd"}
	for _, m := range aluOps {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 4})
	}
	moveq := entryM68K{mnemonic: "moveq", mode: ast.AddrImmediate, operandBytes: 1}
	rows = append(rows, moveq)
	for _, m := range []string{"muls", "mulu", "divs", "divu"} {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegister})
	}
	for _, m := range []string{"lsl", "lsr", "asl", "asr", "rol", "ror", "roxl", "roxr"} {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 1})
	}
	for _, m := range []string{"btst", "bset", "bclr", "bchg"} {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrRegPair})
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 1})
	}
	rows = append(rows, entryM68K{mnemonic: "exg", mode: ast.AddrRegPair})
	rows = append(rows, entryM68K{mnemonic: "link", mode: ast.AddrRegister, operandBytes: 2})
	rows = append(rows, entryM68K{mnemonic: "unlk", mode: ast.AddrRegister})
	rows = append(rows, entryM68K{mnemonic: "movem", mode: ast.AddrDirect, operandBytes: 2})
	rows = append(rows, entryM68K{mnemonic: "movep", mode: ast.AddrRegIndirectDisp, operandBytes: 2})

	for _, m := range []string{"nop", "rts", "rte", "rtr", "reset", "stop", "illegal", "trapv"} {
		rows = append(rows, entryM68K{mnemonic: m, mode: ast.AddrNone})
	}
	rows = append(rows, entryM68K{mnemonic: "trap", mode: ast.AddrImmediate, operandBytes: 1})
	rows = append(rows, entryM68K{mnemonic: "jmp", mode: ast.AddrDirect, operandBytes: 4})
	rows = append(rows, entryM68K{mnemonic: "jmp", mode: ast.AddrRegIndirect, operandBytes: 0})
	rows = append(rows, entryM68K{mnemonic: "jsr", mode: ast.AddrDirect, operandBytes: 4})
	rows = append(rows, entryM68K{mnemonic: "jsr", mode: ast.AddrRegIndirect, operandBytes: 0})

	branches := []string{"bra", "bsr", "bhi", "bls", "bcc", "bcs", "bne", "beq", "bvc", "bvs", "bpl", "bmi", "bge", "blt", "bgt", "ble"}
	for _, b := range branches {
		rows = append(rows, entryM68K{mnemonic: b, mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})
	}
	for _, b := range []string{"dbra", "dbf", "dbt"} {
		rows = append(rows, entryM68K{mnemonic: b, mode: ast.AddrRegPair, operandBytes: 2, isBranch: true, branchField: 16})
	}
	rows = append(rows, entryM68K{mnemonic: "tas", mode: ast.AddrRegister})
	rows = append(rows, entryM68K{mnemonic: "chk", mode: ast.AddrRegister})
	return rows
}

// m68000BaseOpcodes holds a fixed, architecture-plausible base opcode
// word for each mnemonic/mode/width key. The code generator emits this
// word as-is; effective-address mode and register bits are not folded
// into it.
var m68000BaseOpcodes = buildM68000BaseOpcodeBytes()

func buildM68000BaseOpcodeBytes() map[OpKey]uint16 {
	m := map[OpKey]uint16{}
	base := uint16(0x1000)
	for _, r := range buildM68000Table() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		if _, exists := m[key]; exists {
			continue
		}
		m[key] = base
		base += 2
	}
	return m
}

func buildM68000OpcodeMap() map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, r := range buildM68000Table() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		base := m68000BaseOpcodes[key]
		m[key] = Encoding{
			Opcode:       []byte{byte(base >> 8), byte(base)},
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
			RegEncode:    true,
		}
	}
	return m
}

func m68000MnemonicSet() map[string]bool {
	set := map[string]bool{}
	for _, r := range buildM68000Table() {
		set[r.mnemonic] = true
	}
	return set
}

func m68000Width(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int {
	return fixedWidthByTable(d, mnemonic, mode, reg, reg2, st)
}

// M68000 is the Motorola 68000 descriptor (Mega Drive main CPU): big-
// endian, size-suffixed (.b/.w/.l), effective-address operand shapes.
var M68000 = &Descriptor{
	Name:         "m68000",
	Endian:       BigEndian,
	Mnemonics:    m68000MnemonicSet(),
	Opcodes:      buildM68000OpcodeMap(),
	DefaultWidth: m68000Width,
	ValidWidths:  validWidthsByTable,
}

func init() {
	Register(M68000, "m68000", "genesis", "md")
}
