package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// SPC700 is the SNES sound coprocessor CPU descriptor: an 8-bit core
// with a direct-page flag (modeled as state in the analyzer, not here —
// .dp directives set a data-only base the generator folds into the
// direct-page operand, the encoding itself is unaffected), bit
// instructions with a `.b` suffix addressing form, and the `tcall n`
// fixed-vector call.
type entrySPC struct {
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	isBranch     bool
	branchField  int
}

func buildSPCTable() []entrySPC {
	var rows []entrySPC
	for _, m := range []string{"mov", "cmp", "adc", "sbc", "and", "or", "eor"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 1})
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1})
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrRegIndirect, operandBytes: 0})
	}
	for _, m := range []string{"inc", "dec", "asl", "lsr", "rol", "ror"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1})
	}
	for _, m := range []string{"incw", "decw", "cmpw", "addw", "subw"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1})
	}
	for _, m := range []string{"set1", "clr1", "tset1", "tclr1"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1})
	}
	for _, m := range []string{"and1", "or1", "eor1", "not1", "mov1"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 2})
	}
	rows = append(rows, entrySPC{mnemonic: "bra", mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})
	for _, m := range []string{"beq", "bne", "bcs", "bcc", "bvs", "bvc", "bmi", "bpl"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})
	}
	for _, m := range []string{"bbs", "bbc", "cbne", "dbnz"} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrDirect, operandBytes: 2, isBranch: true, branchField: 8})
	}
	rows = append(rows, entrySPC{mnemonic: "jmp", mode: ast.AddrDirect, operandBytes: 2})
	rows = append(rows, entrySPC{mnemonic: "call", mode: ast.AddrDirect, operandBytes: 2})
	rows = append(rows, entrySPC{mnemonic: "pcall", mode: ast.AddrImmediate, operandBytes: 1})
	for n := 0; n < 16; n++ {
		rows = append(rows, entrySPC{mnemonic: "tcall", mode: ast.AddrImmediate, operandBytes: 0})
	}
	rows = append(rows, entrySPC{mnemonic: "ret", mode: ast.AddrNone})
	rows = append(rows, entrySPC{mnemonic: "reti", mode: ast.AddrNone})
	rows = append(rows, entrySPC{mnemonic: "push", mode: ast.AddrRegister})
	rows = append(rows, entrySPC{mnemonic: "pop", mode: ast.AddrRegister})
	for _, m := range []string{
		"notc", "clrc", "setc", "clrv", "clrp", "setp", "di", "ei",
		"sleep", "stop", "brk", "nop", "xcn", "das", "daa", "mul", "div", "fast",
	} {
		rows = append(rows, entrySPC{mnemonic: m, mode: ast.AddrNone})
	}
	return rows
}

var spcBaseOpcodes = func() map[OpKey]byte {
	m := map[OpKey]byte{}
	base := byte(0x01)
	for _, r := range buildSPCTable() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		if _, exists := m[key]; exists {
			continue
		}
		m[key] = base
		base++
	}
	return m
}()

func buildSPCOpcodeMap() map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, r := range buildSPCTable() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		m[key] = Encoding{
			Opcode:       []byte{spcBaseOpcodes[key]},
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
		}
	}
	return m
}

func spcMnemonicSet() map[string]bool {
	set := map[string]bool{}
	for _, r := range buildSPCTable() {
		set[r.mnemonic] = true
	}
	return set
}

// SPC700 is the SNES sound coprocessor descriptor.
var SPC700 = &Descriptor{
	Name:         "spc700",
	Endian:       LittleEndian,
	Mnemonics:    spcMnemonicSet(),
	Opcodes:      buildSPCOpcodeMap(),
	DefaultWidth: fixedWidthByTable,
	ValidWidths:  validWidthsByTable,
}

func init() {
	Register(SPC700, "spc700", "spc")
}
