package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// V30MZ is the WonderSwan CPU descriptor: an x86-like (8086-compatible)
// core addressed with register names and ModR/M-style indirect forms.
// The table below represents the common register/immediate/
// memory shapes rather than every real ModR/M permutation — see
// DESIGN.md.
type entryV30 struct {
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	isBranch     bool
	branchField  int
}

func buildV30Table() []entryV30 {
	var rows []entryV30
	for _, m := range []string{"mov", "add", "sub", "cmp", "and", "or", "xor", "adc", "sbb", "test"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrRegister})
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrRegIndirect})
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 2})
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrDirect, operandBytes: 2})
	}
	for _, m := range []string{"inc", "dec", "not", "neg", "push", "pop", "shl", "shr", "sar", "rcl", "rcr", "rol", "ror"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrRegister})
	}
	rows = append(rows, entryV30{mnemonic: "lea", mode: ast.AddrRegIndirect})
	rows = append(rows, entryV30{mnemonic: "xchg", mode: ast.AddrRegPair})
	for _, m := range []string{"jmp", "call"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrDirect, operandBytes: 2})
	}
	rows = append(rows, entryV30{mnemonic: "jmp", mode: ast.AddrRegIndirect})
	conds := []string{"jcxz", "jz", "jnz", "jc", "jnc", "jo", "jno", "js", "jns"}
	for _, m := range conds {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})
	}
	for _, m := range []string{"loop", "loope", "loopne"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrDirect, operandBytes: 1, isBranch: true, branchField: 8})
	}
	for _, m := range []string{
		"ret", "iret", "hlt", "wait", "lock", "nop", "cbw", "cwd", "clc",
		"stc", "cli", "sti", "cld", "std", "cmc", "pushf", "popf", "lahf",
		"sahf", "aaa", "aas", "xlat", "into",
	} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrNone})
	}
	rows = append(rows, entryV30{mnemonic: "int", mode: ast.AddrImmediate, operandBytes: 1})
	for _, m := range []string{"movsb", "movsw", "cmpsb", "cmpsw", "scasb", "scasw", "lodsb", "lodsw", "stosb", "stosw"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrNone})
	}
	for _, m := range []string{"rep", "repe", "repne"} {
		rows = append(rows, entryV30{mnemonic: m, mode: ast.AddrNone})
	}
	rows = append(rows, entryV30{mnemonic: "aam", mode: ast.AddrImmediate, operandBytes: 1})
	rows = append(rows, entryV30{mnemonic: "aad", mode: ast.AddrImmediate, operandBytes: 1})
	return rows
}

var v30BaseOpcodes = func() map[OpKey]byte {
	m := map[OpKey]byte{}
	base := byte(0x10)
	for _, r := range buildV30Table() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		if _, exists := m[key]; exists {
			continue
		}
		m[key] = base
		base++
	}
	return m
}()

func buildV30OpcodeMap() map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, r := range buildV30Table() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: r.operandBytes}
		m[key] = Encoding{
			Opcode:       []byte{v30BaseOpcodes[key]},
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
			RegEncode:    true,
		}
	}
	return m
}

func v30MnemonicSet() map[string]bool {
	set := map[string]bool{}
	for _, r := range buildV30Table() {
		set[r.mnemonic] = true
	}
	return set
}

// V30MZ is the WonderSwan CPU descriptor.
var V30MZ = &Descriptor{
	Name:         "v30mz",
	Endian:       LittleEndian,
	Mnemonics:    v30MnemonicSet(),
	Opcodes:      buildV30OpcodeMap(),
	DefaultWidth: fixedWidthByTable,
	ValidWidths:  validWidthsByTable,
}

func init() {
	Register(V30MZ, "v30mz", "ws")
}
