package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// arm7 models ARM7TDMI's two fixed-width instruction sets as two
// parallel opcode tables selected by the tracked Thumb flag;
// DefaultWidth/ValidWidths consult
// st.Thumb the same way the 65816 descriptor consults M/X.
type entryARM struct {
	mnemonic     string
	mode         ast.AddrSyntax
	operandBytes int
	isBranch     bool
	branchField  int
	thumb        bool
}

func buildARMTable() []entryARM {
	var rows []entryARM
	dataProc := []string{"mov", "mvn", "cmp", "cmn", "teq", "tst", "add", "sub", "and", "orr", "eor", "bic", "adc", "sbc", "rsb", "rsc"}
	for _, m := range dataProc {
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegister, operandBytes: 4})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 4})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegister, operandBytes: 2, thumb: true})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrImmediate, operandBytes: 2, thumb: true})
	}
	for _, m := range []string{"ldr", "str", "ldrb", "strb", "ldrh", "strh", "ldrsb", "ldrsh"} {
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegIndirect, operandBytes: 4})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegIndirectDisp, operandBytes: 4})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegIndirect, operandBytes: 2, thumb: true})
		rows = append(rows, entryARM{mnemonic: m, mode: ast.AddrRegIndirectDisp, operandBytes: 2, thumb: true})
	}
	rows = append(rows, entryARM{mnemonic: "ldm", mode: ast.AddrRegIndirect, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "stm", mode: ast.AddrRegIndirect, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "swi", mode: ast.AddrImmediate, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "swi", mode: ast.AddrImmediate, operandBytes: 2, thumb: true})
	rows = append(rows, entryARM{mnemonic: "mrs", mode: ast.AddrRegister, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "msr", mode: ast.AddrRegister, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "swp", mode: ast.AddrRegPair, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "mul", mode: ast.AddrRegPair, operandBytes: 4})
	rows = append(rows, entryARM{mnemonic: "mla", mode: ast.AddrRegPair, operandBytes: 4})

	// ARM branches: 24-bit signed word offset (<<2, so effectively 26-bit
	// byte range) encoded directly in the instruction word.
	rows = append(rows, entryARM{mnemonic: "b", mode: ast.AddrDirect, operandBytes: 4, isBranch: true, branchField: 24})
	rows = append(rows, entryARM{mnemonic: "bl", mode: ast.AddrDirect, operandBytes: 4, isBranch: true, branchField: 24})
	rows = append(rows, entryARM{mnemonic: "bx", mode: ast.AddrRegister, operandBytes: 4})
	// Thumb: unconditional B is an 11-bit offset; BL is a 22-bit offset
	// split across a two-instruction pair; BLX/BX take a reg.
	rows = append(rows, entryARM{mnemonic: "b", mode: ast.AddrDirect, operandBytes: 2, isBranch: true, branchField: 11, thumb: true})
	rows = append(rows, entryARM{mnemonic: "bl", mode: ast.AddrDirect, operandBytes: 4, isBranch: true, branchField: 22, thumb: true})
	rows = append(rows, entryARM{mnemonic: "bx", mode: ast.AddrRegister, operandBytes: 2, thumb: true})
	rows = append(rows, entryARM{mnemonic: "blx", mode: ast.AddrRegister, operandBytes: 2, thumb: true})
	return rows
}

var armBaseOpcodes = func() map[OpKey]uint32 {
	m := map[OpKey]uint32{}
	base := uint32(0xE0000000)
	tbase := uint32(0x4000)
	for _, r := range buildARMTable() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: encodeARMWidthKey(r.operandBytes, r.thumb)}
		if _, exists := m[key]; exists {
			continue
		}
		if r.thumb {
			m[key] = tbase
			tbase += 2
		} else {
			m[key] = base
			base += 4
		}
	}
	return m
}()

// encodeARMWidthKey folds the Thumb flag into the OpKey width so the
// same mnemonic/mode pair can carry distinct ARM and Thumb encodings:
// Thumb widths are offset by 100 (ARM operand widths never exceed 4).
func encodeARMWidthKey(operandBytes int, thumb bool) int {
	if thumb {
		return operandBytes + 100
	}
	return operandBytes
}

func buildARMOpcodeMap() map[OpKey]Encoding {
	m := map[OpKey]Encoding{}
	for _, r := range buildARMTable() {
		key := OpKey{Mnemonic: r.mnemonic, Mode: r.mode, Width: encodeARMWidthKey(r.operandBytes, r.thumb)}
		base := armBaseOpcodes[key]
		var opcode []byte
		if r.thumb {
			opcode = []byte{byte(base), byte(base >> 8)}
		} else {
			opcode = []byte{byte(base), byte(base >> 8), byte(base >> 16), byte(base >> 24)}
		}
		m[key] = Encoding{
			Opcode:       opcode,
			OperandBytes: r.operandBytes,
			IsBranch:     r.isBranch,
			BranchField:  r.branchField,
			RegEncode:    true,
		}
	}
	return m
}

func armMnemonicSet() map[string]bool {
	set := map[string]bool{}
	for _, r := range buildARMTable() {
		set[r.mnemonic] = true
	}
	return set
}

// armDefaultWidth returns the Thumb-encoded table key for the width the
// current mode selects; pass 1 commits it into the statement, so pass 2
// finds the same encoding without re-tracking the Thumb state.
func armDefaultWidth(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int {
	for _, ob := range []int{0, 1, 2, 4} {
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: encodeARMWidthKey(ob, st.Thumb)}]; ok {
			return encodeARMWidthKey(ob, st.Thumb)
		}
	}
	return 0
}

func armValidWidths(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int {
	var widths []int
	for _, ob := range []int{0, 1, 2, 4} {
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: encodeARMWidthKey(ob, false)}]; ok {
			widths = append(widths, ob)
		}
		if _, ok := d.Opcodes[OpKey{Mnemonic: mnemonic, Mode: mode, Width: encodeARMWidthKey(ob, true)}]; ok {
			widths = append(widths, ob)
		}
	}
	if widths == nil {
		return []int{0}
	}
	return widths
}

// ARM7TDMI is the GBA's CPU descriptor: two fixed-width instruction sets
// selected by the tracked Thumb flag.
var ARM7TDMI = &Descriptor{
	Name:         "arm7",
	Endian:       LittleEndian,
	Mnemonics:    armMnemonicSet(),
	Opcodes:      buildARMOpcodeMap(),
	DefaultWidth: armDefaultWidth,
	ValidWidths:  armValidWidths,
}

func init() {
	Register(ARM7TDMI, "arm7", "gba")
}
