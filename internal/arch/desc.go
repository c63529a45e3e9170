// Package arch defines the instruction-set descriptor type shared by
// every supported CPU, and the concrete descriptor for each one. The
// code generator is a single engine parameterized by a Descriptor value;
// adding a CPU means adding a descriptor, never subclassing an engine.
package arch

import "github.com/TheAnsarya/poppy-sub004/internal/ast"

// Endianness selects the byte order operand words are emitted in.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

// OpKey identifies one entry in a Descriptor's opcode table: mnemonic,
// addressing mode, operand width, and — for architectures whose opcode
// byte depends on register identity (SM83, Z80) — the register name of
// each operand position. Width is in bytes and is 0 for modes whose
// encoding doesn't depend on it. Reg is the first operand's register
// (bare or inside an indirection), Reg2 the second's; operand order
// distinguishes "ld (hl),b" from "ld b,(hl)" without a direction flag.
type OpKey struct {
	Mnemonic string
	Mode     ast.AddrSyntax
	Width    int
	Reg      string
	Reg2     string
}

// Encoding is what an OpKey maps to: the fixed opcode byte(s) prefix,
// how many further operand bytes follow, and branch-specific metadata.
type Encoding struct {
	Opcode       []byte
	OperandBytes int
	IsBranch     bool
	BranchField  int // bits of the signed displacement field, when IsBranch
	RegEncode    bool // set on the shape-level M68000, ARM7TDMI and V30MZ rows; the code generator does not read it and emits Opcode unchanged
}

// State is the analyzer-visible flag environment carried through the
// statement stream: 65816 M/X
// accumulator/index width, ARM vs Thumb mode, and whether that state is
// still known or was invalidated by a non-literal REP/SEP.
type State struct {
	MFlag8     bool // true = 8-bit accumulator (65816)
	XFlag8     bool // true = 8-bit index registers (65816)
	FlagsKnown bool
	Thumb      bool // ARM7TDMI mode selector
}

// DefaultState returns the reset-vector-time flag environment: 65816
// powers on in 8-bit M/X-equivalent emulation mode, ARM starts in ARM
// (non-Thumb) mode.
func DefaultState() State {
	return State{MFlag8: true, XFlag8: true, FlagsKnown: true, Thumb: false}
}

// Descriptor bundles everything the generic code generator needs for
// one architecture: the mnemonic set, the opcode table, and the small
// pure functions that decide operand width.
type Descriptor struct {
	Name           string
	Endian         Endianness
	Mnemonics      map[string]bool
	Opcodes        map[OpKey]Encoding
	ZeroPageRewrite bool // true for 6502-family DP optimization

	// DefaultWidth returns the operand width (bytes) an instruction at
	// this site should reserve given the current flag state, before the
	// operand value itself is known. It receives the owning descriptor so
	// it can consult the opcode table for which widths actually exist.
	DefaultWidth func(d *Descriptor, mnemonic string, mode ast.AddrSyntax, reg, reg2 string, st State) int

	// ValidWidths returns the operand widths a given (mnemonic, mode)
	// pair actually has encodings for.
	ValidWidths func(d *Descriptor, mnemonic string, mode ast.AddrSyntax) []int
}

// lookupKeys is the fallback chain a register-carrying lookup walks:
// exact registers first, then each register position generalized away.
// Register-agnostic descriptors (the 65xx family, and the shape-level
// M68000/ARM/V30MZ/SPC700 tables) key everything at ("","") and hit the
// last step.
func lookupKeys(mnemonic string, mode ast.AddrSyntax, width int, reg, reg2 string) []OpKey {
	return []OpKey{
		{Mnemonic: mnemonic, Mode: mode, Width: width, Reg: reg, Reg2: reg2},
		{Mnemonic: mnemonic, Mode: mode, Width: width, Reg: reg},
		{Mnemonic: mnemonic, Mode: mode, Width: width, Reg2: reg2},
		{Mnemonic: mnemonic, Mode: mode, Width: width},
	}
}

// Lookup finds the encoding for (mnemonic, mode, width, registers), if
// the descriptor defines one. Two-register statements that miss on
// AddrRegPair retry as AddrRegister, for tables that model register
// pairs at shape level only.
func (d *Descriptor) Lookup(mnemonic string, mode ast.AddrSyntax, width int, reg, reg2 string) (Encoding, bool) {
	for _, key := range lookupKeys(mnemonic, mode, width, reg, reg2) {
		if e, ok := d.Opcodes[key]; ok {
			return e, ok
		}
	}
	if mode == ast.AddrRegPair {
		return d.Lookup(mnemonic, ast.AddrRegister, width, reg, reg2)
	}
	return Encoding{}, false
}

// Registry maps a target/platform selector name to its descriptor.
var registry = map[string]*Descriptor{}

// Register adds a descriptor under one or more selector names (e.g. a
// single 65816 descriptor registered under both "65816" and "snes").
func Register(d *Descriptor, names ...string) {
	for _, n := range names {
		registry[n] = d
	}
}

// Find looks up a descriptor by selector name.
func Find(name string) (*Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}
