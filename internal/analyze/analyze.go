// Package analyze implements pass 1 of the assembler: a single
// walk over the expanded statement stream that tracks the logical program
// counter per address space, resolves every label and constant into the
// symbol table, commits each instruction to an operand width, and records
// the platform/header metadata carried by target-selector directives.
//
// Pass 1 never emits bytes. What it writes back onto each *ast.Stmt (PC,
// Len, Inst.Width, Space, FillByte) is what pass 2 trusts verbatim, so
// byte offsets never shift between the passes by construction rather
// than by accident.
package analyze

import (
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/arch"
	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/eval"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// BinarySizer reports the length of a file an .incbin refers to, so pass 1
// can advance the PC by the correct amount without reading the bytes
// themselves (pass 2 does the actual read).
type BinarySizer interface {
	Size(path string) (int64, error)
}

// Metadata accumulates the platform/header facts set by target-selector
// and header-field directives (.nes, .snes, lorom, .ines_mapper, ...). The
// output formatters consume this after assembly completes.
type Metadata struct {
	Platform string // "nes", "snes", "gb", "genesis", "gba", "sms", "pce", "a26", "lnx", "ws", "spc"
	MapMode  string // "lorom", "hirom", "exhirom" (SNES only)

	Ints map[string]int64
	Strs map[string]string
}

// NewMetadata returns an empty Metadata ready for directive capture.
func NewMetadata() *Metadata {
	return &Metadata{Ints: map[string]int64{}, Strs: map[string]string{}}
}

// platformArch maps a target selector to its default architecture name,
// used when a platform directive appears before any explicit .arch.
var platformArch = map[string]string{
	"nes": "6502", "a26": "6507", "lnx": "6502",
	"snes": "65816",
	"gb":   "sm83", "gbc": "sm83",
	"genesis": "m68000", "md": "m68000",
	"gba":  "arm7",
	"sms":  "z80", "gg": "z80",
	"pce": "huc6280",
	"ws":  "v30mz",
	"spc": "spc700",
}

// mapModeNames are standalone directives recording the SNES ROM mapping.
var mapModeNames = map[string]bool{"lorom": true, "hirom": true, "exhirom": true}

// Analyzer runs pass 1 over an already macro/conditional-expanded
// statement sequence.
type Analyzer struct {
	Bag    *diag.Bag
	Symtab *symtab.Table
	Meta   *Metadata

	descriptor   *arch.Descriptor
	explicitArch bool
	state        arch.State

	// Each address space keeps its own program counter: code is what the
	// code generator turns into image bytes, RAM/zero-page declarations
	// (".ds" under a ".zeropage"/".bss" section) only reserve addresses
	// and symbol values, never image bytes.
	codePC int64
	ramPC  int64
	zpPC   int64
	space  symtab.AddressSpace

	sizer BinarySizer
}

func (a *Analyzer) pc() int64 {
	switch a.space {
	case symtab.SpaceRAM:
		return a.ramPC
	case symtab.SpaceZeroPage:
		return a.zpPC
	default:
		return a.codePC
	}
}

func (a *Analyzer) setPC(v int64) {
	switch a.space {
	case symtab.SpaceRAM:
		a.ramPC = v
	case symtab.SpaceZeroPage:
		a.zpPC = v
	default:
		a.codePC = v
	}
}

func (a *Analyzer) addPC(n int64) {
	a.setPC(a.pc() + n)
}

// New creates an Analyzer. initialArch, when non-empty, pins the
// architecture before any platform/.arch directive is seen (useful for
// tests that assemble a bare fragment against one CPU).
func New(bag *diag.Bag, st *symtab.Table, initialArch string, sizer BinarySizer) *Analyzer {
	a := &Analyzer{
		Bag:    bag,
		Symtab: st,
		Meta:   NewMetadata(),
		state:  arch.DefaultState(),
		sizer:  sizer,
	}
	if initialArch != "" {
		if d, ok := arch.Find(initialArch); ok {
			a.descriptor = d
			a.explicitArch = true
		}
	}
	return a
}

// PC returns the logical program counter after the last statement run.
func (a *Analyzer) PC() int64 { return a.pc() }

// Descriptor returns the architecture descriptor selected so far, or nil
// if no platform/.arch directive has resolved one yet.
func (a *Analyzer) Descriptor() *arch.Descriptor { return a.descriptor }

// Run walks stmts in order, mutating each one's PC/Len/Space/FillByte (and,
// for instructions, Inst.Width) in place.
func (a *Analyzer) Run(stmts []*ast.Stmt) {
	for _, s := range stmts {
		a.stmt(s)
	}
}

func (a *Analyzer) stmt(s *ast.Stmt) {
	s.PC = a.pc()
	s.Space = int(a.space)

	switch s.Kind {
	case ast.StLabel:
		a.Symtab.DefineLabel(s.Name, a.pc(), a.space, s.Loc, s.Exported)
		a.Symtab.EnterNonLocalLabel(s.Name)
		s.Len = 0

	case ast.StLocalLabel:
		a.Symtab.DefineLocalLabel(s.Name, a.pc(), s.Loc)
		s.Len = 0

	case ast.StAnonLabel:
		a.Symtab.DefineAnonLabel(s.AnonSign, s.Name, a.pc(), s.Loc)
		s.Len = 0

	case ast.StInstruction:
		a.instruction(s)

	case ast.StDirective:
		a.directive(s)

	case ast.StAssignment:
		a.assignment(s)

	case ast.StData:
		a.data(s)

	case ast.StIncludeBinary:
		a.incbin(s)

	case ast.StScope, ast.StProc:
		entry := a.pc()
		s.BlockScope = a.Symtab.PushScope(s.BlockName)
		a.Run(s.BlockBody)
		a.Symtab.PopScope()
		s.PC = entry
		s.Len = int(a.pc() - entry)

	case ast.StMacroDef:
		// Already consumed by expansion; nothing to measure.
		s.Len = 0

	case ast.StConditional, ast.StRepeat, ast.StEnum, ast.StMacroInvoke:
		// The expander removes these before pass 1 ever sees them; kept
		// here only so a stray unexpanded node doesn't panic.
		s.Len = 0
	}
}

func (a *Analyzer) evalConst(e *ast.Expr) eval.Result {
	return eval.Eval(e, &eval.Env{Symtab: a.Symtab, PC: a.pc(), Bag: a.Bag, Mode: eval.ConstantOnly})
}

func (a *Analyzer) instruction(s *ast.Stmt) {
	if a.descriptor == nil {
		a.Bag.Add(diag.DirectiveError, s.Loc, "no target architecture selected before instruction %q", s.Inst.Mnemonic)
		s.Len = 0
		return
	}
	mnemonic := strings.ToLower(s.Inst.Mnemonic)
	mode := s.Inst.Addr

	a.trackFlagState(mnemonic, s)

	width := a.descriptor.DefaultWidth(a.descriptor, mnemonic, mode, s.Inst.Reg, s.Inst.Reg2, a.state)
	if a.descriptor.ZeroPageRewrite && isDirectFamily(mode) {
		widths := a.descriptor.ValidWidths(a.descriptor, mnemonic, mode)
		if len(widths) > 1 && s.Inst.Operand != nil {
			if res := a.evalConst(s.Inst.Operand); res.Resolved && !res.IsString && res.Value >= 0 && res.Value <= 0xff {
				width = 1
			}
		}
	}
	s.Inst.Width = width

	enc, ok := a.descriptor.Lookup(mnemonic, mode, width, s.Inst.Reg, s.Inst.Reg2)
	if !ok {
		a.Bag.Add(diag.EncodingError, s.Loc, "no %s encoding for %q in this addressing mode", a.descriptor.Name, s.Inst.Mnemonic)
		s.Len = 0

		return
	}
	s.Len = len(enc.Opcode) + enc.OperandBytes
	a.addPC(int64(s.Len))
}

func isDirectFamily(mode ast.AddrSyntax) bool {
	return mode == ast.AddrDirect || mode == ast.AddrIndexedX || mode == ast.AddrIndexedY
}

// trackFlagState keeps the 65816 M/X width state current as literal
// rep/sep instructions go by. A rep/sep
// whose operand can't be resolved in pass 1 invalidates the tracked state
// until the next explicit .a8/
// .a16/.i8/.i16 directive restores it.
func (a *Analyzer) trackFlagState(mnemonic string, s *ast.Stmt) {
	if a.descriptor == nil || a.descriptor.Name != "65816" {
		return
	}
	if mnemonic != "rep" && mnemonic != "sep" {
		return
	}
	res := a.evalConst(s.Inst.Operand)
	if !res.Resolved || res.IsString {
		a.state.FlagsKnown = false
		return
	}
	set := mnemonic == "sep"
	if res.Value&0x20 != 0 {
		a.state.MFlag8 = set
	}
	if res.Value&0x10 != 0 {
		a.state.XFlag8 = set
	}
}

func (a *Analyzer) assignment(s *ast.Stmt) {
	mutable := s.AssignOp == "set"
	res := a.evalConst(s.Value)
	if !res.Resolved {
		a.Bag.Add(diag.EvalError, s.Loc, "%q is not a constant expression in pass 1", s.Name)
		s.Len = 0
		return
	}
	a.Symtab.DefineConstant(s.Name, res.Value, s.Loc, mutable)
	s.Len = 0
}

func (a *Analyzer) data(s *ast.Stmt) {
	unit := s.DataUnit
	if unit <= 0 {
		unit = 1
	}
	total := 0
	for _, item := range s.DataItems {
		if item.Kind == ast.ExprString {
			total += len(item.StrVal) * unit
			continue
		}
		total += unit
	}
	s.Len = total
	a.addPC(int64(total))
}

func (a *Analyzer) incbin(s *ast.Stmt) {
	var offset int64
	if s.IncbinOffset != nil {
		if res := a.evalConst(s.IncbinOffset); res.Resolved {
			offset = res.Value
		}
	}
	var length int64
	switch {
	case s.IncbinLength != nil:
		if res := a.evalConst(s.IncbinLength); res.Resolved {
			length = res.Value
		}
	case a.sizer != nil:
		sz, err := a.sizer.Size(s.IncbinPath)
		if err != nil {
			a.Bag.Add(diag.IoError, s.Loc, "reading %q: %v", s.IncbinPath, err)
			break
		}
		length = sz - offset
		if length < 0 {
			length = 0
		}
	default:
		a.Bag.Add(diag.IoError, s.Loc, "no way to size %q", s.IncbinPath)
	}
	s.Len = int(length)
	a.addPC(length)
}

func (a *Analyzer) directive(s *ast.Stmt) {
	name := strings.ToLower(s.Directive)
	switch name {
	case "org":
		if res := a.requireConst(s, 0); res.Resolved {
			a.setPC(res.Value)
		}
		s.Len = 0

	case "align":
		n := a.argInt(s, 0, 1)
		if n <= 0 {
			n = 1
		}
		rem := a.pc() % n
		pad := int64(0)
		if rem != 0 {
			pad = n - rem
		}
		s.FillByte = byte(a.argInt(s, 1, 0))
		s.Len = int(pad)
		a.addPC(pad)

	case "pad":
		target := a.argInt(s, 0, a.pc())
		if target < a.pc() {
			a.Bag.Add(diag.DirectiveError, s.Loc, ".pad target 0x%x is before the current address 0x%x", target, a.pc())
			s.Len = 0
			return
		}
		s.FillByte = byte(a.argInt(s, 1, 0))
		s.Len = int(target - a.pc())
		a.setPC(target)

	case "fill", "ds":
		n := a.argInt(s, 0, 0)
		if n < 0 {
			n = 0
		}
		s.FillByte = byte(a.argInt(s, 1, 0))
		s.Len = int(n)
		a.addPC(n)

	case "assert":
		a.assert(s)
		s.Len = 0

	case "error":
		a.Bag.Add(diag.DirectiveError, s.Loc, "%s", a.argString(s, 0, "error"))
		s.Len = 0

	case "warning":
		a.Bag.Add(diag.Warning, s.Loc, "%s", a.argString(s, 0, "warning"))
		s.Len = 0

	case "a8", "m8":
		a.state.MFlag8, a.state.FlagsKnown = true, true
		s.Len = 0
	case "a16", "m16":
		a.state.MFlag8, a.state.FlagsKnown = false, true
		s.Len = 0
	case "i8", "x8":
		a.state.XFlag8, a.state.FlagsKnown = true, true
		s.Len = 0
	case "i16", "x16":
		a.state.XFlag8, a.state.FlagsKnown = false, true
		s.Len = 0
	case "smart":
		a.state.FlagsKnown = true
		s.Len = 0

	case "arm":
		a.state.Thumb = false
		s.Len = 0
	case "thumb":
		a.state.Thumb = true
		s.Len = 0

	case "zeropage", "zp":
		a.space = symtab.SpaceZeroPage
		s.Len = 0
	case "bss", "ram":
		a.space = symtab.SpaceRAM
		s.Len = 0
	case "code", "text":
		a.space = symtab.SpaceCode
		s.Len = 0

	case "arch":
		target := a.argName(s, 0)
		if d, ok := arch.Find(target); ok {
			a.descriptor = d
			a.explicitArch = true
			a.state = arch.DefaultState()
		} else {
			a.Bag.Add(diag.DirectiveError, s.Loc, "unknown architecture %q", target)
		}
		s.Len = 0

	default:
		if def, ok := platformArch[name]; ok {
			a.Meta.Platform = name
			if !a.explicitArch {
				if d, ok := arch.Find(def); ok {
					a.descriptor = d
					a.state = arch.DefaultState()
				}
			}
			s.Len = 0
			return
		}
		if mapModeNames[name] {
			a.Meta.MapMode = name
			s.Len = 0
			return
		}
		a.captureHeaderField(s, name)
		s.Len = 0
	}
}

func (a *Analyzer) assert(s *ast.Stmt) {
	if len(s.Args) == 0 {
		return
	}
	res := a.evalConst(s.Args[0])
	if !res.Resolved {
		a.Bag.Add(diag.EvalError, s.Loc, "assert condition could not be resolved")
		return
	}
	if res.Value != 0 {
		return
	}
	msg := "assertion failed"
	if len(s.Args) > 1 {
		if m := a.evalConst(s.Args[1]); m.Resolved && m.IsString {
			msg = m.Str
		}
	}
	a.Bag.Add(diag.DirectiveError, s.Loc, "%s", msg)
}

// captureHeaderField records a platform header directive (.ines_mapper 4,
// snes_title "GAME", ...) generically; the output formatters read these
// back by name, so pass 1 doesn't need to know every target's schema.
func (a *Analyzer) captureHeaderField(s *ast.Stmt, name string) {
	if len(s.Args) == 0 {
		a.Meta.Ints[name] = 1
		return
	}
	if s.Args[0].Kind == ast.ExprString {
		a.Meta.Strs[name] = s.Args[0].StrVal
		return
	}
	res := a.evalConst(s.Args[0])
	if !res.Resolved {
		a.Bag.Add(diag.DirectiveError, s.Loc, "%q requires a constant argument", name)
		return
	}
	if res.IsString {
		a.Meta.Strs[name] = res.Str
		return
	}
	a.Meta.Ints[name] = res.Value
}

func (a *Analyzer) requireConst(s *ast.Stmt, idx int) eval.Result {
	if idx >= len(s.Args) {
		a.Bag.Add(diag.DirectiveError, s.Loc, ".%s requires an argument", s.Directive)
		return eval.Result{}
	}
	res := a.evalConst(s.Args[idx])
	if !res.Resolved {
		a.Bag.Add(diag.EvalError, s.Loc, ".%s argument could not be resolved", s.Directive)
	}
	return res
}

func (a *Analyzer) argInt(s *ast.Stmt, idx int, dflt int64) int64 {
	if idx >= len(s.Args) {
		return dflt
	}
	res := a.evalConst(s.Args[idx])
	if !res.Resolved || res.IsString {
		return dflt
	}
	return res.Value
}

func (a *Analyzer) argString(s *ast.Stmt, idx int, dflt string) string {
	if idx >= len(s.Args) {
		return dflt
	}
	if s.Args[idx].Kind == ast.ExprString {
		return s.Args[idx].StrVal
	}
	res := a.evalConst(s.Args[idx])
	if res.Resolved && res.IsString {
		return res.Str
	}
	return dflt
}

func (a *Analyzer) argName(s *ast.Stmt, idx int) string {
	if idx >= len(s.Args) {
		return ""
	}
	e := s.Args[idx]
	if e.Kind == ast.ExprString || e.Kind == ast.ExprSymbol {
		return e.StrVal
	}
	return ""
}
