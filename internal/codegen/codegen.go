// Package codegen implements pass 2 of the assembler: it
// re-walks the same expanded statement stream pass 1 already measured and
// emits the bytes pass 1 committed to. It never recomputes PC, length, or
// operand width — those came from *ast.Stmt/Instruction already and
// re-deriving them here is exactly how the two passes would drift apart.
package codegen

import (
	"encoding/binary"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/analyze"
	"github.com/TheAnsarya/poppy-sub004/internal/arch"
	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/eval"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// BinaryReader supplies the raw bytes an .incbin pulls in.
type BinaryReader interface {
	Read(path string, offset, length int64) ([]byte, error)
}

// Image is the assembled code-space byte stream plus the bookkeeping a
// listing or debug-symbol exporter needs afterward.
type Image struct {
	Base  int64 // address of Bytes[0]
	Bytes []byte

	// Entries records one (address, length) span per statement that
	// produced code-space bytes, in emission order, for the listing
	// renderer.
	Entries []Entry
}

// Entry is one listing line's worth of generated bytes.
type Entry struct {
	Stmt  *ast.Stmt
	Addr  int64
	Bytes []byte
}

func (img *Image) write(bag *diag.Bag, loc source.Location, addr int64, data []byte) {
	if len(data) == 0 {
		return
	}
	if len(img.Bytes) == 0 {
		img.Base = addr
	}
	end := img.Base + int64(len(img.Bytes))
	if addr < end {
		bag.Add(diag.EncodingError, loc, "out-of-order emission at 0x%x (already emitted through 0x%x)", addr, end)
		return
	}
	if addr > end {
		img.Bytes = append(img.Bytes, make([]byte, addr-end)...)
	}
	img.Bytes = append(img.Bytes, data...)
}

// Generator runs pass 2 over a statement sequence already measured by
// analyze.Analyzer, producing one Image per address space that actually
// emits bytes (code space only — RAM/zero-page declarations reserve
// addresses but contribute nothing to the output image).
type Generator struct {
	Bag    *diag.Bag
	Symtab *symtab.Table
	Meta   *analyze.Metadata

	descriptor *arch.Descriptor
	state      arch.State
	reader     BinaryReader

	Code Image
}

// New creates a Generator sharing the symbol table and metadata pass 1
// populated, and the initial architecture descriptor pass 1 ended up
// selecting (so a fragment that never repeats its .arch/platform
// directive in pass 2 still targets the right CPU).
func New(bag *diag.Bag, st *symtab.Table, meta *analyze.Metadata, initial *arch.Descriptor, reader BinaryReader) *Generator {
	return &Generator{
		Bag:        bag,
		Symtab:     st,
		Meta:       meta,
		descriptor: initial,
		state:      arch.DefaultState(),
		reader:     reader,
	}
}

// Run walks stmts in the same order pass 1 did, emitting bytes for every
// statement pass 1 measured as occupying code space.
func (g *Generator) Run(stmts []*ast.Stmt) {
	for _, s := range stmts {
		g.stmt(s)
	}
}

func (g *Generator) stmt(s *ast.Stmt) {
	switch s.Kind {
	case ast.StInstruction:
		g.instruction(s)
	case ast.StDirective:
		g.directive(s)
	case ast.StData:
		g.data(s)
	case ast.StIncludeBinary:
		g.incbin(s)
	case ast.StLabel:
		g.Symtab.EnterNonLocalLabel(s.Name)
	case ast.StScope, ast.StProc:
		g.Symtab.EnterScope(s.BlockScope)
		g.Run(s.BlockBody)
		g.Symtab.PopScope()
	}
}

func (g *Generator) evalFinal(e *ast.Expr, pc int64) eval.Result {
	return eval.Eval(e, &eval.Env{Symtab: g.Symtab, PC: pc, Bag: g.Bag, Mode: eval.Final})
}

func (g *Generator) instruction(s *ast.Stmt) {
	if symtab.AddressSpace(s.Space) != symtab.SpaceCode {
		return
	}
	if g.descriptor == nil {
		return
	}
	mnemonic := strings.ToLower(s.Inst.Mnemonic)
	enc, ok := g.descriptor.Lookup(mnemonic, s.Inst.Addr, s.Inst.Width, s.Inst.Reg, s.Inst.Reg2)
	if !ok {
		g.Bag.Add(diag.EncodingError, s.Loc, "no %s encoding for %q", g.descriptor.Name, s.Inst.Mnemonic)
		return
	}

	out := append([]byte{}, enc.Opcode...)

	switch {
	case enc.IsBranch:
		out = append(out, g.encodeBranch(s, enc)...)
	case enc.OperandBytes > 0 && s.Inst.Operand != nil:
		res := g.evalFinal(s.Inst.Operand, s.PC)
		out = append(out, g.encodeInt(res.Value, enc.OperandBytes)...)
	case enc.OperandBytes > 0 && s.Inst.Disp != nil:
		res := g.evalFinal(s.Inst.Disp, s.PC)
		out = append(out, g.encodeInt(res.Value, enc.OperandBytes)...)
	}

	if len(out) != s.Len {
		// Pass 1 and pass 2 disagreed on length; pad/truncate defensively
		// so an already-reported EncodingError doesn't also corrupt every
		// following address. Real assemblies never hit this path.
		if len(out) < s.Len {
			out = append(out, make([]byte, s.Len-len(out))...)
		} else {
			out = out[:s.Len]
		}
	}

	g.Code.write(g.Bag, s.Loc, s.PC, out)
	g.Code.Entries = append(g.Code.Entries, Entry{Stmt: s, Addr: s.PC, Bytes: out})
}

func (g *Generator) encodeBranch(s *ast.Stmt, enc arch.Encoding) []byte {
	targetExpr := s.Inst.Operand
	if targetExpr == nil {
		targetExpr = s.Inst.Disp
	}
	res := g.evalFinal(targetExpr, s.PC)
	if !res.Resolved {
		return make([]byte, enc.OperandBytes)
	}
	siteEnd := s.PC + int64(len(enc.Opcode)) + int64(enc.OperandBytes)
	disp := res.Value - siteEnd

	bits := enc.BranchField
	if bits == 0 {
		bits = enc.OperandBytes * 8
	}
	lo, hi := rangeFor(bits)
	if disp < lo || disp > hi {
		g.Bag.Add(diag.BranchOutOfRange, s.Loc, "branch target out of range (%d not in [%d,%d])", disp, lo, hi)
	}
	return g.encodeInt(disp, enc.OperandBytes)
}

func rangeFor(bits int) (int64, int64) {
	if bits <= 0 || bits > 63 {
		bits = 8
	}
	hi := int64(1)<<(uint(bits)-1) - 1
	lo := -(int64(1) << (uint(bits) - 1))
	return lo, hi
}

func (g *Generator) encodeInt(v int64, n int) []byte {
	buf := make([]byte, n)
	switch g.endian() {
	case arch.BigEndian:
		switch n {
		case 1:
			buf[0] = byte(v)
		case 2:
			binary.BigEndian.PutUint16(buf, uint16(v))
		case 4:
			binary.BigEndian.PutUint32(buf, uint32(v))
		default:
			for i := 0; i < n; i++ {
				buf[n-1-i] = byte(v >> (uint(i) * 8))
			}
		}
	default:
		switch n {
		case 1:
			buf[0] = byte(v)
		case 2:
			binary.LittleEndian.PutUint16(buf, uint16(v))
		case 4:
			binary.LittleEndian.PutUint32(buf, uint32(v))
		default:
			for i := 0; i < n; i++ {
				buf[i] = byte(v >> (uint(i) * 8))
			}
		}
	}
	return buf
}

func (g *Generator) endian() arch.Endianness {
	if g.descriptor == nil {
		return arch.LittleEndian
	}
	return g.descriptor.Endian
}

func (g *Generator) data(s *ast.Stmt) {
	if symtab.AddressSpace(s.Space) != symtab.SpaceCode {
		return
	}
	unit := s.DataUnit
	if unit <= 0 {
		unit = 1
	}
	var out []byte
	pc := s.PC
	for _, item := range s.DataItems {
		if item.Kind == ast.ExprString {
			out = append(out, []byte(item.StrVal)...)
			pc += int64(len(item.StrVal)) * int64(unit)
			continue
		}
		res := g.evalFinal(item, pc)
		out = append(out, g.encodeInt(res.Value, unit)...)
		pc += int64(unit)
	}
	g.Code.write(g.Bag, s.Loc, s.PC, out)
	g.Code.Entries = append(g.Code.Entries, Entry{Stmt: s, Addr: s.PC, Bytes: out})
}

func (g *Generator) incbin(s *ast.Stmt) {
	if symtab.AddressSpace(s.Space) != symtab.SpaceCode {
		return
	}
	if g.reader == nil {
		g.Bag.Add(diag.IoError, s.Loc, "no binary reader configured for .incbin %q", s.IncbinPath)
		return
	}
	var offset int64
	if s.IncbinOffset != nil {
		offset = g.evalFinal(s.IncbinOffset, s.PC).Value
	}
	data, err := g.reader.Read(s.IncbinPath, offset, int64(s.Len))
	if err != nil {
		g.Bag.Add(diag.IoError, s.Loc, "reading %q: %v", s.IncbinPath, err)
		return
	}
	g.Code.write(g.Bag, s.Loc, s.PC, data)
	g.Code.Entries = append(g.Code.Entries, Entry{Stmt: s, Addr: s.PC, Bytes: data})
}

func (g *Generator) directive(s *ast.Stmt) {
	name := strings.ToLower(s.Directive)
	switch name {
	case "align", "pad", "fill", "ds":
		if symtab.AddressSpace(s.Space) != symtab.SpaceCode || s.Len == 0 {
			return
		}
		out := make([]byte, s.Len)
		for i := range out {
			out[i] = s.FillByte
		}
		g.Code.write(g.Bag, s.Loc, s.PC, out)
		g.Code.Entries = append(g.Code.Entries, Entry{Stmt: s, Addr: s.PC, Bytes: out})
	case "arch":
		// .arch mid-stream switches the descriptor the same way pass 1
		// did; re-derive it from the directive argument rather than
		// threading the choice through Stmt.
		if len(s.Args) > 0 && (s.Args[0].Kind == ast.ExprSymbol || s.Args[0].Kind == ast.ExprString) {
			if d, ok := arch.Find(s.Args[0].StrVal); ok {
				g.descriptor = d
				g.state = arch.DefaultState()
			}
		}
	}
}
