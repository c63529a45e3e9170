package ast

import (
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

// AddrSyntax is the syntactic addressing-mode hint the parser assigns to
// an instruction's operand. For the 65xx family this fully
// determines the mode; for M68000/Z80/ARM it is refined by the selected
// architecture descriptor during semantic analysis.
type AddrSyntax int

const (
	AddrNone AddrSyntax = iota
	AddrImmediate         // #e
	AddrIndirect          // (e)
	AddrIndexedIndirectX  // (e,x)
	AddrIndirectIndexedY  // (e),y
	AddrIndirectLong      // [e]
	AddrIndirectLongY     // [e],y
	AddrIndexedX          // e,x
	AddrIndexedY          // e,y
	AddrIndexedS          // e,s (65816 stack-relative)
	AddrAccumulator       // bare 'a'
	AddrDirect            // bare e; width resolved later
	AddrRegister          // bare register name (M68000/Z80/ARM/V30MZ/SPC700)
	AddrRegIndirect       // [reg]
	AddrRegIndirectDisp   // [reg+disp] or disp(reg)
	AddrRegIndirectInc    // [reg++]
	AddrRegIndirectDec    // [reg--]
	AddrRegPair           // two registers, e.g. M68000 EXG Dn,Dn / Z80 EX DE,HL
)

// Instruction is the payload of a StInstruction statement.
type Instruction struct {
	Mnemonic string
	Suffix   string // "", "b", "w", "l", "s"
	Addr     AddrSyntax
	Operand  *Expr  // primary operand expression, when present
	IndexReg string // "x", "y", "s" for 65xx indexed forms
	Reg      string // register name for non-65xx operand forms
	Reg2     string // second register, e.g. EXG Dn,Dn / EX DE,HL
	Disp     *Expr  // displacement for [reg+disp] forms

	// Width is the operand byte-width the semantic analyzer (pass 1)
	// committed to at this site; pass 1 must commit to a width before
	// pass 2 runs, so it never shifts later. The code generator looks up
	// its opcode encoding by this exact width rather than re-deriving it,
	// which is what keeps byte offsets identical across the passes.
	Width int
}

// MacroParam is one formal parameter of a macro definition.
type MacroParam struct {
	Name    string
	Default *Expr // nil if required
}

// CondBranch is one `.if`/`.elseif` arm of a ConditionalBlock.
type CondBranch struct {
	// Directive names the test: "if", "ifdef", "ifndef", "ifeq", "ifne",
	// "ifgt", "iflt", "ifge", "ifle", or "elseif" (same semantics as
	// "if" but chained).
	Directive string
	Cond      *Expr   // for if/elseif
	Symbol    string  // for ifdef/ifndef
	LHS, RHS  *Expr   // for ifeq/ifne/ifgt/iflt/ifge/ifle
	Body      []*Stmt
}

// StmtKind tags the variant of a Stmt node.
type StmtKind int

const (
	StLabel StmtKind = iota
	StLocalLabel
	StAnonLabel
	StInstruction
	StDirective
	StAssignment
	StMacroDef
	StMacroInvoke
	StConditional
	StRepeat
	StEnum
	StScope
	StProc
	StIncludeBinary
	StData
)

// Stmt is one statement-level AST node. It is a tagged union; only the
// fields relevant to Kind are populated.
type Stmt struct {
	Kind StmtKind
	Loc  source.Location
	// Expansion is non-nil when this statement (or the macro/rept body it
	// came from) was produced by expansion; it chains back to the call or
	// repeat site so diagnostics can report both locations.
	Expansion *source.ExpansionSite

	// PC and Len are filled in by the semantic analyzer (pass 1): PC is
	// the logical program counter at the start of this statement, Len is
	// its total emitted byte length. The code generator (pass 2) trusts
	// both rather than recomputing them, so byte offsets cannot shift
	// between the passes.
	PC  int64
	Len int
	// Space records which address space PC was measured in (ROM/RAM/
	// zero-page) at the point this statement was analyzed.
	Space int
	// FillByte is the pad value recorded by .pad/.fill/.ds (0 if omitted).
	FillByte byte

	// StLabel / StLocalLabel
	Name     string
	Exported bool

	// StAnonLabel
	AnonSign byte

	// StInstruction
	Inst Instruction

	// StDirective: generic directives not otherwise modeled as their own
	// Kind (.org, .align, .pad, .fill, .ds, .arch, CPU-state directives,
	// platform/target selectors, platform header fields, .assert, .error,
	// .warning).
	Directive string
	Args      []*Expr
	ArgStrs   []string

	// StAssignment: "=" / "define" / "equ" / "set"
	AssignOp string
	Value    *Expr

	// StMacroDef
	MacroName string
	Params    []MacroParam
	Body      []*Stmt

	// StMacroInvoke: arguments are raw token slices, substituted
	// positionally without re-lexing.
	InvokeName string
	InvokeArgs [][]lexer.Token

	// StConditional
	Branches []CondBranch
	Else     []*Stmt
	HasElse  bool

	// StRepeat
	RepeatCount *Expr
	RepeatBody  []*Stmt

	// StEnum
	EnumStart   *Expr
	EnumMembers []string

	// StScope / StProc
	BlockName string
	BlockBody []*Stmt
	// BlockScope is the symbol-table scope index pass 1 created for this
	// block; pass 2 re-enters the same scope so block-local symbols stay
	// visible.
	BlockScope int

	// StIncludeBinary (.incbin)
	IncbinPath   string
	IncbinOffset *Expr
	IncbinLength *Expr

	// StData (.byte/.db, .word/.dw, .long/.dl, .dword/.dd, and string data)
	DataUnit  int // bytes per unit: 1, 2, 4, 8
	DataItems []*Expr
}
