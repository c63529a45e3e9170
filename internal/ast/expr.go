// Package ast defines the statement and expression trees produced by the
// parser and rewritten in place by the macro/conditional expander.
package ast

import "github.com/TheAnsarya/poppy-sub004/internal/source"

// ExprKind tags the variant of an Expr node.
type ExprKind int

const (
	ExprInt ExprKind = iota
	ExprString
	ExprChar
	ExprSymbol
	ExprPC // '*', current program counter at the referencing site
	ExprAnon
	ExprUnary
	ExprBinary
	ExprGroup
)

// UnaryOp enumerates unary operators, including the address-byte
// extractors.
type UnaryOp int

const (
	UnNeg UnaryOp = iota
	UnNot
	UnBitNot
	UnLowByte  // <e = e & 0xff
	UnHighByte // >e = (e >> 8) & 0xff
	UnBankByte // ^e = (e >> 16) & 0xff
)

// BinaryOp enumerates binary operators.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinAnd
	BinOr
	BinXor
	BinShl
	BinShr
	BinLAnd
	BinLOr
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
)

// Expr is one node of an expression tree. Which fields are meaningful
// depends on Kind.
type Expr struct {
	Kind ExprKind
	Loc  source.Location

	IntVal int64  // ExprInt
	StrVal string // ExprString, ExprChar (single byte), ExprSymbol (name)

	// ExprAnon: anonymous label reference, e.g. "+", "++", "-tag".
	AnonSign  byte // '+' or '-'
	AnonCount int  // number of sign repeats
	AnonTag   string

	UnOp  UnaryOp
	BinOp BinaryOp
	X     *Expr // unary operand, or grouped expression
	L, R  *Expr // binary operands
}

// Int builds an ExprInt node.
func Int(loc source.Location, v int64) *Expr { return &Expr{Kind: ExprInt, Loc: loc, IntVal: v} }

// Str builds an ExprString node.
func Str(loc source.Location, s string) *Expr { return &Expr{Kind: ExprString, Loc: loc, StrVal: s} }

// Chr builds an ExprChar node.
func Chr(loc source.Location, v int64) *Expr {
	return &Expr{Kind: ExprChar, Loc: loc, IntVal: v}
}

// Sym builds an ExprSymbol node referencing name.
func Sym(loc source.Location, name string) *Expr {
	return &Expr{Kind: ExprSymbol, Loc: loc, StrVal: name}
}

// PC builds the '*' current-program-counter node.
func PC(loc source.Location) *Expr { return &Expr{Kind: ExprPC, Loc: loc} }

// Anon builds an anonymous-label reference node.
func Anon(loc source.Location, sign byte, count int, tag string) *Expr {
	return &Expr{Kind: ExprAnon, Loc: loc, AnonSign: sign, AnonCount: count, AnonTag: tag}
}

// Unary builds a unary-operator node.
func Unary(loc source.Location, op UnaryOp, x *Expr) *Expr {
	return &Expr{Kind: ExprUnary, Loc: loc, UnOp: op, X: x}
}

// Binary builds a binary-operator node.
func Binary(loc source.Location, op BinaryOp, l, r *Expr) *Expr {
	return &Expr{Kind: ExprBinary, Loc: loc, BinOp: op, L: l, R: r}
}

// Group builds a parenthesized-grouping node; it carries no semantics
// beyond marking that the subexpression was explicitly parenthesized
// (kept only so pretty-printers can round-trip, evaluation ignores it).
func Group(loc source.Location, x *Expr) *Expr {
	return &Expr{Kind: ExprGroup, Loc: loc, X: x}
}
