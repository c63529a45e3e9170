// Package lexer turns a source buffer into a numbered token stream with
// precise locations, single-pass with two characters of lookahead.
package lexer

import "github.com/TheAnsarya/poppy-sub004/internal/source"

// Kind classifies a Token.
type Kind int

const (
	Number Kind = iota
	String
	Character
	Identifier
	Mnemonic
	Directive
	Newline
	Comment
	Punct
	AnonForward  // +, ++, +tag
	AnonBackward // -, --, -tag
	Error
	EOF
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "Number"
	case String:
		return "String"
	case Character:
		return "Character"
	case Identifier:
		return "Identifier"
	case Mnemonic:
		return "Mnemonic"
	case Directive:
		return "Directive"
	case Newline:
		return "Newline"
	case Comment:
		return "Comment"
	case Punct:
		return "Punct"
	case AnonForward:
		return "AnonForward"
	case AnonBackward:
		return "AnonBackward"
	case Error:
		return "Error"
	case EOF:
		return "EOF"
	default:
		return "Unknown"
	}
}

// Token is one lexical unit: a kind, its literal text, the location it
// was written at, and (for Number) a pre-folded numeric value.
type Token struct {
	Kind    Kind
	Text    string
	Loc     source.Location
	Num     int64  // valid when Kind == Number
	HasNum  bool
	Suffix  string // size suffix on a Mnemonic, e.g. "b"/"w"/"l"/"s"
	ErrText string // human message when Kind == Error
}
