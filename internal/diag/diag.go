// Package diag defines the diagnostic kinds surfaced across the assembly
// pipeline and the bag used to collect them without aborting a pass.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

// Kind classifies a diagnostic. Names match the error kinds of the
// specification's error-handling design.
type Kind int

const (
	LexError Kind = iota
	ParseError
	IncludeError
	MacroError
	EvalError
	TypeError
	UndefinedSymbol
	DuplicateSymbol
	ScopeError
	EncodingError
	BranchOutOfRange
	DirectiveError
	IoError
	InternalError
	Warning
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case IncludeError:
		return "IncludeError"
	case MacroError:
		return "MacroError"
	case EvalError:
		return "EvalError"
	case TypeError:
		return "TypeError"
	case UndefinedSymbol:
		return "UndefinedSymbol"
	case DuplicateSymbol:
		return "DuplicateSymbol"
	case ScopeError:
		return "ScopeError"
	case EncodingError:
		return "EncodingError"
	case BranchOutOfRange:
		return "BranchOutOfRange"
	case DirectiveError:
		return "DirectiveError"
	case IoError:
		return "IoError"
	case InternalError:
		return "InternalError"
	case Warning:
		return "Warning"
	default:
		return "Unknown"
	}
}

// Diagnostic is a single reported problem, located in the original source
// even when it was raised against a macro-expanded statement.
type Diagnostic struct {
	Kind    Kind
	Loc     source.Location
	Message string
}

// Fatal reports whether this diagnostic kind always aborts the
// compilation immediately rather than being collected for later.
func (d Diagnostic) Fatal() bool {
	return d.Kind == InternalError
}

// Format renders the diagnostic as "file:line:column: Kind: message",
// followed by the offending source line and a caret, when reg is
// supplied.
func (d Diagnostic) Format(reg *source.Registry) string {
	var sb strings.Builder
	path := "<unknown>"
	if reg != nil {
		if p := reg.Path(d.Loc.File); p != "" {
			path = p
		}
	}
	fmt.Fprintf(&sb, "%s:%d:%d: %s: %s", path, d.Loc.Line, d.Loc.Column, d.Kind, d.Message)
	if reg != nil {
		if f := reg.Get(d.Loc.File); f != nil {
			line := f.LineText(d.Loc.Line)
			if line != "" {
				sb.WriteByte('\n')
				sb.WriteString(line)
				sb.WriteByte('\n')
				col := d.Loc.Column
				if col < 1 {
					col = 1
				}
				sb.WriteString(strings.Repeat(" ", col-1))
				sb.WriteByte('^')
			}
		}
	}
	return sb.String()
}

// Bag accumulates diagnostics across a compilation. Passes keep going
// after a recoverable diagnostic; the bag is consulted at the end to
// decide whether output is written.
type Bag struct {
	items []Diagnostic
}

// Add appends a diagnostic built from a printf-style message.
func (b *Bag) Add(kind Kind, loc source.Location, format string, args ...interface{}) {
	b.items = append(b.items, Diagnostic{Kind: kind, Loc: loc, Message: fmt.Sprintf(format, args...)})
}

// AddDiagnostic appends a pre-built Diagnostic.
func (b *Bag) AddDiagnostic(d Diagnostic) {
	b.items = append(b.items, d)
}

// All returns every collected diagnostic in insertion order.
func (b *Bag) All() []Diagnostic {
	return b.items
}

// Errors returns diagnostics whose Kind is not Warning.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Kind != Warning {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any non-Warning diagnostic was collected. A
// compilation succeeds only when this is false.
func (b *Bag) HasErrors() bool {
	for _, d := range b.items {
		if d.Kind != Warning {
			return true
		}
	}
	return false
}

// Len returns the total number of diagnostics, warnings included.
func (b *Bag) Len() int {
	return len(b.items)
}

// SortByLocation orders diagnostics deterministically by (file, line,
// column), the order in which a listing would present them.
func (b *Bag) SortByLocation() {
	sort.SliceStable(b.items, func(i, j int) bool {
		a, c := b.items[i].Loc, b.items[j].Loc
		if a.File != c.File {
			return a.File < c.File
		}
		if a.Line != c.Line {
			return a.Line < c.Line
		}
		return a.Column < c.Column
	})
}
