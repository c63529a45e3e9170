package lexer

import (
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

func lex(t *testing.T, text string) []Token {
	t.Helper()
	reg := source.NewRegistry()
	f := reg.Add("/test.pasm", text)
	return New(f).Tokenize()
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestNumberForms(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"$ff", 255},
		{"$FF", 255},
		{"%1010", 10},
		{"%1010_0101", 0xa5},
		{"42", 42},
		{"1_000", 1000},
		{"$7e:2000", 0x7e2000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			toks := lex(t, tt.in)
			if toks[0].Kind != Number {
				t.Fatalf("kind = %v, want Number", toks[0].Kind)
			}
			if toks[0].Num != tt.want {
				t.Fatalf("value = %d, want %d", toks[0].Num, tt.want)
			}
		})
	}
}

func TestBankFormIsOneToken(t *testing.T) {
	toks := lex(t, "$12:3456")
	if len(toks) != 2 { // Number, EOF
		t.Fatalf("got %d tokens (%v), want 2", len(toks), kinds(toks))
	}
	if want := int64(0x12<<16 | 0x3456); toks[0].Num != want {
		t.Fatalf("value = %#x, want %#x", toks[0].Num, want)
	}
}

func TestIdentifierClassification(t *testing.T) {
	toks := lex(t, ".org lda mylabel @local")
	want := []Kind{Directive, Mnemonic, Identifier, Identifier, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
	if toks[0].Text != "org" {
		t.Errorf("directive text = %q, want %q", toks[0].Text, "org")
	}
	if toks[3].Text != "@local" {
		t.Errorf("local identifier = %q, want %q", toks[3].Text, "@local")
	}
}

func TestMnemonicSizeSuffix(t *testing.T) {
	toks := lex(t, "lda.w #$1234\nmove.l d0,d1")
	if toks[0].Kind != Mnemonic || toks[0].Text != "lda" || toks[0].Suffix != "w" {
		t.Fatalf("lda.w = %v %q suffix %q", toks[0].Kind, toks[0].Text, toks[0].Suffix)
	}
	var moveTok *Token
	for i := range toks {
		if toks[i].Text == "move" {
			moveTok = &toks[i]
			break
		}
	}
	if moveTok == nil || moveTok.Suffix != "l" {
		t.Fatalf("move.l not lexed with suffix l: %+v", moveTok)
	}
}

func TestAnonymousLabelTokens(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		text string
	}{
		{"++", AnonForward, "++"},
		{"--", AnonBackward, "--"},
		{"+loop", AnonForward, "+loop"},
		{"-skip", AnonBackward, "-skip"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			toks := lex(t, tt.in)
			if toks[0].Kind != tt.kind || toks[0].Text != tt.text {
				t.Fatalf("got %v %q, want %v %q", toks[0].Kind, toks[0].Text, tt.kind, tt.text)
			}
		})
	}
}

func TestMinusDigitIsOperatorNotAnonLabel(t *testing.T) {
	toks := lex(t, "1-2")
	want := []Kind{Number, Punct, Number, EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestCompoundOperators(t *testing.T) {
	toks := lex(t, "a << b >> c == d != e <= f >= g && h || i")
	var puncts []string
	for _, tok := range toks {
		if tok.Kind == Punct {
			puncts = append(puncts, tok.Text)
		}
	}
	want := []string{"<<", ">>", "==", "!=", "<=", ">=", "&&", "||"}
	if len(puncts) != len(want) {
		t.Fatalf("puncts = %v, want %v", puncts, want)
	}
	for i := range want {
		if puncts[i] != want[i] {
			t.Fatalf("punct %d = %q, want %q", i, puncts[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	toks := lex(t, `"a\n\t\"b\\"`)
	if toks[0].Kind != String {
		t.Fatalf("kind = %v, want String", toks[0].Kind)
	}
	if toks[0].Text != "a\n\t\"b\\" {
		t.Fatalf("text = %q", toks[0].Text)
	}
}

func TestUnterminatedStringIsErrorToken(t *testing.T) {
	toks := lex(t, `"oops`)
	if toks[0].Kind != Error {
		t.Fatalf("kind = %v, want Error", toks[0].Kind)
	}
}

func TestInvalidEscapeIsErrorToken(t *testing.T) {
	toks := lex(t, `"a\q"`)
	if toks[0].Kind != Error {
		t.Fatalf("kind = %v, want Error", toks[0].Kind)
	}
}

func TestCharacterLiteral(t *testing.T) {
	toks := lex(t, "'A'")
	if toks[0].Kind != Character || toks[0].Num != 'A' {
		t.Fatalf("got %v %d", toks[0].Kind, toks[0].Num)
	}
}

func TestComments(t *testing.T) {
	toks := lex(t, "lda #1 ; tail\n// full line\n/* block\nstill block */ rts")
	var mnemonics []string
	for _, tok := range toks {
		if tok.Kind == Mnemonic {
			mnemonics = append(mnemonics, tok.Text)
		}
	}
	if len(mnemonics) != 2 || mnemonics[0] != "lda" || mnemonics[1] != "rts" {
		t.Fatalf("mnemonics = %v", mnemonics)
	}
}

func TestNestedBlockComment(t *testing.T) {
	toks := lex(t, "/* outer /* inner */ still outer */ nop")
	if toks[0].Kind != Mnemonic || toks[0].Text != "nop" {
		t.Fatalf("got %v %q", toks[0].Kind, toks[0].Text)
	}
}

func TestLocationTracking(t *testing.T) {
	toks := lex(t, "nop\n  lda #1")
	var lda Token
	for _, tok := range toks {
		if tok.Text == "lda" {
			lda = tok
		}
	}
	if lda.Loc.Line != 2 || lda.Loc.Column != 3 {
		t.Fatalf("lda at %d:%d, want 2:3", lda.Loc.Line, lda.Loc.Column)
	}
}
