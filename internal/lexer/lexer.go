package lexer

import (
	"strconv"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

// sizeSuffixes are the suffixes that the 65816, M68000, and ARM branch
// hints accept on a mnemonic.
var sizeSuffixes = map[byte]bool{'b': true, 'w': true, 'l': true, 's': true}

// Lexer is a single-pass tokenizer with at most two characters of
// lookahead.
type Lexer struct {
	file *source.File
	text string
	pos  int
}

// New creates a Lexer over f's text.
func New(f *source.File) *Lexer {
	return &Lexer{file: f, text: f.Text}
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.text) {
		return 0
	}
	return l.text[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.text) {
		return 0
	}
	return l.text[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.text[l.pos]
	l.pos++
	return c
}

func (l *Lexer) loc() source.Location {
	return l.file.LocationAt(l.pos)
}

func (l *Lexer) tokAt(start int, kind Kind, text string) Token {
	return Token{Kind: kind, Text: text, Loc: l.file.LocationAt(start)}
}

// Tokenize lexes the entire file into a token slice terminated by EOF.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Kind == EOF {
			break
		}
	}
	return toks
}

// Next returns the next token in the stream.
func (l *Lexer) Next() Token {
	for {
		c := l.peek()
		if c == 0 {
			return l.tokAt(l.pos, EOF, "")
		}

		switch {
		case c == '\n':
			start := l.pos
			l.advance()
			return l.tokAt(start, Newline, "\n")
		case c == ' ' || c == '\t' || c == '\r':
			l.advance()
			continue
		case c == ';':
			return l.lexLineComment(";")
		case c == '/' && l.peekAt(1) == '/':
			return l.lexLineComment("//")
		case c == '/' && l.peekAt(1) == '*':
			if t, ok := l.lexBlockComment(); ok {
				return t
			}
			continue
		case c == '"':
			return l.lexString()
		case c == '\'':
			return l.lexChar()
		case c == '$':
			return l.lexHexOrBank()
		case c == '%':
			if isBinDigit(l.peekAt(1)) || l.peekAt(1) == '_' {
				return l.lexBinary()
			}
			return l.lexPunct()
		case isDigit(c):
			return l.lexDecimal()
		case c == '.':
			return l.lexDirective()
		case c == '@':
			return l.lexIdentifier()
		case c == '+' || c == '-':
			if t, ok := l.lexAnonymousLabel(); ok {
				return t
			}
			return l.lexPunct()
		case isIdentStart(c):
			return l.lexIdentifierOrMnemonic()
		default:
			return l.lexPunct()
		}
	}
}

func (l *Lexer) lexLineComment(marker string) Token {
	start := l.pos
	for l.peek() != 0 && l.peek() != '\n' {
		l.advance()
	}
	return l.tokAt(start, Comment, l.text[start:l.pos])
}

// lexBlockComment consumes a nestable /* ... */ comment. Returns ok=false
// (meaning "keep scanning") unless the comment is unterminated, in which
// case it returns an Error token.
func (l *Lexer) lexBlockComment() (Token, bool) {
	start := l.pos
	l.advance() // '/'
	l.advance() // '*'
	depth := 1
	for depth > 0 {
		if l.peek() == 0 {
			return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "unterminated block comment"}, true
		}
		if l.peek() == '/' && l.peekAt(1) == '*' {
			l.advance()
			l.advance()
			depth++
			continue
		}
		if l.peek() == '*' && l.peekAt(1) == '/' {
			l.advance()
			l.advance()
			depth--
			continue
		}
		l.advance()
	}
	return Token{}, false
}

func (l *Lexer) lexString() Token {
	start := l.pos
	l.advance() // opening quote
	var sb strings.Builder
	for {
		c := l.peek()
		if c == 0 || c == '\n' {
			return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "unterminated string literal"}
		}
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			esc, ok := l.escape()
			if !ok {
				return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "invalid escape sequence"}
			}
			sb.WriteByte(esc)
			continue
		}
		sb.WriteByte(l.advance())
	}
	return Token{Kind: String, Text: sb.String(), Loc: l.file.LocationAt(start)}
}

func (l *Lexer) lexChar() Token {
	start := l.pos
	l.advance() // opening quote
	if l.peek() == 0 {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "unterminated character literal"}
	}
	var v byte
	if l.peek() == '\\' {
		l.advance()
		esc, ok := l.escape()
		if !ok {
			return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "invalid escape sequence"}
		}
		v = esc
	} else {
		v = l.advance()
	}
	if l.peek() != '\'' {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "unterminated character literal"}
	}
	l.advance()
	return Token{Kind: Character, Text: string(v), Loc: l.file.LocationAt(start), Num: int64(v), HasNum: true}
}

func (l *Lexer) escape() (byte, bool) {
	c := l.peek()
	switch c {
	case '\\':
		l.advance()
		return '\\', true
	case '"':
		l.advance()
		return '"', true
	case 'n':
		l.advance()
		return '\n', true
	case 't':
		l.advance()
		return '\t', true
	case '\'':
		l.advance()
		return '\'', true
	default:
		return 0, false
	}
}

// lexHexOrBank handles $hex and the bank form $bb:aaaa, which folds into a
// single Number = (bank<<16)|addr.
func (l *Lexer) lexHexOrBank() Token {
	start := l.pos
	l.advance() // '$'
	digStart := l.pos
	for isHexDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	if l.pos == digStart {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "expected hex digits after '$'"}
	}
	first := strings.ReplaceAll(l.text[digStart:l.pos], "_", "")

	if l.peek() == ':' && isHexDigit(l.peekAt(1)) {
		l.advance() // ':'
		bankDigStart := l.pos
		for isHexDigit(l.peek()) || l.peek() == '_' {
			l.advance()
		}
		second := strings.ReplaceAll(l.text[bankDigStart:l.pos], "_", "")
		bank, _ := strconv.ParseInt(first, 16, 64)
		addr, _ := strconv.ParseInt(second, 16, 64)
		val := (bank << 16) | addr
		return Token{Kind: Number, Text: l.text[start:l.pos], Loc: l.file.LocationAt(start), Num: val, HasNum: true}
	}

	val, err := strconv.ParseInt(first, 16, 64)
	if err != nil {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "invalid hex literal"}
	}
	return Token{Kind: Number, Text: l.text[start:l.pos], Loc: l.file.LocationAt(start), Num: val, HasNum: true}
}

func (l *Lexer) lexBinary() Token {
	start := l.pos
	l.advance() // '%'
	digStart := l.pos
	for isBinDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	digits := strings.ReplaceAll(l.text[digStart:l.pos], "_", "")
	if digits == "" {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "expected binary digits after '%'"}
	}
	val, err := strconv.ParseInt(digits, 2, 64)
	if err != nil {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "invalid binary literal"}
	}
	return Token{Kind: Number, Text: l.text[start:l.pos], Loc: l.file.LocationAt(start), Num: val, HasNum: true}
}

func (l *Lexer) lexDecimal() Token {
	start := l.pos
	for isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	digits := strings.ReplaceAll(l.text[start:l.pos], "_", "")
	val, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Token{Kind: Error, Loc: l.file.LocationAt(start), ErrText: "invalid decimal literal"}
	}
	return Token{Kind: Number, Text: l.text[start:l.pos], Loc: l.file.LocationAt(start), Num: val, HasNum: true}
}

func (l *Lexer) lexDirective() Token {
	start := l.pos
	l.advance() // '.'
	for isIdentPart(l.peek()) {
		l.advance()
	}
	// Text carries the bare name; every later stage matches directives
	// without the dot.
	return Token{Kind: Directive, Text: strings.ToLower(l.text[start+1:l.pos]), Loc: l.file.LocationAt(start)}
}

// lexIdentifier lexes a local-label identifier beginning with '@'.
func (l *Lexer) lexIdentifier() Token {
	start := l.pos
	l.advance() // '@'
	for isIdentPart(l.peek()) {
		l.advance()
	}
	return Token{Kind: Identifier, Text: l.text[start:l.pos], Loc: l.file.LocationAt(start)}
}

// lexAnonymousLabel recognizes +, ++, +tag, -, --, -tag: a run of the same
// sign character, optionally immediately followed (no whitespace) by an
// identifier tag. Returns ok=false if the character is actually a binary
// operator (not this pattern) so the caller falls back to lexPunct.
func (l *Lexer) lexAnonymousLabel() (Token, bool) {
	start := l.pos
	sign := l.peek()
	n := 0
	for l.peek() == sign {
		l.advance()
		n++
	}
	tagStart := l.pos
	if isIdentStart(l.peek()) {
		for isIdentPart(l.peek()) {
			l.advance()
		}
	}
	tag := l.text[tagStart:l.pos]

	// Bare run of 1-2 signs with no tag, or a tag attached directly: this
	// is the anonymous-label form. A lone sign followed by a non-identifier
	// is the arithmetic operator; push back and let lexPunct handle it,
	// unless n>1 (++/--) which only ever means anonymous labels here since
	// the language has no increment/decrement operators at statement level.
	if tag == "" && n == 1 {
		l.pos = start
		return Token{}, false
	}

	kind := AnonForward
	if sign == '-' {
		kind = AnonBackward
	}
	text := l.text[start:l.pos]
	return Token{Kind: kind, Text: text, Loc: l.file.LocationAt(start)}, true
}

func (l *Lexer) lexIdentifierOrMnemonic() Token {
	start := l.pos
	for isIdentPart(l.peek()) {
		l.advance()
	}
	// A trailing ".b/.w/.l/.s" on a known mnemonic is its size suffix,
	// not the start of a directive; both lookahead characters are enough
	// to tell.
	if l.peek() == '.' && sizeSuffixes[lowerByte(l.peekAt(1))] && !isIdentPart(l.peekAt(2)) &&
		IsMnemonicWord(strings.ToLower(l.text[start:l.pos])) {
		l.advance()
		l.advance()
	}
	raw := l.text[start:l.pos]
	lower := strings.ToLower(raw)

	base, suffix := lower, ""
	if len(lower) >= 2 && lower[len(lower)-2] == '.' && sizeSuffixes[lower[len(lower)-1]] {
		base = lower[:len(lower)-2]
		suffix = lower[len(lower)-1:]
	}

	if IsMnemonicWord(base) {
		return Token{Kind: Mnemonic, Text: base, Suffix: suffix, Loc: l.file.LocationAt(start)}
	}
	return Token{Kind: Identifier, Text: raw, Loc: l.file.LocationAt(start)}
}

var compoundPuncts = []string{"<<", ">>", "==", "!=", "<=", ">=", "&&", "||"}

func (l *Lexer) lexPunct() Token {
	start := l.pos
	for _, cp := range compoundPuncts {
		if strings.HasPrefix(l.text[l.pos:], cp) {
			l.pos += len(cp)
			return Token{Kind: Punct, Text: cp, Loc: l.file.LocationAt(start)}
		}
	}
	c := l.advance()
	return Token{Kind: Punct, Text: string(c), Loc: l.file.LocationAt(start)}
}

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isBinDigit(c byte) bool   { return c == '0' || c == '1' }
func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
