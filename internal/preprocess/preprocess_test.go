package preprocess

import (
	"fmt"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
)

type fakeFS map[string]string

func (f fakeFS) ReadFile(path string) (string, error) {
	text, ok := f[path]
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return text, nil
}

func (f fakeFS) Exists(path string) bool {
	_, ok := f[path]
	return ok
}

func mnemonicsOf(toks []lexer.Token) []string {
	var out []string
	for _, t := range toks {
		if t.Kind == lexer.Mnemonic {
			out = append(out, t.Text)
		}
	}
	return out
}

func process(fs fakeFS, start string, opts Options) ([]lexer.Token, *diag.Bag, *source.Registry) {
	reg := source.NewRegistry()
	p := New(reg, fs, opts)
	toks, bag := p.Process(start)
	return toks, bag, reg
}

func TestFlattensIncludes(t *testing.T) {
	fs := fakeFS{
		"/main.pasm": "lda #1\n.include \"sub.pasm\"\nrts\n",
		"/sub.pasm":  "nop\n",
	}
	toks, bag, _ := process(fs, "/main.pasm", Options{})
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Errors())
	}
	got := mnemonicsOf(toks)
	want := []string{"lda", "nop", "rts"}
	if len(got) != len(want) {
		t.Fatalf("mnemonics = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("mnemonics = %v, want %v", got, want)
		}
	}
}

func TestProvenancePointsIntoIncludedFile(t *testing.T) {
	fs := fakeFS{
		"/main.pasm": ".include \"sub.pasm\"\n",
		"/sub.pasm":  "nop\n",
	}
	toks, _, reg := process(fs, "/main.pasm", Options{})
	for _, tok := range toks {
		if tok.Kind == lexer.Mnemonic {
			if reg.Path(tok.Loc.File) != "/sub.pasm" {
				t.Fatalf("nop's file = %q, want /sub.pasm", reg.Path(tok.Loc.File))
			}
			return
		}
	}
	t.Fatal("included token not found")
}

func TestSearchPathsTriedInOrder(t *testing.T) {
	fs := fakeFS{
		"/main.pasm":      ".include \"lib.pasm\"\n",
		"/first/lib.pasm": "sei\n",
		"/second/lib.pasm": "cli\n",
	}
	toks, bag, _ := process(fs, "/main.pasm", Options{SearchPaths: []string{"/first", "/second"}})
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Errors())
	}
	got := mnemonicsOf(toks)
	if len(got) != 1 || got[0] != "sei" {
		t.Fatalf("mnemonics = %v, want the /first copy", got)
	}
}

func TestMissingIncludeIsIncludeError(t *testing.T) {
	fs := fakeFS{"/main.pasm": ".include \"gone.pasm\"\n"}
	_, bag, _ := process(fs, "/main.pasm", Options{})
	if !bag.HasErrors() {
		t.Fatal("expected IncludeError")
	}
}

func TestCircularIncludeDetected(t *testing.T) {
	fs := fakeFS{
		"/a.pasm": ".include \"b.pasm\"\n",
		"/b.pasm": ".include \"a.pasm\"\n",
	}
	_, bag, _ := process(fs, "/a.pasm", Options{})
	if !bag.HasErrors() {
		t.Fatal("expected a circular-include diagnostic")
	}
}

func TestDepthBound(t *testing.T) {
	fs := fakeFS{}
	// Each file includes the next; depth 4 exceeds a bound of 3.
	for i := 0; i < 5; i++ {
		fs[fmt.Sprintf("/f%d.pasm", i)] = fmt.Sprintf(".include \"f%d.pasm\"\n", i+1)
	}
	fs["/f5.pasm"] = "nop\n"
	_, bag, _ := process(fs, "/f0.pasm", Options{MaxIncludeDepth: 3})
	if !bag.HasErrors() {
		t.Fatal("expected an include-depth diagnostic")
	}
}

func TestIncbinNotExpandedButResolved(t *testing.T) {
	fs := fakeFS{
		"/main.pasm":     ".incbin \"assets/tiles.bin\"\n",
		"/assets/tiles.bin": "\x00\x01",
	}
	toks, bag, _ := process(fs, "/main.pasm", Options{})
	if bag.HasErrors() {
		t.Fatalf("errors: %v", bag.Errors())
	}
	var dir, path string
	for i, tok := range toks {
		if tok.Kind == lexer.Directive && tok.Text == "incbin" {
			dir = tok.Text
			if i+1 < len(toks) && toks[i+1].Kind == lexer.String {
				path = toks[i+1].Text
			}
		}
	}
	if dir == "" {
		t.Fatal(".incbin directive was expanded away")
	}
	if path != "/assets/tiles.bin" {
		t.Fatalf("incbin path = %q, want the resolved absolute path", path)
	}
}
