package symfile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

func table(t *testing.T) *symtab.Table {
	t.Helper()
	bag := &diag.Bag{}
	st := symtab.New(bag)
	loc := source.Location{Line: 1, Column: 1}
	st.DefineLabel("reset", 0x8000, symtab.SpaceCode, loc, true)
	st.DefineLabel("nmi", 0x8100, symtab.SpaceCode, loc, true)
	st.DefineLabel("buffer", 0x0300, symtab.SpaceRAM, loc, false)
	st.DefineLabel("temp", 0x0010, symtab.SpaceZeroPage, loc, false)
	st.DefineConstant("lives", 3, loc, false)
	if bag.HasErrors() {
		t.Fatalf("setup errors: %v", bag.Errors())
	}
	return st
}

func TestCollectSortsBySpaceAddressName(t *testing.T) {
	entries := Collect(table(t))
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	// SpaceCode first (constants share it), then RAM, then zero page;
	// within a space, address then name.
	want := []string{"lives", "reset", "nmi", "buffer", "temp"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("order = %v, want %v", names, want)
	}
}

func TestWriteNL(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "game.nl", Collect(table(t))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "$8000#reset#\n") {
		t.Fatalf("nl output missing reset line:\n%s", buf.String())
	}
}

func TestWriteMLB(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "game.mlb", Collect(table(t))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PRG:8000:reset\n", "RAM:0300:buffer\n", "ZEROPAGE:0010:temp\n"} {
		if !strings.Contains(out, want) {
			t.Fatalf("mlb output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteSym(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "game.sym", Collect(table(t))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "00:8000 reset\n") {
		t.Fatalf("sym output missing reset line:\n%s", buf.String())
	}
}

func TestUnknownExtensionRejected(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "game.xyz", nil); err == nil {
		t.Fatal("expected an error for an unknown extension")
	}
}
