// Package symfile writes debug-symbol files, selected by the output
// path's extension: .nl (FCEUX), .mlb (Mesen), and .sym (generic).
// Export order is (address space, address, name), so identical inputs
// always export identically.
package symfile

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// Entry is one exported symbol row.
type Entry struct {
	Name  string
	Value int64
	Space symtab.AddressSpace
}

// Collect pulls the exportable symbols (labels and constants) from the
// table in deterministic order.
func Collect(st *symtab.Table) []Entry {
	var out []Entry
	for _, s := range st.All() {
		if s.Kind != symtab.KindLabel && s.Kind != symtab.KindConstant {
			continue
		}
		out = append(out, Entry{Name: s.Name, Value: s.Value, Space: s.Space})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Space != out[j].Space {
			return out[i].Space < out[j].Space
		}
		if out[i].Value != out[j].Value {
			return out[i].Value < out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Write renders entries to w in the format the path's extension selects.
func Write(w io.Writer, path string, entries []Entry) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nl":
		return writeNL(w, entries)
	case ".mlb":
		return writeMLB(w, entries)
	case ".sym":
		return writeSym(w, entries)
	default:
		return fmt.Errorf("symfile: unknown symbol format %q", filepath.Ext(path))
	}
}

// writeNL emits the FCEUX format: one "$addr#name#comment" line per
// symbol.
func writeNL(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "$%04X#%s#\n", uint16(e.Value), e.Name); err != nil {
			return err
		}
	}
	return nil
}

// writeMLB emits the Mesen format: "space:addr:name" with space one of
// PRG, RAM, ZEROPAGE.
func writeMLB(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		space := "PRG"
		switch e.Space {
		case symtab.SpaceRAM:
			space = "RAM"
		case symtab.SpaceZeroPage:
			space = "ZEROPAGE"
		}
		if _, err := fmt.Fprintf(w, "%s:%04X:%s\n", space, uint16(e.Value), e.Name); err != nil {
			return err
		}
	}
	return nil
}

// writeSym emits the generic "bank:addr name" format; the bank is the
// address's third byte.
func writeSym(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		bank := (e.Value >> 16) & 0xff
		if _, err := fmt.Fprintf(w, "%02X:%04X %s\n", bank, uint16(e.Value), e.Name); err != nil {
			return err
		}
	}
	return nil
}
