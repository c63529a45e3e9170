// Package listing renders the human-readable .lst companion of a build
// (one line per emitted statement: address, bytes, source text) plus the
// memory-map report. Symbol sections sort by (address_space, address,
// name); the source file list is alphabetical.
package listing

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"github.com/TheAnsarya/poppy-sub004/internal/codegen"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symfile"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

var listingHeader = `; ******************************************************************************
;
; This listing was produced by poppy
;
{{- if .Name }}
; {{ .Name }}{{ if .Version }} v{{ .Version }}{{ end }}
{{- end }}
;
; ******************************************************************************

`

// Write renders the full listing: the header, one line per emitted
// statement, the symbol table, and the source file list.
func Write(w io.Writer, name, version string, img *codegen.Image, st *symtab.Table, reg *source.Registry) error {
	tem, err := template.New("listing").Parse(listingHeader)
	if err != nil {
		return err
	}
	if err := tem.Execute(w, struct{ Name, Version string }{name, version}); err != nil {
		return err
	}

	for _, e := range img.Entries {
		line := sourceLine(reg, e.Stmt.Loc)
		if err := writeEntry(w, e, line); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n; Symbols\n"); err != nil {
		return err
	}
	for _, s := range symfile.Collect(st) {
		if _, err := fmt.Fprintf(w, ";   %-24s = $%04X  %s\n", s.Name, uint32(s.Value), spaceName(s.Space)); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\n; Source files\n"); err != nil {
		return err
	}
	for _, p := range sortedPaths(reg) {
		if _, err := fmt.Fprintf(w, ";   %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

// writeEntry renders one generated-bytes span: address, up to eight hex
// bytes (continuation lines carry the rest), and the originating source
// text.
func writeEntry(w io.Writer, e codegen.Entry, line string) error {
	const perLine = 8
	data := e.Bytes
	addr := e.Addr
	first := true
	for len(data) > 0 || first {
		n := len(data)
		if n > perLine {
			n = perLine
		}
		var hexed []string
		for _, b := range data[:n] {
			hexed = append(hexed, fmt.Sprintf("%02X", b))
		}
		text := ""
		if first {
			text = line
		}
		if _, err := fmt.Fprintf(w, "$%04X  %-23s  %s\n", uint32(addr), strings.Join(hexed, " "), text); err != nil {
			return err
		}
		data = data[n:]
		addr += int64(n)
		first = false
	}
	return nil
}

// WriteMap renders the memory-map report: labels and constants grouped
// by address space, each group in address order.
func WriteMap(w io.Writer, name string, st *symtab.Table) error {
	if _, err := fmt.Fprintf(w, "; Memory map for %s\n", name); err != nil {
		return err
	}
	entries := symfile.Collect(st)
	for _, space := range []symtab.AddressSpace{symtab.SpaceZeroPage, symtab.SpaceRAM, symtab.SpaceCode} {
		var group []symfile.Entry
		for _, e := range entries {
			if e.Space == space {
				group = append(group, e)
			}
		}
		if len(group) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "\n; %s\n", spaceName(space)); err != nil {
			return err
		}
		for _, e := range group {
			if _, err := fmt.Fprintf(w, "$%04X  %s\n", uint32(e.Value), e.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func spaceName(s symtab.AddressSpace) string {
	switch s {
	case symtab.SpaceRAM:
		return "RAM"
	case symtab.SpaceZeroPage:
		return "ZEROPAGE"
	default:
		return "ROM"
	}
}

// sourceLine fetches the text of the line loc points into, trimmed of
// trailing whitespace.
func sourceLine(reg *source.Registry, loc source.Location) string {
	if reg == nil {
		return ""
	}
	f := reg.Get(loc.File)
	if f == nil {
		return ""
	}
	return strings.TrimRight(f.LineText(loc.Line), " \t\r\n")
}

// sortedPaths lists every registered source path alphabetically.
func sortedPaths(reg *source.Registry) []string {
	var out []string
	for _, f := range reg.Files() {
		out = append(out, f.Path)
	}
	sort.Strings(out)
	return out
}
