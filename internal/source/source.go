// Package source owns the text of every file participating in a single
// compilation and maps byte offsets back to human-readable locations.
package source

import "strings"

// FileID identifies a file registered with a Registry. Zero is never a
// valid FileID; NoFile marks the absence of one.
type FileID int

// NoFile is the zero value of FileID, used where no file applies.
const NoFile FileID = 0

// Location pins a byte range to the file it came from. It is attached to
// every token and AST node and is preserved across macro expansion.
type Location struct {
	File   FileID
	Line   int // 1-based
	Column int // 1-based, counted in bytes
	Offset int // byte offset into the file's text
}

// IsZero reports whether loc carries no information.
func (loc Location) IsZero() bool {
	return loc.File == NoFile && loc.Line == 0 && loc.Column == 0 && loc.Offset == 0
}

// ExpansionSite chains a macro-expanded location back to the call site that
// produced it, so diagnostics can report both "here" and "expanded from".
type ExpansionSite struct {
	Loc    Location
	Parent *ExpansionSite
}

// Located pairs a Location with its expansion-site chain. The Location
// itself never changes shape; the expander records the chain beside it,
// in ast.Stmt's Expansion field, rather than folding one into the other.
type Located struct {
	Loc       Location
	Expansion *ExpansionSite
}

// File holds one source file's contents and the table needed to convert
// byte offsets into line/column pairs.
type File struct {
	ID          FileID
	Path        string
	Text        string
	lineOffsets []int // byte offset of the start of each line
}

func newFile(id FileID, path, text string) *File {
	f := &File{ID: id, Path: path, Text: text}
	f.lineOffsets = append(f.lineOffsets, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			f.lineOffsets = append(f.lineOffsets, i+1)
		}
	}
	return f
}

// LocationAt converts a byte offset within this file into a Location.
func (f *File) LocationAt(offset int) Location {
	line := 1
	lineStart := 0
	lo, hi := 0, len(f.lineOffsets)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if f.lineOffsets[mid] <= offset {
			line = mid + 1
			lineStart = f.lineOffsets[mid]
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return Location{File: f.ID, Line: line, Column: offset - lineStart + 1, Offset: offset}
}

// LineText returns the full text of the 1-based line, without its
// terminating newline, for caret-style diagnostic rendering.
func (f *File) LineText(line int) string {
	if line < 1 || line > len(f.lineOffsets) {
		return ""
	}
	start := f.lineOffsets[line-1]
	end := len(f.Text)
	if line < len(f.lineOffsets) {
		end = f.lineOffsets[line] - 1
	}
	if end < start {
		end = start
	}
	return strings.TrimRight(f.Text[start:end], "\r")
}

// Registry owns every file's contents by absolute path for one
// compilation. Files are read once and referenced read-only thereafter.
type Registry struct {
	files  []*File
	byPath map[string]FileID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]FileID)}
}

// Add registers a file's contents under path, returning its File. Adding
// the same path twice returns the first registration (a Registry owns
// contents, it never re-reads).
func (r *Registry) Add(path, text string) *File {
	if id, ok := r.byPath[path]; ok {
		return r.files[id-1]
	}
	id := FileID(len(r.files) + 1)
	f := newFile(id, path, text)
	r.files = append(r.files, f)
	r.byPath[path] = id
	return f
}

// Get returns the file for id, or nil if id is unknown.
func (r *Registry) Get(id FileID) *File {
	if id <= 0 || int(id) > len(r.files) {
		return nil
	}
	return r.files[id-1]
}

// Path returns the registered path for id, or "" if unknown.
func (r *Registry) Path(id FileID) string {
	if f := r.Get(id); f != nil {
		return f.Path
	}
	return ""
}

// Files returns every registered file in registration order.
func (r *Registry) Files() []*File {
	return r.files
}

// Lookup returns the FileID already registered for path, if any.
func (r *Registry) Lookup(path string) (FileID, bool) {
	id, ok := r.byPath[path]
	return id, ok
}
