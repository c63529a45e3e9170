// Package assemble drives the whole pipeline for one compilation: the
// preprocessor flattens includes into a token stream, the parser builds
// the statement AST, the expander rewrites macros and conditionals away,
// pass 1 assigns addresses and widths, pass 2 emits bytes, and the
// output formatter wraps the image for the selected platform. Each stage
// reports into a single diagnostic bag; an output image is produced only
// when that bag ends up empty.
package assemble

import (
	"sort"

	"github.com/TheAnsarya/poppy-sub004/internal/analyze"
	"github.com/TheAnsarya/poppy-sub004/internal/ast"
	"github.com/TheAnsarya/poppy-sub004/internal/codegen"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/expand"
	"github.com/TheAnsarya/poppy-sub004/internal/format"
	"github.com/TheAnsarya/poppy-sub004/internal/lexer"
	"github.com/TheAnsarya/poppy-sub004/internal/parser"
	"github.com/TheAnsarya/poppy-sub004/internal/preprocess"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symtab"
)

// FileSystem is the read-side file access one compilation needs: source
// text for the preprocessor, file sizes for pass-1 .incbin measurement,
// and byte slices for pass-2 .incbin emission.
type FileSystem interface {
	preprocess.FileReader
	analyze.BinarySizer
	codegen.BinaryReader
}

// Options configures one compilation.
type Options struct {
	// Arch pins the initial architecture (the CLI -t flag). Empty means
	// the source must select one with a platform/.arch directive before
	// its first instruction.
	Arch string

	// IncludePaths are searched, in order, after the including file's own
	// directory when resolving .include/.incbin.
	IncludePaths []string

	// Defines are injected as one-shot constants before pass 1 and are
	// visible to .if/.ifdef at expansion time (the manifest's `defines`).
	Defines map[string]int64

	// AutoLabels enables the heuristic that names otherwise-unlabeled
	// control-transfer targets "loop_<n>" for the symbol exporters.
	AutoLabels bool

	MaxIncludeDepth int

	// FS supplies all file access. Nil means the real file system.
	FS FileSystem
}

// Result carries everything a caller may want after a compilation:
// artifacts for the writers, tables for the exporters, and the registry
// for diagnostic rendering.
type Result struct {
	Registry *source.Registry
	Symtab   *symtab.Table
	Meta     *analyze.Metadata
	Stmts    []*ast.Stmt

	// Image is the raw code-space byte stream from pass 2.
	Image codegen.Image

	// Output is Image wrapped in the selected platform's header; with no
	// platform directive it is Image.Bytes unwrapped. Nil when the
	// compilation failed.
	Output []byte
}

// File assembles the single source file at path, plus everything it
// includes, and returns the result alongside every diagnostic raised.
func File(path string, opts Options) (*Result, *diag.Bag) {
	return Files([]string{path}, opts)
}

// Files assembles several source files as one unit: each file is
// preprocessed independently and the token streams are concatenated in
// argument order, the way the manifest's `entry` + `sources` list is
// compiled.
func Files(paths []string, opts Options) (*Result, *diag.Bag) {
	fs := opts.FS
	if fs == nil {
		fs = OSFileSystem{}
	}
	bag := &diag.Bag{}
	reg := source.NewRegistry()
	res := &Result{Registry: reg}

	var toks []lexer.Token
	pre := preprocess.New(reg, fs, preprocess.Options{
		SearchPaths:     opts.IncludePaths,
		MaxIncludeDepth: opts.MaxIncludeDepth,
	})
	for _, path := range paths {
		fileToks, pbag := pre.Process(path)
		for _, d := range pbag.All() {
			bag.AddDiagnostic(d)
		}
		// Drop the per-file EOF; one terminator closes the joined stream.
		// A synthetic newline keeps a file that doesn't end in one from
		// gluing its last statement to the next file's first.
		if n := len(fileToks); n > 0 && fileToks[n-1].Kind == lexer.EOF {
			fileToks = fileToks[:n-1]
		}
		toks = append(toks, fileToks...)
		toks = append(toks, lexer.Token{Kind: lexer.Newline, Text: "\n"})
	}
	toks = append(toks, lexer.Token{Kind: lexer.EOF})

	p := parser.New(toks, bag)
	parsed := p.ParseProgram()

	ex := expand.New(bag)
	for _, name := range sortedKeys(opts.Defines) {
		ex.Predefine(name, opts.Defines[name])
	}
	res.Stmts = ex.Expand(parsed)

	st := symtab.New(bag)
	res.Symtab = st
	for _, name := range sortedKeys(opts.Defines) {
		st.DefineConstant(name, opts.Defines[name], source.Location{}, false)
	}

	an := analyze.New(bag, st, opts.Arch, fs)
	an.Run(res.Stmts)
	res.Meta = an.Meta

	// A failed pass 1 has unreliable addresses and widths; running pass 2
	// over them would only cascade secondary errors. .error is fatal here
	// too: it lands in the bag as a DirectiveError during pass 1.
	if bag.HasErrors() {
		return res, bag
	}

	gen := codegen.New(bag, st, an.Meta, an.Descriptor(), fs)
	gen.Run(res.Stmts)
	res.Image = gen.Code

	if bag.HasErrors() {
		return res, bag
	}

	if opts.AutoLabels {
		applyAutoLabels(res.Stmts, st)
	}

	out, err := format.Wrap(an.Meta.Platform, an.Meta, gen.Code.Bytes)
	if err != nil {
		bag.Add(diag.DirectiveError, source.Location{}, "%s", err)
		return res, bag
	}
	res.Output = out
	return res, bag
}

// sortedKeys orders define injection alphabetically so identical inputs
// always produce identical diagnostics and bytes.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
