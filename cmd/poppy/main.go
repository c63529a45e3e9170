package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"

	"github.com/TheAnsarya/poppy-sub004/internal/archive"
	"github.com/TheAnsarya/poppy-sub004/internal/assemble"
	"github.com/TheAnsarya/poppy-sub004/internal/diag"
	"github.com/TheAnsarya/poppy-sub004/internal/listing"
	"github.com/TheAnsarya/poppy-sub004/internal/manifest"
	"github.com/TheAnsarya/poppy-sub004/internal/source"
	"github.com/TheAnsarya/poppy-sub004/internal/symfile"
)

func main() {
	app := cli.NewApp()
	app.Name = "poppy"
	app.Usage = "Multi-target assembler for classic game consoles"
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}
	app.Commands = []cli.Command{
		{
			Name:      "assemble",
			Aliases:   []string{"as"},
			Usage:     "Assemble one source file into a ROM image",
			ArgsUsage: "input.pasm",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "o", Usage: "output file path"},
				cli.StringFlag{Name: "s", Usage: "debug-symbol file path (.nl, .mlb, or .sym)"},
				cli.StringFlag{Name: "l", Usage: "listing file path"},
				cli.StringFlag{Name: "t", Usage: "target CPU (6502, 65816, sm83, z80, m68000, arm7, huc6280, v30mz, spc700, 6507, 65sc02)"},
				cli.StringSliceFlag{Name: "I", Usage: "extra include search path (repeatable)"},
				cli.BoolFlag{Name: "v", Usage: "print one line per compiled file"},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return cli.NewExitError("No input file provided", 1)
				}
				return assembleFile(c.Args().First(), c.String("o"), c.String("s"), c.String("l"),
					c.String("t"), c.StringSlice("I"), nil, c.Bool("v"))
			},
		},
		{
			Name:      "build",
			Aliases:   []string{"b"},
			Usage:     "Build a project from its poppy.json manifest",
			ArgsUsage: "[projectDir]",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "named configuration overlay (e.g. debug, release)"},
				cli.BoolFlag{Name: "v", Usage: "print one line per compiled file"},
			},
			Action: func(c *cli.Context) error {
				dir := "."
				if c.NArg() > 0 {
					dir = c.Args().First()
				}
				return buildProject(dir, c.String("config"), c.Bool("v"))
			},
		},
		{
			Name:      "pack",
			Usage:     "Pack a project directory into a .poppy archive",
			ArgsUsage: "projectDir [archive.poppy]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return cli.NewExitError("No project directory provided", 1)
				}
				dir := c.Args().First()
				out := c.Args().Get(1)
				if out == "" {
					m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
					if err != nil {
						return cli.NewExitError(err.Error(), 1)
					}
					out = m.Name + ".poppy"
				}
				if err := archive.Pack(dir, out); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
		{
			Name:      "unpack",
			Aliases:   []string{"x"},
			Usage:     "Extract a .poppy archive, verifying its checksums",
			ArgsUsage: "archive.poppy [destDir]",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return cli.NewExitError("No archive provided", 1)
				}
				dest := c.Args().Get(1)
				if dest == "" {
					dest = "."
				}
				if err := archive.Unpack(c.Args().First(), dest); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
		{
			Name:      "validate",
			Usage:     "Validate a .poppy archive's manifest and checksums",
			ArgsUsage: "archive.poppy",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					return cli.NewExitError("No archive provided", 1)
				}
				if err := archive.Validate(c.Args().First()); err != nil {
					return cli.NewExitError(err.Error(), 1)
				}
				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// assembleFile runs one compilation and writes the requested artifacts.
// Diagnostics go to stderr; a non-empty error list suppresses every
// output file and exits 1.
func assembleFile(input, output, symPath, listPath, target string, includes []string, defines map[string]int64, verbose bool) error {
	res, bag := assemble.File(input, assemble.Options{
		Arch:         target,
		IncludePaths: includes,
		Defines:      defines,
	})
	return finish(res, bag, input, output, symPath, listPath, "", "", "", verbose)
}

func buildProject(dir, config string, verbose bool) error {
	m, err := manifest.Load(filepath.Join(dir, manifest.FileName))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if config != "" {
		if m, err = m.ApplyConfiguration(config); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	files, err := m.SourceFiles()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	res, bag := assemble.Files(files, assemble.Options{
		IncludePaths: m.IncludePaths(),
		Defines:      m.Defines,
		AutoLabels:   m.AutoLabels,
	})
	output := m.OutputPath()
	if !filepath.IsAbs(output) {
		output = filepath.Join(m.Dir, output)
	}
	return finish(res, bag, strings.Join(files, ", "), output, m.Symbols, m.Listing, m.Mapfile, m.Name, m.Version, verbose)
}

func finish(res *assemble.Result, bag *diag.Bag, input, output, symPath, listPath, mapPath, name, version string, verbose bool) error {
	if reportDiagnostics(bag, res.Registry) {
		return cli.NewExitError("compilation failed", 1)
	}
	if verbose {
		for _, f := range res.Registry.Files() {
			fmt.Fprintf(os.Stderr, "compiled %s\n", f.Path)
		}
	}

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + defaultExt(res)
	}
	artifact := res.Output
	if artifact == nil {
		artifact = res.Image.Bytes
	}
	if err := os.WriteFile(output, artifact, 0o644); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	if symPath != "" {
		if err := writeWith(symPath, func(f *os.File) error {
			return symfile.Write(f, symPath, symfile.Collect(res.Symtab))
		}); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	if listPath != "" {
		if err := writeWith(listPath, func(f *os.File) error {
			return listing.Write(f, name, version, &res.Image, res.Symtab, res.Registry)
		}); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	if mapPath != "" {
		if err := writeWith(mapPath, func(f *os.File) error {
			return listing.WriteMap(f, name, res.Symtab)
		}); err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
	}
	return nil
}

func defaultExt(res *assemble.Result) string {
	if res.Meta != nil && res.Meta.Platform != "" {
		return "." + res.Meta.Platform
	}
	return ".bin"
}

func writeWith(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// reportDiagnostics prints every diagnostic with its caret-rendered
// source line and reports whether any of them was an error.
func reportDiagnostics(bag *diag.Bag, reg *source.Registry) bool {
	bag.SortByLocation()
	for _, d := range bag.All() {
		fmt.Fprintln(os.Stderr, d.Format(reg))
	}
	return bag.HasErrors()
}
