/*
 * gcnasm command-line front end
 *
 * Thin cobra wrapper over pkg/asm: gather flags, build the format
 * handler the -b flag names, drive an Assembler over stdin or the
 * positional source files, and write the resulting binary.
 *
 * Copyright 2026, GCN Assembler Contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/clrx/gcnasm/pkg/asm"
	"github.com/clrx/gcnasm/pkg/asmfmt"
	"github.com/clrx/gcnasm/pkg/asmfmt/amdcl2h"
	"github.com/clrx/gcnasm/pkg/asmfmt/amdh"
	"github.com/clrx/gcnasm/pkg/asmfmt/galliumh"
	"github.com/clrx/gcnasm/pkg/asmfmt/rocmh"
	"github.com/clrx/gcnasm/pkg/cliopt"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/symtab"
)

func main() {
	var (
		output          string
		formatName      string
		is64Bit         bool
		gpuType         string
		archName        string
		driverVersion   int
		defines         cliopt.RepeatedStrings
		includePaths    cliopt.RepeatedStrings
		forceAddSymbols bool
		altMacro        bool
		noMacroCase     bool
		noWarnings      bool
	)

	root := &cobra.Command{
		Use:   "gcnasm [sources...]",
		Short: "Assemble GCN source into an AMD GPU binary container",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := resolveArch(gpuType, archName)
			if err != nil {
				return err
			}

			opts := asm.Options{
				Arch:            arch,
				Is64Bit:         is64Bit,
				NoWarnings:      noWarnings,
				NoMacroCase:     noMacroCase,
				ForceAddSymbols: forceAddSymbols,
				Defines:         map[string]string{},
				IncludePaths:    includePaths.Values,
			}
			for _, raw := range defines.Values {
				d, err := cliopt.ParseDefine(raw)
				if err != nil {
					return err
				}
				opts.Defines[d.Name] = d.Value
			}
			_ = altMacro // mirrors the `-a` CLI flag; asm's statement loop treats both macro dialects alike

			format, err := cliopt.ParseFormat(formatName)
			if err != nil {
				return err
			}

			table := symtab.New()
			handler := newHandler(format, table)
			if driverVersion != 0 {
				diags := diag.NewBag(true)
				handler.ParsePseudoOp("driver_version", fmt.Sprintf(" %d", driverVersion), diag.Pos{}, diags)
				if diags.ErrorCount() > 0 {
					return fmt.Errorf("gcnasm: -t: %v", diags.Err())
				}
			}

			src, name, closeFn, err := openSource(args)
			if err != nil {
				return err
			}
			defer closeFn()

			a := asm.New(table, handler, isa.GCN{}, src, name, opts)
			if err := a.Run(); err != nil {
				return fmt.Errorf("gcnasm: %w", err)
			}
			if n := a.Diagnostics().ErrorCount(); n > 0 {
				for _, d := range a.Diagnostics().All() {
					fmt.Fprintln(os.Stderr, d)
				}
				return fmt.Errorf("gcnasm: %d error(s)", n)
			}

			bin, err := a.Finish()
			if err != nil {
				return fmt.Errorf("gcnasm: %w", err)
			}
			return writeOutput(output, bin)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	flags.StringVarP(&formatName, "binary-format", "b", "raw", "binary format: raw, amd, amdcl2, gallium, rocm")
	flags.BoolVarP(&is64Bit, "64bit", "6", false, "generate 64-bit code objects")
	flags.StringVarP(&gpuType, "gpu-type", "g", "", "target GPU device name")
	flags.StringVarP(&archName, "arch", "A", "GCN1.0", "target GCN architecture")
	flags.IntVarP(&driverVersion, "driver-version", "t", 0, "AMD driver version number")
	flags.VarP(&defines, "define-symbol", "D", "predefine NAME[=VALUE] (repeatable)")
	flags.VarP(&includePaths, "include", "I", "add a directory to the include search path (repeatable)")
	flags.BoolVarP(&forceAddSymbols, "force-add-symbols", "S", false, "add symbols even when unreferenced")
	flags.BoolVarP(&altMacro, "alt-macro", "a", false, "enable alternate macro syntax")
	flags.BoolVarP(&noMacroCase, "no-macro-case", "m", false, "disable case-insensitive macro names")
	flags.BoolVarP(&noWarnings, "no-warnings", "w", false, "suppress warning diagnostics")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveArch(gpuType, archName string) (gpuid.Architecture, error) {
	if gpuType != "" {
		d, ok := gpuid.ByName(gpuType)
		if !ok {
			return 0, fmt.Errorf("gcnasm: unknown GPU type %q", gpuType)
		}
		return gpuid.ArchitectureOf(d)
	}
	a, ok := gpuid.ArchByName(archName)
	if !ok {
		return 0, fmt.Errorf("gcnasm: unknown architecture %q", archName)
	}
	return a, nil
}

func newHandler(format cliopt.Format, table *symtab.Table) asmfmt.Handler {
	switch format {
	case cliopt.FormatAMDCL2:
		return amdcl2h.New(table)
	case cliopt.FormatGallium:
		return galliumh.New(table)
	case cliopt.FormatROCm:
		return rocmh.New(table)
	default:
		return amdh.New(table)
	}
}

// openSource returns the first positional source file, or stdin when
// none was given, alongside a name suitable for diagnostic origins.
func openSource(args []string) (io.Reader, string, func(), error) {
	if len(args) == 0 {
		return os.Stdin, "<stdin>", func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", nil, fmt.Errorf("gcnasm: %w", err)
	}
	return f, args[0], func() { f.Close() }, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
