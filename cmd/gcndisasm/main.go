/*
 * gcndisasm command-line front end
 *
 * Thin cobra wrapper over pkg/disasm: parse a binary with whichever
 * pkg/binfmt codec matches -b (or, absent -b/-r, whatever
 * cliopt.DetectFormat sniffs from the file), then drive a Disassembler
 * over the resulting Model.
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
	"os"

	"github.com/spf13/cobra"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/amdcatalyst"
	"github.com/clrx/gcnasm/pkg/binfmt/amdcl2"
	"github.com/clrx/gcnasm/pkg/binfmt/gallium"
	"github.com/clrx/gcnasm/pkg/binfmt/raw"
	"github.com/clrx/gcnasm/pkg/binfmt/rocm"
	"github.com/clrx/gcnasm/pkg/cliopt"
	"github.com/clrx/gcnasm/pkg/disasm"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
)

func main() {
	var (
		formatName    string
		rawFlag       bool
		gpuType       string
		archName      string
		is64Bit       bool
		metadata      bool
		data          bool
		calNotes      bool
		config        bool
		setup         bool
		hsaConfig     bool
		hsaLayout     bool
		floats        bool
		hexcode       bool
		all           bool
		buggyFPLit    bool
		driverVersion int
	)

	root := &cobra.Command{
		Use:   "gcndisasm [binaries...]",
		Short: "Disassemble an AMD GPU binary container into GCN assembler text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := resolveArch(gpuType, archName)
			if err != nil {
				return err
			}

			flags := disasm.Flags{
				DumpCode:         true,
				Metadata:         metadata,
				Data:             data,
				CALNotes:         calNotes,
				Floats:           floats,
				Hexcode:          hexcode,
				Setup:            setup,
				Config:           config,
				HSAConfig:        hsaConfig,
				HSALayout:        hsaLayout,
				BuggyFPLiterals:  buggyFPLit,
			}
			if all {
				flags = disasm.All()
			}

			for _, path := range args {
				if err := disassembleOne(path, formatName, rawFlag, arch, is64Bit, flags); err != nil {
					fmt.Fprintln(os.Stderr, err)
					return fmt.Errorf("gcndisasm: failed on %s", path)
				}
			}
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVarP(&formatName, "binary-format", "b", "", "binary format: raw, amd, amdcl2, gallium, rocm (default: auto-detect)")
	flags.BoolVarP(&rawFlag, "raw", "r", false, "treat input as a raw instruction stream")
	flags.StringVarP(&gpuType, "gpu-type", "g", "", "target GPU device name")
	flags.StringVarP(&archName, "arch", "A", "GCN1.0", "target GCN architecture")
	flags.IntVarP(&driverVersion, "driver-version", "t", 0, "AMD driver version number")
	flags.BoolVarP(&metadata, "metadata", "m", false, "dump format metadata")
	flags.BoolVarP(&data, "data", "d", false, "dump non-code sections")
	flags.BoolVarP(&calNotes, "cal-notes", "c", false, "dump AMD Catalyst CAL notes")
	flags.BoolVarP(&config, "config", "C", false, "dump per-kernel config directives")
	flags.BoolVarP(&setup, "setup", "s", false, "dump kernel setup blobs")
	flags.BoolVarP(&hsaConfig, "hsa-config", "H", false, "dump HSA config")
	flags.BoolVarP(&hsaLayout, "hsa-layout", "L", false, "dump HSA kernarg layout")
	flags.BoolVarP(&floats, "floats", "f", false, "render float immediates as floating point")
	flags.BoolVarP(&hexcode, "hexcode", "h", false, "annotate each instruction with its encoded hex bytes")
	flags.BoolVarP(&all, "all", "a", false, "enable every optional dump section")
	flags.BoolVar(&buggyFPLit, "buggy-fplit", false, "reproduce the historical float-literal rounding bug")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveArch(gpuType, archName string) (gpuid.Architecture, error) {
	if gpuType != "" {
		d, ok := gpuid.ByName(gpuType)
		if !ok {
			return 0, fmt.Errorf("gcndisasm: unknown GPU type %q", gpuType)
		}
		return gpuid.ArchitectureOf(d)
	}
	a, ok := gpuid.ArchByName(archName)
	if !ok {
		return 0, fmt.Errorf("gcndisasm: unknown architecture %q", archName)
	}
	return a, nil
}

func disassembleOne(path, formatName string, rawFlag bool, arch gpuid.Architecture, is64Bit bool, flags disasm.Flags) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gcndisasm: %w", err)
	}

	format := cliopt.FormatRaw
	switch {
	case rawFlag:
		format = cliopt.FormatRaw
	case formatName != "":
		format, err = cliopt.ParseFormat(formatName)
		if err != nil {
			return err
		}
	default:
		format = cliopt.DetectFormat(data)
	}

	model, err := parseModel(format, data)
	if err != nil {
		return fmt.Errorf("gcndisasm: %s: %w", path, err)
	}

	d := disasm.New(model, isa.GCN{}, disasm.Options{Arch: arch, Is64Bit: is64Bit, Flags: flags})
	return d.Run(os.Stdout)
}

func parseModel(format cliopt.Format, data []byte) (*binfmt.Model, error) {
	var codec binfmt.Codec
	switch format {
	case cliopt.FormatAMD:
		codec = amdcatalyst.Codec{}
	case cliopt.FormatAMDCL2:
		codec = amdcl2.Codec{}
	case cliopt.FormatGallium:
		codec = gallium.Codec{}
	case cliopt.FormatROCm:
		codec = rocm.Codec{}
	default:
		codec = raw.Codec{}
	}
	return codec.Parse(data, binfmt.ParseMetadata|binfmt.ParseCALNotes)
}
