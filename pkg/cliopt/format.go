/*
 * Binary-format name resolution shared by both CLI front ends
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

package cliopt

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/objelf"
)

// Format names the binary container a -b/-r flag selects.
type Format string

const (
	FormatRaw      Format = "raw"
	FormatAMD      Format = "amd"
	FormatAMDCL2   Format = "amdcl2"
	FormatGallium  Format = "gallium"
	FormatROCm     Format = "rocm"
)

var formatNames = map[string]Format{
	"raw":     FormatRaw,
	"amd":     FormatAMD,
	"amdcl2":  FormatAMDCL2,
	"gallium": FormatGallium,
	"rocm":    FormatROCm,
}

// ParseFormat resolves a -b/-r argument to a Format, rejecting anything
// outside {raw, amd, amdcl2, gallium, rocm}.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatNames[s]; ok {
		return f, nil
	}
	return "", fmt.Errorf("cliopt: unknown binary format %q (want raw, amd, amdcl2, gallium or rocm)", s)
}

const (
	galliumMagic     = 0x474c4c43 // "GLLC", checked directly so no ELF parse is attempted first.
	elfMachineAMDGPU = 0xe0
	elfMachineAMD    = 0x3fd // shared by the AMD Catalyst and AMDCL2 containers; disambiguated below.
)

// DetectFormat sniffs data's container without assembler/disassembler
// flags, for the disassembler's positional-argument path where -b is not
// given. Gallium carries its own 4-byte magic ahead of any ELF; ROCm and
// AMDCL2/Catalyst share the ELF envelope and are told apart by e_machine
// and, for the ambiguous 0x3fd case, by AMDCL2's outer ".inner" section.
// A file that isn't any of these returns FormatRaw, the same fallback
// the `-r` flag selects explicitly.
func DetectFormat(data []byte) Format {
	if len(data) >= 4 && bytele.Get32(data, 0) == galliumMagic {
		return FormatGallium
	}
	ef, err := objelf.Parse(data, objelf.ParseSectionMap)
	if err != nil {
		return FormatRaw
	}
	switch ef.Machine {
	case elfMachineAMDGPU:
		return FormatROCm
	case elfMachineAMD:
		if _, ok := ef.SectionByName(".inner"); ok {
			return FormatAMDCL2
		}
		return FormatAMD
	default:
		return FormatRaw
	}
}
