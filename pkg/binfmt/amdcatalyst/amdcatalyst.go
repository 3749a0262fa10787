/*
 * AMD Catalyst binary format
 *
 * Outer 32- or 64-bit ELF with a kernel-table section, per-kernel 32-byte
 * header, and CAL notes as typed TLV records (spec.md §6). Global data
 * lives in .globaldata; kernel entry symbols are named __OpenCL_<name>_kernel.
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

package amdcatalyst

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/objelf"
)

const (
	kernelHeaderSize = 32
	elfMachineAMD    = 0x3fd // CLRX-assigned EM_ number for AMD GPU code objects.
)

// Codec implements binfmt.Codec for the AMD Catalyst container.
type Codec struct{}

// Parse reads an AMD Catalyst binary.
func (Codec) Parse(data []byte, flags binfmt.ParseFlags) (*binfmt.Model, error) {
	ef, err := objelf.Parse(data, objelf.ParseSectionMap|objelf.ParseSymbolMap)
	if err != nil {
		return nil, fmt.Errorf("amdcatalyst: %w", err)
	}
	m := &binfmt.Model{Is64Bit: ef.Class == objelf.Class64, AMD: &binfmt.AMDMeta{}}

	ktab, ok := ef.SectionByName(".amdil_kernel_table")
	var names []string
	if ok {
		names = parseKernelTable(ktab.Data)
	}
	for _, name := range names {
		sym, ok := ef.SymbolByName("__OpenCL_" + name + "_kernel")
		k := binfmt.Kernel{Name: name}
		if ok {
			k.CodeOffset = sym.Value
			k.CodeSize = sym.Size
		}
		m.Kernels = append(m.Kernels, k)
	}

	if text, ok := ef.SectionByName(".text"); ok {
		m.Sections = append(m.Sections, binfmt.Section{Name: ".text", Data: text.Data})
	}
	if gd, ok := ef.SectionByName(".globaldata"); ok {
		m.Sections = append(m.Sections, binfmt.Section{Name: ".globaldata", Data: gd.Data})
	}
	if flags&binfmt.ParseCALNotes != 0 {
		if notes, ok := ef.SectionByName(".note"); ok {
			m.AMD.CALNotes, err = parseCALNotes(notes.Data)
			if err != nil {
				return nil, fmt.Errorf("amdcatalyst: %w", err)
			}
		}
	}
	return m, nil
}

// Emit writes an AMD Catalyst binary from m.
func (Codec) Emit(m *binfmt.Model) ([]byte, error) {
	class := objelf.Class32
	if m.Is64Bit {
		class = objelf.Class64
	}
	b := objelf.NewBuilder(class, elfMachineAMD, 2 /* ET_EXEC */)

	b.AddSection(".amdil_kernel_table", objelf.SHT_PROGBITS, objelf.SHF_ALLOC, 1, buildKernelTable(m.Kernels))
	b.AddSection(".text", objelf.SHT_PROGBITS, objelf.SHF_ALLOC|objelf.SHF_EXECINSTR, 4, concatKernelCode(m))
	for _, sec := range m.Sections {
		if sec.Name == ".globaldata" {
			b.AddSection(".globaldata", objelf.SHT_PROGBITS, objelf.SHF_ALLOC|objelf.SHF_WRITE, 4, sec.Data)
		}
	}
	if m.AMD != nil && len(m.AMD.CALNotes) > 0 {
		b.AddSection(".note", objelf.SHT_NOTE, 0, 4, buildCALNotes(m.AMD.CALNotes))
	}

	for _, k := range m.Kernels {
		b.AddSymbol("__OpenCL_"+k.Name+"_kernel", k.CodeOffset, k.CodeSize, 0x12 /* FUNC|GLOBAL */, 0, ".text")
	}

	return b.Bytes()
}

func concatKernelCode(m *binfmt.Model) []byte {
	var out []byte
	for _, sec := range m.Sections {
		if sec.Name == ".text" {
			out = append(out, sec.Data...)
		}
	}
	return out
}

func parseKernelTable(data []byte) []string {
	var names []string
	r := bytele.NewReader(data)
	for r.Remaining() >= 4 {
		n := r.U32()
		if n == 0 || int(n) > r.Remaining() {
			break
		}
		names = append(names, string(r.Bytes(int(n))))
	}
	return names
}

func buildKernelTable(kernels []binfmt.Kernel) []byte {
	w := bytele.NewWriter()
	for _, k := range kernels {
		w.U32(uint32(len(k.Name)))
		w.Raw([]byte(k.Name))
	}
	return w.Bytes()
}

func parseCALNotes(data []byte) ([]binfmt.CALNote, error) {
	var notes []binfmt.CALNote
	r := bytele.NewReader(data)
	for r.Remaining() >= 8 {
		typ := r.U32()
		size := r.U32()
		if int(size) > r.Remaining() {
			return nil, fmt.Errorf("amdcatalyst: truncated CAL note")
		}
		notes = append(notes, binfmt.CALNote{Type: typ, Data: r.Bytes(int(size))})
	}
	return notes, nil
}

func buildCALNotes(notes []binfmt.CALNote) []byte {
	w := bytele.NewWriter()
	for _, n := range notes {
		w.U32(n.Type)
		w.U32(uint32(len(n.Data)))
		w.Raw(n.Data)
	}
	return w.Bytes()
}
