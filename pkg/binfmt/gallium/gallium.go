/*
 * Gallium compute binary format
 *
 * Custom outer header (magic, per-kernel table with PROGINFO entries,
 * section table) framing an inner objelf.File payload (spec.md §6,
 * gallium). Older LLVM toolchains emit 3 PROGINFO entries per kernel;
 * LLVM >=3.9 emits 5. Mesa >=17.0 renumbers a handful of section types,
 * tracked on Model.Gallium rather than baked into the wire layout here.
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

package gallium

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/objelf"
)

const magic = 0x474c4c43 // "GLLC"

const (
	progInfoEntriesOld = 3
	progInfoEntriesNew = 5
)

// Codec implements binfmt.Codec for the Gallium compute container.
type Codec struct{}

// Parse reads a Gallium binary: custom header, then a framed inner ELF.
func (Codec) Parse(data []byte, flags binfmt.ParseFlags) (*binfmt.Model, error) {
	r := bytele.NewReader(data)
	if r.Remaining() < 4 || r.U32() != magic {
		return nil, fmt.Errorf("%w: bad gallium magic", objelf.Malformed)
	}

	meta := &binfmt.GalliumMeta{ProgInfo: map[string][]binfmt.ProgInfoEntry{}}
	m := &binfmt.Model{Gallium: meta}

	kernelCount := r.U32()
	for i := uint32(0); i < kernelCount; i++ {
		nameLen := r.U32()
		name := string(r.Bytes(int(nameLen)))
		sectionID := r.U32()
		offset := r.U32()
		progCount := r.U32()
		entries := make([]binfmt.ProgInfoEntry, 0, progCount)
		for j := uint32(0); j < progCount; j++ {
			entries = append(entries, binfmt.ProgInfoEntry{Address: r.U32(), Value: r.U32()})
		}
		meta.ProgInfo[name] = entries
		if progCount > progInfoEntriesOld {
			meta.MesaLayout17OrNewer = true
		}
		m.Kernels = append(m.Kernels, binfmt.Kernel{Name: name, CodeOffset: uint64(offset)})
		_ = sectionID
	}

	sectionCount := r.U32()
	for i := uint32(0); i < sectionCount; i++ {
		_ = r.U32() // section id, implied by order
		_ = r.U32() // section type, carried by name in the inner ELF instead
		_ = r.U32() // offset, recomputed by the inner ELF's own section headers
		_ = r.U32() // size, likewise
	}

	innerLen := r.U32()
	innerData := r.Bytes(int(innerLen))
	inner, err := objelf.Parse(innerData, objelf.ParseSectionMap|objelf.ParseSymbolMap)
	if err != nil {
		return nil, fmt.Errorf("gallium: inner ELF: %w", err)
	}
	m.Is64Bit = inner.Class == objelf.Class64
	for _, sec := range inner.Sections {
		if sec.Name == "" || sec.Name == ".symtab" || sec.Name == ".strtab" || sec.Name == ".shstrtab" {
			continue
		}
		m.Sections = append(m.Sections, binfmt.Section{Name: sec.Name, Data: sec.Data})
	}
	for i, k := range m.Kernels {
		if sym, ok := inner.SymbolByName(k.Name); ok {
			m.Kernels[i].CodeSize = sym.Size
		}
	}

	return m, nil
}

// Emit writes a Gallium binary from m.
func (Codec) Emit(m *binfmt.Model) ([]byte, error) {
	meta := m.Gallium
	if meta == nil {
		meta = &binfmt.GalliumMeta{}
	}

	class := objelf.Class32
	if m.Is64Bit {
		class = objelf.Class64
	}
	ib := objelf.NewBuilder(class, 0 /* EM_NONE, AMDGPU machine unspecified in Gallium payloads */, 2)
	for _, sec := range m.Sections {
		ib.AddSection(sec.Name, objelf.SHT_PROGBITS, objelf.SHF_ALLOC, 4, sec.Data)
	}
	for _, k := range m.Kernels {
		if textSec, ok := m.SectionByName(".text"); ok {
			ib.AddSymbol(k.Name, k.CodeOffset, k.CodeSize, 0x12, 0, textSec.Name)
		}
	}
	innerBytes, err := ib.Bytes()
	if err != nil {
		return nil, fmt.Errorf("gallium: inner ELF: %w", err)
	}

	w := bytele.NewWriter()
	w.U32(magic)
	w.U32(uint32(len(m.Kernels)))
	for i, k := range m.Kernels {
		w.U32(uint32(len(k.Name)))
		w.Raw([]byte(k.Name))
		w.U32(uint32(i)) // sectionId: kernels share the single synthesized inner ELF
		w.U32(uint32(k.CodeOffset))
		entries := meta.ProgInfo[k.Name]
		if entries == nil {
			n := progInfoEntriesOld
			if meta.MesaLayout17OrNewer {
				n = progInfoEntriesNew
			}
			entries = make([]binfmt.ProgInfoEntry, n)
		}
		w.U32(uint32(len(entries)))
		for _, e := range entries {
			w.U32(e.Address)
			w.U32(e.Value)
		}
	}
	w.U32(uint32(len(m.Sections)))
	for i, sec := range m.Sections {
		w.U32(uint32(i))
		w.U32(0) // type: derivable from the inner ELF section name on reparse
		w.U32(0) // offset: recomputed from the inner ELF
		w.U32(uint32(len(sec.Data)))
	}
	w.U32(uint32(len(innerBytes)))
	w.Raw(innerBytes)
	return w.Bytes(), nil
}
