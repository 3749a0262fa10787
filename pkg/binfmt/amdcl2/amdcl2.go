/*
 * AMD OpenCL 2.0 binary format
 *
 * Outer 32- or 64-bit ELF wrapping an inner objelf.File (spec.md §6,
 * amdcl2): the inner ELF's .text holds a fixed-size setup blob per
 * kernel (128 bytes, or 256 under HSA config mode) immediately followed
 * by its code, and its .rela.text/.rela.rodata carry the RELA entries
 * the outer Parse maps onto reloc.Reloc. Global data, read-write data
 * and BSS are addressed through three fixed symbol indices rather than
 * real symbol table entries.
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

package amdcl2

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/objelf"
	"github.com/clrx/gcnasm/pkg/reloc"
)

const elfMachineAMDCL2 = 0x3fd

// Codec implements binfmt.Codec for the AMD OpenCL 2.0 container.
type Codec struct{}

// Parse reads an AMDCL2 binary: an outer ELF carrying the inner ELF
// verbatim in a ".inner" section.
func (Codec) Parse(data []byte, flags binfmt.ParseFlags) (*binfmt.Model, error) {
	outer, err := objelf.Parse(data, objelf.ParseSectionMap)
	if err != nil {
		return nil, fmt.Errorf("amdcl2: outer ELF: %w", err)
	}
	innerSec, ok := outer.SectionByName(".inner")
	if !ok {
		return nil, fmt.Errorf("amdcl2: %w: missing .inner section", objelf.Malformed)
	}
	inner, err := objelf.Parse(innerSec.Data, objelf.ParseSectionMap|objelf.ParseSymbolMap)
	if err != nil {
		return nil, fmt.Errorf("amdcl2: inner ELF: %w", err)
	}

	meta := &binfmt.AMDCL2Meta{SetupBlobs: map[string][]byte{}}
	if gd, ok := outer.SectionByName(".globaldata"); ok && len(gd.Data) > 0 && gd.Data[0] == 1 {
		meta.UseHSAConfig = true
	}
	setupSize := meta.KernelSetupSize()

	m := &binfmt.Model{Is64Bit: inner.Class == objelf.Class64, AMDCL2: meta}

	text, _ := inner.SectionByName(".text")
	var textData []byte
	if text != nil {
		textData = text.Data
	}

	for _, sym := range inner.Symbols {
		if sym.Type() != 0x2 /* STT_FUNC */ || sym.Name == "" {
			continue
		}
		k := binfmt.Kernel{Name: sym.Name}
		setupOff := sym.Value
		if setupOff >= uint64(setupSize) {
			start := setupOff - uint64(setupSize)
			if end := start + uint64(setupSize); end <= uint64(len(textData)) {
				meta.SetupBlobs[sym.Name] = textData[start:end]
			}
		}
		k.CodeOffset = sym.Value
		k.CodeSize = sym.Size
		m.Kernels = append(m.Kernels, k)

		if codeEnd := sym.Value + sym.Size; sym.Size > 0 && codeEnd <= uint64(len(textData)) {
			m.Sections = append(m.Sections, binfmt.Section{
				Name: ".text#" + sym.Name,
				Data: textData[sym.Value:codeEnd],
			})
		}
	}

	for _, sec := range inner.Sections {
		switch sec.Name {
		case ".text", ".rela.text", ".rela.rodata", ".symtab", ".strtab", ".shstrtab", "":
			continue
		default:
			m.Sections = append(m.Sections, binfmt.Section{Name: sec.Name, Data: sec.Data})
		}
	}

	for _, secName := range []string{".text", ".rodata"} {
		relaSec, ok := inner.SectionByName(".rela" + secName)
		if !ok {
			continue
		}
		relocs, err := parseRelaSection(relaSec.Data, inner.Class, inner.Symbols)
		if err != nil {
			return nil, fmt.Errorf("amdcl2: %w", err)
		}
		m.Relocs = append(m.Relocs, relocs...)
	}

	return m, nil
}

// Emit writes an AMDCL2 binary from m: builds the inner ELF first, then
// wraps it verbatim in a ".inner" section of a minimal outer ELF.
func (Codec) Emit(m *binfmt.Model) ([]byte, error) {
	class := objelf.Class32
	if m.Is64Bit {
		class = objelf.Class64
	}
	meta := m.AMDCL2
	if meta == nil {
		meta = &binfmt.AMDCL2Meta{}
	}
	setupSize := meta.KernelSetupSize()

	ib := objelf.NewBuilder(class, elfMachineAMDCL2, 2 /* ET_EXEC */)
	var text []byte
	for _, k := range m.Kernels {
		blob := meta.SetupBlobs[k.Name]
		if len(blob) < setupSize {
			blob = append(blob, make([]byte, setupSize-len(blob))...)
		}
		text = append(text, blob[:setupSize]...)
		codeOff := uint64(len(text))
		if sec, ok := m.SectionByName(".text#" + k.Name); ok {
			text = append(text, sec.Data...)
		}
		ib.AddSymbol(k.Name, codeOff, k.CodeSize, 0x12 /* FUNC|GLOBAL */, 0, ".text")
	}
	ib.AddSection(".text", objelf.SHT_PROGBITS, objelf.SHF_ALLOC|objelf.SHF_EXECINSTR, 4, text)
	for _, sec := range m.Sections {
		if isInnerTextFragment(sec.Name) {
			continue
		}
		ib.AddSection(sec.Name, objelf.SHT_PROGBITS, objelf.SHF_ALLOC|objelf.SHF_WRITE, 4, sec.Data)
	}

	if len(m.Relocs) > 0 {
		for _, name := range []string{"globaldata", "rwdata", "bss"} {
			ib.AddSymbol(name, 0, 0, 0, 0, "")
		}
		for _, rel := range m.Relocs {
			ib.AddRelocation(".text", rel.Offset, relocSymbolName(rel.Symbol), uint32(rel.Type), rel.Addend)
		}
	}

	innerBytes, err := ib.Bytes()
	if err != nil {
		return nil, fmt.Errorf("amdcl2: inner ELF: %w", err)
	}

	ob := objelf.NewBuilder(class, elfMachineAMDCL2, 2)
	hsaFlag := byte(0)
	if meta.UseHSAConfig {
		hsaFlag = 1
	}
	ob.AddSection(".globaldata", objelf.SHT_PROGBITS, objelf.SHF_ALLOC|objelf.SHF_WRITE, 1, []byte{hsaFlag})
	ob.AddSection(".inner", objelf.SHT_PROGBITS, objelf.SHF_ALLOC, 8, innerBytes)
	return ob.Bytes()
}

func isInnerTextFragment(name string) bool {
	return len(name) > 6 && name[:6] == ".text#"
}

func relocSymbolName(sym int32) string {
	switch binfmt.AMDRelocSymbol(sym) {
	case binfmt.RelocSymGlobalData:
		return "globaldata"
	case binfmt.RelocSymRWData:
		return "rwdata"
	case binfmt.RelocSymBSS:
		return "bss"
	default:
		return fmt.Sprintf("sym%d", sym)
	}
}

func parseRelaSection(data []byte, class objelf.Class, syms []objelf.Symbol) ([]reloc.Reloc, error) {
	entSize := 12
	if class == objelf.Class64 {
		entSize = 24
	}
	if len(data)%entSize != 0 {
		return nil, fmt.Errorf("%w: truncated RELA entry", objelf.Malformed)
	}
	var out []reloc.Reloc
	for off := 0; off+entSize <= len(data); off += entSize {
		var r reloc.Reloc
		var rawSymIdx uint32
		if class == objelf.Class32 {
			r.Offset = uint64(bytele.Get32(data, off))
			info := bytele.Get32(data, off+4)
			rawSymIdx = info >> 8
			r.Type = relaTypeToReloc(info & 0xff)
			r.Addend = int64(int32(bytele.Get32(data, off+8)))
		} else {
			r.Offset = bytele.Get64(data, off)
			info := bytele.Get64(data, off+8)
			rawSymIdx = uint32(info >> 32)
			r.Type = relaTypeToReloc(uint32(info))
			r.Addend = int64(bytele.Get64(data, off+16))
		}
		r.Symbol = int32(relocSymbolIndex(rawSymIdx, syms))
		out = append(out, r)
	}
	return out, nil
}

// relocSymbolIndex maps a raw ELF symbol-table index (the STN_UNDEF
// entry occupies index 0, objelf.File.Symbols mirrors ELF numbering
// exactly) back to AMDCL2's fixed logical convention (globaldata=0,
// rwdata=1, bss=2) by the symbol's name.
func relocSymbolIndex(rawIdx uint32, syms []objelf.Symbol) binfmt.AMDRelocSymbol {
	if rawIdx == 0 || int(rawIdx) >= len(syms) {
		return -1
	}
	switch syms[rawIdx].Name {
	case "globaldata":
		return binfmt.RelocSymGlobalData
	case "rwdata":
		return binfmt.RelocSymRWData
	case "bss":
		return binfmt.RelocSymBSS
	default:
		return -1
	}
}

func relaTypeToReloc(t uint32) reloc.Type {
	switch t {
	case 1:
		return reloc.Low32Bit
	case 2:
		return reloc.High32Bit
	default:
		return reloc.Value
	}
}
