/*
 * ELF writer
 *
 * A single-pass ELF builder: register sections, symbols, relocations
 * and program headers, then resolve every name reference and lay out
 * the final image.
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

package objelf

import (
	"fmt"
	"sort"

	"github.com/clrx/gcnasm/pkg/bytele"
)

// secDesc is a pending section registered with a Builder, mirroring spec.md
// §4.1's SectionDescriptor{name, type, flags, align, content-producer}. The
// content producer is resolved eagerly to a []byte here, since every format
// codec already has full section contents in hand by the time it builds.
type secDesc struct {
	name    string
	typ     uint32
	flags   uint64
	align   uint64
	data    []byte
	entsize uint64
	link    int // resolved section header index of linked section, 0 if none
	info    uint32
}

// symDesc is a pending symbol registered with a Builder.
type symDesc struct {
	name    string
	value   uint64
	size    uint64
	info    byte
	other   byte
	section string // "" means SHN_UNDEF
}

// relaDesc is a pending relocation registered against a target section.
type relaDesc struct {
	target string
	offset uint64
	symbol string
	typ    uint32
	addend int64
}

// progDesc is a pending program header registered with a Builder.
type progDesc struct {
	typ, flags uint32
	sections   []string
	vaddr      uint64
}

// Builder assembles an ELF image in one pass: register sections, symbols,
// relocations and program headers, then call Bytes to resolve every name
// reference and lay out the final file.
type Builder struct {
	Class   Class
	Machine uint16
	Type    uint16
	Entry   uint64
	Flags   uint32

	sections []secDesc
	symbols  []symDesc
	relas    map[string][]relaDesc // keyed by target section name
	progs    []progDesc
}

// NewBuilder returns an empty Builder for the given class/machine/type.
func NewBuilder(class Class, machine, typ uint16) *Builder {
	return &Builder{Class: class, Machine: machine, Type: typ, relas: map[string][]relaDesc{}}
}

// AddSection registers a new section and returns its descriptor index
// (1-based among non-null sections, since index 0 is always SHT_NULL).
func (b *Builder) AddSection(name string, typ uint32, flags, align uint64, data []byte) int {
	b.sections = append(b.sections, secDesc{name: name, typ: typ, flags: flags, align: align, data: data})
	return len(b.sections)
}

// AddSymbol registers a symbol bound to sectionName ("" for SHN_UNDEF,
// resolved against registered section names at Bytes time).
func (b *Builder) AddSymbol(name string, value, size uint64, info, other byte, sectionName string) {
	b.symbols = append(b.symbols, symDesc{name: name, value: value, size: size, info: info, other: other, section: sectionName})
}

// AddRelocation registers one RELA entry targeting targetSection; the
// builder synthesizes a ".rela"+targetSection section at Bytes time.
func (b *Builder) AddRelocation(targetSection string, offset uint64, symbolName string, typ uint32, addend int64) {
	b.relas[targetSection] = append(b.relas[targetSection], relaDesc{
		target: targetSection, offset: offset, symbol: symbolName, typ: typ, addend: addend,
	})
}

// AddProgramHeader registers a PT_* program header spanning the named
// sections in order; vaddr is the header's p_vaddr (p_paddr mirrors it).
func (b *Builder) AddProgramHeader(typ, flags uint32, vaddr uint64, sectionNames ...string) {
	b.progs = append(b.progs, progDesc{typ: typ, flags: flags, sections: sectionNames, vaddr: vaddr})
}

func (b *Builder) ehsize() int {
	if b.Class == Class32 {
		return ehsize32
	}
	return ehsize64
}

func (b *Builder) shsize() int {
	if b.Class == Class32 {
		return shsize32
	}
	return shsize64
}

func (b *Builder) phsize() int {
	if b.Class == Class32 {
		return phsize32
	}
	return phsize64
}

func (b *Builder) symEntSize() int {
	if b.Class == Class32 {
		return symsize32
	}
	return symsize64
}

func (b *Builder) relaEntSize() int {
	if b.Class == Class32 {
		return relasize32
	}
	return relasize64
}

// Bytes resolves every registered name reference and serializes the final
// ELF image, returning UnresolvedRef if a relocation, symbol, or program
// header names a section that was never added.
func (b *Builder) Bytes() ([]byte, error) {
	sectionIndex := map[string]int{"": 0}
	for i, s := range b.sections {
		sectionIndex[s.name] = i + 1
	}

	allSections := make([]secDesc, len(b.sections))
	copy(allSections, b.sections)

	var symtabIdx, strtabIdx int
	if len(b.symbols) > 0 {
		strw := bytele.NewWriter()
		strw.U8(0)
		symw := bytele.NewWriter()
		symw.Raw(make([]byte, b.symEntSize())) // STN_UNDEF entry
		names := map[string]uint32{}
		for _, sym := range b.symbols {
			secIdx := 0
			if sym.section != "" {
				idx, ok := sectionIndex[sym.section]
				if !ok {
					return nil, fmt.Errorf("%w: symbol %q references section %q", UnresolvedRef, sym.name, sym.section)
				}
				secIdx = idx
			}
			nameOff, ok := names[sym.name]
			if !ok {
				nameOff = uint32(strw.Len())
				strw.Raw([]byte(sym.name))
				strw.U8(0)
				names[sym.name] = nameOff
			}
			if b.Class == Class32 {
				symw.U32(nameOff)
				symw.U32(uint32(sym.value))
				symw.U32(uint32(sym.size))
				symw.U8(sym.info)
				symw.U8(sym.other)
				symw.U16(uint16(secIdx))
			} else {
				symw.U32(nameOff)
				symw.U8(sym.info)
				symw.U8(sym.other)
				symw.U16(uint16(secIdx))
				symw.U64(sym.value)
				symw.U64(sym.size)
			}
		}
		allSections = append(allSections, secDesc{name: ".strtab", typ: SHT_STRTAB, align: 1, data: strw.Bytes()})
		strtabIdx = len(allSections)
		allSections = append(allSections, secDesc{name: ".symtab", typ: SHT_SYMTAB, align: uint64(b.wordSize()),
			data: symw.Bytes(), entsize: uint64(b.symEntSize()), link: strtabIdx})
		symtabIdx = len(allSections)
	}

	targets := make([]string, 0, len(b.relas))
	for t := range b.relas {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, target := range targets {
		if _, ok := sectionIndex[target]; !ok {
			return nil, fmt.Errorf("%w: relocation targets unknown section %q", UnresolvedRef, target)
		}
		relaw := bytele.NewWriter()
		for _, r := range b.relas[target] {
			symIdx := 0
			if r.symbol != "" {
				found := false
				for i, sym := range b.symbols {
					if sym.name == r.symbol {
						symIdx = i + 1 // STN_UNDEF occupies index 0
						found = true
						break
					}
				}
				if !found {
					return nil, fmt.Errorf("%w: relocation references symbol %q", UnresolvedRef, r.symbol)
				}
			}
			info := (uint64(symIdx) << 32) | uint64(r.typ)
			if b.Class == Class32 {
				relaw.U32(uint32(r.offset))
				relaw.U32(uint32(info))
				relaw.U32(uint32(r.addend))
			} else {
				relaw.U64(r.offset)
				relaw.U64(info)
				relaw.U64(uint64(r.addend))
			}
		}
		allSections = append(allSections, secDesc{
			name: ".rela" + target, typ: SHT_RELA, flags: 0, align: uint64(b.wordSize()),
			data: relaw.Bytes(), entsize: uint64(b.relaEntSize()), link: symtabIdx, info: uint32(sectionIndex[target]),
		})
	}

	shstrw := bytele.NewWriter()
	shstrw.U8(0)
	shNameOff := make([]uint32, len(allSections)+1)
	for i, s := range allSections {
		shNameOff[i+1] = uint32(shstrw.Len())
		shstrw.Raw([]byte(s.name))
		shstrw.U8(0)
	}
	shstrNameOff := uint32(shstrw.Len())
	shstrw.Raw([]byte(".shstrtab"))
	shstrw.U8(0)
	shNameOff = append(shNameOff, shstrNameOff)
	allSections = append(allSections, secDesc{name: ".shstrtab", typ: SHT_STRTAB, align: 1, data: shstrw.Bytes()})
	shstrndx := len(allSections)

	offsets := make([]uint64, len(allSections)+1)
	cur := uint64(b.ehsize())
	for i, s := range allSections {
		if s.typ != SHT_NOBITS && s.align > 1 {
			if rem := cur % s.align; rem != 0 {
				cur += s.align - rem
			}
		}
		offsets[i+1] = cur
		if s.typ != SHT_NOBITS {
			cur += uint64(len(s.data))
		}
	}

	progOff := cur
	cur += uint64(len(b.progs)) * uint64(b.phsize())

	if rem := cur % 8; rem != 0 {
		cur += 8 - rem
	}
	shOff := cur

	w := bytele.NewWriter()
	b.writeEhdr(w, shOff, progOff, uint16(len(allSections)+1), uint16(shstrndx), uint16(len(b.progs)))
	for i, s := range allSections {
		if s.typ == SHT_NOBITS {
			continue
		}
		for uint64(w.Len()) < offsets[i+1] {
			w.U8(0)
		}
		w.Raw(s.data)
	}
	for uint64(w.Len()) < progOff {
		w.U8(0)
	}
	for _, p := range b.progs {
		if err := b.writePhdr(w, p, sectionIndex, allSections, offsets); err != nil {
			return nil, err
		}
	}
	for uint64(w.Len()) < shOff {
		w.U8(0)
	}

	b.writeNullShdr(w)
	for i, s := range allSections {
		b.writeShdr(w, s, shNameOff[i+1], offsets[i+1])
	}
	return w.Bytes(), nil
}

func (b *Builder) wordSize() int {
	if b.Class == Class32 {
		return 4
	}
	return 8
}

func (b *Builder) writeEhdr(w *bytele.Writer, shoff, phoff uint64, shnum, shstrndx, phnum uint16) {
	w.U8(elfMagic0)
	w.U8(elfMagic1)
	w.U8(elfMagic2)
	w.U8(elfMagic3)
	w.U8(byte(b.Class))
	w.U8(1) // ELFDATA2LSB
	w.U8(1) // EV_CURRENT
	w.U8(0) // ELFOSABI_NONE
	w.Pad(8)
	w.U16(b.Type)
	w.U16(b.Machine)
	w.U32(1) // EV_CURRENT
	if b.Class == Class32 {
		w.U32(uint32(b.Entry))
		w.U32(uint32(phoff))
		w.U32(uint32(shoff))
	} else {
		w.U64(b.Entry)
		w.U64(phoff)
		w.U64(shoff)
	}
	w.U32(b.Flags)
	w.U16(uint16(b.ehsize()))
	w.U16(uint16(b.phsize()))
	w.U16(phnum)
	w.U16(uint16(b.shsize()))
	w.U16(shnum)
	w.U16(shstrndx)
}

func (b *Builder) writeNullShdr(w *bytele.Writer) {
	if b.Class == Class32 {
		w.Raw(make([]byte, shsize32))
	} else {
		w.Raw(make([]byte, shsize64))
	}
}

func (b *Builder) writeShdr(w *bytele.Writer, s secDesc, nameOff uint32, off uint64) {
	sz := uint64(len(s.data))
	if b.Class == Class32 {
		w.U32(nameOff)
		w.U32(s.typ)
		w.U32(uint32(s.flags))
		w.U32(0) // addr
		w.U32(uint32(off))
		w.U32(uint32(sz))
		w.U32(uint32(s.link))
		w.U32(s.info)
		w.U32(uint32(s.align))
		w.U32(uint32(s.entsize))
	} else {
		w.U32(nameOff)
		w.U32(s.typ)
		w.U64(s.flags)
		w.U64(0)
		w.U64(off)
		w.U64(sz)
		w.U32(uint32(s.link))
		w.U32(s.info)
		w.U64(s.align)
		w.U64(s.entsize)
	}
}

func (b *Builder) writePhdr(w *bytele.Writer, p progDesc, idx map[string]int, secs []secDesc, offsets []uint64) error {
	var fileoff, filesz uint64
	first := true
	for _, name := range p.sections {
		i, ok := idx[name]
		if !ok {
			return fmt.Errorf("%w: program header references section %q", UnresolvedRef, name)
		}
		off := offsets[i]
		sz := uint64(len(secs[i-1].data))
		if first {
			fileoff = off
			first = false
		}
		filesz = off + sz - fileoff
	}
	if b.Class == Class32 {
		w.U32(p.typ)
		w.U32(uint32(fileoff))
		w.U32(uint32(p.vaddr))
		w.U32(uint32(p.vaddr))
		w.U32(uint32(filesz))
		w.U32(uint32(filesz))
		w.U32(p.flags)
		w.U32(1)
	} else {
		w.U32(p.typ)
		w.U32(p.flags)
		w.U64(fileoff)
		w.U64(p.vaddr)
		w.U64(p.vaddr)
		w.U64(filesz)
		w.U64(filesz)
		w.U64(1)
	}
	return nil
}
