/*
 * ELF reader
 *
 * A generic 32/64-bit ELF parser with optional lazily-built section and
 * symbol name maps. Every binary format codec wraps an objelf.File as
 * its outer or inner container.
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
	"errors"
	"fmt"
	"io"

	"github.com/clrx/gcnasm/pkg/bytele"
)

// Class selects 32- or 64-bit ELF.
type Class int

const (
	Class32 Class = 1
	Class64 Class = 2
)

// Sentinel errors realizing spec.md §4.1's three ELF failure cases.
var (
	// Malformed indicates a truncated or structurally invalid header.
	Malformed = errors.New("objelf: malformed ELF")
	// UnresolvedRef indicates a reference to an unknown section or symbol.
	UnresolvedRef = errors.New("objelf: unresolved reference")
	// Duplicate indicates a duplicate name when a name map was requested.
	Duplicate = errors.New("objelf: duplicate name")
)

const (
	elfMagic0 = 0x7f
	elfMagic1 = 'E'
	elfMagic2 = 'L'
	elfMagic3 = 'F'

	ehsize32 = 52
	ehsize64 = 64
	shsize32 = 40
	shsize64 = 64
	phsize32 = 32
	phsize64 = 56
	symsize32 = 16
	symsize64 = 24
	relasize32 = 12
	relasize64 = 24
)

// Section types, a subset of the standard ELF values this module cares
// about; format codecs add their own SHT_LOOS-range constants locally.
const (
	SHT_NULL     = 0
	SHT_PROGBITS = 1
	SHT_SYMTAB   = 2
	SHT_STRTAB   = 3
	SHT_RELA     = 4
	SHT_NOBITS   = 8
	SHT_NOTE     = 7
)

// Section flags.
const (
	SHF_WRITE     = 0x1
	SHF_ALLOC     = 0x2
	SHF_EXECINSTR = 0x4
)

// ParseFlags gates which lazily-built maps Parse constructs.
type ParseFlags uint32

const (
	// ParseSectionMap builds File.sectionsByName.
	ParseSectionMap ParseFlags = 1 << iota
	// ParseSymbolMap builds File.symbolsByName.
	ParseSymbolMap
)

// Section is one entry from the ELF section header table, with its content
// slice already materialized (empty for SHT_NOBITS).
type Section struct {
	Name    string
	Type    uint32
	Flags   uint64
	Addr    uint64
	Offset  uint64
	Size    uint64
	Link    uint32
	Info    uint32
	Align   uint64
	EntSize uint64
	Data    []byte
}

// Symbol is one entry from a symbol table section.
type Symbol struct {
	Name    string
	Value   uint64
	Size    uint64
	Info    byte
	Other   byte
	SectionIndex uint16
}

// Bind returns the symbol's binding (STB_*), the high 4 bits of Info.
func (s Symbol) Bind() byte { return s.Info >> 4 }

// Type returns the symbol's type (STT_*), the low 4 bits of Info.
func (s Symbol) Type() byte { return s.Info & 0xf }

// Rela is one RELA relocation entry.
type Rela struct {
	Offset uint64
	Symbol uint32
	Type   uint32
	Addend int64
}

// File is a parsed ELF image: section and symbol tables, with optional
// lazily-built name→index maps.
type File struct {
	Class   Class
	Machine uint16
	Type    uint16
	Entry   uint64
	Flags   uint32

	Sections []Section
	Symbols  []Symbol

	sectionsByName map[string]int
	symbolsByName  map[string]int
}

// Parse reads an ELF image from data, building the maps flags requests.
func Parse(data []byte, flags ParseFlags) (*File, error) {
	if len(data) < 20 || data[0] != elfMagic0 || data[1] != elfMagic1 ||
		data[2] != elfMagic2 || data[3] != elfMagic3 {
		return nil, fmt.Errorf("%w: bad e_ident magic", Malformed)
	}
	class := Class(data[4])
	if class != Class32 && class != Class64 {
		return nil, fmt.Errorf("%w: unsupported EI_CLASS %d", Malformed, data[4])
	}

	f := &File{Class: class}
	var shoff uint64
	var shentsize, shnum, shstrndx uint16

	if class == Class32 {
		if len(data) < ehsize32 {
			return nil, fmt.Errorf("%w: truncated Ehdr32", Malformed)
		}
		f.Type = bytele.Get16(data, 16)
		f.Machine = bytele.Get16(data, 18)
		f.Entry = uint64(bytele.Get32(data, 24))
		shoff = uint64(bytele.Get32(data, 32))
		f.Flags = bytele.Get32(data, 36)
		shentsize = bytele.Get16(data, 46)
		shnum = bytele.Get16(data, 48)
		shstrndx = bytele.Get16(data, 50)
	} else {
		if len(data) < ehsize64 {
			return nil, fmt.Errorf("%w: truncated Ehdr64", Malformed)
		}
		f.Type = bytele.Get16(data, 16)
		f.Machine = bytele.Get16(data, 18)
		f.Entry = bytele.Get64(data, 24)
		shoff = bytele.Get64(data, 40)
		f.Flags = bytele.Get32(data, 48)
		shentsize = bytele.Get16(data, 58)
		shnum = bytele.Get16(data, 60)
		shstrndx = bytele.Get16(data, 62)
	}

	if shnum == 0 {
		return f, nil
	}
	shentW := int(shentsize)
	if (class == Class32 && shentW < shsize32) || (class == Class64 && shentW < shsize64) {
		return nil, fmt.Errorf("%w: e_shentsize too small", Malformed)
	}

	type rawSH struct {
		name, typ            uint32
		flags, addr, off, sz uint64
		link, info           uint32
		align, entsz         uint64
	}
	raw := make([]rawSH, shnum)
	for i := 0; i < int(shnum); i++ {
		base := int(shoff) + i*shentW
		if base+shentW > len(data) {
			return nil, fmt.Errorf("%w: section header %d out of bounds", Malformed, i)
		}
		var r rawSH
		if class == Class32 {
			r.name = bytele.Get32(data, base+0)
			r.typ = bytele.Get32(data, base+4)
			r.flags = uint64(bytele.Get32(data, base+8))
			r.addr = uint64(bytele.Get32(data, base+12))
			r.off = uint64(bytele.Get32(data, base+16))
			r.sz = uint64(bytele.Get32(data, base+20))
			r.link = bytele.Get32(data, base+24)
			r.info = bytele.Get32(data, base+28)
			r.align = uint64(bytele.Get32(data, base+32))
			r.entsz = uint64(bytele.Get32(data, base+36))
		} else {
			r.name = bytele.Get32(data, base+0)
			r.typ = bytele.Get32(data, base+4)
			r.flags = bytele.Get64(data, base+8)
			r.addr = bytele.Get64(data, base+16)
			r.off = bytele.Get64(data, base+24)
			r.sz = bytele.Get64(data, base+32)
			r.link = bytele.Get32(data, base+40)
			r.info = bytele.Get32(data, base+44)
			r.align = bytele.Get64(data, base+48)
			r.entsz = bytele.Get64(data, base+56)
		}
		raw[i] = r
	}

	if int(shstrndx) >= len(raw) {
		return nil, fmt.Errorf("%w: e_shstrndx out of range", Malformed)
	}
	strtab := raw[shstrndx]
	if strtab.off+strtab.sz > uint64(len(data)) {
		return nil, fmt.Errorf("%w: section string table out of bounds", Malformed)
	}
	strData := data[strtab.off : strtab.off+strtab.sz]

	f.Sections = make([]Section, shnum)
	for i, r := range raw {
		name, err := cstrAt(strData, int(r.name))
		if err != nil {
			return nil, err
		}
		s := Section{
			Name: name, Type: r.typ, Flags: r.flags, Addr: r.addr,
			Offset: r.off, Size: r.sz, Link: r.link, Info: r.info,
			Align: r.align, EntSize: r.entsz,
		}
		if r.typ != SHT_NOBITS {
			if r.off+r.sz > uint64(len(data)) {
				return nil, fmt.Errorf("%w: section %q data out of bounds", Malformed, name)
			}
			s.Data = data[r.off : r.off+r.sz]
		}
		f.Sections[i] = s
	}

	for i, r := range raw {
		if r.typ != SHT_SYMTAB || int(r.link) >= len(raw) {
			continue
		}
		symstr := raw[r.link]
		if symstr.off+symstr.sz > uint64(len(data)) {
			return nil, fmt.Errorf("%w: symbol string table out of bounds", Malformed)
		}
		symstrData := data[symstr.off : symstr.off+symstr.sz]
		symData := f.Sections[i].Data
		entsz := int(r.entsz)
		if entsz == 0 {
			entsz = symSizeFor(class)
		}
		n := len(symData) / entsz
		for j := 0; j < n; j++ {
			base := j * entsz
			var sym Symbol
			var nameOff uint32
			if class == Class32 {
				nameOff = bytele.Get32(symData, base+0)
				sym.Value = uint64(bytele.Get32(symData, base+4))
				sym.Size = uint64(bytele.Get32(symData, base+8))
				sym.Info = symData[base+12]
				sym.Other = symData[base+13]
				sym.SectionIndex = bytele.Get16(symData, base+14)
			} else {
				nameOff = bytele.Get32(symData, base+0)
				sym.Info = symData[base+4]
				sym.Other = symData[base+5]
				sym.SectionIndex = bytele.Get16(symData, base+6)
				sym.Value = bytele.Get64(symData, base+8)
				sym.Size = bytele.Get64(symData, base+16)
			}
			name, err := cstrAt(symstrData, int(nameOff))
			if err != nil {
				return nil, err
			}
			sym.Name = name
			f.Symbols = append(f.Symbols, sym)
		}
	}

	if flags&ParseSectionMap != 0 {
		f.sectionsByName = make(map[string]int, len(f.Sections))
		for i, s := range f.Sections {
			if _, dup := f.sectionsByName[s.Name]; dup && s.Name != "" {
				return nil, fmt.Errorf("%w: section name %q", Duplicate, s.Name)
			}
			f.sectionsByName[s.Name] = i
		}
	}
	if flags&ParseSymbolMap != 0 {
		f.symbolsByName = make(map[string]int, len(f.Symbols))
		for i, s := range f.Symbols {
			if _, dup := f.symbolsByName[s.Name]; dup && s.Name != "" {
				return nil, fmt.Errorf("%w: symbol name %q", Duplicate, s.Name)
			}
			f.symbolsByName[s.Name] = i
		}
	}

	return f, nil
}

func symSizeFor(class Class) int {
	if class == Class32 {
		return symsize32
	}
	return symsize64
}

func cstrAt(data []byte, off int) (string, error) {
	if off < 0 || off > len(data) {
		return "", fmt.Errorf("%w: string offset %d out of bounds", Malformed, off)
	}
	end := off
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end == len(data) {
		return "", fmt.Errorf("%w: unterminated string at %d", Malformed, off)
	}
	return string(data[off:end]), nil
}

// SectionByName looks up a section by name. ParseSectionMap must have been
// passed to Parse, otherwise ok is always false.
func (f *File) SectionByName(name string) (*Section, bool) {
	if f.sectionsByName == nil {
		return nil, false
	}
	i, ok := f.sectionsByName[name]
	if !ok {
		return nil, false
	}
	return &f.Sections[i], true
}

// SymbolByName looks up a symbol by name. ParseSymbolMap must have been
// passed to Parse, otherwise ok is always false.
func (f *File) SymbolByName(name string) (*Symbol, bool) {
	if f.symbolsByName == nil {
		return nil, false
	}
	i, ok := f.symbolsByName[name]
	if !ok {
		return nil, false
	}
	return &f.Symbols[i], true
}

// Write serializes f back to its ELF byte representation via a Builder
// seeded from its current contents. Used by tests cross-checking a Parse
// round-trip.
func (f *File) Write(w io.Writer) error {
	b := NewBuilder(f.Class, f.Machine, f.Type)
	b.Entry = f.Entry
	b.Flags = f.Flags
	for _, s := range f.Sections {
		if s.Name == "" {
			continue
		}
		b.AddSection(s.Name, s.Type, s.Flags, s.Align, s.Data)
	}
	out, err := b.Bytes()
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
