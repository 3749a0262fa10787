/*
 * Symbol, section and kernel tables
 *
 * An arena of ids rather than an intrusive object graph: symbols,
 * sections and kernels are values in flat slices, addressed by plain
 * integer index, the way a 370 emulator addresses memory by offset
 * rather than by pointer.
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

package symtab

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/reloc"
	"github.com/clrx/gcnasm/pkg/sourcepos"
)

// SymbolID, SectionID and KernelID index their respective arenas. The zero
// value of each is never a valid allocated entry (index 0 is reserved so a
// zero-valued ID reads as "none" in callers that embed these in structs).
type SymbolID int32
type SectionID int32
type KernelID int32

// Sentinel section owners for symbols/sections not scoped to a kernel.
const (
	KernelGlobal      KernelID = -1
	KernelInnerGlobal KernelID = -2
)

// SectionAbs is the absolute pseudo-section (spec.md §4.5): a symbol or
// expression value bound to SectionAbs is a plain integer, not relative to
// any real section's buffer.
const SectionAbs SectionID = -1

// SymbolFlag bits, spec.md §3 Symbol.flags.
type SymbolFlag uint8

const (
	SymDefined SymbolFlag = 1 << iota
	SymGlobal
	SymWeak
	SymThumbOfRegister
	SymOnGOT
)

// Symbol mirrors spec.md §3's Symbol record.
type Symbol struct {
	Name    string
	Section SectionID
	Offset  uint64
	Value   uint64
	Flags   SymbolFlag
}

// SectionFlag bits, spec.md §3 Section.flags.
type SectionFlag uint16

const (
	SecWritable SectionFlag = 1 << iota
	SecAddressable
	SecAbsAddressable
	SecUnresolvable
	SecELFAlloc
	SecELFWrite
	SecELFExec
)

// SectionType tags what a section's bytes represent.
type SectionType int

const (
	SecCode SectionType = iota
	SecData
	SecConfig
	SecMetadata
	SecControl
)

// Section mirrors spec.md §3's Section record: a growable byte buffer, its
// own relocation list and source-position index, and an owning kernel
// (KernelGlobal/KernelInnerGlobal for sections not scoped to one kernel).
type Section struct {
	Name      string
	Kernel    KernelID
	Type      SectionType
	Flags     SectionFlag
	Align     uint64
	Data      []byte
	Relocs    []reloc.Reloc
	Positions *sourcepos.Index
}

// Kernel mirrors spec.md §3's Kernel record.
type Kernel struct {
	Name       string
	SGPRCount  int
	VGPRCount  int
	AllocFlags uint32
	ArgNames   map[string]struct{}
	Sections   map[string]SectionID
}

// Table owns every symbol, section and kernel created during an assembly
// pass, plus the per-kernel current-section stack spec.md §3 requires for
// `.pushsection`/`.popsection`.
type Table struct {
	symbols  []Symbol
	sections []Section
	kernels  []Kernel

	symbolsByName  map[string]SymbolID
	sectionsByName map[string]SectionID

	curStack map[KernelID][]SectionID
}

// New returns an empty Table.
func New() *Table {
	return &Table{
		symbolsByName:  map[string]SymbolID{},
		sectionsByName: map[string]SectionID{},
		curStack:       map[KernelID][]SectionID{},
	}
}

// ErrDuplicateSymbol is returned by DefineSymbol when the name is already
// bound.
var ErrDuplicateSymbol = fmt.Errorf("symtab: duplicate symbol")

// ErrUnknownSection is returned when a section id or name does not exist.
var ErrUnknownSection = fmt.Errorf("symtab: unknown section")

// ErrUnknownSymbol is returned when a symbol id or name does not exist.
var ErrUnknownSymbol = fmt.Errorf("symtab: unknown symbol")

// ErrEmptySectionStack is returned by PopSection when a kernel's section
// stack is already empty.
var ErrEmptySectionStack = fmt.Errorf("symtab: pushsection/popsection stack underflow")

// InternSymbol returns the id of name, creating an undefined symbol on
// first reference (spec.md §3: "created on first reference or
// definition").
func (t *Table) InternSymbol(name string) SymbolID {
	if id, ok := t.symbolsByName[name]; ok {
		return id
	}
	t.symbols = append(t.symbols, Symbol{Name: name})
	id := SymbolID(len(t.symbols) - 1)
	t.symbolsByName[name] = id
	return id
}

// DefineSymbol sets the value/section of name's symbol and marks it
// defined, interning it first if necessary.
func (t *Table) DefineSymbol(name string, section SectionID, offset, value uint64, flags SymbolFlag) SymbolID {
	id := t.InternSymbol(name)
	s := &t.symbols[id]
	s.Section = section
	s.Offset = offset
	s.Value = value
	s.Flags |= flags | SymDefined
	return id
}

// Symbol returns the symbol stored at id.
func (t *Table) Symbol(id SymbolID) (*Symbol, error) {
	if int(id) < 0 || int(id) >= len(t.symbols) {
		return nil, ErrUnknownSymbol
	}
	return &t.symbols[id], nil
}

// SymbolByName looks up a symbol without creating one.
func (t *Table) SymbolByName(name string) (SymbolID, bool) {
	id, ok := t.symbolsByName[name]
	return id, ok
}

// AddSection creates a new section and returns its id. Name must be
// unique; AddSection returns ErrDuplicateSymbol's section analog via a
// plain overwrite check so callers can detect a re-declared section
// before mutating it.
func (t *Table) AddSection(name string, kernel KernelID, typ SectionType, flags SectionFlag, align uint64) SectionID {
	if id, ok := t.sectionsByName[name]; ok {
		return id
	}
	t.sections = append(t.sections, Section{
		Name: name, Kernel: kernel, Type: typ, Flags: flags, Align: align,
		Positions: sourcepos.NewIndex(),
	})
	id := SectionID(len(t.sections) - 1)
	t.sectionsByName[name] = id
	return id
}

// Section returns the section stored at id.
func (t *Table) Section(id SectionID) (*Section, error) {
	if int(id) < 0 || int(id) >= len(t.sections) {
		return nil, ErrUnknownSection
	}
	return &t.sections[id], nil
}

// SectionByName looks up a section id by name.
func (t *Table) SectionByName(name string) (SectionID, bool) {
	id, ok := t.sectionsByName[name]
	return id, ok
}

// AddKernel creates a new kernel and returns its id.
func (t *Table) AddKernel(name string) KernelID {
	t.kernels = append(t.kernels, Kernel{Name: name, ArgNames: map[string]struct{}{}, Sections: map[string]SectionID{}})
	return KernelID(len(t.kernels) - 1)
}

// Kernel returns the kernel stored at id.
func (t *Table) Kernel(id KernelID) (*Kernel, error) {
	if int(id) < 0 || int(id) >= len(t.kernels) {
		return nil, fmt.Errorf("symtab: unknown kernel %d", id)
	}
	return &t.kernels[id], nil
}

// CurrentSection returns the top of kernel's current-section stack, or
// false if nothing has been pushed yet.
func (t *Table) CurrentSection(kernel KernelID) (SectionID, bool) {
	stack := t.curStack[kernel]
	if len(stack) == 0 {
		return 0, false
	}
	return stack[len(stack)-1], true
}

// PushSection pushes id onto kernel's current-section stack, realizing
// `.pushsection`.
func (t *Table) PushSection(kernel KernelID, id SectionID) {
	t.curStack[kernel] = append(t.curStack[kernel], id)
}

// PopSection pops kernel's current-section stack, realizing
// `.popsection`.
func (t *Table) PopSection(kernel KernelID) (SectionID, error) {
	stack := t.curStack[kernel]
	if len(stack) == 0 {
		return 0, ErrEmptySectionStack
	}
	top := stack[len(stack)-1]
	t.curStack[kernel] = stack[:len(stack)-1]
	return top, nil
}

// SetSection replaces the top of kernel's current-section stack in place,
// realizing a plain `.section name` directive (as opposed to
// `.pushsection`, which grows the stack).
func (t *Table) SetSection(kernel KernelID, id SectionID) {
	stack := t.curStack[kernel]
	if len(stack) == 0 {
		t.curStack[kernel] = []SectionID{id}
		return
	}
	stack[len(stack)-1] = id
}

// AppendBytes grows section id's buffer, recording a source position entry
// for the new offset.
func (t *Table) AppendBytes(id SectionID, data []byte, origin sourcepos.OriginID, line, col int) error {
	s, err := t.Section(id)
	if err != nil {
		return err
	}
	s.Positions.Append(uint64(len(s.Data)), origin, line, col)
	s.Data = append(s.Data, data...)
	return nil
}

// AddRelocation appends a relocation to section id's relocation list.
func (t *Table) AddRelocation(id SectionID, r reloc.Reloc) error {
	s, err := t.Section(id)
	if err != nil {
		return err
	}
	s.Relocs = append(s.Relocs, r)
	return nil
}

// Symbols returns every symbol in arena order.
func (t *Table) Symbols() []Symbol { return t.symbols }

// Sections returns every section in arena order.
func (t *Table) Sections() []Section { return t.sections }

// Kernels returns every kernel in arena order.
func (t *Table) Kernels() []Kernel { return t.kernels }
