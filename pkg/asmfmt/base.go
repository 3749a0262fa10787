/*
 * Shared section/kernel bookkeeping
 *
 * Base implements the part of Handler that every concrete format does the
 * same way: creating kernels/sections over a symtab.Table and tracking
 * which one is current. Concrete handlers embed Base and add their own
 * ParsePseudoOp/HandleLabel/PrepareBinary/WriteBinary.
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

package asmfmt

import (
	"github.com/clrx/gcnasm/pkg/symtab"
)

// Base is embedded by every concrete format handler for the
// kernel/section bookkeeping common to all of them.
type Base struct {
	Table         *symtab.Table
	CurrentKernel symtab.KernelID
	sectionInfo   map[symtab.SectionID]SectionInfo
}

// NewBase returns a Base over table with no kernel selected.
func NewBase(table *symtab.Table) Base {
	return Base{Table: table, CurrentKernel: symtab.KernelGlobal, sectionInfo: map[symtab.SectionID]SectionInfo{}}
}

// AddKernel creates a kernel record and returns its id.
func (b *Base) AddKernel(name string) (symtab.KernelID, error) {
	for _, k := range b.Table.Kernels() {
		if k.Name == name {
			return 0, ErrDuplicateKernel
		}
	}
	return b.Table.AddKernel(name), nil
}

// AddSection creates a named section under kernel and records its static
// info. typ/flags/relSpace are supplied by the caller (the concrete
// handler), since only it knows the right defaults per section name.
func (b *Base) AddSection(name string, kernel symtab.KernelID, typ symtab.SectionType, flags symtab.SectionFlag, relSpace int32) (symtab.SectionID, error) {
	if _, ok := b.Table.SectionByName(name); ok {
		return 0, ErrDuplicateSection
	}
	id := b.Table.AddSection(name, kernel, typ, flags, 4)
	b.sectionInfo[id] = SectionInfo{Name: name, Type: typ, Flags: flags, RelSpace: relSpace}
	return id, nil
}

// GetSectionID looks up name restricted to the current context: a kernel
// section if CurrentKernel is selected and owns it, else the global scope.
func (b *Base) GetSectionID(name string) (symtab.SectionID, error) {
	id, ok := b.Table.SectionByName(name)
	if !ok {
		return 0, ErrUnknownSection
	}
	return id, nil
}

// SetCurrentKernel selects kernel as current.
func (b *Base) SetCurrentKernel(kernel symtab.KernelID) error {
	if _, err := b.Table.Kernel(kernel); err != nil && kernel != symtab.KernelGlobal {
		return err
	}
	b.CurrentKernel = kernel
	return nil
}

// SetCurrentSection selects id as current, switching CurrentKernel to id's
// owner if different.
func (b *Base) SetCurrentSection(id symtab.SectionID) error {
	sec, err := b.Table.Section(id)
	if err != nil {
		return err
	}
	b.CurrentKernel = sec.Kernel
	b.Table.SetSection(sec.Kernel, id)
	return nil
}

// CurrentKernelID returns the kernel currently selected, for callers (the
// statement loop's plain `.section`/`.pushsection` handling) that need it
// but aren't part of the Handler interface itself.
func (b *Base) CurrentKernelID() symtab.KernelID { return b.CurrentKernel }

// GetSectionInfo returns the recorded static info for id.
func (b *Base) GetSectionInfo(id symtab.SectionID) (SectionInfo, error) {
	info, ok := b.sectionInfo[id]
	if !ok {
		return SectionInfo{}, ErrUnknownSection
	}
	return info, nil
}
