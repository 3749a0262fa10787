/*
 * AMD Catalyst format handler
 *
 * The simplest of the four: one code + one data section per kernel, no
 * kcode association (spec.md §4.6: "AMDCL2, Gallium and ROCm additionally
 * manage a kernel-code association" — Catalyst is the one format that
 * doesn't), and a single assembler-wide driver-version pseudo-op.
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

package amdh

import (
	"strings"

	"github.com/clrx/gcnasm/pkg/asmfmt"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/amdcatalyst"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/expr"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// Handler implements asmfmt.Handler for the AMD Catalyst container.
type Handler struct {
	asmfmt.Base

	kernelText map[symtab.KernelID]symtab.SectionID
	kernelData map[symtab.KernelID]symtab.SectionID

	driverVersion int
}

// New returns a Handler with a global .globaldata section.
func New(table *symtab.Table) *Handler {
	h := &Handler{
		Base:       asmfmt.NewBase(table),
		kernelText: map[symtab.KernelID]symtab.SectionID{},
		kernelData: map[symtab.KernelID]symtab.SectionID{},
	}
	h.Base.AddSection(".globaldata", symtab.KernelGlobal, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, -1)
	return h
}

// AddKernel creates the kernel plus its default .text section.
func (h *Handler) AddKernel(name string) (symtab.KernelID, error) {
	id, err := h.Base.AddKernel(name)
	if err != nil {
		return 0, err
	}
	textID, err := h.Base.AddSection(".text", id, symtab.SecCode, symtab.SecAddressable|symtab.SecELFAlloc|symtab.SecELFExec, int32(id))
	if err != nil {
		return 0, err
	}
	h.kernelText[id] = textID
	return id, nil
}

// AddSection delegates to Base with AMD-Catalyst-appropriate defaults.
func (h *Handler) AddSection(name string, kernel symtab.KernelID) (symtab.SectionID, error) {
	return h.Base.AddSection(name, kernel, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, int32(kernel))
}

// ParsePseudoOp recognizes `.kernel name` and `.driver_version expr`.
func (h *Handler) ParsePseudoOp(name, line string, pos diag.Pos, diags *diag.Bag) bool {
	switch name {
	case "kernel":
		kname := strings.TrimSpace(line)
		if kname == "" {
			diags.Errorf(pos, ".kernel requires a name")
			return true
		}
		id, err := h.AddKernel(kname)
		if err != nil {
			diags.Errorf(pos, "%v", err)
			return true
		}
		h.SetCurrentKernel(id)
		h.Table.SetSection(id, h.kernelText[id])
		return true
	case "driver_version":
		v, err := evalInt(h.Table, line)
		if err != nil {
			diags.Errorf(pos, "driver_version: %v", err)
			return true
		}
		h.driverVersion = int(v)
		return true
	}
	return false
}

// HandleLabel is a no-op: AMD Catalyst carries no kcode association.
func (h *Handler) HandleLabel(string, symtab.SymbolID) {}

// ResolveSymbol defers to the ordinary symbol table; Catalyst has no
// sections it treats as specially unresolvable.
func (h *Handler) ResolveSymbol(string) (int64, bool) { return 0, false }

// ResolveRelocation recognizes no format-specific relocation modifiers.
func (h *Handler) ResolveRelocation(string) (int, bool) { return 0, false }

// PrepareBinary flattens the table into a binfmt.Model.
func (h *Handler) PrepareBinary(arch gpuid.Architecture, is64Bit bool) (*binfmt.Model, error) {
	m := &binfmt.Model{Is64Bit: is64Bit, AMD: &binfmt.AMDMeta{DriverVersion: h.driverVersion}}
	for _, k := range h.Table.Kernels() {
		m.Kernels = append(m.Kernels, binfmt.Kernel{Name: k.Name})
	}
	for i := range h.Table.Sections() {
		sec := &h.Table.Sections()[i]
		m.Sections = append(m.Sections, binfmt.Section{Name: sec.Name, Data: sec.Data})
	}
	return m, nil
}

// WriteBinary invokes the AMD Catalyst binfmt.Codec.
func (h *Handler) WriteBinary(m *binfmt.Model) ([]byte, error) {
	return amdcatalyst.Codec{}.Emit(m)
}

func evalInt(table *symtab.Table, text string) (int64, error) {
	e, err := expr.Parse(strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	res, err := expr.Eval(e, table)
	if err != nil {
		return 0, err
	}
	return res.Value.Num, nil
}
