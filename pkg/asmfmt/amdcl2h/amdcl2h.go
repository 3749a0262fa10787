/*
 * AMD OpenCL 2.0 format handler
 *
 * A Kcode-style handler (spec.md §4.6): `.kcode`/`.kcodeend` mirror label
 * register accounting into every selected kernel, and relocations against
 * global data / read-write data / BSS are recorded against the fixed
 * symbol indices {globaldata=0, rwdata=1, bss=2} the AMDCL2 container
 * convention uses instead of real symbol table entries.
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

package amdcl2h

import (
	"strconv"
	"strings"

	"github.com/clrx/gcnasm/pkg/asmfmt"
	"github.com/clrx/gcnasm/pkg/asmfmt/kcode"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/amdcl2"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/expr"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/reloc"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// Handler implements asmfmt.Handler for the AMD OpenCL 2.0 container.
type Handler struct {
	asmfmt.Base

	kcode *kcode.Tracker

	kernelText map[symtab.KernelID]symtab.SectionID
	running    map[symtab.KernelID]*kcode.Running

	useHSAConfig bool
}

// New returns a Handler with the three global AMDCL2 data sections
// pre-created so relocations against them can be recorded from the start.
func New(table *symtab.Table) *Handler {
	h := &Handler{
		Base:       asmfmt.NewBase(table),
		kcode:      kcode.New(table),
		kernelText: map[symtab.KernelID]symtab.SectionID{},
		running:    map[symtab.KernelID]*kcode.Running{},
	}
	h.Base.AddSection("globaldata", symtab.KernelGlobal, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc, -1)
	h.Base.AddSection("rwdata", symtab.KernelGlobal, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, -1)
	h.Base.AddSection("bss", symtab.KernelGlobal, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, -1)
	return h
}

// AddKernel creates the kernel plus its default .text section, shared by
// all kernels via kcode association.
func (h *Handler) AddKernel(name string) (symtab.KernelID, error) {
	id, err := h.Base.AddKernel(name)
	if err != nil {
		return 0, err
	}
	textName := ".text#" + name
	textID, err := h.Base.AddSection(textName, id, symtab.SecCode, symtab.SecAddressable|symtab.SecELFAlloc|symtab.SecELFExec, int32(id))
	if err != nil {
		return 0, err
	}
	h.kernelText[id] = textID
	h.running[id] = &kcode.Running{}
	return id, nil
}

// AddSection delegates to Base with a per-kernel relocation space.
func (h *Handler) AddSection(name string, kernel symtab.KernelID) (symtab.SectionID, error) {
	return h.Base.AddSection(name, kernel, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, int32(kernel))
}

// ParsePseudoOp recognizes `.kernel`, `.kcode`/`.kcodeend`, `.hsaconfig`,
// `.sgprs`, `.vgprs`.
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
	case "hsaconfig":
		h.useHSAConfig = true
		return true
	case "kcode":
		var kernels []symtab.KernelID
		for _, part := range strings.Split(line, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			found := false
			for _, k := range h.Table.Kernels() {
				if k.Name == part {
					found = true
					break
				}
			}
			if !found {
				diags.Errorf(pos, "kcode: unknown kernel %q", part)
				continue
			}
			for i, k := range h.Table.Kernels() {
				if k.Name == part {
					kernels = append(kernels, symtab.KernelID(i))
				}
			}
		}
		h.kcode.Push(kernels)
		return true
	case "kcodeend":
		if _, err := h.kcode.Pop(); err != nil {
			diags.Errorf(pos, "%v", err)
		}
		return true
	case "sgprs":
		h.setRunning(pos, line, diags, true)
		return true
	case "vgprs":
		h.setRunning(pos, line, diags, false)
		return true
	}
	return false
}

func (h *Handler) setRunning(pos diag.Pos, line string, diags *diag.Bag, sgpr bool) {
	if h.CurrentKernel < 0 {
		diags.Errorf(pos, "register count directive outside .kernel")
		return
	}
	n, err := evalInt(h.Table, line)
	if err != nil {
		diags.Errorf(pos, "%v", err)
		return
	}
	r := h.running[h.CurrentKernel]
	if r == nil {
		r = &kcode.Running{}
		h.running[h.CurrentKernel] = r
	}
	if sgpr {
		r.SGPRCount = int(n)
	} else {
		r.VGPRCount = int(n)
	}
}

// HandleLabel mirrors the current kernel's running register counts into
// every kernel selected by the active kcode span.
func (h *Handler) HandleLabel(name string, sym symtab.SymbolID) {
	r := h.running[h.CurrentKernel]
	if r == nil {
		return
	}
	_ = h.kcode.OnLabel(*r)
}

// ResolveSymbol recognizes the three fixed AMDCL2 data-section names as
// symbols whose address is always 0 (the relocation carries the symbol
// identity instead of an address).
func (h *Handler) ResolveSymbol(name string) (int64, bool) {
	switch name {
	case "globaldata", "rwdata", "bss":
		return 0, true
	}
	return 0, false
}

// ResolveRelocation recognizes "lo"/"hi" modifiers, mapping them to the
// RELA entry kinds AMDCL2's .rela.text/.rela.rodata carry.
func (h *Handler) ResolveRelocation(modifier string) (int, bool) {
	switch modifier {
	case "lo":
		return int(reloc.Low32Bit), true
	case "hi":
		return int(reloc.High32Bit), true
	}
	return 0, false
}

// PrepareBinary flattens the table into a binfmt.Model.
func (h *Handler) PrepareBinary(arch gpuid.Architecture, is64Bit bool) (*binfmt.Model, error) {
	meta := &binfmt.AMDCL2Meta{SetupBlobs: map[string][]byte{}, UseHSAConfig: h.useHSAConfig}
	m := &binfmt.Model{Is64Bit: is64Bit, AMDCL2: meta}
	setupSize := meta.KernelSetupSize()
	for i, k := range h.Table.Kernels() {
		kid := symtab.KernelID(i)
		textID := h.kernelText[kid]
		sec, _ := h.Table.Section(textID)
		mk := binfmt.Kernel{Name: k.Name, CodeSize: uint64(len(sec.Data))}
		m.Kernels = append(m.Kernels, mk)
		m.Sections = append(m.Sections, binfmt.Section{Name: ".text#" + k.Name, Data: sec.Data})
		meta.SetupBlobs[k.Name] = make([]byte, setupSize)
	}
	for _, sec := range h.Table.Sections() {
		switch sec.Name {
		case "globaldata", "rwdata", "bss":
			m.Sections = append(m.Sections, binfmt.Section{Name: "." + sec.Name, Data: sec.Data})
		}
	}
	return m, nil
}

// WriteBinary invokes the AMDCL2 binfmt.Codec.
func (h *Handler) WriteBinary(m *binfmt.Model) ([]byte, error) {
	return amdcl2.Codec{}.Emit(m)
}

func evalInt(table *symtab.Table, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseInt(text, 0, 64); err == nil {
		return n, nil
	}
	e, err := expr.Parse(text)
	if err != nil {
		return 0, err
	}
	res, err := expr.Eval(e, table)
	if err != nil {
		return 0, err
	}
	return res.Value.Num, nil
}
