/*
 * Gallium/Mesa format handler
 *
 * A Kcode-style handler with an additional per-kernel parse state machine
 * (spec.md §4.6): `inside` tracks whether the handler is between `.config`/
 * `.endconfig`, `.args`/`.endargs` or accumulating `.progInfo` entries, so
 * pseudo-ops valid only in one of those blocks can be rejected outside it.
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

package galliumh

import (
	"strconv"
	"strings"

	"github.com/clrx/gcnasm/pkg/asmfmt"
	"github.com/clrx/gcnasm/pkg/asmfmt/kcode"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/gallium"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/expr"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// insideState is the parse state driving which pseudo-ops are valid.
type insideState int

const (
	insideMainLayout insideState = iota
	insideConfig
	insideArgs
	insideProgInfo
)

// Handler implements asmfmt.Handler for the Gallium/Mesa container.
type Handler struct {
	asmfmt.Base

	kcode      *kcode.Tracker
	kernelText map[symtab.KernelID]symtab.SectionID
	running    map[symtab.KernelID]*kcode.Running

	inside       insideState
	progInfo     map[symtab.KernelID][]binfmt.ProgInfoEntry
	mesaLayout17 bool
}

// New returns a Handler.
func New(table *symtab.Table) *Handler {
	return &Handler{
		Base:       asmfmt.NewBase(table),
		kcode:      kcode.New(table),
		kernelText: map[symtab.KernelID]symtab.SectionID{},
		running:    map[symtab.KernelID]*kcode.Running{},
		progInfo:   map[symtab.KernelID][]binfmt.ProgInfoEntry{},
	}
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
	h.running[id] = &kcode.Running{}
	return id, nil
}

// AddSection delegates to Base with Gallium-appropriate defaults.
func (h *Handler) AddSection(name string, kernel symtab.KernelID) (symtab.SectionID, error) {
	return h.Base.AddSection(name, kernel, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, int32(kernel))
}

// ParsePseudoOp recognizes `.kernel`, `.config`/`.endconfig`,
// `.args`/`.endargs`, `.progInfo addr, value`, `.kcode`/`.kcodeend`,
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
		h.inside = insideMainLayout
		return true
	case "config":
		h.inside = insideConfig
		return true
	case "endconfig":
		h.inside = insideMainLayout
		return true
	case "args":
		h.inside = insideArgs
		return true
	case "endargs":
		h.inside = insideMainLayout
		return true
	case "proginfo":
		h.inside = insideProgInfo
		return true
	case "endproginfo":
		h.inside = insideMainLayout
		return true
	case "entry":
		if h.inside != insideProgInfo {
			diags.Errorf(pos, ".entry valid only inside .proginfo")
			return true
		}
		if h.CurrentKernel < 0 {
			diags.Errorf(pos, ".entry outside .kernel")
			return true
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			diags.Errorf(pos, ".entry requires address, value")
			return true
		}
		addr, err := evalInt(h.Table, parts[0])
		if err != nil {
			diags.Errorf(pos, ".entry address: %v", err)
			return true
		}
		val, err := evalInt(h.Table, parts[1])
		if err != nil {
			diags.Errorf(pos, ".entry value: %v", err)
			return true
		}
		h.progInfo[h.CurrentKernel] = append(h.progInfo[h.CurrentKernel],
			binfmt.ProgInfoEntry{Address: uint32(addr), Value: uint32(val)})
		if len(h.progInfo[h.CurrentKernel]) > 3 {
			h.mesaLayout17 = true
		}
		return true
	case "arg":
		if h.inside != insideArgs {
			diags.Errorf(pos, ".arg valid only inside .args")
		}
		return true
	case "kcode":
		h.kcode.Push(h.resolveKernelList(line, pos, diags))
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

func (h *Handler) resolveKernelList(line string, pos diag.Pos, diags *diag.Bag) []symtab.KernelID {
	var out []symtab.KernelID
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for i, k := range h.Table.Kernels() {
			if k.Name == part {
				out = append(out, symtab.KernelID(i))
				found = true
				break
			}
		}
		if !found {
			diags.Errorf(pos, "kcode: unknown kernel %q", part)
		}
	}
	return out
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

// ResolveSymbol defers to the ordinary symbol table.
func (h *Handler) ResolveSymbol(string) (int64, bool) { return 0, false }

// ResolveRelocation recognizes no format-specific relocation modifiers.
func (h *Handler) ResolveRelocation(string) (int, bool) { return 0, false }

// PrepareBinary flattens the table into a binfmt.Model.
func (h *Handler) PrepareBinary(arch gpuid.Architecture, is64Bit bool) (*binfmt.Model, error) {
	meta := &binfmt.GalliumMeta{ProgInfo: map[string][]binfmt.ProgInfoEntry{}, MesaLayout17OrNewer: h.mesaLayout17}
	m := &binfmt.Model{Is64Bit: is64Bit, Gallium: meta}
	var text []byte
	for i, k := range h.Table.Kernels() {
		kid := symtab.KernelID(i)
		sec, _ := h.Table.Section(h.kernelText[kid])
		offset := uint64(len(text))
		text = append(text, sec.Data...)
		m.Kernels = append(m.Kernels, binfmt.Kernel{Name: k.Name, CodeOffset: offset, CodeSize: uint64(len(sec.Data))})
		meta.ProgInfo[k.Name] = h.progInfo[kid]
	}
	m.Sections = append(m.Sections, binfmt.Section{Name: ".text", Data: text})
	return m, nil
}

// WriteBinary invokes the Gallium binfmt.Codec.
func (h *Handler) WriteBinary(m *binfmt.Model) ([]byte, error) {
	return gallium.Codec{}.Emit(m)
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
