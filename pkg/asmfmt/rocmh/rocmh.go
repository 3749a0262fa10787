/*
 * ROCm format handler
 *
 * A Kcode-style handler (spec.md §4.6) that additionally tracks globals
 * referenced but never defined in the assembled source: any such symbol is
 * collected into a GOT entry list rather than rejected outright, since ROCm
 * binaries resolve cross-kernel/global references indirectly through the
 * GOT section at load time.
 *
 * `.config key=value` pairs set feature-flag bits in the current kernel's
 * descriptor (spec.md §8 scenario 6); the bit positions used here are this
 * handler's own placeholder layout for a 256-byte descriptor, not the
 * verified `amd_kernel_code_t` bit-exact offsets (see DESIGN.md).
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

package rocmh

import (
	"strconv"
	"strings"

	"github.com/clrx/gcnasm/pkg/asmfmt"
	"github.com/clrx/gcnasm/pkg/asmfmt/kcode"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/rocm"
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/expr"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/symtab"
)

const descriptorSize = 256
const descPropertiesOffset = 0 // uint16 LE feature-flag bitmask, this handler's own layout

// Feature-flag bit positions, named after the directive that sets them.
const (
	featureUseKernargSegmentPtr = 1 << iota
	featureUsePtrEnqueue
	featureUseDynamicCallStack
	featureUseFlatScratchInit
)

var configFlagBits = map[string]uint16{
	"use_kernarg_segment_ptr": featureUseKernargSegmentPtr,
	"use_ptr_enqueue":         featureUsePtrEnqueue,
	"use_dynamic_call_stack":  featureUseDynamicCallStack,
	"use_flat_scratch_init":   featureUseFlatScratchInit,
}

// Handler implements asmfmt.Handler for the ROCm code object container.
type Handler struct {
	asmfmt.Base

	kcode      *kcode.Tracker
	kernelText map[symtab.KernelID]symtab.SectionID
	running    map[symtab.KernelID]*kcode.Running
	descFlags  map[symtab.KernelID]uint16

	codeObjectVersion int
	useMsgpack        bool

	gotNames []string
	gotSeen  map[string]bool
}

// New returns a Handler with the global GOT section pre-created.
func New(table *symtab.Table) *Handler {
	h := &Handler{
		Base:       asmfmt.NewBase(table),
		kcode:      kcode.New(table),
		kernelText: map[symtab.KernelID]symtab.SectionID{},
		running:    map[symtab.KernelID]*kcode.Running{},
		descFlags:  map[symtab.KernelID]uint16{},
		gotSeen:    map[string]bool{},
	}
	h.Base.AddSection(".got", symtab.KernelGlobal, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, -1)
	return h
}

// AddKernel creates the kernel plus its default .text section.
func (h *Handler) AddKernel(name string) (symtab.KernelID, error) {
	id, err := h.Base.AddKernel(name)
	if err != nil {
		return 0, err
	}
	textID, err := h.Base.AddSection(".text#"+name, id, symtab.SecCode, symtab.SecAddressable|symtab.SecELFAlloc|symtab.SecELFExec, int32(id))
	if err != nil {
		return 0, err
	}
	h.kernelText[id] = textID
	h.running[id] = &kcode.Running{}
	return id, nil
}

// AddSection delegates to Base with ROCm-appropriate defaults.
func (h *Handler) AddSection(name string, kernel symtab.KernelID) (symtab.SectionID, error) {
	return h.Base.AddSection(name, kernel, symtab.SecData, symtab.SecWritable|symtab.SecELFAlloc|symtab.SecELFWrite, int32(kernel))
}

// ParsePseudoOp recognizes `.kernel`, `.config key=value[,...]`,
// `.codeobjectversion`, `.kcode`/`.kcodeend`, `.sgprs`, `.vgprs`.
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
	case "config":
		if h.CurrentKernel < 0 {
			diags.Errorf(pos, ".config outside .kernel")
			return true
		}
		for _, kv := range strings.Split(line, ",") {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			eq := strings.IndexByte(kv, '=')
			if eq < 0 {
				diags.Errorf(pos, ".config: malformed entry %q", kv)
				continue
			}
			key := strings.TrimSpace(kv[:eq])
			bit, ok := configFlagBits[key]
			if !ok {
				diags.Errorf(pos, ".config: unknown key %q", key)
				continue
			}
			val, err := evalInt(h.Table, kv[eq+1:])
			if err != nil {
				diags.Errorf(pos, ".config %s: %v", key, err)
				continue
			}
			if val != 0 {
				h.descFlags[h.CurrentKernel] |= bit
			} else {
				h.descFlags[h.CurrentKernel] &^= bit
			}
		}
		return true
	case "codeobjectversion":
		v, err := evalInt(h.Table, line)
		if err != nil {
			diags.Errorf(pos, "%v", err)
			return true
		}
		h.codeObjectVersion = int(v)
		h.useMsgpack = h.codeObjectVersion >= rocm.NewFormatMinCodeObjectVersion
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

// HandleLabel mirrors running register counts into the active kcode span.
func (h *Handler) HandleLabel(name string, sym symtab.SymbolID) {
	r := h.running[h.CurrentKernel]
	if r == nil {
		return
	}
	_ = h.kcode.OnLabel(*r)
}

// ResolveSymbol treats any name not yet defined in the table as a global
// that must round-trip through the GOT: it is recorded (once) and resolved
// to value 0, deferring the real address to load time.
func (h *Handler) ResolveSymbol(name string) (int64, bool) {
	if id, ok := h.Table.SymbolByName(name); ok {
		if sym, err := h.Table.Symbol(id); err == nil && sym.Flags&symtab.SymDefined != 0 {
			return 0, false
		}
	}
	if !h.gotSeen[name] {
		h.gotSeen[name] = true
		h.gotNames = append(h.gotNames, name)
	}
	return 0, true
}

// ResolveRelocation recognizes no format-specific relocation modifiers.
func (h *Handler) ResolveRelocation(string) (int, bool) { return 0, false }

// PrepareBinary flattens the table into a binfmt.Model, encoding each
// kernel's feature flags into its 256-byte descriptor.
func (h *Handler) PrepareBinary(arch gpuid.Architecture, is64Bit bool) (*binfmt.Model, error) {
	meta := &binfmt.ROCmMeta{
		CodeObjectVersion: h.codeObjectVersion,
		UseMsgpack:        h.useMsgpack,
		KernelDescriptors: map[string][]byte{},
	}
	m := &binfmt.Model{Is64Bit: true, ROCm: meta}
	for i, k := range h.Table.Kernels() {
		kid := symtab.KernelID(i)
		sec, _ := h.Table.Section(h.kernelText[kid])
		m.Kernels = append(m.Kernels, binfmt.Kernel{Name: k.Name, CodeSize: uint64(len(sec.Data))})
		m.Sections = append(m.Sections, binfmt.Section{Name: ".text#" + k.Name, Data: sec.Data})
		meta.KernelDescriptors[k.Name] = buildDescriptor(h.descFlags[kid])
	}
	if got, ok := h.Table.SectionByName(".got"); ok {
		sec, _ := h.Table.Section(got)
		data := sec.Data
		for range h.gotNames {
			data = append(data, make([]byte, 8)...)
		}
		m.Sections = append(m.Sections, binfmt.Section{Name: ".got", Data: data})
	}
	return m, nil
}

// WriteBinary invokes the ROCm binfmt.Codec.
func (h *Handler) WriteBinary(m *binfmt.Model) ([]byte, error) {
	return rocm.Codec{}.Emit(m)
}

func buildDescriptor(flags uint16) []byte {
	d := make([]byte, descriptorSize)
	w := bytele.NewWriter()
	w.U16(flags)
	copy(d[descPropertiesOffset:], w.Bytes())
	return d
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
