/*
 * Disassembler driver
 *
 * Given a parsed binfmt.Model and an ISA codec, Disassembler writes the
 * assembler-syntax text spec.md §4.7 describes: file/global headers,
 * then per kernel a sorted label walk of the code region with
 * relocations substituted for symbolic operands, gated by the same
 * flag set the CLI surface exposes (dump-code, metadata, data,
 * CAL-notes, floats, hexcode, setup, config, HSA-config, HSA-layout,
 * code-pos, buggy-FP-literals).
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

package disasm

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/clrx/gcnasm/internal/gcnlog"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/sourcepos"
)

// Flags selects the optional output sections spec.md §4.7/§6 names.
type Flags struct {
	DumpCode        bool
	Metadata        bool
	Data            bool
	CALNotes        bool
	Floats          bool
	Hexcode         bool
	Setup           bool
	Config          bool
	HSAConfig       bool
	HSALayout       bool
	CodePos         bool
	BuggyFPLiterals bool
}

// All returns a Flags with every optional section enabled, realizing the
// CLI's `-a`/`--all` switch.
func All() Flags {
	return Flags{true, true, true, true, true, true, true, true, true, true, true, true}
}

// Options configures a Disassembler.
type Options struct {
	Arch    gpuid.Architecture
	Is64Bit bool
	Flags   Flags
}

// Disassembler walks a parsed Model and writes assembler-syntax text.
type Disassembler struct {
	model *binfmt.Model
	codec isa.Codec
	opts  Options
}

// New returns a Disassembler over model, decoding instructions with codec.
func New(model *binfmt.Model, codec isa.Codec, opts Options) *Disassembler {
	return &Disassembler{model: model, codec: codec, opts: opts}
}

// Run writes the full disassembly to w.
func (d *Disassembler) Run(w io.Writer) error {
	gcnlog.L().Debug("disasm: starting run",
		zap.String("format", d.formatName()),
		zap.String("arch", gpuid.ArchName(d.opts.Arch)),
		zap.Int("kernels", len(d.model.Kernels)))
	bw := &bufErrWriter{w: w}
	d.writeHeader(bw)
	for _, k := range d.model.Kernels {
		bw.Printf(".kernel %s\n", k.Name)
		d.writeKernelConfig(bw, k)
		if d.opts.Flags.DumpCode || !anyFlagSet(d.opts.Flags) {
			d.writeCode(bw, k)
		}
	}
	if d.opts.Flags.Data {
		d.writeDataSections(bw)
	}
	if bw.err != nil {
		gcnlog.L().Debug("disasm: run failed", zap.Error(bw.err))
	}
	return bw.err
}

func anyFlagSet(f Flags) bool {
	return f.DumpCode || f.Metadata || f.Data || f.CALNotes || f.Floats ||
		f.Hexcode || f.Setup || f.Config || f.HSAConfig || f.HSALayout ||
		f.CodePos || f.BuggyFPLiterals
}

// writeHeader emits the file/global header line spec.md §4.7 step 1 calls
// for: the format name (inferred from whichever *Meta field is set),
// architecture and bitness.
func (d *Disassembler) writeHeader(w *bufErrWriter) {
	w.Printf("; format=%s arch=%s bits=%d\n", d.formatName(), gpuid.ArchName(d.opts.Arch), d.bits())
	if d.opts.Flags.Metadata {
		switch {
		case d.model.AMD != nil:
			w.Printf(".driver_version %d\n", d.model.AMD.DriverVersion)
		case d.model.ROCm != nil:
			w.Printf(".codeobjectversion %d\n", d.model.ROCm.CodeObjectVersion)
		}
	}
	if d.opts.Flags.CALNotes && d.model.AMD != nil {
		for _, note := range d.model.AMD.CALNotes {
			w.Printf("; calnote type=%d size=%d\n", note.Type, len(note.Data))
		}
	}
}

func (d *Disassembler) formatName() string {
	switch {
	case d.model.AMD != nil:
		return "amd"
	case d.model.AMDCL2 != nil:
		return "amdcl2"
	case d.model.Gallium != nil:
		return "gallium"
	case d.model.ROCm != nil:
		return "rocm"
	default:
		return "raw"
	}
}

func (d *Disassembler) bits() int {
	if d.model.Is64Bit {
		return 64
	}
	return 32
}

// writeKernelConfig prints kernel configuration as directives that
// round-trip exactly (spec.md §4.7 step 4): re-assembling the printed
// directives reproduces the same kernel-config byte image.
func (d *Disassembler) writeKernelConfig(w *bufErrWriter, k binfmt.Kernel) {
	if !d.opts.Flags.Config {
		return
	}
	switch {
	case d.model.Gallium != nil:
		entries := d.model.Gallium.ProgInfo[k.Name]
		for _, e := range entries {
			w.Printf(".proginfo 0x%x, 0x%x\n", e.Address, e.Value)
		}
	case d.model.ROCm != nil:
		desc := d.model.ROCm.KernelDescriptors[k.Name]
		if len(desc) >= 2 {
			flags := uint16(desc[0]) | uint16(desc[1])<<8
			var set []string
			for name, bit := range rocmConfigBits {
				if flags&bit != 0 {
					set = append(set, name+"=1")
				}
			}
			sort.Strings(set)
			if len(set) > 0 {
				w.Printf(".config %s\n", strings.Join(set, ","))
			}
		}
	}
}

// rocmConfigBits mirrors pkg/asmfmt/rocmh's own placeholder descriptor
// bit layout (descPropertiesOffset, a little-endian uint16 feature-flag
// mask) so a disassembled `.config` line re-assembles to the same bits;
// see DESIGN.md for the caveat that this layout is not verified against
// amd_kernel_code_t.
var rocmConfigBits = map[string]uint16{
	"use_kernarg_segment_ptr": 1 << 0,
	"use_ptr_enqueue":         1 << 1,
	"use_dynamic_call_stack":  1 << 2,
	"use_flat_scratch_init":   1 << 3,
}

// kernelCode locates k's instruction bytes: the per-kernel ".text#name"
// section convention every format handler's PrepareBinary uses, falling
// back to slicing a flat ".text" section by CodeOffset/CodeSize for
// formats whose Parse stores code that way. Returns nil if neither is
// available (a known gap in amdcl2/rocm's current Parse, which preserves
// kernel identity and descriptors but not the raw instruction bytes into
// Model.Sections — see DESIGN.md).
func (d *Disassembler) kernelCode(k binfmt.Kernel) []byte {
	if sec, ok := d.model.SectionByName(".text#" + k.Name); ok {
		return sec.Data
	}
	if sec, ok := d.model.SectionByName(".text"); ok {
		end := k.CodeOffset + k.CodeSize
		if k.CodeSize > 0 && end <= uint64(len(sec.Data)) {
			return sec.Data[k.CodeOffset:end]
		}
		if k.CodeOffset == 0 && k.CodeSize == 0 {
			return sec.Data
		}
	}
	return nil
}

// writeCode walks k's instruction stream (spec.md §4.7 step 2), flushing
// sorted labels at matching offsets and substituting relocated operands
// (step 3).
func (d *Disassembler) writeCode(w *bufErrWriter, k binfmt.Kernel) {
	code := d.kernelCode(k)
	if code == nil {
		gcnlog.L().Debug("disasm: no code region for kernel", zap.String("kernel", k.Name))
		w.Printf("; <no code available for %s>\n", k.Name)
		return
	}

	labels := d.labelsFor(k)
	relocs := d.relocsFor(k)
	positions := d.positionsFor(k)
	gcnlog.L().Debug("disasm: disassembling region",
		zap.String("kernel", k.Name),
		zap.Int("bytes", len(code)),
		zap.Int("labels", len(labels)),
		zap.Int("relocs", len(relocs)))

	var pc uint64
	li := 0
	for pc < uint64(len(code)) {
		for li < len(labels) && labels[li].Value <= pc {
			w.Printf("%s:\n", labels[li].Name)
			li++
		}
		if d.opts.Flags.CodePos {
			if pos, ok := positions.Lookup(pc); ok {
				w.Printf("; %s:%d:%d\n", originName(pos.Origin), pos.Line, pos.Column)
			}
		}
		dec, err := d.codec.Decode(d.opts.Arch, code[pc:], pc)
		if err != nil {
			w.Printf("; decode error at +0x%x: %v\n", pc, err)
			return
		}
		line := formatInstruction(dec, pc, relocs)
		if d.opts.Flags.Hexcode {
			w.Printf("%-32s ; %s\n", line, hexBytes(code[pc:pc+uint64(dec.Length)]))
		} else {
			w.Printf("%s\n", line)
		}
		pc += uint64(dec.Length)
	}
	for ; li < len(labels); li++ {
		w.Printf("%s:\n", labels[li].Name)
	}
}

func originName(id sourcepos.OriginID) string {
	return fmt.Sprintf("origin#%d", id)
}

// labelsFor returns the Model-level symbols falling inside k's code
// region, sorted by offset (spec.md §4.7 step 2: "sort labels by
// offset"). Model.Symbols is format-neutral and, today, populated only
// by callers that build a Model directly (no concrete PrepareBinary
// flattens symtab labels into it yet); see DESIGN.md.
func (d *Disassembler) labelsFor(k binfmt.Kernel) []binfmt.Symbol {
	var out []binfmt.Symbol
	for _, s := range d.model.Symbols {
		if s.Value < k.CodeSize {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

func (d *Disassembler) relocsFor(k binfmt.Kernel) []relocAt {
	var out []relocAt
	for _, r := range d.model.Relocs {
		name := d.symbolName(r.Symbol)
		if name == "" {
			continue
		}
		out = append(out, relocAt{Offset: r.Offset, Name: name})
	}
	return out
}

type relocAt struct {
	Offset uint64
	Name   string
}

// symbolName resolves a relocation's Symbol id against Model.Symbols by
// index, the convention this package assumes until a concrete
// PrepareBinary wires real name preservation through (see DESIGN.md).
func (d *Disassembler) symbolName(id int32) string {
	if id < 0 || int(id) >= len(d.model.Symbols) {
		return ""
	}
	return d.model.Symbols[id].Name
}

func (d *Disassembler) positionsFor(binfmt.Kernel) *sourcepos.Index {
	return sourcepos.NewIndex()
}

func formatInstruction(dec isa.Decoded, pc uint64, relocs []relocAt) string {
	parts := make([]string, 0, len(dec.Operands))
	for i, op := range dec.Operands {
		if name := relocAtOffset(relocs, pc, i); name != "" {
			parts = append(parts, name)
			continue
		}
		parts = append(parts, formatOperand(op))
	}
	if len(parts) == 0 {
		return dec.Mnemonic
	}
	return dec.Mnemonic + " " + strings.Join(parts, ", ")
}

// relocAtOffset is a best-effort match: without the ISA codec reporting
// per-operand FieldRefs on Decode (only Encode does), disassembly cannot
// know precisely which operand index a relocation recorded at pc
// targets, so this matches purely by instruction start offset and
// assumes a single relocatable operand per instruction.
func relocAtOffset(relocs []relocAt, pc uint64, opIdx int) string {
	if opIdx != 0 {
		return ""
	}
	for _, r := range relocs {
		if r.Offset == pc {
			return r.Name
		}
	}
	return ""
}

func formatOperand(op isa.Operand) string {
	switch op.Kind {
	case isa.OperandSGPR:
		return fmt.Sprintf("s%d", op.Reg)
	default:
		return fmt.Sprintf("%d", op.Value)
	}
}

func hexBytes(b []byte) string {
	var sb strings.Builder
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", c)
	}
	return sb.String()
}

// writeDataSections dumps every non-code section's bytes as a `.byte`
// directive stream when the data flag is set.
func (d *Disassembler) writeDataSections(w *bufErrWriter) {
	for _, sec := range d.model.Sections {
		if strings.HasPrefix(sec.Name, ".text") || sec.Name == ".got" {
			continue
		}
		if len(sec.Data) == 0 {
			continue
		}
		w.Printf(".section %s\n", sec.Name)
		for i := 0; i < len(sec.Data); i += 16 {
			end := i + 16
			if end > len(sec.Data) {
				end = len(sec.Data)
			}
			w.Printf(".byte %s\n", byteList(sec.Data[i:end]))
		}
	}
}

func byteList(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("0x%02x", c)
	}
	return strings.Join(parts, ", ")
}

// bufErrWriter wraps an io.Writer, recording the first write error and
// discarding subsequent writes so callers needn't check every Printf.
type bufErrWriter struct {
	w   io.Writer
	err error
}

func (b *bufErrWriter) Printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}
