/*
 * Format-specific metadata
 *
 * Each container format carries details no other format shares: AMD
 * Catalyst's CAL notes, AMDCL2's relocation-symbol convention, Gallium's
 * PROGINFO table, ROCm's kernel descriptors and code object metadata.
 * These live behind one pointer field per format on Model so a generic
 * consumer (the disassembler header printer, for instance) can range
 * over Kernels/Sections/Symbols without caring which format produced
 * them, while a format-aware consumer reaches into the matching field.
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

package binfmt

// CALNote is one typed TLV record from an AMD Catalyst .note section.
// It is defined here, not in pkg/binfmt/amdcatalyst, so that Model can
// reference it without amdcatalyst importing binfmt back.
type CALNote struct {
	Type uint32
	Data []byte
}

// AMDMeta holds AMD Catalyst-specific state (spec.md §6, amdcatalyst
// format): the decoded CAL notes, read or written verbatim as TLV
// records, and the driver version that gates a handful of minor layout
// differences in the kernel header.
type AMDMeta struct {
	CALNotes      []CALNote
	DriverVersion int
}

// AMDRelocSymbol is the fixed relocation-symbol index convention AMDCL2
// uses in place of a real symbol table entry for its three built-in
// data sections.
type AMDRelocSymbol int32

const (
	RelocSymGlobalData AMDRelocSymbol = 0
	RelocSymRWData     AMDRelocSymbol = 1
	RelocSymBSS        AMDRelocSymbol = 2
)

// AMDCL2Meta holds AMDCL2-specific state: the raw kernel setup blobs the
// format stores ahead of each kernel's code (128 bytes per kernel, or
// 256 when UseHSAConfig is set), and the inner ELF payload the outer ELF
// wraps.
type AMDCL2Meta struct {
	SetupBlobs   map[string][]byte
	UseHSAConfig bool
}

// KernelSetupSize returns the fixed per-kernel setup blob size for the
// HSA-config mode m selects.
func (m *AMDCL2Meta) KernelSetupSize() int {
	if m != nil && m.UseHSAConfig {
		return 256
	}
	return 128
}

// ProgInfoEntry is one (address, value) pair from a Gallium PROGINFO
// table. Older LLVM toolchains emit 3 entries per kernel, newer ones 5.
type ProgInfoEntry struct {
	Address uint32
	Value   uint32
}

// GalliumMeta holds Gallium compute-shader-specific state: each
// kernel's PROGINFO table and the Mesa section-type convention in
// effect (Mesa >=17.0 renumbers a handful of section sh_type values).
type GalliumMeta struct {
	ProgInfo            map[string][]ProgInfoEntry
	MesaLayout17OrNewer bool
}

// ROCmMeta holds ROCm code-object-specific state: each kernel's 256-byte
// descriptor blob, the code object version (gates YAML vs MessagePack
// metadata, new in version 4), and the raw metadata document.
type ROCmMeta struct {
	CodeObjectVersion int
	KernelDescriptors map[string][]byte
	MetadataDoc       []byte
	UseMsgpack        bool
}
