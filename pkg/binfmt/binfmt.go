/*
 * Shared binary-format model and codec contract
 *
 * Model is the in-memory shape every container format's reader produces
 * and every writer consumes: spec.md §3's Section/Kernel/Symbol/
 * Relocation records, plus one format-specific metadata field populated
 * only by the codec that understands it.
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

import (
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/reloc"
)

// ParseFlags selects optional, potentially expensive parse-time work
// (name→index maps, and so on), mirroring objelf.ParseFlags.
type ParseFlags uint32

const (
	ParseMetadata ParseFlags = 1 << iota
	ParseCALNotes
)

// Kernel is a format-neutral view of one kernel's identity and code
// location; format-specific kernel metadata (setup blobs, PROGINFO
// entries, kernel descriptors) lives in the per-format metadata structs
// below, keyed by the same Name.
type Kernel struct {
	Name        string
	CodeOffset  uint64
	CodeSize    uint64
	SGPRCount   int
	VGPRCount   int
	ArgNames    []string
	UsesFlatPtr bool
}

// Section is a format-neutral named byte blob.
type Section struct {
	Name string
	Data []byte
}

// Symbol is a format-neutral named value, used for global-data and
// kcode-visible symbols that aren't full Kernels.
type Symbol struct {
	Name  string
	Value uint64
	Size  uint64
}

// Model is what every Codec.Parse produces and every Codec.Emit
// consumes.
type Model struct {
	Arch     gpuid.Architecture
	Is64Bit  bool
	Kernels  []Kernel
	Sections []Section
	Symbols  []Symbol
	Relocs   []reloc.Reloc

	AMD     *AMDMeta
	AMDCL2  *AMDCL2Meta
	Gallium *GalliumMeta
	ROCm    *ROCmMeta
}

// Codec is the shared contract every container-format sub-package
// implements (spec.md §4.2).
type Codec interface {
	Parse(data []byte, flags ParseFlags) (*Model, error)
	Emit(m *Model) ([]byte, error)
}

// SectionByName returns the first section named name, if any.
func (m *Model) SectionByName(name string) (*Section, bool) {
	for i := range m.Sections {
		if m.Sections[i].Name == name {
			return &m.Sections[i], true
		}
	}
	return nil, false
}

// KernelByName returns the kernel named name, if any.
func (m *Model) KernelByName(name string) (*Kernel, bool) {
	for i := range m.Kernels {
		if m.Kernels[i].Name == name {
			return &m.Kernels[i], true
		}
	}
	return nil, false
}
