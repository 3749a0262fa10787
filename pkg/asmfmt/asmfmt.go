/*
 * Format handler contract
 *
 * A format handler abstracts the container-specific decisions a pseudo-op
 * line can touch: which sections a kernel starts with, how a label is
 * accounted for, how an unresolved symbol or LO/HI relocation reads back,
 * and how the in-memory symtab.Table flattens to a binfmt.Model. Each
 * concrete format (amdh, amdcl2h, galliumh, rocmh) carries its own pseudo-op
 * table and state machine behind this one interface, the way the GCN codec
 * carries one encode/decode table per instruction class behind isa.Codec.
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
	"fmt"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// SectionInfo is what getSectionInfo returns: the stable facts about a
// section a format handler created, independent of how much has been
// written to it since.
type SectionInfo struct {
	Name    string
	Type    symtab.SectionType
	Flags   symtab.SectionFlag
	RelSpace int32 // relocation-space id: distinguishes per-kernel .text regions sharing one symbol table
}

// ErrDuplicateKernel is returned by Handler.AddKernel for a name already in
// use.
var ErrDuplicateKernel = fmt.Errorf("asmfmt: duplicate kernel name")

// ErrDuplicateSection is returned by Handler.AddSection for a name already
// in use within the requested scope.
var ErrDuplicateSection = fmt.Errorf("asmfmt: duplicate section name")

// ErrUnknownSection is returned by GetSectionID when name is not visible in
// the current context.
var ErrUnknownSection = fmt.Errorf("asmfmt: unknown section in current context")

// Handler is the per-container-format pseudo-op dispatch contract
// (spec.md §4.6's table). A Handler owns no source-reading state; it is
// driven by the assembler's statement loop, which hands it one pseudo-op
// line or label at a time and otherwise owns the symtab.Table directly.
type Handler interface {
	// AddKernel creates a kernel record, allocates its default sections,
	// and returns its id. Fails on a duplicate name.
	AddKernel(name string) (symtab.KernelID, error)

	// AddSection creates a named section under kernel (symtab.KernelGlobal
	// for a global section) and returns its id. Fails on a duplicate name
	// within that scope.
	AddSection(name string, kernel symtab.KernelID) (symtab.SectionID, error)

	// GetSectionID looks up name restricted to the current context
	// (current kernel if one is selected, else global).
	GetSectionID(name string) (symtab.SectionID, error)

	// SetCurrentKernel selects kernel as current; the format decides
	// whether this also changes the current section (e.g. to the
	// kernel's default code section).
	SetCurrentKernel(kernel symtab.KernelID) error

	// SetCurrentSection selects id as the current section, implicitly
	// changing the current kernel if id belongs to a different one.
	SetCurrentSection(id symtab.SectionID) error

	// GetSectionInfo returns the stable facts about section id.
	GetSectionInfo(id symtab.SectionID) (SectionInfo, error)

	// ParsePseudoOp attempts to recognize and consume a directive named
	// name (without the leading dot) whose remaining text is line. It
	// returns consumed==true iff this handler owns the directive, whether
	// or not parsing it produced a diagnostic.
	ParsePseudoOp(name string, line string, pos diag.Pos, diags *diag.Bag) (consumed bool)

	// HandleLabel is called for every label definition, after the symbol
	// itself has been defined by the caller. Kcode-style handlers snapshot
	// or restore per-kernel register accounting here (spec.md §4.6 ¶2).
	HandleLabel(name string, sym symtab.SymbolID)

	// ResolveSymbol reports whether name is a known symbol from a section
	// this format treats as unresolvable at assembly time (so expr can
	// emit a relocation instead of failing); value/ok mirror a normal
	// lookup when the format has no opinion (ok=false => defer to symtab).
	ResolveSymbol(name string) (value int64, ok bool)

	// ResolveRelocation reports whether a field modifier name (e.g. "lo",
	// "hi") is one this format understands as a relocation kind, and
	// returns the reloc.Type it maps to.
	ResolveRelocation(modifier string) (relocType int, ok bool)

	// PrepareBinary flattens in-memory state (the symtab.Table this
	// handler was constructed over) into a binfmt.Model and runs final,
	// format-specific validation. Called only once diags.ErrorCount()==0.
	PrepareBinary(arch gpuid.Architecture, is64Bit bool) (*binfmt.Model, error)

	// WriteBinary invokes the matching binfmt.Codec's Emit on m.
	WriteBinary(m *binfmt.Model) ([]byte, error)
}
