/*
 * Assembler statement loop tests
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

package asm

import (
	"os"
	"strings"
	"testing"

	"github.com/clrx/gcnasm/pkg/asmfmt/amdh"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/symtab"
)

func newTestAsm(t *testing.T, src string) (*Assembler, *amdh.Handler) {
	t.Helper()
	table := symtab.New()
	h := amdh.New(table)
	a := New(table, h, isa.GCN{}, strings.NewReader(src), "test.s", Options{Arch: gpuid.GCN1_0})
	return a, h
}

func TestSetDefinesAbsoluteSymbol(t *testing.T) {
	a, _ := newTestAsm(t, ".set foo, 1+2*3\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	id, ok := a.table.SymbolByName("foo")
	if !ok {
		t.Fatal("foo not defined")
	}
	sym, err := a.table.Symbol(id)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym.Value != 7 {
		t.Fatalf("foo = %d, want 7", sym.Value)
	}
}

func TestDataDirectivesEmitBytesIntoCurrentSection(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.byte 1, 2\n.short 0x0304\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, ok := h.Table.SectionByName(".text")
	if !ok {
		t.Fatal("no .text section")
	}
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	want := []byte{1, 2, 0x04, 0x03}
	if string(sec.Data) != string(want) {
		t.Fatalf("section data = %v, want %v", sec.Data, want)
	}
}

func TestLabelPinsCurrentSectionOffset(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.byte 0, 0, 0\nhere:\n.byte 9\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	id, ok := h.Table.SymbolByName("here")
	if !ok {
		t.Fatal("here not defined")
	}
	sym, err := h.Table.Symbol(id)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym.Value != 3 {
		t.Fatalf("here = %d, want 3", sym.Value)
	}
}

func TestInstructionEncodesKnownMnemonic(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\ns_add_u32 s0, s1, s2\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(sec.Data) == 0 {
		t.Fatal("expected encoded bytes in .text")
	}
}

func TestUnresolvedBareOperandDefersRelocationRatherThanErroring(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\ns_add_u32 s0, s1, undefined_sym\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(sec.Relocs) == 0 {
		t.Fatal("expected a deferred relocation for undefined_sym")
	}
}

func TestFinishRefusesToWriteWhenErrorsRecorded(t *testing.T) {
	a, _ := newTestAsm(t, ".unknown_directive_xyz\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() == 0 {
		t.Fatal("expected an error for the unknown directive")
	}
	if _, err := a.Finish(); err == nil {
		t.Fatal("expected Finish to refuse to write a binary")
	}
}

func TestMacroExpansionSubstitutesArguments(t *testing.T) {
	src := ".macro addtwo dst, src\n" +
		"s_add_u32 \\dst, \\src, \\src\n" +
		".endm\n" +
		".kernel main\n" +
		"addtwo s0, s1\n"
	a, h := newTestAsm(t, src)
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(sec.Data) == 0 {
		t.Fatal("expected the macro body to emit an encoded instruction")
	}
}

func TestReptReplaysBodyCountTimes(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.rept 3\n.byte 7\n.endr\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	want := []byte{7, 7, 7}
	if string(sec.Data) != string(want) {
		t.Fatalf("section data = %v, want %v", sec.Data, want)
	}
}

func TestIRPIteratesOverValueList(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.irp v, 1, 2, 3\n.byte \\v\n.endr\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	want := []byte{1, 2, 3}
	if string(sec.Data) != string(want) {
		t.Fatalf("section data = %v, want %v", sec.Data, want)
	}
}

func TestForLoopReplaysWhileConditionHolds(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.for i = 0; i < 3; i + 1\n.byte i\n.endr\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	want := []byte{0, 1, 2}
	if string(sec.Data) != string(want) {
		t.Fatalf("section data = %v, want %v", sec.Data, want)
	}
}

func TestGlobalDirectiveSetsSymbolFlag(t *testing.T) {
	a, h := newTestAsm(t, ".set foo, 42\n.global foo\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	id, _ := h.Table.SymbolByName("foo")
	sym, err := h.Table.Symbol(id)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym.Flags&symtab.SymGlobal == 0 {
		t.Fatal("expected SymGlobal to be set")
	}
}

func TestAlignPadsToBoundary(t *testing.T) {
	a, h := newTestAsm(t, ".kernel main\n.byte 1\n.align 4\n")
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	secID, _ := h.Table.SectionByName(".text")
	sec, err := h.Table.Section(secID)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(sec.Data) != 4 {
		t.Fatalf("len(sec.Data) = %d, want 4", len(sec.Data))
	}
}

func TestDefinesOptionPredefinesSymbols(t *testing.T) {
	table := symtab.New()
	h := amdh.New(table)
	a := New(table, h, isa.GCN{}, strings.NewReader(".set bar, FOO\n"), "test.s", Options{
		Arch:    gpuid.GCN1_0,
		Defines: map[string]string{"FOO": "5"},
	})
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	id, ok := table.SymbolByName("bar")
	if !ok {
		t.Fatal("bar not defined")
	}
	sym, err := table.Symbol(id)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym.Value != 5 {
		t.Fatalf("bar = %d, want 5", sym.Value)
	}
}

func TestIncludeSearchesIncludePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(dir+"/defs.inc", []byte(".set included_val, 9\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	table := symtab.New()
	h := amdh.New(table)
	a := New(table, h, isa.GCN{}, strings.NewReader(".include \"defs.inc\"\n"), "test.s", Options{
		Arch:         gpuid.GCN1_0,
		IncludePaths: []string{dir},
	})
	if err := a.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if a.Diagnostics().ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", a.Diagnostics().Err())
	}
	id, ok := table.SymbolByName("included_val")
	if !ok {
		t.Fatal("included_val not defined")
	}
	sym, err := table.Symbol(id)
	if err != nil {
		t.Fatalf("Symbol: %v", err)
	}
	if sym.Value != 9 {
		t.Fatalf("included_val = %d, want 9", sym.Value)
	}
}
