/*
 * AMD Catalyst binary format tests
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

package amdcatalyst_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/clrx/gcnasm/pkg/asm"
	"github.com/clrx/gcnasm/pkg/asmfmt/amdh"
	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/binfmt/amdcatalyst"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// TestEmitParseRoundTripFromAssembledSource exercises Parse on bytes that
// came out of a real assembly run (not a hand-built Model), so it actually
// catches Parse dropping a kernel's code bytes.
func TestEmitParseRoundTripFromAssembledSource(t *testing.T) {
	table := symtab.New()
	handler := amdh.New(table)
	src := strings.NewReader(".kernel vecadd\n.byte 0x01, 0x02, 0x03, 0x04\n")
	a := asm.New(table, handler, isa.GCN{}, src, "test.s", asm.Options{Arch: gpuid.GCN1_0})
	if err := a.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if n := a.Diagnostics().ErrorCount(); n > 0 {
		t.Fatalf("assembly errors: %v", a.Diagnostics().Err())
	}
	out, err := a.Finish()
	if err != nil {
		t.Fatalf("Finish() error: %v", err)
	}

	got, err := amdcatalyst.Codec{}.Parse(out, 0)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got.Kernels) != 1 || got.Kernels[0].Name != "vecadd" {
		t.Fatalf("Kernels = %+v", got.Kernels)
	}
	text, ok := got.SectionByName(".text")
	if !ok || !bytes.Equal(text.Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf(".text = %+v, ok=%v, want [1 2 3 4]", text, ok)
	}

	again, err := amdcatalyst.Codec{}.Emit(got)
	if err != nil {
		t.Fatalf("re-Emit() error: %v", err)
	}
	got2, err := amdcatalyst.Codec{}.Parse(again, 0)
	if err != nil {
		t.Fatalf("re-Parse() error: %v", err)
	}
	text2, ok := got2.SectionByName(".text")
	if !ok || !bytes.Equal(text2.Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf("re-parsed .text = %+v, ok=%v", text2, ok)
	}
}

func TestEmitParseRoundTripCALNotesAndGlobalData(t *testing.T) {
	m := &binfmt.Model{
		Is64Bit: true,
		Kernels: []binfmt.Kernel{{Name: "vecadd", CodeOffset: 0, CodeSize: 4}},
		Sections: []binfmt.Section{
			{Name: ".text", Data: []byte{0x01, 0x02, 0x03, 0x04}},
			{Name: ".globaldata", Data: []byte("gd")},
		},
		AMD: &binfmt.AMDMeta{CALNotes: []binfmt.CALNote{{Type: 1, Data: []byte("note")}}},
	}

	out, err := amdcatalyst.Codec{}.Emit(m)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}

	got, err := amdcatalyst.Codec{}.Parse(out, binfmt.ParseCALNotes)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(got.Kernels) != 1 || got.Kernels[0].Name != "vecadd" {
		t.Fatalf("Kernels = %+v", got.Kernels)
	}
	if got.Kernels[0].CodeSize != 4 {
		t.Fatalf("CodeSize = %d, want 4", got.Kernels[0].CodeSize)
	}
	text, ok := got.SectionByName(".text")
	if !ok || !bytes.Equal(text.Data, []byte{0x01, 0x02, 0x03, 0x04}) {
		t.Fatalf(".text = %+v, ok=%v", text, ok)
	}
	gd, ok := got.SectionByName(".globaldata")
	if !ok || !bytes.Equal(gd.Data, []byte("gd")) {
		t.Fatalf(".globaldata = %+v, ok=%v", gd, ok)
	}
	if got.AMD == nil || len(got.AMD.CALNotes) != 1 {
		t.Fatalf("CALNotes = %+v", got.AMD)
	}
	if got.AMD.CALNotes[0].Type != 1 || !bytes.Equal(got.AMD.CALNotes[0].Data, []byte("note")) {
		t.Fatalf("CALNote = %+v", got.AMD.CALNotes[0])
	}
}

func TestParseWithoutCALNotesFlagSkipsNotes(t *testing.T) {
	m := &binfmt.Model{
		Kernels: []binfmt.Kernel{{Name: "k"}},
		AMD:     &binfmt.AMDMeta{CALNotes: []binfmt.CALNote{{Type: 2, Data: []byte("x")}}},
	}
	out, err := amdcatalyst.Codec{}.Emit(m)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	got, err := amdcatalyst.Codec{}.Parse(out, 0)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got.AMD != nil && len(got.AMD.CALNotes) != 0 {
		t.Fatalf("CALNotes = %+v, want none parsed without ParseCALNotes", got.AMD.CALNotes)
	}
}
