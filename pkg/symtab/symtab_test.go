/*
 * Symbol/section/kernel table tests
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

package symtab

import (
	"testing"

	"github.com/clrx/gcnasm/pkg/reloc"
	"github.com/clrx/gcnasm/pkg/sourcepos"
)

func TestInternAndDefineSymbol(t *testing.T) {
	tb := New()
	id := tb.InternSymbol("foo")
	sym, err := tb.Symbol(id)
	if err != nil || sym.Flags&SymDefined != 0 {
		t.Fatalf("fresh intern should be undefined: %+v, %v", sym, err)
	}

	sec := tb.AddSection(".text", KernelGlobal, SecCode, SecELFAlloc, 4)
	tb.DefineSymbol("foo", sec, 0x10, 0x10, SymGlobal)
	sym, _ = tb.Symbol(id)
	if sym.Flags&SymDefined == 0 || sym.Offset != 0x10 {
		t.Fatalf("DefineSymbol did not mark defined: %+v", sym)
	}
}

func TestDuplicateInternReturnsSameID(t *testing.T) {
	tb := New()
	a := tb.InternSymbol("bar")
	b := tb.InternSymbol("bar")
	if a != b {
		t.Fatalf("InternSymbol should return the same id for the same name: %v != %v", a, b)
	}
}

func TestSectionStackPushPop(t *testing.T) {
	tb := New()
	s1 := tb.AddSection(".text", KernelGlobal, SecCode, 0, 4)
	s2 := tb.AddSection(".data", KernelGlobal, SecData, 0, 4)

	tb.SetSection(KernelGlobal, s1)
	tb.PushSection(KernelGlobal, s2)
	if cur, ok := tb.CurrentSection(KernelGlobal); !ok || cur != s2 {
		t.Fatalf("CurrentSection after push = %v, %v, want %v", cur, ok, s2)
	}
	popped, err := tb.PopSection(KernelGlobal)
	if err != nil || popped != s2 {
		t.Fatalf("PopSection = %v, %v, want %v", popped, err, s2)
	}
	if cur, ok := tb.CurrentSection(KernelGlobal); !ok || cur != s1 {
		t.Fatalf("CurrentSection after pop = %v, %v, want %v", cur, ok, s1)
	}
	if _, err := tb.PopSection(KernelGlobal); err != nil {
		t.Fatalf("unexpected error popping last entry: %v", err)
	}
	if _, err := tb.PopSection(KernelGlobal); err != ErrEmptySectionStack {
		t.Fatalf("expected ErrEmptySectionStack, got %v", err)
	}
}

func TestAppendBytesTracksSourcePos(t *testing.T) {
	tb := New()
	sec := tb.AddSection(".text", KernelGlobal, SecCode, 0, 4)
	arena := sourcepos.NewArena()
	origin := arena.AddFile("a.s", sourcepos.NoOrigin, 0, 0)

	if err := tb.AppendBytes(sec, []byte{1, 2, 3, 4}, origin, 1, 1); err != nil {
		t.Fatal(err)
	}
	if err := tb.AppendBytes(sec, []byte{5, 6, 7, 8}, origin, 2, 1); err != nil {
		t.Fatal(err)
	}
	s, _ := tb.Section(sec)
	if len(s.Data) != 8 {
		t.Fatalf("section data len = %d, want 8", len(s.Data))
	}
	p, ok := s.Positions.Lookup(4)
	if !ok || p.Line != 2 {
		t.Fatalf("Lookup(4) = %+v, %v, want line 2", p, ok)
	}
}

func TestAddRelocation(t *testing.T) {
	tb := New()
	sec := tb.AddSection(".rela.text", KernelGlobal, SecCode, 0, 4)
	if err := tb.AddRelocation(sec, reloc.Reloc{Offset: 8, Type: reloc.Low32Bit}); err != nil {
		t.Fatal(err)
	}
	s, _ := tb.Section(sec)
	if len(s.Relocs) != 1 || s.Relocs[0].Offset != 8 {
		t.Fatalf("Relocs = %+v", s.Relocs)
	}
}

func TestUnknownSectionErrors(t *testing.T) {
	tb := New()
	if _, err := tb.Section(99); err != ErrUnknownSection {
		t.Fatalf("expected ErrUnknownSection, got %v", err)
	}
}
