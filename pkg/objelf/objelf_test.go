/*
 * ELF reader/writer tests
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

package objelf

import (
	"bytes"
	"debug/elf"
	"testing"
)

func TestBuilderRoundTripViaParse(t *testing.T) {
	b := NewBuilder(Class64, 0xe0, 2) // ET_EXEC-ish
	b.Entry = 0x1000

	b.AddSection(".text", SHT_PROGBITS, SHF_ALLOC|SHF_EXECINSTR, 4, []byte{0x90, 0x90, 0x90, 0x90})
	b.AddSection(".rodata", SHT_PROGBITS, SHF_ALLOC, 4, []byte("hello\x00"))
	b.AddSymbol("kernel_main", 0, 4, 0x12, 0, ".text")

	out, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	f, err := Parse(out, ParseSectionMap|ParseSymbolMap)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if f.Class != Class64 {
		t.Fatalf("Class = %v, want 64-bit", f.Class)
	}
	sec, ok := f.SectionByName(".text")
	if !ok {
		t.Fatal(".text section missing after round trip")
	}
	if !bytes.Equal(sec.Data, []byte{0x90, 0x90, 0x90, 0x90}) {
		t.Fatalf(".text data = %v", sec.Data)
	}
	sym, ok := f.SymbolByName("kernel_main")
	if !ok || sym.SectionIndex == 0 {
		t.Fatalf("kernel_main symbol missing or undefined: %+v, %v", sym, ok)
	}
}

func TestBuilderRoundTripViaStdlibDebugELF(t *testing.T) {
	b := NewBuilder(Class64, 0xe0, 2)
	b.AddSection(".text", SHT_PROGBITS, SHF_ALLOC|SHF_EXECINSTR, 4, []byte{1, 2, 3, 4})

	out, err := b.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error: %v", err)
	}

	sf, err := elf.NewFile(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("stdlib debug/elf rejected our output: %v", err)
	}
	defer sf.Close()

	sec := sf.Section(".text")
	if sec == nil {
		t.Fatal("stdlib debug/elf could not find .text")
	}
	data, err := sec.Data()
	if err != nil {
		t.Fatalf("reading .text via stdlib: %v", err)
	}
	if !bytes.Equal(data, []byte{1, 2, 3, 4}) {
		t.Fatalf(".text via stdlib = %v", data)
	}
}

func TestBuilderUnresolvedSymbolSection(t *testing.T) {
	b := NewBuilder(Class32, 0, 1)
	b.AddSymbol("orphan", 0, 0, 0, 0, ".nonexistent")
	if _, err := b.Bytes(); err == nil {
		t.Fatal("expected UnresolvedRef for unknown symbol section")
	}
}

func TestBuilderUnresolvedRelocationTarget(t *testing.T) {
	b := NewBuilder(Class32, 0, 1)
	b.AddRelocation(".text", 0, "", 1, 0)
	if _, err := b.Bytes(); err == nil {
		t.Fatal("expected UnresolvedRef for relocation against unknown section")
	}
}

func TestParseRejectsTruncatedHeader(t *testing.T) {
	if _, err := Parse([]byte{0x7f, 'E', 'L'}, 0); err == nil {
		t.Fatal("expected Malformed for truncated header")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	bad := make([]byte, ehsize64)
	bad[0] = 0x00
	if _, err := Parse(bad, 0); err == nil {
		t.Fatal("expected Malformed for bad magic")
	}
}
