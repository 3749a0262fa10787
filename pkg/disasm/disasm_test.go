/*
 * Disassembler driver tests
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
	"strings"
	"testing"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/gpuid"
	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/reloc"
)

func encodedSAddU32(sdst, ssrc0, ssrc1 int) []byte {
	word := uint32(0b10)<<30 | uint32(0x00)<<23 | uint32(sdst&0x7f)<<16 | uint32(ssrc1&0xff)<<8 | uint32(ssrc0&0xff)
	w := bytele.NewWriter()
	w.U32(word)
	return w.Bytes()
}

func TestWriteCodeDecodesKnownInstruction(t *testing.T) {
	code := encodedSAddU32(21, 4, 61)
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "main", CodeSize: uint64(len(code))}},
		Sections: []binfmt.Section{{Name: ".text#main", Data: code}},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "s_add_u32 s21, s4, s61") {
		t.Fatalf("output missing decoded instruction:\n%s", out)
	}
}

func TestLabelsSortedAndFlushedAtOffset(t *testing.T) {
	code := append(encodedSAddU32(0, 1, 2), encodedSAddU32(3, 4, 5)...)
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "main", CodeSize: uint64(len(code))}},
		Sections: []binfmt.Section{{Name: ".text#main", Data: code}},
		Symbols: []binfmt.Symbol{
			{Name: "second", Value: 4},
			{Name: "first", Value: 0},
		},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := sb.String()
	firstIdx := strings.Index(out, "first:")
	secondIdx := strings.Index(out, "second:")
	if firstIdx < 0 || secondIdx < 0 || firstIdx > secondIdx {
		t.Fatalf("expected first: before second: in:\n%s", out)
	}
}

func TestRelocationSubstitutesSymbolicOperand(t *testing.T) {
	code := encodedSAddU32(0, 1, 2)
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "main", CodeSize: uint64(len(code))}},
		Sections: []binfmt.Section{{Name: ".text#main", Data: code}},
		Symbols:  []binfmt.Symbol{{Name: "my_const"}},
		Relocs:   []reloc.Reloc{{Offset: 0, Symbol: 0, Type: reloc.Value}},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "my_const") {
		t.Fatalf("expected symbolic operand my_const in:\n%s", out)
	}
}

func TestGalliumProgInfoPrintedAsDirectives(t *testing.T) {
	code := encodedSAddU32(0, 1, 2)
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "k", CodeSize: uint64(len(code))}},
		Sections: []binfmt.Section{{Name: ".text#k", Data: code}},
		Gallium: &binfmt.GalliumMeta{
			ProgInfo: map[string][]binfmt.ProgInfoEntry{
				"k": {{Address: 0x1, Value: 0x2}},
			},
		},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0, Flags: Flags{Config: true}})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(sb.String(), ".proginfo 0x1, 0x2") {
		t.Fatalf("expected .proginfo directive in:\n%s", sb.String())
	}
}

func TestROCmConfigDecodesFeatureFlagBit(t *testing.T) {
	code := encodedSAddU32(0, 1, 2)
	desc := make([]byte, 256)
	desc[0] = 1 // use_kernarg_segment_ptr bit
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "k", CodeSize: uint64(len(code))}},
		Sections: []binfmt.Section{{Name: ".text#k", Data: code}},
		ROCm: &binfmt.ROCmMeta{
			KernelDescriptors: map[string][]byte{"k": desc},
		},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0, Flags: Flags{Config: true}})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(sb.String(), ".config use_kernarg_segment_ptr=1") {
		t.Fatalf("expected .config directive in:\n%s", sb.String())
	}
}

func TestDataFlagDumpsNonCodeSections(t *testing.T) {
	m := &binfmt.Model{
		Sections: []binfmt.Section{{Name: ".rodata", Data: []byte{1, 2, 3}}},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0, Flags: Flags{Data: true}})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, ".section .rodata") || !strings.Contains(out, "0x01, 0x02, 0x03") {
		t.Fatalf("expected data section dump in:\n%s", out)
	}
}

func TestMissingCodeSectionReportsRatherThanPanics(t *testing.T) {
	m := &binfmt.Model{
		Kernels: []binfmt.Kernel{{Name: "ghost", CodeOffset: 100, CodeSize: 4}},
	}
	d := New(m, isa.GCN{}, Options{Arch: gpuid.GCN1_0})
	var sb strings.Builder
	if err := d.Run(&sb); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(sb.String(), "no code available") {
		t.Fatalf("expected a no-code notice in:\n%s", sb.String())
	}
}
