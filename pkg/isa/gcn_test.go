/*
 * GCN codec tests
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

package isa

import (
	"encoding/binary"
	"testing"

	"github.com/clrx/gcnasm/pkg/gpuid"
)

func TestEncodeSAddU32(t *testing.T) {
	var c GCN
	insn := Instruction{Mnemonic: "s_add_u32", Operands: []Operand{SGPR(21), SGPR(4), SGPR(61)}}
	b, refs, err := c.Encode(gpuid.GCN1_0, insn)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got := binary.LittleEndian.Uint32(b)
	if got != 0x80153d04 {
		t.Fatalf("encoded = %#x, want 0x80153d04", got)
	}
	if len(refs) != 3 {
		t.Fatalf("refs = %d, want 3", len(refs))
	}
}

func TestDecodeSAddU32Idempotent(t *testing.T) {
	var c GCN
	word := []byte{0x04, 0x3d, 0x15, 0x80}
	d, err := c.Decode(gpuid.GCN1_0, word, 0)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if d.Mnemonic != "s_add_u32" || d.Length != 4 {
		t.Fatalf("Decode = %+v", d)
	}
	if d.Operands[0].Reg != 21 || d.Operands[1].Reg != 4 || d.Operands[2].Reg != 61 {
		t.Fatalf("operands = %+v", d.Operands)
	}

	insn := Instruction{Mnemonic: d.Mnemonic, Operands: d.Operands}
	reenc, _, err := c.Encode(gpuid.GCN1_0, insn)
	if err != nil {
		t.Fatalf("re-encode error: %v", err)
	}
	if binary.LittleEndian.Uint32(reenc) != 0x80153d04 {
		t.Fatalf("round trip mismatch: %#x", binary.LittleEndian.Uint32(reenc))
	}
}

func TestEncodeOtherSOP2Opcodes(t *testing.T) {
	var c GCN

	// s_and_b32 s21, s4, s61 -> 0x87153d04
	b, _, err := c.Encode(gpuid.GCN1_0, Instruction{Mnemonic: "s_and_b32", Operands: []Operand{SGPR(21), SGPR(4), SGPR(61)}})
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(b); got != 0x87153d04 {
		t.Fatalf("s_and_b32 = %#x, want 0x87153d04", got)
	}

	// s_or_b32 s21, s4, s61 -> 0x88153d04
	b, _, err = c.Encode(gpuid.GCN1_0, Instruction{Mnemonic: "s_or_b32", Operands: []Operand{SGPR(21), SGPR(4), SGPR(61)}})
	if err != nil {
		t.Fatal(err)
	}
	if got := binary.LittleEndian.Uint32(b); got != 0x88153d04 {
		t.Fatalf("s_or_b32 = %#x, want 0x88153d04", got)
	}
}

func TestWaitcntEncodeDecode(t *testing.T) {
	w := Waitcnt{Vmcnt: 6, HasVmcnt: true, Expcnt: 3, HasExpcnt: true, Lgkmcnt: 13, HasLgkmcnt: true}
	simm16 := w.Pack()
	if simm16 != 0x0d36 {
		t.Fatalf("Pack() = %#x, want 0x0d36", simm16)
	}

	var c GCN
	b, _, err := c.Encode(gpuid.GCN1_0, Instruction{Mnemonic: "s_waitcnt", Operands: []Operand{Imm(int64(simm16))}})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	if got := binary.LittleEndian.Uint32(b); got != 0xbf8c0d36 {
		t.Fatalf("encoded = %#x, want 0xbf8c0d36", got)
	}

	d, err := c.Decode(gpuid.GCN1_0, b, 0)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if d.Mnemonic != "s_waitcnt" {
		t.Fatalf("Mnemonic = %q", d.Mnemonic)
	}
	back := UnpackWaitcnt(uint16(d.Operands[0].Value))
	if back.Vmcnt != 6 || back.Expcnt != 3 || back.Lgkmcnt != 13 {
		t.Fatalf("UnpackWaitcnt = %+v", back)
	}
}

func TestWaitcntDefaultsToMaxWhenOmitted(t *testing.T) {
	w := Waitcnt{Expcnt: 3, HasExpcnt: true, Lgkmcnt: 13, HasLgkmcnt: true}
	if got := w.Pack(); got != 0x0d3f {
		t.Fatalf("Pack() = %#x, want 0x0d3f", got)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	var c GCN
	if _, err := c.Decode(gpuid.GCN1_0, []byte{1, 2, 3}, 0); err == nil {
		t.Fatal("expected ErrShortBuffer")
	}
}
