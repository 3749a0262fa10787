/*
 * Byte codec tests
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

package bytele

import "testing"

func TestRoundTrip16(t *testing.T) {
	b := make([]byte, 4)
	Put16(b, 1, 0xabcd)
	if got := Get16(b, 1); got != 0xabcd {
		t.Fatalf("Get16 = %x, want abcd", got)
	}
}

func TestRoundTrip32(t *testing.T) {
	b := make([]byte, 8)
	Put32(b, 3, 0xdeadbeef)
	if got := Get32(b, 3); got != 0xdeadbeef {
		t.Fatalf("Get32 = %x, want deadbeef", got)
	}
}

func TestRoundTrip64(t *testing.T) {
	b := make([]byte, 16)
	Put64(b, 2, 0x0102030405060708)
	if got := Get64(b, 2); got != 0x0102030405060708 {
		t.Fatalf("Get64 = %x, want 0102030405060708", got)
	}
}

func TestWriterAlign(t *testing.T) {
	w := NewWriter()
	w.U8(1)
	w.U8(2)
	w.U8(3)
	w.AlignTo(4)
	if w.Len() != 4 {
		t.Fatalf("Len = %d, want 4", w.Len())
	}
	w.U32(0x11223344)
	if Get32(w.Bytes(), 4) != 0x11223344 {
		t.Fatalf("unexpected bytes %x", w.Bytes())
	}
}
