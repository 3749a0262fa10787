/*
 * Numeric parsing tests
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

package numutil

import "testing"

func TestParseUintForms(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"123", 123},
		{"0x1F", 0x1F},
		{"0b101", 5},
		{"017", 15},
		{"0", 0},
	}
	for _, c := range cases {
		got, _, err := ParseUint(c.in, 32)
		if err != nil {
			t.Fatalf("ParseUint(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseUint(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseUintOutOfRange(t *testing.T) {
	_, _, err := ParseUint("256", 8)
	if err != ErrOutOfRange {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestParseIntSigned(t *testing.T) {
	v, _, err := ParseInt("-5", 8)
	if err != nil || v != -5 {
		t.Fatalf("ParseInt(-5) = %d, %v", v, err)
	}
}

func TestEscapeChar(t *testing.T) {
	cases := []struct {
		in   string
		want byte
		n    int
	}{
		{`\n`, '\n', 2},
		{`\t`, '\t', 2},
		{`\101`, 'A', 4},
		{`\x41`, 'A', 4},
	}
	for _, c := range cases {
		got, n, err := EscapeChar(c.in)
		if err != nil {
			t.Fatalf("EscapeChar(%q) error: %v", c.in, err)
		}
		if got != c.want || n != c.n {
			t.Errorf("EscapeChar(%q) = %q,%d want %q,%d", c.in, got, n, c.want, c.n)
		}
	}
}

func TestUnescapeCString(t *testing.T) {
	got, err := UnescapeCString(`hi\n\x21`)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hi\n!" {
		t.Fatalf("got %q", got)
	}
}

func TestFloat32ToHalf(t *testing.T) {
	h := Float32ToHalf(1.0)
	if h != 0x3c00 {
		t.Fatalf("half(1.0) = %04x, want 3c00", h)
	}
	h = Float32ToHalf(-2.0)
	if h != 0xc000 {
		t.Fatalf("half(-2.0) = %04x, want c000", h)
	}
	h = Float32ToHalf(0.0)
	if h != 0 {
		t.Fatalf("half(0.0) = %04x, want 0", h)
	}
}
