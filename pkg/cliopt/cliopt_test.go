/*
 * Tagged-sum CLI option value tests
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

package cliopt

import (
	"testing"

	"github.com/clrx/gcnasm/pkg/bytele"
)

func TestKindMismatchReturnsFalseNotPanic(t *testing.T) {
	v := Bool(true)
	if _, ok := v.Int64(); ok {
		t.Fatal("Int64() ok on a bool value")
	}
	b, ok := v.Bool()
	if !ok || !b {
		t.Fatalf("Bool() = (%v, %v), want (true, true)", b, ok)
	}
}

func TestAppendAdoptsStringSliceKind(t *testing.T) {
	var v Value
	if err := v.Append("a"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := v.Append("b"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	ss, ok := v.StringSliceValue()
	if !ok || len(ss) != 2 || ss[0] != "a" || ss[1] != "b" {
		t.Fatalf("StringSliceValue() = (%v, %v)", ss, ok)
	}
}

func TestAppendRejectsIncompatibleKind(t *testing.T) {
	v := Bool(true)
	if err := v.Append("x"); err == nil {
		t.Fatal("expected Append on a bool value to fail")
	}
}

func TestParseIntAcceptsAllNotations(t *testing.T) {
	cases := map[string]int64{
		"42":    42,
		"052":   0o52,
		"0x2a":  0x2a,
		"0b101": 0b101,
	}
	for in, want := range cases {
		got, err := ParseInt(in, 32)
		if err != nil {
			t.Fatalf("ParseInt(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseIntRejectsOutOfRangeForWidth(t *testing.T) {
	if _, err := ParseInt("0x1ff", 8); err == nil {
		t.Fatal("expected 0x1ff to overflow an 8-bit signed width")
	}
}

func TestParseDefineDefaultsValueToOne(t *testing.T) {
	d, err := ParseDefine("FOO")
	if err != nil {
		t.Fatalf("ParseDefine: %v", err)
	}
	if d.Name != "FOO" || d.Value != "1" {
		t.Fatalf("ParseDefine(FOO) = %+v", d)
	}
}

func TestParseDefineSplitsOnEquals(t *testing.T) {
	d, err := ParseDefine("FOO=7")
	if err != nil {
		t.Fatalf("ParseDefine: %v", err)
	}
	if d.Name != "FOO" || d.Value != "7" {
		t.Fatalf("ParseDefine(FOO=7) = %+v", d)
	}
}

func TestRepeatedStringsAccumulatesAcrossSetCalls(t *testing.T) {
	var r RepeatedStrings
	if err := r.Set("inc1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := r.Set("inc2"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if r.String() != "inc1,inc2" {
		t.Fatalf("String() = %q", r.String())
	}
	ss, ok := r.AsValue().StringSliceValue()
	if !ok || len(ss) != 2 {
		t.Fatalf("AsValue() = %v, %v", ss, ok)
	}
}

func TestDetectFormatRecognizesGalliumMagic(t *testing.T) {
	w := bytele.NewWriter()
	w.U32(galliumMagic)
	if got := DetectFormat(w.Bytes()); got != FormatGallium {
		t.Fatalf("DetectFormat(gallium magic) = %v, want %v", got, FormatGallium)
	}
}

func TestDetectFormatFallsBackToRawForGarbage(t *testing.T) {
	if got := DetectFormat([]byte{1, 2, 3, 4, 5}); got != FormatRaw {
		t.Fatalf("DetectFormat(garbage) = %v, want %v", got, FormatRaw)
	}
}

func TestParseFormatRejectsUnknownName(t *testing.T) {
	if _, err := ParseFormat("not-a-format"); err == nil {
		t.Fatal("expected an error for an unknown format name")
	}
	f, err := ParseFormat("amdcl2")
	if err != nil || f != FormatAMDCL2 {
		t.Fatalf("ParseFormat(amdcl2) = (%v, %v)", f, err)
	}
}
