/*
 * Gallium compute binary format tests
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

package gallium

import (
	"bytes"
	"testing"

	"github.com/clrx/gcnasm/pkg/binfmt"
)

func TestEmitParseRoundTrip(t *testing.T) {
	m := &binfmt.Model{
		Kernels: []binfmt.Kernel{{Name: "k0", CodeOffset: 0, CodeSize: 8}},
		Sections: []binfmt.Section{
			{Name: ".text", Data: []byte{0, 1, 2, 3, 4, 5, 6, 7}},
		},
		Gallium: &binfmt.GalliumMeta{
			ProgInfo: map[string][]binfmt.ProgInfoEntry{
				"k0": {{Address: 1, Value: 2}, {Address: 3, Value: 4}, {Address: 5, Value: 6}},
			},
		},
	}

	out, err := Codec{}.Emit(m)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	got, err := Codec{}.Parse(out, 0)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got.Kernels) != 1 || got.Kernels[0].Name != "k0" {
		t.Fatalf("Kernels = %+v", got.Kernels)
	}
	if got.Kernels[0].CodeSize != 8 {
		t.Fatalf("CodeSize = %d, want 8", got.Kernels[0].CodeSize)
	}
	entries := got.Gallium.ProgInfo["k0"]
	if len(entries) != 3 {
		t.Fatalf("ProgInfo entries = %+v, want 3", entries)
	}
	if got.Gallium.MesaLayout17OrNewer {
		t.Fatalf("MesaLayout17OrNewer = true, want false for 3-entry PROGINFO")
	}
	text, ok := got.SectionByName(".text")
	if !ok || !bytes.Equal(text.Data, []byte{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf(".text = %+v, ok=%v", text, ok)
	}
}

func TestFiveEntryProgInfoMarksMesa17(t *testing.T) {
	m := &binfmt.Model{
		Kernels:  []binfmt.Kernel{{Name: "k1"}},
		Sections: []binfmt.Section{{Name: ".text", Data: []byte{}}},
		Gallium: &binfmt.GalliumMeta{
			ProgInfo: map[string][]binfmt.ProgInfoEntry{
				"k1": {{}, {}, {}, {}, {}},
			},
		},
	}
	out, err := Codec{}.Emit(m)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	got, err := Codec{}.Parse(out, 0)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !got.Gallium.MesaLayout17OrNewer {
		t.Fatal("expected MesaLayout17OrNewer = true for 5-entry PROGINFO")
	}
}
