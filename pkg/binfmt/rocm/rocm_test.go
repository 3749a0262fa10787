/*
 * ROCm code object binary format tests
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

package rocm

import (
	"bytes"
	"testing"

	"github.com/clrx/gcnasm/pkg/binfmt"
)

func TestEmitParseRoundTripYAML(t *testing.T) {
	m := &binfmt.Model{
		Is64Bit: true,
		Kernels: []binfmt.Kernel{{Name: "add", CodeSize: 4}},
		Sections: []binfmt.Section{
			{Name: ".text#add", Data: []byte{1, 2, 3, 4}},
		},
		ROCm: &binfmt.ROCmMeta{
			CodeObjectVersion: NewFormatMinCodeObjectVersion - 1,
			KernelDescriptors: map[string][]byte{"add": bytes.Repeat([]byte{0xee}, kernelDescriptorSize)},
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
	if len(got.Kernels) != 1 || got.Kernels[0].Name != "add" {
		t.Fatalf("Kernels = %+v", got.Kernels)
	}
	if got.ROCm.UseMsgpack {
		t.Fatal("UseMsgpack = true, want false below NewFormatMinCodeObjectVersion")
	}
	if got.ROCm.CodeObjectVersion != NewFormatMinCodeObjectVersion-1 {
		t.Fatalf("CodeObjectVersion = %d", got.ROCm.CodeObjectVersion)
	}
	desc := got.ROCm.KernelDescriptors["add"]
	if len(desc) != kernelDescriptorSize || desc[0] != 0xee {
		t.Fatalf("KernelDescriptors[add] = %v", desc)
	}
	code, ok := got.SectionByName(".text#add")
	if !ok || !bytes.Equal(code.Data, []byte{1, 2, 3, 4}) {
		t.Fatalf(".text#add = %+v, ok=%v, want [1 2 3 4]", code, ok)
	}
}

func TestEmitParseRoundTripMsgpack(t *testing.T) {
	m := &binfmt.Model{
		Is64Bit: true,
		Kernels: []binfmt.Kernel{{Name: "mul", CodeSize: 2}},
		Sections: []binfmt.Section{
			{Name: ".text#mul", Data: []byte{9, 9}},
		},
		ROCm: &binfmt.ROCmMeta{
			CodeObjectVersion: NewFormatMinCodeObjectVersion,
			UseMsgpack:        true,
			KernelDescriptors: map[string][]byte{"mul": bytes.Repeat([]byte{0x11}, kernelDescriptorSize)},
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
	if !got.ROCm.UseMsgpack {
		t.Fatal("UseMsgpack = false, want true at/above NewFormatMinCodeObjectVersion")
	}
	if len(got.ROCm.MetadataDoc) == 0 {
		t.Fatal("MetadataDoc empty, want encoded msgpack document")
	}
	code, ok := got.SectionByName(".text#mul")
	if !ok || !bytes.Equal(code.Data, []byte{9, 9}) {
		t.Fatalf(".text#mul = %+v, ok=%v, want [9 9]", code, ok)
	}
}
