/*
 * AMD OpenCL 2.0 binary format tests
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

package amdcl2

import (
	"bytes"
	"testing"

	"github.com/clrx/gcnasm/pkg/binfmt"
	"github.com/clrx/gcnasm/pkg/reloc"
)

func TestEmitParseRoundTripNonHSA(t *testing.T) {
	m := &binfmt.Model{
		Is64Bit: true,
		Kernels: []binfmt.Kernel{{Name: "vecadd", CodeSize: 4}},
		Sections: []binfmt.Section{
			{Name: ".text#vecadd", Data: []byte{0xaa, 0xbb, 0xcc, 0xdd}},
			{Name: ".rodata", Data: []byte("const")},
		},
		AMDCL2: &binfmt.AMDCL2Meta{SetupBlobs: map[string][]byte{"vecadd": bytes.Repeat([]byte{0x7}, 128)}},
		Relocs: []reloc.Reloc{{Offset: 132, Symbol: int32(binfmt.RelocSymGlobalData), Type: reloc.Value, Addend: 8}},
	}

	out, err := Codec{}.Emit(m)
	if err != nil {
		t.Fatalf("Emit() error: %v", err)
	}
	got, err := Codec{}.Parse(out, 0)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(got.Kernels) != 1 || got.Kernels[0].Name != "vecadd" {
		t.Fatalf("Kernels = %+v", got.Kernels)
	}
	if got.Kernels[0].CodeSize != 4 {
		t.Fatalf("CodeSize = %d, want 4", got.Kernels[0].CodeSize)
	}
	if got.AMDCL2 == nil || got.AMDCL2.UseHSAConfig {
		t.Fatalf("UseHSAConfig = %+v, want false", got.AMDCL2)
	}
	code, ok := got.SectionByName(".text#vecadd")
	if !ok || !bytes.Equal(code.Data, []byte{0xaa, 0xbb, 0xcc, 0xdd}) {
		t.Fatalf(".text#vecadd = %+v, ok=%v, want [aa bb cc dd]", code, ok)
	}
	rodata, ok := got.SectionByName(".rodata")
	if !ok || !bytes.Equal(rodata.Data, []byte("const")) {
		t.Fatalf(".rodata = %+v, ok=%v", rodata, ok)
	}
	if len(got.Relocs) != 1 || got.Relocs[0].Symbol != int32(binfmt.RelocSymGlobalData) {
		t.Fatalf("Relocs = %+v", got.Relocs)
	}
	if got.Relocs[0].Addend != 8 || got.Relocs[0].Type != reloc.Value {
		t.Fatalf("Reloc fields = %+v", got.Relocs[0])
	}
}

func TestHSAConfigUses256ByteSetup(t *testing.T) {
	meta := &binfmt.AMDCL2Meta{UseHSAConfig: true}
	if got := meta.KernelSetupSize(); got != 256 {
		t.Fatalf("KernelSetupSize() = %d, want 256", got)
	}
}
