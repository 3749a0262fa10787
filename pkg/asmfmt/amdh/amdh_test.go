/*
 * AMD Catalyst format handler tests
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

package amdh

import (
	"testing"

	"github.com/clrx/gcnasm/pkg/diag"
	"github.com/clrx/gcnasm/pkg/symtab"
)

func TestKernelPseudoOpCreatesKernelAndTextSection(t *testing.T) {
	h := New(symtab.New())
	diags := diag.NewBag(false)
	if consumed := h.ParsePseudoOp("kernel", " foo", diag.Pos{}, diags); !consumed {
		t.Fatal(".kernel not consumed")
	}
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}
	if len(h.Table.Kernels()) != 1 || h.Table.Kernels()[0].Name != "foo" {
		t.Fatalf("Kernels = %+v", h.Table.Kernels())
	}
	if _, ok := h.Table.SectionByName(".text"); !ok {
		t.Fatal("expected a .text section for the new kernel")
	}
}

func TestDriverVersionRoundTripsIntoModel(t *testing.T) {
	h := New(symtab.New())
	diags := diag.NewBag(false)
	h.ParsePseudoOp("driver_version", " 200406", diag.Pos{}, diags)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected errors: %v", diags.Err())
	}
	m, err := h.PrepareBinary(0, false)
	if err != nil {
		t.Fatalf("PrepareBinary: %v", err)
	}
	if m.AMD.DriverVersion != 200406 {
		t.Fatalf("DriverVersion = %d, want 200406", m.AMD.DriverVersion)
	}
}
