/*
 * Diagnostic collection tests
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

package diag

import "testing"

func TestBagAccumulatesWithoutShortCircuit(t *testing.T) {
	b := NewBag(false)
	b.Errorf(Pos{Line: 1, Column: 1}, "first")
	b.Warnf(Pos{Line: 2, Column: 1}, "a warning")
	b.Errorf(Pos{Line: 3, Column: 1}, "second")

	if b.ErrorCount() != 2 {
		t.Fatalf("ErrorCount = %d, want 2", b.ErrorCount())
	}
	if b.WarningCount() != 1 {
		t.Fatalf("WarningCount = %d, want 1", b.WarningCount())
	}
	if err := b.Err(); err == nil {
		t.Fatal("Err() = nil, want non-nil with 2 errors recorded")
	}
	if len(b.All()) != 3 {
		t.Fatalf("All() = %d entries, want 3", len(b.All()))
	}
}

func TestBagEmptyIsNilError(t *testing.T) {
	b := NewBag(false)
	if err := b.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil for empty bag", err)
	}
	b.Warnf(Pos{}, "just a warning")
	if err := b.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil when only warnings recorded", err)
	}
}
