/*
 * Source position index tests
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

package sourcepos

import "testing"

func TestArenaChain(t *testing.T) {
	a := NewArena()
	f := a.AddFile("main.s", NoOrigin, 0, 0)
	m := a.AddMacro("FOO", f, 10, 1)
	inc := a.AddFile("included.s", m, 2, 1)

	chain := a.Chain(inc)
	if len(chain) != 3 {
		t.Fatalf("Chain length = %d, want 3", len(chain))
	}
	if chain[0].Name != "included.s" || chain[1].Name != "FOO" || chain[2].Name != "main.s" {
		t.Fatalf("Chain order wrong: %+v", chain)
	}
}

func TestIndexMonotonicAndLookup(t *testing.T) {
	idx := NewIndex()
	a := NewArena()
	f := a.AddFile("a.s", NoOrigin, 0, 0)

	offsets := []uint64{0, 4, 8, 12, 100, 104}
	for i, off := range offsets {
		idx.Append(off, f, i+1, 1)
	}

	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			t.Fatalf("test fixture itself not monotonic")
		}
	}

	p, ok := idx.Lookup(10)
	if !ok || p.Offset != 8 {
		t.Fatalf("Lookup(10) = %+v, %v, want offset 8", p, ok)
	}
	p, ok = idx.Lookup(104)
	if !ok || p.Offset != 104 {
		t.Fatalf("Lookup(104) = %+v, %v, want offset 104", p, ok)
	}
	if _, ok := idx.Lookup(0); !ok {
		t.Fatal("Lookup(0) should find the first entry")
	}
}

func TestIndexForwardTraversal(t *testing.T) {
	idx := NewIndex()
	a := NewArena()
	f := a.AddFile("a.s", NoOrigin, 0, 0)

	var want []uint64
	for i := 0; i < chunkSize*2+5; i++ {
		off := uint64(i * 4)
		idx.Append(off, f, i, 0)
		want = append(want, off)
	}

	idx.Reset()
	var got []uint64
	for idx.HasNext() {
		p, ok := idx.Next()
		if !ok {
			t.Fatal("HasNext true but Next returned false")
		}
		got = append(got, p.Offset)
	}
	if len(got) != len(want) {
		t.Fatalf("traversed %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d offset = %d, want %d", i, got[i], want[i])
		}
	}
	if idx.HasNext() {
		t.Fatal("HasNext should be false after full traversal")
	}
}

func TestIndexSplitsOnOriginChange(t *testing.T) {
	idx := NewIndex()
	a := NewArena()
	f1 := a.AddFile("a.s", NoOrigin, 0, 0)
	f2 := a.AddFile("b.s", NoOrigin, 0, 0)

	idx.Append(0, f1, 1, 1)
	idx.Append(4, f2, 1, 1)

	p, ok := idx.Lookup(4)
	if !ok || p.Origin != f2 {
		t.Fatalf("Lookup(4).Origin = %v, want %v", p.Origin, f2)
	}
}
