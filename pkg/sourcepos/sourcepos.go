/*
 * Source position index
 *
 * A chunked per-section index mapping byte offset to source file or
 * macro-expansion position, and the arena of inclusion/expansion origins
 * it refers diagnostics to.
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

// OriginKind distinguishes a plain source file inclusion from a macro
// expansion, so a diagnostic can print "in macro FOO, included from bar.s:12"
// style inclusion chains.
type OriginKind int

const (
	OriginFile OriginKind = iota
	OriginMacro
)

// OriginID indexes into an Arena. The zero value is reserved for "no
// parent" (a top-level file has ParentID == NoOrigin).
type OriginID int32

// NoOrigin marks the absence of a parent origin.
const NoOrigin OriginID = -1

// Origin is one link in an inclusion/expansion chain.
type Origin struct {
	Kind     OriginKind
	Name     string // file path, or macro name
	ParentID OriginID
	// Line/Column is where, in ParentID, this origin was invoked from
	// (the #include line, or the macro invocation line).
	Line   int
	Column int
}

// Arena owns every Origin created during assembly. Origins are never freed
// individually; the whole arena is dropped with the assembler.
type Arena struct {
	origins []Origin
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// AddFile registers a new top-level or included file origin and returns its
// id.
func (a *Arena) AddFile(name string, parent OriginID, line, col int) OriginID {
	a.origins = append(a.origins, Origin{Kind: OriginFile, Name: name, ParentID: parent, Line: line, Column: col})
	return OriginID(len(a.origins) - 1)
}

// AddMacro registers a new macro-expansion origin and returns its id.
func (a *Arena) AddMacro(name string, parent OriginID, line, col int) OriginID {
	a.origins = append(a.origins, Origin{Kind: OriginMacro, Name: name, ParentID: parent, Line: line, Column: col})
	return OriginID(len(a.origins) - 1)
}

// Origin returns the Origin stored at id.
func (a *Arena) Get(id OriginID) (Origin, bool) {
	if id < 0 || int(id) >= len(a.origins) {
		return Origin{}, false
	}
	return a.origins[id], true
}

// Chain returns id and every ancestor, innermost first, for printing full
// inclusion context in a diagnostic message.
func (a *Arena) Chain(id OriginID) []Origin {
	var chain []Origin
	for id != NoOrigin {
		o, ok := a.Get(id)
		if !ok {
			break
		}
		chain = append(chain, o)
		id = o.ParentID
	}
	return chain
}

// Pos is one entry in a section's position index: the statement starting
// at byte Offset originated at (Origin, Line, Column).
type Pos struct {
	Offset uint64
	Origin OriginID
	Line   int
	Column int
}

// chunk stores deltas from a base offset/line/column, following spec.md's
// "chunks carry a base offset and 16-bit deltas" description: most
// consecutive statements are a handful of bytes and one line apart, so
// storing 16-bit deltas keeps the index compact while Base re-anchors
// exact values every chunkSize entries to bound delta overflow.
const chunkSize = 64

type chunk struct {
	baseOffset uint64
	baseLine   int
	baseColumn int
	origin     OriginID
	deltaOff   [chunkSize]uint16
	deltaLine  [chunkSize]int16
	n          int
}

// Index is a per-section append-only map from byte offset to source
// position, built incrementally as the assembler emits bytes, and walked
// forward by disassembly/diagnostic code via HasNext/Next.
type Index struct {
	chunks []chunk
	cursor int // chunk index for HasNext/Next traversal
	item   int // item index within chunks[cursor]
}

// NewIndex returns an empty index.
func NewIndex() *Index { return &Index{} }

// Append records that byte offset off in the owning section originates at
// (origin, line, col). Offsets must be non-decreasing (spec.md §8 property
// 6: "the source-position index is non-decreasing in byte offset").
func (idx *Index) Append(off uint64, origin OriginID, line, col int) {
	if len(idx.chunks) == 0 || idx.chunks[len(idx.chunks)-1].n == chunkSize ||
		idx.chunks[len(idx.chunks)-1].origin != origin {
		idx.chunks = append(idx.chunks, chunk{baseOffset: off, baseLine: line, baseColumn: col, origin: origin})
	}
	c := &idx.chunks[len(idx.chunks)-1]
	i := c.n
	c.deltaOff[i] = uint16(off - c.baseOffset)
	c.deltaLine[i] = int16(line - c.baseLine)
	c.n++
	_ = col
}

// at reconstructs the Pos stored at chunk ci, item ii.
func (idx *Index) at(ci, ii int) Pos {
	c := &idx.chunks[ci]
	return Pos{
		Offset: c.baseOffset + uint64(c.deltaOff[ii]),
		Origin: c.origin,
		Line:   c.baseLine + int(c.deltaLine[ii]),
		Column: c.baseColumn,
	}
}

// Lookup returns the position entry covering byte offset off: the last
// entry whose Offset is <= off.
func (idx *Index) Lookup(off uint64) (Pos, bool) {
	var best Pos
	found := false
	for ci := range idx.chunks {
		c := &idx.chunks[ci]
		for ii := 0; ii < c.n; ii++ {
			p := idx.at(ci, ii)
			if p.Offset > off {
				return best, found
			}
			best, found = p, true
		}
	}
	return best, found
}

// Reset rewinds the forward cursor used by HasNext/Next to the beginning.
func (idx *Index) Reset() { idx.cursor, idx.item = 0, 0 }

// HasNext reports whether Next has another entry to return.
func (idx *Index) HasNext() bool {
	for idx.cursor < len(idx.chunks) && idx.item >= idx.chunks[idx.cursor].n {
		idx.cursor++
		idx.item = 0
	}
	return idx.cursor < len(idx.chunks)
}

// Next returns the next position entry in offset order and advances the
// cursor.
func (idx *Index) Next() (Pos, bool) {
	if !idx.HasNext() {
		return Pos{}, false
	}
	p := idx.at(idx.cursor, idx.item)
	idx.item++
	return p, true
}
