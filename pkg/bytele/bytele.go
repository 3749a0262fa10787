/*
 * Byte codec primitives
 *
 * Unaligned little-endian reads and writes of 16/32/64-bit words over
 * plain byte slices. Every on-disk structure in this module passes
 * through these primitives rather than through typed pointers into file
 * buffers, so encoding is correct regardless of host endianness or
 * alignment.
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

import "encoding/binary"

// Get16 reads a little-endian uint16 at offset off in b.
func Get16(b []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(b[off : off+2])
}

// Put16 writes v as a little-endian uint16 at offset off in b.
func Put16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:off+2], v)
}

// Get32 reads a little-endian uint32 at offset off in b.
func Get32(b []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(b[off : off+4])
}

// Put32 writes v as a little-endian uint32 at offset off in b.
func Put32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}

// Get64 reads a little-endian uint64 at offset off in b.
func Get64(b []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(b[off : off+8])
}

// Put64 writes v as a little-endian uint64 at offset off in b.
func Put64(b []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(b[off:off+8], v)
}

// AppendU16 appends v to b as little-endian and returns the grown slice.
func AppendU16(b []byte, v uint16) []byte {
	return append(b, byte(v), byte(v>>8))
}

// AppendU32 appends v to b as little-endian and returns the grown slice.
func AppendU32(b []byte, v uint32) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// AppendU64 appends v to b as little-endian and returns the grown slice.
func AppendU64(b []byte, v uint64) []byte {
	return append(b, byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// Writer accumulates a byte buffer with the Append helpers above, tracking
// the current offset the way a section buffer tracks its write cursor.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer. The caller must not retain it across
// further writes, since it may be reallocated.
func (w *Writer) Bytes() []byte { return w.buf }

// U8 appends a single byte.
func (w *Writer) U8(v byte) { w.buf = append(w.buf, v) }

// U16 appends a little-endian uint16.
func (w *Writer) U16(v uint16) { w.buf = AppendU16(w.buf, v) }

// U32 appends a little-endian uint32.
func (w *Writer) U32(v uint32) { w.buf = AppendU32(w.buf, v) }

// U64 appends a little-endian uint64.
func (w *Writer) U64(v uint64) { w.buf = AppendU64(w.buf, v) }

// Bytes8 appends raw bytes verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// Pad appends n zero bytes, used to reach a required alignment.
func (w *Writer) Pad(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// AlignTo pads the buffer with zero bytes until its length is a multiple of
// align. align must be a power of two.
func (w *Writer) AlignTo(align int) {
	if align <= 1 {
		return
	}
	rem := len(w.buf) % align
	if rem != 0 {
		w.Pad(align - rem)
	}
}

// Reader walks a byte slice with a cursor, the Writer's inverse. Every
// Get call advances the cursor past what it read; reading past the end
// returns zero values rather than panicking, so a truncated container
// surfaces as a Remaining()-based length check at the call site instead
// of a recovered panic.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a Reader positioned at the start of buf.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// U8 reads one byte and advances, or returns 0 past the end.
func (r *Reader) U8() byte {
	if r.Remaining() < 1 {
		return 0
	}
	b := r.buf[r.pos]
	r.pos++
	return b
}

// U16 reads a little-endian uint16 and advances, or returns 0 past the end.
func (r *Reader) U16() uint16 {
	if r.Remaining() < 2 {
		return 0
	}
	v := Get16(r.buf, r.pos)
	r.pos += 2
	return v
}

// U32 reads a little-endian uint32 and advances, or returns 0 past the end.
func (r *Reader) U32() uint32 {
	if r.Remaining() < 4 {
		return 0
	}
	v := Get32(r.buf, r.pos)
	r.pos += 4
	return v
}

// U64 reads a little-endian uint64 and advances, or returns 0 past the end.
func (r *Reader) U64() uint64 {
	if r.Remaining() < 8 {
		return 0
	}
	v := Get64(r.buf, r.pos)
	r.pos += 8
	return v
}

// Bytes reads n raw bytes and advances. It clamps to Remaining() rather
// than panicking; callers that need an exact-length guarantee should
// check Remaining() first, as Reader's other callers in this module do.
func (r *Reader) Bytes(n int) []byte {
	if n > r.Remaining() {
		n = r.Remaining()
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

// Skip advances the cursor by n bytes, clamped to Remaining().
func (r *Reader) Skip(n int) {
	if n > r.Remaining() {
		n = r.Remaining()
	}
	r.pos += n
}
