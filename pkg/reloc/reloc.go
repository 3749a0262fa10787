/*
 * Relocation records
 *
 * The relocation record shared by the expression engine and every
 * binary format codec.
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

package reloc

// Type identifies what a relocation contributes to its target field.
type Type int

const (
	// Value is a full-width resolved value (no splitting).
	Value Type = iota
	// Low32Bit contributes only the low 32 bits of a 64-bit target.
	Low32Bit
	// High32Bit contributes only the high 32 bits of a 64-bit target.
	High32Bit
	// Abs64 is an absolute 64-bit relocation.
	Abs64
	// GOTEntry references an entry in the format's GOT section.
	GOTEntry
)

// Reloc is a single relocation record: a field at (Section, Offset) needs
// Symbol's value (plus Addend) applied with the given Type at link/load
// time.
type Reloc struct {
	Section int32
	Offset  uint64
	Type    Type
	Symbol  int32
	Addend  int64
}
