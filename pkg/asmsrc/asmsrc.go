/*
 * Source filter stack
 *
 * A Cursor walks one line byte-by-byte the way configparser's optionLine
 * does; a Filter produces a stream of such lines from some origin (a raw
 * file, a macro body, a repetition body); a Stack generalizes the
 * teacher's single current-line cursor into a stack of cursors, so macro
 * expansion, .rept/.irp/.for bodies and plain source text compose by
 * nesting rather than by a hand-rolled state machine.
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

package asmsrc

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/clrx/gcnasm/pkg/sourcepos"
)

// Cursor walks a single line of source text, byte by byte. It mirrors
// configparser.optionLine{line string; pos int}, generalized for any
// filter (not just one fixed config-file grammar) to reuse.
type Cursor struct {
	Line string
	Pos  int
}

// SkipSpace advances past any run of whitespace at the cursor.
func (c *Cursor) SkipSpace() {
	for c.Pos < len(c.Line) && unicode.IsSpace(rune(c.Line[c.Pos])) {
		c.Pos++
	}
}

// IsEOL reports whether the cursor is at or past the end of the line.
func (c *Cursor) IsEOL() bool { return c.Pos >= len(c.Line) }

// Peek returns the byte at the cursor without advancing, or 0 at EOL.
func (c *Cursor) Peek() byte {
	if c.IsEOL() {
		return 0
	}
	return c.Line[c.Pos]
}

// Next returns the byte at the cursor and advances past it, or 0 at EOL.
func (c *Cursor) Next() byte {
	if c.IsEOL() {
		return 0
	}
	b := c.Line[c.Pos]
	c.Pos++
	return b
}

// Rest returns everything from the cursor to the end of the line.
func (c *Cursor) Rest() string { return c.Line[c.Pos:] }

// Line is one logical source line together with where it came from.
type Line struct {
	Text   string
	Origin sourcepos.OriginID
	LineNo int
	Col    int
}

// Filter produces a stream of logical source lines. NextLine returns
// ok==false (with a nil error) when the filter is exhausted, at which
// point a Stack pops it and resumes the filter underneath.
type Filter interface {
	NextLine() (Line, bool, error)
}

// Stack is a LIFO of Filters realizing nested source inclusion: a plain
// file at the bottom, with macro expansions, repetition bodies and
// IRP/FOR loops pushed on top as they are encountered and popped off as
// they exhaust, the way config.LoadConfigFile's single cursor is
// generalized here into arbitrarily many nested ones.
type Stack struct {
	filters []Filter
}

// NewStack returns a Stack with base as its only (bottom) filter.
func NewStack(base Filter) *Stack {
	return &Stack{filters: []Filter{base}}
}

// Push adds f to the top of the stack; its lines are served before
// falling back to whatever was on top before.
func (s *Stack) Push(f Filter) {
	s.filters = append(s.filters, f)
}

// Depth returns the number of filters currently on the stack.
func (s *Stack) Depth() int { return len(s.filters) }

// NextLine serves the next line from the topmost non-exhausted filter,
// popping exhausted filters as it goes. It returns ok==false only when
// every filter on the stack is exhausted.
func (s *Stack) NextLine() (Line, bool, error) {
	for len(s.filters) > 0 {
		top := s.filters[len(s.filters)-1]
		line, ok, err := top.NextLine()
		if err != nil {
			return Line{}, false, err
		}
		if ok {
			return line, true, nil
		}
		s.filters = s.filters[:len(s.filters)-1]
	}
	return Line{}, false, nil
}

// StreamFilter reads lines from an io.Reader (an opened source file, or a
// strings.Reader over an already-buffered macro/include body), all
// attributed to a single sourcepos.OriginID.
type StreamFilter struct {
	reader *bufio.Reader
	origin sourcepos.OriginID
	lineNo int
}

// NewStreamFilter wraps r, attributing every line it produces to origin.
func NewStreamFilter(r io.Reader, origin sourcepos.OriginID) *StreamFilter {
	return &StreamFilter{reader: bufio.NewReader(r), origin: origin}
}

// NextLine implements Filter.
func (f *StreamFilter) NextLine() (Line, bool, error) {
	text, err := f.reader.ReadString('\n')
	if len(text) == 0 && err != nil {
		if errors.Is(err, io.EOF) {
			return Line{}, false, nil
		}
		return Line{}, false, err
	}
	f.lineNo++
	text = strings.TrimRight(text, "\r\n")
	return Line{Text: text, Origin: f.origin, LineNo: f.lineNo, Col: 1}, true, nil
}
