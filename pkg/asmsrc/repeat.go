/*
 * Repetition and IRP/IRPC filters
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

import "github.com/clrx/gcnasm/pkg/sourcepos"

// ReptFilter replays body Count times, realizing `.rept N` / `.endr`.
type ReptFilter struct {
	body   []string
	count  int
	rep    int
	idx    int
	origin sourcepos.OriginID
	lineNo int
}

// NewReptFilter returns a Filter that replays body count times.
func NewReptFilter(body []string, count int, origin sourcepos.OriginID) *ReptFilter {
	return &ReptFilter{body: body, count: count, origin: origin}
}

// NextLine implements Filter.
func (f *ReptFilter) NextLine() (Line, bool, error) {
	if f.count <= 0 {
		return Line{}, false, nil
	}
	for f.idx >= len(f.body) {
		f.rep++
		if f.rep >= f.count || len(f.body) == 0 {
			return Line{}, false, nil
		}
		f.idx = 0
	}
	text := f.body[f.idx]
	f.idx++
	f.lineNo++
	return Line{Text: text, Origin: f.origin, LineNo: f.lineNo, Col: 1}, true, nil
}

// IRPFilter replays body once per value in Values, substituting \symbol
// with the current value in each replayed line. With CharIter set it
// realizes `.irpc` instead: Values holds a single string and each
// iteration substitutes one character of it.
type IRPFilter struct {
	body     []string
	symbol   string
	values   []string
	charIter bool

	valIdx  int
	lineIdx int
	origin  sourcepos.OriginID
	lineNo  int
}

// NewIRPFilter realizes `.irp symbol, v1, v2, ...`.
func NewIRPFilter(body []string, symbol string, values []string, origin sourcepos.OriginID) *IRPFilter {
	return &IRPFilter{body: body, symbol: symbol, values: values, origin: origin}
}

// NewIRPCFilter realizes `.irpc symbol, chars`, iterating one character of
// chars per replay of body.
func NewIRPCFilter(body []string, symbol string, chars string, origin sourcepos.OriginID) *IRPFilter {
	values := make([]string, len(chars))
	for i := 0; i < len(chars); i++ {
		values[i] = string(chars[i])
	}
	return &IRPFilter{body: body, symbol: symbol, values: values, charIter: true, origin: origin}
}

// NextLine implements Filter.
func (f *IRPFilter) NextLine() (Line, bool, error) {
	if len(f.values) == 0 {
		return Line{}, false, nil
	}
	for f.lineIdx >= len(f.body) {
		f.valIdx++
		if f.valIdx >= len(f.values) || len(f.body) == 0 {
			return Line{}, false, nil
		}
		f.lineIdx = 0
	}
	bound := map[string]string{f.symbol: f.values[f.valIdx]}
	text := substituteArgs(f.body[f.lineIdx], bound)
	f.lineIdx++
	f.lineNo++
	return Line{Text: text, Origin: f.origin, LineNo: f.lineNo, Col: 1}, true, nil
}
