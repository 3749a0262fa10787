/*
 * For filter
 *
 * Realizes `.for symbol = init; cond; step` / `.endr`: the loop symbol
 * lives in the symbol table so cond/step (ordinary expr.Expr values) can
 * reference it like any other symbol.
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
	"github.com/clrx/gcnasm/pkg/expr"
	"github.com/clrx/gcnasm/pkg/sourcepos"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// ForFilter replays body once per iteration of a C-style for loop whose
// condition and step are ordinary expressions evaluated against tab.
type ForFilter struct {
	body   []string
	symbol string
	cond   *expr.Expr
	step   *expr.Expr
	tab    *symtab.Table
	origin sourcepos.OriginID

	lineIdx int
	lineNo  int
	started bool
	done    bool
}

// NewForFilter defines symbol at init in tab and returns a Filter that
// replays body while cond evaluates non-zero, advancing symbol by step
// between iterations.
func NewForFilter(body []string, symbol string, init int64, cond, step *expr.Expr, tab *symtab.Table, origin sourcepos.OriginID) *ForFilter {
	tab.DefineSymbol(symbol, symtab.SectionAbs, 0, uint64(init), 0)
	return &ForFilter{body: body, symbol: symbol, cond: cond, step: step, tab: tab, origin: origin}
}

func (f *ForFilter) checkCond() (bool, error) {
	r, err := expr.Eval(f.cond, f.tab)
	if err != nil {
		return false, err
	}
	return r.Value.Num != 0, nil
}

func (f *ForFilter) advance() error {
	r, err := expr.Eval(f.step, f.tab)
	if err != nil {
		return err
	}
	f.tab.DefineSymbol(f.symbol, symtab.SectionAbs, 0, uint64(r.Value.Num), 0)
	return nil
}

// NextLine implements Filter.
func (f *ForFilter) NextLine() (Line, bool, error) {
	if f.done {
		return Line{}, false, nil
	}
	if !f.started {
		f.started = true
		ok, err := f.checkCond()
		if err != nil {
			return Line{}, false, err
		}
		if !ok {
			f.done = true
			return Line{}, false, nil
		}
	}
	for f.lineIdx >= len(f.body) {
		if err := f.advance(); err != nil {
			return Line{}, false, err
		}
		ok, err := f.checkCond()
		if err != nil {
			return Line{}, false, err
		}
		if !ok || len(f.body) == 0 {
			f.done = true
			return Line{}, false, nil
		}
		f.lineIdx = 0
	}
	text := f.body[f.lineIdx]
	f.lineIdx++
	f.lineNo++
	return Line{Text: text, Origin: f.origin, LineNo: f.lineNo, Col: 1}, true, nil
}
