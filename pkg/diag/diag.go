/*
 * Diagnostic collection
 *
 * Accumulates errors and warnings across an assembly pass without
 * short-circuiting, so a single run reports every problem it finds.
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

import (
	"fmt"

	merr "github.com/hashicorp/go-multierror"
)

// Severity distinguishes warnings (never suppress output, can be globally
// disabled) from errors (refuse to write the binary if any were recorded).
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

// Pos is a source position: file/macro chain handle, line, column. Chain is
// an arena id into the source-position index (see package sourcepos); it is
// opaque here so diag does not depend on the filter-stack implementation.
type Pos struct {
	Chain  int32
	Line   int
	Column int
}

// Error is one recorded diagnostic.
type Error struct {
	Pos      Pos
	Format   string // format name, "" if not format-specific
	Message  string
	Severity Severity
}

func (e *Error) Error() string {
	sev := "error"
	if e.Severity == SevWarning {
		sev = "warning"
	}
	if e.Format != "" {
		return fmt.Sprintf("%d:%d: %s: [%s] %s", e.Pos.Line, e.Pos.Column, sev, e.Format, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, sev, e.Message)
}

// Bag accumulates diagnostics across an entire assembly pass without
// short-circuiting. A nil *Bag is valid and simply discards diagnostics
// until first use via Add.
type Bag struct {
	errs         *merr.Error
	errorCount   int
	warningCount int
	warnDisabled bool
}

// NewBag returns an empty diagnostic bag. warningsDisabled mirrors the CLI's
// `-w` / `no-warnings` flag: warnings are still recorded (for tooling that
// wants them) but ErrorCount alone gates prepareBinary/writeBinary.
func NewBag(warningsDisabled bool) *Bag {
	return &Bag{warnDisabled: warningsDisabled}
}

// Add records a diagnostic.
func (b *Bag) Add(e *Error) {
	if e.Severity == SevWarning {
		b.warningCount++
	} else {
		b.errorCount++
	}
	b.errs = merr.Append(b.errs, e)
}

// Errorf records a SevError diagnostic formatted from format/args.
func (b *Bag) Errorf(pos Pos, format string, args ...any) {
	b.Add(&Error{Pos: pos, Message: fmt.Sprintf(format, args...), Severity: SevError})
}

// Warnf records a SevWarning diagnostic.
func (b *Bag) Warnf(pos Pos, format string, args ...any) {
	b.Add(&Error{Pos: pos, Message: fmt.Sprintf(format, args...), Severity: SevWarning})
}

// ErrorCount is the number of SevError diagnostics recorded. Per spec.md
// §7/§8, the binary writer must refuse to run while this is non-zero.
func (b *Bag) ErrorCount() int { return b.errorCount }

// WarningCount is the number of SevWarning diagnostics recorded, regardless
// of whether warnings are disabled for display.
func (b *Bag) WarningCount() int { return b.warningCount }

// Err returns nil if no SevError diagnostics were recorded, otherwise an
// error aggregating every diagnostic (errors and warnings) in emission
// order.
func (b *Bag) Err() error {
	if b.errorCount == 0 {
		return nil
	}
	return b.errs.ErrorOrNil()
}

// All returns every recorded diagnostic in emission order.
func (b *Bag) All() []*Error {
	if b.errs == nil {
		return nil
	}
	out := make([]*Error, 0, len(b.errs.Errors))
	for _, e := range b.errs.Errors {
		if de, ok := e.(*Error); ok {
			out = append(out, de)
		}
	}
	return out
}
