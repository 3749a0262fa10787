/*
 * Kcode-span register accounting
 *
 * Shared by the AMDCL2, Gallium and ROCm format handlers (not AMD
 * Catalyst, which has no kernel-code association): `.kcode k1,k2` pushes a
 * selection of kernels that share the following code; every label inside
 * that span mirrors the running register/flag counts into each selected
 * kernel's stored maximum, component-wise (spec.md §4.6 ¶2, §8 property 5).
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

package kcode

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/symtab"
)

// Running is the current-section register/flag state a label snapshots
// into every kernel selected by the active kcode span.
type Running struct {
	SGPRCount  int
	VGPRCount  int
	AllocFlags uint32
}

// Tracker owns the kcode selection stack for one assembler instance. It
// mutates the kernels stored in table but holds no running counts itself —
// those live on the handler that calls OnLabel, since they depend on
// format-specific `.sgprs`/`.vgprs` pseudo-ops this package doesn't parse.
type Tracker struct {
	table *symtab.Table
	stack [][]symtab.KernelID
}

// New returns a Tracker operating over table.
func New(table *symtab.Table) *Tracker {
	return &Tracker{table: table}
}

// ErrEmptyStack is returned by Pop when no `.kcode` span is open.
var ErrEmptyStack = fmt.Errorf("kcode: .kcodeend without matching .kcode")

// Push opens a new kcode span selecting kernels. Nested spans are allowed;
// only the innermost (top of stack) is active for OnLabel.
func (t *Tracker) Push(kernels []symtab.KernelID) {
	t.stack = append(t.stack, kernels)
}

// Pop closes the innermost kcode span.
func (t *Tracker) Pop() ([]symtab.KernelID, error) {
	if len(t.stack) == 0 {
		return nil, ErrEmptyStack
	}
	top := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return top, nil
}

// Depth reports how many kcode spans are currently open.
func (t *Tracker) Depth() int { return len(t.stack) }

// Active returns the innermost open span's kernel selection, or nil if no
// span is open.
func (t *Tracker) Active() []symtab.KernelID {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

// OnLabel snapshots running into every kernel in the active span,
// component-wise max for register counts and bitwise-or for usage flags.
// It is a no-op when no kcode span is open.
func (t *Tracker) OnLabel(running Running) error {
	for _, kid := range t.Active() {
		k, err := t.table.Kernel(kid)
		if err != nil {
			return err
		}
		if running.SGPRCount > k.SGPRCount {
			k.SGPRCount = running.SGPRCount
		}
		if running.VGPRCount > k.VGPRCount {
			k.VGPRCount = running.VGPRCount
		}
		k.AllocFlags |= running.AllocFlags
	}
	return nil
}
