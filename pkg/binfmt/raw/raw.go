/*
 * Raw binary format
 *
 * The degenerate fifth format (spec.md §4.2/§6, `-b raw`): no container
 * at all, just the concatenated code bytes of the single implicit
 * kernel. Exists because the CLI's `-b` enum names it and spec.md §8
 * scenario 1 exercises it.
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

package raw

import (
	"fmt"

	"github.com/clrx/gcnasm/pkg/binfmt"
)

// implicitKernelName is the name raw-format code is attached to, since
// the format carries no kernel table to read a real name from.
const implicitKernelName = "_start"

// Codec implements binfmt.Codec for the raw, container-less format.
type Codec struct{}

// Parse treats data as the implicit kernel's entire code.
func (Codec) Parse(data []byte, flags binfmt.ParseFlags) (*binfmt.Model, error) {
	m := &binfmt.Model{
		Kernels: []binfmt.Kernel{{Name: implicitKernelName, CodeOffset: 0, CodeSize: uint64(len(data))}},
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.Sections = append(m.Sections, binfmt.Section{Name: ".text", Data: cp})
	return m, nil
}

// Emit requires exactly one kernel and returns its code bytes verbatim.
func (Codec) Emit(m *binfmt.Model) ([]byte, error) {
	if len(m.Kernels) != 1 {
		return nil, fmt.Errorf("raw: exactly one kernel required, got %d", len(m.Kernels))
	}
	if sec, ok := m.SectionByName(".text"); ok {
		return sec.Data, nil
	}
	return nil, nil
}
