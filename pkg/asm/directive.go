/*
 * Directive dispatch
 *
 * Directives common to every container (data emission, symbol
 * definition, section switching, conditional/repetition control) are
 * handled here; anything this layer doesn't recognize is offered to the
 * current format handler's ParsePseudoOp, and only reported unknown if
 * neither claims it.
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

package asm

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/clrx/gcnasm/pkg/asmsrc"
	"github.com/clrx/gcnasm/pkg/symtab"
)

func (a *Assembler) directive(name, rest string) {
	switch name {
	case "set", "equ":
		a.doSet(rest)
	case "global", "globl":
		a.doGlobal(rest)
	case "byte":
		a.emitInts(rest, 1)
	case "short", "hword":
		a.emitInts(rest, 2)
	case "int", "word", "long":
		a.emitInts(rest, 4)
	case "quad":
		a.emitInts(rest, 8)
	case "ascii":
		a.emitString(rest, false)
	case "asciz", "string":
		a.emitString(rest, true)
	case "align":
		a.doAlign(rest)
	case "section":
		a.doSection(strings.TrimSpace(rest))
	case "text":
		a.doSection(".text")
	case "data":
		a.doSection(".data")
	case "bss":
		a.doSection(".bss")
	case "pushsection":
		a.doPushSection(strings.TrimSpace(rest))
	case "popsection":
		a.doPopSection()
	case "macro":
		a.beginMacroDef(rest)
	case "rept":
		a.beginRept(rest)
	case "irp":
		a.beginIRP(rest, false)
	case "irpc":
		a.beginIRP(rest, true)
	case "for":
		a.beginFor(rest)
	case "include":
		a.doInclude(rest)
	default:
		if a.handler.ParsePseudoOp(name, " "+rest, a.pos(), a.diags) {
			return
		}
		a.diags.Errorf(a.pos(), "unknown directive .%s", name)
	}
}

func (a *Assembler) doSet(rest string) {
	parts := strings.SplitN(rest, ",", 2)
	if len(parts) != 2 {
		a.diags.Errorf(a.pos(), ".set requires name, expr")
		return
	}
	name := strings.TrimSpace(parts[0])
	r := a.evalExpr(parts[1])
	if r.UnresolvedSymbols != 0 {
		a.diags.Errorf(a.pos(), ".set %s: non-constant expression", name)
		return
	}
	a.table.DefineSymbol(name, r.Value.Section, uint64(r.Value.Num), uint64(r.Value.Num), 0)
}

func (a *Assembler) doGlobal(rest string) {
	for _, name := range splitArgs(rest) {
		if name == "" {
			continue
		}
		id := a.table.InternSymbol(name)
		sym, err := a.table.Symbol(id)
		if err != nil {
			continue
		}
		sym.Flags |= symtab.SymGlobal
		if a.opts.ForceAddSymbols {
			sym.Flags |= symtab.SymDefined
		}
	}
}

func (a *Assembler) emitInts(rest string, width int) {
	for _, part := range splitArgs(rest) {
		if part == "" {
			continue
		}
		r := a.evalExpr(part)
		buf := make([]byte, width)
		v := uint64(r.Value.Num)
		for i := 0; i < width; i++ {
			buf[i] = byte(v >> (8 * i))
		}
		a.currentSectionAppend(buf)
	}
}

func (a *Assembler) emitString(rest string, nulTerminate bool) {
	for _, part := range splitArgs(rest) {
		s, err := strconv.Unquote(part)
		if err != nil {
			a.diags.Errorf(a.pos(), "bad string literal %q: %v", part, err)
			continue
		}
		data := []byte(s)
		if nulTerminate {
			data = append(data, 0)
		}
		a.currentSectionAppend(data)
	}
}

func (a *Assembler) doAlign(rest string) {
	args := splitArgs(rest)
	if len(args) == 0 {
		a.diags.Errorf(a.pos(), ".align requires an alignment")
		return
	}
	r := a.evalExpr(args[0])
	align := int(r.Value.Num)
	if align <= 0 {
		return
	}
	fill := byte(0)
	if len(args) > 1 {
		fr := a.evalExpr(args[1])
		fill = byte(fr.Value.Num)
	}
	kernel := symtab.KernelGlobal
	if ka, ok := a.handler.(kernelAware); ok {
		kernel = ka.CurrentKernelID()
	}
	sec, ok := a.table.CurrentSection(kernel)
	if !ok {
		a.diags.Errorf(a.pos(), ".align outside any section")
		return
	}
	section, err := a.table.Section(sec)
	if err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
		return
	}
	cur := len(section.Data)
	pad := (align - cur%align) % align
	if pad == 0 {
		return
	}
	buf := make([]byte, pad)
	for i := range buf {
		buf[i] = fill
	}
	a.currentSectionAppend(buf)
}

func (a *Assembler) doSection(name string) {
	if name == "" {
		a.diags.Errorf(a.pos(), ".section requires a name")
		return
	}
	id, err := a.handler.GetSectionID(name)
	if err != nil {
		kernel := symtab.KernelGlobal
		if ka, ok := a.handler.(kernelAware); ok {
			kernel = ka.CurrentKernelID()
		}
		id, err = a.handler.AddSection(name, kernel)
		if err != nil {
			a.diags.Errorf(a.pos(), "%v", err)
			return
		}
	}
	if err := a.handler.SetCurrentSection(id); err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
	}
}

func (a *Assembler) doPushSection(name string) {
	kernel := symtab.KernelGlobal
	if ka, ok := a.handler.(kernelAware); ok {
		kernel = ka.CurrentKernelID()
	}
	if cur, ok := a.table.CurrentSection(kernel); ok {
		a.table.PushSection(kernel, cur)
	}
	a.doSection(name)
}

func (a *Assembler) doPopSection() {
	kernel := symtab.KernelGlobal
	if ka, ok := a.handler.(kernelAware); ok {
		kernel = ka.CurrentKernelID()
	}
	id, err := a.table.PopSection(kernel)
	if err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
		return
	}
	if err := a.handler.SetCurrentSection(id); err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
	}
}

// doInclude opens the file named by a quoted `.include "path"` argument,
// searching a.opts.IncludePaths in order and falling back to the name as
// given, then pushes it as a new filter on top of the stack so the
// statement loop resumes inside it exactly like a macro or repeat-block
// body.
func (a *Assembler) doInclude(rest string) {
	name, err := strconv.Unquote(strings.TrimSpace(rest))
	if err != nil {
		name = strings.Trim(strings.TrimSpace(rest), `"`)
	}
	if name == "" {
		a.diags.Errorf(a.pos(), ".include requires a file name")
		return
	}
	path, f, err := a.openInclude(name)
	if err != nil {
		a.diags.Errorf(a.pos(), ".include %q: %v", name, err)
		return
	}
	origin := a.arena.AddFile(path, a.curLine.Origin, a.curLine.LineNo, a.curLine.Col)
	a.filters.Push(asmsrc.NewStreamFilter(f, origin))
}

func (a *Assembler) openInclude(name string) (string, *os.File, error) {
	if filepath.IsAbs(name) {
		f, err := os.Open(name)
		return name, f, err
	}
	for _, dir := range a.opts.IncludePaths {
		candidate := filepath.Join(dir, name)
		if f, err := os.Open(candidate); err == nil {
			return candidate, f, nil
		}
	}
	f, err := os.Open(name)
	return name, f, err
}
