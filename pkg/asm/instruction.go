/*
 * Instruction assembly
 *
 * Parses a mnemonic's comma-separated operand list into isa.Operand
 * values and drives the ISA codec to encode them. An operand that is a
 * bare, still-undefined symbol name is deferred as a relocation rather
 * than rejected, matching the way the rest of the pipeline treats
 * forward references; an operand that is a more general unresolved
 * expression is reported, since the ISA codec here only exposes whole
 * encoded words to patch, not a symbolic-operand slot to defer more
 * generally (spec.md §6 treats the ISA codec as an opaque, partial
 * collaborator).
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
	"strconv"
	"strings"

	"github.com/clrx/gcnasm/pkg/isa"
	"github.com/clrx/gcnasm/pkg/reloc"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// pendingReloc records an operand that encoded as zero because its
// symbol wasn't yet defined, so instruction can attach a relocation once
// the encoded bytes (and the ISA codec's field references) are known.
type pendingReloc struct {
	symbol    symtab.SymbolID
	relocType reloc.Type
}

func (a *Assembler) instruction(mnemonic, rest string) {
	args := splitArgs(rest)
	ops := make([]isa.Operand, 0, len(args))
	pendings := make([]*pendingReloc, 0, len(args))
	for _, part := range args {
		if part == "" {
			continue
		}
		op, pr := a.parseOperand(part)
		ops = append(ops, op)
		pendings = append(pendings, pr)
	}

	insn := isa.Instruction{Mnemonic: strings.ToLower(mnemonic), Operands: ops}
	data, refs, err := a.isaCVar.Encode(a.opts.Arch, insn)
	if err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
		return
	}

	kernel := symtab.KernelGlobal
	if ka, ok := a.handler.(kernelAware); ok {
		kernel = ka.CurrentKernelID()
	}
	sec, ok := a.table.CurrentSection(kernel)
	if !ok {
		a.diags.Errorf(a.pos(), "no current section to assemble %q into", mnemonic)
		return
	}
	section, err := a.table.Section(sec)
	if err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
		return
	}
	baseOffset := uint64(len(section.Data))
	a.currentSectionAppend(data)

	for i, pr := range pendings {
		if pr == nil {
			continue
		}
		fieldOffset := baseOffset
		if len(refs) == len(ops) {
			fieldOffset = baseOffset + uint64(refs[i].BitLow/8)
		}
		_ = a.table.AddRelocation(sec, reloc.Reloc{
			Section: int32(sec),
			Offset:  fieldOffset,
			Type:    pr.relocType,
			Symbol:  int32(pr.symbol),
		})
	}
}

// parseOperand recognizes an `sN` scalar-register operand; everything
// else goes through the expression engine, with a bare still-undefined
// identifier deferred as a relocation rather than an error.
func (a *Assembler) parseOperand(text string) (isa.Operand, *pendingReloc) {
	text = strings.TrimSpace(text)
	if len(text) > 1 && (text[0] == 's' || text[0] == 'S') {
		if n, err := strconv.Atoi(text[1:]); err == nil {
			return isa.SGPR(n), nil
		}
	}

	r := a.evalExpr(text)
	if r.UnresolvedSymbols > 0 {
		if isBareIdent(text) {
			id := a.table.InternSymbol(text)
			return isa.Imm(0), &pendingReloc{symbol: id, relocType: r.RelocType}
		}
		a.diags.Errorf(a.pos(), "forward-reference expression %q is not supported as an instruction operand", text)
		return isa.Imm(0), nil
	}
	return isa.Imm(r.Value.Num), nil
}

func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isIdentByte(s[i], i == 0) {
			return false
		}
	}
	return true
}
