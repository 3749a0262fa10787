/*
 * s_waitcnt packed-counter syntax
 *
 * The wait-counter enumeration named in the ISA codec contract: vmcnt,
 * expcnt and lgkmcnt packed into one SOPP simm16, joined in source with
 * "&" (vmcnt(N) & expcnt(N) & lgkmcnt(N)). Any counter omitted from the
 * instruction defaults to its all-bits-set "don't wait" value.
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

package isa

import "github.com/clrx/gcnasm/pkg/bytele"

// Default "don't wait" values for each counter, used when the source
// omits a counter from the vmcnt/expcnt/lgkmcnt & chain.
const (
	vmcntMax   = 0xf
	expcntMax  = 0x7
	lgkmcntMax = 0xf

	vmcntMask   = 0xf
	expcntShift = 4
	expcntMask  = 0x7
	lgkmShift   = 8
	lgkmMask    = 0xf
)

// Waitcnt holds the three packed counters for an s_waitcnt instruction.
// HasVmcnt/HasExpcnt/HasLgkmcnt record whether the source specified that
// counter explicitly (false leaves it at its max "don't wait" value).
type Waitcnt struct {
	Vmcnt, Expcnt, Lgkmcnt          int
	HasVmcnt, HasExpcnt, HasLgkmcnt bool
}

// Pack returns the 16-bit simm16 for these counters.
func (w Waitcnt) Pack() uint16 {
	vmcnt, expcnt, lgkmcnt := vmcntMax, expcntMax, lgkmcntMax
	if w.HasVmcnt {
		vmcnt = w.Vmcnt
	}
	if w.HasExpcnt {
		expcnt = w.Expcnt
	}
	if w.HasLgkmcnt {
		lgkmcnt = w.Lgkmcnt
	}
	return uint16(vmcnt&vmcntMask) | uint16(expcnt&expcntMask)<<expcntShift | uint16(lgkmcnt&lgkmMask)<<lgkmShift
}

// UnpackWaitcnt splits a simm16 back into its three counters. A counter is
// reported as "Has" only if it differs from its max/don't-wait value,
// matching how the disassembler prints only the counters actually
// constraining the wave.
func UnpackWaitcnt(simm16 uint16) Waitcnt {
	vmcnt := int(simm16 & vmcntMask)
	expcnt := int((simm16 >> expcntShift) & expcntMask)
	lgkmcnt := int((simm16 >> lgkmShift) & lgkmMask)
	return Waitcnt{
		Vmcnt: vmcnt, HasVmcnt: vmcnt != vmcntMax,
		Expcnt: expcnt, HasExpcnt: expcnt != expcntMax,
		Lgkmcnt: lgkmcnt, HasLgkmcnt: lgkmcnt != lgkmcntMax,
	}
}

// encodeWaitcnt encodes an s_waitcnt instruction whose sole operand is an
// OperandImm carrying a pre-packed Waitcnt.Pack() value (callers above the
// codec layer, e.g. the pseudo-op handler for SOPP syntax, do the
// vmcnt/expcnt/lgkmcnt parsing and call Waitcnt.Pack themselves).
func encodeWaitcnt(insn Instruction) ([]byte, []FieldRef, error) {
	var simm16 uint16
	if len(insn.Operands) == 1 && insn.Operands[0].Kind == OperandImm {
		simm16 = uint16(insn.Operands[0].Value)
	} else {
		simm16 = Waitcnt{}.Pack()
	}
	word := uint32(soppClassBits)<<23 | uint32(soppWaitcnt&0x7f)<<16 | uint32(simm16)
	b := bytele.NewWriter()
	b.U32(word)
	return b.Bytes(), []FieldRef{{Field: SIMM16, BitLow: 0, BitWidth: 16}}, nil
}

func decodeWaitcnt(word uint32) (Decoded, error) {
	simm16 := uint16(word & 0xffff)
	return Decoded{
		Mnemonic: "s_waitcnt",
		Operands: []Operand{Imm(int64(simm16))},
		Length:   4,
	}, nil
}
