/*
 * GCN concrete codec
 *
 * The one Codec implementation this module ships: a deliberately small
 * slice of SOP2 and SOPP covering s_add_u32, s_sub_u32, s_and_b32,
 * s_or_b32 and s_waitcnt, enough to exercise every testable property
 * against real instruction words.
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

import (
	"github.com/clrx/gcnasm/pkg/bytele"
	"github.com/clrx/gcnasm/pkg/gpuid"
)

// sop2Op describes one SOP2 mnemonic: its 7-bit opcode field and operand
// count (GCN.sop2 only implements 3-operand dst,src0,src1 forms).
type sop2Op struct {
	opcode int
}

// sop2Map is keyed by mnemonic for Encode and by opcode for Decode, the
// same dual-keying split the disassembler/assembler pair uses. Opcodes
// below are the real GCN1.0 SOP2 assignments (s_add_u32=0, s_sub_u32=1,
// s_and_b32=14, s_or_b32=16).
var sop2Map = map[string]sop2Op{
	"s_add_u32": {opcode: 0x00},
	"s_sub_u32": {opcode: 0x01},
	"s_and_b32": {opcode: 0x0e},
	"s_or_b32":  {opcode: 0x10},
}

var sop2ByOpcode = func() map[int]string {
	m := make(map[int]string, len(sop2Map))
	for name, op := range sop2Map {
		m[op.opcode] = name
	}
	return m
}()

const (
	sop2ClassBits = 0b10 // bits[31:30]
	soppClassBits = 0x17f
	soppWaitcnt   = 0x0c
)

// GCN is the one concrete Codec this module implements.
type GCN struct{}

// MaxEncodedSize reports the longest instruction word this codec can
// produce; every instruction it knows about is a plain 32-bit word (no
// literal-constant suffix dword).
func (GCN) MaxEncodedSize(arch gpuid.Architecture) int {
	return 4
}

// Encode implements Codec.
func (GCN) Encode(arch gpuid.Architecture, insn Instruction) ([]byte, []FieldRef, error) {
	if insn.Mnemonic == "s_waitcnt" {
		return encodeWaitcnt(insn)
	}
	if op, ok := sop2Map[insn.Mnemonic]; ok {
		return encodeSOP2(op, insn)
	}
	return nil, nil, ErrUnknownMnemonic
}

func encodeSOP2(op sop2Op, insn Instruction) ([]byte, []FieldRef, error) {
	if len(insn.Operands) != 3 {
		return nil, nil, ErrUnknownMnemonic
	}
	sdst := insn.Operands[0]
	ssrc0 := insn.Operands[1]
	ssrc1 := insn.Operands[2]

	word := uint32(sop2ClassBits)<<30 | uint32(op.opcode&0x7f)<<23 |
		uint32(sdst.Reg&0x7f)<<16 | uint32(ssrc1.Reg&0xff)<<8 | uint32(ssrc0.Reg&0xff)

	refs := []FieldRef{
		{Field: SDST, BitLow: 16, BitWidth: 7},
		{Field: SSRC1, BitLow: 8, BitWidth: 8},
		{Field: SSRC0, BitLow: 0, BitWidth: 8},
	}

	b := bytele.NewWriter()
	b.U32(word)
	return b.Bytes(), refs, nil
}

// Decode implements Codec.
func (GCN) Decode(arch gpuid.Architecture, data []byte, pc uint64) (Decoded, error) {
	if len(data) < 4 {
		return Decoded{}, ErrShortBuffer
	}
	word := bytele.Get32(data, 0)
	top9 := word >> 23

	if top9 == soppClassBits {
		opcode := int((word >> 16) & 0x7f)
		if opcode == soppWaitcnt {
			return decodeWaitcnt(word)
		}
		return Decoded{}, ErrUnknownOpcode
	}

	classBits := word >> 30
	if classBits == sop2ClassBits {
		opcode := int((word >> 23) & 0x7f)
		name, ok := sop2ByOpcode[opcode]
		if !ok {
			return Decoded{}, ErrUnknownOpcode
		}
		sdst := int((word >> 16) & 0x7f)
		ssrc1 := int((word >> 8) & 0xff)
		ssrc0 := int(word & 0xff)
		return Decoded{
			Mnemonic: name,
			Operands: []Operand{SGPR(sdst), SGPR(ssrc0), SGPR(ssrc1)},
			Length:   4,
		}, nil
	}

	return Decoded{}, ErrUnknownOpcode
}
