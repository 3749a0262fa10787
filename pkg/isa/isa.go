/*
 * GCN instruction codec
 *
 * The encoder/decoder contract every binary format and pseudo-op handler
 * calls through. Table-driven by mnemonic (encode) or opcode (decode),
 * in the same keyed-map shape as a 370 instruction table, generalized
 * from fixed-width RR/RX/RS encodings to GCN's variable instruction
 * classes (SOP2, SOPP, ...).
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
	"fmt"

	"github.com/clrx/gcnasm/pkg/gpuid"
)

// Field enumerates the operand slots a format handler can attach a
// relocation or expression value to. Not every Field is produced by every
// instruction class; GCN.Encode reports which ones it used via FieldRef.
type Field int

const (
	FieldNone Field = iota
	SSRC0
	SSRC1
	SDST
	SIMM16
	VSRC0
	VSRC1
	VDST
	EXP_VSRC0
	EXP_VSRC1
	EXP_VSRC2
	EXP_VSRC3
)

// OperandKind distinguishes a scalar-register operand from a plain
// immediate. The partial codec below only needs these two; a fuller table
// would add vector registers, LDS, and special registers.
type OperandKind int

const (
	OperandSGPR OperandKind = iota
	OperandImm
)

// Operand is one instruction operand as handed to Encode: either an SGPR
// index or a signed 32-bit immediate.
type Operand struct {
	Kind  OperandKind
	Reg   int
	Value int64
}

// SGPR returns an SGPR operand for register index n.
func SGPR(n int) Operand { return Operand{Kind: OperandSGPR, Reg: n} }

// Imm returns an immediate operand.
func Imm(v int64) Operand { return Operand{Kind: OperandImm, Value: v} }

// Instruction is one line of assembly input to Encode: a mnemonic plus its
// operands, already resolved to concrete register/immediate values by the
// caller (the expression engine resolves symbolic operands before Encode is
// called; unresolved operands go through a relocation instead and are
// encoded as zero, with the field reported in the returned []FieldRef).
type Instruction struct {
	Mnemonic string
	Operands []Operand
}

// FieldRef reports which bits of an encoded instruction hold a given
// operand field, so format handlers and the relocation layer can patch or
// relocate it without re-decoding the instruction.
type FieldRef struct {
	Field    Field
	BitLow   int
	BitWidth int
}

// Decoded is the result of decoding one instruction.
type Decoded struct {
	Mnemonic string
	Operands []Operand
	Length   int // bytes consumed
}

// Codec is the external ISA collaborator's contract: encode assembly text
// (already parsed into an Instruction) to bytes, or decode bytes back to an
// Instruction, for a given wavefront-generation architecture.
type Codec interface {
	MaxEncodedSize(arch gpuid.Architecture) int
	Encode(arch gpuid.Architecture, insn Instruction) ([]byte, []FieldRef, error)
	Decode(arch gpuid.Architecture, data []byte, pc uint64) (Decoded, error)
}

// ErrUnknownMnemonic is returned by Encode for a mnemonic GCN does not
// implement.
var ErrUnknownMnemonic = fmt.Errorf("isa: unknown mnemonic")

// ErrShortBuffer is returned by Decode when data is too short to contain a
// full instruction word.
var ErrShortBuffer = fmt.Errorf("isa: short instruction buffer")

// ErrUnknownOpcode is returned by Decode for a bit pattern GCN does not
// recognize.
var ErrUnknownOpcode = fmt.Errorf("isa: unrecognized opcode")
