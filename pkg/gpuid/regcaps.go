/*
 * GPU register capacity tables
 *
 * Maximum register counts and extra-register accounting per
 * architecture, mirrored from the reference GPU-ID tables.
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

package gpuid

// RegType selects which register file a cap/accounting query is about.
type RegType int

const (
	RegSGPR RegType = iota
	RegVGPR
)

// Extra-register accounting flags, ported from GPUId.h's REGCOUNT_* enum.
const (
	RegCountNoVCC   = 1 << iota // subtract the 2 VCC registers
	RegCountNoFlat              // subtract FLAT_SCRATCH's registers
	RegCountNoXNACK             // subtract XNACK_MASK's registers
	RegCountNoExtra = 0xffff
)

// MaxRegisters returns the maximum register count available for regType on
// architecture arch, after subtracting any extra special registers named by
// flags. Values and subtraction rules are ported from
// getGPUMaxRegistersNum in the original project's utils/GPUId.cpp.
func MaxRegisters(arch Architecture, regType RegType, flags int) int {
	if regType == RegVGPR {
		return 256
	}
	maxSgprs := 104
	if arch >= GCN1_2 {
		maxSgprs = 102
	}
	switch {
	case flags&RegCountNoFlat != 0 && arch > GCN1_0:
		if arch >= GCN1_2 {
			maxSgprs -= 6
		} else {
			maxSgprs -= 4
		}
	case flags&RegCountNoXNACK != 0 && arch > GCN1_1:
		maxSgprs -= 4
	case flags&RegCountNoVCC != 0:
		maxSgprs -= 2
	}
	return maxSgprs
}

// Extra-register-usage flags, ported from GPUId.h's GCN_VCC/FLAT/XNACK.
const (
	UseVCC = 1 << iota
	UseFlat
	UseXNACK
)

// ExtraRegisters returns how many extra SGPRs are reserved by the
// VCC/FLAT/XNACK usage flags on architecture arch, matching
// getGPUExtraRegsNum. VGPRs never reserve extras.
func ExtraRegisters(arch Architecture, regType RegType, flags int) int {
	if regType == RegVGPR {
		return 0
	}
	switch {
	case flags&UseFlat != 0 && arch > GCN1_0:
		if arch >= GCN1_2 {
			return 6
		}
		return 4
	case flags&UseXNACK != 0 && arch > GCN1_1:
		return 4
	case flags&UseVCC != 0:
		return 2
	}
	return 0
}

// MaxLocalSize is the per-architecture maximum LDS size in bytes. The
// original project returns a single constant for all architectures.
func MaxLocalSize(Architecture) int { return 32768 }

// MaxGDSSize is the per-architecture maximum GDS size in bytes.
func MaxGDSSize(Architecture) int { return 65536 }
