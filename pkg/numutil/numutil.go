/*
 * Numeric literal parsing and conversion
 *
 * Decimal/octal/hex/binary integer parsing with overflow detection,
 * floating point and half-float (binary16) conversion, and C-style
 * character escape handling shared by the expression engine and the
 * assembler's literal scanner.
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

package numutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrOutOfRange is returned when a parsed literal does not fit the
// requested width.
var ErrOutOfRange = errors.New("numutil: value out of range")

// ErrSyntax is returned when the input is not a recognizable numeric
// literal.
var ErrSyntax = errors.New("numutil: invalid numeric syntax")

// ParseUint parses a C-style unsigned literal: decimal, 0-prefixed octal,
// 0x/0X hexadecimal, or 0b/0B binary. It returns the value and the number of
// bytes of s it consumed. bits selects the result width for range checking
// (8, 16, 32 or 64).
func ParseUint(s string, bits int) (uint64, int, error) {
	if s == "" {
		return 0, 0, ErrSyntax
	}
	base := 10
	start := 0
	if s[0] == '0' && len(s) > 1 {
		switch s[1] {
		case 'x', 'X':
			base = 16
			start = 2
		case 'b', 'B':
			base = 2
			start = 2
		default:
			base = 8
			start = 1
		}
	}
	i := start
	digitOf := func(c byte) int {
		switch {
		case c >= '0' && c <= '9':
			return int(c - '0')
		case c >= 'a' && c <= 'f':
			return int(c-'a') + 10
		case c >= 'A' && c <= 'F':
			return int(c-'A') + 10
		default:
			return -1
		}
	}
	var val uint64
	digits := 0
	for i < len(s) {
		d := digitOf(s[i])
		if d < 0 || d >= base {
			break
		}
		nval := val*uint64(base) + uint64(d)
		if nval < val && val != 0 {
			return 0, 0, ErrOutOfRange
		}
		val = nval
		digits++
		i++
	}
	if digits == 0 {
		// A bare "0" (octal prefix with no further digits) is valid zero.
		if start == 1 && base == 8 {
			return 0, 1, nil
		}
		return 0, 0, ErrSyntax
	}
	if bits < 64 {
		limit := uint64(1) << uint(bits)
		if val >= limit {
			return 0, 0, ErrOutOfRange
		}
	}
	return val, i, nil
}

// ParseInt parses a C-style signed literal: an optional leading '-' or '+'
// followed by the same unsigned forms ParseUint accepts.
func ParseInt(s string, bits int) (int64, int, error) {
	neg := false
	start := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		start = 1
	}
	uval, n, err := ParseUint(s[start:], bits)
	if err != nil {
		return 0, 0, err
	}
	limit := uint64(1) << uint(bits-1)
	if neg {
		if uval > limit {
			return 0, 0, ErrOutOfRange
		}
		return -int64(uval), start + n, nil
	}
	if uval >= limit {
		return 0, 0, ErrOutOfRange
	}
	return int64(uval), start + n, nil
}

// ParseFloat32 parses a C-style single-precision literal, rounding to
// nearest even as strconv.ParseFloat already guarantees for float32.
func ParseFloat32(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, fmt.Errorf("numutil: %w", ErrSyntax)
	}
	return float32(v), nil
}

// ParseFloat64 parses a C-style double-precision literal.
func ParseFloat64(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("numutil: %w", ErrSyntax)
	}
	return v, nil
}

// ParseHalf parses a literal into an IEEE-754 binary16 value, rounding the
// intermediate float32 to nearest-even 16-bit mantissa/exponent.
func ParseHalf(s string) (uint16, error) {
	f, err := ParseFloat32(s)
	if err != nil {
		return 0, err
	}
	return Float32ToHalf(f), nil
}

// Float32ToHalf rounds f to the nearest representable IEEE-754 binary16
// value (round to nearest, ties to even), matching the original project's
// documented rounding behavior for float literals assembled into half-type
// operands.
func Float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16((bits >> 16) & 0x8000)
	exp := int32((bits>>23)&0xff) - 127 + 15
	mant := bits & 0x7fffff

	switch {
	case (bits&0x7fffffff) == 0:
		return sign
	case exp >= 0x1f:
		// Overflow/NaN/Inf: saturate to infinity, preserve NaN payload bit.
		if (bits & 0x7f800000) == 0x7f800000 && mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00
	case exp <= 0:
		if exp < -10 {
			return sign
		}
		mant |= 0x800000
		shift := uint(14 - exp)
		halfMant := mant >> shift
		roundBit := uint32(1) << (shift - 1)
		rem := mant & ((roundBit << 1) - 1)
		if rem > roundBit || (rem == roundBit && halfMant&1 == 1) {
			halfMant++
		}
		return sign | uint16(halfMant)
	default:
		halfMant := mant >> 13
		rem := mant & 0x1fff
		if rem > 0x1000 || (rem == 0x1000 && halfMant&1 == 1) {
			halfMant++
			if halfMant == 0x400 {
				halfMant = 0
				exp++
			}
		}
		if exp >= 0x1f {
			return sign | 0x7c00
		}
		return sign | uint16(exp)<<10 | uint16(halfMant)
	}
}

// EscapeChar decodes a single C-style escape sequence starting at s[0]=='\\'.
// It returns the decoded byte and the number of bytes of s consumed
// (including the backslash). Supported forms: \a \b \t \n \v \f \r \\ \' \"
// \0, octal \NNN (1-3 digits), and hex \xHH.
func EscapeChar(s string) (byte, int, error) {
	if len(s) < 2 || s[0] != '\\' {
		return 0, 0, ErrSyntax
	}
	switch s[1] {
	case 'a':
		return '\a', 2, nil
	case 'b':
		return '\b', 2, nil
	case 't':
		return '\t', 2, nil
	case 'n':
		return '\n', 2, nil
	case 'v':
		return '\v', 2, nil
	case 'f':
		return '\f', 2, nil
	case 'r':
		return '\r', 2, nil
	case '\\':
		return '\\', 2, nil
	case '\'':
		return '\'', 2, nil
	case '"':
		return '"', 2, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := 1
		val := 0
		for n < 4 && n-1 < len(s)-1 && s[1+n-1] >= '0' && s[1+n-1] <= '7' {
			val = val*8 + int(s[1+n-1]-'0')
			n++
		}
		if val > 0xff {
			return 0, 0, ErrOutOfRange
		}
		return byte(val), 1 + n, nil
	case 'x':
		i := 2
		val := 0
		digits := 0
		for i < len(s) {
			c := s[i]
			var d int
			switch {
			case c >= '0' && c <= '9':
				d = int(c - '0')
			case c >= 'a' && c <= 'f':
				d = int(c-'a') + 10
			case c >= 'A' && c <= 'F':
				d = int(c-'A') + 10
			default:
				goto done
			}
			val = val*16 + d
			digits++
			i++
		}
	done:
		if digits == 0 || val > 0xff {
			return 0, 0, ErrSyntax
		}
		return byte(val), i, nil
	default:
		return 0, 0, ErrSyntax
	}
}

// UnescapeCString decodes all escapes in s, returning the raw byte sequence.
func UnescapeCString(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' {
			c, n, err := EscapeChar(s[i:])
			if err != nil {
				return nil, err
			}
			out = append(out, c)
			i += n
			continue
		}
		out = append(out, s[i])
		i++
	}
	return out, nil
}
