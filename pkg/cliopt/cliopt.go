/*
 * Tagged-sum CLI option values
 *
 * The assembler and disassembler front ends accept a grab-bag of flag
 * types (booleans, small integers in several notations, strings, and
 * repeatable strings such as -D/-I). Rather than a union of raw pointers
 * keyed by a type tag, every parsed option value here is one Go struct
 * carrying its own Kind; accessors return a second "ok" bool instead of
 * panicking on a kind mismatch, the same shape as a map lookup.
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

package cliopt

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which field of a Value is live.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt64
	KindUint64
	KindFloat64
	KindString
	KindStringSlice
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindStringSlice:
		return "[]string"
	default:
		return "invalid"
	}
}

// Value is a runtime-tagged union of the option value shapes the CLI
// surfaces need. The zero Value has KindInvalid.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	ss   []string
}

func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Int64(i int64) Value       { return Value{kind: KindInt64, i: i} }
func Uint64(u uint64) Value     { return Value{kind: KindUint64, u: u} }
func Float64(f float64) Value   { return Value{kind: KindFloat64, f: f} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func StringSlice(ss []string) Value {
	cp := append([]string(nil), ss...)
	return Value{kind: KindStringSlice, ss: cp}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) Bool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) Int64() (int64, bool)   { return v.i, v.kind == KindInt64 }
func (v Value) Uint64() (uint64, bool) { return v.u, v.kind == KindUint64 }
func (v Value) Float64() (float64, bool) { return v.f, v.kind == KindFloat64 }
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindUint64:
		return strconv.FormatUint(v.u, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindStringSlice:
		return strings.Join(v.ss, ",")
	default:
		return ""
	}
}
func (v Value) StringValue() (string, bool) { return v.s, v.kind == KindString }
func (v Value) StringSliceValue() ([]string, bool) {
	return append([]string(nil), v.ss...), v.kind == KindStringSlice
}

// Append grows a KindStringSlice value in place, adopting that kind if
// the receiver was KindInvalid. This backs repeatable flags such as -D
// and -I, which pflag feeds one Set call per occurrence.
func (v *Value) Append(s string) error {
	if v.kind != KindInvalid && v.kind != KindStringSlice {
		return fmt.Errorf("cliopt: cannot append to a %s value", v.kind)
	}
	v.kind = KindStringSlice
	v.ss = append(v.ss, s)
	return nil
}

// ParseInt parses a signed integer in decimal, 0-prefixed octal, 0x hex
// or 0b binary notation, raising an error if it does not fit in bits.
func ParseInt(s string, bits int) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("cliopt: %q is not a valid %d-bit integer: %w", s, bits, err)
	}
	return n, nil
}

// ParseUint parses an unsigned integer in the same notations as
// ParseInt, raising an error if it does not fit in bits.
func ParseUint(s string, bits int) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("cliopt: %q is not a valid unsigned %d-bit integer: %w", s, bits, err)
	}
	return n, nil
}

// Define is a parsed -D NAME[=VALUE] occurrence. VALUE defaults to "1"
// when the flag carries no '=', matching the convention's typical use
// as a boolean predefine.
type Define struct {
	Name  string
	Value string
}

// ParseDefine splits a -D argument into its name and value.
func ParseDefine(s string) (Define, error) {
	if s == "" {
		return Define{}, fmt.Errorf("cliopt: empty -D argument")
	}
	if eq := strings.IndexByte(s, '='); eq >= 0 {
		return Define{Name: s[:eq], Value: s[eq+1:]}, nil
	}
	return Define{Name: s, Value: "1"}, nil
}
