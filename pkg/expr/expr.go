/*
 * Expression trees: RPN representation and evaluation
 *
 * Expressions parse to a flat Reverse-Polish opcode stream rather than a
 * tree of pointers, the same arena-over-pointers shape pkg/sourcepos and
 * pkg/symtab use for their own data. Evaluation walks the stream with an
 * explicit value stack and folds symbol references into (section, offset)
 * pairs, so a fully-resolved expression collapses to a plain absolute
 * value and a section-relative one carries its section through to the
 * caller as a would-be relocation.
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

package expr

import (
	"errors"
	"fmt"

	"github.com/clrx/gcnasm/pkg/reloc"
	"github.com/clrx/gcnasm/pkg/symtab"
)

// Op is one Reverse-Polish opcode.
type Op uint8

const (
	OpPushValue  Op = iota // immediate integer, carried in node.Value
	OpPushSymbol           // symbol reference, carried in node.Symbol

	OpNeg    // unary -
	OpBitNot // unary ~
	OpLogNot // unary !
	OpPlus   // unary + (identity, kept so round-tripping source text is lossless)

	OpLo32 // %lo(x): low 32 bits of a 64-bit target
	OpHi32 // %hi(x): high 32 bits of a 64-bit target

	OpAdd
	OpSub
	OpMul
	OpDivS
	OpDivU
	OpModS
	OpModU

	OpShl
	OpShrS // arithmetic (signed) shift right
	OpShrU // logical (unsigned) shift right

	OpAnd
	OpOr
	OpXor
	OpOrNot // a | ~b

	OpEq
	OpNe
	OpLtS
	OpLeS
	OpGtS
	OpGeS
	OpLtU
	OpLeU
	OpGtU
	OpGeU

	OpLogAnd
	OpLogOr

	OpChoice // ternary cond ? a : b, consumes 3 operands
)

// node is one RPN stream entry. Only one of Value/Symbol is meaningful,
// selected by Op; every other Op consumes operands from the evaluation
// stack instead of carrying its own argument.
type node struct {
	Op     Op
	Value  int64
	Symbol string
}

// Expr is a parsed expression, stored as a flat RPN stream.
type Expr struct {
	nodes []node
}

// ErrDivideByZero is recorded as a diagnostic-worthy condition by Eval;
// Eval itself does not return it as an error (spec.md: division/modulo by
// zero "raises a diagnostic but yields zero" rather than aborting
// evaluation), so callers that want to surface it check DivideByZero.
var ErrDivideByZero = errors.New("expr: division or modulo by zero")

// ErrSectionMismatch is returned when two section-relative operands can't
// be combined into a single section or an absolute difference.
var ErrSectionMismatch = errors.New("expr: operands from unrelated sections")

// ErrBadChoice is returned when OpChoice's condition is section-relative.
var ErrBadChoice = errors.New("expr: ternary condition is not absolute")

// Value is an expression result: either a plain 64-bit integer (Section ==
// symtab.SectionAbs) or an offset into a real section.
type Value struct {
	Section symtab.SectionID
	Num     int64
}

// Abs returns an absolute integer Value.
func Abs(n int64) Value { return Value{Section: symtab.SectionAbs, Num: n} }

// IsAbs reports whether v is a plain integer rather than section-relative.
func (v Value) IsAbs() bool { return v.Section == symtab.SectionAbs }

// Result is what Eval produces: a Value (when fully resolved to either an
// absolute integer or a single section offset) plus relocation lowering
// information when the expression carried a %lo/%hi marker.
type Result struct {
	Value Value

	// RelocType is reloc.Value unless the expression's outermost operator
	// was %lo/%hi, in which case it is reloc.Low32Bit/reloc.High32Bit.
	RelocType reloc.Type

	// UnresolvedSymbols counts symbol references that were still
	// undefined at evaluation time. Per spec.md §4.4, an expression is
	// evaluable only if this is zero, or the expression is a difference
	// of two symbols in the same resolvable section (in which case the
	// absolute difference is still well-defined even though each symbol
	// read individually would count as unresolved here).
	UnresolvedSymbols int

	// DivideByZero is set if any division or modulo in the expression
	// divided by zero; the corresponding sub-result was folded to zero so
	// evaluation could continue.
	DivideByZero bool
}

// evalCtx carries the mutable state threaded through Eval's stack walk.
type evalCtx struct {
	tab        *symtab.Table
	unresolved int
	divByZero  bool
	relocType  reloc.Type
}

// Eval evaluates e against a symbol table, resolving symbol references to
// (section, offset) pairs via tab. Eval never returns an error for
// ordinary runtime conditions (divide-by-zero, unresolved symbols,
// unrelated-section arithmetic folds to an absolute zero with the count
// bumped); it returns an error only for a structurally malformed RPN
// stream, which indicates a parser bug rather than bad input.
func Eval(e *Expr, tab *symtab.Table) (Result, error) {
	ctx := &evalCtx{tab: tab, relocType: reloc.Value}
	stack := make([]Value, 0, len(e.nodes))

	pop := func() (Value, error) {
		if len(stack) == 0 {
			return Value{}, fmt.Errorf("expr: stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, n := range e.nodes {
		switch n.Op {
		case OpPushValue:
			stack = append(stack, Abs(n.Value))
		case OpPushSymbol:
			stack = append(stack, ctx.resolveSymbol(n.Symbol))
		case OpNeg, OpBitNot, OpLogNot, OpPlus, OpLo32, OpHi32:
			a, err := pop()
			if err != nil {
				return Result{}, err
			}
			v, err := ctx.unary(n.Op, a)
			if err != nil {
				return Result{}, err
			}
			stack = append(stack, v)
		case OpChoice:
			b, err := pop()
			if err != nil {
				return Result{}, err
			}
			a, err := pop()
			if err != nil {
				return Result{}, err
			}
			cond, err := pop()
			if err != nil {
				return Result{}, err
			}
			if !cond.IsAbs() {
				return Result{}, ErrBadChoice
			}
			if cond.Num != 0 {
				stack = append(stack, a)
			} else {
				stack = append(stack, b)
			}
		default:
			b, err := pop()
			if err != nil {
				return Result{}, err
			}
			a, err := pop()
			if err != nil {
				return Result{}, err
			}
			v, err := ctx.binary(n.Op, a, b)
			if err != nil {
				return Result{}, err
			}
			stack = append(stack, v)
		}
	}

	final, err := pop()
	if err != nil {
		return Result{}, err
	}
	if len(stack) != 0 {
		return Result{}, fmt.Errorf("expr: %d values left on stack, want 0", len(stack))
	}
	return Result{
		Value:             final,
		RelocType:         ctx.relocType,
		UnresolvedSymbols: ctx.unresolved,
		DivideByZero:      ctx.divByZero,
	}, nil
}

func (ctx *evalCtx) resolveSymbol(name string) Value {
	id, ok := ctx.tab.SymbolByName(name)
	if !ok {
		ctx.unresolved++
		return Abs(0)
	}
	sym, err := ctx.tab.Symbol(id)
	if err != nil || sym.Flags&symtab.SymDefined == 0 {
		ctx.unresolved++
		return Abs(0)
	}
	return Value{Section: sym.Section, Num: int64(sym.Offset)}
}

func (ctx *evalCtx) unary(op Op, a Value) (Value, error) {
	switch op {
	case OpPlus:
		return a, nil
	case OpNeg:
		return Value{Section: a.Section, Num: -a.Num}, nil
	case OpBitNot:
		if !a.IsAbs() {
			return Abs(0), ErrSectionMismatch
		}
		return Abs(^a.Num), nil
	case OpLogNot:
		if !a.IsAbs() {
			return Abs(0), ErrSectionMismatch
		}
		if a.Num == 0 {
			return Abs(1), nil
		}
		return Abs(0), nil
	case OpLo32:
		ctx.relocType = reloc.Low32Bit
		return Value{Section: a.Section, Num: int64(uint32(a.Num))}, nil
	case OpHi32:
		ctx.relocType = reloc.High32Bit
		return Value{Section: a.Section, Num: int64(uint32(uint64(a.Num) >> 32))}, nil
	}
	return Abs(0), fmt.Errorf("expr: unhandled unary op %d", op)
}

// binary implements every binary operator. Operands that are both
// section-relative collapse to an absolute difference only for additive
// operators on the same section (spec.md §4.4's "resolvable-diff"
// invariant); any other section-relative combination reports
// ErrSectionMismatch rather than silently discarding the section.
func (ctx *evalCtx) binary(op Op, a, b Value) (Value, error) {
	if op == OpSub && !a.IsAbs() && !b.IsAbs() {
		if a.Section != b.Section {
			return Abs(0), ErrSectionMismatch
		}
		return Abs(a.Num - b.Num), nil
	}
	if op == OpAdd && !a.IsAbs() && !b.IsAbs() {
		return Abs(0), ErrSectionMismatch
	}

	// Any other binary op with a section-relative operand keeps that
	// operand's section for + and the plain arithmetic identity offset
	// math for comparisons; every other combination is resolved on the
	// absolute numeric value and the result inherits whichever operand
	// (if either) is section-relative, matching a symbol + constant
	// offset computation.
	var section symtab.SectionID = symtab.SectionAbs
	switch {
	case !a.IsAbs():
		section = a.Section
	case !b.IsAbs():
		section = b.Section
	}

	x, y := a.Num, b.Num
	switch op {
	case OpAdd:
		return Value{Section: section, Num: x + y}, nil
	case OpMul:
		return Abs(x * y), nil
	case OpDivS:
		if y == 0 {
			ctx.divByZero = true
			return Abs(0), nil
		}
		return Abs(x / y), nil
	case OpDivU:
		if y == 0 {
			ctx.divByZero = true
			return Abs(0), nil
		}
		return Abs(int64(uint64(x) / uint64(y))), nil
	case OpModS:
		if y == 0 {
			ctx.divByZero = true
			return Abs(0), nil
		}
		return Abs(x % y), nil
	case OpModU:
		if y == 0 {
			ctx.divByZero = true
			return Abs(0), nil
		}
		return Abs(int64(uint64(x) % uint64(y))), nil
	case OpShl:
		return Abs(x << (uint(y) % 64)), nil
	case OpShrS:
		return Abs(x >> (uint(y) % 64)), nil
	case OpShrU:
		return Abs(int64(uint64(x) >> (uint(y) % 64))), nil
	case OpAnd:
		return Abs(x & y), nil
	case OpOr:
		return Abs(x | y), nil
	case OpXor:
		return Abs(x ^ y), nil
	case OpOrNot:
		return Abs(x | ^y), nil
	case OpEq:
		return Abs(boolInt(x == y)), nil
	case OpNe:
		return Abs(boolInt(x != y)), nil
	case OpLtS:
		return Abs(boolInt(x < y)), nil
	case OpLeS:
		return Abs(boolInt(x <= y)), nil
	case OpGtS:
		return Abs(boolInt(x > y)), nil
	case OpGeS:
		return Abs(boolInt(x >= y)), nil
	case OpLtU:
		return Abs(boolInt(uint64(x) < uint64(y))), nil
	case OpLeU:
		return Abs(boolInt(uint64(x) <= uint64(y))), nil
	case OpGtU:
		return Abs(boolInt(uint64(x) > uint64(y))), nil
	case OpGeU:
		return Abs(boolInt(uint64(x) >= uint64(y))), nil
	case OpLogAnd:
		return Abs(boolInt(x != 0 && y != 0)), nil
	case OpLogOr:
		return Abs(boolInt(x != 0 || y != 0)), nil
	}
	return Abs(0), fmt.Errorf("expr: unhandled binary op %d", op)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Lower turns a %lo/%hi Result into a relocation record anchored at
// (section, offset), when the result is still section-relative (i.e. was
// not fully resolved to an absolute value). It is a no-op convenience for
// format handlers that otherwise would duplicate this branch themselves.
func (r Result) Lower(targetSection symtab.SectionID, targetOffset uint64, symbolID int32) (reloc.Reloc, bool) {
	if r.Value.IsAbs() {
		return reloc.Reloc{}, false
	}
	return reloc.Reloc{
		Section: int32(targetSection),
		Offset:  targetOffset,
		Type:    r.RelocType,
		Symbol:  symbolID,
		Addend:  r.Value.Num,
	}, true
}
