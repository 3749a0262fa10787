/*
 * Expression tokenizer and precedence-climbing parser
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
	"fmt"
	"strings"

	"github.com/clrx/gcnasm/pkg/numutil"
)

type tokKind int

const (
	tokEOF tokKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokQuestion
	tokColon
)

type token struct {
	kind  tokKind
	text  string
	value int64 // for tokNumber
}

// tokenize splits s into the token stream the parser consumes. Operators
// are matched longest-spelling-first so multi-character spellings (">>u",
// "<=", "|~", "&&") never get split into their single-character prefixes.
func tokenize(s string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokLParen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen})
			i++
		case c == '?':
			toks = append(toks, token{kind: tokQuestion})
			i++
		case c == ':':
			toks = append(toks, token{kind: tokColon})
			i++
		case c == '\'':
			v, n, err := scanCharLiteral(s[i:])
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, value: v})
			i += n
		case isDigit(c):
			v, n, err := numutil.ParseUint(s[i:], 64)
			if err != nil {
				return nil, fmt.Errorf("expr: bad numeric literal at %q: %w", s[i:], err)
			}
			toks = append(toks, token{kind: tokNumber, value: int64(v)})
			i += n
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentCont(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		default:
			op, n := matchOperator(s[i:])
			if n == 0 {
				return nil, fmt.Errorf("expr: unexpected character %q", c)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i += n
		}
	}
	toks = append(toks, token{kind: tokEOF})
	return toks, nil
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func scanCharLiteral(s string) (int64, int, error) {
	if len(s) < 3 || s[0] != '\'' {
		return 0, 0, fmt.Errorf("expr: malformed character literal")
	}
	if s[1] == '\\' {
		b, n, err := numutil.EscapeChar(s[1:])
		if err != nil {
			return 0, 0, err
		}
		if 1+n >= len(s) || s[1+n] != '\'' {
			return 0, 0, fmt.Errorf("expr: unterminated character literal")
		}
		return int64(b), 1 + n + 1, nil
	}
	if s[2] != '\'' {
		return 0, 0, fmt.Errorf("expr: unterminated character literal")
	}
	return int64(s[1]), 3, nil
}

// operatorSpellings is ordered longest-first within each shared prefix so
// matchOperator's linear scan never matches a short spelling that is a
// prefix of a longer one.
var operatorSpellings = []string{
	"<<", ">>u", ">>", "<=u", "<=", ">=u", ">=", "<u", "<", ">u", ">",
	"==", "!=", "&&", "||", "|~", "+", "-", "*", "/u", "/", "%u", "%",
	"&", "|", "^", "~", "!",
}

func matchOperator(s string) (string, int) {
	for _, op := range operatorSpellings {
		if strings.HasPrefix(s, op) {
			return op, len(op)
		}
	}
	return "", 0
}

// binOp maps an operator spelling to its RPN opcode and binding
// precedence (higher binds tighter), per spec.md §4.4's precedence table:
// CHOICE < logical-or < logical-and < bitwise-or/xor/ornot < bitwise-and <
// equality/comparison < shift < additive < multiplicative.
type binOp struct {
	op   Op
	prec int
}

var binOps = map[string]binOp{
	"||":  {OpLogOr, 1},
	"&&":  {OpLogAnd, 2},
	"|":   {OpOr, 3},
	"^":   {OpXor, 3},
	"|~":  {OpOrNot, 3},
	"&":   {OpAnd, 4},
	"==":  {OpEq, 5},
	"!=":  {OpNe, 5},
	"<":   {OpLtS, 5},
	"<=":  {OpLeS, 5},
	">":   {OpGtS, 5},
	">=":  {OpGeS, 5},
	"<u":  {OpLtU, 5},
	"<=u": {OpLeU, 5},
	">u":  {OpGtU, 5},
	">=u": {OpGeU, 5},
	"<<":  {OpShl, 6},
	">>":  {OpShrS, 6},
	">>u": {OpShrU, 6},
	"+":   {OpAdd, 7},
	"-":   {OpSub, 7},
	"*":   {OpMul, 8},
	"/":   {OpDivS, 8},
	"/u":  {OpDivU, 8},
	"%":   {OpModS, 8},
	"%u":  {OpModU, 8},
}

const choicePrec = 0

var unaryOps = map[string]Op{
	"-": OpNeg,
	"~": OpBitNot,
	"!": OpLogNot,
	"+": OpPlus,
}

// parser is a precedence-climbing recursive-descent parser; it appends
// directly into e.nodes in postorder (RPN) as each subexpression reduces,
// so no intermediate tree is ever built.
type parser struct {
	toks []token
	pos  int
	e    *Expr
}

// Parse parses s into an Expr. lo32(...) and hi32(...) are recognized as
// function-call syntax ahead of the precedence table (they bind like a
// primary, tighter than any operator).
func Parse(s string) (*Expr, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, e: &Expr{}}
	if err := p.parseChoice(); err != nil {
		return nil, err
	}
	if p.cur().kind != tokEOF {
		return nil, fmt.Errorf("expr: unexpected trailing token %q", p.cur().text)
	}
	return p.e, nil
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// parseChoice handles the lowest-precedence ternary: cond ? a : b.
func (p *parser) parseChoice() error {
	if err := p.parseBinary(1); err != nil {
		return err
	}
	if p.cur().kind == tokQuestion {
		p.advance()
		if err := p.parseChoice(); err != nil {
			return err
		}
		if p.cur().kind != tokColon {
			return fmt.Errorf("expr: expected ':' in ternary expression")
		}
		p.advance()
		if err := p.parseChoice(); err != nil {
			return err
		}
		p.e.nodes = append(p.e.nodes, node{Op: OpChoice})
	}
	return nil
}

// parseBinary implements precedence climbing: it parses a unary operand,
// then repeatedly consumes binary operators whose precedence is >= minPrec,
// recursing with minPrec+1 for the right-hand side (left-associative).
func (p *parser) parseBinary(minPrec int) error {
	if err := p.parseUnary(); err != nil {
		return err
	}
	for {
		t := p.cur()
		if t.kind != tokOp {
			return nil
		}
		bo, ok := binOps[t.text]
		if !ok || bo.prec < minPrec {
			return nil
		}
		p.advance()
		if err := p.parseBinary(bo.prec + 1); err != nil {
			return err
		}
		p.e.nodes = append(p.e.nodes, node{Op: bo.op})
	}
}

func (p *parser) parseUnary() error {
	t := p.cur()
	if t.kind == tokOp {
		if op, ok := unaryOps[t.text]; ok {
			p.advance()
			if err := p.parseUnary(); err != nil {
				return err
			}
			p.e.nodes = append(p.e.nodes, node{Op: op})
			return nil
		}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() error {
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.advance()
		p.e.nodes = append(p.e.nodes, node{Op: OpPushValue, Value: t.value})
		return nil
	case tokIdent:
		p.advance()
		if t.text == "lo32" || t.text == "hi32" {
			if p.cur().kind != tokLParen {
				return fmt.Errorf("expr: expected '(' after %s", t.text)
			}
			p.advance()
			if err := p.parseChoice(); err != nil {
				return err
			}
			if p.cur().kind != tokRParen {
				return fmt.Errorf("expr: expected ')' to close %s(...)", t.text)
			}
			p.advance()
			op := OpLo32
			if t.text == "hi32" {
				op = OpHi32
			}
			p.e.nodes = append(p.e.nodes, node{Op: op})
			return nil
		}
		p.e.nodes = append(p.e.nodes, node{Op: OpPushSymbol, Symbol: t.text})
		return nil
	case tokLParen:
		p.advance()
		if err := p.parseChoice(); err != nil {
			return err
		}
		if p.cur().kind != tokRParen {
			return fmt.Errorf("expr: expected ')'")
		}
		p.advance()
		return nil
	default:
		return fmt.Errorf("expr: unexpected token %q", t.text)
	}
}
