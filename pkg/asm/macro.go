/*
 * Macro and repetition-block control flow
 *
 * `.macro`/`.endm`, `.rept`/`.irp`/`.irpc`/`.for`/`.endr` all collect a
 * raw, unexpanded line range from the input first, then hand it to the
 * matching pkg/asmsrc filter and push that filter on top of the stack so
 * the statement loop resumes inside it exactly like any other nested
 * source.
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

	"github.com/clrx/gcnasm/pkg/asmsrc"
	"github.com/clrx/gcnasm/pkg/expr"
)

// reptOpeners names every directive that, like .rept itself, terminates
// with a bare .endr, so collectBlock can track nesting depth across any
// mix of them.
var reptOpeners = map[string]bool{"rept": true, "irp": true, "irpc": true, "for": true}

// collectBlock reads raw (unexpanded) lines from the current top filter
// until a line at nesting depth 0 whose directive is terminator; lines
// whose directive is in openers increase the depth, so a nested block of
// the same terminator-family is skipped over rather than ending the
// outer one prematurely.
func (a *Assembler) collectBlock(openers map[string]bool, terminator string) []string {
	depth := 0
	var body []string
	for {
		line, ok, err := a.filters.NextLine()
		if err != nil || !ok {
			a.diags.Errorf(a.pos(), "unexpected end of input inside .%s block", terminator)
			return body
		}
		trimmed := strings.TrimSpace(stripComment(line.Text))
		if strings.HasPrefix(trimmed, ".") {
			tok, _ := splitToken(trimmed)
			tok = strings.ToLower(strings.TrimPrefix(tok, "."))
			if tok == terminator {
				if depth == 0 {
					return body
				}
				depth--
			} else if openers[tok] {
				depth++
			}
		}
		body = append(body, line.Text)
	}
}

func (a *Assembler) beginMacroDef(rest string) {
	name, argsPart := splitToken(rest)
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		a.diags.Errorf(a.pos(), ".macro requires a name")
	}
	var margs []asmsrc.MacroArg
	for _, spec := range splitArgs(argsPart) {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		switch {
		case strings.HasSuffix(spec, ":vararg"):
			margs = append(margs, asmsrc.MacroArg{Name: strings.TrimSuffix(spec, ":vararg"), Vararg: true})
		case strings.ContainsRune(spec, '='):
			eq := strings.IndexByte(spec, '=')
			margs = append(margs, asmsrc.MacroArg{Name: strings.TrimSpace(spec[:eq]), Default: strings.TrimSpace(spec[eq+1:]), HasDefault: true})
		default:
			margs = append(margs, asmsrc.MacroArg{Name: spec, Required: true})
		}
	}
	body := a.collectBlock(map[string]bool{"macro": true}, "endm")
	if name != "" {
		a.macros[name] = asmsrc.NewMacro(name, margs, strings.Join(body, "\n"), a.curLine.LineNo)
	}
}

func (a *Assembler) expandMacro(m *asmsrc.Macro, rest string) {
	origin := a.arena.AddMacro(m.Name, a.curLine.Origin, a.curLine.LineNo, a.curLine.Col)
	f, err := asmsrc.NewMacroFilter(m, splitArgs(rest), origin)
	if err != nil {
		a.diags.Errorf(a.pos(), "%v", err)
		return
	}
	a.filters.Push(f)
}

func (a *Assembler) beginRept(rest string) {
	r := a.evalExpr(rest)
	body := a.collectBlock(reptOpeners, "endr")
	origin := a.arena.AddMacro("rept", a.curLine.Origin, a.curLine.LineNo, a.curLine.Col)
	a.filters.Push(asmsrc.NewReptFilter(body, int(r.Value.Num), origin))
}

func (a *Assembler) beginIRP(rest string, charIter bool) {
	parts := splitArgs(rest)
	if len(parts) == 0 {
		a.diags.Errorf(a.pos(), ".irp/.irpc requires a loop symbol")
		body := a.collectBlock(reptOpeners, "endr")
		_ = body
		return
	}
	symbol := strings.TrimSpace(parts[0])
	body := a.collectBlock(reptOpeners, "endr")
	origin := a.arena.AddMacro("irp", a.curLine.Origin, a.curLine.LineNo, a.curLine.Col)
	if charIter {
		chars := ""
		if len(parts) > 1 {
			chars = strings.TrimSpace(parts[1])
			if un, err := strconv.Unquote(chars); err == nil {
				chars = un
			}
		}
		a.filters.Push(asmsrc.NewIRPCFilter(body, symbol, chars, origin))
		return
	}
	a.filters.Push(asmsrc.NewIRPFilter(body, symbol, parts[1:], origin))
}

func (a *Assembler) beginFor(rest string) {
	semi := strings.SplitN(rest, ";", 3)
	if len(semi) != 3 {
		a.diags.Errorf(a.pos(), ".for requires symbol = init; cond; step")
		a.collectBlock(reptOpeners, "endr")
		return
	}
	initPart := strings.TrimSpace(semi[0])
	eq := strings.IndexByte(initPart, '=')
	if eq < 0 {
		a.diags.Errorf(a.pos(), ".for: expected symbol = init")
		a.collectBlock(reptOpeners, "endr")
		return
	}
	symbol := strings.TrimSpace(initPart[:eq])
	init := a.evalExpr(initPart[eq+1:])
	condExpr, err := expr.Parse(strings.TrimSpace(semi[1]))
	if err != nil {
		a.diags.Errorf(a.pos(), ".for condition: %v", err)
		a.collectBlock(reptOpeners, "endr")
		return
	}
	stepExpr, err := expr.Parse(strings.TrimSpace(semi[2]))
	if err != nil {
		a.diags.Errorf(a.pos(), ".for step: %v", err)
		a.collectBlock(reptOpeners, "endr")
		return
	}
	body := a.collectBlock(reptOpeners, "endr")
	origin := a.arena.AddMacro("for", a.curLine.Origin, a.curLine.LineNo, a.curLine.Col)
	a.filters.Push(asmsrc.NewForFilter(body, symbol, init.Value.Num, condExpr, stepExpr, a.table, origin))
}
