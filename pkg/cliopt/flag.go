/*
 * pflag.Value adapters for repeatable options
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

import "strings"

// RepeatedStrings backs a repeatable flag (-D, -I) as a pflag.Value: one
// Set call per occurrence on the command line appends rather than
// replacing, and String() renders the accumulated list for --help's
// default-value text.
type RepeatedStrings struct {
	Values []string
}

func (r *RepeatedStrings) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Values, ",")
}

func (r *RepeatedStrings) Set(s string) error {
	r.Values = append(r.Values, s)
	return nil
}

func (r *RepeatedStrings) Type() string { return "strings" }

// AsValue snapshots the accumulated occurrences as a cliopt.Value.
func (r *RepeatedStrings) AsValue() Value {
	if r == nil {
		return StringSlice(nil)
	}
	return StringSlice(r.Values)
}
