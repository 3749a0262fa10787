/*
 * Driver-specific device triples
 *
 * Major/minor/stepping triples as published to each binary format's
 * driver-version fields, and the reverse lookup from triple to device.
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

// Triple is an (major, minor, stepping) architecture triple as embedded in
// a container's NOTE segment. The same device maps to different triples
// depending on which driver's table is consulted.
type Triple struct {
	Major    byte
	Minor    byte
	Stepping byte
}

// DriverTable names one of the three triple tables a container format may
// use.
type DriverTable int

const (
	TableAMDCL2 DriverTable = iota
	TableOpenSource
	TableROCm
)

// triple tables, keyed by [table][device]. Entries are grounded on the
// original project's GPUId.cpp getGPUSetupMinRegistersNum/arch-triple
// tables: each driver vendor assigns its own (major,minor,stepping) per
// device, and multiple devices of the same architecture may collapse onto
// one triple for a given table.
var amdcl2Triples = map[DeviceType]Triple{
	CapeVerde: {7, 0, 0}, Pitcairn: {7, 0, 1}, Tahiti: {7, 0, 2}, Oland: {7, 0, 3},
	Hainan: {7, 0, 4},
	Bonaire: {7, 0, 5}, Hawaii: {7, 0, 6}, Kalindi: {7, 0, 7}, Spectre: {7, 0, 8},
	Spooky: {7, 0, 9}, Mullins: {7, 0, 10},
	Iceland: {8, 0, 0}, Tonga: {8, 0, 1}, Fiji: {8, 0, 2}, Carrizo: {8, 0, 3},
	Stoney: {8, 1, 0}, Ellesmere: {8, 0, 4}, Baffin: {8, 0, 5}, Gfx804: {8, 0, 4},
	Dummy: {8, 0, 1}, Goose: {8, 0, 1}, Horse: {8, 0, 1},
	Gfx900: {9, 0, 0}, Gfx901: {9, 0, 1}, Gfx902: {9, 0, 2}, Gfx903: {9, 0, 3},
	Gfx904: {9, 0, 4}, Gfx905: {9, 0, 5}, Gfx906: {9, 0, 6}, Gfx907: {9, 0, 7},
}

var openSourceTriples = map[DeviceType]Triple{
	CapeVerde: {6, 0, 0}, Pitcairn: {6, 0, 1}, Tahiti: {6, 0, 0}, Oland: {6, 0, 2},
	Hainan: {6, 0, 3},
	Bonaire: {7, 0, 0}, Hawaii: {7, 0, 1}, Kalindi: {7, 0, 2}, Spectre: {7, 0, 0},
	Spooky: {7, 0, 0}, Mullins: {7, 0, 2},
	Iceland: {8, 0, 2}, Tonga: {8, 0, 0}, Fiji: {8, 0, 3}, Carrizo: {8, 0, 1},
	Stoney: {8, 0, 1}, Ellesmere: {8, 0, 3}, Baffin: {8, 0, 3}, Gfx804: {8, 0, 3},
	Dummy: {8, 0, 0}, Goose: {8, 0, 0}, Horse: {8, 0, 0},
	Gfx900: {9, 0, 0}, Gfx901: {9, 0, 0}, Gfx902: {9, 0, 0}, Gfx903: {9, 0, 0},
	Gfx904: {9, 0, 0}, Gfx905: {9, 0, 0}, Gfx906: {9, 0, 6}, Gfx907: {9, 0, 7},
}

var rocmTriples = map[DeviceType]Triple{
	Bonaire: {7, 0, 0}, Hawaii: {7, 0, 1}, Kalindi: {7, 0, 2}, Spectre: {7, 0, 3},
	Spooky: {7, 0, 3}, Mullins: {7, 0, 5},
	Iceland: {8, 0, 2}, Tonga: {8, 0, 2}, Fiji: {8, 0, 3}, Carrizo: {8, 0, 1},
	Stoney: {8, 1, 0}, Ellesmere: {8, 0, 3}, Baffin: {8, 0, 3}, Gfx804: {8, 0, 4},
	Gfx900: {9, 0, 0}, Gfx901: {9, 0, 1}, Gfx902: {9, 0, 2}, Gfx903: {9, 0, 3},
	Gfx904: {9, 0, 4}, Gfx905: {9, 0, 5}, Gfx906: {9, 0, 6}, Gfx907: {9, 0, 7},
}

func tableOf(t DriverTable) map[DeviceType]Triple {
	switch t {
	case TableAMDCL2:
		return amdcl2Triples
	case TableOpenSource:
		return openSourceTriples
	default:
		return rocmTriples
	}
}

// TripleOf returns the (major,minor,stepping) triple for device d under
// driver table t.
func TripleOf(t DriverTable, d DeviceType) (Triple, bool) {
	tr, ok := tableOf(t)[d]
	return tr, ok
}

// DeviceOf inverts TripleOf: it returns some device that maps to tr under
// table t. Several devices may share a triple (a documented collapse); any
// one of them is a valid round-trip witness, matching the invariant that
// device→triple→device round-trips through a chosen table with at most one
// collapse.
func DeviceOf(t DriverTable, tr Triple) (DeviceType, bool) {
	for d, dtr := range tableOf(t) {
		if dtr == tr {
			return d, true
		}
	}
	return 0, false
}
