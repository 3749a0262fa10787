/*
 * GPU device and architecture catalogue
 *
 * Device and architecture enumerations for every supported GCN chip,
 * plus the lookups used to translate between them.
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

import "fmt"

// DeviceType is a specific GPU model.
type DeviceType uint8

// Device catalogue, in the original project's declaration order.
const (
	CapeVerde DeviceType = iota
	Pitcairn
	Tahiti
	Oland
	Bonaire
	Spectre
	Spooky
	Kalindi
	Hainan
	Hawaii
	Iceland
	Tonga
	Mullins
	Fiji
	Carrizo
	Dummy
	Goose
	Horse
	Stoney
	Ellesmere
	Baffin
	Gfx804
	Gfx900
	Gfx901
	Gfx902
	Gfx903
	Gfx904
	Gfx905
	Gfx906
	Gfx907
	deviceTypeMax
)

// Architecture is a GCN instruction-set generation.
type Architecture uint8

const (
	GCN1_0 Architecture = iota
	GCN1_1
	GCN1_2
	GCN1_4
	GCN1_4_1
	archMax
)

var deviceNames = map[DeviceType]string{
	CapeVerde: "CapeVerde", Pitcairn: "Pitcairn", Tahiti: "Tahiti", Oland: "Oland",
	Bonaire: "Bonaire", Spectre: "Spectre", Spooky: "Spooky", Kalindi: "Kalindi",
	Hainan: "Hainan", Hawaii: "Hawaii", Iceland: "Iceland", Tonga: "Tonga",
	Mullins: "Mullins", Fiji: "Fiji", Carrizo: "Carrizo", Dummy: "Dummy",
	Goose: "Goose", Horse: "Horse", Stoney: "Stoney", Ellesmere: "Ellesmere",
	Baffin: "Baffin", Gfx804: "GFX804", Gfx900: "GFX900", Gfx901: "GFX901",
	Gfx902: "GFX902", Gfx903: "GFX903", Gfx904: "GFX904", Gfx905: "GFX905",
	Gfx906: "GFX906", Gfx907: "GFX907",
}

// deviceArch maps each device to its unique owning architecture.
var deviceArch = map[DeviceType]Architecture{
	CapeVerde: GCN1_0, Pitcairn: GCN1_0, Tahiti: GCN1_0, Oland: GCN1_0, Hainan: GCN1_0,
	Bonaire: GCN1_1, Spectre: GCN1_1, Spooky: GCN1_1, Kalindi: GCN1_1, Mullins: GCN1_1,
	Hawaii: GCN1_1,
	Iceland: GCN1_2, Tonga: GCN1_2, Fiji: GCN1_2, Carrizo: GCN1_2, Dummy: GCN1_2,
	Goose: GCN1_2, Horse: GCN1_2, Stoney: GCN1_2, Ellesmere: GCN1_2, Baffin: GCN1_2,
	Gfx804: GCN1_2,
	Gfx900: GCN1_4, Gfx901: GCN1_4, Gfx902: GCN1_4, Gfx903: GCN1_4, Gfx904: GCN1_4,
	Gfx905: GCN1_4,
	Gfx906: GCN1_4_1, Gfx907: GCN1_4_1,
}

// archLowestDevice is the designated lowest (first-listed) device for each
// architecture, used as the architecture's canonical device.
var archLowestDevice = map[Architecture]DeviceType{
	GCN1_0: CapeVerde,
	GCN1_1: Bonaire,
	GCN1_2: Iceland,
	GCN1_4: Gfx900,
	GCN1_4_1: Gfx906,
}

// Name returns d's display name, or "" if d is not a known device.
func Name(d DeviceType) string { return deviceNames[d] }

// ByName looks up a DeviceType by its display name (case-sensitive, matching
// the original project's naming).
func ByName(name string) (DeviceType, bool) {
	for d, n := range deviceNames {
		if n == name {
			return d, true
		}
	}
	return 0, false
}

// ArchitectureOf returns the architecture that owns d.
func ArchitectureOf(d DeviceType) (Architecture, error) {
	a, ok := deviceArch[d]
	if !ok {
		return 0, fmt.Errorf("gpuid: unknown device type %d", d)
	}
	return a, nil
}

// LowestDevice returns the canonical (lowest) device for architecture a.
func LowestDevice(a Architecture) (DeviceType, error) {
	d, ok := archLowestDevice[a]
	if !ok {
		return 0, fmt.Errorf("gpuid: unknown architecture %d", a)
	}
	return d, nil
}

var archNames = map[Architecture]string{
	GCN1_0: "GCN1.0", GCN1_1: "GCN1.1", GCN1_2: "GCN1.2", GCN1_4: "GCN1.4",
	GCN1_4_1: "GCN1.4.1",
}

// ArchName returns a's display name.
func ArchName(a Architecture) string { return archNames[a] }

// ArchByName looks up an Architecture by display name.
func ArchByName(name string) (Architecture, bool) {
	for a, n := range archNames {
		if n == name {
			return a, true
		}
	}
	return 0, false
}

// IsThisArchitecture reports whether thisArch satisfies requiredArch,
// treating GCN1.4 and GCN1.4.1 as compatible (GCN1.4.1/VEGA20 is assumed to
// share GCN1.4's encoding except for new instructions), matching the
// original project's isThisGPUArchitecture.
func IsThisArchitecture(required, this Architecture) bool {
	if required == GCN1_4 && this == GCN1_4_1 {
		return true
	}
	return required == this
}
