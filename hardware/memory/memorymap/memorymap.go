// This file is part of Periphemu.
//
// Periphemu is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Periphemu is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Periphemu.  If not, see <https://www.gnu.org/licenses/>.

package memorymap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
)

// ErrOverlappingMapping is returned by Add() when the new range overlaps an
// existing range. It is fatal to the creation of a machine.
var ErrOverlappingMapping = errors.New("overlapping mapping")

// Entry is a single range in the memory map.
type Entry struct {
	Origin uint32
	Memtop uint32
	Device peripherals.Device
}

func (e Entry) String() string {
	return fmt.Sprintf("%08x -> %08x\t%s (%s)", e.Origin, e.Memtop, e.Device.Label(), e.Device.Kind())
}

// Map is the ordered set of ranges.
type Map struct {
	entries []Entry
}

// Add the device at the origin address. The size of the range is the size of
// the device.
func (m *Map) Add(origin uint32, dev peripherals.Device) error {
	size := dev.Size()
	if size == 0 {
		return errors.Errorf("memorymap: %s: zero sized device", dev.Label())
	}

	memtop := origin + size - 1
	if memtop < origin {
		return errors.Errorf("memorymap: %s: range %08x with size %#x wraps the address space", dev.Label(), origin, size)
	}

	e := Entry{Origin: origin, Memtop: memtop, Device: dev}

	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Origin > origin
	})

	// the new range can only overlap with its neighbours
	if i > 0 && m.entries[i-1].Memtop >= origin {
		o := m.entries[i-1]
		return errors.Wrapf(ErrOverlappingMapping, "%s [%08x -> %08x] and %s [%08x -> %08x]",
			dev.Label(), e.Origin, e.Memtop, o.Device.Label(), o.Origin, o.Memtop)
	}
	if i < len(m.entries) && m.entries[i].Origin <= memtop {
		o := m.entries[i]
		return errors.Wrapf(ErrOverlappingMapping, "%s [%08x -> %08x] and %s [%08x -> %08x]",
			dev.Label(), e.Origin, e.Memtop, o.Device.Label(), o.Origin, o.Memtop)
	}

	m.entries = append(m.entries, Entry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = e

	return nil
}

// MapAddress returns the device and the offset into the device for the
// address. The bool return value is false if the address is not mapped.
func (m *Map) MapAddress(address uint32) (peripherals.Device, uint32, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Memtop >= address
	})
	if i < len(m.entries) && m.entries[i].Origin <= address {
		e := m.entries[i]
		return e.Device, address - e.Origin, true
	}
	return nil, 0, false
}

// Entries returns the entries of the map in address order.
func (m *Map) Entries() []Entry {
	return m.entries
}

// Summary returns a single multiline string detailing all the ranges in the
// map. Useful for reference.
func (m *Map) Summary() string {
	s := strings.Builder{}
	for _, e := range m.entries {
		s.WriteString(e.String())
		s.WriteString("\n")
	}
	return s.String()
}
