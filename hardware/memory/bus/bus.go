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

package bus

import (
	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/memory/memorymap"
	"github.com/periphemu/periphemu/logger"
)

// ErrUnmappedAddress classifies log entries for accesses to addresses that are
// not mapped to a peripheral.
var ErrUnmappedAddress = errors.New("unmapped address")

// Diagnostics counts the accesses to unmapped addresses.
type Diagnostics struct {
	UnmappedReads  int
	UnmappedWrites int
}

// Dispatch implements the bus.
type Dispatch struct {
	mmap *memorymap.Map
	perm logger.Permission

	// log unmapped accesses. they are counted regardless
	LogUnmapped bool

	diag Diagnostics
}

// NewDispatch is the preferred method of initialisation for the Dispatch type.
func NewDispatch(mmap *memorymap.Map, perm logger.Permission) *Dispatch {
	return &Dispatch{
		mmap:        mmap,
		perm:        perm,
		LogUnmapped: true,
	}
}

func validSize(size uint32) bool {
	return size == 1 || size == 2 || size == 4
}

// Read size bytes from the address. Size is 1, 2 or 4.
func (bus *Dispatch) Read(address uint32, size uint32) uint32 {
	if !validSize(size) {
		logger.Logf(bus.perm, "bus", "read of %08x with invalid size (%d)", address, size)
		return 0
	}

	dev, offset, ok := bus.mmap.MapAddress(address)
	if !ok {
		bus.diag.UnmappedReads++
		if bus.LogUnmapped {
			logger.Log(bus.perm, "bus", errors.Wrapf(ErrUnmappedAddress, "read of %08x (%d bits)", address, size*8))
		}
		return 0
	}

	// an access that runs off the end of a peripheral is clipped
	if offset+size > dev.Size() {
		logger.Logf(bus.perm, "bus", "read of %08x (%d bits) crosses end of %s", address, size*8, dev.Label())
	}

	dev.Tick()
	return dev.Read(offset, size)
}

// Write size bytes to the address. Size is 1, 2 or 4. The value is masked to
// the size.
func (bus *Dispatch) Write(address uint32, size uint32, value uint32) {
	if !validSize(size) {
		logger.Logf(bus.perm, "bus", "write to %08x with invalid size (%d)", address, size)
		return
	}

	if size < 4 {
		value &= (uint32(1) << (size * 8)) - 1
	}

	dev, offset, ok := bus.mmap.MapAddress(address)
	if !ok {
		bus.diag.UnmappedWrites++
		if bus.LogUnmapped {
			logger.Log(bus.perm, "bus", errors.Wrapf(ErrUnmappedAddress, "write of %#x to %08x (%d bits)", value, address, size*8))
		}
		return
	}

	if offset+size > dev.Size() {
		logger.Logf(bus.perm, "bus", "write to %08x (%d bits) crosses end of %s", address, size*8, dev.Label())
	}

	dev.Tick()
	dev.Write(offset, size, value)
}

// Tick every mapped peripheral.
func (bus *Dispatch) Tick() {
	for _, e := range bus.mmap.Entries() {
		e.Device.Tick()
	}
}

// Diagnostics returns the counts of unmapped accesses.
func (bus *Dispatch) Diagnostics() Diagnostics {
	return bus.diag
}
