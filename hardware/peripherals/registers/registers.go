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

package registers

import "fmt"

// Width of a register in bits.
type Width int

// List of valid Width values.
const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
)

// Mask returns the bit mask for the width.
func (w Width) Mask() uint32 {
	switch w {
	case Width8:
		return 0x000000ff
	case Width16:
		return 0x0000ffff
	}
	return 0xffffffff
}

// Bytes returns the number of bytes in the width.
func (w Width) Bytes() uint32 {
	return uint32(w) / 8
}

func (w Width) valid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

// Access mode of a register.
type Access int

// List of valid Access values.
const (
	ReadWrite Access = iota
	ReadOnly
	WriteOnly
)

func (a Access) String() string {
	switch a {
	case ReadWrite:
		return "RW"
	case ReadOnly:
		return "RO"
	case WriteOnly:
		return "WO"
	}
	return "??"
}

// ReadFunc returns the value of a register. It is called once per bus access
// and can have side effects.
type ReadFunc func(r *Register) uint32

// WriteFunc handles a write to a register. The value has been merged with the
// current value of the register for the bytes that were not written and has
// been masked. The lanes argument has a bit set for every bit that was part of
// the write.
//
// The value is not stored automatically. The function must call Store() if
// the value is to be kept.
type WriteFunc func(r *Register, value uint32, lanes uint32)

// Spec is the declaration of a single register.
type Spec struct {
	Name   string
	Offset uint32
	Width  Width
	Access Access

	// value of the register after reset
	Reset uint32

	// Mask of the implemented bits. A value of zero means that all bits of
	// the width are implemented
	Mask uint32

	// optional accessors. without them the register is a plain storage
	// location subject to the access mode
	Read  ReadFunc
	Write WriteFunc
}

// Register is an instance of a Spec in a register file.
type Register struct {
	Spec
	value uint32
}

// StorageMask returns the mask applied to values before they are stored.
func (r *Register) StorageMask() uint32 {
	if r.Mask == 0 {
		return r.Width.Mask()
	}
	return r.Mask & r.Width.Mask()
}

// Value returns the stored value of the register without side effects.
func (r *Register) Value() uint32 {
	return r.value
}

// Store a value in the register. The value is masked.
func (r *Register) Store(v uint32) {
	r.value = v & r.StorageMask()
}

func (r *Register) String() string {
	return fmt.Sprintf("%s@%#02x (%s %d) = %#08x", r.Name, r.Offset, r.Access, r.Width, r.value)
}
