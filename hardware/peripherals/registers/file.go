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

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/logger"
)

// Diagnostics counts accesses that the register file has had to recover from.
type Diagnostics struct {
	UnrecognisedReads  int
	UnrecognisedWrites int
	ReadOnlyWrites     int
}

// File is the register file of a single peripheral.
type File struct {
	label string
	size  uint32
	perm  logger.Permission

	// registers sorted by offset
	regs []*Register

	// index into regs for every byte in the address range. -1 for bytes not
	// covered by a register
	lookup []int16

	// bytes written to unrecognised offsets
	unrecognised map[uint32]uint8

	diag Diagnostics
}

// NewFile creates a register file from a table of register declarations. The
// label is used for log entries. The size is the length of the address range
// of the peripheral.
func NewFile(label string, size uint32, perm logger.Permission, table []Spec) (*File, error) {
	f := &File{
		label:        label,
		size:         size,
		perm:         perm,
		lookup:       make([]int16, size),
		unrecognised: make(map[uint32]uint8),
	}

	for i := range f.lookup {
		f.lookup[i] = -1
	}

	names := make(map[string]bool)

	for _, s := range table {
		if s.Name == "" {
			return nil, errors.Errorf("registers: %s: register at offset %#02x has no name", label, s.Offset)
		}
		if names[s.Name] {
			return nil, errors.Errorf("registers: %s: %s: duplicate register name", label, s.Name)
		}
		names[s.Name] = true

		if !s.Width.valid() {
			return nil, errors.Errorf("registers: %s: %s: invalid width (%d)", label, s.Name, s.Width)
		}
		if s.Offset%s.Width.Bytes() != 0 {
			return nil, errors.Errorf("registers: %s: %s: offset %#02x not aligned to width", label, s.Name, s.Offset)
		}
		if s.Offset+s.Width.Bytes() > size {
			return nil, errors.Errorf("registers: %s: %s: offset %#02x outside of range", label, s.Name, s.Offset)
		}
		if s.Access == ReadOnly && s.Write != nil {
			return nil, errors.Errorf("registers: %s: %s: read-only register with write accessor", label, s.Name)
		}
		if s.Access == WriteOnly && s.Read != nil {
			return nil, errors.Errorf("registers: %s: %s: write-only register with read accessor", label, s.Name)
		}

		r := &Register{Spec: s}
		if s.Reset&^r.StorageMask() != 0 {
			return nil, errors.Errorf("registers: %s: %s: reset value %#08x does not fit mask", label, s.Name, s.Reset)
		}

		f.regs = append(f.regs, r)
	}

	sort.Slice(f.regs, func(i, j int) bool {
		return f.regs[i].Offset < f.regs[j].Offset
	})

	for i, r := range f.regs {
		for b := r.Offset; b < r.Offset+r.Width.Bytes(); b++ {
			if f.lookup[b] != -1 {
				o := f.regs[f.lookup[b]]
				return nil, errors.Errorf("registers: %s: %s overlaps %s", label, r.Name, o.Name)
			}
			f.lookup[b] = int16(i)
		}
	}

	f.Reset()

	return f, nil
}

// Label returns the label used in log entries.
func (f *File) Label() string {
	return f.label
}

// Size returns the length of the address range covered by the file.
func (f *File) Size() uint32 {
	return f.size
}

// Reset sets every register to its reset value and forgets any writes to
// unrecognised offsets.
func (f *File) Reset() {
	for _, r := range f.regs {
		r.value = r.Reset
	}
	for k := range f.unrecognised {
		delete(f.unrecognised, k)
	}
	f.diag = Diagnostics{}
}

// Registers returns all registers in offset order.
func (f *File) Registers() []*Register {
	return f.regs
}

// Register returns the named register or nil if it does not exist.
func (f *File) Register(name string) *Register {
	for _, r := range f.regs {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Peek returns the stored value of the named register without side effects
// and regardless of access mode. Returns zero for unknown names.
func (f *File) Peek(name string) uint32 {
	if r := f.Register(name); r != nil {
		return r.value
	}
	return 0
}

// Poke stores a value in the named register without side effects and
// regardless of access mode. It is used by peripherals to update status and
// output registers. The value is masked.
func (f *File) Poke(name string, v uint32) {
	if r := f.Register(name); r != nil {
		r.Store(v)
	}
}

// Diagnostics returns the counts of recovered accesses since the last reset.
func (f *File) Diagnostics() Diagnostics {
	return f.diag
}

// span is the part of an access that falls on a single register, or on a run
// of unrecognised bytes.
type span struct {
	reg *Register

	// byte offset of the span within the register
	regByte uint32

	// byte offset of the span within the access
	accByte uint32

	// number of bytes in the span
	n uint32
}

// spans divides an access into per register spans.
func (f *File) spans(offset uint32, size uint32) []span {
	var sp []span
	for b := uint32(0); b < size; {
		addr := offset + b

		var reg *Register
		if !f.unrecognisedAt(addr) {
			reg = f.regs[f.lookup[addr]]
		}

		s := span{reg: reg, accByte: b, n: 1}
		if reg != nil {
			s.regByte = addr - reg.Offset
			for b+s.n < size && s.regByte+s.n < reg.Width.Bytes() {
				s.n++
			}
		} else {
			s.regByte = addr
			for b+s.n < size && f.unrecognisedAt(addr+s.n) {
				s.n++
			}
		}

		sp = append(sp, s)
		b += s.n
	}
	return sp
}

func (f *File) unrecognisedAt(addr uint32) bool {
	return addr >= f.size || f.lookup[addr] == -1
}

func laneMask(n uint32) uint32 {
	if n >= 4 {
		return 0xffffffff
	}
	return (uint32(1) << (n * 8)) - 1
}

// Read size bytes from the offset. Size is 1, 2 or 4.
func (f *File) Read(offset uint32, size uint32) uint32 {
	var val uint32

	for _, s := range f.spans(offset, size) {
		if s.reg == nil {
			f.diag.UnrecognisedReads++
			logger.Logf(f.perm, f.label, "read of unrecognised offset %#02x", s.regByte)
			for i := uint32(0); i < s.n; i++ {
				val |= uint32(f.unrecognised[s.regByte+i]) << ((s.accByte + i) * 8)
			}
			continue
		}

		var v uint32
		switch {
		case s.reg.Access == WriteOnly:
			v = 0
		case s.reg.Read != nil:
			v = s.reg.Read(s.reg)
		default:
			v = s.reg.value
		}

		v = (v >> (s.regByte * 8)) & laneMask(s.n)
		val |= v << (s.accByte * 8)
	}

	return val
}

// Write size bytes to the offset. Size is 1, 2 or 4.
func (f *File) Write(offset uint32, size uint32, value uint32) {
	for _, s := range f.spans(offset, size) {
		data := (value >> (s.accByte * 8)) & laneMask(s.n)

		if s.reg == nil {
			f.diag.UnrecognisedWrites++
			logger.Logf(f.perm, f.label, "write of %#02x to unrecognised offset %#02x", data, s.regByte)
			for i := uint32(0); i < s.n; i++ {
				f.unrecognised[s.regByte+i] = uint8(data >> (i * 8))
			}
			continue
		}

		if s.reg.Access == ReadOnly {
			f.diag.ReadOnlyWrites++
			logger.Logf(f.perm, f.label, "write of %#08x to read-only register %s ignored", value, s.reg.Name)
			continue
		}

		lanes := laneMask(s.n) << (s.regByte * 8)
		merged := (s.reg.value &^ lanes) | ((data << (s.regByte * 8)) & lanes)
		merged &= s.reg.StorageMask()

		if s.reg.Write != nil {
			s.reg.Write(s.reg, merged, lanes)
		} else {
			s.reg.value = merged
		}
	}
}
