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

package registers_test

import (
	"testing"

	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/test"
)

func TestValidation(t *testing.T) {
	_, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x02, Width: registers.Width32},
	})
	test.ExpectFailure(t, err, "misaligned")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x10, Width: registers.Width32},
	})
	test.ExpectFailure(t, err, "outside range")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: registers.Width32},
		{Name: "B", Offset: 0x02, Width: registers.Width16},
	})
	test.ExpectFailure(t, err, "overlap")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: registers.Width32},
		{Name: "A", Offset: 0x04, Width: registers.Width32},
	})
	test.ExpectFailure(t, err, "duplicate")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: registers.Width32, Access: registers.ReadOnly,
			Write: func(_ *registers.Register, _ uint32, _ uint32) {}},
	})
	test.ExpectFailure(t, err, "read-only with write accessor")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: registers.Width8, Reset: 0x100},
	})
	test.ExpectFailure(t, err, "reset value too wide")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: 12},
	})
	test.ExpectFailure(t, err, "invalid width")

	_, err = registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "B", Offset: 0x04, Width: registers.Width32},
		{Name: "A", Offset: 0x00, Width: registers.Width32},
	})
	test.ExpectSuccess(t, err, "out of order table")
}

func TestAccessModes(t *testing.T) {
	f, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "RW", Offset: 0x00, Width: registers.Width32, Reset: 0x12345678},
		{Name: "RO", Offset: 0x04, Width: registers.Width32, Access: registers.ReadOnly, Reset: 0xaa},
		{Name: "WO", Offset: 0x08, Width: registers.Width32, Access: registers.WriteOnly},
		{Name: "MSK", Offset: 0x0c, Width: registers.Width32, Mask: 0x00000fff},
	})
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, f.Read(0x00, 4), uint32(0x12345678))
	f.Write(0x00, 4, 0xdeadbeef)
	test.ExpectEquality(t, f.Read(0x00, 4), uint32(0xdeadbeef))

	f.Write(0x04, 4, 0x55)
	test.ExpectEquality(t, f.Read(0x04, 4), uint32(0xaa))
	test.ExpectEquality(t, f.Diagnostics().ReadOnlyWrites, 1)

	f.Write(0x08, 4, 0x55)
	test.ExpectEquality(t, f.Read(0x08, 4), uint32(0))
	test.ExpectEquality(t, f.Peek("WO"), uint32(0x55))

	f.Write(0x0c, 4, 0xffffffff)
	test.ExpectEquality(t, f.Read(0x0c, 4), uint32(0xfff))

	f.Reset()
	test.ExpectEquality(t, f.Read(0x00, 4), uint32(0x12345678))
	test.ExpectEquality(t, f.Peek("WO"), uint32(0))
	test.ExpectEquality(t, f.Diagnostics().ReadOnlyWrites, 0)
}

func TestByteLanes(t *testing.T) {
	f, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "W", Offset: 0x00, Width: registers.Width32, Reset: 0x44332211},
		{Name: "H0", Offset: 0x04, Width: registers.Width16, Reset: 0xbbaa},
		{Name: "H1", Offset: 0x06, Width: registers.Width16, Reset: 0xddcc},
	})
	test.DemandSuccess(t, err)

	// narrow reads of a wide register
	test.ExpectEquality(t, f.Read(0x00, 1), uint32(0x11))
	test.ExpectEquality(t, f.Read(0x01, 1), uint32(0x22))
	test.ExpectEquality(t, f.Read(0x02, 2), uint32(0x4433))

	// narrow write to a wide register only changes the addressed byte
	f.Write(0x02, 1, 0xff)
	test.ExpectEquality(t, f.Read(0x00, 4), uint32(0x44ff2211))

	// wide access spanning two narrow registers
	test.ExpectEquality(t, f.Read(0x04, 4), uint32(0xddccbbaa))
	f.Write(0x04, 4, 0x87654321)
	test.ExpectEquality(t, f.Peek("H0"), uint32(0x4321))
	test.ExpectEquality(t, f.Peek("H1"), uint32(0x8765))
}

func TestHooks(t *testing.T) {
	var reads int
	var lastValue, lastLanes uint32

	f, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "CNT", Offset: 0x00, Width: registers.Width32, Access: registers.ReadOnly,
			Read: func(_ *registers.Register) uint32 {
				reads++
				return uint32(reads)
			}},
		{Name: "CTL", Offset: 0x04, Width: registers.Width32, Reset: 0xff00,
			Write: func(r *registers.Register, value uint32, lanes uint32) {
				lastValue = value
				lastLanes = lanes

				// bit 0 is self clearing
				r.Store(value &^ 0x01)
			}},
	})
	test.DemandSuccess(t, err)

	// read accessor is called once per access, even for a narrow access
	test.ExpectEquality(t, f.Read(0x00, 4), uint32(1))
	test.ExpectEquality(t, f.Read(0x00, 1), uint32(2))

	f.Write(0x04, 1, 0x03)
	test.ExpectEquality(t, lastValue, uint32(0xff03))
	test.ExpectEquality(t, lastLanes, uint32(0x000000ff))
	test.ExpectEquality(t, f.Read(0x04, 4), uint32(0xff02))

	f.Write(0x05, 1, 0x01)
	test.ExpectEquality(t, lastLanes, uint32(0x0000ff00))
	test.ExpectEquality(t, f.Read(0x04, 4), uint32(0x0102))
}

func TestUnrecognised(t *testing.T) {
	f, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "A", Offset: 0x00, Width: registers.Width32},
	})
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, f.Read(0x08, 4), uint32(0))
	f.Write(0x08, 4, 0xcafef00d)
	test.ExpectEquality(t, f.Read(0x08, 4), uint32(0xcafef00d))
	test.ExpectEquality(t, f.Read(0x09, 1), uint32(0xf0))

	// access partly covering a register
	f.Write(0x00, 4, 0x11111111)
	test.ExpectEquality(t, f.Read(0x00, 4), uint32(0x11111111))

	d := f.Diagnostics()
	test.ExpectEquality(t, d.UnrecognisedReads, 3)
	test.ExpectEquality(t, d.UnrecognisedWrites, 1)

	f.Reset()
	test.ExpectEquality(t, f.Read(0x08, 4), uint32(0))
}

func TestPeekPoke(t *testing.T) {
	f, err := registers.NewFile("t", 0x10, nil, []registers.Spec{
		{Name: "SR", Offset: 0x00, Width: registers.Width16, Access: registers.ReadOnly, Mask: 0x0003},
	})
	test.DemandSuccess(t, err)

	f.Poke("SR", 0xffff)
	test.ExpectEquality(t, f.Peek("SR"), uint32(0x0003))
	test.ExpectEquality(t, f.Read(0x00, 2), uint32(0x0003))
	test.ExpectEquality(t, f.Peek("missing"), uint32(0))
	test.ExpectEquality(t, f.Register("missing") == nil, true)
}
