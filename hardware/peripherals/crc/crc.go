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

// Package crc implements the CRC calculation unit of the STM32F3.
//
// The unit always calculates the reflected CRC-32 used by Ethernet and zlib.
// The POLYSIZE and REV bits of CR and the POL register are stored but have no
// effect on the calculation. Setting them is logged as an unimplemented
// feature.
package crc

import (
	"hash/crc32"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
)

// Register offsets.
const (
	DR   = 0x00
	IDR  = 0x04
	CR   = 0x08
	INIT = 0x10
	POL  = 0x14
)

// CR bits.
const (
	crReset    = 0x01
	crPolySize = 0x18
	crRevIn    = 0x60
	crRevOut   = 0x80
)

// CRC is the calculation unit.
type CRC struct {
	peripherals.Base

	table *crc32.Table

	// running value of the calculation, exactly as it is seen in DR
	running uint32
}

// NewCRC is the preferred method of initialisation for the CRC type.
func NewCRC(ctx peripherals.Context) (*CRC, error) {
	c := &CRC{
		table: crc32.MakeTable(crc32.IEEE),
	}

	var err error
	c.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "DR", Offset: DR, Width: registers.Width32, Reset: 0xffffffff, Read: c.readDR, Write: c.writeDR},
		{Name: "IDR", Offset: IDR, Width: registers.Width8},
		{Name: "CR", Offset: CR, Width: registers.Width32, Mask: 0x000000ff, Write: c.writeCR},
		{Name: "INIT", Offset: INIT, Width: registers.Width32, Reset: 0xffffffff},
		{Name: "POL", Offset: POL, Width: registers.Width32, Reset: 0x04c11db7, Write: c.writePOL},
	})
	if err != nil {
		return nil, err
	}

	c.Reset()

	return c, nil
}

// Reset implements the peripherals.Device interface.
func (c *CRC) Reset() {
	c.Regs.Reset()
	c.running = c.Regs.Peek("INIT")
}

// Value returns the running value of the calculation.
func (c *CRC) Value() uint32 {
	return c.running
}

func (c *CRC) readDR(_ *registers.Register) uint32 {
	return c.running
}

// writeDR folds the written bytes into the running value. Only the bytes that
// were part of the write are folded, lowest address first.
func (c *CRC) writeDR(r *registers.Register, value uint32, lanes uint32) {
	var data []byte
	for i := 0; i < 4; i++ {
		if lanes&(0xff<<(i*8)) != 0 {
			data = append(data, byte(value>>(i*8)))
		}
	}

	// the crc32 package inverts the value on entry and on exit. the running
	// value held by the hardware is not inverted
	c.running = ^crc32.Update(^c.running, c.table, data)
	r.Store(c.running)
}

func (c *CRC) writeCR(r *registers.Register, value uint32, _ uint32) {
	if value&(crPolySize|crRevIn|crRevOut) != 0 {
		c.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "CR %#02x: polynomial size and bit reversal", value))
	}

	if value&crReset == crReset {
		c.running = c.Regs.Peek("INIT")
	}

	// RESET is self clearing
	r.Store(value &^ crReset)
}

func (c *CRC) writePOL(r *registers.Register, value uint32, _ uint32) {
	if value != r.Reset {
		c.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "POL %#08x: programmable polynomial", value))
	}
	r.Store(value)
}
