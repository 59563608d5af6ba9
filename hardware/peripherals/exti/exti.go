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

// Package exti implements the extended interrupt and event controller of the
// STM32F3. Only the first bank of 32 lines is present.
//
// External edges are delivered by the host with the Edge() function. An edge
// that matches the rising or falling trigger selection of the line sets the
// pending bit for the line and, if the line is not masked, asserts the
// interrupt line for it. A pending bit is a latch. Further edges on the line
// have no effect until the pending bit is cleared by writing a one to it.
//
// Events (EMR1) are stored but have no effect.
package exti

import (
	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
)

// Register offsets.
const (
	IMR1   = 0x00
	EMR1   = 0x04
	RTSR1  = 0x08
	FTSR1  = 0x0c
	SWIER1 = 0x10
	PR1    = 0x14
)

// NumLines is the number of lines handled by the controller.
const NumLines = 32

// IRQ returns the interrupt line used by an EXTI line on the STM32F3. Lines
// that do not have an interrupt return -1.
func IRQ(line int) int {
	switch {
	case line >= 0 && line <= 4:
		return 6 + line
	case line >= 5 && line <= 9:
		return 23
	case line >= 10 && line <= 15:
		return 40
	case line == 16:
		return 1
	case line == 17:
		return 41
	case line == 19:
		return 2
	case line == 20:
		return 3
	}
	return -1
}

// EXTI is the interrupt and event controller.
type EXTI struct {
	peripherals.Base
}

// NewEXTI is the preferred method of initialisation for the EXTI type.
func NewEXTI(ctx peripherals.Context) (*EXTI, error) {
	x := &EXTI{}

	var err error
	x.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "IMR1", Offset: IMR1, Width: registers.Width32, Reset: 0x1f800000},
		{Name: "EMR1", Offset: EMR1, Width: registers.Width32, Write: x.writeEMR},
		{Name: "RTSR1", Offset: RTSR1, Width: registers.Width32},
		{Name: "FTSR1", Offset: FTSR1, Width: registers.Width32},
		{Name: "SWIER1", Offset: SWIER1, Width: registers.Width32, Write: x.writeSWIER},
		{Name: "PR1", Offset: PR1, Width: registers.Width32, Write: x.writePR},
	})
	if err != nil {
		return nil, err
	}

	return x, nil
}

// Reset implements the peripherals.Device interface.
func (x *EXTI) Reset() {
	x.Regs.Reset()
}

// Pending returns true if the pending bit for the line is set.
func (x *EXTI) Pending(line int) bool {
	return x.Regs.Peek("PR1")&(1<<line) != 0
}

// Edge implements the peripherals.EdgeReceiver interface.
func (x *EXTI) Edge(e trigger.ExternalEdge) {
	if e.Line < 0 || e.Line >= NumLines {
		x.Ctx.Logf("edge on line %d ignored: no such line", e.Line)
		return
	}

	bit := uint32(1) << e.Line

	var selected uint32
	switch e.Edge {
	case trigger.Rising:
		selected = x.Regs.Peek("RTSR1")
	case trigger.Falling:
		selected = x.Regs.Peek("FTSR1")
	}

	if selected&bit == 0 {
		return
	}

	x.pend(e.Line)
}

// pend sets the pending bit for the line and asserts its interrupt if the
// line is not masked. An edge on a line that is already pending is lost.
func (x *EXTI) pend(line int) {
	bit := uint32(1) << line

	pr := x.Regs.Peek("PR1")
	if pr&bit != 0 {
		return
	}
	x.Regs.Poke("PR1", pr|bit)

	if x.Regs.Peek("IMR1")&bit != 0 {
		irq := IRQ(line)
		if irq < 0 {
			x.Ctx.Logf("line %d pending but has no interrupt", line)
			return
		}
		x.Ctx.AssertLine(irq)
	}
}

func (x *EXTI) writeEMR(r *registers.Register, value uint32, _ uint32) {
	if value != 0 {
		x.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "EMR1 %#08x: events", value))
	}
	r.Store(value)
}

// writeSWIER generates a software interrupt for every bit that changes from
// zero to one.
func (x *EXTI) writeSWIER(r *registers.Register, value uint32, _ uint32) {
	rising := value &^ r.Value()
	r.Store(value)

	imr := x.Regs.Peek("IMR1")
	for line := 0; line < NumLines; line++ {
		bit := uint32(1) << line
		if rising&bit != 0 && imr&bit != 0 {
			x.pend(line)
		}
	}
}

// writePR clears every pending bit that is written with a one. The software
// interrupt bit for the line is also cleared.
func (x *EXTI) writePR(r *registers.Register, value uint32, lanes uint32) {
	ack := value & lanes
	r.Store(r.Value() &^ ack)
	x.Regs.Poke("SWIER1", x.Regs.Peek("SWIER1")&^ack)
}
