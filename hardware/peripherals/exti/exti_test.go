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

package exti_test

import (
	"testing"

	"github.com/periphemu/periphemu/hardware/host"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/exti"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/test"
)

func newEXTI(t *testing.T) (*host.Lines, *exti.EXTI) {
	t.Helper()
	var lines host.Lines
	x, err := exti.NewEXTI(peripherals.Context{Label: "exti", Kind: peripherals.EXTI, IRQ: -1, Interrupts: &lines})
	test.DemandSuccess(t, err)
	test.DemandImplements[peripherals.EdgeReceiver](t, x)
	return &lines, x
}

func TestIRQMapping(t *testing.T) {
	test.ExpectEquality(t, exti.IRQ(0), 6)
	test.ExpectEquality(t, exti.IRQ(4), 10)
	test.ExpectEquality(t, exti.IRQ(5), 23)
	test.ExpectEquality(t, exti.IRQ(9), 23)
	test.ExpectEquality(t, exti.IRQ(10), 40)
	test.ExpectEquality(t, exti.IRQ(15), 40)
	test.ExpectEquality(t, exti.IRQ(18), -1)
}

func TestEdgeSelection(t *testing.T) {
	lines, x := newEXTI(t)

	// unmask line 0, rising edge only
	x.Write(exti.IMR1, 4, 0x00000001)
	x.Write(exti.RTSR1, 4, 0x00000001)

	x.Edge(trigger.ExternalEdge{Line: 0, Edge: trigger.Falling})
	test.ExpectEquality(t, x.Pending(0), false)
	test.ExpectEquality(t, lines.Count(6), 0)

	x.Edge(trigger.ExternalEdge{Line: 0, Edge: trigger.Rising})
	test.ExpectEquality(t, x.Pending(0), true)
	test.ExpectEquality(t, lines.Count(6), 1)
	test.ExpectEquality(t, x.Read(exti.PR1, 4), uint32(0x01))
}

func TestPendingLatch(t *testing.T) {
	lines, x := newEXTI(t)

	x.Write(exti.IMR1, 4, 0x00000020)
	x.Write(exti.FTSR1, 4, 0x00000020)

	// a second edge while pending is lost
	x.Edge(trigger.ExternalEdge{Line: 5, Edge: trigger.Falling})
	x.Edge(trigger.ExternalEdge{Line: 5, Edge: trigger.Falling})
	test.ExpectEquality(t, lines.Count(23), 1)

	// writing zero does not clear
	x.Write(exti.PR1, 4, 0x00)
	test.ExpectEquality(t, x.Pending(5), true)

	// write one to clear
	x.Write(exti.PR1, 4, 0x20)
	test.ExpectEquality(t, x.Pending(5), false)

	x.Edge(trigger.ExternalEdge{Line: 5, Edge: trigger.Falling})
	test.ExpectEquality(t, lines.Count(23), 2)
}

func TestMasked(t *testing.T) {
	lines, x := newEXTI(t)

	x.Write(exti.RTSR1, 4, 0x00000400)
	x.Edge(trigger.ExternalEdge{Line: 10, Edge: trigger.Rising})

	// pending bit is set even when the line is masked
	test.ExpectEquality(t, x.Pending(10), true)
	test.ExpectEquality(t, lines.Count(40), 0)
}

func TestSoftwareInterrupt(t *testing.T) {
	lines, x := newEXTI(t)

	x.Write(exti.IMR1, 4, 0x00000002)
	x.Write(exti.SWIER1, 4, 0x00000002)
	test.ExpectEquality(t, x.Pending(1), true)
	test.ExpectEquality(t, lines.Count(7), 1)

	// clearing the pending bit clears the software interrupt bit
	x.Write(exti.PR1, 4, 0x02)
	test.ExpectEquality(t, x.Read(exti.SWIER1, 4), uint32(0))

	// masked line does not pend
	x.Write(exti.SWIER1, 4, 0x00000004)
	test.ExpectEquality(t, x.Pending(2), false)
}

func TestReset(t *testing.T) {
	_, x := newEXTI(t)
	x.Write(exti.IMR1, 4, 0xffffffff)
	x.Reset()
	test.ExpectEquality(t, x.Read(exti.IMR1, 4), uint32(0x1f800000))

	// edges on lines that do not exist are ignored
	x.Edge(trigger.ExternalEdge{Line: 40, Edge: trigger.Rising})
}
