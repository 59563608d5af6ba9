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

package timer_test

import (
	"testing"
	"time"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/host"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/timer"
	"github.com/periphemu/periphemu/test"
)

const irq = 28

type fixture struct {
	clk   *clocks.Clock
	lines *host.Lines
	tim   *timer.Timer
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	clk := clocks.NewClock()
	sys, err := clk.AddDomain(clocks.SysClk, clocks.HSI)
	test.DemandSuccess(t, err)

	f := fixture{
		clk:   clk,
		lines: &host.Lines{},
	}

	f.tim, err = timer.NewTimer(peripherals.Context{
		Label:      "tim2",
		Kind:       peripherals.TIM,
		Clock:      sys,
		Scheduler:  clk,
		IRQ:        irq,
		Interrupts: f.lines,
	})
	test.DemandSuccess(t, err)

	return f
}

// configure a 1kHz counter clock with an update every ten counts
func (f fixture) configure() {
	f.tim.Write(timer.PSC, 4, 7999)
	f.tim.Write(timer.ARR, 4, 9)

	// load the prescaler with a software update and clear the resulting
	// interrupt flag
	f.tim.Write(timer.EGR, 4, 0x01)
	f.tim.Write(timer.SR, 4, 0x00)
}

func TestUpdateInterrupt(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.tim.Write(timer.DIER, 4, 0x01)
	f.tim.Write(timer.CR1, 4, 0x01)

	// the interrupts arrive without any access to the timer
	f.clk.Advance(35 * time.Millisecond)
	test.ExpectEquality(t, f.lines.Count(irq), 3)

	test.ExpectEquality(t, f.tim.Read(timer.CNT, 4), uint32(5))
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x01))

	// write zero to clear
	f.tim.Write(timer.SR, 4, 0x00)
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x00))

	// disabling the timer stops the interrupts
	f.tim.Write(timer.CR1, 4, 0x00)
	f.clk.Advance(100 * time.Millisecond)
	test.ExpectEquality(t, f.lines.Count(irq), 3)
	test.ExpectEquality(t, f.tim.Read(timer.CNT, 4), uint32(5))
}

func TestPolled(t *testing.T) {
	f := newFixture(t)
	f.configure()

	// without the update interrupt nothing is scheduled
	f.tim.Write(timer.CR1, 4, 0x01)
	test.ExpectEquality(t, f.clk.Pending(), 0)

	f.clk.Advance(9 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x00))
	test.ExpectEquality(t, f.tim.Read(timer.CNT, 4), uint32(9))

	// a long time passes. the flag is set and the counter is correct
	f.clk.Advance(time.Hour + 2*time.Millisecond)
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x01))
	test.ExpectEquality(t, f.tim.Read(timer.CNT, 4), uint32(1))
	test.ExpectEquality(t, f.lines.Count(irq), 0)
}

func TestDownCounting(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.tim.Write(timer.CNT, 4, 9)
	f.tim.Write(timer.CR1, 4, 0x11)

	f.clk.Advance(4 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(5))

	// underflow reloads from the autoreload register
	f.clk.Advance(6 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(9))
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x01))
}

func TestOnePulse(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.tim.Write(timer.DIER, 4, 0x01)
	f.tim.Write(timer.CR1, 4, 0x09)

	f.clk.Advance(50 * time.Millisecond)
	test.ExpectEquality(t, f.lines.Count(irq), 1)
	test.ExpectEquality(t, f.tim.Read(timer.CR1, 4)&0x01, uint32(0x00))
	test.ExpectEquality(t, f.tim.Counter(), uint32(0))
}

func TestSoftwareUpdate(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.tim.Write(timer.CR1, 4, 0x01)
	f.clk.Advance(5 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(5))

	f.tim.Write(timer.EGR, 4, 0x01)
	test.ExpectEquality(t, f.tim.Counter(), uint32(0))
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x01))

	// URS prevents the software update from setting the interrupt flag
	f.tim.Write(timer.SR, 4, 0x00)
	f.tim.Write(timer.CR1, 4, 0x05)
	f.tim.Write(timer.EGR, 4, 0x01)
	test.ExpectEquality(t, f.tim.Read(timer.SR, 4), uint32(0x00))

	// EGR is write-only
	test.ExpectEquality(t, f.tim.Read(timer.EGR, 4), uint32(0x00))
}

func TestAutoReloadBuffering(t *testing.T) {
	f := newFixture(t)
	f.configure()

	// ARPE set. the new autoreload value does not take effect until the next
	// update event
	f.tim.Write(timer.CR1, 4, 0x81)
	f.tim.Write(timer.ARR, 4, 19)

	f.clk.Advance(12 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(2))

	f.clk.Advance(15 * time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(17))
}

func TestUnsupportedBits(t *testing.T) {
	f := newFixture(t)

	// center aligned mode and reserved bits are accepted without panic
	f.tim.Write(timer.CR1, 4, 0x0000ff60)
	test.ExpectEquality(t, f.tim.Read(timer.CR1, 4), uint32(0xff60))

	f.tim.Reset()
	test.ExpectEquality(t, f.tim.Read(timer.ARR, 4), uint32(0xffffffff))
	test.ExpectEquality(t, f.tim.Read(timer.CR1, 4), uint32(0))
}

func TestCounterAboveAutoReload(t *testing.T) {
	f := newFixture(t)
	f.configure()

	f.clk.Advance(time.Millisecond)
	f.tim.Write(timer.DIER, 4, 0x01)
	f.tim.Write(timer.CNT, 4, 11)
	f.tim.Write(timer.CR1, 4, 0x01)

	// the counter runs on towards the 32 bit rollover. the update event is a
	// long way off but it is still scheduled
	f.clk.Advance(time.Millisecond)
	test.ExpectEquality(t, f.tim.Counter(), uint32(12))
	test.ExpectEquality(t, f.lines.Count(irq), 0)
	test.ExpectEquality(t, f.clk.Pending(), 1)
}

func TestCounterRollover(t *testing.T) {
	f := newFixture(t)

	// counter clock is the full 8MHz with an update every ten counts
	f.tim.Write(timer.PSC, 4, 0)
	f.tim.Write(timer.ARR, 4, 9)
	f.tim.Write(timer.EGR, 4, 0x01)
	f.tim.Write(timer.SR, 4, 0x00)

	f.tim.Write(timer.DIER, 4, 0x01)
	f.tim.Write(timer.CNT, 4, 0xfffffff0)
	f.tim.Write(timer.CR1, 4, 0x01)

	// sixteen counts to the rollover and then an update every ten counts for
	// the remaining 7984 counts
	f.clk.Advance(time.Millisecond)
	test.ExpectEquality(t, f.lines.Count(irq), 799)
	test.ExpectEquality(t, f.tim.Counter(), uint32(4))
}
