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

// Package timer implements the basic counting function of the general purpose
// TIMx units (TIM2 in particular) of the STM32F3.
//
// The operation of the timer is described in the STM32F3 reference manual
// (RM0316), section 21 "General-purpose timers".
//
// The counter is resolved lazily from the clock domain of the timer. When the
// update interrupt is enabled the next update event is also scheduled on the
// virtual clock so that the interrupt is raised even if the firmware never
// reads the timer.
//
// Capture/compare channels, slave mode, center-aligned counting and DMA are
// not implemented.
package timer

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
)

// Register offsets.
const (
	CR1  = 0x00
	CR2  = 0x04
	DIER = 0x0c
	SR   = 0x10
	EGR  = 0x14
	CNT  = 0x24
	PSC  = 0x28
	ARR  = 0x2c
)

// CR1 bits.
const (
	cr1CEN      = 0x0001
	cr1UDIS     = 0x0002
	cr1URS      = 0x0004
	cr1OPM      = 0x0008
	cr1DIR      = 0x0010
	cr1CMS      = 0x0060
	cr1ARPE     = 0x0080
	cr1CKD      = 0x0300
	cr1Reserved = 0xfffff400
)

// DIER, SR and EGR bits.
const (
	uie = 0x0001
	uif = 0x0001
	ug  = 0x0001
)

// Timer implements a general purpose timer.
type Timer struct {
	peripherals.Base

	// extracted control register flags
	enable              bool // CEN
	downcounting        bool // DIR
	updateEventDisabled bool // UDIS
	updateRequestSource bool // URS - not a flag but only two options for the "source"
	onePulse            bool // OPM
	autoReloadBuffered  bool // ARPE

	counter uint32

	// the autoreload shadow register is updated from the autoreload register
	// when:
	// 1) the autoreload register is written to AND autoReloadBuffered is false
	// 2) at an update event
	autoreloadShadow uint32

	// prescalerShadow is the prescaler value that is being used currently. the
	// PSC register can change but the prescalerCounter will still be ticking
	// towards the prescalerShadow value
	prescalerShadow  uint32
	prescalerCounter uint64

	// the tick of the clock domain that the counter has been resolved to
	resolved uint64

	// counter overflow or underflow waiting to be turned into an update
	// event
	expiry trigger.Latch

	next *clocks.Event
}

// NewTimer is the preferred method of initialisation for the Timer type.
func NewTimer(ctx peripherals.Context) (*Timer, error) {
	t := &Timer{}

	var err error
	t.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "CR1", Offset: CR1, Width: registers.Width32, Mask: 0x0000ffff, Write: t.writeCR1},
		{Name: "CR2", Offset: CR2, Width: registers.Width32, Write: t.writeUnimplemented},
		{Name: "DIER", Offset: DIER, Width: registers.Width32, Mask: 0x0000ffff, Write: t.writeDIER},
		{Name: "SR", Offset: SR, Width: registers.Width32, Mask: 0x0000ffff, Write: t.writeSR},
		{Name: "EGR", Offset: EGR, Width: registers.Width32, Access: registers.WriteOnly, Mask: 0x0000ffff, Write: t.writeEGR},
		{Name: "CNT", Offset: CNT, Width: registers.Width32, Read: t.readCNT, Write: t.writeCNT},
		{Name: "PSC", Offset: PSC, Width: registers.Width32, Mask: 0x0000ffff},
		{Name: "ARR", Offset: ARR, Width: registers.Width32, Reset: 0xffffffff, Write: t.writeARR},
	})
	if err != nil {
		return nil, err
	}

	t.Reset()

	return t, nil
}

// Reset implements the peripherals.Device interface.
func (t *Timer) Reset() {
	t.next.Cancel()
	t.next = nil
	t.Regs.Reset()
	t.setControlRegister(0)
	t.counter = 0
	t.prescalerShadow = 0
	t.prescalerCounter = 0
	t.autoreloadShadow = t.Regs.Peek("ARR")
	t.expiry.Clear()
	t.resolved = t.now()
}

func (t *Timer) now() uint64 {
	if t.Ctx.Clock == nil {
		return 0
	}
	return t.Ctx.Clock.Ticks()
}

// Read implements the peripherals.Device interface. The counter is resolved
// before the read.
func (t *Timer) Read(offset uint32, size uint32) uint32 {
	t.Tick()
	return t.Regs.Read(offset, size)
}

// Counter returns the current value of the counter.
func (t *Timer) Counter() uint32 {
	t.Tick()
	return t.counter
}

func (t *Timer) String() string {
	return fmt.Sprintf("en=%v cnt=%08x psc=%04x arr=%08x", t.enable, t.Counter(), t.prescalerShadow, t.autoreloadShadow)
}

func (t *Timer) setControlRegister(val uint32) {
	// "the counter starts counting 1 clock cycle after setting the CEN bit"
	// RM0316. the delay is not modelled
	enabled := t.enable
	t.enable = val&cr1CEN == cr1CEN
	if t.enable != enabled {
		if t.enable {
			t.Ctx.Log("enabled")
		} else {
			t.Ctx.Log("disabled")
		}
	}

	t.updateEventDisabled = val&cr1UDIS == cr1UDIS
	t.updateRequestSource = val&cr1URS == cr1URS
	t.onePulse = val&cr1OPM == cr1OPM
	t.downcounting = val&cr1DIR == cr1DIR
	t.autoReloadBuffered = val&cr1ARPE == cr1ARPE

	if val&cr1CMS != 0x0000 {
		t.Ctx.Log(errors.Wrap(peripherals.ErrUnimplementedFeature, "CR1: only CMS bits of 00 (edge-aligned mode) supported"))
	}
	if val&cr1CKD == cr1CKD {
		t.Ctx.Log("CR1: CKD bits of 11 (reserved bit pattern)")
	}
	if val&cr1Reserved != 0x0000 {
		t.Ctx.Log("CR1: reserved bits are not zero")
	}
}

// Tick implements the peripherals.Device interface. It resolves the counter
// to the current tick of the clock domain.
func (t *Timer) Tick() {
	now := t.now()
	cycles := now - t.resolved
	t.resolved = now

	// nothing to do if the timer is not enabled
	if !t.enable || cycles == 0 {
		return
	}

	// adjust prescaler and find number of ticks to accumulate counter by
	period := uint64(t.prescalerShadow) + 1
	t.prescalerCounter += cycles
	counterTicks := t.prescalerCounter / period
	t.prescalerCounter %= period

	for counterTicks > 0 && t.enable {
		counterTicks = t.count(counterTicks)
		if _, ok := t.expiry.Consume(); ok {
			t.updateEvent(true)

			// the shadow registers are stable after the first update event so
			// whole periods can be skipped. the interrupt flag is already set
			counterTicks %= uint64(t.autoreloadShadow) + 1
		}
	}
}

// count advances the counter until the next overflow or underflow. returns the
// number of counter ticks left over.
func (t *Timer) count(ticks uint64) uint64 {
	if t.downcounting {
		if ticks <= uint64(t.counter) {
			t.counter -= uint32(ticks)
			return 0
		}

		// counter underflow
		t.expiry.Raise(trigger.CounterExpiry{Device: t.Ctx.Label})
		return ticks - uint64(t.counter) - 1
	}

	remaining := t.toExpiry() - 1
	if ticks <= remaining {
		t.counter += uint32(ticks)
		return 0
	}

	// counter overflow
	t.expiry.Raise(trigger.CounterExpiry{Device: t.Ctx.Label})
	return ticks - remaining - 1
}

// toExpiry returns the number of counter ticks until the next overflow or
// underflow. a counter above the autoreload value counts up to the 32 bit
// rollover.
func (t *Timer) toExpiry() uint64 {
	if t.downcounting {
		return uint64(t.counter) + 1
	}
	if t.counter > t.autoreloadShadow {
		return 1<<32 - uint64(t.counter)
	}
	return uint64(t.autoreloadShadow) - uint64(t.counter) + 1
}

// updateEvent reloads the counter. the interrupt flag is only set if the update
// is not disabled and if the interrupt argument is true.
func (t *Timer) updateEvent(interrupt bool) {
	if !t.updateEventDisabled {
		t.prescalerShadow = t.Regs.Peek("PSC")
		t.autoreloadShadow = t.Regs.Peek("ARR")

		if interrupt {
			// set update interrupt flag of status register
			t.Regs.Poke("SR", t.Regs.Peek("SR")|uif)
			if t.Regs.Peek("DIER")&uie == uie {
				t.Ctx.AssertIRQ()
			}
		}
	}

	// reset of the counters occurs even when updateEventDisabled is true.
	// RM0316 says "... no update event occurs until the UDIS bit has been
	// written to 0. However, the counter restarts from 0 ..."
	if t.downcounting {
		t.counter = t.autoreloadShadow
	} else {
		t.counter = 0
	}
	t.prescalerCounter = 0

	// in one pulse mode the counter stops at the update event
	if t.onePulse {
		t.enable = false
		t.Regs.Poke("CR1", t.Regs.Peek("CR1")&^cr1CEN)
	}
}

// schedule the next update event on the clock so that the interrupt is raised
// at the correct time. there is no need to schedule anything if the interrupt
// is not enabled
func (t *Timer) schedule() {
	t.next.Cancel()
	t.next = nil

	if !t.enable || t.updateEventDisabled || t.Regs.Peek("DIER")&uie != uie {
		return
	}
	if t.Ctx.Scheduler == nil || t.Ctx.Clock == nil {
		return
	}

	period := uint64(t.prescalerShadow) + 1
	due := t.resolved + t.toExpiry()*period - t.prescalerCounter
	if due <= t.resolved {
		due = t.resolved + 1
	}

	t.next = t.Ctx.Scheduler.Schedule(t.Ctx.Clock, due, func() {
		t.next = nil
		t.Tick()
		t.schedule()
	})
}

func (t *Timer) writeCR1(r *registers.Register, value uint32, _ uint32) {
	t.Tick()
	r.Store(value)
	t.setControlRegister(value)
	t.schedule()
}

func (t *Timer) writeDIER(r *registers.Register, value uint32, _ uint32) {
	t.Tick()
	if value&^uie != 0 {
		t.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "DIER %#04x: only UIE is supported", value))
	}
	r.Store(value)
	t.schedule()
}

// writeSR clears the bits that are written as zero. bits cannot be set by
// writing.
func (t *Timer) writeSR(r *registers.Register, value uint32, _ uint32) {
	r.Store(r.Value() & value)
}

func (t *Timer) writeEGR(_ *registers.Register, value uint32, _ uint32) {
	t.Tick()
	if value&ug == ug {
		// with URS set, an update generated by software does not set the
		// interrupt flag
		t.updateEvent(!t.updateRequestSource)
		t.schedule()
	}
	if value&^ug != 0x0000 {
		t.Ctx.Log(errors.Wrap(peripherals.ErrUnimplementedFeature, "EGR: only setting UG bit of this register is supported"))
	}
}

func (t *Timer) readCNT(_ *registers.Register) uint32 {
	t.Tick()
	return t.counter
}

func (t *Timer) writeCNT(r *registers.Register, value uint32, _ uint32) {
	t.Tick()
	t.counter = value
	r.Store(value)
	t.schedule()
}

func (t *Timer) writeARR(r *registers.Register, value uint32, _ uint32) {
	t.Tick()
	r.Store(value)

	// copy autoreload value to shadow immediately if autoReloadBuffered is false
	if !t.autoReloadBuffered {
		t.autoreloadShadow = value
	}
	t.schedule()
}

func (t *Timer) writeUnimplemented(r *registers.Register, value uint32, _ uint32) {
	if value != 0 {
		t.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "%s %#08x", r.Name, value))
	}
	r.Store(value)
}
