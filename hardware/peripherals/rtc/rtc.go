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

package rtc

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
)

// Register offsets.
const (
	TR   = 0x00
	DR   = 0x04
	CR   = 0x08
	ISR  = 0x0c
	PRER = 0x10
	WPR  = 0x24
)

// ISR bits.
const (
	isrWriteFlags = 0x07
	isrINITS      = 0x10
	isrRSF        = 0x20
	isrINITF      = 0x40
	isrINIT       = 0x80
)

// CR bits that are accepted but have no effect.
const (
	crFMT   = 0x00000040
	crInert = 0x00ffff7f &^ crFMT
)

// Write protection key sequence.
const (
	Key1 = 0xca
	Key2 = 0x53
)

// the state of the write protection key sequence
type protection int

const (
	locked protection = iota
	firstKey
	unlocked
)

// RTC is the real-time clock.
type RTC struct {
	peripherals.Base

	protection protection
	init       bool

	calendar Calendar

	// the tick of the clock domain at which the current second started
	epoch uint64
}

// NewRTC is the preferred method of initialisation for the RTC type.
func NewRTC(ctx peripherals.Context) (*RTC, error) {
	r := &RTC{}

	var err error
	r.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "TR", Offset: TR, Width: registers.Width32, Mask: 0x007f7f7f, Read: r.readTR, Write: r.writeCalendar},
		{Name: "DR", Offset: DR, Width: registers.Width32, Mask: 0x00ffff3f, Reset: 0x00002101, Read: r.readDR, Write: r.writeCalendar},
		{Name: "CR", Offset: CR, Width: registers.Width32, Mask: 0x00ffff7f, Write: r.writeCR},
		{Name: "ISR", Offset: ISR, Width: registers.Width32, Mask: 0x0001ffff, Reset: isrWriteFlags, Read: r.readISR, Write: r.writeISR},
		{Name: "PRER", Offset: PRER, Width: registers.Width32, Mask: 0x007f7fff, Reset: 0x007f00ff, Write: r.writeCalendar},
		{Name: "WPR", Offset: WPR, Width: registers.Width8, Access: registers.WriteOnly, Write: r.writeWPR},
	})
	if err != nil {
		return nil, err
	}

	r.Reset()

	return r, nil
}

// Reset implements the peripherals.Device interface.
func (r *RTC) Reset() {
	r.Regs.Reset()
	r.protection = locked
	r.init = false
	r.calendar = Calendar{}
	r.calendar.setTR(r.Regs.Peek("TR"))
	r.calendar.setDR(r.Regs.Peek("DR"))
	r.epoch = r.now()
}

func (r *RTC) now() uint64 {
	if r.Ctx.Clock == nil {
		return 0
	}
	return r.Ctx.Clock.Ticks()
}

// Tick implements the peripherals.Device interface. The calendar is advanced
// by the number of whole seconds since the last tick.
func (r *RTC) Tick() {
	if r.init || r.Ctx.Clock == nil {
		return
	}

	freq := r.Ctx.Clock.Frequency()
	secs := (r.now() - r.epoch) / freq
	if secs == 0 {
		return
	}

	r.calendar.Advance(secs)
	r.epoch += secs * freq
}

// Calendar returns the current time and date.
func (r *RTC) Calendar() Calendar {
	r.Tick()
	return r.calendar
}

// InitMode returns true if the calendar is stopped for initialisation.
func (r *RTC) InitMode() bool {
	return r.init
}

// Unlocked returns true if the write protection has been removed.
func (r *RTC) Unlocked() bool {
	return r.protection == unlocked
}

func (r *RTC) String() string {
	return fmt.Sprintf("%s unlocked=%v init=%v", r.Calendar(), r.Unlocked(), r.init)
}

func (r *RTC) readTR(reg *registers.Register) uint32 {
	if r.init {
		return reg.Value()
	}
	r.Tick()
	return r.calendar.TR()
}

func (r *RTC) readDR(reg *registers.Register) uint32 {
	if r.init {
		return reg.Value()
	}
	r.Tick()
	return r.calendar.DR()
}

func (r *RTC) readISR(reg *registers.Register) uint32 {
	v := reg.Value() &^ (isrINIT | isrINITF | isrRSF | isrINITS)
	v |= isrWriteFlags
	if r.init {
		v |= isrINIT | isrINITF
	} else {
		v |= isrRSF
	}
	if r.calendar.Year != 0 {
		v |= isrINITS
	}
	return v
}

// writeCalendar handles writes to TR, DR and PRER. These registers can only be
// written when the write protection is removed and the calendar is in
// initialisation mode.
func (r *RTC) writeCalendar(reg *registers.Register, value uint32, _ uint32) {
	if r.protection != unlocked {
		r.Ctx.Log(errors.Wrapf(peripherals.ErrProtectedWrite, "write to %s: write protected", reg.Name))
		return
	}
	if !r.init {
		r.Ctx.Log(errors.Wrapf(peripherals.ErrProtectedWrite, "write to %s: not in initialisation mode", reg.Name))
		return
	}
	reg.Store(value)
}

func (r *RTC) writeCR(reg *registers.Register, value uint32, _ uint32) {
	if r.protection != unlocked {
		r.Ctx.Log(errors.Wrapf(peripherals.ErrProtectedWrite, "write to %s: write protected", reg.Name))
		return
	}
	if value&crFMT == crFMT {
		r.Ctx.Log(errors.Wrap(peripherals.ErrUnimplementedFeature, "CR: 12 hour format"))
	}
	if value&crInert != 0 {
		r.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "CR %#08x: alarms, wakeup and time stamp", value&crInert))
	}
	reg.Store(value)
}

func (r *RTC) writeISR(reg *registers.Register, value uint32, lanes uint32) {
	if lanes&isrINIT == 0 {
		return
	}

	init := value&isrINIT == isrINIT
	if init == r.init {
		return
	}

	if r.protection != unlocked {
		r.Ctx.Log(errors.Wrapf(peripherals.ErrProtectedWrite, "write to %s: write protected", reg.Name))
		return
	}

	if init {
		// bring the calendar up to date before freezing it. the TR and DR
		// registers hold the time as it was at the moment of entering
		// initialisation
		r.Tick()
		r.init = true
		r.Regs.Poke("TR", r.calendar.TR())
		r.Regs.Poke("DR", r.calendar.DR())
		return
	}

	// leaving initialisation commits the new time and date
	r.init = false
	r.calendar.setTR(r.Regs.Peek("TR"))
	r.calendar.setDR(r.Regs.Peek("DR"))
	r.epoch = r.now()
}

func (r *RTC) writeWPR(_ *registers.Register, value uint32, _ uint32) {
	switch {
	case value == Key1:
		r.protection = firstKey
	case value == Key2 && r.protection == firstKey:
		r.protection = unlocked
	default:
		r.protection = locked
	}
}
