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

// Package iwdg implements the independent watchdog of the STM32F3.
//
// The watchdog counts down in its own clock domain, normally the 40kHz LSI
// clock. When the count reaches zero the host is notified with
// notifications.NotifyWatchdogExpired. What happens next is up to the host.
// The watchdog itself stops and stays stopped until it is reset.
//
// The window option is not implemented. The WINR register is stored but a
// refresh is always accepted.
package iwdg

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/notifications"
)

// Register offsets.
const (
	KR   = 0x00
	PR   = 0x04
	RLR  = 0x08
	SR   = 0x0c
	WINR = 0x10
)

// Key register values.
const (
	KeyUnlock = 0x5555
	KeyStart  = 0xcccc
	KeyFeed   = 0xaaaa
)

// State of the watchdog counter.
type State int

// List of valid State values.
const (
	Stopped State = iota
	Running
	Expired
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Expired:
		return "expired"
	}
	return "unknown"
}

// Watchdog is the independent watchdog.
type Watchdog struct {
	peripherals.Base

	state State

	// write access to PR, RLR and WINR
	unlocked bool

	// the tick of the clock domain at which the counter reaches zero
	deadline uint64

	// the event that fires at the deadline
	expiry *clocks.Event

	// number of clock ticks for each count of the reload value. taken from
	// the prescaler at the moment of the last reload
	divider uint64
}

// NewWatchdog is the preferred method of initialisation for the Watchdog type.
func NewWatchdog(ctx peripherals.Context) (*Watchdog, error) {
	w := &Watchdog{}

	var err error
	w.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "KR", Offset: KR, Width: registers.Width16, Access: registers.WriteOnly, Write: w.writeKR},
		{Name: "PR", Offset: PR, Width: registers.Width8, Mask: 0x07, Write: w.writeGated},
		{Name: "RLR", Offset: RLR, Width: registers.Width16, Mask: 0x0fff, Reset: 0x0fff, Write: w.writeGated},
		{Name: "SR", Offset: SR, Width: registers.Width8, Access: registers.ReadOnly, Mask: 0x07},
		{Name: "WINR", Offset: WINR, Width: registers.Width16, Mask: 0x0fff, Reset: 0x0fff, Write: w.writeGated},
	})
	if err != nil {
		return nil, err
	}

	w.Reset()

	return w, nil
}

// Reset implements the peripherals.Device interface.
func (w *Watchdog) Reset() {
	w.expiry.Cancel()
	w.expiry = nil
	w.Regs.Reset()
	w.state = Stopped
	w.unlocked = false
	w.deadline = 0
	w.divider = 0
}

// State returns the state of the watchdog counter.
func (w *Watchdog) State() State {
	w.Tick()
	return w.state
}

// Counter returns the current value of the down counter.
func (w *Watchdog) Counter() uint32 {
	w.Tick()
	if w.state != Running {
		return 0
	}

	now := w.Ctx.Clock.Ticks()
	if now >= w.deadline {
		return 0
	}
	return uint32((w.deadline - now + w.divider - 1) / w.divider)
}

func (w *Watchdog) String() string {
	return fmt.Sprintf("%s counter=%03x", w.State(), w.Counter())
}

// Tick implements the peripherals.Device interface.
func (w *Watchdog) Tick() {
	if w.state == Running && w.Ctx.Clock.Ticks() >= w.deadline {
		w.expire()
	}
}

// prescaler returns the number of clock ticks per count for the current value
// of PR.
func (w *Watchdog) prescaler() uint64 {
	pr := w.Regs.Peek("PR")
	if pr > 6 {
		pr = 6
	}
	return 4 << pr
}

// reload the counter with the value in RLR and schedule the expiry.
func (w *Watchdog) reload() {
	w.divider = w.prescaler()
	w.deadline = w.Ctx.Clock.Ticks() + w.divider*uint64(w.Regs.Peek("RLR"))

	w.expiry.Cancel()
	w.expiry = nil
	if w.Ctx.Scheduler != nil {
		w.expiry = w.Ctx.Scheduler.Schedule(w.Ctx.Clock, w.deadline, w.expire)
	}
}

func (w *Watchdog) expire() {
	if w.state != Running {
		return
	}
	w.state = Expired
	w.expiry.Cancel()
	w.expiry = nil
	w.Ctx.Log("watchdog expired")
	w.Ctx.Notify(notifications.NotifyWatchdogExpired)
}

func (w *Watchdog) writeKR(_ *registers.Register, value uint32, _ uint32) {
	if w.state == Expired {
		w.Ctx.Logf("key %#04x ignored: watchdog has expired", value)
		return
	}

	switch value {
	case KeyUnlock:
		w.unlocked = true

	case KeyStart:
		w.unlocked = false
		if w.state == Stopped {
			w.state = Running
			w.reload()
		}

	case KeyFeed:
		w.unlocked = false
		if w.state == Running {
			w.reload()
		}

	default:
		w.Ctx.Logf("unrecognised key %#04x", value)
	}
}

func (w *Watchdog) writeGated(r *registers.Register, value uint32, _ uint32) {
	if !w.unlocked {
		w.Ctx.Log(errors.Wrapf(peripherals.ErrProtectedWrite, "write of %#04x to %s", value, r.Name))
		return
	}

	if r.Name == "WINR" && value != r.Reset {
		w.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "WINR %#04x: window mode", value))
	}

	r.Store(value)
}
