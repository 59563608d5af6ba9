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

package clocks

import (
	"fmt"
	"math/bits"
	"sort"
	"time"

	"github.com/pkg/errors"
)

const nsPerSecond = uint64(time.Second)

// Standard clock frequencies of an STM32F3 device.
const (
	HSI = 8000000
	LSI = 40000
	LSE = 32768
)

// Standard domain names.
const (
	SysClk           = "sysclk"
	LowSpeedInternal = "lsi"
)

// View is the read-only interface to a clock domain given to peripherals.
type View interface {
	Name() string
	Frequency() uint64
	Ticks() uint64
}

// Domain is a clock signal derived from the virtual time of a Clock.
type Domain struct {
	clk       *Clock
	name      string
	frequency uint64
}

// Name of the clock domain.
func (d *Domain) Name() string {
	return d.name
}

// Frequency of the clock domain in Hz.
func (d *Domain) Frequency() uint64 {
	return d.frequency
}

// Ticks returns the number of ticks of the domain since virtual time zero.
func (d *Domain) Ticks() uint64 {
	hi, lo := bits.Mul64(d.clk.now, d.frequency)
	if hi >= nsPerSecond {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, nsPerSecond)
	return q
}

// Elapsed returns the virtual time of the clock that drives the domain.
func (d *Domain) Elapsed() time.Duration {
	return time.Duration(d.clk.now)
}

// timeOfTick returns the earliest virtual time at which the domain reaches the
// specified tick.
func (d *Domain) timeOfTick(tick uint64) uint64 {
	hi, lo := bits.Mul64(tick, nsPerSecond)

	// the quotient must fit in 64 bits. ticks that far in the future are
	// clamped to the end of time
	if hi >= d.frequency {
		return ^uint64(0)
	}

	q, r := bits.Div64(hi, lo, d.frequency)
	if r != 0 {
		q++
	}
	return q
}

func (d *Domain) String() string {
	return fmt.Sprintf("%s (%dHz) %d ticks", d.name, d.frequency, d.Ticks())
}

// Clock is the virtual time of the emulation and the owner of all clock
// domains and scheduled events.
type Clock struct {
	now     uint64
	domains []*Domain

	// pending events in time order. events with the same time are kept in the
	// order they were scheduled
	events []*Event
	seq    uint64
}

// NewClock is the preferred method of initialisation for the Clock type.
func NewClock() *Clock {
	return &Clock{}
}

// AddDomain creates a new clock domain. Domain names must be unique and the
// frequency must not be zero.
func (clk *Clock) AddDomain(name string, frequency uint64) (*Domain, error) {
	if frequency == 0 {
		return nil, errors.Errorf("clocks: %s: frequency cannot be zero", name)
	}
	if clk.Domain(name) != nil {
		return nil, errors.Errorf("clocks: %s: domain already exists", name)
	}
	d := &Domain{
		clk:       clk,
		name:      name,
		frequency: frequency,
	}
	clk.domains = append(clk.domains, d)
	return d, nil
}

// Domain returns the named domain or nil if it does not exist.
func (clk *Clock) Domain(name string) *Domain {
	for _, d := range clk.domains {
		if d.name == name {
			return d
		}
	}
	return nil
}

// Domains returns all clock domains in the order they were added.
func (clk *Clock) Domains() []*Domain {
	return clk.domains
}

// Now returns the current virtual time.
func (clk *Clock) Now() time.Duration {
	return time.Duration(clk.now)
}

// Advance virtual time by the specified duration. Events that fall due are
// fired in time order. Negative durations are ignored: virtual time never
// runs backwards.
func (clk *Clock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	target := clk.now + uint64(d)
	if target < clk.now {
		target = ^uint64(0)
	}
	clk.advanceTo(target)
}

// Step advances virtual time to the next scheduled event or by the duration,
// whichever is sooner. Every event due at that moment is fired. Returns the
// part of the duration that remains.
func (clk *Clock) Step(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	target := clk.now + uint64(d)
	if target < clk.now {
		target = ^uint64(0)
	}

	if len(clk.events) > 0 && clk.events[0].at < target {
		at := clk.events[0].at
		if at < clk.now {
			at = clk.now
		}
		clk.advanceTo(at)
		return time.Duration(target - clk.now)
	}

	clk.advanceTo(target)
	return 0
}

// AdvanceTicks advances virtual time until the domain has ticked n more times.
func (clk *Clock) AdvanceTicks(d *Domain, n uint64) {
	clk.advanceTo(d.timeOfTick(d.Ticks() + n))
}

func (clk *Clock) advanceTo(target uint64) {
	for len(clk.events) > 0 && clk.events[0].at <= target {
		e := clk.events[0]
		clk.events = clk.events[1:]
		if e.at > clk.now {
			clk.now = e.at
		}
		e.pending = false
		e.fn()
	}
	clk.now = target
}

// Schedule a function to be called when the domain reaches the specified
// tick. If the tick has already been reached the event fires on the next call
// to Advance().
func (clk *Clock) Schedule(d *Domain, tick uint64, fn func()) *Event {
	at := d.timeOfTick(tick)
	if at < clk.now {
		at = clk.now
	}

	clk.seq++
	e := &Event{
		clk:     clk,
		at:      at,
		seq:     clk.seq,
		fn:      fn,
		pending: true,
	}

	i := sort.Search(len(clk.events), func(i int) bool {
		o := clk.events[i]
		return o.at > e.at || (o.at == e.at && o.seq > e.seq)
	})
	clk.events = append(clk.events, nil)
	copy(clk.events[i+1:], clk.events[i:])
	clk.events[i] = e

	return e
}

// Pending returns the number of events waiting to fire.
func (clk *Clock) Pending() int {
	return len(clk.events)
}

// CancelAll removes every pending event.
func (clk *Clock) CancelAll() {
	for _, e := range clk.events {
		e.pending = false
	}
	clk.events = clk.events[:0]
}

// Event is a function scheduled to run at a moment in virtual time.
type Event struct {
	clk     *Clock
	at      uint64
	seq     uint64
	fn      func()
	pending bool
}

// Pending returns true if the event has not fired and has not been
// cancelled.
func (e *Event) Pending() bool {
	return e != nil && e.pending
}

// Cancel the event. It is safe to cancel an event that has already fired or
// to cancel a nil event.
func (e *Event) Cancel() {
	if e == nil || !e.pending {
		return
	}
	e.pending = false
	for i, o := range e.clk.events {
		if o == e {
			e.clk.events = append(e.clk.events[:i], e.clk.events[i+1:]...)
			return
		}
	}
}
