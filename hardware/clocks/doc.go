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

// Package clocks implements the virtual time of the emulation.
//
// A Clock holds the current virtual time in nanoseconds. It is advanced only
// by the host, never by a peripheral. A Domain is a clock signal of a given
// frequency derived from the Clock, for example the system clock or the low
// speed internal oscillator. The tick count of a Domain is always:
//
//	floor(now * frequency / 1e9)
//
// and is therefore monotonic and exact, however the host chooses to advance
// time.
//
// Peripherals reconcile their counters lazily against Domain.Ticks() when they
// are accessed. A peripheral that must act at a particular moment without
// being accessed (a watchdog expiring, a timer raising an interrupt) schedules
// an Event on the Clock. Events fire during Advance(), in time order, with the
// Clock set to the moment of the event.
package clocks
