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

// Package hardware is the base package for the emulated peripherals of a
// microcontroller. The Machine type is the entry point for an emulation
// session.
//
// A Machine is created from a platform description. The description names
// each peripheral, its kind, its base address and the clock domain that
// drives it. NewMachine() fails if two peripherals claim the same addresses.
//
// The Machine is driven entirely by the host. Bus accesses are made with
// Read() and Write(), external signals with Edge() and virtual time is moved
// forward with Advance(). Nothing happens between calls: there are no
// goroutines and no wall-clock time.
//
// The sub-packages are organised as follows:
//
//	clocks		virtual time, clock domains and scheduled events
//	peripherals	device models and the register file they are built on
//	memory		the memory map and the bus dispatch
//	platform	platform description files
//	host		interrupt lines and the event sink
//	preferences	preferences for the machine
package hardware
