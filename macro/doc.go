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

// Package macro implements the scripted test harness. A macro script drives a
// machine through its bus and edge entry points and makes assertions about
// register values and serial output.
//
// The first line of a script must be the header:
//
//	periphemu-macro
//
// The second line is reserved for a version string and is ignored.
//
// The macro language is very simple and does not implement any flow control
// except basic loops.
//
//	DO loopCt [loopName]
//		...
//	LOOP
//
// The 'loopName' parameter is optional. When a loop is named the current
// counter value can be referenced as a variable by prefixing the name with the
// % symbol. Variables can be used as the value in WRITE and EXPECT.
//
// Loops can be nested.
//
// Bus instructions. Addresses and values accept 0x and $ prefixed hex or
// decimal. The size is in bits (8, 16 or 32) and defaults to 32.
//
//	WRITE address value [size]
//	READ address [size]
//	EXPECT address value [size]
//
// The WAIT instruction advances virtual time by the specified duration. If no
// duration is given it defaults to 10ms.
//
//	WAIT [duration]
//
// External edges are sent with PRESS (a rising edge) and RELEASE (a falling
// edge) on a numbered line.
//
//	PRESS line
//	RELEASE line
//
// The SERIAL instruction checks that the text has been written to a serial
// peripheral. The text can be quoted.
//
//	SERIAL "PASS"
//
// Preferences of the machine can be changed with PREF. The value is parsed in
// the same way as preferences on the command line.
//
//	PREF hardware.resetOnWatchdog false
//
// Other instructions are RESET, which resets the machine, DUMP, which writes
// the state of the machine to the output, and QUIT, which ends the macro
// early.
//
// A failed EXPECT or SERIAL instruction is logged and counted but does not end
// the macro. Any other error in a macro script will result in a log entry and
// the termination of the macro execution.
//
// Lines can be commented by prefixing the line with two dashes (--). Leading
// and trailing white space is ignored.
package macro
