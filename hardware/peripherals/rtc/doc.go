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

// Package rtc implements the calendar of the STM32F3 real-time clock.
//
// Changing the time and date is a handshake. The write protection must first
// be removed by writing the two key values to WPR. Then the INIT bit in ISR
// is set, which is acknowledged immediately by the INITF bit. TR and DR can
// then be written. Clearing INIT starts the calendar from the new values.
// Writes to TR and DR outside of this sequence are discarded, as they are on
// the real hardware.
//
// The calendar advances once every second of virtual time, measured in the
// clock domain of the peripheral. The prescaler register is stored but the
// length of a second is always the frequency of the domain.
//
// Only the 24 hour format is supported. Alarms, the wakeup timer, time stamps,
// tamper detection and the backup registers are not implemented. Writes to
// those registers are stored and logged.
package rtc
