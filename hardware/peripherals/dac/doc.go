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

// Package dac implements the two channel digital to analogue converter of the
// STM32F3 (DAC1).
//
// Each channel holds a 12-bit value. The 12-bit right aligned, 12-bit left
// aligned and 8-bit holding registers are different views of that value. A
// write to a holding register is transferred to the output register (DOR)
// immediately if the channel is enabled and the trigger is disabled. With the
// trigger enabled the transfer waits for a software trigger.
//
// The trigger selection bits are stored but every trigger is treated as a
// software trigger. Wave generation, the output buffer and DMA are not
// implemented. The bits that control them are stored and logged.
//
// No analogue output is produced. The output register can be forwarded to a
// Sink, for example a WAV file writer.
package dac
