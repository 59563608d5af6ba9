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

// Package registers implements the register file of a memory-mapped
// peripheral.
//
// A peripheral declares its registers with a table of Spec values. The table
// is checked when the File is created: registers must be aligned to their
// width, must not overlap and must fit inside the address range of the
// peripheral.
//
// The File enforces the access rules common to all peripherals so that the
// peripheral implementations do not have to:
//
//   - values are masked to the width of the register (and to the optional
//     Mask) before storage
//   - a write to a read-only register is discarded
//   - a read of a write-only register returns zero
//
// An access that is narrower or wider than a register is split into byte
// lanes. A 32-bit access that spans two 16-bit registers becomes two 16-bit
// accesses. An 8-bit access to a 32-bit register affects only the addressed
// byte.
//
// Bytes inside the address range of the peripheral that are not covered by
// any register are "unrecognised". Writes to them are stored and logged and
// reads return whatever was last written, or zero.
package registers
