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

// Package platform describes the peripherals of an emulated machine: which
// peripherals exist, where they are in the address space, which clock domain
// drives them and which interrupt line they use.
//
// A description is a text file with one declaration per line. Comments start
// with a # character.
//
//	# clock domains
//	clock <name> <frequency in Hz>
//
//	# peripherals
//	<label> <KIND> @ <base address> [clock=<name>] [irq=<n>]
//
// Numbers can be decimal or hexadecimal with the 0x prefix. The sysclk and lsi
// clock domains always exist and do not need to be declared, although their
// frequencies can be changed.
//
// All problems with a description are reported together, in an ErrorSet. A
// description with overlapping address ranges is invalid.
package platform
