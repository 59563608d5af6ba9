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

// Package modalflag is a wrapper for the flag package in the Go standard
// library. It adds program modes (and sub-modes) and allows different flags
// for each mode.
//
// The arguments are given with NewArgs() and then Parse() is called with no
// arguments. Non-flag arguments can be retrieved after parsing with
// RemainingArgs() or GetArg().
//
//	md := modalflag.Modes{Output: os.Stdout}
//	md.NewArgs(os.Args[1:])
//	md.AddSubModes("RUN", "CHECK", "DUMP", "CONSOLE")
//	p, err := md.Parse()
//
// A mode is a special command line argument that puts the program into a
// different mode of operation, with its own set of flags. The first sub-mode
// is the default and is selected if the first non-flag argument is not a
// sub-mode. Sub-mode comparisons are case insensitive and modes are always
// reported in upper case.
//
// Once a mode has been selected, NewMode() starts a new set of flags and
// Parse() is called again for the arguments that follow the mode:
//
//	switch md.Mode() {
//	case "RUN":
//		md.NewMode()
//		platform := md.AddString("platform", "", "platform description file")
//		p, err := md.Parse()
//		...
//	}
//
// Modes can be chained as deep as required. Path() returns every mode
// selected so far, separated by a slash.
//
// The -help flag is handled by Parse(), which prints the flags and sub-modes
// of the current mode to the Output writer and returns ParseHelp.
package modalflag
