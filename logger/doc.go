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

// Package logger is the central log for the emulation. Log entries are made
// up of a tag and a detail string. The tag is usually the label of the
// peripheral or subsystem making the entry.
//
// Diagnostics that do not interrupt emulation (unmapped bus accesses, writes
// rejected by a write-protect gate, unimplemented feature bits) are recorded
// here rather than returned as errors.
//
// Consecutive entries that are identical are folded into a single entry with a
// repeat count, which keeps a polling loop from flooding the log.
package logger
