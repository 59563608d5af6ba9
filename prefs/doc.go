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

// Package prefs holds typed preference values. Each value can have hooks that
// run before and after a new value is set; a pre hook returning an error
// prevents the value from changing.
//
// Preference values are grouped in a Dictionary under a key. Values in a
// dictionary can be overridden from the command line with a preference string
// of the form:
//
//	key::value; key::value
//
// The command line stack is pushed with PushCommandLineStack() before the
// dictionary is created and popped when the value is no longer needed. Keys
// are removed from the stack as they are used, so the popped string contains
// only the keys that were not recognised.
package prefs
