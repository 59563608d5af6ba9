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

// Package peripherals defines the interface shared by all memory-mapped
// peripheral models, and the Context through which a model reaches its clock,
// the scheduler and the host.
//
// The peripheral models themselves are in sub-packages, one for each Kind. The
// catalogue sub-package creates a model from its Kind.
//
// A peripheral never panics and never returns an error from a bus access.
// Accesses that cannot be honoured are recovered locally and logged. The
// sentinel errors in this package classify these log entries.
package peripherals
