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

// Package notifications allow communication from a peripheral to the host
// running the emulation. Notifications describe events that are not visible
// through the register interface, for example the expiry of the watchdog.
//
// The host decides what to do with a notification. For the watchdog, the
// hardware package can be configured to reset the machine. Other hosts may
// simply record the event and let the test harness assert on it.
package notifications
