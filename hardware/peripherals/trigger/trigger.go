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

// Package trigger describes the events that cause a peripheral to act other
// than a plain register access.
//
// A Trigger is one of three variants: a software trigger caused by a write to
// a trigger register, the expiry of a counter, or an edge on an external line.
// Triggers do not queue. A Latch holds at most one pending trigger and a
// trigger is consumed at most once.
package trigger

import "fmt"

// Trigger is implemented by SoftwareWrite, CounterExpiry and ExternalEdge
// only.
type Trigger interface {
	fmt.Stringer
	isTrigger()
}

// SoftwareWrite is raised by a write to a software trigger register.
type SoftwareWrite struct {
	Offset uint32
}

func (SoftwareWrite) isTrigger() {}

func (t SoftwareWrite) String() string {
	return fmt.Sprintf("software write (offset %#02x)", t.Offset)
}

// CounterExpiry is raised when a device counter expires.
type CounterExpiry struct {
	Device string
}

func (CounterExpiry) isTrigger() {}

func (t CounterExpiry) String() string {
	return fmt.Sprintf("counter expiry (%s)", t.Device)
}

// Edge is the direction of an ExternalEdge.
type Edge int

// List of valid Edge values.
const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	}
	return "unknown edge"
}

// ExternalEdge is raised by the host when an external line changes level.
type ExternalEdge struct {
	Line int
	Edge Edge
}

func (ExternalEdge) isTrigger() {}

func (t ExternalEdge) String() string {
	return fmt.Sprintf("%s edge (line %d)", t.Edge, t.Line)
}

// Latch holds at most one pending trigger. Raising a trigger while another is
// pending replaces it.
type Latch struct {
	pending Trigger
}

// Raise a trigger. Returns true if a pending trigger was replaced.
func (l *Latch) Raise(t Trigger) bool {
	replaced := l.pending != nil
	l.pending = t
	return replaced
}

// Pending returns true if there is a trigger waiting to be consumed.
func (l *Latch) Pending() bool {
	return l.pending != nil
}

// Consume the pending trigger. Returns false if there is no trigger.
func (l *Latch) Consume() (Trigger, bool) {
	t := l.pending
	l.pending = nil
	return t, t != nil
}

// Clear the latch without consuming the pending trigger.
func (l *Latch) Clear() {
	l.pending = nil
}
