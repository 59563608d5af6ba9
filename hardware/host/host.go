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

// Package host defines the narrow contract between the peripheral models and
// the emulation platform that hosts them. The platform supplies interrupt
// lines and a sink for notifications. The peripherals know nothing about how
// interrupts are routed or what happens after a notification is sent.
package host

import (
	"fmt"
	"sort"
	"strings"

	"github.com/periphemu/periphemu/notifications"
)

// InterruptController is the capability to assert an interrupt line.
type InterruptController interface {
	AssertLine(n int)
}

// EventSink receives notifications from peripherals.
type EventSink = notifications.Notify

// Lines is an implementation of InterruptController that counts the number
// of times each line has been asserted. The zero value is ready to use.
type Lines struct {
	asserted map[int]int
}

// AssertLine implements the InterruptController interface.
func (l *Lines) AssertLine(n int) {
	if l.asserted == nil {
		l.asserted = make(map[int]int)
	}
	l.asserted[n]++
}

// Count returns the number of times the line has been asserted since the last
// call to Acknowledge() for that line.
func (l *Lines) Count(n int) int {
	return l.asserted[n]
}

// Acknowledge clears the count for the line and returns what the count was.
func (l *Lines) Acknowledge(n int) int {
	c := l.asserted[n]
	delete(l.asserted, n)
	return c
}

// Reset clears the count for every line.
func (l *Lines) Reset() {
	l.asserted = nil
}

func (l *Lines) String() string {
	var lines []int
	for n := range l.asserted {
		lines = append(lines, n)
	}
	sort.Ints(lines)

	s := strings.Builder{}
	for i, n := range lines {
		if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(fmt.Sprintf("irq%d=%d", n, l.asserted[n]))
	}
	return s.String()
}
