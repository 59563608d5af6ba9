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

package notifications

import (
	"fmt"
	"strings"
	"time"
)

// Notice describes events that happen in a peripheral that the host might
// want to act upon.
type Notice string

// List of defined notifications.
const (
	// the independent watchdog has counted down to zero
	NotifyWatchdogExpired Notice = "NotifyWatchdogExpired"

	// every device has been recreated
	NotifyMachineReset Notice = "NotifyMachineReset"
)

// Notify is implemented by the host. The source is the label of the device
// sending the notice.
type Notify interface {
	Notify(notice Notice, source string)
}

// Event is a single notification as kept by the Record type.
type Event struct {
	Time   time.Duration
	Notice Notice
	Source string
}

func (e Event) String() string {
	return fmt.Sprintf("%v %s: %s", e.Time, e.Source, e.Notice)
}

// Record is an implementation of Notify that keeps a list of every
// notification. The time of each notification is taken from the optional Now
// function.
type Record struct {
	Now    func() time.Duration
	events []Event
}

// Notify implements the Notify interface.
func (r *Record) Notify(notice Notice, source string) {
	e := Event{
		Notice: notice,
		Source: source,
	}
	if r.Now != nil {
		e.Time = r.Now()
	}
	r.events = append(r.events, e)
}

// Events returns a copy of every notification recorded so far.
func (r *Record) Events() []Event {
	return append([]Event(nil), r.events...)
}

// Count returns the number of times the notice has been recorded.
func (r *Record) Count(notice Notice) int {
	var n int
	for _, e := range r.events {
		if e.Notice == notice {
			n++
		}
	}
	return n
}

// Clear forgets all recorded notifications.
func (r *Record) Clear() {
	r.events = r.events[:0]
}

func (r *Record) String() string {
	s := strings.Builder{}
	for _, e := range r.events {
		s.WriteString(e.String())
		s.WriteString("\n")
	}
	return s.String()
}
