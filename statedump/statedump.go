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

// Package statedump writes the state of a machine in either text form or as a
// graphviz graph. The state is a snapshot of the clocks, the register values
// of every device and the notifications and serial output so far.
package statedump

import (
	"fmt"
	"io"
	"time"

	"github.com/bradleyjkemp/memviz"
	"github.com/davecgh/go-spew/spew"

	"github.com/periphemu/periphemu/hardware"
	"github.com/periphemu/periphemu/notifications"
)

// Clock is the state of a single clock domain.
type Clock struct {
	Name      string
	Frequency uint64
	Ticks     uint64
}

// Register is the value of a single register.
type Register struct {
	Name   string
	Offset uint32
	Value  uint32
}

// Device is the state of a single device.
type Device struct {
	Label     string
	Kind      string
	Base      uint32
	Registers []Register

	// summary of internal state not visible in the registers. empty if the
	// device does not provide one
	State string
}

// State of the machine.
type State struct {
	Time       time.Duration
	Clocks     []Clock
	Devices    []Device
	Interrupts string
	Notices    []notifications.Event
	Serial     string
}

// Snapshot returns the current state of the machine. Devices are brought up
// to date with the clock before the snapshot is taken.
func Snapshot(m *hardware.Machine) State {
	m.Bus.Tick()

	s := State{
		Time:    m.Clock.Now(),
		Notices: m.Notices().Events(),
		Serial:  m.Serial(),
	}

	if st, ok := m.Interrupts.(fmt.Stringer); ok {
		s.Interrupts = st.String()
	}

	for _, d := range m.Clock.Domains() {
		s.Clocks = append(s.Clocks, Clock{
			Name:      d.Name(),
			Frequency: d.Frequency(),
			Ticks:     d.Ticks(),
		})
	}

	for _, e := range m.Map.Entries() {
		d := Device{
			Label: e.Device.Label(),
			Kind:  string(e.Device.Kind()),
			Base:  e.Origin,
		}
		for _, r := range e.Device.Registers().Registers() {
			d.Registers = append(d.Registers, Register{
				Name:   r.Name,
				Offset: r.Offset,
				Value:  r.Value(),
			})
		}
		if st, ok := e.Device.(fmt.Stringer); ok {
			d.State = st.String()
		}
		s.Devices = append(s.Devices, d)
	}

	return s
}

var config = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Text writes the state of the machine in a human readable form.
func Text(w io.Writer, m *hardware.Machine) {
	config.Fdump(w, Snapshot(m))
}

// Graph writes the state of the machine as a graphviz graph.
func Graph(w io.Writer, m *hardware.Machine) {
	s := Snapshot(m)
	memviz.Map(w, &s)
}
