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

package hardware

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/host"
	"github.com/periphemu/periphemu/hardware/memory/bus"
	"github.com/periphemu/periphemu/hardware/memory/memorymap"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/catalogue"
	"github.com/periphemu/periphemu/hardware/peripherals/dac"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/hardware/platform"
	"github.com/periphemu/periphemu/hardware/preferences"
	"github.com/periphemu/periphemu/logger"
	"github.com/periphemu/periphemu/notifications"
	"github.com/periphemu/periphemu/prefs"
)

// Source is the label used for notifications sent by the machine itself.
const Source = "machine"

// Machine is the main container for the emulated peripherals.
type Machine struct {
	Prefs *preferences.Preferences

	desc *platform.Description

	Clock *clocks.Clock

	// the interrupt controller that the peripherals assert lines on. defaults
	// to an instance of host.Lines
	Interrupts host.InterruptController

	Map *memorymap.Map
	Bus *bus.Dispatch

	// devices in the order they appear in the platform description
	devices []peripherals.Device

	notices *notifications.Record

	// the host can also be notified of events
	events notifications.Notify

	serial serial

	dacSink dac.Sink

	// a reset has been requested by a notification and will happen at the end
	// of the current advance step
	resetPending bool

	// number of times the machine has been reset
	resets int
}

// NewMachine creates a new Machine from the description. It is an error for
// two peripherals in the description to overlap.
func NewMachine(desc *platform.Description) (*Machine, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	m := &Machine{
		desc:       desc,
		Clock:      clocks.NewClock(),
		Interrupts: &host.Lines{},
	}

	var err error

	m.Prefs, err = preferences.NewPreferences()
	if err != nil {
		return nil, errors.Wrap(err, "hardware")
	}

	m.notices = &notifications.Record{Now: m.Clock.Now}
	m.serial.m = m

	for _, c := range desc.Clocks {
		_, err = m.Clock.AddDomain(c.Name, c.Frequency)
		if err != nil {
			return nil, errors.Wrap(err, "hardware")
		}
	}

	err = m.build()
	if err != nil {
		return nil, err
	}

	return m, nil
}

// build creates every device in the description and the memory map they are
// placed in.
func (m *Machine) build() error {
	mmap := &memorymap.Map{}
	devices := make([]peripherals.Device, 0, len(m.desc.Instances))

	for _, in := range m.desc.Instances {
		ctx := peripherals.Context{
			Label:      in.Label,
			Kind:       in.Kind,
			Clock:      m.Clock.Domain(in.Clock),
			Scheduler:  m.Clock,
			IRQ:        in.IRQ,
			Interrupts: m,
			Events:     m,
			Serial:     &m.serial,
			Perm:       m,
		}
		if ctx.Clock == nil {
			return errors.Errorf("hardware: %s: unknown clock (%s)", in.Label, in.Clock)
		}

		dev, err := catalogue.New(ctx)
		if err != nil {
			return errors.Wrap(err, "hardware")
		}

		if d, ok := dev.(*dac.DAC); ok && m.dacSink != nil {
			d.AttachSink(m.dacSink)
		}

		err = mmap.Add(in.Base, dev)
		if err != nil {
			return errors.Wrap(err, "hardware")
		}

		devices = append(devices, dev)
	}

	m.Map = mmap
	m.devices = devices

	m.Bus = bus.NewDispatch(mmap, m)
	m.Bus.LogUnmapped = m.Prefs.LogUnmapped.Value()
	m.Prefs.LogUnmapped.SetHookPost(func(v prefs.Value) error {
		m.Bus.LogUnmapped = v.(bool)
		return nil
	})

	return nil
}

// AllowLogging implements the logger.Permission interface.
func (m *Machine) AllowLogging() bool {
	return !m.Prefs.Quiet.Value()
}

// AssertLine implements the host.InterruptController interface. The request
// is forwarded to the Interrupts field.
func (m *Machine) AssertLine(n int) {
	if m.Interrupts != nil {
		m.Interrupts.AssertLine(n)
	}
}

// Notify implements the notifications.Notify interface. Every notice is
// recorded and forwarded to the host.
func (m *Machine) Notify(notice notifications.Notice, source string) {
	m.notices.Notify(notice, source)

	if m.events != nil {
		m.events.Notify(notice, source)
	}

	if notice == notifications.NotifyWatchdogExpired && m.Prefs.ResetOnWatchdog.Value() {
		m.resetPending = true
	}
}

// AttachEvents forwards every notification to the host. A nil value detaches
// the current host.
func (m *Machine) AttachEvents(events notifications.Notify) {
	m.events = events
}

// AttachSerial forwards the output of serial peripherals to the writer. A nil
// value detaches the current writer. Serial output is recorded whether or not
// a writer is attached.
func (m *Machine) AttachSerial(w io.Writer) {
	m.serial.attached = w
}

// AttachDACSink attaches the sink to every DAC in the machine. The sink
// remains attached after a reset.
func (m *Machine) AttachDACSink(s dac.Sink) {
	m.dacSink = s
	for _, dev := range m.devices {
		if d, ok := dev.(*dac.DAC); ok {
			d.AttachSink(s)
		}
	}
}

// Serial returns everything written to a serial peripheral since the machine
// was created or since the last call to ClearSerial().
func (m *Machine) Serial() string {
	return m.serial.received.String()
}

// ClearSerial forgets recorded serial output.
func (m *Machine) ClearSerial() {
	m.serial.received.Reset()
}

// SetPreference changes the named preference. The value is parsed according
// to the type of the preference.
func (m *Machine) SetPreference(key string, value string) error {
	return m.Prefs.Set(key, value)
}

// Notices returns the record of notifications.
func (m *Machine) Notices() *notifications.Record {
	return m.notices
}

// Description returns the platform description used to create the machine.
func (m *Machine) Description() *platform.Description {
	return m.desc
}

// Device returns the device with the label or nil if there is no such device.
func (m *Machine) Device(label string) peripherals.Device {
	for _, dev := range m.devices {
		if dev.Label() == label {
			return dev
		}
	}
	return nil
}

// Devices returns every device in the order they appear in the description.
func (m *Machine) Devices() []peripherals.Device {
	return m.devices
}

// Resets returns the number of times the machine has been reset.
func (m *Machine) Resets() int {
	return m.resets
}

// Read size bytes from the address. Size is 1, 2 or 4. Unmapped addresses
// read as zero.
func (m *Machine) Read(address uint32, size uint32) uint32 {
	return m.Bus.Read(address, size)
}

// Write size bytes to the address. Size is 1, 2 or 4.
func (m *Machine) Write(address uint32, size uint32, value uint32) {
	m.Bus.Write(address, size, value)
}

// Read32 is a word sized Read().
func (m *Machine) Read32(address uint32) uint32 {
	return m.Bus.Read(address, 4)
}

// Write32 is a word sized Write().
func (m *Machine) Write32(address uint32, value uint32) {
	m.Bus.Write(address, 4, value)
}

// Edge sends an external edge on the line to every device that receives
// edges. Returns false if no device received the edge.
func (m *Machine) Edge(line int, edge trigger.Edge) bool {
	e := trigger.ExternalEdge{Line: line, Edge: edge}

	var received bool
	for _, dev := range m.devices {
		if r, ok := dev.(peripherals.EdgeReceiver); ok {
			dev.Tick()
			r.Edge(e)
			received = true
		}
	}

	if !received {
		logger.Logf(m, "hardware", "%s on line %d: no receiver", edge, line)
	}

	return received
}

// Advance virtual time by the duration. Scheduled events are fired in time
// order. If a reset is requested by an event the reset happens immediately
// after the event and the remainder of the duration is run on the reset
// machine.
func (m *Machine) Advance(d time.Duration) error {
	for d > 0 {
		d = m.Clock.Step(d)
		if m.resetPending {
			if err := m.Reset(); err != nil {
				return err
			}
		}
	}

	// bring every device up to date. this can also result in a reset
	m.Bus.Tick()
	if m.resetPending {
		return m.Reset()
	}

	return nil
}

// Reset destroys and recreates every device. Scheduled events are cancelled.
// Virtual time continues from where it is.
func (m *Machine) Reset() error {
	m.resetPending = false
	m.Clock.CancelAll()

	err := m.build()
	if err != nil {
		return err
	}

	m.resets++
	m.Notify(notifications.NotifyMachineReset, Source)

	return nil
}

func (m *Machine) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("time: %v\n", m.Clock.Now()))
	for _, d := range m.Clock.Domains() {
		s.WriteString(fmt.Sprintf("clock: %s\n", d))
	}
	s.WriteString(m.Map.Summary())
	return s.String()
}
