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

package hardware_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware"
	"github.com/periphemu/periphemu/hardware/host"
	"github.com/periphemu/periphemu/hardware/memory/memorymap"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/crc"
	"github.com/periphemu/periphemu/hardware/peripherals/dac"
	"github.com/periphemu/periphemu/hardware/peripherals/exti"
	"github.com/periphemu/periphemu/hardware/peripherals/iwdg"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/hardware/peripherals/usart"
	"github.com/periphemu/periphemu/hardware/platform"
	"github.com/periphemu/periphemu/notifications"
	"github.com/periphemu/periphemu/test"
)

const (
	crcBase   = 0x40023000
	dacBase   = 0x40007400
	iwdgBase  = 0x40003000
	extiBase  = 0x40010400
	usartBase = 0x40013800
)

func newMachine(t *testing.T) *hardware.Machine {
	t.Helper()
	m, err := hardware.NewMachine(platform.Default())
	test.DemandSuccess(t, err)
	m.Prefs.Quiet.Set(true)
	return m
}

func TestNewMachine(t *testing.T) {
	m := newMachine(t)
	test.ExpectEquality(t, len(m.Devices()), len(platform.Default().Instances))

	dev := m.Device("crc")
	test.DemandSuccess(t, dev != nil)
	test.ExpectEquality(t, dev.Kind(), peripherals.CRC)
	test.ExpectEquality(t, m.Device("missing") == nil, true)

	// the reset value of the CRC data register through the bus
	test.ExpectEquality(t, m.Read32(crcBase+crc.DR), uint32(0xffffffff))
}

func TestOverlappingDescription(t *testing.T) {
	desc := platform.NewDescription()
	desc.Instances = append(desc.Instances,
		platform.Instance{Label: "a", Kind: peripherals.CRC, Base: 0x40000000, Clock: "sysclk", IRQ: -1},
		platform.Instance{Label: "b", Kind: peripherals.CRC, Base: 0x40000200, Clock: "sysclk", IRQ: -1},
	)

	_, err := hardware.NewMachine(desc)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, errors.Is(err, memorymap.ErrOverlappingMapping))
}

func TestUnmapped(t *testing.T) {
	m := newMachine(t)

	test.ExpectEquality(t, m.Read32(0x50000000), uint32(0))
	m.Write32(0x50000000, 0x1234)

	// accesses continue as normal
	m.Write32(crcBase+crc.INIT, 0x12345678)
	test.ExpectEquality(t, m.Read32(crcBase+crc.INIT), uint32(0x12345678))

	diag := m.Bus.Diagnostics()
	test.ExpectEquality(t, diag.UnmappedReads, 1)
	test.ExpectEquality(t, diag.UnmappedWrites, 1)
}

func TestCRC(t *testing.T) {
	m := newMachine(t)

	for _, b := range []byte("123456789") {
		m.Write(crcBase+crc.DR, 1, uint32(b))
	}
	test.ExpectEquality(t, ^m.Read32(crcBase+crc.DR), uint32(0xcbf43926))
}

// configure and start the watchdog with a 10ms timeout
func startWatchdog(m *hardware.Machine) {
	m.Write(iwdgBase+iwdg.KR, 2, iwdg.KeyUnlock)
	m.Write(iwdgBase+iwdg.PR, 1, 0)
	m.Write(iwdgBase+iwdg.RLR, 2, 100)
	m.Write(iwdgBase+iwdg.KR, 2, iwdg.KeyStart)
}

func TestWatchdogReset(t *testing.T) {
	m := newMachine(t)
	startWatchdog(m)

	before := m.Device("iwdg")

	test.ExpectSuccess(t, m.Advance(5*time.Millisecond))
	test.ExpectEquality(t, m.Notices().Count(notifications.NotifyWatchdogExpired), 0)

	test.ExpectSuccess(t, m.Advance(20*time.Millisecond))
	test.ExpectEquality(t, m.Notices().Count(notifications.NotifyWatchdogExpired), 1)
	test.ExpectEquality(t, m.Notices().Count(notifications.NotifyMachineReset), 1)
	test.ExpectEquality(t, m.Resets(), 1)
	test.ExpectEquality(t, m.Clock.Now(), 25*time.Millisecond)

	// the watchdog is a new instance and is not running
	after := m.Device("iwdg")
	test.ExpectSuccess(t, before != after)
	wd := test.DemandImplements[*iwdg.Watchdog](t, after)
	test.ExpectEquality(t, wd.State(), iwdg.Stopped)

	ev := m.Notices().Events()
	test.DemandEquality(t, len(ev), 2)
	test.ExpectEquality(t, ev[0].Time, 10*time.Millisecond)
	test.ExpectEquality(t, ev[0].Source, "iwdg")
	test.ExpectEquality(t, ev[1].Source, hardware.Source)
}

func TestWatchdogNoReset(t *testing.T) {
	m := newMachine(t)
	test.DemandSuccess(t, m.Prefs.ResetOnWatchdog.Set(false))
	startWatchdog(m)

	test.ExpectSuccess(t, m.Advance(100*time.Millisecond))
	test.ExpectEquality(t, m.Notices().Count(notifications.NotifyWatchdogExpired), 1)
	test.ExpectEquality(t, m.Resets(), 0)

	wd := test.DemandImplements[*iwdg.Watchdog](t, m.Device("iwdg"))
	test.ExpectEquality(t, wd.State(), iwdg.Expired)
}

func TestWatchdogFeed(t *testing.T) {
	m := newMachine(t)
	startWatchdog(m)

	for i := 0; i < 50; i++ {
		test.ExpectSuccess(t, m.Advance(8*time.Millisecond))
		m.Write(iwdgBase+iwdg.KR, 2, iwdg.KeyFeed)
	}
	test.ExpectEquality(t, m.Notices().Count(notifications.NotifyWatchdogExpired), 0)
}

func TestEdge(t *testing.T) {
	m := newMachine(t)
	lines := test.DemandImplements[*host.Lines](t, m.Interrupts)

	// unmask line 0 and select the rising edge
	m.Write32(extiBase+exti.IMR1, 0x00000001)
	m.Write32(extiBase+exti.RTSR1, 0x00000001)

	test.ExpectSuccess(t, m.Edge(0, trigger.Rising))
	test.ExpectEquality(t, lines.Count(exti.IRQ(0)), 1)
	test.ExpectEquality(t, m.Read32(extiBase+exti.PR1), uint32(1))

	// falling edge is not selected
	test.ExpectSuccess(t, m.Edge(0, trigger.Falling))
	test.ExpectEquality(t, lines.Count(exti.IRQ(0)), 1)

	// acknowledge
	m.Write32(extiBase+exti.PR1, 0x00000001)
	test.ExpectEquality(t, m.Read32(extiBase+exti.PR1), uint32(0))
}

func TestEdgeNoReceiver(t *testing.T) {
	desc := platform.NewDescription()
	desc.Instances = append(desc.Instances,
		platform.Instance{Label: "crc", Kind: peripherals.CRC, Base: crcBase, Clock: "sysclk", IRQ: -1},
	)
	m, err := hardware.NewMachine(desc)
	test.DemandSuccess(t, err)
	m.Prefs.Quiet.Set(true)

	test.ExpectFailure(t, m.Edge(0, trigger.Rising))
}

func TestSerial(t *testing.T) {
	m := newMachine(t)

	w := &test.CompareWriter{}
	m.AttachSerial(w)

	// transmitter is disabled
	m.Write32(usartBase+usart.TDR, 'x')
	test.ExpectEquality(t, m.Serial(), "")

	m.Write32(usartBase+usart.CR1, 0x09)
	for _, c := range []byte("PASS\n") {
		m.Write32(usartBase+usart.TDR, uint32(c))
	}
	test.ExpectEquality(t, m.Serial(), "PASS\n")
	test.ExpectSuccess(t, w.Compare("PASS\n"))

	// serial output survives a reset
	test.ExpectSuccess(t, m.Reset())
	test.ExpectEquality(t, m.Serial(), "PASS\n")
	m.ClearSerial()
	test.ExpectEquality(t, m.Serial(), "")
}

type output struct {
	channel int
	value   uint16
}

type sink struct {
	outputs []output
}

func (s *sink) Output(channel int, value uint16, _ time.Duration) {
	s.outputs = append(s.outputs, output{channel: channel, value: value})
}

func TestDACSink(t *testing.T) {
	m := newMachine(t)

	s := &sink{}
	m.AttachDACSink(s)

	m.Write32(dacBase+dac.CR, 0x00000001)
	m.Write32(dacBase+dac.DHR12R1, 0x1fff)
	test.DemandEquality(t, len(s.outputs), 1)
	test.ExpectEquality(t, s.outputs[0], output{channel: 0, value: 0x0fff})

	// the sink is attached to the recreated DAC
	test.ExpectSuccess(t, m.Reset())
	m.Write32(dacBase+dac.CR, 0x00000001)
	m.Write32(dacBase+dac.DHR12R1, 0x0123)
	test.DemandEquality(t, len(s.outputs), 2)
	test.ExpectEquality(t, s.outputs[1], output{channel: 0, value: 0x0123})
}

func TestResetDiscardsState(t *testing.T) {
	m := newMachine(t)

	// arm DAC channel 1 with the software trigger but do not trigger it
	m.Write32(dacBase+dac.CR, 0x0000003d)
	m.Write32(dacBase+dac.DHR12R1, 0x0800)
	d := test.DemandImplements[*dac.DAC](t, m.Device("dac1"))
	test.ExpectEquality(t, d.State(0), dac.Armed)

	startWatchdog(m)
	test.ExpectInequality(t, m.Clock.Pending(), 0)

	test.ExpectSuccess(t, m.Reset())
	test.ExpectEquality(t, m.Clock.Pending(), 0)

	d = test.DemandImplements[*dac.DAC](t, m.Device("dac1"))
	test.ExpectEquality(t, d.State(0), dac.Idle)
	test.ExpectEquality(t, m.Read32(dacBase+dac.DOR1), uint32(0))
	test.ExpectEquality(t, m.Read32(dacBase+dac.DHR12R1), uint32(0))
}
