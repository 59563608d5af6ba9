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

package dac

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
)

// Register offsets.
const (
	CR      = 0x00
	SWTRIGR = 0x04
	DHR12R1 = 0x08
	DHR12L1 = 0x0c
	DHR8R1  = 0x10
	DHR12R2 = 0x14
	DHR12L2 = 0x18
	DHR8R2  = 0x1c
	DHR12RD = 0x20
	DHR12LD = 0x24
	DHR8RD  = 0x28
	DOR1    = 0x2c
	DOR2    = 0x30
	SR      = 0x34
)

// CR bits for channel 1. channel 2 bits are 16 bits higher.
const (
	crEN    = 0x0001
	crBOFF  = 0x0002
	crTEN   = 0x0004
	crTSEL  = 0x0038
	crWAVE  = 0x00c0
	crMAMP  = 0x0f00
	crDMA   = 0x3000
	crInert = crBOFF | crWAVE | crMAMP | crDMA
)

// NumChannels is the number of channels in the DAC.
const NumChannels = 2

// Sink receives every change to the output register of a channel. Channels
// are numbered from zero.
type Sink interface {
	Output(channel int, value uint16, at time.Duration)
}

// State of the holding to output transfer of a channel.
type State int

// List of valid State values.
const (
	// no holding register value is waiting to be transferred
	Idle State = iota

	// a value is waiting for the trigger
	Armed

	// the most recent value has been transferred to the output register
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Committed:
		return "committed"
	}
	return "unknown"
}

type channel struct {
	enabled        bool
	triggerEnabled bool
	triggerSelect  uint32

	held   uint32
	output uint32
	state  State

	latch trigger.Latch
}

func (ch *channel) String() string {
	return fmt.Sprintf("en=%v ten=%v held=%03x dor=%03x %s", ch.enabled, ch.triggerEnabled, ch.held, ch.output, ch.state)
}

// DAC is the digital to analogue converter.
type DAC struct {
	peripherals.Base

	channels [NumChannels]channel

	sink Sink
}

// NewDAC is the preferred method of initialisation for the DAC type.
func NewDAC(ctx peripherals.Context) (*DAC, error) {
	d := &DAC{}

	dhr := func(name string, offset uint32, mask uint32) registers.Spec {
		return registers.Spec{Name: name, Offset: offset, Width: registers.Width32, Mask: mask, Write: d.writeDHR}
	}

	var err error
	d.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "CR", Offset: CR, Width: registers.Width32, Mask: 0x3fff3fff, Write: d.writeCR},
		{Name: "SWTRIGR", Offset: SWTRIGR, Width: registers.Width32, Access: registers.WriteOnly, Mask: 0x03, Write: d.writeSWTRIGR},
		dhr("DHR12R1", DHR12R1, 0x00000fff),
		dhr("DHR12L1", DHR12L1, 0x0000fff0),
		dhr("DHR8R1", DHR8R1, 0x000000ff),
		dhr("DHR12R2", DHR12R2, 0x00000fff),
		dhr("DHR12L2", DHR12L2, 0x0000fff0),
		dhr("DHR8R2", DHR8R2, 0x000000ff),
		dhr("DHR12RD", DHR12RD, 0x0fff0fff),
		dhr("DHR12LD", DHR12LD, 0xfff0fff0),
		dhr("DHR8RD", DHR8RD, 0x0000ffff),
		{Name: "DOR1", Offset: DOR1, Width: registers.Width32, Access: registers.ReadOnly, Mask: 0x00000fff},
		{Name: "DOR2", Offset: DOR2, Width: registers.Width32, Access: registers.ReadOnly, Mask: 0x00000fff},
		{Name: "SR", Offset: SR, Width: registers.Width32, Mask: 0x20002000},
	})
	if err != nil {
		return nil, err
	}

	return d, nil
}

// AttachSink sets the destination for changes to the output registers. A nil
// Sink detaches any existing sink.
func (d *DAC) AttachSink(s Sink) {
	d.sink = s
}

// Reset implements the peripherals.Device interface. Any value waiting for a
// trigger is dropped.
func (d *DAC) Reset() {
	d.Regs.Reset()
	for i := range d.channels {
		d.channels[i] = channel{}
	}
}

// Output returns the value of the output register for the channel.
func (d *DAC) Output(ch int) uint32 {
	return d.channels[ch].output
}

// State returns the transfer state of the channel.
func (d *DAC) State(ch int) State {
	return d.channels[ch].state
}

func (d *DAC) String() string {
	return fmt.Sprintf("ch1: %s, ch2: %s", &d.channels[0], &d.channels[1])
}

func (d *DAC) writeCR(r *registers.Register, value uint32, _ uint32) {
	r.Store(value)

	for i := range d.channels {
		v := value >> (i * 16)
		ch := &d.channels[i]

		ch.enabled = v&crEN == crEN
		ch.triggerEnabled = v&crTEN == crTEN
		ch.triggerSelect = (v & crTSEL) >> 3

		if v&crInert != 0 {
			d.Ctx.Log(errors.Wrapf(peripherals.ErrUnimplementedFeature, "CR channel %d: %#04x: buffer, wave generation and DMA", i+1, v&crInert))
		}
	}
}

func (d *DAC) writeSWTRIGR(r *registers.Register, value uint32, _ uint32) {
	for i := range d.channels {
		if value&(1<<i) != 0 {
			d.channels[i].latch.Raise(trigger.SoftwareWrite{Offset: SWTRIGR})
			d.service(i)
		}
	}

	// self clearing
	r.Store(0)
}

// writeDHR decodes the holding register writes into the 12-bit value held for
// each channel.
func (d *DAC) writeDHR(r *registers.Register, value uint32, _ uint32) {
	switch r.Offset {
	case DHR12R1:
		d.hold(0, value)
	case DHR12L1:
		d.hold(0, value>>4)
	case DHR8R1:
		d.hold(0, value<<4)
	case DHR12R2:
		d.hold(1, value)
	case DHR12L2:
		d.hold(1, value>>4)
	case DHR8R2:
		d.hold(1, value<<4)
	case DHR12RD:
		d.hold(0, value)
		d.hold(1, value>>16)
	case DHR12LD:
		d.hold(0, value>>4)
		d.hold(1, value>>20)
	case DHR8RD:
		d.hold(0, value<<4)
		d.hold(1, (value>>8)<<4)
	}
	d.sync()
}

func (d *DAC) hold(i int, value uint32) {
	ch := &d.channels[i]
	ch.held = value & 0x0fff

	if ch.triggerEnabled {
		ch.state = Armed
		return
	}

	if ch.enabled {
		d.transfer(i)
	}
}

// service consumes a pending trigger for the channel.
func (d *DAC) service(i int) {
	ch := &d.channels[i]

	if _, ok := ch.latch.Consume(); !ok {
		return
	}

	if !ch.enabled || !ch.triggerEnabled {
		d.Ctx.Logf("software trigger on channel %d ignored: channel not enabled for triggering", i+1)
		return
	}

	d.transfer(i)
	d.sync()
}

func (d *DAC) transfer(i int) {
	ch := &d.channels[i]
	ch.output = ch.held
	ch.state = Committed

	if d.sink != nil {
		var at time.Duration
		if d.Ctx.Clock != nil {
			at = d.Ctx.Clock.Elapsed()
		}
		d.sink.Output(i, uint16(ch.output), at)
	}
}

// sync updates the holding and output registers from the channel state.
func (d *DAC) sync() {
	ch1 := d.channels[0].held
	ch2 := d.channels[1].held

	d.Regs.Poke("DHR12R1", ch1)
	d.Regs.Poke("DHR12L1", ch1<<4)
	d.Regs.Poke("DHR8R1", ch1>>4)
	d.Regs.Poke("DHR12R2", ch2)
	d.Regs.Poke("DHR12L2", ch2<<4)
	d.Regs.Poke("DHR8R2", ch2>>4)
	d.Regs.Poke("DHR12RD", ch1|ch2<<16)
	d.Regs.Poke("DHR12LD", ch1<<4|ch2<<20)
	d.Regs.Poke("DHR8RD", ch1>>4|(ch2>>4)<<8)

	d.Regs.Poke("DOR1", d.channels[0].output)
	d.Regs.Poke("DOR2", d.channels[1].output)
}
