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

package peripherals

import (
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/host"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/logger"
	"github.com/periphemu/periphemu/notifications"
)

// Size of the address range occupied by every peripheral.
const Size = 0x400

// Classification of recovered conditions. They are never returned through the
// bus but they are wrapped in log entries.
var (
	ErrUnimplementedFeature = errors.New("unimplemented feature")
	ErrProtectedWrite       = errors.New("protected write rejected")
	ErrReadOnly             = errors.New("read-only")
)

// Kind of peripheral.
type Kind string

// List of peripheral kinds.
const (
	CRC   Kind = "CRC"
	DAC   Kind = "DAC"
	IWDG  Kind = "IWDG"
	RTC   Kind = "RTC"
	EXTI  Kind = "EXTI"
	TIM   Kind = "TIM"
	USART Kind = "USART"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{CRC, DAC, IWDG, RTC, EXTI, TIM, USART}

// ParseKind returns the Kind named by the string. Case insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(s)
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Errorf("peripherals: unknown kind (%s)", s)
}

// DefaultClock returns the name of the clock domain used by the Kind unless
// otherwise specified.
func (k Kind) DefaultClock() string {
	switch k {
	case IWDG, RTC:
		return clocks.LowSpeedInternal
	}
	return clocks.SysClk
}

// DefaultIRQ returns the interrupt line used by the Kind unless otherwise
// specified. Returns -1 if the Kind does not use an interrupt line.
func (k Kind) DefaultIRQ() int {
	switch k {
	case TIM:
		return 28
	case USART:
		return 37
	}
	return -1
}

// Scheduler is the part of the virtual clock that peripherals use to request a
// callback at a future tick.
type Scheduler interface {
	Schedule(d *clocks.Domain, tick uint64, fn func()) *clocks.Event
}

// Context is everything a peripheral needs from the world outside of its
// registers.
type Context struct {
	Label string
	Kind  Kind

	Clock     *clocks.Domain
	Scheduler Scheduler

	// interrupt line. -1 for none
	IRQ        int
	Interrupts host.InterruptController

	Events host.EventSink

	// output of serial peripherals. can be nil
	Serial io.Writer

	Perm logger.Permission
}

// AssertIRQ asserts the interrupt line of the peripheral, if it has one.
func (ctx *Context) AssertIRQ() {
	ctx.AssertLine(ctx.IRQ)
}

// AssertLine asserts a specific interrupt line. Negative line numbers are
// ignored.
func (ctx *Context) AssertLine(n int) {
	if n < 0 || ctx.Interrupts == nil {
		return
	}
	ctx.Interrupts.AssertLine(n)
}

// Notify sends a notice to the host with the peripheral label as the source.
func (ctx *Context) Notify(notice notifications.Notice) {
	if ctx.Events == nil {
		return
	}
	ctx.Events.Notify(notice, ctx.Label)
}

// Log an entry tagged with the peripheral label.
func (ctx *Context) Log(detail any) {
	logger.Log(ctx.Perm, ctx.Label, detail)
}

// Logf is the formatted variation of Log.
func (ctx *Context) Logf(detail string, args ...any) {
	logger.Logf(ctx.Perm, ctx.Label, detail, args...)
}

// Device is the capability interface of every peripheral model.
type Device interface {
	Label() string
	Kind() Kind
	Size() uint32

	// Read and Write are bus accesses. The offset is relative to the base
	// address of the device and the size is in bytes (1, 2 or 4)
	Read(offset uint32, size uint32) uint32
	Write(offset uint32, size uint32, value uint32)

	// Tick brings the state of the device up to date with the clock. It is
	// called before every bus access and can be called at any other time
	Tick()

	// Reset returns the device to its reset state
	Reset()

	Registers() *registers.File
}

// EdgeReceiver is implemented by devices that respond to external edges.
type EdgeReceiver interface {
	Edge(e trigger.ExternalEdge)
}

// Base implements the parts of the Device interface that are the same for
// every peripheral. It is intended to be embedded.
type Base struct {
	Ctx  Context
	Regs *registers.File
}

// NewBase creates the register file for the peripheral.
func NewBase(ctx Context, table []registers.Spec) (Base, error) {
	regs, err := registers.NewFile(ctx.Label, Size, ctx.Perm, table)
	if err != nil {
		return Base{}, errors.Wrapf(err, "%s", ctx.Kind)
	}
	return Base{Ctx: ctx, Regs: regs}, nil
}

// Label implements the Device interface.
func (b *Base) Label() string {
	return b.Ctx.Label
}

// Kind implements the Device interface.
func (b *Base) Kind() Kind {
	return b.Ctx.Kind
}

// Size implements the Device interface.
func (b *Base) Size() uint32 {
	return Size
}

// Registers implements the Device interface.
func (b *Base) Registers() *registers.File {
	return b.Regs
}

// Read implements the Device interface.
func (b *Base) Read(offset uint32, size uint32) uint32 {
	return b.Regs.Read(offset, size)
}

// Write implements the Device interface.
func (b *Base) Write(offset uint32, size uint32, value uint32) {
	b.Regs.Write(offset, size, value)
}

// Tick implements the Device interface. The base implementation does
// nothing.
func (b *Base) Tick() {
}
