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

// Package usart implements the transmit side of an STM32F3 USART. Bytes
// written to the transmit data register are sent immediately to the serial
// writer of the peripheral Context. The content is never interpreted.
//
// The receiver, baud rate generation, and the synchronous, smartcard, IrDA and
// LIN modes are not implemented.
package usart

import (
	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/registers"
)

// Register offsets.
const (
	CR1 = 0x00
	CR2 = 0x04
	CR3 = 0x08
	BRR = 0x0c
	RQR = 0x18
	ISR = 0x1c
	ICR = 0x20
	RDR = 0x24
	TDR = 0x28
)

// CR1 bits.
const (
	cr1UE     = 0x0001
	cr1RE     = 0x0004
	cr1TE     = 0x0008
	cr1TCIE   = 0x0040
	cr1TXEIE  = 0x0080
	cr1RXNEIE = 0x0020
)

// ISR bits. the transmitter is always empty and transmission is always
// complete.
const (
	isrTC  = 0x0040
	isrTXE = 0x0080
)

// USART is the serial transmitter.
type USART struct {
	peripherals.Base

	sent int
}

// NewUSART is the preferred method of initialisation for the USART type.
func NewUSART(ctx peripherals.Context) (*USART, error) {
	u := &USART{}

	var err error
	u.Base, err = peripherals.NewBase(ctx, []registers.Spec{
		{Name: "CR1", Offset: CR1, Width: registers.Width32, Write: u.writeCR1},
		{Name: "CR2", Offset: CR2, Width: registers.Width32},
		{Name: "CR3", Offset: CR3, Width: registers.Width32},
		{Name: "BRR", Offset: BRR, Width: registers.Width32, Mask: 0x0000ffff},
		{Name: "RQR", Offset: RQR, Width: registers.Width32, Access: registers.WriteOnly, Mask: 0x1f},
		{Name: "ISR", Offset: ISR, Width: registers.Width32, Access: registers.ReadOnly, Reset: isrTC | isrTXE},
		{Name: "ICR", Offset: ICR, Width: registers.Width32, Access: registers.WriteOnly},
		{Name: "RDR", Offset: RDR, Width: registers.Width32, Access: registers.ReadOnly, Mask: 0x01ff},
		{Name: "TDR", Offset: TDR, Width: registers.Width32, Mask: 0x01ff, Write: u.writeTDR},
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

// Reset implements the peripherals.Device interface.
func (u *USART) Reset() {
	u.Regs.Reset()
	u.sent = 0
}

// Sent returns the number of bytes transmitted since the last reset.
func (u *USART) Sent() int {
	return u.sent
}

func (u *USART) writeCR1(r *registers.Register, value uint32, _ uint32) {
	if value&(cr1RE|cr1RXNEIE) != 0 {
		u.Ctx.Log(errors.Wrap(peripherals.ErrUnimplementedFeature, "CR1: receiver"))
	}
	r.Store(value)
}

func (u *USART) writeTDR(r *registers.Register, value uint32, _ uint32) {
	r.Store(value)

	cr1 := u.Regs.Peek("CR1")
	if cr1&(cr1UE|cr1TE) != cr1UE|cr1TE {
		u.Ctx.Logf("byte %#02x not sent: transmitter not enabled", value&0xff)
		return
	}

	u.sent++
	if u.Ctx.Serial != nil {
		_, err := u.Ctx.Serial.Write([]byte{byte(value)})
		if err != nil {
			u.Ctx.Log(err)
		}
	}

	if cr1&(cr1TCIE|cr1TXEIE) != 0 {
		u.Ctx.AssertIRQ()
	}
}
