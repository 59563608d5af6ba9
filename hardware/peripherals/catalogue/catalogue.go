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

// Package catalogue creates peripheral models from their Kind. The set of
// kinds is closed. Every kind listed in peripherals.Kinds has an entry here.
package catalogue

import (
	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/peripherals/crc"
	"github.com/periphemu/periphemu/hardware/peripherals/dac"
	"github.com/periphemu/periphemu/hardware/peripherals/exti"
	"github.com/periphemu/periphemu/hardware/peripherals/iwdg"
	"github.com/periphemu/periphemu/hardware/peripherals/rtc"
	"github.com/periphemu/periphemu/hardware/peripherals/timer"
	"github.com/periphemu/periphemu/hardware/peripherals/usart"
)

// New creates a peripheral of the Kind specified in the Context.
func New(ctx peripherals.Context) (peripherals.Device, error) {
	var dev peripherals.Device
	var err error

	switch ctx.Kind {
	case peripherals.CRC:
		dev, err = crc.NewCRC(ctx)
	case peripherals.DAC:
		dev, err = dac.NewDAC(ctx)
	case peripherals.IWDG:
		dev, err = iwdg.NewWatchdog(ctx)
	case peripherals.RTC:
		dev, err = rtc.NewRTC(ctx)
	case peripherals.EXTI:
		dev, err = exti.NewEXTI(ctx)
	case peripherals.TIM:
		dev, err = timer.NewTimer(ctx)
	case peripherals.USART:
		dev, err = usart.NewUSART(ctx)
	default:
		return nil, errors.Errorf("catalogue: %s: unknown kind (%s)", ctx.Label, ctx.Kind)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "catalogue: %s", ctx.Label)
	}

	return dev, nil
}
