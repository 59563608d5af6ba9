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

package platform_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/memory/memorymap"
	"github.com/periphemu/periphemu/hardware/peripherals"
	"github.com/periphemu/periphemu/hardware/platform"
	"github.com/periphemu/periphemu/test"
)

const description = `
# test board
clock lse 32768
clock sysclk 72000000

crc  CRC  @ 0x40023000
dac1 dac  @ 0x40007400
rtc  RTC  @ 0x40002800 clock=lse
tim3 TIM  @ 1073742848 irq=29   # decimal address
`

func TestParse(t *testing.T) {
	d, err := platform.Parse(strings.NewReader(description))
	test.DemandSuccess(t, err)

	c, ok := d.Clock("sysclk")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, c.Frequency, uint64(72000000))

	_, ok = d.Clock("lsi")
	test.ExpectSuccess(t, ok)

	test.DemandEquality(t, len(d.Instances), 4)

	in, ok := d.Instance("dac1")
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, in.Kind, peripherals.DAC)
	test.ExpectEquality(t, in.IRQ, -1)

	in, _ = d.Instance("rtc")
	test.ExpectEquality(t, in.Clock, "lse")

	in, _ = d.Instance("tim3")
	test.ExpectEquality(t, in.Base, uint32(0x40000400))
	test.ExpectEquality(t, in.IRQ, 29)
	test.ExpectEquality(t, in.Clock, "sysclk")
}

func TestRoundTrip(t *testing.T) {
	d := platform.Default()
	test.ExpectSuccess(t, d.Validate())

	e, err := platform.Parse(strings.NewReader(d.String()))
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, e.String(), d.String())
}

func TestErrors(t *testing.T) {
	const bad = `
clock sysclk fast
crc CRC 0x40023000
gpio GPIO @ 0x48000000
iwdg IWDG @ 0x40003000 clock=lse
iwdg IWDG @ 0x40004000
tim2 TIM @ 0x40000000 speed=fast
`
	_, err := platform.Parse(strings.NewReader(bad))
	test.DemandFailure(t, err)

	var errs platform.ErrorSet
	test.DemandSuccess(t, errors.As(err, &errs))

	// parsing errors are reported together. the duplicate label and the
	// unknown clock are found by validation, which does not happen while
	// there are parsing errors
	test.ExpectEquality(t, errs.Len(), 4)
	test.ExpectSuccess(t, strings.Contains(err.Error(), "line 2"))
	test.ExpectSuccess(t, strings.Contains(err.Error(), "line 7"))
}

func TestValidation(t *testing.T) {
	const bad = `
iwdg IWDG @ 0x40003000 clock=lse
iwdg IWDG @ 0x40004000
`
	_, err := platform.Parse(strings.NewReader(bad))
	test.DemandFailure(t, err)

	var errs platform.ErrorSet
	test.DemandSuccess(t, errors.As(err, &errs))
	test.ExpectEquality(t, errs.Len(), 2)
}

func TestOverlap(t *testing.T) {
	const bad = `
crc CRC @ 0x40023000
dac DAC @ 0x40023200
`
	_, err := platform.Parse(strings.NewReader(bad))
	test.ExpectSuccess(t, errors.Is(err, memorymap.ErrOverlappingMapping))
}

func TestDuplicateClock(t *testing.T) {
	const bad = `
clock lse 32768
clock lse 32000
`
	_, err := platform.Parse(strings.NewReader(bad))
	test.ExpectFailure(t, err)
}
