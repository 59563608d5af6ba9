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

package rtc_test

import (
	"testing"

	"github.com/periphemu/periphemu/hardware/peripherals/rtc"
	"github.com/periphemu/periphemu/test"
)

func TestCalendarRollover(t *testing.T) {
	c := rtc.Calendar{Year: 23, Month: 12, Day: 31, Weekday: 7, Hour: 23, Minute: 59, Second: 59}
	c.Advance(1)
	test.ExpectEquality(t, c, rtc.Calendar{Year: 24, Month: 1, Day: 1, Weekday: 1, Hour: 0, Minute: 0, Second: 0})
	test.ExpectEquality(t, c.String(), "2024-01-01 (1) 00:00:00")
}

func TestLeapYears(t *testing.T) {
	c := rtc.Calendar{Year: 24, Month: 2, Day: 28, Weekday: 3, Hour: 12}
	c.Advance(86400)
	test.ExpectEquality(t, c.Day, 29)
	test.ExpectEquality(t, c.Month, 2)
	c.Advance(86400)
	test.ExpectEquality(t, c.Day, 1)
	test.ExpectEquality(t, c.Month, 3)
	test.ExpectEquality(t, c.Weekday, 5)

	c = rtc.Calendar{Year: 23, Month: 2, Day: 28, Weekday: 2}
	c.Advance(86400)
	test.ExpectEquality(t, c.Day, 1)
	test.ExpectEquality(t, c.Month, 3)

	// the year 2000 is a leap year
	c = rtc.Calendar{Year: 0, Month: 2, Day: 28, Weekday: 1}
	c.Advance(86400)
	test.ExpectEquality(t, c.Day, 29)
}

func TestShortMonths(t *testing.T) {
	c := rtc.Calendar{Year: 21, Month: 4, Day: 30, Weekday: 5}
	c.Advance(86400)
	test.ExpectEquality(t, c.Month, 5)
	test.ExpectEquality(t, c.Day, 1)
}

func TestBCD(t *testing.T) {
	c := rtc.Calendar{Year: 99, Month: 12, Day: 25, Weekday: 6, Hour: 19, Minute: 45, Second: 9}
	test.ExpectEquality(t, c.TR(), uint32(0x00194509))
	test.ExpectEquality(t, c.DR(), uint32(0x0099d225))

	// end of the century wraps to 2000
	c = rtc.Calendar{Year: 99, Month: 12, Day: 31, Weekday: 5, Hour: 23, Minute: 59, Second: 59}
	c.Advance(1)
	test.ExpectEquality(t, c.Year, 0)
}
