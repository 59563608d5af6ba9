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

package rtc

import "fmt"

// Calendar is the time and date kept by the RTC. Fields are in decimal.
type Calendar struct {
	Year    int // 0 to 99. years 2000 to 2099
	Month   int // 1 to 12
	Day     int // 1 to 31
	Weekday int // 1 (Monday) to 7 (Sunday)
	Hour    int
	Minute  int
	Second  int
}

func (c Calendar) String() string {
	return fmt.Sprintf("20%02d-%02d-%02d (%d) %02d:%02d:%02d", c.Year, c.Month, c.Day, c.Weekday, c.Hour, c.Minute, c.Second)
}

func toBCD(v int) uint32 {
	return uint32((v/10)<<4 | v%10)
}

func fromBCD(v uint32) int {
	return int((v>>4)&0x0f)*10 + int(v&0x0f)
}

// TR returns the time in the format of the TR register.
func (c Calendar) TR() uint32 {
	return toBCD(c.Hour)<<16 | toBCD(c.Minute)<<8 | toBCD(c.Second)
}

// DR returns the date in the format of the DR register.
func (c Calendar) DR() uint32 {
	return toBCD(c.Year)<<16 | uint32(c.Weekday&0x07)<<13 | toBCD(c.Month)<<8 | toBCD(c.Day)
}

// setTR decodes the TR register. The PM bit is ignored.
func (c *Calendar) setTR(v uint32) {
	c.Hour = fromBCD((v >> 16) & 0x3f)
	c.Minute = fromBCD((v >> 8) & 0x7f)
	c.Second = fromBCD(v & 0x7f)
}

// setDR decodes the DR register.
func (c *Calendar) setDR(v uint32) {
	c.Year = fromBCD((v >> 16) & 0xff)
	c.Weekday = int((v >> 13) & 0x07)
	c.Month = fromBCD((v >> 8) & 0x1f)
	c.Day = fromBCD(v & 0x3f)
}

func (c Calendar) daysInMonth() int {
	switch c.Month {
	case 2:
		// every year divisible by four is a leap year in the range 2000 to 2099
		if c.Year%4 == 0 {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	}
	return 31
}

// Advance the calendar by a number of seconds.
func (c *Calendar) Advance(seconds uint64) {
	const secondsPerDay = 86400

	s := uint64(c.Hour)*3600 + uint64(c.Minute)*60 + uint64(c.Second) + seconds
	days := s / secondsPerDay
	s %= secondsPerDay

	c.Hour = int(s / 3600)
	c.Minute = int((s % 3600) / 60)
	c.Second = int(s % 60)

	for ; days > 0; days-- {
		c.nextDay()
	}
}

func (c *Calendar) nextDay() {
	if c.Weekday >= 7 {
		c.Weekday = 1
	} else {
		c.Weekday++
	}

	c.Day++
	if c.Day <= c.daysInMonth() {
		return
	}
	c.Day = 1

	c.Month++
	if c.Month <= 12 {
		return
	}
	c.Month = 1

	c.Year = (c.Year + 1) % 100
}
