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

package platform

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/clocks"
	"github.com/periphemu/periphemu/hardware/memory/memorymap"
	"github.com/periphemu/periphemu/hardware/peripherals"
)

// Clock is the declaration of a clock domain.
type Clock struct {
	Name      string
	Frequency uint64
}

// Instance is the declaration of a single peripheral.
type Instance struct {
	Label string
	Kind  peripherals.Kind
	Base  uint32
	Clock string

	// interrupt line. -1 for none
	IRQ int
}

func (in Instance) String() string {
	s := fmt.Sprintf("%s %s @ %#08x clock=%s", in.Label, in.Kind, in.Base, in.Clock)
	if in.IRQ >= 0 {
		s = fmt.Sprintf("%s irq=%d", s, in.IRQ)
	}
	return s
}

// Description of a machine.
type Description struct {
	Clocks    []Clock
	Instances []Instance
}

// NewDescription returns a description with the standard clock domains and
// no peripherals.
func NewDescription() *Description {
	return &Description{
		Clocks: []Clock{
			{Name: clocks.SysClk, Frequency: clocks.HSI},
			{Name: clocks.LowSpeedInternal, Frequency: clocks.LSI},
		},
	}
}

// Default returns the description of the peripherals of an STM32F3.
func Default() *Description {
	d := NewDescription()
	d.add("tim2", peripherals.TIM, 0x40000000)
	d.add("rtc", peripherals.RTC, 0x40002800)
	d.add("iwdg", peripherals.IWDG, 0x40003000)
	d.add("dac1", peripherals.DAC, 0x40007400)
	d.add("exti", peripherals.EXTI, 0x40010400)
	d.add("usart1", peripherals.USART, 0x40013800)
	d.add("crc", peripherals.CRC, 0x40023000)
	return d
}

func (d *Description) add(label string, kind peripherals.Kind, base uint32) {
	d.Instances = append(d.Instances, Instance{
		Label: label,
		Kind:  kind,
		Base:  base,
		Clock: kind.DefaultClock(),
		IRQ:   kind.DefaultIRQ(),
	})
}

// Clock returns the named clock declaration.
func (d *Description) Clock(name string) (Clock, bool) {
	for _, c := range d.Clocks {
		if c.Name == name {
			return c, true
		}
	}
	return Clock{}, false
}

// Instance returns the peripheral declaration with the label.
func (d *Description) Instance(label string) (Instance, bool) {
	for _, in := range d.Instances {
		if in.Label == label {
			return in, true
		}
	}
	return Instance{}, false
}

// Load and parse a description file.
func Load(filename string) (*Description, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "platform")
	}
	defer f.Close()
	return Parse(f)
}

// Parse a description. The returned description has been validated.
func Parse(r io.Reader) (*Description, error) {
	d := NewDescription()

	var errs ErrorSet
	declared := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := scanner.Text()
		if i := strings.IndexRune(line, '#'); i >= 0 {
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		if fields[0] == "clock" {
			err = d.parseClock(fields, declared)
		} else {
			err = d.parseInstance(fields)
		}
		if err != nil {
			errs.Append(errors.Wrapf(err, "platform: line %d", lineNum))
		}
	}
	if err := scanner.Err(); err != nil {
		errs.Append(errors.Wrapf(err, "platform"))
	}

	if errs.Len() > 0 {
		return nil, errs
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Description) parseClock(fields []string, declared map[string]bool) error {
	if len(fields) != 3 {
		return errors.Errorf("malformed clock declaration")
	}

	name := fields[1]
	freq, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil || freq == 0 {
		return errors.Errorf("%s: invalid frequency (%s)", name, fields[2])
	}

	if declared[name] {
		return errors.Errorf("%s: duplicate clock", name)
	}
	declared[name] = true

	// the standard clocks can be redeclared once with a different frequency
	for i := range d.Clocks {
		if d.Clocks[i].Name == name {
			d.Clocks[i].Frequency = freq
			return nil
		}
	}

	d.Clocks = append(d.Clocks, Clock{Name: name, Frequency: freq})
	return nil
}

func (d *Description) parseInstance(fields []string) error {
	if len(fields) < 4 || fields[2] != "@" {
		return errors.Errorf("malformed peripheral declaration")
	}

	kind, err := peripherals.ParseKind(fields[1])
	if err != nil {
		return errors.Wrapf(err, "%s", fields[0])
	}

	base, err := strconv.ParseUint(fields[3], 0, 32)
	if err != nil {
		return errors.Errorf("%s: invalid address (%s)", fields[0], fields[3])
	}

	in := Instance{
		Label: fields[0],
		Kind:  kind,
		Base:  uint32(base),
		Clock: kind.DefaultClock(),
		IRQ:   kind.DefaultIRQ(),
	}

	for _, opt := range fields[4:] {
		key, value, ok := strings.Cut(opt, "=")
		if !ok {
			return errors.Errorf("%s: malformed option (%s)", in.Label, opt)
		}

		switch key {
		case "clock":
			in.Clock = value
		case "irq":
			n, err := strconv.Atoi(value)
			if err != nil {
				return errors.Errorf("%s: invalid irq (%s)", in.Label, value)
			}
			in.IRQ = n
		default:
			return errors.Errorf("%s: unknown option (%s)", in.Label, key)
		}
	}

	d.Instances = append(d.Instances, in)
	return nil
}

// Validate checks the description for duplicate labels, unknown clocks and
// overlapping address ranges. All problems are returned in an ErrorSet.
func (d *Description) Validate() error {
	var errs ErrorSet

	labels := make(map[string]bool)
	for _, in := range d.Instances {
		if labels[in.Label] {
			errs.Append(errors.Errorf("platform: %s: duplicate label", in.Label))
		}
		labels[in.Label] = true

		if _, ok := d.Clock(in.Clock); !ok {
			errs.Append(errors.Errorf("platform: %s: unknown clock (%s)", in.Label, in.Clock))
		}

		if uint64(in.Base)+peripherals.Size > 1<<32 {
			errs.Append(errors.Errorf("platform: %s: range at %08x wraps the address space", in.Label, in.Base))
		}
	}

	// overlaps are checked in address order
	sorted := append([]Instance(nil), d.Instances...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Base < sorted[j].Base
	})
	for i := 1; i < len(sorted); i++ {
		a := sorted[i-1]
		b := sorted[i]
		if uint64(a.Base)+peripherals.Size > uint64(b.Base) {
			errs.Append(errors.Wrapf(memorymap.ErrOverlappingMapping, "platform: %s [%08x] and %s [%08x]", a.Label, a.Base, b.Label, b.Base))
		}
	}

	return errs.result()
}

// String returns the description in the format accepted by Parse().
func (d *Description) String() string {
	s := strings.Builder{}
	for _, c := range d.Clocks {
		s.WriteString(fmt.Sprintf("clock %s %d\n", c.Name, c.Frequency))
	}
	for _, in := range d.Instances {
		s.WriteString(in.String())
		s.WriteString("\n")
	}
	return s.String()
}
