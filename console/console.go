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

// Package console is an interactive harness for a machine. Key presses on the
// terminal are turned into external edges and other actions:
//
//	0 to 9		toggle the line between pressed (rising edge) and released (falling edge)
//	space		advance virtual time by the console.step preference
//	r		reset the machine
//	d		dump the state of the machine
//	q		quit
//
// Serial output from the machine is written to the terminal as it happens.
package console

import (
	"fmt"
	"io"

	"github.com/periphemu/periphemu/hardware"
	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/logger"
	"github.com/periphemu/periphemu/statedump"
)

const numLines = 10

const help = "0-9 toggle line, space advance, r reset, d dump, q quit\n"

// Console drives a machine with key presses.
type Console struct {
	m      *hardware.Machine
	output io.Writer

	pressed [numLines]bool
}

// NewConsole is the preferred method of initialisation for the Console type.
func NewConsole(m *hardware.Machine, output io.Writer) *Console {
	return &Console{
		m:      m,
		output: output,
	}
}

// Pressed returns true if the line is currently pressed.
func (con *Console) Pressed(line int) bool {
	if line < 0 || line >= numLines {
		return false
	}
	return con.pressed[line]
}

// Key handles a single key press. Returns true if the console should quit.
func (con *Console) Key(k byte) (bool, error) {
	switch {
	case k >= '0' && k <= '9':
		line := int(k - '0')
		con.pressed[line] = !con.pressed[line]
		if con.pressed[line] {
			con.m.Edge(line, trigger.Rising)
			fmt.Fprintf(con.output, "line %d pressed\n", line)
		} else {
			con.m.Edge(line, trigger.Falling)
			fmt.Fprintf(con.output, "line %d released\n", line)
		}

	case k == ' ':
		if err := con.m.Advance(con.m.Prefs.ConsoleStep.Value()); err != nil {
			return true, err
		}
		fmt.Fprintf(con.output, "%v\n", con.m.Clock.Now())

	case k == 'r':
		if err := con.m.Reset(); err != nil {
			return true, err
		}
		con.pressed = [numLines]bool{}
		fmt.Fprintln(con.output, "reset")

	case k == 'd':
		statedump.Text(con.output, con.m)

	case k == 'q':
		return true, nil

	default:
		io.WriteString(con.output, help)
	}

	logger.WriteRecent(con.output)

	return false, nil
}

// Run the console on the terminal until the quit key is pressed. The terminal
// is put into cbreak mode for the duration.
func Run(m *hardware.Machine, term *Terminal) error {
	if err := term.CBreakMode(); err != nil {
		return err
	}
	defer term.CanonicalMode()

	m.AttachSerial(term)
	defer m.AttachSerial(nil)

	con := NewConsole(m, term)
	term.Print(help)

	for {
		k, err := term.ReadKey()
		if err != nil {
			return err
		}

		quit, err := con.Key(k)
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}
