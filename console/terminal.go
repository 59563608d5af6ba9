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

package console

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
)

// Terminal is a wrapper for the posix terminal attached to the console. It
// allows switching between canonical and cbreak modes.
type Terminal struct {
	input  *os.File
	output *os.File

	canAttr    unix.Termios
	cbreakAttr unix.Termios
}

// NewTerminal is the preferred method of initialisation for the Terminal
// type. The input file must be a terminal.
func NewTerminal(input, output *os.File) (*Terminal, error) {
	if input == nil {
		return nil, errors.New("console: terminal requires an input file")
	}
	if output == nil {
		return nil, errors.New("console: terminal requires an output file")
	}

	pt := &Terminal{
		input:  input,
		output: output,
	}

	err := termios.Tcgetattr(pt.input.Fd(), &pt.canAttr)
	if err != nil {
		return nil, errors.Wrap(err, "console")
	}

	pt.cbreakAttr = pt.canAttr
	termios.Cfmakecbreak(&pt.cbreakAttr)

	return pt, nil
}

// CanonicalMode puts terminal into normal, everyday canonical mode.
func (pt *Terminal) CanonicalMode() error {
	return termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.canAttr)
}

// CBreakMode puts terminal into cbreak mode. Key presses are available
// immediately and are not echoed.
func (pt *Terminal) CBreakMode() error {
	return termios.Tcsetattr(pt.input.Fd(), termios.TCIFLUSH, &pt.cbreakAttr)
}

// ReadKey waits for a single key press.
func (pt *Terminal) ReadKey() (byte, error) {
	b := make([]byte, 1)
	_, err := pt.input.Read(b)
	if err != nil {
		return 0, errors.Wrap(err, "console")
	}
	return b[0], nil
}

// Write implements the io.Writer interface.
func (pt *Terminal) Write(p []byte) (int, error) {
	return pt.output.Write(p)
}

// Print writes the formatted string to the output file.
func (pt *Terminal) Print(s string, a ...any) {
	fmt.Fprintf(pt.output, s, a...)
	_ = pt.output.Sync()
}
