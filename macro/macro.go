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

package macro

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals/trigger"
	"github.com/periphemu/periphemu/logger"
)

// Machine is the part of the emulation that a macro drives.
type Machine interface {
	Read(address uint32, size uint32) uint32
	Write(address uint32, size uint32, value uint32)
	Edge(line int, edge trigger.Edge) bool
	Advance(d time.Duration) error
	Reset() error
	Serial() string
	SetPreference(key string, value string) error
	String() string
}

// Result of running a macro.
type Result struct {
	Passed int
	Failed int

	// description of each failure
	Failures []string
}

func (r Result) String() string {
	return fmt.Sprintf("%d passed, %d failed", r.Passed, r.Failed)
}

// Macro is a type that allows control of an emulation from a series of instructions
type Macro struct {
	machine Machine

	filename     string
	instructions []string

	// output of READ and DUMP instructions. can be nil
	Output io.Writer
}

const (
	headerLineID = iota
	headerLineVersion
	headerNumLines
)

const headerID = "periphemu-macro"

const defaultWait = 10 * time.Millisecond

// NewMacro is the preferred method of initialisation for the Macro type. The
// macro is read from the named file.
func NewMacro(filename string, machine Machine) (*Macro, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "macro")
	}
	defer f.Close()

	return Parse(filename, f, machine)
}

// Parse reads a macro from the reader. The name is used in log entries.
func Parse(name string, r io.Reader, machine Machine) (*Macro, error) {
	mcr := &Macro{
		machine:  machine,
		filename: name,
	}

	buffer, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "macro")
	}

	// convert file contents to an array of lines
	mcr.instructions = strings.Split(strings.ReplaceAll(string(buffer), "\r\n", "\n"), "\n")
	if len(mcr.instructions) < headerNumLines {
		return nil, errors.Errorf("macro: %s: not a macro file", name)
	}
	if strings.TrimSpace(mcr.instructions[headerLineID]) != headerID {
		return nil, errors.Errorf("macro: %s: not a macro file", name)
	}

	// ignore version string for now

	// we no longer need the header
	mcr.instructions = mcr.instructions[headerNumLines:]

	return mcr, nil
}

func convertAddress(s string) (uint32, error) {
	// convert hex indicator to one that ParseUint can deal with
	if s[0] == '$' {
		s = fmt.Sprintf("0x%s", s[1:])
	}
	a, err := strconv.ParseUint(s, 0, 32)
	return uint32(a), err
}

// convertSize converts a size in bits to a size in bytes.
func convertSize(s string) (uint32, error) {
	switch s {
	case "8":
		return 1, nil
	case "16":
		return 2, nil
	case "32":
		return 4, nil
	}
	return 0, errors.Errorf("unsupported size (%s)", s)
}

type loop struct {
	line int

	// loop counters count upwards because it is more natural when
	// referencing the counter value to think of the counter as counting
	// upwards
	count    int
	countEnd int

	// if loop counter has been named then we need to know it so that we can
	// update the entry in the variables table
	countName string
}

// Run a macro to completion. The returned error is for problems with the
// script itself or with the emulation. Failed assertions are in the Result.
func (mcr *Macro) Run() (Result, error) {
	var res Result

	var loops []loop
	variables := make(map[string]int)

	fail := func(ln int, msg string) {
		res.Failed++
		msg = fmt.Sprintf("%s: %d: %s", mcr.filename, ln+headerNumLines+1, msg)
		res.Failures = append(res.Failures, msg)
		logger.Log(logger.Allow, "macro", msg)
	}

	abort := func(ln int, err error) error {
		err = errors.Wrapf(err, "macro: %s: %d", mcr.filename, ln+headerNumLines+1)
		logger.Log(logger.Allow, "macro", err)
		return err
	}

	convertValue := func(s string) (uint32, error) {
		if s[0] == '%' {
			v, ok := variables[s[1:]]
			if !ok {
				return 0, errors.Errorf("variable '%s' does not exist", s[1:])
			}
			return uint32(v), nil
		}
		return convertAddress(s)
	}

	// access parses the address and optional size tokens of the bus
	// instructions
	access := func(toks []string) (uint32, uint32, error) {
		addr, err := convertAddress(toks[0])
		if err != nil {
			return 0, 0, errors.Errorf("unrecognised address: %s", toks[0])
		}
		size := uint32(4)
		if len(toks) > 1 {
			size, err = convertSize(toks[1])
			if err != nil {
				return 0, 0, err
			}
		}
		return addr, size, nil
	}

	line := func(toks []string) (int, error) {
		if len(toks) != 2 {
			return 0, errors.Errorf("%s requires a line number", toks[0])
		}
		n, err := strconv.Atoi(toks[1])
		if err != nil || n < 0 {
			return 0, errors.Errorf("invalid line number: %s", toks[1])
		}
		return n, nil
	}

	for ln := 0; ln < len(mcr.instructions); ln++ {
		s := strings.TrimSpace(mcr.instructions[ln])

		toks := strings.Fields(s)
		if len(toks) == 0 {
			continue // for loop
		}

		switch toks[0] {
		default:
			return res, abort(ln, errors.Errorf("unrecognised command: %s", toks[0]))

		case "--":
			// ignore comment lines

		case "DO":
			tl := len(toks)
			switch tl {
			case 1:
				return res, abort(ln, errors.New("too few arguments for DO"))
			case 3:
				fallthrough
			case 2:
				ct, err := strconv.Atoi(toks[1])
				if err != nil {
					return res, abort(ln, err)
				}
				if ct < 1 {
					return res, abort(ln, errors.Errorf("DO count must be at least 1: %d", ct))
				}
				lp := loop{
					line:     ln,
					countEnd: ct,
				}
				if tl == 3 {
					lp.countName = toks[2]
					variables[lp.countName] = lp.count
				}
				loops = append(loops, lp)
			default:
				return res, abort(ln, errors.New("too many arguments for DO"))
			}

		case "LOOP":
			if len(toks) > 1 {
				return res, abort(ln, errors.New("too many arguments for LOOP"))
			}

			idx := len(loops) - 1
			if idx == -1 {
				return res, abort(ln, errors.New("LOOP without a DO"))
			}

			lp := &loops[idx]
			lp.count++

			if lp.count < lp.countEnd {
				// loop is ongoing so return to start of loop
				ln = lp.line

				// update named variable
				if lp.countName != "" {
					variables[lp.countName] = lp.count
				}
			} else {
				// loop has ended. remove from loop stack and delete variable name
				loops = loops[:idx]
				delete(variables, lp.countName)
			}

		case "WAIT":
			w := defaultWait

			switch len(toks) {
			case 2:
				var err error
				w, err = time.ParseDuration(toks[1])
				if err != nil {
					return res, abort(ln, err)
				}
				fallthrough

			case 1:
				if err := mcr.machine.Advance(w); err != nil {
					return res, abort(ln, err)
				}

			default:
				return res, abort(ln, errors.New("too many arguments for WAIT"))
			}

		case "WRITE":
			if len(toks) < 3 || len(toks) > 4 {
				return res, abort(ln, errors.New("WRITE requires an address, a value and an optional size"))
			}

			addr, size, err := access(append([]string{toks[1]}, toks[3:]...))
			if err != nil {
				return res, abort(ln, err)
			}
			val, err := convertValue(toks[2])
			if err != nil {
				return res, abort(ln, errors.Wrapf(err, "cannot use value for WRITE: %s", toks[2]))
			}

			mcr.machine.Write(addr, size, val)

		case "READ":
			if len(toks) < 2 || len(toks) > 3 {
				return res, abort(ln, errors.New("READ requires an address and an optional size"))
			}

			addr, size, err := access(toks[1:])
			if err != nil {
				return res, abort(ln, err)
			}

			val := mcr.machine.Read(addr, size)
			if mcr.Output != nil {
				fmt.Fprintf(mcr.Output, "%08x: %#0*x\n", addr, int(size*2), val)
			}

		case "EXPECT":
			if len(toks) < 3 || len(toks) > 4 {
				return res, abort(ln, errors.New("EXPECT requires an address, a value and an optional size"))
			}

			addr, size, err := access(append([]string{toks[1]}, toks[3:]...))
			if err != nil {
				return res, abort(ln, err)
			}
			exp, err := convertValue(toks[2])
			if err != nil {
				return res, abort(ln, errors.Wrapf(err, "cannot use value for EXPECT: %s", toks[2]))
			}

			val := mcr.machine.Read(addr, size)
			if val == exp {
				res.Passed++
			} else {
				fail(ln, fmt.Sprintf("EXPECT %08x: got %#x wanted %#x", addr, val, exp))
			}

		case "PRESS", "RELEASE":
			n, err := line(toks)
			if err != nil {
				return res, abort(ln, err)
			}

			edge := trigger.Rising
			if toks[0] == "RELEASE" {
				edge = trigger.Falling
			}
			mcr.machine.Edge(n, edge)

		case "SERIAL":
			text := strings.TrimSpace(strings.TrimPrefix(s, toks[0]))
			if strings.HasPrefix(text, "\"") {
				var err error
				text, err = strconv.Unquote(text)
				if err != nil {
					return res, abort(ln, errors.Wrap(err, "malformed text for SERIAL"))
				}
			}
			if text == "" {
				return res, abort(ln, errors.New("SERIAL requires some text"))
			}

			if strings.Contains(mcr.machine.Serial(), text) {
				res.Passed++
			} else {
				fail(ln, fmt.Sprintf("SERIAL %q not received", text))
			}

		case "RESET":
			if len(toks) > 1 {
				return res, abort(ln, errors.New("too many arguments for RESET"))
			}
			if err := mcr.machine.Reset(); err != nil {
				return res, abort(ln, err)
			}

		case "PREF":
			if len(toks) != 3 {
				return res, abort(ln, errors.New("PREF requires a key and a value"))
			}
			if err := mcr.machine.SetPreference(toks[1], toks[2]); err != nil {
				return res, abort(ln, err)
			}

		case "DUMP":
			if mcr.Output != nil {
				io.WriteString(mcr.Output, mcr.machine.String())
			}

		case "QUIT":
			if len(toks) > 1 {
				return res, abort(ln, errors.New("too many arguments for QUIT"))
			}
			return res, nil
		}
	}

	if len(loops) > 0 {
		return res, abort(len(mcr.instructions)-1, errors.New("DO without a LOOP"))
	}

	return res, nil
}
