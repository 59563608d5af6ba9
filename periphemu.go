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

package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/console"
	"github.com/periphemu/periphemu/hardware"
	"github.com/periphemu/periphemu/hardware/platform"
	"github.com/periphemu/periphemu/logger"
	"github.com/periphemu/periphemu/macro"
	"github.com/periphemu/periphemu/modalflag"
	"github.com/periphemu/periphemu/prefs"
	"github.com/periphemu/periphemu/statedump"
	"github.com/periphemu/periphemu/statsview"
	"github.com/periphemu/periphemu/version"
	"github.com/periphemu/periphemu/wavwriter"
)

// exit codes
const (
	exitOK     = 0
	exitArgs   = 10
	exitError  = 20
	exitAssert = 30
)

func main() {
	os.Exit(launch(os.Args[1:]))
}

func launch(args []string) int {
	md := &modalflag.Modes{Output: os.Stdout}
	md.NewArgs(args)
	md.AddSubModes("RUN", "CHECK", "DUMP", "CONSOLE")
	showVersion := md.AddBool("version", false, "print version and exit")

	p, err := md.Parse()
	switch p {
	case modalflag.ParseHelp:
		return exitOK

	case modalflag.ParseError:
		fmt.Printf("* error: %v\n", err)
		return exitArgs
	}

	if *showVersion {
		fmt.Println(version.String())
		return exitOK
	}

	var failed bool

	switch md.Mode() {
	case "RUN":
		failed, err = run(md)

	case "CHECK":
		err = check(md)

	case "DUMP":
		err = dump(md)

	case "CONSOLE":
		err = interactive(md)
	}

	if err != nil {
		fmt.Printf("* error in %s mode: %s\n", md.String(), err)
		return exitError
	}

	if failed {
		return exitAssert
	}

	return exitOK
}

// newMachine creates a machine from the named platform description file. The
// default STM32F3 layout is used if the filename is empty. Preferences in the
// prefs string are applied to the new machine.
func newMachine(filename string, prefsString string) (*hardware.Machine, error) {
	var desc *platform.Description
	var err error

	if filename == "" {
		desc = platform.Default()
	} else {
		desc, err = platform.Load(filename)
		if err != nil {
			return nil, err
		}
	}

	prefs.PushCommandLineStack(prefsString)
	defer func() {
		if unused := prefs.PopCommandLineStack(); unused != "" {
			logger.Logf(logger.Allow, "periphemu", "unused preferences: %s", unused)
		}
	}()

	return hardware.NewMachine(desc)
}

func setEcho(log bool) {
	if log {
		logger.SetEcho(os.Stdout, false)
	} else {
		logger.SetEcho(nil, false)
	}
}

func run(md *modalflag.Modes) (failed bool, rerr error) {
	md.NewMode()

	platformFile := md.AddString("platform", "", "platform description file")
	wav := md.AddString("wav", "", "record DAC output to wav file")
	rate := md.AddInt("rate", wavwriter.DefaultRate, "sample rate of wav file")
	log := md.AddBool("log", false, "echo log to stdout")
	prefsString := md.AddString("prefs", "", "preferences to apply to the machine")
	stats := md.AddBool("statsview", false, fmt.Sprintf("run stats server (%s)", statsview.Address))

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return false, err
	}

	setEcho(*log)

	switch len(md.RemainingArgs()) {
	case 0:
		return false, errors.Errorf("macro script required for %s mode", md)
	case 1:
	default:
		return false, errors.Errorf("too many arguments for %s mode", md)
	}

	if *stats {
		if !statsview.Available() {
			return false, errors.New("stats server not available in this build")
		}
		statsview.Launch(os.Stdout, "")
	}

	m, err := newMachine(*platformFile, *prefsString)
	if err != nil {
		return false, err
	}

	if *wav != "" {
		aw, err := wavwriter.New(*wav, *rate)
		if err != nil {
			return false, err
		}
		m.AttachDACSink(aw)

		// the capture is written even if the macro fails
		defer func() {
			aw.Extend(m.Clock.Now())
			if err := aw.Close(); err != nil && rerr == nil {
				rerr = err
			}
		}()
	}

	mcr, err := macro.NewMacro(md.GetArg(0), m)
	if err != nil {
		return false, err
	}
	mcr.Output = os.Stdout

	res, err := mcr.Run()
	if err != nil {
		return false, err
	}

	fmt.Printf("%s: %s\n", md.GetArg(0), res)
	for _, f := range res.Failures {
		fmt.Printf("  %s\n", f)
	}

	return res.Failed > 0, nil
}

func check(md *modalflag.Modes) error {
	md.NewMode()

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	var filename string
	switch len(md.RemainingArgs()) {
	case 0:
	case 1:
		filename = md.GetArg(0)
	default:
		return errors.Errorf("too many arguments for %s mode", md)
	}

	m, err := newMachine(filename, "")
	if err != nil {
		return err
	}

	fmt.Print(m.Map.Summary())
	return nil
}

func dump(md *modalflag.Modes) error {
	md.NewMode()

	platformFile := md.AddString("platform", "", "platform description file")
	graph := md.AddBool("graph", false, "write state as a graphviz graph")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return errors.Errorf("too many arguments for %s mode", md)
	}

	m, err := newMachine(*platformFile, "")
	if err != nil {
		return err
	}

	if *graph {
		statedump.Graph(os.Stdout, m)
	} else {
		statedump.Text(os.Stdout, m)
	}

	return nil
}

func interactive(md *modalflag.Modes) error {
	md.NewMode()

	platformFile := md.AddString("platform", "", "platform description file")
	prefsString := md.AddString("prefs", "", "preferences to apply to the machine")

	p, err := md.Parse()
	if err != nil || p != modalflag.ParseContinue {
		return err
	}

	if len(md.RemainingArgs()) > 0 {
		return errors.Errorf("too many arguments for %s mode", md)
	}

	m, err := newMachine(*platformFile, *prefsString)
	if err != nil {
		return err
	}

	term, err := console.NewTerminal(os.Stdin, os.Stdout)
	if err != nil {
		return err
	}

	return console.Run(m, term)
}
