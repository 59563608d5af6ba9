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

// Package preferences holds the preferences that affect the behaviour of the
// emulated machine as a whole.
package preferences

import (
	"time"

	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/prefs"
)

// Keys used in the preferences dictionary. The same keys are used on the
// command line.
const (
	KeyQuiet           = "hardware.quiet"
	KeyResetOnWatchdog = "hardware.resetOnWatchdog"
	KeyLogUnmapped     = "hardware.logUnmapped"
	KeySerialEcho      = "hardware.serialEcho"
	KeySerialLimit     = "hardware.serialLimit"
	KeyConsoleStep     = "console.step"
)

// Preferences for the machine.
type Preferences struct {
	dct *prefs.Dictionary

	// suppress logging from the peripherals
	Quiet *prefs.Bool

	// the machine resets itself when the watchdog expires
	ResetOnWatchdog *prefs.Bool

	// log accesses to unmapped addresses. they are always counted
	LogUnmapped *prefs.Bool

	// copy serial output to stdout
	SerialEcho *prefs.Bool

	// the number of bytes of serial output kept by the machine. older output
	// is discarded. zero means no limit
	SerialLimit *prefs.Int

	// virtual time advanced by each step of the interactive console
	ConsoleStep *prefs.Duration
}

func (p *Preferences) String() string {
	return p.dct.String()
}

// NewPreferences is the preferred method of initialisation for the
// Preferences type. Values pushed onto the prefs command line stack are
// applied.
func NewPreferences() (*Preferences, error) {
	p := &Preferences{
		dct:             prefs.NewDictionary(),
		Quiet:           prefs.NewBool(false),
		ResetOnWatchdog: prefs.NewBool(true),
		LogUnmapped:     prefs.NewBool(true),
		SerialEcho:      prefs.NewBool(false),
		SerialLimit:     prefs.NewInt(0),
		ConsoleStep:     prefs.NewDuration(100 * time.Millisecond),
	}

	p.SerialLimit.SetHookPre(func(v prefs.Value) error {
		if v.(int) < 0 {
			return errors.Errorf("preferences: %s: negative limit (%d)", KeySerialLimit, v.(int))
		}
		return nil
	})
	p.ConsoleStep.SetHookPre(func(v prefs.Value) error {
		if v.(time.Duration) == 0 {
			return errors.Errorf("preferences: %s: step cannot be zero", KeyConsoleStep)
		}
		return nil
	})

	err := p.dct.Add(KeyQuiet, p.Quiet)
	if err != nil {
		return nil, err
	}
	err = p.dct.Add(KeyResetOnWatchdog, p.ResetOnWatchdog)
	if err != nil {
		return nil, err
	}
	err = p.dct.Add(KeyLogUnmapped, p.LogUnmapped)
	if err != nil {
		return nil, err
	}
	err = p.dct.Add(KeySerialEcho, p.SerialEcho)
	if err != nil {
		return nil, err
	}
	err = p.dct.Add(KeySerialLimit, p.SerialLimit)
	if err != nil {
		return nil, err
	}
	err = p.dct.Add(KeyConsoleStep, p.ConsoleStep)
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SetDefaults reverts all settings to default values.
func (p *Preferences) SetDefaults() error {
	return p.dct.Reset()
}

// Set the preference with the key. Used by the PREF instruction of macro
// scripts to change preferences while the machine is running.
func (p *Preferences) Set(key string, v prefs.Value) error {
	return p.dct.Set(key, v)
}
