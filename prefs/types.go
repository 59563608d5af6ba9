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

package prefs

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Value represents the actual Go preference value.
type Value interface{}

// pref is the interface implemented by all preference types.
type pref interface {
	fmt.Stringer
	Set(value Value) error
	Get() Value
	Reset() error
}

// Bool implements a boolean type in the prefs system.
type Bool struct {
	value    atomic.Value // bool
	def      bool
	hookPre  func(value Value) error
	hookPost func(value Value) error
}

// NewBool returns a Bool with a default value. The default is restored by
// Reset().
func NewBool(def bool) *Bool {
	p := &Bool{def: def}
	p.value.Store(def)
	return p
}

func (p *Bool) String() string {
	return fmt.Sprintf("%v", p.Get().(bool))
}

// Set new value to Bool type. New value must be of type bool or string.
func (p *Bool) Set(v Value) error {
	var nv bool
	switch v := v.(type) {
	case bool:
		nv = v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes":
			nv = true
		case "false", "off", "no":
			nv = false
		default:
			return errors.Errorf("prefs: cannot convert %q to prefs.Bool", v)
		}
	default:
		return errors.Errorf("prefs: cannot convert %T to prefs.Bool", v)
	}

	if p.hookPre != nil {
		if err := p.hookPre(nv); err != nil {
			return err
		}
	}

	p.value.Store(nv)

	if p.hookPost != nil {
		if err := p.hookPost(nv); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the raw pref value.
func (p *Bool) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return p.def
	}
	return ov.(bool)
}

// Value returns the preference as a bool. Saves a type assertion at the call
// site.
func (p *Bool) Value() bool {
	return p.Get().(bool)
}

// Reset sets the boolean value to its default.
func (p *Bool) Reset() error {
	return p.Set(p.def)
}

// SetHookPre sets the callback function to be called just before the value
// is updated.
func (p *Bool) SetHookPre(f func(value Value) error) {
	p.hookPre = f
}

// SetHookPost sets the callback function to be called just after the value
// is updated.
func (p *Bool) SetHookPost(f func(value Value) error) {
	p.hookPost = f
}

// Int implements an integer type in the prefs system.
type Int struct {
	value    atomic.Value // int
	def      int
	hookPre  func(value Value) error
	hookPost func(value Value) error
}

// NewInt returns an Int with a default value.
func NewInt(def int) *Int {
	p := &Int{def: def}
	p.value.Store(def)
	return p
}

func (p *Int) String() string {
	return fmt.Sprintf("%d", p.Get().(int))
}

// Set new value to Int type. New value can be an int or string.
func (p *Int) Set(v Value) error {
	var nv int
	switch v := v.(type) {
	case int64:
		nv = int(v)
	case int32:
		nv = int(v)
	case int:
		nv = v
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 0, 64)
		if err != nil {
			return errors.Wrapf(err, "prefs: cannot convert %q to prefs.Int", v)
		}
		nv = int(n)
	default:
		return errors.Errorf("prefs: cannot convert %T to prefs.Int", v)
	}

	if p.hookPre != nil {
		if err := p.hookPre(nv); err != nil {
			return err
		}
	}

	p.value.Store(nv)

	if p.hookPost != nil {
		if err := p.hookPost(nv); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the raw pref value.
func (p *Int) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return p.def
	}
	return ov.(int)
}

// Value returns the preference as an int.
func (p *Int) Value() int {
	return p.Get().(int)
}

// Reset sets the int value to its default.
func (p *Int) Reset() error {
	return p.Set(p.def)
}

// SetHookPre sets the callback function to be called just before the value
// is updated.
func (p *Int) SetHookPre(f func(value Value) error) {
	p.hookPre = f
}

// SetHookPost sets the callback function to be called just after the value
// is updated.
func (p *Int) SetHookPost(f func(value Value) error) {
	p.hookPost = f
}

// Duration implements a time.Duration type in the prefs system.
type Duration struct {
	value    atomic.Value // time.Duration
	def      time.Duration
	hookPre  func(value Value) error
	hookPost func(value Value) error
}

// NewDuration returns a Duration with a default value.
func NewDuration(def time.Duration) *Duration {
	p := &Duration{def: def}
	p.value.Store(def)
	return p
}

func (p *Duration) String() string {
	return p.Get().(time.Duration).String()
}

// Set new value to Duration type. New value can be a time.Duration or a
// string in the format accepted by time.ParseDuration().
func (p *Duration) Set(v Value) error {
	var nv time.Duration
	switch v := v.(type) {
	case time.Duration:
		nv = v
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return errors.Wrapf(err, "prefs: cannot convert %q to prefs.Duration", v)
		}
		nv = d
	default:
		return errors.Errorf("prefs: cannot convert %T to prefs.Duration", v)
	}

	if nv < 0 {
		return errors.Errorf("prefs: negative duration (%v)", nv)
	}

	if p.hookPre != nil {
		if err := p.hookPre(nv); err != nil {
			return err
		}
	}

	p.value.Store(nv)

	if p.hookPost != nil {
		if err := p.hookPost(nv); err != nil {
			return err
		}
	}

	return nil
}

// Get returns the raw pref value.
func (p *Duration) Get() Value {
	ov := p.value.Load()
	if ov == nil {
		return p.def
	}
	return ov.(time.Duration)
}

// Value returns the preference as a time.Duration.
func (p *Duration) Value() time.Duration {
	return p.Get().(time.Duration)
}

// Reset sets the duration value to its default.
func (p *Duration) Reset() error {
	return p.Set(p.def)
}

// SetHookPre sets the callback function to be called just before the value
// is updated.
func (p *Duration) SetHookPre(f func(value Value) error) {
	p.hookPre = f
}

// SetHookPost sets the callback function to be called just after the value
// is updated.
func (p *Duration) SetHookPost(f func(value Value) error) {
	p.hookPost = f
}
