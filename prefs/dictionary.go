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
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Dictionary is a collection of preference values, each under a unique key.
type Dictionary struct {
	entries map[string]pref
}

// NewDictionary is the preferred method of initialisation for the Dictionary
// type.
func NewDictionary() *Dictionary {
	return &Dictionary{
		entries: make(map[string]pref),
	}
}

// Add a preference value to the dictionary. If a value for the key has been
// pushed onto the command line stack then the preference is set to that value
// immediately.
func (dct *Dictionary) Add(key string, p pref) error {
	if _, ok := dct.entries[key]; ok {
		return errors.Errorf("prefs: %s: already in dictionary", key)
	}
	dct.entries[key] = p

	if ok, v := GetCommandLinePref(key); ok {
		if err := p.Set(v); err != nil {
			return errors.Wrapf(err, "prefs: %s", key)
		}
	}

	return nil
}

// Set the value of the preference with the specified key.
func (dct *Dictionary) Set(key string, v Value) error {
	p, ok := dct.entries[key]
	if !ok {
		return errors.Errorf("prefs: %s: not in dictionary", key)
	}
	return p.Set(v)
}

// Get the value of the preference with the specified key.
func (dct *Dictionary) Get(key string) (Value, bool) {
	p, ok := dct.entries[key]
	if !ok {
		return nil, false
	}
	return p.Get(), true
}

// Reset all preferences in the dictionary to their default values.
func (dct *Dictionary) Reset() error {
	for k, p := range dct.entries {
		if err := p.Reset(); err != nil {
			return errors.Wrapf(err, "prefs: %s", k)
		}
	}
	return nil
}

// String returns every key and value in the dictionary, sorted by key, in the
// same format used by the command line stack.
func (dct *Dictionary) String() string {
	keys := make([]string, 0, len(dct.entries))
	for k := range dct.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := strings.Builder{}
	for _, k := range keys {
		s.WriteString(fmt.Sprintf("%s::%s; ", k, dct.entries[k]))
	}
	return strings.TrimSuffix(s.String(), "; ")
}
