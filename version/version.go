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

// Package version reports the version of the program. The version number is
// set by the linker for release builds:
//
//	go build -ldflags "-X github.com/periphemu/periphemu/version.number=v0.1.0"
//
// Otherwise the version is taken from the build information embedded by the
// Go toolchain.
package version

import (
	"fmt"
	"runtime/debug"
)

// ApplicationName is the name to use when referring to the application.
const ApplicationName = "periphemu"

// set by the linker
var number string

// Version returns the version string and the revision string. The revision
// is suffixed with "+dirty" if the source had uncommitted changes.
//
// A version of "unreleased" means that the program was built without a
// version number from a version controlled source tree. A version of "local"
// means there is no version information at all, which is the case with "go
// run" and "go test".
func Version() (string, string) {
	var vcs bool
	var revision string
	var modified bool

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, v := range info.Settings {
			switch v.Key {
			case "vcs":
				vcs = true
			case "vcs.revision":
				revision = v.Value
			case "vcs.modified":
				modified = v.Value == "true"
			}
		}
	}

	switch {
	case revision == "":
		revision = "no revision information"
	case modified:
		revision = fmt.Sprintf("%s+dirty", revision)
	}

	switch {
	case number != "":
		return number, revision
	case vcs:
		return "unreleased", revision
	}
	return "local", revision
}

// String returns the application name, version and revision in one line.
func String() string {
	v, r := Version()
	return fmt.Sprintf("%s %s (%s)", ApplicationName, v, r)
}
