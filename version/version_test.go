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

package version_test

import (
	"strings"
	"testing"

	"github.com/periphemu/periphemu/test"
	"github.com/periphemu/periphemu/version"
)

func TestVersion(t *testing.T) {
	v, r := version.Version()
	test.ExpectInequality(t, v, "")
	test.ExpectInequality(t, r, "")
	test.ExpectSuccess(t, strings.HasPrefix(version.String(), "periphemu "))
}
