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

//go:build statsview
// +build statsview

package statsview

import (
	"fmt"
	"io"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"github.com/periphemu/periphemu/logger"
)

const url = "/debug/statsview"

// Launch a new goroutine running the statsview. An empty address uses the
// default Address.
func Launch(output io.Writer, address string) {
	if address == "" {
		address = Address
	}

	go func() {
		viewer.SetConfiguration(viewer.WithAddr(address), viewer.WithTheme(viewer.ThemeWesteros))
		mgr := statsview.New()
		if err := mgr.Start(); err != nil {
			logger.Log(logger.Allow, "statsview", err)
		}
	}()

	fmt.Fprintf(output, "stats server available at %s%s\n", address, url)
}

// Available returns true if a statsview is available to launch.
func Available() bool {
	return true
}
