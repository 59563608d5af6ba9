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

package hardware

import (
	"io"
	"os"
	"strings"

	"github.com/periphemu/periphemu/logger"
)

// serial collects the output of every serial peripheral in the machine. The
// output is kept so that it can be checked by a test harness and is also
// forwarded to an attached writer.
type serial struct {
	m        *Machine
	received strings.Builder
	attached io.Writer
}

// Write implements the io.Writer interface.
func (s *serial) Write(p []byte) (int, error) {
	s.received.Write(p)

	// keep only the most recent output if there is a limit
	if limit := s.m.Prefs.SerialLimit.Value(); limit > 0 && s.received.Len() > limit {
		kept := s.received.String()[s.received.Len()-limit:]
		s.received.Reset()
		s.received.WriteString(kept)
	}

	if s.attached != nil {
		if _, err := s.attached.Write(p); err != nil {
			logger.Log(s.m, "serial", err)
		}
	}

	if s.m.Prefs.SerialEcho.Value() {
		_, _ = os.Stdout.Write(p)
	}

	return len(p), nil
}
