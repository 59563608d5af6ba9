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
	"os"
	"path/filepath"
	"testing"

	"github.com/periphemu/periphemu/test"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	test.DemandSuccess(t, os.WriteFile(fn, []byte(content), 0o644))
	return fn
}

func TestCheck(t *testing.T) {
	test.ExpectEquality(t, launch([]string{"check"}), exitOK)

	ok := writeFile(t, "ok.txt", "crc CRC @ 0x40023000\n")
	test.ExpectEquality(t, launch([]string{"check", ok}), exitOK)

	overlap := writeFile(t, "overlap.txt", "a CRC @ 0x40023000\nb CRC @ 0x40023100\n")
	test.ExpectEquality(t, launch([]string{"check", overlap}), exitError)
}

func TestRun(t *testing.T) {
	pass := writeFile(t, "pass.mcr", "periphemu-macro\nv1\nEXPECT 0x40023014 0x04c11db7\n")
	test.ExpectEquality(t, launch([]string{"-prefs", "hardware.quiet::true", pass}), exitOK)

	fail := writeFile(t, "fail.mcr", "periphemu-macro\nv1\nEXPECT 0x40023014 0\n")
	test.ExpectEquality(t, launch([]string{"run", fail}), exitAssert)

	test.ExpectEquality(t, launch([]string{"run"}), exitError)
	test.ExpectEquality(t, launch([]string{"run", "missing.mcr"}), exitError)
}

func TestRunWav(t *testing.T) {
	script := writeFile(t, "dac.mcr", "periphemu-macro\nv1\nWRITE 0x40007400 1\nWRITE 0x40007408 0xfff\nWAIT 10ms\n")
	wav := filepath.Join(t.TempDir(), "out.wav")

	test.ExpectEquality(t, launch([]string{"run", "-wav", wav, "-rate", "8000", script}), exitOK)

	info, err := os.Stat(wav)
	test.DemandSuccess(t, err)

	// 80 stereo 16-bit samples after the header
	test.ExpectEquality(t, info.Size() > 320, true)
}

func TestDump(t *testing.T) {
	test.ExpectEquality(t, launch([]string{"dump"}), exitOK)
	test.ExpectEquality(t, launch([]string{"dump", "-graph"}), exitOK)
	test.ExpectEquality(t, launch([]string{"dump", "extra"}), exitError)
}

func TestBadFlag(t *testing.T) {
	test.ExpectEquality(t, launch([]string{"check", "-nosuchflag"}), exitError)
}

func TestVersion(t *testing.T) {
	test.ExpectEquality(t, launch([]string{"-version"}), exitOK)
}

func TestRunWavAbort(t *testing.T) {
	script := writeFile(t, "abort.mcr", "periphemu-macro\nv1\nWRITE 0x40007400 1\nWRITE 0x40007408 0xfff\nWAIT 10ms\nUNKNOWN\n")
	wav := filepath.Join(t.TempDir(), "out.wav")

	test.ExpectEquality(t, launch([]string{"run", "-wav", wav, "-rate", "8000", script}), exitError)

	// the capture up to the error is still written
	info, err := os.Stat(wav)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, info.Size() > 320, true)
}
