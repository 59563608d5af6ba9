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

// Package wavwriter allows writing of DAC output to disk as a WAV file. Note
// that audio data is buffered in memory in its entirety, and written to disk
// when the writer is closed. It is therefore probably only suitable for
// testing purposes.
//
// The DAC only reports changes to its output. The WavWriter holds the most
// recent value of each channel until the next change, so the WAV file is a
// sample-and-hold rendition of the output at the requested sample rate.
package wavwriter

import (
	"math/bits"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"

	"github.com/periphemu/periphemu/hardware/peripherals/dac"
	"github.com/periphemu/periphemu/logger"
)

const (
	bitDepth = 16

	// WAVE_FORMAT_PCM
	pcm = 1
)

// DefaultRate is the sample rate used when the rate given to New() is zero.
const DefaultRate = 48000

// WavWriter implements the dac.Sink interface.
type WavWriter struct {
	filename string
	rate     int

	// the current output value of each channel
	values [dac.NumChannels]int

	// samples are interleaved by channel
	buffer []int
}

// New is the preferred method of initialisation for the WavWriter type.
func New(filename string, rate int) (*WavWriter, error) {
	if rate < 0 {
		return nil, errors.Errorf("wavwriter: invalid sample rate (%d)", rate)
	}
	if rate == 0 {
		rate = DefaultRate
	}

	aw := &WavWriter{
		filename: filename,
		rate:     rate,
		buffer:   make([]int, 0),
	}
	for i := range aw.values {
		aw.values[i] = convert(0)
	}

	return aw, nil
}

// convert a 12-bit unsigned DAC value to a 16-bit signed sample.
func convert(value uint16) int {
	return (int(value&0x0fff) - 0x0800) << 4
}

// Output implements the dac.Sink interface.
func (aw *WavWriter) Output(channel int, value uint16, at time.Duration) {
	if channel < 0 || channel >= len(aw.values) {
		return
	}
	aw.Extend(at)
	aw.values[channel] = convert(value)
}

// Extend holds the current output values until the specified time.
func (aw *WavWriter) Extend(at time.Duration) {
	if at < 0 {
		return
	}
	n := aw.SampleIndex(at)
	for aw.Samples() < n {
		aw.buffer = append(aw.buffer, aw.values[:]...)
	}
}

// SampleIndex returns the index of the sample that covers the time.
func (aw *WavWriter) SampleIndex(at time.Duration) int {
	if at < 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(at), uint64(aw.rate))
	n, _ := bits.Div64(hi, lo, uint64(time.Second))
	return int(n)
}

// Samples returns the number of samples per channel buffered so far.
func (aw *WavWriter) Samples() int {
	return len(aw.buffer) / len(aw.values)
}

// Close encodes the buffered samples and writes the WAV file.
func (aw *WavWriter) Close() (rerr error) {
	f, err := os.Create(aw.filename)
	if err != nil {
		return errors.Wrap(err, "wavwriter")
	}
	defer func() {
		err := f.Close()
		if err != nil && rerr == nil {
			rerr = errors.Wrap(err, "wavwriter")
		}
	}()

	enc := wav.NewEncoder(f, aw.rate, bitDepth, len(aw.values), pcm)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(aw.values),
			SampleRate:  aw.rate,
		},
		Data:           aw.buffer,
		SourceBitDepth: bitDepth,
	}

	logger.Logf(logger.Allow, "wavwriter", "writing audio to %s", aw.filename)

	err = enc.Write(buf)
	if err != nil {
		return errors.Wrap(err, "wavwriter")
	}

	err = enc.Close()
	if err != nil {
		return errors.Wrap(err, "wavwriter")
	}

	return nil
}
