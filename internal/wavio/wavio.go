// Package wavio loads extracted PCM WAV artifacts into memory.
package wavio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/avml/lipread/internal/types"
)

// Load decodes a PCM WAV file into a channel-major float32 buffer with
// samples normalized to [-1, 1].
func Load(path string) (types.AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.AudioBuffer{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return types.AudioBuffer{}, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return types.AudioBuffer{}, fmt.Errorf("read pcm: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return types.AudioBuffer{}, fmt.Errorf("wav %s: missing format", path)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	nch := buf.Format.NumChannels
	frames := len(buf.Data) / nch
	out := make([][]float32, nch)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for c := 0; c < nch; c++ {
			out[c][i] = float32(buf.Data[i*nch+c]) / scale
		}
	}
	return types.AudioBuffer{Data: out, SampleRate: buf.Format.SampleRate}, nil
}
