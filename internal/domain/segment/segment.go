// Package segment slices one word boundary out of the decoded video
// and waveform buffers and applies the fixed preprocessing the
// classifier was trained with.
package segment

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/avml/lipread/internal/types"
)

const (
	// FrameSize is the square resolution every frame is normalized to.
	FrameSize = 96
	// MinSamples is the shortest waveform the spectral transform
	// accepts (one full analysis window); shorter slices are padded
	// with trailing silence.
	MinSamples = 400
)

// Slice resolves a word boundary against the buffers. It never fails:
// the result is either a non-empty WordSegment or ok=false, meaning no
// frames fall inside the interval and the boundary must be skipped.
func Slice(b types.WordBoundary, video types.VideoBuffer, audio types.AudioBuffer) (types.WordSegment, bool) {
	startFrame := int(math.Floor(b.Start * video.FPS))
	endFrame := int(math.Floor(b.End * video.FPS))
	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > video.NumFrames() {
		endFrame = video.NumFrames()
	}
	if startFrame >= endFrame {
		return types.WordSegment{}, false
	}

	frames := make([][]float32, 0, endFrame-startFrame)
	for _, f := range video.Frames[startFrame:endFrame] {
		frames = append(frames, grayFrame(f))
	}

	startSample := int(math.Floor(b.Start * float64(audio.SampleRate)))
	endSample := int(math.Floor(b.End * float64(audio.SampleRate)))
	if startSample < 0 {
		startSample = 0
	}
	if n := audio.NumSamples(); endSample > n {
		endSample = n
	}
	if startSample > endSample {
		startSample = endSample
	}

	wave := downmix(audio.Data, startSample, endSample)
	wave = Pad(wave, MinSamples)

	return types.WordSegment{Frames: frames, Size: FrameSize, Waveform: wave}, true
}

// Pad extends w with trailing zeros up to n samples. Applying it to an
// already long-enough waveform is a no-op.
func Pad(w []float32, n int) []float32 {
	if len(w) >= n {
		return w
	}
	out := make([]float32, n)
	copy(out, w)
	return out
}

// downmix averages all channels over [start, end) into one.
func downmix(channels [][]float32, start, end int) []float32 {
	if len(channels) == 0 || end <= start {
		return nil
	}
	out := make([]float32, end-start)
	if len(channels) == 1 {
		copy(out, channels[0][start:end])
		return out
	}
	for _, ch := range channels {
		for i := start; i < end; i++ {
			out[i-start] += ch[i]
		}
	}
	inv := 1 / float32(len(channels))
	for i := range out {
		out[i] *= inv
	}
	return out
}

// grayFrame resizes one frame to FrameSize×FrameSize and collapses it
// to a single intensity channel with values in [0, 1].
func grayFrame(src *image.RGBA) []float32 {
	dst := image.NewRGBA(image.Rect(0, 0, FrameSize, FrameSize))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)

	out := make([]float32, FrameSize*FrameSize)
	for y := 0; y < FrameSize; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+FrameSize*4]
		for x := 0; x < FrameSize; x++ {
			r := float32(row[x*4])
			g := float32(row[x*4+1])
			b := float32(row[x*4+2])
			// BT.601 luma
			out[y*FrameSize+x] = (0.299*r + 0.587*g + 0.114*b) / 255
		}
	}
	return out
}
