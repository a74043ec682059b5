package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/avml/lipread/internal/types"
)

// ErrExtract marks a failed audio extraction: the tool exited non-zero
// or produced no artifact. Fatal for the request, no degraded path.
var ErrExtract = errors.New("audio extraction failed")

// errNoVideoStream: ffprobe ran fine but the container has no video
// stream. ffprobe exits 0 with empty output in that case.
var errNoVideoStream = errors.New("no video stream")

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inVideo,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: ffmpeg: %v\n%s", ErrExtract, err, string(b))
	}
	if fi, err := os.Stat(outWav); err != nil || fi.Size() == 0 {
		return fmt.Errorf("%w: ffmpeg produced no output artifact", ErrExtract)
	}
	return nil
}

// DecodeFrames reads every frame of the first video stream into memory
// as RGBA rasters, in arrival order, along with the stream frame rate.
// A clip with no decodable frames yields an empty buffer, not an error;
// the caller decides how to surface that.
func (a *Adapter) DecodeFrames(ctx context.Context, inVideo string) (types.VideoBuffer, error) {
	fps, w, h, err := a.probe(ctx, inVideo)
	if errors.Is(err, errNoVideoStream) {
		// Audio-only container: recoverable, reported by the caller as
		// a no-video outcome rather than a server fault.
		return types.VideoBuffer{}, nil
	}
	if err != nil {
		return types.VideoBuffer{}, err
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-i", inVideo,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"pipe:1",
	)
	cmd.Stderr = io.Discard
	out, err := cmd.StdoutPipe()
	if err != nil {
		return types.VideoBuffer{}, err
	}
	if err := cmd.Start(); err != nil {
		return types.VideoBuffer{}, fmt.Errorf("ffmpeg decode frames: %w", err)
	}

	buf := types.VideoBuffer{FPS: fps, Width: w, Height: h}
	frameSize := w * h * 4
	for {
		pix := make([]uint8, frameSize)
		if _, err := io.ReadFull(out, pix); err != nil {
			// io.EOF on a frame boundary is the normal end of stream;
			// a short read means a truncated tail frame, which we drop.
			break
		}
		img := &image.RGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
		buf.Frames = append(buf.Frames, img)
	}
	if err := cmd.Wait(); err != nil && len(buf.Frames) == 0 {
		return types.VideoBuffer{}, fmt.Errorf("ffmpeg decode frames: %w", err)
	}
	return buf, nil
}

func (a *Adapter) probe(ctx context.Context, inVideo string) (fps float64, w, h int, err error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate",
		"-of", "csv=p=0",
		inVideo,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("ffprobe stream: %w\n%s", err, string(b))
	}
	out := strings.TrimSpace(string(b))
	if out == "" {
		return 0, 0, 0, errNoVideoStream
	}
	parts := strings.Split(out, ",")
	if len(parts) < 3 {
		return 0, 0, 0, fmt.Errorf("ffprobe stream: unexpected output %q", string(b))
	}
	w, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse width %q: %w", parts[0], err)
	}
	h, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("parse height %q: %w", parts[1], err)
	}
	fps, err = parseRate(parts[2])
	if err != nil {
		return 0, 0, 0, err
	}
	return fps, w, h, nil
}

// parseRate handles ffprobe rational rates like "30000/1001" as well
// as plain decimals.
func parseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("parse frame rate %q: zero or bad denominator", s)
		}
		return n / d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", s, err)
	}
	return f, nil
}
