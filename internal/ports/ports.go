package ports

import (
	"context"

	"github.com/avml/lipread/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inVideo, outWav string) error
	DecodeFrames(ctx context.Context, inVideo string) (types.VideoBuffer, error)
}

type ASR interface {
	Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error)
}

// Scorer is the audio-visual classification function: one packaged
// segment pair in, one class index out. Implementations must be safe
// for concurrent use; inference never mutates the loaded weights.
type Scorer interface {
	Score(ctx context.Context, video VideoTensor, audio AudioTensor) (int, error)
	Ping(ctx context.Context) error
}

// VideoTensor is a batched (1, 1, T, H, W) stack of grayscale frames,
// flattened row-major with the shape carried alongside.
type VideoTensor struct {
	Data   []float32 `json:"data"`
	Frames int       `json:"frames"`
	Height int       `json:"height"`
	Width  int       `json:"width"`
}

// AudioTensor is a batched (1, 1, 1, mels, frames) mel spectrogram,
// flattened row-major.
type AudioTensor struct {
	Data  []float64 `json:"data"`
	Mels  int       `json:"mels"`
	Steps int       `json:"steps"`
}
