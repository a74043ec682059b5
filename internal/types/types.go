package types

import "image"

// Transcript is the normalized output of the transcription engine:
// nested segments, each optionally carrying word-level timestamps.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

// WordBoundary is one transcribed word with its time interval in the
// source audio, in seconds. Start <= End always holds after flattening.
type WordBoundary struct {
	Word  string
	Start float64
	End   float64
}

// VideoBuffer holds every decoded frame of one clip plus the stream's
// frame rate. Fully materialized: segment slicing needs random access
// by computed index ranges.
type VideoBuffer struct {
	Frames []*image.RGBA
	FPS    float64
	Width  int
	Height int
}

// AudioBuffer is a decoded waveform, channel-major.
type AudioBuffer struct {
	Data       [][]float32
	SampleRate int
}

// NumFrames reports how many frames were decoded.
func (v VideoBuffer) NumFrames() int { return len(v.Frames) }

// NumSamples reports the per-channel sample count.
func (a AudioBuffer) NumSamples() int {
	if len(a.Data) == 0 {
		return 0
	}
	return len(a.Data[0])
}

// WordSegment is the preprocessed audio/video sub-clip for one word
// boundary: grayscale frames at a fixed square resolution (values in
// [0,1]) and a mono waveform padded to the minimum analysis length.
type WordSegment struct {
	Frames   [][]float32
	Size     int
	Waveform []float32
}

// Outcome distinguishes the terminal states of one prediction request.
// NoWords and NoVideo are successful-but-empty outcomes, not faults.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNoWords
	OutcomeNoVideo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoWords:
		return "no_words"
	case OutcomeNoVideo:
		return "no_video"
	default:
		return "success"
	}
}

// FailureReason is the user-facing explanation attached to a
// recoverable-empty outcome.
func (o Outcome) FailureReason() string {
	switch o {
	case OutcomeNoWords:
		return "No words found."
	case OutcomeNoVideo:
		return "Could not load video frames."
	default:
		return ""
	}
}

// PredictionResult is the final answer for one request.
type PredictionResult struct {
	Prediction string
	Transcript string
	Outcome    Outcome
}
