// Package usecase drives one sentence prediction request end to end:
// extract audio, transcribe, decode frames, then classify word by word.
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avml/lipread/internal/domain/segment"
	"github.com/avml/lipread/internal/domain/transcript"
	"github.com/avml/lipread/internal/ports"
	"github.com/avml/lipread/internal/types"
	"github.com/avml/lipread/internal/wavio"
)

// WordPredictor is the per-word classify step. Implementations absorb
// their own faults and always return a word or a sentinel.
type WordPredictor interface {
	PredictWord(ctx context.Context, seg types.WordSegment) string
}

type Deps struct {
	Video   ports.VideoTool
	ASR     ports.ASR
	Predict WordPredictor
	Log     *logrus.Logger

	// LoadAudio decodes the extracted WAV. Defaults to wavio.Load;
	// injectable so tests can run without real artifacts.
	LoadAudio func(path string) (types.AudioBuffer, error)
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Log == nil {
		d.Log = logrus.New()
	}
	if d.LoadAudio == nil {
		d.LoadAudio = wavio.Load
	}
	return Usecase{d: d}
}

type Input struct {
	VideoPath string

	// WorkDir hosts the request's temporary artifacts. Created (and
	// fully removed) automatically when empty.
	WorkDir string
}

// Run executes the prediction state machine. Errors are request-fatal
// (extraction or transcription engine failures); recoverable-empty
// conditions come back as a PredictionResult with a non-success
// outcome. Temporary artifacts are removed on every path out.
func (u Usecase) Run(ctx context.Context, in Input) (types.PredictionResult, error) {
	if _, err := os.Stat(in.VideoPath); err != nil {
		return types.PredictionResult{}, fmt.Errorf("video file: %w", err)
	}

	dir := in.WorkDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "lipread-*")
		if err != nil {
			return types.PredictionResult{}, err
		}
		defer os.RemoveAll(dir)
	}
	wavPath := filepath.Join(dir, "audio.wav")
	defer os.Remove(wavPath)

	if err := u.d.Video.ExtractAudioMono16k(ctx, in.VideoPath, wavPath); err != nil {
		return types.PredictionResult{}, err
	}

	tr, err := u.d.ASR.Transcribe(ctx, wavPath, dir)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("transcribe: %w", err)
	}

	boundaries := transcript.Flatten(tr)
	u.d.Log.WithField("words", len(boundaries)).Debug("transcription complete")
	if len(boundaries) == 0 {
		return types.PredictionResult{Transcript: tr.Text, Outcome: types.OutcomeNoWords}, nil
	}

	video, err := u.d.Video.DecodeFrames(ctx, in.VideoPath)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("decode frames: %w", err)
	}
	if video.NumFrames() == 0 {
		return types.PredictionResult{Transcript: tr.Text, Outcome: types.OutcomeNoVideo}, nil
	}

	audio, err := u.d.LoadAudio(wavPath)
	if err != nil {
		return types.PredictionResult{}, fmt.Errorf("load audio: %w", err)
	}

	var predicted []string
	for _, b := range boundaries {
		if err := ctx.Err(); err != nil {
			return types.PredictionResult{}, err
		}
		seg, ok := segment.Slice(b, video, audio)
		if !ok {
			u.d.Log.WithFields(logrus.Fields{
				"word":  b.Word,
				"start": b.Start,
				"end":   b.End,
			}).Debug("skipping word: no frames in interval")
			continue
		}
		predicted = append(predicted, u.d.Predict.PredictWord(ctx, seg))
	}

	return types.PredictionResult{
		Prediction: strings.Join(predicted, " "),
		Transcript: tr.Text,
		Outcome:    types.OutcomeSuccess,
	}, nil
}
