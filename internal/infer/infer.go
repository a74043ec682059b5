// Package infer packages preprocessed word segments into the tensor
// shapes the scoring function expects and decodes its answer.
package infer

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/avml/lipread/internal/domain/spectral"
	"github.com/avml/lipread/internal/ports"
	"github.com/avml/lipread/internal/types"
	"github.com/avml/lipread/internal/vocab"
)

const (
	// UnknownWord is returned when the scorer picks a class index the
	// vocabulary does not know.
	UnknownWord = "[UNK]"
	// ErrorWord replaces a word whose classification faulted. One bad
	// segment must never abort the whole sentence, so every fault in
	// this stage collapses to this sentinel.
	ErrorWord = "[ERROR]"
)

// Context carries everything the per-word classify step needs:
// vocabulary, spectral transform and the scorer handle. Built once at
// startup, immutable, safe to share across concurrent requests.
type Context struct {
	scorer ports.Scorer
	vocab  *vocab.Vocabulary
	mel    *spectral.Transform
	log    *logrus.Logger
}

func NewContext(scorer ports.Scorer, v *vocab.Vocabulary, mel *spectral.Transform, log *logrus.Logger) *Context {
	if log == nil {
		log = logrus.New()
	}
	return &Context{scorer: scorer, vocab: v, mel: mel, log: log}
}

// PredictWord classifies one non-empty word segment. It never returns
// an error: faults are logged with their cause and absorbed into the
// ErrorWord sentinel.
func (c *Context) PredictWord(ctx context.Context, seg types.WordSegment) string {
	mel, err := c.mel.Compute(seg.Waveform)
	if err != nil {
		c.log.WithError(err).WithField("samples", len(seg.Waveform)).Warn("spectral transform failed")
		return ErrorWord
	}

	video := packVideo(seg)
	audio := packAudio(mel)

	idx, err := c.scorer.Score(ctx, video, audio)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"frames":  video.Frames,
			"samples": len(seg.Waveform),
		}).Warn("word classification failed")
		return ErrorWord
	}

	word, ok := c.vocab.Word(idx)
	if !ok {
		c.log.WithField("class_index", idx).Warn("class index outside vocabulary")
		return UnknownWord
	}
	return word
}

// packVideo stacks the grayscale frames into a flattened
// (1, 1, T, H, W) tensor.
func packVideo(seg types.WordSegment) ports.VideoTensor {
	data := make([]float32, 0, len(seg.Frames)*seg.Size*seg.Size)
	for _, f := range seg.Frames {
		data = append(data, f...)
	}
	return ports.VideoTensor{
		Data:   data,
		Frames: len(seg.Frames),
		Height: seg.Size,
		Width:  seg.Size,
	}
}

// packAudio flattens the mel rows into a (1, 1, 1, mels, steps)
// tensor.
func packAudio(mel [][]float64) ports.AudioTensor {
	steps := 0
	if len(mel) > 0 {
		steps = len(mel[0])
	}
	data := make([]float64, 0, len(mel)*steps)
	for _, row := range mel {
		data = append(data, row...)
	}
	return ports.AudioTensor{Data: data, Mels: len(mel), Steps: steps}
}
