// Package pipeline wires adapters and startup artifacts into a ready
// prediction service.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/avml/lipread/internal/domain/spectral"
	"github.com/avml/lipread/internal/infer"
	"github.com/avml/lipread/internal/ports"
	"github.com/avml/lipread/internal/ports/adapters/ffmpeg"
	"github.com/avml/lipread/internal/ports/adapters/scorehttp"
	"github.com/avml/lipread/internal/ports/adapters/whispercpp"
	"github.com/avml/lipread/internal/types"
	"github.com/avml/lipread/internal/usecase"
	"github.com/avml/lipread/internal/vocab"
)

type Config struct {
	FFmpegPath  string
	FFprobePath string

	WhisperBin   string
	WhisperModel string
	Language     string

	ScorerURL string
	VocabPath string

	Log *logrus.Logger
}

func (c Config) Validate() error {
	if c.WhisperBin == "" {
		return errors.New("whisper binary path is required")
	}
	if c.WhisperModel == "" {
		return errors.New("whisper model path is required")
	}
	if c.ScorerURL == "" {
		return errors.New("scorer URL is required")
	}
	if c.VocabPath == "" {
		return errors.New("vocabulary path is required")
	}
	return nil
}

// Pipeline is one fully wired predictor. The vocabulary, spectral
// transform and scorer handle are loaded once here and shared
// read-only by every request.
type Pipeline struct {
	uc  usecase.Usecase
	log *logrus.Logger
}

// New validates the config, loads the startup artifacts and probes the
// scorer. Any failure here must prevent the process from serving.
func New(ctx context.Context, cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}

	v, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		return nil, err
	}

	mel, err := spectral.New(spectral.Default())
	if err != nil {
		return nil, err
	}

	scorer := scorehttp.New(cfg.ScorerURL)
	if err := scorer.Ping(ctx); err != nil {
		return nil, fmt.Errorf("scorer startup probe: %w", err)
	}

	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	asr := whispercpp.New(cfg.WhisperBin, cfg.WhisperModel, cfg.Language)

	log.WithFields(logrus.Fields{
		"vocab_size": v.Len(),
		"language":   cfg.Language,
	}).Info("pipeline initialized")

	uc := usecase.New(usecase.Deps{
		Video:   video,
		ASR:     asr,
		Predict: infer.NewContext(scorer, v, mel, log),
		Log:     log,
	})
	return &Pipeline{uc: uc, log: log}, nil
}

// Predict runs one full request against a video file on disk.
func (p *Pipeline) Predict(ctx context.Context, videoPath string) (types.PredictionResult, error) {
	return p.uc.Run(ctx, usecase.Input{VideoPath: videoPath})
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.ASR = (*whispercpp.Adapter)(nil)
var _ ports.Scorer = (*scorehttp.Adapter)(nil)
