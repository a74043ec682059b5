package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/avml/lipread/internal/pipeline"
	"github.com/avml/lipread/internal/server"
	"github.com/avml/lipread/internal/types"
)

func buildConfig(cmd *cobra.Command) pipeline.Config {
	ffmpegPath, _ := cmd.Flags().GetString("ffmpeg")
	ffprobePath, _ := cmd.Flags().GetString("ffprobe")
	whisperBin, _ := cmd.Flags().GetString("whisper-bin")
	whisperModel, _ := cmd.Flags().GetString("whisper-model")
	language, _ := cmd.Flags().GetString("language")
	scorerURL, _ := cmd.Flags().GetString("scorer-url")
	vocabPath, _ := cmd.Flags().GetString("vocab")
	verbose, _ := cmd.Flags().GetBool("verbose")

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	return pipeline.Config{
		FFmpegPath:   ffmpegPath,
		FFprobePath:  ffprobePath,
		WhisperBin:   whisperBin,
		WhisperModel: whisperModel,
		Language:     language,
		ScorerURL:    scorerURL,
		VocabPath:    vocabPath,
		Log:          log,
	}
}

func runPredict(cmd *cobra.Command, input string) error {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
	defer cancel()

	p, err := pipeline.New(ctx, buildConfig(cmd))
	if err != nil {
		return err
	}

	res, err := p.Predict(ctx, absIn)
	if err != nil {
		return err
	}
	if res.Outcome != types.OutcomeSuccess {
		fmt.Fprintf(cmd.OutOrStdout(), "Prediction failed: %s\n", res.Outcome.FailureReason())
		fmt.Fprintf(cmd.OutOrStdout(), "transcript: %s\n", res.Transcript)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "prediction: %s\n", res.Prediction)
	fmt.Fprintf(cmd.OutOrStdout(), "transcript: %s\n", res.Transcript)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	cfg := buildConfig(cmd)

	startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	p, err := pipeline.New(startCtx, cfg)
	if err != nil {
		// Refuse to serve rather than run degraded.
		return fmt.Errorf("startup: %w", err)
	}

	srv := server.New(p, cfg.Log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		cfg.Log.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
