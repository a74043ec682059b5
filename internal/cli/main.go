package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "lipread",
		Short:        "Audio-visual sentence prediction from short speaking-head clips",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	root.PersistentFlags().String("ffprobe", "ffprobe", "Path to the ffprobe binary")
	root.PersistentFlags().String("whisper-bin", getenvDefault("WHISPER_BIN", ".cache/bin/whisper.cpp"), "Path to the whisper.cpp binary")
	root.PersistentFlags().String("whisper-model", getenvDefault("WHISPER_MODEL", ".cache/models/ggml-small.en.bin"), "Path to the whisper model")
	root.PersistentFlags().String("language", getenvDefault("LANGUAGE", "en"), "Transcription language code")
	root.PersistentFlags().String("scorer-url", getenvDefault("SCORER_URL", "http://localhost:9090"), "Base URL of the classifier model server")
	root.PersistentFlags().String("vocab", getenvDefault("VOCAB_PATH", "vocabulary.json"), "Path to the vocabulary JSON artifact")
	root.PersistentFlags().Bool("verbose", false, "Debug logging")

	predict := &cobra.Command{
		Use:   "predict <video>",
		Short: "Predict the spoken sentence in one video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, args[0])
		},
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serve.Flags().String("addr", getenvDefault("LISTEN_ADDR", ":8000"), "Listen address")

	root.AddCommand(predict, serve)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
