// Package server is the HTTP shell: one upload endpoint in front of
// the prediction pipeline.
package server

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/avml/lipread/internal/types"
)

// Predictor runs one full prediction request against a file on disk.
type Predictor interface {
	Predict(ctx context.Context, videoPath string) (types.PredictionResult, error)
}

type Server struct {
	e   *echo.Echo
	p   Predictor
	log *logrus.Logger
}

func New(p Predictor, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.New()
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{e: e, p: p, log: log}
	e.POST("/predict_sentence", s.predictSentence)
	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return s
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

type predictionResponse struct {
	ModelPrediction      string `json:"model_prediction"`
	WhisperTranscription string `json:"whisper_transcription"`
	Status               string `json:"status"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) predictSentence(c echo.Context) error {
	fh, err := c.FormFile("video_file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "video_file upload is required"})
	}

	src, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Detail: "could not read uploaded file"})
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(fh.Filename))
	if err != nil {
		return s.serverError(c, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return s.serverError(c, err)
	}
	if err := tmp.Close(); err != nil {
		return s.serverError(c, err)
	}

	res, err := s.p.Predict(c.Request().Context(), tmpPath)
	if err != nil {
		return s.serverError(c, err)
	}

	if res.Outcome != types.OutcomeSuccess {
		// Recoverable-empty outcome: the client gets the reason and
		// the transcript, not a server fault.
		return c.JSON(http.StatusBadRequest, predictionResponse{
			ModelPrediction:      "Prediction failed: " + res.Outcome.FailureReason(),
			WhisperTranscription: res.Transcript,
			Status:               res.Outcome.String(),
		})
	}

	return c.JSON(http.StatusOK, predictionResponse{
		ModelPrediction:      res.Prediction,
		WhisperTranscription: res.Transcript,
		Status:               "success",
	})
}

// serverError logs the cause and returns an opaque response: internal
// failures never leak detail to clients.
func (s *Server) serverError(c echo.Context, err error) error {
	s.log.WithError(err).Error("prediction request failed")
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Detail: "An unexpected server error occurred during prediction.",
	})
}
