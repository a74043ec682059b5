package usecase

import (
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/avml/lipread/internal/types"
)

type fakeVideoTool struct {
	extractErr error
	frames     int
	fps        float64
	decodeErr  error
}

func (f *fakeVideoTool) ExtractAudioMono16k(_ context.Context, _, outWav string) error {
	// Write the artifact even on failure so tests can verify cleanup
	// covers the fatal path too.
	if err := os.WriteFile(outWav, []byte("wav"), 0o644); err != nil {
		return err
	}
	return f.extractErr
}

func (f *fakeVideoTool) DecodeFrames(context.Context, string) (types.VideoBuffer, error) {
	if f.decodeErr != nil {
		return types.VideoBuffer{}, f.decodeErr
	}
	buf := types.VideoBuffer{FPS: f.fps, Width: 4, Height: 4}
	for i := 0; i < f.frames; i++ {
		buf.Frames = append(buf.Frames, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	}
	return buf, nil
}

type fakeASR struct {
	tr  types.Transcript
	err error
}

func (f fakeASR) Transcribe(context.Context, string, string) (types.Transcript, error) {
	return f.tr, f.err
}

type fakePredictor struct {
	responses   []string
	calls       int
	frameCounts []int
}

func (f *fakePredictor) PredictWord(_ context.Context, seg types.WordSegment) string {
	f.frameCounts = append(f.frameCounts, len(seg.Frames))
	resp := "word"
	if f.calls < len(f.responses) {
		resp = f.responses[f.calls]
	}
	f.calls++
	return resp
}

func fakeAudio(path string) (types.AudioBuffer, error) {
	return types.AudioBuffer{Data: [][]float32{make([]float32, 160000)}, SampleRate: 16000}, nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeVideoFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.mp4")
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	return path
}

func wordsTranscript(words ...types.Word) types.Transcript {
	var texts []string
	for _, w := range words {
		texts = append(texts, w.Word)
	}
	return types.Transcript{
		Text:     strings.Join(texts, " "),
		Segments: []types.Segment{{Start: 0, End: 10, Text: strings.Join(texts, " "), Words: words}},
	}
}

func TestRun_PredictsSentence(t *testing.T) {
	t.Parallel()

	pred := &fakePredictor{responses: []string{"hello", "there"}}
	uc := New(Deps{
		Video: &fakeVideoTool{frames: 50, fps: 25},
		ASR: fakeASR{tr: wordsTranscript(
			types.Word{Start: 0.2, End: 0.6, Word: "hi"},
			types.Word{Start: 0.8, End: 1.2, Word: "you"},
		)},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	workDir := t.TempDir()
	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: workDir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != types.OutcomeSuccess {
		t.Fatalf("outcome = %v, want success", res.Outcome)
	}
	if res.Prediction != "hello there" {
		t.Fatalf("prediction = %q, want %q", res.Prediction, "hello there")
	}
	if res.Transcript != "hi you" {
		t.Fatalf("transcript = %q", res.Transcript)
	}
	// 0.2-0.6 at 25fps -> frames [5,15)
	if pred.frameCounts[0] != 10 {
		t.Fatalf("first segment has %d frames, want 10", pred.frameCounts[0])
	}
	if _, err := os.Stat(filepath.Join(workDir, "audio.wav")); !os.IsNotExist(err) {
		t.Fatalf("extracted audio artifact not cleaned up, stat err=%v", err)
	}
}

func TestRun_NoWords(t *testing.T) {
	t.Parallel()

	pred := &fakePredictor{}
	uc := New(Deps{
		Video:     &fakeVideoTool{frames: 50, fps: 25},
		ASR:       fakeASR{tr: types.Transcript{Text: "mumble"}},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	workDir := t.TempDir()
	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: workDir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != types.OutcomeNoWords {
		t.Fatalf("outcome = %v, want no_words", res.Outcome)
	}
	if res.Transcript != "mumble" {
		t.Fatalf("transcript = %q", res.Transcript)
	}
	if pred.calls != 0 {
		t.Fatalf("classifier invoked %d times on empty word list", pred.calls)
	}
	if _, err := os.Stat(filepath.Join(workDir, "audio.wav")); !os.IsNotExist(err) {
		t.Fatalf("extracted audio artifact not cleaned up, stat err=%v", err)
	}
}

func TestRun_NoVideo(t *testing.T) {
	t.Parallel()

	pred := &fakePredictor{}
	uc := New(Deps{
		Video:     &fakeVideoTool{frames: 0, fps: 25},
		ASR:       fakeASR{tr: wordsTranscript(types.Word{Start: 0.2, End: 0.6, Word: "hi"})},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != types.OutcomeNoVideo {
		t.Fatalf("outcome = %v, want no_video", res.Outcome)
	}
	if pred.calls != 0 {
		t.Fatalf("classifier invoked %d times with no frames", pred.calls)
	}
}

func TestRun_ExtractionFailureIsFatalAndCleansUp(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Video:     &fakeVideoTool{extractErr: errors.New("exit status 1")},
		ASR:       fakeASR{},
		Predict:   &fakePredictor{},
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	workDir := t.TempDir()
	_, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: workDir})
	if err == nil {
		t.Fatalf("expected fatal error")
	}
	if _, err := os.Stat(filepath.Join(workDir, "audio.wav")); !os.IsNotExist(err) {
		t.Fatalf("artifact must be removed on the fatal path, stat err=%v", err)
	}
}

func TestRun_TranscriptionFailureIsFatal(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Video:     &fakeVideoTool{frames: 50, fps: 25},
		ASR:       fakeASR{err: errors.New("engine unavailable")},
		Predict:   &fakePredictor{},
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	if _, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: t.TempDir()}); err == nil {
		t.Fatalf("expected fatal error")
	}
}

func TestRun_MissingVideoFile(t *testing.T) {
	t.Parallel()

	uc := New(Deps{
		Video:     &fakeVideoTool{},
		ASR:       fakeASR{},
		Predict:   &fakePredictor{},
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})
	if _, err := uc.Run(context.Background(), Input{VideoPath: "/nonexistent/clip.mp4"}); err == nil {
		t.Fatalf("expected error for missing input")
	}
}

func TestRun_SingleFaultKeepsPosition(t *testing.T) {
	t.Parallel()

	// Five boundaries; the third classification faults. Four valid
	// words plus one sentinel, in order.
	pred := &fakePredictor{responses: []string{"one", "two", "[ERROR]", "four", "five"}}
	uc := New(Deps{
		Video: &fakeVideoTool{frames: 200, fps: 25},
		ASR: fakeASR{tr: wordsTranscript(
			types.Word{Start: 0.0, End: 0.4, Word: "a"},
			types.Word{Start: 0.5, End: 0.9, Word: "b"},
			types.Word{Start: 1.0, End: 1.4, Word: "c"},
			types.Word{Start: 1.5, End: 1.9, Word: "d"},
			types.Word{Start: 2.0, End: 2.4, Word: "e"},
		)},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Prediction != "one two [ERROR] four five" {
		t.Fatalf("prediction = %q", res.Prediction)
	}
}

func TestRun_SkipsEmptySegments(t *testing.T) {
	t.Parallel()

	pred := &fakePredictor{responses: []string{"one", "two"}}
	uc := New(Deps{
		Video: &fakeVideoTool{frames: 100, fps: 25},
		ASR: fakeASR{tr: wordsTranscript(
			types.Word{Start: 0.0, End: 0.4, Word: "a"},
			types.Word{Start: 1.0, End: 1.0, Word: "blip"}, // zero-width
			types.Word{Start: 2.0, End: 2.4, Word: "c"},
		)},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if pred.calls != 2 {
		t.Fatalf("classifier invoked %d times, want 2", pred.calls)
	}
	if res.Prediction != "one two" {
		t.Fatalf("prediction = %q, want %q", res.Prediction, "one two")
	}
}

func TestRun_OrdersWordsByStartTime(t *testing.T) {
	t.Parallel()

	// Boundaries arrive shuffled with distinct durations so each
	// classify call is attributable: 0.2s->5 frames, 0.4s->10, 0.6s->15.
	pred := &fakePredictor{responses: []string{"first", "second", "third"}}
	uc := New(Deps{
		Video: &fakeVideoTool{frames: 200, fps: 25},
		ASR: fakeASR{tr: wordsTranscript(
			types.Word{Start: 2.0, End: 2.6, Word: "late"},
			types.Word{Start: 0.2, End: 0.4, Word: "early"},
			types.Word{Start: 1.0, End: 1.4, Word: "middle"},
		)},
		Predict:   pred,
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})

	res, err := uc.Run(context.Background(), Input{VideoPath: writeVideoFile(t), WorkDir: t.TempDir()})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Prediction != "first second third" {
		t.Fatalf("prediction = %q", res.Prediction)
	}
	want := []int{5, 10, 15}
	for i, n := range pred.frameCounts {
		if n != want[i] {
			t.Fatalf("call %d saw %d frames, want %d (temporal order lost)", i, n, want[i])
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	workDir := t.TempDir()
	uc := New(Deps{
		Video:     &fakeVideoTool{frames: 50, fps: 25},
		ASR:       fakeASR{tr: wordsTranscript(types.Word{Start: 0.2, End: 0.6, Word: "hi"})},
		Predict:   &fakePredictor{},
		Log:       quietLog(),
		LoadAudio: fakeAudio,
	})
	if _, err := uc.Run(ctx, Input{VideoPath: writeVideoFile(t), WorkDir: workDir}); err == nil {
		t.Fatalf("expected error from cancelled context")
	}
	if _, err := os.Stat(filepath.Join(workDir, "audio.wav")); !os.IsNotExist(err) {
		t.Fatalf("artifact must be removed on cancellation, stat err=%v", err)
	}
}
