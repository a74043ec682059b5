package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestParseRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    float64
		wantErr bool
	}{
		{"integer", "25", 25, false},
		{"decimal", "29.97", 29.97, false},
		{"rational", "30000/1001", 30000.0 / 1001.0, false},
		{"rational whole", "25/1", 25, false},
		{"zero denominator", "25/0", 0, true},
		{"garbage", "abc", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseRate(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("parseRate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// stubProbe writes a fake ffprobe binary with a fixed exit code and
// output, mimicking the real tool's behavior on different inputs.
func stubProbe(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestDecodeFrames_NoVideoStreamIsRecoverable(t *testing.T) {
	t.Parallel()

	// Real ffprobe with -select_streams v:0 exits 0 and prints nothing
	// for an audio-only container. That must come back as an empty
	// buffer, not an error: the assembler maps it to the no-video
	// outcome.
	a := New("ffmpeg", stubProbe(t, "exit 0"))
	buf, err := a.DecodeFrames(context.Background(), "audio-only.mp4")
	if err != nil {
		t.Fatalf("audio-only input must not be fatal: %v", err)
	}
	if buf.NumFrames() != 0 {
		t.Fatalf("expected empty buffer, got %d frames", buf.NumFrames())
	}
}

func TestDecodeFrames_ProbeFailureIsFatal(t *testing.T) {
	t.Parallel()

	a := New("ffmpeg", stubProbe(t, "echo 'boom' >&2; exit 1"))
	if _, err := a.DecodeFrames(context.Background(), "in.mp4"); err == nil {
		t.Fatalf("expected error when ffprobe itself fails")
	}
}
