package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/avml/lipread/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

func New(binPath, modelPath, language string) *Adapter {
	if language == "" {
		language = "en"
	}
	return &Adapter{bin: binPath, model: modelPath, language: language}
}

// Transcribe runs the whisper.cpp binary with word-level timestamps
// enabled and parses the JSON artifact it writes into workDir.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(workDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-ml", "1",
		"-oj",
		"-of", outPrefix,
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return Parse(jb)
}

// Parse normalizes raw whisper JSON: word and segment text is trimmed,
// and the full transcript is rebuilt from segments when the engine
// omits the top-level text field.
func Parse(jb []byte) (types.Transcript, error) {
	var tr types.Transcript
	if err := json.Unmarshal(jb, &tr); err != nil {
		return types.Transcript{}, fmt.Errorf("parse whisper output: %w", err)
	}
	var parts []string
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		if tr.Segments[i].Text != "" {
			parts = append(parts, tr.Segments[i].Text)
		}
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	tr.Text = strings.TrimSpace(tr.Text)
	if tr.Text == "" {
		tr.Text = strings.Join(parts, " ")
	}
	return tr, nil
}
