// Package vocab holds the class index to word mapping the classifier
// predicts over. Loaded once at startup, read-only afterwards.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Vocabulary struct {
	words map[int]string
}

// Load reads a JSON object with string-encoded integer keys, the
// format the training pipeline exports. An unreadable or empty
// vocabulary must refuse startup, so both are errors here.
func Load(path string) (*Vocabulary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("vocabulary %s is empty", path)
	}
	words := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("vocabulary %s: non-integer class index %q", path, k)
		}
		words[idx] = v
	}
	return &Vocabulary{words: words}, nil
}

// Word maps a class index to its word. ok is false for indices the
// vocabulary does not know.
func (v *Vocabulary) Word(idx int) (string, bool) {
	w, ok := v.words[idx]
	return w, ok
}

func (v *Vocabulary) Len() int { return len(v.words) }
