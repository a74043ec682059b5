// Package transcript normalizes the engine's nested segment/word
// output into the flat, temporally ordered boundary list the segment
// pipeline iterates.
package transcript

import (
	"sort"
	"strings"

	"github.com/avml/lipread/internal/types"
)

// Flatten walks every segment's word list in order and produces one
// WordBoundary per usable word. Words with empty text or an end before
// their start are dropped; negative starts are clamped to zero.
// Zero-width boundaries are kept: the slicer decides whether they
// resolve to any frames.
//
// The result is stably sorted by start time. Engine output order is an
// implementation detail we do not rely on.
func Flatten(tr types.Transcript) []types.WordBoundary {
	var out []types.WordBoundary
	for _, s := range tr.Segments {
		for _, w := range s.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			start, end := w.Start, w.End
			if start < 0 {
				start = 0
			}
			if end < start {
				continue
			}
			out = append(out, types.WordBoundary{Word: text, Start: start, End: end})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
