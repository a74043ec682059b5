package whispercpp

import "testing"

func TestParse(t *testing.T) {
	t.Parallel()

	jb := []byte(`{
		"text": "  hi there ",
		"segments": [
			{"start": 0, "end": 1.2, "text": " hi there ", "words": [
				{"start": 0.1, "end": 0.5, "word": " hi "},
				{"start": 0.6, "end": 1.1, "word": " there"}
			]}
		]
	}`)
	tr, err := Parse(jb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.Text != "hi there" {
		t.Fatalf("unexpected transcript text: %q", tr.Text)
	}
	if len(tr.Segments) != 1 || len(tr.Segments[0].Words) != 2 {
		t.Fatalf("unexpected shape: %+v", tr)
	}
	if tr.Segments[0].Words[0].Word != "hi" || tr.Segments[0].Words[1].Word != "there" {
		t.Fatalf("words not trimmed: %+v", tr.Segments[0].Words)
	}
}

func TestParse_RebuildsTextFromSegments(t *testing.T) {
	t.Parallel()

	jb := []byte(`{"segments": [
		{"start": 0, "end": 1, "text": " hello "},
		{"start": 1, "end": 2, "text": "world"}
	]}`)
	tr, err := Parse(jb)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tr.Text != "hello world" {
		t.Fatalf("expected rebuilt text, got %q", tr.Text)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatalf("expected error on invalid JSON")
	}
}
