package transcription

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestRebaseTimestampsShiftsByOffset(t *testing.T) {
	in := []Utterance{{StartCS: 100, StopCS: 250, Text: "hello"}}
	out := rebaseTimestamps(in, 30)
	if out[0].StartCS != 3100 || out[0].StopCS != 3250 {
		t.Fatalf("unexpected rebase: %+v", out[0])
	}
	if out[0].Text != "hello" {
		t.Fatalf("text must be preserved")
	}
}

func TestSaturatingAddClampsOverflow(t *testing.T) {
	max := int64(math.MaxInt64)
	got := saturatingAdd(max-10, 100)
	if got != max {
		t.Fatalf("expected clamp to MaxInt64, got %d", got)
	}
	if got := saturatingAdd(5, 10); got != 15 {
		t.Fatalf("expected ordinary add to work, got %d", got)
	}
}

func TestIsTooShortToTranscribe(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.wav")
	short, err := isTooShortToTranscribe(missing)
	if err != nil {
		t.Fatalf("unexpected error for missing file: %v", err)
	}
	if !short {
		t.Fatal("expected a missing file to count as too short")
	}

	headerOnly := filepath.Join(dir, "header.wav")
	if err := os.WriteFile(headerOnly, make([]byte, minimumWAVBytes), 0o644); err != nil {
		t.Fatalf("write header-only file: %v", err)
	}
	short, err = isTooShortToTranscribe(headerOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !short {
		t.Fatal("expected header-only file to count as too short")
	}

	withAudio := filepath.Join(dir, "full.wav")
	if err := os.WriteFile(withAudio, make([]byte, minimumWAVBytes+1000), 0o644); err != nil {
		t.Fatalf("write full file: %v", err)
	}
	short, err = isTooShortToTranscribe(withAudio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if short {
		t.Fatal("expected a file with audio data to not count as too short")
	}
}
