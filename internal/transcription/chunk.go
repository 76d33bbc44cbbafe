package transcription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"yp/internal/subprocess"
)

// extractChunk invokes the decoder with demuxer-side fast seek
// (-ss before -i) to produce a chunkStepSeconds-long, 16kHz mono WAV at
// chunkPath, per §4.D Stage 3. Adapted from the teacher's
// internal/encoder/ffmpeg.go buildArgs convention of putting -ss ahead
// of -i for fast, keyframe-independent seeking.
func extractChunk(ctx context.Context, streamURL, chunkPath string, offsetSeconds int) error {
	args := []string{
		"-ss", fmt.Sprintf("%d", offsetSeconds),
		"-i", streamURL,
		"-t", fmt.Sprintf("%d", chunkStepSeconds),
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		"-y",
		chunkPath,
	}
	exitCode, _, stderr, err := subprocess.SpawnAndWait(ctx, "ffmpeg", args...)
	if err != nil {
		return fmt.Errorf("extract chunk at offset %ds: %w", offsetSeconds, err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w: ffmpeg exited %d: %s", ErrDecodeShort, exitCode, stderr)
	}
	return nil
}

// recognizer wraps a single long-lived speech-recognition subprocess,
// lazily spawned on first use and reused for every chunk thereafter so
// only the first chunk pays its ~1-2s init cost, per §4.D Stage 3 and
// §5's "one mutex-guarded optional slot" shared resource. It speaks a
// line-oriented JSON protocol over stdin/stdout: one WAV path per input
// line, one JSON array of utterances per output line — there is no
// whisper.cpp Go binding anywhere in the pack, so this models the
// recognizer the way every other external tool in this codebase is
// modeled: a subprocess behind a narrow line protocol.
type recognizer struct {
	mu     sync.Mutex
	handle *subprocess.Handle
}

// ensure lazily spawns the recognizer subprocess the first time it's
// needed.
func (r *recognizer) ensure(ctx context.Context, binPath string) (*subprocess.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle != nil {
		return r.handle, nil
	}

	handle, err := subprocess.SpawnInteractive(ctx, binPath)
	if err != nil {
		return nil, fmt.Errorf("spawn recognizer: %w", err)
	}
	r.handle = handle
	return handle, nil
}

// transcribe submits one WAV chunk path and waits for its reply line.
func (r *recognizer) transcribe(wavPath string) ([]Utterance, error) {
	r.mu.Lock()
	handle := r.handle
	r.mu.Unlock()
	if handle == nil {
		return nil, fmt.Errorf("recognizer: not initialized")
	}

	if err := handle.WriteLine(wavPath); err != nil {
		return nil, fmt.Errorf("recognizer: write request: %w", err)
	}

	line, ok := <-handle.Lines()
	if !ok {
		return nil, fmt.Errorf("recognizer: process exited before replying")
	}

	var reply []struct {
		StartCS int64  `json:"start_cs"`
		StopCS  int64  `json:"stop_cs"`
		Text    string `json:"text"`
	}
	if err := json.Unmarshal([]byte(line), &reply); err != nil {
		return nil, fmt.Errorf("recognizer: parse reply: %w", err)
	}

	utterances := make([]Utterance, len(reply))
	for i, u := range reply {
		utterances[i] = Utterance{StartCS: u.StartCS, StopCS: u.StopCS, Text: u.Text}
	}
	return utterances, nil
}

// close releases the recognizer subprocess, if any was spawned. Safe to
// call even if ensure was never called.
func (r *recognizer) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle != nil {
		r.handle.Stop()
		r.handle = nil
	}
}

// rebaseTimestamps increases each utterance's StartCS/StopCS by
// offsetSeconds*100, saturating rather than overflowing, per §4.D.
func rebaseTimestamps(utterances []Utterance, offsetSeconds int) []Utterance {
	shift := int64(offsetSeconds) * 100
	out := make([]Utterance, len(utterances))
	for i, u := range utterances {
		out[i] = Utterance{
			StartCS: saturatingAdd(u.StartCS, shift),
			StopCS:  saturatingAdd(u.StopCS, shift),
			Text:    u.Text,
		}
	}
	return out
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if b > 0 && sum < a {
		return int64(^uint64(0) >> 1) // overflow: clamp to max int64
	}
	return sum
}

// isTooShortToTranscribe reports whether a produced WAV file is too
// small to contain any audio (header-only, per §4.D's termination rule).
func isTooShortToTranscribe(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return true, nil
		}
		return false, err
	}
	return info.Size() <= minimumWAVBytes, nil
}

// chunkPath builds the fixed per-process chunk WAV path from §6.
func chunkPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("yp-chunk-%d.wav", os.Getpid()))
}
