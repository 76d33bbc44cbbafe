package subprocess

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSpawnCaptureStreamsLines(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := SpawnCapture(ctx, "printf", "a\\nb\\nc\\n")
	if err != nil {
		t.Fatalf("SpawnCapture: %v", err)
	}

	var got []string
	for line := range h.Lines() {
		got = append(got, line)
	}
	if err := h.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected lines: %v", got)
	}
}

func TestHandleStopIdempotent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := SpawnCapture(ctx, "sleep", "30")
	if err != nil {
		t.Fatalf("SpawnCapture: %v", err)
	}

	h.Stop()
	h.Stop() // must not block or panic

	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("process not reaped after Stop")
	}
}

func TestSpawnAndWaitCapturesExitCode(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	code, _, _, err := SpawnAndWait(ctx, "sh", "-c", "exit 7")
	if err == nil {
		t.Fatal("expected error for nonzero exit")
	}
	if code != 7 {
		t.Fatalf("expected exit code 7, got %d", code)
	}
}

func TestSpawnInteractiveEchoesStdinLines(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := SpawnInteractive(ctx, "cat")
	if err != nil {
		t.Fatalf("SpawnInteractive: %v", err)
	}
	defer h.Stop()

	if err := h.WriteLine("hello"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if err := h.WriteLine("world"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	select {
	case line := <-h.Lines():
		if line != "hello" {
			t.Fatalf("expected %q, got %q", "hello", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first echoed line")
	}
	select {
	case line := <-h.Lines():
		if line != "world" {
			t.Fatalf("expected %q, got %q", "world", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second echoed line")
	}
}

func TestSpawnAndWaitCollectsStdout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, out, _, err := SpawnAndWait(ctx, "echo", "hello")
	if err != nil {
		t.Fatalf("SpawnAndWait: %v", err)
	}
	if string(out) != "hello\n" {
		t.Fatalf("unexpected stdout: %q", out)
	}
}
