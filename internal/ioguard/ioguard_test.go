package ioguard

import (
	"bufio"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"
)

// TestSuppressRedirectsAndRestores swaps fd 1 onto a pipe for the
// duration of the test, then verifies writes inside Suppress never reach
// the pipe while writes after Suppress returns do — proving both the
// redirect and the restore sides of the guard.
func TestSuppressRedirectsAndRestores(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	savedFd1, err := syscall.Dup(1)
	if err != nil {
		t.Fatalf("dup original fd1: %v", err)
	}
	defer func() {
		_ = syscall.Dup3(savedFd1, 1, 0)
		_ = syscall.Close(savedFd1)
	}()

	if err := syscall.Dup3(int(w.Fd()), 1, 0); err != nil {
		t.Fatalf("point fd1 at pipe: %v", err)
	}
	w.Close()

	lines := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	suppressErr := Suppress(func() error {
		fmt.Fprintln(os.Stdout, "hidden-during-suppress")
		return nil
	})
	if suppressErr != nil {
		t.Fatalf("Suppress: %v", suppressErr)
	}

	fmt.Fprintln(os.Stdout, "visible-after-restore")

	// Close our end so the reader goroutine's scan terminates once drained.
	syscall.Dup3(savedFd1, 1, 0)

	select {
	case got := <-lines:
		if got != "visible-after-restore" {
			t.Fatalf("expected only the post-restore line to reach the pipe, got %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for post-restore output")
	}
}

func TestSuppressPropagatesFnError(t *testing.T) {
	wantErr := fmt.Errorf("boom")
	err := Suppress(func() error { return wantErr })
	if err != wantErr {
		t.Fatalf("expected Suppress to propagate fn's error, got %v", err)
	}
}
