package main

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"yp/internal/app"
)

// logRenderer is the minimal stand-in for the rendering collaborator
// that §1 places out of scope ("the TUI widget layout and theme
// definitions... specified only through their interfaces"). It writes a
// one-line debug snapshot of the session per render tick rather than
// drawing anything — a real terminal UI is wired in from outside this
// package.
type logRenderer struct {
	log zerolog.Logger
}

func (r *logRenderer) Render(s *app.State) {
	entry, ok := s.SelectedEntry()
	ev := r.log.Debug().Int("visible", len(s.View)).Int("selection", s.Selection)
	if ok {
		ev = ev.Str("selected", entry.Title)
	}
	if s.Playback != nil {
		ev = ev.Int64("position_cs", s.Playback.PositionCS)
	}
	ev.Msg("render")
}

// stdinInput is the minimal stand-in for the terminal-input collaborator
// §1 places out of scope. It reads whole lines from stdin on a
// background goroutine and surfaces the first rune of each line as a
// KeyEvent — a real implementation would put the terminal in raw mode
// and decode individual keystrokes (escape sequences, arrow keys) as
// they arrive.
type stdinInput struct {
	lines chan string
}

func newStdinInput(ctx context.Context) *stdinInput {
	s := &stdinInput{lines: make(chan string, 16)}
	go func() {
		defer close(s.lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case s.lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return s
}

// PollKey waits up to the loop's 100ms input-poll timeout for a line.
func (s *stdinInput) PollKey() (app.KeyEvent, bool) {
	select {
	case line, ok := <-s.lines:
		if !ok {
			time.Sleep(100 * time.Millisecond) // stdin closed: wait out the poll window
			return app.KeyEvent{}, false
		}
		if line == "" {
			return app.KeyEvent{}, false
		}
		return decodeLine(line), true
	case <-time.After(100 * time.Millisecond):
		return app.KeyEvent{}, false
	}
}

// decodeLine maps a handful of command words ("enter", "esc", "space",
// "up", "down") to KeyEvents; any other line becomes a KeyEvent carrying
// its first rune, matching how the event loop treats unrecognized
// printable input.
func decodeLine(line string) app.KeyEvent {
	switch line {
	case "enter":
		return app.KeyEvent{Key: app.KeyEnter}
	case "esc":
		return app.KeyEvent{Key: app.KeyEsc}
	case "space":
		return app.KeyEvent{Key: app.KeySpace}
	case "up":
		return app.KeyEvent{Key: app.KeyUp}
	case "down":
		return app.KeyEvent{Key: app.KeyDown}
	}
	return app.KeyEvent{Rune: []rune(line)[0]}
}
