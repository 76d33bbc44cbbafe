package app

import (
	"testing"

	"yp/internal/metadata"
)

func newTestStateWithEntries() *State {
	s := NewState()
	s.Results = metadata.NewResultSet([]metadata.VideoEntry{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
		{ID: "c", Title: "Gamma"},
	}, nil)
	s.RebuildView()
	return s
}

func TestHandleKeyNavigation(t *testing.T) {
	s := newTestStateWithEntries()

	HandleKey(s, KeyEvent{Key: KeyDown})
	if s.Selection != 1 {
		t.Fatalf("expected selection 1, got %d", s.Selection)
	}
	HandleKey(s, KeyEvent{Key: KeyDown})
	HandleKey(s, KeyEvent{Key: KeyDown}) // should clamp at last index
	if s.Selection != 2 {
		t.Fatalf("expected selection clamped to 2, got %d", s.Selection)
	}
	HandleKey(s, KeyEvent{Key: KeyUp})
	if s.Selection != 1 {
		t.Fatalf("expected selection 1 after up, got %d", s.Selection)
	}
}

func TestHandleKeyEnterReturnsLoadIntent(t *testing.T) {
	s := newTestStateWithEntries()
	intent := HandleKey(s, KeyEvent{Key: KeyEnter})
	if intent != IntentLoadSelected {
		t.Fatalf("expected IntentLoadSelected, got %v", intent)
	}
}

func TestHandleKeyFilterModeEntersAndExits(t *testing.T) {
	s := newTestStateWithEntries()

	HandleKey(s, KeyEvent{Rune: '/'})
	if !s.Filtering {
		t.Fatal("expected filtering mode to be entered")
	}

	HandleKey(s, KeyEvent{Rune: 'a'})
	if s.FilterText != "a" {
		t.Fatalf("expected filter text 'a', got %q", s.FilterText)
	}

	HandleKey(s, KeyEvent{Key: KeyBackspace})
	if s.FilterText != "" {
		t.Fatalf("expected filter text cleared, got %q", s.FilterText)
	}

	HandleKey(s, KeyEvent{Rune: '/'})
	HandleKey(s, KeyEvent{Rune: 'z'})
	HandleKey(s, KeyEvent{Key: KeyEnter})
	if s.Filtering {
		t.Fatal("expected Enter to leave filter-editing mode")
	}
}

func TestHandleKeyEscPopsContextStack(t *testing.T) {
	s := newTestStateWithEntries()
	s.FilterText = "a"
	s.RebuildView()

	// Esc first clears the filter...
	intent := HandleKey(s, KeyEvent{Key: KeyEsc})
	if intent != IntentNone || s.FilterText != "" {
		t.Fatalf("expected Esc to clear filter first, got intent=%v filter=%q", intent, s.FilterText)
	}

	// ...then closes the transcript pane...
	s.TranscriptVisible = true
	intent = HandleKey(s, KeyEvent{Key: KeyEsc})
	if intent != IntentNone || s.TranscriptVisible {
		t.Fatalf("expected Esc to close transcript pane, got intent=%v visible=%v", intent, s.TranscriptVisible)
	}

	// ...then quits.
	intent = HandleKey(s, KeyEvent{Key: KeyEsc})
	if intent != IntentQuit {
		t.Fatalf("expected IntentQuit, got %v", intent)
	}
}

func TestHandleKeyCtrlAToggleAndCancel(t *testing.T) {
	s := newTestStateWithEntries()
	intent := HandleKey(s, KeyEvent{Ctrl: true, Rune: 'a'})
	if intent != IntentCancelTranscription {
		t.Fatalf("expected IntentCancelTranscription, got %v", intent)
	}
	if !s.TranscriptVisible {
		t.Fatal("expected transcript visibility to toggle on")
	}
}

func TestHandleKeyThemeAndFrameModeCycle(t *testing.T) {
	s := newTestStateWithEntries()
	start := s.Theme
	HandleKey(s, KeyEvent{Ctrl: true, Rune: 't'})
	if s.Theme == start {
		t.Fatal("expected theme to change")
	}

	startMode := s.FrameMode
	HandleKey(s, KeyEvent{Ctrl: true, Rune: 'f'})
	if s.FrameMode == startMode {
		t.Fatal("expected frame mode to change")
	}
}
