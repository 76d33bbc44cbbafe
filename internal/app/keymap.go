package app

// HandleKey applies one keyboard event to state, per §4.E step 5. It
// returns the set of side effects the loop must perform as a result
// (starting playback, stopping, toggling theme, etc.) — state mutation
// happens here directly since the loop is the sole owner of State, but
// anything that needs to reach outside (spawn a task, cancel one) is
// reported back as an Intent so this function stays a pure-ish state
// transition and the loop keeps sole responsibility for side effects.
type Intent int

const (
	IntentNone Intent = iota
	IntentLoadSelected
	IntentPauseToggle
	IntentStop
	IntentQuit
	IntentCancelTranscription
)

// HandleKey mutates s according to ev and returns the Intent the loop
// should act on afterward.
func HandleKey(s *State, ev KeyEvent) Intent {
	if s.Filtering {
		return handleFilterKey(s, ev)
	}

	switch {
	case ev.Key == KeyUp:
		if s.Selection > 0 {
			s.Selection--
		}
		return IntentNone
	case ev.Key == KeyDown:
		if s.Selection < len(s.View)-1 {
			s.Selection++
		}
		return IntentNone
	case ev.Key == KeyEnter:
		return IntentLoadSelected
	case ev.Rune == '/':
		s.Filtering = true
		return IntentNone
	case ev.Key == KeySpace:
		return IntentPauseToggle
	case ev.Ctrl && ev.Rune == 's':
		return IntentStop
	case ev.Ctrl && ev.Rune == 't':
		s.Theme = (s.Theme + 1) % (ThemeSolarized + 1)
		return IntentNone
	case ev.Ctrl && ev.Rune == 'f':
		s.FrameMode = (s.FrameMode + 1) % (FrameModeVideo + 1)
		return IntentNone
	case ev.Key == KeyEsc:
		return handleEsc(s)
	case ev.Ctrl && ev.Rune == 'a':
		s.TranscriptVisible = !s.TranscriptVisible
		return IntentCancelTranscription
	}
	return IntentNone
}

func handleFilterKey(s *State, ev KeyEvent) Intent {
	switch {
	case ev.Key == KeyEsc:
		s.Filtering = false
		s.FilterText = ""
		s.RebuildView()
		return IntentNone
	case ev.Key == KeyEnter:
		s.Filtering = false
		return IntentNone
	case ev.Key == KeyBackspace:
		if len(s.FilterText) > 0 {
			s.FilterText = s.FilterText[:len(s.FilterText)-1]
			s.RebuildView()
		}
		return IntentNone
	case ev.Rune != 0:
		s.FilterText += string(ev.Rune)
		s.RebuildView()
		return IntentNone
	}
	return IntentNone
}

// handleEsc implements the context-pop stack from §4.E: clear filter ->
// close pane -> exit.
func handleEsc(s *State) Intent {
	if s.FilterText != "" {
		s.FilterText = ""
		s.RebuildView()
		return IntentNone
	}
	if s.TranscriptVisible {
		s.TranscriptVisible = false
		return IntentNone
	}
	s.quit = true
	return IntentQuit
}
