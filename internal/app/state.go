// Package app holds the single-threaded event loop and the one
// authoritative copy of session state, per §4.E and §3's "Ownership"
// rule: the loop owns all application state; background tasks receive
// immutable inputs and return results through channels.
package app

import (
	"yp/internal/metadata"
	"yp/internal/player"
	"yp/internal/transcription"
)

// Theme and FrameMode are user-facing display toggles cycled by Ctrl+T /
// Ctrl+F. Rendering itself is out of scope (§1); the loop only tracks
// which one is selected.
type Theme int

const (
	ThemeDefault Theme = iota
	ThemeHighContrast
	ThemeSolarized
)

type FrameMode int

const (
	FrameModeStatic FrameMode = iota
	FrameModeStoryboard
	FrameModeVideo
)

// State is the single authoritative snapshot of one session, mutated
// only by the event loop goroutine.
type State struct {
	Results    *metadata.ResultSet
	View       metadata.FilterView
	Filtering  bool   // true while the user is editing the filter string ("/")
	FilterText string

	Selection int // index into View

	Playback       *player.PlaybackStatus
	ActiveFrame    metadata.FrameSource
	TranscriptState transcription.State
	Utterances      []transcription.Utterance
	ActiveUtterance int // index into Utterances, or -1

	TranscriptVisible bool
	Theme             Theme
	FrameMode         FrameMode

	// quit is set by a keymap handler to stop the loop after the next render.
	quit bool
}

// NewState returns an empty, Idle-state session.
func NewState() *State {
	return &State{
		TranscriptState: transcription.Idle,
		ActiveUtterance: -1,
	}
}

// RebuildView recomputes the filter view and re-anchors the selection to
// the same underlying entry, or 0 if it's no longer visible — per §4.E
// step 3 and the filter-index-mapping tie-break in §4.E.
func (s *State) RebuildView() {
	if s.Results == nil {
		s.View = nil
		s.Selection = 0
		return
	}

	var previousID string
	if s.Selection >= 0 && s.Selection < len(s.View) {
		resultIdx := s.View[s.Selection]
		if resultIdx >= 0 && resultIdx < len(s.Results.Entries) {
			previousID = s.Results.Entries[resultIdx].ID
		}
	}

	s.View = metadata.BuildFilterView(s.Results, s.FilterText)
	s.Selection = metadata.ReanchorSelection(s.Results, s.View, previousID)
}

// SelectedEntry returns the VideoEntry at the current selection, or
// false if there is none (empty result set, or out-of-range selection).
func (s *State) SelectedEntry() (metadata.VideoEntry, bool) {
	if s.Results == nil || s.Selection < 0 || s.Selection >= len(s.View) {
		return metadata.VideoEntry{}, false
	}
	resultIdx := s.View[s.Selection]
	if resultIdx < 0 || resultIdx >= len(s.Results.Entries) {
		return metadata.VideoEntry{}, false
	}
	return s.Results.Entries[resultIdx], true
}

// UpdateActiveUtterance recomputes ActiveUtterance by linear scan:
// "first i where position in [start_i, stop_i)", per §4.E step 3.
func (s *State) UpdateActiveUtterance(positionCS int64) {
	s.ActiveUtterance = -1
	for i, u := range s.Utterances {
		if positionCS >= u.StartCS && positionCS < u.StopCS {
			s.ActiveUtterance = i
			return
		}
	}
}

// AppendUtterances appends newly transcribed utterances, preserving the
// append-only, non-decreasing-start-order invariant from §3 (utterances
// always arrive offset-ordered from the pipeline, so a plain append
// suffices — no re-sort needed).
func (s *State) AppendUtterances(batch []transcription.Utterance) {
	s.Utterances = append(s.Utterances, batch...)
}
