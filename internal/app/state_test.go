package app

import (
	"testing"

	"yp/internal/metadata"
	"yp/internal/transcription"
)

func TestRebuildViewReanchorsToSameEntry(t *testing.T) {
	s := NewState()
	s.Results = metadata.NewResultSet([]metadata.VideoEntry{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
		{ID: "c", Title: "Gamma"},
	}, nil)
	s.RebuildView()
	s.Selection = 1 // "Beta"

	s.FilterText = "a"
	s.RebuildView()

	entry, ok := s.SelectedEntry()
	if !ok {
		t.Fatal("expected a selected entry")
	}
	if entry.ID != "b" {
		t.Fatalf("expected reanchor to keep Beta selected, got %q", entry.ID)
	}
}

func TestRebuildViewResetsSelectionWhenFilteredOut(t *testing.T) {
	s := NewState()
	s.Results = metadata.NewResultSet([]metadata.VideoEntry{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
	}, nil)
	s.RebuildView()
	s.Selection = 1 // "Beta"

	s.FilterText = "Alpha"
	s.RebuildView()

	if s.Selection != 0 {
		t.Fatalf("expected selection to reset to 0 when previous entry is filtered out, got %d", s.Selection)
	}
}

func TestUpdateActiveUtteranceLinearScan(t *testing.T) {
	s := NewState()
	s.Utterances = []transcription.Utterance{
		{StartCS: 0, StopCS: 100, Text: "one"},
		{StartCS: 100, StopCS: 250, Text: "two"},
		{StartCS: 250, StopCS: 400, Text: "three"},
	}

	s.UpdateActiveUtterance(150)
	if s.ActiveUtterance != 1 {
		t.Fatalf("expected utterance 1 active at position 150, got %d", s.ActiveUtterance)
	}

	s.UpdateActiveUtterance(1000)
	if s.ActiveUtterance != -1 {
		t.Fatalf("expected no active utterance past the end, got %d", s.ActiveUtterance)
	}
}

func TestAppendUtterancesIsAppendOnly(t *testing.T) {
	s := NewState()
	s.AppendUtterances([]transcription.Utterance{{StartCS: 0, StopCS: 100, Text: "a"}})
	s.AppendUtterances([]transcription.Utterance{{StartCS: 100, StopCS: 200, Text: "b"}})

	if len(s.Utterances) != 2 {
		t.Fatalf("expected 2 utterances, got %d", len(s.Utterances))
	}
	if s.Utterances[0].Text != "a" || s.Utterances[1].Text != "b" {
		t.Fatalf("unexpected order: %+v", s.Utterances)
	}
}
