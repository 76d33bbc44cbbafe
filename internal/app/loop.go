package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"yp/internal/metadata"
	"yp/internal/obs"
	"yp/internal/player"
	"yp/internal/transcription"
)

// inputPollTimeout is the fixed timeout for step 5 of the tick, per §4.E.
const inputPollTimeout = 100 * time.Millisecond

// searchResult is the one-shot payload dispatched by Loop's task-launching
// methods and drained each tick. Load-more results use
// metadata.LoadMoreResult directly: its producer goroutine never touches
// *ResultSet, so applying it to l.state.Results here is safe precisely
// because this method only ever runs on the loop goroutine.
type searchResult struct {
	rs  *metadata.ResultSet
	err error
}

// Loop is the single-threaded cooperative event loop from §4.E. It is
// the sole owner of *State; every other component it holds communicates
// results back over channels.
type Loop struct {
	log zerolog.Logger

	state    *State
	player   *player.Controller
	fetcher  *metadata.Fetcher
	pipeline *transcription.Pipeline
	renderer Renderer
	input    InputSource
	prefs    PreferencesStore

	abort *abortRegistry

	searchSlot   *oneShot[searchResult]
	loadMoreSlot *oneShot[metadata.LoadMoreResult]

	enrichC     <-chan metadata.EnrichedFields
	statusC     <-chan player.PlaybackStatus
	transcriptC <-chan transcription.Event

	channelPrefixes []string
}

// NewLoop wires a Loop. prefs may be nil if no preferences collaborator
// is configured for this run. channelPrefixes are the query prefixes
// (e.g. "@", "channel:") that Search treats as a channel listing instead
// of a text search, per metadata.IsChannelReference.
func NewLoop(log zerolog.Logger, pc *player.Controller, fetcher *metadata.Fetcher, pipeline *transcription.Pipeline, renderer Renderer, input InputSource, prefs PreferencesStore, channelPrefixes []string) *Loop {
	l := &Loop{
		log:             log.With().Str("component", "app").Logger(),
		state:           NewState(),
		player:          pc,
		fetcher:         fetcher,
		pipeline:        pipeline,
		renderer:        renderer,
		input:           input,
		prefs:           prefs,
		abort:           newAbortRegistry(),
		statusC:         pc.StatusStream(),
		channelPrefixes: channelPrefixes,
	}
	if prefs != nil {
		if theme, frameMode, err := prefs.Load(); err == nil {
			l.state.Theme = theme
			l.state.FrameMode = frameMode
		}
	}
	return l
}

// Run drives the loop until a quit intent is processed or ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.abort.AbortAll()
			return
		default:
		}

		tickStart := time.Now()
		l.drainOneShots()
		l.drainStreams()
		l.updateDerivedState()
		l.renderer.Render(l.state)
		obs.EventLoopTickDuration.Observe(time.Since(tickStart).Seconds())

		if l.state.quit {
			l.abort.AbortAll()
			return
		}

		ev, ok := l.input.PollKey()
		if !ok {
			continue // 100ms timeout elapsed with nothing pending: next tick
		}
		l.handleInput(ctx, ev)
	}
}

func (l *Loop) drainOneShots() {
	if l.searchSlot != nil {
		if v, ok, closed := l.searchSlot.poll(); ok {
			l.onSearchResult(v)
			l.searchSlot = nil
		} else if closed {
			l.log.Warn().Msg("search task receiver closed without a result")
			l.searchSlot = nil
		}
	}
	if l.loadMoreSlot != nil {
		if v, ok, closed := l.loadMoreSlot.poll(); ok {
			l.onLoadMoreResult(v)
			l.loadMoreSlot = nil
		} else if closed {
			l.log.Warn().Msg("load_more task receiver closed without a result")
			l.loadMoreSlot = nil
		}
	}
}

// onLoadMoreResult applies a completed load-more fetch to l.state.Results.
// This is the only place rs.Append and rs.Channel fields are mutated for
// pagination, and it only ever runs on the loop goroutine — the
// background fetch goroutine that produced v touched only a value-copy
// snapshot of the channel source, never rs itself.
func (l *Loop) onLoadMoreResult(v metadata.LoadMoreResult) {
	rs := l.state.Results
	if rs == nil || rs.Channel == nil {
		return
	}
	rs.Channel.LoadingMore = false

	if v.Err != nil {
		l.log.Warn().Err(v.Err).Msg("load_more failed")
		return
	}

	rs.Append(v.Entries...)
	rs.Channel.TotalFetched += len(v.Entries)
	rs.Channel.HasMore = v.HasMore
}

func (l *Loop) onSearchResult(v searchResult) {
	if v.err != nil {
		l.log.Warn().Err(v.err).Msg("search failed")
		return
	}
	l.state.Results = v.rs
	l.state.FilterText = ""
	l.state.RebuildView()

	if v.rs != nil {
		ids := make([]string, len(v.rs.Entries))
		for i, e := range v.rs.Entries {
			ids[i] = e.ID
		}
		l.enrichC = l.fetcher.EnrichAll(context.Background(), ids)
	}
}

// drainStreams drains all currently-available messages on every stream
// receiver, per §4.E step 2 ("keep queues small").
func (l *Loop) drainStreams() {
	for {
		select {
		case ef, ok := <-l.enrichC:
			if !ok {
				l.enrichC = nil
				continue
			}
			if l.state.Results != nil {
				l.state.Results.ApplyEnrichment(ef)
			}
			continue
		default:
		}
		break
	}

	for {
		select {
		case st, ok := <-l.statusC:
			if !ok {
				continue
			}
			l.state.Playback = &st
			continue
		default:
		}
		break
	}

	if l.transcriptC != nil {
		for {
			select {
			case ev, ok := <-l.transcriptC:
				if !ok {
					l.transcriptC = nil
					continue
				}
				l.applyTranscriptEvent(ev)
				continue
			default:
			}
			break
		}
	}
}

func (l *Loop) applyTranscriptEvent(ev transcription.Event) {
	switch ev.Kind {
	case transcription.EventAudioExtracted:
		l.state.TranscriptState = transcription.ExtractingAudio
	case transcription.EventDownloadProgress:
		// Surfaced via render only; no state field needed beyond what's
		// already visible in the event itself for the renderer to read.
	case transcription.EventChunkTranscribed:
		l.state.TranscriptState = transcription.Transcribing
		l.state.AppendUtterances(ev.Utterances)
	case transcription.EventTranscribed:
		l.state.TranscriptState = transcription.Ready
	case transcription.EventFailed:
		l.state.TranscriptState = transcription.Failed
		l.log.Warn().Str("reason", ev.Message).Msg("transcription failed")
	}
}

// updateDerivedState implements §4.E step 3.
func (l *Loop) updateDerivedState() {
	if l.state.Playback != nil {
		l.state.UpdateActiveUtterance(l.state.Playback.PositionCS)
	}

	if l.state.Results != nil && l.state.Results.Channel != nil && l.loadMoreSlot == nil {
		resultCh := l.fetcher.MaybeLoadMore(context.Background(), l.state.Results, l.state.View, l.state.Selection)
		if resultCh != nil {
			l.state.Results.Channel.LoadingMore = true
			slot := newOneShot[metadata.LoadMoreResult](resultCh)
			l.loadMoreSlot = &slot
		}
	}
}

func (l *Loop) handleInput(ctx context.Context, ev KeyEvent) {
	intent := HandleKey(l.state, ev)
	switch intent {
	case IntentLoadSelected:
		l.loadSelected(ctx)
	case IntentPauseToggle:
		l.player.PauseToggle()
	case IntentStop:
		l.stopPlayback()
	case IntentCancelTranscription:
		l.abort.Abort(taskTranscription)
		l.transcriptC = nil
	case IntentQuit:
		l.stopPlayback()
	}
}

func (l *Loop) loadSelected(ctx context.Context) {
	entry, ok := l.state.SelectedEntry()
	if !ok {
		return
	}

	// Stop the old session synchronously before the new one starts, per
	// §4.E's tie-break: guarantees a clean IPC-socket and transcript-state
	// transition.
	l.stopPlayback()

	playerEntry := player.Entry{ID: entry.ID, Title: entry.Title, URL: entry.URL}
	if err := l.player.Play(ctx, playerEntry); err != nil {
		l.log.Warn().Err(err).Str("id", entry.ID).Msg("play failed")
		return
	}

	l.state.TranscriptState = transcription.Idle
	l.state.Utterances = nil
	l.state.ActiveUtterance = -1

	taskCtx, cancel := context.WithCancel(ctx)
	l.abort.Replace(taskTranscription, cancel)

	ipcSocketPath, _ := l.player.IPCSocketPath()
	events, _ := l.pipeline.Trigger(taskCtx, entry.URL, ipcSocketPath)
	l.transcriptC = events
}

func (l *Loop) stopPlayback() {
	l.player.Stop()
	l.abort.Abort(taskTranscription)
	l.transcriptC = nil
}

// Selection reports the currently selected entry id and whether a
// playback session is active, for obs.Server's read-only /status route.
func (l *Loop) Selection() (id string, playing bool) {
	entry, ok := l.state.SelectedEntry()
	if !ok {
		return "", l.state.Playback != nil
	}
	return entry.ID, l.state.Playback != nil
}

// Search launches a one-shot search task. Any previous search is
// aborted first, per §5's cancellation rule.
func (l *Loop) Search(ctx context.Context, query string, limit int) {
	taskCtx, cancel := context.WithCancel(ctx)
	l.abort.Replace(taskSearch, cancel)

	resultC := make(chan searchResult, 1)
	go func() {
		rs, err := l.fetcher.Search(taskCtx, query, limit, l.channelPrefixes)
		resultC <- searchResult{rs: rs, err: err}
		close(resultC)
	}()

	slot := newOneShot[searchResult](resultC)
	l.searchSlot = &slot
}
