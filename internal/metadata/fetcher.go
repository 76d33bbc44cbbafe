package metadata

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"yp/internal/obs"
)

// enrichConcurrency and enrichStreamCapacity are the bounds from §4.C.
const (
	enrichConcurrency   = 5
	enrichStreamCapacity = 64
)

// loadMorePageSize is the default page size for channel pagination.
const loadMorePageSize = 20

// loadMoreThreshold is how close to the end of the visible list the
// selection must be before a load-more is triggered.
const loadMoreThreshold = 5

// Fetcher orchestrates search, pagination, and bounded-concurrency
// enrichment on top of a Tool. Adapted from the teacher's
// internal/buffer pacing idiom applied here to fan-out instead of
// fan-in: many Enrich calls, one bounded result channel.
type Fetcher struct {
	tool Tool

	mu           sync.Mutex
	loadingMore  map[string]bool // channel handle -> in flight
}

func NewFetcher(tool Tool) *Fetcher {
	return &Fetcher{tool: tool, loadingMore: make(map[string]bool)}
}

// Search resolves a query to a ResultSet, dispatching to ListChannel when
// the query looks like a channel reference.
func (f *Fetcher) Search(ctx context.Context, query string, limit int, channelPrefixes []string) (*ResultSet, error) {
	start := time.Now()
	defer func() { obs.SearchDuration.Observe(time.Since(start).Seconds()) }()

	if IsChannelReference(query, channelPrefixes) {
		entries, src, err := f.tool.ListChannel(ctx, query, loadMorePageSize)
		if err != nil {
			return nil, err
		}
		return NewResultSet(entries, src), nil
	}

	entries, err := f.tool.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return NewResultSet(entries, nil), nil
}

// LoadMoreResult is the outcome of one load-more fetch. The background
// goroutine that produces it never touches the live ResultSet — only the
// event loop goroutine applies Entries/HasMore to rs, once it receives
// this value back. This keeps rs.Append and rs.Channel mutation exclusive
// to the loop goroutine, which also runs ApplyEnrichment and reads View
// during render.
type LoadMoreResult struct {
	Entries []VideoEntry
	HasMore bool
	Err     error
}

// MaybeLoadMore triggers pagination when selectionIndex is within
// loadMoreThreshold entries of the end of view, guarded so at most one
// load-more is in flight per channel. Returns a channel of a single
// LoadMoreResult, or nil if no load was triggered. The caller is
// responsible for applying the result to rs on its own goroutine.
func (f *Fetcher) MaybeLoadMore(ctx context.Context, rs *ResultSet, view FilterView, selectionIndex int) <-chan LoadMoreResult {
	if rs.Channel == nil || !rs.Channel.HasMore {
		return nil
	}
	if len(view)-selectionIndex > loadMoreThreshold {
		return nil
	}

	handle := rs.Channel.Handle
	snapshot := *rs.Channel // read once, under no lock other than the caller's ownership of rs

	f.mu.Lock()
	if f.loadingMore[handle] {
		f.mu.Unlock()
		return nil
	}
	f.loadingMore[handle] = true
	f.mu.Unlock()

	result := make(chan LoadMoreResult, 1)
	go func() {
		defer func() {
			f.mu.Lock()
			delete(f.loadingMore, handle)
			f.mu.Unlock()
		}()

		entries, hasMore, err := f.tool.LoadMore(ctx, &snapshot, loadMorePageSize)
		result <- LoadMoreResult{Entries: entries, HasMore: hasMore, Err: err}
	}()
	return result
}

// EnrichAll launches bounded-concurrency enrichment for every id in ids,
// streaming EnrichedFields over the returned channel as each completes.
// The channel is closed once all entries have been attempted (successes
// and failures alike count as "attempted"; failures are dropped without
// logging and simply never arrive on the channel).
func (f *Fetcher) EnrichAll(ctx context.Context, ids []string) <-chan EnrichedFields {
	out := make(chan EnrichedFields, enrichStreamCapacity)

	go func() {
		defer close(out)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(enrichConcurrency)

		for _, id := range ids {
			id := id
			g.Go(func() error {
				obs.EnrichInFlight.Inc()
				start := time.Now()
				fields, err := f.tool.Enrich(gctx, id)
				obs.EnrichDuration.Observe(time.Since(start).Seconds())
				obs.EnrichInFlight.Dec()
				if err != nil {
					return nil // one entry's enrichment failure never aborts the rest
				}
				select {
				case out <- fields:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}
