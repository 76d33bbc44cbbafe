// Package metadata resolves search/channel queries against the upstream
// video site (via an external tool), enriches entries asynchronously,
// fetches thumbnails with a fallback chain, and builds frame sources for
// storyboard/video playback. See SPEC_FULL.md §4.C.
package metadata

// VideoEntry is one result entry. Uploader/Duration/UploadDate/Tags start
// nil/empty and may transition to populated exactly once, via Enrich —
// never back to absent, never overwritten a second time.
type VideoEntry struct {
	ID         string
	Title      string
	Uploader   *string
	DurationS  *int
	UploadDate *string
	Tags       []string
	URL        string
}

// EnrichedFields is the result of one Enrich call, applied by id so
// enrichment results may arrive in any order safely.
type EnrichedFields struct {
	ID         string
	Uploader   *string
	DurationS  *int
	UploadDate *string
	Tags       []string
}

// ChannelSource tracks pagination state for a channel (or playlist)
// listing. At most one load-more may be in flight at a time, guarded by
// LoadingMore.
type ChannelSource struct {
	Handle          string
	PaginationToken string
	TotalFetched    int
	HasMore         bool
	LoadingMore     bool
}

// ResultSet is an ordered, insertion-order-preserving sequence of entries
// plus optional channel pagination state.
type ResultSet struct {
	Entries []VideoEntry
	Channel *ChannelSource

	index map[string]int // id -> slice position, kept in sync with Entries
}

// NewResultSet builds a ResultSet from an initial batch of entries.
func NewResultSet(entries []VideoEntry, channel *ChannelSource) *ResultSet {
	rs := &ResultSet{Entries: entries, Channel: channel}
	rs.reindex()
	return rs
}

func (rs *ResultSet) reindex() {
	rs.index = make(map[string]int, len(rs.Entries))
	for i, e := range rs.Entries {
		rs.index[e.ID] = i
	}
}

// Append adds entries to the end, preserving order (used by pagination).
func (rs *ResultSet) Append(entries ...VideoEntry) {
	for _, e := range entries {
		if _, exists := rs.index[e.ID]; exists {
			continue // never reorder/duplicate an existing entry
		}
		rs.index[e.ID] = len(rs.Entries)
		rs.Entries = append(rs.Entries, e)
	}
}

// ApplyEnrichment merges fields into the entry with the given id, in
// place, only filling fields that are currently absent — enforcing the
// absent-to-present-exactly-once invariant. A no-op if the id is no
// longer present (the entry may have scrolled out of a filtered view but
// never out of the ResultSet itself within a session).
func (rs *ResultSet) ApplyEnrichment(f EnrichedFields) {
	i, ok := rs.index[f.ID]
	if !ok {
		return
	}
	e := &rs.Entries[i]
	if e.Uploader == nil {
		e.Uploader = f.Uploader
	}
	if e.DurationS == nil {
		e.DurationS = f.DurationS
	}
	if e.UploadDate == nil {
		e.UploadDate = f.UploadDate
	}
	if e.Tags == nil {
		e.Tags = f.Tags
	}
}

// IndexOf returns the entry's position, or -1 if absent.
func (rs *ResultSet) IndexOf(id string) int {
	i, ok := rs.index[id]
	if !ok {
		return -1
	}
	return i
}

// FilterView is the ordered list of ResultSet indices currently visible
// under a filter string. Rebuilt atomically whenever the filter string or
// the underlying ResultSet changes; never contains an out-of-range index.
type FilterView []int

// BuildFilterView rebuilds the visible-index list for the given
// (lower-cased, substring) filter over titles. An empty filter matches
// every entry, preserving ResultSet order.
func BuildFilterView(rs *ResultSet, filter string) FilterView {
	if filter == "" {
		view := make(FilterView, len(rs.Entries))
		for i := range rs.Entries {
			view[i] = i
		}
		return view
	}

	needle := normalizeFilter(filter)
	view := make(FilterView, 0, len(rs.Entries))
	for i, e := range rs.Entries {
		if containsFold(e.Title, needle) {
			view = append(view, i)
		}
	}
	return view
}

// ReanchorSelection maps a previously-selected entry id onto its new
// position within view, or 0 if it's no longer visible.
func ReanchorSelection(rs *ResultSet, view FilterView, previousID string) int {
	if previousID == "" {
		return 0
	}
	target := rs.IndexOf(previousID)
	if target < 0 {
		return 0
	}
	for visibleIdx, resultIdx := range view {
		if resultIdx == target {
			return visibleIdx
		}
	}
	return 0
}
