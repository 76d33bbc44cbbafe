package metadata

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"yp/internal/subprocess"
)

// YtDlpTool drives yt-dlp for search, channel listing, enrichment, and
// stream URL resolution. Adapted from the teacher's
// internal/platform/youtube/youtube.go Extractor: same flag set and
// flat-playlist JSON conventions, generalized to the operations §4.C
// names and rebuilt on top of internal/subprocess instead of exec.Command
// directly, so every spawn goes through the one captured-lifecycle path.
type YtDlpTool struct {
	CookiesFile         string
	CookiesFromBrowser  string
}

var _ Tool = (*YtDlpTool)(nil)

func (t *YtDlpTool) baseArgs() []string {
	args := []string{
		"--ignore-config",
		"--no-warnings",
		"--no-check-certificate",
		"--socket-timeout", "10",
	}
	if t.CookiesFile != "" {
		args = append(args, "--cookies", t.CookiesFile)
	} else if t.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", t.CookiesFromBrowser)
	}
	return args
}

// Search runs a ytsearchN: query with a "print" template that emits
// exactly "<title>\t<id>" per line — unambiguous even when titles
// contain arbitrary punctuation, unlike parsing JSON per entry for just
// two fields.
func (t *YtDlpTool) Search(ctx context.Context, query string, limit int) ([]VideoEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	searchQuery := fmt.Sprintf("ytsearch%d:%s", limit, query)

	args := append(t.baseArgs(),
		"--flat-playlist",
		"--print", "%(title)s\t%(id)s",
		searchQuery,
	)

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}

	var entries []VideoEntry
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		title, id, ok := splitTitleID(line)
		if !ok {
			continue
		}
		entries = append(entries, VideoEntry{
			ID:    id,
			Title: title,
			URL:   watchURL(id),
		})
	}
	return entries, nil
}

func splitTitleID(line string) (title, id string, ok bool) {
	idx := strings.LastIndex(line, "\t")
	if idx < 0 {
		return "", "", false
	}
	return line[:idx], strings.TrimSpace(line[idx+1:]), true
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

type flatEntry struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Uploader string `json:"uploader"`
}

// ListChannel fetches the first page via flat-playlist JSON mode, which
// is fast because it never resolves individual video pages.
func (t *YtDlpTool) ListChannel(ctx context.Context, handle string, pageSize int) ([]VideoEntry, *ChannelSource, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	args := append(t.baseArgs(),
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(pageSize),
		"-J",
		handle,
	)

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return nil, nil, fmt.Errorf("yt-dlp list_channel: %w", err)
	}

	var doc struct {
		Entries []flatEntry `json:"entries"`
	}
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return nil, nil, fmt.Errorf("yt-dlp list_channel: parse: %w", err)
	}

	entries := make([]VideoEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entries = append(entries, VideoEntry{ID: e.ID, Title: e.Title, URL: watchURL(e.ID)})
	}

	src := &ChannelSource{
		Handle:       handle,
		TotalFetched: len(entries),
		HasMore:      len(entries) >= pageSize,
	}
	return entries, src, nil
}

// LoadMore re-fetches with a wider playlist-end window. yt-dlp has no
// native cursor-based pagination for flat listings, so the "token" here
// is simply the running fetched-count, matching how the original_source
// reference implementation pages this same listing.
func (t *YtDlpTool) LoadMore(ctx context.Context, src *ChannelSource, pageSize int) ([]VideoEntry, bool, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	newEnd := src.TotalFetched + pageSize
	args := append(t.baseArgs(),
		"--flat-playlist",
		"--playlist-start", strconv.Itoa(src.TotalFetched+1),
		"--playlist-end", strconv.Itoa(newEnd),
		"-J",
		src.Handle,
	)

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return nil, false, fmt.Errorf("yt-dlp load_more: %w", err)
	}

	var doc struct {
		Entries []flatEntry `json:"entries"`
	}
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return nil, false, fmt.Errorf("yt-dlp load_more: parse: %w", err)
	}

	entries := make([]VideoEntry, 0, len(doc.Entries))
	for _, e := range doc.Entries {
		entries = append(entries, VideoEntry{ID: e.ID, Title: e.Title, URL: watchURL(e.ID)})
	}
	return entries, len(entries) >= pageSize, nil
}

type enrichDoc struct {
	Uploader   string   `json:"uploader"`
	Duration   float64  `json:"duration"`
	UploadDate string   `json:"upload_date"`
	Tags       []string `json:"tags"`
}

// Enrich fetches full metadata for a single video id via -j (full JSON
// mode), the slow-but-complete counterpart to the flat listing.
func (t *YtDlpTool) Enrich(ctx context.Context, id string) (EnrichedFields, error) {
	args := append(t.baseArgs(), "-j", "--skip-download", watchURL(id))

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return EnrichedFields{}, fmt.Errorf("yt-dlp enrich %s: %w", id, err)
	}

	var doc enrichDoc
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return EnrichedFields{}, fmt.Errorf("yt-dlp enrich %s: parse: %w", id, err)
	}

	durS := int(doc.Duration)
	return EnrichedFields{
		ID:         id,
		Uploader:   &doc.Uploader,
		DurationS:  &durS,
		UploadDate: &doc.UploadDate,
		Tags:       doc.Tags,
	}, nil
}

// StoryboardInfo reads storyboard fragment URLs/durations out of the full
// metadata JSON's "formats" list (storyboard formats carry fragments).
func (t *YtDlpTool) StoryboardInfo(ctx context.Context, id string) (StoryboardInfo, bool, error) {
	args := append(t.baseArgs(), "-j", "--skip-download", watchURL(id))

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return StoryboardInfo{}, false, fmt.Errorf("yt-dlp storyboard %s: %w", id, err)
	}

	var doc struct {
		Formats []struct {
			FormatNote string `json:"format_note"`
			URL        string `json:"url"`
			Columns    int    `json:"columns"`
			Rows       int    `json:"rows"`
			Fragments  []struct {
				URL      string  `json:"url"`
				Duration float64 `json:"duration"`
			} `json:"fragments"`
		} `json:"formats"`
	}
	if err := json.Unmarshal(stdout, &doc); err != nil {
		return StoryboardInfo{}, false, fmt.Errorf("yt-dlp storyboard %s: parse: %w", id, err)
	}

	for _, f := range doc.Formats {
		if f.FormatNote != "storyboard" || len(f.Fragments) == 0 {
			continue
		}
		info := StoryboardInfo{}
		for _, frag := range f.Fragments {
			info.Fragments = append(info.Fragments, StoryboardFragment{
				URL:        frag.URL,
				DurationCS: int64(frag.Duration * 100),
				Columns:    f.Columns,
				Rows:       f.Rows,
			})
		}
		return info, true, nil
	}
	return StoryboardInfo{}, false, nil
}

// ResolveStreamURL drives yt-dlp in print-only CDN URL mode, preferring
// bestaudio — the fallback strategy for Stage 1 of the transcription
// pipeline when IPC resolution is unavailable or exhausted.
func (t *YtDlpTool) ResolveStreamURL(ctx context.Context, id string) (string, error) {
	args := append(t.baseArgs(), "-f", "bestaudio/best", "--get-url", watchURL(id))

	_, stdout, _, err := subprocess.SpawnAndWait(ctx, "yt-dlp", args...)
	if err != nil {
		return "", fmt.Errorf("yt-dlp resolve_stream_url %s: %w", id, err)
	}

	line := strings.TrimSpace(strings.SplitN(string(stdout), "\n", 2)[0])
	if line == "" {
		return "", fmt.Errorf("yt-dlp resolve_stream_url %s: empty result", id)
	}
	return line, nil
}
