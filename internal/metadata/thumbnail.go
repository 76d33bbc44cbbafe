package metadata

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// thumbnailQualities is the fallback chain from §4.C, highest quality
// first; the first successful fetch wins.
var thumbnailQualities = []string{"maxresdefault", "sddefault", "hqdefault", "0"}

// FetchThumbnail tries each quality in thumbnailQualities in order,
// advancing the chain on network errors and 404s and returning the first
// success. Other HTTP errors (e.g. 403, 5xx) propagate immediately
// without trying the rest of the chain, since those usually indicate the
// id itself is unreachable rather than that quality being absent.
func FetchThumbnail(http *resty.Client, id string) ([]byte, error) {
	var lastErr error
	for _, quality := range thumbnailQualities {
		url := fmt.Sprintf("https://i.ytimg.com/vi/%s/%s.jpg", id, quality)
		resp, err := http.R().Get(url)
		if err != nil {
			lastErr = fmt.Errorf("thumbnail %s: %w", quality, err)
			continue
		}
		if resp.StatusCode() == 404 {
			lastErr = fmt.Errorf("thumbnail %s: not found", quality)
			continue
		}
		if resp.IsError() {
			return nil, fmt.Errorf("thumbnail %s: status %d", quality, resp.StatusCode())
		}
		return resp.Body(), nil
	}
	return nil, fmt.Errorf("thumbnail: all qualities exhausted: %w", lastErr)
}
