package transcription

import (
	"context"
	"errors"
	"time"

	"yp/internal/obs"
)

// ipcRetryBackoff is the fixed backoff schedule for Stage 1's IPC-first
// strategy, per §4.D: 6 attempts, one per entry. The waits before attempts
// 2 through 6 use the first five entries (7.5s of backoff in total, on top
// of each attempt's own IPC dial and read timeouts); the last entry is
// never waited on.
var ipcRetryBackoff = []time.Duration{
	500 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	2 * time.Second,
	2 * time.Second,
	2 * time.Second,
}

// StreamResolver resolves the entry URL to a direct CDN URL, trying
// IPC-first then falling back to the metadata tool's print-only mode.
// ResolveFallback receives the original entry URL (the watch page, not
// a resolved CDN URL) so it can re-derive whatever identifier the
// fallback tool needs.
type StreamResolver struct {
	ResolveFallback func(ctx context.Context, entryURL string) (string, error)
}

// Resolve implements Stage 1. ipcSocketPath is empty when no player
// session is active, in which case IPC-first is skipped entirely.
func (r *StreamResolver) Resolve(ctx context.Context, entryURL, ipcSocketPath string) (string, error) {
	if ipcSocketPath != "" {
		if url, ok := r.resolveViaIPC(ctx, ipcSocketPath); ok {
			return url, nil
		}
	}
	if r.ResolveFallback == nil {
		return "", ErrStreamResolve
	}
	return r.ResolveFallback(ctx, entryURL)
}

func (r *StreamResolver) resolveViaIPC(ctx context.Context, socketPath string) (string, bool) {
	for attempt := 0; attempt < len(ipcRetryBackoff); attempt++ {
		if attempt > 0 {
			obs.PlayerIPCRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return "", false
			case <-time.After(ipcRetryBackoff[attempt-1]):
			}
		}

		url, err := getStreamURLOverIPC(socketPath)
		if err == nil {
			return url, true
		}
		if errors.Is(err, ErrIPCRejectedURL) || errors.Is(err, ErrIPCTimeout) || errors.Is(err, ErrIPCUnavailable) {
			continue // retryable per §4.D: "any ipc_rejected_url or parse failure"
		}
		return "", false
	}
	return "", false
}
