package transcription

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"yp/internal/obs"
)

// ModelMinBytes is the minimum plausible size for a complete model file;
// used as the "size/sanity check" from §4.D to decide whether an
// existing file can be trusted without re-downloading.
const ModelMinBytes = 400 << 20 // ~400MB; the real model is ~460MB

// EnsureModel downloads url to <cacheDir>/<name>.bin if it isn't already
// present and passing the sanity check, emitting progress on progressC
// throttled to at most one message per downloadThrottleInterval. The
// download writes to a ".part" sibling and atomically renames into place
// on success, so a crash mid-download never leaves a corrupt final file.
func EnsureModel(ctx context.Context, httpClient *http.Client, url, cacheDir, name string, progressC chan<- Event) (string, error) {
	finalPath := filepath.Join(cacheDir, name+".bin")

	if info, err := os.Stat(finalPath); err == nil && info.Size() >= ModelMinBytes {
		return finalPath, nil
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("model cache dir: %w", err)
	}

	partPath := finalPath + ".part"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("model download: build request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("model download: status %d", resp.StatusCode)
	}

	out, err := os.Create(partPath)
	if err != nil {
		return "", fmt.Errorf("model download: create part file: %w", err)
	}

	total := resp.ContentLength
	limiter := rate.NewLimiter(rate.Every(downloadThrottleInterval), 1)
	written, err := copyWithProgress(ctx, out, resp.Body, total, limiter, progressC)
	closeErr := out.Close()
	if err != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("model download: %w", err)
	}
	if closeErr != nil {
		os.Remove(partPath)
		return "", fmt.Errorf("model download: close part file: %w", closeErr)
	}
	_ = written

	if err := os.Rename(partPath, finalPath); err != nil {
		return "", fmt.Errorf("model download: atomic rename: %w", err)
	}
	return finalPath, nil
}

// copyWithProgress copies src into dst, posting throttled
// DownloadProgress events. limiter gates how often a progress event is
// posted, not the copy rate itself.
func copyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, limiter *rate.Limiter, progressC chan<- Event) (int64, error) {
	buf := make([]byte, 256*1024)
	var done int64
	for {
		select {
		case <-ctx.Done():
			return done, ctx.Err()
		default:
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return done, err
			}
			done += int64(n)
			obs.TranscriptionModelDownloadBytes.Set(float64(done))
			if limiter.Allow() && progressC != nil {
				select {
				case progressC <- Event{Kind: EventDownloadProgress, DownloadedBytes: done, TotalBytes: total}:
				case <-ctx.Done():
					return done, ctx.Err()
				}
			}
		}
		if readErr == io.EOF {
			if progressC != nil {
				select {
				case progressC <- Event{Kind: EventDownloadProgress, DownloadedBytes: done, TotalBytes: total}:
				default:
				}
			}
			return done, nil
		}
		if readErr != nil {
			return done, readErr
		}
	}
}
