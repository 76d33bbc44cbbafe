package transcription

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"yp/internal/ioguard"
	"yp/internal/obs"
)

// eventStreamCapacity is generous enough that a whole transcription's
// worth of events never blocks the producer on a slow-draining consumer;
// the event loop drains all available messages every tick anyway (§4.E).
const eventStreamCapacity = 64

// Pipeline drives the full §4.D sequence for one entry: resolve stream
// URL, ensure the model is present, then transcribe chunk by chunk.
type Pipeline struct {
	log        zerolog.Logger
	resolver   *StreamResolver
	modelURL   string
	modelDir   string
	modelName  string
	recBinPath string
	httpClient *http.Client

	rec recognizer
}

// Config bundles the fixed, session-independent pipeline settings.
type Config struct {
	ModelURL          string
	ModelCacheDir     string
	ModelName         string
	RecognizerBinPath string
}

// New builds a Pipeline. resolveFallback implements Stage 1's fallback
// strategy (normally backed by a metadata.Tool's ResolveStreamURL,
// applied to whichever entry URL Trigger was called with).
func New(log zerolog.Logger, cfg Config, resolveFallback func(ctx context.Context, entryURL string) (string, error)) *Pipeline {
	return &Pipeline{
		log:      log.With().Str("component", "transcription").Logger(),
		resolver: &StreamResolver{ResolveFallback: resolveFallback},
		modelURL: cfg.ModelURL, modelDir: cfg.ModelCacheDir, modelName: cfg.ModelName,
		recBinPath: cfg.RecognizerBinPath,
		httpClient: &http.Client{},
	}
}

// Cancel is the cancellation handle returned by Trigger.
type Cancel func()

// Trigger starts the full pipeline for one entry and returns an event
// channel plus a cancellation handle, per §4.D's entry point.
func (p *Pipeline) Trigger(ctx context.Context, streamURL, ipcSocketPath string) (<-chan Event, Cancel) {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Event, eventStreamCapacity)

	go p.run(ctx, streamURL, ipcSocketPath, out)

	return out, Cancel(cancel)
}

func (p *Pipeline) run(ctx context.Context, streamURL, ipcSocketPath string, out chan<- Event) {
	defer close(out)
	defer p.rec.close()

	resolvedURL, err := p.resolver.Resolve(ctx, streamURL, ipcSocketPath)
	if err != nil {
		p.fail(ctx, out, fmt.Sprintf("stream url resolution: %v", err))
		return
	}
	if resolvedURL == "" {
		resolvedURL = streamURL
	}

	if !emit(ctx, out, Event{Kind: EventAudioExtracted}) {
		return
	}

	if err := p.ensureModel(ctx, out); err != nil {
		p.fail(ctx, out, fmt.Sprintf("model acquisition: %v", err))
		return
	}

	if err := p.transcribeChunks(ctx, resolvedURL, out); err != nil {
		p.fail(ctx, out, err.Error())
		return
	}

	emit(ctx, out, Event{Kind: EventTranscribed})
}

func (p *Pipeline) ensureModel(ctx context.Context, out chan<- Event) error {
	if p.modelURL == "" {
		return nil // no model configured: recognizer ships its own, nothing to fetch
	}
	progressC := make(chan Event, 4)
	done := make(chan struct{})
	var modelErr error
	go func() {
		defer close(done)
		_, modelErr = EnsureModel(ctx, p.httpClient, p.modelURL, p.modelDir, p.modelName, progressC)
	}()

	for {
		select {
		case ev, ok := <-progressC:
			if !ok {
				continue
			}
			if !emit(ctx, out, ev) {
				return ctx.Err()
			}
		case <-done:
			// Drain anything left before returning.
			for {
				select {
				case ev, ok := <-progressC:
					if !ok {
						return modelErr
					}
					emit(ctx, out, ev)
				default:
					return modelErr
				}
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Pipeline) transcribeChunks(ctx context.Context, streamURL string, out chan<- Event) error {
	path := chunkPath()
	defer os.Remove(path)

	for offset := 0; ; offset += chunkStepSeconds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunkStart := time.Now()

		var extractErr error
		if guardErr := ioguard.Suppress(func() error {
			extractErr = extractChunk(ctx, streamURL, path, offset)
			return nil
		}); guardErr != nil {
			return guardErr
		}
		if extractErr != nil {
			var exitErr *exec.ExitError
			if errors.As(extractErr, &exitErr) && exitErr.ExitCode() > 0 {
				return nil // decoder exited non-zero: end of stream, per §4.D
			}
			return extractErr // spawn failure or cancellation: surfaced as Failed
		}

		short, err := isTooShortToTranscribe(path)
		if err != nil {
			return fmt.Errorf("chunk size check: %w", err)
		}
		if short {
			return nil
		}

		if _, err := p.rec.ensure(ctx, p.recBinPath); err != nil {
			obs.TranscriptionChunksTotal.WithLabelValues("error").Inc()
			return err
		}
		utterances, err := p.rec.transcribe(path)
		obs.TranscriptionChunkDuration.Observe(time.Since(chunkStart).Seconds())
		if err != nil {
			obs.TranscriptionChunksTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("transcribe chunk at offset %ds: %w", offset, err)
		}
		obs.TranscriptionChunksTotal.WithLabelValues("success").Inc()

		rebased := rebaseTimestamps(utterances, offset)
		if !emit(ctx, out, Event{Kind: EventChunkTranscribed, Utterances: rebased}) {
			return ctx.Err()
		}
	}
}

func (p *Pipeline) fail(ctx context.Context, out chan<- Event, msg string) {
	p.log.Warn().Str("reason", msg).Msg("transcription failed")
	emit(ctx, out, Event{Kind: EventFailed, Message: msg})
}

// emit posts ev, returning false if the context was cancelled instead.
func emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
