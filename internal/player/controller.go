package player

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"yp/internal/obs"
	"yp/internal/subprocess"
)

// statusStreamCapacity is the bounded status-stream capacity from §4.B:
// on backpressure, older messages are dropped so only the latest position
// is visible.
const statusStreamCapacity = 10

// session is the live state behind one PlaybackSession. id is a random
// identifier minted per Play call, carried through every log line for
// that session so log lines from overlapping stop/start races can be
// told apart even though at most one session is ever active.
type session struct {
	id         string
	entry      Entry
	handle     *subprocess.Handle
	socketPath string
	startedAt  time.Time
	cancel     context.CancelFunc

	mu     sync.Mutex
	status Status
}

// Controller owns at most one audio playback process plus its IPC client,
// per §4.B. All exported methods are safe for concurrent use; Play/Stop
// serialize against each other so a new session is never created while an
// old one is only partially torn down.
type Controller struct {
	log zerolog.Logger

	mu      sync.Mutex
	current *session
	statusC chan PlaybackStatus
}

// New creates a player controller. The IPC socket's filesystem path embeds
// os.Getpid() of the host process (see socketPath).
func New(log zerolog.Logger) *Controller {
	return &Controller{
		log:     log.With().Str("component", "player").Logger(),
		statusC: make(chan PlaybackStatus, statusStreamCapacity),
	}
}

// socketPath returns the fixed per-process IPC socket path from §6.
func socketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("yp-mpv-%d.sock", os.Getpid()))
}

// Play stops any current session synchronously, then spawns a fresh mpv
// instance bound to a freshly-claimed IPC socket path.
func (c *Controller) Play(ctx context.Context, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	path := socketPath()
	_ = os.Remove(path) // clear any stale socket from an unclean exit

	sessCtx, cancel := context.WithCancel(ctx)
	args := []string{
		entry.URL,
		"--no-video",
		"--input-ipc-server=" + path,
		"--term-status-msg=Time: ${=time-pos/60%d}:${=time-pos%60%02d} / ${=duration/60%d}:${=duration%60%02d}",
		"--really-quiet=no",
	}

	sessionID := uuid.NewString()

	handle, err := subprocess.SpawnCapture(sessCtx, "mpv", args...)
	if err != nil {
		cancel()
		c.log.Error().Err(err).Str("entry", entry.ID).Str("session_id", sessionID).Msg("failed to spawn mpv")
		return fmt.Errorf("%w: %v", ErrSpawnFailed, err)
	}

	sess := &session{
		id:         sessionID,
		entry:      entry,
		handle:     handle,
		socketPath: path,
		startedAt:  time.Now(),
		cancel:     cancel,
		status:     Playing,
	}
	c.current = sess
	obs.PlaybackSessionsTotal.Inc()

	c.log.Info().Str("entry", entry.ID).Str("session_id", sessionID).Msg("playback session started")

	go c.pump(sess)

	c.publish(PlaybackStatus{Entry: entry, Status: Playing, StartedAt: sess.startedAt})
	return nil
}

// pump drains mpv's stdout, parses status lines, and posts them to the
// status stream until the process exits.
func (c *Controller) pump(sess *session) {
	for line := range sess.handle.Lines() {
		posCS, durCS, ok := parseStatusLine(line)
		if !ok {
			// parse failure: logged and dropped, never fatal
			c.log.Debug().Str("session_id", sess.id).Str("line", line).Msg("dropped unparsable mpv status line")
			continue
		}
		sess.mu.Lock()
		st := sess.status
		sess.mu.Unlock()
		c.publish(PlaybackStatus{
			Entry:      sess.entry,
			Status:     st,
			PositionCS: posCS,
			DurationCS: durCS,
			StartedAt:  sess.startedAt,
		})
	}
}

// publish posts to the bounded status channel, dropping the oldest queued
// message on backpressure so only the latest status is ever stale.
func (c *Controller) publish(s PlaybackStatus) {
	for {
		select {
		case c.statusC <- s:
			return
		default:
		}
		select {
		case <-c.statusC:
		default:
		}
	}
}

// StatusStream returns the bounded receiver of playback status updates.
func (c *Controller) StatusStream() <-chan PlaybackStatus {
	return c.statusC
}

// Stop terminates the current process, removes the socket file, and emits
// a terminal Stopped status. Idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.current == nil {
		return
	}
	sess := c.current
	sess.mu.Lock()
	sess.status = Stopped
	sess.mu.Unlock()

	sess.cancel()
	sess.handle.Stop()
	_ = os.Remove(sess.socketPath)

	c.log.Info().Str("entry", sess.entry.ID).Str("session_id", sess.id).Msg("playback session stopped")

	c.publish(PlaybackStatus{Entry: sess.entry, Status: Stopped, StartedAt: sess.startedAt})
	c.current = nil
}

// PauseToggle sends cycle-pause over IPC. Ignored (no error) if there is
// no active session.
func (c *Controller) PauseToggle() {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return
	}

	if err := sendCommand(sess.socketPath, "cycle", "pause"); err != nil {
		c.log.Warn().Err(err).Msg("pause_toggle failed")
		return
	}

	sess.mu.Lock()
	switch sess.status {
	case Playing:
		sess.status = Paused
	case Paused:
		sess.status = Playing
	}
	sess.mu.Unlock()
}

// GetStreamURL resolves mpv's currently-open stream URL via IPC, per
// §4.B's acceptance predicate (isResolvedStreamURL).
func (c *Controller) GetStreamURL() (string, error) {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return "", ErrNoSession
	}
	return getStreamURL(sess.socketPath)
}

// IPCSocketPath returns the active session's IPC socket path, for the
// transcription pipeline's IPC-first stream resolution strategy. The
// returned path is a value copy; the transcription pipeline opens its own
// connection and never touches the controller's session state.
func (c *Controller) IPCSocketPath() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return "", false
	}
	return c.current.socketPath, true
}
