package transcription

import "errors"

// Error kinds from §7, dispatched via errors.Is/As rather than a
// third-party errors package — matching the teacher's sentinel-error
// convention (internal/player/types.go uses the same pattern).
var (
	ErrIPCUnavailable  = errors.New("ipc unavailable")
	ErrIPCTimeout      = errors.New("ipc timeout")
	ErrIPCRejectedURL  = errors.New("ipc rejected url: not yet resolved")
	ErrStreamResolve   = errors.New("stream url resolution failed")
	ErrDecodeShort     = errors.New("decoder produced a short chunk")
	ErrCancelled       = errors.New("cancelled")
)
