package app

// Renderer is the narrow seam into the rendering layer — the actual
// widget/theme/pixel-backend implementation is out of scope per §1
// ("the TUI widget layout and theme definitions... specified only
// through their interfaces"). Production wiring supplies a concrete
// implementation from outside this package; tests supply a fake.
type Renderer interface {
	Render(s *State)
}

// PreferencesStore is the narrow seam into the preferences collaborator
// (§6: "theme name, frame mode... read at startup, written on change").
// The file format itself is out of scope.
type PreferencesStore interface {
	Load() (Theme, FrameMode, error)
	Save(theme Theme, frameMode FrameMode) error
}

// KeyEvent is the minimal shape the loop needs out of whatever reads the
// keyboard; a concrete terminal-input implementation is supplied from
// outside this package.
type KeyEvent struct {
	Rune  rune
	Key   SpecialKey
	Ctrl  bool
}

type SpecialKey int

const (
	KeyNone SpecialKey = iota
	KeyEnter
	KeyEsc
	KeySpace
	KeyUp
	KeyDown
	KeyPageUp
	KeyPageDown
	KeyBackspace
)

// InputSource is the narrow seam for the 100ms-timeout keyboard poll
// from §4.E step 5.
type InputSource interface {
	// PollKey blocks for at most the loop's fixed timeout and returns
	// ok=false if nothing arrived in that window.
	PollKey() (KeyEvent, bool)
}
