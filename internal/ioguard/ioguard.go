// Package ioguard implements the scoped output-suppression guard
// required by §4.D: any call into a component that might write directly
// to file descriptors 1 or 2 (a recognizer binary, a library that logs
// to stderr) must not be allowed to corrupt the TUI's terminal, which
// owns those descriptors for its own rendering.
//
// There is no third-party library in the pack for fd-level duplication
// and redirection — this is an OS primitive, not a concern any of the
// example repos' dependencies address, so it is implemented directly on
// syscall/os per DESIGN.md's stdlib-justification entry for this
// package.
package ioguard

import (
	"fmt"
	"os"
)

// Suppress duplicates fds 1 and 2 elsewhere, redirects stdout/stderr to
// the null device for the duration of fn, and restores the originals on
// every exit path — including fn panicking.
func Suppress(fn func() error) (err error) {
	devNull, openErr := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if openErr != nil {
		return fmt.Errorf("ioguard: open devnull: %w", openErr)
	}
	defer devNull.Close()

	savedStdout, dupErr := dup(1)
	if dupErr != nil {
		return fmt.Errorf("ioguard: dup stdout: %w", dupErr)
	}
	defer savedStdout.Close()

	savedStderr, dupErr := dup(2)
	if dupErr != nil {
		return fmt.Errorf("ioguard: dup stderr: %w", dupErr)
	}
	defer savedStderr.Close()

	if err := dup2(int(devNull.Fd()), 1); err != nil {
		return fmt.Errorf("ioguard: redirect stdout: %w", err)
	}
	defer dup2(int(savedStdout.Fd()), 1)

	if err := dup2(int(devNull.Fd()), 2); err != nil {
		return fmt.Errorf("ioguard: redirect stderr: %w", err)
	}
	defer dup2(int(savedStderr.Fd()), 2)

	return fn()
}
