package piper

import (
	"errors"
	"time"
)

var (
	// ErrTimeout is returned by Pipe when no reply data became
	// available before the deadline while the child was still running.
	ErrTimeout = errors.New("read timed out")
	// ErrNotRunning is returned by Pipe when the child process has
	// already exited or the piper was closed.
	ErrNotRunning = errors.New("process is not running")
)

// Piper is a duplex message channel to an emulator process: one
// request message out, one reply message back.
type Piper interface {
	// Pipe writes message to the channel and waits up to timeout for
	// reply text. If the child exits mid-wait, whatever partial output
	// arrived is returned without error; callers detect the death via
	// Running.
	Pipe(message string, timeout time.Duration) (string, error)

	// Running reports whether the underlying channel is still usable.
	Running() bool

	// Close tears the channel down, terminating the child. Idempotent.
	Close() error
}
