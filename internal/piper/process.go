package piper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// defaultDrainInterval is the quiescence slice used while draining a
// reply: once output starts arriving, reading stops after one interval
// passes without the buffer growing.
const defaultDrainInterval = 10 * time.Millisecond

// ProcessPiper is a Piper backed by a child process, speaking
// newline-terminated text over its stdin/stdout pipes.
type ProcessPiper struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	sleeper *Sleeper
	drain   time.Duration

	alive atomic.Bool

	mu  sync.Mutex
	buf bytes.Buffer

	closeOnce sync.Once
	closeErr  error
}

// Start launches the command and wires its pipes. A background watcher
// observes process exit and flips the liveness flag; a reader pump
// accumulates stdout so replies survive the child's death.
func Start(name string, args ...string) (*ProcessPiper, error) {
	if name == "" {
		return nil, fmt.Errorf("command must not be empty")
	}

	cmd := exec.Command(name, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	p := &ProcessPiper{
		cmd:     cmd,
		stdin:   stdin,
		sleeper: NewSleeper(),
		drain:   defaultDrainInterval,
	}
	p.alive.Store(true)

	go p.readPump(stdout)
	go p.watchExit()

	return p, nil
}

// readPump reads stdout until EOF or error, appending to the reply
// buffer. Output that arrives between requests stays buffered and is
// consumed by the next Pipe call.
func (p *ProcessPiper) readPump(r io.Reader) {
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			p.mu.Lock()
			p.buf.Write(chunk[:n])
			p.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

// watchExit reaps the child and flips the liveness flag. It performs
// no message traffic; the poller only reads the flag.
func (p *ProcessPiper) watchExit() {
	_, _ = p.cmd.Process.Wait()
	p.alive.Store(false)
}

// Running reports whether the child process is still alive.
func (p *ProcessPiper) Running() bool {
	return p.alive.Load()
}

// Pipe writes message and polls for reply text until the timeout. The
// wait ends as soon as output is available or the child has exited;
// draining then continues until the buffer stops growing for one drain
// interval, still bounded by the overall deadline.
func (p *ProcessPiper) Pipe(message string, timeout time.Duration) (string, error) {
	if !p.Running() {
		return "", ErrNotRunning
	}
	if timeout <= 0 {
		return "", fmt.Errorf("timeout must be positive: %s", timeout)
	}

	if _, err := io.WriteString(p.stdin, message); err != nil {
		return "", fmt.Errorf("failed to write message: %w", err)
	}

	deadline := time.Now().Add(timeout)
	ready := p.sleeper.Wait(context.Background(), timeout, func() bool {
		return p.buffered() > 0 || !p.Running()
	})
	if !ready {
		return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	for {
		before := p.buffered()
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		interval := p.drain
		if interval > remaining {
			interval = remaining
		}
		p.sleeper.Pause(interval)
		if p.buffered() == before {
			break
		}
	}

	return p.take(), nil
}

// Close terminates the child (SIGTERM) and releases the pipes. Safe to
// call multiple times.
func (p *ProcessPiper) Close() error {
	p.closeOnce.Do(func() {
		p.alive.Store(false)
		if err := p.stdin.Close(); err != nil {
			p.closeErr = err
		}
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Signal(syscall.SIGTERM)
		}
	})
	return p.closeErr
}

func (p *ProcessPiper) buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.Len()
}

func (p *ProcessPiper) take() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.buf.String()
	p.buf.Reset()
	return s
}
