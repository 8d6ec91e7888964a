package input

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// maxStderr bounds how much collaborator stderr is kept for error reports.
const maxStderr = 4096

// commandWaitDelay is how long Run waits for stdout to close once the
// command has exited or been killed.
const commandWaitDelay = time.Second

// CommandAdapter runs an external command and reads lines from its stdout.
// The process is killed when ctx is cancelled.
type CommandAdapter struct {
	source  string
	command []string
}

// NewCommandAdapter creates a CommandAdapter for argv.
func NewCommandAdapter(source string, command []string) *CommandAdapter {
	return &CommandAdapter{source: source, command: append([]string(nil), command...)}
}

// Name returns the adapter identifier.
func (a *CommandAdapter) Name() string {
	return "command"
}

// Command returns the argv the adapter runs.
func (a *CommandAdapter) Command() []string {
	return append([]string(nil), a.command...)
}

// Run starts the command and emits its stdout lines until it exits.
func (a *CommandAdapter) Run(ctx context.Context, emit func(line string)) error {
	cmd := exec.CommandContext(ctx, a.command[0], a.command[1:]...)
	// Children of the command may keep stdout open after it is killed.
	cmd.WaitDelay = commandWaitDelay
	stderr := &tailBuffer{limit: maxStderr}
	cmd.Stderr = stderr

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	if err := cmd.Start(); err != nil {
		return &AdapterError{Source: a.source, Message: "failed to start " + a.command[0], Err: err}
	}

	waitCh := make(chan error, 1)
	go func() {
		err := cmd.Wait()
		_ = pw.Close()
		waitCh <- err
	}()

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		err := scanLines(ctx, pr, lines)
		// Keep reading so Wait is not blocked on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
		scanErr <- err
	}()

	for line := range lines {
		emit(line)
	}

	readErr := <-scanErr
	waitErr := <-waitCh
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		waitErr = nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitErr != nil {
		msg := a.command[0] + " exited"
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			msg += " (" + lastLine(tail) + ")"
		}
		return &AdapterError{Source: a.source, Message: msg, Err: waitErr}
	}
	if readErr != nil {
		return &AdapterError{Source: a.source, Message: "failed to read output", Err: readErr}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
