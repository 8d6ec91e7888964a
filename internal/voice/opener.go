package voice

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	openTimeout = 5 * time.Second

	// openWaitDelay bounds how long output pipes inherited by a launched
	// application may hold up Open after the opener itself has exited.
	openWaitDelay = time.Second
)

// Opener hands a URL or file to the desktop.
type Opener interface {
	Open(ctx context.Context, target string) error
}

// ExecOpener opens targets with an external command such as xdg-open.
type ExecOpener struct {
	command []string
}

// NewExecOpener creates an ExecOpener. The command may carry leading arguments.
func NewExecOpener(command string) *ExecOpener {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		parts = []string{"xdg-open"}
	}
	return &ExecOpener{command: parts}
}

// Open runs the command with target as its final argument.
func (o *ExecOpener) Open(ctx context.Context, target string) error {
	ctx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	args := append(append([]string(nil), o.command[1:]...), target)
	c := exec.CommandContext(ctx, o.command[0], args...)
	c.WaitDelay = openWaitDelay
	out, err := c.CombinedOutput()
	if errors.Is(err, exec.ErrWaitDelay) {
		// The opener exited cleanly and left the application running.
		return nil
	}
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("failed to open %s: %w: %s", target, err, msg)
		}
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	return nil
}
