package pointer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const commandTimeout = 2 * time.Second

// Scroll buttons in X11 numbering.
const (
	scrollUpButton   = 4
	scrollDownButton = 5
)

// Xdotool drives the pointer by running the xdotool command.
type Xdotool struct {
	command []string

	// run is replaced in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewXdotool creates an Xdotool using command (default "xdotool").
// The command may include leading arguments, e.g. "ydotool" wrappers.
func NewXdotool(command string) (*Xdotool, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		parts = []string{"xdotool"}
	}
	if _, err := exec.LookPath(parts[0]); err != nil {
		return nil, &Error{Action: "lookup", Message: parts[0] + " not found in PATH", Err: err}
	}
	return &Xdotool{command: parts, run: runCommand}, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	c := exec.CommandContext(ctx, name, args...)
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func (x *Xdotool) do(ctx context.Context, action string, args ...string) error {
	argv := append(append([]string(nil), x.command[1:]...), args...)
	if err := x.run(ctx, x.command[0], argv...); err != nil {
		return &Error{Action: action, Message: "failed to run " + x.command[0], Err: err}
	}
	return nil
}

func (x *Xdotool) MoveTo(ctx context.Context, px, py int) error {
	return x.do(ctx, "move", "mousemove", strconv.Itoa(px), strconv.Itoa(py))
}

func (x *Xdotool) Click(ctx context.Context, b Button) error {
	return x.do(ctx, "click", "click", strconv.Itoa(int(b)))
}

func (x *Xdotool) DoubleClick(ctx context.Context, b Button) error {
	return x.do(ctx, "doubleclick", "click", "--repeat", "2", strconv.Itoa(int(b)))
}

func (x *Xdotool) ButtonDown(ctx context.Context, b Button) error {
	return x.do(ctx, "down", "mousedown", strconv.Itoa(int(b)))
}

func (x *Xdotool) ButtonUp(ctx context.Context, b Button) error {
	return x.do(ctx, "up", "mouseup", strconv.Itoa(int(b)))
}

func (x *Xdotool) Scroll(ctx context.Context, steps int) error {
	if steps == 0 {
		return nil
	}
	button := scrollUpButton
	if steps < 0 {
		button = scrollDownButton
		steps = -steps
	}
	return x.do(ctx, "scroll", "click", "--repeat", strconv.Itoa(steps), strconv.Itoa(button))
}

func (x *Xdotool) Key(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return x.do(ctx, "key", append([]string{"key"}, keys...)...)
}

func (x *Xdotool) KeyDown(ctx context.Context, key string) error {
	return x.do(ctx, "keydown", "keydown", key)
}

func (x *Xdotool) KeyUp(ctx context.Context, key string) error {
	return x.do(ctx, "keyup", "keyup", key)
}

// Error is returned when a pointer action fails.
type Error struct {
	Action  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Action + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Action + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
