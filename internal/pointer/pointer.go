// Package pointer drives the desktop cursor and keyboard.
package pointer

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Button identifies a mouse button using X11 numbering.
type Button int

const (
	ButtonLeft   Button = 1
	ButtonMiddle Button = 2
	ButtonRight  Button = 3
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "middle"
	case ButtonRight:
		return "right"
	default:
		return fmt.Sprintf("button%d", int(b))
	}
}

// Media and shortcut key names understood by Xdotool.
const (
	KeyVolumeUp       = "XF86AudioRaiseVolume"
	KeyVolumeDown     = "XF86AudioLowerVolume"
	KeyBrightnessUp   = "XF86MonBrightnessUp"
	KeyBrightnessDown = "XF86MonBrightnessDown"
	KeyCtrl           = "ctrl"
	KeyCopy           = "ctrl+c"
	KeyPaste          = "ctrl+v"
)

// Pointer moves the cursor, presses buttons and sends key events.
type Pointer interface {
	// MoveTo moves the cursor to absolute screen coordinates.
	MoveTo(ctx context.Context, x, y int) error
	Click(ctx context.Context, b Button) error
	DoubleClick(ctx context.Context, b Button) error
	ButtonDown(ctx context.Context, b Button) error
	ButtonUp(ctx context.Context, b Button) error

	// Scroll scrolls by steps notches; positive scrolls up.
	Scroll(ctx context.Context, steps int) error

	// Key taps each key combination in order (e.g. "ctrl+c").
	Key(ctx context.Context, keys ...string) error
	KeyDown(ctx context.Context, key string) error
	KeyUp(ctx context.Context, key string) error
}

// Recorder is a Pointer that records every call instead of acting on it.
type Recorder struct {
	mu      sync.Mutex
	actions []string
	err     error
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes every subsequent call return err (still recorded).
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Actions returns a copy of the recorded actions.
func (r *Recorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.actions...)
}

// Last returns the most recent action, or "" when nothing was recorded.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.actions) == 0 {
		return ""
	}
	return r.actions[len(r.actions)-1]
}

// Reset clears the recorded actions.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}

func (r *Recorder) record(format string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, fmt.Sprintf(format, args...))
	return r.err
}

func (r *Recorder) MoveTo(_ context.Context, x, y int) error {
	return r.record("move %d %d", x, y)
}

func (r *Recorder) Click(_ context.Context, b Button) error {
	return r.record("click %s", b)
}

func (r *Recorder) DoubleClick(_ context.Context, b Button) error {
	return r.record("doubleclick %s", b)
}

func (r *Recorder) ButtonDown(_ context.Context, b Button) error {
	return r.record("down %s", b)
}

func (r *Recorder) ButtonUp(_ context.Context, b Button) error {
	return r.record("up %s", b)
}

func (r *Recorder) Scroll(_ context.Context, steps int) error {
	return r.record("scroll %d", steps)
}

func (r *Recorder) Key(_ context.Context, keys ...string) error {
	return r.record("key %s", strings.Join(keys, " "))
}

func (r *Recorder) KeyDown(_ context.Context, key string) error {
	return r.record("keydown %s", key)
}

func (r *Recorder) KeyUp(_ context.Context, key string) error {
	return r.record("keyup %s", key)
}
