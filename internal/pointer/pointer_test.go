package pointer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeXdotool records the argv of each command instead of running it.
func fakeXdotool(command ...string) (*Xdotool, *[]string) {
	var calls []string
	x := &Xdotool{
		command: command,
		run: func(_ context.Context, name string, args ...string) error {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return nil
		},
	}
	return x, &calls
}

func TestXdotool_Commands(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(x *Xdotool) error
		want string
	}{
		{"move", func(x *Xdotool) error { return x.MoveTo(ctx, 960, 540) }, "xdotool mousemove 960 540"},
		{"left click", func(x *Xdotool) error { return x.Click(ctx, ButtonLeft) }, "xdotool click 1"},
		{"right click", func(x *Xdotool) error { return x.Click(ctx, ButtonRight) }, "xdotool click 3"},
		{"double click", func(x *Xdotool) error { return x.DoubleClick(ctx, ButtonLeft) }, "xdotool click --repeat 2 1"},
		{"button down", func(x *Xdotool) error { return x.ButtonDown(ctx, ButtonLeft) }, "xdotool mousedown 1"},
		{"button up", func(x *Xdotool) error { return x.ButtonUp(ctx, ButtonLeft) }, "xdotool mouseup 1"},
		{"scroll up", func(x *Xdotool) error { return x.Scroll(ctx, 3) }, "xdotool click --repeat 3 4"},
		{"scroll down", func(x *Xdotool) error { return x.Scroll(ctx, -2) }, "xdotool click --repeat 2 5"},
		{"key", func(x *Xdotool) error { return x.Key(ctx, KeyCopy) }, "xdotool key ctrl+c"},
		{"keys", func(x *Xdotool) error { return x.Key(ctx, KeyVolumeUp, KeyVolumeUp) }, "xdotool key XF86AudioRaiseVolume XF86AudioRaiseVolume"},
		{"key down", func(x *Xdotool) error { return x.KeyDown(ctx, KeyCtrl) }, "xdotool keydown ctrl"},
		{"key up", func(x *Xdotool) error { return x.KeyUp(ctx, KeyCtrl) }, "xdotool keyup ctrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, calls := fakeXdotool("xdotool")
			require.NoError(t, tt.call(x))
			require.Len(t, *calls, 1)
			assert.Equal(t, tt.want, (*calls)[0])
		})
	}
}

func TestXdotool_NoOps(t *testing.T) {
	x, calls := fakeXdotool("xdotool")

	require.NoError(t, x.Scroll(context.Background(), 0))
	require.NoError(t, x.Key(context.Background()))
	assert.Empty(t, *calls)
}

func TestXdotool_CommandPrefix(t *testing.T) {
	x, calls := fakeXdotool("env", "DISPLAY=:1", "xdotool")

	require.NoError(t, x.Click(context.Background(), ButtonMiddle))
	assert.Equal(t, []string{"env DISPLAY=:1 xdotool click 2"}, *calls)
}

func TestXdotool_Error(t *testing.T) {
	boom := errors.New("exit status 1")
	x := &Xdotool{
		command: []string{"xdotool"},
		run: func(context.Context, string, ...string) error {
			return boom
		},
	}

	err := x.MoveTo(context.Background(), 1, 2)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "move", perr.Action)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "move: failed to run xdotool: exit status 1", err.Error())
}

func TestNewXdotool_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := NewXdotool("xdotool")
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "lookup", perr.Action)
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	assert.Equal(t, "", r.Last())

	require.NoError(t, r.MoveTo(ctx, 10, 20))
	require.NoError(t, r.Click(ctx, ButtonRight))
	require.NoError(t, r.Key(ctx, KeyPaste))

	assert.Equal(t, []string{"move 10 20", "click right", "key ctrl+v"}, r.Actions())
	assert.Equal(t, "key ctrl+v", r.Last())

	r.FailWith(errors.New("no display"))
	assert.Error(t, r.Scroll(ctx, 1))
	assert.Equal(t, "scroll 1", r.Last())

	r.Reset()
	assert.Empty(t, r.Actions())
}

func TestButton_String(t *testing.T) {
	assert.Equal(t, "left", ButtonLeft.String())
	assert.Equal(t, "middle", ButtonMiddle.String())
	assert.Equal(t, "right", ButtonRight.String())
	assert.Equal(t, "button9", Button(9).String())
}
