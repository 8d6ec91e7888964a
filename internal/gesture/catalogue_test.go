package gesture

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/adapter/input"
)

func TestCatalogue(t *testing.T) {
	require.Len(t, Catalogue, 10)

	seen := make(map[Kind]bool)
	for _, g := range Catalogue {
		assert.False(t, seen[g.Kind], "duplicate %s", g.Kind)
		seen[g.Kind] = true
		assert.NotEmpty(t, g.Description)
		assert.NotEmpty(t, g.Action)
	}
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"Left Click", LeftClick, true},
		{"left_click", LeftClick, true},
		{"DRAG-AND-DROP", DragAndDrop, true},
		{"  volume   control ", VolumeControl, true},
		{"neutral", Neutral, true},
		{"Neutral Gesture", Neutral, true},
		{"thumbs up", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := Lookup(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, g.Kind)
		})
	}
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame(`{"gesture":"Move Cursor","x":0.25,"y":0.75,"confidence":0.9,"ts":12.5}`)
	require.NoError(t, err)
	assert.Equal(t, Frame{Gesture: "Move Cursor", X: 0.25, Y: 0.75, Confidence: 0.9, Timestamp: 12.5}, f)

	_, err = ParseFrame(`{"x":0.1}`)
	assert.ErrorContains(t, err, "missing gesture")

	_, err = ParseFrame(`not json`)
	assert.Error(t, err)
}

func TestLineSource(t *testing.T) {
	lines := input.NewReaderAdapter("gesture", strings.NewReader(
		`{"gesture":"Left Click","confidence":1}` + "\n" +
			"garbage\n" +
			`{"gesture":"Scrolling","y":0.4,"confidence":0.9}` + "\n"))

	var frames []Frame
	err := NewLineSource(lines, nil).Run(context.Background(), func(f Frame) {
		frames = append(frames, f)
	})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, "Left Click", frames[0].Gesture)
	assert.Equal(t, 0.4, frames[1].Y)
}
