package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/adapter/input"
	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/pointer"
	"github.com/jmylchreest/cybor/internal/supervisor"
	"github.com/jmylchreest/cybor/internal/voice"
)

type fakeControl struct {
	mu      sync.Mutex
	reasons []string
}

func (c *fakeControl) RequestShutdown(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reasons = append(c.reasons, reason)
}

type fakeCues struct {
	mu     sync.Mutex
	played []voice.Cue
}

func (c *fakeCues) Play(cue voice.Cue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, cue)
}

type testRig struct {
	factory  *Factory
	recorder *pointer.Recorder
	cues     *fakeCues
	lines    map[string]string
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/home/user/Music", 0o755))

	cfg := config.DefaultConfig()
	cfg.Voice.HomeDir = "/home/user"

	rig := &testRig{
		recorder: pointer.NewRecorder(),
		cues:     &fakeCues{},
		lines:    map[string]string{},
	}
	rig.factory = NewFactory(cfg, Options{Cues: rig.cues, Fs: fs})
	rig.factory.newLines = func(source string, command []string) (input.LineSource, error) {
		return input.NewReaderAdapter(source, strings.NewReader(rig.lines[source])), nil
	}
	rig.factory.newPointer = func(string) (pointer.Pointer, error) {
		return rig.recorder, nil
	}
	return rig
}

func TestFactory_BuildWiresWorkers(t *testing.T) {
	rig := newTestRig(t)
	ctl := &fakeControl{}

	workers, err := rig.factory.Build(ctl)
	require.NoError(t, err)
	require.NotNil(t, workers.Gesture)
	require.NotNil(t, workers.Voice)
	assert.Same(t, rig.factory.Gesture(), workers.Gesture)
	assert.Same(t, rig.factory.Voice(), workers.Voice)

	// Copy is a voice command carried out by the gesture worker's pointer.
	reply, err := rig.factory.Dispatch(context.Background(), "copy")
	require.NoError(t, err)
	assert.Equal(t, "Copied", reply.Text)
	assert.Equal(t, "key "+pointer.KeyCopy, rig.recorder.Last())
	assert.Contains(t, rig.cues.played, voice.CueAck)

	_, err = rig.factory.Dispatch(context.Background(), "cybor exit")
	require.NoError(t, err)
	assert.Equal(t, []string{"voice command"}, ctl.reasons)
}

func TestFactory_Describe(t *testing.T) {
	rig := newTestRig(t)
	workers, err := rig.factory.Build(&fakeControl{})
	require.NoError(t, err)
	require.NotNil(t, workers.Describe)

	var st model.Status
	workers.Describe(&st)
	assert.True(t, st.Awake)
	assert.False(t, st.Recognizing, "gesture worker is not running yet")

	_, err = rig.factory.Dispatch(context.Background(), "sleep")
	require.NoError(t, err)
	workers.Describe(&st)
	assert.False(t, st.Awake)
}

func TestFactory_GestureFramesDrivePointer(t *testing.T) {
	rig := newTestRig(t)
	rig.lines[model.RoleGesture] = `{"gesture":"Left Click","x":0.5,"y":0.5,"confidence":0.95}` + "\n" +
		`not a frame` + "\n" +
		`{"gesture":"Right Click","x":0.5,"y":0.5,"confidence":0.2}` + "\n"

	_, err := rig.factory.Build(&fakeControl{})
	require.NoError(t, err)

	// The reader ends at EOF, so Start returns once every frame is handled.
	require.NoError(t, rig.factory.Gesture().Start(context.Background()))
	assert.Equal(t, []string{"click left"}, rig.recorder.Actions())
}

func TestFactory_VoiceTranscripts(t *testing.T) {
	rig := newTestRig(t)
	rig.lines[model.RoleVoice] = "music is playing\ncybor list files\n"

	var replies []voice.Reply
	rig.factory.responder = responderFunc(func(r voice.Reply) { replies = append(replies, r) })

	_, err := rig.factory.Build(&fakeControl{})
	require.NoError(t, err)
	require.NoError(t, rig.factory.Voice().Start(context.Background()))

	require.Len(t, replies, 1)
	assert.True(t, replies[0].Success)
	assert.Contains(t, replies[0].Text, "Music/")
}

type responderFunc func(voice.Reply)

func (f responderFunc) Respond(r voice.Reply) { f(r) }

func TestFactory_BuildFailures(t *testing.T) {
	tests := []struct {
		name       string
		failSource string
		failPtr    bool
		wantWorker string
	}{
		{name: "gesture detector", failSource: model.RoleGesture, wantWorker: model.RoleGesture},
		{name: "pointer", failPtr: true, wantWorker: model.RoleGesture},
		{name: "recognizer", failSource: model.RoleVoice, wantWorker: model.RoleVoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rig := newTestRig(t)
			cause := errors.New("not found in PATH")
			rig.factory.newLines = func(source string, _ []string) (input.LineSource, error) {
				if source == tt.failSource {
					return nil, cause
				}
				return input.NewReaderAdapter(source, strings.NewReader("")), nil
			}
			if tt.failPtr {
				rig.factory.newPointer = func(string) (pointer.Pointer, error) { return nil, cause }
			}

			_, err := rig.factory.Build(&fakeControl{})
			var initErr *supervisor.InitializationError
			require.ErrorAs(t, err, &initErr)
			assert.Equal(t, tt.wantWorker, initErr.Worker)
			assert.ErrorIs(t, err, cause)
			assert.Nil(t, rig.factory.Voice())
		})
	}
}

func TestFactory_DispatchBeforeBuild(t *testing.T) {
	rig := newTestRig(t)

	_, err := rig.factory.Dispatch(context.Background(), "what time is it")
	assert.ErrorIs(t, err, ErrNotBuilt)
}

func TestFactory_UpdateConfig(t *testing.T) {
	rig := newTestRig(t)

	cfg := config.DefaultConfig()
	cfg.Voice.HomeDir = "/home/user"
	cfg.Voice.WakeWord = "jarvis"
	rig.factory.UpdateConfig(cfg)

	_, err := rig.factory.Build(&fakeControl{})
	require.NoError(t, err)

	cfg2 := config.DefaultConfig()
	cfg2.Voice.WakeWord = "friday"
	assert.NotPanics(t, func() { rig.factory.UpdateConfig(cfg2) })

	reply, err := rig.factory.Dispatch(context.Background(), "friday what time is it")
	require.NoError(t, err)
	assert.True(t, reply.Success)
}
