package audio

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/voice"
)

type fakeSink struct {
	mu        sync.Mutex
	played    []string
	preloaded []string
	volume    float64
	cleared   int
	closed    int
}

func (s *fakeSink) Play(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, path)
	return nil
}

func (s *fakeSink) Preload(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preloaded = append(s.preloaded, path)
	return nil
}

func (s *fakeSink) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

func (s *fakeSink) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *fakeSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
}

func (s *fakeSink) Played() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.played...)
}

func testAudioConfig() config.AudioConfig {
	return config.AudioConfig{
		Enabled: true,
		Volume:  50,
		Sounds: config.CueSounds{
			Wake: "/sounds/wake.wav",
			Ack:  "/sounds/ack.ogg",
		},
	}
}

func TestManager_PlaysCues(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(testAudioConfig(), sink, nil)
	assert.Equal(t, 0.5, sink.volume)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()

	assert.ElementsMatch(t, []string{"/sounds/wake.wav", "/sounds/ack.ogg"}, sink.preloaded)

	m.Play(voice.CueWake)
	m.Play(voice.CueSleep) // not configured
	m.Play(voice.CueAck)

	require.Eventually(t, func() bool { return len(sink.Played()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"/sounds/wake.wav", "/sounds/ack.ogg"}, sink.Played())
}

func TestManager_Disabled(t *testing.T) {
	cfg := testAudioConfig()
	cfg.Enabled = false
	sink := &fakeSink{}
	m := newManager(cfg, sink, nil)

	require.NoError(t, m.Start(context.Background()))
	m.Play(voice.CueWake)
	m.Stop()

	assert.Empty(t, sink.Played())
	assert.Empty(t, sink.preloaded)
	assert.Equal(t, 1, sink.closed)
}

func TestManager_PlayBeforeStart(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(testAudioConfig(), sink, nil)

	m.Play(voice.CueWake)
	m.Stop()

	assert.Empty(t, sink.Played())
	assert.Equal(t, 0, sink.closed)
}

func TestManager_UpdateConfig(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(testAudioConfig(), sink, nil)

	cfg := testAudioConfig()
	cfg.Volume = 20
	cfg.Sounds = config.CueSounds{Error: "/sounds/error.mp3"}
	m.UpdateConfig(cfg)

	assert.Equal(t, 0.2, sink.volume)
	assert.Equal(t, 1, sink.cleared)
	assert.Equal(t, map[voice.Cue]string{voice.CueError: "/sounds/error.mp3"}, m.Sounds())
	assert.Equal(t, []string{"/sounds/error.mp3"}, sink.preloaded)
}

func TestManager_ExpandsHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	cfg := testAudioConfig()
	cfg.Sounds = config.CueSounds{Sleep: "~/sounds/sleep.wav"}
	m := newManager(cfg, &fakeSink{}, nil)

	assert.Equal(t, "/home/tester/sounds/sleep.wav", m.Sounds()[voice.CueSleep])
}

func TestManager_StopIdempotent(t *testing.T) {
	sink := &fakeSink{}
	m := newManager(testAudioConfig(), sink, nil)

	require.NoError(t, m.Start(context.Background()))
	require.NoError(t, m.Start(context.Background()))
	m.Stop()
	m.Stop()

	assert.Equal(t, 1, sink.closed)
}
