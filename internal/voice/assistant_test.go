package voice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/adapter/input"
	"github.com/jmylchreest/cybor/internal/config"
)

type fakeGesture struct {
	mu          sync.Mutex
	recognizing bool
	keys        []string
	keyErr      error
}

func (g *fakeGesture) SuspendRecognition() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recognizing = false
}

func (g *fakeGesture) ResumeRecognition() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.recognizing = true
}

func (g *fakeGesture) Recognizing() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recognizing
}

func (g *fakeGesture) SendKeys(keys ...string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.keys = append(g.keys, keys...)
	return g.keyErr
}

type fakeSystem struct {
	reasons []string
}

func (s *fakeSystem) RequestShutdown(reason string) {
	s.reasons = append(s.reasons, reason)
}

type fakeOpener struct {
	targets []string
	err     error
}

func (o *fakeOpener) Open(_ context.Context, target string) error {
	o.targets = append(o.targets, target)
	return o.err
}

type fakeCues struct {
	mu     sync.Mutex
	played []Cue
}

func (c *fakeCues) Play(cue Cue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, cue)
}

func (c *fakeCues) Played() []Cue {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Cue(nil), c.played...)
}

type fakeResponder struct {
	mu      sync.Mutex
	replies []Reply
}

func (r *fakeResponder) Respond(reply Reply) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, reply)
}

func (r *fakeResponder) Replies() []Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Reply(nil), r.replies...)
}

type harness struct {
	assistant *Assistant
	gesture   *fakeGesture
	system    *fakeSystem
	opener    *fakeOpener
	cues      *fakeCues
	responder *fakeResponder
}

func testVoiceConfig() config.VoiceConfig {
	return config.VoiceConfig{
		WakeWord:  "cybor",
		SearchURL: config.DefaultSearchURL,
		MapsURL:   config.DefaultMapsURL,
	}
}

func newHarness(t *testing.T, cfg config.VoiceConfig, source Source) *harness {
	t.Helper()
	h := &harness{
		gesture:   &fakeGesture{recognizing: true},
		system:    &fakeSystem{},
		opener:    &fakeOpener{},
		cues:      &fakeCues{},
		responder: &fakeResponder{},
	}
	h.assistant = NewAssistant(cfg, source, Options{
		Navigator: NewNavigator(testFS(t), "/home/user"),
		Opener:    h.opener,
		Responder: h.responder,
		Cues:      h.cues,
		System:    h.system,
	})
	h.assistant.SetGesture(h.gesture)
	return h
}

func (h *harness) dispatch(t *testing.T, text string) Reply {
	t.Helper()
	reply, err := h.assistant.Dispatch(context.Background(), text)
	require.NoError(t, err)
	return reply
}

func TestAssistant_GestureCommands(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	reply := h.dispatch(t, "stop gesture recognition")
	assert.Equal(t, "Gesture recognition stopped", reply.Text)
	assert.False(t, h.gesture.Recognizing())

	reply = h.dispatch(t, "cybor launch gesture recognition")
	assert.Equal(t, "Gesture recognition started", reply.Text)
	assert.True(t, h.gesture.Recognizing())

	reply = h.dispatch(t, "launch gesture recognition")
	assert.Equal(t, "Gesture recognition already running", reply.Text)
	assert.Equal(t, ActionLaunchGesture, reply.Action)
	assert.NotEmpty(t, reply.ID)
}

func TestAssistant_SleepWake(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)
	require.True(t, h.assistant.Awake())

	assert.Equal(t, "Going to sleep", h.dispatch(t, "sleep").Text)
	assert.False(t, h.assistant.Awake())

	_, err := h.assistant.Dispatch(context.Background(), "copy")
	assert.ErrorContains(t, err, "asleep")
	assert.Empty(t, h.gesture.keys)

	assert.Equal(t, "I'm awake", h.dispatch(t, "wake up").Text)
	assert.True(t, h.assistant.Awake())
	assert.Equal(t, "Already awake", h.dispatch(t, "wake up").Text)

	assert.Equal(t, []Cue{CueSleep, CueError, CueWake}, h.cues.Played())
}

func TestAssistant_StartAsleep(t *testing.T) {
	cfg := testVoiceConfig()
	cfg.StartAsleep = true
	h := newHarness(t, cfg, nil)

	assert.False(t, h.assistant.Awake())
	h.assistant.Wake()
	assert.True(t, h.assistant.Awake())
}

func TestAssistant_Exit(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	assert.Equal(t, "Goodbye", h.dispatch(t, "exit").Text)
	assert.Equal(t, []string{"voice command"}, h.system.reasons)
}

func TestAssistant_SearchAndLocation(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	assert.Equal(t, "Searching for go generics", h.dispatch(t, "search go generics").Text)
	assert.Equal(t, "Finding Eiffel Tower", h.dispatch(t, "find location Eiffel Tower").Text)

	assert.Equal(t, []string{
		"https://www.google.com/search?q=go+generics",
		"https://www.google.com/maps/place/Eiffel%20Tower",
	}, h.opener.targets)
}

func TestAssistant_OpenerFailure(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)
	h.opener.err = errors.New("xdg-open: no handler")

	reply, err := h.assistant.Dispatch(context.Background(), "search cats")
	require.Error(t, err)
	assert.False(t, reply.Success)
	assert.Contains(t, reply.Text, "no handler")
	assert.Equal(t, []Cue{CueError}, h.cues.Played())
}

func TestAssistant_FileNavigation(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	reply := h.dispatch(t, "list files")
	assert.Equal(t, "4 items in /home/user: Documents/, Music/, notes.txt, Report.pdf", reply.Text)

	assert.Equal(t, "Opened folder Documents", h.dispatch(t, "open documents").Text)
	assert.Equal(t, "1 items in /home/user/Documents: Projects/", h.dispatch(t, "list files").Text)

	assert.Equal(t, "Now in /home/user", h.dispatch(t, "go back").Text)

	assert.Equal(t, "Opening Report.pdf", h.dispatch(t, "open report").Text)
	assert.Equal(t, []string{"/home/user/Report.pdf"}, h.opener.targets)

	_, err := h.assistant.Dispatch(context.Background(), "open taxes")
	assert.ErrorContains(t, err, `no file named "taxes"`)
}

func TestAssistant_ListFilesTruncates(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)
	for _, name := range strings.Fields("a b c d e f g h i j k l") {
		require.NoError(t, h.assistant.nav.fs.MkdirAll("/home/user/Many/"+name, 0o755))
	}
	h.dispatch(t, "open many")

	reply := h.dispatch(t, "list files")
	assert.True(t, strings.HasPrefix(reply.Text, "12 items in /home/user/Many: a/, b/"), reply.Text)
	assert.True(t, strings.HasSuffix(reply.Text, "and 2 more"), reply.Text)
}

func TestAssistant_Time(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)
	h.assistant.now = func() time.Time {
		return time.Date(2024, 3, 4, 9, 5, 0, 0, time.UTC)
	}

	assert.Equal(t, "It's Monday, 4 March 2024 at 09:05", h.dispatch(t, "what time is it").Text)
}

func TestAssistant_CopyPaste(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	assert.Equal(t, "Copied", h.dispatch(t, "copy").Text)
	assert.Equal(t, "Pasted", h.dispatch(t, "paste").Text)
	assert.Equal(t, []string{"ctrl+c", "ctrl+v"}, h.gesture.keys)
	assert.Equal(t, []Cue{CueAck, CueAck}, h.cues.Played())
}

func TestAssistant_WithoutGesture(t *testing.T) {
	a := NewAssistant(testVoiceConfig(), nil, Options{})

	_, err := a.Dispatch(context.Background(), "copy")
	assert.ErrorContains(t, err, "unavailable")

	_, err = a.Dispatch(context.Background(), "launch gesture recognition")
	assert.ErrorContains(t, err, "unavailable")
}

func TestAssistant_UnknownCommand(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), nil)

	reply, err := h.assistant.Dispatch(context.Background(), "make coffee")
	require.Error(t, err)
	assert.Equal(t, `Sorry, I don't know how to "make coffee"`, reply.Text)
	assert.Equal(t, reply, h.assistant.LastReply())
}

func TestAssistant_HearsTranscripts(t *testing.T) {
	transcripts := strings.Join([]string{
		"what a lovely day",
		"cybor copy",
		"cybor sleep",
		"cybor paste",
		"cybor make coffee",
		"cybor wake up",
		"cybor paste",
	}, "\n")

	src := input.NewReaderAdapter("voice", strings.NewReader(transcripts))
	h := newHarness(t, testVoiceConfig(), src)

	err := h.assistant.Start(context.Background())
	require.NoError(t, err)
	assert.False(t, h.assistant.Running())

	var texts []string
	for _, r := range h.responder.Replies() {
		texts = append(texts, r.Text)
	}
	assert.Equal(t, []string{"Copied", "Going to sleep", "I'm awake", "Pasted"}, texts)
	assert.Equal(t, []string{"ctrl+c", "ctrl+v"}, h.gesture.keys)
}

func TestAssistant_HearsUnknownWhileAwake(t *testing.T) {
	src := input.NewReaderAdapter("voice", strings.NewReader("cybor make coffee\n"))
	h := newHarness(t, testVoiceConfig(), src)

	require.NoError(t, h.assistant.Start(context.Background()))

	replies := h.responder.Replies()
	require.Len(t, replies, 1)
	assert.False(t, replies[0].Success)
}

func TestAssistant_CustomWakeWord(t *testing.T) {
	cfg := testVoiceConfig()
	cfg.WakeWord = "hey jarvis"
	src := input.NewReaderAdapter("voice", strings.NewReader("cybor copy\nHey Jarvis, copy\n"))
	h := newHarness(t, cfg, src)

	require.NoError(t, h.assistant.Start(context.Background()))
	assert.Equal(t, []string{"ctrl+c"}, h.gesture.keys)
}

func TestAssistant_StartStop(t *testing.T) {
	pr, pw := newBlockingSource()
	defer pw()

	h := newHarness(t, testVoiceConfig(), pr)

	done := make(chan error, 1)
	go func() { done <- h.assistant.Start(context.Background()) }()

	require.Eventually(t, h.assistant.Running, time.Second, time.Millisecond)
	require.NoError(t, h.assistant.Stop())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestAssistant_StartReturnsSourceError(t *testing.T) {
	h := newHarness(t, testVoiceConfig(), errSource{errors.New("microphone unplugged")})

	err := h.assistant.Start(context.Background())
	assert.EqualError(t, err, "microphone unplugged")
}

type errSource struct{ err error }

func (s errSource) Run(context.Context, func(string)) error { return s.err }

// blockingSource emits nothing and returns when ctx is done.
type blockingSource struct{ release chan struct{} }

func newBlockingSource() (*blockingSource, func()) {
	s := &blockingSource{release: make(chan struct{})}
	return s, func() { close(s.release) }
}

func (s *blockingSource) Run(ctx context.Context, _ func(string)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}
