package voice

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/pointer"
)

// maxListed bounds how many names a "list files" reply spells out.
const maxListed = 10

// GestureControl is what the voice worker may ask of the gesture worker.
type GestureControl interface {
	SuspendRecognition()
	ResumeRecognition()
	Recognizing() bool
	SendKeys(keys ...string) error
}

// SystemControl is what the voice worker may ask of the supervisor.
type SystemControl interface {
	RequestShutdown(reason string)
}

// Source produces transcripts until it is exhausted or ctx is cancelled.
type Source interface {
	Run(ctx context.Context, emit func(text string)) error
}

// Cue is a short sound played on assistant events.
type Cue string

const (
	CueWake  Cue = "wake"
	CueSleep Cue = "sleep"
	CueAck   Cue = "ack"
	CueError Cue = "error"
)

// Cues plays audio cues. Implementations must not block.
type Cues interface {
	Play(cue Cue)
}

// Responder delivers replies to the user.
type Responder interface {
	Respond(reply Reply)
}

// Reply is the outcome of a dispatched command.
type Reply struct {
	ID      string `json:"id"`
	Action  Action `json:"action,omitempty"`
	Text    string `json:"text"`
	Success bool   `json:"success"`
}

// ErrAsleep is returned for commands other than "wake up" while asleep.
var ErrAsleep = errors.New("assistant is asleep")

// Options holds the optional collaborators of an Assistant.
type Options struct {
	Navigator *Navigator
	Opener    Opener
	Responder Responder
	Cues      Cues
	System    SystemControl
	Logger    *slog.Logger
}

// Assistant is the voice worker.
type Assistant struct {
	logger    *slog.Logger
	source    Source
	nav       *Navigator
	opener    Opener
	responder Responder
	cues      Cues
	now       func() time.Time

	awake   atomic.Bool
	running atomic.Bool

	runMu  sync.Mutex
	cancel context.CancelFunc

	mu      sync.Mutex
	cfg     config.VoiceConfig
	gesture GestureControl
	system  SystemControl
	last    Reply
}

// NewAssistant creates a voice Assistant reading transcripts from source.
func NewAssistant(cfg config.VoiceConfig, source Source, opts Options) *Assistant {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &Assistant{
		logger:    logger,
		source:    source,
		nav:       opts.Navigator,
		opener:    opts.Opener,
		responder: opts.Responder,
		cues:      opts.Cues,
		system:    opts.System,
		cfg:       cfg,
		now:       time.Now,
	}
	a.awake.Store(!cfg.StartAsleep)
	return a
}

// SetGesture wires the gesture worker.
func (a *Assistant) SetGesture(g GestureControl) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.gesture = g
}

// SetSystem wires the supervisor.
func (a *Assistant) SetSystem(s SystemControl) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.system = s
}

// UpdateConfig applies new settings. The recognizer command is only read at construction.
func (a *Assistant) UpdateConfig(cfg config.VoiceConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
}

// Start reads transcripts until Stop is called, ctx is cancelled, or the
// recognizer fails. It blocks.
func (a *Assistant) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.cancel != nil {
		a.runMu.Unlock()
		return errors.New("voice assistant already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.runMu.Unlock()

	defer func() {
		a.runMu.Lock()
		a.cancel = nil
		a.runMu.Unlock()
		cancel()
	}()

	a.running.Store(true)
	defer a.running.Store(false)

	a.logger.Info("voice assistant listening", "wake_word", a.wakeWord(), "awake", a.Awake())

	err := a.source.Run(runCtx, func(text string) {
		a.hear(runCtx, text)
	})

	a.logger.Info("voice assistant stopped")

	if runCtx.Err() != nil {
		return runCtx.Err()
	}
	return err
}

// Stop ends the current run. It does not wait for Start to return.
func (a *Assistant) Stop() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}

// Running reports whether Start is active.
func (a *Assistant) Running() bool {
	return a.running.Load()
}

// Wake makes the assistant act on all commands.
func (a *Assistant) Wake() {
	if a.awake.Swap(true) {
		return
	}
	a.logger.Info("voice assistant awake")
	a.play(CueWake)
}

// Sleep makes the assistant ignore everything except "wake up".
func (a *Assistant) Sleep() {
	if !a.awake.Swap(false) {
		return
	}
	a.logger.Info("voice assistant asleep")
	a.play(CueSleep)
}

// Awake reports whether the assistant is acting on commands.
func (a *Assistant) Awake() bool {
	return a.awake.Load()
}

// LastReply returns the most recent reply.
func (a *Assistant) LastReply() Reply {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// hear handles one recognizer transcript. Transcripts without the wake word
// and commands heard while asleep are dropped quietly.
func (a *Assistant) hear(ctx context.Context, text string) {
	req, err := Parse(text, a.wakeWord())
	if errors.Is(err, ErrNoWakeWord) {
		a.logger.Debug("ignoring transcript", "text", text)
		return
	}
	if !a.Awake() && (err != nil || req.Command.Action != ActionWake) {
		a.logger.Debug("asleep, ignoring transcript", "text", text)
		return
	}

	reply := a.run(ctx, req, err)
	if a.responder != nil {
		a.responder.Respond(reply)
	}
}

// Dispatch runs a command given as text, with or without the wake word.
// It is the entry point for commands that do not come from the recognizer.
func (a *Assistant) Dispatch(ctx context.Context, text string) (Reply, error) {
	if rest, ok := StripWakeWord(text, a.wakeWord()); ok {
		text = rest
	}

	req, err := ParseCommand(text)
	if err == nil && !a.Awake() && req.Command.Action != ActionWake {
		err = ErrAsleep
	}

	reply := a.run(ctx, req, err)
	if !reply.Success {
		return reply, errors.New(reply.Text)
	}
	return reply, nil
}

// run executes a parsed request and records the reply.
func (a *Assistant) run(ctx context.Context, req Request, parseErr error) Reply {
	reply := Reply{ID: newCommandID(), Action: req.Command.Action}
	logger := a.logger.With("command_id", reply.ID)

	var err error
	if parseErr != nil {
		err = parseErr
	} else {
		logger.Info("dispatching command", "command", req.Command.Phrase, "arg", req.Arg)
		reply.Text, err = a.execute(ctx, req)
	}

	if err != nil {
		reply.Text = describeError(req, err)
		logger.Warn("command failed", "text", req.Text, "error", err)
		a.play(CueError)
	} else {
		reply.Success = true
		if req.Command.Action != ActionWake && req.Command.Action != ActionSleep {
			a.play(CueAck)
		}
	}

	a.mu.Lock()
	a.last = reply
	a.mu.Unlock()
	return reply
}

func (a *Assistant) execute(ctx context.Context, req Request) (string, error) {
	a.mu.Lock()
	cfg := a.cfg
	gesture := a.gesture
	system := a.system
	a.mu.Unlock()

	switch req.Command.Action {
	case ActionLaunchGesture:
		if gesture == nil {
			return "", errors.New("gesture recognition unavailable")
		}
		if gesture.Recognizing() {
			return "Gesture recognition already running", nil
		}
		gesture.ResumeRecognition()
		return "Gesture recognition started", nil

	case ActionStopGesture:
		if gesture == nil {
			return "", errors.New("gesture recognition unavailable")
		}
		gesture.SuspendRecognition()
		return "Gesture recognition stopped", nil

	case ActionSleep:
		a.Sleep()
		return "Going to sleep", nil

	case ActionWake:
		if a.Awake() {
			return "Already awake", nil
		}
		a.Wake()
		return "I'm awake", nil

	case ActionExit:
		if system == nil {
			return "", errors.New("exit unavailable")
		}
		system.RequestShutdown("voice command")
		return "Goodbye", nil

	case ActionSearch:
		return "Searching for " + req.Arg, a.open(ctx, fmt.Sprintf(cfg.SearchURL, url.QueryEscape(req.Arg)))

	case ActionFindLocation:
		return "Finding " + req.Arg, a.open(ctx, fmt.Sprintf(cfg.MapsURL, url.PathEscape(req.Arg)))

	case ActionListFiles:
		return a.listFiles()

	case ActionOpen:
		return a.openEntry(ctx, req.Arg)

	case ActionGoBack:
		if a.nav == nil {
			return "", errors.New("file navigation unavailable")
		}
		return "Now in " + a.nav.Back(), nil

	case ActionTime:
		return a.now().Format("It's Monday, 2 January 2006 at 15:04"), nil

	case ActionCopy:
		return "Copied", a.sendKeys(gesture, pointer.KeyCopy)

	case ActionPaste:
		return "Pasted", a.sendKeys(gesture, pointer.KeyPaste)
	}

	return "", ErrUnknownCommand
}

func (a *Assistant) open(ctx context.Context, target string) error {
	if a.opener == nil {
		return errors.New("no opener configured")
	}
	return a.opener.Open(ctx, target)
}

func (a *Assistant) listFiles() (string, error) {
	if a.nav == nil {
		return "", errors.New("file navigation unavailable")
	}

	entries, err := a.nav.List()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return a.nav.Dir() + " is empty", nil
	}

	names := make([]string, 0, maxListed)
	for i, e := range entries {
		if i == maxListed {
			break
		}
		if e.IsDir {
			names = append(names, e.Name+"/")
		} else {
			names = append(names, e.Name)
		}
	}

	text := fmt.Sprintf("%d items in %s: %s", len(entries), a.nav.Dir(), strings.Join(names, ", "))
	if more := len(entries) - len(names); more > 0 {
		text += fmt.Sprintf(" and %d more", more)
	}
	return text, nil
}

func (a *Assistant) openEntry(ctx context.Context, name string) (string, error) {
	if a.nav == nil {
		return "", errors.New("file navigation unavailable")
	}

	path, info, err := a.nav.Resolve(name)
	if err != nil {
		return "", fmt.Errorf("no file named %q in %s", name, a.nav.Dir())
	}

	if info.IsDir() {
		if err := a.nav.Enter(path); err != nil {
			return "", err
		}
		return "Opened folder " + filepath.Base(path), nil
	}
	return "Opening " + filepath.Base(path), a.open(ctx, path)
}

func (a *Assistant) sendKeys(gesture GestureControl, keys ...string) error {
	if gesture == nil {
		return errors.New("keyboard control unavailable")
	}
	return gesture.SendKeys(keys...)
}

func (a *Assistant) play(cue Cue) {
	if a.cues != nil {
		a.cues.Play(cue)
	}
}

func (a *Assistant) wakeWord() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg.WakeWord == "" {
		return config.DefaultWakeWord
	}
	return a.cfg.WakeWord
}

func describeError(req Request, err error) string {
	switch {
	case errors.Is(err, ErrUnknownCommand):
		return fmt.Sprintf("Sorry, I don't know how to %q", req.Text)
	case errors.Is(err, ErrMissingArgument):
		return fmt.Sprintf("Please say what to %s", req.Command.Phrase)
	case errors.Is(err, ErrAsleep):
		return "I'm asleep, say wake up first"
	default:
		return err.Error()
	}
}

func newCommandID() string {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return ""
	}
	return id.String()
}
