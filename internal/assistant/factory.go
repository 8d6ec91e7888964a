// Package assistant builds the gesture and voice workers from configuration
// and wires them to each other for the supervisor.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/jmylchreest/cybor/internal/adapter/input"
	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/gesture"
	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/pointer"
	"github.com/jmylchreest/cybor/internal/supervisor"
	"github.com/jmylchreest/cybor/internal/voice"
)

// ErrNotBuilt is returned when commands arrive before the workers exist.
var ErrNotBuilt = errors.New("workers not built")

// Options holds the collaborators shared by the workers.
type Options struct {
	Cues      voice.Cues
	Responder voice.Responder
	Fs        afero.Fs // Defaults to the OS filesystem
	Logger    *slog.Logger
}

// Factory builds the worker pair. Its Build method is a supervisor.BuildFunc.
type Factory struct {
	logger    *slog.Logger
	cues      voice.Cues
	responder voice.Responder
	fs        afero.Fs

	newLines   func(source string, command []string) (input.LineSource, error)
	newPointer func(command string) (pointer.Pointer, error)

	mu        sync.Mutex
	cfg       *config.Config
	gesture   *gesture.Controller
	assistant *voice.Assistant
}

// NewFactory creates a Factory for cfg.
func NewFactory(cfg *config.Config, opts Options) *Factory {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return &Factory{
		logger:    logger,
		cues:      opts.Cues,
		responder: opts.Responder,
		fs:        fs,
		cfg:       cfg,
		newLines:  input.NewAdapter,
		newPointer: func(command string) (pointer.Pointer, error) {
			x, err := pointer.NewXdotool(command)
			if err != nil {
				return nil, err
			}
			return x, nil
		},
	}
}

// Build constructs both workers, cross-wires their capabilities and
// returns them for supervision. Any failure is an InitializationError.
func (f *Factory) Build(ctl supervisor.Control) (supervisor.Workers, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cfg := f.cfg

	frames, err := f.newLines(model.RoleGesture, cfg.Gesture.Command)
	if err != nil {
		return supervisor.Workers{}, &supervisor.InitializationError{Worker: model.RoleGesture, Err: err}
	}
	ptr, err := f.newPointer(cfg.Gesture.PointerCommand)
	if err != nil {
		return supervisor.Workers{}, &supervisor.InitializationError{Worker: model.RoleGesture, Err: err}
	}

	transcripts, err := f.newLines(model.RoleVoice, cfg.Voice.Command)
	if err != nil {
		return supervisor.Workers{}, &supervisor.InitializationError{Worker: model.RoleVoice, Err: err}
	}

	gc := gesture.NewController(cfg.Gesture,
		gesture.NewLineSource(frames, f.logger.With("worker", model.RoleGesture)),
		ptr,
		f.logger.With("worker", model.RoleGesture),
	)

	va := voice.NewAssistant(cfg.Voice, transcripts, voice.Options{
		Navigator: voice.NewNavigator(f.fs, config.ExpandPath(cfg.Voice.HomeDir)),
		Opener:    voice.NewExecOpener(cfg.Voice.OpenCommand),
		Responder: f.responder,
		Cues:      f.cues,
		System:    ctl,
		Logger:    f.logger.With("worker", model.RoleVoice),
	})

	gc.SetVoice(va)
	va.SetGesture(gc)

	f.gesture = gc
	f.assistant = va

	f.logger.Debug("workers built",
		"gesture_source", frames.Name(),
		"voice_source", transcripts.Name(),
		"pointer", cfg.Gesture.PointerCommand,
	)

	return supervisor.Workers{
		Gesture: gc,
		Voice:   va,
		Describe: func(s *model.Status) {
			s.Recognizing = gc.Recognizing()
			s.Awake = va.Awake()
		},
	}, nil
}

// Dispatch runs a text command on the voice worker.
func (f *Factory) Dispatch(ctx context.Context, text string) (voice.Reply, error) {
	f.mu.Lock()
	va := f.assistant
	f.mu.Unlock()

	if va == nil {
		return voice.Reply{Text: ErrNotBuilt.Error()}, ErrNotBuilt
	}
	return va.Dispatch(ctx, text)
}

// UpdateConfig passes reloadable settings to the built workers.
// Collaborator commands are only read by Build.
func (f *Factory) UpdateConfig(cfg *config.Config) {
	f.mu.Lock()
	f.cfg = cfg
	g, va := f.gesture, f.assistant
	f.mu.Unlock()

	if g != nil {
		g.UpdateConfig(cfg.Gesture)
	}
	if va != nil {
		va.UpdateConfig(cfg.Voice)
	}
}

// Gesture returns the built gesture worker, or nil.
func (f *Factory) Gesture() *gesture.Controller {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gesture
}

// Voice returns the built voice worker, or nil.
func (f *Factory) Voice() *voice.Assistant {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assistant
}
