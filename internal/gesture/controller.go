package gesture

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/pointer"
)

// actionTimeout bounds pointer calls made outside a running frame loop.
const actionTimeout = 2 * time.Second

// VoiceControl is what the gesture worker may ask of the voice worker.
type VoiceControl interface {
	Wake()
	Sleep()
	Awake() bool
}

// ErrAlreadyRunning is returned by Start while a previous run is active.
var ErrAlreadyRunning = errors.New("gesture controller already running")

// Controller is the gesture worker. It consumes frames from a Source and
// drives a Pointer.
type Controller struct {
	logger  *slog.Logger
	source  Source
	pointer pointer.Pointer
	now     func() time.Time

	suspended atomic.Bool
	running   atomic.Bool

	runMu  sync.Mutex
	cancel context.CancelFunc

	mu    sync.Mutex
	cfg   config.GestureConfig
	voice VoiceControl
	track tracking
}

// tracking is the per-run gesture state. Guarded by Controller.mu.
type tracking struct {
	current Kind

	smoothX, smoothY float64
	havePos          bool

	anchorX, anchorY float64

	dragging  bool
	selecting bool

	neutralSince time.Time
	neutralFired bool
}

// NewController creates a gesture Controller.
func NewController(cfg config.GestureConfig, source Source, p pointer.Pointer, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		logger:  logger,
		source:  source,
		pointer: p,
		now:     time.Now,
		cfg:     cfg,
	}
	c.suspended.Store(cfg.StartSuspended)
	return c
}

// SetVoice wires the voice worker.
func (c *Controller) SetVoice(v VoiceControl) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voice = v
}

// UpdateConfig applies new thresholds. The detector command is only read at construction.
func (c *Controller) UpdateConfig(cfg config.GestureConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// Start consumes frames until Stop is called, ctx is cancelled, or the
// source fails. It blocks.
func (c *Controller) Start(ctx context.Context) error {
	c.runMu.Lock()
	if c.cancel != nil {
		c.runMu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.runMu.Unlock()

	defer func() {
		c.runMu.Lock()
		c.cancel = nil
		c.runMu.Unlock()
		cancel()
	}()

	c.mu.Lock()
	c.track = tracking{current: Neutral, neutralSince: c.now(), neutralFired: true}
	c.mu.Unlock()

	c.running.Store(true)
	defer c.running.Store(false)

	c.logger.Info("gesture recognition started", "recognizing", c.Recognizing())

	err := c.source.Run(runCtx, func(f Frame) {
		c.handle(runCtx, f)
	})

	c.release()
	c.logger.Info("gesture recognition stopped")

	if runCtx.Err() != nil {
		return runCtx.Err()
	}
	return err
}

// Stop ends the current run. It does not wait for Start to return.
func (c *Controller) Stop() error {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// SuspendRecognition ignores frames until ResumeRecognition. The worker
// stays alive while suspended.
func (c *Controller) SuspendRecognition() {
	if c.suspended.Swap(true) {
		return
	}
	c.release()
	c.logger.Info("gesture recognition suspended")
}

// ResumeRecognition resumes acting on frames.
func (c *Controller) ResumeRecognition() {
	if !c.suspended.Swap(false) {
		return
	}
	c.mu.Lock()
	c.track.havePos = false
	c.mu.Unlock()
	c.logger.Info("gesture recognition resumed")
}

// Recognizing reports whether frames are currently acted on.
func (c *Controller) Recognizing() bool {
	return c.running.Load() && !c.suspended.Load()
}

// Running reports whether Start is active.
func (c *Controller) Running() bool {
	return c.running.Load()
}

// SendKeys taps key combinations on behalf of the voice worker.
func (c *Controller) SendKeys(keys ...string) error {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	return c.pointer.Key(ctx, keys...)
}

// Current returns the gesture being tracked.
func (c *Controller) Current() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.track.current
}

func (c *Controller) handle(ctx context.Context, f Frame) {
	if c.suspended.Load() {
		return
	}

	c.mu.Lock()
	cfg := c.cfg
	if f.Confidence < cfg.ConfidenceThreshold {
		c.mu.Unlock()
		return
	}

	g, ok := Lookup(f.Gesture)
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("unknown gesture", "gesture", f.Gesture)
		return
	}

	if g.Kind != c.track.current {
		c.logger.Debug("gesture changed", "from", c.track.current, "to", g.Kind, "confidence", f.Confidence)
		c.leave(ctx, c.track.current)
		c.enter(ctx, g.Kind, f)
		c.track.current = g.Kind
	}

	wake := c.continuous(ctx, g.Kind, f, cfg)
	voice := c.voice
	c.mu.Unlock()

	if wake && voice != nil && !voice.Awake() {
		c.logger.Info("neutral hold, waking voice assistant")
		voice.Wake()
	}
}

// enter performs edge-triggered actions. Called with c.mu held.
func (c *Controller) enter(ctx context.Context, k Kind, f Frame) {
	t := &c.track

	switch k {
	case Neutral:
		c.releaseLocked(ctx)
		t.neutralSince = c.now()
		t.neutralFired = false
	case LeftClick:
		c.act("click", c.pointer.Click(ctx, pointer.ButtonLeft))
	case RightClick:
		c.act("click", c.pointer.Click(ctx, pointer.ButtonRight))
	case DoubleClick:
		c.act("doubleclick", c.pointer.DoubleClick(ctx, pointer.ButtonLeft))
	case DragAndDrop:
		if !t.dragging {
			c.act("drag", c.pointer.ButtonDown(ctx, pointer.ButtonLeft))
			t.dragging = true
		}
	case MultipleSelection:
		if !t.selecting {
			c.act("select", c.pointer.KeyDown(ctx, pointer.KeyCtrl))
			t.selecting = true
		}
	case Scrolling, VolumeControl, BrightnessControl:
		t.anchorX, t.anchorY = f.X, f.Y
	}
}

// leave ends gestures that hold state across frames. Called with c.mu held.
func (c *Controller) leave(ctx context.Context, k Kind) {
	if k == DragAndDrop && c.track.dragging {
		c.act("drop", c.pointer.ButtonUp(ctx, pointer.ButtonLeft))
		c.track.dragging = false
	}
}

// continuous handles per-frame movement. It reports whether the voice
// worker should be woken. Called with c.mu held.
func (c *Controller) continuous(ctx context.Context, k Kind, f Frame, cfg config.GestureConfig) bool {
	t := &c.track

	switch k {
	case MoveCursor, DragAndDrop, MultipleSelection:
		c.moveTo(ctx, f, cfg)

	case Scrolling:
		if n := steps(&t.anchorY, f.Y, cfg.ScrollStep); n != 0 {
			// Hand moving up (y decreasing) scrolls up.
			c.act("scroll", c.pointer.Scroll(ctx, -n))
		}

	case VolumeControl:
		if n := steps(&t.anchorX, f.X, cfg.AdjustStep); n != 0 {
			c.act("volume", c.pointer.Key(ctx, repeatKey(pointer.KeyVolumeUp, pointer.KeyVolumeDown, n)...))
		}

	case BrightnessControl:
		if n := steps(&t.anchorY, f.Y, cfg.AdjustStep); n != 0 {
			c.act("brightness", c.pointer.Key(ctx, repeatKey(pointer.KeyBrightnessUp, pointer.KeyBrightnessDown, -n)...))
		}

	case Neutral:
		if !t.neutralFired && cfg.WakeVoiceOnNeutral && c.now().Sub(t.neutralSince) >= cfg.NeutralHold.Duration() {
			t.neutralFired = true
			return true
		}
	}
	return false
}

// moveTo smooths the position and moves the cursor. Called with c.mu held.
func (c *Controller) moveTo(ctx context.Context, f Frame, cfg config.GestureConfig) {
	t := &c.track
	x, y := clamp01(f.X), clamp01(f.Y)

	if !t.havePos {
		t.smoothX, t.smoothY = x, y
		t.havePos = true
	} else {
		a := cfg.Smoothing
		t.smoothX = a*t.smoothX + (1-a)*x
		t.smoothY = a*t.smoothY + (1-a)*y
	}

	px := int(math.Round(t.smoothX * float64(cfg.ScreenWidth-1)))
	py := int(math.Round(t.smoothY * float64(cfg.ScreenHeight-1)))
	c.act("move", c.pointer.MoveTo(ctx, px, py))
}

// release lets go of any held button or key.
func (c *Controller) release() {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(ctx)
	c.track.current = Neutral
	c.track.neutralFired = true
}

func (c *Controller) releaseLocked(ctx context.Context) {
	if c.track.dragging {
		c.act("drop", c.pointer.ButtonUp(ctx, pointer.ButtonLeft))
		c.track.dragging = false
	}
	if c.track.selecting {
		c.act("select", c.pointer.KeyUp(ctx, pointer.KeyCtrl))
		c.track.selecting = false
	}
}

// act logs a failed pointer action. Failures never stop the worker.
func (c *Controller) act(action string, err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("pointer action failed", "action", action, "error", err)
	}
}

// steps converts travel from *anchor to value into whole steps and moves
// the anchor by the consumed distance.
func steps(anchor *float64, value, step float64) int {
	if step <= 0 {
		return 0
	}
	q := (value - *anchor) / step
	n := int(q + math.Copysign(1e-9, q))
	*anchor += float64(n) * step
	return n
}

func repeatKey(up, down string, n int) []string {
	key := up
	if n < 0 {
		key = down
		n = -n
	}
	keys := make([]string, n)
	for i := range keys {
		keys[i] = key
	}
	return keys
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
