// Package supervisor owns the lifecycle of the gesture and voice workers.
// It launches both, polls their liveness flags, relaunches them when both
// have died, and shuts them down in order when asked to exit.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/cybor/internal/config"
	"github.com/jmylchreest/cybor/internal/model"
)

// Worker is a long-running activity supervised by the Supervisor.
type Worker interface {
	// Start runs the worker's main loop and blocks until it is stopped or fails.
	Start(ctx context.Context) error

	// Stop signals the main loop to exit. It must not block on the loop.
	Stop() error
}

// Workers is the pair of workers produced by a BuildFunc.
type Workers struct {
	Gesture Worker
	Voice   Worker

	// Describe optionally adds worker-specific fields to status snapshots.
	Describe func(s *model.Status)
}

// Control is what workers may ask of the supervisor.
type Control interface {
	RequestShutdown(reason string)
}

// BuildFunc constructs both workers and wires them to each other.
type BuildFunc func(ctl Control) (Workers, error)

// RestartCallback is invoked after a worker has been relaunched.
type RestartCallback func(role string, restarts int64)

// ChangeCallback is invoked with a fresh snapshot whenever worker state changes.
type ChangeCallback func(status model.Status)

// Supervisor starts, monitors, restarts and stops the two workers.
// A Supervisor runs once; construct a new one to run again.
type Supervisor struct {
	initMu sync.Mutex
	mu     sync.Mutex
	logger *slog.Logger
	build  BuildFunc
	state  *State
	now    func() time.Time

	sessionID string
	version   string
	mode      string

	monitorInterval atomic.Int64
	statusInterval  atomic.Int64
	shutdownGrace   atomic.Int64

	workers       Workers
	initialized   bool
	started       bool
	workerCtx     context.Context
	cancelWorkers context.CancelFunc
	wg            sync.WaitGroup

	stopCh   chan struct{}
	stopOnce sync.Once

	shutdown atomic.Bool
	finished atomic.Bool
	uptime   atomic.Int64

	onRestart RestartCallback
	onChange  ChangeCallback
}

// New creates a Supervisor. The state's start time is taken now.
func New(cfg config.SupervisorConfig, build BuildFunc, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Supervisor{
		logger:  logger,
		build:   build,
		now:     time.Now,
		mode:    cfg.Mode,
		version: "dev",
		stopCh:  make(chan struct{}),
	}
	s.state = newState(s.now())
	s.UpdateConfig(cfg)

	if id, err := model.NewSessionID(); err == nil {
		s.sessionID = id
	} else {
		logger.Warn("failed to generate session id", "error", err)
	}

	return s
}

// SetVersion sets the version reported in status snapshots.
func (s *Supervisor) SetVersion(version string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version = version
}

// SetRestartCallback sets the callback invoked after a worker restart.
func (s *Supervisor) SetRestartCallback(callback RestartCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRestart = callback
}

// SetChangeCallback sets the callback invoked when worker state changes.
func (s *Supervisor) SetChangeCallback(callback ChangeCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = callback
}

// UpdateConfig applies supervisor settings. Interval changes take effect
// at the next poll.
func (s *Supervisor) UpdateConfig(cfg config.SupervisorConfig) {
	s.mu.Lock()
	s.mode = cfg.Mode
	s.mu.Unlock()

	interval := cfg.MonitorInterval.Duration()
	if interval <= 0 {
		interval = config.DefaultMonitorInterval
	}
	s.monitorInterval.Store(int64(interval))
	s.statusInterval.Store(int64(cfg.StatusInterval.Duration()))
	s.shutdownGrace.Store(int64(cfg.ShutdownGrace.Duration()))
}

// State returns the live system state.
func (s *Supervisor) State() *State {
	return s.state
}

// SessionID returns the ULID identifying this run.
func (s *Supervisor) SessionID() string {
	return s.sessionID
}

// Initialize constructs and wires both workers.
// Calling it again after success is a no-op.
func (s *Supervisor) Initialize() error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	s.mu.Lock()
	initialized := s.initialized
	build := s.build
	s.mu.Unlock()

	if initialized {
		return nil
	}
	if build == nil {
		return &InitializationError{Err: errors.New("no worker builder configured")}
	}

	s.logger.Info("initializing workers")
	workers, err := build(s)
	if err != nil {
		var initErr *InitializationError
		if errors.As(err, &initErr) {
			return initErr
		}
		return &InitializationError{Err: err}
	}
	if workers.Gesture == nil {
		return &InitializationError{Worker: model.RoleGesture, Err: errors.New("builder returned no worker")}
	}
	if workers.Voice == nil {
		return &InitializationError{Worker: model.RoleVoice, Err: errors.New("builder returned no worker")}
	}

	s.mu.Lock()
	s.workers = workers
	s.initialized = true
	s.mu.Unlock()

	s.logger.Info("workers initialized")
	return nil
}

// Start initializes the workers, launches them and runs the monitoring loop
// until ctx is cancelled or RequestShutdown is called. It then shuts down.
// If initialization fails no worker is launched and the error is returned.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.Initialize(); err != nil {
		s.logger.Error("initialization failed, not starting workers", "error", err)
		return err
	}

	s.mu.Lock()
	if s.started || s.shutdown.Load() {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	// Workers outlive ctx so that Shutdown can stop them cooperatively first.
	s.workerCtx, s.cancelWorkers = context.WithCancel(context.WithoutCancel(ctx))
	workers := s.workers
	s.mu.Unlock()

	s.state.running.Store(true)
	s.logger.Info("starting workers", "session_id", s.sessionID, "mode", s.Mode())

	s.launch(model.RoleGesture, workers.Gesture)
	s.launch(model.RoleVoice, workers.Voice)
	s.notifyChange()

	s.monitor(ctx)

	_, err := s.Shutdown()
	if err != nil {
		s.logger.Warn("shutdown finished with errors", "error", err)
	}
	return nil
}

// RequestShutdown asks the monitoring loop to exit. Safe to call from any goroutine.
func (s *Supervisor) RequestShutdown(reason string) {
	s.stopOnce.Do(func() {
		s.logger.Info("shutdown requested", "reason", reason)
		close(s.stopCh)
	})
}

// monitor is the health-check loop.
func (s *Supervisor) monitor(ctx context.Context) {
	interval := s.MonitorInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastStatus := s.now()
	s.logger.Info("monitoring loop started", "interval", interval)

	for {
		s.check()

		if every := time.Duration(s.statusInterval.Load()); every > 0 {
			if now := s.now(); now.Sub(lastStatus) >= every {
				s.logStatus()
				lastStatus = now
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Info("interrupted, leaving monitoring loop")
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		if next := s.MonitorInterval(); next != interval {
			s.logger.Debug("monitor interval changed", "old", interval, "new", next)
			ticker.Reset(next)
			interval = next
		}
	}
}

// check relaunches inactive workers when both have died.
func (s *Supervisor) check() {
	if !s.state.running.Load() || !s.state.BothInactive() {
		return
	}

	s.logger.Warn("both workers inactive, restarting")
	s.restart(model.RoleGesture)
	s.restart(model.RoleVoice)
}

func (s *Supervisor) restart(role string) {
	ws := s.state.worker(role)
	if ws.active.Load() {
		return
	}

	s.mu.Lock()
	w := s.workerFor(role)
	callback := s.onRestart
	s.mu.Unlock()

	n := ws.restarts.Add(1)
	s.logger.Info("restarting worker", "worker", role, "restarts", n)
	s.launch(role, w)

	if callback != nil {
		callback(role, n)
	}
	s.notifyChange()
}

// launch marks the worker active and runs it on its own goroutine.
func (s *Supervisor) launch(role string, w Worker) {
	s.state.worker(role).active.Store(true)
	s.wg.Add(1)
	go s.run(role, w)
}

// run is the per-worker wrapper. Nothing escapes it.
func (s *Supervisor) run(role string, w Worker) {
	defer s.wg.Done()

	s.mu.Lock()
	ctx := s.workerCtx
	s.mu.Unlock()

	s.logger.Info("worker active", "worker", role)
	err := s.invoke(ctx, role, w)

	ws := s.state.worker(role)
	ws.active.Store(false)

	switch {
	case err != nil:
		ws.setLastError(err)
		s.logger.Error("worker failed", "worker", role, "error", err)
	case s.state.running.Load():
		ws.setLastError(errors.New("exited unexpectedly"))
		s.logger.Warn("worker exited while supervisor running", "worker", role)
	default:
		s.logger.Debug("worker stopped", "worker", role)
	}

	s.notifyChange()
}

func (s *Supervisor) invoke(ctx context.Context, role string, w Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerRuntimeError{Worker: role, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return &WorkerRuntimeError{Worker: role, Err: err}
	}
	return nil
}

// Shutdown stops both workers and returns the total uptime.
// Stop failures are logged and joined into the returned error; they never
// prevent the remaining steps. Only the first call has any effect.
func (s *Supervisor) Shutdown() (time.Duration, error) {
	if !s.shutdown.CompareAndSwap(false, true) {
		s.logger.Debug("shutdown already performed")
		return time.Duration(s.uptime.Load()), nil
	}

	shutdownAt := s.now()
	s.logger.Info("shutdown initiated")
	s.state.running.Store(false)
	s.RequestShutdown("shutdown")

	s.mu.Lock()
	workers := s.workers
	cancel := s.cancelWorkers
	s.mu.Unlock()

	var errs []error
	for _, role := range []string{model.RoleGesture, model.RoleVoice} {
		w := workerOf(workers, role)
		if w == nil {
			continue
		}
		if err := s.stopWorker(role, w); err != nil {
			s.logger.Error("error during shutdown", "worker", role, "error", err)
			errs = append(errs, err)
		}
		s.state.worker(role).active.Store(false)
	}

	if cancel != nil {
		cancel()
	}
	s.waitForWorkers()

	uptime := shutdownAt.Sub(s.state.startTime)
	if uptime < 0 {
		uptime = 0
	}
	s.uptime.Store(int64(uptime))
	s.finished.Store(true)

	s.logger.Info("shutdown complete", "uptime", uptime.Round(time.Millisecond))
	s.notifyChange()

	return uptime, errors.Join(errs...)
}

func (s *Supervisor) stopWorker(role string, w Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ShutdownError{Worker: role, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if err := w.Stop(); err != nil {
		return &ShutdownError{Worker: role, Err: err}
	}
	return nil
}

// waitForWorkers gives worker goroutines the grace period to return.
func (s *Supervisor) waitForWorkers() {
	grace := time.Duration(s.shutdownGrace.Load())
	if grace <= 0 {
		return
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(grace):
		s.logger.Warn("workers still running after grace period", "grace", grace)
	}
}

// Uptime returns the time since the supervisor was constructed, or the
// final uptime once shut down.
func (s *Supervisor) Uptime() time.Duration {
	if s.finished.Load() {
		return time.Duration(s.uptime.Load())
	}
	uptime := s.now().Sub(s.state.startTime)
	if uptime < 0 {
		return 0
	}
	return uptime
}

// MonitorInterval returns the current polling interval.
func (s *Supervisor) MonitorInterval() time.Duration {
	return time.Duration(s.monitorInterval.Load())
}

// Mode returns the operating mode label.
func (s *Supervisor) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Status returns a snapshot of the supervisor and worker state.
func (s *Supervisor) Status() model.Status {
	s.mu.Lock()
	version := s.version
	mode := s.mode
	describe := s.workers.Describe
	s.mu.Unlock()

	status := model.Status{
		SessionID: s.sessionID,
		Version:   version,
		PID:       os.Getpid(),
		Mode:      mode,
		Running:   s.state.running.Load(),
		StartedAt: s.state.startTime.Unix(),
		UptimeSec: s.Uptime().Seconds(),
		Gesture:   s.state.gesture.snapshot(),
		Voice:     s.state.voice.snapshot(),
		UpdatedAt: s.now().Unix(),
	}
	if describe != nil {
		describe(&status)
	}
	return status
}

func (s *Supervisor) logStatus() {
	st := s.Status()
	s.logger.Info("status",
		"uptime", st.Uptime().Round(time.Second),
		"gesture", activeLabel(st.Gesture.Active),
		"voice", activeLabel(st.Voice.Active),
		"gesture_restarts", st.Gesture.Restarts,
		"voice_restarts", st.Voice.Restarts,
	)
}

func (s *Supervisor) notifyChange() {
	s.mu.Lock()
	callback := s.onChange
	s.mu.Unlock()

	if callback != nil {
		callback(s.Status())
	}
}

// workerFor must be called with s.mu held.
func (s *Supervisor) workerFor(role string) Worker {
	return workerOf(s.workers, role)
}

func workerOf(workers Workers, role string) Worker {
	if role == model.RoleGesture {
		return workers.Gesture
	}
	return workers.Voice
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
