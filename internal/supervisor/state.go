package supervisor

import (
	"sync/atomic"
	"time"

	"github.com/jmylchreest/cybor/internal/model"
)

// State is the supervisor's view of the running system.
// The flags are read by the monitoring loop without locking; a stale read
// only delays a restart decision until the next poll.
type State struct {
	startTime time.Time
	running   atomic.Bool

	gesture workerState
	voice   workerState
}

type workerState struct {
	active   atomic.Bool
	restarts atomic.Int64
	lastErr  atomic.Pointer[string]
}

func newState(now time.Time) *State {
	return &State{startTime: now}
}

// StartTime returns when the supervisor was constructed.
func (s *State) StartTime() time.Time {
	return s.startTime
}

// Running reports whether the monitoring loop is live.
func (s *State) Running() bool {
	return s.running.Load()
}

// GestureActive reports the gesture worker's liveness flag.
func (s *State) GestureActive() bool {
	return s.gesture.active.Load()
}

// VoiceActive reports the voice worker's liveness flag.
func (s *State) VoiceActive() bool {
	return s.voice.active.Load()
}

// BothInactive is the restart condition.
func (s *State) BothInactive() bool {
	return !s.gesture.active.Load() && !s.voice.active.Load()
}

func (s *State) worker(role string) *workerState {
	if role == model.RoleGesture {
		return &s.gesture
	}
	return &s.voice
}

func (w *workerState) setLastError(err error) {
	msg := err.Error()
	w.lastErr.Store(&msg)
}

func (w *workerState) snapshot() model.WorkerStatus {
	ws := model.WorkerStatus{
		Active:   w.active.Load(),
		Restarts: w.restarts.Load(),
	}
	if msg := w.lastErr.Load(); msg != nil {
		ws.LastError = *msg
	}
	return ws
}
