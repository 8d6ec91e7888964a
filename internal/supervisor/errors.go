package supervisor

import "errors"

// ErrAlreadyStarted is returned when Start is called on a supervisor that has already run.
var ErrAlreadyStarted = errors.New("supervisor already started")

// InitializationError reports that a worker could not be constructed.
// It is fatal: Start returns it without launching any worker.
type InitializationError struct {
	Worker string // Empty when the failure is not tied to one worker
	Err    error
}

func (e *InitializationError) Error() string {
	if e.Worker != "" {
		return "failed to initialize " + e.Worker + " worker: " + e.Err.Error()
	}
	return "failed to initialize workers: " + e.Err.Error()
}

func (e *InitializationError) Unwrap() error {
	return e.Err
}

// WorkerRuntimeError reports a worker that failed or panicked while running.
// It is recovered by the supervisor and only clears the worker's liveness flag.
type WorkerRuntimeError struct {
	Worker string
	Err    error
}

func (e *WorkerRuntimeError) Error() string {
	return e.Worker + " worker failed: " + e.Err.Error()
}

func (e *WorkerRuntimeError) Unwrap() error {
	return e.Err
}

// ShutdownError reports a worker that failed to stop cleanly.
// Shutdown logs it and carries on with the remaining workers.
type ShutdownError struct {
	Worker string
	Err    error
}

func (e *ShutdownError) Error() string {
	return "failed to stop " + e.Worker + " worker: " + e.Err.Error()
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
