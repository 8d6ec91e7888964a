// Package model defines the core data structures for cybor.
package model

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Worker roles.
const (
	RoleGesture = "gesture"
	RoleVoice   = "voice"
)

// WorkerStatus is the supervisor's view of one worker.
type WorkerStatus struct {
	Active    bool   `json:"active" yaml:"active"`
	Restarts  int64  `json:"restarts" yaml:"restarts"`
	LastError string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// Status is a point-in-time snapshot of the running assistant.
// It is published over D-Bus and persisted to the status file.
type Status struct {
	SessionID   string       `json:"session_id" yaml:"session_id"`
	Version     string       `json:"version" yaml:"version"`
	PID         int          `json:"pid" yaml:"pid"`
	Mode        string       `json:"mode" yaml:"mode"`
	Running     bool         `json:"running" yaml:"running"`
	StartedAt   int64        `json:"started_at" yaml:"started_at"` // Unix seconds
	UptimeSec   float64      `json:"uptime_sec" yaml:"uptime_sec"`
	Gesture     WorkerStatus `json:"gesture" yaml:"gesture"`
	Voice       WorkerStatus `json:"voice" yaml:"voice"`
	Recognizing bool         `json:"recognizing" yaml:"recognizing"` // Gesture recognition not suspended
	Awake       bool         `json:"awake" yaml:"awake"`             // Voice assistant listening for commands
	UpdatedAt   int64        `json:"updated_at" yaml:"updated_at"`
}

// NewSessionID generates a ULID identifying one daemon run.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// Uptime returns the uptime as a duration.
func (s *Status) Uptime() time.Duration {
	return time.Duration(s.UptimeSec * float64(time.Second))
}

// Healthy reports whether at least one worker is alive.
func (s *Status) Healthy() bool {
	return s.Running && (s.Gesture.Active || s.Voice.Active)
}

// Worker returns the status of the named worker role.
func (s *Status) Worker(role string) (WorkerStatus, bool) {
	switch role {
	case RoleGesture:
		return s.Gesture, true
	case RoleVoice:
		return s.Voice, true
	default:
		return WorkerStatus{}, false
	}
}

// Marshal encodes the status as JSON.
func (s *Status) Marshal() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseStatus decodes a JSON status.
func ParseStatus(data string) (*Status, error) {
	var s Status
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &s, nil
}
