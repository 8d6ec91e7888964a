// Package input provides input adapters for the external collaborator
// processes that feed the workers: the hand-landmark detector and the
// speech recognizer. Each adapter produces one record per line.
package input

import (
	"context"
	"os/exec"
	"strings"
)

// LineSource streams newline-delimited records.
type LineSource interface {
	// Name returns the adapter identifier (e.g., "command", "stdin").
	Name() string

	// Run calls emit for every non-empty line until the stream ends, ctx is
	// cancelled, or reading fails. A stream that ends cleanly returns nil.
	Run(ctx context.Context, emit func(line string)) error
}

// Available reports whether the first word of command resolves in PATH.
func Available(command []string) bool {
	if len(command) == 0 {
		return false
	}
	_, err := exec.LookPath(command[0])
	return err == nil
}

// NewAdapter creates a LineSource for the configured command.
// A command of "-" reads standard input.
func NewAdapter(source string, command []string) (LineSource, error) {
	if len(command) == 1 && command[0] == "-" {
		return NewStdinAdapter(source), nil
	}
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, &AdapterError{
			Source:  source,
			Message: "no command configured",
		}
	}
	if !Available(command) {
		return nil, &AdapterError{
			Source:  source,
			Message: command[0] + " not found in PATH",
		}
	}
	return NewCommandAdapter(source, command), nil
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// sanitizeLine replaces control characters with spaces and trims the result.
func sanitizeLine(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r < 32 || r == 127 {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
