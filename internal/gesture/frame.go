package gesture

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jmylchreest/cybor/internal/adapter/input"
)

// Frame is one classified hand observation from the detector.
// X and Y are normalised to 0..1 with the origin at the top left.
type Frame struct {
	Gesture    string  `json:"gesture"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"ts,omitempty"`
}

// ParseFrame decodes a single JSON frame.
func ParseFrame(line string) (Frame, error) {
	var f Frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return Frame{}, fmt.Errorf("failed to parse frame: %w", err)
	}
	if f.Gesture == "" {
		return Frame{}, fmt.Errorf("failed to parse frame: missing gesture")
	}
	return f, nil
}

// Source produces frames until it is exhausted or ctx is cancelled.
type Source interface {
	Run(ctx context.Context, emit func(Frame)) error
}

// LineSource decodes frames from a line-oriented input adapter.
// Malformed lines are logged and skipped.
type LineSource struct {
	lines  input.LineSource
	logger *slog.Logger
}

// NewLineSource wraps an input adapter.
func NewLineSource(lines input.LineSource, logger *slog.Logger) *LineSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &LineSource{lines: lines, logger: logger}
}

// Run implements Source.
func (s *LineSource) Run(ctx context.Context, emit func(Frame)) error {
	return s.lines.Run(ctx, func(line string) {
		f, err := ParseFrame(line)
		if err != nil {
			s.logger.Debug("skipping frame", "error", err)
			return
		}
		emit(f)
	})
}
