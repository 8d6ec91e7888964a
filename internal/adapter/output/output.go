// Package output provides output formatters for status snapshots and the
// gesture and voice command catalogues.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/cybor/internal/gesture"
	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/voice"
)

// Formatter formats status snapshots and catalogues for output.
type Formatter interface {
	// FormatStatus writes a status snapshot to the writer.
	FormatStatus(w io.Writer, status *model.Status) error

	// FormatCatalogue writes the gesture and command catalogue to the writer.
	FormatCatalogue(w io.Writer, catalogue Catalogue) error
}

// Catalogue is everything the assistant understands.
type Catalogue struct {
	Gestures []gesture.Gesture `json:"gestures" yaml:"gestures"`
	Commands []voice.Command   `json:"voice_commands" yaml:"voice_commands"`
}

// DefaultCatalogue returns the built-in gesture and voice command catalogues.
func DefaultCatalogue() Catalogue {
	return Catalogue{
		Gestures: gesture.Catalogue,
		Commands: voice.Commands,
	}
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatText   FormatType = "text"
	FormatPlain  FormatType = "plain"
	FormatJSON   FormatType = "json"
	FormatYAML   FormatType = "yaml"
	FormatWaybar FormatType = "waybar"
)

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string           // Custom template for plain format
	Now      func() time.Time // Clock for relative times; defaults to time.Now
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatText, "":
		return NewTextFormatter(opts), nil
	case FormatPlain:
		return NewPlainFormatter(opts)
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	case FormatWaybar:
		return NewWaybarFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want text, plain, json, yaml or waybar)", format)
	}
}

// uptimeText renders the status uptime, e.g. "3 minutes".
func uptimeText(st *model.Status) string {
	if st.StartedAt == 0 {
		return "unknown"
	}
	start := time.Unix(st.StartedAt, 0)
	return strings.TrimSpace(humanize.RelTime(start, start.Add(st.Uptime()), "", ""))
}

// updatedText renders how long ago the status was written.
func updatedText(st *model.Status, now time.Time) string {
	if st.UpdatedAt == 0 {
		return "never"
	}
	return humanize.RelTime(time.Unix(st.UpdatedAt, 0), now, "ago", "from now")
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

// stateLabel summarises the status in one word.
func stateLabel(st *model.Status) string {
	switch {
	case !st.Running:
		return "stopped"
	case st.Gesture.Active && st.Voice.Active:
		return "ok"
	case st.Healthy():
		return "degraded"
	default:
		return "restarting"
	}
}
