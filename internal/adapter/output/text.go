package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/voice"
)

// TextFormatter formats output as styled, human readable text.
type TextFormatter struct {
	opts FormatterOptions

	headerStyle   lipgloss.Style
	labelStyle    lipgloss.Style
	activeStyle   lipgloss.Style
	inactiveStyle lipgloss.Style
	dimStyle      lipgloss.Style
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts FormatterOptions) *TextFormatter {
	return &TextFormatter{
		opts: opts,
		headerStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		labelStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Width(12),
		activeStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		inactiveStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		dimStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
	}
}

// FormatStatus writes the status as a labelled block.
func (f *TextFormatter) FormatStatus(w io.Writer, st *model.Status) error {
	var sb strings.Builder

	sb.WriteString(f.headerStyle.Render("cybor "+stateLabel(st)) + "\n")
	f.row(&sb, "Session", st.SessionID)
	f.row(&sb, "Version", st.Version)
	f.row(&sb, "Mode", st.Mode)
	if st.Running {
		f.row(&sb, "PID", fmt.Sprintf("%d", st.PID))
		f.row(&sb, "Uptime", uptimeText(st))
	}
	f.row(&sb, "Gesture", f.worker(st.Gesture, st.Recognizing, "recognizing", "suspended"))
	f.row(&sb, "Voice", f.worker(st.Voice, st.Awake, "awake", "asleep"))
	f.row(&sb, "Updated", updatedText(st, f.opts.now()))

	_, err := io.WriteString(w, sb.String())
	return err
}

func (f *TextFormatter) row(sb *strings.Builder, label, value string) {
	sb.WriteString(f.labelStyle.Render(label) + value + "\n")
}

func (f *TextFormatter) worker(ws model.WorkerStatus, on bool, onLabel, offLabel string) string {
	state := f.inactiveStyle.Render(activeLabel(false))
	if ws.Active {
		mode := offLabel
		if on {
			mode = onLabel
		}
		state = f.activeStyle.Render(activeLabel(true)) + " " + f.dimStyle.Render("("+mode+")")
	}
	if ws.Restarts > 0 {
		state += fmt.Sprintf(", %d restarts", ws.Restarts)
	}
	if ws.LastError != "" {
		state += f.dimStyle.Render(" last error: " + ws.LastError)
	}
	return state
}

// FormatCatalogue writes the gestures and the voice commands grouped by category.
func (f *TextFormatter) FormatCatalogue(w io.Writer, catalogue Catalogue) error {
	var sb strings.Builder

	sb.WriteString(f.headerStyle.Render("Gestures") + "\n")
	for _, g := range catalogue.Gestures {
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", g.Kind, g.Action))
		sb.WriteString("  " + f.dimStyle.Render(fmt.Sprintf("%-20s %s", "", g.Description)) + "\n")
	}

	for _, category := range []voice.Category{voice.CategorySystem, voice.CategoryNavigation, voice.CategoryUtilities} {
		sb.WriteString("\n" + f.headerStyle.Render("Voice: "+string(category)) + "\n")
		for _, c := range catalogue.Commands {
			if c.Category != category {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %-28s %s\n", c.Usage(), c.Description))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
