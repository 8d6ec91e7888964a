package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/cybor/internal/model"
)

// DefaultPlainTemplate is the one-line status used when no template is given.
const DefaultPlainTemplate = `{{.State}} gesture={{active .Status.Gesture.Active}} voice={{active .Status.Voice.Active}} uptime={{.Uptime}}`

// PlainFormatter formats output as plain text, one item per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
// The status line can be customised with a text/template.
func NewPlainFormatter(opts FormatterOptions) (*PlainFormatter, error) {
	text := opts.Template
	if text == "" {
		text = DefaultPlainTemplate
	}

	tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &PlainFormatter{opts: opts, template: tmpl}, nil
}

// templateData is passed to status templates.
type templateData struct {
	Status  *model.Status
	State   string
	Uptime  string
	Updated string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"active": activeLabel,
		"upper":  strings.ToUpper,
	}
}

// FormatStatus writes the status as a single line.
func (f *PlainFormatter) FormatStatus(w io.Writer, status *model.Status) error {
	data := templateData{
		Status:  status,
		State:   stateLabel(status),
		Uptime:  uptimeText(status),
		Updated: updatedText(status, f.opts.now()),
	}
	if err := f.template.Execute(w, data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// FormatCatalogue writes one tab separated line per gesture and command.
func (f *PlainFormatter) FormatCatalogue(w io.Writer, catalogue Catalogue) error {
	for _, g := range catalogue.Gestures {
		if _, err := fmt.Fprintf(w, "gesture\t%s\t%s\n", g.Kind, g.Action); err != nil {
			return err
		}
	}
	for _, c := range catalogue.Commands {
		if _, err := fmt.Fprintf(w, "voice\t%s\t%s\n", c.Usage(), c.Description); err != nil {
			return err
		}
	}
	return nil
}
