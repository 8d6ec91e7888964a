package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/cybor/internal/model"
)

// JSONFormatter formats output as indented JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatStatus writes the status as JSON.
func (f *JSONFormatter) FormatStatus(w io.Writer, status *model.Status) error {
	return encodeJSON(w, status)
}

// FormatCatalogue writes the catalogue as JSON.
func (f *JSONFormatter) FormatCatalogue(w io.Writer, catalogue Catalogue) error {
	return encodeJSON(w, catalogue)
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
