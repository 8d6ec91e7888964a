package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/cybor/internal/model"
)

// YAMLFormatter formats output as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// FormatStatus writes the status as YAML.
func (f *YAMLFormatter) FormatStatus(w io.Writer, status *model.Status) error {
	return encodeYAML(w, status)
}

// FormatCatalogue writes the catalogue as YAML.
func (f *YAMLFormatter) FormatCatalogue(w io.Writer, catalogue Catalogue) error {
	return encodeYAML(w, catalogue)
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
