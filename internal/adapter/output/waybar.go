package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/cybor/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

// WaybarFormatter writes status in Waybar's custom module format:
//
//	"custom/cybor": {
//	  "exec": "cybor status --format waybar",
//	  "interval": 5,
//	  "return-type": "json"
//	}
type WaybarFormatter struct {
	opts FormatterOptions
}

// NewWaybarFormatter creates a new Waybar formatter.
func NewWaybarFormatter(opts FormatterOptions) *WaybarFormatter {
	return &WaybarFormatter{opts: opts}
}

// FormatStatus writes the status as a single Waybar JSON object.
func (f *WaybarFormatter) FormatStatus(w io.Writer, status *model.Status) error {
	return json.NewEncoder(w).Encode(Waybar(status))
}

// FormatCatalogue is not meaningful for Waybar and writes the JSON catalogue.
func (f *WaybarFormatter) FormatCatalogue(w io.Writer, catalogue Catalogue) error {
	return encodeJSON(w, catalogue)
}

// Waybar converts a status snapshot to the Waybar module format.
func Waybar(st *model.Status) WaybarStatus {
	state := stateLabel(st)
	if !st.Running {
		return WaybarStatus{Text: "", Alt: state, Tooltip: "cybord is not running", Class: state}
	}

	text := "G"
	if !st.Recognizing {
		text = "g"
	}
	if st.Awake {
		text += " V"
	} else {
		text += " v"
	}

	lines := []string{
		fmt.Sprintf("Mode: %s", st.Mode),
		fmt.Sprintf("Gesture: %s (%d restarts)", activeLabel(st.Gesture.Active), st.Gesture.Restarts),
		fmt.Sprintf("Voice: %s (%d restarts)", activeLabel(st.Voice.Active), st.Voice.Restarts),
		fmt.Sprintf("Up %s", uptimeText(st)),
	}

	return WaybarStatus{
		Text:    text,
		Alt:     state,
		Tooltip: strings.Join(lines, "\n"),
		Class:   state,
	}
}
