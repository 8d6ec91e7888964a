// Package gesture turns hand-gesture frames from an external landmark
// detector into cursor, click, scroll and media-key actions.
package gesture

import "strings"

// Kind names a recognised gesture as reported by the detector.
type Kind string

const (
	Neutral           Kind = "Neutral Gesture"
	MoveCursor        Kind = "Move Cursor"
	LeftClick         Kind = "Left Click"
	RightClick        Kind = "Right Click"
	DoubleClick       Kind = "Double Click"
	Scrolling         Kind = "Scrolling"
	DragAndDrop       Kind = "Drag and Drop"
	MultipleSelection Kind = "Multiple Selection"
	VolumeControl     Kind = "Volume Control"
	BrightnessControl Kind = "Brightness Control"
)

// Gesture describes one entry in the gesture catalogue.
type Gesture struct {
	Kind        Kind     `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Action      string   `json:"action" yaml:"action"`
	Fingers     []string `json:"fingers,omitempty" yaml:"fingers,omitempty"`
}

// Catalogue lists every gesture the controller acts on.
var Catalogue = []Gesture{
	{Neutral, "Default hand position for system recognition", "No action, cursor ready state", nil},
	{MoveCursor, "Index finger pointing to control cursor movement", "Real-time cursor positioning", []string{"index"}},
	{LeftClick, "Index and middle finger together", "Perform left mouse click", []string{"index", "middle"}},
	{RightClick, "Index finger and thumb together", "Perform right mouse click", []string{"index", "thumb"}},
	{DoubleClick, "Quick double tap gesture", "Execute double-click action", []string{"index", "middle"}},
	{Scrolling, "Two-finger vertical movement", "Scroll up/down on pages", []string{"index", "middle"}},
	{DragAndDrop, "Closed fist gesture with movement", "Select and move objects", []string{"thumb", "index", "middle", "ring", "pinky"}},
	{MultipleSelection, "Spread fingers gesture", "Select multiple items", []string{"thumb", "index", "middle", "ring", "pinky"}},
	{VolumeControl, "Pinch gesture with horizontal movement", "Adjust system volume", []string{"thumb", "index"}},
	{BrightnessControl, "Pinch gesture with vertical movement", "Adjust screen brightness", []string{"thumb", "index"}},
}

var byName = func() map[string]Gesture {
	m := make(map[string]Gesture, len(Catalogue))
	for _, g := range Catalogue {
		m[normalizeName(string(g.Kind))] = g
	}
	return m
}()

// Lookup finds a gesture by name. Matching ignores case and treats
// underscores and hyphens as spaces, so "left_click" finds Left Click.
// "neutral" is accepted for the Neutral Gesture.
func Lookup(name string) (Gesture, bool) {
	key := normalizeName(name)
	if key == "neutral" {
		key = normalizeName(string(Neutral))
	}
	g, ok := byName[key]
	return g, ok
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}
