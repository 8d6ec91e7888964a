// Package voice is the voice-command worker. It reads transcripts from an
// external speech recognizer, waits for the wake word and dispatches the
// recognised command.
package voice

import (
	"errors"
	"strings"
)

// Category groups commands for display.
type Category string

const (
	CategorySystem     Category = "system"
	CategoryNavigation Category = "navigation"
	CategoryUtilities  Category = "utilities"
)

// Action identifies what a command does.
type Action string

const (
	ActionLaunchGesture Action = "launch_gesture"
	ActionStopGesture   Action = "stop_gesture"
	ActionSleep         Action = "sleep"
	ActionWake          Action = "wake"
	ActionExit          Action = "exit"
	ActionSearch        Action = "search"
	ActionFindLocation  Action = "find_location"
	ActionListFiles     Action = "list_files"
	ActionOpen          Action = "open"
	ActionGoBack        Action = "go_back"
	ActionTime          Action = "time"
	ActionCopy          Action = "copy"
	ActionPaste         Action = "paste"
)

// Command is one entry in the voice command catalogue.
type Command struct {
	Action      Action   `json:"action" yaml:"action"`
	Phrase      string   `json:"phrase" yaml:"phrase"`
	Arg         string   `json:"arg,omitempty" yaml:"arg,omitempty"` // Placeholder name when the phrase takes an argument
	Category    Category `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
}

// Usage returns the phrase with its argument placeholder, e.g. "search [query]".
func (c Command) Usage() string {
	if c.Arg == "" {
		return c.Phrase
	}
	return c.Phrase + " [" + c.Arg + "]"
}

// Commands is the voice command catalogue.
var Commands = []Command{
	{ActionLaunchGesture, "launch gesture recognition", "", CategorySystem, "Start gesture recognition system"},
	{ActionStopGesture, "stop gesture recognition", "", CategorySystem, "Stop gesture recognition system"},
	{ActionSleep, "sleep", "", CategorySystem, "Put voice assistant to sleep"},
	{ActionWake, "wake up", "", CategorySystem, "Wake up voice assistant"},
	{ActionExit, "exit", "", CategorySystem, "Exit the application"},
	{ActionSearch, "search", "query", CategoryNavigation, "Perform web search"},
	{ActionFindLocation, "find location", "place", CategoryNavigation, "Open location in maps"},
	{ActionListFiles, "list files", "", CategoryNavigation, "Show current directory files"},
	{ActionOpen, "open", "filename", CategoryNavigation, "Open specified file"},
	{ActionGoBack, "go back", "", CategoryNavigation, "Navigate to previous directory"},
	{ActionTime, "what time is it", "", CategoryUtilities, "Display current date and time"},
	{ActionCopy, "copy", "", CategoryUtilities, "Copy selected content"},
	{ActionPaste, "paste", "", CategoryUtilities, "Paste copied content"},
}

var (
	// ErrNoWakeWord is returned for transcripts not addressed to the assistant.
	ErrNoWakeWord = errors.New("no wake word")

	// ErrUnknownCommand is returned when the text matches no command.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMissingArgument is returned when a command needs an argument and has none.
	ErrMissingArgument = errors.New("missing argument")
)

// Request is a parsed command ready for dispatch.
type Request struct {
	Command Command
	Arg     string
	Text    string
}

// Parse parses a transcript that must begin with wakeWord.
func Parse(text, wakeWord string) (Request, error) {
	rest, ok := StripWakeWord(text, wakeWord)
	if !ok {
		return Request{Text: text}, ErrNoWakeWord
	}
	req, err := ParseCommand(rest)
	req.Text = text
	return req, err
}

// StripWakeWord removes a leading wake word. Matching ignores case and
// punctuation attached to the wake word ("Cybor, copy").
func StripWakeWord(text, wakeWord string) (string, bool) {
	words := strings.Fields(text)
	wake := strings.Fields(strings.ToLower(wakeWord))
	if len(wake) == 0 || len(words) < len(wake) {
		return "", false
	}
	for i, w := range wake {
		if normalizeWord(words[i]) != w {
			return "", false
		}
	}
	return strings.Join(words[len(wake):], " "), true
}

// ParseCommand parses command text with no wake word. Argument text keeps
// its original case.
func ParseCommand(text string) (Request, error) {
	text = strings.TrimRight(strings.TrimSpace(text), ".!?,")
	words := strings.Fields(text)
	if len(words) == 0 {
		return Request{Text: text}, ErrUnknownCommand
	}

	lower := make([]string, len(words))
	for i, w := range words {
		lower[i] = normalizeWord(w)
	}

	var best *Command
	var bestLen int
	for i := range Commands {
		cmd := &Commands[i]
		phrase := strings.Fields(cmd.Phrase)
		if len(phrase) > len(lower) || !hasPrefix(lower, phrase) {
			continue
		}
		if cmd.Arg == "" && len(phrase) != len(lower) {
			continue
		}
		if len(phrase) > bestLen {
			best, bestLen = cmd, len(phrase)
		}
	}
	if best == nil {
		return Request{Text: text}, ErrUnknownCommand
	}

	req := Request{Command: *best, Text: text}
	if best.Arg != "" {
		req.Arg = strings.Join(words[bestLen:], " ")
		if req.Arg == "" {
			return req, ErrMissingArgument
		}
	}
	return req, nil
}

// Lookup finds a command by action.
func Lookup(action Action) (Command, bool) {
	for _, c := range Commands {
		if c.Action == action {
			return c, true
		}
	}
	return Command{}, false
}

func hasPrefix(words, prefix []string) bool {
	for i, p := range prefix {
		if words[i] != p {
			return false
		}
	}
	return true
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.Trim(w, ".,!?:;\"'"))
}
