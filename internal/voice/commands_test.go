package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		action Action
		arg    string
		err    error
	}{
		{"system command", "Cybor launch gesture recognition", ActionLaunchGesture, "", nil},
		{"stop", "cybor stop gesture recognition", ActionStopGesture, "", nil},
		{"punctuation after wake word", "Cybor, sleep.", ActionSleep, "", nil},
		{"wake up", "CYBOR wake up", ActionWake, "", nil},
		{"exit", "cybor exit", ActionExit, "", nil},
		{"question", "Cybor what time is it?", ActionTime, "", nil},
		{"search keeps case", "cybor search Go Generics", ActionSearch, "Go Generics", nil},
		{"find location", "cybor find location Eiffel Tower", ActionFindLocation, "Eiffel Tower", nil},
		{"list files", "cybor list files", ActionListFiles, "", nil},
		{"open", "cybor open Report.pdf", ActionOpen, "Report.pdf", nil},
		{"go back", "cybor go back", ActionGoBack, "", nil},
		{"copy", "cybor copy", ActionCopy, "", nil},
		{"paste", "cybor paste!", ActionPaste, "", nil},
		{"no wake word", "launch gesture recognition", "", "", ErrNoWakeWord},
		{"wake word only", "cybor", "", "", ErrUnknownCommand},
		{"unknown", "cybor make coffee", "", "", ErrUnknownCommand},
		{"trailing words on fixed phrase", "cybor copy that", "", "", ErrUnknownCommand},
		{"missing argument", "cybor search", ActionSearch, "", ErrMissingArgument},
		{"empty", "", "", "", ErrNoWakeWord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(tt.text, "cybor")
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.action, req.Command.Action)
			assert.Equal(t, tt.arg, req.Arg)
		})
	}
}

func TestStripWakeWord(t *testing.T) {
	rest, ok := StripWakeWord("Hey Cybor open notes", "hey cybor")
	require.True(t, ok)
	assert.Equal(t, "open notes", rest)

	_, ok = StripWakeWord("hey there", "hey cybor")
	assert.False(t, ok)

	_, ok = StripWakeWord("cybor copy", "")
	assert.False(t, ok)
}

func TestCommands(t *testing.T) {
	require.Len(t, Commands, 13)

	counts := map[Category]int{}
	for _, c := range Commands {
		counts[c.Category]++

		text := c.Phrase
		if c.Arg != "" {
			text += " something"
		}
		req, err := ParseCommand(text)
		require.NoError(t, err, c.Phrase)
		assert.Equal(t, c.Action, req.Command.Action)
	}

	assert.Equal(t, 5, counts[CategorySystem])
	assert.Equal(t, 5, counts[CategoryNavigation])
	assert.Equal(t, 3, counts[CategoryUtilities])
}

func TestCommand_Usage(t *testing.T) {
	search, ok := Lookup(ActionSearch)
	require.True(t, ok)
	assert.Equal(t, "search [query]", search.Usage())

	copyCmd, ok := Lookup(ActionCopy)
	require.True(t, ok)
	assert.Equal(t, "copy", copyCmd.Usage())

	_, ok = Lookup("dance")
	assert.False(t, ok)
}
