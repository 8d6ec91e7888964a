package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/voice"
)

type fakeHandler struct {
	status   model.Status
	reply    voice.Reply
	err      error
	texts    []string
	shutdown []string
}

func (h *fakeHandler) Status() model.Status { return h.status }

func (h *fakeHandler) Dispatch(_ context.Context, text string) (voice.Reply, error) {
	h.texts = append(h.texts, text)
	return h.reply, h.err
}

func (h *fakeHandler) RequestShutdown(reason string) {
	h.shutdown = append(h.shutdown, reason)
}

func TestControlServer_Status(t *testing.T) {
	h := &fakeHandler{status: model.Status{
		SessionID: "01TEST",
		Running:   true,
		Gesture:   model.WorkerStatus{Active: true},
		Voice:     model.WorkerStatus{Active: false, Restarts: 2, LastError: "boom"},
	}}
	s := NewControlServer(h, nil)

	data, dbusErr := s.Status()
	require.Nil(t, dbusErr)

	got, err := model.ParseStatus(data)
	require.NoError(t, err)
	assert.Equal(t, "01TEST", got.SessionID)
	assert.True(t, got.Gesture.Active)
	assert.Equal(t, int64(2), got.Voice.Restarts)
	assert.Equal(t, "boom", got.Voice.LastError)
}

func TestControlServer_Command(t *testing.T) {
	h := &fakeHandler{reply: voice.Reply{ID: "01CMD", Action: voice.ActionTime, Text: "It's late", Success: true}}
	s := NewControlServer(h, nil)

	data, dbusErr := s.Command("what time is it")
	require.Nil(t, dbusErr)
	assert.Equal(t, []string{"what time is it"}, h.texts)

	reply, err := ParseReply(data)
	require.NoError(t, err)
	assert.Equal(t, h.reply, reply)
}

func TestControlServer_CommandFailureIsInReply(t *testing.T) {
	h := &fakeHandler{
		reply: voice.Reply{ID: "01CMD", Text: "I'm asleep, say wake up first"},
		err:   voice.ErrAsleep,
	}
	s := NewControlServer(h, nil)

	data, dbusErr := s.Command("open music")
	require.Nil(t, dbusErr)

	reply, err := ParseReply(data)
	require.NoError(t, err)
	assert.False(t, reply.Success)
	assert.Equal(t, "I'm asleep, say wake up first", reply.Text)
}

func TestControlServer_Shutdown(t *testing.T) {
	h := &fakeHandler{}
	s := NewControlServer(h, nil)

	assert.Nil(t, s.Shutdown())
	assert.Equal(t, []string{"dbus request"}, h.shutdown)
}

func TestControlServer_EmitStatusNotRunning(t *testing.T) {
	s := NewControlServer(&fakeHandler{}, nil)
	assert.Error(t, s.EmitStatus(model.Status{}))
	assert.NoError(t, s.Stop())
}

func TestControlIntrospection(t *testing.T) {
	names := make([]string, 0)
	for _, m := range controlMethods() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"Status", "Command", "Shutdown"}, names)

	signals := controlSignals()
	require.Len(t, signals, 1)
	assert.Equal(t, "StatusChanged", signals[0].Name)
}

func TestParseReply_Invalid(t *testing.T) {
	_, err := ParseReply("not json")
	assert.Error(t, err)

	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr))
}

func TestNotificationHints(t *testing.T) {
	hints := notificationHints("cybord", UrgencyCritical)

	assert.Equal(t, dbus.MakeVariant(UrgencyCritical), hints["urgency"])
	assert.Equal(t, dbus.MakeVariant(true), hints["transient"])
	assert.Equal(t, dbus.MakeVariant("cybord"), hints["desktop-entry"])
	assert.Equal(t, dbus.MakeVariant("device"), hints["category"])
}
