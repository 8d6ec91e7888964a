package dbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/voice"
)

// ErrNotRunning is returned when no daemon owns the control bus name.
var ErrNotRunning = errors.New("cybord is not running")

// Client calls the control interface of a running daemon.
type Client struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewClient connects to the session bus and checks that the daemon is running.
func NewClient(ctx context.Context) (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owned bool
	err = conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, DBusBusName).Store(&owned)
	if err != nil {
		return nil, fmt.Errorf("failed to query bus name: %w", err)
	}
	if !owned {
		return nil, ErrNotRunning
	}

	return &Client{
		conn: conn,
		obj:  conn.Object(DBusBusName, DBusPath),
	}, nil
}

// Status fetches the daemon's status snapshot.
func (c *Client) Status(ctx context.Context) (*model.Status, error) {
	var data string
	if err := c.obj.CallWithContext(ctx, DBusInterface+".Status", 0).Store(&data); err != nil {
		return nil, fmt.Errorf("failed to call Status: %w", err)
	}
	return model.ParseStatus(data)
}

// Command sends a voice command to the daemon.
func (c *Client) Command(ctx context.Context, text string) (voice.Reply, error) {
	var data string
	if err := c.obj.CallWithContext(ctx, DBusInterface+".Command", 0, text).Store(&data); err != nil {
		return voice.Reply{}, fmt.Errorf("failed to call Command: %w", err)
	}
	return ParseReply(data)
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown(ctx context.Context) error {
	if err := c.obj.CallWithContext(ctx, DBusInterface+".Shutdown", 0).Err; err != nil {
		return fmt.Errorf("failed to call Shutdown: %w", err)
	}
	return nil
}

// ParseReply decodes a Command reply.
func ParseReply(data string) (voice.Reply, error) {
	var reply voice.Reply
	if err := json.Unmarshal([]byte(data), &reply); err != nil {
		return voice.Reply{}, fmt.Errorf("failed to parse reply: %w", err)
	}
	return reply, nil
}
