package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = "/org/freedesktop/Notifications"
)

// Urgency levels defined by the freedesktop.org notification specification.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Message is a desktop notification.
type Message struct {
	Summary       string
	Body          string
	Icon          string
	Urgency       byte
	ExpireTimeout int32 // Milliseconds; -1 = server default, 0 = never expire
}

// DesktopNotifier posts messages to the user's notification daemon.
type DesktopNotifier struct {
	appName string
	logger  *slog.Logger

	mu   sync.Mutex
	conn *dbus.Conn
}

// NewDesktopNotifier creates a DesktopNotifier. The bus is connected on first use.
func NewDesktopNotifier(appName string, logger *slog.Logger) *DesktopNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &DesktopNotifier{
		appName: appName,
		logger:  logger,
	}
}

// Notify posts msg and returns the id assigned by the notification daemon.
func (n *DesktopNotifier) Notify(ctx context.Context, msg Message) (uint32, error) {
	conn, err := n.connection()
	if err != nil {
		return 0, err
	}

	var id uint32
	call := conn.Object(notificationsName, notificationsPath).CallWithContext(ctx,
		notificationsName+".Notify", 0,
		n.appName,
		uint32(0),
		msg.Icon,
		msg.Summary,
		msg.Body,
		[]string{},
		notificationHints(n.appName, msg.Urgency),
		msg.ExpireTimeout,
	)
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", err)
	}

	n.logger.Debug("sent desktop notification", "id", id, "summary", msg.Summary)
	return id, nil
}

func (n *DesktopNotifier) connection() (*dbus.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil {
		return n.conn, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	n.conn = conn
	return conn, nil
}

func notificationHints(appName string, urgency byte) map[string]dbus.Variant {
	return map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(urgency),
		"category":      dbus.MakeVariant("device"),
		"transient":     dbus.MakeVariant(true),
		"desktop-entry": dbus.MakeVariant(appName),
	}
}
