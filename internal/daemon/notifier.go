package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/cybor/internal/dbus"
	"github.com/jmylchreest/cybor/internal/voice"
)

// notifyTimeout bounds a single call to the notification handler.
const notifyTimeout = 2 * time.Second

// NotificationLevel indicates the urgency/severity of an internal notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// NotifyHandler delivers a notification, usually to a dbus.DesktopNotifier.
type NotifyHandler func(ctx context.Context, msg dbus.Message) error

// InternalNotifier handles sending notifications about internal cybord events.
// It rate limits per key to prevent notification floods.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time

	notifyHandler NotifyHandler

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier.
func NewInternalNotifier(logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetNotifyHandler sets the function to call when creating a notification.
func (n *InternalNotifier) SetNotifyHandler(handler NotifyHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifyHandler = handler
}

// SetEnabled enables or disables internal notifications.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between duplicate notifications.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends an internal notification if not rate-limited.
// The same key won't notify again within minInterval.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) {
	n.mu.Lock()

	if !n.enabled {
		n.mu.Unlock()
		return
	}

	handler := n.notifyHandler
	if handler == nil {
		n.mu.Unlock()
		n.logger.Debug("internal notification skipped: no handler", "summary", summary)
		return
	}

	now := n.now()
	if lastTime, ok := n.lastNotifyTime[key]; ok && now.Sub(lastTime) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key, "summary", summary)
		return
	}
	n.pruneLocked(now)
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	msg := dbus.Message{
		Summary:       summary,
		Body:          body,
		ExpireTimeout: 5000,
	}
	switch level {
	case NotificationLevelInfo:
		msg.Urgency = dbus.UrgencyLow
		msg.Icon = "dialog-information"
	case NotificationLevelWarning:
		msg.Urgency = dbus.UrgencyNormal
		msg.Icon = "dialog-warning"
	case NotificationLevelError:
		msg.Urgency = dbus.UrgencyCritical
		msg.Icon = "dialog-error"
	}

	n.logger.Debug("sending internal notification", "key", key, "summary", summary, "level", level)

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := handler(ctx, msg); err != nil {
		n.logger.Debug("internal notification failed", "key", key, "error", err)
	}
}

// pruneLocked drops keys whose rate limit window has passed. Reply keys are
// unique, so without this the map would grow for the life of the daemon.
func (n *InternalNotifier) pruneLocked(now time.Time) {
	for key, last := range n.lastNotifyTime {
		if now.Sub(last) >= n.minInterval {
			delete(n.lastNotifyTime, key)
		}
	}
}

// NotifyStartup sends a notification that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version string) {
	n.Notify(
		"startup",
		"cybord Started",
		"Gesture and voice assistant v"+version+" is now running.",
		NotificationLevelInfo,
	)
}

// NotifyWorkerRestarted sends a notification that a worker was relaunched.
func (n *InternalNotifier) NotifyWorkerRestarted(role string, restarts int64) {
	n.Notify(
		"restart-"+role,
		"Worker Restarted",
		fmt.Sprintf("The %s worker stopped and was restarted (%d restarts).", role, restarts),
		NotificationLevelWarning,
	)
}

// NotifyConfigReloaded sends a notification about config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"cybord configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError sends a notification about config validation error.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// Respond shows a voice command reply. Each reply has its own key so replies
// are never rate limited against each other.
func (n *InternalNotifier) Respond(reply voice.Reply) {
	level := NotificationLevelInfo
	if !reply.Success {
		level = NotificationLevelWarning
	}
	n.Notify("reply-"+reply.ID, "cybor", reply.Text, level)
}
