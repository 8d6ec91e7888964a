package dbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/jmylchreest/cybor/internal/model"
	"github.com/jmylchreest/cybor/internal/voice"
)

const (
	// DBusInterface is the control interface name.
	DBusInterface = "io.github.jmylchreest.Cybor"
	// DBusPath is the control object path.
	DBusPath = "/io/github/jmylchreest/Cybor"
	// DBusBusName is the bus name to claim.
	DBusBusName = "io.github.jmylchreest.Cybor"

	errorFailed = DBusInterface + ".Error.Failed"
)

// commandTimeout bounds a single Command call.
const commandTimeout = 10 * time.Second

// Handler serves the control interface.
type Handler interface {
	Status() model.Status
	Dispatch(ctx context.Context, text string) (voice.Reply, error)
	RequestShutdown(reason string)
}

// ControlServer implements the io.github.jmylchreest.Cybor D-Bus interface.
type ControlServer struct {
	conn    *dbus.Conn
	logger  *slog.Logger
	handler Handler

	mu      sync.Mutex
	running bool
}

// NewControlServer creates a new ControlServer.
func NewControlServer(handler Handler, logger *slog.Logger) *ControlServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlServer{
		logger:  logger,
		handler: handler,
	}
}

// Start connects to the session bus and exports the control service.
func (s *ControlServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	if err := conn.Export(s, DBusPath, DBusInterface); err != nil {
		return fmt.Errorf("failed to export object: %w", err)
	}

	node := &introspect.Node{
		Name: DBusPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    DBusInterface,
				Methods: controlMethods(),
				Signals: controlSignals(),
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), DBusPath,
		"org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspectable: %w", err)
	}

	reply, err := conn.RequestName(DBusBusName, dbus.NameFlagDoNotQueue|dbus.NameFlagReplaceExisting)
	if err != nil {
		return fmt.Errorf("failed to request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", DBusBusName)
	}

	s.conn = conn
	s.running = true
	s.logger.Info("D-Bus control server started", "interface", DBusInterface, "path", DBusPath)
	return nil
}

// Stop releases the bus name and unexports the object.
func (s *ControlServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	_ = s.conn.Export(nil, DBusPath, DBusInterface)
	if _, err := s.conn.ReleaseName(DBusBusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	// Don't close the connection as it's shared (SessionBus)

	s.logger.Info("D-Bus control server stopped")
	return nil
}

// Status returns the current status snapshot as JSON.
// D-Bus method: Status() -> s
func (s *ControlServer) Status() (string, *dbus.Error) {
	status := s.handler.Status()
	data, err := status.Marshal()
	if err != nil {
		return "", dbus.NewError(errorFailed, []any{err.Error()})
	}
	return data, nil
}

// Command runs a voice command given as text and returns the reply as JSON.
// A failed command is reported in the reply, not as a D-Bus error.
// D-Bus method: Command(s) -> s
func (s *ControlServer) Command(text string) (string, *dbus.Error) {
	s.logger.Debug("Command called", "text", text)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	reply, _ := s.handler.Dispatch(ctx, text)
	data, err := json.Marshal(reply)
	if err != nil {
		return "", dbus.NewError(errorFailed, []any{err.Error()})
	}
	return string(data), nil
}

// Shutdown asks the daemon to exit.
// D-Bus method: Shutdown() -> nothing
func (s *ControlServer) Shutdown() *dbus.Error {
	s.logger.Info("shutdown requested over D-Bus")
	s.handler.RequestShutdown("dbus request")
	return nil
}

// EmitStatus emits the StatusChanged signal.
func (s *ControlServer) EmitStatus(status model.Status) error {
	s.mu.Lock()
	conn, running := s.conn, s.running
	s.mu.Unlock()

	if !running {
		return fmt.Errorf("not connected to D-Bus")
	}

	data, err := status.Marshal()
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := conn.Emit(DBusPath, DBusInterface+".StatusChanged", data); err != nil {
		return fmt.Errorf("failed to emit StatusChanged signal: %w", err)
	}
	return nil
}

func controlMethods() []introspect.Method {
	return []introspect.Method{
		{
			Name: "Status",
			Args: []introspect.Arg{
				{Name: "status", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Command",
			Args: []introspect.Arg{
				{Name: "text", Type: "s", Direction: "in"},
				{Name: "reply", Type: "s", Direction: "out"},
			},
		},
		{
			Name: "Shutdown",
		},
	}
}

func controlSignals() []introspect.Signal {
	return []introspect.Signal{
		{
			Name: "StatusChanged",
			Args: []introspect.Arg{
				{Name: "status", Type: "s"},
			},
		},
	}
}
