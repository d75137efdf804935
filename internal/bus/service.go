// Package bus exposes the brightness slider on the D-Bus session bus so a
// shell extension or panel applet can act as the host surface.
package bus

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/hoppxi/brightsync/internal/brightness"
)

const (
	BusName   = "org.hoppxi.Brightsync"
	Interface = "org.hoppxi.Brightsync1"
	Path      = dbus.ObjectPath("/org/hoppxi/Brightsync")
)

const introspectXML = `
<node>
	<interface name="` + Interface + `">
		<method name="Get">
			<arg direction="out" type="i" name="level"/>
			<arg direction="out" type="b" name="visible"/>
		</method>
		<method name="Set">
			<arg direction="in" type="d" name="value"/>
			<arg direction="out" type="i" name="level"/>
		</method>
		<method name="SetLevel">
			<arg direction="in" type="i" name="level"/>
		</method>
		<signal name="Changed">
			<arg type="i" name="level"/>
			<arg type="b" name="visible"/>
		</signal>
	</interface>` + introspect.IntrospectDataString + `</node>`

// UserInput receives slider moves coming from the bus.
type UserInput interface {
	OnUserSet(value float64) int
	SetLevel(level int) int
}

// Service is both a brightness.Control and the exported D-Bus object.
type Service struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	input   UserInput
	level   int
	visible bool
}

func NewService() *Service {
	return &Service{level: -1}
}

// Bind attaches the controller that handles Set calls.
func (s *Service) Bind(input UserInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = input
}

// Connect claims BusName on the session bus and exports the object.
func (s *Service) Connect() error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("connect to session bus: %w", err)
	}

	if err := conn.Export(s, Path, Interface); err != nil {
		conn.Close()
		return fmt.Errorf("export brightness object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), Path, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return fmt.Errorf("name %s already taken", BusName)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	slog.Info("dbus service exported", "name", BusName, "path", Path)
	return nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Get is the D-Bus method returning the displayed level (-1 before the first
// report) and visibility.
func (s *Service) Get() (int32, bool, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(s.level), s.visible, nil
}

// Set is the D-Bus method for slider moves in [0, 1].
func (s *Service) Set(value float64) (int32, *dbus.Error) {
	input, err := s.boundInput()
	if err != nil {
		return 0, err
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, dbus.MakeFailedError(fmt.Errorf("invalid slider value %v", value))
	}
	return int32(input.OnUserSet(value)), nil
}

// SetLevel is the D-Bus method for whole percentages.
func (s *Service) SetLevel(level int32) *dbus.Error {
	input, err := s.boundInput()
	if err != nil {
		return err
	}
	input.SetLevel(int(level))
	return nil
}

func (s *Service) boundInput() (UserInput, *dbus.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.input == nil {
		return nil, dbus.MakeFailedError(fmt.Errorf("brightness sync not running"))
	}
	return s.input, nil
}

func (s *Service) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	s.emit()
}

func (s *Service) SetValue(value float64) {
	s.mu.Lock()
	s.level = brightness.ClampLevel(int(math.Round(value * 100)))
	s.mu.Unlock()
	s.emit()
}

func (s *Service) emit() {
	s.mu.Lock()
	conn, level, visible := s.conn, s.level, s.visible
	s.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Emit(Path, Interface+".Changed", int32(level), visible); err != nil {
		slog.Debug("dbus emit failed", "error", err)
	}
}
