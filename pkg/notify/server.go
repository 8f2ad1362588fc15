// Package notify talks to the desktop notification service: a thin D-Bus
// client for org.freedesktop.Notifications, a one-time capability handshake
// and a renderer adapting notifications to what the server can show.
package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	dbusDest = "org.freedesktop.Notifications"
	dbusPath = "/org/freedesktop/Notifications"
	appName  = "github-notifyd"
)

// Urgency levels per the freedesktop.org notification spec
const (
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Identity is the server self-description from GetServerInformation
type Identity struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// Payload is one ready-to-show desktop notification. Expiry is always the
// server default; urgency is fixed per payload kind.
type Payload struct {
	Summary   string
	Body      string
	IconPath  string
	Transient bool
	Urgency   byte
}

// Server is a session-bus client for the notification service
type Server struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// Connect attaches to the notification service on the session bus
func Connect() (*Server, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Server{conn: conn, obj: conn.Object(dbusDest, dbusPath)}, nil
}

// Close releases the bus connection
func (s *Server) Close() error {
	return s.conn.Close()
}

// Capabilities returns the capability tokens the server advertises
func (s *Server) Capabilities() ([]string, error) {
	var caps []string
	if err := s.obj.Call(dbusDest+".GetCapabilities", 0).Store(&caps); err != nil {
		return nil, fmt.Errorf("get capabilities: %w", err)
	}
	return caps, nil
}

// Info returns the server identity tuple
func (s *Server) Info() (Identity, error) {
	var id Identity
	err := s.obj.Call(dbusDest+".GetServerInformation", 0).
		Store(&id.Name, &id.Vendor, &id.Version, &id.SpecVersion)
	if err != nil {
		return Identity{}, fmt.Errorf("get server information: %w", err)
	}
	return id, nil
}

// Show displays the payload
func (s *Server) Show(p Payload) error {
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(p.Urgency)}
	if p.Transient {
		hints["transient"] = dbus.MakeVariant(true)
	}

	call := s.obj.Call(dbusDest+".Notify", 0,
		appName, uint32(0), p.IconPath, p.Summary, p.Body,
		[]string{}, hints, int32(-1))
	if call.Err != nil {
		return fmt.Errorf("show notification: %w", call.Err)
	}
	return nil
}
