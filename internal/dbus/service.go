// Package dbus exposes the running sampler's latest observation on the
// session bus.
package dbus

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"codeberg.org/mutker/powerlog/internal/errors"
	"codeberg.org/mutker/powerlog/internal/sampler"
)

const (
	BusName   = "org.powerlog.Sampler"
	ObjPath   = "/org/powerlog/Sampler"
	ifaceName = "org.powerlog.Sampler"
)

const introspectXML = `
<node>
  <interface name="` + ifaceName + `">
    <method name="GetLatest">
      <arg direction="out" type="s" name="json"/>
    </method>
    <method name="GetInfo">
      <arg direction="out" type="s" name="json"/>
    </method>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// Info describes the running sampler.
type Info struct {
	PID             int    `json:"pid"`
	LogDir          string `json:"log_dir"`
	IntervalSeconds int    `json:"interval_seconds"`
	Samples         int    `json:"samples"`
}

// Service holds the state published over D-Bus. Update is safe to call from
// the sampling loop while the bus dispatches method calls.
type Service struct {
	mu       sync.RWMutex
	latest   *sampler.Observation
	logDir   string
	interval time.Duration
	samples  int
}

func NewService(logDir string, interval time.Duration) *Service {
	return &Service{logDir: logDir, interval: interval}
}

// Update records obs as the latest observation.
func (s *Service) Update(obs sampler.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &obs
	s.samples++
}

// SetInterval updates the interval reported by GetInfo.
func (s *Service) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Export registers the service on a private session bus connection. The
// caller owns the returned connection and closes it on shutdown.
func (s *Service) Export() (*godbus.Conn, error) {
	errFactory := errors.New()

	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrBusConnect, err)
	}

	if err := s.register(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

func (s *Service) register(conn *godbus.Conn) error {
	errFactory := errors.New()

	if err := conn.Export(s, ObjPath, ifaceName); err != nil {
		return errFactory.Wrap(errors.ErrBusConnect, err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), ObjPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return errFactory.Wrap(errors.ErrBusConnect, err)
	}

	reply, err := conn.RequestName(BusName, godbus.NameFlagDoNotQueue)
	if err != nil {
		return errFactory.Wrap(errors.ErrBusConnect, err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		return errFactory.WithData(errors.ErrBusNameTaken, BusName)
	}

	return nil
}

// GetLatest returns the last observation as JSON.
func (s *Service) GetLatest() (string, *godbus.Error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest == nil {
		return "", godbus.MakeFailedError(errors.New().WithMessage(errors.ErrNotRunning, "no observation yet"))
	}

	data, err := json.Marshal(latest)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}

// GetInfo returns the sampler's PID, log directory and interval as JSON.
func (s *Service) GetInfo() (string, *godbus.Error) {
	s.mu.RLock()
	info := Info{
		PID:             os.Getpid(),
		LogDir:          s.logDir,
		IntervalSeconds: int(s.interval / time.Second),
		Samples:         s.samples,
	}
	s.mu.RUnlock()

	data, err := json.Marshal(info)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}
