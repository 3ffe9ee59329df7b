// Package mdns advertises the EchoVerse server on the local network.
package mdns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

const (
	// ServiceType is the mDNS service type for EchoVerse servers.
	ServiceType = "_echoverse._tcp"

	// APIVersion is the current API version advertised in TXT records.
	APIVersion = "v1"

	// ServerVersion is the server version advertised in TXT records.
	ServerVersion = "1.0.0"
)

// Instance identifies the advertised server.
type Instance struct {
	ID   string
	Name string
}

// advertisement is a running announcement that can be withdrawn.
type advertisement interface {
	Shutdown() error
}

// backend publishes a service record.
type backend struct {
	name  string
	start func(instance, host string, port int, txt []string) (advertisement, error)
}

// Service manages mDNS advertisement. The avahi daemon is preferred when it is
// reachable over D-Bus; otherwise an embedded responder answers queries.
type Service struct {
	backends []backend
	active   advertisement
	via      string
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewService creates a new mDNS service.
func NewService(logger *slog.Logger) *Service {
	return &Service{
		backends: []backend{
			{name: "avahi", start: startAvahi},
			{name: "embedded", start: startEmbedded},
		},
		logger: logger,
	}
}

// Start begins advertising the server. Errors are typically non-fatal
// (multicast is often unavailable in containers).
func (s *Service) Start(inst Instance, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()

	host, err := os.Hostname()
	if err != nil {
		host = "echoverse-server"
	}

	txt := []string{
		fmt.Sprintf("id=%s", inst.ID),
		fmt.Sprintf("name=%s", inst.Name),
		fmt.Sprintf("version=%s", ServerVersion),
		fmt.Sprintf("api=%s", APIVersion),
	}

	var errs []error
	for _, b := range s.backends {
		adv, err := b.start(host, "", port, txt)
		if err != nil {
			s.logger.Debug("mDNS backend unavailable", "backend", b.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", b.name, err))
			continue
		}

		s.active = adv
		s.via = b.name
		s.logger.Info("mDNS advertisement started",
			"service", ServiceType,
			"backend", b.name,
			"port", port,
			"name", inst.Name,
			"id", inst.ID,
		)
		return nil
	}

	return fmt.Errorf("start mDNS advertisement: %w", errors.Join(errs...))
}

// Backend returns the name of the backend serving the advertisement, or "".
func (s *Service) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.via
}

// Stop stops advertising. Safe to call multiple times or if not started.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.stopLocked()
		s.logger.Info("mDNS advertisement stopped")
	}
}

func (s *Service) stopLocked() {
	if s.active == nil {
		return
	}
	if err := s.active.Shutdown(); err != nil {
		s.logger.Warn("mDNS shutdown failed", "backend", s.via, "error", err)
	}
	s.active = nil
	s.via = ""
}
