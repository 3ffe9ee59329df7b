package providers

import (
	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/logger"
)

// EventsHandle holds the narration event publisher. NATS is nil when
// publishing is disabled or the server could not be reached.
type EventsHandle struct {
	events.Publisher
	NATS *events.NATSPublisher
}

// Shutdown implements do.Shutdownable.
func (h *EventsHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideEvents connects the NATS publisher when a URL is configured.
func ProvideEvents(i do.Injector) (*EventsHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Events.NATSURL == "" {
		log.Info("Event publishing disabled")
		return &EventsHandle{Publisher: events.Nop{}}, nil
	}

	pub, err := events.Connect(cfg.Events.NATSURL, cfg.Events.SubjectPrefix, cfg.Server.Name, log.Component("events"))
	if err != nil {
		// Non-fatal: narration works without events.
		log.Warn("NATS unavailable, event publishing disabled", "url", cfg.Events.NATSURL, "error", err)
		return &EventsHandle{Publisher: events.Nop{}}, nil
	}

	log.Info("Event publishing enabled", "url", cfg.Events.NATSURL, "prefix", cfg.Events.SubjectPrefix)
	return &EventsHandle{Publisher: pub, NATS: pub}, nil
}
