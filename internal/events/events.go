// Package events publishes narration lifecycle events to NATS.
package events

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types, appended to the subject prefix.
const (
	TypeNarrationCompleted = "narration.completed"
	TypeNarrationFailed    = "narration.failed"
	TypeSpeechCompleted    = "speech.completed"
	TypeHistoryDeleted     = "history.deleted"
)

// NarrationEvent describes a finished or failed narration request.
type NarrationEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	HistoryID  string    `json:"history_id"`
	DownloadID string    `json:"download_id,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	FileSize   int64     `json:"file_size,omitzero"`
	Segments   int       `json:"segments,omitzero"`
	Skipped    []int     `json:"skipped,omitempty"`
	DurationMS int64     `json:"duration_ms,omitzero"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits events. Implementations must not block request handling on failure.
type Publisher interface {
	Publish(eventType string, event NarrationEvent)
	Close()
}

// NATSPublisher publishes JSON events on "<prefix>.<type>".
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server at url.
func Connect(url, prefix, name string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return NewNATSPublisher(conn, prefix, logger), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:   conn,
		prefix: strings.Trim(prefix, "."),
		logger: logger,
	}
}

// Subject returns the full subject for an event type.
func (p *NATSPublisher) Subject(eventType string) string {
	if p.prefix == "" {
		return eventType
	}
	return p.prefix + "." + eventType
}

// Publish implements Publisher. Errors are logged.
func (p *NATSPublisher) Publish(eventType string, event NarrationEvent) {
	event.Type = eventType
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal event", "type", eventType, "error", err)
		return
	}

	subject := p.Subject(eventType)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Warn("failed to publish event", "subject", subject, "error", err)
		return
	}
	p.logger.Debug("published event", "subject", subject, "history_id", event.HistoryID)
}

// Connected reports whether the connection is live.
func (p *NATSPublisher) Connected() bool {
	return p.conn.IsConnected()
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		p.logger.Warn("failed to flush nats connection", "error", err)
	}
	p.conn.Close()
}

// Nop discards events; used when NATS is not configured.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(string, NarrationEvent) {}

// Close implements Publisher.
func (Nop) Close() {}
