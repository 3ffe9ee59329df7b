package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	for _, path := range []string{"/health", "/api/v1/health"} {
		id := "healthCheck"
		if path != "/health" {
			id = "healthCheckV1"
		}
		huma.Register(s.api, huma.Operation{
			OperationID: id,
			Method:      http.MethodGet,
			Path:        path,
			Summary:     "Health check",
			Description: "Returns server health status with component checks",
			Tags:        []string{"Health"},
		}, s.handleHealthCheck)
	}
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
	Timestamp  time.Time                  `json:"timestamp" doc:"Time of the check"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"speech":   checkProviders(s.components.Speech, "speech"),
		"rewrite":  checkProviders(s.components.Rewrite, "rewrite"),
		"events":   s.checkEvents(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
			Timestamp:  time.Now().UTC(),
		},
	}, nil
}

// checkDatabase verifies the database answers a ping.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkProviders reports a provider chain. An empty chain still answers
// requests (rewrite falls back to the original text) so it is degraded.
func checkProviders(chain ProviderLister, kind string) ComponentHealth {
	if chain == nil {
		return ComponentHealth{Status: statusDegraded, Message: kind + " not configured"}
	}
	names := chain.Providers()
	if len(names) == 0 {
		return ComponentHealth{Status: statusDegraded, Message: "no " + kind + " providers configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: strings.Join(names, ", ")}
}

// checkEvents reports the event publisher connection.
func (s *Server) checkEvents() ComponentHealth {
	if s.components.Events == nil {
		return ComponentHealth{Status: statusHealthy, Message: "disabled"}
	}
	if !s.components.Events.Connected() {
		return ComponentHealth{Status: statusDegraded, Message: "not connected"}
	}
	return ComponentHealth{Status: statusHealthy, Message: "connected"}
}
