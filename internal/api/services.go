package api

import (
	"github.com/echoverse/echoverse-server/internal/service"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Auth      *service.AuthService
	Rewrite   *service.RewriteService
	Speech    *service.SpeechService
	Narration *service.NarrationService
	History   *service.HistoryService
	Downloads *service.DownloadService
}

// ProviderLister reports the configured provider names of a chain.
type ProviderLister interface {
	Providers() []string
}

// ConnectionStatus reports whether a remote dependency is connected.
type ConnectionStatus interface {
	Connected() bool
}

// Components are the dependencies reported by the health check.
// A nil Events means publishing is disabled.
type Components struct {
	Speech  ProviderLister
	Rewrite ProviderLister
	Events  ConnectionStatus
}
