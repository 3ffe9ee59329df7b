// Package di provides dependency injection configuration for the EchoVerse server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/di/providers"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/service"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideAudioStorage)

	// Providers and events
	do.Provide(injector, providers.ProvideSpeech)
	do.Provide(injector, providers.ProvideRewrite)
	do.Provide(injector, providers.ProvideEvents)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)

	// Business services
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideRewriteService)
	do.Provide(injector, providers.ProvideSpeechService)
	do.Provide(injector, providers.ProvideNarrationService)
	do.Provide(injector, providers.ProvideHistoryService)
	do.Provide(injector, providers.ProvideDownloadService)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvidePromptWatcher)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)
	do.Provide(injector, providers.ProvideMDNSService)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Core services
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*media.Storage](injector)
	_ = do.MustInvoke[*providers.SpeechHandle](injector)
	_ = do.MustInvoke[*providers.RewriteHandle](injector)
	_ = do.MustInvoke[*providers.EventsHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.SessionService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.RewriteService](injector)
	_ = do.MustInvoke[*service.SpeechService](injector)
	_ = do.MustInvoke[*service.NarrationService](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)
	_ = do.MustInvoke[*service.DownloadService](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.PromptWatcherHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)
	_ = do.MustInvoke[*providers.MDNSServiceHandle](injector)

	// Rebuild the search index if it was recreated
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
