package providers

import (
	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/service"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSessionService provides the session service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, sessionService, validator, log.Logger), nil
}

// ProvideRewriteService provides the tone rewrite service.
func ProvideRewriteService(i do.Injector) (*service.RewriteService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	rewriteHandle := do.MustInvoke[*RewriteHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRewriteService(
		rewriteHandle.Chain,
		storeHandle.Store,
		indexHandle.HistoryIndex,
		validator,
		cfg.Narration.MaxTextLength,
		log.Logger,
	), nil
}

// ProvideSpeechService provides the single clip synthesis service.
func ProvideSpeechService(i do.Injector) (*service.SpeechService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	speechHandle := do.MustInvoke[*SpeechHandle](i)
	eventsHandle := do.MustInvoke[*EventsHandle](i)
	storage := do.MustInvoke[*media.Storage](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSpeechService(
		speechHandle.Synth,
		storeHandle.Store,
		storage,
		indexHandle.HistoryIndex,
		eventsHandle.Publisher,
		validator,
		cfg.Narration.MaxTextLength,
		log.Logger,
	), nil
}

// ProvideNarrationService provides story analysis and merged narration.
func ProvideNarrationService(i do.Injector) (*service.NarrationService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	speechHandle := do.MustInvoke[*SpeechHandle](i)
	speechService := do.MustInvoke[*service.SpeechService](i)
	eventsHandle := do.MustInvoke[*EventsHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	assembler := narration.NewAssembler(speechHandle.Synth, narration.AssemblerOptions{
		Workers:        cfg.Narration.Workers,
		SegmentTimeout: cfg.Narration.SegmentTimeout,
		Gap:            cfg.Narration.Gap,
		TempDir:        cfg.App.DataPath,
	}, log.Component("narration"))

	return service.NewNarrationService(
		speechService,
		assembler,
		eventsHandle.Publisher,
		validator,
		cfg.Narration.MaxTextLength,
		log.Logger,
	), nil
}

// ProvideHistoryService provides history listing, deletion and search.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	eventsHandle := do.MustInvoke[*EventsHandle](i)
	storage := do.MustInvoke[*media.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHistoryService(storeHandle.Store, storage, indexHandle.HistoryIndex, eventsHandle.Publisher, log.Logger), nil
}

// ProvideDownloadService provides download records and file access.
func ProvideDownloadService(i do.Injector) (*service.DownloadService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[*media.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewDownloadService(storeHandle.Store, storage, log.Logger), nil
}
