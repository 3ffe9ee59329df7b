package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/api"
	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/id"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/mdns"
	"github.com/echoverse/echoverse-server/internal/service"
)

// instanceIDFile persists the server identity advertised over mDNS.
const instanceIDFile = "instance.id"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	speechHandle := do.MustInvoke[*SpeechHandle](i)
	rewriteHandle := do.MustInvoke[*RewriteHandle](i)
	eventsHandle := do.MustInvoke[*EventsHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Auth:      do.MustInvoke[*service.AuthService](i),
		Rewrite:   do.MustInvoke[*service.RewriteService](i),
		Speech:    do.MustInvoke[*service.SpeechService](i),
		Narration: do.MustInvoke[*service.NarrationService](i),
		History:   do.MustInvoke[*service.HistoryService](i),
		Downloads: do.MustInvoke[*service.DownloadService](i),
	}

	components := api.Components{
		Speech:  speechHandle.Chain,
		Rewrite: rewriteHandle.Chain,
	}
	if eventsHandle.NATS != nil {
		components.Events = eventsHandle.NATS
	}

	handler := api.NewServer(storeHandle.Store, services, components, api.Options{
		Name:        cfg.Server.Name,
		Version:     mdns.ServerVersion,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}

// MDNSServiceHandle wraps mdns.Service with Shutdownable.
type MDNSServiceHandle struct {
	*mdns.Service
	started bool
}

// Shutdown implements do.Shutdownable.
func (h *MDNSServiceHandle) Shutdown() error {
	if h.started && h.Service != nil {
		h.Stop()
	}
	return nil
}

// ProvideMDNSService provides the mDNS advertisement service.
func ProvideMDNSService(i do.Injector) (*MDNSServiceHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Server.AdvertiseMDNS {
		log.Info("mDNS advertisement disabled by configuration")
		return &MDNSServiceHandle{Service: nil, started: false}, nil
	}

	instanceID, err := loadOrCreateInstanceID(cfg.App.DataPath)
	if err != nil {
		return nil, err
	}

	svc := mdns.NewService(log.Component("mdns"))

	// Parse port
	port := 8080
	if _, err := fmt.Sscanf(cfg.Server.Port, "%d", &port); err != nil {
		log.Warn("Failed to parse server port for mDNS, using default", "port", cfg.Server.Port)
	}

	if err := svc.Start(mdns.Instance{ID: instanceID, Name: cfg.Server.Name}, port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
		// Non-fatal: server works without mDNS (e.g., Docker, cloud)
		return &MDNSServiceHandle{Service: svc, started: false}, nil
	}

	return &MDNSServiceHandle{Service: svc, started: true}, nil
}

// loadOrCreateInstanceID returns the server ID stored in the data path,
// generating it on first start.
func loadOrCreateInstanceID(dataPath string) (string, error) {
	path := filepath.Join(dataPath, instanceIDFile)

	//#nosec G304 -- path is derived from the configured data path
	if data, err := os.ReadFile(path); err == nil {
		if existing := strings.TrimSpace(string(data)); existing != "" {
			return existing, nil
		}
	}

	instanceID, err := id.Generate(id.PrefixServer)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(instanceID), 0o600); err != nil {
		return "", fmt.Errorf("failed to save instance ID: %w", err)
	}
	return instanceID, nil
}
