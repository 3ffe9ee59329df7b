package providers

import (
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/logger"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/rewrite"
	"github.com/echoverse/echoverse-server/internal/speech"
)

// SpeechHandle holds the provider chain and the synthesizer services use,
// which is the chain behind the clip cache when caching is enabled.
type SpeechHandle struct {
	*speech.Chain
	Synth narration.Synthesizer
	cache *speech.ClipCache
}

// Shutdown implements do.Shutdownable.
func (h *SpeechHandle) Shutdown() error {
	if h.cache != nil {
		return h.cache.Close()
	}
	return nil
}

// ProvideSpeech builds the text-to-speech fallback chain: OpenAI, Deepgram,
// then the local engine. Unconfigured providers are left out.
func ProvideSpeech(i do.Injector) (*SpeechHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	tempDir := filepath.Join(cfg.App.DataPath, "tmp")
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, err
	}

	var providers []speech.Provider
	if p := speech.NewOpenAIProvider(speech.OpenAIConfig{
		APIKey:  cfg.Speech.OpenAIKey,
		Model:   cfg.Speech.OpenAIModel,
		BaseURL: cfg.Speech.OpenAIBaseURL,
	}); p != nil {
		providers = append(providers, p)
	}
	if p := speech.NewDeepgramProvider(cfg.Speech.DeepgramKey, tempDir); p != nil {
		providers = append(providers, p)
	}
	if cfg.Speech.LocalEngine != "" {
		local := speech.NewLocalProvider(cfg.Speech.LocalEngine, tempDir)
		if local.Available() {
			providers = append(providers, local)
		} else {
			log.Warn("Local TTS engine not found", "engine", cfg.Speech.LocalEngine)
		}
	}

	chain := speech.NewChain(log.Component("speech"), providers...)
	handle := &SpeechHandle{Chain: chain, Synth: chain}

	if cfg.Speech.CacheEnabled {
		cache, err := speech.OpenClipCache(cfg.Speech.CachePath, cfg.Speech.CacheTTL)
		if err != nil {
			return nil, err
		}
		handle.cache = cache
		handle.Synth = speech.NewCachedSynthesizer(chain, cache, log.Component("speech"))
	}

	log.Info("Speech providers configured",
		"providers", chain.Providers(),
		"cache", cfg.Speech.CacheEnabled,
	)
	if len(providers) == 0 {
		log.Warn("No speech providers available, synthesis requests will fail")
	}

	return handle, nil
}

// RewriteHandle holds the rewrite chain and its prompt set.
type RewriteHandle struct {
	*rewrite.Chain
	Prompts *rewrite.Prompts
}

// ProvideRewrite builds the tone rewrite chain from the primary and fallback gateways.
func ProvideRewrite(i do.Injector) (*RewriteHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	prompts := rewrite.DefaultPrompts()
	if cfg.Rewrite.PromptsPath != "" {
		loaded, err := rewrite.LoadPrompts(cfg.Rewrite.PromptsPath)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	var providers []rewrite.Provider
	gateways := []rewrite.GatewayConfig{
		{Name: "primary", APIKey: cfg.Rewrite.APIKey, Model: cfg.Rewrite.Model, BaseURL: cfg.Rewrite.BaseURL},
		{Name: "fallback", APIKey: cfg.Rewrite.FallbackAPIKey, Model: cfg.Rewrite.FallbackModel, BaseURL: cfg.Rewrite.FallbackBaseURL},
	}
	for _, gw := range gateways {
		if r := rewrite.NewOpenAIRewriter(gw, prompts); r != nil {
			providers = append(providers, r)
		}
	}

	chain := rewrite.NewChain(log.Component("rewrite"), cfg.Rewrite.Timeout, providers...)
	log.Info("Rewrite providers configured", "providers", chain.Providers())
	if len(providers) == 0 {
		log.Warn("No rewrite providers configured, rewrites return the original text")
	}

	return &RewriteHandle{Chain: chain, Prompts: prompts}, nil
}
