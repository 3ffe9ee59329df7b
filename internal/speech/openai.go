package speech

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// DefaultOpenAIModel is the speech model used when none is configured.
const DefaultOpenAIModel = "gpt-4o-mini-tts"

// openAIVoices maps pool voices to OpenAI speech voices.
var openAIVoices = map[narration.Voice]openai.SpeechVoice{
	narration.VoiceDavid: openai.VoiceOnyx,
	narration.VoiceZira:  openai.VoiceNova,
	narration.VoiceHeera: openai.VoiceShimmer,
	narration.VoiceMark:  openai.VoiceEcho,
	narration.VoiceRavi:  openai.VoiceFable,
}

// OpenAIConfig configures the OpenAI speech provider.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIProvider synthesizes WAV audio through the OpenAI speech endpoint.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates the provider, or returns nil when no API key is set.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	if cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return "openai" }

// Synthesize implements Provider.
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, voice narration.Voice, tone narration.Tone) (*narration.Clip, error) {
	v, ok := openAIVoices[voice]
	if !ok {
		return nil, fmt.Errorf("unsupported voice %q", voice)
	}

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.model),
		Input:          text,
		Voice:          v,
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          toneSpeed(tone),
	})
	if err != nil {
		return nil, fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech: %w", err)
	}
	return &narration.Clip{Audio: data, Provider: p.Name()}, nil
}
