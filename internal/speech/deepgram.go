package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/rest"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/pkg/client/speak"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// deepgramModels maps pool voices to Deepgram Aura models.
var deepgramModels = map[narration.Voice]string{
	narration.VoiceDavid: "aura-orion-en",
	narration.VoiceZira:  "aura-asteria-en",
	narration.VoiceHeera: "aura-luna-en",
	narration.VoiceMark:  "aura-arcas-en",
	narration.VoiceRavi:  "aura-perseus-en",
}

var deepgramInit sync.Once

// DeepgramProvider synthesizes audio through the Deepgram speak REST API.
// The SDK writes to a file, so each call uses a scratch file that is removed afterwards.
type DeepgramProvider struct {
	dg      *api.Client
	tempDir string
}

// NewDeepgramProvider creates the provider, or returns nil when no API key is set.
func NewDeepgramProvider(apiKey, tempDir string) *DeepgramProvider {
	if apiKey == "" {
		return nil
	}
	deepgramInit.Do(client.InitWithDefault)
	c := client.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramProvider{dg: api.New(c), tempDir: tempDir}
}

// Name implements Provider.
func (p *DeepgramProvider) Name() string { return "deepgram" }

// Synthesize implements Provider.
func (p *DeepgramProvider) Synthesize(ctx context.Context, text string, voice narration.Voice, _ narration.Tone) (*narration.Clip, error) {
	model, ok := deepgramModels[voice]
	if !ok {
		return nil, fmt.Errorf("unsupported voice %q", voice)
	}

	dir := p.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	file := filepath.Join(dir, "deepgram-"+uuid.NewString()+".mp3")
	defer os.Remove(file)

	if _, err := p.dg.ToSave(ctx, file, text, &interfaces.SpeakOptions{Model: model}); err != nil {
		return nil, fmt.Errorf("deepgram speak: %w", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read deepgram audio: %w", err)
	}
	return &narration.Clip{Audio: data, Provider: p.Name()}, nil
}
