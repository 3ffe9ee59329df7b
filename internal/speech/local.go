package speech

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// DefaultLocalEngine is the local synthesis binary.
const DefaultLocalEngine = "espeak-ng"

// localVoices maps pool voices to espeak-ng voice variants.
var localVoices = map[narration.Voice]string{
	narration.VoiceDavid: "en-us+m3",
	narration.VoiceZira:  "en-us+f3",
	narration.VoiceHeera: "en-gb+f2",
	narration.VoiceMark:  "en-gb+m1",
	narration.VoiceRavi:  "en-us+m5",
}

// baseWordsPerMinute is espeak-ng's default speaking rate.
const baseWordsPerMinute = 170

// LocalProvider runs an espeak-compatible binary that writes WAV output.
type LocalProvider struct {
	binary  string
	tempDir string
}

// NewLocalProvider creates a local engine provider. An empty binary uses espeak-ng.
func NewLocalProvider(binary, tempDir string) *LocalProvider {
	if binary == "" {
		binary = DefaultLocalEngine
	}
	return &LocalProvider{binary: binary, tempDir: tempDir}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local" }

// Available reports whether the engine binary can be found.
func (p *LocalProvider) Available() bool {
	_, err := exec.LookPath(p.binary)
	return err == nil
}

// Synthesize implements Provider.
func (p *LocalProvider) Synthesize(ctx context.Context, text string, voice narration.Voice, tone narration.Tone) (*narration.Clip, error) {
	path, err := exec.LookPath(p.binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnavailable, p.binary)
	}

	dir := p.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	out := filepath.Join(dir, "local-"+uuid.NewString()+".wav")
	defer os.Remove(out)

	cmd := exec.CommandContext(ctx, path, localArgs(out, text, voice, tone)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited %d: %s", p.binary, exitErr.ExitCode(), output)
		}
		return nil, fmt.Errorf("run %s: %w", p.binary, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("read local audio: %w", err)
	}
	return &narration.Clip{Audio: data, Provider: p.Name()}, nil
}

func localArgs(out, text string, voice narration.Voice, tone narration.Tone) []string {
	v, ok := localVoices[voice]
	if !ok {
		v = localVoices[narration.NarratorVoice()]
	}
	wpm := int(math.Round(baseWordsPerMinute * toneSpeed(tone)))
	return []string{"-v", v, "-s", strconv.Itoa(wpm), "-w", out, "--", text}
}
