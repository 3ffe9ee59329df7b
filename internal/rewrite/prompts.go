package rewrite

import (
	"fmt"
	"os"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/echoverse/echoverse-server/internal/narration"
)

var defaultPrompts = map[narration.Tone]string{
	narration.ToneNeutral:     "Rewrite the following text in a clear, balanced, and professional tone while maintaining the original meaning:",
	narration.ToneSuspenseful: "Rewrite the following text to create suspense and drama, making it more engaging and thrilling while preserving the core message:",
	narration.ToneInspiring:   "Rewrite the following text in an uplifting, motivational, and inspiring tone that encourages and energizes the reader:",
	narration.ToneCheerful:    "Rewrite the following text in a bright, happy, and energetic tone that conveys joy and positivity:",
	narration.ToneSad:         "Rewrite the following text in a soft, somber, and emotional tone that conveys melancholy and reflection:",
	narration.ToneAngry:       "Rewrite the following text with intensity and passion, conveying strong emotions and determination:",
	narration.TonePlayful:     "Rewrite the following text in a fun, lively, and whimsical tone that is entertaining and lighthearted:",
	narration.ToneCalm:        "Rewrite the following text in a relaxed, soothing, and peaceful tone that promotes tranquility:",
	narration.ToneConfident:   "Rewrite the following text in an assured, persuasive, and authoritative tone that conveys certainty and leadership:",
}

// promptFile is the on-disk TOML layout:
//
//	system = "You are a writing assistant."
//	[tones]
//	calm = "Rewrite the following text..."
type promptFile struct {
	System string            `toml:"system"`
	Tones  map[string]string `toml:"tones"`
}

// Prompts holds the per-tone instruction templates. Safe for concurrent use.
type Prompts struct {
	mu     sync.RWMutex
	system string
	tones  map[narration.Tone]string
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() *Prompts {
	p := &Prompts{}
	p.set("", nil)
	return p
}

// LoadPrompts reads a TOML prompt file over the defaults.
func LoadPrompts(path string) (*Prompts, error) {
	p := DefaultPrompts()
	if err := p.Reload(path); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload replaces the prompt set from a TOML file. Tones missing from the file
// keep their default prompt; unknown tones are rejected.
func (p *Prompts) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read prompts: %w", err)
	}

	var file promptFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse prompts %s: %w", path, err)
	}

	overrides := make(map[narration.Tone]string, len(file.Tones))
	for name, prompt := range file.Tones {
		tone, ok := narration.ParseTone(name)
		if !ok {
			return fmt.Errorf("parse prompts %s: unknown tone %q", path, name)
		}
		overrides[tone] = prompt
	}

	p.set(file.System, overrides)
	return nil
}

func (p *Prompts) set(system string, overrides map[narration.Tone]string) {
	tones := make(map[narration.Tone]string, len(defaultPrompts))
	for t, prompt := range defaultPrompts {
		tones[t] = prompt
	}
	for t, prompt := range overrides {
		if prompt != "" {
			tones[t] = prompt
		}
	}

	p.mu.Lock()
	p.system = system
	p.tones = tones
	p.mu.Unlock()
}

// System returns the optional system message.
func (p *Prompts) System() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.system
}

// For returns the instruction for a tone, falling back to neutral.
func (p *Prompts) For(tone narration.Tone) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if prompt, ok := p.tones[tone]; ok {
		return prompt
	}
	return p.tones[narration.ToneNeutral]
}

// Render builds the user message for a rewrite request.
func (p *Prompts) Render(text string, tone narration.Tone) string {
	return fmt.Sprintf("%s\n\nOriginal text: %s\n\nRewritten text:", p.For(tone), text)
}
