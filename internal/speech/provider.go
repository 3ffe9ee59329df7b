// Package speech provides text-to-speech providers and the fallback chain the
// narration assembler synthesizes through.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// ErrUnavailable is returned by providers that are not configured or cannot run.
var ErrUnavailable = errors.New("speech provider unavailable")

// Provider synthesizes one text segment with a pool voice and tone.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, text string, voice narration.Voice, tone narration.Tone) (*narration.Clip, error)
}

// Chain tries providers in order and returns the first successful clip.
type Chain struct {
	providers []Provider
	logger    *slog.Logger
}

// NewChain creates a fallback chain. Nil providers are dropped.
func NewChain(logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{logger: logger}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Providers returns the provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Synthesize implements narration.Synthesizer.
func (c *Chain) Synthesize(ctx context.Context, text string, voice narration.Voice, tone narration.Tone) (*narration.Clip, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	if len(c.providers) == 0 {
		return nil, ErrUnavailable
	}

	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		clip, err := p.Synthesize(ctx, text, voice, tone)
		if err == nil && clip != nil && len(clip.Audio) > 0 {
			if clip.Provider == "" {
				clip.Provider = p.Name()
			}
			return clip, nil
		}
		if err == nil {
			err = errors.New("empty audio")
		}
		if !errors.Is(err, ErrUnavailable) {
			c.logger.Warn("speech provider failed, trying next",
				"provider", p.Name(),
				"voice", voice,
				"error", err,
			)
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	return nil, errors.Join(errs...)
}

// toneSpeed maps a tone to a speaking-rate multiplier.
func toneSpeed(tone narration.Tone) float64 {
	switch tone {
	case narration.ToneCalm, narration.ToneSad:
		return 0.9
	case narration.ToneSuspenseful:
		return 0.95
	case narration.ToneCheerful, narration.TonePlayful:
		return 1.05
	case narration.ToneAngry, narration.ToneConfident, narration.ToneInspiring:
		return 1.1
	default:
		return 1.0
	}
}
