// Package rewrite adapts text to a narration tone through LLM chat providers.
package rewrite

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// Provider rewrites text in a tone.
type Provider interface {
	Name() string
	Rewrite(ctx context.Context, text string, tone narration.Tone) (string, error)
}

// Result is the outcome of a chain rewrite.
type Result struct {
	Text     string
	Provider string // empty when the original text was returned
}

// Chain tries providers in order. When all fail it returns the input unchanged.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewChain creates a chain. Nil providers are dropped; timeout bounds each attempt.
func NewChain(logger *slog.Logger, timeout time.Duration, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chain{timeout: timeout, logger: logger}
	for _, p := range providers {
		if p != nil {
			c.providers = append(c.providers, p)
		}
	}
	return c
}

// Providers returns provider names in fallback order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Rewrite returns the rewritten text. Provider failures never surface as errors;
// only a cancelled context does.
func (c *Chain) Rewrite(ctx context.Context, text string, tone narration.Tone) (Result, error) {
	for _, p := range c.providers {
		attemptCtx, cancel := c.attemptContext(ctx)
		out, err := p.Rewrite(attemptCtx, text, tone)
		cancel()

		if err == nil {
			if cleaned := CleanTonePrefix(out, tone); cleaned != "" {
				return Result{Text: cleaned, Provider: p.Name()}, nil
			}
			c.logger.Warn("rewrite provider returned only a tone prefix", "provider", p.Name())
			continue
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		c.logger.Warn("rewrite provider failed", "provider", p.Name(), "tone", tone, "error", err)
	}

	if len(c.providers) > 0 {
		c.logger.Info("all rewrite providers failed, returning original text", "tone", tone)
	}
	return Result{Text: CleanTonePrefix(text, tone)}, nil
}

func (c *Chain) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// CleanTonePrefix strips a leading "[CALM TONE]" style marker some models echo.
func CleanTonePrefix(text string, tone narration.Tone) string {
	if text == "" || tone == "" {
		return strings.TrimSpace(text)
	}
	re := regexp.MustCompile(`(?i)^\s*\[?\s*` + regexp.QuoteMeta(strings.ToUpper(string(tone))) + `\s*TONE\s*\]?\s*`)
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}
