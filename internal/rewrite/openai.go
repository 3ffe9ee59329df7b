package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/echoverse/echoverse-server/internal/narration"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// GatewayConfig configures one OpenAI-compatible chat endpoint.
type GatewayConfig struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIRewriter rewrites text through an OpenAI-compatible chat completion API.
type OpenAIRewriter struct {
	name    string
	client  *openai.Client
	model   string
	prompts *Prompts
}

// NewOpenAIRewriter returns nil when the gateway has neither a key nor a base URL.
// Self-hosted gateways often accept requests without a key.
func NewOpenAIRewriter(cfg GatewayConfig, prompts *Prompts) *OpenAIRewriter {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &OpenAIRewriter{
		name:    name,
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		prompts: prompts,
	}
}

// Name implements Provider.
func (r *OpenAIRewriter) Name() string { return r.name }

// Rewrite implements Provider.
func (r *OpenAIRewriter) Rewrite(ctx context.Context, text string, tone narration.Tone) (string, error) {
	var messages []openai.ChatCompletionMessage
	if system := r.prompts.System(); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: system})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: r.prompts.Render(text, tone),
	})

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Messages:    messages,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errors.New("chat completion returned empty text")
	}
	return out, nil
}
