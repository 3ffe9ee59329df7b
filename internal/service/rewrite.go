package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/store"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// RewriteService adapts text to a tone and records the result in history.
type RewriteService struct {
	rewriter  Rewriter
	records   *recorder
	validator *validation.Validator
	maxText   int
	logger    *slog.Logger
}

// NewRewriteService creates a rewrite service.
func NewRewriteService(
	rewriter Rewriter,
	store store.Store,
	index HistoryIndex,
	validator *validation.Validator,
	maxText int,
	logger *slog.Logger,
) *RewriteService {
	return &RewriteService{
		rewriter:  rewriter,
		records:   newRecorder(store, index, nil, logger),
		validator: validator,
		maxText:   maxText,
		logger:    logger,
	}
}

// RewriteRequest asks for text in a tone.
type RewriteRequest struct {
	Text string `json:"text" validate:"required"`
	Tone string `json:"tone" validate:"omitempty,tone"`
}

// RewriteResponse is the rewritten text.
type RewriteResponse struct {
	OriginalText  string         `json:"original_text"`
	RewrittenText string         `json:"rewritten_text"`
	Tone          narration.Tone `json:"tone"`
	Provider      string         `json:"provider,omitempty"`
	HistoryID     string         `json:"history_id"`
}

// Rewrite rewrites text in the requested tone. When every provider fails the
// original text comes back unchanged.
func (s *RewriteService) Rewrite(ctx context.Context, userID string, req RewriteRequest) (*RewriteResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	text, err := checkText(req.Text, s.maxText)
	if err != nil {
		return nil, err
	}
	tone := toneOrDefault(req.Tone)

	s.logger.Info("Rewriting text", "user_id", userID, "tone", tone)

	result, err := s.rewriter.Rewrite(ctx, text, tone)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}

	h := &domain.History{
		UserID:        userID,
		OriginalText:  text,
		RewrittenText: result.Text,
		Tone:          string(tone),
		Status:        domain.HistoryCompleted,
	}
	if err := s.records.createHistory(ctx, h); err != nil {
		return nil, err
	}

	return &RewriteResponse{
		OriginalText:  text,
		RewrittenText: result.Text,
		Tone:          tone,
		Provider:      result.Provider,
		HistoryID:     h.ID,
	}, nil
}

func toneOrDefault(s string) narration.Tone {
	if tone, ok := narration.ParseTone(s); ok {
		return tone
	}
	return narration.ToneNeutral
}

func voiceOrDefault(s string) narration.Voice {
	if voice, ok := narration.ParseVoice(s); ok {
		return voice
	}
	return narration.NarratorVoice()
}
