package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/echoverse/echoverse-server/internal/service"
)

var bearerSecurity = []map[string][]string{{"bearer": {}}}

func (s *Server) registerRewriteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "rewriteText",
		Method:      http.MethodPost,
		Path:        "/api/v1/rewrite",
		Summary:     "Rewrite text in a tone",
		Description: "Adapts text to the requested tone. When every provider fails the original text is returned.",
		Tags:        []string{"Narration"},
		Security:    bearerSecurity,
	}, s.handleRewrite)
}

func (s *Server) registerNarrationRoutes() {
	limit := huma.Middlewares{s.rateLimit(s.narrationRateLimiter, byUser)}

	huma.Register(s.api, huma.Operation{
		OperationID: "synthesizeSpeech",
		Method:      http.MethodPost,
		Path:        "/api/v1/synthesize",
		Summary:     "Synthesize speech",
		Description: "Converts text to speech with one voice and stores the clip as a download.",
		Tags:        []string{"Narration"},
		Security:    bearerSecurity,
		Middlewares: limit,
	}, s.handleSynthesize)

	huma.Register(s.api, huma.Operation{
		OperationID: "analyzeStory",
		Method:      http.MethodPost,
		Path:        "/api/v1/story-narration",
		Summary:     "Analyze story",
		Description: "Splits a story into narrator and character segments with voices and tones.",
		Tags:        []string{"Story Narration"},
		Security:    bearerSecurity,
	}, s.handleAnalyzeStory)

	huma.Register(s.api, huma.Operation{
		OperationID: "narrateSegment",
		Method:      http.MethodPost,
		Path:        "/api/v1/story-narration/audio",
		Summary:     "Narrate one segment",
		Description: "Synthesizes a single story segment with the chosen voice and tone.",
		Tags:        []string{"Story Narration"},
		Security:    bearerSecurity,
		Middlewares: limit,
	}, s.handleNarrateSegment)

	huma.Register(s.api, huma.Operation{
		OperationID: "narrateMerged",
		Method:      http.MethodPost,
		Path:        "/api/v1/story-narration/merged",
		Summary:     "Narrate whole story",
		Description: "Synthesizes every segment and merges the clips into one WAV file. Failed segments are skipped.",
		Tags:        []string{"Story Narration"},
		Security:    bearerSecurity,
		Middlewares: limit,
	}, s.handleNarrateMerged)
}

// === DTOs ===

// RewriteInput wraps the rewrite request for Huma.
type RewriteInput struct {
	Body struct {
		Text string `json:"text,omitempty" doc:"Text to rewrite, plain or HTML"`
		Tone string `json:"tone,omitempty" doc:"Target tone, default neutral"`
	}
}

// RewriteOutput wraps the rewrite response for Huma.
type RewriteOutput struct {
	Body *service.RewriteResponse
}

// SynthesizeInput wraps the synthesis request for Huma.
type SynthesizeInput struct {
	Body struct {
		Text      string `json:"text,omitempty" doc:"Text to speak, plain or HTML"`
		Voice     string `json:"voice,omitempty" doc:"Voice ID, default david"`
		Tone      string `json:"tone,omitempty" doc:"Tone, default neutral"`
		HistoryID string `json:"history_id,omitempty" doc:"Rewrite record to attach the clip to"`
	}
}

// AudioOutput wraps a stored clip for Huma.
type AudioOutput struct {
	Body *service.AudioResponse
}

// StoryInput wraps story text for Huma.
type StoryInput struct {
	Body struct {
		Text string `json:"text,omitempty" doc:"Story text, plain or HTML. One line per narration unit."`
	}
}

// AnalyzeOutput wraps a story analysis for Huma.
type AnalyzeOutput struct {
	Body *service.AnalyzeResponse
}

// SegmentInput wraps a segment narration request for Huma.
type SegmentInput struct {
	Body struct {
		Text      string `json:"text,omitempty" doc:"Segment text"`
		Voice     string `json:"voice,omitempty" doc:"Voice ID, default david"`
		Tone      string `json:"tone,omitempty" doc:"Tone, default neutral"`
		SegmentID int    `json:"segment_id,omitempty" minimum:"0" doc:"Index of the segment in its story"`
	}
}

// SegmentOutput wraps a segment clip for Huma.
type SegmentOutput struct {
	Body *service.SegmentResponse
}

// MergedOutput wraps a merged narration for Huma.
type MergedOutput struct {
	Body *service.MergedResponse
}

// === Handlers ===

func (s *Server) handleRewrite(ctx context.Context, input *RewriteInput) (*RewriteOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Rewrite.Rewrite(ctx, userID, service.RewriteRequest{
		Text: input.Body.Text,
		Tone: input.Body.Tone,
	})
	if err != nil {
		return nil, err
	}
	return &RewriteOutput{Body: resp}, nil
}

func (s *Server) handleSynthesize(ctx context.Context, input *SynthesizeInput) (*AudioOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Speech.Synthesize(ctx, userID, service.SynthesizeRequest{
		Text:      input.Body.Text,
		Voice:     input.Body.Voice,
		Tone:      input.Body.Tone,
		HistoryID: input.Body.HistoryID,
	})
	if err != nil {
		return nil, err
	}
	return &AudioOutput{Body: resp}, nil
}

func (s *Server) handleAnalyzeStory(ctx context.Context, input *StoryInput) (*AnalyzeOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	resp, err := s.services.Narration.Analyze(ctx, service.StoryRequest{Text: input.Body.Text})
	if err != nil {
		return nil, err
	}
	return &AnalyzeOutput{Body: resp}, nil
}

func (s *Server) handleNarrateSegment(ctx context.Context, input *SegmentInput) (*SegmentOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.services.Narration.NarrateSegment(ctx, userID, service.SegmentRequest{
		Text:      input.Body.Text,
		Voice:     input.Body.Voice,
		Tone:      input.Body.Tone,
		SegmentID: input.Body.SegmentID,
	})
	if err != nil {
		return nil, err
	}
	return &SegmentOutput{Body: resp}, nil
}

func (s *Server) handleNarrateMerged(ctx context.Context, input *StoryInput) (*MergedOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Merged narration requested", "user_id", userID, "length", len(input.Body.Text))

	resp, err := s.services.Narration.NarrateMerged(ctx, userID, service.StoryRequest{Text: input.Body.Text})
	if err != nil {
		return nil, err
	}
	return &MergedOutput{Body: resp}, nil
}
