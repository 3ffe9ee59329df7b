package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/echoverse/echoverse-server/internal/audio"
	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// NarrationService runs story analysis and multi-voice narration.
type NarrationService struct {
	speech    *SpeechService
	assembler Assembler
	records   *recorder
	validator *validation.Validator
	maxText   int
	logger    *slog.Logger
}

// NewNarrationService creates a narration service. Single segment clips are
// produced through speech so they share its storage and records.
func NewNarrationService(
	speech *SpeechService,
	assembler Assembler,
	publisher events.Publisher,
	validator *validation.Validator,
	maxText int,
	logger *slog.Logger,
) *NarrationService {
	return &NarrationService{
		speech:    speech,
		assembler: assembler,
		records:   newRecorder(speech.store, speech.records.index, publisher, logger),
		validator: validator,
		maxText:   maxText,
		logger:    logger,
	}
}

// StoryRequest carries story text, possibly HTML.
type StoryRequest struct {
	Text string `json:"text" validate:"required"`
}

// AnalyzeResponse is the segmentation of a story.
type AnalyzeResponse struct {
	Segments      []narration.Segment `json:"segments"`
	TotalSegments int                 `json:"total_segments"`
	VoicesUsed    []narration.Voice   `json:"voices_used"`
	TonesUsed     []narration.Tone    `json:"tones_used"`
}

// SegmentRequest asks for one segment clip.
type SegmentRequest struct {
	Text      string `json:"text" validate:"required"`
	Voice     string `json:"voice" validate:"omitempty,voice"`
	Tone      string `json:"tone" validate:"omitempty,tone"`
	SegmentID int    `json:"segment_id" validate:"gte=0"`
}

// SegmentResponse describes a stored segment clip.
type SegmentResponse struct {
	AudioResponse
	SegmentID int `json:"segment_id"`
}

// MergedResponse describes a merged story narration.
type MergedResponse struct {
	AudioURL         string  `json:"audio_url"`
	Filename         string  `json:"filename"`
	FileSize         int64   `json:"file_size"`
	SegmentsCount    int     `json:"segments_count"`
	TotalSegments    int     `json:"total_segments"`
	SkippedSegments  []int   `json:"skipped_segments"`
	DurationEstimate float64 `json:"duration_estimate"` // seconds
	HistoryID        string  `json:"history_id"`
	DownloadID       string  `json:"download_id"`
}

// Analyze segments a story without synthesizing it.
func (s *NarrationService) Analyze(ctx context.Context, req StoryRequest) (*AnalyzeResponse, error) {
	segments, err := s.segments(req)
	if err != nil {
		return nil, err
	}
	summary := narration.Summarize(segments)
	return &AnalyzeResponse{
		Segments:      segments,
		TotalSegments: len(segments),
		VoicesUsed:    summary.Voices,
		TonesUsed:     summary.Tones,
	}, nil
}

// NarrateSegment synthesizes one segment with the voice and tone chosen by the client.
func (s *NarrationService) NarrateSegment(ctx context.Context, userID string, req SegmentRequest) (*SegmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	text, err := checkText(req.Text, s.maxText)
	if err != nil {
		return nil, err
	}
	voice, tone := voiceOrDefault(req.Voice), toneOrDefault(req.Tone)

	h := &domain.History{
		UserID:        userID,
		OriginalText:  text,
		RewrittenText: text,
		Tone:          string(tone),
		Voice:         string(voice),
		Status:        domain.HistoryProcessing,
	}
	if err := s.records.createHistory(ctx, h); err != nil {
		return nil, err
	}

	resp, err := s.speech.produce(ctx, h, text, voice, tone, func(format audio.Format, at time.Time) string {
		return media.SegmentFilename(userID, string(voice), req.SegmentID, format, at)
	})
	if err != nil {
		return nil, err
	}
	return &SegmentResponse{AudioResponse: *resp, SegmentID: req.SegmentID}, nil
}

// NarrateMerged analyzes a story, synthesizes every segment, and stores the
// merged narration. Segments that fail are skipped; the call fails only when no
// segment produced audio or the merge itself fails.
func (s *NarrationService) NarrateMerged(ctx context.Context, userID string, req StoryRequest) (*MergedResponse, error) {
	segments, err := s.segments(req)
	if err != nil {
		return nil, err
	}

	h := &domain.History{
		UserID:        userID,
		OriginalText:  plainText(req.Text),
		RewrittenText: domain.MergedNarrationText,
		Tone:          domain.MultipleLabel,
		Voice:         domain.MultipleLabel,
		Status:        domain.HistoryProcessing,
	}
	if err := s.records.createHistory(ctx, h); err != nil {
		return nil, err
	}

	log := s.logger.With("user_id", userID, "history_id", h.ID)
	log.Info("Starting merged narration", "segments", len(segments))

	result, err := s.assembler.Assemble(ctx, segments)
	if err != nil {
		return nil, s.mergedFailure(ctx, h, userID, err)
	}

	stored, size, err := s.speech.storage.Save(media.MergedFilename(userID, time.Now()), result.Audio)
	if err != nil {
		s.records.failHistory(h, "failed to store audio")
		return nil, fmt.Errorf("store merged audio: %w", err)
	}

	h.Complete(stored)
	if err := s.records.updateHistory(ctx, h); err != nil {
		return nil, err
	}

	d := &domain.Download{
		UserID:      userID,
		HistoryID:   h.ID,
		Filename:    stored,
		FileSize:    size,
		ContentType: audio.FormatWAV.ContentType(),
		DurationMS:  result.Duration.Milliseconds(),
	}
	if err := s.records.createDownload(ctx, d); err != nil {
		return nil, err
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []int{}
	}

	s.records.publish(events.TypeNarrationCompleted, events.NarrationEvent{
		UserID:     userID,
		HistoryID:  h.ID,
		DownloadID: d.ID,
		Filename:   stored,
		FileSize:   size,
		Segments:   result.SegmentCount,
		Skipped:    result.Skipped,
		DurationMS: d.DurationMS,
	})
	log.Info("Merged narration complete",
		"segments", result.SegmentCount,
		"skipped", len(result.Skipped),
		"duration", result.Duration,
		"file", stored,
	)

	return &MergedResponse{
		AudioURL:         AudioURL(stored),
		Filename:         stored,
		FileSize:         size,
		SegmentsCount:    result.SegmentCount,
		TotalSegments:    len(segments),
		SkippedSegments:  skipped,
		DurationEstimate: math.Round(result.Duration.Seconds()*100) / 100,
		HistoryID:        h.ID,
		DownloadID:       d.ID,
	}, nil
}

func (s *NarrationService) segments(req StoryRequest) ([]narration.Segment, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	text, err := checkText(req.Text, s.maxText)
	if err != nil {
		return nil, err
	}
	segments := narration.Analyze(text)
	if len(segments) == 0 {
		return nil, domainerrors.ErrNoSegments
	}
	return segments, nil
}

// mergedFailure records a failed merged narration and maps the cause to an API error.
func (s *NarrationService) mergedFailure(ctx context.Context, h *domain.History, userID string, err error) error {
	s.records.failHistory(h, err.Error())
	s.records.publish(events.TypeNarrationFailed, events.NarrationEvent{
		UserID:    userID,
		HistoryID: h.ID,
		Error:     err.Error(),
	})

	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, narration.ErrNoSegments):
		return domainerrors.ErrNoSegments.WithCause(err)
	case errors.Is(err, narration.ErrNoAudio):
		return domainerrors.ErrNoAudio.WithCause(err)
	case errors.Is(err, narration.ErrMerge):
		return domainerrors.ErrMergeFailed.WithCause(err)
	default:
		return fmt.Errorf("assemble narration: %w", err)
	}
}
