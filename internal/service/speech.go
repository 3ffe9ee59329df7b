package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/echoverse/echoverse-server/internal/audio"
	"github.com/echoverse/echoverse-server/internal/domain"
	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/store"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// SpeechService synthesizes single clips and stores them as downloads.
type SpeechService struct {
	synth     narration.Synthesizer
	store     store.Store
	storage   *media.Storage
	records   *recorder
	validator *validation.Validator
	maxText   int
	logger    *slog.Logger
}

// NewSpeechService creates a speech service.
func NewSpeechService(
	synth narration.Synthesizer,
	store store.Store,
	storage *media.Storage,
	index HistoryIndex,
	publisher events.Publisher,
	validator *validation.Validator,
	maxText int,
	logger *slog.Logger,
) *SpeechService {
	return &SpeechService{
		synth:     synth,
		store:     store,
		storage:   storage,
		records:   newRecorder(store, index, publisher, logger),
		validator: validator,
		maxText:   maxText,
		logger:    logger,
	}
}

// SynthesizeRequest asks for one clip. HistoryID attaches the clip to an
// existing rewrite record instead of creating a new one.
type SynthesizeRequest struct {
	Text      string `json:"text" validate:"required"`
	Voice     string `json:"voice" validate:"omitempty,voice"`
	Tone      string `json:"tone" validate:"omitempty,tone"`
	HistoryID string `json:"history_id"`
}

// AudioResponse describes a stored clip.
type AudioResponse struct {
	AudioURL    string          `json:"audio_url"`
	Filename    string          `json:"filename"`
	FileSize    int64           `json:"file_size"`
	ContentType string          `json:"content_type"`
	DurationMS  int64           `json:"duration_ms"`
	Voice       narration.Voice `json:"voice"`
	Tone        narration.Tone  `json:"tone"`
	Provider    string          `json:"provider"`
	HistoryID   string          `json:"history_id"`
	DownloadID  string          `json:"download_id"`
}

// Synthesize converts text to speech and stores the file.
func (s *SpeechService) Synthesize(ctx context.Context, userID string, req SynthesizeRequest) (*AudioResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	text, err := checkText(req.Text, s.maxText)
	if err != nil {
		return nil, err
	}
	voice, tone := voiceOrDefault(req.Voice), toneOrDefault(req.Tone)

	var h *domain.History
	if req.HistoryID != "" {
		h, err = ownedHistory(ctx, s.store, userID, req.HistoryID)
		if err != nil {
			return nil, err
		}
		h.Voice = string(voice)
		h.Status = domain.HistoryProcessing
	} else {
		h = &domain.History{
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
	}

	s.logger.Info("Synthesizing speech", "user_id", userID, "voice", voice, "tone", tone, "history_id", h.ID)

	resp, err := s.produce(ctx, h, text, voice, tone, func(format audio.Format, at time.Time) string {
		return media.SynthesisFilename(userID, string(voice), format, at)
	})
	if err != nil {
		return nil, err
	}
	s.records.publish(events.TypeSpeechCompleted, events.NarrationEvent{
		UserID:     userID,
		HistoryID:  resp.HistoryID,
		DownloadID: resp.DownloadID,
		Filename:   resp.Filename,
		FileSize:   resp.FileSize,
		Segments:   1,
		DurationMS: resp.DurationMS,
	})
	return resp, nil
}

// produce synthesizes one clip, stores it, completes h, and records a download.
// On failure h is marked failed.
func (s *SpeechService) produce(
	ctx context.Context,
	h *domain.History,
	text string,
	voice narration.Voice,
	tone narration.Tone,
	filename func(audio.Format, time.Time) string,
) (*AudioResponse, error) {
	clip, err := s.synth.Synthesize(ctx, text, voice, tone)
	if err != nil {
		s.records.failHistory(h, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Error("Speech synthesis failed", "history_id", h.ID, "voice", voice, "error", err)
		return nil, domainerrors.Wrap(err, domainerrors.CodeNoAudio, "Failed to generate audio")
	}

	format := audio.DetectFormat(clip.Audio)
	var durationMS int64
	if d, err := audio.Duration(clip.Audio); err == nil {
		durationMS = d.Milliseconds()
	} else {
		s.logger.Debug("could not read clip duration", "history_id", h.ID, "error", err)
	}

	stored, size, err := s.storage.Save(filename(format, time.Now()), clip.Audio)
	if err != nil {
		s.records.failHistory(h, "failed to store audio")
		return nil, fmt.Errorf("store audio: %w", err)
	}

	h.Complete(stored)
	if err := s.records.updateHistory(ctx, h); err != nil {
		return nil, err
	}

	d := &domain.Download{
		UserID:      h.UserID,
		HistoryID:   h.ID,
		Filename:    stored,
		FileSize:    size,
		ContentType: format.ContentType(),
		DurationMS:  durationMS,
	}
	if err := s.records.createDownload(ctx, d); err != nil {
		return nil, err
	}

	return &AudioResponse{
		AudioURL:    AudioURL(stored),
		Filename:    stored,
		FileSize:    size,
		ContentType: d.ContentType,
		DurationMS:  durationMS,
		Voice:       voice,
		Tone:        tone,
		Provider:    clip.Provider,
		HistoryID:   h.ID,
		DownloadID:  d.ID,
	}, nil
}

// ownedHistory loads a history record, hiding records owned by other users.
func ownedHistory(ctx context.Context, s store.Store, userID, historyID string) (*domain.History, error) {
	h, err := s.GetHistory(ctx, historyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("history record not found")
		}
		return nil, fmt.Errorf("get history: %w", err)
	}
	if h.UserID != userID {
		return nil, domainerrors.NotFound("history record not found")
	}
	return h, nil
}
