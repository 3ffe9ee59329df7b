package search

import (
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
)

const (
	fieldUserID    = "user_id"
	fieldOriginal  = "original_text"
	fieldRewritten = "rewritten_text"
	fieldTone      = "tone"
	fieldVoice     = "voice"
	fieldStatus    = "status"
	fieldCreatedAt = "created_at"
)

// Document is the indexed form of a history record.
type Document struct {
	ID            string
	UserID        string
	OriginalText  string
	RewrittenText string
	Tone          string
	Voice         string
	Status        string
	CreatedAt     time.Time
}

// DocumentFromHistory builds a document from a history record.
func DocumentFromHistory(h *domain.History) *Document {
	return &Document{
		ID:            h.ID,
		UserID:        h.UserID,
		OriginalText:  h.OriginalText,
		RewrittenText: h.RewrittenText,
		Tone:          h.Tone,
		Voice:         h.Voice,
		Status:        string(h.Status),
		CreatedAt:     h.CreatedAt,
	}
}

// toMap keys fields by their mapped names.
func (d *Document) toMap() map[string]any {
	return map[string]any{
		fieldUserID:    d.UserID,
		fieldOriginal:  d.OriginalText,
		fieldRewritten: d.RewrittenText,
		fieldTone:      d.Tone,
		fieldVoice:     d.Voice,
		fieldStatus:    d.Status,
		fieldCreatedAt: d.CreatedAt.UTC(),
	}
}
