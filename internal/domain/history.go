package domain

import "time"

// HistoryStatus tracks the lifecycle of a narration request.
type HistoryStatus string

const (
	HistoryProcessing HistoryStatus = "processing"
	HistoryCompleted  HistoryStatus = "completed"
	HistoryFailed     HistoryStatus = "failed"
)

// Labels used for merged multi-voice narrations.
const (
	MergedNarrationText = "Story Narration (Merged)"
	MultipleLabel       = "multiple"
)

// History records one rewrite, synthesis, or story narration request.
type History struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	OriginalText  string        `json:"original_text"`
	RewrittenText string        `json:"rewritten_text"`
	Tone          string        `json:"tone"`
	Voice         string        `json:"voice"`
	Status        HistoryStatus `json:"status"`
	AudioFile     string        `json:"audio_file,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Complete marks the record completed with its audio file.
func (h *History) Complete(audioFile string) {
	h.Status = HistoryCompleted
	h.AudioFile = audioFile
	h.ErrorMessage = ""
	h.UpdatedAt = time.Now()
}

// Fail marks the record failed.
func (h *History) Fail(reason string) {
	h.Status = HistoryFailed
	h.ErrorMessage = reason
	h.UpdatedAt = time.Now()
}
