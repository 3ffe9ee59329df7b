package domain

import "time"

// Download is a stored audio file a user can fetch again.
type Download struct {
	ID               string     `json:"id"`
	UserID           string     `json:"user_id"`
	HistoryID        string     `json:"history_id,omitempty"`
	Filename         string     `json:"filename"`
	FileSize         int64      `json:"file_size"`
	ContentType      string     `json:"content_type"`
	DurationMS       int64      `json:"duration_ms"`
	DownloadCount    int        `json:"download_count"`
	LastDownloadedAt *time.Time `json:"last_downloaded_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`

	// History is populated by list queries.
	History *HistorySummary `json:"history,omitempty"`
}

// HistorySummary is the part of a history record shown alongside a download.
type HistorySummary struct {
	OriginalText string `json:"original_text"`
	Tone         string `json:"tone"`
	Voice        string `json:"voice"`
}

// Duration returns the audio duration.
func (d *Download) Duration() time.Duration {
	return time.Duration(d.DurationMS) * time.Millisecond
}

// MarkDownloaded records a fetch of the file at now.
func (d *Download) MarkDownloaded(now time.Time) {
	d.DownloadCount++
	d.LastDownloadedAt = &now
}
