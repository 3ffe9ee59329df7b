package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/store"
)

// downloadColumns must match the scan order in scanDownload.
const downloadColumns = `d.id, d.user_id, d.history_id, d.filename, d.file_size, d.content_type,
	d.duration_ms, d.download_count, d.last_downloaded_at, d.created_at`

func scanDownload(row scanner, extra ...any) (*domain.Download, error) {
	var (
		d                domain.Download
		historyID        sql.NullString
		lastDownloadedAt sql.NullString
		createdAt        string
	)

	dest := []any{
		&d.ID,
		&d.UserID,
		&historyID,
		&d.Filename,
		&d.FileSize,
		&d.ContentType,
		&d.DurationMS,
		&d.DownloadCount,
		&lastDownloadedAt,
		&createdAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	d.HistoryID = historyID.String
	var err error
	if d.LastDownloadedAt, err = parseNullableTime(lastDownloadedAt); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDownload inserts a download record.
func (s *Store) CreateDownload(ctx context.Context, d *domain.Download) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (
			id, user_id, history_id, filename, file_size, content_type,
			duration_ms, download_count, last_downloaded_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID,
		d.UserID,
		nullString(d.HistoryID),
		d.Filename,
		d.FileSize,
		d.ContentType,
		d.DurationMS,
		d.DownloadCount,
		nullTimeString(d.LastDownloadedAt),
		formatTime(d.CreatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetDownload retrieves a download by ID.
func (s *Store) GetDownload(ctx context.Context, id string) (*domain.Download, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+downloadColumns+` FROM downloads d WHERE d.id = ?`, id)
	d, err := scanDownload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDownloadNotFound
	}
	return d, err
}

// ListDownloads returns a user's downloads with their history summary, newest first.
func (s *Store) ListDownloads(ctx context.Context, userID string, limit int) ([]*domain.Download, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+downloadColumns+`, h.original_text, h.tone, h.voice
		FROM downloads d
		LEFT JOIN history h ON h.id = d.history_id
		WHERE d.user_id = ?
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT ?`, userID, store.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Download
	for rows.Next() {
		var text, tone, voice sql.NullString
		d, err := scanDownload(rows, &text, &tone, &voice)
		if err != nil {
			return nil, err
		}
		if text.Valid {
			d.History = &domain.HistorySummary{
				OriginalText: text.String,
				Tone:         tone.String,
				Voice:        voice.String,
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListDownloadsByHistory returns the downloads produced by one history record.
func (s *Store) ListDownloadsByHistory(ctx context.Context, historyID string) ([]*domain.Download, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+downloadColumns+` FROM downloads d WHERE d.history_id = ? ORDER BY d.created_at ASC`, historyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecordDownload increments the download count and stamps the last download time.
func (s *Store) RecordDownload(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE downloads SET download_count = download_count + 1, last_downloaded_at = ?
		WHERE id = ?`, formatTime(at), id)
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrDownloadNotFound)
}

// DeleteDownload deletes a download record.
func (s *Store) DeleteDownload(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM downloads WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrDownloadNotFound)
}
