package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/store"
)

// historyColumns must match the scan order in scanHistory.
const historyColumns = `id, user_id, original_text, rewritten_text, tone, voice, status,
	audio_file, error_message, created_at, updated_at`

func scanHistory(row scanner) (*domain.History, error) {
	var (
		h            domain.History
		status       string
		audioFile    sql.NullString
		errorMessage sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.OriginalText,
		&h.RewrittenText,
		&h.Tone,
		&h.Voice,
		&status,
		&audioFile,
		&errorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.Status = domain.HistoryStatus(status)
	h.AudioFile = audioFile.String
	h.ErrorMessage = errorMessage.String
	if h.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if h.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &h, nil
}

// CreateHistory inserts a history record.
func (s *Store) CreateHistory(ctx context.Context, h *domain.History) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (`+historyColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.UserID,
		h.OriginalText,
		h.RewrittenText,
		h.Tone,
		h.Voice,
		string(h.Status),
		nullString(h.AudioFile),
		nullString(h.ErrorMessage),
		formatTime(h.CreatedAt),
		formatTime(h.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetHistory retrieves a history record by ID.
func (s *Store) GetHistory(ctx context.Context, id string) (*domain.History, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+historyColumns+` FROM history WHERE id = ?`, id)
	h, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrHistoryNotFound
	}
	return h, err
}

// UpdateHistory updates the mutable fields of a history record.
func (s *Store) UpdateHistory(ctx context.Context, h *domain.History) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE history SET
			rewritten_text = ?, tone = ?, voice = ?, status = ?,
			audio_file = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		h.RewrittenText,
		h.Tone,
		h.Voice,
		string(h.Status),
		nullString(h.AudioFile),
		nullString(h.ErrorMessage),
		formatTime(h.UpdatedAt),
		h.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrHistoryNotFound)
}

// DeleteHistory deletes a record; its downloads go with it.
func (s *Store) DeleteHistory(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrHistoryNotFound)
}

// ListHistory returns a user's records, newest first.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]*domain.History, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+historyColumns+` FROM history
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, store.ClampLimit(limit))
	if err != nil {
		return nil, err
	}
	return collectHistory(rows)
}

// ListAllHistory returns every record. Used to rebuild the search index.
func (s *Store) ListAllHistory(ctx context.Context) ([]*domain.History, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM history ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collectHistory(rows)
}

func collectHistory(rows *sql.Rows) ([]*domain.History, error) {
	defer rows.Close()

	var out []*domain.History
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
