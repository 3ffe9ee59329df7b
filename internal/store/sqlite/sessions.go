package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/store"
)

// sessionColumns must match the scan order in scanSession.
const sessionColumns = `id, user_id, refresh_token_hash, expires_at, created_at, last_seen_at, ip_address, user_agent`

var errSessionNotFound = store.ErrNotFound.WithMessage("session not found")

func scanSession(row scanner) (*domain.Session, error) {
	var (
		sess        domain.Session
		refreshHash sql.NullString
		expiresAt   string
		createdAt   string
		lastSeenAt  string
		ipAddress   sql.NullString
		userAgent   sql.NullString
	)

	err := row.Scan(&sess.ID, &sess.UserID, &refreshHash, &expiresAt, &createdAt, &lastSeenAt, &ipAddress, &userAgent)
	if err != nil {
		return nil, err
	}

	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sess.LastSeenAt, err = parseTime(lastSeenAt); err != nil {
		return nil, err
	}
	sess.RefreshTokenHash = refreshHash.String
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String

	return &sess, nil
}

// CreateSession inserts a session. Returns store.ErrAlreadyExists on a duplicate ID or token.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		nullString(session.RefreshTokenHash),
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.LastSeenAt),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSessionNotFound
	}
	return sess, err
}

// GetSessionByRefreshToken retrieves a session by hashed refresh token.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = ?`, tokenHash)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errSessionNotFound
	}
	return sess, err
}

// UpdateSession performs a full row update.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			refresh_token_hash = ?, expires_at = ?, last_seen_at = ?, ip_address = ?, user_agent = ?
		WHERE id = ?`,
		nullString(session.RefreshTokenHash),
		formatTime(session.ExpiresAt),
		formatTime(session.LastSeenAt),
		nullString(session.IPAddress),
		nullString(session.UserAgent),
		session.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(result, errSessionNotFound)
}

// DeleteSession hard-deletes a session.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(result, errSessionNotFound)
}

// DeleteExpiredSessions deletes sessions whose expiry has passed and returns the count.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}
