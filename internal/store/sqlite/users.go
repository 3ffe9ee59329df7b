package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/echoverse/echoverse-server/internal/domain"
	"github.com/echoverse/echoverse-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, email, password_hash, name, role, created_at, updated_at, last_login_at`

func scanUser(row scanner) (*domain.User, error) {
	var (
		u           domain.User
		role        string
		createdAt   string
		updatedAt   string
		lastLoginAt sql.NullString
	)

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &createdAt, &updatedAt, &lastLoginAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)

	var err error
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	lastLogin, err := parseNullableTime(lastLoginAt)
	if err != nil {
		return nil, err
	}
	if lastLogin != nil {
		u.LastLoginAt = *lastLogin
	}
	return &u, nil
}

// CreateUser inserts a user. Returns store.ErrEmailExists on a duplicate email.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, email_lower, password_hash, name, role, created_at, updated_at, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Name,
		string(user.Role),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		nullTimeString(&user.LastLoginAt),
	)
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "email") {
			return store.ErrEmailExists
		}
		return store.ErrAlreadyExists
	}
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// GetUserByEmail retrieves a user by case-insensitive email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email_lower = ?`, strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound.WithMessage("user not found")
	}
	return u, err
}

// UpdateUser performs a full row update.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?, email_lower = ?, password_hash = ?, name = ?, role = ?,
			updated_at = ?, last_login_at = ?
		WHERE id = ?`,
		user.Email,
		strings.ToLower(user.Email),
		user.PasswordHash,
		user.Name,
		string(user.Role),
		formatTime(user.UpdatedAt),
		nullTimeString(&user.LastLoginAt),
		user.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrEmailExists
	}
	if err != nil {
		return err
	}
	return requireAffected(result, store.ErrNotFound.WithMessage("user not found"))
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
