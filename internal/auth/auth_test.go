package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/domain"
)

func testKey() []byte {
	return []byte(strings.Repeat("k", keyLength))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	assert.True(t, VerifyPassword(hash, "correct horse battery"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
}

func TestHashPassword_Rejects(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)

	_, err = HashPassword(strings.Repeat("a", maxPasswordLength+1))
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, VerifyPassword("not-a-hash", "password"))
	assert.False(t, VerifyPassword("$bcrypt$v=1$m=1,t=1,p=1$aa$bb", "password"))
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func TestTokenService_AccessToken(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Minute, time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: "user-1", Email: "ann@example.com", Role: domain.RoleAdmin}
	token, err := svc.GenerateAccessToken(user, "sess-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ann@example.com", claims.Email)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.True(t, claims.IsAdmin())
	assert.NotEmpty(t, claims.TokenID)
}

func TestTokenService_Expired(t *testing.T) {
	svc, err := NewTokenService(testKey(), -time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-1"}, "sess-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	a, err := NewTokenService(testKey(), time.Minute, time.Hour)
	require.NoError(t, err)
	b, err := NewTokenService([]byte(strings.Repeat("z", keyLength)), time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := a.GenerateAccessToken(&domain.User{ID: "user-1"}, "sess-1")
	require.NoError(t, err)

	_, err = b.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc, err := NewTokenService(testKey(), time.Minute, time.Hour)
	require.NoError(t, err)

	a, err := svc.GenerateRefreshToken()
	require.NoError(t, err)
	b, err := svc.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, HashRefreshToken(a), HashRefreshToken(b))
}
