package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann", (&User{Name: "Ann", Email: "ann@example.com"}).DisplayName())
	assert.Equal(t, "ann@example.com", (&User{Email: "ann@example.com"}).DisplayName())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleMember}).IsAdmin())
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()
	s := &Session{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, s.IsExpired(now))
	assert.True(t, s.IsExpired(now.Add(time.Minute)))
}

func TestHistory_Transitions(t *testing.T) {
	h := &History{Status: HistoryProcessing}

	h.Fail("no audio")
	assert.Equal(t, HistoryFailed, h.Status)
	assert.Equal(t, "no audio", h.ErrorMessage)

	h.Complete("story_merged_user-1_20250101_120000.wav")
	assert.Equal(t, HistoryCompleted, h.Status)
	assert.Empty(t, h.ErrorMessage)
	assert.NotEmpty(t, h.AudioFile)
}

func TestDownload_MarkDownloaded(t *testing.T) {
	d := &Download{DurationMS: 1500}
	now := time.Now()

	d.MarkDownloaded(now)
	d.MarkDownloaded(now)

	assert.Equal(t, 2, d.DownloadCount)
	assert.Equal(t, now, *d.LastDownloadedAt)
	assert.Equal(t, 1500*time.Millisecond, d.Duration())
}
