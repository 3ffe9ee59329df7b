package media

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/audio"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "audio_files"))
	require.NoError(t, err)
	return s
}

func TestNewStorage(t *testing.T) {
	t.Run("creates nested directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "a", "b")
		s, err := NewStorage(dir)
		require.NoError(t, err)
		assert.Equal(t, dir, s.Dir())

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := NewStorage("")
		assert.ErrorContains(t, err, "cannot be empty")
	})
}

func TestStorage_SaveOpenDelete(t *testing.T) {
	s := setupTestStorage(t)

	name, size, err := s.Save("clip.wav", []byte("RIFFdata"))
	require.NoError(t, err)
	assert.Equal(t, "clip.wav", name)
	assert.EqualValues(t, 8, size)

	f, info, err := s.Open(name)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, "RIFFdata", string(data))
	assert.EqualValues(t, 8, info.Size())

	require.NoError(t, s.Delete(name))
	_, _, err = s.Open(name)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Delete(name), "deleting a missing file is not an error")
}

func TestStorage_SaveNeverOverwrites(t *testing.T) {
	s := setupTestStorage(t)

	first, _, err := s.Save("story.wav", []byte("one"))
	require.NoError(t, err)
	second, _, err := s.Save("story.wav", []byte("two"))
	require.NoError(t, err)
	third, _, err := s.Save("story.wav", []byte("three"))
	require.NoError(t, err)

	assert.Equal(t, "story.wav", first)
	assert.Equal(t, "story_1.wav", second)
	assert.Equal(t, "story_2.wav", third)

	data, err := os.ReadFile(filepath.Join(s.Dir(), first))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestStorage_SaveLeavesNoTempFiles(t *testing.T) {
	s := setupTestStorage(t)

	_, _, err := s.Save("story.wav", []byte("one"))
	require.NoError(t, err)
	_, _, err = s.Save("story.wav", []byte("two"))
	require.NoError(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"story.wav", "story_1.wav"}, names)
}

func TestStorage_SaveRejectsEmpty(t *testing.T) {
	s := setupTestStorage(t)
	_, _, err := s.Save("x.wav", nil)
	assert.Error(t, err)
}

func TestValidateName(t *testing.T) {
	for _, name := range []string{"", ".", "..", ".incoming-123", "../etc/passwd", "a/b.wav", `a\b.wav`, "x\x00.wav"} {
		assert.ErrorIs(t, ValidateName(name), ErrInvalidName, name)
	}
	assert.NoError(t, ValidateName("story_merged_user-1_20260101_120000.wav"))
	assert.ErrorIs(t, ValidateName("..hidden.wav"), ErrInvalidName, "dot names are reserved")
}

func TestStorage_OpenRejectsTraversal(t *testing.T) {
	s := setupTestStorage(t)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(s.Dir()), "secret.txt"), []byte("x"), 0o644))

	_, _, err := s.Open("../secret.txt")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFilenames(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	assert.Equal(t, "echoverse_user-abc_zira_20260304_050607.wav",
		SynthesisFilename("user-abc", "zira", audio.FormatWAV, at))
	assert.Equal(t, "story_segment_user-abc_ravi_3_20260304_050607.mp3",
		SegmentFilename("user-abc", "ravi", 3, audio.FormatMP3, at))
	assert.Equal(t, "story_merged_user-abc_20260304_050607.wav",
		MergedFilename("user-abc", at))
	assert.Equal(t, "story_merged_a--b_20260304_050607.wav",
		MergedFilename("a/.b", at))
}
