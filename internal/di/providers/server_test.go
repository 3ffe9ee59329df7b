package providers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateInstanceID(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	first, err := loadOrCreateInstanceID(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "srv-"))

	second, err := loadOrCreateInstanceID(dir)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	data, err := os.ReadFile(filepath.Join(dir, instanceIDFile))
	require.NoError(t, err)
	assert.Equal(t, first, string(data))
}

func TestLoadOrCreateInstanceID_BlankFileRegenerates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, instanceIDFile), []byte("  \n"), 0o600))

	got, err := loadOrCreateInstanceID(dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "srv-"))
}
