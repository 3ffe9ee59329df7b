package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FormatFollowsEnvironment(t *testing.T) {
	tests := []struct {
		env      string
		wantJSON bool
	}{
		{"production", true},
		{"development", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			New(Config{Writer: &buf, Environment: tt.env, Level: slog.LevelInfo}).Info("narration merged")

			assert.Contains(t, buf.String(), "narration merged")
			assert.Equal(t, tt.wantJSON, bytes.HasPrefix(buf.Bytes(), []byte("{")))
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelWarn})

	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler_GroupsPrefixLaterAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, nil)).With("user_id", "user-1").WithGroup("segment")

	l.Info("synthesized", "index", 3, slog.Group("clip", "voice", "zira"))

	out := buf.String()
	assert.Contains(t, out, "user_id=user-1")
	assert.NotContains(t, out, "segment.user_id")
	assert.Contains(t, out, "segment.index=3")
	assert.Contains(t, out, "segment.clip.voice=zira")
}

func TestPrettyHandler_ComponentBeforeMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatPretty, Level: slog.LevelInfo})

	l.Component("assembler").Info("Narration merged", "title", "two words")

	out := buf.String()
	assert.Less(t, strings.Index(out, "[assembler]"), strings.Index(out, "Narration merged"))
	assert.NotContains(t, out, "component=")
	assert.Contains(t, out, `title="two words"`)
}

func TestLogger_ComponentJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: formatJSON, Level: slog.LevelInfo})

	l.Component("assembler").Error("narration failed", "error", errors.New("provider down"))

	out := buf.String()
	assert.Contains(t, out, `"component":"assembler"`)
	assert.Contains(t, out, `"error":"provider down"`)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("dropped") })
}
