package response

import (
	"encoding/json/v2"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/echoverse/echoverse-server/internal/errors"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"status": "ok"}, discard())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.NotNil(t, env.Data)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad", discard()) }, http.StatusBadRequest},
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "no", discard()) }, http.StatusUnauthorized},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone", discard()) }, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "oops", discard()) }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, 2400*time.Millisecond, discard())

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decode(t, w).Code)

	w = httptest.NewRecorder()
	TooManyRequests(w, 0, discard())
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestHandleError(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.NotFound("audio file not found"), discard())
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decode(t, w)
	assert.Equal(t, "audio file not found", env.Error)
	assert.Equal(t, "NOT_FOUND", env.Code)

	w = httptest.NewRecorder()
	HandleError(w, stderrors.New("database on fire"), discard())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database on fire")
}
