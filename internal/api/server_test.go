package api

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/rewrite"
	"github.com/echoverse/echoverse-server/internal/search"
	"github.com/echoverse/echoverse-server/internal/service"
	"github.com/echoverse/echoverse-server/internal/store/sqlite"
	"github.com/echoverse/echoverse-server/internal/validation"
)

// testEnvelope mirrors the success envelope for decoding.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope mirrors the coded error envelope.
type testErrorEnvelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// testServer wraps the API server with the fakes behind it.
type testServer struct {
	*Server
	api     humatest.TestAPI
	synth   *stubSynth
	storage *media.Storage
}

// setupTestServer wires a server over a temporary database and audio directory.
func setupTestServer(t *testing.T) *testServer {
	return setupTestServerWith(t, Options{})
}

func setupTestServerWith(t *testing.T, opts Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	storage, err := media.NewStorage(filepath.Join(dir, "audio_files"))
	require.NoError(t, err)

	index, _, err := search.Open(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	synth := &stubSynth{clip: silentWAV(t, 500*time.Millisecond)}
	publisher := events.Nop{}
	v := validation.New()

	sessions := service.NewSessionService(st, tokens, logger)
	speech := service.NewSpeechService(synth, st, storage, index, publisher, v, 20000, logger)
	assembler := narration.NewAssembler(synth, narration.AssemblerOptions{
		Workers:        2,
		SegmentTimeout: 5 * time.Second,
		TempDir:        dir,
	}, logger)

	services := &Services{
		Auth:      service.NewAuthService(st, tokens, sessions, v, logger),
		Rewrite:   service.NewRewriteService(stubRewriter{}, st, index, v, 20000, logger),
		Speech:    speech,
		Narration: service.NewNarrationService(speech, assembler, publisher, v, 20000, logger),
		History:   service.NewHistoryService(st, storage, index, publisher, logger),
		Downloads: service.NewDownloadService(st, storage, logger),
	}
	components := Components{
		Speech:  providerList{"stub"},
		Rewrite: providerList{"stub"},
	}

	s := NewServer(st, services, components, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server:  s,
		api:     humatest.Wrap(t, s.API()),
		synth:   synth,
		storage: storage,
	}
}

// register creates an account and returns its access token.
func (ts *testServer) register(t *testing.T, email string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "correct-horse",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var env testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env.Data.AccessToken
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// decode unmarshals a success envelope.
func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	require.True(t, env.Success, string(body))
	return env.Data
}

// decodeError unmarshals a coded error envelope.
func decodeError(t *testing.T, body []byte) testErrorEnvelope {
	t.Helper()
	var env testErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	require.False(t, env.Success, string(body))
	return env
}

// silentWAV encodes d of silence as mono 16-bit WAV.
func silentWAV(t *testing.T, d time.Duration) []byte {
	t.Helper()
	rate := beep.SampleRate(8000)
	f, err := os.CreateTemp(t.TempDir(), "clip-*.wav")
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Silence(rate.N(d)), beep.Format{SampleRate: rate, NumChannels: 1, Precision: 2}))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}

// stubSynth returns the same clip for every text unless failing is set.
type stubSynth struct {
	mu      sync.Mutex
	clip    []byte
	failing bool
	calls   int
}

func (s *stubSynth) Synthesize(_ context.Context, _ string, _ narration.Voice, _ narration.Tone) (*narration.Clip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failing {
		return nil, errors.New("provider unavailable")
	}
	return &narration.Clip{Audio: s.clip, Provider: "stub"}, nil
}

func (s *stubSynth) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = true
}

// stubRewriter prefixes text with its tone.
type stubRewriter struct{}

func (stubRewriter) Rewrite(_ context.Context, text string, tone narration.Tone) (rewrite.Result, error) {
	return rewrite.Result{Text: "[" + string(tone) + "] " + text, Provider: "stub"}, nil
}

type providerList []string

func (p providerList) Providers() []string { return p }
