package service

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/auth"
	"github.com/echoverse/echoverse-server/internal/events"
	"github.com/echoverse/echoverse-server/internal/media"
	"github.com/echoverse/echoverse-server/internal/narration"
	"github.com/echoverse/echoverse-server/internal/rewrite"
	"github.com/echoverse/echoverse-server/internal/search"
	"github.com/echoverse/echoverse-server/internal/store/sqlite"
	"github.com/echoverse/echoverse-server/internal/validation"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires services over a temporary database, audio directory, and
// in-memory search index.
type testEnv struct {
	store     *sqlite.Store
	storage   *media.Storage
	index     *search.HistoryIndex
	tokens    *auth.TokenService
	synth     *fakeSynth
	rewriter  *fakeRewriter
	published *recordingPublisher

	auth      *AuthService
	sessions  *SessionService
	rewrite   *RewriteService
	speech    *SpeechService
	narration *NarrationService
	history   *HistoryService
	downloads *DownloadService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	logger := quietLogger()

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

	env := &testEnv{
		store:     st,
		storage:   storage,
		index:     index,
		tokens:    tokens,
		synth:     &fakeSynth{clips: map[string][]byte{}, fail: map[string]bool{}},
		rewriter:  &fakeRewriter{},
		published: &recordingPublisher{},
	}

	v := validation.New()
	env.sessions = NewSessionService(st, tokens, logger)
	env.auth = NewAuthService(st, tokens, env.sessions, v, logger)
	env.rewrite = NewRewriteService(env.rewriter, st, index, v, 20000, logger)
	env.speech = NewSpeechService(env.synth, st, storage, index, env.published, v, 20000, logger)
	assembler := narration.NewAssembler(env.synth, narration.AssemblerOptions{
		Workers:        2,
		SegmentTimeout: 5 * time.Second,
		TempDir:        dir,
	}, logger)
	env.narration = NewNarrationService(env.speech, assembler, env.published, v, 20000, logger)
	env.history = NewHistoryService(st, storage, index, env.published, logger)
	env.downloads = NewDownloadService(st, storage, logger)
	return env
}

// registerUser creates an account and returns its ID.
func (e *testEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	resp, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:    email,
		Password: "correct-horse",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return resp.User.ID
}

const testRate = beep.SampleRate(8000)

// wavOf encodes d of silence as mono 16-bit WAV.
func wavOf(t *testing.T, d time.Duration) []byte {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "clip-*.wav")
	require.NoError(t, err)
	require.NoError(t, wav.Encode(f, beep.Silence(testRate.N(d)), beep.Format{SampleRate: testRate, NumChannels: 1, Precision: 2}))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}

// fakeSynth returns the prepared WAV for a text. Texts in fail and texts with
// no prepared clip produce errors.
type fakeSynth struct {
	mu    sync.Mutex
	clips map[string][]byte
	fail  map[string]bool
	all   error // when set every call fails
	calls []narration.Voice
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, voice narration.Voice, _ narration.Tone) (*narration.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, voice)

	if f.all != nil {
		return nil, f.all
	}
	if f.fail[text] {
		return nil, errors.New("provider rejected text")
	}
	if data, ok := f.clips[text]; ok {
		return &narration.Clip{Audio: data, Provider: "fake"}, nil
	}
	return nil, errors.New("no clip prepared for " + strings.TrimSpace(text))
}

func (f *fakeSynth) prepare(t *testing.T, d time.Duration, texts ...string) {
	t.Helper()
	clip := wavOf(t, d)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, text := range texts {
		f.clips[text] = clip
	}
}

type fakeRewriter struct {
	result rewrite.Result
	err    error
}

func (f *fakeRewriter) Rewrite(_ context.Context, text string, _ narration.Tone) (rewrite.Result, error) {
	if f.err != nil {
		return rewrite.Result{}, f.err
	}
	if f.result.Text == "" {
		return rewrite.Result{Text: text}, nil
	}
	return f.result, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.NarrationEvent
}

func (p *recordingPublisher) Publish(eventType string, event events.NarrationEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	event.Type = eventType
	p.events = append(p.events, event)
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) last() events.NarrationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}
