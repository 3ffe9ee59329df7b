package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/narration"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProvider struct {
	name  string
	audio []byte
	err   error
	calls atomic.Int32
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Synthesize(context.Context, string, narration.Voice, narration.Tone) (*narration.Clip, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &narration.Clip{Audio: p.audio}, nil
}

func TestChain_FallsBackInOrder(t *testing.T) {
	first := &stubProvider{name: "first", err: errors.New("quota exceeded")}
	second := &stubProvider{name: "second", audio: []byte("RIFF")}
	third := &stubProvider{name: "third", audio: []byte("never")}

	chain := NewChain(quietLogger(), first, nil, second, third)
	assert.Equal(t, []string{"first", "second", "third"}, chain.Providers())

	clip, err := chain.Synthesize(context.Background(), "Hello.", narration.VoiceDavid, narration.ToneNeutral)
	require.NoError(t, err)
	assert.Equal(t, "second", clip.Provider)
	assert.Equal(t, []byte("RIFF"), clip.Audio)
	assert.EqualValues(t, 0, third.calls.Load())
}

func TestChain_EmptyAudioIsFailure(t *testing.T) {
	empty := &stubProvider{name: "empty", audio: nil}
	good := &stubProvider{name: "good", audio: []byte("x")}

	clip, err := NewChain(quietLogger(), empty, good).
		Synthesize(context.Background(), "Hi.", narration.VoiceZira, narration.ToneCalm)
	require.NoError(t, err)
	assert.Equal(t, "good", clip.Provider)
}

func TestChain_AllFail(t *testing.T) {
	a := &stubProvider{name: "a", err: errors.New("boom")}
	b := &stubProvider{name: "b", err: ErrUnavailable}

	_, err := NewChain(quietLogger(), a, b).
		Synthesize(context.Background(), "Hi.", narration.VoiceZira, narration.ToneCalm)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: boom")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChain_NoProviders(t *testing.T) {
	_, err := NewChain(nil).Synthesize(context.Background(), "Hi.", narration.VoiceZira, narration.ToneCalm)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestChain_RejectsBlankText(t *testing.T) {
	p := &stubProvider{name: "p", audio: []byte("x")}
	_, err := NewChain(nil, p).Synthesize(context.Background(), "   ", narration.VoiceZira, narration.ToneCalm)
	require.Error(t, err)
	assert.EqualValues(t, 0, p.calls.Load())
}

func TestOpenAIProvider_NilWithoutKey(t *testing.T) {
	assert.Nil(t, NewOpenAIProvider(OpenAIConfig{}))
}

func TestOpenAIProvider_Synthesize(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFFfakeWAVE"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NotNil(t, p)

	clip, err := p.Synthesize(context.Background(), "Hello there.", narration.VoiceHeera, narration.ToneSad)
	require.NoError(t, err)
	assert.Equal(t, "/v1/audio/speech", gotPath)
	assert.Equal(t, []byte("RIFFfakeWAVE"), clip.Audio)
	assert.Equal(t, "openai", clip.Provider)
}

func TestOpenAIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	_, err := p.Synthesize(context.Background(), "Hello.", narration.VoiceDavid, narration.ToneNeutral)
	assert.Error(t, err)
}

func TestOpenAIProvider_UnknownVoice(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "k"})
	_, err := p.Synthesize(context.Background(), "Hello.", narration.Voice("nobody"), narration.ToneNeutral)
	assert.Error(t, err)
}

func TestDeepgramProvider_NilWithoutKey(t *testing.T) {
	assert.Nil(t, NewDeepgramProvider("", ""))
}

func TestDeepgramModels_CoverPool(t *testing.T) {
	for _, v := range narration.DefaultPool {
		assert.NotEmpty(t, deepgramModels[v], "voice %s", v)
		assert.NotEmpty(t, openAIVoices[v], "voice %s", v)
		assert.NotEmpty(t, localVoices[v], "voice %s", v)
	}
}

func TestLocalArgs(t *testing.T) {
	args := localArgs("/tmp/out.wav", "-dash text", narration.VoiceZira, narration.ToneCalm)
	assert.Equal(t, []string{"-v", "en-us+f3", "-s", "153", "-w", "/tmp/out.wav", "--", "-dash text"}, args)

	args = localArgs("/tmp/out.wav", "x", narration.Voice("unknown"), narration.ToneNeutral)
	assert.Equal(t, "en-us+m3", args[1])
	assert.Equal(t, "170", args[3])
}

func TestLocalProvider_MissingBinary(t *testing.T) {
	p := NewLocalProvider("definitely-not-a-tts-engine", t.TempDir())
	assert.False(t, p.Available())

	_, err := p.Synthesize(context.Background(), "Hi.", narration.VoiceDavid, narration.ToneNeutral)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLocalProvider_RunsEngine(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "fixture.wav")
	require.NoError(t, os.WriteFile(fixture, []byte("RIFFlocal"), 0o644))

	script := filepath.Join(dir, "fake-espeak")
	body := "#!/bin/sh\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"-w\" ]; then shift; cp \"$SPEECH_FIXTURE\" \"$1\"; fi\n  shift\ndone\n"
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	t.Setenv("SPEECH_FIXTURE", fixture)

	p := NewLocalProvider(script, dir)
	clip, err := p.Synthesize(context.Background(), "Hello.", narration.VoiceMark, narration.ToneAngry)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFlocal"), clip.Audio)
	assert.Equal(t, "local", clip.Provider)
}

func TestLocalProvider_EngineFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "broken-espeak")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho bad voice >&2\nexit 3\n"), 0o755))

	_, err := NewLocalProvider(script, dir).
		Synthesize(context.Background(), "Hello.", narration.VoiceMark, narration.ToneNeutral)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited 3")
	assert.Contains(t, err.Error(), "bad voice")
}

func TestCachedSynthesizer(t *testing.T) {
	cache, err := OpenClipCache("", 0)
	require.NoError(t, err)
	defer cache.Close()

	inner := &stubProvider{name: "inner", audio: []byte("RIFFcached")}
	s := NewCachedSynthesizer(NewChain(quietLogger(), inner), cache, quietLogger())
	ctx := context.Background()

	first, err := s.Synthesize(ctx, "Same line.", narration.VoiceDavid, narration.ToneCalm)
	require.NoError(t, err)
	assert.Equal(t, "inner", first.Provider)

	second, err := s.Synthesize(ctx, "Same line.", narration.VoiceDavid, narration.ToneCalm)
	require.NoError(t, err)
	assert.Equal(t, "cache", second.Provider)
	assert.Equal(t, first.Audio, second.Audio)
	assert.EqualValues(t, 1, inner.calls.Load())

	// Different tone misses.
	_, err = s.Synthesize(ctx, "Same line.", narration.VoiceDavid, narration.ToneSad)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCachedSynthesizer_DoesNotCacheFailures(t *testing.T) {
	cache, err := OpenClipCache("", 0)
	require.NoError(t, err)
	defer cache.Close()

	inner := &stubProvider{name: "inner", err: errors.New("down")}
	s := NewCachedSynthesizer(inner, cache, quietLogger())

	_, err = s.Synthesize(context.Background(), "Line.", narration.VoiceDavid, narration.ToneCalm)
	require.Error(t, err)

	data, err := cache.Get("Line.", narration.VoiceDavid, narration.ToneCalm)
	require.NoError(t, err)
	assert.Nil(t, data)
}
