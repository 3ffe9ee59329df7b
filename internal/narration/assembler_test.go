package narration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse-server/internal/audio"
)

const testRate = beep.SampleRate(8000)

// wavOf encodes d of constant value v as mono 16-bit WAV.
func wavOf(t *testing.T, d time.Duration, v float64) []byte {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "clip-*.wav")
	require.NoError(t, err)
	s := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{v, v}
		}
		return len(samples), true
	})
	require.NoError(t, wav.Encode(f, beep.Take(testRate.N(d), s), beep.Format{SampleRate: testRate, NumChannels: 1, Precision: 2}))
	require.NoError(t, f.Close())
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}

// fakeSynth returns a prepared clip per segment text, failing or stalling on demand.
type fakeSynth struct {
	mu     sync.Mutex
	clips  map[string][]byte
	fail   map[string]bool
	stall  map[string]bool
	delays map[string]time.Duration
	calls  atomic.Int32
}

func (f *fakeSynth) Synthesize(ctx context.Context, text string, _ Voice, _ Tone) (*Clip, error) {
	f.calls.Add(1)
	f.mu.Lock()
	data, fail, stall, delay := f.clips[text], f.fail[text], f.stall[text], f.delays[text]
	f.mu.Unlock()

	if stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, errors.New("provider unavailable")
	}
	return &Clip{Audio: data, Provider: "fake"}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func segs(texts ...string) []Segment {
	out := make([]Segment, len(texts))
	for i, txt := range texts {
		out[i] = Segment{Text: txt, Voice: VoiceDavid, Tone: ToneNeutral, Character: "Narrator"}
	}
	return out
}

// sampleAt decodes merged audio and returns the left-channel value at offset.
func sampleAt(t *testing.T, data []byte, offset time.Duration) float64 {
	t.Helper()
	s, format, err := audio.Decode(data)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Seek(format.SampleRate.N(offset)))
	buf := make([][2]float64, 1)
	n, _ := s.Stream(buf)
	require.Equal(t, 1, n)
	return buf[0][0]
}

func TestAssemble_SkipsFailedSegment(t *testing.T) {
	synth := &fakeSynth{
		clips: map[string][]byte{
			"one.":   wavOf(t, 200*time.Millisecond, 0.5),
			"two.":   wavOf(t, 200*time.Millisecond, 0.1),
			"three.": wavOf(t, 200*time.Millisecond, -0.5),
		},
		fail: map[string]bool{"two.": true},
	}
	a := NewAssembler(synth, AssemblerOptions{TempDir: t.TempDir()}, quietLogger())

	res, err := a.Assemble(context.Background(), segs("one.", "two.", "three."))
	require.NoError(t, err)

	assert.Equal(t, 2, res.SegmentCount)
	assert.Equal(t, []int{1}, res.Skipped)
	assert.Equal(t, 900*time.Millisecond, res.Duration)

	assert.InDelta(t, 0.5, sampleAt(t, res.Audio, 100*time.Millisecond), 0.01)
	assert.InDelta(t, 0.0, sampleAt(t, res.Audio, 450*time.Millisecond), 0.01)
	assert.InDelta(t, -0.5, sampleAt(t, res.Audio, 800*time.Millisecond), 0.01)
}

func TestAssemble_OrderIndependentOfCompletion(t *testing.T) {
	synth := &fakeSynth{
		clips: map[string][]byte{
			"a.": wavOf(t, 100*time.Millisecond, 0.2),
			"b.": wavOf(t, 100*time.Millisecond, 0.4),
			"c.": wavOf(t, 100*time.Millisecond, 0.6),
		},
		delays: map[string]time.Duration{"a.": 80 * time.Millisecond, "b.": 40 * time.Millisecond},
	}
	a := NewAssembler(synth, AssemblerOptions{Workers: 3, TempDir: t.TempDir()}, quietLogger())

	res, err := a.Assemble(context.Background(), segs("a.", "b.", "c."))
	require.NoError(t, err)
	require.Equal(t, 3, res.SegmentCount)

	assert.InDelta(t, 0.2, sampleAt(t, res.Audio, 50*time.Millisecond), 0.01)
	assert.InDelta(t, 0.4, sampleAt(t, res.Audio, 650*time.Millisecond), 0.01)
	assert.InDelta(t, 0.6, sampleAt(t, res.Audio, 1250*time.Millisecond), 0.01)
}

func TestAssemble_TimeoutCountsAsSkip(t *testing.T) {
	synth := &fakeSynth{
		clips: map[string][]byte{"fast.": wavOf(t, 100*time.Millisecond, 0.3)},
		stall: map[string]bool{"slow.": true},
	}
	a := NewAssembler(synth, AssemblerOptions{SegmentTimeout: 50 * time.Millisecond, TempDir: t.TempDir()}, quietLogger())

	res, err := a.Assemble(context.Background(), segs("slow.", "fast."))
	require.NoError(t, err)
	assert.Equal(t, 1, res.SegmentCount)
	assert.Equal(t, []int{0}, res.Skipped)
	assert.Equal(t, 100*time.Millisecond, res.Duration)
}

func TestAssemble_AllFail(t *testing.T) {
	synth := &fakeSynth{fail: map[string]bool{"x.": true, "y.": true}}
	tmp := t.TempDir()
	a := NewAssembler(synth, AssemblerOptions{TempDir: tmp}, quietLogger())

	_, err := a.Assemble(context.Background(), segs("x.", "y."))
	assert.ErrorIs(t, err, ErrNoAudio)
	assert.Equal(t, int32(2), synth.calls.Load())

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "work dir removed")
}

func TestAssemble_MergeFailureCleansUp(t *testing.T) {
	synth := &fakeSynth{clips: map[string][]byte{"bad.": []byte("definitely not audio")}}
	tmp := t.TempDir()
	a := NewAssembler(synth, AssemblerOptions{TempDir: tmp}, quietLogger())

	_, err := a.Assemble(context.Background(), segs("bad."))
	assert.ErrorIs(t, err, ErrMerge)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "work dir removed")
}

func TestAssemble_SuccessCleansUp(t *testing.T) {
	synth := &fakeSynth{clips: map[string][]byte{"ok.": wavOf(t, 50*time.Millisecond, 0.1)}}
	tmp := t.TempDir()
	a := NewAssembler(synth, AssemblerOptions{TempDir: tmp}, quietLogger())

	res, err := a.Assemble(context.Background(), segs("ok."))
	require.NoError(t, err)
	assert.Equal(t, audio.FormatWAV, audio.DetectFormat(res.Audio))

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAssemble_NoSegments(t *testing.T) {
	a := NewAssembler(&fakeSynth{}, AssemblerOptions{}, quietLogger())
	_, err := a.Assemble(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestAssemble_CanceledContext(t *testing.T) {
	synth := &fakeSynth{stall: map[string]bool{"a.": true}}
	a := NewAssembler(synth, AssemblerOptions{TempDir: t.TempDir()}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Assemble(ctx, segs("a."))
	assert.ErrorIs(t, err, context.Canceled)
}
