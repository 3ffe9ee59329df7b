package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echoverse/echoverse-server/internal/audio"
)

// Assembly defaults.
const (
	DefaultWorkers        = 4
	DefaultSegmentTimeout = 45 * time.Second
	DefaultGap            = 500 * time.Millisecond
)

var (
	// ErrNoSegments is returned when there is nothing to narrate.
	ErrNoSegments = errors.New("no story segments found")
	// ErrNoAudio is returned when every segment failed to synthesize.
	ErrNoAudio = errors.New("failed to generate any audio segments")
	// ErrMerge wraps failures while concatenating clips.
	ErrMerge = errors.New("failed to merge audio segments")
)

// State names the phases of one assembly call, logged at debug level.
type State string

// Assembly states.
const (
	StateCollecting     State = "collecting_segments"
	StateSynthAttempted State = "synth_attempted"
	StateSynthOK        State = "synth_ok"
	StateSynthSkipped   State = "synth_skipped"
	StateMerging        State = "merging"
	StateMerged         State = "merged"
	StateMergeFailed    State = "merge_failed"
)

// Clip is one synthesized segment.
type Clip struct {
	Audio    []byte
	Provider string
}

// Synthesizer turns one segment into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice, tone Tone) (*Clip, error)
}

// AssemblerOptions tunes concurrency and timing.
type AssemblerOptions struct {
	Workers        int
	SegmentTimeout time.Duration
	Gap            time.Duration
	// TempDir is the parent of per-call work directories; empty means os.TempDir().
	TempDir string
}

// Assembler synthesizes segments and merges the clips into one narration.
type Assembler struct {
	synth  Synthesizer
	opts   AssemblerOptions
	logger *slog.Logger
}

// Result is a merged narration.
type Result struct {
	Audio        []byte
	Duration     time.Duration
	SegmentCount int
	// Skipped holds the indexes of segments that produced no audio.
	Skipped []int
}

// NewAssembler creates an assembler. Zero options take the package defaults.
func NewAssembler(synth Synthesizer, opts AssemblerOptions, logger *slog.Logger) *Assembler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.SegmentTimeout <= 0 {
		opts.SegmentTimeout = DefaultSegmentTimeout
	}
	if opts.Gap < 0 {
		opts.Gap = 0
	} else if opts.Gap == 0 {
		opts.Gap = DefaultGap
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{synth: synth, opts: opts, logger: logger}
}

// Assemble synthesizes every segment and merges the successful clips in segment order.
// Failed or timed-out segments are skipped. The per-call work directory is removed on
// every return path.
func (a *Assembler) Assemble(ctx context.Context, segments []Segment) (*Result, error) {
	if len(segments) == 0 {
		return nil, ErrNoSegments
	}

	workDir, err := os.MkdirTemp(a.opts.TempDir, "narration-"+uuid.NewString()+"-")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			a.logger.Warn("failed to remove narration work dir", "dir", workDir, "error", err)
		}
	}()

	a.logger.Debug("narration assembly", "state", StateCollecting, "segments", len(segments))

	paths := a.synthesizeAll(ctx, workDir, segments)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		clips   [][]byte
		skipped []int
	)
	for i, p := range paths {
		if p == "" {
			skipped = append(skipped, i)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			a.logger.Warn("skipping unreadable segment clip", "segment", i, "error", err)
			skipped = append(skipped, i)
			continue
		}
		clips = append(clips, data)
	}

	if len(clips) == 0 {
		return nil, ErrNoAudio
	}

	a.logger.Debug("narration assembly", "state", StateMerging, "clips", len(clips), "skipped", len(skipped))

	merged, duration, err := a.merge(workDir, clips)
	if err != nil {
		a.logger.Error("narration merge failed", "state", StateMergeFailed, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMerge, err)
	}

	a.logger.Debug("narration assembly", "state", StateMerged, "duration", duration)

	return &Result{
		Audio:        merged,
		Duration:     duration,
		SegmentCount: len(clips),
		Skipped:      skipped,
	}, nil
}

// synthesizeAll fans synthesis out over a bounded pool. The returned slice is indexed by
// segment; empty entries are skipped segments.
func (a *Assembler) synthesizeAll(ctx context.Context, workDir string, segments []Segment) []string {
	paths := make([]string, len(segments))
	sem := make(chan struct{}, a.opts.Workers)
	var wg sync.WaitGroup

	for i, seg := range segments {
		wg.Add(1)
		go func(i int, seg Segment) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			path, err := a.synthesizeOne(ctx, workDir, i, seg)
			if err != nil {
				a.logger.Warn("skipping segment",
					"state", StateSynthSkipped,
					"segment", i,
					"character", seg.Character,
					"voice", seg.Voice,
					"error", err,
				)
				return
			}
			paths[i] = path
		}(i, seg)
	}

	wg.Wait()
	return paths
}

func (a *Assembler) synthesizeOne(ctx context.Context, workDir string, i int, seg Segment) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.SegmentTimeout)
	defer cancel()

	a.logger.Debug("narration assembly", "state", StateSynthAttempted, "segment", i)

	clip, err := a.synth.Synthesize(ctx, seg.Text, seg.Voice, seg.Tone)
	if err != nil {
		return "", err
	}
	if clip == nil || len(clip.Audio) == 0 {
		return "", errors.New("empty audio")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	format := audio.DetectFormat(clip.Audio)
	path := filepath.Join(workDir, fmt.Sprintf("segment_%04d%s", i, format.Ext()))
	if err := os.WriteFile(path, clip.Audio, 0o600); err != nil {
		return "", fmt.Errorf("write clip: %w", err)
	}

	a.logger.Debug("narration assembly", "state", StateSynthOK, "segment", i, "provider", clip.Provider)
	return path, nil
}

func (a *Assembler) merge(workDir string, clips [][]byte) ([]byte, time.Duration, error) {
	out, err := os.Create(filepath.Join(workDir, "merged.wav"))
	if err != nil {
		return nil, 0, err
	}
	duration, err := audio.Merge(out, clips, a.opts.Gap)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, 0, err
	}
	data, err := os.ReadFile(out.Name())
	if err != nil {
		return nil, 0, err
	}
	return data, duration, nil
}
