package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
)

// resampleQuality is passed to beep.Resample when clips disagree on sample rate.
const resampleQuality = 4

// ErrUnsupportedFormat is returned for clips that are neither WAV nor MP3.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode opens a WAV or MP3 clip held in memory. Samples are in [-1, 1] at full scale
// for every supported format.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	switch DetectFormat(data) {
	case FormatWAV:
		s, format, err := wav.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, format, err
		}
		return withWAVScale(s, format), format, nil
	case FormatMP3:
		return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
}

// The wav decoder divides signed samples by 2^bits-1 instead of 2^(bits-1), which
// halves 16 and 24-bit clips.
func wavScale(precision int) float64 {
	switch precision {
	case 2:
		return float64(1<<16-1) / (1 << 15)
	case 3:
		return float64(1<<24-1) / (1 << 23)
	default:
		return 1
	}
}

// scaledStreamer restores full scale on a decoded clip and keeps it seekable.
type scaledStreamer struct {
	beep.StreamSeekCloser
	gain effects.Gain
}

func (s *scaledStreamer) Stream(samples [][2]float64) (int, bool) {
	return s.gain.Stream(samples)
}

func withWAVScale(s beep.StreamSeekCloser, format beep.Format) beep.StreamSeekCloser {
	scale := wavScale(format.Precision)
	if scale == 1 {
		return s
	}
	return &scaledStreamer{
		StreamSeekCloser: s,
		gain:             effects.Gain{Streamer: s, Gain: scale - 1},
	}
}

// Duration returns the playing time of a clip.
func Duration(data []byte) (time.Duration, error) {
	s, format, err := Decode(data)
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return format.SampleRate.D(s.Len()), nil
}

// Merge concatenates clips in order with gap of silence between consecutive clips and
// writes the result to w as 16-bit PCM WAV. The output takes the first clip's sample
// rate and channel count; other clips are resampled to match. It returns the merged
// duration.
func Merge(w io.WriteSeeker, clips [][]byte, gap time.Duration) (time.Duration, error) {
	if len(clips) == 0 {
		return 0, errors.New("no clips to merge")
	}

	var (
		parts    []beep.Streamer
		closers  []beep.StreamSeekCloser
		target   beep.Format
		duration time.Duration
	)
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	for i, data := range clips {
		s, format, err := Decode(data)
		if err != nil {
			return 0, fmt.Errorf("decode clip %d: %w", i, err)
		}
		closers = append(closers, s)

		if i == 0 {
			target = beep.Format{
				SampleRate:  format.SampleRate,
				NumChannels: format.NumChannels,
				Precision:   2,
			}
			if target.NumChannels < 1 || target.NumChannels > 2 {
				target.NumChannels = 2
			}
		} else if gap > 0 {
			parts = append(parts, beep.Silence(target.SampleRate.N(gap)))
			duration += gap
		}

		duration += format.SampleRate.D(s.Len())

		var streamer beep.Streamer = s
		if format.SampleRate != target.SampleRate {
			streamer = beep.Resample(resampleQuality, format.SampleRate, target.SampleRate, s)
		}
		parts = append(parts, streamer)
	}

	if err := wav.Encode(w, beep.Seq(parts...), target); err != nil {
		return 0, fmt.Errorf("encode wav: %w", err)
	}
	return duration, nil
}
