package narration

import "strings"

// Analyze splits text into lines and classifies each non-blank line in order.
// It returns an empty slice when the text has no content; callers must treat that as
// an error rather than an empty narration.
func Analyze(text string) []Segment {
	return AnalyzeWithPool(text, DefaultPool)
}

// AnalyzeWithPool is Analyze over a custom voice pool.
func AnalyzeWithPool(text string, pool []Voice) []Segment {
	classifier := NewClassifier(NewRegistry(pool))

	lines := splitLines(text)
	segments := make([]Segment, 0, len(lines))
	for _, line := range lines {
		if seg, ok := classifier.Classify(line); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

// Summary lists the distinct voices and tones of a segment list in first-use order.
type Summary struct {
	Voices []Voice `json:"voices_used"`
	Tones  []Tone  `json:"tones_used"`
}

// Summarize collects the voices and tones used by segments.
func Summarize(segments []Segment) Summary {
	sum := Summary{Voices: []Voice{}, Tones: []Tone{}}
	seenVoice := make(map[Voice]bool)
	seenTone := make(map[Tone]bool)
	for _, s := range segments {
		if !seenVoice[s.Voice] {
			seenVoice[s.Voice] = true
			sum.Voices = append(sum.Voices, s.Voice)
		}
		if !seenTone[s.Tone] {
			seenTone[s.Tone] = true
			sum.Tones = append(sum.Tones, s.Tone)
		}
	}
	return sum
}
