package narration

import "strings"

// Tone is an emotional narration style.
type Tone string

// Tones reachable from classification, plus the two rewrite-only styles.
const (
	ToneNeutral     Tone = "neutral"
	ToneCheerful    Tone = "cheerful"
	ToneSad         Tone = "sad"
	ToneAngry       Tone = "angry"
	ToneCalm        Tone = "calm"
	ToneSuspenseful Tone = "suspenseful"
	ToneConfident   Tone = "confident"
	ToneInspiring   Tone = "inspiring"
	TonePlayful     Tone = "playful"
)

// ToneInfo describes a tone for catalog listings.
type ToneInfo struct {
	ID          Tone   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var toneCatalog = []ToneInfo{
	{ID: ToneNeutral, Name: "Neutral", Description: "Clear and balanced narration"},
	{ID: ToneCheerful, Name: "Cheerful", Description: "Bright, happy, and energetic"},
	{ID: ToneSuspenseful, Name: "Suspenseful", Description: "Dramatic and engaging delivery"},
	{ID: ToneInspiring, Name: "Inspiring", Description: "Uplifting and motivational tone"},
	{ID: ToneSad, Name: "Sad", Description: "Soft, somber, and emotional"},
	{ID: ToneAngry, Name: "Angry", Description: "Intense and passionate delivery"},
	{ID: TonePlayful, Name: "Playful", Description: "Fun, lively, and whimsical"},
	{ID: ToneCalm, Name: "Calm", Description: "Relaxed and soothing narration"},
	{ID: ToneConfident, Name: "Confident", Description: "Assured and persuasive"},
}

// Tones returns the full tone catalog in display order.
func Tones() []ToneInfo {
	out := make([]ToneInfo, len(toneCatalog))
	copy(out, toneCatalog)
	return out
}

// ParseTone resolves a case-insensitive tone name.
func ParseTone(s string) (Tone, bool) {
	want := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range toneCatalog {
		if t.ID == want {
			return want, true
		}
	}
	return "", false
}

// IsNeutral reports whether t is the default narration tone.
func (t Tone) IsNeutral() bool {
	return t == ToneNeutral || t == ""
}
