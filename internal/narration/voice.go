package narration

import "strings"

// Voice identifies a speaker identity used for synthesis.
type Voice string

// The voice pool, in assignment order.
const (
	VoiceDavid Voice = "david"
	VoiceZira  Voice = "zira"
	VoiceHeera Voice = "heera"
	VoiceMark  Voice = "mark"
	VoiceRavi  Voice = "ravi"
)

// DefaultPool is the ordered voice pool. Index 0 is the narrator.
var DefaultPool = []Voice{VoiceDavid, VoiceZira, VoiceHeera, VoiceMark, VoiceRavi}

// VoiceInfo describes a voice for catalog listings.
type VoiceInfo struct {
	ID          Voice  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Gender      string `json:"gender"`
}

var voiceCatalog = map[Voice]VoiceInfo{
	VoiceDavid: {ID: VoiceDavid, Name: "David", Description: "Confident and clear male voice", Gender: "male"},
	VoiceZira:  {ID: VoiceZira, Name: "Zira", Description: "Professional and warm female voice", Gender: "female"},
	VoiceHeera: {ID: VoiceHeera, Name: "Heera", Description: "Expressive and engaging female voice", Gender: "female"},
	VoiceMark:  {ID: VoiceMark, Name: "Mark", Description: "Strong and authoritative male voice", Gender: "male"},
	VoiceRavi:  {ID: VoiceRavi, Name: "Ravi", Description: "Smooth and articulate male voice", Gender: "male"},
}

// Voices returns the catalog entries in pool order.
func Voices() []VoiceInfo {
	out := make([]VoiceInfo, 0, len(DefaultPool))
	for _, v := range DefaultPool {
		out = append(out, voiceCatalog[v])
	}
	return out
}

// ParseVoice resolves a case-insensitive voice name from the pool.
func ParseVoice(s string) (Voice, bool) {
	v := Voice(strings.ToLower(strings.TrimSpace(s)))
	_, ok := voiceCatalog[v]
	return v, ok
}

// NarratorVoice returns the voice used for plain narration.
func NarratorVoice() Voice {
	return DefaultPool[0]
}
