package narration

// narratorLabel is the character label for non-dialogue lines.
const narratorLabel = "Narrator"

// Segment is one unit of narration with its voice and tone.
type Segment struct {
	Text       string `json:"text"`
	Voice      Voice  `json:"voice"`
	Tone       Tone   `json:"tone"`
	Character  string `json:"character"`
	IsDialogue bool   `json:"is_dialogue"`
	// Emotion equals Tone when an emotion was detected and is nil for neutral lines.
	Emotion *Tone `json:"emotion"`
}
