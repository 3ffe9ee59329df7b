package narration

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// cueOverride maps textual cues to a tone when no lexicon keyword matched.
type cueOverride struct {
	cues []string
	tone Tone
}

var cueOverrides = []cueOverride{
	{cues: []string{"!", "exclaimed", "shouted", "yelled"}, tone: ToneAngry},
	{cues: []string{"whispered", "murmured", "softly"}, tone: ToneCalm},
	{cues: []string{"wondered", "mysterious", "strange"}, tone: ToneSuspenseful},
}

// Classifier turns single lines into segments, binding speakers through a Registry.
type Classifier struct {
	rules    []rule
	registry *Registry
	title    cases.Caser
}

// NewClassifier creates a classifier that binds voices through registry.
func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{
		rules:    defaultRules,
		registry: registry,
		title:    cases.Title(language.Und),
	}
}

// Classify converts one line into a Segment. Blank lines report false.
func (c *Classifier) Classify(line string) (Segment, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Segment{}, false
	}

	var cl classification
	for _, r := range c.rules {
		if got, ok := r.match(line); ok {
			cl = got
			break
		}
	}

	seg := Segment{
		Text:       cl.text,
		Tone:       cl.tone,
		IsDialogue: cl.dialogue,
	}

	switch cl.kind {
	case speakerNamed:
		seg.Character = c.title.String(cl.name)
		seg.Voice = c.registry.Assign(seg.Character)
	case speakerGeneric:
		seg.Character = c.registry.NextGenericLabel()
		seg.Voice = c.registry.Assign(seg.Character)
	default:
		seg.Character = narratorLabel
		seg.Voice = c.registry.Narrator()
	}

	seg.Tone = refineTone(seg.Tone, seg.Text)
	seg.Text = normalizeText(seg.Text)
	if !seg.Tone.IsNeutral() {
		tone := seg.Tone
		seg.Emotion = &tone
	}
	return seg, true
}

// refineTone fills in a tone for neutral lines from lexicon keywords, then textual cues.
func refineTone(tone Tone, text string) Tone {
	if !tone.IsNeutral() {
		return tone
	}
	if t, ok := ScanEmotion(text); ok {
		return t
	}
	lower := strings.ToLower(text)
	for _, o := range cueOverrides {
		for _, cue := range o.cues {
			if strings.Contains(lower, cue) {
				return o.tone
			}
		}
	}
	return ToneNeutral
}

// normalizeText ensures spoken text ends with terminal punctuation.
func normalizeText(text string) string {
	if strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?") {
		return text
	}
	return text + "."
}
