package narration

import (
	"regexp"
	"strings"
)

type speakerKind int

const (
	speakerNarrator speakerKind = iota
	speakerNamed
	speakerGeneric
)

// classification is the pure result of a rule: who speaks, what is spoken, and any
// explicit tone. Voice binding happens afterwards in the Classifier.
type classification struct {
	kind     speakerKind
	name     string
	text     string
	tone     Tone
	dialogue bool
}

// rule is one predicate+extractor pair. Rules are evaluated in order and the first
// match wins.
type rule struct {
	name  string
	match func(line string) (classification, bool)
}

var (
	structuredCuePattern = regexp.MustCompile(`^([\p{L}\p{N}_]+)\s*\(([^)]+)\):\s*(.*)$`)
	quotedPattern        = regexp.MustCompile(`"[^"]*"`)
	speakerPattern       = regexp.MustCompile(
		`([\p{L}\p{N}_]+)\s+said|said\s+([\p{L}\p{N}_]+)|` +
			`([\p{L}\p{N}_]+)\s+asked|asked\s+([\p{L}\p{N}_]+)|` +
			`([\p{L}\p{N}_]+)\s+replied|replied\s+([\p{L}\p{N}_]+)`)
)

var defaultRules = []rule{
	{name: "structured-cue", match: matchStructuredCue},
	{name: "attributed-quote", match: matchAttributedQuote},
	{name: "anonymous-quote", match: matchAnonymousQuote},
	{name: "narration", match: matchNarration},
}

// matchStructuredCue handles `Name (emotion): "dialogue"`.
func matchStructuredCue(line string) (classification, bool) {
	m := structuredCuePattern.FindStringSubmatch(line)
	if m == nil {
		return classification{}, false
	}
	text := cueDialogue(strings.TrimSpace(m[3]))
	if text == "" {
		return classification{}, false
	}
	return classification{
		kind:     speakerNamed,
		name:     m[1],
		text:     text,
		tone:     LookupEmotion(m[2]),
		dialogue: true,
	}, true
}

// matchAttributedQuote handles quoted lines with a said/asked/replied speaker.
func matchAttributedQuote(line string) (classification, bool) {
	if !quotedPattern.MatchString(line) {
		return classification{}, false
	}
	name := findSpeaker(line)
	if name == "" {
		return classification{}, false
	}
	return classification{
		kind:     speakerNamed,
		name:     name,
		text:     line,
		tone:     ToneNeutral,
		dialogue: true,
	}, true
}

// matchAnonymousQuote handles quoted lines with no recognizable speaker.
func matchAnonymousQuote(line string) (classification, bool) {
	if !quotedPattern.MatchString(line) {
		return classification{}, false
	}
	return classification{
		kind:     speakerGeneric,
		text:     line,
		tone:     ToneNeutral,
		dialogue: true,
	}, true
}

func matchNarration(line string) (classification, bool) {
	return classification{
		kind: speakerNarrator,
		name: narratorLabel,
		text: line,
		tone: ToneNeutral,
	}, true
}

// findSpeaker returns the first name adjacent to a speech verb, lowercased.
func findSpeaker(line string) string {
	m := speakerPattern.FindStringSubmatch(strings.ToLower(line))
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// cueDialogue extracts the spoken part of a structured cue. A quoted cue ends at
// its closing quote of the same kind, so trailing attribution is dropped and
// apostrophes inside double quotes survive. An unquoted cue keeps the whole remainder.
func cueDialogue(s string) string {
	if s == "" {
		return s
	}
	if q := s[0]; q == '"' || q == '\'' {
		s = s[1:]
		if end := strings.IndexByte(s, q); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if n := len(s); s[n-1] == '"' || s[n-1] == '\'' {
		s = s[:n-1]
	}
	return strings.TrimSpace(s)
}
