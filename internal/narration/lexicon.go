package narration

import "strings"

type lexiconEntry struct {
	keyword string
	tone    Tone
}

// lexicon is scanned in order; the first keyword found wins.
var lexicon = []lexiconEntry{
	{"cheerful", ToneCheerful},
	{"happy", ToneCheerful},
	{"excited", ToneCheerful},
	{"playful", ToneCheerful},
	{"joy", ToneCheerful},
	{"laugh", ToneCheerful},
	{"smile", ToneCheerful},
	{"sad", ToneSad},
	{"cry", ToneSad},
	{"weep", ToneSad},
	{"sorrow", ToneSad},
	{"tear", ToneSad},
	{"angry", ToneAngry},
	{"mad", ToneAngry},
	{"furious", ToneAngry},
	{"rage", ToneAngry},
	{"shout", ToneAngry},
	{"calm", ToneCalm},
	{"peaceful", ToneCalm},
	{"quiet", ToneCalm},
	{"whisper", ToneCalm},
	{"serene", ToneCalm},
	{"nervous", ToneSuspenseful},
	{"scared", ToneSuspenseful},
	{"afraid", ToneSuspenseful},
	{"worry", ToneSuspenseful},
	{"anxious", ToneSuspenseful},
	{"suspenseful", ToneSuspenseful},
	{"confident", ToneConfident},
	{"proud", ToneConfident},
	{"strong", ToneConfident},
	{"brave", ToneConfident},
	{"bold", ToneConfident},
	{"inspiring", ToneConfident},
}

// LookupEmotion maps a single emotion word to its tone, or neutral when unknown.
func LookupEmotion(word string) Tone {
	w := strings.ToLower(strings.TrimSpace(word))
	for _, e := range lexicon {
		if e.keyword == w {
			return e.tone
		}
	}
	return ToneNeutral
}

// ScanEmotion returns the tone of the first lexicon keyword contained in text.
// Matching is a case-insensitive substring search, so "tearful" hits "tear".
func ScanEmotion(text string) (Tone, bool) {
	lower := strings.ToLower(text)
	for _, e := range lexicon {
		if strings.Contains(lower, e.keyword) {
			return e.tone, true
		}
	}
	return ToneNeutral, false
}
