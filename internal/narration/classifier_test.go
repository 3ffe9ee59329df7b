package narration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classifyOne(t *testing.T, line string) Segment {
	t.Helper()
	segs := Analyze(line)
	require.Len(t, segs, 1)
	return segs[0]
}

func TestAnalyze_PlainNarration(t *testing.T) {
	seg := classifyOne(t, "Once upon a time there was a castle.")

	assert.Equal(t, "Once upon a time there was a castle.", seg.Text)
	assert.Equal(t, DefaultPool[0], seg.Voice)
	assert.Equal(t, ToneNeutral, seg.Tone)
	assert.Equal(t, "Narrator", seg.Character)
	assert.False(t, seg.IsDialogue)
	assert.Nil(t, seg.Emotion)
}

func TestAnalyze_StructuredCue(t *testing.T) {
	seg := classifyOne(t, `Maya (excited): "We found it!"`)

	assert.Equal(t, "Maya", seg.Character)
	assert.Equal(t, DefaultPool[1], seg.Voice)
	assert.Equal(t, ToneCheerful, seg.Tone)
	assert.True(t, seg.IsDialogue)
	// Terminal punctuation is already present, so nothing is appended.
	assert.Equal(t, "We found it!", seg.Text)
	require.NotNil(t, seg.Emotion)
	assert.Equal(t, ToneCheerful, *seg.Emotion)
}

func TestAnalyze_StructuredCueEmotionIsCaseInsensitive(t *testing.T) {
	for _, emotion := range []string{"SAD", "Sad", " sad ", "sAd"} {
		seg := classifyOne(t, "Leo ("+emotion+"): I miss home")
		assert.Equal(t, ToneSad, seg.Tone, emotion)
		assert.Equal(t, "I miss home.", seg.Text)
	}
}

func TestAnalyze_StructuredCueKeepsApostrophes(t *testing.T) {
	seg := classifyOne(t, `Sam (calm): "Don't worry, it's fine."`)
	assert.Equal(t, "Don't worry, it's fine.", seg.Text)
	assert.Equal(t, ToneCalm, seg.Tone)
}

func TestAnalyze_StructuredCueStopsAtClosingQuote(t *testing.T) {
	seg := classifyOne(t, `Maya (happy): "Hi" she said`)
	assert.Equal(t, "Hi.", seg.Text)

	seg = classifyOne(t, `Jon (calm): 'Easy now' he whispered`)
	assert.Equal(t, "Easy now.", seg.Text)

	seg = classifyOne(t, `Jon (calm): "Never closed`)
	assert.Equal(t, "Never closed.", seg.Text)
}

func TestAnalyze_StructuredCueTitleCasesName(t *testing.T) {
	seg := classifyOne(t, "maya (happy): hello")
	assert.Equal(t, "Maya", seg.Character)
}

func TestAnalyze_StructuredCueUnknownEmotionFallsBackToRefinement(t *testing.T) {
	seg := classifyOne(t, "Ann (pensive): The lake is so quiet")
	// "pensive" is not in the lexicon; the spoken text contains "quiet".
	assert.Equal(t, ToneCalm, seg.Tone)

	seg = classifyOne(t, "Ann (pensive): Look at the lake")
	assert.Equal(t, ToneNeutral, seg.Tone)
	assert.Nil(t, seg.Emotion)
}

func TestAnalyze_StructuredCueWithEmptyDialogueIsNarration(t *testing.T) {
	seg := classifyOne(t, "Ann (sad):")
	assert.Equal(t, "Narrator", seg.Character)
	assert.False(t, seg.IsDialogue)
	assert.Equal(t, "Ann (sad):.", seg.Text)
}

func TestAnalyze_AttributedQuote(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`Tom said, "Hello."`, "Tom"},
		{`"Hello," said Tom.`, "Tom"},
		{`Lily asked, "Where are we?"`, "Lily"},
		{`"Over there," replied GRANDPA.`, "Grandpa"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			seg := classifyOne(t, tt.line)
			assert.Equal(t, tt.want, seg.Character)
			assert.True(t, seg.IsDialogue)
			assert.Equal(t, tt.line, seg.Text[:len(tt.line)], "full line is spoken")
		})
	}
}

func TestAnalyze_AnonymousQuotesGetNumberedLabels(t *testing.T) {
	segs := Analyze("\"Who goes there?\"\n\"Only me.\"")
	require.Len(t, segs, 2)

	assert.Equal(t, "Character 1", segs[0].Character)
	assert.Equal(t, "Character 2", segs[1].Character)
	assert.Equal(t, DefaultPool[1], segs[0].Voice)
	assert.Equal(t, DefaultPool[2], segs[1].Voice)
	assert.True(t, segs[0].IsDialogue)
}

func TestAnalyze_SameSpeakerKeepsVoice(t *testing.T) {
	segs := Analyze("Tom said, \"Hello.\"\nTom said, \"Goodbye.\"")
	require.Len(t, segs, 2)

	assert.Equal(t, "Tom", segs[0].Character)
	assert.Equal(t, "Tom", segs[1].Character)
	assert.Equal(t, segs[0].Voice, segs[1].Voice)
}

func TestAnalyze_StructuredCueBindingIsStable(t *testing.T) {
	text := "Maya (happy): Look!\nJon (sad): I can't.\nMaya (angry): Come on"
	segs := Analyze(text)
	require.Len(t, segs, 3)

	assert.Equal(t, segs[0].Voice, segs[2].Voice)
	assert.NotEqual(t, segs[0].Voice, segs[1].Voice)
	assert.Equal(t, DefaultPool[1], segs[0].Voice)
	assert.Equal(t, DefaultPool[2], segs[1].Voice)
}

func TestAnalyze_VoicePoolWraps(t *testing.T) {
	text := "A (calm): one\nB (calm): two\nC (calm): three\nD (calm): four\nE (calm): five"
	segs := Analyze(text)
	require.Len(t, segs, 5)

	// Indexes 1..4 then wrap to 0.
	assert.Equal(t, DefaultPool[1], segs[0].Voice)
	assert.Equal(t, DefaultPool[4], segs[3].Voice)
	assert.Equal(t, DefaultPool[0], segs[4].Voice)
}

func TestAnalyze_NarrationOnlyDocument(t *testing.T) {
	text := `The wind rose over the hills.
The village slept.

Morning came slowly`
	segs := Analyze(text)
	require.Len(t, segs, 3)
	for _, s := range segs {
		assert.Equal(t, "Narrator", s.Character)
		assert.False(t, s.IsDialogue)
		assert.Equal(t, DefaultPool[0], s.Voice)
	}
	assert.Equal(t, "Morning came slowly.", segs[2].Text)
}

func TestAnalyze_BlankInput(t *testing.T) {
	assert.Empty(t, Analyze(""))
	assert.Empty(t, Analyze("   \n\t\n  \r\n"))
}

func TestAnalyze_PreservesLineOrder(t *testing.T) {
	segs := Analyze("first line\r\nsecond line\rthird line")
	require.Len(t, segs, 3)
	assert.Equal(t, "first line.", segs[0].Text)
	assert.Equal(t, "second line.", segs[1].Text)
	assert.Equal(t, "third line.", segs[2].Text)
}

func TestRefineTone_LexiconBeforeCues(t *testing.T) {
	// "happy" is a lexicon keyword, so the "!" cue is never consulted.
	seg := classifyOne(t, "She was happy!")
	assert.Equal(t, ToneCheerful, seg.Tone)

	seg = classifyOne(t, "He slammed the door!")
	assert.Equal(t, ToneAngry, seg.Tone)
}

func TestRefineTone_CueOrder(t *testing.T) {
	tests := []struct {
		line string
		want Tone
	}{
		{"He exclaimed at the sight", ToneAngry},
		{"She whispered a secret", ToneCalm},
		{"She murmured and then yelled", ToneAngry},
		{"A mysterious light appeared", ToneSuspenseful},
		{"He wondered about the road", ToneSuspenseful},
		{"The road went on", ToneNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyOne(t, tt.line).Tone)
		})
	}
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Done.", normalizeText("Done"))
	assert.Equal(t, "Done.", normalizeText("Done."))
	assert.Equal(t, "Done?", normalizeText("Done?"))
	assert.Equal(t, "Done!", normalizeText("Done!"))
	assert.Equal(t, `"Done".`, normalizeText(`"Done"`))
}

func TestSummarize(t *testing.T) {
	segs := Analyze("Intro.\nMaya (happy): Hi\nJon (sad): Bye\nOutro.")
	sum := Summarize(segs)

	assert.Equal(t, []Voice{DefaultPool[0], DefaultPool[1], DefaultPool[2]}, sum.Voices)
	assert.Equal(t, []Tone{ToneNeutral, ToneCheerful, ToneSad}, sum.Tones)
}
