package generation

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// FallbackPronunciation builds a contract-valid placeholder when the model's
// feedback could not be parsed. The learner always gets a response; the cost
// is that this one carries no real signal. The accuracy is derived
// deterministically from the target phrase so repeated failures for the same
// phrase report the same score.
func FallbackPronunciation(cfg Config, targetText string) *PronunciationFeedback {
	accuracy := fallbackAccuracy(cfg, targetText)
	firstWord := firstWordOf(targetText)

	phonemes := []PhonemeScore{}
	if firstWord != "" {
		phonemes = append(phonemes, PhonemeScore{
			Sound:    firstWord,
			Accuracy: accuracy,
			Feedback: fmt.Sprintf("Pay attention to how %q begins.", firstWord),
		})
	}

	return &PronunciationFeedback{
		Accuracy: accuracy,
		Feedback: fmt.Sprintf("Good attempt at %q! Keep practicing to refine your pronunciation.", targetText),
		Suggestions: []string{
			"Listen to a native speaker say the phrase, then repeat it slowly.",
			"Break the phrase into syllables and practice each one.",
			"Record yourself again and compare against the target.",
		},
		Phonemes: phonemes,
	}
}

// FallbackConversation is the placeholder script used when conversation
// generation fails to parse.
func FallbackConversation(languageName, scenario string) *ConversationContent {
	if strings.TrimSpace(scenario) == "" {
		scenario = "a casual chat"
	}
	return &ConversationContent{
		Context:    fmt.Sprintf("A short practice exchange in %s about %s.", languageName, scenario),
		Vocabulary: []ConversationVocab{},
		Script: []ConversationLine{
			{TargetLanguageText: "...", Translation: "Hello! Shall we try that again?"},
			{TargetLanguageText: "...", Translation: "The conversation could not be generated this time."},
		},
		CulturalNotes: "",
	}
}

// fallbackAccuracy maps the phrase into [min, max] of the configured band.
func fallbackAccuracy(cfg Config, targetText string) float64 {
	cfg = cfg.sanitized()
	h := fnv.New32a()
	_, _ = h.Write([]byte(targetText))
	frac := float64(h.Sum32()%1000) / 999.0
	return cfg.FallbackAccuracyMin + frac*(cfg.FallbackAccuracyMax-cfg.FallbackAccuracyMin)
}

func firstWordOf(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[0], ".,!?;:\"'")
}
