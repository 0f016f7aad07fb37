package generation

import (
	"strings"
	"testing"
)

const validLessonJSON = `{
  "vocabulary": [
    {"word": "bonjour", "translation": "hello", "example": "Bonjour, comment allez-vous?"},
    {"word": "merci", "translation": "thank you", "example": "Merci beaucoup!"}
  ],
  "grammar": "Greetings use the formal vous form.",
  "examples": ["Bonjour!", "Salut!"],
  "exercises": ["Translate: hello", "Translate: thank you"],
  "culturalNotes": "Greet shopkeepers when entering."
}`

func TestParseLessonContent_Valid(t *testing.T) {
	content, pf := ParseLessonContent(validLessonJSON)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if len(content.Vocabulary) != 2 {
		t.Fatalf("expected 2 vocabulary items, got %d", len(content.Vocabulary))
	}
	if content.Vocabulary[0].Word != "bonjour" {
		t.Fatalf("unexpected first word %q", content.Vocabulary[0].Word)
	}
	if content.Grammar == "" || content.CulturalNotes == "" {
		t.Fatalf("expected grammar and culturalNotes to be populated")
	}
	if len(content.Examples) != 2 || len(content.Exercises) != 2 {
		t.Fatalf("unexpected examples/exercises lengths: %d/%d", len(content.Examples), len(content.Exercises))
	}
}

func TestParseLessonContent_ProseWrapped(t *testing.T) {
	raw := "Sure! Here is your lesson:\n```json\n" + validLessonJSON + "\n```\nEnjoy!"
	content, pf := ParseLessonContent(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if len(content.Vocabulary) != 2 {
		t.Fatalf("expected 2 vocabulary items, got %d", len(content.Vocabulary))
	}
}

func TestParseLessonContent_MalformedInputsNeverPanic(t *testing.T) {
	inputs := map[string]string{
		"empty":          "",
		"prose only":     "I cannot help with that.",
		"truncated":      validLessonJSON[:len(validLessonJSON)/2],
		"lone brace":     "{",
		"unopened close": "}}}",
	}
	for name, raw := range inputs {
		if _, pf := ParseLessonContent(raw); pf == nil {
			t.Fatalf("%s: expected a parse failure", name)
		} else if pf.Reason != ReasonNoValidJSON && pf.Reason != ReasonShapeInvalid {
			t.Fatalf("%s: unexpected reason %q", name, pf.Reason)
		}
	}
}

func TestParseLessonContent_MissingKey(t *testing.T) {
	raw := strings.Replace(validLessonJSON, `"grammar"`, `"grammaire"`, 1)
	_, pf := ParseLessonContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestParseLessonContent_WrongFieldType(t *testing.T) {
	raw := strings.Replace(validLessonJSON, `"examples": ["Bonjour!", "Salut!"]`, `"examples": "Bonjour!"`, 1)
	_, pf := ParseLessonContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

const validQuizJSON = `[
  {"question": "What does bonjour mean?", "options": ["hello", "goodbye", "please"], "correctAnswer": 0, "explanation": "Bonjour is a greeting."},
  {"question": "What does merci mean?", "options": ["sorry", "thank you"], "correctAnswer": 1}
]`

func TestParseQuizContent_Valid(t *testing.T) {
	content, pf := ParseQuizContent(validQuizJSON)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if len(content.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(content.Questions))
	}
	if content.Questions[1].CorrectAnswer != 1 {
		t.Fatalf("unexpected correctAnswer %d", content.Questions[1].CorrectAnswer)
	}
	if content.Questions[0].Explanation == "" {
		t.Fatalf("expected explanation to survive parsing")
	}
}

func TestParseQuizContent_ArrayInsideProse(t *testing.T) {
	raw := "Here are your questions: " + validQuizJSON + " -- good luck!"
	content, pf := ParseQuizContent(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if len(content.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(content.Questions))
	}
}

func TestParseQuizContent_CorrectAnswerOutOfRange(t *testing.T) {
	raw := `[{"question": "Q?", "options": ["a", "b"], "correctAnswer": 2}]`
	_, pf := ParseQuizContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestParseQuizContent_NonIntegerCorrectAnswer(t *testing.T) {
	raw := `[{"question": "Q?", "options": ["a", "b"], "correctAnswer": 0.5}]`
	_, pf := ParseQuizContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestParseQuizContent_TooFewOptions(t *testing.T) {
	raw := `[{"question": "Q?", "options": ["only one"], "correctAnswer": 0}]`
	_, pf := ParseQuizContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestParseQuizContent_EmptyArray(t *testing.T) {
	_, pf := ParseQuizContent("[]")
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

const validConversationJSON = `{
  "context": "Ordering coffee at a Parisian cafe.",
  "vocabulary": [{"word": "un cafe", "translation": "a coffee"}],
  "script": [
    {"targetLanguageText": "Bonjour, un cafe s'il vous plait.", "translation": "Hello, a coffee please."},
    {"targetLanguageText": "Tout de suite.", "translation": "Right away."}
  ],
  "culturalNotes": "Say bonjour before ordering."
}`

func TestParseConversationContent_Valid(t *testing.T) {
	content, pf := ParseConversationContent(validConversationJSON)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if len(content.Script) != 2 {
		t.Fatalf("expected 2 script lines, got %d", len(content.Script))
	}
	if content.Script[0].TargetLanguageText == "" {
		t.Fatalf("expected target language text")
	}
}

func TestParseConversationContent_MissingScript(t *testing.T) {
	raw := strings.Replace(validConversationJSON, `"script"`, `"lines"`, 1)
	_, pf := ParseConversationContent(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestParsePronunciationFeedback_Valid(t *testing.T) {
	raw := `{"accuracy": 0.85, "feedback": "Nice rhythm.", "suggestions": ["Slow down"], "phonemes": [{"sound": "r", "accuracy": 0.6, "feedback": "Roll it more."}]}`
	fb, pf := ParsePronunciationFeedback(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if fb.Accuracy != 0.85 {
		t.Fatalf("unexpected accuracy %v", fb.Accuracy)
	}
	if len(fb.Phonemes) != 1 || fb.Phonemes[0].Sound != "r" {
		t.Fatalf("unexpected phonemes: %+v", fb.Phonemes)
	}
}

func TestParsePronunciationFeedback_ClampsOutOfRangeAccuracy(t *testing.T) {
	raw := `{"accuracy": 1.4, "feedback": "ok", "suggestions": [], "phonemes": []}`
	fb, pf := ParsePronunciationFeedback(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if fb.Accuracy != 1.0 {
		t.Fatalf("expected accuracy clamped to 1.0, got %v", fb.Accuracy)
	}

	raw = `{"accuracy": -0.3, "feedback": "ok", "suggestions": [], "phonemes": [{"sound": "a", "accuracy": 7, "feedback": ""}]}`
	fb, pf = ParsePronunciationFeedback(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if fb.Accuracy != 0.0 {
		t.Fatalf("expected accuracy clamped to 0.0, got %v", fb.Accuracy)
	}
	if fb.Phonemes[0].Accuracy != 1.0 {
		t.Fatalf("expected phoneme accuracy clamped to 1.0, got %v", fb.Phonemes[0].Accuracy)
	}
}

func TestParsePronunciationFeedback_NonNumericAccuracy(t *testing.T) {
	raw := `{"accuracy": "great", "feedback": "ok", "suggestions": [], "phonemes": []}`
	_, pf := ParsePronunciationFeedback(raw)
	if pf == nil || pf.Reason != ReasonShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", pf)
	}
}

func TestFirstBalancedSpan_IgnoresBracesInStrings(t *testing.T) {
	raw := `noise {"feedback": "use } sparingly", "accuracy": 0.5, "suggestions": [], "phonemes": []} trailing`
	fb, pf := ParsePronunciationFeedback(raw)
	if pf != nil {
		t.Fatalf("unexpected failure: %v", pf)
	}
	if fb.Feedback != "use } sparingly" {
		t.Fatalf("unexpected feedback %q", fb.Feedback)
	}
}
