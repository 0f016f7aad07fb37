package generation

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// FailureReason discriminates why a model response was unusable.
type FailureReason string

const (
	// ReasonNoValidJSON means no parseable JSON document was found anywhere
	// in the response text.
	ReasonNoValidJSON FailureReason = "NO_VALID_JSON"
	// ReasonShapeInvalid means JSON parsed but violated the kind's contract.
	ReasonShapeInvalid FailureReason = "SHAPE_INVALID"
)

// ParseFailure is the only failure value this package returns. Nothing in
// here panics across the boundary; malformed input of any shape comes back
// as a discriminated failure.
type ParseFailure struct {
	Reason FailureReason
	Detail string
}

func (f *ParseFailure) Error() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Detail)
}

func noValidJSON() *ParseFailure {
	return &ParseFailure{Reason: ReasonNoValidJSON}
}

func shapeInvalid(format string, args ...any) *ParseFailure {
	return &ParseFailure{Reason: ReasonShapeInvalid, Detail: fmt.Sprintf(format, args...)}
}

// parseObject tries the whole string first, then the first balanced {...}
// span. Models love wrapping JSON in prose and markdown fences; the span
// scan handles both without special-casing either.
func parseObject(raw string) (map[string]any, *ParseFailure) {
	trimmed := strings.TrimSpace(raw)
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		return obj, nil
	}
	span, ok := firstBalancedSpan(trimmed, '{', '}')
	if !ok {
		return nil, noValidJSON()
	}
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return nil, noValidJSON()
	}
	return obj, nil
}

// parseArray is the array-contract variant (quiz generation only).
func parseArray(raw string) ([]any, *ParseFailure) {
	trimmed := strings.TrimSpace(raw)
	var arr []any
	if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
		return arr, nil
	}
	span, ok := firstBalancedSpan(trimmed, '[', ']')
	if !ok {
		return nil, noValidJSON()
	}
	if err := json.Unmarshal([]byte(span), &arr); err != nil {
		return nil, noValidJSON()
	}
	return arr, nil
}

// firstBalancedSpan returns the first balanced open...close substring,
// ignoring brackets inside JSON string literals.
func firstBalancedSpan(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ---- typed field extraction ----

func getString(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getNumber(obj map[string]any, key string) (float64, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

func getArray(obj map[string]any, key string) ([]any, bool) {
	v, ok := obj[key]
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

func getStringSlice(obj map[string]any, key string) ([]string, bool) {
	arr, ok := getArray(obj, key)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func asObject(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

// ---- per-kind validators ----

// ParseLessonContent validates the lesson contract. Every key is required
// with the correct type; there is no fallback for pedagogical content, so
// the caller surfaces the failure.
func ParseLessonContent(raw string) (*LessonContent, *ParseFailure) {
	obj, pf := parseObject(raw)
	if pf != nil {
		return nil, pf
	}

	vocabArr, ok := getArray(obj, "vocabulary")
	if !ok {
		return nil, shapeInvalid("vocabulary missing or not an array")
	}
	vocab := make([]VocabularyItem, 0, len(vocabArr))
	for i, item := range vocabArr {
		entry, ok := asObject(item)
		if !ok {
			return nil, shapeInvalid("vocabulary[%d] is not an object", i)
		}
		word, ok := getString(entry, "word")
		if !ok {
			return nil, shapeInvalid("vocabulary[%d].word missing or not a string", i)
		}
		translation, ok := getString(entry, "translation")
		if !ok {
			return nil, shapeInvalid("vocabulary[%d].translation missing or not a string", i)
		}
		example, ok := getString(entry, "example")
		if !ok {
			return nil, shapeInvalid("vocabulary[%d].example missing or not a string", i)
		}
		vocab = append(vocab, VocabularyItem{Word: word, Translation: translation, Example: example})
	}

	grammar, ok := getString(obj, "grammar")
	if !ok {
		return nil, shapeInvalid("grammar missing or not a string")
	}
	examples, ok := getStringSlice(obj, "examples")
	if !ok {
		return nil, shapeInvalid("examples missing or not an array of strings")
	}
	exercises, ok := getStringSlice(obj, "exercises")
	if !ok {
		return nil, shapeInvalid("exercises missing or not an array of strings")
	}
	notes, ok := getString(obj, "culturalNotes")
	if !ok {
		return nil, shapeInvalid("culturalNotes missing or not a string")
	}

	return &LessonContent{
		Vocabulary:    vocab,
		Grammar:       grammar,
		Examples:      examples,
		Exercises:     exercises,
		CulturalNotes: notes,
	}, nil
}

// ParseQuizContent validates the quiz array contract: at least one question,
// at least two options each and a correctAnswer that indexes this question's
// own options.
func ParseQuizContent(raw string) (*QuizContent, *ParseFailure) {
	arr, pf := parseArray(raw)
	if pf != nil {
		return nil, pf
	}
	if len(arr) == 0 {
		return nil, shapeInvalid("quiz has no questions")
	}

	questions := make([]QuizQuestion, 0, len(arr))
	for i, item := range arr {
		entry, ok := asObject(item)
		if !ok {
			return nil, shapeInvalid("questions[%d] is not an object", i)
		}
		question, ok := getString(entry, "question")
		if !ok || strings.TrimSpace(question) == "" {
			return nil, shapeInvalid("questions[%d].question missing or empty", i)
		}
		options, ok := getStringSlice(entry, "options")
		if !ok {
			return nil, shapeInvalid("questions[%d].options missing or not an array of strings", i)
		}
		if len(options) < 2 {
			return nil, shapeInvalid("questions[%d] has %d options, need at least 2", i, len(options))
		}
		answer, ok := getNumber(entry, "correctAnswer")
		if !ok {
			return nil, shapeInvalid("questions[%d].correctAnswer missing or not a number", i)
		}
		if answer != math.Trunc(answer) || answer < 0 || int(answer) >= len(options) {
			return nil, shapeInvalid("questions[%d].correctAnswer %v is not a valid option index", i, answer)
		}
		explanation, _ := getString(entry, "explanation")
		questions = append(questions, QuizQuestion{
			Question:      question,
			Options:       options,
			CorrectAnswer: int(answer),
			Explanation:   explanation,
		})
	}

	return &QuizContent{Questions: questions}, nil
}

// ParseConversationContent validates the conversation contract.
func ParseConversationContent(raw string) (*ConversationContent, *ParseFailure) {
	obj, pf := parseObject(raw)
	if pf != nil {
		return nil, pf
	}

	contextText, ok := getString(obj, "context")
	if !ok {
		return nil, shapeInvalid("context missing or not a string")
	}

	vocabArr, ok := getArray(obj, "vocabulary")
	if !ok {
		return nil, shapeInvalid("vocabulary missing or not an array")
	}
	vocab := make([]ConversationVocab, 0, len(vocabArr))
	for i, item := range vocabArr {
		entry, ok := asObject(item)
		if !ok {
			return nil, shapeInvalid("vocabulary[%d] is not an object", i)
		}
		word, ok := getString(entry, "word")
		if !ok {
			return nil, shapeInvalid("vocabulary[%d].word missing or not a string", i)
		}
		translation, ok := getString(entry, "translation")
		if !ok {
			return nil, shapeInvalid("vocabulary[%d].translation missing or not a string", i)
		}
		vocab = append(vocab, ConversationVocab{Word: word, Translation: translation})
	}

	scriptArr, ok := getArray(obj, "script")
	if !ok {
		return nil, shapeInvalid("script missing or not an array")
	}
	script := make([]ConversationLine, 0, len(scriptArr))
	for i, item := range scriptArr {
		entry, ok := asObject(item)
		if !ok {
			return nil, shapeInvalid("script[%d] is not an object", i)
		}
		text, ok := getString(entry, "targetLanguageText")
		if !ok {
			return nil, shapeInvalid("script[%d].targetLanguageText missing or not a string", i)
		}
		translation, ok := getString(entry, "translation")
		if !ok {
			return nil, shapeInvalid("script[%d].translation missing or not a string", i)
		}
		script = append(script, ConversationLine{TargetLanguageText: text, Translation: translation})
	}

	notes, ok := getString(obj, "culturalNotes")
	if !ok {
		return nil, shapeInvalid("culturalNotes missing or not a string")
	}

	return &ConversationContent{
		Context:       contextText,
		Vocabulary:    vocab,
		Script:        script,
		CulturalNotes: notes,
	}, nil
}

// ParsePronunciationFeedback validates the feedback contract. Out-of-range
// accuracy values are clamped to [0,1] rather than rejected; a non-numeric
// accuracy is a shape violation.
func ParsePronunciationFeedback(raw string) (*PronunciationFeedback, *ParseFailure) {
	obj, pf := parseObject(raw)
	if pf != nil {
		return nil, pf
	}

	accuracy, ok := getNumber(obj, "accuracy")
	if !ok {
		return nil, shapeInvalid("accuracy missing or not a number")
	}
	feedback, ok := getString(obj, "feedback")
	if !ok {
		return nil, shapeInvalid("feedback missing or not a string")
	}
	suggestions, ok := getStringSlice(obj, "suggestions")
	if !ok {
		return nil, shapeInvalid("suggestions missing or not an array of strings")
	}

	phonemeArr, ok := getArray(obj, "phonemes")
	if !ok {
		return nil, shapeInvalid("phonemes missing or not an array")
	}
	phonemes := make([]PhonemeScore, 0, len(phonemeArr))
	for i, item := range phonemeArr {
		entry, ok := asObject(item)
		if !ok {
			return nil, shapeInvalid("phonemes[%d] is not an object", i)
		}
		sound, ok := getString(entry, "sound")
		if !ok {
			return nil, shapeInvalid("phonemes[%d].sound missing or not a string", i)
		}
		phAccuracy, ok := getNumber(entry, "accuracy")
		if !ok {
			return nil, shapeInvalid("phonemes[%d].accuracy missing or not a number", i)
		}
		phFeedback, ok := getString(entry, "feedback")
		if !ok {
			return nil, shapeInvalid("phonemes[%d].feedback missing or not a string", i)
		}
		phonemes = append(phonemes, PhonemeScore{
			Sound:    sound,
			Accuracy: clamp01(phAccuracy),
			Feedback: phFeedback,
		})
	}

	return &PronunciationFeedback{
		Accuracy:    clamp01(accuracy),
		Feedback:    feedback,
		Suggestions: suggestions,
		Phonemes:    phonemes,
	}, nil
}
