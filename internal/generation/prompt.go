package generation

import "fmt"

// SystemInstruction is the fixed system prompt for every generation call.
// The per-kind user prompt repeats the JSON contract because models ignore
// the system prompt often enough that the parser still has to dig JSON out
// of prose.
const SystemInstruction = "You are a language tutor. Respond with ONLY valid JSON. Do not include any text outside the JSON."

// PromptInput carries the resolved language metadata plus the request
// fields a prompt interpolates.
//
// Topic, Scenario, Message and TargetText are user-controlled and are
// interpolated verbatim, without escaping. A learner can steer the model
// with a crafted topic; the parser and shape validation downstream are the
// only guard.
type PromptInput struct {
	LanguageName string
	LanguageCode string
	Level        string
	Topic        string
	Scenario     string
	Message      string
	TargetText   string

	QuestionCount int
	LessonTitle   string
	LessonTopic   string
}

// LessonPrompt asks for LessonContent. Key set is fixed:
// vocabulary/grammar/examples/exercises/culturalNotes.
func LessonPrompt(in PromptInput) string {
	topic := in.Topic
	if topic == "" {
		topic = "everyday conversation"
	}
	return fmt.Sprintf(
		`Create a %s lesson for a %s learner of %s (%s) on the topic "%s".
Respond with only this JSON shape:
{
  "vocabulary": [{"word": "...", "translation": "...", "example": "..."}],
  "grammar": "...",
  "examples": ["..."],
  "exercises": ["..."],
  "culturalNotes": "..."
}
Include 5-8 vocabulary entries, 3-5 examples and 3-5 exercises. All target-language text must be in %s.`,
		in.Level, in.Level, in.LanguageName, in.LanguageCode, topic, in.LanguageName,
	)
}

// QuizPrompt asks for a JSON array of question objects (the only array
// contract in the pipeline).
func QuizPrompt(in PromptInput) string {
	count := in.QuestionCount
	if count <= 0 {
		count = 5
	}
	return fmt.Sprintf(
		`Create %d multiple-choice quiz questions for the %s lesson "%s" (topic: "%s") in %s (%s).
Respond with only this JSON shape:
[
  {"question": "...", "options": ["...", "...", "...", "..."], "correctAnswer": 0, "explanation": "..."}
]
Each question must have at least 2 options and "correctAnswer" must be the index of the right option.`,
		count, in.Level, in.LessonTitle, in.LessonTopic, in.LanguageName, in.LanguageCode,
	)
}

// ConversationPromptText asks for a ConversationContent script.
func ConversationPromptText(in PromptInput) string {
	scenario := in.Scenario
	if scenario == "" {
		scenario = "a casual chat"
	}
	return fmt.Sprintf(
		`Create a %s-level practice conversation in %s (%s) for the scenario "%s".
Respond with only this JSON shape:
{
  "context": "...",
  "vocabulary": [{"word": "...", "translation": "..."}],
  "script": [{"targetLanguageText": "...", "translation": "..."}],
  "culturalNotes": "..."
}
The script must alternate speakers and contain 6-10 lines.`,
		in.Level, in.LanguageName, in.LanguageCode, scenario,
	)
}

// ConversationReplyPrompt asks for the next script turn in reply to the
// learner's message.
func ConversationReplyPrompt(in PromptInput) string {
	return fmt.Sprintf(
		`You are having a %s-level conversation in %s (%s). The learner said: "%s".
Reply naturally and respond with only this JSON shape:
{
  "context": "...",
  "vocabulary": [{"word": "...", "translation": "..."}],
  "script": [{"targetLanguageText": "...", "translation": "..."}],
  "culturalNotes": "..."
}
The script holds your reply (and a suggested learner follow-up) in %s with translations.`,
		in.Level, in.LanguageName, in.LanguageCode, in.Message, in.LanguageName,
	)
}

// PronunciationPrompt asks the model to score base64 audio of the learner
// saying TargetText. The audio bytes themselves are opaque to this layer.
func PronunciationPrompt(in PromptInput) string {
	return fmt.Sprintf(
		`A %s learner of %s (%s) recorded themselves saying: "%s".
Assess the pronunciation and respond with only this JSON shape:
{
  "accuracy": 0.0,
  "feedback": "...",
  "suggestions": ["..."],
  "phonemes": [{"sound": "...", "accuracy": 0.0, "feedback": "..."}]
}
"accuracy" values must be between 0.0 and 1.0.`,
		in.Level, in.LanguageName, in.LanguageCode, in.TargetText,
	)
}
