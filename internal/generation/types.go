package generation

// Kind selects which content contract a generation request is asking for.
type Kind string

const (
	KindLesson                Kind = "LESSON"
	KindQuiz                  Kind = "QUIZ"
	KindConversationPrompt    Kind = "CONVERSATION_PROMPT"
	KindConversationReply     Kind = "CONVERSATION_REPLY"
	KindPronunciationFeedback Kind = "PRONUNCIATION_FEEDBACK"
)

// VocabularyItem is one entry of a lesson's vocabulary list.
type VocabularyItem struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
	Example     string `json:"example"`
}

// LessonContent is the fixed contract the model must honor for lessons.
type LessonContent struct {
	Vocabulary    []VocabularyItem `json:"vocabulary"`
	Grammar       string           `json:"grammar"`
	Examples      []string         `json:"examples"`
	Exercises     []string         `json:"exercises"`
	CulturalNotes string           `json:"culturalNotes"`
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type QuizContent struct {
	Questions []QuizQuestion `json:"questions"`
}

type ConversationVocab struct {
	Word        string `json:"word"`
	Translation string `json:"translation"`
}

type ConversationLine struct {
	TargetLanguageText string `json:"targetLanguageText"`
	Translation        string `json:"translation"`
}

type ConversationContent struct {
	Context       string              `json:"context"`
	Vocabulary    []ConversationVocab `json:"vocabulary"`
	Script        []ConversationLine  `json:"script"`
	CulturalNotes string              `json:"culturalNotes"`
}

type PhonemeScore struct {
	Sound    string  `json:"sound"`
	Accuracy float64 `json:"accuracy"`
	Feedback string  `json:"feedback"`
}

// PronunciationFeedback always carries an accuracy in [0,1]; the parser
// clamps out-of-range model values rather than rejecting them.
type PronunciationFeedback struct {
	Accuracy    float64        `json:"accuracy"`
	Feedback    string         `json:"feedback"`
	Suggestions []string       `json:"suggestions"`
	Phonemes    []PhonemeScore `json:"phonemes"`
}
