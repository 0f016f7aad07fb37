package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/data/repos"
	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/generation"
	"github.com/linguaflow/linguaflow-backend/internal/platform/apierr"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
	"github.com/linguaflow/linguaflow-backend/internal/platform/openai"
	"github.com/linguaflow/linguaflow-backend/internal/realtime"
)

// asyncQuizTimeout bounds the background quiz generation that follows a
// lesson commit. It gets its own context because the request context is
// gone by the time it runs.
const asyncQuizTimeout = 60 * time.Second

type GenerationService interface {
	GenerateLesson(ctx context.Context, userID, languageID uuid.UUID, level, topic string) (*domain.Lesson, error)
	GenerateQuiz(ctx context.Context, userID, lessonID uuid.UUID, numberOfQuestions int) (*domain.Quiz, error)
	ConversationPrompt(ctx context.Context, userID, languageID uuid.UUID, level, scenario string) (*generation.ConversationContent, bool, error)
	ConversationReply(ctx context.Context, userID, languageID uuid.UUID, message string) (*generation.ConversationContent, bool, error)
	PronunciationFeedback(ctx context.Context, userID, languageID uuid.UUID, level, targetText string, audioData []byte) (*generation.PronunciationFeedback, bool, error)
}

type generationService struct {
	db                *gorm.DB
	log               *logger.Logger
	cfg               generation.Config
	llm               openai.Client
	languageRepo      repos.LanguageRepo
	lessonRepo        repos.LessonRepo
	quizRepo          repos.QuizRepo
	conversationRepo  repos.ConversationRepo
	pronunciationRepo repos.PronunciationRepo
	bus               realtime.Bus

	// pending tracks the fire-and-forget quiz goroutines so shutdown (and
	// tests) can wait for them.
	pending sync.WaitGroup
}

func NewGenerationService(
	db *gorm.DB,
	log *logger.Logger,
	cfg generation.Config,
	llm openai.Client,
	languageRepo repos.LanguageRepo,
	lessonRepo repos.LessonRepo,
	quizRepo repos.QuizRepo,
	conversationRepo repos.ConversationRepo,
	pronunciationRepo repos.PronunciationRepo,
	bus realtime.Bus,
) GenerationService {
	return &generationService{
		db:                db,
		log:               log.With("service", "GenerationService"),
		cfg:               cfg,
		llm:               llm,
		languageRepo:      languageRepo,
		lessonRepo:        lessonRepo,
		quizRepo:          quizRepo,
		conversationRepo:  conversationRepo,
		pronunciationRepo: pronunciationRepo,
		bus:               bus,
	}
}

func (gs *generationService) resolveLanguage(ctx context.Context, languageID uuid.UUID) (*domain.Language, error) {
	language, err := gs.languageRepo.GetByID(ctx, nil, languageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("language %s not found", languageID))
		}
		return nil, fmt.Errorf("resolve language: %w", err)
	}
	return language, nil
}

// parseErr maps a ParseFailure to the API error surfaced for lesson and
// quiz generation, where there is no safe fallback content.
func parseErr(pf *generation.ParseFailure) *apierr.Error {
	code := apierr.CodeParseFailure
	if pf.Reason == generation.ReasonShapeInvalid {
		code = apierr.CodeShapeInvalid
	}
	return apierr.New(http.StatusBadGateway, code, pf)
}

func (gs *generationService) publish(ctx context.Context, event realtime.Event) {
	if gs.bus == nil {
		return
	}
	if err := gs.bus.Publish(ctx, event); err != nil {
		gs.log.Warn("Failed to publish generation event", "type", event.Type, "error", err)
	}
}

func (gs *generationService) GenerateLesson(ctx context.Context, userID, languageID uuid.UUID, level, topic string) (*domain.Lesson, error) {
	if !domain.ValidLevel(level) {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid level %q", level))
	}
	language, err := gs.resolveLanguage(ctx, languageID)
	if err != nil {
		return nil, err
	}

	prompt := generation.LessonPrompt(generation.PromptInput{
		LanguageName: language.Name,
		LanguageCode: language.Code,
		Level:        level,
		Topic:        topic,
	})
	raw, err := gs.llm.GenerateText(ctx, generation.SystemInstruction, prompt, gs.cfg.MaxOutputTokens)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailed, fmt.Errorf("lesson generation: %w", err))
	}
	content, pf := generation.ParseLessonContent(raw)
	if pf != nil {
		gs.log.Warn("Lesson response rejected", "reason", pf.Reason, "detail", pf.Detail)
		return nil, parseErr(pf)
	}

	blob, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal lesson content: %w", err)
	}
	title := topic
	if title == "" {
		title = "Everyday conversation"
	}
	lesson := &domain.Lesson{
		UserID:     userID,
		LanguageID: language.ID,
		Level:      level,
		Topic:      topic,
		Title:      fmt.Sprintf("%s: %s", language.Name, title),
		Content:    datatypes.JSON(blob),
	}
	if err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := gs.lessonRepo.Create(ctx, tx, lesson)
		return cErr
	}); err != nil {
		return nil, fmt.Errorf("persist lesson: %w", err)
	}

	gs.publish(ctx, realtime.Event{
		Type:       "lesson.generated",
		UserID:     userID,
		EntityID:   lesson.ID,
		LanguageID: language.ID,
	})

	// Auto quiz is a secondary effect: it must never fail the lesson, so it
	// runs after commit on its own context and only logs on failure.
	gs.pending.Add(1)
	go func() {
		defer gs.pending.Done()
		quizCtx, cancel := context.WithTimeout(context.Background(), asyncQuizTimeout)
		defer cancel()
		if _, qErr := gs.generateQuizForLesson(quizCtx, userID, lesson, language, 0); qErr != nil {
			gs.log.Warn("Automatic quiz generation failed", "lesson_id", lesson.ID, "error", qErr)
		}
	}()

	return lesson, nil
}

func (gs *generationService) GenerateQuiz(ctx context.Context, userID, lessonID uuid.UUID, numberOfQuestions int) (*domain.Quiz, error) {
	lesson, err := gs.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("lesson %s not found", lessonID))
		}
		return nil, fmt.Errorf("fetch lesson: %w", err)
	}
	if lesson.UserID != userID {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("lesson %s not found", lessonID))
	}
	language, err := gs.resolveLanguage(ctx, lesson.LanguageID)
	if err != nil {
		return nil, err
	}
	return gs.generateQuizForLesson(ctx, userID, lesson, language, numberOfQuestions)
}

// generateQuizForLesson is the shared path behind the quiz endpoint and the
// post-lesson trigger. An existing quiz short-circuits before any LLM call;
// a concurrent insert race is resolved by the unique index on lesson_id.
func (gs *generationService) generateQuizForLesson(ctx context.Context, userID uuid.UUID, lesson *domain.Lesson, language *domain.Language, numberOfQuestions int) (*domain.Quiz, error) {
	existing, err := gs.quizRepo.GetByLessonID(ctx, nil, lesson.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing quiz: %w", err)
	}

	count := numberOfQuestions
	if count <= 0 {
		count = gs.cfg.QuizQuestionCount
	}
	prompt := generation.QuizPrompt(generation.PromptInput{
		LanguageName:  language.Name,
		LanguageCode:  language.Code,
		Level:         lesson.Level,
		QuestionCount: count,
		LessonTitle:   lesson.Title,
		LessonTopic:   lesson.Topic,
	})
	raw, err := gs.llm.GenerateText(ctx, generation.SystemInstruction, prompt, gs.cfg.MaxOutputTokens)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeGenerationFailed, fmt.Errorf("quiz generation: %w", err))
	}
	content, pf := generation.ParseQuizContent(raw)
	if pf != nil {
		gs.log.Warn("Quiz response rejected", "reason", pf.Reason, "detail", pf.Detail)
		return nil, parseErr(pf)
	}

	blob, err := json.Marshal(content.Questions)
	if err != nil {
		return nil, fmt.Errorf("marshal quiz questions: %w", err)
	}
	quiz := &domain.Quiz{
		LessonID:  lesson.ID,
		Questions: datatypes.JSON(blob),
	}
	stored, err := gs.quizRepo.CreateIfAbsent(ctx, nil, quiz)
	if err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}

	gs.publish(ctx, realtime.Event{
		Type:       "quiz.generated",
		UserID:     userID,
		EntityID:   stored.ID,
		LanguageID: language.ID,
	})
	return stored, nil
}

func (gs *generationService) ConversationPrompt(ctx context.Context, userID, languageID uuid.UUID, level, scenario string) (*generation.ConversationContent, bool, error) {
	if !domain.ValidLevel(level) {
		return nil, false, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid level %q", level))
	}
	language, err := gs.resolveLanguage(ctx, languageID)
	if err != nil {
		return nil, false, err
	}
	prompt := generation.ConversationPromptText(generation.PromptInput{
		LanguageName: language.Name,
		LanguageCode: language.Code,
		Level:        level,
		Scenario:     scenario,
	})
	return gs.conversationPath(ctx, userID, language, "prompt", scenario, prompt)
}

func (gs *generationService) ConversationReply(ctx context.Context, userID, languageID uuid.UUID, message string) (*generation.ConversationContent, bool, error) {
	if message == "" {
		return nil, false, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("message required"))
	}
	language, err := gs.resolveLanguage(ctx, languageID)
	if err != nil {
		return nil, false, err
	}
	prompt := generation.ConversationReplyPrompt(generation.PromptInput{
		LanguageName: language.Name,
		LanguageCode: language.Code,
		Level:        domain.LevelIntermediate,
		Message:      message,
	})
	// The learner's message doubles as the audit scenario for replies.
	return gs.conversationPath(ctx, userID, language, "reply", message, prompt)
}

// conversationPath runs the LLM, falls back to synthesized content on any
// generation or parse failure, and always writes the audit row.
func (gs *generationService) conversationPath(ctx context.Context, userID uuid.UUID, language *domain.Language, kind, scenario, prompt string) (*generation.ConversationContent, bool, error) {
	var content *generation.ConversationContent
	fallbackUsed := false

	raw, err := gs.llm.GenerateText(ctx, generation.SystemInstruction, prompt, gs.cfg.MaxOutputTokens)
	if err != nil {
		gs.log.Warn("Conversation generation failed, using fallback", "kind", kind, "error", err)
		fallbackUsed = true
	} else {
		parsed, pf := generation.ParseConversationContent(raw)
		if pf != nil {
			gs.log.Warn("Conversation response rejected, using fallback", "kind", kind, "reason", pf.Reason, "detail", pf.Detail)
			fallbackUsed = true
		} else {
			content = parsed
		}
	}
	if fallbackUsed {
		content = generation.FallbackConversation(language.Name, scenario)
	}

	blob, err := json.Marshal(content)
	if err != nil {
		return nil, false, fmt.Errorf("marshal conversation content: %w", err)
	}
	record := &domain.ConversationPractice{
		UserID:       userID,
		LanguageID:   language.ID,
		Kind:         kind,
		Scenario:     scenario,
		Content:      datatypes.JSON(blob),
		FallbackUsed: fallbackUsed,
	}
	if err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := gs.conversationRepo.Create(ctx, tx, record)
		return cErr
	}); err != nil {
		return nil, false, fmt.Errorf("persist conversation practice: %w", err)
	}

	gs.publish(ctx, realtime.Event{
		Type:         "conversation.generated",
		UserID:       userID,
		EntityID:     record.ID,
		LanguageID:   language.ID,
		FallbackUsed: fallbackUsed,
	})
	return content, fallbackUsed, nil
}

func (gs *generationService) PronunciationFeedback(ctx context.Context, userID, languageID uuid.UUID, level, targetText string, audioData []byte) (*generation.PronunciationFeedback, bool, error) {
	if !domain.ValidLevel(level) {
		return nil, false, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("invalid level %q", level))
	}
	if targetText == "" {
		return nil, false, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("targetText required"))
	}
	if len(audioData) == 0 {
		return nil, false, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("audioData required"))
	}
	language, err := gs.resolveLanguage(ctx, languageID)
	if err != nil {
		return nil, false, err
	}

	prompt := generation.PronunciationPrompt(generation.PromptInput{
		LanguageName: language.Name,
		LanguageCode: language.Code,
		Level:        level,
		TargetText:   targetText,
	})

	var feedback *generation.PronunciationFeedback
	fallbackUsed := false

	raw, err := gs.llm.GenerateText(ctx, generation.SystemInstruction, prompt, gs.cfg.MaxOutputTokens)
	if err != nil {
		gs.log.Warn("Pronunciation scoring failed, using fallback", "error", err)
		fallbackUsed = true
	} else {
		parsed, pf := generation.ParsePronunciationFeedback(raw)
		if pf != nil {
			gs.log.Warn("Pronunciation response rejected, using fallback", "reason", pf.Reason, "detail", pf.Detail)
			fallbackUsed = true
		} else {
			feedback = parsed
		}
	}
	if fallbackUsed {
		feedback = generation.FallbackPronunciation(gs.cfg, targetText)
	}

	blob, err := json.Marshal(feedback)
	if err != nil {
		return nil, false, fmt.Errorf("marshal pronunciation feedback: %w", err)
	}
	record := &domain.PronunciationAttempt{
		UserID:       userID,
		LanguageID:   language.ID,
		TargetText:   targetText,
		Accuracy:     feedback.Accuracy,
		Feedback:     datatypes.JSON(blob),
		FallbackUsed: fallbackUsed,
	}
	if err := gs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, cErr := gs.pronunciationRepo.Create(ctx, tx, record)
		return cErr
	}); err != nil {
		return nil, false, fmt.Errorf("persist pronunciation attempt: %w", err)
	}

	gs.publish(ctx, realtime.Event{
		Type:         "pronunciation.scored",
		UserID:       userID,
		EntityID:     record.ID,
		LanguageID:   language.ID,
		FallbackUsed: fallbackUsed,
	})
	return feedback, fallbackUsed, nil
}
