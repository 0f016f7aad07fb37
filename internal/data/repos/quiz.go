package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type QuizRepo interface {
	// CreateIfAbsent inserts the quiz unless one already exists for the
	// lesson, then returns the stored row either way. The one-quiz-per-lesson
	// invariant is enforced by the unique index on lesson_id, so a race
	// between two writers coalesces into a read of the winner's row.
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) (*domain.Quiz, error)
	GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*domain.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) (*domain.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}},
			DoNothing: true,
		}).
		Create(quiz).Error; err != nil {
		return nil, err
	}
	return r.GetByLessonID(ctx, transaction, quiz.LessonID)
}

func (r *quizRepo) GetByLessonID(ctx context.Context, tx *gorm.DB, lessonID uuid.UUID) (*domain.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result domain.Quiz
	if err := transaction.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
