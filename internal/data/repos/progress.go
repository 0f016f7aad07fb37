package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type ProgressRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, progress *domain.LearningProgress) (*domain.LearningProgress, error)
	GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*domain.LearningProgress, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.LearningProgress, error)
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) Upsert(ctx context.Context, tx *gorm.DB, progress *domain.LearningProgress) (*domain.LearningProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if progress.ID == uuid.Nil {
		progress.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"completed", "score", "updated_at"}),
		}).
		Create(progress).Error; err != nil {
		return nil, err
	}
	return r.GetByUserAndLesson(ctx, transaction, progress.UserID, progress.LessonID)
}

func (r *progressRepo) GetByUserAndLesson(ctx context.Context, tx *gorm.DB, userID, lessonID uuid.UUID) (*domain.LearningProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result domain.LearningProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.LearningProgress, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.LearningProgress
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
