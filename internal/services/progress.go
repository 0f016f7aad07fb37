package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/data/repos"
	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/platform/apierr"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type ProgressService interface {
	Record(ctx context.Context, userID, lessonID uuid.UUID, completed bool, score *float64) (*domain.LearningProgress, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearningProgress, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	progressRepo repos.ProgressRepo
	lessonRepo   repos.LessonRepo
}

func NewProgressService(db *gorm.DB, log *logger.Logger, progressRepo repos.ProgressRepo, lessonRepo repos.LessonRepo) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
	}
}

// Record upserts the caller's progress on a lesson. Repeated calls update
// the same row; the user+lesson pair is unique.
func (ps *progressService) Record(ctx context.Context, userID, lessonID uuid.UUID, completed bool, score *float64) (*domain.LearningProgress, error) {
	if score != nil && (*score < 0 || *score > 1) {
		return nil, apierr.New(http.StatusBadRequest, apierr.CodeBadRequest, fmt.Errorf("score must be within [0,1]"))
	}
	lesson, err := ps.lessonRepo.GetByID(ctx, nil, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("lesson %s not found", lessonID))
		}
		return nil, fmt.Errorf("fetch lesson: %w", err)
	}
	if lesson.UserID != userID {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("lesson %s not found", lessonID))
	}

	progress := &domain.LearningProgress{
		UserID:    userID,
		LessonID:  lessonID,
		Completed: completed,
		Score:     score,
	}
	var stored *domain.LearningProgress
	if err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uErr error
		stored, uErr = ps.progressRepo.Upsert(ctx, tx, progress)
		return uErr
	}); err != nil {
		return nil, fmt.Errorf("persist progress: %w", err)
	}
	return stored, nil
}

func (ps *progressService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearningProgress, error) {
	rows, err := ps.progressRepo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return rows, nil
}
