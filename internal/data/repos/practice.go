package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *domain.ConversationPractice) (*domain.ConversationPractice, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.ConversationPractice, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, record *domain.ConversationPractice) (*domain.ConversationPractice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *conversationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.ConversationPractice, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.ConversationPractice
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type PronunciationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, record *domain.PronunciationAttempt) (*domain.PronunciationAttempt, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.PronunciationAttempt, error)
}

type pronunciationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPronunciationRepo(db *gorm.DB, baseLog *logger.Logger) PronunciationRepo {
	return &pronunciationRepo{db: db, log: baseLog.With("repo", "PronunciationRepo")}
}

func (r *pronunciationRepo) Create(ctx context.Context, tx *gorm.DB, record *domain.PronunciationAttempt) (*domain.PronunciationAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *pronunciationRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.PronunciationAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.PronunciationAttempt
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
