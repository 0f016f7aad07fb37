package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
	"github.com/linguaflow/linguaflow-backend/internal/platform/logger"
)

type LanguageRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, language *domain.Language) (*domain.Language, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Language, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*domain.Language, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Language, error)
}

type languageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLanguageRepo(db *gorm.DB, baseLog *logger.Logger) LanguageRepo {
	return &languageRepo{db: db, log: baseLog.With("repo", "LanguageRepo")}
}

func (r *languageRepo) Upsert(ctx context.Context, tx *gorm.DB, language *domain.Language) (*domain.Language, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if language.ID == uuid.Nil {
		language.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "native_name", "flag"}),
		}).
		Create(language).Error; err != nil {
		return nil, err
	}
	return language, nil
}

func (r *languageRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Language, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result domain.Language
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *languageRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*domain.Language, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result domain.Language
	if err := transaction.WithContext(ctx).
		Where("code = ?", code).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *languageRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Language, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*domain.Language
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
