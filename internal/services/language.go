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

type LanguageService interface {
	List(ctx context.Context) ([]*domain.Language, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error)
	SeedDefaults(ctx context.Context) error
}

type languageService struct {
	db           *gorm.DB
	log          *logger.Logger
	languageRepo repos.LanguageRepo
}

func NewLanguageService(db *gorm.DB, log *logger.Logger, languageRepo repos.LanguageRepo) LanguageService {
	return &languageService{
		db:           db,
		log:          log.With("service", "LanguageService"),
		languageRepo: languageRepo,
	}
}

func (ls *languageService) List(ctx context.Context) ([]*domain.Language, error) {
	languages, err := ls.languageRepo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return languages, nil
}

func (ls *languageService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Language, error) {
	language, err := ls.languageRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, fmt.Errorf("language %s not found", id))
		}
		return nil, fmt.Errorf("get language: %w", err)
	}
	return language, nil
}

// SeedDefaults upserts the launch catalog. Safe to run on every boot.
func (ls *languageService) SeedDefaults(ctx context.Context) error {
	defaults := []*domain.Language{
		{Code: "es", Name: "Spanish", NativeName: "Español", Flag: "🇪🇸"},
		{Code: "fr", Name: "French", NativeName: "Français", Flag: "🇫🇷"},
		{Code: "de", Name: "German", NativeName: "Deutsch", Flag: "🇩🇪"},
		{Code: "it", Name: "Italian", NativeName: "Italiano", Flag: "🇮🇹"},
		{Code: "pt", Name: "Portuguese", NativeName: "Português", Flag: "🇵🇹"},
		{Code: "ja", Name: "Japanese", NativeName: "日本語", Flag: "🇯🇵"},
	}
	return ls.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, language := range defaults {
			if _, err := ls.languageRepo.Upsert(ctx, tx, language); err != nil {
				return fmt.Errorf("seed language %s: %w", language.Code, err)
			}
		}
		return nil
	})
}
