package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedLanguage(tb testing.TB, ctx context.Context, tx *gorm.DB, code, name string) *domain.Language {
	tb.Helper()
	l := &domain.Language{
		ID:         uuid.New(),
		Code:       code,
		Name:       name,
		NativeName: name,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed language: %v", err)
	}
	return l
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, languageID uuid.UUID) *domain.Lesson {
	tb.Helper()
	l := &domain.Lesson{
		ID:         uuid.New(),
		UserID:     userID,
		LanguageID: languageID,
		Level:      domain.LevelBeginner,
		Topic:      "Greetings",
		Title:      "lesson",
		Content:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}
