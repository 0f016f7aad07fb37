package db

import (
	"gorm.io/gorm"

	"github.com/linguaflow/linguaflow-backend/internal/domain"
)

// MigrateAll is shared between the postgres service and the sqlite test
// harness so both schemas stay in sync.
func MigrateAll(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&domain.User{},
		&domain.UserToken{},
		&domain.Language{},
		&domain.Lesson{},
		&domain.Quiz{},
		&domain.LearningProgress{},
		&domain.ConversationPractice{},
		&domain.PronunciationAttempt{},
	)
}
