package domain

import (
	"time"

	"github.com/google/uuid"
)

// Proficiency levels accepted by every generation request.
const (
	LevelBeginner     = "BEGINNER"
	LevelIntermediate = "INTERMEDIATE"
	LevelAdvanced     = "ADVANCED"
)

func ValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type Language struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string    `gorm:"column:code;uniqueIndex;not null" json:"code"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	NativeName string    `gorm:"column:native_name" json:"native_name"`
	Flag       string    `gorm:"column:flag" json:"flag,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Language) TableName() string { return "language" }
