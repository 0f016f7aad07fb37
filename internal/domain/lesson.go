package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Lesson owns its generated content. Content is written once at generation
// time and never edited afterwards.
type Lesson struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	LanguageID uuid.UUID      `gorm:"type:uuid;not null;index" json:"language_id"`
	Language   *Language      `gorm:"constraint:OnDelete:CASCADE;foreignKey:LanguageID;references:ID" json:"language,omitempty"`
	Level      string         `gorm:"column:level;not null" json:"level"`
	Topic      string         `gorm:"column:topic" json:"topic"`
	Title      string         `gorm:"column:title;not null" json:"title"`
	Content    datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }

// Quiz is keyed uniquely by lesson so repeat generation requests coalesce
// into the stored row instead of creating duplicates.
type Quiz struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"lesson_id"`
	Lesson    *Lesson        `gorm:"constraint:OnDelete:CASCADE;foreignKey:LessonID;references:ID" json:"-"`
	Questions datatypes.JSON `gorm:"column:questions;type:jsonb" json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

func (Quiz) TableName() string { return "quiz" }
