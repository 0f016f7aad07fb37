package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationPractice is an audit record of one conversation generation,
// keyed by user and timestamp. It is never reused across requests.
type ConversationPractice struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	LanguageID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"language_id"`
	Language     *Language      `gorm:"constraint:OnDelete:CASCADE;foreignKey:LanguageID;references:ID" json:"-"`
	Kind         string         `gorm:"column:kind;not null" json:"kind"` // prompt | reply
	Scenario     string         `gorm:"column:scenario" json:"scenario,omitempty"`
	Content      datatypes.JSON `gorm:"column:content;type:jsonb" json:"content"`
	FallbackUsed bool           `gorm:"column:fallback_used;not null;default:false" json:"fallback_used"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (ConversationPractice) TableName() string { return "conversation_practice" }

// PronunciationAttempt is the always-written audit record for a completed
// recording session: userId, target phrase and the (clamped) accuracy score.
type PronunciationAttempt struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	LanguageID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"language_id"`
	Language     *Language      `gorm:"constraint:OnDelete:CASCADE;foreignKey:LanguageID;references:ID" json:"-"`
	TargetText   string         `gorm:"column:target_text;not null" json:"target_text"`
	Accuracy     float64        `gorm:"column:accuracy;not null" json:"accuracy"`
	Feedback     datatypes.JSON `gorm:"column:feedback;type:jsonb" json:"feedback"`
	FallbackUsed bool           `gorm:"column:fallback_used;not null;default:false" json:"fallback_used"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (PronunciationAttempt) TableName() string { return "pronunciation_attempt" }
