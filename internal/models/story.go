package models

import (
	"time"

	"gorm.io/gorm"
)

// Story is a saved generation in a profile's library
type Story struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ProfileID   uint    `gorm:"not null;index" json:"profile_id"`
	Profile     Profile `gorm:"foreignKey:ProfileID" json:"-"`
	Title       string  `gorm:"not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Content     string  `gorm:"type:text;not null" json:"content"`
	Prompt      string  `gorm:"type:text;not null" json:"prompt"`
	AudioURL    string  `json:"audio_url,omitempty"`
	IsPublic    bool    `gorm:"default:false" json:"is_public"`
}

// GenerationLog records one story generation for usage accounting
type GenerationLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	ProfileID    *uint   `gorm:"index" json:"profile_id,omitempty"` // nil for anonymous generations
	Model        string  `gorm:"not null" json:"model"`
	SampleMode   bool    `gorm:"default:false" json:"sample_mode"`
	PromptChars  int     `gorm:"not null" json:"prompt_chars"`
	StoryChars   int     `gorm:"not null" json:"story_chars"`
	AudioSeconds float64 `gorm:"default:0" json:"audio_seconds"`
	AudioFailed  bool    `gorm:"default:false" json:"audio_failed"`
	DurationMS   int     `gorm:"not null" json:"duration_ms"`
	RequestID    string  `gorm:"index" json:"request_id"`
}
