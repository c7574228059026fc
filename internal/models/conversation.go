package models

import (
	"time"

	"gorm.io/datatypes"
)

// Conversation is a finished chat session. Rows are never updated after
// creation; Messages holds the ordered transcript as JSON.
type Conversation struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"index:idx_conversations_user_created;not null" json:"user_id"`
	User           *User          `gorm:"foreignKey:UserID" json:"-"`
	Messages       datatypes.JSON `json:"messages"`
	Score          float64        `gorm:"not null" json:"score"`
	Duration       int            `gorm:"not null" json:"duration"` // seconds
	Emotion        string         `gorm:"size:20" json:"emotion"`
	SentimentScore float64        `json:"sentiment_score"`
	ScoreRecord    *ScoreRecord   `gorm:"foreignKey:ConversationID" json:"score_record,omitempty"`
	CreatedAt      time.Time      `gorm:"index:idx_conversations_user_created" json:"created_at"`
}

func (Conversation) TableName() string { return "conversations" }

// ScoreRecord duplicates the conversation score for aggregate queries.
// Exactly one exists per conversation.
type ScoreRecord struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	ConversationID uint      `gorm:"uniqueIndex;not null" json:"conversation_id"`
	Score          float64   `gorm:"not null" json:"score"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (ScoreRecord) TableName() string { return "scores" }
