package models

import "time"

const (
	ArchiveActive   = "ACTIVE"
	ArchiveArchived = "ARCHIVED"
)

// YearArchive snapshots the totals of a school year when it is created.
type YearArchive struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Year               string     `gorm:"size:20;uniqueIndex;not null" json:"year"`
	Description        string     `gorm:"type:text" json:"description"`
	Status             string     `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	TotalStudents      int64      `json:"total_students"`
	TotalPoints        int64      `json:"total_points"`
	TotalConversations int64      `json:"total_conversations"`
	ArchivedAt         *time.Time `json:"archived_at"`
	ArchivedBy         *uint      `json:"archived_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (YearArchive) TableName() string { return "year_archives" }
