package models

import "time"

// Assignment links a student to the teacher following them.
type Assignment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeacherID uint      `gorm:"index;not null" json:"teacher_id"`
	Teacher   *User     `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	StudentID uint      `gorm:"index;not null" json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Assignment) TableName() string { return "assignments" }
