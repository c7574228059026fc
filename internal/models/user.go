package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// User is any platform account. Points is only mutated through the ledger
// and never drops below zero.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"uniqueIndex;size:100;not null" json:"username"`
	Password      string         `gorm:"size:255" json:"-"`
	Name          string         `gorm:"size:200;not null" json:"name"`
	Email         string         `gorm:"size:255" json:"email"`
	Matricula     string         `gorm:"size:50;index" json:"matricula"` // school registration number, students only
	Role          string         `gorm:"size:20;index;not null;default:student" json:"role"`
	Points        int            `gorm:"not null;default:0;check:chk_users_points,points >= 0" json:"points"`
	TermsAccepted bool           `gorm:"default:false" json:"terms_accepted"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	LastLogin     *time.Time     `json:"last_login"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// FirstName is used in greetings and notification templates.
func (u *User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}
