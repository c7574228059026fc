package services

import (
	"context"
	"fmt"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"gorm.io/gorm"
)

// DailyGate answers whether a conversation would be the student's first of
// the calendar day. Days are taken in the gate's location.
type DailyGate struct {
	db  *gorm.DB
	loc *time.Location
}

func NewDailyGate(db *gorm.DB, loc *time.Location) *DailyGate {
	if loc == nil {
		loc = time.Local
	}
	return &DailyGate{db: db, loc: loc}
}

// StartOfDay returns local midnight of the day containing t.
func (g *DailyGate) StartOfDay(t time.Time) time.Time {
	t = t.In(g.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.loc)
}

// DayBounds returns [start, end) of the day containing t, in UTC so they
// compare correctly against stored timestamps.
func (g *DailyGate) DayBounds(t time.Time) (time.Time, time.Time) {
	start := g.StartOfDay(t)
	return start.UTC(), start.AddDate(0, 0, 1).UTC()
}

// IsFirstConversationOfDay reports whether userID has no conversation
// created during the day containing now.
func (g *DailyGate) IsFirstConversationOfDay(ctx context.Context, userID uint, now time.Time) (bool, error) {
	return g.isFirstOfDay(g.db.WithContext(ctx), userID, now)
}

// isFirstOfDay runs the check on db, which may be an open transaction.
func (g *DailyGate) isFirstOfDay(db *gorm.DB, userID uint, now time.Time) (bool, error) {
	start, end := g.DayBounds(now)

	var count int64
	err := db.Model(&models.Conversation{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count conversations of day: %w", err)
	}
	return count == 0, nil
}

// Greeting is the line the assistant opens a chat with.
func Greeting(firstOfDay bool, firstName string) string {
	if firstOfDay || firstName == "" {
		return "Olá! Sou a Ayla, como você está se sentindo hoje?"
	}
	return fmt.Sprintf("Olá %s, como posso te ajudar hoje?", firstName)
}
