package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultEmotionHistoryDays = 30

// ConversationService turns finished chats into scored records, awards the
// daily points and raises risk alerts.
type ConversationService struct {
	db       *gorm.DB
	gate     *DailyGate
	notifier *NotificationService
	rewards  config.RewardsConfig
	now      func() time.Time
}

func NewConversationService(db *gorm.DB, gate *DailyGate, notifier *NotificationService, rewards config.RewardsConfig) *ConversationService {
	return &ConversationService{
		db:       db,
		gate:     gate,
		notifier: notifier,
		rewards:  rewards,
		now:      time.Now,
	}
}

type SubmitConversationInput struct {
	UserID          uint
	Turns           []Turn
	DurationSeconds int
}

type SubmitConversationResult struct {
	Saved          bool    `json:"saved"`
	ConversationID uint    `json:"conversation_id,omitempty"`
	PointsAwarded  int     `json:"points_awarded"`
	Score          float64 `json:"score"`
	Emotion        string  `json:"emotion"`
	SentimentScore float64 `json:"sentiment_score"`
}

// Submit scores and stores a finished conversation. Conversations shorter
// than the configured minimum are discarded without touching the store.
//
// The user row is locked before the first-of-day check, so two submissions
// of the same student cannot both collect the daily award.
func (s *ConversationService) Submit(ctx context.Context, in SubmitConversationInput) (*SubmitConversationResult, error) {
	if in.DurationSeconds < s.rewards.MinDurationSeconds {
		return &SubmitConversationResult{Saved: false, PointsAwarded: 0}, nil
	}

	analysis := AnalyzeTranscript(in.Turns)

	turns := in.Turns
	if turns == nil {
		turns = []Turn{}
	}
	transcript, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("encode transcript: %w", err)
	}

	now := s.now()
	var (
		user       *models.User
		firstOfDay bool
		conv       *models.Conversation
	)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if user, err = lockUser(tx, in.UserID, ""); err != nil {
			return err
		}
		if firstOfDay, err = s.gate.isFirstOfDay(tx, in.UserID, now); err != nil {
			return err
		}

		conv = &models.Conversation{
			UserID:         in.UserID,
			Messages:       datatypes.JSON(transcript),
			Score:          analysis.Score,
			Duration:       in.DurationSeconds,
			Emotion:        analysis.Emotion,
			SentimentScore: analysis.SentimentScore,
			CreatedAt:      now.UTC(),
		}
		if err := tx.Create(conv).Error; err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}

		record := &models.ScoreRecord{
			UserID:         in.UserID,
			ConversationID: conv.ID,
			Score:          analysis.Score,
			CreatedAt:      now.UTC(),
		}
		if err := tx.Create(record).Error; err != nil {
			return fmt.Errorf("create score record: %w", err)
		}

		if firstOfDay {
			err := tx.Model(&models.User{}).
				Where("id = ?", in.UserID).
				Update("points", gorm.Expr("points + ?", s.rewards.DailyAwardPoints)).Error
			if err != nil {
				return fmt.Errorf("award daily points: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &SubmitConversationResult{
		Saved:          true,
		ConversationID: conv.ID,
		Score:          analysis.Score,
		Emotion:        analysis.Emotion,
		SentimentScore: analysis.SentimentScore,
	}
	if firstOfDay {
		result.PointsAwarded = s.rewards.DailyAwardPoints
	}

	logger.Info().
		Uint("user_id", in.UserID).
		Uint("conversation_id", conv.ID).
		Float64("score", analysis.Score).
		Str("emotion", analysis.Emotion).
		Int("points_awarded", result.PointsAwarded).
		Msg("conversation saved")

	if firstOfDay && analysis.Score <= s.rewards.RiskThreshold {
		s.notifier.NotifyRisk(ctx, user)
	}

	return result, nil
}

type DailyStatus struct {
	IsFirstConversationOfDay bool   `json:"is_first_conversation_of_day"`
	Greeting                 string `json:"greeting"`
}

// DailyStatus reports whether the next conversation would be the first of
// today, along with the matching greeting.
func (s *ConversationService) DailyStatus(ctx context.Context, userID uint) (*DailyStatus, error) {
	first, err := s.gate.IsFirstConversationOfDay(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "name").First(&user, userID).Error; err != nil {
		return nil, translateNotFound(err, "user", userID)
	}

	return &DailyStatus{
		IsFirstConversationOfDay: first,
		Greeting:                 Greeting(first, user.FirstName()),
	}, nil
}

type StudentStats struct {
	TotalConversations  int64      `json:"total_conversations"`
	WeeklyConversations int64      `json:"weekly_conversations"`
	LastConversationAt  *time.Time `json:"last_conversation_at"`
	TotalPoints         int        `json:"total_points"`
}

func (s *ConversationService) Stats(ctx context.Context, userID uint) (*StudentStats, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Select("id", "points").First(&user, userID).Error; err != nil {
		return nil, translateNotFound(err, "user", userID)
	}

	stats := &StudentStats{TotalPoints: user.Points}
	if err := db.Model(&models.Conversation{}).Where("user_id = ?", userID).Count(&stats.TotalConversations).Error; err != nil {
		return nil, err
	}

	weekAgo := s.now().Add(-7 * 24 * time.Hour).UTC()
	if err := db.Model(&models.Conversation{}).
		Where("user_id = ? AND created_at >= ?", userID, weekAgo).
		Count(&stats.WeeklyConversations).Error; err != nil {
		return nil, err
	}

	var last models.Conversation
	err := db.Select("id", "created_at").Where("user_id = ?", userID).Order("created_at DESC").Limit(1).Find(&last).Error
	if err != nil {
		return nil, err
	}
	if last.ID != 0 {
		stats.LastConversationAt = &last.CreatedAt
	}
	return stats, nil
}

type EmotionDay struct {
	Date               string   `json:"date"` // yyyy-mm-dd in the service location
	Emotions           []string `json:"emotions"`
	AverageSentiment   float64  `json:"average_sentiment"`
	TotalConversations int      `json:"total_conversations"`
}

type EmotionHistory struct {
	Days               []EmotionDay `json:"days"`
	TotalConversations int          `json:"total_conversations"`
}

// EmotionHistory groups the conversations of the last days calendar days
// (plus today) by day, oldest first.
func (s *ConversationService) EmotionHistory(ctx context.Context, userID uint, days int) (*EmotionHistory, error) {
	if days <= 0 {
		days = defaultEmotionHistoryDays
	}

	now := s.now()
	start := s.gate.StartOfDay(now).AddDate(0, 0, -days).UTC()
	_, end := s.gate.DayBounds(now)

	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Select("id", "emotion", "sentiment_score", "created_at").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start, end).
		Order("created_at ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}

	history := &EmotionHistory{Days: []EmotionDay{}, TotalConversations: len(convs)}
	index := make(map[string]int)
	sums := make(map[string]float64)

	for _, c := range convs {
		day := c.CreatedAt.In(s.gate.loc).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(history.Days)
			index[day] = i
			history.Days = append(history.Days, EmotionDay{Date: day, Emotions: []string{}})
		}
		if c.Emotion != "" {
			history.Days[i].Emotions = append(history.Days[i].Emotions, c.Emotion)
		}
		sums[day] += c.SentimentScore
		history.Days[i].TotalConversations++
	}

	for i := range history.Days {
		d := &history.Days[i]
		d.AverageSentiment = roundHalfUp(sums[d.Date]/float64(d.TotalConversations), 2)
	}
	return history, nil
}
