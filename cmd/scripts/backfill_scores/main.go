// Command backfill_scores creates the missing score rows of conversations
// imported without one, so aggregate statistics see every conversation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/models"
	"gorm.io/gorm"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "only report the conversations that would be fixed")
	flag.Parse()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := models.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	fmt.Println("Connected to database successfully!")

	missing, err := conversationsWithoutScore(db)
	if err != nil {
		log.Fatalf("Failed to query conversations: %v", err)
	}
	fmt.Printf("Conversations without score record: %d\n", len(missing))

	if *dryRun || len(missing) == 0 {
		return
	}

	created, err := backfillScores(db, missing)
	if err != nil {
		log.Fatalf("Backfill stopped after %d rows: %v", created, err)
	}
	fmt.Printf("Created %d score records\n", created)
}

func conversationsWithoutScore(db *gorm.DB) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := db.Model(&models.Conversation{}).
		Joins("LEFT JOIN scores ON scores.conversation_id = conversations.id").
		Where("scores.id IS NULL").
		Order("conversations.id").
		Find(&convs).Error
	return convs, err
}

// backfillScores copies score and timestamp from each conversation.
func backfillScores(db *gorm.DB, convs []models.Conversation) (int, error) {
	created := 0
	for _, c := range convs {
		rec := models.ScoreRecord{
			UserID:         c.UserID,
			ConversationID: c.ID,
			Score:          c.Score,
			CreatedAt:      c.CreatedAt,
		}
		if err := db.Create(&rec).Error; err != nil {
			return created, fmt.Errorf("conversation %d: %w", c.ID, err)
		}
		created++
	}
	return created, nil
}
