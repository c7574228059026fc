package services

import (
	"context"
	"strings"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

// YearArchiveService snapshots school-year totals and tracks whether each
// year is still active.
type YearArchiveService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewYearArchiveService(db *gorm.DB) *YearArchiveService {
	return &YearArchiveService{db: db, now: time.Now}
}

func (s *YearArchiveService) List(ctx context.Context) ([]models.YearArchive, error) {
	archives := []models.YearArchive{}
	err := s.db.WithContext(ctx).Order("year DESC").Find(&archives).Error
	return archives, err
}

// Create records a new year with the current student, point and
// conversation totals. A year can be archived only once.
func (s *YearArchiveService) Create(ctx context.Context, adminID uint, year, description string) (*models.YearArchive, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil, validationError("year is required")
	}

	archive := &models.YearArchive{Year: year, Description: description, Status: models.ArchiveActive}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.YearArchive{}).Where("year = ?", year).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return validationError("an archive for year %s already exists", year)
		}

		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleStudent).Count(&archive.TotalStudents).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("role = ?", models.RoleStudent).
			Select("COALESCE(SUM(points), 0)").
			Scan(&archive.TotalPoints).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Conversation{}).Count(&archive.TotalConversations).Error; err != nil {
			return err
		}
		return tx.Create(archive).Error
	})
	if err != nil {
		return nil, err
	}

	logger.Info().Uint("admin_id", adminID).Str("year", year).Int64("students", archive.TotalStudents).Msg("year archive created")
	return archive, nil
}

// SetStatus archives or restores a year. Archiving stamps the time and the
// admin; restoring clears both.
func (s *YearArchiveService) SetStatus(ctx context.Context, adminID, id uint, status string) (*models.YearArchive, error) {
	if status != models.ArchiveActive && status != models.ArchiveArchived {
		return nil, validationError("invalid status %q", status)
	}

	db := s.db.WithContext(ctx)
	var archive models.YearArchive
	if err := db.First(&archive, id).Error; err != nil {
		return nil, translateNotFound(err, "year archive", id)
	}

	archive.Status = status
	archive.ArchivedAt = nil
	archive.ArchivedBy = nil
	if status == models.ArchiveArchived {
		now := s.now()
		archive.ArchivedAt = &now
		archive.ArchivedBy = &adminID
	}
	err := db.Model(&archive).Select("status", "archived_at", "archived_by").Updates(&archive).Error
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

// Delete removes an archive and returns what was removed.
func (s *YearArchiveService) Delete(ctx context.Context, id uint) (*models.YearArchive, error) {
	db := s.db.WithContext(ctx)
	var archive models.YearArchive
	if err := db.First(&archive, id).Error; err != nil {
		return nil, translateNotFound(err, "year archive", id)
	}
	if err := db.Delete(&archive).Error; err != nil {
		return nil, err
	}
	return &archive, nil
}
