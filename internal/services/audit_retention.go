package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const auditCleanupLockName = "audit_cleanup"

// AuditRetention periodically removes audit rows older than the configured
// retention. A scheduler lock row per day keeps several instances from
// running the same cleanup.
type AuditRetention struct {
	db            *gorm.DB
	audit         *AuditService
	cfg           config.AuditConfig
	loc           *time.Location
	now           func() time.Time
	instance      string
	cronScheduler *cron.Cron
}

func NewAuditRetention(db *gorm.DB, audit *AuditService, cfg config.AuditConfig, loc *time.Location) *AuditRetention {
	host, _ := os.Hostname()
	if loc == nil {
		loc = time.Local
	}
	return &AuditRetention{
		db:       db,
		audit:    audit,
		cfg:      cfg,
		loc:      loc,
		now:      time.Now,
		instance: fmt.Sprintf("%s-%d", host, os.Getpid()),
	}
}

func (r *AuditRetention) StartScheduler() error {
	if r.cfg.RetentionDays <= 0 || r.cfg.CleanupCron == "" {
		logger.Infof("[AuditRetention] disabled")
		return nil
	}

	r.cronScheduler = cron.New(cron.WithLocation(r.loc))
	if _, err := r.cronScheduler.AddFunc(r.cfg.CleanupCron, func() {
		if _, err := r.RunOnce(context.Background()); err != nil {
			logger.Errorf("[AuditRetention] cleanup failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule audit cleanup %q: %w", r.cfg.CleanupCron, err)
	}
	r.cronScheduler.Start()

	logger.Infof("[AuditRetention] Scheduled (cron: %s, retention: %d days)", r.cfg.CleanupCron, r.cfg.RetentionDays)
	return nil
}

func (r *AuditRetention) StopScheduler() {
	if r.cronScheduler != nil {
		<-r.cronScheduler.Stop().Done()
	}
}

// RunOnce deletes expired audit rows unless another instance already did it
// today. It returns the number of rows removed.
func (r *AuditRetention) RunOnce(ctx context.Context) (int64, error) {
	now := r.now()

	acquired, err := r.tryLock(ctx, now)
	if err != nil {
		return 0, err
	}
	if !acquired {
		logger.Debug().Msg("audit cleanup already ran today")
		return 0, nil
	}

	cutoff := now.AddDate(0, 0, -r.cfg.RetentionDays)
	deleted, err := r.audit.CleanupBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("audit logs cleaned up")
	return deleted, nil
}

func (r *AuditRetention) tryLock(ctx context.Context, now time.Time) (bool, error) {
	lock := &models.SchedulerLock{
		LockName:  auditCleanupLockName,
		LockKey:   now.In(r.loc).Format("2006-01-02"),
		LockedBy:  r.instance,
		LockedAt:  now.UTC(),
		ExpiresAt: now.Add(24 * time.Hour).UTC(),
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(lock)
	if result.Error != nil {
		return false, fmt.Errorf("acquire %s lock: %w", auditCleanupLockName, result.Error)
	}
	return result.RowsAffected == 1, nil
}
