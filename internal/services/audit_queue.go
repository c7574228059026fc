package services

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/pkg/logger"
)

const TaskTypeAuditWrite = "audit:write"

// AuditWriter persists one audit entry.
type AuditWriter func(ctx context.Context, entry *AuditEntry) error

// AuditQueue decouples audit writes from the request that triggered them.
type AuditQueue interface {
	Enqueue(ctx context.Context, entry *AuditEntry) error
	// IsAsync reports whether entries are written by a separate worker.
	IsAsync() bool
	Close() error
}

// NewAuditQueue returns the Redis-backed queue when Redis is enabled and
// reachable, and the inline queue otherwise.
func NewAuditQueue(cfg *config.RedisConfig, writer AuditWriter) AuditQueue {
	if !cfg.Enabled {
		logger.Infof("[AuditQueue] Sync queue initialized (Redis disabled)")
		return NewSyncAuditQueue(writer)
	}

	queue, err := NewAsyncAuditQueue(cfg)
	if err != nil {
		logger.Warnf("[AuditQueue] Redis unavailable, falling back to sync mode: %v", err)
		return NewSyncAuditQueue(writer)
	}
	logger.Infof("[AuditQueue] Async queue initialized with Redis at %s", cfg.Addr)
	return queue
}

func redisClientOpt(cfg *config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// AsyncAuditQueue publishes entries as asynq tasks.
type AsyncAuditQueue struct {
	client *asynq.Client
}

func NewAsyncAuditQueue(cfg *config.RedisConfig) (*AsyncAuditQueue, error) {
	opt := redisClientOpt(cfg)
	client := asynq.NewClient(opt)

	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncAuditQueue{client: client}, nil
}

func (q *AsyncAuditQueue) Enqueue(ctx context.Context, entry *AuditEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeAuditWrite, payload)
	info, err := q.client.EnqueueContext(ctx, task,
		asynq.Queue("default"),
		asynq.MaxRetry(5),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("action", entry.Action).Msg("audit entry enqueued")
	return nil
}

func (q *AsyncAuditQueue) IsAsync() bool { return true }

func (q *AsyncAuditQueue) Close() error {
	return q.client.Close()
}

// SyncAuditQueue writes entries in the caller's goroutine.
type SyncAuditQueue struct {
	writer AuditWriter
}

func NewSyncAuditQueue(writer AuditWriter) *SyncAuditQueue {
	return &SyncAuditQueue{writer: writer}
}

func (q *SyncAuditQueue) Enqueue(ctx context.Context, entry *AuditEntry) error {
	if q.writer == nil {
		logger.Warnf("[AuditQueue] no writer set, entry dropped")
		return nil
	}
	return q.writer(ctx, entry)
}

func (q *SyncAuditQueue) IsAsync() bool { return false }

func (q *SyncAuditQueue) Close() error { return nil }
