package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/pkg/logger"
)

// AuditWorker consumes audit tasks published by AsyncAuditQueue.
type AuditWorker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	writer  AuditWriter
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// NewAuditWorker returns nil when Redis is disabled.
func NewAuditWorker(cfg *config.RedisConfig, writer AuditWriter) *AuditWorker {
	if !cfg.Enabled {
		return nil
	}

	server := asynq.NewServer(
		redisClientOpt(cfg),
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warnf("[AuditWorker] Error processing task %s: %v", task.Type(), err)
			}),
		},
	)

	return &AuditWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		writer: writer,
	}
}

func (w *AuditWorker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeAuditWrite, w.handleAuditTask)

	w.running = true
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		logger.Infof("[AuditWorker] Starting...")
		if err := w.server.Run(w.mux); err != nil {
			logger.Errorf("[AuditWorker] Server error: %v", err)
		}
	}()
	return nil
}

func (w *AuditWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	logger.Infof("[AuditWorker] Shutting down...")
	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
}

func (w *AuditWorker) handleAuditTask(ctx context.Context, t *asynq.Task) error {
	var entry AuditEntry
	if err := json.Unmarshal(t.Payload(), &entry); err != nil {
		// a malformed payload will never succeed
		return asynq.SkipRetry
	}
	return w.writer(ctx, &entry)
}
