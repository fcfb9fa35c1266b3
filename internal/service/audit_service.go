package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/pkg/config"
	"github.com/noah-isme/budget-calc-api/pkg/jobs"
)

type auditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService records audit trail entries without blocking the request
// path: entries are enqueued onto a worker queue and persisted in the
// background. A disabled service drops everything silently.
type AuditService struct {
	repo    auditLogRepository
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewAuditService constructs the audit writer and its backing queue.
// Call Start before recording and Stop on shutdown.
func NewAuditService(repo auditLogRepository, cfg config.AuditConfig, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AuditService{repo: repo, logger: logger, enabled: cfg.Enabled}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *AuditService) Start(ctx context.Context) {
	if s.enabled {
		s.queue.Start(ctx)
	}
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	if s.enabled {
		s.queue.Stop()
	}
}

// Record enqueues an audit entry. Failures are logged, never surfaced:
// audit must not break the operation it describes.
func (s *AuditService) Record(entry *models.AuditLog) {
	if !s.enabled {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: entry.Action, Payload: entry}); err != nil {
		s.logger.Warn("failed to enqueue audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return fmt.Errorf("unexpected audit payload %T", job.Payload)
	}
	return s.repo.Create(ctx, entry)
}
