package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

const logPageSize = 50

type auditLogStore interface {
	List(ctx context.Context, entity models.AuditEntity, page, pageSize int) ([]models.AuditLog, int, error)
	ListByEntityID(ctx context.Context, entity models.AuditEntity, entityID int64) ([]models.AuditLog, error)
}

// LogService exposes the append-only audit trails for admin review.
type LogService struct {
	repo   auditLogStore
	logger *zap.Logger
}

// NewLogService constructs a LogService instance.
func NewLogService(repo auditLogStore, logger *zap.Logger) *LogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogService{repo: repo, logger: logger}
}

// List returns one entity's trail, newest first.
func (s *LogService) List(ctx context.Context, entity models.AuditEntity, page int) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, entity, page, logPageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, paginate(page, logPageSize, total), nil
}

// ListForEntity returns the trail of a single catalog item.
func (s *LogService) ListForEntity(ctx context.Context, entity models.AuditEntity, entityID int64) ([]models.AuditLog, error) {
	logs, err := s.repo.ListByEntityID(ctx, entity, entityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, nil
}
