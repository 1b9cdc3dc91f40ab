package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/rims-api/internal/models"
)

// LogRepository reads the append-only audit trails. Writes happen inside the
// catalog and ledger transactions so a trail row never outlives a rolled-back
// change.
type LogRepository struct {
	db *sqlx.DB
}

// NewLogRepository creates a new instance of LogRepository.
func NewLogRepository(db *sqlx.DB) *LogRepository {
	return &LogRepository{db: db}
}

// List returns trail entries for one entity kind, newest first.
func (r *LogRepository) List(ctx context.Context, entity models.AuditEntity, page, pageSize int) ([]models.AuditLog, int, error) {
	table := logTable(entity)

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf(`SELECT id, entity_id, action, details, user_email, created_at
		FROM %s ORDER BY created_at DESC LIMIT %d OFFSET %d`, table, pageSize, (page-1)*pageSize)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	for i := range logs {
		logs[i].Entity = entity
	}
	return logs, total, nil
}

// ListByEntityID returns the trail of a single catalog item, newest first.
func (r *LogRepository) ListByEntityID(ctx context.Context, entity models.AuditEntity, entityID int64) ([]models.AuditLog, error) {
	table := logTable(entity)
	query := fmt.Sprintf(`SELECT id, entity_id, action, details, user_email, created_at
		FROM %s WHERE entity_id = $1 ORDER BY created_at DESC`, table)

	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, entityID); err != nil {
		return nil, fmt.Errorf("list %s for entity: %w", table, err)
	}
	for i := range logs {
		logs[i].Entity = entity
	}
	return logs, nil
}

// Append writes a trail entry outside any transaction, for actions that have
// no surrounding catalog write.
func (r *LogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	entry.CreatedAt = time.Now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s (entity_id, action, details, user_email, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`, logTable(entry.Entity))
	if err := r.db.QueryRowxContext(ctx, query,
		entry.EntityID, entry.Action, entry.Details, entry.UserEmail, entry.CreatedAt,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("append %s log: %w", entry.Entity, err)
	}
	return nil
}
