package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/pkg/errors"
)

// AcquiringRepository provides database access for the acquiring ledger.
type AcquiringRepository struct {
	db *sqlx.DB
}

// NewAcquiringRepository creates a new instance of AcquiringRepository.
func NewAcquiringRepository(db *sqlx.DB) *AcquiringRepository {
	return &AcquiringRepository{db: db}
}

const acquiringDetailSelect = `SELECT a.id, a.acquirers_id, a.supply_id, a.quantity, a.purpose, a.status,
	a.created_at, a.updated_at,
	s.supply_name, f.facility_name, u.first_name AS acquirer_first_name, u.last_name AS acquirer_last_name
	FROM acquirings a
	JOIN supplies s ON s.supply_id = a.supply_id
	LEFT JOIN facilities f ON f.facility_id = s.facility_id
	JOIN users u ON u.id = a.acquirers_id`

// Create inserts a new pending acquiring request. Stock is untouched until
// an admin approves.
func (r *AcquiringRepository) Create(ctx context.Context, acquiring *models.Acquiring) error {
	now := time.Now().UTC()
	acquiring.CreatedAt = now
	acquiring.UpdatedAt = now
	acquiring.Status = models.StatusPending

	const query = `INSERT INTO acquirings (acquirers_id, supply_id, quantity, purpose, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		acquiring.AcquirersID, acquiring.SupplyID, acquiring.Quantity, acquiring.Purpose,
		acquiring.Status, acquiring.CreatedAt, acquiring.UpdatedAt,
	).Scan(&acquiring.ID); err != nil {
		return fmt.Errorf("insert acquiring: %w", err)
	}
	return nil
}

// ListByAcquirer returns an acquirer's own requests, newest first.
func (r *AcquiringRepository) ListByAcquirer(ctx context.Context, acquirerID int64, page, pageSize int) ([]models.AcquiringDetail, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM acquirings WHERE acquirers_id = $1`, acquirerID); err != nil {
		return nil, 0, fmt.Errorf("count acquirings: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf("%s WHERE a.acquirers_id = $1 ORDER BY a.created_at DESC LIMIT %d OFFSET %d",
		acquiringDetailSelect, pageSize, (page-1)*pageSize)

	var rows []models.AcquiringDetail
	if err := r.db.SelectContext(ctx, &rows, query, acquirerID); err != nil {
		return nil, 0, fmt.Errorf("list acquirings by acquirer: %w", err)
	}
	return rows, total, nil
}

// ListAll returns every acquiring request with joined context for the admin ledger.
func (r *AcquiringRepository) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.AcquiringDetail, int, error) {
	where := "1=1"
	var args []interface{}
	if status != "" {
		where = "a.status = $1"
		args = append(args, status)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM acquirings a WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count acquirings: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY a.created_at DESC", acquiringDetailSelect, where)
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var rows []models.AcquiringDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list acquirings: %w", err)
	}
	return rows, total, nil
}

// FindByIDs returns the acquirings matching the given ids.
func (r *AcquiringRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Acquiring, error) {
	const query = `SELECT id, acquirers_id, supply_id, quantity, purpose, status, created_at, updated_at
		FROM acquirings WHERE id = ANY($1)`
	var rows []models.Acquiring
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find acquirings: %w", err)
	}
	return rows, nil
}

// BulkUpdateStatus reviews a batch of acquirings in one transaction. Only
// rows still Pending are transitioned. Approval decrements supply stock
// under a row lock; a supply without enough stock aborts the whole batch.
// Returns the ids actually updated.
func (r *AcquiringRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin acquiring review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type pendingRow struct {
		ID          int64 `db:"id"`
		AcquirersID int64 `db:"acquirers_id"`
		SupplyID    int64 `db:"supply_id"`
		Quantity    int   `db:"quantity"`
	}
	var rows []pendingRow
	const selectPending = `SELECT id, acquirers_id, supply_id, quantity
		FROM acquirings
		WHERE id = ANY($1) AND status = $2
		FOR UPDATE`
	if err = tx.SelectContext(ctx, &rows, selectPending, pq.Array(ids), models.StatusPending); err != nil {
		return nil, fmt.Errorf("select pending acquirings: %w", err)
	}

	now := time.Now().UTC()
	updated := make([]int64, 0, len(rows))
	for _, row := range rows {
		type supplyRow struct {
			Name     string `db:"supply_name"`
			Quantity int    `db:"quantity"`
		}
		var supply supplyRow
		if err = tx.GetContext(ctx, &supply, `SELECT supply_name, quantity FROM supplies WHERE supply_id = $1 FOR UPDATE`, row.SupplyID); err != nil {
			return nil, fmt.Errorf("lock supply %d: %w", row.SupplyID, err)
		}

		if status == models.StatusApproved {
			if supply.Quantity < row.Quantity {
				err = errors.Clone(errors.ErrInsufficientStock,
					fmt.Sprintf("supply %q has %d in stock, request %d needs %d", supply.Name, supply.Quantity, row.ID, row.Quantity))
				return nil, err
			}
			const decrement = `UPDATE supplies SET quantity = quantity - $2, updated_at = $3 WHERE supply_id = $1`
			if _, err = tx.ExecContext(ctx, decrement, row.SupplyID, row.Quantity, now); err != nil {
				return nil, fmt.Errorf("decrement supply %d: %w", row.SupplyID, err)
			}
		}

		const update = `UPDATE acquirings SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, update, row.ID, status, now); err != nil {
			return nil, fmt.Errorf("update acquiring %d: %w", row.ID, err)
		}

		title := fmt.Sprintf("Acquiring Request %s", status)
		message := fmt.Sprintf("Your request for %d x %q has been %s.", row.Quantity, supply.Name, lowerStatus(status))
		if err = insertNotification(ctx, tx, row.AcquirersID, title, message, notificationType(status), now); err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Acquiring request #%d %s", row.ID, lowerStatus(status))
		if status == models.StatusApproved {
			details = fmt.Sprintf("Acquiring request #%d approved, stock reduced by %d", row.ID, row.Quantity)
		}
		if err = insertAuditLog(ctx, tx, models.AuditSupply, row.SupplyID, string(status), details, actorEmail, now); err != nil {
			return nil, err
		}
		updated = append(updated, row.ID)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit acquiring review: %w", err)
	}
	return updated, nil
}

// BulkDelete removes a batch of acquiring requests.
func (r *AcquiringRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM acquirings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete acquirings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete acquirings rows affected: %w", err)
	}
	return n, nil
}
