package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/pkg/errors"
)

// BorrowingRepository provides database access for the borrowing ledger.
type BorrowingRepository struct {
	db *sqlx.DB
}

// NewBorrowingRepository creates a new instance of BorrowingRepository.
func NewBorrowingRepository(db *sqlx.DB) *BorrowingRepository {
	return &BorrowingRepository{db: db}
}

const borrowingDetailSelect = `SELECT b.id, b.borrowed_item, b.borrowers_id, b.purpose, b.start_date, b.end_date,
	b.return_date, b.request_status, b.availability, b.return_status, b.created_at, b.updated_at,
	e.name AS equipment_name, u.first_name AS borrower_first_name, u.last_name AS borrower_last_name
	FROM borrowings b
	JOIN equipments e ON e.id = b.borrowed_item
	JOIN users u ON u.id = b.borrowers_id`

// Create inserts a new pending borrowing request.
func (r *BorrowingRepository) Create(ctx context.Context, borrowing *models.Borrowing) error {
	now := time.Now().UTC()
	borrowing.CreatedAt = now
	borrowing.UpdatedAt = now
	borrowing.RequestStatus = models.StatusPending
	borrowing.Availability = models.AvailabilityAvailable

	const query = `INSERT INTO borrowings (borrowed_item, borrowers_id, purpose, start_date, end_date, return_date,
		request_status, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		borrowing.BorrowedItem, borrowing.BorrowersID, borrowing.Purpose,
		borrowing.StartDate, borrowing.EndDate, borrowing.ReturnDate,
		borrowing.RequestStatus, borrowing.Availability,
		borrowing.CreatedAt, borrowing.UpdatedAt,
	).Scan(&borrowing.ID); err != nil {
		return fmt.Errorf("insert borrowing: %w", err)
	}
	return nil
}

// ListByBorrower returns a borrower's own requests, newest first.
func (r *BorrowingRepository) ListByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) ([]models.BorrowingDetail, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM borrowings WHERE borrowers_id = $1`, borrowerID); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf("%s WHERE b.borrowers_id = $1 ORDER BY b.created_at DESC LIMIT %d OFFSET %d",
		borrowingDetailSelect, pageSize, (page-1)*pageSize)

	var rows []models.BorrowingDetail
	if err := r.db.SelectContext(ctx, &rows, query, borrowerID); err != nil {
		return nil, 0, fmt.Errorf("list borrowings by borrower: %w", err)
	}
	return rows, total, nil
}

// ListAll returns every borrowing with joined context for the admin ledger.
func (r *BorrowingRepository) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BorrowingDetail, int, error) {
	where := "1=1"
	var args []interface{}
	if status != "" {
		where = "b.request_status = $1"
		args = append(args, status)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM borrowings b WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count borrowings: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY b.created_at DESC", borrowingDetailSelect, where)
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var rows []models.BorrowingDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list borrowings: %w", err)
	}
	return rows, total, nil
}

// FindByIDs returns the borrowings matching the given ids.
func (r *BorrowingRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Borrowing, error) {
	const query = `SELECT id, borrowed_item, borrowers_id, purpose, start_date, end_date, return_date,
		request_status, availability, return_status, created_at, updated_at
		FROM borrowings WHERE id = ANY($1)`
	var rows []models.Borrowing
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find borrowings: %w", err)
	}
	return rows, nil
}

// BulkUpdateStatus reviews a batch of borrowings in one transaction. Only
// rows still Pending are transitioned; each transition produces a borrower
// notification and an equipment log entry. Returns the ids actually updated.
func (r *BorrowingRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin borrowing review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type pendingRow struct {
		ID            int64  `db:"id"`
		BorrowersID   int64  `db:"borrowers_id"`
		BorrowedItem  int64  `db:"borrowed_item"`
		EquipmentName string `db:"equipment_name"`
	}
	var rows []pendingRow
	const selectPending = `SELECT b.id, b.borrowers_id, b.borrowed_item, e.name AS equipment_name
		FROM borrowings b
		JOIN equipments e ON e.id = b.borrowed_item
		WHERE b.id = ANY($1) AND b.request_status = $2
		FOR UPDATE OF b`
	if err = tx.SelectContext(ctx, &rows, selectPending, pq.Array(ids), models.StatusPending); err != nil {
		return nil, fmt.Errorf("select pending borrowings: %w", err)
	}

	availability := models.AvailabilityAvailable
	if status == models.StatusApproved {
		availability = models.AvailabilityInUse
	}

	now := time.Now().UTC()
	updated := make([]int64, 0, len(rows))
	for _, row := range rows {
		const update = `UPDATE borrowings SET request_status = $2, availability = $3, updated_at = $4 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, update, row.ID, status, availability, now); err != nil {
			return nil, fmt.Errorf("update borrowing %d: %w", row.ID, err)
		}

		title := fmt.Sprintf("Borrowing Request %s", status)
		message := fmt.Sprintf("Your request to borrow %q has been %s.", row.EquipmentName, lowerStatus(status))
		if err = insertNotification(ctx, tx, row.BorrowersID, title, message, notificationType(status), now); err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Borrowing request #%d %s", row.ID, lowerStatus(status))
		if err = insertAuditLog(ctx, tx, models.AuditEquipment, row.BorrowedItem, string(status), details, actorEmail, now); err != nil {
			return nil, err
		}
		updated = append(updated, row.ID)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit borrowing review: %w", err)
	}
	return updated, nil
}

// BulkDelete removes a batch of borrowings and their return claims.
func (r *BorrowingRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete borrowings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM return_notifications WHERE borrowing_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("delete return claims: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM borrowings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete borrowings: %w", err)
	}
	n, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete borrowings: %w", err)
	}
	return n, nil
}

// CreateReturnClaims records one return claim per borrowing and drops a
// notification into every admin inbox, atomically.
func (r *BorrowingRepository) CreateReturnClaims(ctx context.Context, claims []models.ReturnNotification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin return claims: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var adminIDs []int64
	if err = tx.SelectContext(ctx, &adminIDs, `SELECT id FROM users WHERE role = $1 AND approved = TRUE`, models.RoleAdmin); err != nil {
		return fmt.Errorf("select admins: %w", err)
	}

	now := time.Now().UTC()
	for i := range claims {
		claim := &claims[i]
		claim.Status = models.ClaimPendingConfirmation
		claim.CreatedAt = now

		const insert = `INSERT INTO return_notifications (borrowing_id, receiver_name, status, message, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err = tx.QueryRowxContext(ctx, insert,
			claim.BorrowingID, claim.ReceiverName, claim.Status, claim.Message, claim.CreatedAt,
		).Scan(&claim.ID); err != nil {
			return fmt.Errorf("insert return claim: %w", err)
		}

		for _, adminID := range adminIDs {
			if err = insertNotification(ctx, tx, adminID, "Equipment Return Reported", claim.Message, models.NotificationInfo, now); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit return claims: %w", err)
	}
	return nil
}

// ListReturnClaims returns unresolved return claims with ledger context.
func (r *BorrowingRepository) ListReturnClaims(ctx context.Context) ([]models.ReturnNotificationDetail, error) {
	const query = `SELECT rn.id, rn.borrowing_id, rn.receiver_name, rn.status, rn.message, rn.created_at,
		e.name AS equipment_name, u.first_name AS borrower_first_name, u.last_name AS borrower_last_name
		FROM return_notifications rn
		JOIN borrowings b ON b.id = rn.borrowing_id
		JOIN equipments e ON e.id = b.borrowed_item
		JOIN users u ON u.id = b.borrowers_id
		WHERE rn.status = $1
		ORDER BY rn.created_at DESC`
	var claims []models.ReturnNotificationDetail
	if err := r.db.SelectContext(ctx, &claims, query, models.ClaimPendingConfirmation); err != nil {
		return nil, fmt.Errorf("list return claims: %w", err)
	}
	return claims, nil
}

// ConfirmReturn resolves a return claim: the claim is confirmed, the
// borrowing is marked returned, and the borrower is notified, all in one
// transaction.
func (r *BorrowingRepository) ConfirmReturn(ctx context.Context, notificationID, borrowingID int64, actorEmail string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm return: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = resolveClaim(ctx, tx, "return_notifications", notificationID, models.ClaimConfirmed); err != nil {
		return err
	}

	type borrowingRow struct {
		BorrowersID   int64  `db:"borrowers_id"`
		BorrowedItem  int64  `db:"borrowed_item"`
		EquipmentName string `db:"equipment_name"`
	}
	var row borrowingRow
	const selectBorrowing = `SELECT b.borrowers_id, b.borrowed_item, e.name AS equipment_name
		FROM borrowings b
		JOIN equipments e ON e.id = b.borrowed_item
		WHERE b.id = $1
		FOR UPDATE OF b`
	if err = tx.GetContext(ctx, &row, selectBorrowing, borrowingID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("select borrowing for return: %w", err)
	}

	// request_status stays Approved; a returned borrowing is recognized by
	// return_status alone.
	now := time.Now().UTC()
	const complete = `UPDATE borrowings SET return_status = $2, availability = $3, updated_at = $4 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, complete, borrowingID,
		models.ReturnStatusReturned, models.AvailabilityAvailable, now); err != nil {
		return fmt.Errorf("complete borrowing: %w", err)
	}

	message := fmt.Sprintf("Your return of %q has been confirmed.", row.EquipmentName)
	if err = insertNotification(ctx, tx, row.BorrowersID, "Equipment Return Confirmed", message, models.NotificationSuccess, now); err != nil {
		return err
	}

	details := fmt.Sprintf("Borrowing request #%d return confirmed, item back in stock", borrowingID)
	if err = insertAuditLog(ctx, tx, models.AuditEquipment, row.BorrowedItem, "returned", details, actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm return: %w", err)
	}
	return nil
}

// RejectReturn dismisses a return claim and notifies the borrower that the
// item is still out.
func (r *BorrowingRepository) RejectReturn(ctx context.Context, notificationID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reject return: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = resolveClaim(ctx, tx, "return_notifications", notificationID, models.ClaimRejected); err != nil {
		return err
	}

	type claimRow struct {
		BorrowersID   int64  `db:"borrowers_id"`
		EquipmentName string `db:"equipment_name"`
	}
	var row claimRow
	const selectClaim = `SELECT b.borrowers_id, e.name AS equipment_name
		FROM return_notifications rn
		JOIN borrowings b ON b.id = rn.borrowing_id
		JOIN equipments e ON e.id = b.borrowed_item
		WHERE rn.id = $1`
	if err = tx.GetContext(ctx, &row, selectClaim, notificationID); err != nil {
		return fmt.Errorf("select claim context: %w", err)
	}

	now := time.Now().UTC()
	message := fmt.Sprintf("Your return report for %q was not confirmed. The item is still recorded as borrowed.", row.EquipmentName)
	if err = insertNotification(ctx, tx, row.BorrowersID, "Equipment Return Rejected", message, models.NotificationWarning, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reject return: %w", err)
	}
	return nil
}

// ActiveBorrowedEquipmentIDs returns the ids of equipment tied up by an
// approved, unreturned borrowing.
func (r *BorrowingRepository) ActiveBorrowedEquipmentIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT DISTINCT borrowed_item FROM borrowings
		WHERE request_status = $1 AND (return_status IS NULL OR return_status <> $2)`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, models.StatusApproved, models.ReturnStatusReturned); err != nil {
		return nil, fmt.Errorf("list active borrowed equipment: %w", err)
	}
	return ids, nil
}

// resolveClaim flips a claim out of pending_confirmation. A missing row is
// sql.ErrNoRows; an already-resolved claim is a conflict.
func resolveClaim(ctx context.Context, tx *sqlx.Tx, table string, id int64, newStatus string) error {
	var current string
	query := fmt.Sprintf(`SELECT status FROM %s WHERE id = $1 FOR UPDATE`, table)
	if err := tx.GetContext(ctx, &current, query, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("select claim: %w", err)
	}
	if current != models.ClaimPendingConfirmation {
		return errors.Clone(errors.ErrConflict, "claim has already been resolved")
	}

	update := fmt.Sprintf(`UPDATE %s SET status = $2 WHERE id = $1`, table)
	if _, err := tx.ExecContext(ctx, update, id, newStatus); err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	return nil
}

func insertNotification(ctx context.Context, tx *sqlx.Tx, userID int64, title, message, notifType string, ts time.Time) error {
	const query = `INSERT INTO notifications (user_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5)`
	if _, err := tx.ExecContext(ctx, query, userID, title, message, notifType, ts); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func notificationType(status models.RequestStatus) string {
	if status == models.StatusApproved {
		return models.NotificationSuccess
	}
	return models.NotificationWarning
}

func lowerStatus(status models.RequestStatus) string {
	switch status {
	case models.StatusApproved:
		return "approved"
	case models.StatusRejected:
		return "rejected"
	case models.StatusCompleted:
		return "completed"
	default:
		return "pending"
	}
}
