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

// BookingRepository provides database access for the booking ledger.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingDetailSelect = `SELECT bk.id, bk.bookers_id, bk.facility_id, bk.purpose, bk.start_date, bk.end_date,
	bk.return_date, bk.status, bk.created_at, bk.updated_at,
	f.facility_name, u.first_name AS booker_first_name, u.last_name AS booker_last_name
	FROM bookings bk
	JOIN facilities f ON f.facility_id = bk.facility_id
	JOIN users u ON u.id = bk.bookers_id`

// Two approved date ranges collide when either endpoint of one falls inside
// the other, or one contains the other. Endpoints are inclusive; dates are
// ISO strings so lexical comparison orders them.
const overlapPredicate = `status = 'Approved'
	AND ((start_date <= $2 AND end_date >= $2)
	  OR (start_date <= $3 AND end_date >= $3)
	  OR (start_date >= $2 AND end_date <= $3))`

// Create inserts a pending booking after checking the requested window
// against approved bookings, holding the facility row so two concurrent
// requests for the same dates cannot both pass the check.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var facilityID int64
	if err = tx.GetContext(ctx, &facilityID, `SELECT facility_id FROM facilities WHERE facility_id = $1 FOR UPDATE`, booking.FacilityID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock facility: %w", err)
	}

	var conflicts bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM bookings WHERE facility_id = $1 AND %s)`, overlapPredicate)
	if err = tx.GetContext(ctx, &conflicts, query, booking.FacilityID, booking.StartDate, booking.EndDate); err != nil {
		return fmt.Errorf("check booking overlap: %w", err)
	}
	if conflicts {
		err = errors.ErrBookingConflict
		return err
	}

	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Status = models.StatusPending

	const insert = `INSERT INTO bookings (bookers_id, facility_id, purpose, start_date, end_date, return_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err = tx.QueryRowxContext(ctx, insert,
		booking.BookersID, booking.FacilityID, booking.Purpose,
		booking.StartDate, booking.EndDate, booking.ReturnDate,
		booking.Status, booking.CreatedAt, booking.UpdatedAt,
	).Scan(&booking.ID); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// ListByBooker returns a booker's own requests, newest first.
func (r *BookingRepository) ListByBooker(ctx context.Context, bookerID int64, page, pageSize int) ([]models.BookingDetail, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM bookings WHERE bookers_id = $1`, bookerID); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := fmt.Sprintf("%s WHERE bk.bookers_id = $1 ORDER BY bk.created_at DESC LIMIT %d OFFSET %d",
		bookingDetailSelect, pageSize, (page-1)*pageSize)

	var rows []models.BookingDetail
	if err := r.db.SelectContext(ctx, &rows, query, bookerID); err != nil {
		return nil, 0, fmt.Errorf("list bookings by booker: %w", err)
	}
	return rows, total, nil
}

// ListAll returns every booking with joined context for the admin ledger.
func (r *BookingRepository) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BookingDetail, int, error) {
	where := "1=1"
	var args []interface{}
	if status != "" {
		where = "bk.status = $1"
		args = append(args, status)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM bookings bk WHERE %s`, where)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY bk.created_at DESC", bookingDetailSelect, where)
	if pageSize > 0 {
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)
	}

	var rows []models.BookingDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	return rows, total, nil
}

// FindByIDs returns the bookings matching the given ids.
func (r *BookingRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	const query = `SELECT id, bookers_id, facility_id, purpose, start_date, end_date, return_date, status, created_at, updated_at
		FROM bookings WHERE id = ANY($1)`
	var rows []models.Booking
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	return rows, nil
}

// BulkUpdateStatus reviews a batch of bookings in one transaction. Only rows
// still Pending are transitioned. Approval re-checks the window against
// approved bookings under the facility lock; a collision aborts the whole
// batch. Returns the ids actually updated.
func (r *BookingRepository) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin booking review: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type pendingRow struct {
		ID           int64  `db:"id"`
		BookersID    int64  `db:"bookers_id"`
		FacilityID   int64  `db:"facility_id"`
		StartDate    string `db:"start_date"`
		EndDate      string `db:"end_date"`
		FacilityName string `db:"facility_name"`
	}
	var rows []pendingRow
	const selectPending = `SELECT bk.id, bk.bookers_id, bk.facility_id, bk.start_date, bk.end_date,
		f.facility_name
		FROM bookings bk
		JOIN facilities f ON f.facility_id = bk.facility_id
		WHERE bk.id = ANY($1) AND bk.status = $2
		FOR UPDATE OF bk`
	if err = tx.SelectContext(ctx, &rows, selectPending, pq.Array(ids), models.StatusPending); err != nil {
		return nil, fmt.Errorf("select pending bookings: %w", err)
	}

	now := time.Now().UTC()
	updated := make([]int64, 0, len(rows))
	for _, row := range rows {
		if status == models.StatusApproved {
			if _, err = tx.ExecContext(ctx, `SELECT facility_id FROM facilities WHERE facility_id = $1 FOR UPDATE`, row.FacilityID); err != nil {
				return nil, fmt.Errorf("lock facility: %w", err)
			}

			var conflicts bool
			query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM bookings WHERE facility_id = $1 AND id <> $4 AND %s)`, overlapPredicate)
			if err = tx.GetContext(ctx, &conflicts, query, row.FacilityID, row.StartDate, row.EndDate, row.ID); err != nil {
				return nil, fmt.Errorf("check booking overlap: %w", err)
			}
			if conflicts {
				err = errors.Clone(errors.ErrBookingConflict,
					fmt.Sprintf("booking %d overlaps an approved booking for %q", row.ID, row.FacilityName))
				return nil, err
			}
		}

		const update = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, update, row.ID, status, now); err != nil {
			return nil, fmt.Errorf("update booking %d: %w", row.ID, err)
		}

		title := fmt.Sprintf("Booking Request %s", status)
		message := fmt.Sprintf("Your booking of %q from %s to %s has been %s.",
			row.FacilityName, row.StartDate, row.EndDate, lowerStatus(status))
		if err = insertNotification(ctx, tx, row.BookersID, title, message, notificationType(status), now); err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Booking request #%d %s", row.ID, lowerStatus(status))
		if err = insertAuditLog(ctx, tx, models.AuditFacility, row.FacilityID, string(status), details, actorEmail, now); err != nil {
			return nil, err
		}
		updated = append(updated, row.ID)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit booking review: %w", err)
	}
	return updated, nil
}

// BulkDelete removes a batch of bookings and their completion claims.
func (r *BookingRepository) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete bookings: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM done_notifications WHERE booking_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("delete completion claims: %w", err)
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete bookings: %w", err)
	}
	n, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete bookings: %w", err)
	}
	return n, nil
}

// CreateDoneClaims records one completion claim per booking and drops a
// notification into every admin inbox, atomically.
func (r *BookingRepository) CreateDoneClaims(ctx context.Context, claims []models.DoneNotification) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin completion claims: %w", err)
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

		const insert = `INSERT INTO done_notifications (booking_id, completion_notes, status, message, created_at)
			VALUES ($1, $2, $3, $4, $5) RETURNING id`
		if err = tx.QueryRowxContext(ctx, insert,
			claim.BookingID, claim.CompletionNotes, claim.Status, claim.Message, claim.CreatedAt,
		).Scan(&claim.ID); err != nil {
			return fmt.Errorf("insert completion claim: %w", err)
		}

		for _, adminID := range adminIDs {
			if err = insertNotification(ctx, tx, adminID, "Booking Completion Reported", claim.Message, models.NotificationInfo, now); err != nil {
				return err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit completion claims: %w", err)
	}
	return nil
}

// ListDoneClaims returns unresolved completion claims with ledger context.
func (r *BookingRepository) ListDoneClaims(ctx context.Context) ([]models.DoneNotificationDetail, error) {
	const query = `SELECT dn.id, dn.booking_id, dn.completion_notes, dn.status, dn.message, dn.created_at,
		f.facility_name, u.first_name AS booker_first_name, u.last_name AS booker_last_name
		FROM done_notifications dn
		JOIN bookings bk ON bk.id = dn.booking_id
		JOIN facilities f ON f.facility_id = bk.facility_id
		JOIN users u ON u.id = bk.bookers_id
		WHERE dn.status = $1
		ORDER BY dn.created_at DESC`
	var claims []models.DoneNotificationDetail
	if err := r.db.SelectContext(ctx, &claims, query, models.ClaimPendingConfirmation); err != nil {
		return nil, fmt.Errorf("list completion claims: %w", err)
	}
	return claims, nil
}

// ConfirmDone resolves a completion claim: the claim is confirmed, the
// booking completes, and the booker is notified, all in one transaction.
func (r *BookingRepository) ConfirmDone(ctx context.Context, notificationID, bookingID int64, actorEmail string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = resolveClaim(ctx, tx, "done_notifications", notificationID, models.ClaimConfirmed); err != nil {
		return err
	}

	type bookingRow struct {
		BookersID    int64  `db:"bookers_id"`
		FacilityID   int64  `db:"facility_id"`
		FacilityName string `db:"facility_name"`
	}
	var row bookingRow
	const selectBooking = `SELECT bk.bookers_id, bk.facility_id, f.facility_name
		FROM bookings bk
		JOIN facilities f ON f.facility_id = bk.facility_id
		WHERE bk.id = $1
		FOR UPDATE OF bk`
	if err = tx.GetContext(ctx, &row, selectBooking, bookingID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("select booking for completion: %w", err)
	}

	now := time.Now().UTC()
	const complete = `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, complete, bookingID, models.StatusCompleted, now); err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}

	message := fmt.Sprintf("Your booking of %q has been marked completed.", row.FacilityName)
	if err = insertNotification(ctx, tx, row.BookersID, "Booking Completion Confirmed", message, models.NotificationSuccess, now); err != nil {
		return err
	}

	details := fmt.Sprintf("Booking request #%d completed", bookingID)
	if err = insertAuditLog(ctx, tx, models.AuditFacility, row.FacilityID, "completed", details, actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm completion: %w", err)
	}
	return nil
}

// DismissDone dismisses a completion claim without touching the booking.
func (r *BookingRepository) DismissDone(ctx context.Context, notificationID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dismiss completion: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = resolveClaim(ctx, tx, "done_notifications", notificationID, models.ClaimDismissed); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit dismiss completion: %w", err)
	}
	return nil
}

// OccupiedFacilityIDs returns the ids of facilities with an approved booking
// whose window covers the given date.
func (r *BookingRepository) OccupiedFacilityIDs(ctx context.Context, date string) ([]int64, error) {
	const query = `SELECT DISTINCT facility_id FROM bookings
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query, models.StatusApproved, date); err != nil {
		return nil, fmt.Errorf("list occupied facilities: %w", err)
	}
	return ids, nil
}
