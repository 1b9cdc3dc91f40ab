package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/rims-api/internal/models"
)

func TestBorrowingRepositoryBulkUpdateStatusApprove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBorrowingRepository(db)

	mock.ExpectBegin()
	pending := sqlmock.NewRows([]string{"id", "borrowers_id", "borrowed_item", "equipment_name"}).
		AddRow(int64(31), int64(3), int64(9), "Projector")
	mock.ExpectQuery("SELECT b.id, b.borrowers_id").
		WithArgs(sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(pending)
	mock.ExpectExec("UPDATE borrowings SET request_status").
		WithArgs(int64(31), models.StatusApproved, models.AvailabilityInUse, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(3), "Borrowing Request Approved", `Your request to borrow "Projector" has been approved.`, models.NotificationSuccess, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO equipment_logs").
		WithArgs(int64(9), "Approved", sqlmock.AnyArg(), "admin@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated, err := repo.BulkUpdateStatus(context.Background(), []int64{31}, models.StatusApproved, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{31}, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowingRepositoryBulkUpdateStatusIgnoresReviewedRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBorrowingRepository(db)

	// Nothing in the batch is still Pending: the review commits with no
	// transitions and no side effects.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT b.id, b.borrowers_id").
		WithArgs(sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "borrowers_id", "borrowed_item", "equipment_name"}))
	mock.ExpectCommit()

	updated, err := repo.BulkUpdateStatus(context.Background(), []int64{31, 32}, models.StatusApproved, "admin@example.com")
	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowingRepositoryBulkDeleteRemovesClaimsFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBorrowingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM return_notifications WHERE borrowing_id").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM borrowings WHERE id").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.BulkDelete(context.Background(), []int64{31, 32})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowingRepositoryConfirmReturnLeavesRequestStatusApproved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBorrowingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM return_notifications").
		WithArgs(int64(71)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.ClaimPendingConfirmation))
	mock.ExpectExec("UPDATE return_notifications SET status").
		WithArgs(int64(71), models.ClaimConfirmed).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT b.borrowers_id, b.borrowed_item").
		WithArgs(int64(31)).
		WillReturnRows(sqlmock.NewRows([]string{"borrowers_id", "borrowed_item", "equipment_name"}).
			AddRow(int64(3), int64(9), "Projector"))
	mock.ExpectExec("UPDATE borrowings SET return_status").
		WithArgs(int64(31), models.ReturnStatusReturned, models.AvailabilityAvailable, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(3), "Equipment Return Confirmed", `Your return of "Projector" has been confirmed.`, models.NotificationSuccess, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO equipment_logs").
		WithArgs(int64(9), "returned", sqlmock.AnyArg(), "admin@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ConfirmReturn(context.Background(), 71, 31, "admin@example.com")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBorrowingRepositoryActiveBorrowedEquipmentIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBorrowingRepository(db)

	mock.ExpectQuery("SELECT DISTINCT borrowed_item FROM borrowings").
		WithArgs(models.StatusApproved, models.ReturnStatusReturned).
		WillReturnRows(sqlmock.NewRows([]string{"borrowed_item"}).AddRow(int64(9)))

	ids, err := repo.ActiveBorrowedEquipmentIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
