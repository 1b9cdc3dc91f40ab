package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

func TestAcquiringRepositoryBulkUpdateStatusApproveDecrementsStock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcquiringRepository(db)

	mock.ExpectBegin()
	pending := sqlmock.NewRows([]string{"id", "acquirers_id", "supply_id", "quantity"}).
		AddRow(int64(21), int64(3), int64(5), 4)
	mock.ExpectQuery("SELECT id, acquirers_id, supply_id, quantity").
		WithArgs(sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(pending)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT supply_name, quantity FROM supplies WHERE supply_id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"supply_name", "quantity"}).AddRow("Bond Paper", 10))
	mock.ExpectExec("UPDATE supplies SET quantity = quantity -").
		WithArgs(int64(5), 4, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE acquirings SET status").
		WithArgs(int64(21), models.StatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(3), "Acquiring Request Approved", sqlmock.AnyArg(), models.NotificationSuccess, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO supply_logs").
		WithArgs(int64(5), "Approved", "Acquiring request #21 approved, stock reduced by 4", "admin@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated, err := repo.BulkUpdateStatus(context.Background(), []int64{21}, models.StatusApproved, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{21}, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquiringRepositoryBulkUpdateStatusInsufficientStockAbortsBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcquiringRepository(db)

	mock.ExpectBegin()
	pending := sqlmock.NewRows([]string{"id", "acquirers_id", "supply_id", "quantity"}).
		AddRow(int64(21), int64(3), int64(5), 12)
	mock.ExpectQuery("SELECT id, acquirers_id, supply_id, quantity").
		WithArgs(sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(pending)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT supply_name, quantity FROM supplies WHERE supply_id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"supply_name", "quantity"}).AddRow("Bond Paper", 10))
	mock.ExpectRollback()

	updated, err := repo.BulkUpdateStatus(context.Background(), []int64{21}, models.StatusApproved, "admin@example.com")
	require.Error(t, err)
	assert.Nil(t, updated)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInsufficientStock.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Bond Paper")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquiringRepositoryBulkUpdateStatusOnlyPendingRowsTransition(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcquiringRepository(db)

	// Requesting ids 21 and 22, but 22 was already reviewed: only 21 comes
	// back from the locked select, so only 21 transitions.
	mock.ExpectBegin()
	pending := sqlmock.NewRows([]string{"id", "acquirers_id", "supply_id", "quantity"}).
		AddRow(int64(21), int64(3), int64(5), 2)
	mock.ExpectQuery("SELECT id, acquirers_id, supply_id, quantity").
		WithArgs(sqlmock.AnyArg(), models.StatusPending).
		WillReturnRows(pending)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT supply_name, quantity FROM supplies WHERE supply_id = $1 FOR UPDATE")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"supply_name", "quantity"}).AddRow("Bond Paper", 10))
	mock.ExpectExec("UPDATE acquirings SET status").
		WithArgs(int64(21), models.StatusRejected, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(int64(3), "Acquiring Request Rejected", sqlmock.AnyArg(), models.NotificationWarning, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO supply_logs").
		WithArgs(int64(5), "Rejected", sqlmock.AnyArg(), "admin@example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	updated, err := repo.BulkUpdateStatus(context.Background(), []int64{21, 22}, models.StatusRejected, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, []int64{21}, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquiringRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcquiringRepository(db)

	mock.ExpectQuery("INSERT INTO acquirings").
		WithArgs(int64(3), int64(5), 4, nil, models.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(33)))

	acquiring := &models.Acquiring{AcquirersID: 3, SupplyID: 5, Quantity: 4}
	err := repo.Create(context.Background(), acquiring)
	require.NoError(t, err)
	assert.Equal(t, int64(33), acquiring.ID)
	assert.Equal(t, models.StatusPending, acquiring.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
