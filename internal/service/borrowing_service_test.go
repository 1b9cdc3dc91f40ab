package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeBorrowingStore struct {
	created      *models.Borrowing
	createErr    error
	rows         []models.Borrowing
	findErr      error
	updated      []int64
	updateErr    error
	deleted      []int64
	deleteCount  int64
	claims       []models.ReturnNotification
	claimsErr    error
	confirmErr   error
	rejectErr    error
	reviewStatus models.RequestStatus
}

func (f *fakeBorrowingStore) Create(ctx context.Context, b *models.Borrowing) error {
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = 31
	f.created = b
	return nil
}

func (f *fakeBorrowingStore) ListByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) ([]models.BorrowingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBorrowingStore) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BorrowingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBorrowingStore) FindByIDs(ctx context.Context, ids []int64) ([]models.Borrowing, error) {
	return f.rows, f.findErr
}

func (f *fakeBorrowingStore) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.reviewStatus = status
	return f.updated, nil
}

func (f *fakeBorrowingStore) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	f.deleted = ids
	return f.deleteCount, nil
}

func (f *fakeBorrowingStore) CreateReturnClaims(ctx context.Context, claims []models.ReturnNotification) error {
	if f.claimsErr != nil {
		return f.claimsErr
	}
	f.claims = claims
	return nil
}

func (f *fakeBorrowingStore) ListReturnClaims(ctx context.Context) ([]models.ReturnNotificationDetail, error) {
	return nil, nil
}

func (f *fakeBorrowingStore) ConfirmReturn(ctx context.Context, notificationID, borrowingID int64, actorEmail string) error {
	return f.confirmErr
}

func (f *fakeBorrowingStore) RejectReturn(ctx context.Context, notificationID int64) error {
	return f.rejectErr
}

type fakeEquipmentFinder struct {
	item *models.EquipmentView
	err  error
}

func (f *fakeEquipmentFinder) FindByID(ctx context.Context, id int64) (*models.EquipmentView, error) {
	return f.item, f.err
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateDashboard(ctx context.Context) error {
	f.calls++
	return nil
}

func newBorrowingService(store *fakeBorrowingStore, finder *fakeEquipmentFinder, inv *fakeInvalidator) *BorrowingService {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	availability := fixedAvailability(&fakeBorrowingIDs{}, &fakeOccupancy{}, now)
	return NewBorrowingService(store, finder, availability, inv, validator.New(), zap.NewNop())
}

func TestBorrowingServiceCreate(t *testing.T) {
	store := &fakeBorrowingStore{}
	inv := &fakeInvalidator{}
	svc := newBorrowingService(store, &fakeEquipmentFinder{item: &models.EquipmentView{}}, inv)

	actor := models.Identity{UserID: 3, Email: "user@example.com", Role: models.RoleEmployee}
	created, err := svc.Create(context.Background(), models.CreateBorrowingRequest{
		BorrowedItem: 9,
		BorrowersID:  3,
		Purpose:      "Seminar setup",
		StartDate:    "2025-06-02T00:00:00Z",
		EndDate:      "2025-06-05",
		ReturnDate:   "2025-06-06",
	}, actor)
	require.NoError(t, err)
	assert.Equal(t, int64(31), created.ID)
	assert.Equal(t, "2025-06-02", created.StartDate)
	assert.Equal(t, int64(3), created.BorrowersID)
	assert.Equal(t, 1, inv.calls)
}

func TestBorrowingServiceCreateForAnotherUserForbidden(t *testing.T) {
	svc := newBorrowingService(&fakeBorrowingStore{}, &fakeEquipmentFinder{item: &models.EquipmentView{}}, nil)

	_, err := svc.Create(context.Background(), models.CreateBorrowingRequest{
		BorrowedItem: 9,
		BorrowersID:  99,
		Purpose:      "Seminar setup",
		StartDate:    "2025-06-02",
		EndDate:      "2025-06-05",
		ReturnDate:   "2025-06-06",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBorrowingServiceCreatePastStartRejected(t *testing.T) {
	svc := newBorrowingService(&fakeBorrowingStore{}, &fakeEquipmentFinder{item: &models.EquipmentView{}}, nil)

	_, err := svc.Create(context.Background(), models.CreateBorrowingRequest{
		BorrowedItem: 9,
		BorrowersID:  3,
		Purpose:      "Seminar setup",
		StartDate:    "2025-05-20",
		EndDate:      "2025-06-05",
		ReturnDate:   "2025-06-06",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBorrowingServiceCreateMissingEquipmentRowNotFound(t *testing.T) {
	store := &fakeBorrowingStore{createErr: sql.ErrNoRows}
	svc := newBorrowingService(store, &fakeEquipmentFinder{item: &models.EquipmentView{}}, nil)

	_, err := svc.Create(context.Background(), models.CreateBorrowingRequest{
		BorrowedItem: 9,
		BorrowersID:  3,
		Purpose:      "Seminar setup",
		StartDate:    "2025-06-02",
		EndDate:      "2025-06-05",
		ReturnDate:   "2025-06-06",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBorrowingServiceReviewRejectsOtherStatuses(t *testing.T) {
	svc := newBorrowingService(&fakeBorrowingStore{}, &fakeEquipmentFinder{}, nil)

	_, err := svc.Review(context.Background(), models.BulkStatusRequest{
		IDs:    []int64{31},
		Status: models.StatusCompleted,
	}, models.Identity{UserID: 1, Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestBorrowingServiceDeleteOwn(t *testing.T) {
	store := &fakeBorrowingStore{
		rows: []models.Borrowing{
			{ID: 31, BorrowersID: 3, RequestStatus: models.StatusPending},
			{ID: 32, BorrowersID: 3, RequestStatus: models.StatusRejected},
		},
		deleteCount: 2,
	}
	svc := newBorrowingService(store, &fakeEquipmentFinder{}, &fakeInvalidator{})

	n, err := svc.DeleteOwn(context.Background(), models.BulkDeleteRequest{IDs: []int64{31, 32}}, models.Identity{UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []int64{31, 32}, store.deleted)
}

func TestBorrowingServiceDeleteOwnGuards(t *testing.T) {
	actor := models.Identity{UserID: 3}

	t.Run("missing id", func(t *testing.T) {
		svc := newBorrowingService(&fakeBorrowingStore{}, &fakeEquipmentFinder{}, nil)
		_, err := svc.DeleteOwn(context.Background(), models.BulkDeleteRequest{IDs: []int64{31}}, actor)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})

	t.Run("someone else's request", func(t *testing.T) {
		store := &fakeBorrowingStore{rows: []models.Borrowing{{ID: 31, BorrowersID: 99, RequestStatus: models.StatusPending}}}
		svc := newBorrowingService(store, &fakeEquipmentFinder{}, nil)
		_, err := svc.DeleteOwn(context.Background(), models.BulkDeleteRequest{IDs: []int64{31}}, actor)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("approved request", func(t *testing.T) {
		store := &fakeBorrowingStore{rows: []models.Borrowing{{ID: 31, BorrowersID: 3, RequestStatus: models.StatusApproved}}}
		svc := newBorrowingService(store, &fakeEquipmentFinder{}, nil)
		_, err := svc.DeleteOwn(context.Background(), models.BulkDeleteRequest{IDs: []int64{31}}, actor)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})
}

func TestBorrowingServiceMarkReturned(t *testing.T) {
	store := &fakeBorrowingStore{
		rows: []models.Borrowing{{ID: 31, BorrowersID: 3, RequestStatus: models.StatusApproved}},
	}
	svc := newBorrowingService(store, &fakeEquipmentFinder{}, nil)

	claims, err := svc.MarkReturned(context.Background(), models.MarkReturnedRequest{
		BorrowingIDs: []int64{31},
		ReceiverName: "Front Desk",
	}, models.Identity{UserID: 3})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, int64(31), claims[0].BorrowingID)
	assert.Contains(t, claims[0].Message, "Front Desk")
}

func TestBorrowingServiceMarkReturnedAlreadyReturned(t *testing.T) {
	returned := models.ReturnStatusReturned
	store := &fakeBorrowingStore{
		rows: []models.Borrowing{{ID: 31, BorrowersID: 3, RequestStatus: models.StatusApproved, ReturnStatus: &returned}},
	}
	svc := newBorrowingService(store, &fakeEquipmentFinder{}, nil)

	_, err := svc.MarkReturned(context.Background(), models.MarkReturnedRequest{
		BorrowingIDs: []int64{31},
		ReceiverName: "Front Desk",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
