package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeBookingStore struct {
	created    *models.Booking
	createErr  error
	rows       []models.Booking
	updated    []int64
	updateErr  error
	deleted    []int64
	claims     []models.DoneNotification
	confirmErr error
	dismissErr error
}

func (f *fakeBookingStore) Create(ctx context.Context, b *models.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = 41
	f.created = b
	return nil
}

func (f *fakeBookingStore) ListByBooker(ctx context.Context, bookerID int64, page, pageSize int) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBookingStore) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBookingStore) FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	return f.rows, nil
}

func (f *fakeBookingStore) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updated, nil
}

func (f *fakeBookingStore) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	f.deleted = ids
	return int64(len(ids)), nil
}

func (f *fakeBookingStore) CreateDoneClaims(ctx context.Context, claims []models.DoneNotification) error {
	f.claims = claims
	return nil
}

func (f *fakeBookingStore) ListDoneClaims(ctx context.Context) ([]models.DoneNotificationDetail, error) {
	return nil, nil
}

func (f *fakeBookingStore) ConfirmDone(ctx context.Context, notificationID, bookingID int64, actorEmail string) error {
	return f.confirmErr
}

func (f *fakeBookingStore) DismissDone(ctx context.Context, notificationID int64) error {
	return f.dismissErr
}

type fakeFacilityFinder struct {
	facility *models.Facility
	err      error
}

func (f *fakeFacilityFinder) FindByID(ctx context.Context, id int64) (*models.Facility, error) {
	return f.facility, f.err
}

func newBookingService(store *fakeBookingStore, finder *fakeFacilityFinder) *BookingService {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	availability := fixedAvailability(&fakeBorrowingIDs{}, &fakeOccupancy{}, now)
	return NewBookingService(store, finder, availability, nil, validator.New(), zap.NewNop())
}

func TestBookingServiceCreate(t *testing.T) {
	store := &fakeBookingStore{}
	svc := newBookingService(store, &fakeFacilityFinder{facility: &models.Facility{ID: 7}})

	created, err := svc.Create(context.Background(), models.CreateBookingRequest{
		BookersID:  3,
		FacilityID: 7,
		Purpose:    "Orientation",
		StartDate:  "2025-06-06",
		EndDate:    "2025-06-10",
	}, models.Identity{UserID: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(41), created.ID)
	assert.Nil(t, created.ReturnDate)
}

func TestBookingServiceCreateMaintenanceFacilityRejected(t *testing.T) {
	status := models.FacilityUnderMaintenance
	svc := newBookingService(&fakeBookingStore{}, &fakeFacilityFinder{facility: &models.Facility{ID: 7, Status: &status}})

	_, err := svc.Create(context.Background(), models.CreateBookingRequest{
		BookersID:  3,
		FacilityID: 7,
		Purpose:    "Orientation",
		StartDate:  "2025-06-06",
		EndDate:    "2025-06-10",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "maintenance")
}

func TestBookingServiceCreatePropagatesConflict(t *testing.T) {
	store := &fakeBookingStore{createErr: appErrors.ErrBookingConflict}
	svc := newBookingService(store, &fakeFacilityFinder{facility: &models.Facility{ID: 7}})

	_, err := svc.Create(context.Background(), models.CreateBookingRequest{
		BookersID:  3,
		FacilityID: 7,
		Purpose:    "Orientation",
		StartDate:  "2025-06-06",
		EndDate:    "2025-06-10",
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrBookingConflict.Code, appErr.Code)
	assert.Equal(t, appErrors.ErrBookingConflict.Status, appErr.Status)
}

func TestBookingServiceReviewPropagatesApprovalConflict(t *testing.T) {
	store := &fakeBookingStore{updateErr: appErrors.Clone(appErrors.ErrBookingConflict, "booking 11 overlaps an approved booking")}
	svc := newBookingService(store, &fakeFacilityFinder{})

	_, err := svc.Review(context.Background(), models.BulkStatusRequest{
		IDs:    []int64{11},
		Status: models.StatusApproved,
	}, models.Identity{UserID: 1, Email: "admin@example.com", Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBookingConflict.Code, appErrors.FromError(err).Code)
}

func TestBookingServiceMarkDone(t *testing.T) {
	store := &fakeBookingStore{
		rows: []models.Booking{{ID: 41, BookersID: 3, Status: models.StatusApproved}},
	}
	svc := newBookingService(store, &fakeFacilityFinder{})

	claims, err := svc.MarkDone(context.Background(), models.MarkDoneRequest{
		BookingIDs: []int64{41},
	}, models.Identity{UserID: 3})
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, int64(41), claims[0].BookingID)
}

func TestBookingServiceMarkDoneRequiresApproval(t *testing.T) {
	store := &fakeBookingStore{
		rows: []models.Booking{{ID: 41, BookersID: 3, Status: models.StatusPending}},
	}
	svc := newBookingService(store, &fakeFacilityFinder{})

	_, err := svc.MarkDone(context.Background(), models.MarkDoneRequest{
		BookingIDs: []int64{41},
	}, models.Identity{UserID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
