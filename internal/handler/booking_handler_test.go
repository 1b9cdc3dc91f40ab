package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/middleware"
	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/service"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeBookingRepo struct {
	created   *models.Booking
	createErr error
	updated   []int64
	updateErr error
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	booking.ID = 41
	booking.Status = models.StatusPending
	f.created = booking
	return nil
}

func (f *fakeBookingRepo) ListByBooker(ctx context.Context, bookerID int64, page, pageSize int) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BookingDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeBookingRepo) FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error) {
	return nil, nil
}

func (f *fakeBookingRepo) BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = ids
	return ids, nil
}

func (f *fakeBookingRepo) BulkDelete(ctx context.Context, ids []int64) (int64, error) {
	return int64(len(ids)), nil
}

func (f *fakeBookingRepo) CreateDoneClaims(ctx context.Context, claims []models.DoneNotification) error {
	return nil
}

func (f *fakeBookingRepo) ListDoneClaims(ctx context.Context) ([]models.DoneNotificationDetail, error) {
	return nil, nil
}

func (f *fakeBookingRepo) ConfirmDone(ctx context.Context, notificationID, bookingID int64, actorEmail string) error {
	return nil
}

func (f *fakeBookingRepo) DismissDone(ctx context.Context, notificationID int64) error {
	return nil
}

type fakeFacilityRepo struct {
	facility *models.Facility
	err      error
}

func (f *fakeFacilityRepo) FindByID(ctx context.Context, id int64) (*models.Facility, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.facility, nil
}

func bookingTestRouter(repo *fakeBookingRepo, facilities *fakeFacilityRepo, identity models.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	availability := service.NewAvailabilityService(nil, nil, zap.NewNop())
	svc := service.NewBookingService(repo, facilities, availability, nil, nil, zap.NewNop())
	h := NewBookingHandler(svc)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ContextIdentityKey, identity)
	})
	router.POST("/bookings", h.Create)
	router.PATCH("/bookings/review", h.Review)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestBookingHandlerCreate(t *testing.T) {
	repo := &fakeBookingRepo{}
	router := bookingTestRouter(repo, &fakeFacilityRepo{facility: &models.Facility{ID: 7, Name: "AV Hall"}}, models.Identity{UserID: 5, Role: models.RoleEmployee})

	recorder := postJSON(t, router, http.MethodPost, "/bookings", models.CreateBookingRequest{
		BookersID:  5,
		FacilityID: 7,
		Purpose:    "Orientation",
		StartDate:  "2099-06-02",
		EndDate:    "2099-06-04",
	})

	assert.Equal(t, http.StatusCreated, recorder.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "2099-06-02", repo.created.StartDate)

	var envelope struct {
		Data models.Booking `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	assert.Equal(t, int64(41), envelope.Data.ID)
	assert.Equal(t, models.StatusPending, envelope.Data.Status)
}

func TestBookingHandlerCreateInvalidBody(t *testing.T) {
	router := bookingTestRouter(&fakeBookingRepo{}, &fakeFacilityRepo{}, models.Identity{UserID: 5})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBookingHandlerCreateConflict(t *testing.T) {
	repo := &fakeBookingRepo{createErr: appErrors.Clone(appErrors.ErrBookingConflict, "facility is already booked for the requested dates")}
	router := bookingTestRouter(repo, &fakeFacilityRepo{facility: &models.Facility{ID: 7, Name: "AV Hall"}}, models.Identity{UserID: 5})

	recorder := postJSON(t, router, http.MethodPost, "/bookings", models.CreateBookingRequest{
		BookersID:  5,
		FacilityID: 7,
		Purpose:    "Orientation",
		StartDate:  "2099-06-02",
		EndDate:    "2099-06-04",
	})

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "BOOKING_CONFLICT")
}

func TestBookingHandlerReviewApprovalConflict(t *testing.T) {
	repo := &fakeBookingRepo{updateErr: appErrors.Clone(appErrors.ErrBookingConflict, `facility "AV Hall" is already booked in that window`)}
	router := bookingTestRouter(repo, &fakeFacilityRepo{}, models.Identity{UserID: 1, Role: models.RoleAdmin})

	recorder := postJSON(t, router, http.MethodPatch, "/bookings/review", models.BulkStatusRequest{
		IDs:    []int64{11},
		Status: models.StatusApproved,
	})

	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "AV Hall")
}

func TestBookingHandlerReviewRejectsOtherStatuses(t *testing.T) {
	router := bookingTestRouter(&fakeBookingRepo{}, &fakeFacilityRepo{}, models.Identity{UserID: 1, Role: models.RoleAdmin})

	recorder := postJSON(t, router, http.MethodPatch, "/bookings/review", models.BulkStatusRequest{
		IDs:    []int64{11},
		Status: models.StatusCompleted,
	})

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
