package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type bookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	ListByBooker(ctx context.Context, bookerID int64, page, pageSize int) ([]models.BookingDetail, int, error)
	ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BookingDetail, int, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Booking, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	CreateDoneClaims(ctx context.Context, claims []models.DoneNotification) error
	ListDoneClaims(ctx context.Context) ([]models.DoneNotificationDetail, error)
	ConfirmDone(ctx context.Context, notificationID, bookingID int64, actorEmail string) error
	DismissDone(ctx context.Context, notificationID int64) error
}

type facilityFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Facility, error)
}

// BookingService provides booking ledger use cases. Conflict detection runs
// twice: at creation against approved bookings, and again at approval under
// the facility lock.
type BookingService struct {
	repo         bookingStore
	facilities   facilityFinder
	availability *AvailabilityService
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBookingService constructs a BookingService instance.
func NewBookingService(repo bookingStore, facilities facilityFinder, availability *AvailabilityService, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BookingService{
		repo:         repo,
		facilities:   facilities,
		availability: availability,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// Create files a new pending booking. The window must be valid, the facility
// must exist and not be under maintenance, and no approved booking may
// overlap the requested dates.
func (s *BookingService) Create(ctx context.Context, req models.CreateBookingRequest, actor models.Identity) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	if req.BookersID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot file a request for another user")
	}
	if err := s.availability.ValidateWindow(req.StartDate, req.EndDate, req.ReturnDate); err != nil {
		return nil, err
	}

	facility, err := s.facilities.FindByID(ctx, req.FacilityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}
	if facility.Status != nil && strings.EqualFold(strings.TrimSpace(*facility.Status), models.FacilityUnderMaintenance) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "facility is under maintenance")
	}

	booking := &models.Booking{
		BookersID:  actor.UserID,
		FacilityID: req.FacilityID,
		Purpose:    req.Purpose,
		StartDate:  normalizeDate(req.StartDate),
		EndDate:    normalizeDate(req.EndDate),
	}
	if req.ReturnDate != "" {
		ret := normalizeDate(req.ReturnDate)
		booking.ReturnDate = &ret
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.FromError(err)
	}

	s.invalidateDashboard(ctx)
	s.logger.Info("booking request filed",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("user_id", actor.UserID),
		zap.Int64("facility_id", booking.FacilityID))
	return booking, nil
}

// MyRequests returns the caller's own booking history.
func (s *BookingService) MyRequests(ctx context.Context, actor models.Identity, page int) ([]models.BookingDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListByBooker(ctx, actor.UserID, page, myRequestsPageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	decorateBookings(rows)
	return rows, paginate(page, myRequestsPageSize, total), nil
}

// ListAll returns the full booking ledger for admins.
func (s *BookingService) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BookingDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListAll(ctx, status, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	decorateBookings(rows)
	return rows, paginate(page, pageSize, total), nil
}

// Review transitions a batch of pending bookings to Approved or Rejected.
// An overlap discovered at approval time aborts the whole batch.
func (s *BookingService) Review(ctx context.Context, req models.BulkStatusRequest, actor models.Identity) ([]int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be Approved or Rejected")
	}

	updated, err := s.repo.BulkUpdateStatus(ctx, req.IDs, req.Status, actor.Email)
	if err != nil {
		return nil, appErrors.FromError(err)
	}

	s.invalidateDashboard(ctx)
	s.logger.Info("bookings reviewed",
		zap.String("status", string(req.Status)),
		zap.Int("requested", len(req.IDs)),
		zap.Int("updated", len(updated)))
	return updated, nil
}

// BulkDelete removes a batch of bookings from the admin ledger.
func (s *BookingService) BulkDelete(ctx context.Context, req models.BulkDeleteRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bookings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// DeleteOwn removes the caller's own requests. Every id must exist, belong
// to the caller, and not be approved; one bad id fails the whole batch.
func (s *BookingService) DeleteOwn(ctx context.Context, req models.BulkDeleteRequest, actor models.Identity) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	rows, err := s.repo.FindByIDs(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	byID := make(map[int64]models.Booking, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range req.IDs {
		row, ok := byID[id]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("booking %d not found", id))
		}
		if row.BookersID != actor.UserID {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("booking %d does not belong to you", id))
		}
		if row.Status == models.StatusApproved {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("booking %d is approved and cannot be deleted", id))
		}
	}

	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete bookings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// MarkDone files a completion claim for the caller's approved bookings. The
// bookings stay untouched until an admin confirms.
func (s *BookingService) MarkDone(ctx context.Context, req models.MarkDoneRequest, actor models.Identity) ([]models.DoneNotification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}

	rows, err := s.repo.FindByIDs(ctx, req.BookingIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	byID := make(map[int64]models.Booking, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	claims := make([]models.DoneNotification, 0, len(req.BookingIDs))
	for _, id := range req.BookingIDs {
		row, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("booking %d not found", id))
		}
		if row.BookersID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("booking %d does not belong to you", id))
		}
		if row.Status != models.StatusApproved {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("booking %d is not approved", id))
		}
		claims = append(claims, models.DoneNotification{
			BookingID:       id,
			CompletionNotes: req.CompletionNotes,
			Message:         fmt.Sprintf("Booking #%d reported completed.", id),
		})
	}

	if err := s.repo.CreateDoneClaims(ctx, claims); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file completion claims")
	}
	return claims, nil
}

// ListDoneClaims returns unresolved completion claims for the admin queue.
func (s *BookingService) ListDoneClaims(ctx context.Context) ([]models.DoneNotificationDetail, error) {
	claims, err := s.repo.ListDoneClaims(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completion claims")
	}
	for i := range claims {
		claims[i].BookerName = joinName(claims[i].BookerFirstName, claims[i].BookerLastName)
	}
	return claims, nil
}

// ConfirmDone accepts a completion claim, completing the booking.
func (s *BookingService) ConfirmDone(ctx context.Context, req models.ConfirmDoneRequest, actor models.Identity) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}
	if err := s.repo.ConfirmDone(ctx, req.NotificationID, req.BookingID, actor.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "completion claim or booking not found")
		}
		return appErrors.FromError(err)
	}
	s.invalidateDashboard(ctx)
	return nil
}

// DismissDone dismisses a completion claim, leaving the booking active.
func (s *BookingService) DismissDone(ctx context.Context, req models.DismissDoneRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dismiss payload")
	}
	if err := s.repo.DismissDone(ctx, req.NotificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "completion claim not found")
		}
		return appErrors.FromError(err)
	}
	return nil
}

func (s *BookingService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func decorateBookings(rows []models.BookingDetail) {
	for i := range rows {
		rows[i].BookerName = joinName(rows[i].BookerFirstName, rows[i].BookerLastName)
	}
}
