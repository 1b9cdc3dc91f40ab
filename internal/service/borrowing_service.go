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

// myRequestsPageSize bounds the requester-facing history listing.
const myRequestsPageSize = 10

type borrowingStore interface {
	Create(ctx context.Context, borrowing *models.Borrowing) error
	ListByBorrower(ctx context.Context, borrowerID int64, page, pageSize int) ([]models.BorrowingDetail, int, error)
	ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BorrowingDetail, int, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Borrowing, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
	CreateReturnClaims(ctx context.Context, claims []models.ReturnNotification) error
	ListReturnClaims(ctx context.Context) ([]models.ReturnNotificationDetail, error)
	ConfirmReturn(ctx context.Context, notificationID, borrowingID int64, actorEmail string) error
	RejectReturn(ctx context.Context, notificationID int64) error
}

type equipmentFinder interface {
	FindByID(ctx context.Context, id int64) (*models.EquipmentView, error)
}

// BorrowingService provides borrowing ledger use cases.
type BorrowingService struct {
	repo         borrowingStore
	equipment    equipmentFinder
	availability *AvailabilityService
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewBorrowingService constructs a BorrowingService instance.
func NewBorrowingService(repo borrowingStore, equipment equipmentFinder, availability *AvailabilityService, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *BorrowingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BorrowingService{
		repo:         repo,
		equipment:    equipment,
		availability: availability,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// Create files a new pending borrowing request. The requested window must be
// valid and the equipment must exist; the caller always borrows as
// themselves.
func (s *BorrowingService) Create(ctx context.Context, req models.CreateBorrowingRequest, actor models.Identity) (*models.Borrowing, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid borrowing payload")
	}
	if req.BorrowersID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot file a request for another user")
	}
	if err := s.availability.ValidateWindow(req.StartDate, req.EndDate, req.ReturnDate); err != nil {
		return nil, err
	}

	if _, err := s.equipment.FindByID(ctx, req.BorrowedItem); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}

	borrowing := &models.Borrowing{
		BorrowedItem: req.BorrowedItem,
		BorrowersID:  actor.UserID,
		Purpose:      req.Purpose,
		StartDate:    normalizeDate(req.StartDate),
		EndDate:      normalizeDate(req.EndDate),
		ReturnDate:   normalizeDate(req.ReturnDate),
	}
	if err := s.repo.Create(ctx, borrowing); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.FromError(err)
	}

	s.invalidateDashboard(ctx)
	s.logger.Info("borrowing request filed",
		zap.Int64("borrowing_id", borrowing.ID),
		zap.Int64("user_id", actor.UserID),
		zap.Int64("equipment_id", borrowing.BorrowedItem))
	return borrowing, nil
}

// MyRequests returns the caller's own borrowing history.
func (s *BorrowingService) MyRequests(ctx context.Context, actor models.Identity, page int) ([]models.BorrowingDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListByBorrower(ctx, actor.UserID, page, myRequestsPageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list borrowings")
	}
	decorateBorrowings(rows)
	return rows, paginate(page, myRequestsPageSize, total), nil
}

// ListAll returns the full borrowing ledger for admins.
func (s *BorrowingService) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.BorrowingDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListAll(ctx, status, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list borrowings")
	}
	decorateBorrowings(rows)
	return rows, paginate(page, pageSize, total), nil
}

// Review transitions a batch of pending borrowings to Approved or Rejected.
// Requests already past Pending are skipped, never re-transitioned.
func (s *BorrowingService) Review(ctx context.Context, req models.BulkStatusRequest, actor models.Identity) ([]int64, error) {
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
	s.logger.Info("borrowings reviewed",
		zap.String("status", string(req.Status)),
		zap.Int("requested", len(req.IDs)),
		zap.Int("updated", len(updated)))
	return updated, nil
}

// BulkDelete removes a batch of borrowings from the admin ledger.
func (s *BorrowingService) BulkDelete(ctx context.Context, req models.BulkDeleteRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete borrowings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// DeleteOwn removes the caller's own requests. Every id must exist, belong
// to the caller, and not be approved; one bad id fails the whole batch.
func (s *BorrowingService) DeleteOwn(ctx context.Context, req models.BulkDeleteRequest, actor models.Identity) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	rows, err := s.repo.FindByIDs(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrowings")
	}

	byID := make(map[int64]models.Borrowing, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range req.IDs {
		row, ok := byID[id]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("borrowing %d not found", id))
		}
		if row.BorrowersID != actor.UserID {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("borrowing %d does not belong to you", id))
		}
		if row.RequestStatus == models.StatusApproved {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("borrowing %d is approved and cannot be deleted", id))
		}
	}

	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete borrowings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// MarkReturned files a return claim for the caller's approved borrowings.
// The borrowings stay untouched until an admin confirms.
func (s *BorrowingService) MarkReturned(ctx context.Context, req models.MarkReturnedRequest, actor models.Identity) ([]models.ReturnNotification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid return payload")
	}

	rows, err := s.repo.FindByIDs(ctx, req.BorrowingIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load borrowings")
	}

	byID := make(map[int64]models.Borrowing, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	claims := make([]models.ReturnNotification, 0, len(req.BorrowingIDs))
	for _, id := range req.BorrowingIDs {
		row, ok := byID[id]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("borrowing %d not found", id))
		}
		if row.BorrowersID != actor.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("borrowing %d does not belong to you", id))
		}
		if row.RequestStatus != models.StatusApproved {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("borrowing %d is not approved", id))
		}
		if row.ReturnStatus != nil && *row.ReturnStatus == models.ReturnStatusReturned {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("borrowing %d is already returned", id))
		}
		claims = append(claims, models.ReturnNotification{
			BorrowingID:  id,
			ReceiverName: req.ReceiverName,
			Message:      fmt.Sprintf("Borrowing #%d reported returned, received by %s.", id, req.ReceiverName),
		})
	}

	if err := s.repo.CreateReturnClaims(ctx, claims); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file return claims")
	}
	return claims, nil
}

// ListReturnClaims returns unresolved return claims for the admin queue.
func (s *BorrowingService) ListReturnClaims(ctx context.Context) ([]models.ReturnNotificationDetail, error) {
	claims, err := s.repo.ListReturnClaims(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list return claims")
	}
	for i := range claims {
		claims[i].BorrowerName = joinName(claims[i].BorrowerFirstName, claims[i].BorrowerLastName)
	}
	return claims, nil
}

// ConfirmReturn accepts a return claim, completing the borrowing.
func (s *BorrowingService) ConfirmReturn(ctx context.Context, req models.ConfirmReturnRequest, actor models.Identity) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirm payload")
	}
	if err := s.repo.ConfirmReturn(ctx, req.NotificationID, req.BorrowingID, actor.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "return claim or borrowing not found")
		}
		return appErrors.FromError(err)
	}
	s.invalidateDashboard(ctx)
	return nil
}

// RejectReturn dismisses a return claim, leaving the borrowing active.
func (s *BorrowingService) RejectReturn(ctx context.Context, req models.RejectReturnRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reject payload")
	}
	if err := s.repo.RejectReturn(ctx, req.NotificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "return claim not found")
		}
		return appErrors.FromError(err)
	}
	return nil
}

func (s *BorrowingService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func decorateBorrowings(rows []models.BorrowingDetail) {
	for i := range rows {
		rows[i].BorrowerName = joinName(rows[i].BorrowerFirstName, rows[i].BorrowerLastName)
		if rows[i].ReturnStatus != nil && *rows[i].ReturnStatus == models.ReturnStatusReturned {
			returned := rows[i].UpdatedAt.Format(DateLayout)
			rows[i].DateReturned = &returned
		}
	}
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// normalizeDate strips any time component so only the calendar day is stored.
func normalizeDate(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return t.Format(DateLayout)
}
