package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type acquiringStore interface {
	Create(ctx context.Context, acquiring *models.Acquiring) error
	ListByAcquirer(ctx context.Context, acquirerID int64, page, pageSize int) ([]models.AcquiringDetail, int, error)
	ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.AcquiringDetail, int, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Acquiring, error)
	BulkUpdateStatus(ctx context.Context, ids []int64, status models.RequestStatus, actorEmail string) ([]int64, error)
	BulkDelete(ctx context.Context, ids []int64) (int64, error)
}

type supplyFinder interface {
	FindByID(ctx context.Context, id int64) (*models.SupplyView, error)
}

// AcquiringService provides supply request use cases. Stock only moves when
// an admin approves; a pending request reserves nothing.
type AcquiringService struct {
	repo      acquiringStore
	supplies  supplyFinder
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAcquiringService constructs an AcquiringService instance.
func NewAcquiringService(repo acquiringStore, supplies supplyFinder, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *AcquiringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AcquiringService{
		repo:      repo,
		supplies:  supplies,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Create files a new pending acquiring request.
func (s *AcquiringService) Create(ctx context.Context, req models.CreateAcquiringRequest, actor models.Identity) (*models.Acquiring, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid acquiring payload")
	}
	if req.AcquirersID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot file a request for another user")
	}

	supply, err := s.supplies.FindByID(ctx, req.SupplyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supply not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supply")
	}

	// Soft check only: the authoritative guard is the locked decrement at
	// approval time.
	if req.Quantity > supply.Quantity {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("requested quantity %d exceeds available stock (%d)", req.Quantity, supply.Quantity))
	}

	acquiring := &models.Acquiring{
		AcquirersID: actor.UserID,
		SupplyID:    req.SupplyID,
		Quantity:    req.Quantity,
	}
	if req.Purpose != "" {
		purpose := req.Purpose
		acquiring.Purpose = &purpose
	}

	if err := s.repo.Create(ctx, acquiring); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create acquiring")
	}

	s.invalidateDashboard(ctx)
	s.logger.Info("acquiring request filed",
		zap.Int64("acquiring_id", acquiring.ID),
		zap.Int64("user_id", actor.UserID),
		zap.Int64("supply_id", acquiring.SupplyID),
		zap.Int("quantity", acquiring.Quantity))
	return acquiring, nil
}

// MyRequests returns the caller's own acquiring history.
func (s *AcquiringService) MyRequests(ctx context.Context, actor models.Identity, page int) ([]models.AcquiringDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListByAcquirer(ctx, actor.UserID, page, myRequestsPageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list acquirings")
	}
	decorateAcquirings(rows)
	return rows, paginate(page, myRequestsPageSize, total), nil
}

// ListAll returns the full acquiring ledger for admins.
func (s *AcquiringService) ListAll(ctx context.Context, status models.RequestStatus, page, pageSize int) ([]models.AcquiringDetail, *models.Pagination, error) {
	rows, total, err := s.repo.ListAll(ctx, status, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list acquirings")
	}
	decorateAcquirings(rows)
	return rows, paginate(page, pageSize, total), nil
}

// Review transitions a batch of pending acquirings to Approved or Rejected.
// Approval decrements stock; a supply without enough stock aborts the whole
// batch and no request in it transitions.
func (s *AcquiringService) Review(ctx context.Context, req models.BulkStatusRequest, actor models.Identity) ([]int64, error) {
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
	s.logger.Info("acquirings reviewed",
		zap.String("status", string(req.Status)),
		zap.Int("requested", len(req.IDs)),
		zap.Int("updated", len(updated)))
	return updated, nil
}

// BulkDelete removes a batch of acquirings from the admin ledger.
func (s *AcquiringService) BulkDelete(ctx context.Context, req models.BulkDeleteRequest) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}
	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete acquirings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// DeleteOwn removes the caller's own requests. Every id must exist, belong
// to the caller, and not be approved; one bad id fails the whole batch.
func (s *AcquiringService) DeleteOwn(ctx context.Context, req models.BulkDeleteRequest, actor models.Identity) (int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid delete payload")
	}

	rows, err := s.repo.FindByIDs(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load acquirings")
	}

	byID := make(map[int64]models.Acquiring, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	for _, id := range req.IDs {
		row, ok := byID[id]
		if !ok {
			return 0, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("acquiring %d not found", id))
		}
		if row.AcquirersID != actor.UserID {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("acquiring %d does not belong to you", id))
		}
		if row.Status == models.StatusApproved {
			return 0, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("acquiring %d is approved and cannot be deleted", id))
		}
	}

	n, err := s.repo.BulkDelete(ctx, req.IDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete acquirings")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

func (s *AcquiringService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func decorateAcquirings(rows []models.AcquiringDetail) {
	for i := range rows {
		rows[i].AcquirerName = joinName(rows[i].AcquirerFirstName, rows[i].AcquirerLastName)
	}
}
