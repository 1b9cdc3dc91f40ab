package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/repository"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
	"github.com/campus-ops/rims-api/pkg/export"
)

type supplyStore interface {
	List(ctx context.Context, filter repository.SupplyFilter) ([]models.SupplyView, int, error)
	FindByID(ctx context.Context, id int64) (*models.SupplyView, error)
	Create(ctx context.Context, supply *models.Supply, actorEmail string) error
	Update(ctx context.Context, supply *models.Supply, actorEmail string) error
	UpdateImage(ctx context.Context, id int64, imageURL string) error
	BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error)
}

// SupplyService provides supply catalog use cases. Stock quantities only
// change here through catalog edits; ledger approvals decrement inside the
// acquiring review transaction.
type SupplyService struct {
	repo      supplyStore
	storage   imageStorage
	csv       datasetRenderer
	cache     dashboardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSupplyService constructs a SupplyService instance.
func NewSupplyService(repo supplyStore, storage imageStorage, csv datasetRenderer, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *SupplyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SupplyService{
		repo:      repo,
		storage:   storage,
		csv:       csv,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns the supply catalog.
func (s *SupplyService) List(ctx context.Context, filter repository.SupplyFilter) ([]models.SupplyView, *models.Pagination, error) {
	supplies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list supplies")
	}
	return supplies, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a single supply.
func (s *SupplyService) Get(ctx context.Context, id int64) (*models.SupplyView, error) {
	supply, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supply not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supply")
	}
	return supply, nil
}

// Create adds a supply to the catalog.
func (s *SupplyService) Create(ctx context.Context, supply *models.Supply, actor models.Identity) error {
	if strings.TrimSpace(supply.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "supply name is required")
	}
	if supply.Quantity < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "quantity cannot be negative")
	}
	if err := s.repo.Create(ctx, supply, actor.Email); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create supply")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Update replaces a supply's fields.
func (s *SupplyService) Update(ctx context.Context, supply *models.Supply, actor models.Identity) error {
	if strings.TrimSpace(supply.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "supply name is required")
	}
	if supply.Quantity < 0 {
		return appErrors.Clone(appErrors.ErrValidation, "quantity cannot be negative")
	}
	if err := s.repo.Update(ctx, supply, actor.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "supply not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update supply")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// BulkDelete removes a batch of supplies.
func (s *SupplyService) BulkDelete(ctx context.Context, ids []int64, actor models.Identity) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no supply ids provided")
	}
	n, err := s.repo.BulkDelete(ctx, ids, actor.Email)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete supplies")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// UploadImage stores an uploaded image and binds it to the supply.
func (s *SupplyService) UploadImage(ctx context.Context, id int64, originalName string, r io.Reader) (string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "supply not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load supply")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
	}

	filename := fmt.Sprintf("supply_%d_%s%s", id, uuid.NewString(), ext)
	stored, err := s.storage.SaveStream(filename, r)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store image")
	}

	if err := s.repo.UpdateImage(ctx, id, stored); err != nil {
		if rmErr := s.storage.Remove(filename); rmErr != nil {
			s.logger.Warn("failed to remove orphaned image", zap.String("file", filename), zap.Error(rmErr))
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bind image")
	}
	return stored, nil
}

// ExportCSV renders the supply catalog as CSV, flagging low stock.
func (s *SupplyService) ExportCSV(ctx context.Context) ([]byte, error) {
	supplies, _, err := s.List(ctx, repository.SupplyFilter{})
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Name", "Category", "Quantity", "Stocking Point", "Unit", "Facility", "Low Stock"},
	}
	for _, supply := range supplies {
		lowStock := "no"
		if supply.StockingPoint != nil && supply.Quantity <= *supply.StockingPoint {
			lowStock = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":             fmt.Sprintf("%d", supply.ID),
			"Name":           supply.Name,
			"Category":       derefString(supply.Category),
			"Quantity":       fmt.Sprintf("%d", supply.Quantity),
			"Stocking Point": derefInt(supply.StockingPoint),
			"Unit":           derefString(supply.StockUnit),
			"Facility":       derefString(supply.FacilityName),
			"Low Stock":      lowStock,
		})
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

func (s *SupplyService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func derefInt(v *int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%d", *v)
}
