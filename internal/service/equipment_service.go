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

type equipmentStore interface {
	List(ctx context.Context, filter repository.EquipmentFilter) ([]models.EquipmentView, int, error)
	FindByID(ctx context.Context, id int64) (*models.EquipmentView, error)
	Create(ctx context.Context, item *models.Equipment, actorEmail string) error
	Update(ctx context.Context, item *models.Equipment, actorEmail string) error
	UpdateImage(ctx context.Context, id int64, image string) error
	BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error)
	Categories(ctx context.Context) ([]string, error)
}

type imageStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Remove(filename string) error
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type tableRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// EquipmentService provides equipment catalog use cases. Every read derives
// availability from the borrowing ledger before leaving the service.
type EquipmentService struct {
	repo         equipmentStore
	availability *AvailabilityService
	storage      imageStorage
	csv          datasetRenderer
	pdf          tableRenderer
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewEquipmentService constructs an EquipmentService instance.
func NewEquipmentService(repo equipmentStore, availability *AvailabilityService, storage imageStorage, csv datasetRenderer, pdf tableRenderer, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *EquipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EquipmentService{
		repo:         repo,
		availability: availability,
		storage:      storage,
		csv:          csv,
		pdf:          pdf,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns the equipment catalog with derived availability.
func (s *EquipmentService) List(ctx context.Context, filter repository.EquipmentFilter) ([]models.EquipmentView, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list equipment")
	}

	borrowed, err := s.availability.BorrowedEquipmentSet(ctx)
	if err != nil {
		return nil, nil, err
	}
	for i := range items {
		items[i].Availability = DeriveEquipment(items[i].Status, borrowed[items[i].ID])
	}

	return items, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a single equipment item with derived availability.
func (s *EquipmentService) Get(ctx context.Context, id int64) (*models.EquipmentView, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}

	borrowed, err := s.availability.BorrowedEquipmentSet(ctx)
	if err != nil {
		return nil, err
	}
	item.Availability = DeriveEquipment(item.Status, borrowed[item.ID])
	return item, nil
}

// Create adds an equipment item to the catalog.
func (s *EquipmentService) Create(ctx context.Context, item *models.Equipment, actor models.Identity) error {
	if strings.TrimSpace(item.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "equipment name is required")
	}
	if err := s.repo.Create(ctx, item, actor.Email); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create equipment")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Update replaces an equipment item's fields.
func (s *EquipmentService) Update(ctx context.Context, item *models.Equipment, actor models.Identity) error {
	if strings.TrimSpace(item.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "equipment name is required")
	}
	if err := s.repo.Update(ctx, item, actor.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update equipment")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// BulkDelete removes a batch of equipment items.
func (s *EquipmentService) BulkDelete(ctx context.Context, ids []int64, actor models.Identity) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no equipment ids provided")
	}
	n, err := s.repo.BulkDelete(ctx, ids, actor.Email)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete equipment")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// UploadImage stores an uploaded image and binds it to the equipment item.
func (s *EquipmentService) UploadImage(ctx context.Context, id int64, originalName string, r io.Reader) (string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "equipment not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
	}

	filename := fmt.Sprintf("equipment_%d_%s%s", id, uuid.NewString(), ext)
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

// Categories lists the distinct equipment categories.
func (s *EquipmentService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// ExportCSV renders the full equipment catalog as CSV.
func (s *EquipmentService) ExportCSV(ctx context.Context) ([]byte, error) {
	dataset, err := s.exportDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ExportPDF renders the full equipment catalog as a PDF table.
func (s *EquipmentService) ExportPDF(ctx context.Context) ([]byte, error) {
	dataset, err := s.exportDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*dataset, "Equipment Inventory")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *EquipmentService) exportDataset(ctx context.Context) (*export.Dataset, error) {
	items, _, err := s.List(ctx, repository.EquipmentFilter{})
	if err != nil {
		return nil, err
	}

	dataset := &export.Dataset{
		Headers: []string{"ID", "Name", "Brand", "Category", "Status", "Availability", "Facility", "Person Liable", "Serial Number"},
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":            fmt.Sprintf("%d", item.ID),
			"Name":          item.Name,
			"Brand":         derefString(item.BrandName),
			"Category":      derefString(item.Category),
			"Status":        derefString(item.Status),
			"Availability":  item.Availability,
			"Facility":      derefString(item.FacilityName),
			"Person Liable": derefString(item.PersonLiable),
			"Serial Number": derefString(item.SerialNumber),
		})
	}
	return dataset, nil
}

func (s *EquipmentService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func paginate(page, pageSize, total int) *models.Pagination {
	if pageSize <= 0 {
		return nil
	}
	if page < 1 {
		page = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	return &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total, TotalPages: totalPages}
}
