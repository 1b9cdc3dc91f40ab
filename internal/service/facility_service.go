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
)

type facilityStore interface {
	List(ctx context.Context, filter repository.FacilityFilter) ([]models.Facility, int, error)
	FindByID(ctx context.Context, id int64) (*models.Facility, error)
	Create(ctx context.Context, facility *models.Facility, actorEmail string) error
	Update(ctx context.Context, facility *models.Facility, actorEmail string) error
	UpdateImage(ctx context.Context, id int64, imageURL string) error
	BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error)
}

// FacilityService provides facility catalog use cases. Reads carry a derived
// occupancy status computed from the booking ledger.
type FacilityService struct {
	repo         facilityStore
	availability *AvailabilityService
	storage      imageStorage
	cache        dashboardInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewFacilityService constructs a FacilityService instance.
func NewFacilityService(repo facilityStore, availability *AvailabilityService, storage imageStorage, cache dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *FacilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FacilityService{
		repo:         repo,
		availability: availability,
		storage:      storage,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns the facility catalog with derived occupancy.
func (s *FacilityService) List(ctx context.Context, filter repository.FacilityFilter) ([]models.FacilityView, *models.Pagination, error) {
	facilities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list facilities")
	}

	occupied, err := s.availability.OccupiedFacilitySet(ctx)
	if err != nil {
		return nil, nil, err
	}

	views := make([]models.FacilityView, 0, len(facilities))
	for _, f := range facilities {
		views = append(views, models.FacilityView{
			Facility:      f,
			DerivedStatus: DeriveFacility(f.Status, occupied[f.ID]),
		})
	}
	return views, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a single facility with derived occupancy.
func (s *FacilityService) Get(ctx context.Context, id int64) (*models.FacilityView, error) {
	facility, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	occupied, err := s.availability.OccupiedFacilitySet(ctx)
	if err != nil {
		return nil, err
	}
	return &models.FacilityView{
		Facility:      *facility,
		DerivedStatus: DeriveFacility(facility.Status, occupied[facility.ID]),
	}, nil
}

// Create adds a facility to the catalog.
func (s *FacilityService) Create(ctx context.Context, facility *models.Facility, actor models.Identity) error {
	if strings.TrimSpace(facility.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "facility name is required")
	}
	if err := s.repo.Create(ctx, facility, actor.Email); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create facility")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// Update replaces a facility's fields.
func (s *FacilityService) Update(ctx context.Context, facility *models.Facility, actor models.Identity) error {
	if strings.TrimSpace(facility.Name) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "facility name is required")
	}
	if err := s.repo.Update(ctx, facility, actor.Email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update facility")
	}
	s.invalidateDashboard(ctx)
	return nil
}

// BulkDelete removes a batch of facilities.
func (s *FacilityService) BulkDelete(ctx context.Context, ids []int64, actor models.Identity) (int64, error) {
	if len(ids) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no facility ids provided")
	}
	n, err := s.repo.BulkDelete(ctx, ids, actor.Email)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete facilities")
	}
	s.invalidateDashboard(ctx)
	return n, nil
}

// UploadImage stores an uploaded image and binds it to the facility.
func (s *FacilityService) UploadImage(ctx context.Context, id int64, originalName string, r io.Reader) (string, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "unsupported image type")
	}

	filename := fmt.Sprintf("facility_%d_%s%s", id, uuid.NewString(), ext)
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

func (s *FacilityService) invalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDashboard(ctx); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
