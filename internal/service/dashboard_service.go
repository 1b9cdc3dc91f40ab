package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/repository"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type dashboardStore interface {
	Stats(ctx context.Context, today string) (*models.DashboardStats, error)
	EquipmentByCategory(ctx context.Context) ([]models.GroupCount, error)
	EquipmentByStatus(ctx context.Context) ([]models.GroupCount, error)
	EquipmentByPersonLiable(ctx context.Context) ([]models.GroupCount, error)
	EquipmentByFacility(ctx context.Context) ([]models.GroupCount, error)
	EquipmentStatusRows(ctx context.Context) ([]repository.EquipmentStatusRow, error)
	SidebarCounts(ctx context.Context) (*models.SidebarCounts, error)
}

// DashboardService produces admin rollups. Every payload is cached under the
// dashboard prefix and served from Redis until a catalog or ledger write
// invalidates it.
type DashboardService struct {
	repo         dashboardStore
	availability *AvailabilityService
	cache        *CacheService
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardService constructs a DashboardService instance.
func NewDashboardService(repo dashboardStore, availability *AvailabilityService, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DashboardService{
		repo:         repo,
		availability: availability,
		cache:        cache,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Stats returns the headline counters.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	key := DashboardCachePrefix + "stats"
	var cached models.DashboardStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	today := s.now().UTC().Format(DateLayout)
	stats, err := s.repo.Stats(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
	}

	if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, nil
}

// EquipmentByCategory returns the category breakdown.
func (s *DashboardService) EquipmentByCategory(ctx context.Context) ([]models.GroupCount, error) {
	return s.grouped(ctx, "by_category", s.repo.EquipmentByCategory)
}

// EquipmentByStatus returns the recorded-condition breakdown.
func (s *DashboardService) EquipmentByStatus(ctx context.Context) ([]models.GroupCount, error) {
	return s.grouped(ctx, "by_status", s.repo.EquipmentByStatus)
}

// EquipmentByPersonLiable returns the accountable-person breakdown.
func (s *DashboardService) EquipmentByPersonLiable(ctx context.Context) ([]models.GroupCount, error) {
	return s.grouped(ctx, "by_person_liable", s.repo.EquipmentByPersonLiable)
}

// EquipmentByFacility returns the hosting-facility breakdown.
func (s *DashboardService) EquipmentByFacility(ctx context.Context) ([]models.GroupCount, error) {
	return s.grouped(ctx, "by_facility", s.repo.EquipmentByFacility)
}

func (s *DashboardService) grouped(ctx context.Context, name string, load func(context.Context) ([]models.GroupCount, error)) ([]models.GroupCount, error) {
	key := DashboardCachePrefix + name
	var cached []models.GroupCount
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	groups, err := load(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard grouping")
	}

	if err := s.cache.Set(ctx, key, groups, s.ttl); err != nil {
		s.logger.Warn("failed to cache dashboard grouping", zap.String("grouping", name), zap.Error(err))
	}
	return groups, nil
}

// AvailabilityBreakdown derives the equipment availability distribution from
// the catalog and the active borrowing ledger.
func (s *DashboardService) AvailabilityBreakdown(ctx context.Context) ([]models.AvailabilitySlice, error) {
	key := DashboardCachePrefix + "availability"
	var cached []models.AvailabilitySlice
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.EquipmentStatusRows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load equipment statuses")
	}
	borrowed, err := s.availability.BorrowedEquipmentSet(ctx)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	for _, row := range rows {
		counts[DeriveEquipment(row.Status, borrowed[row.ID])]++
	}

	total := len(rows)
	slices := make([]models.AvailabilitySlice, 0, 3)
	for _, status := range []string{models.AvailabilityAvailable, models.AvailabilityInUse, models.AvailabilityOffline} {
		count := counts[status]
		var pct float64
		if total > 0 {
			pct = float64(count) * 100 / float64(total)
		}
		slices = append(slices, models.AvailabilitySlice{Status: status, Count: count, Percentage: pct})
	}

	if err := s.cache.Set(ctx, key, slices, s.ttl); err != nil {
		s.logger.Warn("failed to cache availability breakdown", zap.Error(err))
	}
	return slices, nil
}

// SidebarCounts returns the navigation badge counters.
func (s *DashboardService) SidebarCounts(ctx context.Context) (*models.SidebarCounts, error) {
	key := DashboardCachePrefix + "sidebar"
	var cached models.SidebarCounts
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	counts, err := s.repo.SidebarCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute sidebar counts")
	}

	if err := s.cache.Set(ctx, key, counts, s.ttl); err != nil {
		s.logger.Warn("failed to cache sidebar counts", zap.Error(err))
	}
	return counts, nil
}
