package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	"github.com/campus-ops/rims-api/internal/repository"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeCacheStore struct {
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: make(map[string][]byte)}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string, dest interface{}) error {
	if f.getErr != nil {
		return f.getErr
	}
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCacheStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCacheStore) DeleteByPattern(ctx context.Context, pattern string) error {
	f.entries = make(map[string][]byte)
	return nil
}

type fakeDashboardStore struct {
	stats        *models.DashboardStats
	statsCalls   int
	lastToday    string
	groups       []models.GroupCount
	groupCalls   int
	statusRows   []repository.EquipmentStatusRow
	sidebar      *models.SidebarCounts
	sidebarCalls int
}

func (f *fakeDashboardStore) Stats(ctx context.Context, today string) (*models.DashboardStats, error) {
	f.statsCalls++
	f.lastToday = today
	return f.stats, nil
}

func (f *fakeDashboardStore) EquipmentByCategory(ctx context.Context) ([]models.GroupCount, error) {
	f.groupCalls++
	return f.groups, nil
}

func (f *fakeDashboardStore) EquipmentByStatus(ctx context.Context) ([]models.GroupCount, error) {
	f.groupCalls++
	return f.groups, nil
}

func (f *fakeDashboardStore) EquipmentByPersonLiable(ctx context.Context) ([]models.GroupCount, error) {
	f.groupCalls++
	return f.groups, nil
}

func (f *fakeDashboardStore) EquipmentByFacility(ctx context.Context) ([]models.GroupCount, error) {
	f.groupCalls++
	return f.groups, nil
}

func (f *fakeDashboardStore) EquipmentStatusRows(ctx context.Context) ([]repository.EquipmentStatusRow, error) {
	return f.statusRows, nil
}

func (f *fakeDashboardStore) SidebarCounts(ctx context.Context) (*models.SidebarCounts, error) {
	f.sidebarCalls++
	return f.sidebar, nil
}

func newDashboardService(store *fakeDashboardStore, cacheStore *fakeCacheStore, enabled bool) (*DashboardService, *CacheService) {
	cache := NewCacheService(cacheStore, nil, time.Minute, zap.NewNop(), enabled)
	availability := fixedAvailability(&fakeBorrowingIDs{}, &fakeOccupancy{}, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC))
	svc := NewDashboardService(store, availability, cache, time.Minute, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC) }
	return svc, cache
}

func TestDashboardStatsCachesSecondRead(t *testing.T) {
	store := &fakeDashboardStore{stats: &models.DashboardStats{TotalEquipment: 42, PendingRequests: 3}}
	svc, _ := newDashboardService(store, newFakeCacheStore(), true)

	first, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, first.TotalEquipment)
	assert.Equal(t, "2025-06-03", store.lastToday)

	second, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, second.TotalEquipment)
	assert.Equal(t, 1, store.statsCalls)
}

func TestDashboardStatsCacheDisabled(t *testing.T) {
	store := &fakeDashboardStore{stats: &models.DashboardStats{TotalEquipment: 42}}
	svc, _ := newDashboardService(store, newFakeCacheStore(), false)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.statsCalls)
}

func TestDashboardInvalidateFlushesRollups(t *testing.T) {
	store := &fakeDashboardStore{stats: &models.DashboardStats{TotalEquipment: 42}}
	svc, cache := newDashboardService(store, newFakeCacheStore(), true)

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.NoError(t, cache.InvalidateDashboard(context.Background()))

	_, err = svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.statsCalls)
}

func TestDashboardAvailabilityBreakdown(t *testing.T) {
	working := "Working"
	repair := "For Repair"
	store := &fakeDashboardStore{statusRows: []repository.EquipmentStatusRow{
		{ID: 1, Status: &working},
		{ID: 2, Status: &working},
		{ID: 3, Status: &working},
		{ID: 4, Status: &repair},
	}}
	cacheStore := newFakeCacheStore()
	cache := NewCacheService(cacheStore, nil, time.Minute, zap.NewNop(), true)
	availability := fixedAvailability(&fakeBorrowingIDs{ids: []int64{3}}, &fakeOccupancy{}, time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC))
	svc := NewDashboardService(store, availability, cache, time.Minute, zap.NewNop())

	slices, err := svc.AvailabilityBreakdown(context.Background())
	require.NoError(t, err)
	require.Len(t, slices, 3)
	assert.Equal(t, models.AvailabilitySlice{Status: models.AvailabilityAvailable, Count: 2, Percentage: 50}, slices[0])
	assert.Equal(t, models.AvailabilitySlice{Status: models.AvailabilityInUse, Count: 1, Percentage: 25}, slices[1])
	assert.Equal(t, models.AvailabilitySlice{Status: models.AvailabilityOffline, Count: 1, Percentage: 25}, slices[2])
}

func TestDashboardGroupedUsesDistinctKeys(t *testing.T) {
	store := &fakeDashboardStore{groups: []models.GroupCount{{Label: "Electronics", Count: 9}}}
	cacheStore := newFakeCacheStore()
	svc, _ := newDashboardService(store, cacheStore, true)

	_, err := svc.EquipmentByCategory(context.Background())
	require.NoError(t, err)
	_, err = svc.EquipmentByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.groupCalls)
	assert.Contains(t, cacheStore.entries, DashboardCachePrefix+"by_category")
	assert.Contains(t, cacheStore.entries, DashboardCachePrefix+"by_status")
}

func TestDashboardSidebarCounts(t *testing.T) {
	store := &fakeDashboardStore{sidebar: &models.SidebarCounts{Equipments: 12, Requests: 4}}
	svc, _ := newDashboardService(store, newFakeCacheStore(), true)

	counts, err := svc.SidebarCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, counts.Equipments)

	_, err = svc.SidebarCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.sidebarCalls)
}
