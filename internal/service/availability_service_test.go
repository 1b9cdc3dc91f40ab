package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

type fakeBorrowingIDs struct {
	ids []int64
	err error
}

func (f *fakeBorrowingIDs) ActiveBorrowedEquipmentIDs(ctx context.Context) ([]int64, error) {
	return f.ids, f.err
}

type fakeOccupancy struct {
	ids      []int64
	err      error
	lastDate string
}

func (f *fakeOccupancy) OccupiedFacilityIDs(ctx context.Context, date string) ([]int64, error) {
	f.lastDate = date
	return f.ids, f.err
}

func fixedAvailability(borrowings *fakeBorrowingIDs, bookings *fakeOccupancy, now time.Time) *AvailabilityService {
	svc := NewAvailabilityService(borrowings, bookings, zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestParseDate(t *testing.T) {
	parsed, err := ParseDate("2025-06-03")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", parsed.Format(DateLayout))

	parsed, err = ParseDate("2025-06-03T10:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", parsed.Format(DateLayout))

	parsed, err = ParseDate("2025-06-03 10:30:00")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", parsed.Format(DateLayout))

	_, err = ParseDate("03/06/2025")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := fixedAvailability(&fakeBorrowingIDs{}, &fakeOccupancy{}, now)

	assert.NoError(t, svc.ValidateWindow("2025-06-01", "2025-06-05", "2025-06-06"))
	assert.NoError(t, svc.ValidateWindow("2025-06-02", "2025-06-02", ""))

	err := svc.ValidateWindow("2025-05-31", "2025-06-05", "")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "past")

	err = svc.ValidateWindow("2025-06-05", "2025-06-02", "")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "before start")

	err = svc.ValidateWindow("2025-06-02", "2025-06-05", "2025-06-04")
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "before end")
}

func TestDeriveEquipment(t *testing.T) {
	working := "Working"
	good := "GOOD"
	broken := "For Repair"

	// An active borrowing wins over any recorded condition.
	assert.Equal(t, models.AvailabilityInUse, DeriveEquipment(&working, true))
	assert.Equal(t, models.AvailabilityInUse, DeriveEquipment(&broken, true))

	assert.Equal(t, models.AvailabilityAvailable, DeriveEquipment(&working, false))
	assert.Equal(t, models.AvailabilityAvailable, DeriveEquipment(&good, false))
	assert.Equal(t, models.AvailabilityOffline, DeriveEquipment(&broken, false))
	assert.Equal(t, models.AvailabilityOffline, DeriveEquipment(nil, false))
}

func TestDeriveFacility(t *testing.T) {
	maintenance := "under maintenance"
	open := "Open"

	// Stored maintenance overrides occupancy.
	assert.Equal(t, models.FacilityUnderMaintenance, DeriveFacility(&maintenance, true))
	assert.Equal(t, models.FacilityOccupied, DeriveFacility(&open, true))
	assert.Equal(t, models.FacilityAvailable, DeriveFacility(&open, false))
	assert.Equal(t, models.FacilityAvailable, DeriveFacility(nil, false))
}

func TestOccupiedFacilitySetUsesToday(t *testing.T) {
	now := time.Date(2025, 6, 3, 8, 0, 0, 0, time.UTC)
	bookings := &fakeOccupancy{ids: []int64{7}}
	svc := fixedAvailability(&fakeBorrowingIDs{}, bookings, now)

	set, err := svc.OccupiedFacilitySet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-06-03", bookings.lastDate)
	assert.True(t, set[7])
	assert.False(t, set[8])
}

func TestBorrowedEquipmentSet(t *testing.T) {
	svc := fixedAvailability(&fakeBorrowingIDs{ids: []int64{9, 12}}, &fakeOccupancy{}, time.Now())

	set, err := svc.BorrowedEquipmentSet(context.Background())
	require.NoError(t, err)
	assert.True(t, set[9])
	assert.True(t, set[12])
	assert.False(t, set[1])
}
