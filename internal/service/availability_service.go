package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-ops/rims-api/internal/models"
	appErrors "github.com/campus-ops/rims-api/pkg/errors"
)

// DateLayout is the canonical wire format for ledger dates.
const DateLayout = "2006-01-02"

// usableStatuses is the allow-list of recorded equipment conditions that
// still permit borrowing. Anything else derives to Unavailable.
var usableStatuses = map[string]struct{}{
	"working":   {},
	"available": {},
	"good":      {},
}

type activeBorrowingStore interface {
	ActiveBorrowedEquipmentIDs(ctx context.Context) ([]int64, error)
}

type occupancyStore interface {
	OccupiedFacilityIDs(ctx context.Context, date string) ([]int64, error)
}

// AvailabilityService derives catalog availability from the request ledger
// and validates requested date windows. State is never stored; every answer
// is recomputed from the ledger.
type AvailabilityService struct {
	borrowings activeBorrowingStore
	bookings   occupancyStore
	logger     *zap.Logger
	now        func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService instance.
func NewAvailabilityService(borrowings activeBorrowingStore, bookings occupancyStore, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		borrowings: borrowings,
		bookings:   bookings,
		logger:     logger,
		now:        time.Now,
	}
}

// ParseDate accepts a plain YYYY-MM-DD date or a full ISO-8601 timestamp,
// ignoring any time component.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if idx := strings.IndexAny(value, "T "); idx > 0 {
		value = value[:idx]
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return t, nil
}

// ValidateWindow checks an ordered start/end/return window against today.
// A window starting in the past, ending before it starts, or promising a
// return before it ends is rejected. An empty return date is allowed.
func (s *AvailabilityService) ValidateWindow(startDate, endDate, returnDate string) error {
	start, err := ParseDate(startDate)
	if err != nil {
		return err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return err
	}

	today, _ := time.Parse(DateLayout, s.now().UTC().Format(DateLayout))
	if start.Before(today) {
		return appErrors.Clone(appErrors.ErrValidation, "start date cannot be in the past")
	}
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end date cannot be before start date")
	}

	if returnDate != "" {
		ret, err := ParseDate(returnDate)
		if err != nil {
			return err
		}
		if ret.Before(end) {
			return appErrors.Clone(appErrors.ErrValidation, "return date cannot be before end date")
		}
	}
	return nil
}

// DeriveEquipment computes the availability label for one equipment item.
// An active approved borrowing always wins; otherwise the recorded condition
// decides through the usable-status allow-list.
func DeriveEquipment(status *string, borrowed bool) string {
	if borrowed {
		return models.AvailabilityInUse
	}
	if status == nil {
		return models.AvailabilityOffline
	}
	if _, ok := usableStatuses[strings.ToLower(strings.TrimSpace(*status))]; !ok {
		return models.AvailabilityOffline
	}
	return models.AvailabilityAvailable
}

// DeriveFacility computes the status label for one facility. A stored
// maintenance flag overrides occupancy.
func DeriveFacility(status *string, occupied bool) string {
	if status != nil && strings.EqualFold(strings.TrimSpace(*status), models.FacilityUnderMaintenance) {
		return models.FacilityUnderMaintenance
	}
	if occupied {
		return models.FacilityOccupied
	}
	return models.FacilityAvailable
}

// BorrowedEquipmentSet returns the set of equipment ids currently tied up by
// an approved, unreturned borrowing.
func (s *AvailabilityService) BorrowedEquipmentSet(ctx context.Context) (map[int64]bool, error) {
	ids, err := s.borrowings.ActiveBorrowedEquipmentIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active borrowings")
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// OccupiedFacilitySet returns the set of facility ids with an approved
// booking window covering today.
func (s *AvailabilityService) OccupiedFacilitySet(ctx context.Context) (map[int64]bool, error) {
	today := s.now().UTC().Format(DateLayout)
	ids, err := s.bookings.OccupiedFacilityIDs(ctx, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load facility occupancy")
	}
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
