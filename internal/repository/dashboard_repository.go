package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-ops/rims-api/internal/models"
)

// DashboardRepository aggregates rollup queries for the admin landing page.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats computes the headline counters. The date argument is today in the
// server's reporting zone, formatted YYYY-MM-DD.
func (r *DashboardRepository) Stats(ctx context.Context, today string) (*models.DashboardStats, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM users WHERE approved = TRUE) AS total_users,
		(SELECT COUNT(*) FROM borrowings WHERE request_status = 'Pending')
			+ (SELECT COUNT(*) FROM bookings WHERE status = 'Pending')
			+ (SELECT COUNT(*) FROM acquirings WHERE status = 'Pending') AS pending_requests,
		(SELECT COUNT(*) FROM equipments) AS total_equipment,
		(SELECT COUNT(*) FROM facilities WHERE status IS NULL OR status <> 'Under Maintenance') AS active_facilities,
		(SELECT COUNT(*) FROM supplies) AS total_supplies,
		(SELECT COUNT(*) FROM borrowings WHERE request_status = 'Approved' AND start_date <= $1 AND end_date >= $1) AS borrowed_today,
		(SELECT COUNT(*) FROM borrowings WHERE request_status = 'Approved' AND created_at >= NOW() - INTERVAL '7 days') AS borrowed_last_7_days,
		(SELECT COUNT(DISTINCT category) FROM equipments WHERE category IS NOT NULL AND category <> '') AS total_equipment_categories`

	type statsRow struct {
		TotalUsers               int `db:"total_users"`
		PendingRequests          int `db:"pending_requests"`
		TotalEquipment           int `db:"total_equipment"`
		ActiveFacilities         int `db:"active_facilities"`
		TotalSupplies            int `db:"total_supplies"`
		BorrowedToday            int `db:"borrowed_today"`
		BorrowedLast7Days        int `db:"borrowed_last_7_days"`
		TotalEquipmentCategories int `db:"total_equipment_categories"`
	}
	var row statsRow
	if err := r.db.GetContext(ctx, &row, query, today); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	return &models.DashboardStats{
		TotalUsers:               row.TotalUsers,
		PendingRequests:          row.PendingRequests,
		TotalEquipment:           row.TotalEquipment,
		ActiveFacilities:         row.ActiveFacilities,
		TotalSupplies:            row.TotalSupplies,
		BorrowedToday:            row.BorrowedToday,
		BorrowedLast7Days:        row.BorrowedLast7Days,
		TotalEquipmentCategories: row.TotalEquipmentCategories,
	}, nil
}

// EquipmentByCategory groups the equipment catalog by category.
func (r *DashboardRepository) EquipmentByCategory(ctx context.Context) ([]models.GroupCount, error) {
	return r.groupEquipment(ctx, "category")
}

// EquipmentByStatus groups the equipment catalog by recorded condition.
func (r *DashboardRepository) EquipmentByStatus(ctx context.Context) ([]models.GroupCount, error) {
	return r.groupEquipment(ctx, "status")
}

// EquipmentByPersonLiable groups the equipment catalog by accountable person.
func (r *DashboardRepository) EquipmentByPersonLiable(ctx context.Context) ([]models.GroupCount, error) {
	return r.groupEquipment(ctx, "person_liable")
}

func (r *DashboardRepository) groupEquipment(ctx context.Context, column string) ([]models.GroupCount, error) {
	query := fmt.Sprintf(`SELECT COALESCE(NULLIF(%s, ''), 'Unspecified') AS label, COUNT(*) AS count
		FROM equipments GROUP BY 1 ORDER BY count DESC, label`, column)
	var groups []models.GroupCount
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("group equipment by %s: %w", column, err)
	}
	return groups, nil
}

// EquipmentByFacility groups the equipment catalog by hosting facility.
func (r *DashboardRepository) EquipmentByFacility(ctx context.Context) ([]models.GroupCount, error) {
	const query = `SELECT COALESCE(f.facility_name, 'Unassigned') AS label, COUNT(*) AS count
		FROM equipments e
		LEFT JOIN facilities f ON f.facility_id = e.facility_id
		GROUP BY 1 ORDER BY count DESC, label`
	var groups []models.GroupCount
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("group equipment by facility: %w", err)
	}
	return groups, nil
}

// EquipmentStatusRow pairs an equipment id with its recorded condition, the
// input to the derived availability breakdown.
type EquipmentStatusRow struct {
	ID     int64   `db:"id"`
	Status *string `db:"status"`
}

// EquipmentStatusRows lists every equipment id with its recorded condition.
func (r *DashboardRepository) EquipmentStatusRows(ctx context.Context) ([]EquipmentStatusRow, error) {
	var rows []EquipmentStatusRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, status FROM equipments`); err != nil {
		return nil, fmt.Errorf("list equipment statuses: %w", err)
	}
	return rows, nil
}

// SidebarCounts computes the admin navigation badge counters.
func (r *DashboardRepository) SidebarCounts(ctx context.Context) (*models.SidebarCounts, error) {
	const query = `SELECT
		(SELECT COUNT(*) FROM equipments) AS equipments,
		(SELECT COUNT(*) FROM facilities) AS facilities,
		(SELECT COUNT(*) FROM supplies) AS supplies,
		(SELECT COUNT(*) FROM users) AS users,
		(SELECT COUNT(*) FROM borrowings WHERE request_status = 'Pending')
			+ (SELECT COUNT(*) FROM bookings WHERE status = 'Pending')
			+ (SELECT COUNT(*) FROM acquirings WHERE status = 'Pending') AS requests,
		(SELECT COUNT(*) FROM equipment_logs) AS equipment_logs,
		(SELECT COUNT(*) FROM facility_logs) AS facility_logs,
		(SELECT COUNT(*) FROM supply_logs) AS supply_logs,
		(SELECT COUNT(*) FROM account_requests WHERE status = 'Pending') AS account_requests`

	type countsRow struct {
		Equipments      int `db:"equipments"`
		Facilities      int `db:"facilities"`
		Supplies        int `db:"supplies"`
		Users           int `db:"users"`
		Requests        int `db:"requests"`
		EquipmentLogs   int `db:"equipment_logs"`
		FacilityLogs    int `db:"facility_logs"`
		SupplyLogs      int `db:"supply_logs"`
		AccountRequests int `db:"account_requests"`
	}
	var row countsRow
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return nil, fmt.Errorf("sidebar counts: %w", err)
	}

	return &models.SidebarCounts{
		Equipments:      row.Equipments,
		Facilities:      row.Facilities,
		Supplies:        row.Supplies,
		Users:           row.Users,
		Requests:        row.Requests,
		EquipmentLogs:   row.EquipmentLogs,
		FacilityLogs:    row.FacilityLogs,
		SupplyLogs:      row.SupplyLogs,
		AccountRequests: row.AccountRequests,
	}, nil
}
