package models

import "time"

// DashboardStats is the headline rollup for the admin landing page.
type DashboardStats struct {
	TotalUsers               int `json:"total_users"`
	PendingRequests          int `json:"pending_requests"`
	TotalEquipment           int `json:"total_equipment"`
	ActiveFacilities         int `json:"active_facilities"`
	TotalSupplies            int `json:"total_supplies"`
	BorrowedToday            int `json:"borrowed_today"`
	BorrowedLast7Days        int `json:"borrowed_last_7_days"`
	TotalEquipmentCategories int `json:"total_equipment_categories"`
}

// GroupCount is a generic label/count pair for grouped rollups.
type GroupCount struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}

// AvailabilitySlice is one segment of the equipment availability breakdown.
type AvailabilitySlice struct {
	Status     string  `json:"status"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SystemMetrics is a point-in-time aggregate of runtime instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// SidebarCounts backs the admin navigation badges.
type SidebarCounts struct {
	Equipments      int `json:"equipments"`
	Facilities      int `json:"facilities"`
	Supplies        int `json:"supplies"`
	Users           int `json:"users"`
	Requests        int `json:"requests"`
	EquipmentLogs   int `json:"equipment_logs"`
	FacilityLogs    int `json:"facility_logs"`
	SupplyLogs      int `json:"supply_logs"`
	AccountRequests int `json:"account_requests"`
}
