package models

import "time"

// Derived availability values for catalog reads.
const (
	AvailabilityAvailable = "Available"
	AvailabilityBorrowed  = "Borrowed"
	AvailabilityInUse     = "In Use"
	AvailabilityOffline   = "Unavailable"
)

// Facility status values. Only FacilityUnderMaintenance is ever stored; the
// other two are derived from the booking ledger at read time.
const (
	FacilityAvailable        = "Available"
	FacilityOccupied         = "Occupied"
	FacilityUnderMaintenance = "Under Maintenance"
)

// Equipment is a catalog item that can be borrowed.
type Equipment struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	PONumber       *string   `db:"po_number" json:"po_number,omitempty"`
	UnitNumber     *string   `db:"unit_number" json:"unit_number,omitempty"`
	BrandName      *string   `db:"brand_name" json:"brand_name,omitempty"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Category       *string   `db:"category" json:"category,omitempty"`
	Status         *string   `db:"status" json:"status,omitempty"`
	DateAcquire    *string   `db:"date_acquire" json:"date_acquire,omitempty"`
	Supplier       *string   `db:"supplier" json:"supplier,omitempty"`
	Amount         *string   `db:"amount" json:"amount,omitempty"`
	EstimatedLife  *string   `db:"estimated_life" json:"estimated_life,omitempty"`
	ItemNumber     *string   `db:"item_number" json:"item_number,omitempty"`
	PropertyNumber *string   `db:"property_number" json:"property_number,omitempty"`
	ControlNumber  *string   `db:"control_number" json:"control_number,omitempty"`
	SerialNumber   *string   `db:"serial_number" json:"serial_number,omitempty"`
	PersonLiable   *string   `db:"person_liable" json:"person_liable,omitempty"`
	FacilityID     *int64    `db:"facility_id" json:"facility_id,omitempty"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	Image          *string   `db:"image" json:"image,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// EquipmentView is an Equipment row joined with its facility name and the
// availability derived from the borrowing ledger.
type EquipmentView struct {
	Equipment
	FacilityName *string `db:"facility_name" json:"facility_name,omitempty"`
	Availability string  `json:"availability"`
}

// Facility is a reservable catalog item.
type Facility struct {
	ID             int64     `db:"facility_id" json:"facility_id"`
	Name           string    `db:"facility_name" json:"facility_name"`
	Type           *string   `db:"facility_type" json:"facility_type,omitempty"`
	FloorLevel     *string   `db:"floor_level" json:"floor_level,omitempty"`
	Capacity       *int      `db:"capacity" json:"capacity,omitempty"`
	ConnectionType *string   `db:"connection_type" json:"connection_type,omitempty"`
	CoolingTools   *string   `db:"cooling_tools" json:"cooling_tools,omitempty"`
	Building       *string   `db:"building" json:"building,omitempty"`
	Description    *string   `db:"description" json:"description,omitempty"`
	Remarks        *string   `db:"remarks" json:"remarks,omitempty"`
	Status         *string   `db:"status" json:"status,omitempty"`
	ImageURL       *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// FacilityView carries the derived occupancy status for catalog reads.
type FacilityView struct {
	Facility
	DerivedStatus string `json:"derived_status"`
}

// Supply is a consumable catalog item with stock accounting.
type Supply struct {
	ID            int64     `db:"supply_id" json:"supply_id"`
	Name          string    `db:"supply_name" json:"supply_name"`
	Description   *string   `db:"description" json:"description,omitempty"`
	Category      *string   `db:"category" json:"category,omitempty"`
	Quantity      int       `db:"quantity" json:"quantity"`
	StockingPoint *int      `db:"stocking_point" json:"stocking_point,omitempty"`
	StockUnit     *string   `db:"stock_unit" json:"stock_unit,omitempty"`
	FacilityID    *int64    `db:"facility_id" json:"facility_id,omitempty"`
	Remarks       *string   `db:"remarks" json:"remarks,omitempty"`
	ImageURL      *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SupplyView joins the facility name for catalog reads.
type SupplyView struct {
	Supply
	FacilityName *string `db:"facility_name" json:"facility_name,omitempty"`
}
