package models

import "time"

// AuditEntity distinguishes the append-only log tables.
type AuditEntity string

const (
	AuditEquipment AuditEntity = "equipment"
	AuditFacility  AuditEntity = "facility"
	AuditSupply    AuditEntity = "supply"
)

// AuditLog is an append-only trail record for a catalog entity. The entity
// kind selects the destination table (equipment_logs, facility_logs,
// supply_logs); rows are never mutated or deleted by normal flow.
type AuditLog struct {
	ID        int64       `db:"id" json:"id"`
	Entity    AuditEntity `db:"-" json:"-"`
	EntityID  int64       `db:"entity_id" json:"entity_id"`
	Action    string      `db:"action" json:"action"`
	Details   string      `db:"details" json:"details"`
	UserEmail string      `db:"user_email" json:"user_email"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
