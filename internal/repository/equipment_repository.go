package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campus-ops/rims-api/internal/models"
)

// EquipmentRepository provides database access for the equipment catalog.
type EquipmentRepository struct {
	db *sqlx.DB
}

// NewEquipmentRepository creates a new instance of EquipmentRepository.
func NewEquipmentRepository(db *sqlx.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

const equipmentSelect = `SELECT e.id, e.name, e.po_number, e.unit_number, e.brand_name, e.description,
	e.category, e.status, e.date_acquire, e.supplier, e.amount, e.estimated_life,
	e.item_number, e.property_number, e.control_number, e.serial_number, e.person_liable,
	e.facility_id, e.remarks, e.image, e.created_at, e.updated_at, f.facility_name
	FROM equipments e
	LEFT JOIN facilities f ON f.facility_id = e.facility_id`

// EquipmentFilter narrows catalog listings.
type EquipmentFilter struct {
	Category string
	Status   string
	Search   string
	Page     int
	PageSize int
}

// List returns equipment rows joined with their facility name.
func (r *EquipmentRepository) List(ctx context.Context, filter EquipmentFilter) ([]models.EquipmentView, int, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.Category != "" {
		where = append(where, fmt.Sprintf("LOWER(e.category) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("LOWER(e.status) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Status))
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(LOWER(e.name) LIKE $%d OR LOWER(COALESCE(e.brand_name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := strings.Join(where, " AND ")

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM equipments e WHERE %s", clause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count equipments: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY e.id", equipmentSelect, clause)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var items []models.EquipmentView
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list equipments: %w", err)
	}
	return items, total, nil
}

// FindByID returns a single equipment row with its facility name.
func (r *EquipmentRepository) FindByID(ctx context.Context, id int64) (*models.EquipmentView, error) {
	query := equipmentSelect + " WHERE e.id = $1 LIMIT 1"
	var item models.EquipmentView
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find equipment: %w", err)
	}
	return &item, nil
}

// Create inserts an equipment row and its creation log entry.
func (r *EquipmentRepository) Create(ctx context.Context, item *models.Equipment, actorEmail string) error {
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create equipment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO equipments (name, po_number, unit_number, brand_name, description, category, status,
		date_acquire, supplier, amount, estimated_life, item_number, property_number, control_number,
		serial_number, person_liable, facility_id, remarks, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id`
	if err = tx.QueryRowxContext(ctx, insert,
		item.Name, item.PONumber, item.UnitNumber, item.BrandName, item.Description, item.Category, item.Status,
		item.DateAcquire, item.Supplier, item.Amount, item.EstimatedLife, item.ItemNumber, item.PropertyNumber,
		item.ControlNumber, item.SerialNumber, item.PersonLiable, item.FacilityID, item.Remarks, item.Image,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID); err != nil {
		return fmt.Errorf("insert equipment: %w", err)
	}

	if err = insertAuditLog(ctx, tx, models.AuditEquipment, item.ID, "created",
		fmt.Sprintf("Equipment %q added to catalog", item.Name), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create equipment: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an equipment row and records the change.
func (r *EquipmentRepository) Update(ctx context.Context, item *models.Equipment, actorEmail string) error {
	now := time.Now().UTC()
	item.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update equipment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE equipments SET name = $2, po_number = $3, unit_number = $4, brand_name = $5,
		description = $6, category = $7, status = $8, date_acquire = $9, supplier = $10, amount = $11,
		estimated_life = $12, item_number = $13, property_number = $14, control_number = $15,
		serial_number = $16, person_liable = $17, facility_id = $18, remarks = $19, image = $20, updated_at = $21
		WHERE id = $1`
	var res sql.Result
	res, err = tx.ExecContext(ctx, update,
		item.ID, item.Name, item.PONumber, item.UnitNumber, item.BrandName, item.Description, item.Category,
		item.Status, item.DateAcquire, item.Supplier, item.Amount, item.EstimatedLife, item.ItemNumber,
		item.PropertyNumber, item.ControlNumber, item.SerialNumber, item.PersonLiable, item.FacilityID,
		item.Remarks, item.Image, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditLog(ctx, tx, models.AuditEquipment, item.ID, "updated",
		fmt.Sprintf("Equipment %q updated", item.Name), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update equipment: %w", err)
	}
	return nil
}

// UpdateImage stores the uploaded image path for an equipment row.
func (r *EquipmentRepository) UpdateImage(ctx context.Context, id int64, image string) error {
	const query = `UPDATE equipments SET image = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, image, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update equipment image: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkDelete removes a batch of equipment rows and logs each removal.
func (r *EquipmentRepository) BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete equipments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type row struct {
		ID   int64  `db:"id"`
		Name string `db:"name"`
	}
	var rows []row
	if err = tx.SelectContext(ctx, &rows, `SELECT id, name FROM equipments WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("select equipments for delete: %w", err)
	}

	now := time.Now().UTC()
	for _, it := range rows {
		if err = insertAuditLog(ctx, tx, models.AuditEquipment, it.ID, "deleted",
			fmt.Sprintf("Equipment %q removed from catalog", it.Name), actorEmail, now); err != nil {
			return 0, err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM equipments WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete equipments: %w", err)
	}
	n, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete equipments: %w", err)
	}
	return n, nil
}

// Categories returns the distinct non-empty categories in the catalog.
func (r *EquipmentRepository) Categories(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT category FROM equipments WHERE category IS NOT NULL AND category <> '' ORDER BY category`
	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list equipment categories: %w", err)
	}
	return categories, nil
}

// logTable maps an audit entity to its append-only table.
func logTable(entity models.AuditEntity) string {
	switch entity {
	case models.AuditFacility:
		return "facility_logs"
	case models.AuditSupply:
		return "supply_logs"
	default:
		return "equipment_logs"
	}
}

func insertAuditLog(ctx context.Context, tx *sqlx.Tx, entity models.AuditEntity, entityID int64, action, details, userEmail string, ts time.Time) error {
	query := fmt.Sprintf(`INSERT INTO %s (entity_id, action, details, user_email, created_at) VALUES ($1, $2, $3, $4, $5)`, logTable(entity))
	if _, err := tx.ExecContext(ctx, query, entityID, action, details, userEmail, ts); err != nil {
		return fmt.Errorf("insert %s log: %w", entity, err)
	}
	return nil
}
