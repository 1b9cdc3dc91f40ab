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

// FacilityRepository provides database access for the facility catalog.
type FacilityRepository struct {
	db *sqlx.DB
}

// NewFacilityRepository creates a new instance of FacilityRepository.
func NewFacilityRepository(db *sqlx.DB) *FacilityRepository {
	return &FacilityRepository{db: db}
}

const facilityColumns = `facility_id, facility_name, facility_type, floor_level, capacity, connection_type,
	cooling_tools, building, description, remarks, status, image_url, created_at, updated_at`

// FacilityFilter narrows catalog listings.
type FacilityFilter struct {
	Type     string
	Building string
	Search   string
	Page     int
	PageSize int
}

// List returns facility rows with total count.
func (r *FacilityRepository) List(ctx context.Context, filter FacilityFilter) ([]models.Facility, int, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.Type != "" {
		where = append(where, fmt.Sprintf("LOWER(facility_type) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Type))
	}
	if filter.Building != "" {
		where = append(where, fmt.Sprintf("LOWER(building) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Building))
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(facility_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM facilities WHERE %s", clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count facilities: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM facilities WHERE %s ORDER BY facility_id", facilityColumns, clause)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var facilities []models.Facility
	if err := r.db.SelectContext(ctx, &facilities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list facilities: %w", err)
	}
	return facilities, total, nil
}

// FindByID returns a single facility.
func (r *FacilityRepository) FindByID(ctx context.Context, id int64) (*models.Facility, error) {
	query := fmt.Sprintf("SELECT %s FROM facilities WHERE facility_id = $1 LIMIT 1", facilityColumns)
	var facility models.Facility
	if err := r.db.GetContext(ctx, &facility, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find facility: %w", err)
	}
	return &facility, nil
}

// Create inserts a facility and its creation log entry.
func (r *FacilityRepository) Create(ctx context.Context, facility *models.Facility, actorEmail string) error {
	now := time.Now().UTC()
	facility.CreatedAt = now
	facility.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create facility: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO facilities (facility_name, facility_type, floor_level, capacity, connection_type,
		cooling_tools, building, description, remarks, status, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING facility_id`
	if err = tx.QueryRowxContext(ctx, insert,
		facility.Name, facility.Type, facility.FloorLevel, facility.Capacity, facility.ConnectionType,
		facility.CoolingTools, facility.Building, facility.Description, facility.Remarks, facility.Status,
		facility.ImageURL, facility.CreatedAt, facility.UpdatedAt,
	).Scan(&facility.ID); err != nil {
		return fmt.Errorf("insert facility: %w", err)
	}

	if err = insertAuditLog(ctx, tx, models.AuditFacility, facility.ID, "created",
		fmt.Sprintf("Facility %q added to catalog", facility.Name), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create facility: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a facility and records the change.
func (r *FacilityRepository) Update(ctx context.Context, facility *models.Facility, actorEmail string) error {
	now := time.Now().UTC()
	facility.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update facility: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE facilities SET facility_name = $2, facility_type = $3, floor_level = $4, capacity = $5,
		connection_type = $6, cooling_tools = $7, building = $8, description = $9, remarks = $10,
		status = $11, image_url = $12, updated_at = $13
		WHERE facility_id = $1`
	var res sql.Result
	res, err = tx.ExecContext(ctx, update,
		facility.ID, facility.Name, facility.Type, facility.FloorLevel, facility.Capacity,
		facility.ConnectionType, facility.CoolingTools, facility.Building, facility.Description,
		facility.Remarks, facility.Status, facility.ImageURL, facility.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update facility: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditLog(ctx, tx, models.AuditFacility, facility.ID, "updated",
		fmt.Sprintf("Facility %q updated", facility.Name), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update facility: %w", err)
	}
	return nil
}

// UpdateImage stores the uploaded image path for a facility.
func (r *FacilityRepository) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	const query = `UPDATE facilities SET image_url = $2, updated_at = $3 WHERE facility_id = $1`
	res, err := r.db.ExecContext(ctx, query, id, imageURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update facility image: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkDelete removes a batch of facilities and logs each removal.
func (r *FacilityRepository) BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete facilities: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type row struct {
		ID   int64  `db:"facility_id"`
		Name string `db:"facility_name"`
	}
	var rows []row
	if err = tx.SelectContext(ctx, &rows, `SELECT facility_id, facility_name FROM facilities WHERE facility_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("select facilities for delete: %w", err)
	}

	now := time.Now().UTC()
	for _, f := range rows {
		if err = insertAuditLog(ctx, tx, models.AuditFacility, f.ID, "deleted",
			fmt.Sprintf("Facility %q removed from catalog", f.Name), actorEmail, now); err != nil {
			return 0, err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM facilities WHERE facility_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete facilities: %w", err)
	}
	n, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete facilities: %w", err)
	}
	return n, nil
}
