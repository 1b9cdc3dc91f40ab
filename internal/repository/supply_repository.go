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

// SupplyRepository provides database access for the supply catalog.
type SupplyRepository struct {
	db *sqlx.DB
}

// NewSupplyRepository creates a new instance of SupplyRepository.
func NewSupplyRepository(db *sqlx.DB) *SupplyRepository {
	return &SupplyRepository{db: db}
}

const supplySelect = `SELECT s.supply_id, s.supply_name, s.description, s.category, s.quantity,
	s.stocking_point, s.stock_unit, s.facility_id, s.remarks, s.image_url, s.created_at, s.updated_at,
	f.facility_name
	FROM supplies s
	LEFT JOIN facilities f ON f.facility_id = s.facility_id`

// SupplyFilter narrows catalog listings.
type SupplyFilter struct {
	Category string
	Search   string
	LowStock bool
	Page     int
	PageSize int
}

// List returns supply rows joined with their facility name.
func (r *SupplyRepository) List(ctx context.Context, filter SupplyFilter) ([]models.SupplyView, int, error) {
	where := []string{"1=1"}
	var args []interface{}

	if filter.Category != "" {
		where = append(where, fmt.Sprintf("LOWER(s.category) = $%d", len(args)+1))
		args = append(args, strings.ToLower(filter.Category))
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("LOWER(s.supply_name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.LowStock {
		where = append(where, "s.stocking_point IS NOT NULL AND s.quantity <= s.stocking_point")
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) FROM supplies s WHERE %s", clause), args...); err != nil {
		return nil, 0, fmt.Errorf("count supplies: %w", err)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY s.supply_id", supplySelect, clause)
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var supplies []models.SupplyView
	if err := r.db.SelectContext(ctx, &supplies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list supplies: %w", err)
	}
	return supplies, total, nil
}

// FindByID returns a single supply with its facility name.
func (r *SupplyRepository) FindByID(ctx context.Context, id int64) (*models.SupplyView, error) {
	query := supplySelect + " WHERE s.supply_id = $1 LIMIT 1"
	var supply models.SupplyView
	if err := r.db.GetContext(ctx, &supply, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find supply: %w", err)
	}
	return &supply, nil
}

// Create inserts a supply and its creation log entry.
func (r *SupplyRepository) Create(ctx context.Context, supply *models.Supply, actorEmail string) error {
	now := time.Now().UTC()
	supply.CreatedAt = now
	supply.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create supply: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO supplies (supply_name, description, category, quantity, stocking_point,
		stock_unit, facility_id, remarks, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING supply_id`
	if err = tx.QueryRowxContext(ctx, insert,
		supply.Name, supply.Description, supply.Category, supply.Quantity, supply.StockingPoint,
		supply.StockUnit, supply.FacilityID, supply.Remarks, supply.ImageURL,
		supply.CreatedAt, supply.UpdatedAt,
	).Scan(&supply.ID); err != nil {
		return fmt.Errorf("insert supply: %w", err)
	}

	if err = insertAuditLog(ctx, tx, models.AuditSupply, supply.ID, "created",
		fmt.Sprintf("Supply %q added with quantity %d", supply.Name, supply.Quantity), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create supply: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of a supply and records the change.
func (r *SupplyRepository) Update(ctx context.Context, supply *models.Supply, actorEmail string) error {
	now := time.Now().UTC()
	supply.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update supply: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE supplies SET supply_name = $2, description = $3, category = $4, quantity = $5,
		stocking_point = $6, stock_unit = $7, facility_id = $8, remarks = $9, image_url = $10, updated_at = $11
		WHERE supply_id = $1`
	var res sql.Result
	res, err = tx.ExecContext(ctx, update,
		supply.ID, supply.Name, supply.Description, supply.Category, supply.Quantity,
		supply.StockingPoint, supply.StockUnit, supply.FacilityID, supply.Remarks, supply.ImageURL,
		supply.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update supply: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		err = sql.ErrNoRows
		return err
	}

	if err = insertAuditLog(ctx, tx, models.AuditSupply, supply.ID, "updated",
		fmt.Sprintf("Supply %q updated, quantity now %d", supply.Name, supply.Quantity), actorEmail, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update supply: %w", err)
	}
	return nil
}

// UpdateImage stores the uploaded image path for a supply.
func (r *SupplyRepository) UpdateImage(ctx context.Context, id int64, imageURL string) error {
	const query = `UPDATE supplies SET image_url = $2, updated_at = $3 WHERE supply_id = $1`
	res, err := r.db.ExecContext(ctx, query, id, imageURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update supply image: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// BulkDelete removes a batch of supplies and logs each removal.
func (r *SupplyRepository) BulkDelete(ctx context.Context, ids []int64, actorEmail string) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete supplies: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	type row struct {
		ID   int64  `db:"supply_id"`
		Name string `db:"supply_name"`
	}
	var rows []row
	if err = tx.SelectContext(ctx, &rows, `SELECT supply_id, supply_name FROM supplies WHERE supply_id = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("select supplies for delete: %w", err)
	}

	now := time.Now().UTC()
	for _, s := range rows {
		if err = insertAuditLog(ctx, tx, models.AuditSupply, s.ID, "deleted",
			fmt.Sprintf("Supply %q removed from catalog", s.Name), actorEmail, now); err != nil {
			return 0, err
		}
	}

	var res sql.Result
	res, err = tx.ExecContext(ctx, `DELETE FROM supplies WHERE supply_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete supplies: %w", err)
	}
	n, _ := res.RowsAffected()

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete supplies: %w", err)
	}
	return n, nil
}
