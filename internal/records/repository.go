package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for vehicle records.
type Repository interface {
	Create(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, recordType Type, pred authz.Predicate, page shared.Pagination) ([]Record, error)
	Update(ctx context.Context, record Record) error
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `rec.id, rec.sacco_id, rec.vehicle_id, rec.record_type, rec.description,
	rec.cost_cents, rec.liters, rec.odometer_km, rec.recorded_at, rec.created_at, rec.updated_at`

// Create inserts a new record.
func (r *PGRepository) Create(ctx context.Context, record Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vehicle_records (id, sacco_id, vehicle_id, record_type, description,
		 cost_cents, liters, odometer_km, recorded_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.SaccoID, record.VehicleID, record.Type, record.Description,
		record.CostCents, record.Liters, record.OdometerKM, record.RecordedAt,
		record.CreatedAt, record.UpdatedAt)
	return err
}

// Get fetches a record by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM vehicle_records rec WHERE rec.id = $1`, id)
	return scanRecord(row)
}

// List returns records of one type visible under the scope predicate. An
// ownership predicate joins through the vehicle the record references.
func (r *PGRepository) List(ctx context.Context, recordType Type, pred authz.Predicate, page shared.Pagination) ([]Record, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + recordColumns + ` FROM vehicle_records rec`
	args := []any{recordType}
	switch {
	case pred.SaccoID != "":
		query += ` WHERE rec.record_type = $1 AND rec.sacco_id = $2`
		args = append(args, pred.SaccoID)
	case pred.OwnerID != "":
		query += ` JOIN vehicles v ON v.id = rec.vehicle_id
			WHERE rec.record_type = $1 AND v.owner_id = $2`
		args = append(args, pred.OwnerID)
	default:
		query += ` WHERE rec.record_type = $1`
	}
	args = append(args, page.Limit(), page.Offset())
	query += fmt.Sprintf(` ORDER BY rec.recorded_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Update rewrites the mutable record fields.
func (r *PGRepository) Update(ctx context.Context, record Record) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vehicle_records SET description = $2, cost_cents = $3, liters = $4,
		 odometer_km = $5, recorded_at = $6, updated_at = $7 WHERE id = $1`,
		record.ID, record.Description, record.CostCents, record.Liters,
		record.OdometerKM, record.RecordedAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a record.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicle_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var record Record
	err := row.Scan(&record.ID, &record.SaccoID, &record.VehicleID, &record.Type,
		&record.Description, &record.CostCents, &record.Liters, &record.OdometerKM,
		&record.RecordedAt, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, shared.ErrNotFound
		}
		return Record{}, err
	}
	return record, nil
}

var _ Repository = (*PGRepository)(nil)
