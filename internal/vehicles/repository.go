package vehicles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for vehicles.
type Repository interface {
	Create(ctx context.Context, vehicle Vehicle) error
	Get(ctx context.Context, id string) (Vehicle, error)
	List(ctx context.Context, pred authz.Predicate) ([]Vehicle, error)
	Update(ctx context.Context, vehicle Vehicle) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	Delete(ctx context.Context, id string) error
	SetDrivers(ctx context.Context, id string, driverIDs []string) error
	ExpiringCompliance(ctx context.Context, before time.Time) ([]Vehicle, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const vehicleColumns = `id, sacco_id, registration_number, make, model, year, capacity, owner_id,
	driver_ids, route, status, insurance_expiry, inspection_expiry, created_at, updated_at`

// Create inserts a new vehicle.
func (r *PGRepository) Create(ctx context.Context, vehicle Vehicle) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vehicles (`+vehicleColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		vehicle.ID, vehicle.SaccoID, vehicle.RegistrationNumber, vehicle.Make, vehicle.Model,
		vehicle.Year, vehicle.Capacity, vehicle.OwnerID, vehicle.DriverIDs, vehicle.Route,
		vehicle.Status, vehicle.InsuranceExpiry, vehicle.InspectionExpiry, vehicle.CreatedAt, vehicle.UpdatedAt)
	return mapPGError(err)
}

// Get fetches a vehicle by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Vehicle, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id)
	return scanVehicle(row)
}

// List returns vehicles visible under the scope predicate.
func (r *PGRepository) List(ctx context.Context, pred authz.Predicate) ([]Vehicle, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	var args []any
	switch {
	case pred.SaccoID != "":
		query += ` WHERE sacco_id = $1`
		args = append(args, pred.SaccoID)
	case pred.OwnerID != "":
		query += ` WHERE owner_id = $1`
		args = append(args, pred.OwnerID)
	case pred.AssignedID != "":
		query += ` WHERE $1 = ANY(driver_ids)`
		args = append(args, pred.AssignedID)
	}
	query += ` ORDER BY registration_number`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vehicle)
	}
	return out, rows.Err()
}

// Update rewrites the mutable vehicle fields.
func (r *PGRepository) Update(ctx context.Context, vehicle Vehicle) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vehicles SET make = $2, model = $3, year = $4, capacity = $5, owner_id = $6,
		 route = $7, insurance_expiry = $8, inspection_expiry = $9, updated_at = $10 WHERE id = $1`,
		vehicle.ID, vehicle.Make, vehicle.Model, vehicle.Year, vehicle.Capacity, vehicle.OwnerID,
		vehicle.Route, vehicle.InsuranceExpiry, vehicle.InspectionExpiry, time.Now().UTC())
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus flips the vehicle operational state.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vehicles SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a vehicle.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetDrivers replaces the driver roster.
func (r *PGRepository) SetDrivers(ctx context.Context, id string, driverIDs []string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vehicles SET driver_ids = $2, updated_at = $3 WHERE id = $1`,
		id, driverIDs, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExpiringCompliance returns vehicles whose insurance or inspection expires
// before the cutoff; the compliance worker turns these into reminders.
func (r *PGRepository) ExpiringCompliance(ctx context.Context, before time.Time) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles
		 WHERE status <> 'inactive' AND (insurance_expiry < $1 OR inspection_expiry < $1)
		 ORDER BY sacco_id, registration_number`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vehicle
	for rows.Next() {
		vehicle, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, vehicle)
	}
	return out, rows.Err()
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var vehicle Vehicle
	err := row.Scan(&vehicle.ID, &vehicle.SaccoID, &vehicle.RegistrationNumber, &vehicle.Make,
		&vehicle.Model, &vehicle.Year, &vehicle.Capacity, &vehicle.OwnerID, &vehicle.DriverIDs,
		&vehicle.Route, &vehicle.Status, &vehicle.InsuranceExpiry, &vehicle.InspectionExpiry,
		&vehicle.CreatedAt, &vehicle.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Vehicle{}, shared.ErrNotFound
		}
		return Vehicle{}, err
	}
	return vehicle, nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: registration number taken", shared.ErrDuplicate)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
