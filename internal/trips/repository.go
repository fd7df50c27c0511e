package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for trips.
type Repository interface {
	Create(ctx context.Context, trip Trip) error
	Get(ctx context.Context, id string) (Trip, error)
	List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Trip, error)
	Update(ctx context.Context, trip Trip) error
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

const tripColumns = `t.id, t.sacco_id, t.vehicle_id, t.driver_id, t.conductor_id, t.route,
	t.fare_cents, t.payment_method, t.passenger_count, t.departed_at, t.arrived_at, t.created_at, t.updated_at`

// Create inserts a new trip record.
func (r *PGRepository) Create(ctx context.Context, trip Trip) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO trips (id, sacco_id, vehicle_id, driver_id, conductor_id, route,
		 fare_cents, payment_method, passenger_count, departed_at, arrived_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		trip.ID, trip.SaccoID, trip.VehicleID, trip.DriverID, trip.ConductorID, trip.Route,
		trip.FareCents, trip.PaymentMethod, trip.PassengerCount, trip.DepartedAt, trip.ArrivedAt,
		trip.CreatedAt, trip.UpdatedAt)
	return err
}

// Get fetches a trip by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Trip, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips t WHERE t.id = $1`, id)
	return scanTrip(row)
}

// List returns trips visible under the scope predicate, newest first. An
// ownership predicate resolves through the vehicle the trip references.
func (r *PGRepository) List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Trip, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + tripColumns + ` FROM trips t`
	var args []any
	switch {
	case pred.SaccoID != "":
		query += ` WHERE t.sacco_id = $1`
		args = append(args, pred.SaccoID)
	case pred.OwnerID != "":
		query += ` JOIN vehicles v ON v.id = t.vehicle_id WHERE v.owner_id = $1`
		args = append(args, pred.OwnerID)
	case pred.AssignedID != "":
		query += ` WHERE (t.driver_id = $1 OR t.conductor_id = $1)`
		args = append(args, pred.AssignedID)
	}
	args = append(args, page.Limit(), page.Offset())
	query += fmt.Sprintf(` ORDER BY t.departed_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, trip)
	}
	return out, rows.Err()
}

// Update rewrites the mutable trip fields.
func (r *PGRepository) Update(ctx context.Context, trip Trip) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE trips SET route = $2, fare_cents = $3, payment_method = $4, passenger_count = $5,
		 departed_at = $6, arrived_at = $7, updated_at = $8 WHERE id = $1`,
		trip.ID, trip.Route, trip.FareCents, trip.PaymentMethod, trip.PassengerCount,
		trip.DepartedAt, trip.ArrivedAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a trip.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanTrip(row pgx.Row) (Trip, error) {
	var (
		trip    Trip
		arrived pgtype.Timestamptz
	)
	err := row.Scan(&trip.ID, &trip.SaccoID, &trip.VehicleID, &trip.DriverID, &trip.ConductorID,
		&trip.Route, &trip.FareCents, &trip.PaymentMethod, &trip.PassengerCount, &trip.DepartedAt,
		&arrived, &trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, shared.ErrNotFound
		}
		return Trip{}, err
	}
	if arrived.Valid {
		t := arrived.Time
		trip.ArrivedAt = &t
	}
	return trip, nil
}

var _ Repository = (*PGRepository)(nil)
