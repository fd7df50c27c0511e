package remittance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for remittances.
type Repository interface {
	Create(ctx context.Context, remittance Remittance) error
	Get(ctx context.Context, id string) (Remittance, error)
	List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Remittance, error)
	Update(ctx context.Context, remittance Remittance) error
	UpdateStatus(ctx context.Context, id string, status Status, paidAt *time.Time) error
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

const remittanceColumns = `id, sacco_id, vehicle_id, owner_id, amount_cents, for_date, status,
	paid_at, created_at, updated_at`

// Create inserts a new remittance. One row per vehicle per day is enforced
// by a unique index.
func (r *PGRepository) Create(ctx context.Context, remittance Remittance) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO remittances (`+remittanceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		remittance.ID, remittance.SaccoID, remittance.VehicleID, remittance.OwnerID,
		remittance.AmountCents, remittance.ForDate, remittance.Status, remittance.PaidAt,
		remittance.CreatedAt, remittance.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: remittance already recorded for that day", shared.ErrDuplicate)
	}
	return err
}

// Get fetches a remittance by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Remittance, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+remittanceColumns+` FROM remittances WHERE id = $1`, id)
	return scanRemittance(row)
}

// List returns remittances visible under the scope predicate, newest first.
func (r *PGRepository) List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Remittance, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + remittanceColumns + ` FROM remittances`
	var args []any
	switch {
	case pred.SaccoID != "":
		query += ` WHERE sacco_id = $1`
		args = append(args, pred.SaccoID)
	case pred.OwnerID != "":
		query += ` WHERE owner_id = $1`
		args = append(args, pred.OwnerID)
	}
	args = append(args, page.Limit(), page.Offset())
	query += fmt.Sprintf(` ORDER BY for_date DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Remittance
	for rows.Next() {
		remittance, err := scanRemittance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, remittance)
	}
	return out, rows.Err()
}

// Update rewrites the mutable remittance fields.
func (r *PGRepository) Update(ctx context.Context, remittance Remittance) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE remittances SET amount_cents = $2, for_date = $3, updated_at = $4 WHERE id = $1`,
		remittance.ID, remittance.AmountCents, remittance.ForDate, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus settles or reopens a remittance.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status, paidAt *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE remittances SET status = $2, paid_at = $3, updated_at = $4 WHERE id = $1`,
		id, status, paidAt, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a remittance.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM remittances WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRemittance(row pgx.Row) (Remittance, error) {
	var (
		remittance Remittance
		paidAt     pgtype.Timestamptz
	)
	err := row.Scan(&remittance.ID, &remittance.SaccoID, &remittance.VehicleID, &remittance.OwnerID,
		&remittance.AmountCents, &remittance.ForDate, &remittance.Status, &paidAt,
		&remittance.CreatedAt, &remittance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Remittance{}, shared.ErrNotFound
		}
		return Remittance{}, err
	}
	if paidAt.Valid {
		t := paidAt.Time
		remittance.PaidAt = &t
	}
	return remittance, nil
}

var _ Repository = (*PGRepository)(nil)
