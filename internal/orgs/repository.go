package orgs

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/platform/db"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for saccos.
type Repository interface {
	Create(ctx context.Context, sacco Sacco) error
	Get(ctx context.Context, id string) (Sacco, error)
	List(ctx context.Context, pred authz.Predicate) ([]Sacco, error)
	Update(ctx context.Context, sacco Sacco) error
	UpdateStatus(ctx context.Context, id string, status Status) error
	CountVehicles(ctx context.Context, saccoID string) (int, error)
	CountStaff(ctx context.Context, saccoID string) (int, error)
	CountPendingRemittances(ctx context.Context, saccoID string) (int, error)
	DeleteCascade(ctx context.Context, saccoID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const saccoColumns = `id, name, registration_number, location, contact_person, phone, email, commission_rate, status, created_at, updated_at`

// Create inserts a new sacco.
func (r *PGRepository) Create(ctx context.Context, sacco Sacco) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO saccos (`+saccoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sacco.ID, sacco.Name, sacco.RegistrationNumber, sacco.Location, sacco.ContactPerson,
		sacco.Phone, sacco.Email, sacco.CommissionRate, sacco.Status, sacco.CreatedAt, sacco.UpdatedAt)
	return mapPGError(err)
}

// Get fetches a sacco by ID.
func (r *PGRepository) Get(ctx context.Context, id string) (Sacco, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saccoColumns+` FROM saccos WHERE id = $1`, id)
	return scanSacco(row)
}

// List returns saccos visible under the scope predicate.
func (r *PGRepository) List(ctx context.Context, pred authz.Predicate) ([]Sacco, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + saccoColumns + ` FROM saccos`
	var args []any
	if pred.SaccoID != "" {
		query += ` WHERE id = $1`
		args = append(args, pred.SaccoID)
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var saccos []Sacco
	for rows.Next() {
		sacco, err := scanSacco(rows)
		if err != nil {
			return nil, err
		}
		saccos = append(saccos, sacco)
	}
	return saccos, rows.Err()
}

// Update rewrites the mutable sacco fields. Status is managed separately.
func (r *PGRepository) Update(ctx context.Context, sacco Sacco) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE saccos SET name = $2, location = $3, contact_person = $4, phone = $5, email = $6,
		 commission_rate = $7, updated_at = $8 WHERE id = $1`,
		sacco.ID, sacco.Name, sacco.Location, sacco.ContactPerson, sacco.Phone, sacco.Email,
		sacco.CommissionRate, time.Now().UTC())
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus flips the sacco lifecycle state.
func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE saccos SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountVehicles returns the number of vehicles registered under the sacco.
func (r *PGRepository) CountVehicles(ctx context.Context, saccoID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles WHERE sacco_id = $1`, saccoID).Scan(&count)
	return count, err
}

// CountStaff returns the number of user accounts under the sacco.
func (r *PGRepository) CountStaff(ctx context.Context, saccoID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE sacco_id = $1 AND role <> 'superadmin'`, saccoID).Scan(&count)
	return count, err
}

// CountPendingRemittances returns the number of unsettled remittances under
// the sacco.
func (r *PGRepository) CountPendingRemittances(ctx context.Context, saccoID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM remittances WHERE sacco_id = $1 AND status = 'pending'`, saccoID).Scan(&count)
	return count, err
}

// DeleteCascade removes the sacco and its user accounts in one transaction.
// The vehicle count is re-checked inside the transaction; a vehicle created
// concurrently between the service's precondition check and this commit is
// still caught here, which is the accepted residual race.
func (r *PGRepository) DeleteCascade(ctx context.Context, saccoID string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles WHERE sacco_id = $1`, saccoID).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return shared.ErrHasDependents
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE sacco_id = $1`, saccoID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM saccos WHERE id = $1`, saccoID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func scanSacco(row pgx.Row) (Sacco, error) {
	var sacco Sacco
	err := row.Scan(&sacco.ID, &sacco.Name, &sacco.RegistrationNumber, &sacco.Location,
		&sacco.ContactPerson, &sacco.Phone, &sacco.Email, &sacco.CommissionRate,
		&sacco.Status, &sacco.CreatedAt, &sacco.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sacco{}, shared.ErrNotFound
		}
		return Sacco{}, err
	}
	return sacco, nil
}

func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
