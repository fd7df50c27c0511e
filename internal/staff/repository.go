package staff

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for staff accounts.
type Repository interface {
	Create(ctx context.Context, member Member, passwordHash string) error
	Get(ctx context.Context, id string) (Member, error)
	List(ctx context.Context, pred authz.Predicate) ([]Member, error)
	Update(ctx context.Context, member Member) error
	SetActive(ctx context.Context, id string, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const memberColumns = `id, sacco_id, name, email, phone, role, vehicle_ids, is_active, last_login, created_at, updated_at`

// Create inserts a new staff account with its initial password hash.
func (r *PGRepository) Create(ctx context.Context, member Member, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, sacco_id, name, email, phone, password_hash, role, vehicle_ids, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		member.ID, member.SaccoID, member.Name, member.Email, member.Phone, passwordHash,
		member.Role, member.VehicleIDs, member.IsActive, member.CreatedAt, member.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

// Get fetches a staff account by ID. The superadmin row is not reachable
// through this repository.
func (r *PGRepository) Get(ctx context.Context, id string) (Member, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM users WHERE id = $1 AND role <> 'superadmin'`, id)
	return scanMember(row)
}

// List returns staff visible under the scope predicate.
func (r *PGRepository) List(ctx context.Context, pred authz.Predicate) ([]Member, error) {
	if pred.MatchNone {
		return nil, nil
	}
	query := `SELECT ` + memberColumns + ` FROM users WHERE role <> 'superadmin'`
	var args []any
	if pred.SaccoID != "" {
		query += ` AND sacco_id = $1`
		args = append(args, pred.SaccoID)
	}
	query += ` ORDER BY name`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var members []Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

// Update rewrites the mutable profile fields.
func (r *PGRepository) Update(ctx context.Context, member Member) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET name = $2, phone = $3, role = $4, vehicle_ids = $5, updated_at = $6
		 WHERE id = $1 AND role <> 'superadmin'`,
		member.ID, member.Name, member.Phone, member.Role, member.VehicleIDs, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetActive toggles whether the account can authenticate.
func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = $3 WHERE id = $1 AND role <> 'superadmin'`,
		id, active, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (Member, error) {
	var (
		member    Member
		saccoID   pgtype.Text
		lastLogin pgtype.Timestamptz
	)
	err := row.Scan(&member.ID, &saccoID, &member.Name, &member.Email, &member.Phone,
		&member.Role, &member.VehicleIDs, &member.IsActive, &lastLogin,
		&member.CreatedAt, &member.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Member{}, shared.ErrNotFound
		}
		return Member{}, err
	}
	if saccoID.Valid {
		member.SaccoID = saccoID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		member.LastLogin = &t
	}
	return member, nil
}

var _ Repository = (*PGRepository)(nil)
