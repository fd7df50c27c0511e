package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	FindByID(ctx context.Context, id string) (*Identity, error)
	CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const identityColumns = `id, name, email, phone, password_hash, role, sacco_id, is_active, last_login, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM users WHERE email = $1`, email)
	return scanIdentity(row)
}

// FindByID fetches a user by primary key. Role and sacco_id come back from
// the same row read, so the resolver always sees one identity snapshot.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*Identity, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+identityColumns+` FROM users WHERE id = $1`, id)
	return scanIdentity(row)
}

// CreateSession persists a new login session in the database for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, userID,
		pgtype.Timestamptz{Time: now, Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""})
	return err
}

// DeleteSession removes a session record from the database.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// TouchLastLogin stamps the account's last successful login.
func (r *PGRepository) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`,
		userID, pgtype.Timestamptz{Time: at.UTC(), Valid: true})
	return err
}

func scanIdentity(row pgx.Row) (*Identity, error) {
	var (
		ident     Identity
		saccoID   pgtype.Text
		lastLogin pgtype.Timestamptz
	)
	err := row.Scan(&ident.ID, &ident.Name, &ident.Email, &ident.Phone, &ident.PasswordHash,
		&ident.Role, &saccoID, &ident.IsActive, &lastLogin, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if saccoID.Valid {
		ident.SaccoID = saccoID.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		ident.LastLogin = &t
	}
	return &ident, nil
}

var _ Repository = (*PGRepository)(nil)
