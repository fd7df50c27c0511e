package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matwana/matwana/internal/authz"
)

// Repository reads the audit trail.
type Repository interface {
	Timeline(ctx context.Context, pred authz.Predicate, query Query) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Timeline returns entries before the cursor, newest first. It fetches one
// extra row so the service can tell whether another page exists.
func (r *PGRepository) Timeline(ctx context.Context, pred authz.Predicate, query Query) ([]Entry, error) {
	if pred.MatchNone {
		return nil, nil
	}
	sql := `SELECT id, actor_id, sacco_id, action, entity, entity_id, meta, ip, occurred_at
		FROM audit_logs WHERE occurred_at < $1`
	args := []any{query.Before}
	if pred.SaccoID != "" {
		args = append(args, pred.SaccoID)
		sql += fmt.Sprintf(` AND sacco_id = $%d`, len(args))
	}
	if query.Entity != "" {
		args = append(args, query.Entity)
		sql += fmt.Sprintf(` AND entity = $%d`, len(args))
	}
	if query.Action != "" {
		args = append(args, query.Action)
		sql += fmt.Sprintf(` AND action = $%d`, len(args))
	}
	args = append(args, query.Limit+1)
	sql += fmt.Sprintf(` ORDER BY occurred_at DESC LIMIT $%d`, len(args))
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var (
			entry    Entry
			saccoID  pgtype.Text
			metaJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &saccoID, &entry.Action, &entry.Entity,
			&entry.EntityID, &metaJSON, &entry.IP, &entry.OccurredAt); err != nil {
			return nil, err
		}
		if saccoID.Valid {
			entry.SaccoID = saccoID.String
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &entry.Meta); err != nil {
				return nil, err
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// PurgeBefore drops entries older than the cutoff. The retention worker
// calls it on a schedule.
func (r *PGRepository) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
