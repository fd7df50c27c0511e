package shared

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry represents a record stored in audit_logs.
type AuditEntry struct {
	ActorID  string
	SaccoID  string // empty for platform-level actions
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	IP       string
	At       time.Time
}

// AuditLogger writes records into audit_logs. Writes are best-effort: a
// failed insert is logged and swallowed so it never aborts the operation
// that triggered it.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) {
	if l == nil || l.pool == nil {
		return
	}
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		l.warn("audit entry missing action/entity/entity_id", entry)
		return
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		l.warn("audit meta marshal failed", entry)
		return
	}
	var saccoID any
	if entry.SaccoID != "" {
		saccoID = entry.SaccoID
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, sacco_id, action, entity, entity_id, meta, ip, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ActorID, saccoID, entry.Action, entry.Entity, entry.EntityID, metaJSON, entry.IP, at)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("audit write failed", slog.String("action", entry.Action), slog.Any("error", err))
		}
	}
}

func (l *AuditLogger) warn(msg string, entry AuditEntry) {
	if l.logger != nil {
		l.logger.Warn(msg, slog.String("action", entry.Action), slog.String("entity", entry.Entity))
	}
}
