package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// AuditPurger deletes audit entries older than a cutoff.
type AuditPurger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AuditPurgeJob trims the audit trail down to the retention window.
type AuditPurgeJob struct {
	purger    AuditPurger
	logger    *slog.Logger
	retention time.Duration
}

// NewAuditPurgeJob constructs the job.
func NewAuditPurgeJob(purger AuditPurger, logger *slog.Logger, retention time.Duration) *AuditPurgeJob {
	return &AuditPurgeJob{purger: purger, logger: logger, retention: retention}
}

// Handle processes TaskAuditPurge tasks.
func (j *AuditPurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AuditPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	retention := payload.Retention
	if retention <= 0 {
		retention = j.retention
	}
	cutoff := time.Now().UTC().Add(-retention)

	purged, err := j.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	j.logger.Info("audit purge complete",
		slog.Int64("purged", purged),
		slog.Time("cutoff", cutoff))
	return nil
}
