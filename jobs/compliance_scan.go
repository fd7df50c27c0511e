package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/matwana/matwana/internal/shared"
	"github.com/matwana/matwana/internal/vehicles"
)

// ComplianceScanJob walks the fleet for insurance and inspection
// certificates that expire inside the configured window and drops a
// reminder into the audit trail for each.
type ComplianceScanJob struct {
	vehicles vehicles.Repository
	audit    *shared.AuditLogger
	logger   *slog.Logger
	window   time.Duration
}

// NewComplianceScanJob constructs the job.
func NewComplianceScanJob(repo vehicles.Repository, audit *shared.AuditLogger, logger *slog.Logger, window time.Duration) *ComplianceScanJob {
	return &ComplianceScanJob{vehicles: repo, audit: audit, logger: logger, window: window}
}

// Handle processes TaskComplianceScan tasks.
func (j *ComplianceScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ComplianceScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	window := payload.Window
	if window <= 0 {
		window = j.window
	}
	cutoff := time.Now().UTC().Add(window)

	expiring, err := j.vehicles.ExpiringCompliance(ctx, cutoff)
	if err != nil {
		return err
	}
	for _, vehicle := range expiring {
		j.audit.Record(ctx, shared.AuditEntry{
			ActorID: "system", SaccoID: vehicle.SaccoID,
			Action: "flagged_compliance", Entity: "vehicle", EntityID: vehicle.ID,
			Meta: map[string]any{
				"registration_number": vehicle.RegistrationNumber,
				"insurance_expiry":    vehicle.InsuranceExpiry,
				"inspection_expiry":   vehicle.InspectionExpiry,
			},
		})
	}
	j.logger.Info("compliance scan complete",
		slog.Int("flagged", len(expiring)),
		slog.Time("cutoff", cutoff))
	return nil
}
