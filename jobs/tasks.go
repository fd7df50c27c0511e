package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskComplianceScan flags vehicles with expiring insurance or
	// inspection certificates.
	TaskComplianceScan = "vehicle:compliance_scan"
	// TaskAuditPurge trims the audit trail to the retention window.
	TaskAuditPurge = "audit:purge"
)

// ComplianceScanPayload configures a compliance scan run.
type ComplianceScanPayload struct {
	Window time.Duration `json:"window"`
}

// NewComplianceScanTask constructs a compliance scan task.
func NewComplianceScanTask(window time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(ComplianceScanPayload{Window: window})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskComplianceScan, data), nil
}

// AuditPurgePayload configures an audit purge run.
type AuditPurgePayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditPurgeTask constructs an audit purge task.
func NewAuditPurgeTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPurgePayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPurge, data), nil
}
