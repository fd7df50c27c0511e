package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/matwana/matwana/internal/app"
	"github.com/matwana/matwana/internal/audit"
	"github.com/matwana/matwana/internal/platform/db"
	"github.com/matwana/matwana/internal/shared"
	"github.com/matwana/matwana/internal/vehicles"
	"github.com/matwana/matwana/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool, logger)
	vehicleRepo := vehicles.NewRepository(pool)
	auditRepo := audit.NewRepository(pool)

	complianceJob := jobs.NewComplianceScanJob(vehicleRepo, auditLogger, logger, cfg.ComplianceWindow)
	purgeJob := jobs.NewAuditPurgeJob(auditRepo, logger, cfg.AuditRetention)

	complianceTask, err := jobs.NewComplianceScanTask(cfg.ComplianceWindow)
	if err != nil {
		logger.Error("build compliance task", slog.Any("error", err))
		os.Exit(1)
	}
	purgeTask, err := jobs.NewAuditPurgeTask(cfg.AuditRetention)
	if err != nil {
		logger.Error("build purge task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskComplianceScan, Handler: complianceJob.Handle},
			{Type: jobs.TaskAuditPurge, Handler: purgeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 5 * * *", Task: complianceTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 2 * * 0", Task: purgeTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
