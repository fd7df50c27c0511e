package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/matwana/matwana/internal/app"
	"github.com/matwana/matwana/internal/audit"
	"github.com/matwana/matwana/internal/auth"
	"github.com/matwana/matwana/internal/observability"
	"github.com/matwana/matwana/internal/orgs"
	"github.com/matwana/matwana/internal/platform/db"
	"github.com/matwana/matwana/internal/records"
	"github.com/matwana/matwana/internal/remittance"
	"github.com/matwana/matwana/internal/shared"
	"github.com/matwana/matwana/internal/staff"
	"github.com/matwana/matwana/internal/trips"
	"github.com/matwana/matwana/internal/vehicles"
	"github.com/matwana/matwana/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "matwana_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(pool, logger)
	metrics := observability.NewMetrics()

	authService := auth.NewService(auth.NewRepository(pool))
	authMiddleware := auth.Middleware{Service: authService, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager, auditLogger)

	saccoService := orgs.NewService(orgs.NewRepository(pool), auditLogger)
	saccoHandler := orgs.NewHandler(logger, saccoService)

	vehicleService := vehicles.NewService(vehicles.NewRepository(pool), auditLogger)
	vehicleHandler := vehicles.NewHandler(logger, vehicleService)

	staffService := staff.NewService(staff.NewRepository(pool), auditLogger)
	staffHandler := staff.NewHandler(logger, staffService)

	tripService := trips.NewService(trips.NewRepository(pool), vehicleService, auditLogger)
	tripHandler := trips.NewHandler(logger, tripService)

	recordService := records.NewService(records.NewRepository(pool), vehicleService, auditLogger)
	fuelHandler := records.NewHandler(logger, recordService, records.TypeFuel)
	maintenanceHandler := records.NewHandler(logger, recordService, records.TypeMaintenance)

	remittanceService := remittance.NewService(remittance.NewRepository(pool), vehicleService, auditLogger)
	remittanceHandler := remittance.NewHandler(logger, remittanceService)

	auditService := audit.NewService(audit.NewRepository(pool))
	auditHandler := audit.NewHandler(logger, auditService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger, cfg.ComplianceWindow)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Metrics:            metrics,
		AuthMiddleware:     authMiddleware,
		AuthHandler:        authHandler,
		SaccoHandler:       saccoHandler,
		VehicleHandler:     vehicleHandler,
		StaffHandler:       staffHandler,
		TripHandler:        tripHandler,
		FuelHandler:        fuelHandler,
		MaintenanceHandler: maintenanceHandler,
		RemittanceHandler:  remittanceHandler,
		AuditHandler:       auditHandler,
		JobHandler:         jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
