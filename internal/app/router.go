package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/matwana/matwana/internal/audit"
	"github.com/matwana/matwana/internal/auth"
	"github.com/matwana/matwana/internal/observability"
	"github.com/matwana/matwana/internal/orgs"
	"github.com/matwana/matwana/internal/records"
	"github.com/matwana/matwana/internal/remittance"
	"github.com/matwana/matwana/internal/shared"
	"github.com/matwana/matwana/internal/staff"
	"github.com/matwana/matwana/internal/trips"
	"github.com/matwana/matwana/internal/vehicles"
	"github.com/matwana/matwana/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics

	AuthMiddleware auth.Middleware

	AuthHandler        *auth.Handler
	SaccoHandler       *orgs.Handler
	VehicleHandler     *vehicles.Handler
	StaffHandler       *staff.Handler
	TripHandler        *trips.Handler
	FuelHandler        *records.Handler
	MaintenanceHandler *records.Handler
	RemittanceHandler  *remittance.Handler
	AuditHandler       *audit.Handler
	JobHandler         *jobs.Handler
}

// NewRouter constructs the chi.Router with Matwana defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireActor)

		r.Route("/saccos", params.SaccoHandler.MountRoutes)
		r.Route("/vehicles", params.VehicleHandler.MountRoutes)
		r.Route("/staff", params.StaffHandler.MountRoutes)
		r.Route("/trips", params.TripHandler.MountRoutes)
		r.Route("/fuel", params.FuelHandler.MountRoutes)
		r.Route("/maintenance", params.MaintenanceHandler.MountRoutes)
		r.Route("/remittances", params.RemittanceHandler.MountRoutes)
		r.Route("/audit", params.AuditHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
