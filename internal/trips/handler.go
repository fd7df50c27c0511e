package trips

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Handler wires HTTP endpoints for trip logging.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers trip routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type tripPayload struct {
	VehicleID      string     `json:"vehicle_id" validate:"required"`
	DriverID       string     `json:"driver_id" validate:"required"`
	ConductorID    string     `json:"conductor_id"`
	Route          string     `json:"route" validate:"required"`
	FareCents      int64      `json:"fare_cents" validate:"gte=0"`
	PaymentMethod  string     `json:"payment_method" validate:"omitempty,oneof=cash mpesa other"`
	PassengerCount int        `json:"passenger_count" validate:"gte=0"`
	DepartedAt     time.Time  `json:"departed_at" validate:"required"`
	ArrivedAt      *time.Time `json:"arrived_at"`
}

type tripResponse struct {
	ID             string     `json:"id"`
	SaccoID        string     `json:"sacco_id"`
	VehicleID      string     `json:"vehicle_id"`
	DriverID       string     `json:"driver_id"`
	ConductorID    string     `json:"conductor_id,omitempty"`
	Route          string     `json:"route"`
	FareCents      int64      `json:"fare_cents"`
	PaymentMethod  string     `json:"payment_method"`
	PassengerCount int        `json:"passenger_count"`
	DepartedAt     time.Time  `json:"departed_at"`
	ArrivedAt      *time.Time `json:"arrived_at,omitempty"`
}

func toResponse(trip Trip) tripResponse {
	return tripResponse{
		ID:             trip.ID,
		SaccoID:        trip.SaccoID,
		VehicleID:      trip.VehicleID,
		DriverID:       trip.DriverID,
		ConductorID:    trip.ConductorID,
		Route:          trip.Route,
		FareCents:      trip.FareCents,
		PaymentMethod:  trip.PaymentMethod,
		PassengerCount: trip.PassengerCount,
		DepartedAt:     trip.DepartedAt,
		ArrivedAt:      trip.ArrivedAt,
	}
}

func payloadToInput(payload tripPayload) Input {
	return Input{
		VehicleID:      payload.VehicleID,
		DriverID:       payload.DriverID,
		ConductorID:    payload.ConductorID,
		Route:          payload.Route,
		FareCents:      payload.FareCents,
		PaymentMethod:  payload.PaymentMethod,
		PassengerCount: payload.PassengerCount,
		DepartedAt:     payload.DepartedAt,
		ArrivedAt:      payload.ArrivedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload tripPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	trip, err := h.service.Create(r.Context(), actor, payloadToInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(trip))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, err := h.service.List(r.Context(), actor, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list trips", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]tripResponse, 0, len(list))
	for _, trip := range list {
		out = append(out, toResponse(trip))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"trips": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	trip, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(trip))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload tripPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	trip, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), payloadToInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(trip))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	if err := h.service.Delete(r.Context(), actor, chi.URLParam(r, "id")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
