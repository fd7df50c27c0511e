package vehicles

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Handler wires HTTP endpoints for vehicle management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers vehicle routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.changeStatus)
	r.Put("/{id}/drivers", h.setDrivers)
	r.Delete("/{id}", h.delete)
}

type vehiclePayload struct {
	SaccoID            string    `json:"sacco_id" validate:"required"`
	RegistrationNumber string    `json:"registration_number" validate:"required"`
	Make               string    `json:"make" validate:"required"`
	Model              string    `json:"model" validate:"required"`
	Year               int       `json:"year" validate:"gte=1990"`
	Capacity           int       `json:"capacity" validate:"gte=1"`
	OwnerID            string    `json:"owner_id" validate:"required"`
	Route              string    `json:"route" validate:"required"`
	InsuranceExpiry    time.Time `json:"insurance_expiry" validate:"required"`
	InspectionExpiry   time.Time `json:"inspection_expiry" validate:"required"`
}

type vehicleResponse struct {
	ID                 string    `json:"id"`
	SaccoID            string    `json:"sacco_id"`
	RegistrationNumber string    `json:"registration_number"`
	Make               string    `json:"make"`
	Model              string    `json:"model"`
	Year               int       `json:"year"`
	Capacity           int       `json:"capacity"`
	OwnerID            string    `json:"owner_id"`
	DriverIDs          []string  `json:"driver_ids"`
	Route              string    `json:"route"`
	Status             string    `json:"status"`
	InsuranceExpiry    time.Time `json:"insurance_expiry"`
	InspectionExpiry   time.Time `json:"inspection_expiry"`
}

func toResponse(vehicle Vehicle) vehicleResponse {
	driverIDs := vehicle.DriverIDs
	if driverIDs == nil {
		driverIDs = []string{}
	}
	return vehicleResponse{
		ID:                 vehicle.ID,
		SaccoID:            vehicle.SaccoID,
		RegistrationNumber: vehicle.RegistrationNumber,
		Make:               vehicle.Make,
		Model:              vehicle.Model,
		Year:               vehicle.Year,
		Capacity:           vehicle.Capacity,
		OwnerID:            vehicle.OwnerID,
		DriverIDs:          driverIDs,
		Route:              vehicle.Route,
		Status:             string(vehicle.Status),
		InsuranceExpiry:    vehicle.InsuranceExpiry,
		InspectionExpiry:   vehicle.InspectionExpiry,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload vehiclePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vehicle, err := h.service.Create(r.Context(), actor, payloadToInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(vehicle))
}

func payloadToInput(payload vehiclePayload) Input {
	return Input{
		SaccoID:            payload.SaccoID,
		RegistrationNumber: payload.RegistrationNumber,
		Make:               payload.Make,
		Model:              payload.Model,
		Year:               payload.Year,
		Capacity:           payload.Capacity,
		OwnerID:            payload.OwnerID,
		Route:              payload.Route,
		InsuranceExpiry:    payload.InsuranceExpiry,
		InspectionExpiry:   payload.InspectionExpiry,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	list, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list vehicles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]vehicleResponse, 0, len(list))
	for _, vehicle := range list {
		out = append(out, toResponse(vehicle))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"vehicles": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	vehicle, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(vehicle))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload vehiclePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	vehicle, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), payloadToInput(payload))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(vehicle))
}

type statusPayload struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload statusPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	status := Status(payload.Status)
	if !status.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "unknown status")
		return
	}
	if err := h.service.ChangeStatus(r.Context(), actor, chi.URLParam(r, "id"), status); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": payload.Status})
}

type driversPayload struct {
	DriverIDs []string `json:"driver_ids" validate:"required"`
}

func (h *Handler) setDrivers(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload driversPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	vehicle, err := h.service.SetDrivers(r.Context(), actor, chi.URLParam(r, "id"), payload.DriverIDs)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(vehicle))
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
