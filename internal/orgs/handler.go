package orgs

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Handler wires HTTP endpoints for sacco management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers sacco routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/overview", h.overview)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.changeStatus)
	r.Delete("/{id}", h.delete)
}

type saccoPayload struct {
	Name               string  `json:"name" validate:"required"`
	RegistrationNumber string  `json:"registration_number" validate:"required"`
	Location           string  `json:"location" validate:"required"`
	ContactPerson      string  `json:"contact_person" validate:"required"`
	Phone              string  `json:"phone" validate:"required"`
	Email              string  `json:"email" validate:"required,email"`
	CommissionRate     float64 `json:"commission_rate" validate:"gte=0,lte=100"`
}

type saccoResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	RegistrationNumber string  `json:"registration_number"`
	Location           string  `json:"location"`
	ContactPerson      string  `json:"contact_person"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	CommissionRate     float64 `json:"commission_rate"`
	Status             string  `json:"status"`
}

func toResponse(sacco Sacco) saccoResponse {
	return saccoResponse{
		ID:                 sacco.ID,
		Name:               sacco.Name,
		RegistrationNumber: sacco.RegistrationNumber,
		Location:           sacco.Location,
		ContactPerson:      sacco.ContactPerson,
		Phone:              sacco.Phone,
		Email:              sacco.Email,
		CommissionRate:     sacco.CommissionRate,
		Status:             string(sacco.Status),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload saccoPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sacco, err := h.service.Create(r.Context(), actor, CreateInput{
		Name:               payload.Name,
		RegistrationNumber: payload.RegistrationNumber,
		Location:           payload.Location,
		ContactPerson:      payload.ContactPerson,
		Phone:              payload.Phone,
		Email:              payload.Email,
		CommissionRate:     payload.CommissionRate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(sacco))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	saccos, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list saccos", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]saccoResponse, 0, len(saccos))
	for _, sacco := range saccos {
		out = append(out, toResponse(sacco))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"saccos": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	sacco, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sacco))
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	overview, err := h.service.GetOverview(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("sacco overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"sacco":               toResponse(overview.Sacco),
		"vehicle_count":       overview.VehicleCount,
		"staff_count":         overview.StaffCount,
		"pending_remittances": overview.PendingRemittances,
	})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload saccoPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	sacco, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), UpdateInput{
		Name:           payload.Name,
		Location:       payload.Location,
		ContactPerson:  payload.ContactPerson,
		Phone:          payload.Phone,
		Email:          payload.Email,
		CommissionRate: payload.CommissionRate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(sacco))
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
