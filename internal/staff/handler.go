package staff

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Handler wires HTTP endpoints for staff management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers staff routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.changeStatus)
}

type createPayload struct {
	SaccoID    string   `json:"sacco_id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Phone      string   `json:"phone" validate:"required"`
	Role       string   `json:"role" validate:"required"`
	Password   string   `json:"password" validate:"required,min=8"`
	VehicleIDs []string `json:"vehicle_ids"`
}

type updatePayload struct {
	Name       string   `json:"name" validate:"required"`
	Phone      string   `json:"phone" validate:"required"`
	Role       string   `json:"role"`
	VehicleIDs []string `json:"vehicle_ids"`
}

type memberResponse struct {
	ID         string     `json:"id"`
	SaccoID    string     `json:"sacco_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Role       string     `json:"role"`
	VehicleIDs []string   `json:"vehicle_ids"`
	IsActive   bool       `json:"is_active"`
	LastLogin  *time.Time `json:"last_login,omitempty"`
}

func toResponse(member Member) memberResponse {
	vehicleIDs := member.VehicleIDs
	if vehicleIDs == nil {
		vehicleIDs = []string{}
	}
	return memberResponse{
		ID:         member.ID,
		SaccoID:    member.SaccoID,
		Name:       member.Name,
		Email:      member.Email,
		Phone:      member.Phone,
		Role:       member.Role,
		VehicleIDs: vehicleIDs,
		IsActive:   member.IsActive,
		LastLogin:  member.LastLogin,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload createPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	member, err := h.service.Create(r.Context(), actor, Input{
		SaccoID:    payload.SaccoID,
		Name:       payload.Name,
		Email:      payload.Email,
		Phone:      payload.Phone,
		Role:       payload.Role,
		Password:   payload.Password,
		VehicleIDs: payload.VehicleIDs,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(member))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	members, err := h.service.List(r.Context(), actor)
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]memberResponse, 0, len(members))
	for _, member := range members {
		out = append(out, toResponse(member))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"staff": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	member, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(member))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload updatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	member, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), Input{
		Name:       payload.Name,
		Phone:      payload.Phone,
		Role:       payload.Role,
		VehicleIDs: payload.VehicleIDs,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(member))
}

type statusPayload struct {
	Active *bool `json:"active" validate:"required"`
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
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangeStatus(r.Context(), actor, chi.URLParam(r, "id"), *payload.Active); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"active": *payload.Active})
}
