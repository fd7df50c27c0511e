package remittance

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

// Handler wires HTTP endpoints for remittance collection.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers remittance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Patch("/{id}/status", h.changeStatus)
	r.Delete("/{id}", h.delete)
}

type remittancePayload struct {
	VehicleID   string    `json:"vehicle_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"gt=0"`
	ForDate     time.Time `json:"for_date" validate:"required"`
}

type remittanceResponse struct {
	ID          string     `json:"id"`
	SaccoID     string     `json:"sacco_id"`
	VehicleID   string     `json:"vehicle_id"`
	OwnerID     string     `json:"owner_id"`
	AmountCents int64      `json:"amount_cents"`
	ForDate     time.Time  `json:"for_date"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

func toResponse(remittance Remittance) remittanceResponse {
	return remittanceResponse{
		ID:          remittance.ID,
		SaccoID:     remittance.SaccoID,
		VehicleID:   remittance.VehicleID,
		OwnerID:     remittance.OwnerID,
		AmountCents: remittance.AmountCents,
		ForDate:     remittance.ForDate,
		Status:      string(remittance.Status),
		PaidAt:      remittance.PaidAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload remittancePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	remittance, err := h.service.Create(r.Context(), actor, Input{
		VehicleID:   payload.VehicleID,
		AmountCents: payload.AmountCents,
		ForDate:     payload.ForDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(remittance))
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
		h.logger.Error("list remittances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]remittanceResponse, 0, len(list))
	for _, remittance := range list {
		out = append(out, toResponse(remittance))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"remittances": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	remittance, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(remittance))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload remittancePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	remittance, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), Input{
		AmountCents: payload.AmountCents,
		ForDate:     payload.ForDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(remittance))
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
