package records

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

// Handler wires HTTP endpoints for fuel and maintenance records. It is
// mounted twice, once per record type.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	recordType Type
	validator  *validator.Validate
}

// NewHandler constructs a Handler bound to one record type.
func NewHandler(logger *slog.Logger, service *Service, recordType Type) *Handler {
	return &Handler{logger: logger, service: service, recordType: recordType, validator: validator.New()}
}

// MountRoutes registers record routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type recordPayload struct {
	VehicleID   string    `json:"vehicle_id" validate:"required"`
	Description string    `json:"description" validate:"required"`
	CostCents   int64     `json:"cost_cents" validate:"gte=0"`
	Liters      float64   `json:"liters" validate:"gte=0"`
	OdometerKM  int       `json:"odometer_km" validate:"gte=0"`
	RecordedAt  time.Time `json:"recorded_at" validate:"required"`
}

type recordResponse struct {
	ID          string    `json:"id"`
	SaccoID     string    `json:"sacco_id"`
	VehicleID   string    `json:"vehicle_id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CostCents   int64     `json:"cost_cents"`
	Liters      float64   `json:"liters,omitempty"`
	OdometerKM  int       `json:"odometer_km"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toResponse(record Record) recordResponse {
	return recordResponse{
		ID:          record.ID,
		SaccoID:     record.SaccoID,
		VehicleID:   record.VehicleID,
		Type:        string(record.Type),
		Description: record.Description,
		CostCents:   record.CostCents,
		Liters:      record.Liters,
		OdometerKM:  record.OdometerKM,
		RecordedAt:  record.RecordedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload recordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.Create(r.Context(), actor, Input{
		VehicleID:   payload.VehicleID,
		Type:        h.recordType,
		Description: payload.Description,
		CostCents:   payload.CostCents,
		Liters:      payload.Liters,
		OdometerKM:  payload.OdometerKM,
		RecordedAt:  payload.RecordedAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(record))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	list, err := h.service.List(r.Context(), actor, h.recordType, shared.Pagination{Page: page, PerPage: perPage})
	if err != nil {
		h.logger.Error("list records", slog.String("type", string(h.recordType)), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]recordResponse, 0, len(list))
	for _, record := range list {
		out = append(out, toResponse(record))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"records": out})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	record, err := h.service.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(record))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	var payload recordPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed json body")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	record, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), Input{
		Description: payload.Description,
		CostCents:   payload.CostCents,
		Liters:      payload.Liters,
		OdometerKM:  payload.OdometerKM,
		RecordedAt:  payload.RecordedAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(record))
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
