package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Handler wires the audit timeline endpoint.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
}

type entryResponse struct {
	ID         int64          `json:"id"`
	ActorID    string         `json:"actor_id"`
	SaccoID    string         `json:"sacco_id,omitempty"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta,omitempty"`
	IP         string         `json:"ip,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, shared.ErrUnauthenticated)
		return
	}
	query := Query{
		Entity: r.URL.Query().Get("entity"),
		Action: r.URL.Query().Get("action"),
	}
	if raw := r.URL.Query().Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "before must be RFC 3339")
			return
		}
		query.Before = before
	}
	query.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.service.Timeline(r.Context(), actor, query)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(page.Entries))
	for _, entry := range page.Entries {
		out = append(out, entryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			SaccoID:    entry.SaccoID,
			Action:     entry.Action,
			Entity:     entry.Entity,
			EntityID:   entry.EntityID,
			Meta:       entry.Meta,
			IP:         entry.IP,
			OccurredAt: entry.OccurredAt,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": out, "has_next": page.HasNext})
}
