package auth

import (
	"log/slog"
	"net/http"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/platform/httpx"
	"github.com/matwana/matwana/internal/shared"
)

// Middleware resolves the actor for authenticated routes.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireActor resolves the session into an actor and stores it in the
// request context. Requests without a resolvable actor get 401.
func (m Middleware) RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		actor, err := m.Service.Resolve(r.Context(), sess)
		if err != nil {
			httpx.RespondError(w, shared.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole ensures the resolved actor holds one of the given roles.
// It assumes RequireActor already ran.
func (m Middleware) RequireRole(roles ...authz.Role) func(http.Handler) http.Handler {
	allowed := make(map[authz.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := shared.ActorFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthenticated)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				if m.Logger != nil {
					m.Logger.Warn("role denied", slog.String("actor", actor.ID), slog.String("role", string(actor.Role)), slog.String("path", r.URL.Path))
				}
				httpx.RespondError(w, shared.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
