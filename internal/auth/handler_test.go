package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/matwana/matwana/internal/auth"
	"github.com/matwana/matwana/internal/shared"
	_ "github.com/matwana/matwana/testing"
)

type stubRepo struct {
	identity *auth.Identity
	sessions map[string]string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if s.identity == nil || s.identity.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.identity, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	if s.identity == nil || s.identity.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.identity, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]string)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func (s *stubRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return nil
}

// newAuthRouter mirrors the production router just enough to exercise the
// handler: session load before the handler, commit after.
func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(testLogger(), auth.NewService(repo), sessionManager, csrfManager, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			wrapped := &commitWriter{ResponseWriter: w, commit: func() {
				require.NoError(t, sessionManager.Commit(ctx, w, req, sess))
			}}
			next.ServeHTTP(wrapped, req.WithContext(ctx))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

// commitWriter persists the session before the first header write, the same
// ordering the production middleware guarantees.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.committed {
		w.committed = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededIdentity(t *testing.T, password string) *auth.Identity {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return &auth.Identity{
		ID:           "u-1",
		Name:         "Wanjiku",
		Email:        "wanjiku@example.com",
		PasswordHash: string(hashed),
		Role:         "admin",
		SaccoID:      "sacco-a",
		IsActive:     true,
	}
}

func TestLoginIssuesSessionAndToken(t *testing.T) {
	repo := &stubRepo{identity: seededIdentity(t, "correctpass")}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"wanjiku@example.com","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var payload struct {
		ID        string `json:"id"`
		Role      string `json:"role"`
		SaccoID   string `json:"sacco_id"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &payload))
	require.Equal(t, "u-1", payload.ID)
	require.Equal(t, "admin", payload.Role)
	require.Equal(t, "sacco-a", payload.SaccoID)
	require.NotEmpty(t, payload.CSRFToken)

	var cookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == "test_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.NotEmpty(t, cookie.Value)
	require.Len(t, repo.sessions, 1)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := &stubRepo{identity: seededIdentity(t, "correctpass")}
	router, _ := newAuthRouter(t, repo)

	for _, body := range []string{
		`{"email":"wanjiku@example.com","password":"wrongpass"}`,
		`{"email":"nobody@example.com","password":"correctpass"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)
		require.Equal(t, http.StatusUnauthorized, res.Code)
	}
}

func TestLoginRejectsInactiveAccounts(t *testing.T) {
	identity := seededIdentity(t, "correctpass")
	identity.IsActive = false
	router, _ := newAuthRouter(t, &stubRepo{identity: identity})

	body := `{"email":"wanjiku@example.com","password":"correctpass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeRoundTrip(t *testing.T) {
	repo := &stubRepo{identity: seededIdentity(t, "correctpass")}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"wanjiku@example.com","password":"correctpass"}`
	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, loginReq)
	require.Equal(t, http.StatusOK, loginRes.Code)

	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range loginRes.Result().Cookies() {
		meReq.AddCookie(c)
	}
	meRes := httptest.NewRecorder()
	router.ServeHTTP(meRes, meReq)

	require.Equal(t, http.StatusOK, meRes.Code)
	var me map[string]string
	require.NoError(t, json.Unmarshal(meRes.Body.Bytes(), &me))
	require.Equal(t, "u-1", me["id"])
	require.Equal(t, "admin", me["role"])
	require.Equal(t, "sacco-a", me["sacco_id"])
}
