package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	ident, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !ident.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return ident, nil
}

// Resolve materialises the actor for the session. Every failure mode (no
// session, unknown user, deactivated account, corrupt stored role, stored
// identity violating the tenancy invariant) yields the same
// ErrUnauthenticated, so callers cannot tell a disabled account from an
// invalid token.
func (s *Service) Resolve(ctx context.Context, sess *shared.Session) (authz.Actor, error) {
	if sess == nil || sess.User() == "" {
		return authz.Actor{}, shared.ErrUnauthenticated
	}
	ident, err := s.repo.FindByID(ctx, sess.User())
	if err != nil {
		return authz.Actor{}, shared.ErrUnauthenticated
	}
	if !ident.IsActive {
		return authz.Actor{}, shared.ErrUnauthenticated
	}
	role, err := authz.ParseRole(ident.Role)
	if err != nil {
		return authz.Actor{}, shared.ErrUnauthenticated
	}
	actor := authz.Actor{ID: ident.ID, Role: role, SaccoID: ident.SaccoID}
	// A non-superadmin row without a sacco must never resolve; treating it
	// as tenantless would make it superadmin-equivalent.
	if err := actor.Validate(); err != nil {
		return authz.Actor{}, shared.ErrUnauthenticated
	}
	return actor, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// TouchLastLogin records the login timestamp, best-effort.
func (s *Service) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return s.repo.TouchLastLogin(ctx, userID, at)
}
