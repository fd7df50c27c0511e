package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/matwana/matwana/internal/auth"
	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
	_ "github.com/matwana/matwana/testing"
)

type svcStubRepo struct {
	byEmail map[string]*auth.Identity
	byID    map[string]*auth.Identity
}

func (s *svcStubRepo) FindByEmail(ctx context.Context, email string) (*auth.Identity, error) {
	if ident, ok := s.byEmail[email]; ok {
		return ident, nil
	}
	return nil, shared.ErrNotFound
}

func (s *svcStubRepo) FindByID(ctx context.Context, id string) (*auth.Identity, error) {
	if ident, ok := s.byID[id]; ok {
		return ident, nil
	}
	return nil, shared.ErrNotFound
}

func (s *svcStubRepo) CreateSession(ctx context.Context, id string, userID string, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *svcStubRepo) DeleteSession(ctx context.Context, id string) error { return nil }

func (s *svcStubRepo) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	return nil
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(h)
}

func sessionFor(userID string) *shared.Session {
	sess := &shared.Session{}
	sess.SetUser(userID)
	return sess
}

func TestAuthenticate(t *testing.T) {
	repo := &svcStubRepo{byEmail: map[string]*auth.Identity{
		"admin@sacco.test": {ID: "u-1", Email: "admin@sacco.test", PasswordHash: hashed(t, "hunter22"), Role: "admin", SaccoID: "s-1", IsActive: true},
		"gone@sacco.test":  {ID: "u-2", Email: "gone@sacco.test", PasswordHash: hashed(t, "hunter22"), Role: "admin", SaccoID: "s-1", IsActive: false},
	}}
	svc := auth.NewService(repo)

	if _, err := svc.Authenticate(context.Background(), "admin@sacco.test", "hunter22"); err != nil {
		t.Fatalf("valid credentials: %v", err)
	}

	cases := []struct{ name, email, password string }{
		{"wrong password", "admin@sacco.test", "wrong"},
		{"unknown email", "nobody@sacco.test", "hunter22"},
		{"inactive account", "gone@sacco.test", "hunter22"},
	}
	for _, tc := range cases {
		_, err := svc.Authenticate(context.Background(), tc.email, tc.password)
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("%s: got %v, want ErrInvalidCredentials", tc.name, err)
		}
	}
}

func TestResolve(t *testing.T) {
	repo := &svcStubRepo{byID: map[string]*auth.Identity{
		"u-1": {ID: "u-1", Role: "admin", SaccoID: "s-1", IsActive: true},
		"u-2": {ID: "u-2", Role: "superadmin", IsActive: true},
	}}
	svc := auth.NewService(repo)

	actor, err := svc.Resolve(context.Background(), sessionFor("u-1"))
	if err != nil {
		t.Fatalf("resolve admin: %v", err)
	}
	want := authz.Actor{ID: "u-1", Role: authz.RoleAdmin, SaccoID: "s-1"}
	if actor != want {
		t.Fatalf("resolve admin: got %+v, want %+v", actor, want)
	}

	super, err := svc.Resolve(context.Background(), sessionFor("u-2"))
	if err != nil {
		t.Fatalf("resolve superadmin: %v", err)
	}
	if super.Role != authz.RoleSuperadmin || super.SaccoID != "" {
		t.Fatalf("resolve superadmin: got %+v", super)
	}
}

func TestResolveFailuresAreIndistinguishable(t *testing.T) {
	repo := &svcStubRepo{byID: map[string]*auth.Identity{
		"inactive": {ID: "inactive", Role: "driver", SaccoID: "s-1", IsActive: false},
		"no-sacco": {ID: "no-sacco", Role: "admin", SaccoID: "", IsActive: true},
		"bad-role": {ID: "bad-role", Role: "root", SaccoID: "s-1", IsActive: true},
	}}
	svc := auth.NewService(repo)

	sessions := []*shared.Session{
		nil,
		&shared.Session{},
		sessionFor("missing"),
		sessionFor("inactive"),
		sessionFor("no-sacco"),
		sessionFor("bad-role"),
	}
	for i, sess := range sessions {
		_, err := svc.Resolve(context.Background(), sess)
		if !errors.Is(err, shared.ErrUnauthenticated) {
			t.Errorf("case %d: got %v, want ErrUnauthenticated", i, err)
		}
	}
}
