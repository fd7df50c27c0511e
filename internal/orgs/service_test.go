package orgs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
	_ "github.com/matwana/matwana/testing"
)

type stubRepo struct {
	saccos        map[string]Sacco
	vehicleCounts map[string]int
	staffCounts   map[string]int
	pendingCounts map[string]int
	deleted       []string
	statusUpdates map[string]Status
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		saccos:        make(map[string]Sacco),
		vehicleCounts: make(map[string]int),
		staffCounts:   make(map[string]int),
		pendingCounts: make(map[string]int),
		statusUpdates: make(map[string]Status),
	}
}

func (s *stubRepo) Create(ctx context.Context, sacco Sacco) error {
	s.saccos[sacco.ID] = sacco
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Sacco, error) {
	sacco, ok := s.saccos[id]
	if !ok {
		return Sacco{}, shared.ErrNotFound
	}
	return sacco, nil
}

func (s *stubRepo) List(ctx context.Context, pred authz.Predicate) ([]Sacco, error) {
	if pred.MatchNone {
		return nil, nil
	}
	var out []Sacco
	for _, sacco := range s.saccos {
		if pred.SaccoID != "" && sacco.ID != pred.SaccoID {
			continue
		}
		out = append(out, sacco)
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, sacco Sacco) error {
	if _, ok := s.saccos[sacco.ID]; !ok {
		return shared.ErrNotFound
	}
	s.saccos[sacco.ID] = sacco
	return nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	s.statusUpdates[id] = status
	return nil
}

func (s *stubRepo) CountVehicles(ctx context.Context, saccoID string) (int, error) {
	return s.vehicleCounts[saccoID], nil
}

func (s *stubRepo) CountStaff(ctx context.Context, saccoID string) (int, error) {
	return s.staffCounts[saccoID], nil
}

func (s *stubRepo) CountPendingRemittances(ctx context.Context, saccoID string) (int, error) {
	return s.pendingCounts[saccoID], nil
}

func (s *stubRepo) DeleteCascade(ctx context.Context, saccoID string) error {
	if s.vehicleCounts[saccoID] > 0 {
		return shared.ErrHasDependents
	}
	delete(s.saccos, saccoID)
	s.deleted = append(s.deleted, saccoID)
	return nil
}

var (
	superadmin = authz.Actor{ID: "sa-1", Role: authz.RoleSuperadmin}
	admin      = authz.Actor{ID: "adm-1", Role: authz.RoleAdmin, SaccoID: "sacco-a"}
)

func seeded(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	repo.saccos["sacco-a"] = Sacco{ID: "sacco-a", Name: "Umoja", Status: StatusActive}
	repo.saccos["sacco-b"] = Sacco{ID: "sacco-b", Name: "Pwani", Status: StatusActive}
	return NewService(repo, nil), repo
}

func TestCreateSuperadminOnly(t *testing.T) {
	svc, _ := seeded(t)
	input := CreateInput{Name: "Embu Line", RegistrationNumber: "sacco/123", Location: "Embu",
		ContactPerson: "W. Njeri", Phone: "0700000000", Email: "info@embu.test"}

	sacco, err := svc.Create(context.Background(), superadmin, input)
	require.NoError(t, err)
	require.Equal(t, "SACCO/123", sacco.RegistrationNumber)
	require.Equal(t, StatusActive, sacco.Status)

	_, err = svc.Create(context.Background(), admin, input)
	require.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestUpdateTenancy(t *testing.T) {
	svc, _ := seeded(t)
	input := UpdateInput{Name: "Umoja Express", Location: "Nairobi", ContactPerson: "A. Otieno",
		Phone: "0711111111", Email: "ops@umoja.test"}

	sacco, err := svc.Update(context.Background(), admin, "sacco-a", input)
	require.NoError(t, err)
	require.Equal(t, "Umoja Express", sacco.Name)

	_, err = svc.Update(context.Background(), admin, "sacco-b", input)
	require.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestChangeStatusSuperadminOnly(t *testing.T) {
	svc, repo := seeded(t)

	err := svc.ChangeStatus(context.Background(), admin, "sacco-a", StatusSuspended)
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, repo.statusUpdates)

	require.NoError(t, svc.ChangeStatus(context.Background(), superadmin, "sacco-a", StatusSuspended))
	require.Equal(t, StatusSuspended, repo.statusUpdates["sacco-a"])

	err = svc.ChangeStatus(context.Background(), superadmin, "sacco-a", Status("retired"))
	require.Error(t, err)
}

func TestDelete(t *testing.T) {
	svc, repo := seeded(t)

	// Admins never delete saccos, their own included.
	err := svc.Delete(context.Background(), admin, "sacco-a")
	require.ErrorIs(t, err, shared.ErrForbidden)

	// Vehicles block deletion with a distinct reason.
	repo.vehicleCounts["sacco-b"] = 3
	err = svc.Delete(context.Background(), superadmin, "sacco-b")
	require.ErrorIs(t, err, shared.ErrHasDependents)
	require.Empty(t, repo.deleted)

	// An empty sacco goes away along with its users.
	require.NoError(t, svc.Delete(context.Background(), superadmin, "sacco-a"))
	require.Equal(t, []string{"sacco-a"}, repo.deleted)
}

func TestOverview(t *testing.T) {
	svc, repo := seeded(t)
	repo.vehicleCounts["sacco-a"] = 12
	repo.staffCounts["sacco-a"] = 30
	repo.pendingCounts["sacco-a"] = 4

	overview, err := svc.GetOverview(context.Background(), admin, "sacco-a")
	require.NoError(t, err)
	require.Equal(t, 12, overview.VehicleCount)
	require.Equal(t, 30, overview.StaffCount)
	require.Equal(t, 4, overview.PendingRemittances)

	_, err = svc.GetOverview(context.Background(), admin, "sacco-b")
	require.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestListScope(t *testing.T) {
	svc, _ := seeded(t)

	all, err := svc.List(context.Background(), superadmin)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "sacco-a", mine[0].ID)

	driver := authz.Actor{ID: "drv-1", Role: authz.RoleDriver, SaccoID: "sacco-a"}
	none, err := svc.List(context.Background(), driver)
	require.NoError(t, err)
	require.Empty(t, none)
}
