package remittance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
	_ "github.com/matwana/matwana/testing"
)

type stubRepo struct {
	remittances map[string]Remittance
	lastPred    authz.Predicate
}

func (s *stubRepo) Create(ctx context.Context, remittance Remittance) error {
	s.remittances[remittance.ID] = remittance
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Remittance, error) {
	remittance, ok := s.remittances[id]
	if !ok {
		return Remittance{}, shared.ErrNotFound
	}
	return remittance, nil
}

func (s *stubRepo) List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Remittance, error) {
	s.lastPred = pred
	if pred.MatchNone {
		return nil, nil
	}
	var out []Remittance
	for _, remittance := range s.remittances {
		switch {
		case pred.SaccoID != "" && remittance.SaccoID != pred.SaccoID:
		case pred.OwnerID != "" && remittance.OwnerID != pred.OwnerID:
		default:
			out = append(out, remittance)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, remittance Remittance) error {
	s.remittances[remittance.ID] = remittance
	return nil
}

func (s *stubRepo) UpdateStatus(ctx context.Context, id string, status Status, paidAt *time.Time) error {
	remittance := s.remittances[id]
	remittance.Status = status
	remittance.PaidAt = paidAt
	s.remittances[id] = remittance
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	delete(s.remittances, id)
	return nil
}

type stubVehicles struct {
	owners map[string][2]string
}

func (s *stubVehicles) OwnerOf(ctx context.Context, vehicleID string) (string, string, error) {
	pair, ok := s.owners[vehicleID]
	if !ok {
		return "", "", shared.ErrNotFound
	}
	return pair[0], pair[1], nil
}

var (
	admin  = authz.Actor{ID: "adm-1", Role: authz.RoleAdmin, SaccoID: "sacco-a"}
	owner  = authz.Actor{ID: "own-1", Role: authz.RoleOwner, SaccoID: "sacco-a"}
	driver = authz.Actor{ID: "drv-1", Role: authz.RoleDriver, SaccoID: "sacco-a"}
)

func seeded(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	repo := &stubRepo{remittances: map[string]Remittance{
		"rem-1": {ID: "rem-1", SaccoID: "sacco-a", VehicleID: "v-1", OwnerID: "own-1", AmountCents: 300000, Status: StatusPending},
		"rem-2": {ID: "rem-2", SaccoID: "sacco-a", VehicleID: "v-2", OwnerID: "own-2", AmountCents: 300000, Status: StatusPaid},
	}}
	vehicles := &stubVehicles{owners: map[string][2]string{
		"v-1": {"own-1", "sacco-a"},
		"v-3": {"own-3", "sacco-b"},
	}}
	return NewService(repo, vehicles, nil), repo
}

func TestCreatePinsOwner(t *testing.T) {
	svc, _ := seeded(t)
	input := Input{VehicleID: "v-1", AmountCents: 250000, ForDate: time.Now()}

	remittance, err := svc.Create(context.Background(), admin, input)
	require.NoError(t, err)
	require.Equal(t, "own-1", remittance.OwnerID)
	require.Equal(t, StatusPending, remittance.Status)

	input.VehicleID = "v-3"
	_, err = svc.Create(context.Background(), admin, input)
	require.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestOwnerReadOnly(t *testing.T) {
	svc, repo := seeded(t)

	remittance, err := svc.Get(context.Background(), owner, "rem-1")
	require.NoError(t, err)
	require.Equal(t, "rem-1", remittance.ID)

	_, err = svc.Get(context.Background(), owner, "rem-2")
	require.ErrorIs(t, err, shared.ErrCrossTenant)

	err = svc.ChangeStatus(context.Background(), owner, "rem-1", StatusPaid)
	require.ErrorIs(t, err, shared.ErrForbidden)

	list, err := svc.List(context.Background(), owner, shared.Pagination{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, authz.Predicate{OwnerID: "own-1"}, repo.lastPred)
}

func TestCrewHasNoRemittanceAccess(t *testing.T) {
	svc, repo := seeded(t)

	_, err := svc.Get(context.Background(), driver, "rem-1")
	require.ErrorIs(t, err, shared.ErrForbidden)

	list, err := svc.List(context.Background(), driver, shared.Pagination{})
	require.NoError(t, err)
	require.Empty(t, list)
	require.True(t, repo.lastPred.MatchNone)
}

func TestSettlementStampsPaidAt(t *testing.T) {
	svc, repo := seeded(t)

	require.NoError(t, svc.ChangeStatus(context.Background(), admin, "rem-1", StatusPaid))
	require.Equal(t, StatusPaid, repo.remittances["rem-1"].Status)
	require.NotNil(t, repo.remittances["rem-1"].PaidAt)

	require.NoError(t, svc.ChangeStatus(context.Background(), admin, "rem-1", StatusPending))
	require.Nil(t, repo.remittances["rem-1"].PaidAt)
}

func TestPaidRemittanceCannotBeAmended(t *testing.T) {
	svc, _ := seeded(t)

	_, err := svc.Update(context.Background(), admin, "rem-2", Input{AmountCents: 1, ForDate: time.Now()})
	require.Error(t, err)
}
