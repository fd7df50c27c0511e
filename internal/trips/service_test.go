package trips

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
	trips    map[string]Trip
	lastPred authz.Predicate
}

func (s *stubRepo) Create(ctx context.Context, trip Trip) error {
	s.trips[trip.ID] = trip
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Trip, error) {
	trip, ok := s.trips[id]
	if !ok {
		return Trip{}, shared.ErrNotFound
	}
	return trip, nil
}

func (s *stubRepo) List(ctx context.Context, pred authz.Predicate, page shared.Pagination) ([]Trip, error) {
	s.lastPred = pred
	if pred.MatchNone {
		return nil, nil
	}
	var out []Trip
	for _, trip := range s.trips {
		switch {
		case pred.SaccoID != "" && trip.SaccoID != pred.SaccoID:
		case pred.AssignedID != "" && trip.DriverID != pred.AssignedID && trip.ConductorID != pred.AssignedID:
		default:
			out = append(out, trip)
		}
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, trip Trip) error {
	s.trips[trip.ID] = trip
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	delete(s.trips, id)
	return nil
}

type stubVehicles struct {
	owners map[string][2]string // vehicle id -> owner id, sacco id
}

func (s *stubVehicles) OwnerOf(ctx context.Context, vehicleID string) (string, string, error) {
	pair, ok := s.owners[vehicleID]
	if !ok {
		return "", "", shared.ErrNotFound
	}
	return pair[0], pair[1], nil
}

var (
	admin     = authz.Actor{ID: "adm-1", Role: authz.RoleAdmin, SaccoID: "sacco-a"}
	owner     = authz.Actor{ID: "own-1", Role: authz.RoleOwner, SaccoID: "sacco-a"}
	driver    = authz.Actor{ID: "drv-1", Role: authz.RoleDriver, SaccoID: "sacco-a"}
	conductor = authz.Actor{ID: "cnd-1", Role: authz.RoleConductor, SaccoID: "sacco-a"}
)

func seeded(t *testing.T) (*Service, *stubRepo) {
	t.Helper()
	repo := &stubRepo{trips: map[string]Trip{
		"t-1": {ID: "t-1", SaccoID: "sacco-a", VehicleID: "v-1", DriverID: "drv-1", ConductorID: "cnd-1", Route: "CBD-Rongai", FareCents: 12000},
		"t-2": {ID: "t-2", SaccoID: "sacco-a", VehicleID: "v-2", DriverID: "drv-2", Route: "CBD-Kikuyu", FareCents: 9000},
		"t-3": {ID: "t-3", SaccoID: "sacco-b", VehicleID: "v-3", DriverID: "drv-3", Route: "Town-Estate", FareCents: 5000},
	}}
	vehicles := &stubVehicles{owners: map[string][2]string{
		"v-1": {"own-1", "sacco-a"},
		"v-2": {"own-2", "sacco-a"},
		"v-3": {"own-3", "sacco-b"},
	}}
	return NewService(repo, vehicles, nil), repo
}

func TestCrewLogsOwnTrips(t *testing.T) {
	svc, _ := seeded(t)
	input := Input{VehicleID: "v-1", DriverID: "drv-1", ConductorID: "cnd-1",
		Route: "CBD-Rongai", FareCents: 15000, PassengerCount: 30, DepartedAt: time.Now()}

	trip, err := svc.Create(context.Background(), driver, input)
	require.NoError(t, err)
	require.Equal(t, "sacco-a", trip.SaccoID)
	require.Equal(t, PaymentCash, trip.PaymentMethod)

	_, err = svc.Create(context.Background(), conductor, input)
	require.NoError(t, err)

	// A driver cannot log a trip for another crew.
	input.DriverID = "drv-2"
	input.ConductorID = ""
	_, err = svc.Create(context.Background(), driver, input)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAdminLogsTenantTrips(t *testing.T) {
	svc, _ := seeded(t)
	input := Input{VehicleID: "v-2", DriverID: "drv-2", Route: "CBD-Kikuyu",
		FareCents: 8000, PassengerCount: 14, DepartedAt: time.Now()}

	_, err := svc.Create(context.Background(), admin, input)
	require.NoError(t, err)

	input.VehicleID = "v-3"
	_, err = svc.Create(context.Background(), admin, input)
	require.ErrorIs(t, err, shared.ErrCrossTenant)
}

func TestOwnerReadsThroughVehicle(t *testing.T) {
	svc, _ := seeded(t)

	trip, err := svc.Get(context.Background(), owner, "t-1")
	require.NoError(t, err)
	require.Equal(t, "t-1", trip.ID)

	_, err = svc.Get(context.Background(), owner, "t-2")
	require.ErrorIs(t, err, shared.ErrCrossTenant)

	_, err = svc.Update(context.Background(), owner, "t-1", Input{Route: "x"})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCrewReadsAssignedOnly(t *testing.T) {
	svc, repo := seeded(t)

	_, err := svc.Get(context.Background(), driver, "t-1")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), driver, "t-2")
	require.ErrorIs(t, err, shared.ErrCrossTenant)

	mine, err := svc.List(context.Background(), conductor, shared.Pagination{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, authz.Predicate{AssignedID: "cnd-1"}, repo.lastPred)
}

func TestCrewCannotAmend(t *testing.T) {
	svc, _ := seeded(t)

	_, err := svc.Update(context.Background(), driver, "t-1", Input{Route: "edited"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	err = svc.Delete(context.Background(), driver, "t-1")
	require.ErrorIs(t, err, shared.ErrForbidden)
}
