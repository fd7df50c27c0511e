package records

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
	records  map[string]Record
	lastPred authz.Predicate
}

func (s *stubRepo) Create(ctx context.Context, record Record) error {
	s.records[record.ID] = record
	return nil
}

func (s *stubRepo) Get(ctx context.Context, id string) (Record, error) {
	record, ok := s.records[id]
	if !ok {
		return Record{}, shared.ErrNotFound
	}
	return record, nil
}

func (s *stubRepo) List(ctx context.Context, recordType Type, pred authz.Predicate, page shared.Pagination) ([]Record, error) {
	s.lastPred = pred
	if pred.MatchNone {
		return nil, nil
	}
	var out []Record
	for _, record := range s.records {
		if record.Type != recordType {
			continue
		}
		if pred.SaccoID != "" && record.SaccoID != pred.SaccoID {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func (s *stubRepo) Update(ctx context.Context, record Record) error {
	s.records[record.ID] = record
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, id string) error {
	delete(s.records, id)
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
	repo := &stubRepo{records: map[string]Record{
		"r-1": {ID: "r-1", SaccoID: "sacco-a", VehicleID: "v-1", Type: TypeFuel, CostCents: 450000, Liters: 60},
		"r-2": {ID: "r-2", SaccoID: "sacco-a", VehicleID: "v-2", Type: TypeMaintenance, CostCents: 1200000},
	}}
	vehicles := &stubVehicles{owners: map[string][2]string{
		"v-1": {"own-1", "sacco-a"},
		"v-2": {"own-2", "sacco-a"},
		"v-3": {"own-3", "sacco-b"},
	}}
	return NewService(repo, vehicles, nil), repo
}

func TestCreateScopedToTenant(t *testing.T) {
	svc, _ := seeded(t)
	input := Input{VehicleID: "v-1", Type: TypeFuel, Description: "diesel top-up",
		CostCents: 500000, Liters: 65, RecordedAt: time.Now()}

	record, err := svc.Create(context.Background(), admin, input)
	require.NoError(t, err)
	require.Equal(t, "sacco-a", record.SaccoID)

	input.VehicleID = "v-3"
	_, err = svc.Create(context.Background(), admin, input)
	require.ErrorIs(t, err, shared.ErrCrossTenant)

	input.VehicleID = "v-1"
	input.Type = "insurance"
	_, err = svc.Create(context.Background(), admin, input)
	require.Error(t, err)
}

func TestOwnerReadsOwnVehicleRecords(t *testing.T) {
	svc, _ := seeded(t)

	record, err := svc.Get(context.Background(), owner, "r-1")
	require.NoError(t, err)
	require.Equal(t, TypeFuel, record.Type)

	_, err = svc.Get(context.Background(), owner, "r-2")
	require.ErrorIs(t, err, shared.ErrCrossTenant)

	_, err = svc.Update(context.Background(), owner, "r-1", Input{Description: "edit"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(context.Background(), owner, Input{VehicleID: "v-1", Type: TypeFuel, RecordedAt: time.Now()})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCrewHasNoRecordAccess(t *testing.T) {
	svc, repo := seeded(t)

	_, err := svc.Get(context.Background(), driver, "r-1")
	require.ErrorIs(t, err, shared.ErrForbidden)

	list, err := svc.List(context.Background(), driver, TypeFuel, shared.Pagination{})
	require.NoError(t, err)
	require.Empty(t, list)
	require.True(t, repo.lastPred.MatchNone)
}

func TestOwnerListJoinsThroughVehicle(t *testing.T) {
	svc, repo := seeded(t)

	_, err := svc.List(context.Background(), owner, TypeMaintenance, shared.Pagination{})
	require.NoError(t, err)
	require.Equal(t, authz.Predicate{OwnerID: "own-1"}, repo.lastPred)
}
