package trips

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// VehicleDirectory resolves the vehicle a trip references. The vehicles
// service satisfies it.
type VehicleDirectory interface {
	OwnerOf(ctx context.Context, vehicleID string) (ownerID, saccoID string, err error)
}

// Service orchestrates trip logging under the access policy.
type Service struct {
	repo     Repository
	vehicles VehicleDirectory
	audit    *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, vehicles VehicleDirectory, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, vehicles: vehicles, audit: audit}
}

func (s *Service) descriptor(ctx context.Context, trip Trip) (authz.Resource, error) {
	ownerID, _, err := s.vehicles.OwnerOf(ctx, trip.VehicleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return authz.Resource{}, err
	}
	return authz.Resource{
		Kind:        authz.KindTrip,
		SaccoID:     trip.SaccoID,
		OwnerID:     ownerID,
		AssignedIDs: []string{trip.DriverID, trip.ConductorID},
		DriverID:    trip.DriverID,
		ConductorID: trip.ConductorID,
	}, nil
}

// Input carries the fields for logging or correcting a trip.
type Input struct {
	VehicleID      string
	DriverID       string
	ConductorID    string
	Route          string
	FareCents      int64
	PaymentMethod  string
	PassengerCount int
	DepartedAt     time.Time
	ArrivedAt      *time.Time
}

// Create logs a trip. Admins log trips for any crew in their sacco; drivers
// and conductors may only log trips that list themselves.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (Trip, error) {
	_, saccoID, err := s.vehicles.OwnerOf(ctx, input.VehicleID)
	if err != nil {
		return Trip{}, err
	}
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{
		Kind:        authz.KindTrip,
		SaccoID:     saccoID,
		DriverID:    input.DriverID,
		ConductorID: input.ConductorID,
	})
	if err := shared.DecisionError(decision); err != nil {
		return Trip{}, err
	}
	method := input.PaymentMethod
	if method == "" {
		method = PaymentCash
	}
	now := time.Now().UTC()
	trip := Trip{
		ID:             uuid.NewString(),
		SaccoID:        saccoID,
		VehicleID:      input.VehicleID,
		DriverID:       input.DriverID,
		ConductorID:    input.ConductorID,
		Route:          strings.TrimSpace(input.Route),
		FareCents:      input.FareCents,
		PaymentMethod:  method,
		PassengerCount: input.PassengerCount,
		DepartedAt:     input.DepartedAt,
		ArrivedAt:      input.ArrivedAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, trip); err != nil {
		return Trip{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: trip.SaccoID,
		Action: "logged_trip", Entity: "trip", EntityID: trip.ID,
		Meta: map[string]any{"vehicle_id": trip.VehicleID, "fare_cents": trip.FareCents},
	})
	return trip, nil
}

// Get fetches a trip the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Trip, error) {
	trip, err := s.repo.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	res, err := s.descriptor(ctx, trip)
	if err != nil {
		return Trip{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpRead, res)); err != nil {
		return Trip{}, err
	}
	return trip, nil
}

// List returns the trips visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor authz.Actor, page shared.Pagination) ([]Trip, error) {
	return s.repo.List(ctx, authz.ScopeFilter(actor, authz.KindTrip), page)
}

// Update corrects a logged trip. Crew cannot amend trips after the fact.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (Trip, error) {
	trip, err := s.repo.Get(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	res, err := s.descriptor(ctx, trip)
	if err != nil {
		return Trip{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, res)); err != nil {
		return Trip{}, err
	}
	trip.Route = strings.TrimSpace(input.Route)
	trip.FareCents = input.FareCents
	if input.PaymentMethod != "" {
		trip.PaymentMethod = input.PaymentMethod
	}
	trip.PassengerCount = input.PassengerCount
	trip.DepartedAt = input.DepartedAt
	trip.ArrivedAt = input.ArrivedAt
	trip.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, trip); err != nil {
		return Trip{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: trip.SaccoID,
		Action: "corrected_trip", Entity: "trip", EntityID: trip.ID,
	})
	return trip, nil
}

// Delete removes a trip record.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	trip, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.descriptor(ctx, trip)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpDelete, res)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: trip.SaccoID,
		Action: "deleted_trip", Entity: "trip", EntityID: id,
	})
	return nil
}
