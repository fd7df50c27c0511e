package vehicles

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Service orchestrates vehicle management under the access policy.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) descriptor(vehicle Vehicle) authz.Resource {
	return authz.Resource{
		Kind:        authz.KindVehicle,
		SaccoID:     vehicle.SaccoID,
		OwnerID:     vehicle.OwnerID,
		AssignedIDs: vehicle.DriverIDs,
	}
}

// Input carries the fields for creating or updating a vehicle.
type Input struct {
	SaccoID            string
	RegistrationNumber string
	Make               string
	Model              string
	Year               int
	Capacity           int
	OwnerID            string
	Route              string
	InsuranceExpiry    time.Time
	InspectionExpiry   time.Time
}

// Create registers a vehicle under a sacco.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (Vehicle, error) {
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{Kind: authz.KindVehicle, SaccoID: input.SaccoID})
	if err := shared.DecisionError(decision); err != nil {
		return Vehicle{}, err
	}
	now := time.Now().UTC()
	vehicle := Vehicle{
		ID:                 uuid.NewString(),
		SaccoID:            input.SaccoID,
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(input.RegistrationNumber)),
		Make:               strings.TrimSpace(input.Make),
		Model:              strings.TrimSpace(input.Model),
		Year:               input.Year,
		Capacity:           input.Capacity,
		OwnerID:            input.OwnerID,
		DriverIDs:          []string{},
		Route:              strings.TrimSpace(input.Route),
		Status:             StatusActive,
		InsuranceExpiry:    input.InsuranceExpiry,
		InspectionExpiry:   input.InspectionExpiry,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		return Vehicle{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: vehicle.SaccoID,
		Action: "created_vehicle", Entity: "vehicle", EntityID: vehicle.ID,
		Meta: map[string]any{"registration_number": vehicle.RegistrationNumber},
	})
	return vehicle, nil
}

// Get fetches a vehicle the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpRead, s.descriptor(vehicle))); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

// List returns the vehicles visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Vehicle, error) {
	return s.repo.List(ctx, authz.ScopeFilter(actor, authz.KindVehicle))
}

// Update rewrites the mutable vehicle fields.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, s.descriptor(vehicle))); err != nil {
		return Vehicle{}, err
	}
	vehicle.Make = strings.TrimSpace(input.Make)
	vehicle.Model = strings.TrimSpace(input.Model)
	vehicle.Year = input.Year
	vehicle.Capacity = input.Capacity
	vehicle.OwnerID = input.OwnerID
	vehicle.Route = strings.TrimSpace(input.Route)
	vehicle.InsuranceExpiry = input.InsuranceExpiry
	vehicle.InspectionExpiry = input.InspectionExpiry
	if err := s.repo.Update(ctx, vehicle); err != nil {
		return Vehicle{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: vehicle.SaccoID,
		Action: "updated_vehicle", Entity: "vehicle", EntityID: vehicle.ID,
	})
	return vehicle, nil
}

// ChangeStatus flips the vehicle operational state.
func (s *Service) ChangeStatus(ctx context.Context, actor authz.Actor, id string, status Status) error {
	if !status.Valid() {
		return errors.New("vehicles: invalid status")
	}
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpChangeStatus, s.descriptor(vehicle))); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: vehicle.SaccoID,
		Action: "changed_vehicle_status", Entity: "vehicle", EntityID: id,
		Meta: map[string]any{"status": string(status)},
	})
	return nil
}

// Delete removes a vehicle.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpDelete, s.descriptor(vehicle))); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: vehicle.SaccoID,
		Action: "deleted_vehicle", Entity: "vehicle", EntityID: id,
		Meta: map[string]any{"registration_number": vehicle.RegistrationNumber},
	})
	return nil
}

// SetDrivers replaces the driver/conductor roster for a vehicle.
func (s *Service) SetDrivers(ctx context.Context, actor authz.Actor, id string, driverIDs []string) (Vehicle, error) {
	vehicle, err := s.repo.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, s.descriptor(vehicle))); err != nil {
		return Vehicle{}, err
	}
	unique := make([]string, 0, len(driverIDs))
	seen := make(map[string]struct{}, len(driverIDs))
	for _, driverID := range driverIDs {
		driverID = strings.TrimSpace(driverID)
		if driverID == "" {
			continue
		}
		if _, ok := seen[driverID]; ok {
			continue
		}
		seen[driverID] = struct{}{}
		unique = append(unique, driverID)
	}
	if err := s.repo.SetDrivers(ctx, id, unique); err != nil {
		return Vehicle{}, err
	}
	vehicle.DriverIDs = unique
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: vehicle.SaccoID,
		Action: "assigned_drivers", Entity: "vehicle", EntityID: id,
		Meta: map[string]any{"driver_ids": unique},
	})
	return vehicle, nil
}

// OwnerOf reports the owner for a vehicle; record services use it to resolve
// transitive ownership before asking for a decision.
func (s *Service) OwnerOf(ctx context.Context, vehicleID string) (string, string, error) {
	vehicle, err := s.repo.Get(ctx, vehicleID)
	if err != nil {
		return "", "", err
	}
	return vehicle.OwnerID, vehicle.SaccoID, nil
}
