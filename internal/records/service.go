package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// VehicleDirectory resolves the vehicle a record references. The vehicles
// service satisfies it.
type VehicleDirectory interface {
	OwnerOf(ctx context.Context, vehicleID string) (ownerID, saccoID string, err error)
}

// Service orchestrates fuel and maintenance bookkeeping under the access
// policy.
type Service struct {
	repo     Repository
	vehicles VehicleDirectory
	audit    *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, vehicles VehicleDirectory, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, vehicles: vehicles, audit: audit}
}

func (s *Service) descriptor(ctx context.Context, record Record) (authz.Resource, error) {
	ownerID, _, err := s.vehicles.OwnerOf(ctx, record.VehicleID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return authz.Resource{}, err
	}
	return authz.Resource{
		Kind:    record.Type.Kind(),
		SaccoID: record.SaccoID,
		OwnerID: ownerID,
	}, nil
}

// Input carries the fields for creating or amending a record.
type Input struct {
	VehicleID   string
	Type        Type
	Description string
	CostCents   int64
	Liters      float64
	OdometerKM  int
	RecordedAt  time.Time
}

// Create books a fuel or maintenance record against a vehicle.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (Record, error) {
	if !input.Type.Valid() {
		return Record{}, errors.New("records: unknown record type")
	}
	ownerID, saccoID, err := s.vehicles.OwnerOf(ctx, input.VehicleID)
	if err != nil {
		return Record{}, err
	}
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{
		Kind:    input.Type.Kind(),
		SaccoID: saccoID,
		OwnerID: ownerID,
	})
	if err := shared.DecisionError(decision); err != nil {
		return Record{}, err
	}
	now := time.Now().UTC()
	record := Record{
		ID:          uuid.NewString(),
		SaccoID:     saccoID,
		VehicleID:   input.VehicleID,
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		CostCents:   input.CostCents,
		Liters:      input.Liters,
		OdometerKM:  input.OdometerKM,
		RecordedAt:  input.RecordedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return Record{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: record.SaccoID,
		Action: "booked_" + string(record.Type), Entity: string(record.Type), EntityID: record.ID,
		Meta: map[string]any{"vehicle_id": record.VehicleID, "cost_cents": record.CostCents},
	})
	return record, nil
}

// Get fetches a record the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Record, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	res, err := s.descriptor(ctx, record)
	if err != nil {
		return Record{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpRead, res)); err != nil {
		return Record{}, err
	}
	return record, nil
}

// List returns records of one type visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor authz.Actor, recordType Type, page shared.Pagination) ([]Record, error) {
	if !recordType.Valid() {
		return nil, errors.New("records: unknown record type")
	}
	return s.repo.List(ctx, recordType, authz.ScopeFilter(actor, recordType.Kind()), page)
}

// Update amends a record.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (Record, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	res, err := s.descriptor(ctx, record)
	if err != nil {
		return Record{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, res)); err != nil {
		return Record{}, err
	}
	record.Description = strings.TrimSpace(input.Description)
	record.CostCents = input.CostCents
	record.Liters = input.Liters
	record.OdometerKM = input.OdometerKM
	record.RecordedAt = input.RecordedAt
	record.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, record); err != nil {
		return Record{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: record.SaccoID,
		Action: "amended_" + string(record.Type), Entity: string(record.Type), EntityID: record.ID,
	})
	return record, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.descriptor(ctx, record)
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
		ActorID: actor.ID, SaccoID: record.SaccoID,
		Action: "deleted_" + string(record.Type), Entity: string(record.Type), EntityID: id,
	})
	return nil
}
