package remittance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// VehicleDirectory resolves the vehicle a remittance references. The
// vehicles service satisfies it.
type VehicleDirectory interface {
	OwnerOf(ctx context.Context, vehicleID string) (ownerID, saccoID string, err error)
}

// Service orchestrates remittance collection under the access policy.
type Service struct {
	repo     Repository
	vehicles VehicleDirectory
	audit    *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, vehicles VehicleDirectory, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, vehicles: vehicles, audit: audit}
}

func descriptor(remittance Remittance) authz.Resource {
	return authz.Resource{
		Kind:    authz.KindRemittance,
		SaccoID: remittance.SaccoID,
		OwnerID: remittance.OwnerID,
	}
}

// Input carries the fields for raising or amending a remittance.
type Input struct {
	VehicleID   string
	AmountCents int64
	ForDate     time.Time
}

// Create raises a remittance obligation for a vehicle. The owner is pinned
// at creation time from the vehicle registry.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (Remittance, error) {
	ownerID, saccoID, err := s.vehicles.OwnerOf(ctx, input.VehicleID)
	if err != nil {
		return Remittance{}, err
	}
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{
		Kind:    authz.KindRemittance,
		SaccoID: saccoID,
		OwnerID: ownerID,
	})
	if err := shared.DecisionError(decision); err != nil {
		return Remittance{}, err
	}
	now := time.Now().UTC()
	remittance := Remittance{
		ID:          uuid.NewString(),
		SaccoID:     saccoID,
		VehicleID:   input.VehicleID,
		OwnerID:     ownerID,
		AmountCents: input.AmountCents,
		ForDate:     input.ForDate,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, remittance); err != nil {
		return Remittance{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: remittance.SaccoID,
		Action: "raised_remittance", Entity: "remittance", EntityID: remittance.ID,
		Meta: map[string]any{"vehicle_id": remittance.VehicleID, "amount_cents": remittance.AmountCents},
	})
	return remittance, nil
}

// Get fetches a remittance the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Remittance, error) {
	remittance, err := s.repo.Get(ctx, id)
	if err != nil {
		return Remittance{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpRead, descriptor(remittance))); err != nil {
		return Remittance{}, err
	}
	return remittance, nil
}

// List returns the remittances visible to the actor, newest first.
func (s *Service) List(ctx context.Context, actor authz.Actor, page shared.Pagination) ([]Remittance, error) {
	return s.repo.List(ctx, authz.ScopeFilter(actor, authz.KindRemittance), page)
}

// Update amends the amount or the day of a pending remittance.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (Remittance, error) {
	remittance, err := s.repo.Get(ctx, id)
	if err != nil {
		return Remittance{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, descriptor(remittance))); err != nil {
		return Remittance{}, err
	}
	if remittance.Status != StatusPending {
		return Remittance{}, errors.New("remittance: only pending remittances can be amended")
	}
	remittance.AmountCents = input.AmountCents
	remittance.ForDate = input.ForDate
	remittance.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, remittance); err != nil {
		return Remittance{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: remittance.SaccoID,
		Action: "amended_remittance", Entity: "remittance", EntityID: remittance.ID,
	})
	return remittance, nil
}

// ChangeStatus settles, waives or reopens a remittance.
func (s *Service) ChangeStatus(ctx context.Context, actor authz.Actor, id string, status Status) error {
	if !status.Valid() {
		return errors.New("remittance: invalid status")
	}
	remittance, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpChangeStatus, descriptor(remittance))); err != nil {
		return err
	}
	var paidAt *time.Time
	if status == StatusPaid {
		now := time.Now().UTC()
		paidAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, status, paidAt); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: remittance.SaccoID,
		Action: "changed_remittance_status", Entity: "remittance", EntityID: id,
		Meta: map[string]any{"status": string(status)},
	})
	return nil
}

// Delete removes a remittance.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	remittance, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpDelete, descriptor(remittance))); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: remittance.SaccoID,
		Action: "deleted_remittance", Entity: "remittance", EntityID: id,
	})
	return nil
}
