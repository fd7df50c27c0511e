package orgs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Service orchestrates sacco management under the access policy.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateInput carries the fields for a new sacco.
type CreateInput struct {
	Name               string
	RegistrationNumber string
	Location           string
	ContactPerson      string
	Phone              string
	Email              string
	CommissionRate     float64
}

// Create registers a new sacco. The new tenant belongs to nobody yet, so the
// policy only ever grants this to the superadmin.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (Sacco, error) {
	id := uuid.NewString()
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{Kind: authz.KindSacco, SaccoID: id})
	if err := shared.DecisionError(decision); err != nil {
		return Sacco{}, err
	}
	now := time.Now().UTC()
	sacco := Sacco{
		ID:                 id,
		Name:               strings.TrimSpace(input.Name),
		RegistrationNumber: strings.ToUpper(strings.TrimSpace(input.RegistrationNumber)),
		Location:           strings.TrimSpace(input.Location),
		ContactPerson:      strings.TrimSpace(input.ContactPerson),
		Phone:              strings.TrimSpace(input.Phone),
		Email:              strings.TrimSpace(input.Email),
		CommissionRate:     input.CommissionRate,
		Status:             StatusActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, sacco); err != nil {
		return Sacco{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: sacco.ID,
		Action: "created_sacco", Entity: "sacco", EntityID: sacco.ID,
		Meta: map[string]any{"name": sacco.Name},
	})
	return sacco, nil
}

// Get fetches a single sacco the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Sacco, error) {
	sacco, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sacco{}, err
	}
	decision := authz.Authorize(actor, authz.OpRead, authz.Resource{Kind: authz.KindSacco, SaccoID: sacco.ID})
	if err := shared.DecisionError(decision); err != nil {
		return Sacco{}, err
	}
	return sacco, nil
}

// List returns the saccos visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Sacco, error) {
	return s.repo.List(ctx, authz.ScopeFilter(actor, authz.KindSacco))
}

// Overview aggregates headline numbers for one sacco.
type Overview struct {
	Sacco              Sacco
	VehicleCount       int
	StaffCount         int
	PendingRemittances int
}

// GetOverview fetches the sacco together with its headline counts. The
// counts are independent queries, so they run concurrently.
func (s *Service) GetOverview(ctx context.Context, actor authz.Actor, id string) (Overview, error) {
	sacco, err := s.Get(ctx, actor, id)
	if err != nil {
		return Overview{}, err
	}
	overview := Overview{Sacco: sacco}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		overview.VehicleCount, err = s.repo.CountVehicles(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		overview.StaffCount, err = s.repo.CountStaff(ctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		overview.PendingRemittances, err = s.repo.CountPendingRemittances(ctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return overview, nil
}

// UpdateInput carries the mutable sacco fields.
type UpdateInput struct {
	Name           string
	Location       string
	ContactPerson  string
	Phone          string
	Email          string
	CommissionRate float64
}

// Update rewrites the sacco profile. Status is excluded; see ChangeStatus.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input UpdateInput) (Sacco, error) {
	sacco, err := s.repo.Get(ctx, id)
	if err != nil {
		return Sacco{}, err
	}
	decision := authz.Authorize(actor, authz.OpUpdate, authz.Resource{Kind: authz.KindSacco, SaccoID: sacco.ID})
	if err := shared.DecisionError(decision); err != nil {
		return Sacco{}, err
	}
	sacco.Name = strings.TrimSpace(input.Name)
	sacco.Location = strings.TrimSpace(input.Location)
	sacco.ContactPerson = strings.TrimSpace(input.ContactPerson)
	sacco.Phone = strings.TrimSpace(input.Phone)
	sacco.Email = strings.TrimSpace(input.Email)
	sacco.CommissionRate = input.CommissionRate
	if err := s.repo.Update(ctx, sacco); err != nil {
		return Sacco{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: sacco.ID,
		Action: "updated_sacco", Entity: "sacco", EntityID: sacco.ID,
	})
	return sacco, nil
}

// ChangeStatus flips the sacco lifecycle state; superadmin only by policy.
func (s *Service) ChangeStatus(ctx context.Context, actor authz.Actor, id string, status Status) error {
	if !status.Valid() {
		return errors.New("orgs: invalid status")
	}
	sacco, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision := authz.Authorize(actor, authz.OpChangeStatus, authz.Resource{Kind: authz.KindSacco, SaccoID: sacco.ID})
	if err := shared.DecisionError(decision); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: id,
		Action: "changed_sacco_status", Entity: "sacco", EntityID: id,
		Meta: map[string]any{"status": string(status)},
	})
	return nil
}

// Delete removes an empty sacco together with its user accounts. A sacco
// that still has vehicles is reported as ErrHasDependents so the caller can
// render the precondition rather than a flat denial.
func (s *Service) Delete(ctx context.Context, actor authz.Actor, id string) error {
	sacco, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.repo.CountVehicles(ctx, id)
	if err != nil {
		return err
	}
	decision := authz.Authorize(actor, authz.OpDelete, authz.Resource{
		Kind:           authz.KindSacco,
		SaccoID:        sacco.ID,
		DependentCount: count,
	})
	if err := shared.DecisionError(decision); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID,
		Action:  "deleted_sacco", Entity: "sacco", EntityID: id,
		Meta: map[string]any{"name": sacco.Name, "registration_number": sacco.RegistrationNumber},
	})
	return nil
}
