package staff

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/matwana/matwana/internal/authz"
	"github.com/matwana/matwana/internal/shared"
)

// Service orchestrates staff account management under the access policy.
type Service struct {
	repo  Repository
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func descriptor(member Member) authz.Resource {
	return authz.Resource{Kind: authz.KindStaff, SaccoID: member.SaccoID}
}

// Input carries the fields for creating or updating a staff account.
type Input struct {
	SaccoID    string
	Name       string
	Email      string
	Phone      string
	Role       string
	Password   string
	VehicleIDs []string
}

// Create registers a staff account under a sacco. The initial password is
// hashed before it ever reaches the repository.
func (s *Service) Create(ctx context.Context, actor authz.Actor, input Input) (Member, error) {
	role, err := authz.ParseRole(input.Role)
	if err != nil {
		return Member{}, err
	}
	if role == authz.RoleSuperadmin {
		return Member{}, errors.New("staff: superadmin accounts are not provisioned here")
	}
	decision := authz.Authorize(actor, authz.OpCreate, authz.Resource{Kind: authz.KindStaff, SaccoID: input.SaccoID})
	if err := shared.DecisionError(decision); err != nil {
		return Member{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Member{}, err
	}
	now := time.Now().UTC()
	member := Member{
		ID:         uuid.NewString(),
		SaccoID:    input.SaccoID,
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:      strings.TrimSpace(input.Phone),
		Role:       string(role),
		VehicleIDs: input.VehicleIDs,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if member.VehicleIDs == nil {
		member.VehicleIDs = []string{}
	}
	if err := s.repo.Create(ctx, member, string(hash)); err != nil {
		return Member{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: member.SaccoID,
		Action: "created_staff", Entity: "staff", EntityID: member.ID,
		Meta: map[string]any{"role": member.Role},
	})
	return member, nil
}

// Get fetches a staff account the actor may read.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id string) (Member, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpRead, descriptor(member))); err != nil {
		return Member{}, err
	}
	return member, nil
}

// List returns the staff visible to the actor.
func (s *Service) List(ctx context.Context, actor authz.Actor) ([]Member, error) {
	return s.repo.List(ctx, authz.ScopeFilter(actor, authz.KindStaff))
}

// Update rewrites the mutable profile fields.
func (s *Service) Update(ctx context.Context, actor authz.Actor, id string, input Input) (Member, error) {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return Member{}, err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpUpdate, descriptor(member))); err != nil {
		return Member{}, err
	}
	if input.Role != "" {
		role, err := authz.ParseRole(input.Role)
		if err != nil {
			return Member{}, err
		}
		if role == authz.RoleSuperadmin {
			return Member{}, errors.New("staff: cannot promote to superadmin")
		}
		member.Role = string(role)
	}
	member.Name = strings.TrimSpace(input.Name)
	member.Phone = strings.TrimSpace(input.Phone)
	if input.VehicleIDs != nil {
		member.VehicleIDs = input.VehicleIDs
	}
	member.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, member); err != nil {
		return Member{}, err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: member.SaccoID,
		Action: "updated_staff", Entity: "staff", EntityID: member.ID,
	})
	return member, nil
}

// ChangeStatus activates or deactivates an account. Deactivated accounts
// cannot authenticate.
func (s *Service) ChangeStatus(ctx context.Context, actor authz.Actor, id string, active bool) error {
	member, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := shared.DecisionError(authz.Authorize(actor, authz.OpChangeStatus, descriptor(member))); err != nil {
		return err
	}
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.audit.Record(ctx, shared.AuditEntry{
		ActorID: actor.ID, SaccoID: member.SaccoID,
		Action: "changed_staff_status", Entity: "staff", EntityID: id,
		Meta: map[string]any{"active": active},
	})
	return nil
}
