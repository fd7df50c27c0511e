package audit

import (
	"context"
	"time"

	"github.com/matwana/matwana/internal/authz"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service exposes the audit trail read-only. Only superadmins see the whole
// platform; admins see their own sacco. Everyone else sees nothing.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Page is one window of the timeline.
type Page struct {
	Entries []Entry
	HasNext bool
}

// Timeline returns the audit entries visible to the actor, newest first.
func (s *Service) Timeline(ctx context.Context, actor authz.Actor, query Query) (Page, error) {
	pred := authz.ScopeFilter(actor, authz.KindAudit)
	if query.Before.IsZero() {
		query.Before = time.Now().UTC()
	}
	if query.Limit <= 0 {
		query.Limit = defaultPageSize
	}
	if query.Limit > maxPageSize {
		query.Limit = maxPageSize
	}
	entries, err := s.repo.Timeline(ctx, pred, query)
	if err != nil {
		return Page{}, err
	}
	page := Page{Entries: entries}
	if len(entries) > query.Limit {
		page.Entries = entries[:query.Limit]
		page.HasNext = true
	}
	return page, nil
}
