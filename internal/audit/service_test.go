package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/matwana/matwana/internal/authz"
	_ "github.com/matwana/matwana/testing"
)

type stubRepo struct {
	entries  []Entry
	lastPred authz.Predicate
	lastQry  Query
}

func (s *stubRepo) Timeline(ctx context.Context, pred authz.Predicate, query Query) ([]Entry, error) {
	s.lastPred = pred
	s.lastQry = query
	if pred.MatchNone {
		return nil, nil
	}
	var out []Entry
	for _, entry := range s.entries {
		if pred.SaccoID != "" && entry.SaccoID != pred.SaccoID {
			continue
		}
		out = append(out, entry)
		if len(out) == query.Limit+1 {
			break
		}
	}
	return out, nil
}

func entries(n int, saccoID string) []Entry {
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Entry{ID: int64(i + 1), SaccoID: saccoID, Action: "created_vehicle",
			Entity: "vehicle", EntityID: "v", OccurredAt: time.Now().Add(-time.Duration(i) * time.Minute)})
	}
	return out
}

func TestTimelineScope(t *testing.T) {
	repo := &stubRepo{entries: append(entries(3, "sacco-a"), entries(2, "sacco-b")...)}
	svc := NewService(repo)

	admin := authz.Actor{ID: "adm-1", Role: authz.RoleAdmin, SaccoID: "sacco-a"}
	page, err := svc.Timeline(context.Background(), admin, Query{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 3)
	require.Equal(t, authz.Predicate{SaccoID: "sacco-a"}, repo.lastPred)

	super := authz.Actor{ID: "root", Role: authz.RoleSuperadmin}
	page, err = svc.Timeline(context.Background(), super, Query{})
	require.NoError(t, err)
	require.Len(t, page.Entries, 5)
}

func TestTimelineDeniedRolesSeeNothing(t *testing.T) {
	repo := &stubRepo{entries: entries(3, "sacco-a")}
	svc := NewService(repo)

	for _, role := range []authz.Role{authz.RoleOwner, authz.RoleDriver, authz.RoleConductor} {
		actor := authz.Actor{ID: "u-1", Role: role, SaccoID: "sacco-a"}
		page, err := svc.Timeline(context.Background(), actor, Query{})
		require.NoError(t, err)
		require.Empty(t, page.Entries)
		require.True(t, repo.lastPred.MatchNone)
	}
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{entries: entries(5, "sacco-a")}
	svc := NewService(repo)

	admin := authz.Actor{ID: "adm-1", Role: authz.RoleAdmin, SaccoID: "sacco-a"}
	page, err := svc.Timeline(context.Background(), admin, Query{Limit: 4})
	require.NoError(t, err)
	require.Len(t, page.Entries, 4)
	require.True(t, page.HasNext)

	// Limits are clamped rather than rejected.
	_, err = svc.Timeline(context.Background(), admin, Query{Limit: 10_000})
	require.NoError(t, err)
	require.Equal(t, maxPageSize, repo.lastQry.Limit)
	require.False(t, repo.lastQry.Before.IsZero())
}
