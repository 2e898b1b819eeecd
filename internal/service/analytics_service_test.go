package service

import (
	"context"
	"testing"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

type fakeAnalyticsRepo struct {
	from, to time.Time
	columns  []string
	resolved []string
}

func (r *fakeAnalyticsRepo) CountTotal(_ context.Context, from, to time.Time) (int64, error) {
	r.from, r.to = from, to
	return 3, nil
}

func (r *fakeAnalyticsRepo) CountBy(_ context.Context, column string, _, _ time.Time) ([]domain.CountBucket, error) {
	r.columns = append(r.columns, column)
	return []domain.CountBucket{{Key: column + "-a", Count: 2}, {Key: column + "-b", Count: 1}}, nil
}

func (r *fakeAnalyticsRepo) DailyVolume(_ context.Context, _, _ time.Time) ([]domain.DailyVolume, error) {
	return []domain.DailyVolume{{Day: baseTime, Count: 3}}, nil
}

func (r *fakeAnalyticsRepo) AgentWorkload(_ context.Context, _, _ time.Time, resolved []string) ([]domain.AgentWorkload, error) {
	r.resolved = resolved
	return []domain.AgentWorkload{{AgentID: "agent", Assigned: 2}}, nil
}

func (r *fakeAnalyticsRepo) SLASummary(_ context.Context, _, _ time.Time) (domain.SLASummary, error) {
	return domain.SLASummary{Tracked: 3, ResolutionBreached: 1}, nil
}

func TestAnalyticsOverviewDefaultsWindow(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	clock := &testClock{now: baseTime}
	svc := NewAnalyticsService(repo, config.DefaultHelpdesk(), clock.Now)

	overview, err := svc.Overview(context.Background(), newUser("agent", domain.RoleAgent), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if !repo.to.Equal(baseTime) || !repo.from.Equal(baseTime.Add(-30*24*time.Hour)) {
		t.Fatalf("unexpected window %v - %v", repo.from, repo.to)
	}
	if overview.Total != 3 || len(overview.ByStatus) != 2 || overview.SLA.ResolutionBreached != 1 {
		t.Fatalf("unexpected overview %+v", overview)
	}
	if len(repo.columns) != 3 || repo.columns[0] != "status" || repo.columns[2] != "category" {
		t.Fatalf("unexpected breakdown columns %v", repo.columns)
	}
	if len(repo.resolved) != 2 {
		t.Fatalf("workload should exclude resolved statuses, got %v", repo.resolved)
	}
}

func TestAnalyticsOverviewValidation(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsRepo{}, config.DefaultHelpdesk(), nil)
	ctx := context.Background()

	if _, err := svc.Overview(ctx, newUser("customer", domain.RoleCustomer), time.Time{}, time.Time{}); !apperrors.IsCode(err, "FORBIDDEN") {
		t.Fatalf("customers cannot read analytics, got %v", err)
	}
	if _, err := svc.Overview(ctx, newUser("agent", domain.RoleAgent), baseTime, baseTime); !apperrors.IsCode(err, "VALIDATION_FAILED") {
		t.Fatalf("empty window should fail, got %v", err)
	}
}
