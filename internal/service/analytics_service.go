package service

import (
	"context"
	"time"

	"github.com/ivovalerieviliev/help-desk-sub001/internal/config"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/domain"
	"github.com/ivovalerieviliev/help-desk-sub001/internal/repository"
	apperrors "github.com/ivovalerieviliev/help-desk-sub001/pkg/util"
)

const defaultAnalyticsWindow = 30 * 24 * time.Hour

// AnalyticsService builds dashboard aggregates. Nothing is cached; every
// call queries the store.
type AnalyticsService struct {
	repo     repository.AnalyticsRepository
	helpdesk config.HelpdeskConfig
	now      Clock
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(repo repository.AnalyticsRepository, helpdesk config.HelpdeskConfig, clock Clock) *AnalyticsService {
	return &AnalyticsService{repo: repo, helpdesk: helpdesk, now: clockOrNow(clock)}
}

// Overview aggregates tickets created in [from, to). Zero bounds default to
// the last thirty days ending now.
func (s *AnalyticsService) Overview(ctx context.Context, user *domain.User, from, to time.Time) (*domain.AnalyticsOverview, error) {
	if err := requireStaff(user); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.now()
	}
	if from.IsZero() {
		from = to.Add(-defaultAnalyticsWindow)
	}
	if !from.Before(to) {
		return nil, apperrors.NewValidationError("from must be before to", map[string]any{"from": from, "to": to})
	}

	overview := &domain.AnalyticsOverview{From: from, To: to}
	var err error
	if overview.Total, err = s.repo.CountTotal(ctx, from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.ByStatus, err = s.repo.CountBy(ctx, "status", from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.ByPriority, err = s.repo.CountBy(ctx, "priority", from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.ByCategory, err = s.repo.CountBy(ctx, "category", from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.Daily, err = s.repo.DailyVolume(ctx, from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.Agents, err = s.repo.AgentWorkload(ctx, from, to, s.helpdesk.ResolvedStatuses); err != nil {
		return nil, apperrors.MapError(err)
	}
	if overview.SLA, err = s.repo.SLASummary(ctx, from, to); err != nil {
		return nil, apperrors.MapError(err)
	}
	return overview, nil
}
