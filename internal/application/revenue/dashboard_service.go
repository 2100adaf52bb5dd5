package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/billing/backend/internal/domain/revenue"
)

// RollingYearResponse is the dashboard series served to reporting: an
// ordered 12-entry display series plus summary statistics.
type RollingYearResponse struct {
	Points     []revenue.RevenuePoint   `json:"points"`
	Statistics revenue.SeriesStatistics `json:"statistics"`
}

// DashboardService serves the rolling-year revenue view. The read path
// never surfaces a hard failure: it degrades from live data to a
// zero-valued template and, as a last resort, an empty series.
type DashboardService struct {
	repo   revenue.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(repo revenue.Repository, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service's notion of now. For tests.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// GetRollingYearRevenue returns the 12-month revenue series ending at the
// current month, gaps filled with zero-valued defaults.
func (s *DashboardService) GetRollingYearRevenue(ctx context.Context, tenantID uuid.UUID) RollingYearResponse {
	// one clock read for both the template and the fetch range, so a month
	// rollover mid-request cannot desync them
	now := s.now()

	template, err := revenue.BuildRollingYearTemplate(now)
	if err != nil {
		// tier three: template generation itself failed, serve an empty
		// series rather than an error
		s.logger.Error("failed to build rolling year template",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return RollingYearResponse{
			Points:     []revenue.RevenuePoint{},
			Statistics: revenue.Summarize(nil),
		}
	}

	start, end := revenue.CalculateDateRange(now)
	rows, err := s.repo.FindByDateRange(ctx, tenantID, start, end)
	if err != nil {
		// tier two: store unavailable, serve the all-default template
		s.logger.Error("failed to fetch aggregate rows, serving default series",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		rows = nil
	}

	points := revenue.MergeWithTemplate(template, rows)
	return RollingYearResponse{
		Points:     points,
		Statistics: revenue.Summarize(points),
	}
}
