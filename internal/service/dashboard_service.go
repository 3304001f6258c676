package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/dto"
	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

const recentFeedSize = 10

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService computes per-instructor workload summaries for a resolved
// period. Results are cached in Redis keyed by instructor and period tag and
// invalidated whenever the instructor's records change.
type DashboardService struct {
	activities rangeActivityStore
	cache      dashboardCache
	metrics    *MetricsService
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// NewDashboardService constructs the service.
func NewDashboardService(activities rangeActivityStore, cache dashboardCache, metrics *MetricsService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{activities: activities, cache: cache, metrics: metrics, logger: logger, cacheTTL: cacheTTL}
}

// Summary returns the instructor's activity totals and recent feed for the
// given period tag.
func (s *DashboardService) Summary(ctx context.Context, period models.PeriodTag, actor *models.JWTClaims) (*dto.DashboardSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if period == "" {
		period = models.PeriodThisWeek
	}
	dateRange, err := ResolvePeriod(period, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	cacheKey := "dashboard:" + actor.UserID + ":" + string(period)
	if s.cache != nil {
		var cached dto.DashboardSummary
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.metrics.RecordCacheLookup(true)
			return &cached, nil
		} else if errors.Is(err, appErrors.ErrCacheMiss) {
			s.metrics.RecordCacheLookup(false)
		} else {
			s.logger.Warn("dashboard cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	records, err := s.activities.ListRange(ctx, actor.UserID, dateRange.Start, dateRange.End)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity records")
	}

	summary := buildDashboardSummary(period, dateRange, records)
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return summary, nil
}

func buildDashboardSummary(period models.PeriodTag, dateRange models.DateRange, records []models.ActivityRecord) *dto.DashboardSummary {
	counts := map[models.ActivityType]int{}
	for i := range records {
		counts[records[i].Type]++
	}

	// ListRange returns oldest first; the feed wants the newest entries.
	feed := make([]dto.FeedEntry, 0, recentFeedSize)
	for i := len(records) - 1; i >= 0 && len(feed) < recentFeedSize; i-- {
		record := &records[i]
		feed = append(feed, dto.FeedEntry{
			ID:        record.ID,
			TypeLabel: ActivityLabel(record.Type),
			Summary:   SummarizeActivity(record),
			LoggedAt:  record.LoggedAt.UTC().Format(time.RFC3339),
		})
	}

	return &dto.DashboardSummary{
		Period:       string(period),
		StartDate:    dateRange.Start.Format("2006-01-02"),
		EndDate:      dateRange.End.Format("2006-01-02"),
		TotalLogged:  len(records),
		CountsByType: counts,
		RecentFeed:   feed,
	}
}
