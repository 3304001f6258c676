package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edulog/workload-api/internal/models"
	appErrors "github.com/edulog/workload-api/pkg/errors"
)

type cacheStub struct {
	store map[string][]byte
	gets  int
	sets  int
}

func newCacheStub() *cacheStub {
	return &cacheStub{store: map[string][]byte{}}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.gets++
	raw, ok := c.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.store[key] = raw
	return nil
}

func TestDashboardSummaryCountsAndFeed(t *testing.T) {
	records := []models.ActivityRecord{
		{ID: "a", Type: models.ActivityMDBReplies, LoggedAt: time.Now().Add(-2 * time.Hour),
			Details: models.DetailPayload{"mdb_topic": "W1", "number_of_replies": 4}},
		{ID: "b", Type: models.ActivityMDBReplies, LoggedAt: time.Now().Add(-1 * time.Hour),
			Details: models.DetailPayload{"mdb_topic": "W2", "number_of_replies": 2}},
		{ID: "c", Type: models.ActivityEmailResponses, LoggedAt: time.Now(),
			Details: models.DetailPayload{"email_subject": "Quiz", "email_purpose": "moved"}},
	}
	svc := NewDashboardService(&activityRangeStub{records: records}, newCacheStub(), nil, zap.NewNop(), time.Minute)

	summary, err := svc.Summary(context.Background(), models.PeriodThisWeek, instructorClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalLogged)
	assert.Equal(t, 2, summary.CountsByType[models.ActivityMDBReplies])
	assert.Equal(t, 1, summary.CountsByType[models.ActivityEmailResponses])

	require.NotEmpty(t, summary.RecentFeed)
	// Feed is newest first.
	assert.Equal(t, "c", summary.RecentFeed[0].ID)
	assert.Equal(t, `Email "Quiz": moved`, summary.RecentFeed[0].Summary)
}

func TestDashboardSummaryUsesCacheOnSecondRead(t *testing.T) {
	cache := newCacheStub()
	store := &activityRangeStub{records: nil}
	svc := NewDashboardService(store, cache, nil, zap.NewNop(), time.Minute)

	_, err := svc.Summary(context.Background(), models.PeriodThisWeek, instructorClaims("u1"))
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)

	// Second read must come from the cache even if the store now errors.
	store.err = assertAnError()
	summary, err := svc.Summary(context.Background(), models.PeriodThisWeek, instructorClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalLogged)
	assert.Equal(t, 2, cache.gets)
}

func TestDashboardSummaryUnknownPeriod(t *testing.T) {
	svc := NewDashboardService(&activityRangeStub{}, newCacheStub(), nil, zap.NewNop(), time.Minute)
	_, err := svc.Summary(context.Background(), "QUARTER", instructorClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSchemaUnknown.Code, appErrors.FromError(err).Code)
}

func assertAnError() error {
	return appErrors.New("BOOM", 500, "store down")
}
