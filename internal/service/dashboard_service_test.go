package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type cacheRepoStub struct {
	entries map[string][]byte
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{entries: make(map[string][]byte)}
}

func (c *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.entries = make(map[string][]byte)
	return nil
}

type requestCounterStub struct {
	requests []models.Request
	filter   models.RequestFilter
}

func (r *requestCounterStub) CountByDecisions(ctx context.Context, month, department string) ([]models.RequestCountRow, error) {
	return nil, nil
}

func (r *requestCounterStub) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	r.filter = filter
	return r.requests, nil
}

type internCounterStub struct {
	total int
}

func (i *internCounterStub) Count(ctx context.Context) (int, error) {
	return i.total, nil
}

func dashboardRequests() []models.Request {
	return []models.Request{
		{ID: "r-1", TutorID: "tutor-1", TutorDecision: models.DecisionPending, HRDecision: models.DecisionPending},
		{ID: "r-2", TutorID: "tutor-1", TutorDecision: models.DecisionApproved, HRDecision: models.DecisionPending},
		{ID: "r-3", TutorID: "tutor-1", TutorDecision: models.DecisionApproved, HRDecision: models.DecisionApproved},
		{ID: "r-4", TutorID: "tutor-1", TutorDecision: models.DecisionRejected, HRDecision: models.DecisionPending},
	}
}

func TestDashboardSummaryForTutor(t *testing.T) {
	requests := &requestCounterStub{requests: dashboardRequests()}
	svc := NewDashboardService(requests, &internCounterStub{total: 7}, nil, nil, time.Minute)

	summary, hit, err := svc.Summary(context.Background(), claimsFor(models.RoleTutor, "tutor-1"))
	require.NoError(t, err)
	require.False(t, hit)
	require.Equal(t, "tutor-1", requests.filter.TutorID)
	require.Equal(t, 4, summary.TotalRequests)
	require.Equal(t, 1, summary.PendingReviews)
	require.Equal(t, 1, summary.RequestsByStatus[string(models.StatusPending)])
	require.Equal(t, 1, summary.RequestsByStatus[string(models.StatusInReview)])
	require.Equal(t, 1, summary.RequestsByStatus[string(models.StatusApproved)])
	require.Equal(t, 1, summary.RequestsByStatus[string(models.StatusRejected)])
	require.Zero(t, summary.TotalInterns)
}

func TestDashboardSummaryForHR(t *testing.T) {
	requests := &requestCounterStub{requests: dashboardRequests()}
	svc := NewDashboardService(requests, &internCounterStub{total: 7}, nil, nil, time.Minute)

	summary, _, err := svc.Summary(context.Background(), claimsFor(models.RoleHR, "hr-1"))
	require.NoError(t, err)
	require.Empty(t, requests.filter.TutorID)
	require.Equal(t, 1, summary.PendingReviews)
	require.Equal(t, 7, summary.TotalInterns)
}

func TestDashboardSummaryServedFromCache(t *testing.T) {
	requests := &requestCounterStub{requests: dashboardRequests()}
	cache := NewCacheService(newCacheRepoStub(), nil, time.Minute, nil, true)
	svc := NewDashboardService(requests, &internCounterStub{}, cache, nil, time.Minute)
	actor := claimsFor(models.RoleIntern, "intern-1")

	first, hit, err := svc.Summary(context.Background(), actor)
	require.NoError(t, err)
	require.False(t, hit)

	second, hit, err := svc.Summary(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, first.TotalRequests, second.TotalRequests)
}

func TestDashboardSummaryRequiresActor(t *testing.T) {
	svc := NewDashboardService(&requestCounterStub{}, nil, nil, nil, time.Minute)
	_, _, err := svc.Summary(context.Background(), nil)
	require.Error(t, err)
}
