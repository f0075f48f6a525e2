package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kjebali/stagehub-api/internal/models"
	appErrors "github.com/kjebali/stagehub-api/pkg/errors"
)

type requestCounter interface {
	CountByDecisions(ctx context.Context, month, department string) ([]models.RequestCountRow, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error)
}

type internCounter interface {
	Count(ctx context.Context) (int, error)
}

// DashboardService composes the per-role landing page counters with a
// Redis-backed cache in front of the aggregation queries.
type DashboardService struct {
	requests requestCounter
	interns  internCounter
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
	cacheTTL time.Duration
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(requests requestCounter, interns internCounter, cache *CacheService, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		requests: requests,
		interns:  interns,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
		cacheTTL: cacheTTL,
	}
}

// Summary returns the dashboard payload for the actor's role and reports
// whether the cache served it.
func (s *DashboardService) Summary(ctx context.Context, actor *models.JWTClaims) (*models.DashboardSummary, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}

	cacheKey := fmt.Sprintf("dashboard:%s:%s", actor.Role, actor.UserID)
	if s.cache.Enabled() {
		var cached models.DashboardSummary
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache lookup failed", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	summary, err := s.build(ctx, actor)
	if err != nil {
		return nil, false, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, false, nil
}

func (s *DashboardService) build(ctx context.Context, actor *models.JWTClaims) (*models.DashboardSummary, error) {
	summary := &models.DashboardSummary{
		Role:             actor.Role,
		RequestsByStatus: make(map[string]int),
		GeneratedAt:      s.now().UTC(),
	}

	filter := models.RequestFilter{Limit: 200}
	switch actor.Role {
	case models.RoleTutor:
		filter.TutorID = actor.UserID
	case models.RoleIntern:
		filter.RequesterID = actor.UserID
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard requests")
	}
	for i := range requests {
		status, err := models.DeriveStatus(requests[i].TutorDecision, requests[i].HRDecision)
		if err != nil {
			return nil, err
		}
		summary.RequestsByStatus[string(status)]++
		summary.TotalRequests++
		switch actor.Role {
		case models.RoleTutor:
			if requests[i].TutorDecision == models.DecisionPending {
				summary.PendingReviews++
			}
		case models.RoleHR:
			if status == models.StatusInReview {
				summary.PendingReviews++
			}
		}
	}

	if actor.Role == models.RoleAdmin || actor.Role == models.RoleHR {
		if s.interns != nil {
			total, err := s.interns.Count(ctx)
			if err != nil {
				s.logger.Warn("failed to count interns for dashboard", zap.Error(err))
			} else {
				summary.TotalInterns = total
			}
		}
	}

	return summary, nil
}
