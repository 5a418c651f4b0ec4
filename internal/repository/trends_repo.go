package repository

import (
	"context"
	"time"

	"github.com/user/knowlife/internal/entity"
)

// TrendsClient is the trends provider the agent delegates to.
type TrendsClient interface {
	RealtimeTrendingSearches(ctx context.Context, q entity.TrendingQuery) ([]entity.TrendingStory, error)
	DailyTrends(ctx context.Context, geo string) ([]entity.DailyTrend, error)
}

// TrendsCache keeps recent realtime trending results keyed by query.
type TrendsCache interface {
	// Get returns the cached stories and whether the key was present.
	Get(ctx context.Context, key string) ([]entity.TrendingStory, bool, error)
	Set(ctx context.Context, key string, stories []entity.TrendingStory, ttl time.Duration) error
}
