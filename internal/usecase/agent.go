package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
	"github.com/user/knowlife/pkg/metrics"
)

// ErrAgentNotReady is returned by Agent methods when no trends client is loaded.
var ErrAgentNotReady = errors.New("agent needs to be prepared before usage")

// ContentExtractor returns the article lines of a page.
type ContentExtractor interface {
	GetContentFromURL(ctx context.Context, url string) ([]string, error)
}

// Agent answers trend queries through a TrendsClient, with an optional cache.
type Agent struct {
	client   repository.TrendsClient
	cache    repository.TrendsCache
	cacheTTL time.Duration
	contents ContentExtractor
	workers  int
	logger   *zap.Logger
}

// AgentOption customises an Agent.
type AgentOption func(*Agent)

// WithTrendsCache caches realtime results for ttl.
func WithTrendsCache(cache repository.TrendsCache, ttl time.Duration) AgentOption {
	return func(a *Agent) {
		a.cache = cache
		a.cacheTTL = ttl
	}
}

// WithContentExtractor lets DailyTrends fill news article bodies, crawling
// at most workers pages at a time.
func WithContentExtractor(ce ContentExtractor, workers int) AgentOption {
	return func(a *Agent) {
		a.contents = ce
		a.workers = max(1, workers)
	}
}

// NewAgent creates an Agent backed by client. A nil client yields an agent
// that is not ready.
func NewAgent(client repository.TrendsClient, logger *zap.Logger, opts ...AgentOption) *Agent {
	a := &Agent{client: client, workers: 1, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsReady reports whether the agent can serve requests.
func (a *Agent) IsReady() bool {
	return a != nil && a.client != nil
}

// RealtimeTrendingSearches returns the trending stories for q.
func (a *Agent) RealtimeTrendingSearches(ctx context.Context, q entity.TrendingQuery) ([]entity.TrendingStory, error) {
	if !a.IsReady() {
		return nil, ErrAgentNotReady
	}
	q = q.WithDefaults()
	key := q.Key()

	if a.cache != nil {
		stories, ok, err := a.cache.Get(ctx, key)
		switch {
		case err != nil:
			a.logger.Warn("trends cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			metrics.TrendRequestsTotal.WithLabelValues("realtime", "cache_hit").Inc()
			return stories, nil
		}
	}

	stories, err := a.client.RealtimeTrendingSearches(ctx, q)
	if err != nil {
		metrics.TrendRequestsTotal.WithLabelValues("realtime", "error").Inc()
		return nil, err
	}
	metrics.TrendRequestsTotal.WithLabelValues("realtime", "success").Inc()

	if a.cache != nil {
		if err := a.cache.Set(ctx, key, stories, a.cacheTTL); err != nil {
			a.logger.Warn("trends cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stories, nil
}

// DailyTrends returns the daily search trends for geo. With withContent set
// and a ContentExtractor configured, every news item gets its article lines.
// Pages that cannot be crawled keep an empty body.
func (a *Agent) DailyTrends(ctx context.Context, geo string, withContent bool) ([]entity.DailyTrend, error) {
	if !a.IsReady() {
		return nil, ErrAgentNotReady
	}
	trends, err := a.client.DailyTrends(ctx, geo)
	if err != nil {
		metrics.TrendRequestsTotal.WithLabelValues("daily", "error").Inc()
		return nil, err
	}
	metrics.TrendRequestsTotal.WithLabelValues("daily", "success").Inc()

	if withContent && a.contents != nil {
		a.fillContent(ctx, trends)
	}
	return trends, nil
}

func (a *Agent) fillContent(ctx context.Context, trends []entity.DailyTrend) {
	sem := make(chan struct{}, a.workers)
	var wg sync.WaitGroup
	for i := range trends {
		for j := range trends[i].News {
			news := &trends[i].News[j]
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case sem <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-sem }()

				lines, err := a.contents.GetContentFromURL(ctx, news.URL)
				if err != nil {
					a.logger.Warn("failed to extract news content", zap.String("url", news.URL), zap.Error(err))
					return
				}
				news.Content = lines
			}()
		}
	}
	wg.Wait()
}
