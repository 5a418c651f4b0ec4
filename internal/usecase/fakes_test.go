package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
)

type memQueue struct {
	mu    sync.Mutex
	items []string
	err   error
}

func (q *memQueue) Push(_ context.Context, url string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.items = append(q.items, url)
	return nil
}

func (q *memQueue) Pop(_ context.Context) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return "", q.err
	}
	if len(q.items) == 0 {
		return "", repository.ErrQueueEmpty
	}
	url := q.items[0]
	q.items = q.items[1:]
	return url, nil
}

func (q *memQueue) Size(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}

type memVisited struct {
	mu   sync.Mutex
	keys map[string]time.Duration
}

func newMemVisited() *memVisited { return &memVisited{keys: map[string]time.Duration{}} }

func (v *memVisited) MarkVisited(_ context.Context, url string, expiry time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.keys[url] = expiry
	return nil
}

func (v *memVisited) IsVisited(_ context.Context, url string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.keys[url]
	return ok, nil
}

func (v *memVisited) RemoveVisited(_ context.Context, url string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.keys, url)
	return nil
}

type memArticles struct {
	mu    sync.Mutex
	byURL map[string]*entity.Article
}

func newMemArticles() *memArticles { return &memArticles{byURL: map[string]*entity.Article{}} }

func (r *memArticles) Save(_ context.Context, a *entity.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byURL[a.URL] = &cp
	return nil
}

func (r *memArticles) FindByURL(_ context.Context, url string) (*entity.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byURL[url]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

type memFailed struct {
	mu    sync.Mutex
	byURL map[string]*entity.FailedURL
	now   time.Time
}

func newMemFailed(now time.Time) *memFailed {
	return &memFailed{byURL: map[string]*entity.FailedURL{}, now: now}
}

func (r *memFailed) SaveOrUpdate(_ context.Context, f *entity.FailedURL) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	cp.RetryCount = 1
	if prior, ok := r.byURL[f.URL]; ok {
		cp.RetryCount = prior.RetryCount + 1
	}
	r.byURL[f.URL] = &cp
	return nil
}

func (r *memFailed) FindByURL(_ context.Context, url string) (*entity.FailedURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byURL[url]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *memFailed) FindRetryable(_ context.Context, limit, maxRetries int) ([]*entity.FailedURL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FailedURL
	for _, f := range r.byURL {
		if f.Retryable && f.RetryCount < maxRetries && !f.NextRetryAt.After(r.now) && len(out) < limit {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memFailed) Reschedule(_ context.Context, url string, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.byURL[url]; ok {
		f.NextRetryAt = next
	}
	return nil
}

func (r *memFailed) Delete(_ context.Context, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byURL, url)
	return nil
}

type fakeTrends struct {
	mu        sync.Mutex
	stories   []entity.TrendingStory
	daily     []entity.DailyTrend
	err       error
	calls     int
	lastGeo   string
	lastQuery entity.TrendingQuery
}

func (f *fakeTrends) RealtimeTrendingSearches(_ context.Context, q entity.TrendingQuery) ([]entity.TrendingStory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastQuery = q
	return f.stories, f.err
}

func (f *fakeTrends) DailyTrends(_ context.Context, geo string) ([]entity.DailyTrend, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastGeo = geo
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.DailyTrend, len(f.daily))
	for i, d := range f.daily {
		d.News = append([]entity.TrendNews(nil), d.News...)
		out[i] = d
	}
	return out, nil
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]entity.TrendingStory
	ttls    map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]entity.TrendingStory{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]entity.TrendingStory, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[key]
	return s, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, stories []entity.TrendingStory, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = stories
	c.ttls[key] = ttl
	return nil
}

type fakeExtractor struct {
	lines map[string][]string
	err   map[string]error
}

func (f *fakeExtractor) GetContentFromURL(_ context.Context, url string) ([]string, error) {
	if err := f.err[url]; err != nil {
		return nil, err
	}
	return f.lines[url], nil
}

type fakePageCrawler struct {
	results map[string]*entity.Extraction
	errs    map[string]error
}

func (f *fakePageCrawler) Crawl(_ context.Context, url string) (*entity.Extraction, error) {
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	if r, ok := f.results[url]; ok {
		return r, nil
	}
	return &entity.Extraction{URL: url, Lines: []string{}}, nil
}
