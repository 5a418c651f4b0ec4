package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/user/knowlife/internal/crawler"
	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
)

type workerFixture struct {
	queue    *memQueue
	crawler  *fakePageCrawler
	articles *memArticles
	failed   *memFailed
	worker   *CrawlWorker
	now      time.Time
}

func newWorkerFixture(t *testing.T) *workerFixture {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	f := &workerFixture{
		queue:    &memQueue{},
		crawler:  &fakePageCrawler{results: map[string]*entity.Extraction{}, errs: map[string]error{}},
		articles: newMemArticles(),
		failed:   newMemFailed(now),
		now:      now,
	}
	f.worker = NewCrawlWorker(f.queue, f.crawler, f.articles, f.failed, WorkerConfig{RetryBatch: 10}, zaptest.NewLogger(t))
	f.worker.now = func() time.Time { return f.now }
	return f
}

func TestProcessURLFromQueue_Empty(t *testing.T) {
	f := newWorkerFixture(t)
	assert.NoError(t, f.worker.ProcessURLFromQueue(context.Background()))
}

func TestProcessURLFromQueue_QueueError(t *testing.T) {
	f := newWorkerFixture(t)
	f.queue.err = errors.New("redis down")
	assert.Error(t, f.worker.ProcessURLFromQueue(context.Background()))
}

func TestProcessURLFromQueue_Success(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	url := "https://vnexpress.net/a"
	f.crawler.results[url] = &entity.Extraction{
		URL: url, Domain: "vnexpress.net", Lines: []string{"one", "two"}, RulesMatched: 2, RulesFailed: 1,
	}
	require.NoError(t, f.failed.SaveOrUpdate(ctx, &entity.FailedURL{URL: url, Retryable: true}))
	require.NoError(t, f.queue.Push(ctx, url))

	require.NoError(t, f.worker.ProcessURLFromQueue(ctx))

	a, err := f.articles.FindByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, a.Lines)
	assert.Equal(t, "vnexpress.net", a.Domain)
	assert.Equal(t, f.now, a.CrawlTimestamp)

	_, err = f.failed.FindByURL(ctx, url)
	assert.ErrorIs(t, err, repository.ErrNotFound, "success clears the failure record")
}

func TestProcessURLFromQueue_AllRulesFailed(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	url := "https://vnexpress.net/a"
	f.crawler.results[url] = &entity.Extraction{URL: url, Lines: []string{}, RulesMatched: 2, RulesFailed: 2}
	require.NoError(t, f.queue.Push(ctx, url))

	require.NoError(t, f.worker.ProcessURLFromQueue(ctx))

	_, err := f.articles.FindByURL(ctx, url)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	rec, err := f.failed.FindByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, entity.ErrorTypeFetch, rec.ErrorType)
	assert.True(t, rec.Retryable)
	assert.True(t, rec.NextRetryAt.After(f.now))
}

func TestProcessURLFromQueue_MalformedURL(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	url := "not-a-url"
	f.crawler.errs[url] = &crawler.MalformedURLError{URL: url, Segments: 1}
	require.NoError(t, f.queue.Push(ctx, url))

	require.NoError(t, f.worker.ProcessURLFromQueue(ctx))

	rec, err := f.failed.FindByURL(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, entity.ErrorTypeMalformedURL, rec.ErrorType)
	assert.False(t, rec.Retryable)

	f.now = f.now.Add(24 * time.Hour)
	f.failed.now = f.now
	n, err := f.worker.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "malformed URLs are never retried")
}

func TestRetryFailed_RequeuesDueURLsOnce(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	url := "https://dantri.com.vn/b"
	require.NoError(t, f.failed.SaveOrUpdate(ctx, &entity.FailedURL{
		URL: url, Retryable: true, NextRetryAt: f.now.Add(-time.Second),
	}))

	n, err := f.worker.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{url}, f.queue.items)

	n, err = f.worker.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rescheduled record is not due again yet")
}

func TestRetryFailed_StopsAfterMaxRetries(t *testing.T) {
	f := newWorkerFixture(t)
	ctx := context.Background()
	url := "https://dantri.com.vn/b"
	for i := 0; i < maxRetries; i++ {
		require.NoError(t, f.failed.SaveOrUpdate(ctx, &entity.FailedURL{URL: url, Retryable: true, NextRetryAt: f.now}))
	}

	n, err := f.worker.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRun_DrainsQueueUntilCancelled(t *testing.T) {
	f := newWorkerFixture(t)
	f.worker.cfg.Interval = 10 * time.Millisecond
	f.worker.cfg.Workers = 2
	ctx, cancel := context.WithCancel(context.Background())

	urls := []string{"https://a.vn/1", "https://a.vn/2", "https://a.vn/3"}
	for _, u := range urls {
		require.NoError(t, f.queue.Push(ctx, u))
	}

	done := make(chan struct{})
	go func() {
		f.worker.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		for _, u := range urls {
			if _, err := f.articles.FindByURL(ctx, u); err != nil {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestRetryDelay(t *testing.T) {
	for attempts := 0; attempts < 40; attempts++ {
		d := retryDelay(attempts)
		assert.Positive(t, d)
		assert.LessOrEqual(t, d, time.Duration(float64(maxBackoff)*(1+jitterFactor)))
	}
	first := retryDelay(0)
	assert.GreaterOrEqual(t, first, time.Duration(float64(initialBackoff)*(1-jitterFactor)))
}
