package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/crawler"
	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
	"github.com/user/knowlife/pkg/metrics"
)

const (
	initialBackoff = 5 * time.Second
	maxBackoff     = 6 * time.Hour
	maxRetries     = 5
	jitterFactor   = 0.2 // +/- 20%
)

// errAllRulesFailed marks an extraction whose every matching rule failed to fetch.
var errAllRulesFailed = errors.New("all selector rules failed")

// PageCrawler crawls one URL against the configured selector rules.
type PageCrawler interface {
	Crawl(ctx context.Context, url string) (*entity.Extraction, error)
}

// WorkerConfig tunes a CrawlWorker.
type WorkerConfig struct {
	Workers    int           // concurrent queue consumers
	Interval   time.Duration // idle poll and retry scan period
	RetryBatch int           // failed URLs re-queued per scan
}

// CrawlWorker consumes the crawl queue and stores results.
type CrawlWorker struct {
	queue    repository.QueueRepository
	crawler  PageCrawler
	articles repository.ArticleRepository
	failed   repository.FailedURLRepository
	cfg      WorkerConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewCrawlWorker creates a new CrawlWorker.
func NewCrawlWorker(
	queue repository.QueueRepository,
	pc PageCrawler,
	articles repository.ArticleRepository,
	failed repository.FailedURLRepository,
	cfg WorkerConfig,
	logger *zap.Logger,
) *CrawlWorker {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.RetryBatch < 1 {
		cfg.RetryBatch = 10
	}
	return &CrawlWorker{
		queue:    queue,
		crawler:  pc,
		articles: articles,
		failed:   failed,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Run consumes the queue and re-queues due failures until ctx is done.
func (w *CrawlWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.consume(ctx, id)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := w.RetryFailed(ctx); err != nil && ctx.Err() == nil {
					w.logger.Error("failed to re-queue failed URLs", zap.Error(err))
				}
			}
		}
	}()

	wg.Wait()
}

func (w *CrawlWorker) consume(ctx context.Context, id int) {
	log := w.logger.With(zap.Int("worker", id))
	for {
		processed, err := w.processNext(ctx)
		if err != nil && ctx.Err() == nil {
			log.Error("failed to process queued URL", zap.Error(err))
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.cfg.Interval):
		}
	}
}

// ProcessURLFromQueue crawls a single queued URL. An empty queue is not an error.
func (w *CrawlWorker) ProcessURLFromQueue(ctx context.Context) error {
	_, err := w.processNext(ctx)
	return err
}

func (w *CrawlWorker) processNext(ctx context.Context) (bool, error) {
	url, err := w.queue.Pop(ctx)
	if errors.Is(err, repository.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to pop URL from queue: %w", err)
	}
	if size, err := w.queue.Size(ctx); err == nil {
		metrics.URLsInQueue.Set(float64(size))
	}

	w.logger.Info("processing URL from queue", zap.String("url", url))
	start := w.now()
	result, crawlErr := w.crawler.Crawl(ctx, url)
	elapsed := w.now().Sub(start)

	if crawlErr == nil && result.Failed() {
		crawlErr = errAllRulesFailed
	}
	if crawlErr != nil {
		w.logger.Warn("crawl failed", zap.String("url", url), zap.Error(crawlErr))
		return true, w.handleFailure(ctx, url, crawlErr)
	}

	w.logger.Info("crawl succeeded",
		zap.String("url", url),
		zap.Int("lines", len(result.Lines)),
		zap.Duration("elapsed", elapsed),
	)
	return true, w.handleSuccess(ctx, result, elapsed)
}

func (w *CrawlWorker) handleSuccess(ctx context.Context, result *entity.Extraction, elapsed time.Duration) error {
	metrics.CrawlsTotal.WithLabelValues("success", "").Inc()

	article := &entity.Article{
		URL:            result.URL,
		Domain:         result.Domain,
		Lines:          result.Lines,
		RulesMatched:   result.RulesMatched,
		RulesFailed:    result.RulesFailed,
		CrawlTimestamp: w.now(),
		ResponseTimeMS: int(elapsed.Milliseconds()),
	}
	if err := w.articles.Save(ctx, article); err != nil {
		return fmt.Errorf("failed to save article for %s: %w", result.URL, err)
	}

	if err := w.failed.Delete(ctx, result.URL); err != nil {
		w.logger.Warn("failed to delete URL from failed_urls after successful crawl", zap.String("url", result.URL), zap.Error(err))
	}
	return nil
}

func (w *CrawlWorker) handleFailure(ctx context.Context, url string, crawlErr error) error {
	errorType := entity.ErrorTypeUnknown
	retryable := true
	switch {
	case errors.Is(crawlErr, crawler.ErrMalformedURL):
		errorType = entity.ErrorTypeMalformedURL
		retryable = false
	case errors.Is(crawlErr, errAllRulesFailed), errors.Is(crawlErr, repository.ErrFetchFailed):
		errorType = entity.ErrorTypeFetch
	}
	metrics.CrawlsTotal.WithLabelValues("failure", errorType).Inc()

	previous := 0
	if prior, err := w.failed.FindByURL(ctx, url); err == nil {
		previous = prior.RetryCount
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up failure record for %s: %w", url, err)
	}

	now := w.now()
	record := &entity.FailedURL{
		URL:                  url,
		FailureReason:        crawlErr.Error(),
		ErrorType:            errorType,
		Retryable:            retryable,
		LastAttemptTimestamp: now,
		NextRetryAt:          now.Add(retryDelay(previous)),
	}
	if err := w.failed.SaveOrUpdate(ctx, record); err != nil {
		return fmt.Errorf("failed to save or update failed URL record for %s: %w", url, err)
	}
	return nil
}

// RetryFailed re-queues failed URLs whose retry is due and returns how many
// were queued.
func (w *CrawlWorker) RetryFailed(ctx context.Context) (int, error) {
	due, err := w.failed.FindRetryable(ctx, w.cfg.RetryBatch, maxRetries)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, f := range due {
		if err := w.queue.Push(ctx, f.URL); err != nil {
			return queued, fmt.Errorf("failed to re-queue %s: %w", f.URL, err)
		}
		// Keep the record from being picked again while the URL waits in the queue.
		if err := w.failed.Reschedule(ctx, f.URL, w.now().Add(retryDelay(f.RetryCount))); err != nil {
			w.logger.Warn("failed to reschedule failed URL", zap.String("url", f.URL), zap.Error(err))
		}
		queued++
	}
	if queued > 0 {
		w.logger.Info("re-queued failed URLs", zap.Int("count", queued))
	}
	return queued, nil
}

// retryDelay is an exponential backoff with jitter for a URL that already
// failed attempts times.
func retryDelay(attempts int) time.Duration {
	d := initialBackoff << min(attempts, 16)
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	jitter := 1 + jitterFactor*(2*rand.Float64()-1)
	return time.Duration(float64(d) * jitter)
}
