package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
	"github.com/user/knowlife/pkg/metrics"
	"github.com/user/knowlife/pkg/utils"
)

var ErrURLRecentlyCrawled = errors.New("URL has been crawled recently and force_crawl is false")

// URLManager defines the interface for submitting and checking URLs.
type URLManager interface {
	Submit(ctx context.Context, url string, force bool) (string, error)
	GetStatus(ctx context.Context, url string) (*entity.CrawlStatus, error)
}

type urlManagerUseCase struct {
	visitedRepo   repository.VisitedRepository
	queueRepo     repository.QueueRepository
	articleRepo   repository.ArticleRepository
	failedURLRepo repository.FailedURLRepository
	dedupWindow   time.Duration
	logger        *zap.Logger
}

// NewURLManager creates a new URLManager use case. Submitted URLs are not
// queued again within dedupWindow unless forced.
func NewURLManager(
	visitedRepo repository.VisitedRepository,
	queueRepo repository.QueueRepository,
	articleRepo repository.ArticleRepository,
	failedURLRepo repository.FailedURLRepository,
	dedupWindow time.Duration,
	logger *zap.Logger,
) URLManager {
	return &urlManagerUseCase{
		visitedRepo:   visitedRepo,
		queueRepo:     queueRepo,
		articleRepo:   articleRepo,
		failedURLRepo: failedURLRepo,
		dedupWindow:   dedupWindow,
		logger:        logger,
	}
}

// Submit queues url for crawling and returns its crawl ID.
func (uc *urlManagerUseCase) Submit(ctx context.Context, url string, force bool) (string, error) {
	crawlID := utils.HashURL(url)

	if force {
		if err := uc.visitedRepo.RemoveVisited(ctx, url); err != nil {
			uc.logger.Warn("failed to remove visited key for force crawl", zap.String("url", url), zap.Error(err))
		}
	} else {
		visited, err := uc.visitedRepo.IsVisited(ctx, url)
		if err != nil {
			return "", err
		}
		if visited {
			return crawlID, ErrURLRecentlyCrawled
		}
	}

	if err := uc.queueRepo.Push(ctx, url); err != nil {
		return "", err
	}
	if size, err := uc.queueRepo.Size(ctx); err == nil {
		metrics.URLsInQueue.Set(float64(size))
	}

	if err := uc.visitedRepo.MarkVisited(ctx, url, uc.dedupWindow); err != nil {
		// The URL is queued; it may only be queued twice.
		uc.logger.Error("failed to mark URL as visited after queueing", zap.String("url", url), zap.Error(err))
	}
	return crawlID, nil
}

// GetStatus reports whether url was crawled, failed, is pending or unknown.
func (uc *urlManagerUseCase) GetStatus(ctx context.Context, url string) (*entity.CrawlStatus, error) {
	article, err := uc.articleRepo.FindByURL(ctx, url)
	switch {
	case err == nil:
		return &entity.CrawlStatus{
			URL:                url,
			CurrentStatus:      entity.StatusCompleted,
			LastCrawlTimestamp: &article.CrawlTimestamp,
		}, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	failed, err := uc.failedURLRepo.FindByURL(ctx, url)
	switch {
	case err == nil:
		status := &entity.CrawlStatus{
			URL:                url,
			CurrentStatus:      entity.StatusFailed,
			LastCrawlTimestamp: &failed.LastAttemptTimestamp,
			FailureReason:      failed.FailureReason,
			RetryCount:         failed.RetryCount,
		}
		if failed.Retryable {
			status.NextRetryAt = &failed.NextRetryAt
		}
		return status, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	visited, err := uc.visitedRepo.IsVisited(ctx, url)
	if err != nil {
		return nil, err
	}
	if visited {
		return &entity.CrawlStatus{URL: url, CurrentStatus: entity.StatusPending}, nil
	}
	return &entity.CrawlStatus{URL: url, CurrentStatus: entity.StatusNotFound}, nil
}
