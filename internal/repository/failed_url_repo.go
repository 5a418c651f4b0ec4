package repository

import (
	"context"
	"time"

	"github.com/user/knowlife/internal/entity"
)

// FailedURLRepository defines the interface for managing URLs that failed to be crawled.
type FailedURLRepository interface {
	// SaveOrUpdate creates or updates a record for a failed URL.
	SaveOrUpdate(ctx context.Context, failedURL *entity.FailedURL) error
	// FindByURL retrieves the failure record for a URL, or ErrNotFound.
	FindByURL(ctx context.Context, url string) (*entity.FailedURL, error)
	// FindRetryable retrieves up to limit retryable URLs that are due and
	// have failed fewer than maxRetries times.
	FindRetryable(ctx context.Context, limit, maxRetries int) ([]*entity.FailedURL, error)
	// Reschedule moves the next retry of url to next.
	Reschedule(ctx context.Context, url string, next time.Time) error
	// Delete removes a failed URL record, typically after a successful crawl.
	Delete(ctx context.Context, url string) error
}
