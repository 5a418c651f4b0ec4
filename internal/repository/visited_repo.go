package repository

import (
	"context"
	"time"
)

// VisitedRepository defines the interface for deduplication of submitted URLs.
type VisitedRepository interface {
	// MarkVisited marks a URL as submitted for the given expiry.
	MarkVisited(ctx context.Context, url string, expiry time.Duration) error
	// IsVisited checks if a URL has been submitted recently.
	IsVisited(ctx context.Context, url string) (bool, error)
	// RemoveVisited removes a URL from the visited set, used for force_crawl.
	RemoveVisited(ctx context.Context, url string) error
}
