package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/knowlife/pkg/utils"
)

const visitedURLPrefix = "knowlife:visited:"

// VisitedRepoImpl implements repository.VisitedRepository with expiring keys.
type VisitedRepoImpl struct {
	client redis.Cmdable
}

// NewVisitedRepo creates a new instance of VisitedRepoImpl.
func NewVisitedRepo(client redis.Cmdable) *VisitedRepoImpl {
	return &VisitedRepoImpl{client: client}
}

func visitedKey(url string) string {
	return visitedURLPrefix + utils.HashURL(url)
}

// MarkVisited records url for expiry.
func (r *VisitedRepoImpl) MarkVisited(ctx context.Context, url string, expiry time.Duration) error {
	return r.client.SetEx(ctx, visitedKey(url), "1", expiry).Err()
}

// IsVisited reports whether url was marked and has not expired.
func (r *VisitedRepoImpl) IsVisited(ctx context.Context, url string) (bool, error) {
	n, err := r.client.Exists(ctx, visitedKey(url)).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RemoveVisited forgets url.
func (r *VisitedRepoImpl) RemoveVisited(ctx context.Context, url string) error {
	return r.client.Del(ctx, visitedKey(url)).Err()
}
