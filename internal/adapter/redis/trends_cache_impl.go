package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/knowlife/internal/entity"
)

const trendsCachePrefix = "knowlife:trends:"

// TrendsCacheImpl implements repository.TrendsCache with JSON values.
type TrendsCacheImpl struct {
	client redis.Cmdable
}

// NewTrendsCache creates a new instance of TrendsCacheImpl.
func NewTrendsCache(client redis.Cmdable) *TrendsCacheImpl {
	return &TrendsCacheImpl{client: client}
}

// Get returns the stories cached under key.
func (c *TrendsCacheImpl) Get(ctx context.Context, key string) ([]entity.TrendingStory, bool, error) {
	data, err := c.client.Get(ctx, trendsCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stories []entity.TrendingStory
	if err := json.Unmarshal(data, &stories); err != nil {
		return nil, false, fmt.Errorf("corrupt trends cache entry %q: %w", key, err)
	}
	return stories, true, nil
}

// Set caches stories under key for ttl.
func (c *TrendsCacheImpl) Set(ctx context.Context, key string, stories []entity.TrendingStory, ttl time.Duration) error {
	data, err := json.Marshal(stories)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, trendsCachePrefix+key, data, ttl).Err()
}
