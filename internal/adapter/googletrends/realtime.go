package googletrends

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/user/knowlife/internal/entity"
)

type realtimeResponse struct {
	StorySummaries struct {
		TrendingStories []entity.TrendingStory `json:"trendingStories"`
	} `json:"storySummaries"`
}

// RealtimeTrendingSearches returns the stories currently trending in q.Geo.
func (c *Client) RealtimeTrendingSearches(ctx context.Context, q entity.TrendingQuery) ([]entity.TrendingStory, error) {
	q = q.WithDefaults()

	params := url.Values{}
	params.Set("ns", "15")
	params.Set("geo", q.Geo)
	params.Set("tz", itoa(c.opts.TZ))
	params.Set("hl", c.opts.HL)
	params.Set("cat", q.Category)
	params.Set("fi", "0")
	params.Set("fs", "0")
	params.Set("ri", itoa(min(300, q.Count)))
	params.Set("rs", itoa(min(200, q.Count-1)))
	params.Set("sort", "0")

	body, err := c.get(ctx, realtimePath, params)
	if err != nil {
		return nil, err
	}
	if len(body) < xssiPrefixLen {
		return nil, fmt.Errorf("google trends response too short: %d bytes", len(body))
	}

	var resp realtimeResponse
	if err := json.Unmarshal(body[xssiPrefixLen:], &resp); err != nil {
		return nil, fmt.Errorf("failed to decode realtime trends: %w", err)
	}

	stories := resp.StorySummaries.TrendingStories
	if stories == nil {
		stories = []entity.TrendingStory{}
	}
	for i := range stories {
		if stories[i].EntityNames == nil {
			stories[i].EntityNames = []string{}
		}
	}
	return stories, nil
}
