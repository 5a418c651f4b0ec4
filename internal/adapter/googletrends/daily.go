package googletrends

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/pkg/utils"
)

const trendsNamespace = "ht"

// DailyTrends returns today's search trends for geo from the RSS feed.
// An empty geo falls back to the configured one, then to entity.DefaultTrendGeo.
func (c *Client) DailyTrends(ctx context.Context, geo string) ([]entity.DailyTrend, error) {
	if geo == "" {
		geo = c.opts.Geo
	}
	if geo == "" {
		geo = entity.DefaultTrendGeo
	}

	body, err := c.get(ctx, dailyRSSPath, url.Values{"geo": {geo}})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse daily trends feed: %w", err)
	}
	base, _ := url.Parse(c.opts.BaseURL)
	return FeedToTrends(feed, base), nil
}

// FeedToTrends maps feed items and their ht: extensions onto DailyTrends.
// Relative news links are resolved against base when it is set.
func FeedToTrends(feed *gofeed.Feed, base *url.URL) []entity.DailyTrend {
	trends := make([]entity.DailyTrend, 0, len(feed.Items))
	for _, item := range feed.Items {
		trend := entity.DailyTrend{
			Title:       item.Title,
			PublishedAt: item.PublishedParsed,
		}
		ht := item.Extensions[trendsNamespace]
		if v := first(ht["approx_traffic"]); v != nil {
			trend.Traffic = v.Value
		}
		for _, n := range ht["news_item"] {
			news := entity.TrendNews{
				Title:  childValue(n, "news_item_title"),
				URL:    childValue(n, "news_item_url"),
				Source: childValue(n, "news_item_source"),
			}
			if news.URL == "" {
				continue
			}
			if base != nil {
				abs, err := utils.ToAbsoluteURL(base, news.URL)
				if err != nil {
					continue
				}
				news.URL = abs
			}
			trend.News = append(trend.News, news)
		}
		trends = append(trends, trend)
	}
	return trends
}

func first(exts []ext.Extension) *ext.Extension {
	if len(exts) == 0 {
		return nil
	}
	return &exts[0]
}

func childValue(e ext.Extension, name string) string {
	if c := first(e.Children[name]); c != nil {
		return c.Value
	}
	return ""
}
