package entity

import (
	"fmt"
	"time"
)

// Defaults applied by TrendingQuery.WithDefaults.
const (
	DefaultTrendGeo      = "US"
	DefaultTrendCategory = "all"
	DefaultTrendCount    = 300
)

// TrendingQuery parameterises a realtime trending searches request.
type TrendingQuery struct {
	Geo      string
	Category string
	Count    int
}

// WithDefaults fills empty fields of q.
func (q TrendingQuery) WithDefaults() TrendingQuery {
	if q.Geo == "" {
		q.Geo = DefaultTrendGeo
	}
	if q.Category == "" {
		q.Category = DefaultTrendCategory
	}
	if q.Count <= 0 {
		q.Count = DefaultTrendCount
	}
	return q
}

// Key identifies q in caches.
func (q TrendingQuery) Key() string {
	return fmt.Sprintf("%s:%s:%d", q.Geo, q.Category, q.Count)
}

// TrendingStory is one realtime trending story, reduced to the fields the
// API exposes.
type TrendingStory struct {
	Title       string   `json:"title"`
	EntityNames []string `json:"entityNames"`
}

// DailyTrend is a single search trend from the daily trends feed.
type DailyTrend struct {
	Title       string      `json:"title"`
	Traffic     string      `json:"traffic,omitempty"`
	PublishedAt *time.Time  `json:"published_at,omitempty"`
	News        []TrendNews `json:"news,omitempty"`
}

// TrendNews is a news article linked to a daily trend. Content is only
// filled when the caller asked for article bodies.
type TrendNews struct {
	Title   string   `json:"title"`
	URL     string   `json:"url"`
	Source  string   `json:"source,omitempty"`
	Content []string `json:"content,omitempty"`
}
