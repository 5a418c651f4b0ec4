package entity

import "time"

// Article mirrors the `articles` PostgreSQL table schema.
type Article struct {
	ID             int64
	URL            string
	Domain         string
	Lines          []string
	RulesMatched   int
	RulesFailed    int
	CrawlTimestamp time.Time
	ResponseTimeMS int
}
