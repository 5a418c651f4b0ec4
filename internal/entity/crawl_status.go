package entity

import "time"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusNotFound  = "not_found"
)

type CrawlStatus struct {
	URL                string
	CurrentStatus      string // one of the Status* constants
	LastCrawlTimestamp *time.Time
	NextRetryAt        *time.Time
	FailureReason      string
	RetryCount         int
}
