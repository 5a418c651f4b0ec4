package entity

import "time"

// Error types recorded for failed crawls.
const (
	ErrorTypeMalformedURL = "malformed_url"
	ErrorTypeFetch        = "fetch"
	ErrorTypeUnknown      = "unknown"
)

// FailedURL mirrors the `failed_urls` PostgreSQL table schema.
type FailedURL struct {
	ID                   int64
	URL                  string
	FailureReason        string
	ErrorType            string
	Retryable            bool
	LastAttemptTimestamp time.Time
	RetryCount           int
	NextRetryAt          time.Time
}
