package response

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/entity"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Reason  string         `json:"reason"`
	Details map[string]any `json:"details"`
	Help    *string        `json:"help"`
	Code    int            `json:"code"`
}

// NewError builds the failure envelope for code.
func NewError(code int, reason, message string) ErrorResponse {
	return ErrorResponse{
		Status:  "failure",
		Message: message,
		Reason:  reason,
		Details: map[string]any{},
		Code:    code,
	}
}

type SubmitCrawlResponse struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	CrawlRequestID string `json:"crawl_request_id"`
}

// CrawlStatusResponse is a DTO for crawl status, mirroring entity.CrawlStatus
type CrawlStatusResponse struct {
	URL                string     `json:"url"`
	CurrentStatus      string     `json:"current_status"`
	LastCrawlTimestamp *time.Time `json:"last_crawl_timestamp,omitempty"`
	NextRetryAt        *time.Time `json:"next_retry_at,omitempty"`
	FailureReason      string     `json:"failure_reason,omitempty"`
	RetryCount         int        `json:"retry_count,omitempty"`
}

func NewCrawlStatusResponse(s *entity.CrawlStatus) CrawlStatusResponse {
	return CrawlStatusResponse{
		URL:                s.URL,
		CurrentStatus:      s.CurrentStatus,
		LastCrawlTimestamp: s.LastCrawlTimestamp,
		NextRetryAt:        s.NextRetryAt,
		FailureReason:      s.FailureReason,
		RetryCount:         s.RetryCount,
	}
}

type ContentResponse struct {
	URL    string   `json:"url"`
	Domain string   `json:"domain"`
	Lines  []string `json:"lines"`
}

// JSON writes data with the given status.
func JSON(w http.ResponseWriter, logger *zap.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// Error writes the failure envelope and logs message.
func Error(w http.ResponseWriter, logger *zap.Logger, code int, reason, message string) {
	logger.Error(message, zap.String("reason", reason), zap.Int("code", code))
	JSON(w, logger, code, NewError(code, reason, message))
}
