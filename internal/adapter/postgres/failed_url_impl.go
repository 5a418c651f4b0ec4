package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
)

// FailedURLRepoImpl implements repository.FailedURLRepository on PostgreSQL.
type FailedURLRepoImpl struct {
	db DB
}

// NewFailedURLRepo creates a new instance of FailedURLRepoImpl.
func NewFailedURLRepo(db DB) *FailedURLRepoImpl {
	return &FailedURLRepoImpl{db: db}
}

// SaveOrUpdate records a failed attempt. Repeated failures of the same URL
// increment retry_count.
func (r *FailedURLRepoImpl) SaveOrUpdate(ctx context.Context, f *entity.FailedURL) error {
	query := `
		INSERT INTO failed_urls (url, failure_reason, error_type, retryable, last_attempt_timestamp, retry_count, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (url) DO UPDATE SET
			failure_reason = EXCLUDED.failure_reason,
			error_type = EXCLUDED.error_type,
			retryable = EXCLUDED.retryable,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			retry_count = failed_urls.retry_count + 1,
			next_retry_at = EXCLUDED.next_retry_at;
	`
	_, err := r.db.Exec(ctx, query,
		f.URL,
		f.FailureReason,
		f.ErrorType,
		f.Retryable,
		f.LastAttemptTimestamp,
		f.NextRetryAt,
	)
	return err
}

const failedURLColumns = `id, url, failure_reason, error_type, retryable, last_attempt_timestamp, retry_count, next_retry_at`

func scanFailedURL(row pgx.Row) (*entity.FailedURL, error) {
	var f entity.FailedURL
	err := row.Scan(
		&f.ID,
		&f.URL,
		&f.FailureReason,
		&f.ErrorType,
		&f.Retryable,
		&f.LastAttemptTimestamp,
		&f.RetryCount,
		&f.NextRetryAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// FindByURL returns the failure record for url or repository.ErrNotFound.
func (r *FailedURLRepoImpl) FindByURL(ctx context.Context, url string) (*entity.FailedURL, error) {
	query := `SELECT ` + failedURLColumns + ` FROM failed_urls WHERE url = $1;`
	f, err := scanFailedURL(r.db.QueryRow(ctx, query, url))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return f, err
}

// FindRetryable returns up to limit retryable URLs whose next retry is due,
// oldest first.
func (r *FailedURLRepoImpl) FindRetryable(ctx context.Context, limit, maxRetries int) ([]*entity.FailedURL, error) {
	query := `
		SELECT ` + failedURLColumns + `
		FROM failed_urls
		WHERE retryable AND retry_count < $2 AND next_retry_at <= NOW()
		ORDER BY next_retry_at ASC
		LIMIT $1;
	`
	rows, err := r.db.Query(ctx, query, limit, maxRetries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var failed []*entity.FailedURL
	for rows.Next() {
		f, err := scanFailedURL(rows)
		if err != nil {
			return nil, err
		}
		failed = append(failed, f)
	}
	return failed, rows.Err()
}

// Reschedule sets the next retry time of url.
func (r *FailedURLRepoImpl) Reschedule(ctx context.Context, url string, next time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE failed_urls SET next_retry_at = $2 WHERE url = $1;`, url, next)
	return err
}

// Delete removes the failure record of url, typically after a successful crawl.
func (r *FailedURLRepoImpl) Delete(ctx context.Context, url string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM failed_urls WHERE url = $1;`, url)
	return err
}
