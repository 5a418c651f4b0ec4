package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
)

// ArticleRepoImpl implements repository.ArticleRepository on PostgreSQL.
type ArticleRepoImpl struct {
	db DB
}

// NewArticleRepo creates a new instance of ArticleRepoImpl.
func NewArticleRepo(db DB) *ArticleRepoImpl {
	return &ArticleRepoImpl{db: db}
}

// Save stores or replaces the article for a URL.
func (r *ArticleRepoImpl) Save(ctx context.Context, a *entity.Article) error {
	query := `
		INSERT INTO articles (url, domain, lines, rules_matched, rules_failed, response_time_ms, crawl_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (url) DO UPDATE SET
			domain = EXCLUDED.domain,
			lines = EXCLUDED.lines,
			rules_matched = EXCLUDED.rules_matched,
			rules_failed = EXCLUDED.rules_failed,
			response_time_ms = EXCLUDED.response_time_ms,
			crawl_timestamp = EXCLUDED.crawl_timestamp;
	`
	lines := a.Lines
	if lines == nil {
		lines = []string{}
	}
	_, err := r.db.Exec(ctx, query,
		a.URL,
		a.Domain,
		lines,
		a.RulesMatched,
		a.RulesFailed,
		a.ResponseTimeMS,
		a.CrawlTimestamp,
	)
	return err
}

// FindByURL returns the stored article for url or repository.ErrNotFound.
func (r *ArticleRepoImpl) FindByURL(ctx context.Context, url string) (*entity.Article, error) {
	query := `
		SELECT id, url, domain, lines, rules_matched, rules_failed, response_time_ms, crawl_timestamp
		FROM articles
		WHERE url = $1;
	`
	var a entity.Article
	err := r.db.QueryRow(ctx, query, url).Scan(
		&a.ID,
		&a.URL,
		&a.Domain,
		&a.Lines,
		&a.RulesMatched,
		&a.RulesFailed,
		&a.ResponseTimeMS,
		&a.CrawlTimestamp,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
