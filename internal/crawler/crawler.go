// Package crawler extracts article text from pages of configured news
// domains.
package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/repository"
	"github.com/user/knowlife/internal/selector"
	"github.com/user/knowlife/pkg/metrics"
)

// Crawler fetches pages and applies the selector rules of their domain.
// It keeps no mutable state and may be shared between goroutines.
type Crawler struct {
	config  *selector.Config
	fetcher repository.HTMLFetcher
	logger  *zap.Logger
}

// New creates a Crawler that owns cfg and fetches pages through fetcher.
func New(cfg *selector.Config, fetcher repository.HTMLFetcher, logger *zap.Logger) *Crawler {
	return &Crawler{
		config:  cfg,
		fetcher: fetcher,
		logger:  logger,
	}
}

// GetContentFromURL returns the article lines extracted from url by every
// rule matching its domain. Only a malformed url is an error; pages that
// cannot be fetched for a rule are skipped.
func (c *Crawler) GetContentFromURL(ctx context.Context, url string) ([]string, error) {
	result, err := c.Crawl(ctx, url)
	if err != nil {
		return nil, err
	}
	return result.Lines, nil
}

// Crawl is GetContentFromURL with the per-rule bookkeeping kept.
func (c *Crawler) Crawl(ctx context.Context, url string) (*entity.Extraction, error) {
	domain, err := ResolveDomain(url)
	if err != nil {
		return nil, err
	}

	rules := c.config.FindRulesForDomain(domain)
	result := &entity.Extraction{
		URL:          url,
		Domain:       domain,
		Lines:        []string{},
		RulesMatched: len(rules),
	}
	if len(rules) == 0 {
		c.logger.Debug("no selector rule for domain", zap.String("url", url), zap.String("domain", domain))
		return result, nil
	}

	start := time.Now()
	for i, rule := range rules {
		// Each rule fetches the page again.
		doc, err := c.fetchDocument(ctx, url)
		if err != nil {
			result.RulesFailed++
			metrics.FetchFailuresTotal.WithLabelValues(rule.Domain).Inc()
			c.logger.Warn("skipping selector rule",
				zap.String("url", url),
				zap.String("rule", rule.Domain),
				zap.Int("rule_index", i),
				zap.Error(err),
			)
			continue
		}
		result.Lines = append(result.Lines, Extract(doc, rule)...)
	}
	metrics.CrawlDuration.WithLabelValues(rules[0].Domain).Observe(time.Since(start).Seconds())

	c.logger.Debug("extracted content",
		zap.String("url", url),
		zap.Int("rules", result.RulesMatched),
		zap.Int("failed", result.RulesFailed),
		zap.Int("lines", len(result.Lines)),
	)
	return result, nil
}

func (c *Crawler) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	html, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}
