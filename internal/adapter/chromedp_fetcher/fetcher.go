package chromedp_fetcher

import (
	"context"
	"errors"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/knowlife/internal/adapter/proxy"
	"github.com/user/knowlife/internal/repository"
)

var errClosed = errors.New("chromedp fetcher closed")

type allocator struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Fetcher renders pages in headless Chrome and returns the resulting DOM.
// At most maxConcurrency pages are rendered at once, one per allocator.
type Fetcher struct {
	pool    chan allocator
	all     []allocator
	timeout time.Duration
	logger  *zap.Logger
}

// NewChromedpFetcher starts maxConcurrency browser allocators. Close must be
// called to release them.
func NewChromedpFetcher(maxConcurrency int, pageLoadTimeout time.Duration, proxies *proxy.Manager, logger *zap.Logger) *Fetcher {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	f := &Fetcher{
		pool:    make(chan allocator, maxConcurrency),
		timeout: pageLoadTimeout,
		logger:  logger,
	}
	for i := 0; i < maxConcurrency; i++ {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		if ua := proxies.GetUserAgent(); ua != "" {
			opts = append(opts, chromedp.UserAgent(ua))
		}
		if p := proxies.GetProxy(); p != "" {
			opts = append(opts, chromedp.ProxyServer(p))
		}
		ctx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
		a := allocator{ctx: ctx, cancel: cancel}
		f.all = append(f.all, a)
		f.pool <- a
	}
	return f
}

// Fetch navigates to url and returns the outer HTML of the rendered page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var a allocator
	select {
	case a = <-f.pool:
	case <-ctx.Done():
		return "", &repository.FetchError{URL: url, Err: ctx.Err()}
	}
	defer func() { f.pool <- a }()
	if a.ctx.Err() != nil {
		return "", &repository.FetchError{URL: url, Err: errClosed}
	}

	taskCtx, cancel := chromedp.NewContext(a.ctx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer cancel()
	taskCtx, cancel = context.WithTimeout(taskCtx, f.timeout)
	defer cancel()

	// Abort the page load when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(url))
	if err != nil {
		f.logger.Debug("failed to render page", zap.String("url", url), zap.Error(err))
		return "", &repository.FetchError{URL: url, Err: err}
	}
	if err := responseError(url, resp); err != nil {
		f.logger.Debug("page returned error status", zap.String("url", url), zap.Int64("status", resp.Status))
		return "", err
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		f.logger.Debug("failed to read page html", zap.String("url", url), zap.Error(err))
		return "", &repository.FetchError{URL: url, Err: err}
	}

	f.logger.Debug("rendered page",
		zap.String("url", url),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(html)),
	)
	return html, nil
}

// responseError maps a non-2xx main document response to a *FetchError.
// A nil response (no network request was made) is not an error.
func responseError(url string, resp *network.Response) error {
	if resp == nil || (resp.Status >= 200 && resp.Status < 300) {
		return nil
	}
	return &repository.FetchError{URL: url, StatusCode: int(resp.Status)}
}

// Close shuts down every browser allocator.
func (f *Fetcher) Close() error {
	for _, a := range f.all {
		a.cancel()
	}
	return nil
}
