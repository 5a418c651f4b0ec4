// Package httpfetch downloads pages over plain HTTP.
package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/user/knowlife/internal/adapter/proxy"
	"github.com/user/knowlife/internal/repository"
)

// maxBodySize bounds how much of a page is read.
const maxBodySize = 10 << 20

// Fetcher implements repository.HTMLFetcher with net/http.
type Fetcher struct {
	client  *http.Client
	proxies *proxy.Manager
	timeout time.Duration
}

// New returns a Fetcher whose requests time out after timeout. Proxies and
// User-Agents are taken from proxies, which may be nil.
func New(timeout time.Duration, proxies *proxy.Manager) *Fetcher {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxies.HasProxies() {
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			return url.Parse(proxies.GetProxy())
		}
	}
	return &Fetcher{
		client:  &http.Client{Transport: transport},
		proxies: proxies,
		timeout: timeout,
	}
}

// Fetch GETs rawURL and returns the body. Transport errors and non-2xx
// responses are reported as *repository.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &repository.FetchError{URL: rawURL, Err: err}
	}
	if ua := f.proxies.GetUserAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &repository.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &repository.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", &repository.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	return string(body), nil
}
