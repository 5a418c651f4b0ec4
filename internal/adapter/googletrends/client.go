// Package googletrends is a small Google Trends client covering realtime
// trending searches and the daily trends feed.
package googletrends

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/adapter/proxy"
)

const (
	DefaultBaseURL = "https://trends.google.com"

	realtimePath = "/trends/api/realtimetrends"
	dailyRSSPath = "/trending/rss"

	// Responses of the JSON API start with an anti-XSSI prefix.
	xssiPrefixLen = 5
)

var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusGatewayTimeout:      true,
}

// ResponseError reports a non-200 answer from Google.
type ResponseError struct {
	URL        string
	StatusCode int
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("google trends %s: received status code %d", e.URL, e.StatusCode)
}

// Options configures a Client.
type Options struct {
	HL             string // host language, e.g. vi-vn
	TZ             int    // timezone offset in minutes
	Geo            string // default geography for daily trends
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	BackoffFactor  float64
	Proxies        *proxy.Manager
	BaseURL        string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		HL:             "vi-vn",
		TZ:             360,
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    5 * time.Second,
		BaseURL:        DefaultBaseURL,
	}
}

// Validate reports options New cannot work with.
func (o Options) Validate() error {
	var errs []error
	if len(o.HL) < 2 {
		errs = append(errs, fmt.Errorf("host language %q too short", o.HL))
	}
	if o.ConnectTimeout <= 0 || o.ReadTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if o.Retries < 0 {
		errs = append(errs, fmt.Errorf("negative retries: %d", o.Retries))
	}
	if o.BackoffFactor < 0 {
		errs = append(errs, fmt.Errorf("negative backoff factor: %v", o.BackoffFactor))
	}
	if o.BaseURL != "" {
		if _, err := url.ParseRequestURI(o.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("invalid base url: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Client talks to Google Trends. It is safe for concurrent use.
type Client struct {
	opts   Options
	http   *http.Client
	logger *zap.Logger

	cookieOnce sync.Once
	cookie     *http.Cookie
}

// New returns a Client for opts.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: opts.ConnectTimeout}).DialContext
	transport.ResponseHeaderTimeout = opts.ReadTimeout
	if opts.Proxies.HasProxies() {
		proxies := opts.Proxies
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			return url.Parse(proxies.GetProxy())
		}
	}

	return &Client{
		opts:   opts,
		http:   &http.Client{Transport: transport},
		logger: logger,
	}, nil
}

// nid fetches the NID cookie Google expects on API calls. A missing cookie
// is not an error; requests are sent without it.
func (c *Client) nid(ctx context.Context) *http.Cookie {
	c.cookieOnce.Do(func() {
		geo := c.opts.HL[len(c.opts.HL)-2:]
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/?geo="+url.QueryEscape(geo), nil)
		if err != nil {
			return
		}
		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.Warn("failed to fetch google cookie", zap.Error(err))
			return
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		for _, ck := range resp.Cookies() {
			if ck.Name == "NID" {
				c.cookie = ck
				return
			}
		}
	})
	return c.cookie
}

// get performs a GET with retries on throttling and gateway errors and
// returns the body of the 200 response.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	target := c.opts.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	cookie := c.nid(ctx)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		if cookie != nil {
			req.AddCookie(cookie)
		}
		if ua := c.opts.Proxies.GetUserAgent(); ua != "" {
			req.Header.Set("User-Agent", ua)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("google trends request failed: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read google trends response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		if !retryStatuses[resp.StatusCode] || attempt >= c.opts.Retries {
			return nil, &ResponseError{URL: target, StatusCode: resp.StatusCode}
		}
		c.logger.Debug("retrying google trends request",
			zap.String("url", target),
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
		)
	}
}

// backoff is factor * 2^(attempt-1) seconds.
func (c *Client) backoff(attempt int) time.Duration {
	seconds := c.opts.BackoffFactor * float64(int(1)<<(attempt-1))
	return time.Duration(seconds * float64(time.Second))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

// Load builds a client from opts. When opts are unusable it logs the
// problem and falls back to DefaultOptions, keeping the proxies.
func Load(opts Options, logger *zap.Logger) *Client {
	c, err := New(opts, logger)
	if err == nil {
		return c
	}
	logger.Warn("invalid trends options, using defaults", zap.Error(err))

	def := DefaultOptions()
	def.Proxies = opts.Proxies
	c, err = New(def, logger)
	if err != nil {
		// DefaultOptions always validate.
		panic(err)
	}
	return c
}
