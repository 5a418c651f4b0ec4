package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrFetchFailed matches every *FetchError through errors.Is.
var ErrFetchFailed = errors.New("fetch failed")

// FetchError describes a network or HTTP failure while fetching a page.
type FetchError struct {
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: received status code %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// HTMLFetcher defines the contract for retrieving the raw HTML of a page.
type HTMLFetcher interface {
	// Fetch returns the HTML text served at url. Failures are *FetchError.
	Fetch(ctx context.Context, url string) (string, error)
}
