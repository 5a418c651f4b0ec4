package crawler

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedURL matches every *MalformedURLError through errors.Is.
var ErrMalformedURL = errors.New("malformed url")

// MalformedURLError is returned when a URL has no segment after the first
// run of slashes.
type MalformedURLError struct {
	URL      string
	Segments int
}

func (e *MalformedURLError) Error() string {
	return fmt.Sprintf("malformed url %q: want at least 2 slash-delimited segments, got %d", e.URL, e.Segments)
}

func (e *MalformedURLError) Is(target error) bool { return target == ErrMalformedURL }

var slashRuns = regexp.MustCompile(`/+`)

// ResolveDomain returns the second segment of rawURL split on runs of "/".
// For "https://example.com/a" that is the host; the split is structural and
// does not parse the URL.
func ResolveDomain(rawURL string) (string, error) {
	segments := slashRuns.Split(rawURL, -1)
	if len(segments) < 2 {
		return "", &MalformedURLError{URL: rawURL, Segments: len(segments)}
	}
	return segments[1], nil
}
