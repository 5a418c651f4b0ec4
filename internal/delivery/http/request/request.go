package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/user/knowlife/internal/entity"
)

type SubmitCrawlRequest struct {
	URL        string `json:"url"`
	ForceCrawl bool   `json:"force_crawl"`
}

// TrendingQuery reads geo, cat and count from the query string. Missing
// values are left empty for the agent to default.
func TrendingQuery(r *http.Request) (entity.TrendingQuery, error) {
	q := r.URL.Query()
	out := entity.TrendingQuery{
		Geo:      strings.ToUpper(strings.TrimSpace(q.Get("geo"))),
		Category: strings.TrimSpace(q.Get("cat")),
	}
	if raw := q.Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return out, fmt.Errorf("count must be a positive integer, got %q", raw)
		}
		out.Count = n
	}
	return out, nil
}

// Bool reads a boolean query parameter; absent means false.
func Bool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}
