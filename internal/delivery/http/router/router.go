package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/knowlife/internal/delivery/http/handler"
	"github.com/user/knowlife/internal/delivery/http/middleware"
)

// New mounts every route. The crawl queue routes exist only when h has
// storage.
func New(h *handler.Handler, agent middleware.ReadyChecker, logger *zap.Logger, timeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	if timeout > 0 {
		r.Use(chimw.Timeout(timeout))
	}

	r.Handle("/metrics", promhttp.Handler())

	requireAgent := middleware.RequireAgent(agent, logger)
	r.With(requireAgent).Get("/health", h.HandleHealthCheck)
	r.With(requireAgent).Get("/get_trend_article", h.HandleGetTrendArticle)

	r.Route("/api", func(r chi.Router) {
		r.With(requireAgent).Get("/trends/daily", h.HandleDailyTrends)
		r.Get("/content", h.HandleGetContent)
		if h.StorageEnabled() {
			r.Post("/crawl", h.HandleSubmitCrawl)
			r.Get("/status", h.HandleGetCrawlStatus)
		}
	})

	return r
}
