package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/user/knowlife/internal/crawler"
	"github.com/user/knowlife/internal/delivery/http/request"
	"github.com/user/knowlife/internal/delivery/http/response"
	"github.com/user/knowlife/internal/entity"
	"github.com/user/knowlife/internal/usecase"
)

// TrendsAgent serves trend queries.
type TrendsAgent interface {
	IsReady() bool
	RealtimeTrendingSearches(ctx context.Context, q entity.TrendingQuery) ([]entity.TrendingStory, error)
	DailyTrends(ctx context.Context, geo string, withContent bool) ([]entity.DailyTrend, error)
}

type Handler struct {
	agent      TrendsAgent
	crawler    usecase.PageCrawler
	urlManager usecase.URLManager // nil when storage is disabled
	logger     *zap.Logger
}

func NewHandler(agent TrendsAgent, pc usecase.PageCrawler, urlManager usecase.URLManager, logger *zap.Logger) *Handler {
	return &Handler{
		agent:      agent,
		crawler:    pc,
		urlManager: urlManager,
		logger:     logger,
	}
}

// StorageEnabled reports whether the asynchronous crawl endpoints are served.
func (h *Handler) StorageEnabled() bool { return h.urlManager != nil }

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) HandleGetTrendArticle(w http.ResponseWriter, r *http.Request) {
	q, err := request.TrendingQuery(r)
	if err != nil {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	stories, err := h.agent.RealtimeTrendingSearches(r.Context(), q)
	if err != nil {
		response.Error(w, h.logger, http.StatusInternalServerError, "SearchingError",
			fmt.Sprintf("An unexpected error occurred during searching. Error: %v", err))
		return
	}
	response.JSON(w, h.logger, http.StatusOK, stories)
}

func (h *Handler) HandleDailyTrends(w http.ResponseWriter, r *http.Request) {
	withContent, err := request.Bool(r, "with_content")
	if err != nil {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	trends, err := h.agent.DailyTrends(r.Context(), r.URL.Query().Get("geo"), withContent)
	if err != nil {
		response.Error(w, h.logger, http.StatusInternalServerError, "SearchingError",
			fmt.Sprintf("An unexpected error occurred during searching. Error: %v", err))
		return
	}
	response.JSON(w, h.logger, http.StatusOK, trends)
}

func (h *Handler) HandleGetContent(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", "URL query parameter is required")
		return
	}

	result, err := h.crawler.Crawl(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, crawler.ErrMalformedURL) {
			response.Error(w, h.logger, http.StatusBadRequest, "MalformedURL", err.Error())
			return
		}
		response.Error(w, h.logger, http.StatusInternalServerError, "ExtractionError",
			fmt.Sprintf("An unexpected error occurred during extraction. Error: %v", err))
		return
	}

	response.JSON(w, h.logger, http.StatusOK, response.ContentResponse{
		URL:    result.URL,
		Domain: result.Domain,
		Lines:  result.Lines,
	})
}

func (h *Handler) HandleSubmitCrawl(w http.ResponseWriter, r *http.Request) {
	var req request.SubmitCrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", "Invalid request body")
		return
	}

	if _, err := url.ParseRequestURI(req.URL); err != nil {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", "Invalid URL format")
		return
	}

	crawlID, err := h.urlManager.Submit(r.Context(), req.URL, req.ForceCrawl)
	if err != nil {
		if errors.Is(err, usecase.ErrURLRecentlyCrawled) {
			response.Error(w, h.logger, http.StatusConflict, "Conflict", err.Error())
			return
		}
		h.logger.Error("failed to submit URL", zap.String("url", req.URL), zap.Error(err))
		response.Error(w, h.logger, http.StatusInternalServerError, "InternalError", "Internal server error")
		return
	}

	response.JSON(w, h.logger, http.StatusAccepted, response.SubmitCrawlResponse{
		Status:         "success",
		Message:        "URL submitted for crawling",
		CrawlRequestID: crawlID,
	})
}

func (h *Handler) HandleGetCrawlStatus(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", "URL query parameter is required")
		return
	}

	if _, err := url.ParseRequestURI(rawURL); err != nil {
		response.Error(w, h.logger, http.StatusBadRequest, "BadRequest", "Invalid URL format in query parameter")
		return
	}

	status, err := h.urlManager.GetStatus(r.Context(), rawURL)
	if err != nil {
		h.logger.Error("failed to get crawl status", zap.String("url", rawURL), zap.Error(err))
		response.Error(w, h.logger, http.StatusInternalServerError, "InternalError", "Internal server error")
		return
	}

	if status.CurrentStatus == entity.StatusNotFound {
		response.Error(w, h.logger, http.StatusNotFound, "NotFound", "Crawl status not found for the given URL")
		return
	}
	response.JSON(w, h.logger, http.StatusOK, response.NewCrawlStatusResponse(status))
}
