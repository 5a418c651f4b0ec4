package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/knowlife/internal/adapter/chromedp_fetcher"
	"github.com/user/knowlife/internal/adapter/googletrends"
	"github.com/user/knowlife/internal/adapter/httpfetch"
	"github.com/user/knowlife/internal/adapter/postgres"
	"github.com/user/knowlife/internal/adapter/proxy"
	redis_adapter "github.com/user/knowlife/internal/adapter/redis"
	"github.com/user/knowlife/internal/crawler"
	"github.com/user/knowlife/internal/delivery/http/handler"
	"github.com/user/knowlife/internal/delivery/http/router"
	"github.com/user/knowlife/internal/repository"
	"github.com/user/knowlife/internal/selector"
	"github.com/user/knowlife/internal/usecase"
	"github.com/user/knowlife/pkg/config"
	"github.com/user/knowlife/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "knowlife",
	Short:        "Trending searches API with per-domain article extraction.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// --- Configuration ---
		cfg, err := config.Load(envFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("could not load config: %w", err)
		}

		// --- Logger ---
		log, logFile, err := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
		if err != nil {
			return fmt.Errorf("could not build logger: %w", err)
		}
		defer logFile.Close()
		defer log.Sync()
		zap.ReplaceGlobals(log)

		if err := run(cfg, log); err != nil {
			log.Error("service stopped with error", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env", ".env", "optional env file with configuration")
	config.RegisterFlags(rootCmd.Flags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Selector rules ---
	rules, err := selector.LoadFile(cfg.SelectorConfig)
	if err != nil {
		return err
	}
	log.Info("selector rules loaded", zap.String("path", cfg.SelectorConfig), zap.Int("rules", len(rules.Rules())))

	// --- Fetcher ---
	proxies := proxy.NewManager(cfg.ProxyList(), nil)
	var fetcher repository.HTMLFetcher
	switch cfg.Fetcher {
	case config.FetcherChromedp:
		cf := chromedp_fetcher.NewChromedpFetcher(cfg.MaxConcurrency, cfg.PageLoadTimeoutDuration(), proxies, log.Named("chromedp"))
		defer cf.Close()
		fetcher = cf
	default:
		fetcher = httpfetch.New(cfg.FetchTimeoutDuration(), proxies)
	}
	pageCrawler := crawler.New(rules, fetcher, log.Named("crawler"))

	// --- Trends agent ---
	trendsClient := googletrends.Load(googletrends.Options{
		HL:             cfg.TrendsHL,
		TZ:             cfg.TrendsTZ,
		Geo:            cfg.TrendsGeo,
		ConnectTimeout: time.Duration(cfg.TrendsConnectTimeout * float64(time.Second)),
		ReadTimeout:    time.Duration(cfg.TrendsReadTimeout * float64(time.Second)),
		Retries:        cfg.TrendsRetries,
		BackoffFactor:  cfg.TrendsBackoffFactor,
		Proxies:        proxies,
	}, log.Named("trends"))
	agentOpts := []usecase.AgentOption{usecase.WithContentExtractor(pageCrawler, cfg.MaxConcurrency)}

	// --- Storage and background worker ---
	var urlManager usecase.URLManager
	if cfg.StorageEnabled() {
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		log.Info("PostgreSQL connection pool established")

		rdb, err := redis_adapter.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer rdb.Close()
		log.Info("Redis connection established")

		visitedRepo := redis_adapter.NewVisitedRepo(rdb)
		queueRepo := redis_adapter.NewQueueRepo(rdb)
		articleRepo := postgres.NewArticleRepo(pool)
		failedURLRepo := postgres.NewFailedURLRepo(pool)

		agentOpts = append(agentOpts, usecase.WithTrendsCache(redis_adapter.NewTrendsCache(rdb), cfg.TrendsCacheTTLDuration()))
		urlManager = usecase.NewURLManager(visitedRepo, queueRepo, articleRepo, failedURLRepo, cfg.DeduplicationWindow(), log.Named("urls"))

		worker := usecase.NewCrawlWorker(queueRepo, pageCrawler, articleRepo, failedURLRepo, usecase.WorkerConfig{
			Workers:    cfg.MaxConcurrency,
			Interval:   cfg.WorkerIntervalDuration(),
			RetryBatch: cfg.RetryBatch,
		}, log.Named("worker"))
		go worker.Run(ctx)
	} else {
		log.Info("storage not configured, crawl queue endpoints disabled")
	}

	agent := usecase.NewAgent(trendsClient, log.Named("agent"), agentOpts...)

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(agent, pageCrawler, urlManager, log.Named("http"))
	httpRouter := router.New(apiHandler, agent, log.Named("http"), cfg.ResponseTimeoutDuration())
	if log.Core().Enabled(zap.DebugLevel) {
		listRoutes(httpRouter, log)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      httpRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ResponseTimeoutDuration() + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exiting")
	return nil
}

func listRoutes(h http.Handler, log *zap.Logger) {
	routes, ok := h.(chi.Routes)
	if !ok {
		return
	}
	_ = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		log.Debug("route", zap.String("method", method), zap.String("path", route))
		return nil
	})
}
