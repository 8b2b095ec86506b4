// Command hub runs the Intelligence Integration Hub: it ingests raw
// submissions, analyzes them with a configured LLM backend, archives the
// results to Postgres plus a vector index, publishes an RSS feed, and
// serves query/statistics/recommendation APIs over HTTP.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"intelhub/internal/config"
	domainstats "intelhub/internal/domain/stats"
	hhttp "intelhub/internal/handler/http"
	"intelhub/internal/handler/http/auth"
	"intelhub/internal/handler/http/collect"
	"intelhub/internal/handler/http/feed"
	"intelhub/internal/handler/http/intelligence"
	"intelhub/internal/handler/http/middleware"
	"intelhub/internal/handler/http/processed"
	"intelhub/internal/handler/http/requestid"
	"intelhub/internal/handler/http/rpcapi"
	"intelhub/internal/handler/http/stats"
	"intelhub/internal/handler/http/tokenauth"
	pgRepo "intelhub/internal/infra/adapter/persistence/postgres"
	"intelhub/internal/infra/adapter/persistence/sqlite"
	"intelhub/internal/infra/db"
	"intelhub/internal/infra/keyrotator"
	"intelhub/internal/infra/llm"
	"intelhub/internal/observability/logging"
	"intelhub/internal/observability/tracing"
	pkgconfig "intelhub/internal/pkg/config"
	"intelhub/internal/repository"
	"intelhub/internal/usecase/analysis"
	"intelhub/internal/usecase/archival"
	"intelhub/internal/usecase/ingest"
	"intelhub/internal/usecase/query"
	"intelhub/internal/usecase/recommendation"
	"intelhub/internal/usecase/resultcache"
	"intelhub/internal/usecase/rss"
	"intelhub/internal/usecase/statistics"
	ratelimitcfg "intelhub/pkg/config"
	"intelhub/pkg/ratelimit"
)

const version = "0.1.0"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	cfg, err := config.LoadHubConfig()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	shutdownTracing := tracing.Init("intelhub")

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	crawlDB := db.OpenSQLite(cfg.CrawlRecordDBPath)
	defer func() {
		if err := crawlDB.Close(); err != nil {
			logger.Error("failed to close crawl record database", slog.Any("error", err))
		}
	}()
	if _, err := sqlite.NewCrawlRecordStore(crawlDB, 1024); err != nil {
		logger.Error("failed to open crawl record store", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cacheStore := pgRepo.NewCacheStore(database)
	archiveStore := pgRepo.NewArchiveStore(database)
	recommendationStore := pgRepo.NewRecommendationStore(database, archiveStore)

	chatClient, embedder := buildLLMClients(cfg)
	vectorIndex := pgRepo.NewVectorIndex(database, embedder)

	ingestQueue := ingest.New(cfg.IngestionQueueCapacity)
	postProcessQueue := archival.NewQueue(cfg.PostProcessQueueCapacity)
	rssPublisher := rss.New(cfg.RSSCapacity)
	resultCache := resultcache.New(resultcache.Config{
		Threshold: cfg.ResultCacheThreshold,
		MaxCount:  cfg.ResultCacheMaxCount,
		MaxAge:    parseMaxAge(logger, cfg.ResultCacheMaxAge),
	})

	if err := resultCache.Load(ctx, archiveStore, repository.ArchiveFilter{}, cfg.ResultCacheMaxCount); err != nil {
		logger.Warn("failed to prime result cache from archive", slog.Any("error", err))
	}

	if err := ingest.ReplayUnflagged(ctx, cacheStore, ingestQueue); err != nil {
		logger.Error("failed to replay unflagged cache rows", slog.Any("error", err))
	}

	counters := domainstats.New()

	analysisWorker := analysis.New(ingestQueue, postProcessQueue, cacheStore, chatClient, analysis.Config{
		SystemPrompt:     cfg.SystemPrompt,
		ExcludeRateClass: cfg.ExcludeRateClass,
		MaxTokens:        4096,
		ConversationDir:  cfg.ConversationDir,
		WorkerKind:       "analysis",
	})
	analysisWorker.Counters = counters

	archivalWorker := archival.NewWorker(postProcessQueue, cacheStore, archiveStore, vectorIndex, rssPublisher, resultCache, archival.Config{
		IntelligenceLinkBase: cfg.IntelligenceLinkBase,
		ResultCacheThreshold: cfg.ResultCacheThreshold,
	})
	archivalWorker.Counters = counters

	var rotator *keyrotator.Rotator
	if len(cfg.KeyRotatorKeys) > 0 {
		var checker keyrotator.BalanceChecker
		if cfg.BalanceEndpointURL != "" {
			checker = keyrotator.NewHTTPBalanceChecker(cfg.BalanceEndpointURL)
		}
		rotator = keyrotator.New(cfg.KeyRotatorFile, cfg.KeyRotatorKeys, cfg.KeyRotatorThreshold, checker, chatClient)
	}

	queryEngine := query.New(archiveStore)
	statisticsEngine := statistics.New(archiveStore)
	recommendationManager := recommendation.New(ctx, queryEngine, recommendationStore, chatClient)

	recommendationCron := startRecommendationCron(logger, recommendationManager)
	defer recommendationCron.Stop()

	collectLimiter, cleanupInterval, cleanupMaxAge := buildCollectLimiter(logger)

	mux := buildMux(cfg, database, cacheStore, ingestQueue, postProcessQueue, rssPublisher,
		queryEngine, statisticsEngine, recommendationManager, rotator, collectLimiter, counters)
	handler := applyMiddleware(logger, mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// 長寿命タスクは errgroup でまとめて起動・停止する
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		analysisWorker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		archivalWorker.Run(groupCtx)
		return nil
	})
	if rotator != nil {
		group.Go(func() error {
			rotator.Start(groupCtx)
			return nil
		})
	}
	group.Go(func() error {
		hhttp.StartRateLimitCleanup(groupCtx, collectLimiter.Limiter(), cleanupInterval, cleanupMaxAge)
		return nil
	})
	group.Go(func() error {
		logger.Info("server starting", slog.String("addr", cfg.ListenAddr), slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down")
	case <-groupCtx.Done():
		logger.Error("a worker failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	if err := group.Wait(); err != nil {
		logger.Error("worker group exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}

// parseMaxAge parses a duration string, falling back to 72h on error.
func parseMaxAge(logger *slog.Logger, s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Warn("invalid result cache max age, using default", slog.String("value", s), slog.Any("error", err))
		return 72 * time.Hour
	}
	return d
}

// buildLLMClients wires the configured chat backend plus an embedder for
// the vector index. The embedder always speaks the OpenAI embeddings API
// regardless of chat backend, since neither vendored chat SDK exposes a
// balance or embeddings surface of its own beyond go-openai's.
func buildLLMClients(cfg *config.HubConfig) (chatClient interface {
	analysis.ChatClient
	keyrotator.KeySetter
}, embedder *llm.OpenAIEmbedder) {
	switch cfg.LLMBackend {
	case "openai":
		chatClient = llm.NewOpenAI(cfg.LLMAPIKey, cfg.LLMModel)
	default:
		chatClient = llm.NewClaude(cfg.LLMAPIKey, cfg.LLMModel)
	}
	embedder = llm.NewOpenAIEmbedder(cfg.LLMAPIKey, "")
	return chatClient, embedder
}

// buildCollectLimiter assembles the sliding-window per-IP rate limiter
// protecting /collect, returning the middleware plus the cleanup cadence.
func buildCollectLimiter(logger *slog.Logger) (*middleware.IPRateLimiter, time.Duration, time.Duration) {
	rlCfg, err := ratelimitcfg.LoadRateLimitConfig()
	if err != nil {
		logger.Warn("failed to load rate limit config, using defaults", slog.Any("error", err))
		rlCfg = ratelimit.DefaultConfig()
	}

	extractor, err := middleware.NewExtractorFromEnv()
	if err != nil {
		logger.Warn("invalid trusted proxy configuration, using remote address only", slog.Any("error", err))
		extractor = &middleware.RemoteAddrExtractor{}
	}

	return middleware.NewIPRateLimiter(rlCfg, extractor), rlCfg.CleanupInterval, rlCfg.CleanupMaxAge
}

func startRecommendationCron(logger *slog.Logger, manager *recommendation.Manager) *cron.Cron {
	schedule := pkgconfig.LoadEnvString("HUB_RECOMMENDATION_SCHEDULE", "0 * * * *")
	if err := pkgconfig.ValidateCronSchedule(schedule); err != nil {
		logger.Error("invalid recommendation schedule",
			slog.String("schedule", schedule), slog.Any("error", err))
		os.Exit(1)
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := manager.Generate(context.Background(), nil, nil, 0, 0); err != nil {
			logger.Error("recommendation generation failed", slog.Any("error", err))
		}
	})
	if err != nil {
		logger.Error("failed to schedule recommendation generation", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()
	logger.Info("recommendation cron started", slog.String("schedule", schedule))
	return c
}

func buildMux(
	cfg *config.HubConfig,
	database *sql.DB,
	cacheStore repository.CacheStore,
	ingestQueue *ingest.Queue,
	postProcessQueue *archival.Queue,
	rssPublisher *rss.Publisher,
	queryEngine *query.Engine,
	statisticsEngine *statistics.Engine,
	recommendationManager *recommendation.Manager,
	rotator *keyrotator.Rotator,
	collectLimiter *middleware.IPRateLimiter,
	counters *domainstats.ResourceCounter,
) *http.ServeMux {
	collectorTokens := tokenauth.NewSet(cfg.CollectorTokens)
	processorTokens := tokenauth.NewSet(cfg.ProcessorTokens)
	rpcTokens := tokenauth.NewSet(cfg.RPCAPITokens)

	collectHandler := collect.Handler{Cache: cacheStore, Queue: ingestQueue}
	processedHandler := processed.Handler{Cache: cacheStore, Queue: postProcessQueue, ExcludeRateClass: cfg.ExcludeRateClass}
	feedHandler := feed.Handler{
		Publisher: rssPublisher,
		Config: feed.Config{
			Title:       "Intelligence Integration Hub",
			Link:        cfg.IntelligenceLinkBase,
			Description: "Analyzed and archived intelligence items.",
		},
	}
	intelligenceHandler := intelligence.Handler{Engine: queryEngine, Prefix: "/intelligence/"}
	statsHandler := stats.Handler{Engine: statisticsEngine}
	rpcHandler := rpcapi.Handler{
		Tokens:     rpcTokens,
		Query:      queryEngine,
		Statistics: statisticsEngine,
		Recommend:  recommendationManager,
		Counters:   counters,
	}
	if rotator != nil {
		rpcHandler.Rotator = rotator
	}

	mux := http.NewServeMux()
	mux.Handle("/collect", collectLimiter.Middleware()(tokenauth.Require(collectorTokens, collectHandler)))
	mux.Handle("/processed", tokenauth.Require(processorTokens, processedHandler))
	mux.Handle("/api", rpcHandler)
	mux.Handle("/rssfeed.xml", feedHandler)
	mux.Handle("/intelligence/", intelligenceHandler)
	statsHandler.Register(mux, auth.Authz)
	mux.Handle("/auth/token", auth.TokenHandler())

	healthHandler := &hhttp.HealthHandler{
		DB:                database,
		Version:           version,
		IngestionQueue:    ingestQueue,
		PostProcessQueue:  postProcessQueue,
		IngestionCapacity: cfg.IngestionQueueCapacity,
	}
	if rotator != nil {
		healthHandler.Rotator = rotator
	}
	mux.Handle("/health", healthHandler)
	mux.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	mux.Handle("/live", &hhttp.LiveHandler{})
	mux.Handle("/metrics", hhttp.MetricsHandler())

	return mux
}

func applyMiddleware(logger *slog.Logger, handler http.Handler) http.Handler {
	chain := handler
	chain = hhttp.MetricsMiddleware(chain)
	chain = tracing.Middleware(chain)
	chain = hhttp.Timeout(30 * time.Second)(chain)
	chain = hhttp.InputValidation()(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain)
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	chain = requestid.Middleware(chain)
	return chain
}

func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	waitForMigrations(logger, database)
	if err := db.MigrateUp(database); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

func waitForMigrations(logger *slog.Logger, database *sql.DB) {
	const probe = "SELECT 1"
	for i := 0; i < 10; i++ {
		if _, err := database.Exec(probe); err == nil {
			return
		}
		logger.Info("waiting for database, retrying in 3s", slog.Int("attempt", i+1))
		time.Sleep(3 * time.Second)
	}
	logger.Error("database did not become reachable in time")
	os.Exit(1)
}
