package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"fridge-chef/api"
	"fridge-chef/internal/adapter/chef_http"
	"fridge-chef/internal/adapter/corpus"
	"fridge-chef/internal/adapter/index"
	"fridge-chef/internal/di"
	"fridge-chef/internal/infra"
	"fridge-chef/internal/infra/config"
	"fridge-chef/internal/infra/logger"
	"fridge-chef/internal/infra/otel"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	otelCfg := otel.ConfigFromEnv()
	log := logger.NewWithOTel(otelCfg.Enabled)
	slog.SetDefault(log)

	otelShutdown, err := otel.InitProvider(ctx, otelCfg)
	if err != nil {
		log.Warn("otel_init_failed, continuing without telemetry", slog.String("error", err.Error()))
		otelShutdown = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("otel_shutdown_failed", slog.String("error", err.Error()))
		}
	}()

	// Corpus: a missing file degrades to an empty store rather than
	// refusing to boot; every endpoint still answers.
	store, err := corpus.LoadCSV(cfg.Corpus.CSVPath, log)
	if err != nil {
		log.Warn("corpus_load_failed, starting with empty corpus",
			slog.String("path", cfg.Corpus.CSVPath),
			slog.String("error", err.Error()))
		store = corpus.Empty(log)
	}

	// Embeddings database: unreachable is a degradation, not a failure.
	// The retriever falls back to lexical matching until it comes back.
	pool := connectEmbeddingsDB(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	components := di.NewApplicationComponents(ctx, cfg, store, pool, log, version)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Server.FrontendURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()))
			return nil
		},
	}))

	doc, err := api.Load(ctx)
	if err != nil {
		return fmt.Errorf("openapi contract: %w", err)
	}
	validator, err := chef_http.NewRequestValidator(doc)
	if err != nil {
		return fmt.Errorf("openapi validator: %w", err)
	}
	e.Use(validator)

	components.Handler.Register(e)

	logStartupStatus(ctx, components, log)

	go func() {
		addr := ":" + cfg.Server.Port
		log.Info("server_starting", slog.String("addr", addr), slog.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Error("server_stopped", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// connectEmbeddingsDB brings up the pgvector pool and makes sure the
// extension and embeddings table exist. Any failure leaves the index
// unavailable and is logged, matching the pipeline's everything-degrades
// posture. The table is populated externally.
func connectEmbeddingsDB(ctx context.Context, cfg *config.Config, log *slog.Logger) *pgxpool.Pool {
	dsn := cfg.DB.DSN()

	if err := index.EnsureExtension(ctx, dsn); err != nil {
		log.Warn("vector_db_unavailable", slog.String("error", err.Error()))
		return nil
	}

	pool, err := infra.NewPostgresDB(ctx, dsn, infra.PoolConfig{
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Warn("vector_db_unavailable", slog.String("error", err.Error()))
		return nil
	}

	if err := index.NewEmbeddingStore(pool).EnsureSchema(ctx, cfg.Embedder.Dimension); err != nil {
		log.Warn("embeddings_schema_check_failed", slog.String("error", err.Error()))
		pool.Close()
		return nil
	}

	log.Info("vector_db_connected", slog.String("host", cfg.DB.Host), slog.String("db", cfg.DB.Name))
	return pool
}

// logStartupStatus records which subsystems are live, mirroring the
// /health payload so degraded boots are visible in the logs.
func logStartupStatus(ctx context.Context, components *di.ApplicationComponents, log *slog.Logger) {
	status := components.RecommendUsecase.Status(ctx)
	count, _ := components.Store.Count(ctx)
	log.Info("pipeline_status",
		slog.Int("corpus_size", count),
		slog.Bool("retriever_available", status.Retriever.Available),
		slog.Bool("reranker_available", status.Reranker.Available),
		slog.Bool("generator_has_api_key", status.Generator.HasAPIKey))
}
