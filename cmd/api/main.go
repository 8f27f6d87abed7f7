// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"research-api/internal/config"
	"research-api/internal/llm"
	"research-api/internal/pipeline"
	"research-api/internal/repository/memory"
	"research-api/internal/repository/postgresql"
	redisrepo "research-api/internal/repository/redis"
	"research-api/internal/service"
	httptransport "research-api/internal/transport/http"
	"research-api/internal/worker"
)

// @title Research API
// @version 1.0.0
// @description Asynchronous research jobs: submit a topic, poll progress, fetch a report or a trend digest.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := newLogger(cfg.Log)
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("research api stopped with error")
		stop()
		os.Exit(1)
	}
	logger.Info().Msg("research api stopped")
}

func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.Auth.UsingDevKey {
		logger.Warn().Msgf("RESEARCH_API_KEY is not set, using the development key %q", config.DevAPIKey)
	}

	client, err := llm.NewOpenAI(llm.Options{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.Model,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return fmt.Errorf("openai: %w", err)
	}

	research, err := pipeline.NewResearch(pipeline.Options{
		Completer:         client,
		MaxSearches:       cfg.Research.MaxSearches,
		SearchConcurrency: cfg.Research.SearchConcurrency,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	repo := memory.NewJobRepository()
	queue := worker.NewMemoryQueue()

	procOpts := worker.ProcessorOptions{
		Repo:     repo,
		Pipeline: research,
		Timeout:  cfg.Worker.JobTimeout,
		Logger:   logger,
	}

	// Postgres (optional archive of finished jobs)
	if cfg.Postgres.DSN != "" {
		pool, err := postgresql.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		defer pool.Close()

		archive := postgresql.NewArchiveRepository(pool)
		if err := archive.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		procOpts.Archive = archive
		logger.Info().Str("postgres_dsn", redactDSN(cfg.Postgres.DSN)).Msg("job archive enabled")
	}

	// Redis (optional progress fan-out)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		procOpts.Publisher = redisrepo.NewProgressPublisher(rdb, cfg.Redis.ChannelPrefix)
		logger.Info().
			Str("redis_addr", cfg.Redis.Addr).
			Str("channel_prefix", cfg.Redis.ChannelPrefix).
			Msg("progress publishing enabled")
	}

	processor := worker.NewProcessor(procOpts)
	workers := worker.NewPool(queue, processor, cfg.Worker.Workers, logger)

	svc := service.NewResearchService(repo, queue)
	handler := httptransport.NewHandler(svc, logger)
	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: httptransport.Routes(handler, httptransport.RouterConfig{
			APIKey:         cfg.Auth.APIKey,
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.HTTP.Addr).
		Str("model", client.Model()).
		Int("workers", cfg.Worker.Workers).
		Dur("job_timeout", cfg.Worker.JobTimeout).
		Dur("job_retention", cfg.Worker.JobRetention).
		Msg("research api starting")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		workers.Run(gctx)
		return nil
	})

	// evicts finished jobs so memory stays bounded
	g.Go(func() error {
		worker.RunEvictor(gctx, repo, cfg.Worker.JobRetention, cfg.Worker.EvictInterval, logger)
		return nil
	})

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "research-api").
		Logger()

	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger
}

var dsnPassword = regexp.MustCompile(`://([^:/?#]+):([^@/]+)@`)

// redactDSN masks the password: user:pass@ -> user:****@
func redactDSN(dsn string) string {
	return dsnPassword.ReplaceAllString(dsn, `://$1:****@`)
}
