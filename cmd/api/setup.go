package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/cache"
	"github.com/iago/trip-planner-back/internal/config"
	"github.com/iago/trip-planner-back/internal/countrycode"
	"github.com/iago/trip-planner-back/internal/http/handlers"
	"github.com/iago/trip-planner-back/internal/queue"
	"github.com/iago/trip-planner-back/internal/repository"
	"github.com/iago/trip-planner-back/internal/service"
	"github.com/iago/trip-planner-back/internal/visa"
)

type storage struct {
	store  repository.Store
	jobs   repository.JobsRepository
	checks map[string]handlers.Pinger
	close  func()
}

// setupStorage picks the trip store (postgres when DATABASE_URL is set) and
// the job registry backend independently.
func setupStorage(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (storage, error) {
	result := storage{checks: make(map[string]handlers.Pinger), close: func() {}}
	closers := make([]func(), 0, 2)
	result.close = func() {
		for index := len(closers) - 1; index >= 0; index-- {
			closers[index]()
		}
	}

	memoryStore := repository.NewMemoryStore()
	result.store = memoryStore
	result.checks["store"] = memoryStore

	if cfg.DatabaseURL != "" {
		if cfg.DatabaseAutoMigrate {
			if _, err := repository.Migrate(ctx, cfg.DatabaseURL, "up"); err != nil {
				return storage{}, err
			}
			logger.Infow("database migrations applied")
		}
		pool, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return storage{}, err
		}
		closers = append(closers, pool.Close)
		pgStore := repository.NewPostgresStore(pool)
		result.store = pgStore
		result.checks["store"] = pgStore
		logger.Infow("postgres store initialized")

		if cfg.RegistryBackend() == "postgres" {
			jobs := repository.NewPostgresJobsRepository(pool, logger)
			result.jobs = jobs
			result.checks["jobs"] = jobs
		}
	} else {
		logger.Infow("DATABASE_URL not configured, using in-memory store")
	}

	switch cfg.RegistryBackend() {
	case "redis":
		jobs, err := repository.NewRedisJobsRepository(ctx, repository.RedisJobsConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisJobPrefix,
			TTL:      time.Duration(cfg.RedisJobTTLHours) * time.Hour,
		}, logger)
		if err != nil {
			result.close()
			return storage{}, err
		}
		closers = append(closers, func() { _ = jobs.Close() })
		result.jobs = jobs
		result.checks["jobs"] = jobs
	case "postgres":
		if result.jobs == nil {
			result.close()
			return storage{}, errors.New("JOB_REGISTRY=postgres requires DATABASE_URL")
		}
	}
	if result.jobs == nil {
		jobs := repository.NewMemoryJobsRepository(logger)
		result.jobs = jobs
		result.checks["jobs"] = jobs
	}
	logger.Infow("job registry initialized", "backend", cfg.RegistryBackend())
	return result, nil
}

// setupCapabilities builds the external collaborators. Missing keys leave a
// capability configured but unavailable; the pipelines fall back on their own.
func setupCapabilities(cfg config.Config, logger *zap.SugaredLogger) (service.Dependencies, error) {
	aiTimeout := time.Duration(cfg.AITimeoutMS) * time.Millisecond

	var generator ai.TextGenerator
	switch strings.ToLower(strings.TrimSpace(cfg.AIProvider)) {
	case "openai":
		generator = ai.NewOpenAIClient(ai.OpenAIClientConfig{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Timeout:    aiTimeout,
			MaxRetries: cfg.AIMaxRetries,
		})
	case "", "openrouter":
		generator = ai.NewOpenRouterClient(ai.OpenRouterClientConfig{
			APIKey:     cfg.OpenRouterAPIKey,
			BaseURL:    cfg.OpenRouterBaseURL,
			Timeout:    aiTimeout,
			MaxRetries: cfg.AIMaxRetries,
			SiteURL:    cfg.OpenRouterSiteURL,
			AppName:    cfg.OpenRouterAppName,
		})
	default:
		return service.Dependencies{}, fmt.Errorf("unknown AI_PROVIDER %q", cfg.AIProvider)
	}

	researcher := ai.NewCachedResearcher(
		ai.NewPerplexityClient(ai.PerplexityClientConfig{
			APIKey:  cfg.PerplexityAPIKey,
			BaseURL: cfg.PerplexityBaseURL,
			Model:   cfg.PerplexityModel,
			Timeout: time.Duration(cfg.ResearchTimeoutMS) * time.Millisecond,
		}),
		cache.NewResponseCache(cache.Config{
			TTL:        time.Duration(cfg.ResearchCacheTTLSeconds) * time.Second,
			MaxEntries: cfg.ResearchCacheMaxEntries,
		}),
	)

	countries, err := countrycode.NewResolver(countrycode.NewRestCountriesClient(countrycode.RestCountriesConfig{
		BaseURL: cfg.CountryAPIURL,
		Timeout: time.Duration(cfg.CountryTimeoutMS) * time.Millisecond,
	}), logger)
	if err != nil {
		return service.Dependencies{}, fmt.Errorf("build country resolver: %w", err)
	}

	visaClient := visa.NewClient(visa.ClientConfig{
		APIKey:  cfg.RapidAPIKey,
		URL:     cfg.VisaAPIURL,
		Host:    cfg.VisaAPIHost,
		Timeout: time.Duration(cfg.VisaTimeoutMS) * time.Millisecond,
		RPS:     cfg.VisaRPS,
	})

	return service.Dependencies{
		Router: ai.NewModelRouter(ai.ModelRouterConfig{
			ItineraryPrimary:  cfg.ModelItineraryPrimary,
			ItineraryFallback: cfg.ModelItineraryFallback,
			ModifyPrimary:     cfg.ModelModifyPrimary,
			ModifyFallback:    cfg.ModelModifyFallback,
			TasksPrimary:      cfg.ModelTasksPrimary,
			TasksFallback:     cfg.ModelTasksFallback,
			TripNamePrimary:   cfg.ModelTripNamePrimary,
			TripNameFallback:  cfg.ModelTripNameFallback,
		}),
		Generator:  generator,
		Researcher: researcher,
		Visa:       visaClient,
		Countries:  countries,
		Prompts:    service.NewPrompts(cfg.PromptsDir),
	}, nil
}

type launchQueue interface {
	queue.Producer
	queue.Consumer
}

// setupQueue returns the launcher backend: the in-process bounded channel, or
// a Redis stream when WORKER_QUEUE=redis.
func setupQueue(ctx context.Context, cfg config.Config, checks map[string]handlers.Pinger) (launchQueue, func(), error) {
	switch cfg.WorkerQueue {
	case "", "local":
		return queue.NewLocalQueue(cfg.WorkerQueueCapacity), func() {}, nil
	case "redis":
		streams, err := queue.NewStreamsQueue(ctx, queue.StreamsConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
			Capacity: cfg.WorkerQueueCapacity,
		})
		if err != nil {
			return nil, nil, err
		}
		checks["queue"] = streams
		return streams, func() { _ = streams.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown WORKER_QUEUE %q", cfg.WorkerQueue)
	}
}
