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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/config"
	"github.com/iago/trip-planner-back/internal/domain"
	httpserver "github.com/iago/trip-planner-back/internal/http"
	"github.com/iago/trip-planner-back/internal/http/handlers"
	"github.com/iago/trip-planner-back/internal/metrics"
	"github.com/iago/trip-planner-back/internal/repository"
	"github.com/iago/trip-planner-back/internal/service"
	"github.com/iago/trip-planner-back/internal/worker"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:           "tripplanner",
		Short:         "Trip planning API with background itinerary and task generation",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env", ".env.local"}, "dotenv files read before the environment")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the job workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFiles)
		},
	}
	migrate := &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or list database migrations",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}
			return runMigrate(cmd.Context(), envFiles, direction)
		},
	}

	root.AddCommand(serve, migrate)
	root.RunE = serve.RunE
	return root
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.Development() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func runMigrate(ctx context.Context, envFiles []string, direction string) error {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrations")
	}

	statuses, err := repository.Migrate(ctx, cfg.DatabaseURL, direction)
	if err != nil {
		return err
	}
	for _, status := range statuses {
		state := "pending"
		if status.Applied {
			state = "applied"
		}
		fmt.Printf("%05d %-8s %s\n", status.Version, state, status.Source)
	}
	return nil
}

func runServe(parent context.Context, envFiles []string) error {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	base, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = base.Sync() }()
	logger := base.Sugar()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := setupStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backends.close()

	recorder := metrics.New()
	deps, err := setupCapabilities(cfg, logger)
	if err != nil {
		return err
	}
	deps.Jobs = backends.jobs
	deps.Store = backends.store
	deps.Metrics = recorder
	deps.Logger = logger

	launches, closeLaunches, err := setupQueue(ctx, cfg, backends.checks)
	if err != nil {
		return err
	}
	defer closeLaunches()

	processor := worker.NewProcessor(launches, launches, backends.jobs, worker.Config{Workers: cfg.WorkerCount}, recorder, logger)
	processor.Register(domain.JobKindItineraryGeneration, service.NewItineraryPipeline(deps))
	processor.Register(domain.JobKindItineraryModification, service.NewModificationPipeline(deps))
	processor.Register(domain.JobKindTaskGeneration, service.NewTaskPipeline(deps))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	processor.Start(workerCtx)
	logger.Infow("workers started", "count", cfg.WorkerCount, "queue", cfg.WorkerQueue, "queue_capacity", cfg.WorkerQueueCapacity)

	capabilities := deps.Capabilities()
	logger.Infow("capabilities",
		"text_generation", capabilities.TextGeneration,
		"research", capabilities.Research,
		"visa", capabilities.Visa,
	)

	api := handlers.NewAPI(handlers.Services{
		Jobs:           service.NewJobsService(backends.jobs, processor, logger),
		Trips:          service.NewTripsService(backends.store),
		Accommodations: service.NewAccommodationService(deps),
		TripNames:      service.NewTripNameService(deps),
		Capabilities:   capabilities,
		Checks:         backends.checks,
	}, logger)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: httpserver.NewRouter(ctx, httpserver.RouterDependencies{
			API:            api,
			Metrics:        recorder.Handler(),
			Logger:         logger,
			AuthToken:      cfg.AuthToken,
			CORSOrigins:    cfg.CORSOrigins,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
		}),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := serveHTTP(ctx, server, logger)
	stopWorkers()
	processor.Wait()
	return serveErr
}

// serveHTTP runs server until ctx is done or ListenAndServe fails, then shuts
// it down. A listen failure is returned so the process exits non-zero.
func serveHTTP(ctx context.Context, server *http.Server, logger *zap.SugaredLogger) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Infow("api listening", "addr", server.Addr)
		errChan <- server.ListenAndServe()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Infow("shutdown signal received")
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("server failed", "error", err)
			serveErr = fmt.Errorf("serve http: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("graceful shutdown failed", "error", err)
	}
	return serveErr
}
