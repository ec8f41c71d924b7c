package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"sobercircle/internal/auth"
	"sobercircle/internal/checkins"
	"sobercircle/internal/config"
	"sobercircle/internal/crisis"
	transporthttp "sobercircle/internal/http"
	"sobercircle/internal/messages"
	"sobercircle/internal/metrics"
	"sobercircle/internal/platform/database"
	"sobercircle/internal/platform/logging"
	"sobercircle/internal/platform/migrate"
	"sobercircle/internal/secondme"
	"sobercircle/internal/users"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg.LogLevel)

	repos, cleanup, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize repositories", "error", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	providerClient := &http.Client{Timeout: 12 * time.Second}
	provider := secondme.NewClient(providerClient, cfg.SecondMe)
	if !cfg.SecondMe.Configured() {
		logger.Warn("SecondMe OAuth is not fully configured; login will be unavailable")
	}

	authSvc := auth.NewService(repos.users, provider, collector, logger)
	checkinSvc := checkins.NewService(repos.checkins, repos.users, repos.feed, authSvc, provider, collector, logger)
	crisisSvc := crisis.NewService(repos.crises, repos.users, repos.feed, collector, logger)

	router := transporthttp.NewRouter(transporthttp.RouterDeps{
		Config:    cfg,
		Provider:  provider,
		Auth:      authSvc,
		CheckIns:  checkinSvc,
		Crisis:    crisisSvc,
		Users:     repos.users,
		Feed:      repos.feed,
		Collector: collector,
		Gatherer:  registry,
		Logger:    logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	go func() {
		logger.Info("SoberCircle API listening", "addr", srv.Addr, "store", cfg.DataStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

type repositories struct {
	users    users.Repository
	checkins checkins.Repository
	crises   crisis.Repository
	feed     messages.Repository
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *slog.Logger) (repositories, func(), error) {
	if cfg.UseInMemoryStore() {
		logger.Info("using in-memory repositories")
		demoUsers := seedUsers()
		return repositories{
			users:    users.NewInMemoryRepository(demoUsers),
			checkins: checkins.NewInMemoryRepository(),
			crises:   crisis.NewInMemoryRepository(),
			feed:     messages.NewInMemoryRepository(seedMessages(demoUsers)),
		}, nil, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, nil, err
	}

	cleanup := func() {
		_ = db.Close()
	}

	if err := migrate.Apply(ctx, db, logger); err != nil {
		cleanup()
		return repositories{}, nil, err
	}

	logger.Info("connected to postgres")
	return repositories{
		users:    users.NewPostgresRepository(db),
		checkins: checkins.NewPostgresRepository(db),
		crises:   crisis.NewPostgresRepository(db),
		feed:     messages.NewPostgresRepository(db),
	}, cleanup, nil
}
