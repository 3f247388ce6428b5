package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/config"
	"lms-grading-service/internal/infra/memory"
	"lms-grading-service/internal/infra/postgres"
	redisinfra "lms-grading-service/internal/infra/redis"
	"lms-grading-service/internal/logging"
	"lms-grading-service/internal/metrics"
	transport "lms-grading-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the grading server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func loadConfig(path string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	auth, err := newAuthenticator(cfg)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		catalog app.Catalog
		store   app.Store
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
		db, err := openBun(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		catalog = postgres.NewCatalog(pool)
		store = postgres.NewStore(db)
	} else {
		log.Warn("postgres url not configured; serving demo content from memory")
		catalog = memory.NewStaticCatalog(demoContent())
		store = memory.NewStore()
	}

	catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
	var feed app.ResultFeed
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		catalog = redisinfra.NewAssessmentCache(client, catalog, config.TTLDuration(cfg.Redis.TTL, catalogTTL), log)
		feed = redisinfra.NewResultFeed(client, log)
	} else {
		catalog = memory.NewAssessmentCache(catalog, catalogTTL)
		feed = app.NewLocalFeed()
	}

	opts := []app.Option{app.WithLogger(log), app.WithFeed(feed)}
	deps := transport.Deps{Auth: auth, Log: log}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder := metrics.New(reg)
		opts = append(opts, app.WithMetrics(recorder))
		deps.Observer = recorder
		deps.Metrics = recorder.Handler()
	}
	deps.Grading = app.NewGradingService(catalog, store, opts...)
	deps.Progress = app.NewProgressService(catalog, store, opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting grading service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
