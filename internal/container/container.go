package container

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"slydes/viewer/internal/analytics"
	"slydes/viewer/internal/api"
	"slydes/viewer/internal/client"
	"slydes/viewer/internal/config"
	"slydes/viewer/internal/media"
	"slydes/viewer/internal/queue"
	"slydes/viewer/internal/repository"
	"slydes/viewer/internal/service"
	"slydes/viewer/internal/state"
)

const shutdownTimeout = 10 * time.Second

// Container holds all initialized components
type Container struct {
	Config    *config.Config
	Content   service.ContentSource
	Snapshots state.SnapshotStore
	Queue     *queue.RedisQueue
	Service   *service.Service
	Server    *http.Server

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	// Content source
	switch cfg.Content.Source {
	case "postgres":
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("✅ Connected to Postgres successfully")
		container.db = db
		container.Content = repository.NewContentRepository(db)
	case "api":
		container.Content = client.NewContentClient(cfg.Content)
		log.Infof("✅ Loading content from %s", cfg.Content.BaseURL)
	}

	// Redis backs snapshots and, optionally, the analytics stream
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			container.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")
		container.redis = rdb
		container.Snapshots = state.NewRedisSnapshotStore(rdb, time.Duration(cfg.Redis.SnapshotTTL)*time.Second)

		if cfg.Analytics.Sink == "redis" {
			redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis)
			if err != nil {
				container.Close()
				return nil, err
			}
			container.Queue = redisQueue
		}
	} else {
		container.Snapshots = state.NewMemorySnapshotStore()
	}

	ingestion := client.NewIngestionClient(cfg.Analytics)

	var sink analytics.Sink = ingestion
	if container.Queue != nil {
		sink = analytics.NewQueueSink(container.Queue)
	}

	checkout := client.NewCheckoutClient(cfg.Checkout)

	deps := service.Dependencies{
		Content:   container.Content,
		Snapshots: container.Snapshots,
		Sink:      sink,
		Ingestion: ingestion,
		Checkout:  checkout,
		Contact:   checkout,
		Media:     media.NewResolver(cfg.Media),
		Source:    cfg.Analytics.Source,
	}
	if container.Queue != nil {
		deps.Queue = container.Queue
	}
	container.Service = service.NewService(deps)

	server := api.NewServer(
		container.Service,
		time.Duration(cfg.Server.RequestTimeout)*time.Second,
		time.Duration(cfg.Media.CheckTimeout)*time.Second,
	)
	container.Server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return container, nil
}

// Run serves HTTP and, with the redis sink, runs the delivery workers until
// ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("🚀 Listening on %s", c.Server.Addr)
		if err := c.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return c.Server.Shutdown(shutdownCtx)
	})

	if c.Queue != nil {
		g.Go(func() error {
			return c.Service.RunDeliveryWorkers(ctx, c.Config.Analytics.Workers)
		})
	}

	return g.Wait()
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	log.Info("Container shut down successfully")
	return nil
}
