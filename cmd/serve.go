package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"civicsetu-be/config"
	"civicsetu-be/events"
	"civicsetu-be/logger"
	"civicsetu-be/metrics"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/routes"
	"civicsetu-be/stores"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides PORT)")
	return cmd
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, all ...indexer) error {
	for _, s := range all {
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

// eventBus carries status events between handlers and SSE streams. With Redis
// they are relayed across instances; without it they stay in this process.
type eventBus struct {
	publisher  events.Publisher
	subscriber events.Subscriber
	redis      *redis.Client
	broker     *events.RedisBroker
}

func newEventBus(ctx context.Context, cfg *config.Config, hub *events.Hub) (*eventBus, error) {
	if cfg.RedisAddress == "" {
		return &eventBus{publisher: hub, subscriber: hub}, nil
	}
	rdb, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	broker := events.NewRedisBroker(rdb, cfg.StatusEventsChannel, hub)
	return &eventBus{publisher: broker, subscriber: broker, redis: rdb, broker: broker}, nil
}

// Run relays Redis messages until ctx ends; without Redis it just waits.
func (b *eventBus) Run(ctx context.Context) error {
	if b.broker == nil {
		<-ctx.Done()
		return nil
	}
	return b.broker.Run(ctx)
}

func (b *eventBus) Close() error {
	if b.redis == nil {
		return nil
	}
	return b.redis.Close()
}

func serve(parent context.Context, cfg *config.Config) error {
	log := logger.WithComponent("server")
	if err := cfg.ValidateServer(); err != nil {
		return err
	}
	policy, err := models.PolicyByName(cfg.StatusTransitions)
	if err != nil {
		return err
	}
	if err := middlewares.RegisterValidators(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := config.DisconnectDB(db); err != nil {
			log.Error("error disconnecting from MongoDB", "error", err)
		}
	}()
	log.Info("MongoDB connection established", "database", cfg.MongoDatabase)

	bus, err := newEventBus(ctx, cfg, events.NewHub(32))
	if err != nil {
		return err
	}
	defer func() {
		if err := bus.Close(); err != nil {
			log.Error("error closing Redis client", "error", err)
		}
	}()
	if bus.redis != nil {
		log.Info("Redis connection established", "address", cfg.RedisAddress)
	} else {
		log.Warn("REDIS_ADDRESS not set: report rate limiting is off and status events stay in this instance")
	}

	reports, users, departments, upvotes := openStores(db)
	indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = ensureIndexes(indexCtx, reports, users, departments, upvotes)
	cancel()
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	enforcer, err := middlewares.NewEnforcer()
	if err != nil {
		return fmt.Errorf("load access policy: %w", err)
	}

	router := routes.SetupRouter(routes.Dependencies{
		Config:      cfg,
		Reports:     reports,
		Upvotes:     upvotes,
		Users:       users,
		Departments: departments,
		Policy:      policy,
		Publisher:   bus.publisher,
		Subscriber:  bus.subscriber,
		Metrics:     metrics.New(),
		Authz:       middlewares.NewAuthorizer(enforcer),
		Redis:       bus.redis,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server starting", "address", srv.Addr, "transitions", policy.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server exited gracefully")
	return nil
}

func openStores(db *mongo.Database) (*stores.MongoReportStore, *stores.MongoUserStore, *stores.MongoDepartmentStore, *stores.MongoUpvoteStore) {
	return stores.NewMongoReportStore(db),
		stores.NewMongoUserStore(db),
		stores.NewMongoDepartmentStore(db),
		stores.NewMongoUpvoteStore(db)
}
