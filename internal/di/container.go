package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"

	"github.com/borobepari/marketplace-api/internal/events"
	"github.com/borobepari/marketplace-api/internal/notifications"
	"github.com/borobepari/marketplace-api/internal/platform/auth"
	"github.com/borobepari/marketplace-api/internal/platform/config"
	"github.com/borobepari/marketplace-api/internal/platform/idempotency"
	"github.com/borobepari/marketplace-api/internal/platform/observability"
	"github.com/borobepari/marketplace-api/internal/repositories/postgres"
	"github.com/borobepari/marketplace-api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Statuses services.OrderStatusService
	Queries  services.OrderQueryService
}

// Container wires repositories, services, and supporting infrastructure for runtime use.
type Container struct {
	Config   config.Config
	DB       *postgres.DB
	Redis    *redis.Client
	Services Services

	Verifier         *auth.JWTVerifier
	IdempotencyStore idempotency.Store

	statusWriter events.MessageWriter
	emailWriter  events.MessageWriter
}

// NewContainer constructs the runtime dependencies from configuration.
func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	pool, err := postgres.Connect(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db, err := postgres.NewDB(pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("wrap pool: %w", err)
	}

	fail := func(err error) (*Container, error) {
		db.Close()
		return nil, err
	}

	orders, err := postgres.NewOrderRepository(db, cfg.Orders.NumberPrefix)
	if err != nil {
		return fail(fmt.Errorf("build order repository: %w", err))
	}
	products, err := postgres.NewProductRepository(db)
	if err != nil {
		return fail(fmt.Errorf("build product repository: %w", err))
	}
	parties, err := postgres.NewPartyRepository(db)
	if err != nil {
		return fail(fmt.Errorf("build party repository: %w", err))
	}
	notificationRepo, err := postgres.NewNotificationRepository(db)
	if err != nil {
		return fail(fmt.Errorf("build notification repository: %w", err))
	}

	statusWriter := events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic)
	emailWriter := events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.EmailTopic)
	publisher, err := events.NewPublisher(statusWriter, emailWriter)
	if err != nil {
		return fail(fmt.Errorf("build event publisher: %w", err))
	}

	serviceLogger := observability.ServiceLogger()

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherDeps{
		Notifications: notificationRepo,
		Parties:       parties,
		Events:        publisher,
		Logger:        serviceLogger,
	})
	if err != nil {
		return fail(fmt.Errorf("build notification dispatcher: %w", err))
	}

	statusSvc, err := services.NewOrderStatusService(services.OrderStatusServiceDeps{
		Orders:       orders,
		Products:     products,
		UnitOfWork:   db,
		Notifier:     dispatcher,
		NumberPrefix: cfg.Orders.NumberPrefix,
		Clock:        time.Now,
		Logger:       serviceLogger,
	})
	if err != nil {
		return fail(fmt.Errorf("build order status service: %w", err))
	}

	querySvc, err := services.NewOrderQueryService(services.OrderQueryServiceDeps{
		Orders:       orders,
		Parties:      parties,
		NumberPrefix: cfg.Orders.NumberPrefix,
	})
	if err != nil {
		return fail(fmt.Errorf("build order query service: %w", err))
	}

	var verifierOpts []auth.VerifierOption
	if cfg.Auth.Issuer != "" {
		verifierOpts = append(verifierOpts, auth.WithIssuer(cfg.Auth.Issuer))
	}
	if cfg.Auth.Audience != "" {
		verifierOpts = append(verifierOpts, auth.WithAudience(cfg.Auth.Audience))
	}
	if cfg.Auth.Leeway > 0 {
		verifierOpts = append(verifierOpts, auth.WithLeeway(cfg.Auth.Leeway))
	}
	verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret, verifierOpts...)
	if err != nil {
		return fail(fmt.Errorf("build jwt verifier: %w", err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	return &Container{
		Config:           cfg,
		DB:               db,
		Redis:            redisClient,
		Services:         Services{Statuses: statusSvc, Queries: querySvc},
		Verifier:         verifier,
		IdempotencyStore: idempotency.NewRedisStore(redisClient),
		statusWriter:     statusWriter,
		emailWriter:      emailWriter,
	}, nil
}

// Close releases pooled connections and event writers.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}

	var errs error
	if closer, ok := c.statusWriter.(interface{ Close() error }); ok {
		errs = multierr.Append(errs, closer.Close())
	}
	if closer, ok := c.emailWriter.(interface{ Close() error }); ok {
		errs = multierr.Append(errs, closer.Close())
	}
	if c.Redis != nil {
		errs = multierr.Append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return errs
}
