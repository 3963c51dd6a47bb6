package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/RavenLB/E-commerce/internal/auth"
	"github.com/RavenLB/E-commerce/internal/cache"
	"github.com/RavenLB/E-commerce/internal/config"
	deliveryhttp "github.com/RavenLB/E-commerce/internal/delivery/http"
	"github.com/RavenLB/E-commerce/internal/entity"
	"github.com/RavenLB/E-commerce/internal/messaging"
	"github.com/RavenLB/E-commerce/internal/messaging/amqp"
	"github.com/RavenLB/E-commerce/internal/messaging/kafka"
	"github.com/RavenLB/E-commerce/internal/metrics"
	"github.com/RavenLB/E-commerce/internal/payment"
	"github.com/RavenLB/E-commerce/internal/payment/stripe"
	"github.com/RavenLB/E-commerce/internal/ratelimit"
	"github.com/RavenLB/E-commerce/internal/repository"
	"github.com/RavenLB/E-commerce/internal/repository/memory"
	"github.com/RavenLB/E-commerce/internal/repository/postgres"
	"github.com/RavenLB/E-commerce/internal/service"
)

const usage = `usage: storefront [command]

commands:
  serve         run the HTTP API (default)
  migrate       create the database schema
  create-admin  create an admin account (-username, -email, -password)
  events        log order events read from Kafka`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg)
	case "migrate":
		err = migrate(ctx, cfg)
	case "create-admin":
		err = createAdmin(ctx, cfg, args)
	case "events":
		err = tailEvents(ctx, cfg)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		slog.Error("Command failed", "command", cmd, "err", err)
		os.Exit(1)
	}
}

// openStore returns the configured storage and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (repository.TxManager, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		slog.Warn("Using in-memory storage, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { db.Close() }, nil
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return errors.New("migrate needs the postgres storage driver")
	}
	db, err := postgres.InitDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	return postgres.Migrate(ctx, db)
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	var in entity.RegisterInput
	fs.StringVar(&in.Username, "username", "", "admin username")
	fs.StringVar(&in.Email, "email", "", "admin email")
	fs.StringVar(&in.Password, "password", "", "admin password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTExpiryDisabled)
	u, err := service.NewAuthService(store, tokens).CreateAdmin(ctx, in)
	if err != nil {
		var e *entity.Error
		if errors.As(err, &e) && len(e.Fields) > 0 {
			return fmt.Errorf("%s: %v", e.Message, e.Fields)
		}
		return err
	}
	fmt.Printf("admin %s created with id %d\n", u.Email, u.ID)
	return nil
}

// tailEvents logs every order event until interrupted.
func tailEvents(ctx context.Context, cfg *config.Config) error {
	if cfg.EventBroker != config.EventBrokerKafka {
		return errors.New("events needs EVENT_BROKER=kafka")
	}
	publisher, subscriber := kafka.NewKafkaBroker(cfg.KafkaBrokers)
	defer publisher.Close()

	var wg sync.WaitGroup
	for _, topic := range []string{entity.TopicOrderPlaced, entity.TopicOrderStatusChanged} {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			subscriber.Consume(ctx, topic, "storefront-events", func(_ context.Context, payload []byte) error {
				slog.Info("Order event", "topic", topic, "payload", string(payload))
				return nil
			})
		}(topic)
	}

	slog.Info("🔄 Kafka consumers started")
	wg.Wait()
	return nil
}

func newPublisher(cfg *config.Config) (messaging.Publisher, error) {
	switch cfg.EventBroker {
	case config.EventBrokerKafka:
		publisher, _ := kafka.NewKafkaBroker(cfg.KafkaBrokers)
		return publisher, nil
	case config.EventBrokerAMQP:
		publisher, err := amqp.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return messaging.Nop{}, nil
	}
}

func newGateway(cfg *config.Config) payment.Gateway {
	if cfg.PaymentProvider == config.PaymentProviderFake {
		slog.Warn("Using the fake payment gateway, no real payments are requested")
		return payment.NewFakeGateway()
	}
	return stripe.NewGateway(cfg.StripeSecretKey, nil)
}

func serve(ctx context.Context, cfg *config.Config) error {
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.JWTExpiryDisabled {
		slog.Warn("JWT expiry is disabled, issued tokens never expire")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		productCache cache.ProductCache = cache.Nop{}
		limiter      ratelimit.Limiter  = ratelimit.Unlimited{}
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("Redis unreachable, continuing", "addr", cfg.RedisAddr, "err", err)
		}
		productCache = cache.NewRedisProductCache(rdb, cfg.ProductCacheTTL)
		if cfg.AuthRateLimit > 0 {
			limiter = ratelimit.NewRedisLimiter(rdb, cfg.AuthRateLimit, time.Minute)
		}
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTExpiryDisabled)
	catalog := service.NewCatalogService(store, productCache)
	if cfg.SeedProducts {
		n, err := catalog.Seed(ctx, service.DemoProducts())
		if err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
		slog.Info("Products seeded", "count", n)
	}

	handler := deliveryhttp.NewHandler(deliveryhttp.Services{
		Auth:    service.NewAuthService(store, tokens),
		Catalog: catalog,
		Cart:    service.NewCartService(store),
		Checkout: service.NewCheckoutService(store, newGateway(cfg), publisher, productCache, m, service.CheckoutConfig{
			Currency:       cfg.PaymentCurrency,
			PaymentTimeout: cfg.PaymentTimeout,
		}),
		Orders: service.NewOrderService(store, publisher, productCache),
	}, limiter, m, store)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("🚀 HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
