package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/localbite/docs"
	"github.com/sbilibin2017/localbite/internal/config"
	"github.com/sbilibin2017/localbite/internal/handlers"
	"github.com/sbilibin2017/localbite/internal/hasher"
	"github.com/sbilibin2017/localbite/internal/jwt"
	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/repositories"
	"github.com/sbilibin2017/localbite/internal/router"
	"github.com/sbilibin2017/localbite/internal/services"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title LocalBite API
// @version 1.0.0
// @description Account registration and JWT login for the LocalBite mobile client
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// userStore is what the service and the health probe need from a backend.
type userStore interface {
	services.UserReader
	services.UserWriter
	handlers.Pinger
}

// newStore connects the backend selected by cfg.StoreDriver and prepares
// its schema. The returned func releases the connection.
func newStore(ctx context.Context, cfg *config.Config) (userStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		logger.Log.Infow("connecting to MongoDB", "db", cfg.Mongo.Database)
		client, err := repositories.ConnectMongo(ctx, cfg.Mongo.URI, cfg.StoreTimeout)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		repo := repositories.NewUserMongoRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection, cfg.StoreTimeout)
		if err := repo.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, err
		}
		return repo, closeFn, nil

	case config.StorePostgres:
		logger.Log.Infow("connecting to PostgreSQL", "host", cfg.Postgres.Host, "db", cfg.Postgres.DB)
		db, err := repositories.ConnectPostgres(ctx, cfg.Postgres.DSN(), cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.MigratePostgres(ctx, db.DB); err != nil {
			db.Close()
			return nil, nil, err
		}
		return repositories.NewUserPostgresRepository(db, cfg.StoreTimeout), func() { db.Close() }, nil

	case config.StoreRedis:
		logger.Log.Infow("connecting to Redis", "addr", cfg.Redis.Addr())
		rdb := redis.NewClient(&redis.Options{
			Addr:         cfg.Redis.Addr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return repositories.NewUserRedisRepository(rdb, cfg.StoreTimeout), func() { rdb.Close() }, nil

	case config.StoreMemory:
		logger.Log.Warnw("using in-memory store, accounts are lost on restart")
		return repositories.NewUserMemoryRepository(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// newKafkaWriter returns nil when no brokers are configured.
func newKafkaWriter(cfg config.Kafka) *kafka.Writer {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.UserTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}
}

// run initializes the logger, the store, and the HTTP server.
// It sets up routes, applies middleware, and handles graceful shutdown.
func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", cfg.LogLevel)

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("store %s: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	var events services.KafkaWriter
	if w := newKafkaWriter(cfg.Kafka); w != nil {
		logger.Log.Infow("publishing registration events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.UserTopic)
		defer w.Close()
		events = w
	}

	tokens := jwt.New(
		jwt.WithSecretKey(cfg.JWT.Secret),
		jwt.WithExpiration(cfg.JWT.TTL),
	)
	authService := services.NewAuthService(store, store, hasher.NewBcrypt(cfg.BcryptCost), tokens, events)

	addr := fmt.Sprintf("%s:%s", cfg.AppHost, cfg.AppPort)
	docs.SwaggerInfo.Host = addr

	srv := &http.Server{
		Addr: addr,
		Handler: router.New(router.Config{
			Auth:           authService,
			Store:          store,
			Tokener:        tokens,
			Log:            logger.Log,
			AllowedOrigins: cfg.CORSOrigins,
			SwaggerURL:     fmt.Sprintf("http://%s/swagger/doc.json", addr),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
