package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minihub/config"
	"minihub/internal/auth"
	"minihub/internal/delivery"
	inventoryrpc "minihub/internal/delivery/grpc"
	"minihub/internal/delivery/ws"
	"minihub/internal/domain"
	"minihub/internal/notify"
	"minihub/internal/state"
	"minihub/internal/storage"
	"minihub/internal/usecase"
	"minihub/pkg/db"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.LoadConfig(logger)
	configureLogger(logger, cfg)
	logger.Info("Starting MiniHub...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	kv, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open %s store: %v", cfg.StoreBackend, err)
	}
	defer closeStore()
	slices := storage.NewSlices(kv, logger)
	logger.Infof("Slice store ready (%s)", cfg.StoreBackend)

	// --- Notifications ---
	// One center per session key; each is restored from and saved to its own
	// slice and streams to its own websocket clients.
	var hub *ws.Hub
	registry := notify.NewRegistry(clockwork.NewRealClock(), cfg.NotificationTTL, cfg.NotificationLimit, logger, func(key string, c *notify.Center) {
		usecase.BindNotifications(ctx, c, slices, usecase.NotificationsKey(key), logger)
		c.Subscribe(func(ev notify.Event) { hub.Publish(key, ev) })
	})
	defer registry.Close()
	hub = ws.NewHub(func(key string) []domain.Notification { return registry.Center(key).Active() }, logger)
	go hub.Run(ctx)

	// --- Use case ---
	passwords, err := auth.NewPasswordHasher(cfg.PasswordHashing)
	if err != nil {
		logger.Fatalf("Invalid PASSWORD_HASHING: %v", err)
	}
	market, err := usecase.NewMarketplace(ctx, slices, registry.Center(""), usecase.Options{
		SessionNotes: func(key string) usecase.Notifier { return registry.Center(key) },
		Passwords:    passwords,
		Demo:         state.DemoAccount{Username: cfg.DemoUsername, Password: cfg.DemoPassword},
	}, logger)
	if err != nil {
		logger.Fatalf("Failed to initialise marketplace: %v", err)
	}
	logger.Info("Marketplace initialized.")

	// --- HTTP ---
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	handler := delivery.NewHandler(market, tokens, logger)
	router := delivery.NewRouter(handler, logger)
	handler.RegisterFeed(router, hub)

	httpServer := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- gRPC ---
	grpcServer := inventoryrpc.NewServer(inventoryrpc.NewInventoryHandler(market, logger), logger)
	lis, err := net.Listen("tcp", cfg.GrpcPort)
	if err != nil {
		logger.Fatalf("Failed to listen on gRPC port %s: %v", cfg.GrpcPort, err)
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC server listening on %s", cfg.GrpcPort)
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		logger.Infof("HTTP server listening on %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Errorf("Server stopped unexpectedly: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown error: %v", err)
	}
	grpcServer.GracefulStop()
	logger.Info("MiniHub stopped.")
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL %q, falling back to info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// openStore returns the configured key-value backend and a function that
// releases its connections.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (domain.KVStore, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "file":
		kv, err := storage.NewFileStore(cfg.StoreDir, logger)
		return kv, func() {}, err
	case "postgres":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.EnsurePostgresSchema(ctx, database, cfg.StoreTable); err != nil {
			database.Close()
			return nil, nil, err
		}
		logger.Info("Database connection established.")
		return storage.NewPostgresStore(database, cfg.StoreTable, logger), func() { database.Close() }, nil
	case "redis":
		client, err := storage.ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisStore(client, cfg.RedisPrefix), func() { client.Close() }, nil
	default:
		return nil, nil, errors.New("unknown store backend " + cfg.StoreBackend)
	}
}
