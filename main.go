package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"cleanstreet-be/config"
	"cleanstreet-be/repository"
	"cleanstreet-be/routes"
	"cleanstreet-be/services"
	"cleanstreet-be/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var (
		issueRepo repository.IssueRepository
		userRepo  repository.UserRepository
	)
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; data is lost on restart")
		issueRepo = repository.NewMemoryIssueRepository()
		userRepo = repository.NewMemoryUserRepository()
	default:
		client, db, err := config.ConnectDB(ctx, cfg.Mongo, logger)
		if err != nil {
			return err
		}
		defer disconnect(client, logger)

		if err := repository.EnsureIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		issueRepo = repository.NewMongoIssueRepository(db)
		userRepo = repository.NewMongoUserRepository(db)
	}

	rdb, err := config.ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	var stats services.StatsCache
	if rdb != nil {
		defer closeRedis(rdb, logger)
		stats = services.NewRedisStatsCache(rdb, cfg.Stats.CacheKey, cfg.Stats.CacheTTL)
	}

	tokens := utils.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	signer := utils.NewImageKitSigner(cfg.ImageKit.PrivateKey, cfg.ImageKit.PublicKey, cfg.ImageKit.URLEndpoint, cfg.ImageKit.TokenTTL)
	if !signer.Configured() {
		logger.Warn("IMAGEKIT_PRIVATE_KEY not set; upload auth endpoints will return 503")
	}

	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.Setup(routes.Deps{
		Config:       cfg,
		Logger:       logger,
		Tokens:       tokens,
		Signer:       signer,
		Issues:       services.NewIssueService(issueRepo, stats, logger),
		Interactions: services.NewInteractionService(issueRepo, logger),
		Auth:         services.NewAuthService(userRepo, tokens, cfg.Auth.AllowAdminSignup, logger),
		Redis:        rdb,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr), slog.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func disconnect(client *mongo.Client, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warn("mongodb disconnect failed", slog.Any("error", err))
	}
}

func closeRedis(rdb *redis.Client, logger *slog.Logger) {
	if err := rdb.Close(); err != nil {
		logger.Warn("redis close failed", slog.Any("error", err))
	}
}
