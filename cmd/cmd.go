package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"talkpoint-backend/internal/config"
	"talkpoint-backend/internal/repository"
	"talkpoint-backend/internal/repository/memory"
	"talkpoint-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the API server and blocks until SIGINT or SIGTERM
func Run() {
	configPath := os.Getenv("TALKPOINT_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log)

	ctx := context.Background()

	stores, closeStores, err := openStores(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open backing store")
	}
	defer closeStores()

	images, err := newImageStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create image store")
	}

	// Initialize services
	tokens := services.NewTokenIssuer(cfg.JWT.Secret)
	deps := Services{
		Auth: services.NewAuthService(stores.users, tokens, services.LogCodeSender{}, services.AuthOptions{
			EmailDomain: cfg.Auth.EmailDomain,
			CodeTTL:     cfg.Auth.CodeTTL,
			BcryptCost:  cfg.Auth.BcryptCost,
		}),
		Posts:    services.NewPostService(stores.posts, images),
		Comments: services.NewCommentService(stores.comments),
		Likes:    services.NewLikeService(stores.likes),
		Follows:  services.NewFollowService(stores.follows, stores.users),
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      NewRouter(deps, log.Logger, cfg.Server.CORSOrigin),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("driver", cfg.Database.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

type backingStores struct {
	users    services.UserStore
	posts    services.PostStore
	comments services.CommentStore
	likes    services.LikeStore
	follows  services.FollowStore
}

// openStores connects the configured backing store
func openStores(ctx context.Context, cfg config.DatabaseConfig) (*backingStores, func(), error) {
	if cfg.Driver == "memory" {
		log.Warn().Msg("Using in-memory backing store; data is lost on restart")
		m := memory.New()
		return &backingStores{
			users:    m.Users(),
			posts:    m.Posts(),
			comments: m.Comments(),
			likes:    m.Likes(),
			follows:  m.Follows(),
		}, func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info().Msg("Database schema applied")
	}

	return &backingStores{
		users:    repository.NewUserRepository(db),
		posts:    repository.NewPostRepository(db),
		comments: repository.NewCommentRepository(db),
		likes:    repository.NewLikeRepository(db),
		follows:  repository.NewFollowRepository(db),
	}, db.Close, nil
}

// newImageStore returns the S3 store when a bucket is configured
func newImageStore(ctx context.Context, cfg config.StorageConfig) (services.ImageStore, error) {
	if cfg.Bucket == "" {
		return services.InlineImageStore{}, nil
	}
	log.Info().Str("bucket", cfg.Bucket).Msg("Storing post images in S3")
	return services.NewS3ImageStore(ctx, services.S3Options{
		Region:    cfg.Region,
		Bucket:    cfg.Bucket,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Endpoint:  cfg.Endpoint,
		PublicURL: cfg.PublicURL,
	})
}

// setupLogger configures zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Format != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
