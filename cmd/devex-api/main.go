package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devex-hq/devex-api/internal/chatlog"
	"github.com/devex-hq/devex-api/internal/config"
	"github.com/devex-hq/devex-api/internal/database"
	"github.com/devex-hq/devex-api/internal/handlers"
	"github.com/devex-hq/devex-api/internal/hub"
	"github.com/devex-hq/devex-api/internal/logger"
	"github.com/devex-hq/devex-api/internal/oauth"
	"github.com/devex-hq/devex-api/internal/services"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	messages, closeStore, err := openMessageStore(ctx, cfg, db)
	if err != nil {
		log.Fatal("failed to open message store", zap.String("store", cfg.MessageStore), zap.Error(err))
	}
	defer closeStore()
	log.Info("chat history store ready", zap.String("store", cfg.MessageStore))

	rooms := hub.NewHub(log.Named("hub"))
	go rooms.Run(ctx)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db, cfg.StreakLocation)
	tokenService := services.NewTokenService(db)
	logService := services.NewLogService(db, cfg.StreakLocation)
	collabService := services.NewCollabService(db, messages, rooms)
	chatService := services.NewChatService(collabService, messages, rooms)
	profileService := services.NewProfileService(userService, logService, collabService, cfg.StreakLocation)
	emailService := services.NewEmailService(cfg.SMTP, cfg.BaseURL)
	reminderService := services.NewReminderService(userService, emailService,
		cfg.StreakLocation, cfg.ReminderLocation, log.Named("reminder"))

	reminders, err := reminderService.Start(cfg.ReminderSchedule)
	if err != nil {
		log.Fatal("failed to schedule reminders", zap.String("schedule", cfg.ReminderSchedule), zap.Error(err))
	}
	defer reminders.Stop()

	providers := oauth.NewProviders(cfg)
	authHandler := handlers.NewAuthHandler(cfg, providers, userService, tokenService, jwtService, log.Named("auth"))
	userHandler := handlers.NewUserHandler(profileService, log)
	logHandler := handlers.NewLogHandler(logService, log)
	collabHandler := handlers.NewCollabHandler(collabService, chatService, log)
	sseHandler := handlers.NewSSEHandler(rooms, chatService, log.Named("sse"))
	syncHandler := handlers.NewSyncHandler(rooms, chatService, jwtService, log.Named("ws"))

	go authHandler.CleanupStates(ctx)
	go cleanupTokens(ctx, tokenService, log)

	app := handlers.NewRouter(handlers.RouterConfig{
		Production:  cfg.IsProduction(),
		CORSOrigins: cfg.CORSOrigins,
	}, jwtService, handlers.Handlers{
		Auth:   authHandler,
		User:   userHandler,
		Log:    logHandler,
		Collab: collabHandler,
		SSE:    sseHandler,
		Sync:   syncHandler,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openMessageStore returns the chat history backend named by cfg.MessageStore
// and a function that releases it.
func openMessageStore(ctx context.Context, cfg *config.Config, db *database.DB) (chatlog.Store, func(), error) {
	if cfg.MessageStore != config.MessageStoreMongo {
		return chatlog.NewPostgresStore(db), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	store := chatlog.NewMongoStore(client.Database(cfg.MongoDatabase))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to create mongo indexes: %w", err)
	}

	return store, func() { _ = client.Disconnect(context.Background()) }, nil
}

func cleanupTokens(ctx context.Context, tokens *services.TokenService, log *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := tokens.CleanupExpired(ctx)
			if err != nil {
				log.Warn("refresh token cleanup failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				log.Info("removed expired refresh tokens", zap.Int64("count", removed))
			}
		}
	}
}
