package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sharebook-app/sharebook/internal/config"
	"github.com/sharebook-app/sharebook/internal/database"
	"github.com/sharebook-app/sharebook/internal/handlers"
	"github.com/sharebook-app/sharebook/internal/logging"
	"github.com/sharebook-app/sharebook/internal/middleware"
	"github.com/sharebook-app/sharebook/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Server.Debug {
		logger.SetLevel(logging.LevelDebug)
		logging.SetDefaultLevel(logging.LevelDebug)
	}

	logger.Info("Starting Sharebook server...")

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.PoolSize, cfg.Redis.MinIdleConns)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(redisAdapter)
	emailService := services.NewEmailService(&cfg.Email)
	postService := services.NewPostService(dbAdapter)
	feedService := services.NewFeedService(dbAdapter)
	friendService := services.NewFriendService(dbAdapter, userService)
	profileService := services.NewProfileService(userService, friendService, postService)
	notificationService := services.NewNotificationService(dbAdapter, emailService, cfg.Email.BaseURL)

	friendService.SetNotificationService(notificationService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.Server.Secure)
	userHandler := handlers.NewUserHandler(userService, profileService)
	friendHandler := handlers.NewFriendHandler(friendService)
	postHandler := handlers.NewPostHandler(postService, feedService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	if err := notificationService.CleanupOld(context.Background()); err != nil {
		logger.Warn("Notification cleanup failed", map[string]interface{}{"error": err.Error()})
	}
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if err := notificationService.CleanupOld(context.Background()); err != nil {
					logger.Warn("Notification cleanup failed", map[string]interface{}{"error": err.Error()})
				}
			}
		}
	}()

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, userService)
	requestLogger := middleware.NewRequestLogger(logger)
	requireSession := authMiddleware.RequireSession

	authRateLimit := resolveAuthRateLimit(cfg, logger, os.LookupEnv)
	authRateLimiter := middleware.NewRateLimiter(redisDB.Client, authRateLimit, 15*time.Minute, "ratelimit:auth:", func(r *http.Request) string {
		return middleware.GetClientIP(r)
	}, true)

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authRateLimiter.Middleware(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authRateLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/logout", http.HandlerFunc(authHandler.Logout))

	// User endpoints
	mux.Handle("GET /api/users/me", requireSession(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PUT /api/users/me", requireSession(http.HandlerFunc(userHandler.UpdateProfile)))
	mux.Handle("PUT /api/users/me/nickname", requireSession(http.HandlerFunc(userHandler.UpdateNickname)))
	mux.Handle("GET /api/users/search", requireSession(http.HandlerFunc(userHandler.Search)))
	mux.Handle("GET /api/users/{nickname}", requireSession(http.HandlerFunc(userHandler.GetProfile)))

	// Friend endpoints
	mux.Handle("POST /api/friends/follow", requireSession(http.HandlerFunc(friendHandler.Follow)))
	mux.Handle("PUT /api/friends/{nickname}/approve", requireSession(http.HandlerFunc(friendHandler.Approve)))
	mux.Handle("DELETE /api/friends/{nickname}/reject", requireSession(http.HandlerFunc(friendHandler.Reject)))
	mux.Handle("DELETE /api/friends/{nickname}", requireSession(http.HandlerFunc(friendHandler.Unfollow)))
	mux.Handle("GET /api/friends/requests", requireSession(http.HandlerFunc(friendHandler.ListRequests)))

	// Post endpoints
	mux.Handle("POST /api/posts", requireSession(http.HandlerFunc(postHandler.Create)))
	mux.Handle("PUT /api/posts/{id}", requireSession(http.HandlerFunc(postHandler.Edit)))
	mux.Handle("DELETE /api/posts/{id}", requireSession(http.HandlerFunc(postHandler.Delete)))
	mux.Handle("GET /api/posts/user/{nickname}", requireSession(http.HandlerFunc(postHandler.ListByNickname)))
	mux.Handle("GET /api/posts/all", requireSession(http.HandlerFunc(postHandler.ListAll)))
	mux.Handle("GET /api/feed", requireSession(http.HandlerFunc(postHandler.Feed)))

	// Notification endpoints
	mux.Handle("GET /api/notifications", requireSession(http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/notifications/{id}/read", requireSession(http.HandlerFunc(notificationHandler.MarkRead)))
	mux.Handle("POST /api/notifications/read-all", requireSession(http.HandlerFunc(notificationHandler.MarkAllRead)))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")
		cleanupCancel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

func resolveAuthRateLimit(cfg *config.Config, logger *logging.Logger, lookupEnv func(string) (string, bool)) int64 {
	authRateLimit := int64(20)
	if cfg.Server.Environment == "development" {
		authRateLimit = 200
	}
	if v, ok := lookupEnv("AUTH_RATE_LIMIT"); ok && v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
			authRateLimit = parsed
			logger.Info("Using auth rate limit from env", map[string]interface{}{"limit": authRateLimit})
		} else {
			logger.Warn("Invalid AUTH_RATE_LIMIT; using default", map[string]interface{}{
				"value": v,
				"limit": authRateLimit,
			})
		}
	}
	return authRateLimit
}
