// Package server contains the HTTP handlers of the Freebies API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "freebies/docs" // swagger docs
	"freebies/internal/bootstrap"
	"freebies/internal/cache"
	"freebies/internal/config"
	"freebies/internal/database"
	"freebies/internal/featureflags"
	"freebies/internal/middleware"
	"freebies/internal/models"
	"freebies/internal/notifications"
	"freebies/internal/repository"
	"freebies/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = bootstrap.ServiceName

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// httpMetrics returns the process-wide Prometheus middleware. fiberprometheus
// registers its collectors on the default registry, so it may only be built once.
func httpMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	featureFlags   *featureflags.Manager

	postService         *service.PostService
	toggleService       *service.ToggleService
	feedService         *service.FeedService
	commentService      *service.CommentService
	userService         *service.UserService
	scoreService        *service.ScoreService
	notificationService *service.NotificationService
	messageService      *service.MessageService
}

// NewServer connects to the database and Redis and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	// A nil Redis client disables caching, event publishing and the Redis rate limiter.
	db, redisClient, err := bootstrap.InitRuntime(cfg, bootstrap.Options{SeedDemoData: cfg.SeedDemoData})
	if err != nil {
		return nil, err
	}

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	gotItRepo := repository.NewGotItRepository(db)
	followRepo := repository.NewFollowRepository(db)
	hiddenRepo := repository.NewHiddenPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)

	store := cache.NewStore(redisClient)
	flags := featureflags.NewManager(cfg.FeatureFlags)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: httpMetrics(),
		featureFlags:   flags,
	}

	var publisher service.EventPublisher
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		publisher = server.notifier
	}

	server.notificationService = service.NewNotificationService(notificationRepo, publisher, store)
	server.scoreService = service.NewScoreService(postRepo, gotItRepo)
	server.feedService = service.NewFeedService(postRepo, hiddenRepo, followRepo)
	server.userService = service.NewUserService(userRepo, followRepo, server.scoreService)
	server.messageService = service.NewMessageService(messageRepo)
	server.commentService = service.NewCommentService(commentRepo, postRepo, userRepo, server.notificationService, store)
	server.toggleService = service.NewToggleService(service.ToggleDeps{
		Posts:   postRepo,
		Users:   userRepo,
		Likes:   likeRepo,
		GotIts:  gotItRepo,
		Follows: followRepo,
		Fanout:  server.notificationService,
		Flags:   flags,
		Cache:   store,
	})
	server.postService = service.NewPostService(service.PostDeps{
		Posts:                   postRepo,
		Users:                   userRepo,
		Likes:                   likeRepo,
		GotIts:                  gotItRepo,
		Hidden:                  hiddenRepo,
		Flags:                   flags,
		Cache:                   store,
		ReportGoneMaxDistanceKm: cfg.ReportGoneMaxDistanceKm,
	})

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so browser clients still receive CORS
	// headers on 429 responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	middleware.InitMiddleware(s.config)

	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Post routes. Static segments are registered before /:id.
	posts := api.Group("/posts")
	posts.Get("/", middleware.AuthRequired, s.GetFeed)
	posts.Get("/search", middleware.OptionalAuth,
		middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchPosts)
	posts.Post("/", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Delete("/comments/:commentId", middleware.AuthRequired, s.DeleteComment)

	posts.Post("/:id/like", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 60, time.Minute, "toggle"), s.ToggleLike)
	posts.Get("/:id/likes", s.GetPostLikes)
	posts.Post("/:id/got-it", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 60, time.Minute, "toggle"), s.ToggleGotIt)
	posts.Get("/:id/got-it", s.GetPostGotIt)
	posts.Post("/:id/comments", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/hide", middleware.AuthRequired, s.HidePost)
	posts.Delete("/:id/hide", middleware.AuthRequired, s.UnhidePost)
	posts.Get("/:id/hidden-status", middleware.AuthRequired, s.GetHiddenStatus)
	posts.Post("/:id/report-gone", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 5, 10*time.Minute, "report_gone"), s.ReportGone)

	posts.Get("/:id", middleware.OptionalAuth, s.GetPost)
	posts.Put("/:id", middleware.AuthRequired, s.UpdatePost)
	posts.Delete("/:id", middleware.AuthRequired, s.DeletePost)

	// User routes
	users := api.Group("/users")
	users.Get("/me", middleware.AuthRequired, s.GetMyProfile)
	users.Put("/me", middleware.AuthRequired, s.UpdateMyProfile)
	users.Get("/lookup", s.LookupUser)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id/posts", middleware.OptionalAuth, s.GetUserPosts)
	users.Post("/:id/follow", middleware.AuthRequired,
		middleware.RateLimit(s.redis, 30, time.Minute, "follow"), s.ToggleFollow)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Get("/:id", s.GetUserProfile)

	// Notification inbox
	notificationsGroup := api.Group("/notifications", middleware.AuthRequired)
	notificationsGroup.Get("/", s.GetNotifications)
	notificationsGroup.Get("/unread-count", s.GetUnreadNotificationCount)
	notificationsGroup.Put("/read-all", s.MarkAllNotificationsRead)
	notificationsGroup.Put("/:id/read", s.MarkNotificationRead)

	// Message inbox
	messages := api.Group("/messages", middleware.AuthRequired)
	messages.Get("/", s.GetMessages)
	messages.Get("/unread/count", s.GetUnreadMessageCount)
	messages.Put("/read-all", s.MarkAllMessagesRead)
	messages.Put("/:id/read", s.MarkMessageRead)
	messages.Delete("/:id", s.DeleteMessage)

	admin := api.Group("/admin", middleware.AuthRequired)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// NewApp builds a Fiber app with the server's middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Freebies API",
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
				slog.String("path", c.Path()),
				slog.String("error", err.Error()),
			)
			return respondError(c, err)
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional: the
// API degrades to uncached reads without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus != "healthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and blocks serving on the configured port.
func (s *Server) Start() error {
	s.app = s.NewApp()

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("close sql DB: %w", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", rerr))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return errors.Join(errs...)
}
