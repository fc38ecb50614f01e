// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log/slog"
	"time"

	_ "chirp/docs" // swagger docs
	"chirp/internal/auth"
	"chirp/internal/config"
	"chirp/internal/featureflags"
	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/notifications"
	"chirp/internal/repository"
	"chirp/internal/service"

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

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager

	authService       *service.AuthService
	userService       *service.UserService
	followService     *service.FollowService
	tweetService      *service.TweetService
	engagementService *service.EngagementService
	searchService     *service.SearchService
	mediaService      *service.MediaService
}

// NewServerWithDeps creates a Server from dependencies opened by bootstrap.InitRuntime
// (or by tests). A nil redisClient disables realtime delivery and per-route limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	follows := repository.NewFollowRepository(db, cfg.FollowingCacheTTL)
	circles := repository.NewCircleRepository(db)
	tweets := repository.NewTweetRepository(db)
	hashtags := repository.NewHashtagRepository(db)
	likes := repository.NewLikeRepository(db)
	bookmarks := repository.NewBookmarkRepository(db)
	search := repository.NewSearchRepository(db)

	flags, err := featureflags.NewManager(cfg.FeatureFlags)
	if err != nil {
		return nil, err
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("chirp-api"),
		notifier:       notifications.NewNotifier(redisClient),
		hub:            notifications.NewHub(),
		featureFlags:   flags,
	}

	visibility := service.NewVisibilityService(tweets, users, follows, circles)
	server.authService = service.NewAuthService(users, sessions, auth.NewTokenService(cfg))
	server.userService = service.NewUserService(users, follows, circles)
	server.followService = service.NewFollowService(users, follows)
	server.tweetService = service.NewTweetService(tweets, hashtags, users, follows, circles, visibility, server.notifier, flags)
	server.engagementService = service.NewEngagementService(likes, bookmarks, visibility)
	server.searchService = service.NewSearchService(search, follows, server.tweetService)
	server.mediaService = service.NewMediaService(cfg)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Copies request and trace IDs into the request context for logging.
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
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

// rateLimit builds a per-route limiter backed by Redis.
func (s *Server) rateLimit(name string, limit int, window time.Duration, policy middleware.FailPolicy) fiber.Handler {
	var rdb redis.Cmdable
	if s.redis != nil {
		rdb = s.redis
	}
	return middleware.RateLimit(rdb, s.config.Env, middleware.RateLimitRule{
		Name:   name,
		Limit:  limit,
		Window: window,
		Policy: policy,
	})
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	api := app.Group("/api")

	users := api.Group("/users")
	users.Post("/register", s.rateLimit("register", 3, 10*time.Minute, middleware.FailClosed), s.Register)
	users.Post("/login", s.rateLimit("login", 10, 5*time.Minute, middleware.FailClosed), s.Login)
	users.Post("/logout", s.Logout)
	users.Post("/refresh-token", s.RefreshToken)
	users.Post("/verify-email", s.VerifyEmail)
	users.Post("/resend-verify-email", s.AuthRequired(),
		s.rateLimit("resend_verify", 3, 10*time.Minute, middleware.FailOpen), s.ResendVerifyEmail)
	users.Post("/forgot-password", s.rateLimit("forgot_password", 3, 10*time.Minute, middleware.FailClosed), s.ForgotPassword)
	users.Post("/verify-forgot-password", s.VerifyForgotPassword)
	users.Post("/password-reset", s.ResetPassword)

	// Specific /users paths before the generic /:username route.
	users.Get("/me", s.AuthRequired(), s.GetMe)
	users.Patch("/me", s.AuthRequired(), s.VerifiedRequired(), s.UpdateMe)
	users.Put("/change-password", s.AuthRequired(), s.VerifiedRequired(), s.ChangePassword)
	users.Post("/follow", s.AuthRequired(), s.VerifiedRequired(),
		s.rateLimit("follow", 30, time.Minute, middleware.FailOpen), s.Follow)
	users.Delete("/follow/:targetUserId", s.AuthRequired(), s.VerifiedRequired(), s.Unfollow)
	users.Get("/circle", s.AuthRequired(), s.VerifiedRequired(), s.ListCircle)
	users.Post("/circle", s.AuthRequired(), s.VerifiedRequired(), s.AddCircleMember)
	users.Delete("/circle/:memberId", s.AuthRequired(), s.VerifiedRequired(), s.RemoveCircleMember)
	users.Get("/:username", s.OptionalAuth(), s.GetProfile)

	tweets := api.Group("/tweets")
	tweets.Post("/", s.AuthRequired(), s.VerifiedRequired(),
		s.rateLimit("create_tweet", 30, time.Minute, middleware.FailOpen), s.CreateTweet)
	tweets.Get("/timeline", s.AuthRequired(), s.VerifiedRequired(), s.GetTimeline)
	tweets.Get("/", s.OptionalAuth(), s.ListTweets)
	tweets.Get("/:tweetId/children", s.OptionalAuth(), s.GetTweetChildren)
	tweets.Get("/:tweetId", s.OptionalAuth(), s.GetTweet)

	likes := api.Group("/likes", s.AuthRequired(), s.VerifiedRequired())
	likes.Post("/", s.Like)
	likes.Delete("/tweets/:tweetId", s.Unlike)

	bookmarks := api.Group("/bookmarks", s.AuthRequired(), s.VerifiedRequired())
	bookmarks.Get("/", s.ListBookmarks)
	bookmarks.Post("/", s.Bookmark)
	bookmarks.Delete("/tweets/:tweetId", s.Unbookmark)

	api.Get("/search", s.OptionalAuth(), s.rateLimit("search", 30, time.Minute, middleware.FailOpen), s.Search)

	medias := api.Group("/medias", s.AuthRequired(), s.VerifiedRequired(),
		s.rateLimit("upload", 20, time.Minute, middleware.FailOpen))
	medias.Post("/upload-image", s.UploadImage)
	medias.Post("/upload-video", s.UploadVideo)

	api.Get("/feature-flags", s.OptionalAuth(), s.GetFeatureFlags)

	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.WebsocketHandler())
}

// LivenessCheck handles liveness requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if s.db == nil {
		dbStatus = "unhealthy"
	} else if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Realtime fan-out and tickets need Redis.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
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

// App builds the Fiber application with middleware and routes.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "chirp API",
		BodyLimit: int(max(s.config.MaxVideoUploadBytes, 4*1024*1024)) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: fiberErrorCode(fe.Code)})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start hub wiring",
					slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
			}
		}()
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// PurgeExpiredSessions removes refresh sessions past their expiry.
func (s *Server) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return repository.NewSessionRepository(s.db).PurgeExpired(ctx, time.Now())
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
