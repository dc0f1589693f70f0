// Package server contains the HTTP handlers for the marketplace API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	_ "campusrent/docs" // swagger docs
	"campusrent/internal/auth"
	"campusrent/internal/config"
	"campusrent/internal/middleware"
	"campusrent/internal/models"
	"campusrent/internal/observability"
	"campusrent/internal/repository"
	"campusrent/internal/service"

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
	config              *config.Config
	db                  *gorm.DB
	redis               *redis.Client
	app                 *fiber.App
	promMiddleware      *fiberprometheus.FiberPrometheus
	tokens              *auth.TokenManager
	store               *repository.Store
	userService         *service.UserService
	listingService      *service.ListingService
	rentalService       *service.RentalService
	messageService      *service.MessageService
	notificationService *service.NotificationService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	store := repository.NewStore(db)
	tokens := auth.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	s := &Server{
		config:              cfg,
		db:                  db,
		redis:               redisClient,
		promMiddleware:      middleware.InitMetrics(observability.ServiceName),
		tokens:              tokens,
		store:               store,
		userService:         service.NewUserService(store, tokens),
		listingService:      service.NewListingService(store),
		rentalService:       service.NewRentalService(store, transitionPolicy(cfg)),
		messageService:      service.NewMessageService(store),
		notificationService: service.NewNotificationService(store),
	}

	if cfg.PermissiveTransitions() {
		middleware.Logger.Warn("legacy permissive rental transitions enabled; any action may move a rental to any status",
			slog.String("RENTAL_TRANSITIONS", cfg.RentalTransitions))
	}
	if cfg.AllowQueryIdentity {
		middleware.Logger.Warn("query-parameter identity is enabled; callers may act as any user id")
	}

	s.app = s.newApp()
	return s, nil
}

func transitionPolicy(cfg *config.Config) models.TransitionPolicy {
	if cfg.PermissiveTransitions() {
		return models.PermissiveTransitions{}
	}
	return models.StrictTransitions{}
}

// App exposes the configured Fiber application (used by tests through app.Test).
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Campus Rent API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return models.RespondWithError(c, fe.Code, err)
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing runs before the context middleware so trace IDs reach the logger
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	// CORS before anything that can short-circuit, so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
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
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Front-end assets
	app.Static("/static", s.config.StaticDir)
	app.Get("/", s.Index)

	// Auth
	app.Post("/register", middleware.RateLimit(
		s.redis, s.config.Env, 3, 10*time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(
		s.redis, s.config.Env, 10, 5*time.Minute, "login"), s.Login)
	app.Post("/logout", s.Identity(""), s.Logout)

	// Listings
	listings := app.Group("/listings")
	listings.Get("/", s.GetActiveListings)
	listings.Post("/create", s.Identity("user_id"), s.CreateListing)
	app.Get("/users/:id", s.GetUser)
	app.Get("/users/:id/listings", s.GetUserListings)

	// Rentals: specific routes before the generic /:id route
	rentals := app.Group("/rentals")
	rentals.Post("/request", s.Identity("rentee_id"), middleware.RateLimit(
		s.redis, s.config.Env, 10, time.Minute, "rental_request"), s.RequestRental)
	rentals.Get("/rentee", s.Identity("rentee_id"), s.GetRenteeRentals)
	rentals.Get("/owner", s.Identity("owner_id"), s.GetOwnerRentals)
	rentals.Post("/:id/approve", s.OptionalIdentity("user_id"), s.ApproveRental)
	rentals.Post("/:id/deny", s.OptionalIdentity("user_id"), s.DenyRental)
	rentals.Post("/:id/pickup", s.OptionalIdentity("user_id"), s.ConfirmPickup)
	rentals.Post("/:id/return", s.OptionalIdentity("user_id"), s.ConfirmReturn)
	rentals.Get("/:id", s.GetRental)

	// Messages
	messages := app.Group("/messages")
	messages.Post("/send", s.Identity("sender_id"), middleware.RateLimit(
		s.redis, s.config.Env, 15, time.Minute, "send_message"), s.SendMessage)
	messages.Get("/inbox", s.Identity("user_id"), s.GetInbox)

	app.Get("/notifications", s.Identity("user_id"), s.GetNotifications)
}

// Index serves the front-end entry document.
func (s *Server) Index(c *fiber.Ctx) error {
	return c.SendFile(filepath.Join(s.config.StaticDir, "index.html"))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis only backs caches and rate limits, so running without it is degraded, not down.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"service": observability.ServiceName,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
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
