// Package server contains the HTTP and WebSocket handlers of the marketplace API.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "bigvyapaar/docs" // swagger docs
	"bigvyapaar/internal/cache"
	"bigvyapaar/internal/config"
	"bigvyapaar/internal/database"
	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/middleware"
	"bigvyapaar/internal/notifications"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"
	"bigvyapaar/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	stores         *repository.Stores
	db             *gorm.DB
	redis          *redis.Client
	limiter        *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	authService    *service.AuthService
	productService *service.ProductService
	tradeService   *service.TradeService
	requestService *service.RequestService
	chatService    *service.ChatService
}

// OpenBackend connects the document store selected by cfg.StoreBackend. The
// returned Redis client is non-nil whenever REDIS_URL is reachable, because
// notifications always travel over Redis.
func OpenBackend(ctx context.Context, cfg *config.Config) (docstore.Backend, *gorm.DB, *redis.Client, error) {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			rdb = client
		case cfg.StoreBackend == config.BackendRedis:
			return nil, nil, nil, fmt.Errorf("redis connection failed: %w", err)
		default:
			observability.Logger.Warn("redis unavailable, notifications disabled", "error", err)
		}
	}

	opts := []docstore.Option{docstore.WithMaxRetries(cfg.StoreMaxRetries)}
	switch cfg.StoreBackend {
	case config.BackendRedis:
		if rdb == nil {
			return nil, nil, nil, errors.New("redis backend selected without REDIS_URL")
		}
		return docstore.NewRedisBackend(rdb, opts...), nil, rdb, nil
	case config.BackendPostgres, config.BackendSQLite:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		backend, err := docstore.NewSQLBackend(db, opts...)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("document table migration failed: %w", err)
		}
		return backend, db, rdb, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	backend, db, rdb, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stores, err := repository.NewStores(backend)
	if err != nil {
		return nil, err
	}

	srv := NewServerWithDeps(cfg, stores, rdb)
	srv.db = db
	return srv, nil
}

// NewServerWithDeps creates a Server from already-opened stores. rdb may be
// nil, which disables real-time delivery and rate limiting.
func NewServerWithDeps(cfg *config.Config, stores *repository.Stores, rdb *redis.Client) *Server {
	shutdownCtx, shutdownFn := context.WithCancel(context.Background())
	notifier := notifications.NewNotifier(rdb, cfg.JWTSecret)

	s := &Server{
		config:         cfg,
		stores:         stores,
		redis:          rdb,
		promMiddleware: middleware.InitMetrics("bigvyapaar-api"),
		shutdownCtx:    shutdownCtx,
		shutdownFn:     shutdownFn,
		notifier:       notifier,
	}
	if cfg.IsProduction() {
		s.limiter = rdb
	}

	notifyTimeout := time.Duration(cfg.NotifyTimeoutMS) * time.Millisecond
	establisher := service.NewChatEstablisher(stores.Users, stores.Chats)

	s.authService = service.NewAuthService(stores.Users, stores.Phones, stores.Products, notifier, cfg.JWTSecret)
	s.productService = service.NewProductService(stores.Products)
	s.tradeService = service.NewTradeService(stores.Products)
	s.requestService = service.NewRequestService(stores.Products, stores.Users, establisher)
	s.chatService = service.NewChatService(stores.Chats, notifier, notifyTimeout)
	return s
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

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
}

// SetupRoutes registers every API route.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.limiter, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.limiter, 10, 5*time.Minute, "login"), s.Login)

	api.Get("/ws", middleware.WebSocketAuthRequired(s.notifier.VerifyAccessToken), s.WebsocketHandler())

	protected := api.Group("", middleware.AuthRequired(s.config.JWTSecret), middleware.ContextMiddleware())
	protected.Get("/me", s.GetMe)

	products := protected.Group("/products")
	products.Get("/", s.GetProducts)
	products.Post("/", s.CreateProduct)
	products.Get("/:id", s.GetProduct)
	products.Put("/:id", s.UpdateProduct)
	products.Delete("/:id", s.DeleteProduct)

	trades := protected.Group("/trades")
	trades.Post("/request", middleware.RateLimit(s.limiter, 10, 5*time.Minute, "trade_request"), s.SubmitTradeRequest)
	trades.Get("/requests", s.GetTradeRequests)
	trades.Post("/respond/:tradeId/:decision", s.RespondTradeRequest)
	trades.Post("/:productId/:side", s.CreateTrade)
	trades.Put("/:productId/:side/:tradeId", s.UpdateTrade)
	trades.Delete("/:productId/:side/:tradeId", s.DeleteTrade)

	chats := protected.Group("/chats")
	chats.Get("/:chatId", s.GetChat)
	chats.Post("/:chatId/send", middleware.RateLimit(s.limiter, 30, time.Minute, "send_chat"), s.SendMessage)
}

// HealthCheck reports whether the document store and Redis are reachable.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			storeStatus = "unhealthy"
		}
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" ||
		(s.config.StoreBackend == config.BackendRedis && redisStatus != "healthy") {
		status = fiber.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"store": storeStatus,
			"redis": redisStatus,
		},
		"time": time.Now(),
	})
}

// Shutdown closes open subscriptions and store connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownFn()

	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("database close: %w", err))
			}
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
