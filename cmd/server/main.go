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

	"github.com/lumberhaus/storefront-backend/config"
	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/controller"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	"github.com/lumberhaus/storefront-backend/internal/db"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/internal/router"
	"github.com/lumberhaus/storefront-backend/internal/scheduler"
	"github.com/lumberhaus/storefront-backend/internal/storage"
	"github.com/lumberhaus/storefront-backend/internal/websocket"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
	"github.com/lumberhaus/storefront-backend/pkg/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

// catalog bundles the product and review stores with whatever must be closed
// on shutdown.
type catalog struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	close    func()
}

func openCatalog(ctx context.Context, cfg *config.Config) (*catalog, error) {
	switch cfg.Catalog.Backend {
	case config.CatalogBackendMongo:
		client, mdb, err := db.ConnectMongo(ctx, cfg.Catalog.MongoURI, cfg.Catalog.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return &catalog{
			products: repository.NewMongoProductRepository(mdb),
			reviews:  repository.NewMongoReviewRepository(mdb),
			close:    func() { disconnectMongo(client) },
		}, nil
	default:
		conn, err := db.Open(&cfg.Catalog.Postgres)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(conn, "catalog", db.CatalogModels...); err != nil {
			_ = db.Close(conn)
			return nil, err
		}
		return &catalog{
			products: repository.NewProductRepository(conn),
			reviews:  repository.NewReviewRepository(conn),
			close:    func() { closeDB(conn, "catalog") },
		}, nil
	}
}

func disconnectMongo(client *mongo.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect MongoDB", err)
	}
}

func closeDB(conn *gorm.DB, name string) {
	if err := db.Close(conn); err != nil {
		logger.Error("Failed to close database connection", err, map[string]interface{}{
			"database": name,
		})
	}
}

func newTracker(cfg *config.Config) analytics.Tracker {
	if cfg.Kafka.Enabled() {
		logger.Info("Analytics events go to Kafka", map[string]interface{}{
			"topic": cfg.Kafka.Topic,
		})
		return analytics.NewKafkaTracker(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BufferSize)
	}
	logger.Warn("Kafka is not configured, analytics events will only be logged", nil)
	return analytics.NewLogTracker()
}

func newSessionStore(ctx context.Context, cfg *config.Config) (redis.SessionStore, func()) {
	client, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Warn("Redis unavailable, admin sessions are kept in memory", map[string]interface{}{
			"error": err.Error(),
		})
		return redis.NewMemorySessionStore(), func() {}
	}
	return redis.NewSessionStore(client), func() {
		if err := client.Close(); err != nil {
			logger.Error("Failed to close Redis client", err)
		}
	}
}

func newPresigner(ctx context.Context, cfg *config.Config) storage.Presigner {
	if cfg.S3.Bucket == "" {
		logger.Warn("S3 bucket is not configured, image uploads are disabled", nil)
		return nil
	}
	s3, err := storage.NewS3Storage(ctx, cfg.S3)
	if err != nil {
		logger.Error("Failed to initialize S3 storage, image uploads are disabled", err)
		return nil
	}
	return s3
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Lumberhaus backend", map[string]interface{}{
		"environment":     cfg.Server.Environment,
		"port":            cfg.Server.Port,
		"log_level":       logLevel,
		"catalog_backend": string(cfg.Catalog.Backend),
	})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Order/admin database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer closeDB(db.DB, "orders")

	if err := db.Migrate(db.DB, "orders", db.OrderModels...); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	cat, err := openCatalog(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to open catalog", err)
	}
	defer cat.close()

	sessions, closeSessions := newSessionStore(ctx, cfg)
	defer closeSessions()

	tracker := newTracker(cfg)
	defer func() {
		if err := tracker.Close(); err != nil {
			logger.Error("Failed to flush analytics events", err)
		}
	}()

	mail := mailer.NewSender(cfg.SMTP)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	orderRepo := repository.NewOrderRepository(db.DB)
	cartRepo := repository.NewCartRepository(db.DB)

	// Services
	timeout := cfg.Server.StoreTimeout
	adminAuthService := service.NewAdminAuthService(service.AdminAuthConfig{
		Password:      cfg.Admin.Password,
		SessionSecret: cfg.Admin.SessionSecret,
		SessionTTL:    cfg.Admin.SessionTTL,
		StoreTimeout:  timeout,
	}, sessions, tracker)
	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret:     cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
		StoreTimeout:  timeout,
	})
	reportService := service.NewCustomerReportService(orderRepo, cfg.Report.OrderWindow, timeout)
	adminOrderService := service.NewAdminOrderService(orderRepo, tracker, hub, mail, service.AdminOrderConfig{
		BulkLimit:    cfg.Admin.BulkLimit,
		StoreTimeout: timeout,
	})
	searchService := service.NewSearchService(cat.products, tracker, service.SearchOptions{
		CandidateLimit: cfg.Search.CandidateLimit,
		MaxSuggestions: cfg.Search.MaxSuggestions,
		StoreTimeout:   timeout,
	})
	productService := service.NewProductService(cat.products, timeout)
	reviewService := service.NewReviewService(cat.reviews, cat.products, tracker, timeout)
	cartService := service.NewCartService(cartRepo, cat.products, timeout)
	orderService := service.NewOrderService(orderRepo, cartRepo, cat.products, userRepo, mail, tracker, hub, timeout)
	emailService := service.NewEmailService(mail)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	adminMiddleware := middleware.NewAdminMiddleware(adminAuthService, cfg.Admin.CookieNames, cfg.Admin.LoginPath)

	cookieName := ""
	if len(cfg.Admin.CookieNames) > 0 {
		cookieName = cfg.Admin.CookieNames[0]
	}

	r := router.NewRouter(router.Controllers{
		Auth:          controller.NewAuthController(authService),
		Product:       controller.NewProductController(productService),
		Review:        controller.NewReviewController(reviewService),
		Search:        controller.NewSearchController(searchService),
		Cart:          controller.NewCartController(cartService),
		Order:         controller.NewOrderController(orderService),
		Email:         controller.NewEmailController(emailService),
		Event:         controller.NewEventController(tracker),
		AdminAuth:     controller.NewAdminAuthController(adminAuthService, adminMiddleware, controller.AdminCookie{Name: cookieName, Secure: cfg.Admin.SecureCookie}),
		AdminOrder:    controller.NewAdminOrderController(adminOrderService),
		AdminCustomer: controller.NewAdminCustomerController(reportService),
		Upload:        controller.NewUploadController(newPresigner(ctx, cfg)),
		Feed:          controller.NewFeedController(hub, cfg.CORS.AllowedOrigins),
	}, authMiddleware, adminMiddleware, cfg)

	cartPruner := scheduler.NewCartPruneScheduler(cartService, cfg.Scheduler.CartPruneSchedule, cfg.Scheduler.CartTTL, time.Minute)
	if err := cartPruner.Start(); err != nil {
		logger.Fatal("Failed to start cart prune scheduler", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown did not complete", err)
	}

	cartPruner.Stop()
	stop()

	logger.Info("Server stopped successfully")
}
