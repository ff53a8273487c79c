package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"etickets/internal/admin"
	"etickets/internal/admin/admin_api"
	"etickets/internal/analytics"
	analytics_api "etickets/internal/analytics/api"
	"etickets/internal/auth"
	"etickets/internal/auth/auth_api"
	authdb "etickets/internal/auth/db"
	"etickets/internal/config"
	"etickets/internal/database"
	"etickets/internal/events"
	eventsdb "etickets/internal/events/db"
	"etickets/internal/events/event_api"
	"etickets/internal/kafka"
	"etickets/internal/logger"
	"etickets/internal/metrics"
	"etickets/internal/notification"
	"etickets/internal/order"
	orderdb "etickets/internal/order/db"
	orderkafka "etickets/internal/order/kafka"
	"etickets/internal/order/order_api"
	orderredis "etickets/internal/order/redis"
	"etickets/internal/sse"
	qr "etickets/internal/tickets/qr_genrator"
	ticketsdb "etickets/internal/tickets/db"
	tickets "etickets/internal/tickets/service"
	ticketpdf "etickets/internal/tickets/template"
	"etickets/internal/tickets/ticket_api"
	"etickets/internal/uploads"
	"etickets/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// setupKafka returns the order event publisher and, when Kafka is enabled,
// the producer to close on shutdown.
func setupKafka(cfg config.KafkaConfig, logger *logger.Logger) (orderkafka.Events, *kafka.Producer) {
	if !cfg.Enabled {
		logger.Info("KAFKA", "KAFKA_ENABLED=false, order events are not published")
		return orderkafka.Noop{}, nil
	}

	producer := kafka.NewProducer(cfg.Brokers, logger)
	if err := kafka.EnsureTopicsExist(cfg.Brokers, cfg.Topics.All(), logger); err != nil {
		logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		logger.Info("KAFKA", "Required topics ensured successfully")
	}
	return orderkafka.NewOrderEvents(producer, cfg.Topics), producer
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("[CONFIG] .env file not found, using environment variables")
	}
	cfg := config.Load()

	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()

	logger.Info("APP", "Starting Jordan eTickets")
	ctx := context.Background()

	// --- Storage ---
	bunDB, err := database.Open(cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := database.Prepare(ctx, cfg.Database, bunDB, logger); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Schema setup failed: %v", err))
	}

	redisClient, err := auth.ConnectRedis(cfg.Redis, logger)
	if err != nil {
		logger.Fatal("REDIS", err.Error())
	}
	var (
		orderLock    admin.OrderLock   = orderredis.NoopLock{}
		loginLimiter auth.LoginLimiter = auth.NoopLimiter{}
	)
	if redisClient != nil {
		defer redisClient.Close()
		orderLock = orderredis.NewRedis(redisClient, cfg.Redis.ApprovalLockTTL)
		loginLimiter = auth.NewRedisLoginLimiter(redisClient, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginWindow)
	}

	orderEvents, producer := setupKafka(cfg.Kafka, logger)
	if producer != nil {
		defer producer.Close()
	}

	// --- Tickets and notifications ---
	store := uploads.NewStore(cfg.Uploads.Dir, cfg.Uploads.MaxBytes)
	qrGenerator := qr.NewQRGenerator(cfg.Server.PublicBaseURL)

	pdfRenderer, err := ticketpdf.NewTicketPDFGenerator(cfg.Tickets.FontPath)
	if err != nil {
		logger.Fatal("TICKET", fmt.Sprintf("TICKET_FONT_PATH: %v", err))
	}

	notifier, err := notification.NewNotifier(
		notification.NewSender(cfg.Email, logger),
		pdfRenderer,
		qrGenerator,
		cfg.Orders.CliqAlias,
		logger,
	)
	if err != nil {
		logger.Fatal("NOTIFY", err.Error())
	}
	feed := sse.NewOrderFeed()

	// --- Services ---
	users := &authdb.DB{Bun: bunDB}
	eventStore := &eventsdb.DB{Bun: bunDB}
	orderStore := &orderdb.DB{Bun: bunDB}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := auth.NewAuthService(users, tokens, loginLimiter, logger)
	authMiddleware := auth.NewMiddleware(tokens, users, logger)

	catalogService := events.NewCatalogService(eventStore)
	ticketService := tickets.NewTicketService(&ticketsdb.DB{Bun: bunDB}, qrGenerator)
	orderService := order.NewOrderService(
		orderStore,
		eventStore,
		store,
		notifier,
		orderEvents,
		feed,
		cfg.Orders.CliqAlias,
		cfg.Orders.MaxQuantity,
		logger,
	)
	adminService := admin.NewAdminService(
		orderStore,
		eventStore,
		ticketService,
		orderLock,
		notifier,
		orderEvents,
		feed,
		store,
		logger,
	)
	analyticsService := analytics.NewService(analytics.NewDB(bunDB))

	// --- Router ---
	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(utils.RequestLogger(logger))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Public Routes ---
	event_api.NewHandler(catalogService, logger).RegisterRoutes(r)
	order_api.NewHandler(orderService, cfg.Uploads.MaxBytes, logger).RegisterRoutes(r)
	auth_api.NewHandler(authService, authMiddleware, logger).RegisterRoutes(r)
	ticketHandler := ticket_api.NewHandler(ticketService, logger)
	ticketHandler.RegisterPublicRoutes(r)
	logger.Info("ROUTER", "Public routes registered under /api/events, /api/orders, /api/auth and /verify")

	// --- Admin Routes ---
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware.RequireAdmin)
		admin_api.NewHandler(adminService, feed, cfg.Uploads.MaxBytes, logger).RegisterRoutes(r)
		analytics_api.NewHandler(analyticsService, logger).RegisterRoutes(r)
		ticketHandler.RegisterAdminRoutes(r)
	})
	logger.Info("ROUTER", "Admin routes registered under /api/admin")

	fileServer := http.StripPrefix(uploads.PublicPrefix+"/", http.FileServer(http.Dir(cfg.Uploads.Dir)))
	r.Get(uploads.PublicPrefix+"/*", fileServer.ServeHTTP)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// Cancelled on shutdown so open order streams return.
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelBase)

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Jordan eTickets running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}
	if err := notifier.Wait(ctxShutdown); err != nil {
		logger.Warn("NOTIFY", fmt.Sprintf("Pending emails not drained: %v", err))
	}
	logger.Info("HTTP", "✅ Jordan eTickets shutdown complete")
}
