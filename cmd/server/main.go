package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"field-booking/internal/config"
	"field-booking/internal/database"
	"field-booking/internal/handlers"
	"field-booking/internal/kafka"
	"field-booking/internal/logger"
	"field-booking/internal/models"
	"field-booking/internal/redis"
	"field-booking/internal/services"
)

// Фабричные функции для подключения внешних сервисов (подменяемые в тестах).
var (
	dbConnect        = database.Connect
	redisConnect     = redis.Connect
	newKafkaProducer = kafka.NewProducer
	newKafkaConsumer = kafka.NewConsumer
	loadConfig       = config.Load
	newLogger        = logger.New
)

// application агрегирует собранные зависимости.
type application struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	producer *kafka.Producer
	consumer *kafka.Consumer
	mux      *http.ServeMux
	server   *http.Server
}

func main() {
	app, err := buildApplication()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build app: %v\n", err)
		os.Exit(1)
	}
	app.log.Info("Starting field booking server...")

	go func() {
		app.log.WithField("address", app.server.Addr).Info("HTTP server starting")
		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	app.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = app.consumer.Stop()
	if err := app.server.Shutdown(ctx); err != nil {
		app.log.WithError(err).Error("Server forced to shutdown")
	}
	_ = app.producer.Close()
	_ = app.redis.Close()
	_ = app.db.Close()
	app.log.Info("Server exited")
}

// buildApplication создает все зависимости (подменяемые в тестах).
func buildApplication() (*application, error) {
	cfg := loadConfig()
	log := newLogger(&cfg.Logger)

	db, err := dbConnect(&cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	redisClient, err := redisConnect(&cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	producer, err := newKafkaProducer(&cfg.Kafka, log)
	if err != nil {
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	consumer, err := newKafkaConsumer(&cfg.Kafka, log)
	if err != nil {
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}

	pricingService := services.NewPricingService(&cfg.Pricing)
	couponGuard := services.NewCouponGuard(log)
	couponService := services.NewCouponService(db, log)
	bookingService := services.NewBookingService(db, log, pricingService, couponGuard, couponService, &cfg.Booking)
	analyticsService := services.NewAnalyticsService(db, redisClient, log, &cfg.Analytics)
	rateLimiter := services.NewRateLimiter(redisClient, log, &cfg.RateLimit)

	bookingHandler := handlers.NewBookingHandler(bookingService, producer, redisClient, log)
	promoHandler := handlers.NewPromoHandler(couponService, log)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, log)
	healthHandler := handlers.NewHealthHandler(db, redisClient, cfg.Kafka.Brokers)
	rateLimitHandler := handlers.NewRateLimitHandler(rateLimiter, log, &cfg.RateLimit)

	registerEventHandlers(consumer, log)
	if err := consumer.Start(); err != nil {
		_ = consumer.Stop()
		_ = producer.Close()
		_ = redisClient.Close()
		_ = db.Close()
		return nil, fmt.Errorf("kafka consumer start: %w", err)
	}

	mux := setupRoutes(bookingHandler, promoHandler, analyticsHandler, healthHandler, rateLimitHandler, rateLimiter, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	return &application{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    redisClient,
		producer: producer,
		consumer: consumer,
		mux:      mux,
		server:   server,
	}, nil
}

// setupRoutes настраивает маршруты HTTP сервера
func setupRoutes(bookingHandler *handlers.BookingHandler, promoHandler *handlers.PromoHandler, analyticsHandler *handlers.AnalyticsHandler, healthHandler *handlers.HealthHandler, rateLimitHandler *handlers.RateLimitHandler, rateLimiter *services.RateLimiter, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	applyAPI := func(h http.HandlerFunc) http.HandlerFunc {
		return corsMiddleware(handlers.RateLimitMiddleware(rateLimiter, log, h))
	}

	// Health check endpoints
	mux.HandleFunc("/health", corsMiddleware(healthHandler.Health))
	mux.HandleFunc("/health/readiness", corsMiddleware(healthHandler.Readiness))
	mux.HandleFunc("/health/liveness", corsMiddleware(healthHandler.Liveness))

	// Booking endpoints
	mux.HandleFunc("/api/bookings/sync", applyAPI(bookingHandler.SyncBooking))
	mux.HandleFunc("/api/bookings", applyAPI(handleBookingsRoute(bookingHandler)))
	mux.HandleFunc("/api/bookings/", applyAPI(bookingHandler.GetBooking))

	// Coupon endpoints
	mux.HandleFunc("/api/promo-codes/", applyAPI(promoHandler.GetPromoCode))
	mux.HandleFunc("/api/coupons", applyAPI(promoHandler.ListRedemptions))

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/kpi", applyAPI(analyticsHandler.GetKPIs))

	// Rate limit status
	mux.HandleFunc("/api/rate-limit/status", applyAPI(rateLimitHandler.Status))

	return mux
}

// handleBookingsRoute обрабатывает маршруты для коллекции броней
func handleBookingsRoute(handler *handlers.BookingHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ListBookings(w, r)
		default:
			writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

// registerEventHandlers регистрирует обработчики событий Kafka
func registerEventHandlers(consumer *kafka.Consumer, log *logger.Logger) {
	consumer.RegisterHandler(models.EventTypeBookingCreated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing booking created event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeBookingUpdated, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing booking updated event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypeCouponReleased, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing coupon released event")
		return nil
	})

	consumer.RegisterHandler(models.EventTypePromoBurned, func(ctx context.Context, event *models.Event) error {
		log.WithField("event_id", event.ID).Info("Processing promo burned event")
		return nil
	})
}

// corsMiddleware и другие helper функции
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	type errorResponse struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}
