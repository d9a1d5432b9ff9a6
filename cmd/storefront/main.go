package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/nirogkart/storefront/internal/backend"
	"github.com/nirogkart/storefront/internal/cache"
	"github.com/nirogkart/storefront/internal/cart"
	"github.com/nirogkart/storefront/internal/catalog"
	"github.com/nirogkart/storefront/internal/checkout"
	"github.com/nirogkart/storefront/internal/events"
	h "github.com/nirogkart/storefront/internal/http"
	"github.com/nirogkart/storefront/internal/repository"
)

type Config struct {
	HTTPPort        string
	BackendAPIURL   string
	RedisAddr       string
	MongoURI        string
	MongoDB         string
	KafkaBrokers    []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		BackendAPIURL:   getEnv("BACKEND_API_URL", "http://localhost:8000/api"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "storefront"),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.WithField("key", key).Warn("invalid duration, using default")
	}
	return defaultValue
}

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	cartRepo := repository.NewMongoRepository(mongoDB)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.WithError(err).Fatal("failed to ping redis")
	}
	redisCache := cache.NewRedisCache(redisClient)

	apiClient := backend.New(cfg.BackendAPIURL, cfg.RequestTimeout)

	cartService := cart.NewService(cartRepo, redisCache)
	catalogService := catalog.NewService(apiClient, redisCache)

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers...)
	defer publisher.Close()

	checkoutStore := checkout.NewStore()
	checkoutService := checkout.NewService(checkoutStore, apiClient, cartService, redisCache, publisher)
	defer checkoutService.Close()

	consumer := events.NewConsumer(cartService, cfg.KafkaBrokers...)
	defer consumer.Close()
	go consumer.Run(ctx)

	router := h.NewRouter(
		h.NewCheckoutHandler(checkoutService, cartService, cfg.RequestTimeout),
		h.NewCartHandler(cartService, cfg.RequestTimeout),
		h.NewOrdersHandler(apiClient, cfg.RequestTimeout),
		h.NewProductHandler(catalogService, cfg.RequestTimeout),
		cfg.RequestTimeout,
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exited")
}
