package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound/internal/auth"
	"github.com/campuslf/lostfound/internal/events"
	"github.com/campuslf/lostfound/internal/handlers"
	"github.com/campuslf/lostfound/internal/storage"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	config := loadConfig()

	log.Info().
		Str("host", config.Host).
		Str("port", config.Port).
		Msg("Starting campus lost & found service")

	log.Info().Msg("Initializing Postgres storage...")
	store, err := storage.NewPostgresStorage(
		config.DBHost,
		config.DBPort,
		config.DBUser,
		config.DBPassword,
		config.DBName,
		config.DBSSLMode,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Postgres storage")
	}
	defer store.Close()
	log.Info().Msg("Postgres storage initialized")

	log.Info().Msg("Initializing MinIO storage...")
	blobs, err := storage.NewMinIOStorage(
		config.MinIOEndpoint,
		config.MinIOPublicEndpoint,
		config.MinIOAccessKey,
		config.MinIOSecretKey,
		config.MinIOBucket,
		config.MinIOUseSSL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MinIO storage")
	}
	log.Info().Msg("MinIO storage initialized successfully")

	var publisher *events.Publisher
	if config.RabbitMQURL != "" {
		log.Info().Msg("Initializing RabbitMQ publisher...")
		publisher, err = events.NewPublisher(config.RabbitMQURL, config.RabbitMQExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize RabbitMQ publisher")
		}
		defer publisher.Close()
		log.Info().Msg("RabbitMQ publisher initialized successfully")
	} else {
		log.Warn().Msg("RABBITMQ_URL not configured - report events will not be published")
	}

	authService := auth.NewService(store, config.JWTSecret)

	checks := map[string]handlers.HealthCheck{
		"postgres": store.HealthCheck,
		"storage":  blobs.HealthCheck,
	}
	if publisher != nil {
		checks["rabbitmq"] = func(context.Context) error { return publisher.HealthCheck() }
	}

	handler := handlers.NewHandler(authService, store, blobs, publisher, checks)

	// Setup router
	router := setupRouter(handler, authService)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("address", srv.Addr).
			Msg("Server starting...")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

type Config struct {
	Host                string
	Port                string
	JWTSecret           string
	RabbitMQURL         string
	RabbitMQExchange    string
	MinIOEndpoint       string
	MinIOPublicEndpoint string
	MinIOAccessKey      string
	MinIOSecretKey      string
	MinIOBucket         string
	MinIOUseSSL         bool
	DBHost              string
	DBPort              string
	DBUser              string
	DBPassword          string
	DBName              string
	DBSSLMode           string
}

// loadConfig loads configuration from environment variables
func loadConfig() *Config {
	return &Config{
		Host:                getEnv("SERVER_HOST", "0.0.0.0"),
		Port:                getEnv("SERVER_PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", "change-me-in-production"),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange:    getEnv("RABBITMQ_EXCHANGE", "lostfound.events"),
		MinIOEndpoint:       getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOPublicEndpoint: getEnv("MINIO_PUBLIC_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:      getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:      getEnv("MINIO_SECRET_KEY", "minioadmin123"),
		MinIOBucket:         getEnv("MINIO_BUCKET_NAME", "item-images"),
		MinIOUseSSL:         getEnv("MINIO_USE_SSL", "false") == "true",
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnv("DB_PORT", "5432"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", "postgres"),
		DBName:              getEnv("DB_NAME", "postgres"),
		DBSSLMode:           getEnv("DB_SSL_MODE", "disable"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// setupRouter configures all routes and middleware
func setupRouter(h *handlers.Handler, authService *auth.Service) *mux.Router {
	r := mux.NewRouter()

	// Middleware
	r.Use(handlers.LoggingMiddleware)
	r.Use(handlers.RecoveryMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Auth
	api.HandleFunc("/auth/signup", h.SignUpHandler).Methods("POST")
	api.HandleFunc("/auth/login", h.SignInHandler).Methods("POST")
	api.HandleFunc("/auth/session", h.SessionHandler).Methods("GET")
	api.HandleFunc("/auth/logout", h.SignOutHandler).Methods("POST")

	// Reports: browsing is public, writing requires a session
	api.HandleFunc("/reports", h.ListReportsHandler).Methods("GET")
	api.HandleFunc("/reports/{id}", h.GetReportHandler).Methods("GET")
	api.HandleFunc("/categories", h.CategoriesHandler).Methods("GET")

	gate := handlers.RequireSession(authService)
	api.Handle("/reports", gate(http.HandlerFunc(h.CreateReportHandler))).Methods("POST")
	api.Handle("/reports/{id}", gate(http.HandlerFunc(h.DeleteReportHandler))).Methods("DELETE")

	// Health check at root
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	log.Info().Msg("Routes configured successfully")
	return r
}
