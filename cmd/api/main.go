package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/witchakorn/marketgo-backend/internal/config"
	"github.com/witchakorn/marketgo-backend/internal/db"
	"github.com/witchakorn/marketgo-backend/internal/events"
	"github.com/witchakorn/marketgo-backend/internal/modules/auth"
	"github.com/witchakorn/marketgo-backend/internal/modules/catalog"
	"github.com/witchakorn/marketgo-backend/internal/modules/order"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
	"github.com/witchakorn/marketgo-backend/internal/redisx"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "marketgo-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Messaging (optional) ────────────────────────────────
	var publisher events.Publisher = events.NopPublisher{}
	var amqpClient *events.AMQPClient
	if cfg.AMQPURL != "" {
		amqpClient, err = events.NewAMQPClient(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
		}
		defer amqpClient.Close()
		publisher = amqpClient
	}

	var dedup events.Dedup
	if cfg.RedisAddr != "" {
		rdb, err := redisx.New(rootCtx, cfg.RedisAddr)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer rdb.Close()
		dedup = redisx.NewDeduper(rdb, "marketgo-api")
	}

	// ── Modules ─────────────────────────────────────────────
	userRepo := user.NewPostgresRepository(conn)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	authService := auth.NewService(userRepo, []byte(cfg.JWTSecret))
	authHandler := auth.NewHandler(authService)

	catalogRepo := catalog.NewPostgresRepository(conn)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	orderRepo := order.NewPostgresRepository(conn)
	orderService := order.NewService(orderRepo, catalogRepo, publisher)
	orderHandler := order.NewHandler(orderService)

	if amqpClient != nil {
		if err := amqpClient.ConsumePaymentUpdates(rootCtx, orderService, dedup); err != nil {
			log.Fatal().Err(err).Msg("failed to start payment update consumer")
		}
	}

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	authenticate := auth.Authenticator(userRepo, []byte(cfg.JWTSecret))

	router.Group(func(r chi.Router) {
		userHandler.RegisterPublicRoutes(r)
		authHandler.RegisterRoutes(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		catalogHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
	})
	router.Group(func(r chi.Router) {
		r.Use(authenticate, auth.RequireRole(user.RoleAdmin))
		userHandler.RegisterAdminRoutes(r)
	})

	// ── Server ──────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("server stopped")
}
