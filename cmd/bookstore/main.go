package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/bookstore/internal/cart"
	"github.com/vasiliy-maslov/bookstore/internal/catalog"
	"github.com/vasiliy-maslov/bookstore/internal/config"
	"github.com/vasiliy-maslov/bookstore/internal/db"
	"github.com/vasiliy-maslov/bookstore/internal/favorites"
	httpHandler "github.com/vasiliy-maslov/bookstore/internal/handler/http"
	"github.com/vasiliy-maslov/bookstore/internal/identity"
	"github.com/vasiliy-maslov/bookstore/internal/order"
	"github.com/vasiliy-maslov/bookstore/internal/user"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "bookstore").Logger()

	log.Info().Msg("Bookstore starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.App.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Debug().Str("identity_mode", string(cfg.App.IdentityMode)).Str("port", cfg.App.Port).Msg("Configuration loaded")

	if err := db.Migrate(cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbConn, err := db.New(connectCtx, cfg.Postgres)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	catalogSvc, err := catalog.NewService(dbConn, catalog.NewRepository(), cfg.App.CatalogCacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create catalog service")
	}

	books, err := catalog.DefaultBooks()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse default catalog")
	}
	seedCtx, seedCancel := context.WithTimeout(context.Background(), 30*time.Second)
	seeded, err := catalogSvc.Seed(seedCtx, books)
	seedCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed catalog")
	}
	log.Info().Bool("seeded", seeded).Int("books", len(books)).Msg("Catalog ready")

	resolverOpts := identity.ResolverOptions{
		Mode:          identity.Mode(cfg.App.IdentityMode),
		CookieTTL:     cfg.App.SessionTTL,
		SecureCookies: cfg.App.SecureCookies,
	}

	var redisClient *redis.Client
	if resolverOpts.Mode == identity.ModeUser {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to Redis")
		}
		defer func() { _ = redisClient.Close() }()
		resolverOpts.Sessions = identity.NewRedisSessionStore(redisClient, cfg.App.SessionTTL)
	} else {
		resolverOpts.Tokens = identity.NewAnonymousTokens(cfg.App.TokenSecret, cfg.App.SessionTTL)
	}

	resolver, err := identity.NewResolver(resolverOpts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create identity resolver")
	}

	publisher := order.NopPublisher()
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := order.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer rabbit.Close()
		publisher = rabbit
	} else {
		log.Info().Msg("RABBITMQ_URL not set, order events are not published")
	}

	identities := identity.NewRepository()
	cartRepo := cart.NewRepository()

	burst := int(cfg.App.AuthRateLimit)
	if burst < 1 {
		burst = 1
	}

	router := httpHandler.NewRouter(httpHandler.RouterDeps{
		Logger:      log.Logger,
		Resolver:    resolver,
		Catalog:     catalogSvc,
		Cart:        cart.NewService(dbConn, cartRepo, identities),
		Favorites:   favorites.NewService(dbConn, favorites.NewRepository(), identities),
		Orders:      order.NewService(dbConn, order.NewRepository(), cartRepo, publisher),
		Users:       user.NewService(dbConn, user.NewRepository()),
		AuthLimiter: httpHandler.NewRateLimiter(cfg.App.AuthRateLimit, burst, 10*time.Minute),
	})

	var handler http.Handler = router
	if len(cfg.App.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.App.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type"},
			AllowCredentials: true,
		}).Handler(router)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Bookstore stopped gracefully")
}
