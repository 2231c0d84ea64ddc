package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/handyhub/dispatch-api/internal/config"
	"github.com/handyhub/dispatch-api/internal/domain/booking"
	"github.com/handyhub/dispatch-api/internal/domain/dispatch"
	"github.com/handyhub/dispatch-api/internal/domain/mapview"
	"github.com/handyhub/dispatch-api/internal/domain/profile"
	"github.com/handyhub/dispatch-api/internal/domain/realtime"
	"github.com/handyhub/dispatch-api/internal/middleware"
	"github.com/handyhub/dispatch-api/internal/pkg/database"
	"github.com/handyhub/dispatch-api/internal/pkg/eventbus"
	"github.com/handyhub/dispatch-api/internal/pkg/jwt"
	"github.com/handyhub/dispatch-api/internal/pkg/logger"
	"github.com/handyhub/dispatch-api/internal/pkg/recordstore"
	pkgresponse "github.com/handyhub/dispatch-api/internal/pkg/response"
	"github.com/handyhub/dispatch-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "dispatch-api",
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Str("event_bus", cfg.EventBus).
		Msg("Starting dispatch API")

	ctx := context.Background()

	// ---------- Record store ----------
	store, closeStore, err := recordstore.Open(ctx, recordstore.Options{
		Driver:      cfg.StoreDriver,
		DatabaseURL: cfg.DatabaseURL,
		MongoURI:    cfg.MongoURI,
		MongoDB:     cfg.MongoDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer closeStore()

	if indexer, ok := store.(recordstore.Indexer); ok {
		if err := indexer.EnsureIndexes(ctx, booking.Collection, booking.IndexedFields...); err != nil {
			log.Fatal().Err(err).Msg("Failed to create booking indexes")
		}
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("Using in-memory record store, bookings are lost on restart")
	}

	redisClient, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	// ---------- Profiles ----------
	var profileDB *sqlx.DB
	if cfg.DatabaseURL != "" {
		profileDB, err = database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer database.ClosePostgres(profileDB)

		if _, err := profileDB.ExecContext(ctx, profile.Schema); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate profiles table")
		}
	}
	profileResolver := newProfileResolver(profileDB, redisClient, cfg.ProfileCacheTTL)

	// ---------- Events ----------
	bus, err := eventbus.NewPublisher(busConfig(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to event bus")
	}
	defer bus.Close()

	hub := realtime.NewHub(redisClient)
	go hub.Run()
	defer hub.Shutdown()

	// ---------- Map storage ----------
	mapStorage, err := storage.New(ctx, storage.Config{
		Driver:      cfg.StorageDriver,
		LocalPath:   cfg.LocalStoragePath,
		S3Endpoint:  cfg.S3Endpoint,
		S3Region:    cfg.S3Region,
		S3Bucket:    cfg.S3Bucket,
		S3AccessKey: cfg.S3AccessKey,
		S3SecretKey: cfg.S3SecretKey,
		PublicURL:   publicURL(cfg),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create map storage")
	}

	// ---------- Services ----------
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	bookingService := booking.NewService(booking.NewRepository(store))
	bookingService.SetEventPublisher(booking.MultiPublisher{hub, booking.NewBusPublisher(bus)})

	dispatchService := dispatch.NewService(bookingService, profileResolver)

	// ---------- Handlers ----------
	h := handlers{
		booking:  booking.NewHandler(bookingService),
		dispatch: dispatch.NewHandler(dispatchService),
		mapview:  mapview.NewHandler(bookingService, mapview.NewPublisher(mapStorage)),
		realtime: realtime.NewHandler(hub, cfg.AllowedOrigins),
	}

	authMiddleware := middleware.Auth(jwtService)
	decisionLimit := middleware.NewActorRateLimiter(cfg.TransitionRatePerMin, 5).Middleware

	r := newRouter(h, authMiddleware, decisionLimit, cfg.AllowedOrigins)
	if cfg.StorageDriver == storage.DriverLocal || cfg.StorageDriver == "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type handlers struct {
	booking  *booking.Handler
	dispatch *dispatch.Handler
	mapview  *mapview.Handler
	realtime *realtime.Handler
}

func newRouter(h handlers, authMiddleware, decisionLimit func(http.Handler) http.Handler, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(allowedOrigins))

	// Browsers cannot set headers on WebSocket upgrades.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(h.realtime.WebSocket)).ServeHTTP(w, r)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/bookings", h.booking.Routes(authMiddleware, decisionLimit))
		r.Mount("/bookings/{id}/map", h.mapview.Routes(authMiddleware))
		r.Mount("/dispatch", h.dispatch.Routes(authMiddleware))
	})

	return r
}

// newProfileResolver wires the profile lookup; without Postgres every
// counterpart falls back to the name stored on the booking.
func newProfileResolver(db *sqlx.DB, redisClient *redis.Client, ttl time.Duration) *profile.Resolver {
	var repo profile.Repository
	if db != nil {
		repo = profile.NewRepository(db)
	}
	var cache profile.Cache
	if redisClient != nil {
		cache = profile.NewRedisCache(redisClient, ttl)
	}
	return profile.NewResolver(repo, cache)
}

func busConfig(cfg *config.Config) eventbus.Config {
	return eventbus.Config{
		Driver:   cfg.EventBus,
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		URL:      cfg.RabbitMQURL,
		Exchange: cfg.RabbitMQExchange,
	}
}

func publicURL(cfg *config.Config) string {
	if cfg.StorageDriver == config.StorageS3 {
		return cfg.S3PublicURL
	}
	return cfg.PublicBaseURL
}
