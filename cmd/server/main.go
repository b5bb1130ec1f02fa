package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/events"
	"carpool/internal/handler"
	"carpool/internal/logger"
	"carpool/internal/pages"
	internalRedis "carpool/internal/redis"
	"carpool/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("carpool", "info").Error("failed to load config", map[string]any{"error": err})
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Service, cfg.Log.Level)
	slog.SetDefault(log.Slog())

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", map[string]any{"error": err})
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", map[string]any{"error": err})
			nrApp = nil
		} else {
			log.Info("New Relic enabled", map[string]any{"app": cfg.NewRelic.AppName})
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		log.Info("connected to Redis", map[string]any{"addr": cfg.Redis.Addr})
	}

	store, err := app.OpenStore(ctx, cfg, redisClient, nrApp, log)
	if err != nil {
		return err
	}
	defer store.Close()

	var publisher service.Publisher
	if cfg.AMQP.URL != "" {
		p, err := events.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
		log.Info("publishing ride events", map[string]any{"exchange": cfg.AMQP.Exchange})
	}

	server, err := wireServer(cfg, log, store, redisClient, nrApp, publisher)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"port": cfg.Server.Port, "backend": cfg.Store.Backend})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	log.Info("shutting down server", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited", nil)
	return nil
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(
	cfg *config.Config,
	log *logger.Logger,
	store *app.Store,
	redisClient *redis.Client,
	nrApp *newrelic.Application,
	publisher service.Publisher,
) (*http.Server, error) {
	var cache internalRedis.RideCacheInterface
	if redisClient != nil {
		cache = internalRedis.NewCacheStore(redisClient)
	}

	// Initialize services.
	notificationService := service.NewNotificationService(log.WithFields(map[string]any{"component": "notifications"}), publisher)
	sessions := service.NewSessionService(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Issuer)
	rideService := service.NewRideService(store.Rides, store.Bookings, cache, notificationService)
	userService := service.NewUserService(store.Users, sessions, 0)
	mapService := service.NewMapService()

	logoPath := ""
	if cfg.Server.StaticDir != "" {
		logoPath = filepath.Join(cfg.Server.StaticDir, filepath.Base(pages.LogoURL))
	}

	router, err := app.NewRouter(app.RouterDeps{
		RideHandler: handler.NewRideHandler(rideService),
		UserHandler: handler.NewUserHandler(userService),
		MapHandler:  handler.NewMapHandler(mapService),
		PageHandler: handler.NewPageHandler(&pages.Services{
			Rides:    rideService,
			Users:    userService,
			Maps:     mapService,
			LogoPath: logoPath,
		}),
		Sessions:    sessions,
		RedisClient: redisClient,
		NewRelicApp: nrApp,
		StaticDir:   cfg.Server.StaticDir,
	})
	if err != nil {
		return nil, err
	}

	return app.NewServer(cfg.Server, router), nil
}
