// Command carpoolctl inspects and edits a carpool store from the shell. It
// reads the same configuration as the server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"carpool/internal/app"
	"carpool/internal/config"
	"carpool/internal/logger"
	internalRedis "carpool/internal/redis"
	"carpool/internal/service"
)

type cli struct {
	cfg         *config.Config
	log         *logger.Logger
	store       *app.Store
	redisClient *redis.Client
	rides       *service.RideService
	users       *service.UserService
	maps        *service.MapService
}

func main() {
	c := &cli{maps: service.NewMapService()}
	if err := c.rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (c *cli) rootCmd() *cobra.Command {
	var storeDir, backend string

	root := &cobra.Command{
		Use:           "carpoolctl",
		Short:         "Manage carpool rides, bookings and users",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&storeDir, "dir", "", "CSV store directory (overrides STORE_DIR)")
	root.PersistentFlags().StringVar(&backend, "backend", "", "store backend: csv, memory or postgres (overrides STORE_BACKEND)")

	// open is run lazily by commands that need the store.
	open := func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if storeDir != "" {
			cfg.Store.Dir = storeDir
		}
		if backend != "" {
			cfg.Store.Backend = backend
		}
		c.cfg = cfg
		c.log = logger.New(cfg.Log.Service+"-ctl", "warn")
		return c.openStore(cmd.Context())
	}
	closeStore := func(*cobra.Command, []string) error {
		if c.redisClient != nil {
			c.redisClient.Close()
		}
		if c.store != nil {
			return c.store.Close()
		}
		return nil
	}

	rides := &cobra.Command{Use: "rides", Short: "Offer, search, book and review rides", PersistentPreRunE: open, PersistentPostRunE: closeStore}
	rides.AddCommand(c.ridesListCmd(), c.ridesSearchCmd(), c.ridesOfferCmd(), c.ridesBookCmd(), c.ridesReviewCmd())

	bookings := &cobra.Command{Use: "bookings", Short: "List booked rides", PersistentPreRunE: open, PersistentPostRunE: closeStore, RunE: c.bookingsList}
	users := &cobra.Command{Use: "users", Short: "List registered users", PersistentPreRunE: open, PersistentPostRunE: closeStore, RunE: c.usersList}

	root.AddCommand(rides, bookings, users, c.mapCmd(), c.citiesCmd())
	return root
}

func (c *cli) openStore(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.cfg.Redis.Enabled {
		client, err := app.NewRedisClient(ctx, c.cfg.Redis, nil)
		if err != nil {
			return err
		}
		c.redisClient = client
	}

	store, err := app.OpenStore(ctx, c.cfg, c.redisClient, nil, c.log)
	if err != nil {
		return err
	}
	c.store = store

	var cache internalRedis.RideCacheInterface
	if c.redisClient != nil {
		cache = internalRedis.NewCacheStore(c.redisClient)
	}
	sessions := service.NewSessionService(c.cfg.Session.Secret, c.cfg.Session.TTL, c.cfg.Session.Issuer)
	c.rides = service.NewRideService(store.Rides, store.Bookings, cache, service.NewNotificationService(c.log, nil))
	c.users = service.NewUserService(store.Users, sessions, 0)
	return nil
}
