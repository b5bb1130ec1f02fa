package app

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/handlers"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/config"
	"carpool/internal/handler"
	"carpool/internal/middleware"
	"carpool/internal/pages"
	"carpool/internal/service"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler *handler.RideHandler
	UserHandler *handler.UserHandler
	MapHandler  *handler.MapHandler
	PageHandler *handler.PageHandler
	Sessions    *service.SessionService
	RedisClient *redis.Client
	NewRelicApp *newrelic.Application
	StaticDir   string
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) (*gin.Engine, error) {
	router := gin.New()

	tmpl, err := pages.Templates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.SessionMiddleware(deps.Sessions))
	router.Use(middleware.NewRelicAttributes())
	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if deps.StaticDir != "" {
		router.StaticFile(pages.LogoURL, filepath.Join(deps.StaticDir, filepath.Base(pages.LogoURL)))
	}

	// Pages.
	for _, route := range pages.Routes {
		h := deps.PageHandler.Serve(route)
		router.GET(route.Path, h)
		router.POST(route.Path, h)
	}

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.POST("/login", deps.UserHandler.Login)
			users.GET("", deps.UserHandler.GetAll)
			users.GET("/me", middleware.RequireSession(), deps.UserHandler.Me)
		}

		// Ride routes.
		rides := v1.Group("/rides")
		{
			rides.POST("", middleware.RequireSession(), deps.RideHandler.CreateRide)
			rides.GET("", deps.RideHandler.GetAll)
			rides.GET("/search", deps.RideHandler.Search)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/book", middleware.RequireSession(), deps.RideHandler.BookRide)
			rides.POST("/:id/reviews", deps.RideHandler.ReviewRide)
		}

		v1.GET("/bookings", deps.RideHandler.ListBookings)

		// Map routes.
		v1.GET("/map", deps.MapHandler.Route)
		v1.GET("/cities", deps.MapHandler.Cities)
		v1.GET("/cities/nearest", deps.MapHandler.Nearest)
	}

	return router, nil
}

// NewServer wraps the router with CORS and returns the HTTP server.
func NewServer(cfg config.ServerConfig, router http.Handler) *http.Server {
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "Idempotency-Key"}),
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      cors(router),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
